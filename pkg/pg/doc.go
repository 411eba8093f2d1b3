// Package pg wires PostgreSQL access for the module: pool creation with
// startup retries, goose migrations, transaction helpers and SQLSTATE error
// classification. Every store in this repository is built on the Querier
// interface so it can run inside or outside a transaction unchanged.
package pg
