package tenant

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SchemaFile is the on-disk configuration loaded at process start: the
// attribute schemas for tenant extra-data and settings, and the permission
// codes granted to a new tenant's owner group.
type SchemaFile struct {
	ExtraData        map[string]FieldSchema `yaml:"extra_data"`
	Settings         map[string]FieldSchema `yaml:"settings"`
	OwnerPermissions []string               `yaml:"owner_permissions"`
}

// DefaultOwnerPermissions applies when the schema file grants none.
var DefaultOwnerPermissions = []string{
	"tenant.change",
	"tenant.delete",
	"tenantsite.add",
	"tenantsite.change",
	"tenantsite.delete",
	"tenantrelationship.add",
	"tenantrelationship.change",
	"tenantrelationship.delete",
}

// LoadSchemaFile reads and parses the YAML schema configuration.
func LoadSchemaFile(path string) (*SchemaFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}

	var f SchemaFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, errors.Join(ErrInvalidTypeConfiguration, err)
	}

	if len(f.OwnerPermissions) == 0 {
		f.OwnerPermissions = DefaultOwnerPermissions
	}
	return &f, nil
}
