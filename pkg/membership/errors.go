package membership

import "errors"

// ErrNotMember is returned when the user has no relationship with the
// ambient tenant.
var ErrNotMember = errors.New("user is not a member of the tenant")
