package models

// Fixed role ids seeded by the initial migration. The enumeration is static
// reference data; admin-facing role checks compare against these constants.
const (
	RoleAdmin     = 1
	RoleSeller    = 2
	RoleTrainee   = 3
	RoleCandidate = 4
)

// DefaultRoleID is assigned to newly registered users.
const DefaultRoleID = RoleCandidate

type Role struct {
	ID    int
	Name  string
	Label string
}
