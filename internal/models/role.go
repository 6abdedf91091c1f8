package models

// Role identifies who authored a message. The set is closed: anything
// else is a validation error.
type Role string

const (
	RoleRecruiter Role = "recruiter"
	RoleCandidate Role = "candidate"

	// RoleSystem is reserved for service-authored messages, such as a
	// group's founding message.
	RoleSystem Role = "system"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleRecruiter, RoleCandidate, RoleSystem:
		return true
	}
	return false
}
