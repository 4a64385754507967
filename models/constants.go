package models

// AccessLevel is the visibility tier on an isolate, gating which caller
// roles may read it.
type AccessLevel string

const (
	AccessLevelPublic     AccessLevel = "Public"
	AccessLevelLimited    AccessLevel = "Limited"
	AccessLevelRestricted AccessLevel = "Restricted"
)

// Valid reports whether the access level is one of the known tiers.
func (a AccessLevel) Valid() bool {
	switch a {
	case AccessLevelPublic, AccessLevelLimited, AccessLevelRestricted:
		return true
	}
	return false
}

// Role names known to the system.
const (
	RoleAdmin      = "Admin"
	RoleResearcher = "Researcher"
)

// Field length constraints
const (
	MaxNameLength  = 255
	MaxCodeLength  = 20
	MaxEmailLength = 320 // RFC 3696 specification
)
