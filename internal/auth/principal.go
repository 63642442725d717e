package auth

import "go.mongodb.org/mongo-driver/bson/primitive"

// RoleLevel is the numeric tier of an account in the delegation hierarchy.
// Higher values manage lower ones.
type RoleLevel int

const (
	LevelDummyAgent RoleLevel = 10
	LevelAgent      RoleLevel = 20
	LevelAdmin      RoleLevel = 50
	LevelMaster     RoleLevel = 100
)

// Principal is the resolved identity attached to every authenticated request.
type Principal struct {
	AccountID primitive.ObjectID
	RoleLevel RoleLevel
}

// IsMaster reports whether the principal bypasses edge scoping entirely.
func (p Principal) IsMaster() bool {
	return p.RoleLevel == LevelMaster
}

// IsAdminTier reports whether the principal may create tasks and act as an
// assigner in administrative overrides.
func (p Principal) IsAdminTier() bool {
	return p.RoleLevel >= LevelAdmin
}
