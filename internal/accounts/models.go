package accounts

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"fieldverify/verification-portal-backend/internal/auth"
)

// Account is one identity in the delegation hierarchy. Parent points at the
// account that created this one; the chain of Parent pointers is the only
// representation of the hierarchy.
type Account struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name         string              `bson:"name" json:"name"`
	Email        string              `bson:"email" json:"email"`
	Phone        string              `bson:"phone" json:"phone"`
	PasswordHash string              `bson:"password" json:"-"`
	UserLevel    auth.RoleLevel      `bson:"userLevel" json:"userLevel"`
	Parent       *primitive.ObjectID `bson:"parent,omitempty" json:"parent,omitempty"`
	Disabled     bool                `bson:"disabled" json:"disabled"`
	CreatedAt    time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// CreateAccountRequest is the payload for adding an admin or agent.
type CreateAccountRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
	Phone string `json:"phone"`
}

// UpdateDetailsRequest carries a partial update of contact details.
type UpdateDetailsRequest struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

// AccountSummary is the listing shape returned to the UI.
type AccountSummary struct {
	ID    primitive.ObjectID `json:"id"`
	Name  string             `json:"name"`
	Email string             `json:"email"`
	Phone string             `json:"phone"`
}

func summarize(a Account) AccountSummary {
	return AccountSummary{ID: a.ID, Name: a.Name, Email: a.Email, Phone: a.Phone}
}
