package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Role is the closed set of requester roles. Unknown role strings are
// rejected at the transport edge so the core never sees one.
type Role string

const (
	RoleTrainer Role = "trainer"
	RoleClient  Role = "client"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleTrainer:
		return RoleTrainer, true
	case RoleClient:
		return RoleClient, true
	}
	return "", false
}

// Requester identifies the authenticated caller. Role resolution and
// session handling live in the upstream identity layer.
type Requester struct {
	ID   uuid.UUID
	Role Role
}

// User carries the participant fields the scheduling core reads for
// response enrichment. Nothing here is ever mutated by this service.
type User struct {
	bun.BaseModel `bun:"table:users"`

	ID              uuid.UUID `bun:"id,pk,type:uuid"`
	Email           string    `bun:"email,notnull"`
	Role            Role      `bun:"role,notnull"`
	Bio             string    `bun:"bio"`
	ProfilePhotoURL string    `bun:"profile_photo_url"`
	CreatedAt       time.Time `bun:"created_at,notnull"`
	UpdatedAt       time.Time `bun:"updated_at,notnull"`
}
