package models

import (
	"time"

	"github.com/gofrs/uuid"
)

// Token is a revocable access-token record. The signed JWT handed to the
// client carries this row's ID as its jti claim; deleting the row revokes the
// token regardless of the JWT's own expiry.
type Token struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	Name      string    `json:"name" gorm:"not null;default:'auth-token'"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}
