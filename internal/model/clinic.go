package model

import (
	"time"

	"github.com/google/uuid"
)

// Clinic is the tenant. It only carries a display name.
type Clinic struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
