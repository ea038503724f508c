package models

import (
	"time"

	"github.com/google/uuid"
)

// BaseModel provides the identity and creation time shared by run records
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
}
