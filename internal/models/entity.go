package models

import (
	"time"

	"gorm.io/gorm"
)

// Entity kinds
const (
	EntityKindOwn        = "own"
	EntityKindCompetitor = "competitor"
)

// TrackedEntity is a restaurant location tracked for a group: one of the
// group's own units or a competitor it watches. Rows are managed by the
// admin surface of the platform; this engine only reads them.
type TrackedEntity struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	GroupID      uint           `gorm:"index;not null" json:"group_id"`
	Name         string         `gorm:"size:200;not null" json:"name"`
	Kind         string         `gorm:"size:20;not null" json:"kind"` // own, competitor
	ParentUnitID *uint          `json:"parent_unit_id,omitempty"`
	City         string         `gorm:"size:100" json:"city,omitempty"`
	State        string         `gorm:"size:50" json:"state,omitempty"`
	IsPrimary    bool           `gorm:"default:false" json:"is_primary"`
	IsActive     bool           `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (TrackedEntity) TableName() string { return "tracked_entities" }

func (e *TrackedEntity) IsOwn() bool { return e.Kind == EntityKindOwn }
