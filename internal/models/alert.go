package models

import "time"

// ReviewAlert is a single review flagged by the extraction pipeline as
// exceeding a severity threshold. The engine surfaces these on the
// dashboard; delivering them anywhere is someone else's job.
type ReviewAlert struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"` // uuid from the extraction pipeline
	EntityID   uint      `gorm:"index:idx_alert_entity_date;not null" json:"entity_id"`
	AlertType  string    `gorm:"size:50;not null" json:"alert_type"` // e.g. service_failure, health_concern
	Summary    string    `gorm:"type:text" json:"summary"`
	Severity   int       `gorm:"index" json:"severity"` // higher is worse
	ReviewDate time.Time `gorm:"index:idx_alert_entity_date;not null" json:"review_date"`
	CreatedAt  time.Time `json:"created_at"`
}

func (ReviewAlert) TableName() string { return "review_alerts" }
