package models

import "time"

// SubCategoryScore is a finer-grained sentiment breakdown under one of the
// four top-level buckets, one row per (entity, bucket, sub-category, week).
// Written by the sentiment-extraction pipeline.
type SubCategoryScore struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	EntityID     uint      `gorm:"index:idx_subcat_entity_bucket;not null" json:"entity_id"`
	Bucket       string    `gorm:"size:20;index:idx_subcat_entity_bucket;not null" json:"bucket"` // food, service, ambience, value
	SubCategory  string    `gorm:"size:100;not null" json:"sub_category"`
	PeriodStart  time.Time `gorm:"index;not null" json:"period_start"`
	AvgIntensity float64   `json:"avg_intensity"`
	Mentions     int       `json:"mentions"`
	TrendDelta   float64   `json:"trend_delta"`
	CreatedAt    time.Time `json:"created_at"`
}

func (SubCategoryScore) TableName() string { return "sub_category_scores" }
