package models

import (
	"encoding/json"
	"time"
)

// Rollup period types
const (
	PeriodWeek  = "week"
	PeriodMonth = "month"
)

// Category buckets
const (
	BucketFood     = "food"
	BucketService  = "service"
	BucketAmbience = "ambience"
	BucketValue    = "value"
)

// Buckets lists the four top-level sentiment categories in display order.
var Buckets = []string{BucketFood, BucketService, BucketAmbience, BucketValue}

// RankedCategory is one entry of a rollup's strengths/opportunities array.
type RankedCategory struct {
	Category     string  `json:"category"`
	AvgIntensity float64 `json:"avg_intensity"`
	Mentions     int     `json:"mentions"`
}

// RankedItem is one entry of a rollup's positive-item/complaint array.
type RankedItem struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// PeriodicRollup is one pre-aggregated row per (entity, period type,
// period start), produced by the sentiment-extraction pipeline. The engine
// never writes these.
//
// Star counts are bucketed as five/four/low; 1-3 star reviews arrive only
// as the combined LowStar count. Downstream star distributions document
// this approximation rather than inventing per-star splits.
type PeriodicRollup struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	EntityID       uint      `gorm:"index:idx_rollup_entity_period;not null" json:"entity_id"`
	PeriodType     string    `gorm:"size:10;index:idx_rollup_entity_period;not null" json:"period_type"` // week, month
	PeriodStart    time.Time `gorm:"index:idx_rollup_entity_period;not null" json:"period_start"`
	CompositeScore float64   `json:"composite_score"`
	AvgRating      float64   `json:"avg_rating"`
	TotalReviews   int       `json:"total_reviews"`
	FiveStar       int       `json:"five_star"`
	FourStar       int       `json:"four_star"`
	LowStar        int       `json:"low_star"` // combined 1-3 star count
	FoodScore      float64   `json:"food_score"`
	ServiceScore   float64   `json:"service_score"`
	AmbienceScore  float64   `json:"ambience_score"`
	ValueScore     float64   `json:"value_score"`

	// Ranked JSON arrays, stored as text
	TopStrengths     string `gorm:"type:text" json:"-"`
	TopOpportunities string `gorm:"type:text" json:"-"`
	TopPositiveItems string `gorm:"type:text" json:"-"`
	TopComplaints    string `gorm:"type:text" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (PeriodicRollup) TableName() string { return "periodic_rollups" }

// BucketScore returns the sentiment scalar for one of the four buckets.
func (r *PeriodicRollup) BucketScore(bucket string) float64 {
	switch bucket {
	case BucketFood:
		return r.FoodScore
	case BucketService:
		return r.ServiceScore
	case BucketAmbience:
		return r.AmbienceScore
	case BucketValue:
		return r.ValueScore
	}
	return 0
}

// Strengths decodes the TopStrengths column. Malformed or empty JSON yields
// an empty slice, never an error; a rollup with a broken array still renders.
func (r *PeriodicRollup) Strengths() []RankedCategory { return decodeCategories(r.TopStrengths) }

// Opportunities decodes the TopOpportunities column.
func (r *PeriodicRollup) Opportunities() []RankedCategory {
	return decodeCategories(r.TopOpportunities)
}

// PositiveItems decodes the TopPositiveItems column.
func (r *PeriodicRollup) PositiveItems() []RankedItem { return decodeItems(r.TopPositiveItems) }

// Complaints decodes the TopComplaints column.
func (r *PeriodicRollup) Complaints() []RankedItem { return decodeItems(r.TopComplaints) }

func decodeCategories(raw string) []RankedCategory {
	if raw == "" {
		return []RankedCategory{}
	}
	var out []RankedCategory
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return []RankedCategory{}
	}
	return out
}

func decodeItems(raw string) []RankedItem {
	if raw == "" {
		return []RankedItem{}
	}
	var out []RankedItem
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return []RankedItem{}
	}
	return out
}
