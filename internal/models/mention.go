package models

import "time"

// Mention kinds
const (
	MentionStaff    = "staff"
	MentionMenuItem = "menu_item"
)

// ReviewMention is one extracted mention of a staff member or menu item in
// a single review. Written by the sentiment-extraction pipeline; the engine
// aggregates these with GROUP BY name.
type ReviewMention struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	EntityID   uint      `gorm:"index:idx_mention_entity_date;not null" json:"entity_id"`
	Kind       string    `gorm:"size:20;index;not null" json:"kind"` // staff, menu_item
	Name       string    `gorm:"size:200;not null" json:"name"`
	Sentiment  float64   `json:"sentiment"`
	ReviewDate time.Time `gorm:"index:idx_mention_entity_date;not null" json:"review_date"`
	CreatedAt  time.Time `json:"created_at"`
}

func (ReviewMention) TableName() string { return "review_mentions" }
