package services

import (
	"context"
	"time"

	"github.com/jcskyweavermedia/alamo-ai-manual-v2-sub000/internal/models"
)

// CompositeScoreRow is the aggregate sentiment/rating summary for one
// entity over one window.
type CompositeScoreRow struct {
	CompositeScore float64 `json:"composite_score"`
	AvgRating      float64 `json:"avg_rating"`
	TotalReviews   int     `json:"total_reviews"`
	FiveStar       int     `json:"five_star"`
	FourStar       int     `json:"four_star"`
	LowStar        int     `json:"low_star"`
}

// RankingRow is one entity in the competitor ranking for a window.
type RankingRow struct {
	EntityID       uint    `json:"entity_id"`
	Name           string  `json:"name"`
	IsOwn          bool    `json:"is_own"`
	CompositeScore float64 `json:"composite_score"`
	Delta          float64 `json:"delta"`
	AvgRating      float64 `json:"avg_rating"`
	TotalReviews   int     `json:"total_reviews"`
}

// SubCategoryRow is one sub-category line under a top-level bucket.
type SubCategoryRow struct {
	SubCategory  string  `json:"sub_category"`
	AvgIntensity float64 `json:"avg_intensity"`
	Mentions     int     `json:"mentions"`
	TrendDelta   float64 `json:"trend_delta"`
}

// CategoryTrendRow is one weekly sentiment sample for one entity/bucket.
type CategoryTrendRow struct {
	WeekStart time.Time `json:"week_start"`
	EntityID  uint      `json:"entity_id"`
	Sentiment float64   `json:"sentiment"`
}

// CategoryScoreRow holds the latest per-bucket sentiment for one entity.
type CategoryScoreRow struct {
	Food     float64 `json:"food"`
	Service  float64 `json:"service"`
	Ambience float64 `json:"ambience"`
	Value    float64 `json:"value"`
}

// MentionAggregate is one ranked staff or menu-item mention count.
type MentionAggregate struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// MentionResult carries the two shapes the mention-aggregation source is
// known to produce: a ranked list, or a single object standing in for a
// one-element list. Callers go through NormalizeMentions instead of
// type-checking at the point of use.
type MentionResult struct {
	List   []MentionAggregate
	Single *MentionAggregate
}

// NormalizeMentions folds both result shapes into a plain list.
func NormalizeMentions(r MentionResult) []MentionAggregate {
	if r.Single != nil {
		return []MentionAggregate{*r.Single}
	}
	if r.List == nil {
		return []MentionAggregate{}
	}
	return r.List
}

// AnalyticsStore is the read-only query surface of the backing analytical
// store. Every call is bounded by its context; the engine never writes.
type AnalyticsStore interface {
	// ListEntities returns the active tracked entities for a group, ordered
	// primary-flag first, then oldest first, then by id.
	ListEntities(ctx context.Context, groupID uint) ([]models.TrackedEntity, error)

	// ListGroups returns every group id with at least one active entity.
	ListGroups(ctx context.Context) ([]uint, error)

	// CompositeScore aggregates the weekly rollups inside the window for one
	// entity. A window with no rollups yields a zero row, not an error.
	CompositeScore(ctx context.Context, entityID uint, win Window) (*CompositeScoreRow, error)

	// CompetitorRanking scores every entity of the group over the window,
	// ordered composite score descending with entity id as tie-break.
	CompetitorRanking(ctx context.Context, groupID uint, win Window) ([]RankingRow, error)

	// Rollups returns the rollup series for one entity/period type inside
	// the window, ordered by period start ascending.
	Rollups(ctx context.Context, entityID uint, periodType string, win Window) ([]models.PeriodicRollup, error)

	// RollupsForEntities is Rollups across an entity set, one flat slice.
	RollupsForEntities(ctx context.Context, entityIDs []uint, periodType string, win Window) ([]models.PeriodicRollup, error)

	// LatestRollup returns the most recent rollup of the period type for an
	// entity, or nil when none exists.
	LatestRollup(ctx context.Context, entityID uint, periodType string) (*models.PeriodicRollup, error)

	// LatestCategoryScores returns the four bucket scalars from the most
	// recent weekly rollup of an entity, or nil when none exists.
	LatestCategoryScores(ctx context.Context, entityID uint) (*CategoryScoreRow, error)

	// SubCategories returns the ranked sub-category breakdown for one
	// entity/bucket over the window, most-mentioned first.
	SubCategories(ctx context.Context, entityID uint, bucket string, win Window) ([]SubCategoryRow, error)

	// CategoryTrend returns weekly bucket sentiment for the entity set.
	CategoryTrend(ctx context.Context, entityIDs []uint, bucket string, win Window) ([]CategoryTrendRow, error)

	// MentionAggregates returns ranked mention counts for one entity/kind.
	MentionAggregates(ctx context.Context, entityID uint, kind string, win Window, limit int) (MentionResult, error)

	// SeverityAlerts returns flagged reviews across the entity set, worst
	// first.
	SeverityAlerts(ctx context.Context, entityIDs []uint, win Window, limit int) ([]models.ReviewAlert, error)
}
