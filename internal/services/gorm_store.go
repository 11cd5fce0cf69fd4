package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jcskyweavermedia/alamo-ai-manual-v2-sub000/internal/models"
	"gorm.io/gorm"
)

// GormStore implements AnalyticsStore over the gorm-managed analytical
// tables. All queries are read-only.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) ListEntities(ctx context.Context, groupID uint) ([]models.TrackedEntity, error) {
	var entities []models.TrackedEntity
	err := s.db.WithContext(ctx).
		Where("group_id = ? AND is_active = ?", groupID, true).
		Order("is_primary DESC, created_at ASC, id ASC").
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return entities, nil
}

func (s *GormStore) ListGroups(ctx context.Context) ([]uint, error) {
	var groups []uint
	err := s.db.WithContext(ctx).
		Model(&models.TrackedEntity{}).
		Where("is_active = ?", true).
		Distinct("group_id").
		Order("group_id ASC").
		Pluck("group_id", &groups).Error
	if err != nil {
		return nil, err
	}
	return groups, nil
}

func (s *GormStore) CompositeScore(ctx context.Context, entityID uint, win Window) (*CompositeScoreRow, error) {
	// Review-count-weighted mean over the weekly rollups in the window.
	var row CompositeScoreRow
	err := s.db.WithContext(ctx).
		Model(&models.PeriodicRollup{}).
		Select(`COALESCE(SUM(composite_score * total_reviews) / NULLIF(SUM(total_reviews), 0), 0) AS composite_score,
			COALESCE(SUM(avg_rating * total_reviews) / NULLIF(SUM(total_reviews), 0), 0) AS avg_rating,
			COALESCE(SUM(total_reviews), 0) AS total_reviews,
			COALESCE(SUM(five_star), 0) AS five_star,
			COALESCE(SUM(four_star), 0) AS four_star,
			COALESCE(SUM(low_star), 0) AS low_star`).
		Where("entity_id = ? AND period_type = ? AND period_start BETWEEN ? AND ?",
			entityID, models.PeriodWeek, win.From, win.To).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// entityScoreRow is the per-entity aggregate behind CompetitorRanking.
type entityScoreRow struct {
	EntityID       uint
	CompositeScore float64
	AvgRating      float64
	TotalReviews   int
}

func (s *GormStore) CompetitorRanking(ctx context.Context, groupID uint, win Window) ([]RankingRow, error) {
	entities, err := s.ListEntities(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if len(entities) == 0 {
		return []RankingRow{}, nil
	}

	current, err := s.scoresByEntity(ctx, groupID, win)
	if err != nil {
		return nil, err
	}
	previous, err := s.scoresByEntity(ctx, groupID, win.Previous())
	if err != nil {
		return nil, err
	}

	rows := make([]RankingRow, 0, len(entities))
	for _, e := range entities {
		row := RankingRow{
			EntityID: e.ID,
			Name:     e.Name,
			IsOwn:    e.IsOwn(),
		}
		if cur, ok := current[e.ID]; ok {
			row.CompositeScore = cur.CompositeScore
			row.AvgRating = cur.AvgRating
			row.TotalReviews = cur.TotalReviews
			if prev, ok := previous[e.ID]; ok && prev.TotalReviews > 0 {
				row.Delta = round2(cur.CompositeScore - prev.CompositeScore)
			}
		}
		rows = append(rows, row)
	}

	// Composite score descending; entity id ascending on ties so the order
	// never depends on scan order.
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].CompositeScore != rows[j].CompositeScore {
			return rows[i].CompositeScore > rows[j].CompositeScore
		}
		return rows[i].EntityID < rows[j].EntityID
	})
	return rows, nil
}

func (s *GormStore) scoresByEntity(ctx context.Context, groupID uint, win Window) (map[uint]entityScoreRow, error) {
	var rows []entityScoreRow
	err := s.db.WithContext(ctx).
		Model(&models.PeriodicRollup{}).
		Select(`periodic_rollups.entity_id AS entity_id,
			COALESCE(SUM(composite_score * total_reviews) / NULLIF(SUM(total_reviews), 0), 0) AS composite_score,
			COALESCE(SUM(avg_rating * total_reviews) / NULLIF(SUM(total_reviews), 0), 0) AS avg_rating,
			COALESCE(SUM(total_reviews), 0) AS total_reviews`).
		Joins("JOIN tracked_entities ON tracked_entities.id = periodic_rollups.entity_id").
		Where("tracked_entities.group_id = ? AND tracked_entities.is_active = ?", groupID, true).
		Where("period_type = ? AND period_start BETWEEN ? AND ?", models.PeriodWeek, win.From, win.To).
		Group("periodic_rollups.entity_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	byEntity := make(map[uint]entityScoreRow, len(rows))
	for _, r := range rows {
		byEntity[r.EntityID] = r
	}
	return byEntity, nil
}

func (s *GormStore) Rollups(ctx context.Context, entityID uint, periodType string, win Window) ([]models.PeriodicRollup, error) {
	return s.RollupsForEntities(ctx, []uint{entityID}, periodType, win)
}

func (s *GormStore) RollupsForEntities(ctx context.Context, entityIDs []uint, periodType string, win Window) ([]models.PeriodicRollup, error) {
	if len(entityIDs) == 0 {
		return []models.PeriodicRollup{}, nil
	}
	var rollups []models.PeriodicRollup
	err := s.db.WithContext(ctx).
		Where("entity_id IN ? AND period_type = ? AND period_start BETWEEN ? AND ?",
			entityIDs, periodType, win.From, win.To).
		Order("period_start ASC, entity_id ASC").
		Find(&rollups).Error
	if err != nil {
		return nil, err
	}
	return rollups, nil
}

func (s *GormStore) LatestRollup(ctx context.Context, entityID uint, periodType string) (*models.PeriodicRollup, error) {
	var rollup models.PeriodicRollup
	err := s.db.WithContext(ctx).
		Where("entity_id = ? AND period_type = ?", entityID, periodType).
		Order("period_start DESC").
		First(&rollup).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rollup, nil
}

func (s *GormStore) LatestCategoryScores(ctx context.Context, entityID uint) (*CategoryScoreRow, error) {
	latest, err := s.LatestRollup(ctx, entityID, models.PeriodWeek)
	if err != nil || latest == nil {
		return nil, err
	}
	return &CategoryScoreRow{
		Food:     latest.FoodScore,
		Service:  latest.ServiceScore,
		Ambience: latest.AmbienceScore,
		Value:    latest.ValueScore,
	}, nil
}

func (s *GormStore) SubCategories(ctx context.Context, entityID uint, bucket string, win Window) ([]SubCategoryRow, error) {
	var rows []SubCategoryRow
	err := s.db.WithContext(ctx).
		Model(&models.SubCategoryScore{}).
		Select(`sub_category,
			COALESCE(AVG(avg_intensity), 0) AS avg_intensity,
			COALESCE(SUM(mentions), 0) AS mentions,
			COALESCE(AVG(trend_delta), 0) AS trend_delta`).
		Where("entity_id = ? AND bucket = ? AND period_start BETWEEN ? AND ?",
			entityID, bucket, win.From, win.To).
		Group("sub_category").
		Order("mentions DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *GormStore) CategoryTrend(ctx context.Context, entityIDs []uint, bucket string, win Window) ([]CategoryTrendRow, error) {
	if len(entityIDs) == 0 {
		return []CategoryTrendRow{}, nil
	}
	column, err := bucketColumn(bucket)
	if err != nil {
		return nil, err
	}
	var rows []CategoryTrendRow
	err = s.db.WithContext(ctx).
		Model(&models.PeriodicRollup{}).
		Select(fmt.Sprintf("period_start AS week_start, entity_id, %s AS sentiment", column)).
		Where("entity_id IN ? AND period_type = ? AND period_start BETWEEN ? AND ?",
			entityIDs, models.PeriodWeek, win.From, win.To).
		Order("period_start ASC, entity_id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// bucketColumn maps a bucket name onto its rollup column. The bucket value
// always goes through this table so no request string reaches the SQL text.
func bucketColumn(bucket string) (string, error) {
	switch bucket {
	case models.BucketFood:
		return "food_score", nil
	case models.BucketService:
		return "service_score", nil
	case models.BucketAmbience:
		return "ambience_score", nil
	case models.BucketValue:
		return "value_score", nil
	}
	return "", fmt.Errorf("unknown category bucket: %s", bucket)
}

func (s *GormStore) MentionAggregates(ctx context.Context, entityID uint, kind string, win Window, limit int) (MentionResult, error) {
	var list []MentionAggregate
	err := s.db.WithContext(ctx).
		Model(&models.ReviewMention{}).
		Select("name, COUNT(*) AS count").
		Where("entity_id = ? AND kind = ? AND review_date >= ? AND review_date < ?",
			entityID, kind, win.From, win.To.AddDate(0, 0, 1)).
		Group("name").
		Order("count DESC, name ASC").
		Limit(limit).
		Scan(&list).Error
	if err != nil {
		return MentionResult{}, err
	}
	return MentionResult{List: list}, nil
}

func (s *GormStore) SeverityAlerts(ctx context.Context, entityIDs []uint, win Window, limit int) ([]models.ReviewAlert, error) {
	if len(entityIDs) == 0 {
		return []models.ReviewAlert{}, nil
	}
	var alerts []models.ReviewAlert
	err := s.db.WithContext(ctx).
		Where("entity_id IN ? AND review_date >= ? AND review_date < ?",
			entityIDs, win.From, win.To.AddDate(0, 0, 1)).
		Order("severity DESC, review_date DESC").
		Limit(limit).
		Find(&alerts).Error
	if err != nil {
		return nil, err
	}
	return alerts, nil
}
