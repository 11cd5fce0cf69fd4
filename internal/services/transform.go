package services

import (
	"math"
	"sort"
	"time"

	"github.com/jcskyweavermedia/alamo-ai-manual-v2-sub000/internal/models"
)

// Zone classification of a composite score.
const (
	ZoneLoving       = "loving"
	ZoneOnTheFence   = "on_the_fence"
	ZoneNotFeelingIt = "not_feeling_it"

	zoneLovingFloor     = 75.0
	zoneOnTheFenceFloor = 50.0
)

// Section status values carried in DashboardResult.Sections. A degraded
// section rendered empty means "source failed", not "nothing to report".
const (
	SectionOK       = "ok"
	SectionDegraded = "degraded"
)

// Summary is the headline block of the dashboard.
type Summary struct {
	CompositeScore float64  `json:"composite_score"`
	Zone           string   `json:"zone"`
	Delta          *float64 `json:"delta"` // nil when no comparable previous period
	AvgRating      float64  `json:"avg_rating"`
	TotalReviews   int      `json:"total_reviews"`
	// Five, four, then the combined 1-3 star count in the third slot; the
	// rollup does not split low ratings per star, so slots four and five
	// stay zero. Consumers must treat the third slot as "3 stars and below".
	StarDistribution [5]int    `json:"star_distribution"`
	Sparkline        []float64 `json:"sparkline"`
	Loving           float64   `json:"loving"`
	OnTheFence       float64   `json:"on_the_fence"`
	NotFeelingIt     float64   `json:"not_feeling_it"`
}

// CategoryScore is one of the four top-level sentiment buckets.
type CategoryScore struct {
	Bucket string  `json:"bucket"`
	Label  string  `json:"label"`
	Score  float64 `json:"score"`
}

// CategoryStat adds mention volume and share to a bucket.
type CategoryStat struct {
	Bucket   string  `json:"bucket"`
	Label    string  `json:"label"`
	Score    float64 `json:"score"`
	Mentions int     `json:"mentions"`
	Percent  int     `json:"percent"`
}

// HighlightEntry is one strengths/opportunities line.
type HighlightEntry struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// TrendPoint is one period of a multi-entity trend series. Values is keyed
// by entity name and sparse: an entity with no data that period has no key.
type TrendPoint struct {
	Period string             `json:"period"`
	Values map[string]float64 `json:"values"`
}

// ScorePoint is one period of the primary entity's monthly score series.
type ScorePoint struct {
	Period         string  `json:"period"`
	CompositeScore float64 `json:"composite_score"`
	TotalReviews   int     `json:"total_reviews"`
}

// AlertView is a severity alert ready for display.
type AlertView struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Summary    string `json:"summary"`
	Date       string `json:"date"`
	EntityName string `json:"entity_name"`
}

// CompetitorItems is one entity's positive-item/complaint comparison row.
type CompetitorItems struct {
	EntityID   uint                `json:"entity_id"`
	Name       string              `json:"name"`
	IsOwn      bool                `json:"is_own"`
	TopItems   []models.RankedItem `json:"top_items"`
	Complaints []models.RankedItem `json:"complaints"`
}

// CategoryRankRow is one entity in a per-bucket competitor ranking.
type CategoryRankRow struct {
	EntityID uint    `json:"entity_id"`
	Name     string  `json:"name"`
	IsOwn    bool    `json:"is_own"`
	Score    float64 `json:"score"`
}

// LocationScorecard is the per-owned-location summary block.
type LocationScorecard struct {
	EntityID       uint    `json:"entity_id"`
	Name           string  `json:"name"`
	City           string  `json:"city,omitempty"`
	State          string  `json:"state,omitempty"`
	CompositeScore float64 `json:"composite_score"`
	AvgRating      float64 `json:"avg_rating"`
	TotalReviews   int     `json:"total_reviews"`
	Zone           string  `json:"zone"`
}

// DashboardResult is the composite analytics object the rendering layer
// consumes. It is immutable once produced and identified by its cache key.
type DashboardResult struct {
	GroupID uint   `json:"group_id"`
	From    string `json:"from"`
	To      string `json:"to"`
	Locale  string `json:"locale"`

	Summary          Summary                       `json:"summary"`
	Categories       []CategoryScore               `json:"categories"`
	CategoryStats    []CategoryStat                `json:"category_stats"`
	Competitors      []RankingRow                  `json:"competitors"`
	WeeklyTrend      []TrendPoint                  `json:"weekly_trend"`
	MonthlySeries    []ScorePoint                  `json:"monthly_series"`
	TopItems         []MentionAggregate            `json:"top_items"`
	StaffMentions    []MentionAggregate            `json:"staff_mentions"`
	StaffMentionsYTD []MentionAggregate            `json:"staff_mentions_ytd"`
	Alerts           []AlertView                   `json:"alerts"`
	ItemComparison   []CompetitorItems             `json:"item_comparison"`
	Strengths        []HighlightEntry              `json:"strengths"`
	Opportunities    []HighlightEntry              `json:"opportunities"`
	Locations        []LocationScorecard           `json:"locations"`
	LocationTrends   []TrendPoint                  `json:"location_trends"`
	SubCategories    map[string][]SubCategoryRow   `json:"sub_categories"`
	CategoryTrends   map[string][]TrendPoint       `json:"category_trends"`
	CategoryRankings map[string][]CategoryRankRow  `json:"category_rankings"`

	LowRatingPercent     float64 `json:"low_rating_percent"`
	PrevLowRatingPercent float64 `json:"prev_low_rating_percent"`

	// Sections maps source names to "ok"/"degraded" so the rendering layer
	// can tell an empty section from a failed one.
	Sections map[string]string `json:"sections"`

	GeneratedAt time.Time `json:"generated_at"`
}

// Transform derives the DashboardResult from an aggregation bundle. Pure:
// no I/O, no logging, no mutation of the bundle.
func Transform(b *SourceBundle, locale string, now time.Time) *DashboardResult {
	names := entityNames(b.Entities)

	res := &DashboardResult{
		GroupID:          b.Entities.Primary.GroupID,
		From:             b.Window.From.Format(dateLayout),
		To:               b.Window.To.Format(dateLayout),
		Locale:           locale,
		Summary:          buildSummary(b),
		Categories:       buildCategories(b.LatestMonthly, locale),
		CategoryStats:    buildCategoryStats(b.LatestMonthly, b.SubCategories, locale),
		Competitors:      rankCompetitors(b.Ranking),
		WeeklyTrend:      assembleRollupTrend(b.WeeklySeries, names),
		MonthlySeries:    buildMonthlySeries(b.MonthlySeries),
		TopItems:         NormalizeMentions(b.ItemMentions),
		StaffMentions:    NormalizeMentions(b.StaffMentions),
		StaffMentionsYTD: NormalizeMentions(b.StaffMentionsYTD),
		Alerts:           buildAlerts(b.Alerts, names),
		ItemComparison:   buildItemComparison(b),
		Strengths:        buildHighlights(rollupStrengths(b.LatestMonthly), locale),
		Opportunities:    buildHighlights(rollupOpportunities(b.LatestMonthly), locale),
		Locations:        buildLocations(b),
		LocationTrends:   assembleRollupTrend(ownRollups(b), names),
		SubCategories:    copySubCategories(b.SubCategories),
		CategoryTrends:   buildCategoryTrends(b.CategoryTrends, names),
		CategoryRankings: buildCategoryRankings(b),
		Sections:         buildSections(b.Degraded),
		GeneratedAt:      now,
	}

	res.LowRatingPercent = lowRatingPercent(b.CurrentScore)
	res.PrevLowRatingPercent = lowRatingPercent(b.PreviousScore)
	return res
}

func buildSummary(b *SourceBundle) Summary {
	cur := b.CurrentScore
	s := Summary{
		CompositeScore: round2(cur.CompositeScore),
		Zone:           classifyZone(cur.CompositeScore),
		AvgRating:      round2(cur.AvgRating),
		TotalReviews:   cur.TotalReviews,
		// Combined 1-3 star bucket lands in the third slot; see field doc.
		StarDistribution: [5]int{cur.FiveStar, cur.FourStar, cur.LowStar, 0, 0},
		Sparkline:        buildSparkline(b),
	}

	s.Loving, s.OnTheFence, s.NotFeelingIt = npsSplit(cur)

	// Delta stays nil unless the previous window actually has reviews; a
	// zero here would read as "no change".
	if prev := b.PreviousScore; prev != nil && prev.TotalReviews > 0 {
		d := round2(cur.CompositeScore - prev.CompositeScore)
		s.Delta = &d
	}
	return s
}

// npsSplit buckets the star counts into the loving / on-the-fence /
// not-feeling-it shares. All zeros when there are no reviews, never NaN.
func npsSplit(row *CompositeScoreRow) (loving, fence, notFeeling float64) {
	if row == nil || row.TotalReviews == 0 {
		return 0, 0, 0
	}
	total := float64(row.TotalReviews)
	return float64(row.FiveStar) / total,
		float64(row.FourStar) / total,
		float64(row.LowStar) / total
}

// lowRatingPercent is lowStar/totalReviews as a percentage, one decimal,
// zero when the denominator is zero.
func lowRatingPercent(row *CompositeScoreRow) float64 {
	if row == nil || row.TotalReviews == 0 {
		return 0
	}
	return round1(float64(row.LowStar) / float64(row.TotalReviews) * 100)
}

func classifyZone(score float64) string {
	switch {
	case score >= zoneLovingFloor:
		return ZoneLoving
	case score >= zoneOnTheFenceFloor:
		return ZoneOnTheFence
	default:
		return ZoneNotFeelingIt
	}
}

func buildSparkline(b *SourceBundle) []float64 {
	points := []float64{}
	for _, r := range b.WeeklySeries {
		if r.EntityID == b.Entities.Primary.ID {
			points = append(points, round2(r.CompositeScore))
		}
	}
	return points
}

// rankCompetitors orders the ranking rows by composite score descending,
// entity id ascending on ties.
func rankCompetitors(rows []RankingRow) []RankingRow {
	out := make([]RankingRow, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CompositeScore != out[j].CompositeScore {
			return out[i].CompositeScore > out[j].CompositeScore
		}
		return out[i].EntityID < out[j].EntityID
	})
	return out
}

func buildCategories(latest *models.PeriodicRollup, locale string) []CategoryScore {
	out := make([]CategoryScore, 0, len(models.Buckets))
	for _, bucket := range models.Buckets {
		score := 0.0
		if latest != nil {
			score = round2(latest.BucketScore(bucket))
		}
		out = append(out, CategoryScore{
			Bucket: bucket,
			Label:  categoryLabel(bucket, locale),
			Score:  score,
		})
	}
	return out
}

// buildCategoryStats computes each bucket's mention volume and percentage
// share. With zero mentions everywhere the share defaults to an even 25
// per bucket instead of dividing by zero.
func buildCategoryStats(latest *models.PeriodicRollup, subCats map[string][]SubCategoryRow, locale string) []CategoryStat {
	mentions := make(map[string]int, len(models.Buckets))
	total := 0
	for _, bucket := range models.Buckets {
		for _, row := range subCats[bucket] {
			mentions[bucket] += row.Mentions
		}
		total += mentions[bucket]
	}

	out := make([]CategoryStat, 0, len(models.Buckets))
	for _, bucket := range models.Buckets {
		stat := CategoryStat{
			Bucket:   bucket,
			Label:    categoryLabel(bucket, locale),
			Mentions: mentions[bucket],
			Percent:  25,
		}
		if latest != nil {
			stat.Score = round2(latest.BucketScore(bucket))
		}
		if total > 0 {
			stat.Percent = int(math.Round(float64(mentions[bucket]) / float64(total) * 100))
		}
		out = append(out, stat)
	}
	return out
}

func rollupStrengths(r *models.PeriodicRollup) []models.RankedCategory {
	if r == nil {
		return nil
	}
	return r.Strengths()
}

func rollupOpportunities(r *models.PeriodicRollup) []models.RankedCategory {
	if r == nil {
		return nil
	}
	return r.Opportunities()
}

// buildHighlights keeps the top 3 ranked categories, carrying avg intensity
// through as the display score. Unknown keys fall back to the raw string.
func buildHighlights(ranked []models.RankedCategory, locale string) []HighlightEntry {
	out := []HighlightEntry{}
	for _, rc := range ranked {
		if len(out) == 3 {
			break
		}
		out = append(out, HighlightEntry{
			Key:   rc.Category,
			Label: categoryLabel(rc.Category, locale),
			Score: round2(rc.AvgIntensity),
		})
	}
	return out
}

func buildMonthlySeries(rollups []models.PeriodicRollup) []ScorePoint {
	out := make([]ScorePoint, 0, len(rollups))
	for _, r := range rollups {
		out = append(out, ScorePoint{
			Period:         r.PeriodStart.Format("2006-01"),
			CompositeScore: round2(r.CompositeScore),
			TotalReviews:   r.TotalReviews,
		})
	}
	return out
}

func buildAlerts(alerts []models.ReviewAlert, names map[uint]string) []AlertView {
	out := make([]AlertView, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, AlertView{
			ID:         a.ID,
			Type:       a.AlertType,
			Summary:    a.Summary,
			Date:       a.ReviewDate.Format(dateLayout),
			EntityName: names[a.EntityID],
		})
	}
	return out
}

// buildItemComparison lists the primary entity first, then each competitor
// with its latest-month positive items and complaints. A competitor whose
// follow-up fetch degraded appears with empty lists.
func buildItemComparison(b *SourceBundle) []CompetitorItems {
	out := []CompetitorItems{}

	primary := CompetitorItems{
		EntityID:   b.Entities.Primary.ID,
		Name:       b.Entities.Primary.Name,
		IsOwn:      true,
		TopItems:   []models.RankedItem{},
		Complaints: []models.RankedItem{},
	}
	if b.LatestMonthly != nil {
		primary.TopItems = b.LatestMonthly.PositiveItems()
		primary.Complaints = b.LatestMonthly.Complaints()
	}
	out = append(out, primary)

	for _, c := range b.Entities.Competitors {
		row := CompetitorItems{
			EntityID:   c.ID,
			Name:       c.Name,
			TopItems:   []models.RankedItem{},
			Complaints: []models.RankedItem{},
		}
		if r := b.CompetitorRollups[c.ID]; r != nil {
			row.TopItems = r.PositiveItems()
			row.Complaints = r.Complaints()
		}
		out = append(out, row)
	}
	return out
}

func buildLocations(b *SourceBundle) []LocationScorecard {
	// Aggregate each owned location's weekly rows inside the window,
	// weighting scores by review count the way the store does.
	type acc struct {
		score   float64
		rating  float64
		reviews int
	}
	byEntity := make(map[uint]*acc)
	for _, r := range b.WeeklySeries {
		a, ok := byEntity[r.EntityID]
		if !ok {
			a = &acc{}
			byEntity[r.EntityID] = a
		}
		a.score += r.CompositeScore * float64(r.TotalReviews)
		a.rating += r.AvgRating * float64(r.TotalReviews)
		a.reviews += r.TotalReviews
	}

	out := make([]LocationScorecard, 0, len(b.Entities.Own))
	for _, e := range b.Entities.Own {
		card := LocationScorecard{
			EntityID: e.ID,
			Name:     e.Name,
			City:     e.City,
			State:    e.State,
			Zone:     classifyZone(0),
		}
		if a, ok := byEntity[e.ID]; ok && a.reviews > 0 {
			card.CompositeScore = round2(a.score / float64(a.reviews))
			card.AvgRating = round2(a.rating / float64(a.reviews))
			card.TotalReviews = a.reviews
			card.Zone = classifyZone(card.CompositeScore)
		}
		out = append(out, card)
	}
	return out
}

func ownRollups(b *SourceBundle) []models.PeriodicRollup {
	ownIDs := make(map[uint]bool, len(b.Entities.Own))
	for _, e := range b.Entities.Own {
		ownIDs[e.ID] = true
	}
	out := []models.PeriodicRollup{}
	for _, r := range b.WeeklySeries {
		if ownIDs[r.EntityID] {
			out = append(out, r)
		}
	}
	return out
}

// assembleRollupTrend groups weekly rollups into one point per period with
// one named value per entity. Entities without data for a period are simply
// absent from that point.
func assembleRollupTrend(rollups []models.PeriodicRollup, names map[uint]string) []TrendPoint {
	byPeriod := make(map[string]map[string]float64)
	for _, r := range rollups {
		name, ok := names[r.EntityID]
		if !ok {
			continue
		}
		key := r.PeriodStart.Format(dateLayout)
		if byPeriod[key] == nil {
			byPeriod[key] = make(map[string]float64)
		}
		byPeriod[key][name] = round2(r.CompositeScore)
	}
	return sortTrendPoints(byPeriod)
}

func buildCategoryTrends(trends map[string][]CategoryTrendRow, names map[uint]string) map[string][]TrendPoint {
	out := make(map[string][]TrendPoint, len(models.Buckets))
	for _, bucket := range models.Buckets {
		byPeriod := make(map[string]map[string]float64)
		for _, row := range trends[bucket] {
			name, ok := names[row.EntityID]
			if !ok {
				continue
			}
			key := row.WeekStart.Format(dateLayout)
			if byPeriod[key] == nil {
				byPeriod[key] = make(map[string]float64)
			}
			byPeriod[key][name] = round2(row.Sentiment)
		}
		out[bucket] = sortTrendPoints(byPeriod)
	}
	return out
}

func sortTrendPoints(byPeriod map[string]map[string]float64) []TrendPoint {
	out := make([]TrendPoint, 0, len(byPeriod))
	for period, values := range byPeriod {
		out = append(out, TrendPoint{Period: period, Values: values})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out
}

// buildCategoryRankings ranks the primary entity against competitors on
// each bucket's latest sentiment. Competitors whose follow-up degraded are
// scored zero rather than dropped, so the list length is stable.
func buildCategoryRankings(b *SourceBundle) map[string][]CategoryRankRow {
	out := make(map[string][]CategoryRankRow, len(models.Buckets))
	for _, bucket := range models.Buckets {
		rows := []CategoryRankRow{}

		primaryScore := 0.0
		if b.LatestMonthly != nil {
			primaryScore = round2(b.LatestMonthly.BucketScore(bucket))
		}
		rows = append(rows, CategoryRankRow{
			EntityID: b.Entities.Primary.ID,
			Name:     b.Entities.Primary.Name,
			IsOwn:    true,
			Score:    primaryScore,
		})

		for _, c := range b.Entities.Competitors {
			row := CategoryRankRow{EntityID: c.ID, Name: c.Name}
			if scores := b.CompetitorCategories[c.ID]; scores != nil {
				row.Score = round2(bucketOf(scores, bucket))
			}
			rows = append(rows, row)
		}

		sort.SliceStable(rows, func(i, j int) bool {
			if rows[i].Score != rows[j].Score {
				return rows[i].Score > rows[j].Score
			}
			return rows[i].EntityID < rows[j].EntityID
		})
		out[bucket] = rows
	}
	return out
}

func bucketOf(scores *CategoryScoreRow, bucket string) float64 {
	switch bucket {
	case models.BucketFood:
		return scores.Food
	case models.BucketService:
		return scores.Service
	case models.BucketAmbience:
		return scores.Ambience
	case models.BucketValue:
		return scores.Value
	}
	return 0
}

func copySubCategories(in map[string][]SubCategoryRow) map[string][]SubCategoryRow {
	out := make(map[string][]SubCategoryRow, len(models.Buckets))
	for _, bucket := range models.Buckets {
		rows := in[bucket]
		if rows == nil {
			rows = []SubCategoryRow{}
		}
		out[bucket] = rows
	}
	return out
}

func buildSections(degraded []string) map[string]string {
	sections := make(map[string]string, len(sourceNames))
	for _, name := range sourceNames {
		sections[name] = SectionOK
	}
	for _, name := range degraded {
		sections[name] = SectionDegraded
	}
	return sections
}

func entityNames(set *EntitySet) map[uint]string {
	names := make(map[uint]string)
	for _, e := range set.All() {
		names[e.ID] = e.Name
	}
	return names
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round1(v float64) float64 { return math.Round(v*10) / 10 }
