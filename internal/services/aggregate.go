package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jcskyweavermedia/alamo-ai-manual-v2-sub000/internal/config"
	"github.com/jcskyweavermedia/alamo-ai-manual-v2-sub000/internal/models"
	"github.com/rs/zerolog"
)

// Aggregation source names. Exactly two are fatal: the primary entity's
// current-window composite score and the competitor ranking. Everything
// else degrades to a default and is flagged in the result's Sections map.
const (
	SourceCurrentScore         = "current_score"
	SourceCompetitorRanking    = "competitor_ranking"
	SourcePreviousScore        = "previous_score"
	SourceLatestMonthly        = "latest_monthly"
	SourceMonthlySeries        = "monthly_series"
	SourceWeeklySeries         = "weekly_series"
	SourceStaffMentions        = "staff_mentions"
	SourceStaffMentionsYTD     = "staff_mentions_ytd"
	SourceItemMentions         = "item_mentions"
	SourceAlerts               = "alerts"
	SourceCompetitorRollups    = "competitor_rollups"
	SourceCompetitorCategories = "competitor_categories"
)

// sourceNames is the stable baseline for the per-section status map.
var sourceNames = func() []string {
	names := []string{
		SourceCurrentScore,
		SourceCompetitorRanking,
		SourcePreviousScore,
		SourceLatestMonthly,
		SourceMonthlySeries,
		SourceWeeklySeries,
		SourceStaffMentions,
		SourceStaffMentionsYTD,
		SourceItemMentions,
		SourceAlerts,
		SourceCompetitorRollups,
		SourceCompetitorCategories,
	}
	for _, bucket := range models.Buckets {
		names = append(names, "subcategories_"+bucket, "category_trend_"+bucket)
	}
	return names
}()

// SourceBundle is the best-effort output of the aggregation pipeline.
// Every field is written by exactly one fetch; Degraded names the sources
// that failed and were replaced with defaults.
type SourceBundle struct {
	RunID    string
	Entities *EntitySet
	Window   Window
	Previous Window

	CurrentScore  *CompositeScoreRow // fatal source, never nil on success
	PreviousScore *CompositeScoreRow // nil when degraded or empty
	Ranking       []RankingRow       // fatal source

	LatestMonthly *models.PeriodicRollup
	MonthlySeries []models.PeriodicRollup
	WeeklySeries  []models.PeriodicRollup

	StaffMentions    MentionResult
	StaffMentionsYTD MentionResult
	ItemMentions     MentionResult

	Alerts []models.ReviewAlert

	SubCategories  map[string][]SubCategoryRow
	CategoryTrends map[string][]CategoryTrendRow

	CompetitorRollups    map[uint]*models.PeriodicRollup
	CompetitorCategories map[uint]*CategoryScoreRow

	Degraded []string
}

// Orchestrator runs the staged concurrent fetch plan against the analytical
// store. The zerolog logger is the pipeline's only side-effect channel, so
// the transformer downstream stays pure.
type Orchestrator struct {
	store        AnalyticsStore
	fetchTimeout time.Duration
	mentionLimit int
	alertLimit   int
	log          zerolog.Logger
}

func NewOrchestrator(store AnalyticsStore, cfg *config.AggregationConfig, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		store:        store,
		fetchTimeout: time.Duration(cfg.FetchTimeoutSeconds) * time.Second,
		mentionLimit: cfg.MentionLimit,
		alertLimit:   cfg.AlertLimit,
		log:          log,
	}
}

// fetch is one named unit of the fan-out. run writes into its own bundle
// slot; no two fetches of a stage share a slot, so stages need no locking
// beyond the bookkeeping mutex.
type fetch struct {
	name  string
	fatal bool
	run   func(ctx context.Context) error
}

// Run executes Stage B and Stage C against an already-resolved entity set.
// Stage C cannot start earlier: its fan-out targets come from the
// competitor list. The returned error is non-nil only for fatal sources.
func (o *Orchestrator) Run(ctx context.Context, set *EntitySet, win Window) (*SourceBundle, error) {
	b := &SourceBundle{
		RunID:                uuid.New().String(),
		Entities:             set,
		Window:               win,
		Previous:             win.Previous(),
		SubCategories:        make(map[string][]SubCategoryRow, len(models.Buckets)),
		CategoryTrends:       make(map[string][]CategoryTrendRow, len(models.Buckets)),
		CompetitorRollups:    make(map[uint]*models.PeriodicRollup),
		CompetitorCategories: make(map[uint]*CategoryScoreRow),
	}

	if err := o.runStageB(ctx, b); err != nil {
		return nil, err
	}
	o.runStageC(ctx, b)
	return b, nil
}

func (o *Orchestrator) runStageB(ctx context.Context, b *SourceBundle) error {
	primary := b.Entities.Primary
	allIDs := b.Entities.AllIDs()
	win := b.Window

	// Bucket-indexed slots; the maps are assembled after the fan-in so no
	// goroutine ever writes a shared map.
	subCatSlots := make([][]SubCategoryRow, len(models.Buckets))
	trendSlots := make([][]CategoryTrendRow, len(models.Buckets))

	fetches := []fetch{
		{name: SourceCurrentScore, fatal: true, run: func(ctx context.Context) error {
			row, err := o.store.CompositeScore(ctx, primary.ID, win)
			if err != nil {
				return err
			}
			b.CurrentScore = row
			return nil
		}},
		{name: SourceCompetitorRanking, fatal: true, run: func(ctx context.Context) error {
			rows, err := o.store.CompetitorRanking(ctx, primary.GroupID, win)
			if err != nil {
				return err
			}
			b.Ranking = rows
			return nil
		}},
		{name: SourcePreviousScore, run: func(ctx context.Context) error {
			row, err := o.store.CompositeScore(ctx, primary.ID, b.Previous)
			if err != nil {
				return err
			}
			b.PreviousScore = row
			return nil
		}},
		{name: SourceLatestMonthly, run: func(ctx context.Context) error {
			rollup, err := o.store.LatestRollup(ctx, primary.ID, models.PeriodMonth)
			if err != nil {
				return err
			}
			b.LatestMonthly = rollup
			return nil
		}},
		{name: SourceMonthlySeries, run: func(ctx context.Context) error {
			monthlyWin := Window{
				From: firstOfMonth(win.To).AddDate(0, -11, 0),
				To:   win.To,
			}
			rollups, err := o.store.Rollups(ctx, primary.ID, models.PeriodMonth, monthlyWin)
			if err != nil {
				return err
			}
			b.MonthlySeries = rollups
			return nil
		}},
		{name: SourceWeeklySeries, run: func(ctx context.Context) error {
			rollups, err := o.store.RollupsForEntities(ctx, allIDs, models.PeriodWeek, win)
			if err != nil {
				return err
			}
			b.WeeklySeries = rollups
			return nil
		}},
		{name: SourceStaffMentions, run: func(ctx context.Context) error {
			res, err := o.store.MentionAggregates(ctx, primary.ID, models.MentionStaff, win, o.mentionLimit)
			if err != nil {
				return err
			}
			b.StaffMentions = res
			return nil
		}},
		{name: SourceStaffMentionsYTD, run: func(ctx context.Context) error {
			res, err := o.store.MentionAggregates(ctx, primary.ID, models.MentionStaff, win.YearToDate(), o.mentionLimit)
			if err != nil {
				return err
			}
			b.StaffMentionsYTD = res
			return nil
		}},
		{name: SourceItemMentions, run: func(ctx context.Context) error {
			res, err := o.store.MentionAggregates(ctx, primary.ID, models.MentionMenuItem, win, o.mentionLimit)
			if err != nil {
				return err
			}
			b.ItemMentions = res
			return nil
		}},
		{name: SourceAlerts, run: func(ctx context.Context) error {
			alerts, err := o.store.SeverityAlerts(ctx, allIDs, win, o.alertLimit)
			if err != nil {
				return err
			}
			b.Alerts = alerts
			return nil
		}},
	}

	for i, bucket := range models.Buckets {
		i, bucket := i, bucket
		fetches = append(fetches,
			fetch{name: "subcategories_" + bucket, run: func(ctx context.Context) error {
				rows, err := o.store.SubCategories(ctx, primary.ID, bucket, win)
				if err != nil {
					return err
				}
				subCatSlots[i] = rows
				return nil
			}},
			fetch{name: "category_trend_" + bucket, run: func(ctx context.Context) error {
				rows, err := o.store.CategoryTrend(ctx, allIDs, bucket, win)
				if err != nil {
					return err
				}
				trendSlots[i] = rows
				return nil
			}},
		)
	}

	degraded, err := o.runStage(ctx, b.RunID, "B", fetches)
	if err != nil {
		return err
	}
	b.Degraded = append(b.Degraded, degraded...)

	for i, bucket := range models.Buckets {
		if subCatSlots[i] == nil {
			subCatSlots[i] = []SubCategoryRow{}
		}
		if trendSlots[i] == nil {
			trendSlots[i] = []CategoryTrendRow{}
		}
		b.SubCategories[bucket] = subCatSlots[i]
		b.CategoryTrends[bucket] = trendSlots[i]
	}
	return nil
}

// runStageC issues the per-competitor follow-ups derived from Stage B's
// competitor list. Every fetch is non-fatal; a failure defaults that
// entity's row only.
func (o *Orchestrator) runStageC(ctx context.Context, b *SourceBundle) {
	competitors := b.Entities.Competitors
	if len(competitors) == 0 {
		return
	}

	rollupSlots := make([]*models.PeriodicRollup, len(competitors))
	categorySlots := make([]*CategoryScoreRow, len(competitors))

	fetches := make([]fetch, 0, 2*len(competitors))
	for i, c := range competitors {
		i, c := i, c
		fetches = append(fetches,
			fetch{name: fmt.Sprintf("%s:%d", SourceCompetitorRollups, c.ID), run: func(ctx context.Context) error {
				rollup, err := o.store.LatestRollup(ctx, c.ID, models.PeriodMonth)
				if err != nil {
					return err
				}
				rollupSlots[i] = rollup
				return nil
			}},
			fetch{name: fmt.Sprintf("%s:%d", SourceCompetitorCategories, c.ID), run: func(ctx context.Context) error {
				scores, err := o.store.LatestCategoryScores(ctx, c.ID)
				if err != nil {
					return err
				}
				categorySlots[i] = scores
				return nil
			}},
		)
	}

	degraded, _ := o.runStage(ctx, b.RunID, "C", fetches)
	for _, name := range degraded {
		// Collapse per-entity names onto the section-level source so the
		// status map stays a stable set; the per-entity detail is in logs.
		switch {
		case strings.HasPrefix(name, SourceCompetitorRollups):
			b.Degraded = appendUnique(b.Degraded, SourceCompetitorRollups)
		case strings.HasPrefix(name, SourceCompetitorCategories):
			b.Degraded = appendUnique(b.Degraded, SourceCompetitorCategories)
		}
	}

	for i, c := range competitors {
		if rollupSlots[i] != nil {
			b.CompetitorRollups[c.ID] = rollupSlots[i]
		}
		if categorySlots[i] != nil {
			b.CompetitorCategories[c.ID] = categorySlots[i]
		}
	}
}

// runStage fans the fetches out concurrently and waits for all of them to
// settle. Non-fatal failures are logged and collected; the first fatal
// failure is returned after the fan-in completes.
func (o *Orchestrator) runStage(ctx context.Context, runID, stage string, fetches []fetch) ([]string, error) {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		degraded []string
		fatalErr error
	)

	for _, f := range fetches {
		f := f
		wg.Add(1)
		go func() {
			defer wg.Done()

			fetchCtx, cancel := context.WithTimeout(ctx, o.fetchTimeout)
			defer cancel()

			err := f.run(fetchCtx)
			if err == nil {
				return
			}

			mu.Lock()
			defer mu.Unlock()
			if f.fatal {
				if fatalErr == nil {
					fatalErr = fmt.Errorf("%s: %w", f.name, err)
				}
				o.log.Error().
					Str("run_id", runID).
					Str("stage", stage).
					Str("source", f.name).
					Err(err).
					Msg("fatal aggregation source failed")
				return
			}
			degraded = append(degraded, f.name)
			o.log.Warn().
				Str("run_id", runID).
				Str("stage", stage).
				Str("source", f.name).
				Err(err).
				Msg("aggregation source degraded")
		}()
	}

	wg.Wait()
	return degraded, fatalErr
}

// isTransient reports whether an error looks like a timeout or network
// failure worth a whole-pipeline retry.
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
