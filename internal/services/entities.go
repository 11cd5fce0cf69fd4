package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jcskyweavermedia/alamo-ai-manual-v2-sub000/internal/models"
)

// Resolver failures abort the whole pipeline: without a group and at least
// one owned location there is no primary subject to report on.
var (
	ErrNoGroup         = errors.New("no resolvable group")
	ErrNoOwnedEntities = errors.New("group has no owned entities")
)

// EntitySet is the tracked-entity universe for one request. It is built
// once by the resolver and read-only afterwards.
type EntitySet struct {
	Primary     models.TrackedEntity   `json:"primary"`
	Own         []models.TrackedEntity `json:"own"`
	Competitors []models.TrackedEntity `json:"competitors"`
}

// All returns every entity, own first.
func (s *EntitySet) All() []models.TrackedEntity {
	all := make([]models.TrackedEntity, 0, len(s.Own)+len(s.Competitors))
	all = append(all, s.Own...)
	all = append(all, s.Competitors...)
	return all
}

// AllIDs returns every entity id, own first.
func (s *EntitySet) AllIDs() []uint {
	all := s.All()
	ids := make([]uint, len(all))
	for i, e := range all {
		ids[i] = e.ID
	}
	return ids
}

// CompetitorIDs returns the competitor entity ids.
func (s *EntitySet) CompetitorIDs() []uint {
	ids := make([]uint, len(s.Competitors))
	for i, e := range s.Competitors {
		ids[i] = e.ID
	}
	return ids
}

// EntityResolver determines the tracked-entity universe for a group.
type EntityResolver struct {
	store AnalyticsStore
}

func NewEntityResolver(store AnalyticsStore) *EntityResolver {
	return &EntityResolver{store: store}
}

// Resolve partitions the group's active entities into own and competitor
// sets and selects the primary entity. The primary is the entity flagged
// is_primary; without a flag the oldest owned entity wins, with id as the
// final tie-break, so the choice never depends on store scan order.
func (r *EntityResolver) Resolve(ctx context.Context, groupID uint) (*EntitySet, error) {
	if groupID == 0 {
		return nil, ErrNoGroup
	}

	entities, err := r.store.ListEntities(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list entities for group %d: %w", groupID, err)
	}

	set := &EntitySet{
		Own:         []models.TrackedEntity{},
		Competitors: []models.TrackedEntity{},
	}
	for _, e := range entities {
		if e.IsOwn() {
			set.Own = append(set.Own, e)
		} else {
			set.Competitors = append(set.Competitors, e)
		}
	}

	if len(set.Own) == 0 {
		return nil, ErrNoOwnedEntities
	}

	set.Primary = selectPrimary(set.Own)
	return set, nil
}

func selectPrimary(own []models.TrackedEntity) models.TrackedEntity {
	primary := own[0]
	for _, e := range own[1:] {
		if e.IsPrimary && !primary.IsPrimary {
			primary = e
			continue
		}
		if e.IsPrimary == primary.IsPrimary {
			if e.CreatedAt.Before(primary.CreatedAt) ||
				(e.CreatedAt.Equal(primary.CreatedAt) && e.ID < primary.ID) {
				primary = e
			}
		}
	}
	return primary
}
