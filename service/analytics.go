package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tunaaoguzhann/glyphgate/signs"
	"github.com/tunaaoguzhann/glyphgate/store"
)

const (
	maxEventPathLen  = 512
	maxEventQueryLen = 200
	DefaultTopN      = 10
)

type AnalyticsConfig struct {
	Store  store.Store
	Now    func() time.Time
	Logger *zap.Logger
}

type Analytics struct {
	store store.Store
	now   func() time.Time
	log   *zap.Logger
}

func NewAnalytics(cfg AnalyticsConfig) (*Analytics, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	nowFn := cfg.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Analytics{
		store: cfg.Store,
		now:   nowFn,
		log:   log.With(zap.String("component", "analytics")),
	}, nil
}

// Record validates and stores ev. ID and time are assigned here.
func (a *Analytics) Record(ctx context.Context, ev Event) (Event, error) {
	if !ev.Type.Valid() {
		return Event{}, invalid("unknown event type")
	}
	if len(ev.Path) > maxEventPathLen {
		ev.Path = ev.Path[:maxEventPathLen]
	}
	ev.Query = strings.TrimSpace(ev.Query)
	if len(ev.Query) > maxEventQueryLen {
		ev.Query = ev.Query[:maxEventQueryLen]
	}
	ev.ID = uuid.NewString()
	ev.At = a.now().UTC()
	if err := a.store.Create(ctx, store.Analytics, ev.ID, ev); err != nil {
		return Event{}, err
	}
	return ev, nil
}

// Track is Record for side channels: failures are logged and dropped.
func (a *Analytics) Track(ctx context.Context, ev Event) {
	if _, err := a.Record(ctx, ev); err != nil {
		a.log.Debug("analytics event dropped", zap.String("type", string(ev.Type)), zap.Error(err))
	}
}

type QueryCount struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}

type Summary struct {
	Total      int               `json:"total"`
	ByType     map[EventType]int `json:"byType"`
	TopQueries []QueryCount      `json:"topQueries"`
}

// Summary aggregates every stored event. Queries are grouped after folding
// case and diacritics.
func (a *Analytics) Summary(ctx context.Context, topN int) (Summary, error) {
	if topN <= 0 {
		topN = DefaultTopN
	}
	sum := Summary{ByType: map[EventType]int{}, TopQueries: []QueryCount{}}
	queries := map[string]int{}
	_, err := store.ListAs(ctx, a.store, store.Analytics, func(ev Event) bool {
		sum.Total++
		sum.ByType[ev.Type]++
		if q := signs.Fold(ev.Query); q != "" {
			queries[q]++
		}
		return false
	})
	if err != nil {
		return Summary{}, err
	}
	for q, n := range queries {
		sum.TopQueries = append(sum.TopQueries, QueryCount{Query: q, Count: n})
	}
	sort.Slice(sum.TopQueries, func(i, j int) bool {
		if sum.TopQueries[i].Count != sum.TopQueries[j].Count {
			return sum.TopQueries[i].Count > sum.TopQueries[j].Count
		}
		return sum.TopQueries[i].Query < sum.TopQueries[j].Query
	})
	if len(sum.TopQueries) > topN {
		sum.TopQueries = sum.TopQueries[:topN]
	}
	return sum, nil
}
