package usage

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"
)

const defaultTTL = 5 * time.Minute

// GlobalData is an immutable snapshot of the two global tables. Consumers
// must not mutate it; refreshes replace the whole snapshot.
type GlobalData struct {
	Timeline  []TimelineRow
	Ranking   []RankingRow
	FetchedAt time.Time

	// ConnErr carries the connection-failure text for the user-visible
	// error path. Query failures leave it empty and only log.
	ConnErr string
}

type ViewConfig struct {
	Logger *slog.Logger
	Clock  clockwork.Clock
	Store  *Store
	TTL    time.Duration
}

func (cfg *ViewConfig) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.Store == nil {
		return errors.New("store is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return nil
}

// View owns the time-boxed cache over the global fetch. Within the TTL
// every call returns the same snapshot without touching the database;
// concurrent misses collapse into a single underlying fetch.
type View struct {
	log *slog.Logger
	cfg ViewConfig

	mu       sync.RWMutex
	snapshot *GlobalData

	group singleflight.Group
}

func NewView(cfg ViewConfig) (*View, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &View{
		log: cfg.Logger,
		cfg: cfg,
	}, nil
}

// Global returns the global timeline and ranking tables, served from the
// cache when the snapshot is younger than the TTL. The bool reports a
// cache hit. Failed fetches are returned but never cached, so the next
// call retries.
func (v *View) Global(ctx context.Context) (*GlobalData, bool) {
	v.mu.RLock()
	snap := v.snapshot
	v.mu.RUnlock()

	if snap != nil && v.cfg.Clock.Since(snap.FetchedAt) < v.cfg.TTL {
		return snap, true
	}

	res, _, _ := v.group.Do("global", func() (any, error) {
		return v.refresh(ctx), nil
	})
	return res.(*GlobalData), false
}

// Player runs the tag drill-down. Never cached: every call re-queries.
func (v *View) Player(ctx context.Context, tag string) ([]PlayerRow, error) {
	rows, err := v.cfg.Store.FetchPlayer(ctx, tag)
	if err != nil {
		v.log.Error("player usage fetch failed", "tag", tag, "error", err)
		return nil, err
	}
	return AppendPlayerMegabytes(rows), nil
}

func (v *View) refresh(ctx context.Context) *GlobalData {
	start := v.cfg.Clock.Now()
	timeline, ranking, err := v.cfg.Store.FetchGlobal(ctx)

	data := &GlobalData{FetchedAt: start}
	switch {
	case errors.Is(err, ErrConnect):
		v.log.Error("global usage fetch failed", "error", err)
		data.ConnErr = err.Error()
		return data
	case err != nil:
		// Query failures degrade to empty tables with no user-visible
		// error; only connection failures surface.
		v.log.Error("global usage fetch failed", "error", err)
		return data
	}

	data.Timeline = AppendMegabytes(timeline)
	data.Ranking = AppendRankingMegabytes(ranking)

	v.mu.Lock()
	v.snapshot = data
	v.mu.Unlock()

	v.log.Debug("global usage snapshot refreshed",
		"timeline_rows", len(data.Timeline),
		"ranking_rows", len(data.Ranking),
		"elapsed", v.cfg.Clock.Since(start),
	)
	return data
}
