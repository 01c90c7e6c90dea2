package usage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sitemetrics/netusage/api/metrics"
)

var (
	// ErrConnect marks failures to obtain a database connection. Callers
	// surface these to the user.
	ErrConnect = errors.New("database connection failed")

	// ErrQuery marks query execution failures. Callers degrade these to
	// empty result sets without a user-visible error.
	ErrQuery = errors.New("query execution failed")
)

// Rows is the subset of pgx.Rows the store consumes.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// Conn is a single acquired database connection.
type Conn interface {
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	Release()
}

// DB hands out connections from a pool.
type DB interface {
	Acquire(ctx context.Context) (Conn, error)
	Ping(ctx context.Context) error
}

// PoolDB adapts a pgxpool.Pool to the DB interface.
type PoolDB struct {
	Pool *pgxpool.Pool
}

func (p *PoolDB) Acquire(ctx context.Context) (Conn, error) {
	conn, err := p.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &poolConn{conn: conn}, nil
}

func (p *PoolDB) Ping(ctx context.Context) error {
	return p.Pool.Ping(ctx)
}

type poolConn struct {
	conn *pgxpool.Conn
}

func (c *poolConn) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	rows, err := c.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *poolConn) Release() {
	c.conn.Release()
}

// TimelineRow is one (date, location) bucket of the global timeline.
type TimelineRow struct {
	Date       time.Time `json:"date"`
	Location   string    `json:"location_name"`
	TotalBytes int64     `json:"total_bytes"`
	TotalMB    float64   `json:"total_mb"`
}

// RankingRow is one location bucket of the global ranking.
type RankingRow struct {
	Location   string  `json:"location_name"`
	TotalBytes int64   `json:"total_bytes"`
	TotalMB    float64 `json:"total_mb"`
}

// PlayerRow is one (date, location, tag) bucket of a tag drill-down.
type PlayerRow struct {
	Date       time.Time `json:"date"`
	Location   string    `json:"location_name"`
	Tag        string    `json:"tag"`
	TotalBytes int64     `json:"total_bytes"`
	TotalMB    float64   `json:"total_mb"`
}

type StoreConfig struct {
	Logger *slog.Logger
	DB     DB

	// AppFilter is the application-name substring the telemetry is
	// restricted to (matched with LIKE %AppFilter%).
	AppFilter string
}

func (cfg *StoreConfig) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.DB == nil {
		return errors.New("database is required")
	}
	if cfg.AppFilter == "" {
		return errors.New("app filter is required")
	}
	return nil
}

// Store runs the aggregation queries against the inventory database.
// Each fetch holds a single connection for its full lifecycle.
type Store struct {
	log *slog.Logger
	cfg StoreConfig
}

func NewStore(cfg StoreConfig) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Store{
		log: cfg.Logger,
		cfg: cfg,
	}, nil
}

const timelineQuery = `
	SELECT
		ns.date_log,
		COALESCE(l.name, '') AS location_name,
		SUM(ns.sent_bytes + ns.received_bytes)::bigint AS total_bytes
	FROM network_stats ns
	JOIN assets a ON ns.asset_id = a.id
	JOIN locations l ON a.location_id = l.id
	WHERE ns.app_name LIKE $1
	GROUP BY ns.date_log, l.name
	ORDER BY ns.date_log ASC
`

const rankingQuery = `
	SELECT
		COALESCE(l.name, '') AS location_name,
		SUM(ns.sent_bytes + ns.received_bytes)::bigint AS total_bytes
	FROM network_stats ns
	JOIN assets a ON ns.asset_id = a.id
	JOIN locations l ON a.location_id = l.id
	WHERE ns.app_name LIKE $1
	GROUP BY l.name
	ORDER BY total_bytes DESC
`

const playerQuery = `
	SELECT
		ns.date_log,
		COALESCE(l.name, '') AS location_name,
		t.tag,
		SUM(ns.sent_bytes + ns.received_bytes)::bigint AS total_bytes
	FROM network_stats ns
	JOIN assets a ON ns.asset_id = a.id
	JOIN locations l ON a.location_id = l.id
	JOIN asset_tags t ON t.asset_id = a.id
	WHERE ns.app_name LIKE $1
	  AND t.tag LIKE $2
	GROUP BY ns.date_log, l.name, t.tag
	ORDER BY ns.date_log ASC
`

func (s *Store) appPattern() string {
	return "%" + s.cfg.AppFilter + "%"
}

// FetchGlobal runs the timeline and ranking queries sequentially on one
// connection. Connection failures come back wrapped in ErrConnect, query
// failures in ErrQuery; the rows carry raw byte totals only.
func (s *Store) FetchGlobal(ctx context.Context) ([]TimelineRow, []RankingRow, error) {
	conn, err := s.acquire(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer conn.Release()

	timeline, err := s.scanTimeline(ctx, conn)
	if err != nil {
		return nil, nil, err
	}

	ranking, err := s.scanRanking(ctx, conn)
	if err != nil {
		return nil, nil, err
	}

	return timeline, ranking, nil
}

// FetchPlayer runs the tag drill-down query on a fresh connection. The tag
// is bound as a positional parameter wrapped in LIKE wildcards; wildcard
// characters inside the tag itself are passed through unescaped.
func (s *Store) FetchPlayer(ctx context.Context, tag string) ([]PlayerRow, error) {
	conn, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	start := time.Now()
	rows, err := conn.Query(ctx, playerQuery, s.appPattern(), "%"+tag+"%")
	metrics.RecordDBQuery(time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	defer rows.Close()

	var out []PlayerRow
	for rows.Next() {
		var row PlayerRow
		if err := rows.Scan(&row.Date, &row.Location, &row.Tag, &row.TotalBytes); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrQuery, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}

	return out, nil
}

func (s *Store) acquire(ctx context.Context) (Conn, error) {
	conn, err := s.cfg.DB.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnect, err)
	}
	return conn, nil
}

func (s *Store) scanTimeline(ctx context.Context, conn Conn) ([]TimelineRow, error) {
	start := time.Now()
	rows, err := conn.Query(ctx, timelineQuery, s.appPattern())
	metrics.RecordDBQuery(time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	defer rows.Close()

	var out []TimelineRow
	for rows.Next() {
		var row TimelineRow
		if err := rows.Scan(&row.Date, &row.Location, &row.TotalBytes); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrQuery, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	return out, nil
}

func (s *Store) scanRanking(ctx context.Context, conn Conn) ([]RankingRow, error) {
	start := time.Now()
	rows, err := conn.Query(ctx, rankingQuery, s.appPattern())
	metrics.RecordDBQuery(time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	defer rows.Close()

	var out []RankingRow
	for rows.Next() {
		var row RankingRow
		if err := rows.Scan(&row.Location, &row.TotalBytes); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrQuery, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	return out, nil
}
