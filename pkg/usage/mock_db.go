package usage

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockDB implements DB with scripted results. Each Query call consumes the
// next enqueued result set (or error) in FIFO order; the call counters act
// as spies for cache tests.
type MockDB struct {
	mu sync.Mutex

	// AcquireErr, when set, fails every Acquire.
	AcquireErr error

	queue []mockResult

	AcquireCount int
	QueryCount   int
	LastSQL      string
	LastArgs     []any
}

type mockResult struct {
	rows [][]any
	err  error
}

// NewMockDB returns an empty scripted database.
func NewMockDB() *MockDB {
	return &MockDB{}
}

// EnqueueResult scripts a result set for the next query.
func (m *MockDB) EnqueueResult(rows [][]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, mockResult{rows: rows})
}

// EnqueueError scripts a failure for the next query.
func (m *MockDB) EnqueueError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, mockResult{err: err})
}

func (m *MockDB) Acquire(ctx context.Context) (Conn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AcquireCount++
	if m.AcquireErr != nil {
		return nil, m.AcquireErr
	}
	return &mockConn{db: m}, nil
}

func (m *MockDB) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.AcquireErr
}

type mockConn struct {
	db *MockDB
}

func (c *mockConn) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	m := c.db
	m.mu.Lock()
	defer m.mu.Unlock()
	m.QueryCount++
	m.LastSQL = sql
	m.LastArgs = args
	if len(m.queue) == 0 {
		return &mockRows{}, nil
	}
	next := m.queue[0]
	m.queue = m.queue[1:]
	if next.err != nil {
		return nil, next.err
	}
	return &mockRows{rows: next.rows, cursor: -1}, nil
}

func (c *mockConn) Release() {}

type mockRows struct {
	rows   [][]any
	cursor int
}

func (r *mockRows) Next() bool {
	r.cursor++
	return r.cursor < len(r.rows)
}

func (r *mockRows) Scan(dest ...any) error {
	row := r.rows[r.cursor]
	if len(dest) != len(row) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(row))
	}
	for i, v := range row {
		switch d := dest[i].(type) {
		case *time.Time:
			t, ok := v.(time.Time)
			if !ok {
				return fmt.Errorf("scan: column %d: expected time.Time, got %T", i, v)
			}
			*d = t
		case *string:
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("scan: column %d: expected string, got %T", i, v)
			}
			*d = s
		case *int64:
			switch n := v.(type) {
			case int64:
				*d = n
			case int:
				*d = int64(n)
			default:
				return fmt.Errorf("scan: column %d: expected int64, got %T", i, v)
			}
		case *float64:
			f, ok := v.(float64)
			if !ok {
				return fmt.Errorf("scan: column %d: expected float64, got %T", i, v)
			}
			*d = f
		default:
			return fmt.Errorf("scan: column %d: unsupported destination %T", i, d)
		}
	}
	return nil
}

func (r *mockRows) Err() error { return nil }

func (r *mockRows) Close() {}
