package ingest

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geo-pma/internal/feature"
)

var errBeginRefused = errors.New("begin refused")

// recorder 是内存中的 database/sql 驱动：记录 Begin/Exec/Commit/Rollback，
// 可在第 failBeginAt 次 Begin 时返回错误（0 表示不失败）
type recorder struct {
	mu          sync.Mutex
	failBeginAt int
	begins      int
	commits     int
	rollbacks   int
	seqs        []int64
}

func (r *recorder) Connect(context.Context) (driver.Conn, error) { return &fakeConn{r: r}, nil }
func (r *recorder) Driver() driver.Driver                        { return fakeDriver{r: r} }

type fakeDriver struct{ r *recorder }

func (d fakeDriver) Open(string) (driver.Conn, error) { return &fakeConn{r: d.r}, nil }

type fakeConn struct{ r *recorder }

func (c *fakeConn) Prepare(query string) (driver.Stmt, error) { return &fakeStmt{r: c.r}, nil }
func (c *fakeConn) Close() error                              { return nil }

func (c *fakeConn) Begin() (driver.Tx, error) {
	c.r.mu.Lock()
	defer c.r.mu.Unlock()
	c.r.begins++
	if c.r.failBeginAt > 0 && c.r.begins == c.r.failBeginAt {
		return nil, errBeginRefused
	}
	return &fakeTx{r: c.r}, nil
}

type fakeTx struct{ r *recorder }

func (t *fakeTx) Commit() error {
	t.r.mu.Lock()
	defer t.r.mu.Unlock()
	t.r.commits++
	return nil
}

func (t *fakeTx) Rollback() error {
	t.r.mu.Lock()
	defer t.r.mu.Unlock()
	t.r.rollbacks++
	return nil
}

type fakeStmt struct{ r *recorder }

func (s *fakeStmt) Close() error  { return nil }
func (s *fakeStmt) NumInput() int { return -1 }

func (s *fakeStmt) Exec(args []driver.Value) (driver.Result, error) {
	if len(args) != 4 {
		return nil, fmt.Errorf("want 4 args, got %d", len(args))
	}
	seq, ok := args[2].(int64)
	if !ok {
		return nil, fmt.Errorf("seq has type %T", args[2])
	}
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	s.r.seqs = append(s.r.seqs, seq)
	return driver.RowsAffected(1), nil
}

func (s *fakeStmt) Query([]driver.Value) (driver.Rows, error) {
	return nil, errors.New("query not supported")
}

func newArchive(t *testing.T, r *recorder) *Archive {
	db := sql.OpenDB(r)
	t.Cleanup(func() { _ = db.Close() })
	return NewArchive(db)
}

func makeLines(n int) []string {
	xs := make([]string, n)
	for i := range xs {
		xs[i] = fmt.Sprintf("line_%d\n", i)
	}
	return xs
}

func TestWriteLinesBatches(t *testing.T) {
	r := &recorder{}
	a := newArchive(t, r)

	n := 2*BatchSize + 3
	require.NoError(t, a.WriteLines(context.Background(), 1, feature.KindWaypoint, makeLines(n)))

	assert.Equal(t, 3, r.begins)
	assert.Equal(t, 3, r.commits)
	assert.Equal(t, 0, r.rollbacks)
	require.Len(t, r.seqs, n)
	for i, seq := range r.seqs {
		if int64(i) != seq {
			t.Fatalf("seq[%d] = %d", i, seq)
		}
	}
}

func TestWriteLinesExactBatch(t *testing.T) {
	r := &recorder{}
	a := newArchive(t, r)

	require.NoError(t, a.WriteLines(context.Background(), 1, feature.KindVOR, makeLines(BatchSize)))
	assert.Equal(t, 1, r.begins)
	assert.Equal(t, 1, r.commits)
	assert.Len(t, r.seqs, BatchSize)
}

func TestWriteLinesEmpty(t *testing.T) {
	r := &recorder{}
	a := newArchive(t, r)

	require.NoError(t, a.WriteLines(context.Background(), 1, feature.KindNDB, nil))
	assert.Zero(t, r.begins)
	assert.Empty(t, r.seqs)
}

func TestWriteLinesBeginFailsAfterCommit(t *testing.T) {
	// 第一批提交后无法开启下一事务：返回错误，已提交批次保留
	r := &recorder{failBeginAt: 2}
	a := newArchive(t, r)

	var err error
	require.NotPanics(t, func() {
		err = a.WriteLines(context.Background(), 1, feature.KindCompleteThreshold, makeLines(BatchSize+1))
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errBeginRefused)
	assert.Equal(t, 1, r.commits)
	assert.Len(t, r.seqs, BatchSize)
}

func TestWriteLinesBeginFailsFirst(t *testing.T) {
	r := &recorder{failBeginAt: 1}
	a := newArchive(t, r)

	err := a.WriteLines(context.Background(), 1, feature.KindAirport, makeLines(3))
	assert.ErrorIs(t, err, errBeginRefused)
	assert.Zero(t, r.commits)
	assert.Empty(t, r.seqs)
}
