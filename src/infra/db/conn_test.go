package db

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.DiscardHandler)

// fakeQuerier counts releases and optionally fails every statement.
type fakeQuerier struct {
	err      error
	result   *Result
	releases *int
}

func (f *fakeQuerier) Query(context.Context, string, ...any) (*Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeQuerier) Exec(context.Context, string, ...any) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return 1, nil
}

func (f *fakeQuerier) Release() error {
	*f.releases++
	return nil
}

func TestConn_FailedQueriesReleaseExactlyOnce(t *testing.T) {
	releases := 0
	boom := errors.New("boom")

	for i := 0; i < 100; i++ {
		conn := Instrument(&fakeQuerier{err: boom, releases: &releases}, discard, nil)

		_, err := conn.Query(context.Background(), "SELECT broken")
		require.ErrorIs(t, err, boom)
		require.True(t, conn.Released())

		// Callers usually defer Release as well.
		require.NoError(t, conn.Release())
	}

	assert.Equal(t, 100, releases)
}

func TestConn_FailedExecReleases(t *testing.T) {
	releases := 0
	conn := Instrument(&fakeQuerier{err: errors.New("boom"), releases: &releases}, discard, nil)

	_, err := conn.Exec(context.Background(), "DELETE FROM t")
	require.Error(t, err)
	assert.Equal(t, 1, releases)
}

func TestConn_SuccessfulQueryKeepsConnection(t *testing.T) {
	releases := 0
	want := &Result{Rows: Rows{{"id": int64(1)}}, Fields: []Field{{Name: "id"}}}
	conn := Instrument(&fakeQuerier{result: want, releases: &releases}, discard, nil)

	got, err := conn.Query(context.Background(), "SELECT id FROM t")
	require.NoError(t, err)
	assert.Same(t, want, got)
	assert.False(t, conn.Released())
	assert.Equal(t, 0, releases)

	require.NoError(t, conn.Release())
	require.NoError(t, conn.Release())
	assert.Equal(t, 1, releases)
}

func TestInstrument_IsIdempotent(t *testing.T) {
	releases := 0
	conn := Instrument(&fakeQuerier{releases: &releases}, discard, nil)

	again := Instrument(conn, nil, nil)
	assert.Same(t, conn, again)
}

func TestConn_NilLoggerIsAllowed(t *testing.T) {
	releases := 0
	conn := Instrument(&fakeQuerier{result: &Result{}, releases: &releases}, nil, nil)

	_, err := conn.Query(context.Background(), "SELECT 1")
	require.NoError(t, err)
}

func TestConn_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg, "test")
	require.NoError(t, err)

	releases := 0
	ok := Instrument(&fakeQuerier{result: &Result{}, releases: &releases}, discard, m)
	_, err = ok.Query(context.Background(), "SELECT 1")
	require.NoError(t, err)

	bad := Instrument(&fakeQuerier{err: errors.New("boom"), releases: &releases}, discard, m)
	_, err = bad.Exec(context.Background(), "SELECT 1")
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.queries.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queries.WithLabelValues("error")))
}

func TestNewMetrics_SharesCollectorsOnSameRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewMetrics(reg, "test")
	require.NoError(t, err)
	second, err := NewMetrics(reg, "test")
	require.NoError(t, err)

	assert.Same(t, first.queries, second.queries)
}

func TestNewMetrics_NilRegisterer(t *testing.T) {
	_, err := NewMetrics(nil, "test")
	require.Error(t, err)
}
