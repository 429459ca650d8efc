package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"drip-station/internal/domain/entity"
	"drip-station/internal/logger"
)

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

func tp(x, y, count int) entity.TrackedPoint {
	return entity.TrackedPoint{Point: entity.Point{X: x, Y: y}, Count: count}
}

func newTestStore(t *testing.T) (*CSVResultStore, *fixedClock, string) {
	dir := filepath.Join(t.TempDir(), "drip_detect")
	clock := &fixedClock{now: time.Date(2024, 5, 1, 12, 30, 15, 0, time.Local)}
	return NewCSVResultStore(dir, 1, clock, logger.Discard()), clock, dir
}

func readFile(t *testing.T, path string) string {
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestCSVResultStore_WritesRankedResults(t *testing.T) {
	store, _, dir := newTestStore(t)

	points := []entity.TrackedPoint{tp(1, 1, 5), tp(2, 2, 5), tp(3, 3, 3), tp(4, 4, 9), tp(5, 5, 1)}
	ranking, path, err := store.Persist(points, 3)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "detection_results_20240501_123015.csv"), path)
	require.Len(t, ranking.Points, 3)
	require.Equal(t, 22, ranking.Total)

	require.Equal(t, "Rank,X,Y,Count\n1,4,4,9\n2,1,1,5\n3,2,2,5\n", readFile(t, path))
	// сумма по всем прошедшим фильтр, до обрезки
	require.Equal(t, "20240501_123015,4,4,9,22\n", readFile(t, filepath.Join(dir, LogFileName)))
}

func TestCSVResultStore_AppendsLog(t *testing.T) {
	store, clock, dir := newTestStore(t)

	_, _, err := store.Persist([]entity.TrackedPoint{tp(10, 20, 2)}, 10)
	require.NoError(t, err)
	clock.now = clock.now.Add(time.Minute)
	_, _, err = store.Persist([]entity.TrackedPoint{tp(30, 40, 4), tp(50, 60, 3)}, 10)
	require.NoError(t, err)

	require.Equal(t,
		"20240501_123015,10,20,2,2\n20240501_123115,30,40,4,7\n",
		readFile(t, filepath.Join(dir, LogFileName)))
}

func TestCSVResultStore_NoSurvivorsSkipsLog(t *testing.T) {
	store, _, dir := newTestStore(t)

	ranking, path, err := store.Persist([]entity.TrackedPoint{tp(1, 1, 1)}, 10)
	require.NoError(t, err)
	require.Equal(t, "Rank,X,Y,Count\n", readFile(t, path))
	_, ok := ranking.Top()
	require.False(t, ok)

	_, err = os.Stat(filepath.Join(dir, LogFileName))
	require.True(t, os.IsNotExist(err))
}

func TestCSVResultStore_UnwritableDir(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	clock := &fixedClock{now: time.Now()}
	store := NewCSVResultStore(filepath.Join(blocker, "drip_detect"), 1, clock, logger.Discard())

	ranking, path, err := store.Persist([]entity.TrackedPoint{tp(1, 1, 3)}, 10)
	require.Error(t, err)
	require.Empty(t, path)
	// ранжирование доступно и без файла
	top, ok := ranking.Top()
	require.True(t, ok)
	require.Equal(t, 3, top.Count)
}
