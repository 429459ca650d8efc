package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sirupsen/logrus"

	"drip-station/internal/domain/entity"
	"drip-station/internal/domain/port"
)

const (
	DefaultResultsDir = "./drip_detect"
	LogFileName       = "detection_log.csv"
	stampLayout       = "20060102_150405"
)

var resultsHeader = []string{"Rank", "X", "Y", "Count"}

// CSVResultStore пишет итоги сессии в CSV: файл результатов на каждую
// сессию и общий журнал, в который дописывается по строке
type CSVResultStore struct {
	dir      string
	minCount int
	clock    port.Clock
	log      logrus.FieldLogger
}

// NewCSVResultStore создаёт хранилище в каталоге dir.
// Точки сохраняются, если их счётчик больше minCount.
func NewCSVResultStore(dir string, minCount int, clock port.Clock, log logrus.FieldLogger) *CSVResultStore {
	if dir == "" {
		dir = DefaultResultsDir
	}
	return &CSVResultStore{
		dir:      dir,
		minCount: minCount,
		clock:    clock,
		log:      log,
	}
}

// Persist ранжирует точки и пишет файл результатов.
// Строка журнала добавляется, только если хотя бы одна точка прошла фильтр.
func (s *CSVResultStore) Persist(points []entity.TrackedPoint, topCount int) (entity.Ranking, string, error) {
	ranking := entity.RankTrackedPoints(points, s.minCount, topCount)
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return ranking, "", fmt.Errorf("create results dir: %w", err)
	}

	stamp := s.clock.Now().Format(stampLayout)
	path := filepath.Join(s.dir, "detection_results_"+stamp+".csv")

	if err := writeResults(path, ranking); err != nil {
		return ranking, "", err
	}
	s.log.WithFields(logrus.Fields{
		"path":   path,
		"points": len(ranking.Points),
	}).Info("saved top detection points")

	top, ok := ranking.Top()
	if !ok {
		return ranking, path, nil
	}

	// журнал вторичен: результаты уже записаны
	logPath := filepath.Join(s.dir, LogFileName)
	if err := appendLog(logPath, stamp, top, ranking.Total); err != nil {
		s.log.WithError(err).WithField("path", logPath).Error("failed to append detection log")
	}

	return ranking, path, nil
}

func writeResults(path string, ranking entity.Ranking) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create results file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close results file: %w", cerr)
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(resultsHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, p := range ranking.Points {
		row := []string{
			strconv.Itoa(p.Rank),
			strconv.Itoa(p.X),
			strconv.Itoa(p.Y),
			strconv.Itoa(p.Count),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", p.Rank, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush results file: %w", err)
	}
	return nil
}

func appendLog(path, stamp string, top entity.RankedPoint, total int) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close log: %w", cerr)
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write([]string{
		stamp,
		strconv.Itoa(top.X),
		strconv.Itoa(top.Y),
		strconv.Itoa(top.Count),
		strconv.Itoa(total),
	}); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	w.Flush()
	return w.Error()
}

var _ port.ResultStore = (*CSVResultStore)(nil)
