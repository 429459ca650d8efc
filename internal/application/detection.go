package app

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"drip-station/internal/domain/entity"
	"drip-station/internal/domain/port"
	"drip-station/internal/metrics"
)

const (
	DefaultSessionTimeout  = 10 * time.Second
	DefaultTopCount        = 10
	DefaultDisplayMinCount = 5 // точка показывается, если счётчик больше
	DefaultPersistMinCount = 1 // точка сохраняется, если счётчик больше
)

const (
	statusResultsSaved = "BG Results saved."
	statusCanceled     = "BG canceled"
	statusInvalidROI   = "Invalid region"
)

// DetectionConfig параметры сессии детекции
type DetectionConfig struct {
	Timeout         time.Duration
	TopCount        int
	DisplayMinCount int
	Tolerance       int
	Area            entity.AreaRange
}

// DefaultDetectionConfig возвращает значения, с которыми работает станция
func DefaultDetectionConfig() DetectionConfig {
	return DetectionConfig{
		Timeout:         DefaultSessionTimeout,
		TopCount:        DefaultTopCount,
		DisplayMinCount: DefaultDisplayMinCount,
		Tolerance:       DefaultTolerance,
		Area:            entity.AreaRange{Lower: 0, Upper: 300},
	}
}

// DetectionSession накапливает точки капель в выбранной области
// в течение фиксированного окна. Принадлежит основному циклу.
type DetectionSession struct {
	cfg      DetectionConfig
	resolver *Resolver
	store    port.ResultStore
	status   *StatusBoard
	log      logrus.FieldLogger
	metrics  *metrics.Metrics

	id        string
	state     entity.SessionState
	region    entity.Rect
	startedAt time.Time
	frames    int
	points    []entity.TrackedPoint
	ranking   entity.Ranking
	saved     string
}

// NewDetectionSession создаёт сессию в состоянии Idle
func NewDetectionSession(cfg DetectionConfig, store port.ResultStore, status *StatusBoard, log logrus.FieldLogger, m *metrics.Metrics) *DetectionSession {
	return &DetectionSession{
		cfg:      cfg,
		resolver: NewResolver(cfg.Tolerance),
		store:    store,
		status:   status,
		log:      log,
		metrics:  m,
		state:    entity.SessionIdle,
	}
}

// Arm начинает новую сессию в области, обрезанной по кадру.
// Пустая после обрезки область отклоняется без изменения состояния.
func (s *DetectionSession) Arm(region entity.Rect, size entity.FrameSize, now time.Time) error {
	clamped := region.Clamp(size)
	if clamped.Empty() {
		s.status.Set(statusInvalidROI)
		s.log.WithFields(logrus.Fields{
			"region": region,
			"frame":  size,
		}).Warn("rejected detection region")
		return fmt.Errorf("arm %dx%d@%d,%d: %w", region.Width, region.Height, region.X, region.Y, entity.ErrInvalidRegion)
	}

	s.id = uuid.NewString()
	s.state = entity.SessionArmed
	s.region = clamped
	s.startedAt = now
	s.frames = 0
	s.points = nil
	s.ranking = entity.Ranking{}
	s.saved = ""
	s.metrics.SetTrackedPoints(0)

	s.status.Set(fmt.Sprintf("BG active for %d seconds", int(s.cfg.Timeout.Seconds())))
	s.log.WithFields(logrus.Fields{
		"session_id": s.id,
		"region":     clamped,
	}).Info("detection session armed")

	return nil
}

// Check переводит сессию в Expired, когда окно исчерпано.
// Возвращает true только на самом переходе; сохранение выполняется один раз.
func (s *DetectionSession) Check(now time.Time) bool {
	if s.state != entity.SessionArmed {
		return false
	}
	if now.Sub(s.startedAt) < s.cfg.Timeout {
		return false
	}

	s.state = entity.SessionExpired
	s.persist()
	s.status.Set(statusResultsSaved)
	return true
}

func (s *DetectionSession) persist() {
	log := s.log.WithFields(logrus.Fields{
		"session_id": s.id,
		"frames":     s.frames,
		"points":     len(s.points),
	})

	ranking, path, err := s.store.Persist(s.Points(), s.cfg.TopCount)
	s.ranking = ranking
	if err != nil {
		log.WithError(err).Error("failed to persist detection results")
		return
	}

	s.saved = path
	s.metrics.SessionPersisted()
	log.WithField("path", path).Info("detection results saved")
}

// Ingest учитывает кандидатов одного кадра. Координаты кандидатов заданы
// относительно области и переводятся в координаты кадра.
// Возвращает false, если сессия не принимает кадры.
func (s *DetectionSession) Ingest(now time.Time, candidates []entity.Candidate) bool {
	if s.state != entity.SessionArmed {
		return false
	}
	if s.Check(now) {
		return false
	}

	origin := s.region.Origin()
	for _, c := range candidates {
		if !s.cfg.Area.Contains(c.Area) {
			continue
		}
		p := c.Translate(origin).Position()

		if i := s.resolver.Match(p, s.points); i != NoMatch {
			s.points[i].Count++
			continue
		}
		s.points = append(s.points, entity.NewTrackedPoint(p))
	}

	s.frames++
	s.metrics.SetTrackedPoints(len(s.points))
	return true
}

// Cancel бросает текущую сессию без сохранения
func (s *DetectionSession) Cancel() {
	if s.state == entity.SessionIdle {
		return
	}
	s.log.WithField("session_id", s.id).Info("detection session canceled")

	s.state = entity.SessionIdle
	s.region = entity.Rect{}
	s.points = nil
	s.frames = 0
	s.metrics.SetTrackedPoints(0)
	s.status.Set(statusCanceled)
}

// Render возвращает точки для отображения в порядке обнаружения
func (s *DetectionSession) Render() []entity.TrackedPoint {
	if s.state == entity.SessionIdle {
		return nil
	}
	return entity.FilterByCount(s.points, s.cfg.DisplayMinCount)
}

// Remaining возвращает остаток окна наблюдения
func (s *DetectionSession) Remaining(now time.Time) time.Duration {
	if s.state != entity.SessionArmed {
		return 0
	}
	left := s.cfg.Timeout - now.Sub(s.startedAt)
	if left < 0 {
		return 0
	}
	return left
}

func (s *DetectionSession) State() entity.SessionState {
	return s.state
}

func (s *DetectionSession) Region() entity.Rect {
	return s.region
}

func (s *DetectionSession) Frames() int {
	return s.frames
}

// ResultsPath возвращает файл результатов последней завершённой сессии.
// Пусто, если сохранить не удалось.
func (s *DetectionSession) ResultsPath() string {
	return s.saved
}

// Ranking возвращает ранжирование последней завершённой сессии
func (s *DetectionSession) Ranking() entity.Ranking {
	return s.ranking
}

// Points возвращает копию всех точек в порядке обнаружения
func (s *DetectionSession) Points() []entity.TrackedPoint {
	out := make([]entity.TrackedPoint, len(s.points))
	copy(out, s.points)
	return out
}

// Snapshot возвращает срез состояния для отображения и бота
func (s *DetectionSession) Snapshot() entity.SessionSnapshot {
	return entity.SessionSnapshot{
		ID:        s.id,
		State:     s.state,
		Region:    s.region,
		StartedAt: s.startedAt,
		Frames:    s.frames,
		Points:    s.Points(),
	}
}
