package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"drip-station/internal/domain/entity"
	"drip-station/internal/domain/port"
	"drip-station/internal/logger"
)

var testLog = logger.Discard()

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeFrame struct {
	id      int
	size    entity.FrameSize
	caption string
	closed  bool
}

func (f *fakeFrame) Size() entity.FrameSize { return f.size }

func (f *fakeFrame) Clone() port.Frame {
	c := *f
	c.closed = false
	return &c
}

func (f *fakeFrame) Close() error {
	f.closed = true
	return nil
}

type stampOverlay struct{}

func (stampOverlay) Stamp(frame port.Frame, text string) error {
	frame.(*fakeFrame).caption = text
	return nil
}

type fakeSink struct {
	mu      sync.Mutex
	written []int
	failAt  int // 0: никогда
	closed  bool
	gate    chan struct{}
}

func (s *fakeSink) Write(frame port.Frame) error {
	if s.gate != nil {
		<-s.gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAt > 0 && len(s.written)+1 == s.failAt {
		return errors.New("codec rejected frame")
	}
	s.written = append(s.written, frame.(*fakeFrame).id)
	return nil
}

func (s *fakeSink) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *fakeSink) Written() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, len(s.written))
	copy(out, s.written)
	return out
}

type fakeSinkFactory struct {
	sink  *fakeSink
	err   error
	paths []string
}

func (f *fakeSinkFactory) Create(path string, size entity.FrameSize) (port.VideoSink, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.paths = append(f.paths, path)
	if f.sink == nil {
		f.sink = &fakeSink{}
	}
	return f.sink, nil
}

type fakeStore struct {
	mu    sync.Mutex
	calls [][]entity.TrackedPoint
	err   error
}

func (s *fakeStore) Persist(points []entity.TrackedPoint, topCount int) (entity.Ranking, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, points)
	ranking := entity.RankTrackedPoints(points, DefaultPersistMinCount, topCount)
	if s.err != nil {
		return ranking, "", s.err
	}
	return ranking, "results.csv", nil
}

func (s *fakeStore) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// gatedFinalizer завершает задачу только после release
type gatedFinalizer struct {
	mu      sync.Mutex
	started []string
	startCh chan string
	release map[string]chan struct{}
}

func newGatedFinalizer() *gatedFinalizer {
	return &gatedFinalizer{
		startCh: make(chan string, 10),
		release: make(map[string]chan struct{}),
	}
}

func (f *gatedFinalizer) gate(path string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.release[path]
	if !ok {
		ch = make(chan struct{})
		f.release[path] = ch
	}
	return ch
}

func (f *gatedFinalizer) Release(path string) {
	close(f.gate(path))
}

func (f *gatedFinalizer) Started() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.started))
	copy(out, f.started)
	return out
}

func (f *gatedFinalizer) Finalize(ctx context.Context, task entity.PostProcessTask, progress func(int)) (string, error) {
	f.mu.Lock()
	f.started = append(f.started, task.Path)
	f.mu.Unlock()
	f.startCh <- task.Path

	progress(50)
	<-f.gate(task.Path)
	return task.Path + ".mp4", nil
}

type fakeSource struct {
	batches [][]entity.Candidate
	resets  int
	calls   int
}

func (s *fakeSource) Detect(frame port.Frame, region entity.Rect, frameIndex int) ([]entity.Candidate, error) {
	s.calls++
	if len(s.batches) == 0 {
		return nil, nil
	}
	b := s.batches[0]
	s.batches = s.batches[1:]
	return b, nil
}

func (s *fakeSource) Reset() { s.resets++ }

type fakeChooser struct {
	dir   string
	block bool
}

func (c *fakeChooser) Choose(ctx context.Context) (string, error) {
	if c.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return c.dir, nil
}
