package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"drip-station/internal/domain/entity"
)

func TestDispatcher_NeverRunsConcurrently(t *testing.T) {
	fin := newGatedFinalizer()
	d := NewDispatcher(fin, newManualClock(), testLog, nil)
	ctx := context.Background()

	d.Dispatch(ctx, entity.PostProcessTask{Path: "a.avi", Duration: time.Second})
	require.Equal(t, "a.avi", <-fin.startCh)
	require.True(t, d.Busy())

	dispatched := make(chan struct{})
	go func() {
		d.Dispatch(ctx, entity.PostProcessTask{Path: "b.avi", Duration: 2 * time.Second})
		close(dispatched)
	}()

	select {
	case p := <-fin.startCh:
		t.Fatalf("task %s started while a.avi was running", p)
	case <-dispatched:
		t.Fatal("dispatch returned before previous task finished")
	case <-time.After(50 * time.Millisecond):
	}
	require.Equal(t, []string{"a.avi"}, fin.Started())

	fin.Release("a.avi")
	<-dispatched
	require.Equal(t, "b.avi", <-fin.startCh)

	fin.Release("b.avi")
	d.Wait()
	require.False(t, d.Busy())
	require.Equal(t, []string{"a.avi", "b.avi"}, fin.Started())
}

func TestDispatcher_PublishesResult(t *testing.T) {
	fin := newGatedFinalizer()
	d := NewDispatcher(fin, newManualClock(), testLog, nil)

	_, ok := d.Poll()
	require.False(t, ok)

	d.Dispatch(context.Background(), entity.PostProcessTask{Path: "a.avi", Duration: 3 * time.Second})
	<-fin.startCh
	require.Eventually(t, func() bool { return d.Progress() == 50 }, time.Second, 5*time.Millisecond)

	fin.Release("a.avi")
	d.Wait()

	res, ok := d.Poll()
	require.True(t, ok)
	require.NoError(t, res.Err)
	require.Equal(t, "a.avi", res.Source)
	require.Equal(t, "a.avi.mp4", res.Output)
	require.Equal(t, 3*time.Second, res.Duration)
	require.Equal(t, 100, d.Progress())

	_, ok = d.Poll()
	require.False(t, ok)

	task, ok := d.Current()
	require.True(t, ok)
	require.Equal(t, entity.TaskFinished, task.State)
}

func TestDispatcher_WaitWithoutTask(t *testing.T) {
	d := NewDispatcher(newGatedFinalizer(), newManualClock(), testLog, nil)
	d.Wait()
	require.False(t, d.Busy())
	_, ok := d.Current()
	require.False(t, ok)
}
