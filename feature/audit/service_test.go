package audit

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRunner struct {
	mu    sync.Mutex
	calls int
	block chan struct{}
	path  string
	err   error
}

func (r *fakeRunner) Audit(ctx context.Context, rse string, date time.Time) (string, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if r.block != nil {
		<-r.block
	}
	return r.path, r.err
}

func (r *fakeRunner) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func TestTriggerCompletes(t *testing.T) {
	runner := &fakeRunner{path: "/results/result.RSE1_20250128.gz"}
	svc := NewService(runner, t.TempDir(), zap.NewNop())

	run := svc.Trigger("RSE1", time.Time{})
	assert.Equal(t, StateRunning, run.State)
	assert.Equal(t, "RSE1", run.RSE)

	require.Eventually(t, func() bool {
		run, ok := svc.Status("RSE1")
		return ok && run.State == StateDone
	}, time.Second, 10*time.Millisecond)

	run, _ = svc.Status("RSE1")
	assert.Equal(t, "/results/result.RSE1_20250128.gz", run.ResultPath)
	assert.Empty(t, run.Error)
	assert.False(t, run.Finished.IsZero())
}

func TestTriggerDeduplicatesInFlight(t *testing.T) {
	runner := &fakeRunner{path: "/results/x.gz", block: make(chan struct{})}
	svc := NewService(runner, t.TempDir(), zap.NewNop())

	first := svc.Trigger("RSE1", time.Time{})
	second := svc.Trigger("RSE1", time.Time{})
	assert.Equal(t, first.ID, second.ID)

	close(runner.block)
	require.Eventually(t, func() bool {
		run, ok := svc.Status("RSE1")
		return ok && run.State == StateDone
	}, time.Second, 10*time.Millisecond)

	assert.Equal(t, 1, runner.callCount())
}

func TestTriggerRecordsFailure(t *testing.T) {
	runner := &fakeRunner{err: errors.New("no storage dump for RSE1")}
	svc := NewService(runner, t.TempDir(), zap.NewNop())

	svc.Trigger("RSE1", time.Time{})
	require.Eventually(t, func() bool {
		run, ok := svc.Status("RSE1")
		return ok && run.State == StateFailed
	}, time.Second, 10*time.Millisecond)

	run, _ := svc.Status("RSE1")
	assert.Contains(t, run.Error, "no storage dump")
	assert.Empty(t, run.ResultPath)
}

func TestStatusUnknownRSE(t *testing.T) {
	svc := NewService(&fakeRunner{}, t.TempDir(), zap.NewNop())
	_, ok := svc.Status("RSE1")
	assert.False(t, ok)
}

func TestListResults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "result.RSE1_20250128.gz"), []byte("data"), 0o644))
	svc := NewService(&fakeRunner{}, dir, zap.NewNop())

	results, err := svc.ListResults()
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "result.RSE1_20250128.gz", results[0].Name)
	assert.Equal(t, int64(4), results[0].Size)
}

func TestListResultsMissingDir(t *testing.T) {
	svc := NewService(&fakeRunner{}, filepath.Join(t.TempDir(), "nope"), zap.NewNop())

	results, err := svc.ListResults()
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestResultPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "result.RSE1_20250128.gz"), []byte("data"), 0o644))
	svc := NewService(&fakeRunner{}, dir, zap.NewNop())

	path, err := svc.ResultPath("result.RSE1_20250128.gz")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "result.RSE1_20250128.gz"), path)

	_, err = svc.ResultPath("../secrets")
	assert.Error(t, err)
	_, err = svc.ResultPath("a/b")
	assert.Error(t, err)
	_, err = svc.ResultPath("")
	assert.Error(t, err)

	_, err = svc.ResultPath("result.RSE2_20250128.gz")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
