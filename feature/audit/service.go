package audit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Runner is the audit capability the service drives. *auditor.Auditor
// satisfies it.
type Runner interface {
	Audit(ctx context.Context, rse string, date time.Time) (string, error)
}

// Run states.
const (
	StateRunning = "running"
	StateDone    = "done"
	StateFailed  = "failed"
)

// Run is one triggered audit.
type Run struct {
	ID         uuid.UUID `json:"id"`
	RSE        string    `json:"rse"`
	State      string    `json:"state"`
	ResultPath string    `json:"result,omitempty"`
	Error      string    `json:"error,omitempty"`
	Started    time.Time `json:"started"`
	Finished   time.Time `json:"finished,omitempty"`
}

// ResultFile describes one result file on disk.
type ResultFile struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// Service tracks audit runs and serves their results.
type Service struct {
	runner     Runner
	resultsDir string
	logger     *zap.Logger

	group singleflight.Group
	mu    sync.Mutex
	runs  map[string]*Run
}

// NewService creates a new audit service.
func NewService(runner Runner, resultsDir string, logger *zap.Logger) *Service {
	return &Service{
		runner:     runner,
		resultsDir: resultsDir,
		logger:     logger,
		runs:       make(map[string]*Run),
	}
}

// Trigger starts an audit for the RSE in the background and returns the
// run. While a run for the RSE is in flight, further triggers return that
// run instead of starting another.
func (s *Service) Trigger(rse string, date time.Time) Run {
	s.mu.Lock()
	if run, ok := s.runs[rse]; ok && run.State == StateRunning {
		snapshot := *run
		s.mu.Unlock()
		return snapshot
	}
	run := &Run{
		ID:      uuid.New(),
		RSE:     rse,
		State:   StateRunning,
		Started: time.Now(),
	}
	s.runs[rse] = run
	snapshot := *run
	s.mu.Unlock()

	go func() {
		// singleflight collapses triggers that race past the state check,
		// so one RSE never has two audits running.
		path, err, _ := s.group.Do(rse, func() (interface{}, error) {
			return s.runner.Audit(context.Background(), rse, date)
		})

		s.mu.Lock()
		defer s.mu.Unlock()
		run.Finished = time.Now()
		if err != nil {
			run.State = StateFailed
			run.Error = err.Error()
			s.logger.Error("Audit run failed", zap.String("rse", rse), zap.Error(err))
			return
		}
		run.State = StateDone
		run.ResultPath, _ = path.(string)
	}()

	return snapshot
}

// Status returns the most recent run for the RSE.
func (s *Service) Status(rse string) (Run, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[rse]
	if !ok {
		return Run{}, false
	}
	return *run, true
}

// ListResults lists the result files currently on disk. A missing results
// directory simply means no audits have completed yet.
func (s *Service) ListResults() ([]ResultFile, error) {
	entries, err := os.ReadDir(s.resultsDir)
	if os.IsNotExist(err) {
		return []ResultFile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}

	results := make([]ResultFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("stat result %s: %w", entry.Name(), err)
		}
		results = append(results, ResultFile{
			Name:     entry.Name(),
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
	}
	return results, nil
}

// ResultPath resolves a result file name to its on-disk path. Names with
// path separators or traversal components are rejected.
func (s *Service) ResultPath(name string) (string, error) {
	if name == "" || filepath.Base(name) != name || name == "." || name == ".." {
		return "", fmt.Errorf("invalid result name %q", name)
	}
	path := filepath.Join(s.resultsDir, name)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("result %s: %w", name, err)
	}
	return path, nil
}
