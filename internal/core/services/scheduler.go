package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/custodia-labs/promethean-light/internal/core/domain"
	"github.com/custodia-labs/promethean-light/internal/core/ports/driven"
	"github.com/custodia-labs/promethean-light/internal/core/ports/driving"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// historyRetention is how many results are kept per task.
const historyRetention = 100

// Reconciler repairs chunk/vector divergence.
type Reconciler interface {
	Reconcile(ctx context.Context) (*domain.ReconcileReport, error)
}

// Scheduler manages background task execution: the clustering loop and the
// vector reconcile sweep. A task never runs twice concurrently.
type Scheduler struct {
	config     domain.SchedulerConfig
	store      driven.SchedulerStore
	organizer  driving.Organizer
	reconciler Reconciler

	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
	wg       sync.WaitGroup
	inFlight map[string]bool
	snapshot domain.CorpusSnapshot
	params   domain.ClusteringParams
}

// NewScheduler creates a scheduler with configuration.
// organizer and reconciler are optional; their tasks become no-ops when nil.
func NewScheduler(
	config domain.SchedulerConfig,
	store driven.SchedulerStore,
	organizer driving.Organizer,
	reconciler Reconciler,
) *Scheduler {
	return &Scheduler{
		config:     config,
		store:      store,
		organizer:  organizer,
		reconciler: reconciler,
		inFlight:   make(map[string]bool),
	}
}

// SetClusteringParams sets the parameters passed to each clustering cycle.
func (s *Scheduler) SetClusteringParams(p domain.ClusteringParams) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = p
}

// Name identifies the scheduler as a daemon component.
func (s *Scheduler) Name() string {
	return "scheduler"
}

// Run adapts Start to the daemon component contract.
func (s *Scheduler) Run(ctx context.Context) error {
	err := s.Start(ctx)
	if stopErr := s.Stop(); stopErr != nil {
		log.Printf("scheduler: stop: %v", stopErr)
	}
	return err
}

// Start begins the scheduler loop. This method blocks until Stop is called
// or the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.config.Enabled {
		<-ctx.Done()
		return ctx.Err()
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	if err := s.initialiseTasks(ctx); err != nil {
		log.Printf("scheduler: failed to initialise tasks: %v", err)
	}

	return s.run(ctx, stopCh)
}

// Stop gracefully shuts down the scheduler and waits for running tasks.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		s.wg.Wait()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()

	return nil
}

// Snapshot returns the corpus counts recorded by the last clustering run.
func (s *Scheduler) Snapshot() domain.CorpusSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// initialiseTasks ensures all configured tasks exist in the store.
func (s *Scheduler) initialiseTasks(ctx context.Context) error {
	tasks := []struct {
		id   string
		name string
	}{
		{domain.TaskIDOrganize, "Clustering"},
		{domain.TaskIDReconcile, "Vector Reconcile"},
	}

	for _, t := range tasks {
		cfg := s.config.GetTaskConfig(t.id)
		if !cfg.Enabled || cfg.Interval <= 0 {
			continue
		}
		if err := s.ensureTask(ctx, t.id, t.name, cfg); err != nil {
			return err
		}
	}

	return nil
}

// ensureTask creates or updates a task in the store.
func (s *Scheduler) ensureTask(ctx context.Context, id, name string, cfg domain.TaskConfig) error {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}

	if task == nil {
		task = &domain.ScheduledTask{
			ID:       id,
			Name:     name,
			Interval: cfg.Interval,
			Enabled:  cfg.Enabled,
			NextRun:  time.Now().Add(cfg.Interval),
		}
	} else {
		if task.Interval != cfg.Interval {
			task.Interval = cfg.Interval
			task.NextRun = time.Now().Add(cfg.Interval)
		}
		task.Enabled = cfg.Enabled
	}

	return s.store.SaveTask(ctx, task)
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context, stopCh <-chan struct{}) error {
	s.checkAndRunDueTasks(ctx)

	tick := s.config.Tick
	if tick <= 0 {
		tick = time.Minute
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			s.checkAndRunDueTasks(ctx)
		}
	}
}

// checkAndRunDueTasks finds and executes tasks that are due.
func (s *Scheduler) checkAndRunDueTasks(ctx context.Context) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		log.Printf("scheduler: failed to list tasks: %v", err)
		return
	}

	now := time.Now()
	for i := range tasks {
		task := &tasks[i]
		if !task.Enabled {
			continue
		}
		if task.NextRun.IsZero() || !task.NextRun.After(now) {
			s.runTask(ctx, task)
		}
	}
}

// claim marks a task in flight. It returns false if the task is already running.
func (s *Scheduler) claim(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[id] {
		return false
	}
	s.inFlight[id] = true
	return true
}

func (s *Scheduler) release(id string) {
	s.mu.Lock()
	delete(s.inFlight, id)
	s.mu.Unlock()
}

// runTask executes a single task in the background.
func (s *Scheduler) runTask(ctx context.Context, task *domain.ScheduledTask) {
	if !s.claim(task.ID) {
		log.Printf("scheduler: %s still running, skipping", task.ID)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.release(task.ID)

		result := &domain.TaskResult{
			TaskID:    task.ID,
			StartedAt: time.Now(),
		}

		var err error
		switch task.ID {
		case domain.TaskIDOrganize:
			result.ItemsProcessed, err = s.runOrganize(ctx)
		case domain.TaskIDReconcile:
			result.ItemsProcessed, err = s.runReconcile(ctx)
		default:
			log.Printf("scheduler: unknown task ID: %s", task.ID)
			return
		}

		result.EndedAt = time.Now()
		if err != nil {
			result.Success = false
			result.Error = err.Error()
			task.LastError = err.Error()
			log.Printf("scheduler: %s failed: %v", task.ID, err)
		} else {
			result.Success = true
			task.LastError = ""
			task.LastSuccess = result.EndedAt
		}

		task.LastRun = result.StartedAt
		task.NextRun = result.EndedAt.Add(task.Interval)

		// The daemon context may already be cancelled; state is still recorded.
		saveCtx := context.WithoutCancel(ctx)

		if saveErr := s.store.SaveTask(saveCtx, task); saveErr != nil {
			log.Printf("scheduler: failed to save task %s: %v", task.ID, saveErr)
		}
		if recordErr := s.store.RecordResult(saveCtx, result); recordErr != nil {
			log.Printf("scheduler: failed to record result for %s: %v", task.ID, recordErr)
		}
		if pruneErr := s.store.PruneHistory(saveCtx, historyRetention); pruneErr != nil {
			log.Printf("scheduler: failed to prune history: %v", pruneErr)
		}
	}()
}

// runOrganize runs one clustering cycle and carries its snapshot forward.
func (s *Scheduler) runOrganize(ctx context.Context) (int, error) {
	if s.organizer == nil {
		return 0, nil
	}

	s.mu.Lock()
	prev, params := s.snapshot, s.params
	s.mu.Unlock()

	outcome, err := s.organizer.RunClustering(ctx, prev, params)

	s.mu.Lock()
	s.snapshot = outcome.Snapshot
	s.mu.Unlock()

	if err != nil {
		return 0, err
	}
	if !outcome.Ran {
		log.Printf("scheduler: clustering skipped: %s", outcome.SkipReason)
		return 0, nil
	}
	log.Printf("scheduler: clustering found %d clusters (%d assigned, %d noise)",
		len(outcome.Clusters), outcome.Assigned, outcome.Noise)
	return outcome.Assigned, nil
}

// runReconcile repairs missing and orphaned vectors.
func (s *Scheduler) runReconcile(ctx context.Context) (int, error) {
	if s.reconciler == nil {
		return 0, nil
	}

	report, err := s.reconciler.Reconcile(ctx)
	if err != nil {
		return 0, err
	}
	if report.VectorsAdded > 0 || report.OrphansRemoved > 0 {
		log.Printf("scheduler: reconcile added %d vectors, removed %d orphans",
			report.VectorsAdded, report.OrphansRemoved)
	}
	return report.VectorsAdded + report.OrphansRemoved, nil
}
