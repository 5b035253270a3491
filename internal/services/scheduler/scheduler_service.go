package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vestio/internal/common"
	"github.com/ternarybob/vestio/internal/interfaces"
)

// taskEntry represents a registered task with metadata
type taskEntry struct {
	name        string
	schedule    string
	description string
	handler     func() error
	enabled     bool
	cronID      cron.EntryID
	lastRun     *time.Time
	isRunning   bool
	lastError   string
}

// Service implements SchedulerService interface
type Service struct {
	cron     *cron.Cron
	logger   arbor.ILogger
	taskMu   sync.Mutex // Protects tasks map
	globalMu sync.Mutex // Prevents concurrent task execution
	tasks    map[string]*taskEntry
	running  bool
}

// NewService creates a new scheduler service. Cron expressions are
// evaluated in the configured pipeline timezone.
func NewService(config *common.Config, logger arbor.ILogger) interfaces.SchedulerService {
	return &Service{
		cron:   cron.New(cron.WithLocation(config.Location())),
		logger: logger,
		tasks:  make(map[string]*taskEntry),
	}
}

// Start begins firing registered tasks on their schedules
func (s *Service) Start() error {
	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	s.taskMu.Lock()
	count := len(s.tasks)
	s.taskMu.Unlock()

	s.cron.Start()
	s.running = true

	s.logger.Info().
		Int("tasks", count).
		Msg("Scheduler started")
	return nil
}

// Stop halts the scheduler. Tasks already executing run to completion.
func (s *Service) Stop() error {
	if !s.running {
		return nil
	}

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.running = false

	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

// IsRunning returns true if scheduler is active
func (s *Service) IsRunning() bool {
	return s.running
}

// RegisterTask registers a new task with the scheduler
func (s *Service) RegisterTask(name string, schedule string, description string, handler func() error) error {
	// Validate schedule before attempting to register
	if err := common.ValidateTaskSchedule(schedule); err != nil {
		return fmt.Errorf("invalid schedule: %w", err)
	}

	s.taskMu.Lock()
	defer s.taskMu.Unlock()

	if _, exists := s.tasks[name]; exists {
		return fmt.Errorf("task %s already registered", name)
	}

	entry := &taskEntry{
		name:        name,
		schedule:    schedule,
		description: description,
		handler:     handler,
		enabled:     true,
	}

	// Add to cron scheduler with wrapper
	cronID, err := s.cron.AddFunc(schedule, func() {
		s.executeTask(name)
	})
	if err != nil {
		return fmt.Errorf("failed to add task to cron: %w", err)
	}

	entry.cronID = cronID
	s.tasks[name] = entry

	s.logger.Info().
		Str("task_name", name).
		Str("schedule", schedule).
		Msg("Task registered")

	return nil
}

// TriggerTask manually triggers a specific task to run immediately
func (s *Service) TriggerTask(name string) error {
	s.taskMu.Lock()
	entry, exists := s.tasks[name]
	if !exists {
		s.taskMu.Unlock()
		return fmt.Errorf("task %s not found", name)
	}

	// Check if already running
	if entry.isRunning {
		s.taskMu.Unlock()
		return fmt.Errorf("task %s is already running", name)
	}
	s.taskMu.Unlock()

	s.logger.Info().
		Str("task_name", name).
		Msg("Manually triggering task execution")

	// Execute task in background goroutine
	common.SafeGo(s.logger, "task:"+name, func() {
		s.executeTask(name)
	})

	return nil
}

// EnableTask enables a disabled task
func (s *Service) EnableTask(name string) error {
	s.taskMu.Lock()
	defer s.taskMu.Unlock()

	entry, exists := s.tasks[name]
	if !exists {
		return fmt.Errorf("task %s not found", name)
	}

	if entry.enabled {
		return nil // Already enabled
	}

	// Add back to cron scheduler
	cronID, err := s.cron.AddFunc(entry.schedule, func() {
		s.executeTask(name)
	})
	if err != nil {
		return fmt.Errorf("failed to add task to cron: %w", err)
	}

	entry.cronID = cronID
	entry.enabled = true

	s.logger.Info().
		Str("task_name", name).
		Msg("Task enabled")

	return nil
}

// DisableTask disables an enabled task
func (s *Service) DisableTask(name string) error {
	s.taskMu.Lock()
	defer s.taskMu.Unlock()

	entry, exists := s.tasks[name]
	if !exists {
		return fmt.Errorf("task %s not found", name)
	}

	if !entry.enabled {
		return nil // Already disabled
	}

	// Remove from cron scheduler
	s.cron.Remove(entry.cronID)
	entry.enabled = false

	s.logger.Info().
		Str("task_name", name).
		Msg("Task disabled")

	return nil
}

// GetTaskStatus returns the status of a specific task
func (s *Service) GetTaskStatus(name string) (*interfaces.ScheduleStatus, error) {
	s.taskMu.Lock()
	defer s.taskMu.Unlock()

	entry, exists := s.tasks[name]
	if !exists {
		return nil, fmt.Errorf("task %s not found", name)
	}

	// Get next run time from cron
	var nextRun *time.Time
	if entry.enabled {
		for _, cronEntry := range s.cron.Entries() {
			if cronEntry.ID == entry.cronID {
				next := cronEntry.Next
				nextRun = &next
				break
			}
		}
	}

	return &interfaces.ScheduleStatus{
		Name:        entry.name,
		Enabled:     entry.enabled,
		Schedule:    entry.schedule,
		Description: entry.description,
		LastRun:     entry.lastRun,
		NextRun:     nextRun,
		IsRunning:   entry.isRunning,
		LastError:   entry.lastError,
	}, nil
}

// GetAllTaskStatuses returns all task statuses
func (s *Service) GetAllTaskStatuses() map[string]*interfaces.ScheduleStatus {
	// Copy task names while holding lock to avoid concurrent map iteration
	s.taskMu.Lock()
	names := make([]string, 0, len(s.tasks))
	for name := range s.tasks {
		names = append(names, name)
	}
	s.taskMu.Unlock()

	// Build statuses without holding lock (GetTaskStatus has its own locking)
	statuses := make(map[string]*interfaces.ScheduleStatus)
	for _, name := range names {
		status, err := s.GetTaskStatus(name)
		if err == nil {
			statuses[name] = status
		}
	}

	return statuses
}

// executeTask wraps task execution with mutex, panic recovery, and status tracking
func (s *Service) executeTask(name string) {
	// Panic recovery
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("task_name", name).
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("PANIC RECOVERED in task execution")

			s.taskMu.Lock()
			if entry, exists := s.tasks[name]; exists {
				entry.isRunning = false
				entry.lastError = fmt.Sprintf("panic: %v", r)
			}
			s.taskMu.Unlock()
		}
	}()

	// Acquire global mutex so pipeline stages never overlap
	s.globalMu.Lock()
	defer s.globalMu.Unlock()

	s.logger.Info().
		Str("task_name", name).
		Msg("🚀 Task execution started")

	// Get task handler
	s.taskMu.Lock()
	entry, exists := s.tasks[name]
	if !exists {
		s.taskMu.Unlock()
		s.logger.Warn().
			Str("task_name", name).
			Msg("Task not found")
		return
	}

	entry.isRunning = true
	now := time.Now()
	handler := entry.handler
	s.taskMu.Unlock()

	// Execute task handler
	err := handler()

	// Update status after execution
	completionTime := time.Now()
	s.taskMu.Lock()
	entry.isRunning = false
	entry.lastRun = &completionTime
	if err != nil {
		entry.lastError = err.Error()
		s.logger.Error().
			Str("task_name", name).
			Err(err).
			Dur("duration", time.Since(now)).
			Msg("❌ Task execution failed")
	} else {
		entry.lastError = ""
		s.logger.Info().
			Str("task_name", name).
			Dur("duration", time.Since(now)).
			Msg("✅ Task execution completed successfully")
	}
	s.taskMu.Unlock()
}
