package interfaces

import "time"

// ScheduleStatus represents the current status of a scheduled task
type ScheduleStatus struct {
	Name        string     `json:"name"`
	Enabled     bool       `json:"enabled"`
	Schedule    string     `json:"schedule"`
	Description string     `json:"description"`
	LastRun     *time.Time `json:"last_run,omitempty"`
	NextRun     *time.Time `json:"next_run,omitempty"`
	IsRunning   bool       `json:"is_running"`
	LastError   string     `json:"last_error,omitempty"`
}

// SchedulerService manages cron-based scheduling of pipeline tasks
type SchedulerService interface {
	// Start the scheduler; registered tasks begin firing on their schedules
	Start() error

	// Stop the scheduler
	Stop() error

	// IsRunning returns true if scheduler is active
	IsRunning() bool

	// RegisterTask registers a new task with the scheduler
	RegisterTask(name string, schedule string, description string, handler func() error) error

	// TriggerTask manually triggers a specific task to run immediately
	TriggerTask(name string) error

	// EnableTask enables a disabled task
	EnableTask(name string) error

	// DisableTask disables an enabled task
	DisableTask(name string) error

	// GetTaskStatus returns the status of a specific task
	GetTaskStatus(name string) (*ScheduleStatus, error)

	// GetAllTaskStatuses returns all task statuses
	GetAllTaskStatuses() map[string]*ScheduleStatus
}
