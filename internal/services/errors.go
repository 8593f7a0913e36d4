package services

import "errors"

// Dashboard service errors
var (
	// Dataset errors
	ErrDatasetNotLoaded = errors.New("dataset not loaded")

	// Scheduling errors
	ErrInvalidSchedule  = errors.New("invalid export schedule")
	ErrSchedulerRunning = errors.New("export scheduler already running")

	// Watcher errors
	ErrWatcherRunning = errors.New("data watcher already running")
)
