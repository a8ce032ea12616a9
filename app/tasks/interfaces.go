package tasks

import "time"

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application to manage background task processing.
// Example usage:
//
//	scheduler := NewScheduler(workerCount, interval, orchestrator, contentPlanner)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewFetchCategoryTask("Sport", fetcher))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

// Planner decides which tasks are due. The scheduler calls every planner on
// start and on each tick.
type Planner interface {
	PlanTasks(now time.Time) []TaskInterface
}
