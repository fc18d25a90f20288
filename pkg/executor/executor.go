// Package executor provides the execution environment for the external
// collaborators of the benchmark: the psql client and any helper commands.
// Workloads are executed asynchronously and controlled through a TaskHandle.
package executor

import "time"

// Executor is responsible for creating execution environment for given command.
// It returns a TaskHandle when the command started gracefully.
type Executor interface {
	// Execute executes command on underlying platform.
	Execute(command string) (TaskHandle, error)
	// Name returns user-friendly name of executor.
	Name() string
}

// TaskState is an enum presenting current task state.
type TaskState int

const (
	// RUNNING task state means that task is still running.
	RUNNING TaskState = iota
	// TERMINATED task state means that task completed or was stopped.
	TERMINATED
)

// TaskHandle represents a process which can be stopped or monitored.
// Stdout and stderr are captured separately and may only be read once the
// task has terminated.
type TaskHandle interface {
	// Stop forcibly terminates the task and its children and waits for
	// the process to be reaped.
	Stop() error
	// Status returns the current state of the task.
	Status() TaskState
	// ExitCode returns the exit code. If task is not terminated it
	// returns an error.
	ExitCode() (int, error)
	// Stdout returns the captured standard output of the task.
	// It returns an error while the task is still running.
	Stdout() (string, error)
	// Stderr returns the captured standard error of the task.
	// It returns an error while the task is still running.
	Stderr() (string, error)
	// Wait blocks until the task terminates or the timeout elapses.
	// A zero timeout waits indefinitely. It returns true when the task
	// terminated before the timeout.
	Wait(timeout time.Duration) bool
}
