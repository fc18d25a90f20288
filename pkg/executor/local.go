package executor

import (
	"bytes"
	"os/exec"
	"syscall"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Local provides the execution environment on the local machine via
// exec.Command. It runs commands as the current user.
type Local struct {
}

// NewLocal returns a Local instance.
func NewLocal() Local {
	return Local{}
}

// Name returns user-friendly name of executor.
func (l Local) Name() string {
	return "Local Executor"
}

// Execute runs the command given as input.
// Returned TaskHandle is able to stop & monitor the provisioned process.
func (l Local) Execute(command string) (TaskHandle, error) {
	log.Debug("Starting ", command)

	cmd := exec.Command("sh", "-c", command)
	// Additional Process Group ID for the parent process and its children
	// gives the ability to kill all the children processes on Stop.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	task := &localTaskHandle{
		command: command,
		cmd:     cmd,
		done:    make(chan struct{}),
	}
	cmd.Stdout = &task.stdout
	cmd.Stderr = &task.stderr

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "could not start command %q", command)
	}

	task.pid = cmd.Process.Pid
	log.Debug("Started with pid ", task.pid)

	// Reap the local task in a goroutine.
	go func() {
		// Wait returns an error for non-zero exit; the process state
		// is inspected below in either case.
		cmd.Wait()

		waitStatus := cmd.ProcessState.Sys().(syscall.WaitStatus)
		if waitStatus.Exited() {
			task.exitCode = waitStatus.ExitStatus()
		} else {
			// Negative code marks the signal which caused termination.
			task.exitCode = -int(waitStatus.Signal())
		}

		log.Debug("Ended ", command, " with exit code ", task.exitCode)
		close(task.done)
	}()

	return task, nil
}

// localTaskHandle implements TaskHandle interface for processes started by
// Local. The done channel is closed after exitCode is stored, so reads that
// happen after a successful Wait see a consistent handle.
type localTaskHandle struct {
	command  string
	cmd      *exec.Cmd
	pid      int
	stdout   bytes.Buffer
	stderr   bytes.Buffer
	exitCode int
	done     chan struct{}
}

// Status returns a state of the task.
func (task *localTaskHandle) Status() TaskState {
	select {
	case <-task.done:
		return TERMINATED
	default:
		return RUNNING
	}
}

// ExitCode returns the exit code of the terminated task.
func (task *localTaskHandle) ExitCode() (int, error) {
	if task.Status() != TERMINATED {
		return 0, errors.Errorf("task %q is still running", task.command)
	}
	return task.exitCode, nil
}

// Stdout returns the captured standard output of the terminated task.
func (task *localTaskHandle) Stdout() (string, error) {
	if task.Status() != TERMINATED {
		return "", errors.Errorf("task %q is still running", task.command)
	}
	return task.stdout.String(), nil
}

// Stderr returns the captured standard error of the terminated task.
func (task *localTaskHandle) Stderr() (string, error) {
	if task.Status() != TERMINATED {
		return "", errors.Errorf("task %q is still running", task.command)
	}
	return task.stderr.String(), nil
}

// Stop terminates the local task together with its process group and waits
// until the process is reaped. The captured output of a stopped task is
// incomplete and should be discarded by the caller.
func (task *localTaskHandle) Stop() error {
	if task.Status() == TERMINATED {
		return nil
	}

	// The kill syscall interprets a negated PID N as the process group N
	// belongs to.
	log.Debug("Sending SIGKILL to process group ", task.pid)
	err := syscall.Kill(-task.pid, syscall.SIGKILL)
	if err != nil && err != syscall.ESRCH {
		return errors.Wrapf(err, "could not kill process group %d", task.pid)
	}

	<-task.done
	return nil
}

// Wait blocks until the process terminates or the timeout elapses.
// Returns true when the process terminated before the timeout, otherwise false.
func (task *localTaskHandle) Wait(timeout time.Duration) bool {
	if timeout == 0 {
		<-task.done
		return true
	}

	select {
	case <-task.done:
		return true
	case <-time.After(timeout):
		return false
	}
}
