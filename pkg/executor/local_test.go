package executor

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

// TestLocal tests the execution of processes on the local machine.
func TestLocal(t *testing.T) {
	Convey("While using Local Shell", t, func() {
		l := NewLocal()

		Convey("When a blocking sleep command is executed", func() {
			task, err := l.Execute("sleep 60")
			So(err, ShouldBeNil)

			Convey("The task should be running and reads should fail", func() {
				So(task.Status(), ShouldEqual, RUNNING)

				_, exitErr := task.ExitCode()
				So(exitErr, ShouldNotBeNil)
				_, outErr := task.Stdout()
				So(outErr, ShouldNotBeNil)

				So(task.Stop(), ShouldBeNil)
			})

			Convey("When we wait for the task with a short timeout", func() {
				terminated := task.Wait(1 * time.Millisecond)

				Convey("The timeout should elapse with the task still running", func() {
					So(terminated, ShouldBeFalse)
					So(task.Status(), ShouldEqual, RUNNING)
				})

				So(task.Stop(), ShouldBeNil)
			})

			Convey("When we stop the task", func() {
				So(task.Stop(), ShouldBeNil)

				Convey("It should terminate with the SIGKILL marker code", func() {
					So(task.Status(), ShouldEqual, TERMINATED)
					exitCode, err := task.ExitCode()
					So(err, ShouldBeNil)
					So(exitCode, ShouldEqual, -9)
				})

				Convey("Stopping it again should be a no-op", func() {
					So(task.Stop(), ShouldBeNil)
				})
			})
		})

		Convey("When a command printing on both streams is executed", func() {
			task, err := l.Execute("echo output && echo error >&2")
			So(err, ShouldBeNil)

			Convey("After waiting, both streams should be captured", func() {
				So(task.Wait(0), ShouldBeTrue)

				exitCode, err := task.ExitCode()
				So(err, ShouldBeNil)
				So(exitCode, ShouldEqual, 0)

				stdout, err := task.Stdout()
				So(err, ShouldBeNil)
				So(stdout, ShouldEqual, "output\n")

				stderr, err := task.Stderr()
				So(err, ShouldBeNil)
				So(stderr, ShouldEqual, "error\n")
			})
		})

		Convey("When a command exits with a non-zero code", func() {
			task, err := l.Execute("exit 3")
			So(err, ShouldBeNil)

			Convey("The exit code should be reported after termination", func() {
				So(task.Wait(0), ShouldBeTrue)
				exitCode, err := task.ExitCode()
				So(err, ShouldBeNil)
				So(exitCode, ShouldEqual, 3)
			})
		})

		Convey("When a nonexistent binary is invoked through the shell", func() {
			task, err := l.Execute("command-that-does-not-exist-anywhere")
			So(err, ShouldBeNil)

			Convey("The shell should surface a non-zero exit code", func() {
				So(task.Wait(0), ShouldBeTrue)
				exitCode, err := task.ExitCode()
				So(err, ShouldBeNil)
				So(exitCode, ShouldEqual, 127)
			})
		})
	})
}
