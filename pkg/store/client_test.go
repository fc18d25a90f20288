package store

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/mock"

	"github.com/Altinn/dialogporten-utils/pkg/executor/mocks"
)

func TestPsql(t *testing.T) {
	Convey("While running SQL through psql", t, func() {
		exec := new(mocks.Executor)
		client := NewPsql(exec, "postgres://bench@localhost/dialogs", "psql")

		Convey("A successful query should return trimmed stdout", func() {
			handle := new(mocks.TaskHandle)
			handle.On("Wait", 5*time.Second).Return(true)
			handle.On("ExitCode").Return(0, nil)
			handle.On("Stdout").Return("  1234567\n", nil)

			var command string
			exec.On("Execute", mock.AnythingOfType("string")).Run(func(args mock.Arguments) {
				command = args.String(0)
			}).Return(handle, nil)

			out, err := client.Query("SELECT reltuples FROM pg_class", 5*time.Second)

			So(err, ShouldBeNil)
			So(out, ShouldEqual, "1234567")

			Convey("The command should carry the connection string and tuple flags", func() {
				So(command, ShouldContainSubstring, "psql 'postgres://bench@localhost/dialogs'")
				So(command, ShouldContainSubstring, "-t -A -q")
				So(command, ShouldContainSubstring, "-f ")
			})
		})

		Convey("A script run should keep stdout untrimmed", func() {
			handle := new(mocks.TaskHandle)
			handle.On("Wait", time.Second).Return(true)
			handle.On("ExitCode").Return(0, nil)
			handle.On("Stdout").Return(" Limit\n Execution Time: 1.0 ms\n", nil)

			exec.On("Execute", mock.AnythingOfType("string")).Return(handle, nil)

			out, err := client.RunScript("EXPLAIN SELECT 1", time.Second)

			So(err, ShouldBeNil)
			So(out, ShouldEqual, " Limit\n Execution Time: 1.0 ms\n")
		})

		Convey("A timed out run should be stopped and marked", func() {
			handle := new(mocks.TaskHandle)
			handle.On("Wait", time.Second).Return(false)
			handle.On("Stop").Return(nil)

			exec.On("Execute", mock.AnythingOfType("string")).Return(handle, nil)

			_, err := client.RunScript("SELECT pg_sleep(60)", time.Second)

			So(errors.Cause(err), ShouldEqual, ErrTimeout)
			handle.AssertCalled(t, "Stop")
		})

		Convey("A non-zero exit should surface stderr in the error", func() {
			handle := new(mocks.TaskHandle)
			handle.On("Wait", time.Second).Return(true)
			handle.On("ExitCode").Return(1, nil)
			handle.On("Stdout").Return("", nil)
			handle.On("Stderr").Return(`ERROR:  relation "Dialog" does not exist`+"\n", nil)

			exec.On("Execute", mock.AnythingOfType("string")).Return(handle, nil)

			_, err := client.RunScript("SELECT * FROM missing", time.Second)

			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "exited with code 1")
			So(err.Error(), ShouldContainSubstring, "does not exist")
		})

		Convey("A failed launch should propagate", func() {
			exec.On("Execute", mock.AnythingOfType("string")).
				Return(nil, errors.New("no shell"))

			_, err := client.Query("SELECT 1", time.Second)

			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "could not launch psql")
		})
	})
}
