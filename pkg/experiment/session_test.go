package experiment

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSession(t *testing.T) {
	Convey("While creating a benchmark session", t, func() {
		root := filepath.Join(t.TempDir(), "bench-root")

		session, err := NewSession(root)
		So(err, ShouldBeNil)

		Convey("The directory tree should exist", func() {
			for _, dir := range []string{
				session.CasesetsDir,
				session.SqlsDir,
				session.CSVDir,
				session.ExplainsDir,
			} {
				info, err := os.Stat(dir)
				So(err, ShouldBeNil)
				So(info.IsDir(), ShouldBeTrue)
			}
		})

		Convey("The session should have a UUID and timestamp", func() {
			So(session.UUID, ShouldNotBeEmpty)
			So(session.Timestamp, ShouldNotBeEmpty)

			other, err := NewSession(filepath.Join(t.TempDir(), "other"))
			So(err, ShouldBeNil)
			So(other.UUID, ShouldNotEqual, session.UUID)
		})

		Convey("Per-iteration directories should be created on demand", func() {
			casesDir, err := session.IterationCasesDir("100")
			So(err, ShouldBeNil)
			So(casesDir, ShouldEqual, filepath.Join(root, "casesets", "100"))

			explainsDir, err := session.IterationExplainsDir("100")
			So(err, ShouldBeNil)
			So(explainsDir, ShouldEqual, filepath.Join(root, "output", "explains", "100"))

			info, err := os.Stat(explainsDir)
			So(err, ShouldBeNil)
			So(info.IsDir(), ShouldBeTrue)
		})

		Convey("The master log should tee into the session root", func() {
			So(session.OpenMasterLog(), ShouldBeNil)
			session.CloseMasterLog()

			data, err := ioutil.ReadFile(filepath.Join(root, "Master.log"))
			So(err, ShouldBeNil)
			So(string(data), ShouldContainSubstring, session.UUID)
		})

		Convey("Templates should be frozen into the sqls directory", func() {
			source := filepath.Join(t.TempDir(), "variant_a.sql")
			So(ioutil.WriteFile(source, []byte("SELECT 1"), 0644), ShouldBeNil)

			copied, err := session.CopyTemplates([]string{source})
			So(err, ShouldBeNil)
			So(copied, ShouldResemble, []string{filepath.Join(session.SqlsDir, "variant_a.sql")})

			data, err := ioutil.ReadFile(copied[0])
			So(err, ShouldBeNil)
			So(string(data), ShouldEqual, "SELECT 1")
		})

		Convey("The configuration dump should land in the session root", func() {
			So(session.DumpConfig(), ShouldBeNil)

			data, err := ioutil.ReadFile(filepath.Join(root, "config.env"))
			So(err, ShouldBeNil)
			So(string(data), ShouldContainSubstring, "set -o allexport")
		})
	})
}
