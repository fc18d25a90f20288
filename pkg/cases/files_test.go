package cases

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestFilenames(t *testing.T) {
	Convey("While naming case files", t, func() {
		combo := Combo{Parties: 5, Services: 3000, Groups: 4}

		So(Filename(7, 123, false, combo), ShouldEqual, "007-5p-3000s-4g.json")
		So(Filename(7, 123, true, combo), ShouldEqual, "007-123-5p-3000s-4g.json")
	})
}

func TestNextCounter(t *testing.T) {
	Convey("While looking for the next free sequence number", t, func() {
		dir := t.TempDir()

		Convey("An empty directory should start at 1", func() {
			counter, err := NextCounter(dir, 9, false)

			So(err, ShouldBeNil)
			So(counter, ShouldEqual, 1)
		})

		Convey("Existing files should advance the counter", func() {
			So(ioutil.WriteFile(filepath.Join(dir, "001-1p-1s-1g.json"), []byte("[]"), 0644), ShouldBeNil)
			So(ioutil.WriteFile(filepath.Join(dir, "005-2p-2s-1g.json"), []byte("[]"), 0644), ShouldBeNil)
			So(ioutil.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644), ShouldBeNil)

			counter, err := NextCounter(dir, 9, false)

			So(err, ShouldBeNil)
			So(counter, ShouldEqual, 6)
		})

		Convey("With seeded filenames only the matching seed should count", func() {
			So(ioutil.WriteFile(filepath.Join(dir, "003-9-1p-1s-1g.json"), []byte("[]"), 0644), ShouldBeNil)
			So(ioutil.WriteFile(filepath.Join(dir, "008-4-1p-1s-1g.json"), []byte("[]"), 0644), ShouldBeNil)

			counter, err := NextCounter(dir, 9, true)

			So(err, ShouldBeNil)
			So(counter, ShouldEqual, 4)
		})
	})
}

func TestWriteAndLoadDir(t *testing.T) {
	Convey("While round-tripping cases through a directory", t, func() {
		dir := t.TempDir()

		large := Case{Groups: []Group{
			{Parties: pool("party", 15), Services: pool("service", 3)},
		}}
		small := Case{Groups: []Group{
			{Parties: []string{"p-1"}, Services: []string{"s-1"}},
			{Parties: []string{"p-2"}, Services: []string{"s-1", "s-2"}},
		}}

		_, err := Write(dir, "001-15p-3s-1g.json", large)
		So(err, ShouldBeNil)
		_, err = Write(dir, "002-2p-2s-2g.json", small)
		So(err, ShouldBeNil)
		So(ioutil.WriteFile(filepath.Join(dir, "broken.json"), []byte("{not json"), 0644), ShouldBeNil)

		loaded, err := LoadDir(dir)
		So(err, ShouldBeNil)

		Convey("Unparseable files should be skipped", func() {
			So(loaded, ShouldHaveLength, 2)
		})

		Convey("Cases should come back ordered small to large", func() {
			So(loaded[0].Name, ShouldEqual, "002-2p-2s-2g.json")
			So(loaded[1].Name, ShouldEqual, "001-15p-3s-1g.json")
		})

		Convey("Counts should reflect the union across groups", func() {
			So(loaded[0].PartyCount(), ShouldEqual, 2)
			So(loaded[0].ServiceCount(), ShouldEqual, 2)
			So(loaded[1].PartyCount(), ShouldEqual, 15)
			So(loaded[1].ServiceCount(), ShouldEqual, 3)
		})

		Convey("The on-disk form should be the bare group array", func() {
			data, err := ioutil.ReadFile(filepath.Join(dir, "002-2p-2s-2g.json"))
			So(err, ShouldBeNil)
			So(string(data), ShouldStartWith, `[{"Parties":`)
		})
	})
}
