package plan

import (
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestCondense(t *testing.T) {
	Convey("While condensing a plan corpus", t, func() {
		corpus := strings.Split(`== 001-1p-1s-1g.json__variant_a__r01_p01.txt ==
 Limit  (cost=0.43..8.45 rows=1 width=8) (actual time=0.040..0.041 rows=1 loops=1)
   Buffers: shared hit=120 read=4
   ->  Sort  (cost=1..2 rows=10 width=8) (actual time=0.030..0.031 rows=10 loops=1)
         Sort Key: "CreatedAt"
         Sort Method: top-N heapsort
         Memory: 25kB
         Buffers: shared hit=119 read=4

 Planning Time: 0.420 ms
 Execution Time: 12.345 ms`, "\n")

		condensed := Condense(corpus)

		Convey("Headers should pass through verbatim", func() {
			So(condensed[0], ShouldEqual, "== 001-1p-1s-1g.json__variant_a__r01_p01.txt ==")
		})

		Convey("Node lines should shrink to name plus t/r/l triple", func() {
			So(condensed[1], ShouldEqual, "Limit (t=0.040..0.041 r=1 l=1)")
			So(condensed[3], ShouldEqual, "-> Sort (t=0.030..0.031 r=10 l=1)")
		})

		Convey("Allow-listed clause lines should survive normalized", func() {
			So(condensed, ShouldContain, "Buffers: shared hit=120 read=4")
			So(condensed, ShouldContain, `Sort Key: "CreatedAt"`)
			So(condensed, ShouldContain, "Execution Time: 12.345 ms")
		})

		Convey("Noise lines and blanks should be gone", func() {
			joined := strings.Join(condensed, "\n")
			So(joined, ShouldNotContainSubstring, "Sort Method:")
			So(joined, ShouldNotContainSubstring, "Memory:")
			So(joined, ShouldNotContainSubstring, "cost=")
			for _, line := range condensed {
				So(strings.TrimSpace(line), ShouldNotBeEmpty)
			}
		})

		Convey("Condensing should be reproducible", func() {
			So(Condense(corpus), ShouldResemble, condensed)
		})
	})
}
