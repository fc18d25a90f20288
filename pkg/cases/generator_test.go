package cases

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
)

func pool(prefix string, size int) []string {
	values := make([]string, size)
	for index := range values {
		values[index] = fmt.Sprintf("%s-%03d", prefix, index)
	}
	return values
}

func TestGenerator(t *testing.T) {
	Convey("While generating cases", t, func() {
		partyPool := pool("party", 20)
		servicePool := pool("service", 30)

		Convey("When drawing 5 parties into 3 groups", func() {
			generated, err := NewGenerator(42).Generate(partyPool, servicePool, 5, 4, 3)
			So(err, ShouldBeNil)
			So(generated.Groups, ShouldHaveLength, 3)

			Convey("The groups should strictly partition the party set", func() {
				seen := map[string]int{}
				total := 0
				for _, group := range generated.Groups {
					So(group.Parties, ShouldNotBeEmpty)
					total += len(group.Parties)
					for _, party := range group.Parties {
						seen[party]++
					}
				}
				So(total, ShouldEqual, 5)
				So(seen, ShouldHaveLength, 5)
				for _, count := range seen {
					So(count, ShouldEqual, 1)
				}
			})

			Convey("Every group's services should be a bounded subset of the case set", func() {
				caseServices := map[string]bool{}
				for _, group := range generated.Groups {
					for _, service := range group.Services {
						caseServices[service] = true
					}
				}
				So(len(caseServices), ShouldBeLessThanOrEqualTo, 4)

				for _, group := range generated.Groups {
					So(len(group.Services), ShouldBeGreaterThanOrEqualTo, 2)
					So(len(group.Services), ShouldBeLessThanOrEqualTo, 4)
					distinct := map[string]bool{}
					for _, service := range group.Services {
						distinct[service] = true
					}
					So(distinct, ShouldHaveLength, len(group.Services))
				}
			})
		})

		Convey("Equal seeds should generate identical cases", func() {
			first, err := NewGenerator(7).Generate(partyPool, servicePool, 6, 5, 2)
			So(err, ShouldBeNil)
			second, err := NewGenerator(7).Generate(partyPool, servicePool, 6, 5, 2)
			So(err, ShouldBeNil)

			So(first, ShouldResemble, second)
		})

		Convey("More groups than parties should be rejected", func() {
			_, err := NewGenerator(1).Generate(partyPool, servicePool, 5, 5, 6)

			So(errors.Cause(err), ShouldEqual, ErrInvalidArity)
		})

		Convey("Non-positive counts should be rejected", func() {
			_, err := NewGenerator(1).Generate(partyPool, servicePool, 0, 5, 1)
			So(errors.Cause(err), ShouldEqual, ErrInvalidArity)

			_, err = NewGenerator(1).Generate(partyPool, servicePool, 5, 0, 1)
			So(errors.Cause(err), ShouldEqual, ErrInvalidArity)

			_, err = NewGenerator(1).Generate(partyPool, servicePool, 5, 5, 0)
			So(errors.Cause(err), ShouldEqual, ErrInvalidArity)
		})

		Convey("A draw larger than the pool should be rejected", func() {
			_, err := NewGenerator(1).Generate(pool("party", 3), servicePool, 4, 5, 1)

			So(errors.Cause(err), ShouldEqual, ErrPoolExhausted)
		})
	})
}

func TestCategory(t *testing.T) {
	Convey("While categorizing cases", t, func() {
		So(Category(1, 1, 10, 20), ShouldEqual, "lpc/lsc")
		So(Category(11, 1, 10, 20), ShouldEqual, "hpc/lsc")
		So(Category(1, 21, 10, 20), ShouldEqual, "lpc/hsc")
		So(Category(11, 21, 10, 20), ShouldEqual, "hpc/hsc")

		Convey("Thresholds themselves should stay low", func() {
			So(Category(10, 20, 10, 20), ShouldEqual, "lpc/lsc")
		})
	})
}
