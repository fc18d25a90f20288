package sampler

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
)

// fakePopulation scripts SampleDistinct responses per attempt and records the
// percentages it was called with.
type fakePopulation struct {
	estimate    int64
	estimateErr error
	responses   [][]string
	percents    []float64
	calls       int
}

func (f *fakePopulation) EstimateSize() (int64, error) {
	return f.estimate, f.estimateErr
}

func (f *fakePopulation) SampleDistinct(attribute string, percent float64, seed int, limit int) ([]string, error) {
	f.percents = append(f.percents, percent)
	f.calls++
	if len(f.responses) == 0 {
		return nil, nil
	}
	response := f.responses[0]
	f.responses = f.responses[1:]
	return response, nil
}

func TestSampler(t *testing.T) {
	Convey("While sampling distinct values", t, func() {
		Convey("When one attempt covers the target", func() {
			population := &fakePopulation{
				estimate:  1000,
				responses: [][]string{{"a", "b", "c", "d"}},
			}

			pool, err := New(population).Sample("party", 3)

			Convey("The pool should hold the first three values", func() {
				So(err, ShouldBeNil)
				So(pool, ShouldResemble, ValuePool{"a", "b", "c"})
				So(population.calls, ShouldEqual, 1)
			})
		})

		Convey("When the population estimate is below the target", func() {
			population := &fakePopulation{estimate: 2}

			pool, err := New(population).Sample("party", 5)

			Convey("Sampling should refuse up front", func() {
				So(pool, ShouldBeNil)
				So(errors.Cause(err), ShouldEqual, ErrInsufficientPopulation)
				So(population.calls, ShouldEqual, 0)
			})
		})

		Convey("When attempts return duplicates and empties", func() {
			population := &fakePopulation{
				estimate: 1000,
				responses: [][]string{
					{"a", "", "a", "b"},
					{"b", "c"},
				},
			}

			pool, err := New(population).Sample("party", 3)

			Convey("The pool should stay distinct and first-seen ordered", func() {
				So(err, ShouldBeNil)
				So(pool, ShouldResemble, ValuePool{"a", "b", "c"})
			})
		})

		Convey("When an attempt makes no progress", func() {
			population := &fakePopulation{
				estimate: 1000,
				responses: [][]string{
					{"a"},
					{"a"},
					{"a", "b"},
				},
			}

			pool, err := New(population).Sample("party", 2)
			So(err, ShouldBeNil)
			So(pool, ShouldResemble, ValuePool{"a", "b"})

			Convey("The sampled fraction should double after the stall", func() {
				So(population.percents, ShouldHaveLength, 3)
				So(population.percents[1], ShouldEqual, population.percents[0])
				So(population.percents[2], ShouldAlmostEqual, population.percents[1]*2, 1e-9)
			})
		})

		Convey("When no attempt ever reaches the target", func() {
			population := &fakePopulation{
				estimate:  1000,
				responses: [][]string{{"a"}, {"b"}},
			}

			pool, err := New(population).Sample("party", 100)

			Convey("The partial pool should come back with the marker error", func() {
				So(errors.Cause(err), ShouldEqual, ErrExhaustedAttempts)
				So(pool, ShouldResemble, ValuePool{"a", "b"})
				So(population.calls, ShouldEqual, maxAttempts)
			})
		})

		Convey("When the estimate is unavailable", func() {
			population := &fakePopulation{
				estimate:    0,
				estimateErr: fmt.Errorf("no metadata"),
				responses:   [][]string{{"a"}},
			}

			pool, err := New(population).Sample("party", 1)

			Convey("The default estimate should carry the sampling through", func() {
				So(err, ShouldBeNil)
				So(pool, ShouldResemble, ValuePool{"a"})
				So(population.percents[0], ShouldBeGreaterThan, 0)
			})
		})

		Convey("When the target is not positive", func() {
			_, err := New(&fakePopulation{estimate: 10}).Sample("party", 0)

			So(err, ShouldNotBeNil)
		})
	})
}
