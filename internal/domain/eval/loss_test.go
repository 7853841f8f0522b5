package eval_test

import (
	"math"
	"testing"

	eval "github.com/tovenja/quench/internal/domain/eval"
	"github.com/smartystreets/goconvey/convey"
)

func TestCrossEntropy(t *testing.T) {
	convey.Convey("Given score matrices", t, func() {
		convey.Convey("When scores are uniform", func() {
			loss, err := eval.CrossEntropy([][]float32{{0, 0}}, []int{0})

			convey.Convey("Then the loss is log of the class count", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(loss, convey.ShouldAlmostEqual, math.Log(2), 1e-9)
			})
		})

		convey.Convey("When the true class dominates", func() {
			loss, err := eval.CrossEntropy([][]float32{{50, 0, 0}}, []int{0})

			convey.Convey("Then the loss is near zero", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(loss, convey.ShouldBeLessThan, 1e-6)
				convey.So(loss, convey.ShouldBeGreaterThanOrEqualTo, 0.0)
			})
		})

		convey.Convey("When the true class is suppressed", func() {
			confident, err1 := eval.CrossEntropy([][]float32{{0, 10}}, []int{0})
			uniform, err2 := eval.CrossEntropy([][]float32{{0, 0}}, []int{0})

			convey.Convey("Then the loss exceeds the uniform loss", func() {
				convey.So(err1, convey.ShouldBeNil)
				convey.So(err2, convey.ShouldBeNil)
				convey.So(confident, convey.ShouldBeGreaterThan, uniform)
			})
		})

		convey.Convey("When averaging over a batch", func() {
			// Rows are symmetric, so the mean equals the per-row loss.
			loss, err := eval.CrossEntropy([][]float32{{1, 0}, {0, 1}}, []int{0, 1})
			single, serr := eval.CrossEntropy([][]float32{{1, 0}}, []int{0})

			convey.Convey("Then the batch loss is the mean of row losses", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(serr, convey.ShouldBeNil)
				convey.So(loss, convey.ShouldAlmostEqual, single, 1e-9)
			})
		})

		convey.Convey("When large scores would overflow a naive softmax", func() {
			loss, err := eval.CrossEntropy([][]float32{{1000, 999}}, []int{0})

			convey.Convey("Then the shifted computation stays finite", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(math.IsInf(loss, 0), convey.ShouldBeFalse)
				convey.So(math.IsNaN(loss), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When the input is invalid", func() {
			_, emptyErr := eval.CrossEntropy(nil, nil)
			_, mismatchErr := eval.CrossEntropy([][]float32{{1, 2}}, []int{0, 1})
			_, labelErr := eval.CrossEntropy([][]float32{{1, 2}}, []int{5})

			convey.Convey("Then the evaluator sentinels are returned", func() {
				convey.So(emptyErr, convey.ShouldEqual, eval.ErrEmptyBatch)
				convey.So(mismatchErr, convey.ShouldEqual, eval.ErrLengthMismatch)
				convey.So(labelErr, convey.ShouldEqual, eval.ErrLabelRange)
			})
		})
	})
}

func TestSoftmax(t *testing.T) {
	convey.Convey("Given score rows", t, func() {
		convey.Convey("When converting a row to probabilities", func() {
			probs := eval.Softmax([]float32{1, 2, 3})

			convey.Convey("Then probabilities sum to one", func() {
				var sum float64
				for _, p := range probs {
					sum += p
				}
				convey.So(sum, convey.ShouldAlmostEqual, 1.0, 1e-9)
			})

			convey.Convey("And ordering follows the scores", func() {
				convey.So(probs[2], convey.ShouldBeGreaterThan, probs[1])
				convey.So(probs[1], convey.ShouldBeGreaterThan, probs[0])
			})
		})

		convey.Convey("When scores are uniform", func() {
			probs := eval.Softmax([]float32{0.5, 0.5})

			convey.Convey("Then mass splits evenly", func() {
				convey.So(probs[0], convey.ShouldAlmostEqual, 0.5, 1e-9)
				convey.So(probs[1], convey.ShouldAlmostEqual, 0.5, 1e-9)
			})
		})

		convey.Convey("When the row is empty", func() {
			convey.So(eval.Softmax(nil), convey.ShouldBeNil)
		})
	})
}
