package native

import (
	"context"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/tovenja/quench/internal/domain/eval"
)

func TestNewFakeQuant(t *testing.T) {
	convey.Convey("Given the wrapper constructor", t, func() {
		convey.Convey("When the model is nil", func() {
			_, err := NewFakeQuant(nil)
			convey.So(err, convey.ShouldEqual, ErrNilModel)
		})

		convey.Convey("When wrapping a model", func() {
			mdl, err := NewLinear(3, 2)
			convey.So(err, convey.ShouldBeNil)
			qat, err := NewFakeQuant(mdl)
			convey.So(err, convey.ShouldBeNil)
			convey.So(qat.Inner(), convey.ShouldEqual, mdl)
		})
	})
}

func TestFakeQuantForward(t *testing.T) {
	convey.Convey("Given a wrapped model", t, func() {
		ctx := context.Background()
		mdl, err := NewLinear(4, 3, WithSeed(11))
		convey.So(err, convey.ShouldBeNil)
		qat, err := NewFakeQuant(mdl)
		convey.So(err, convey.ShouldBeNil)
		inputs := [][]float32{{0.2, 0.4, 0.6, 0.8}, {1, 0, 1, 0}}

		convey.Convey("When scoring through the quantized view", func() {
			exact, err := mdl.Forward(ctx, inputs)
			convey.So(err, convey.ShouldBeNil)
			rounded, err := qat.Forward(ctx, inputs)
			convey.So(err, convey.ShouldBeNil)

			convey.So(rounded, convey.ShouldHaveLength, len(exact))
			for i, row := range rounded {
				for c, v := range row {
					convey.So(v, convey.ShouldAlmostEqual, exact[i][c], 0.01)
				}
			}
		})

		convey.Convey("When the master weights are untouched by forward", func() {
			before, beforeBias := mdl.Snapshot()
			_, err := qat.Forward(ctx, inputs)
			convey.So(err, convey.ShouldBeNil)

			after, afterBias := mdl.Snapshot()
			convey.So(after, convey.ShouldResemble, before)
			convey.So(afterBias, convey.ShouldResemble, beforeBias)
		})

		convey.Convey("When an input row has the wrong width", func() {
			_, err := qat.Forward(ctx, [][]float32{{1}})
			convey.So(err, convey.ShouldEqual, ErrBadShape)
		})

		convey.Convey("When the context is already canceled", func() {
			canceled, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := qat.Forward(canceled, inputs)
			convey.So(err, convey.ShouldEqual, context.Canceled)
		})
	})
}

func TestFakeQuantCalibration(t *testing.T) {
	convey.Convey("Given a wrapped model", t, func() {
		ctx := context.Background()
		mdl, err := NewLinear(2, 2, WithSeed(5))
		convey.So(err, convey.ShouldBeNil)
		qat, err := NewFakeQuant(mdl)
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When reading weight parameters", func() {
			params := qat.WeightParams()
			convey.So(params.Scale, convey.ShouldBeGreaterThan, 0)
			convey.So(params.Dequantize(params.Quantize(0)), convey.ShouldEqual, 0)
		})

		convey.Convey("When activations accumulate across passes", func() {
			_, err := qat.Forward(ctx, [][]float32{{5, 5}})
			convey.So(err, convey.ShouldBeNil)
			_, err = qat.Forward(ctx, [][]float32{{-5, -5}})
			convey.So(err, convey.ShouldBeNil)

			params := qat.ActivationParams()
			convey.So(params.Scale, convey.ShouldBeGreaterThan, 0)
		})
	})
}

func TestFakeQuantTraining(t *testing.T) {
	convey.Convey("Given an optimizer driving the wrapped model", t, func() {
		ctx := context.Background()
		mdl, err := NewLinear(2, 2, WithSeed(13))
		convey.So(err, convey.ShouldBeNil)
		qat, err := NewFakeQuant(mdl)
		convey.So(err, convey.ShouldBeNil)
		opt, err := NewSGD(qat.Inner(), 0.5)
		convey.So(err, convey.ShouldBeNil)
		batch := twoClusters()

		convey.Convey("When training through the quantized view", func() {
			for i := 0; i < 200; i++ {
				scores, err := qat.Forward(ctx, batch.Inputs)
				convey.So(err, convey.ShouldBeNil)
				opt.ZeroGrad()
				err = opt.Backward(ctx, batch, scores)
				convey.So(err, convey.ShouldBeNil)
				err = opt.Step(ctx)
				convey.So(err, convey.ShouldBeNil)
			}

			final, err := qat.Forward(ctx, batch.Inputs)
			convey.So(err, convey.ShouldBeNil)
			for i, row := range final {
				convey.So(eval.Argmax(row), convey.ShouldEqual, batch.Labels[i])
			}
		})
	})
}
