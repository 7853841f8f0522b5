package quant_test

import (
	"math"
	"testing"

	quant "github.com/tovenja/quench/internal/domain/quant"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPrecision(t *testing.T) {
	Convey("Given precision names", t, func() {
		Convey("When parsing canonical names", func() {
			fp32, err1 := quant.ParsePrecision("FP32")
			int8p, err2 := quant.ParsePrecision("INT8")

			Convey("Then they resolve to the constants", func() {
				So(err1, ShouldBeNil)
				So(fp32, ShouldEqual, quant.FP32)
				So(err2, ShouldBeNil)
				So(int8p, ShouldEqual, quant.INT8)
			})
		})

		Convey("When parsing with odd casing and spacing", func() {
			p, err := quant.ParsePrecision("  int8 ")

			Convey("Then parsing still succeeds", func() {
				So(err, ShouldBeNil)
				So(p, ShouldEqual, quant.INT8)
			})
		})

		Convey("When parsing the empty string", func() {
			p, err := quant.ParsePrecision("")

			Convey("Then it defaults to FP32", func() {
				So(err, ShouldBeNil)
				So(p, ShouldEqual, quant.FP32)
			})
		})

		Convey("When parsing an unknown name", func() {
			_, err := quant.ParsePrecision("FP16")

			Convey("Then it is rejected", func() {
				So(err, ShouldEqual, quant.ErrUnknownPrecision)
			})
		})

		Convey("When checking validity", func() {
			So(quant.FP32.Valid(), ShouldBeTrue)
			So(quant.INT8.Valid(), ShouldBeTrue)
			So(quant.Precision("FP64").Valid(), ShouldBeFalse)
		})
	})
}

func TestObserver(t *testing.T) {
	Convey("Given a range observer", t, func() {
		o := quant.NewObserver()

		Convey("When nothing has been observed", func() {
			min, max := o.Range()

			Convey("Then the range is zero", func() {
				So(min, ShouldEqual, 0.0)
				So(max, ShouldEqual, 0.0)
				So(o.Seen(), ShouldBeFalse)
			})
		})

		Convey("When observing a single value", func() {
			o.ObserveValue(3.5)
			min, max := o.Range()

			Convey("Then both ends equal that value", func() {
				So(min, ShouldEqual, 3.5)
				So(max, ShouldEqual, 3.5)
				So(o.Seen(), ShouldBeTrue)
			})
		})

		Convey("When observing a slice of values", func() {
			o.Observe([]float32{0.5, -2, 7, 1})
			min, max := o.Range()

			Convey("Then the range covers all of them", func() {
				So(min, ShouldEqual, -2.0)
				So(max, ShouldEqual, 7.0)
			})
		})

		Convey("When observing repeatedly", func() {
			o.Observe([]float32{1, 2})
			o.Observe([]float32{-5})
			o.Observe([]float32{0})
			min, max := o.Range()

			Convey("Then the range only widens", func() {
				So(min, ShouldEqual, -5.0)
				So(max, ShouldEqual, 2.0)
			})
		})

		Convey("When resetting", func() {
			o.Observe([]float32{10, -10})
			o.Reset()
			min, max := o.Range()

			Convey("Then the range is empty again", func() {
				So(min, ShouldEqual, 0.0)
				So(max, ShouldEqual, 0.0)
				So(o.Seen(), ShouldBeFalse)
			})
		})
	})
}

func TestCalibrateAndQuantize(t *testing.T) {
	Convey("Given calibrated parameters", t, func() {
		Convey("When the range is symmetric", func() {
			p := quant.Calibrate(-1, 1)

			Convey("Then zero dequantizes exactly to zero", func() {
				So(p.Dequantize(p.Quantize(0)), ShouldEqual, float32(0))
			})

			Convey("And round trips stay within half a step", func() {
				for _, v := range []float32{-1, -0.6, -0.25, 0, 0.125, 0.5, 1} {
					got := p.Dequantize(p.Quantize(v))
					So(math.Abs(float64(got-v)), ShouldBeLessThanOrEqualTo, p.Scale/2+1e-6)
				}
			})

			Convey("And out-of-range values clamp to the grid ends", func() {
				So(p.Quantize(100), ShouldEqual, int8(127))
				So(p.Quantize(-100), ShouldEqual, int8(-128))
			})
		})

		Convey("When the range is positive only", func() {
			p := quant.Calibrate(2, 10)

			Convey("Then the range is widened to include zero", func() {
				So(p.Quantize(0), ShouldEqual, int8(-128))
				So(p.Dequantize(p.Quantize(0)), ShouldEqual, float32(0))
				So(p.Quantize(10), ShouldEqual, int8(127))
			})
		})

		Convey("When the range is degenerate", func() {
			p := quant.Calibrate(0, 0)

			Convey("Then everything maps to code zero", func() {
				So(p.Scale, ShouldEqual, 1.0)
				So(p.Zero, ShouldEqual, 0)
				So(p.Quantize(0), ShouldEqual, int8(0))
			})
		})

		Convey("When deriving parameters from an observer", func() {
			o := quant.NewObserver()
			o.Observe([]float32{-4, 4})
			p := quant.CalibrateObserver(o)

			Convey("Then the scale matches the observed span", func() {
				So(p.Scale, ShouldAlmostEqual, 8.0/255.0, 1e-12)
			})
		})

		Convey("When quantizing slices", func() {
			p := quant.Calibrate(-2, 2)
			src := []float32{-2, -1, 0, 1, 2}
			codes := make([]int8, len(src))
			back := make([]float32, len(src))

			p.QuantizeSlice(codes, src)
			p.DequantizeSlice(back, codes)

			Convey("Then every element round trips within half a step", func() {
				for i := range src {
					So(math.Abs(float64(back[i]-src[i])), ShouldBeLessThanOrEqualTo, p.Scale/2+1e-6)
				}
			})
		})
	})
}

func TestFakeQuantize(t *testing.T) {
	Convey("Given fake quantization over a value slice", t, func() {
		p := quant.Calibrate(-1, 1)
		values := []float32{-0.9, -0.33, 0, 0.2, 0.71}
		original := make([]float32, len(values))
		copy(original, values)

		Convey("When applying it once", func() {
			quant.FakeQuantize(values, p)

			Convey("Then each value moves at most half a step", func() {
				for i := range values {
					So(math.Abs(float64(values[i]-original[i])), ShouldBeLessThanOrEqualTo, p.Scale/2+1e-6)
				}
			})

			Convey("And applying it again changes nothing", func() {
				again := make([]float32, len(values))
				copy(again, values)
				quant.FakeQuantize(again, p)
				So(again, ShouldResemble, values)
			})
		})
	})
}
