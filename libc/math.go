package libc

import "math"

// Math routines referenced by ahead-of-time compiled guest code. The
// min/max variants return y when either operand is NaN, matching a plain
// comparison rather than IEEE fmin.

func Fmin(x, y float64) float64 {
	if x < y {
		return x
	}
	return y
}

func Fmax(x, y float64) float64 {
	if x > y {
		return x
	}
	return y
}

func Fminf(x, y float32) float32 {
	if x < y {
		return x
	}
	return y
}

func Fmaxf(x, y float32) float32 {
	if x > y {
		return x
	}
	return y
}

func Ceil(x float64) float64 { return math.Ceil(x) }
func Floor(x float64) float64 { return math.Floor(x) }
func Trunc(x float64) float64 { return math.Trunc(x) }

// Rint rounds to the nearest integer, ties to even.
func Rint(x float64) float64 { return math.RoundToEven(x) }

func Ceilf(x float32) float32 { return float32(math.Ceil(float64(x))) }
func Floorf(x float32) float32 { return float32(math.Floor(float64(x))) }
func Truncf(x float32) float32 { return float32(math.Trunc(float64(x))) }
func Rintf(x float32) float32 { return float32(math.RoundToEven(float64(x))) }
