// internal/grid/fuzz_test.go
package grid_test

import (
	"math"
	"testing"

	fuzz "github.com/AdaLogics/go-fuzz-headers"

	"github.com/xkilldash9x/gridcheck/internal/grid"
)

type computeInput struct {
	Baseline float64
	Origin   float64
	Pixels   float64
}

// FuzzCompute checks that the grid error never exceeds half a grid unit and
// that baselines sitting on a grid line report no error.
func FuzzCompute(f *testing.F) {
	f.Fuzz(func(t *testing.T, data []byte) {
		consumer := fuzz.NewConsumer(data)
		var in computeInput
		if err := consumer.GenerateStruct(&in); err != nil {
			return
		}

		// Keep inputs in the range real pages produce.
		if !finite(in.Baseline, in.Origin, in.Pixels) || in.Pixels < 1 || in.Pixels > 500 ||
			math.Abs(in.Baseline) > 1e6 || math.Abs(in.Origin) > 1e6 {
			return
		}

		_, gerr := grid.Compute(in.Baseline, in.Origin, in.Pixels)
		if math.Abs(gerr) > in.Pixels/2+1e-9 {
			t.Fatalf("grid error %v exceeds half of grid %v (baseline=%v origin=%v)", gerr, in.Pixels, in.Baseline, in.Origin)
		}

		k := math.Trunc(in.Baseline / in.Pixels)
		idx, onLine := grid.Compute(in.Origin+k*in.Pixels, in.Origin, in.Pixels)
		if math.Abs(onLine) > 1e-6 || math.Abs(idx-k) > 1e-6 {
			t.Fatalf("baseline on line %v reported index %v error %v", k, idx, onLine)
		}
	})
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
