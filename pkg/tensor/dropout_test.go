package tensor

import (
	"math"
	"testing"
)

// TestDropoutInference tests that dropout is identity outside training.
func TestDropoutInference(t *testing.T) {
	x, _ := FromSlice([]float64{1, 2, 3, 4}, []int{4})

	out := x.Dropout(0.9, false)
	if !out.Equals(x, 0) {
		t.Errorf("Dropout changed values in inference mode")
	}
	if !ApplyDropout(x, 0.9, false).Equals(x, 0) {
		t.Errorf("ApplyDropout changed values in inference mode")
	}
}

// TestDropoutZeroProbability tests that p=0 keeps everything.
func TestDropoutZeroProbability(t *testing.T) {
	x, _ := FromSlice([]float64{1, 2, 3, 4}, []int{4})

	out := x.Dropout(0, true)
	if !out.Equals(x, 0) {
		t.Errorf("Dropout with p=0 changed values")
	}
}

// TestDropoutTraining tests zeroing and survivor scaling.
func TestDropoutTraining(t *testing.T) {
	SetDropoutSeed(7)

	n := 10000
	x := NewTensor([]int{n})
	for i := range x.Data {
		x.Data[i] = 1
	}

	p := 0.5
	out := x.Dropout(p, true)

	scale := 1.0 / (1.0 - p)
	dropped := 0
	for i, v := range out.Data {
		switch {
		case v == 0:
			dropped++
		case math.Abs(v-scale) > 1e-12:
			t.Fatalf("Data[%d] = %v, expected 0 or %v", i, v, scale)
		}
	}

	// With 10000 samples the drop rate is close to p.
	rate := float64(dropped) / float64(n)
	if math.Abs(rate-p) > 0.05 {
		t.Errorf("Drop rate %v too far from %v", rate, p)
	}
}

// TestDropoutDeterministicSeed tests seed reproducibility.
func TestDropoutDeterministicSeed(t *testing.T) {
	x := NewTensor([]int{100})
	for i := range x.Data {
		x.Data[i] = float64(i)
	}

	SetDropoutSeed(42)
	a := x.Dropout(0.3, true)
	SetDropoutSeed(42)
	b := x.Dropout(0.3, true)

	if !a.Equals(b, 0) {
		t.Errorf("Same seed produced different dropout patterns")
	}
}
