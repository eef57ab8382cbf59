package tensor

import "testing"

// TestReLU tests rectification.
func TestReLU(t *testing.T) {
	x, _ := FromSlice([]float64{-2, -0.5, 0, 0.5, 2}, []int{5})

	out := x.ReLU()

	expected := []float64{0, 0, 0, 0.5, 2}
	for i, v := range expected {
		if out.Data[i] != v {
			t.Errorf("Data[%d] = %v, expected %v", i, out.Data[i], v)
		}
	}

	// Input must remain untouched.
	if x.Data[0] != -2 {
		t.Errorf("ReLU modified its input")
	}

	if !ReLU(x).Equals(out, 0) {
		t.Errorf("Function and method forms of ReLU disagree")
	}
}
