package tensor

import (
	"errors"
	"math"
	"testing"
)

// TestNewTensor tests tensor creation and stride computation.
func TestNewTensor(t *testing.T) {
	tensor := NewTensor([]int{2, 3, 4})

	if len(tensor.Data) != 24 {
		t.Errorf("Expected 24 elements, got %d", len(tensor.Data))
	}
	if tensor.Size() != 24 {
		t.Errorf("Size() = %d, expected 24", tensor.Size())
	}
	if tensor.NumDims() != 3 {
		t.Errorf("NumDims() = %d, expected 3", tensor.NumDims())
	}
	expectedStrides := []int{12, 4, 1}
	for i, s := range expectedStrides {
		if tensor.Strides[i] != s {
			t.Errorf("Strides[%d] = %d, expected %d", i, tensor.Strides[i], s)
		}
	}
	for i, v := range tensor.Data {
		if v != 0 {
			t.Errorf("Data[%d] = %v, expected 0", i, v)
		}
	}
}

// TestFromSlice tests construction from existing data.
func TestFromSlice(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5, 6}

	tensor, err := FromSlice(data, []int{2, 3})
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}
	if tensor.Get([]int{1, 2}) != 6 {
		t.Errorf("Get([1,2]) = %v, expected 6", tensor.Get([]int{1, 2}))
	}

	// Mutating the source must not affect the tensor.
	data[0] = 100
	if tensor.Get([]int{0, 0}) != 1 {
		t.Errorf("tensor shares memory with source slice")
	}

	// Size mismatch is a shape error.
	_, err = FromSlice(data, []int{2, 4})
	if !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch, got %v", err)
	}
}

// TestView tests reshaping with shared data.
func TestView(t *testing.T) {
	tensor, _ := FromSlice([]float64{1, 2, 3, 4, 5, 6}, []int{2, 3})

	view, err := tensor.View([]int{3, 2})
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
	if view.Get([]int{2, 1}) != 6 {
		t.Errorf("View Get([2,1]) = %v, expected 6", view.Get([]int{2, 1}))
	}

	// View shares data.
	view.Set([]int{0, 0}, 42)
	if tensor.Get([]int{0, 0}) != 42 {
		t.Errorf("View does not share data with source")
	}

	_, err = tensor.View([]int{4, 2})
	if !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch for wrong total size, got %v", err)
	}
}

// TestTranspose tests dimension exchange.
func TestTranspose(t *testing.T) {
	tensor, _ := FromSlice([]float64{1, 2, 3, 4, 5, 6}, []int{2, 3})

	transposed, err := tensor.Transpose(0, 1)
	if err != nil {
		t.Fatalf("Transpose failed: %v", err)
	}
	if transposed.Shape[0] != 3 || transposed.Shape[1] != 2 {
		t.Errorf("Expected shape [3 2], got %v", transposed.Shape)
	}
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			if tensor.Get([]int{i, j}) != transposed.Get([]int{j, i}) {
				t.Errorf("Transpose mismatch at (%d,%d)", i, j)
			}
		}
	}

	_, err = tensor.Transpose(0, 5)
	if !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch for invalid dims, got %v", err)
	}
}

// TestTranspose4D tests the head-split transpose used by attention.
func TestTranspose4D(t *testing.T) {
	// (batch=1, seq=2, heads=2, dim=2) -> (batch, heads, seq, dim)
	tensor, _ := FromSlice([]float64{
		1, 2, 3, 4,
		5, 6, 7, 8,
	}, []int{1, 2, 2, 2})

	out, err := tensor.Transpose(1, 2)
	if err != nil {
		t.Fatalf("Transpose failed: %v", err)
	}
	if out.Get([]int{0, 1, 0, 0}) != 3 {
		t.Errorf("Expected head 1 of position 0 to start with 3, got %v", out.Get([]int{0, 1, 0, 0}))
	}
	if out.Get([]int{0, 0, 1, 1}) != 6 {
		t.Errorf("Expected head 0 of position 1 to end with 6, got %v", out.Get([]int{0, 0, 1, 1}))
	}
}

// TestMatmul2D tests plain matrix multiplication values.
func TestMatmul2D(t *testing.T) {
	a, _ := FromSlice([]float64{1, 2, 3, 4}, []int{2, 2})
	b, _ := FromSlice([]float64{5, 6, 7, 8}, []int{2, 2})

	c, err := Matmul(a, b)
	if err != nil {
		t.Fatalf("Matmul failed: %v", err)
	}

	expected := []float64{19, 22, 43, 50}
	for i, v := range expected {
		if math.Abs(c.Data[i]-v) > 1e-12 {
			t.Errorf("Data[%d] = %v, expected %v", i, c.Data[i], v)
		}
	}
}

// TestMatmulBroadcast tests (batch, m, n) @ (n, p) broadcasting.
func TestMatmulBroadcast(t *testing.T) {
	a, _ := FromSlice([]float64{
		1, 0,
		0, 1,
		2, 0,
		0, 2,
	}, []int{2, 2, 2})
	b, _ := FromSlice([]float64{3, 4, 5, 6}, []int{2, 2})

	c, err := Matmul(a, b)
	if err != nil {
		t.Fatalf("Matmul failed: %v", err)
	}
	if len(c.Shape) != 3 || c.Shape[0] != 2 || c.Shape[1] != 2 || c.Shape[2] != 2 {
		t.Fatalf("Expected shape [2 2 2], got %v", c.Shape)
	}

	// Second batch element is 2*I @ b = 2*b.
	expected := []float64{6, 8, 10, 12}
	for i, v := range expected {
		if math.Abs(c.Data[4+i]-v) > 1e-12 {
			t.Errorf("batch 1 Data[%d] = %v, expected %v", i, c.Data[4+i], v)
		}
	}
}

// TestMatmulBatched tests 4D batched multiplication (attention shape).
func TestMatmulBatched(t *testing.T) {
	// (1, 2, 2, 3) @ (1, 2, 3, 2): two independent head matrices.
	a := NewTensor([]int{1, 2, 2, 3})
	b := NewTensor([]int{1, 2, 3, 2})
	for i := range a.Data {
		a.Data[i] = float64(i + 1)
	}
	for i := range b.Data {
		b.Data[i] = 1
	}

	c, err := Matmul(a, b)
	if err != nil {
		t.Fatalf("Matmul failed: %v", err)
	}
	wantShape := []int{1, 2, 2, 2}
	for i, d := range wantShape {
		if c.Shape[i] != d {
			t.Fatalf("Expected shape %v, got %v", wantShape, c.Shape)
		}
	}
	// First row of first head: 1+2+3 = 6 against all-ones columns.
	if c.Get([]int{0, 0, 0, 0}) != 6 || c.Get([]int{0, 0, 0, 1}) != 6 {
		t.Errorf("First head row sums wrong: %v, %v",
			c.Get([]int{0, 0, 0, 0}), c.Get([]int{0, 0, 0, 1}))
	}
}

// TestMatmulShapeErrors tests mismatch detection.
func TestMatmulShapeErrors(t *testing.T) {
	a := NewTensor([]int{2, 3})
	b := NewTensor([]int{4, 2})

	if _, err := Matmul(a, b); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch for inner dims, got %v", err)
	}

	// Differing batch dimensions.
	c := NewTensor([]int{2, 3, 4})
	d := NewTensor([]int{3, 4, 5})
	if _, err := Matmul(c, d); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch for batch dims, got %v", err)
	}

	// 1D operand.
	e := NewTensor([]int{3})
	if _, err := Matmul(e, a); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch for 1D operand, got %v", err)
	}
}

// TestAddBroadcast tests element-wise addition with broadcasting.
func TestAddBroadcast(t *testing.T) {
	x, _ := FromSlice([]float64{1, 2, 3, 4, 5, 6}, []int{2, 3})
	bias, _ := FromSlice([]float64{10, 20, 30}, []int{3})

	out, err := Add(x, bias)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	expected := []float64{11, 22, 33, 14, 25, 36}
	for i, v := range expected {
		if out.Data[i] != v {
			t.Errorf("Data[%d] = %v, expected %v", i, out.Data[i], v)
		}
	}

	// Incompatible shapes.
	bad := NewTensor([]int{4})
	if _, err := Add(x, bad); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch, got %v", err)
	}
}

// TestMulBroadcast tests element-wise multiplication with broadcasting.
func TestMulBroadcast(t *testing.T) {
	x, _ := FromSlice([]float64{1, 2, 3, 4}, []int{2, 2})
	gate, _ := FromSlice([]float64{1, 0}, []int{2})

	out, err := Mul(x, gate)
	if err != nil {
		t.Fatalf("Mul failed: %v", err)
	}
	expected := []float64{1, 0, 3, 0}
	for i, v := range expected {
		if out.Data[i] != v {
			t.Errorf("Data[%d] = %v, expected %v", i, out.Data[i], v)
		}
	}
}

// TestMaskedFill tests mask-driven score replacement with broadcasting.
func TestMaskedFill(t *testing.T) {
	scores := NewTensor([]int{1, 2, 2, 2}) // (batch, heads, q, k)
	mask, _ := FromSlice([]float64{
		1, 0,
		1, 1,
	}, []int{2, 2})

	out, err := MaskedFill(scores, mask, -1e9)
	if err != nil {
		t.Fatalf("MaskedFill failed: %v", err)
	}
	// Position (0,1) is masked in every batch/head slice.
	for h := 0; h < 2; h++ {
		if out.Get([]int{0, h, 0, 1}) != -1e9 {
			t.Errorf("head %d: expected fill at (0,1), got %v", h, out.Get([]int{0, h, 0, 1}))
		}
		if out.Get([]int{0, h, 0, 0}) != 0 {
			t.Errorf("head %d: unmasked position changed: %v", h, out.Get([]int{0, h, 0, 0}))
		}
	}

	// A mask that is not broadcastable must be rejected.
	badMask := NewTensor([]int{3, 2})
	if _, err := MaskedFill(scores, badMask, -1e9); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch, got %v", err)
	}
}

// TestScale tests scalar multiplication.
func TestScale(t *testing.T) {
	x, _ := FromSlice([]float64{1, -2, 3}, []int{3})
	out := x.Scale(0.5)
	expected := []float64{0.5, -1, 1.5}
	for i, v := range expected {
		if out.Data[i] != v {
			t.Errorf("Data[%d] = %v, expected %v", i, out.Data[i], v)
		}
	}

	if !Scale(x, 0.5).Equals(out, 0) {
		t.Errorf("Function and method forms of Scale disagree")
	}
}

// TestEquals tests shape and value comparison.
func TestEquals(t *testing.T) {
	a, _ := FromSlice([]float64{1, 2}, []int{2})
	b, _ := FromSlice([]float64{1, 2.0000001}, []int{2})
	if !a.Equals(b, 1e-5) {
		t.Errorf("Expected tensors to be equal within tolerance")
	}
	if a.Equals(b, 1e-9) {
		t.Errorf("Expected tensors to differ at tight tolerance")
	}
	c, _ := FromSlice([]float64{1, 2}, []int{1, 2})
	if a.Equals(c, 1) {
		t.Errorf("Expected shape mismatch to fail Equals")
	}
}
