// Package tensor provides the dense numeric primitives used by the
// transformer: batched matrix multiplication, transposition, broadcast
// arithmetic, softmax reductions and masking. Matrix kernels are delegated
// to gonum; everything operates on float64 data.
package tensor

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// Tensor represents a multi-dimensional array of float64 values.
// Data is stored flat in row-major order with precomputed strides.
type Tensor struct {
	Data    []float64 // Flattened data storage
	Shape   []int     // Dimensions (e.g., [batch, heads, seq, dim])
	Strides []int     // Precomputed strides for indexing
}

// NewTensor creates a new tensor with the given shape, initialized to zeros.
func NewTensor(shape []int) *Tensor {
	size := 1
	for _, dim := range shape {
		size *= dim
	}
	return &Tensor{
		Data:    make([]float64, size),
		Shape:   copyShape(shape),
		Strides: computeStrides(shape),
	}
}

// FromSlice creates a tensor owning a copy of data with the given shape.
// Returns an error if the data size doesn't match the shape.
func FromSlice(data []float64, shape []int) (*Tensor, error) {
	expectedSize := 1
	for _, dim := range shape {
		if dim < 0 {
			return nil, fmt.Errorf("%w: invalid dimension %d in shape %v", ErrShapeMismatch, dim, shape)
		}
		expectedSize *= dim
	}
	if len(data) != expectedSize {
		return nil, fmt.Errorf("%w: data size %d does not match shape %v (expected %d elements)",
			ErrShapeMismatch, len(data), shape, expectedSize)
	}

	dataCopy := make([]float64, len(data))
	copy(dataCopy, data)

	return &Tensor{
		Data:    dataCopy,
		Shape:   copyShape(shape),
		Strides: computeStrides(shape),
	}, nil
}

// View returns a new tensor with a different shape sharing the same
// underlying data. Returns an error if the total size doesn't match.
func (t *Tensor) View(newShape []int) (*Tensor, error) {
	newSize := 1
	for _, dim := range newShape {
		if dim < 0 {
			return nil, fmt.Errorf("%w: invalid dimension %d in shape %v", ErrShapeMismatch, dim, newShape)
		}
		newSize *= dim
	}
	if newSize != len(t.Data) {
		return nil, fmt.Errorf("%w: cannot view tensor of size %d as shape %v (total size %d)",
			ErrShapeMismatch, len(t.Data), newShape, newSize)
	}
	return &Tensor{
		Data:    t.Data,
		Shape:   copyShape(newShape),
		Strides: computeStrides(newShape),
	}, nil
}

// Reshape returns a view with a different shape (same underlying data).
// Panics on size mismatch; use View for the error-returning form.
func (t *Tensor) Reshape(newShape []int) *Tensor {
	result, err := t.View(newShape)
	if err != nil {
		panic(err)
	}
	return result
}

// Transpose exchanges two dimensions of the tensor, copying the data into
// a fresh contiguous tensor.
func (t *Tensor) Transpose(dim1, dim2 int) (*Tensor, error) {
	if dim1 < 0 || dim1 >= len(t.Shape) || dim2 < 0 || dim2 >= len(t.Shape) {
		return nil, fmt.Errorf("%w: invalid transpose dimensions %d and %d for tensor with %d dimensions",
			ErrShapeMismatch, dim1, dim2, len(t.Shape))
	}
	if dim1 == dim2 {
		return t.Clone(), nil
	}

	newShape := copyShape(t.Shape)
	newShape[dim1], newShape[dim2] = newShape[dim2], newShape[dim1]
	result := NewTensor(newShape)

	srcIndices := make([]int, len(t.Shape))
	dstIndices := make([]int, len(t.Shape))
	var walk func(pos int)
	walk = func(pos int) {
		if pos == len(t.Shape) {
			copy(dstIndices, srcIndices)
			dstIndices[dim1], dstIndices[dim2] = dstIndices[dim2], dstIndices[dim1]
			result.Data[result.FlatIndex(dstIndices)] = t.Data[t.FlatIndex(srcIndices)]
			return
		}
		for i := 0; i < t.Shape[pos]; i++ {
			srcIndices[pos] = i
			walk(pos + 1)
		}
	}
	walk(0)

	return result, nil
}

// Size returns the total number of elements in the tensor.
func (t *Tensor) Size() int {
	size := 1
	for _, dim := range t.Shape {
		size *= dim
	}
	return size
}

// NumDims returns the number of dimensions (rank) of the tensor.
func (t *Tensor) NumDims() int {
	return len(t.Shape)
}

// FlatIndex converts multi-dimensional indices to a flat index.
func (t *Tensor) FlatIndex(indices []int) int {
	if len(indices) != len(t.Shape) {
		panic(fmt.Sprintf("indices length %d does not match shape dimensions %d",
			len(indices), len(t.Shape)))
	}
	idx := 0
	for i := 0; i < len(t.Shape); i++ {
		if indices[i] < 0 || indices[i] >= t.Shape[i] {
			panic(fmt.Sprintf("index %d out of bounds for dimension %d with size %d",
				indices[i], i, t.Shape[i]))
		}
		idx += indices[i] * t.Strides[i]
	}
	return idx
}

// Get retrieves a value at the specified indices.
func (t *Tensor) Get(indices []int) float64 {
	return t.Data[t.FlatIndex(indices)]
}

// Set sets a value at the specified indices.
func (t *Tensor) Set(indices []int, value float64) {
	t.Data[t.FlatIndex(indices)] = value
}

// Clone creates a deep copy of the tensor.
func (t *Tensor) Clone() *Tensor {
	out := NewTensor(t.Shape)
	copy(out.Data, t.Data)
	return out
}

// ShapeEquals checks if two tensors have the same shape.
func (t *Tensor) ShapeEquals(other *Tensor) bool {
	if len(t.Shape) != len(other.Shape) {
		return false
	}
	for i := range t.Shape {
		if t.Shape[i] != other.Shape[i] {
			return false
		}
	}
	return true
}

// Equals checks if two tensors have the same shape and approximately
// equal values.
func (t *Tensor) Equals(other *Tensor, tolerance float64) bool {
	if !t.ShapeEquals(other) {
		return false
	}
	for i := range t.Data {
		if math.Abs(t.Data[i]-other.Data[i]) > tolerance {
			return false
		}
	}
	return true
}

// Matmul performs matrix multiplication on the last two dimensions.
// For tensors of shape (..., m, n) and (..., n, p) with identical batch
// dimensions, returns (..., m, p). If one operand is 2D and the other is
// batched, the 2D operand is broadcast across the batch.
//
// Each per-matrix kernel is a gonum mat.Dense multiplication over views
// into the flat data, so a BLAS backend installed via blas64.Use
// accelerates every case.
func Matmul(a, b *Tensor) (*Tensor, error) {
	if len(a.Shape) < 2 || len(b.Shape) < 2 {
		return nil, fmt.Errorf("%w: matmul requires at least 2D tensors, got %dD and %dD",
			ErrShapeMismatch, len(a.Shape), len(b.Shape))
	}

	n := a.Shape[len(a.Shape)-1]
	if b.Shape[len(b.Shape)-2] != n {
		return nil, fmt.Errorf("%w: incompatible shapes for matmul: %v and %v",
			ErrShapeMismatch, a.Shape, b.Shape)
	}

	// Broadcast cases: one operand is a plain matrix.
	if len(a.Shape) > 2 && len(b.Shape) == 2 {
		return matmulBroadcastRight(a, b), nil
	}
	if len(a.Shape) == 2 && len(b.Shape) > 2 {
		return matmulBroadcastLeft(a, b), nil
	}

	// Batched case: batch dimensions must agree exactly.
	if len(a.Shape) != len(b.Shape) {
		return nil, fmt.Errorf("%w: incompatible ranks for batched matmul: %v and %v",
			ErrShapeMismatch, a.Shape, b.Shape)
	}
	for i := 0; i < len(a.Shape)-2; i++ {
		if a.Shape[i] != b.Shape[i] {
			return nil, fmt.Errorf("%w: batch dimensions differ at axis %d: %v and %v",
				ErrShapeMismatch, i, a.Shape, b.Shape)
		}
	}
	return matmulBatched(a, b), nil
}

// matmulBroadcastRight handles (..., m, n) @ (n, p) -> (..., m, p).
func matmulBroadcastRight(a, b *Tensor) *Tensor {
	m := a.Shape[len(a.Shape)-2]
	n := a.Shape[len(a.Shape)-1]
	p := b.Shape[1]

	batch := 1
	for _, dim := range a.Shape[:len(a.Shape)-2] {
		batch *= dim
	}

	resultShape := append(copyShape(a.Shape[:len(a.Shape)-2]), m, p)
	result := NewTensor(resultShape)

	B := mat.NewDense(n, p, b.Data)
	for bi := 0; bi < batch; bi++ {
		A := mat.NewDense(m, n, a.Data[bi*m*n:(bi+1)*m*n])
		O := mat.NewDense(m, p, result.Data[bi*m*p:(bi+1)*m*p])
		O.Mul(A, B)
	}
	return result
}

// matmulBroadcastLeft handles (m, n) @ (..., n, p) -> (..., m, p).
func matmulBroadcastLeft(a, b *Tensor) *Tensor {
	m := a.Shape[0]
	n := a.Shape[1]
	p := b.Shape[len(b.Shape)-1]

	batch := 1
	for _, dim := range b.Shape[:len(b.Shape)-2] {
		batch *= dim
	}

	resultShape := append(copyShape(b.Shape[:len(b.Shape)-2]), m, p)
	result := NewTensor(resultShape)

	A := mat.NewDense(m, n, a.Data)
	for bi := 0; bi < batch; bi++ {
		B := mat.NewDense(n, p, b.Data[bi*n*p:(bi+1)*n*p])
		O := mat.NewDense(m, p, result.Data[bi*m*p:(bi+1)*m*p])
		O.Mul(A, B)
	}
	return result
}

// matmulBatched handles (..., m, n) @ (..., n, p) with equal batch dims.
// Batch elements (and attention heads, which are folded into the batch)
// are independent, so they are multiplied concurrently; each goroutine
// writes to a disjoint region of the result.
func matmulBatched(a, b *Tensor) *Tensor {
	m := a.Shape[len(a.Shape)-2]
	n := a.Shape[len(a.Shape)-1]
	p := b.Shape[len(b.Shape)-1]

	batch := 1
	for _, dim := range a.Shape[:len(a.Shape)-2] {
		batch *= dim
	}

	resultShape := append(copyShape(a.Shape[:len(a.Shape)-2]), m, p)
	result := NewTensor(resultShape)

	mulOne := func(bi int) {
		A := mat.NewDense(m, n, a.Data[bi*m*n:(bi+1)*m*n])
		B := mat.NewDense(n, p, b.Data[bi*n*p:(bi+1)*n*p])
		O := mat.NewDense(m, p, result.Data[bi*m*p:(bi+1)*m*p])
		O.Mul(A, B)
	}

	if batch == 1 {
		mulOne(0)
		return result
	}

	var wg sync.WaitGroup
	wg.Add(batch)
	for bi := 0; bi < batch; bi++ {
		go func(i int) {
			defer wg.Done()
			mulOne(i)
		}(bi)
	}
	wg.Wait()
	return result
}

// Scale multiplies all elements by a scalar.
func Scale(t *Tensor, scalar float64) *Tensor {
	result := NewTensor(t.Shape)
	for i := range t.Data {
		result.Data[i] = t.Data[i] * scalar
	}
	return result
}

// Scale multiplies all elements by a scalar (tensor method version).
func (t *Tensor) Scale(s float64) *Tensor {
	return Scale(t, s)
}

// Add performs element-wise addition with broadcasting.
func Add(a, b *Tensor) (*Tensor, error) {
	return elementWiseOp(a, b, func(x, y float64) float64 { return x + y })
}

// Mul performs element-wise multiplication with broadcasting.
func Mul(a, b *Tensor) (*Tensor, error) {
	return elementWiseOp(a, b, func(x, y float64) float64 { return x * y })
}

// elementWiseOp performs an element-wise operation with broadcasting.
func elementWiseOp(a, b *Tensor, op func(float64, float64) float64) (*Tensor, error) {
	outShape, err := broadcastShapes(a.Shape, b.Shape)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot broadcast shapes %v and %v", ErrShapeMismatch, a.Shape, b.Shape)
	}

	result := NewTensor(outShape)

	indices := make([]int, len(outShape))
	var iterate func(dim int)
	iterate = func(dim int) {
		if dim == len(outShape) {
			aVal := a.Data[broadcastIndex(indices, outShape, a.Shape)]
			bVal := b.Data[broadcastIndex(indices, outShape, b.Shape)]
			result.Data[result.FlatIndex(indices)] = op(aVal, bVal)
			return
		}
		for i := 0; i < outShape[dim]; i++ {
			indices[dim] = i
			iterate(dim + 1)
		}
	}
	iterate(0)

	return result, nil
}

// MaskedFill returns a copy of t where every position whose mask entry is
// zero has been replaced by fill. The mask must be broadcastable to t's
// shape: missing leading dimensions and size-1 dimensions broadcast, but
// the mask may never be larger than t along any axis.
func MaskedFill(t, mask *Tensor, fill float64) (*Tensor, error) {
	if len(mask.Shape) > len(t.Shape) {
		return nil, fmt.Errorf("%w: mask shape %v is not broadcastable to %v",
			ErrShapeMismatch, mask.Shape, t.Shape)
	}
	for i := 0; i < len(mask.Shape); i++ {
		md := mask.Shape[len(mask.Shape)-1-i]
		td := t.Shape[len(t.Shape)-1-i]
		if md != td && md != 1 {
			return nil, fmt.Errorf("%w: mask shape %v is not broadcastable to %v",
				ErrShapeMismatch, mask.Shape, t.Shape)
		}
	}

	result := t.Clone()
	indices := make([]int, len(t.Shape))
	var iterate func(dim int)
	iterate = func(dim int) {
		if dim == len(t.Shape) {
			if mask.Data[broadcastIndex(indices, t.Shape, mask.Shape)] == 0 {
				result.Data[result.FlatIndex(indices)] = fill
			}
			return
		}
		for i := 0; i < t.Shape[dim]; i++ {
			indices[dim] = i
			iterate(dim + 1)
		}
	}
	iterate(0)

	return result, nil
}

// broadcastShapes computes the broadcasted shape of two shapes.
func broadcastShapes(a, b []int) ([]int, error) {
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}

	result := make([]int, maxLen)
	for i := 0; i < maxLen; i++ {
		dimA := 1
		if i < len(a) {
			dimA = a[len(a)-1-i]
		}
		dimB := 1
		if i < len(b) {
			dimB = b[len(b)-1-i]
		}
		if dimA != dimB && dimA != 1 && dimB != 1 {
			return nil, fmt.Errorf("incompatible dimensions %d and %d", dimA, dimB)
		}
		if dimA > dimB {
			result[maxLen-1-i] = dimA
		} else {
			result[maxLen-1-i] = dimB
		}
	}
	return result, nil
}

// broadcastIndex maps output indices to the flat index of a (possibly
// lower-rank or size-1-dimension) input tensor under broadcasting rules.
func broadcastIndex(outIndices []int, outShape, inShape []int) int {
	if len(inShape) == 0 {
		return 0
	}

	diff := len(outShape) - len(inShape)
	strides := computeStrides(inShape)

	idx := 0
	for i := 0; i < len(inShape); i++ {
		pos := outIndices[i+diff]
		if inShape[i] == 1 {
			pos = 0
		}
		idx += pos * strides[i]
	}
	return idx
}

// computeStrides returns row-major strides for a shape.
func computeStrides(shape []int) []int {
	strides := make([]int, len(shape))
	stride := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= shape[i]
	}
	return strides
}

// copyShape creates a copy of a shape slice.
func copyShape(shape []int) []int {
	result := make([]int, len(shape))
	copy(result, shape)
	return result
}
