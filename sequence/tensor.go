package sequence

import (
	"gonum.org/v1/gonum/mat"
)

// Tensor is a dense windows × steps × features array stored row-major.
type Tensor struct {
	Data  []float64
	Shape [3]int
}

// NewTensor allocates a zero tensor.
func NewTensor(windows, steps, features int) *Tensor {
	return &Tensor{
		Data:  make([]float64, windows*steps*features),
		Shape: [3]int{windows, steps, features},
	}
}

// Len returns the number of windows.
func (t *Tensor) Len() int {
	return t.Shape[0]
}

// At returns the value of feature k at step j of window i.
func (t *Tensor) At(i, j, k int) float64 {
	return t.Data[t.offset(i, j, k)]
}

// Set assigns the value of feature k at step j of window i.
func (t *Tensor) Set(i, j, k int, v float64) {
	t.Data[t.offset(i, j, k)] = v
}

// Window returns the steps × features block of window i. The slice shares
// storage with the tensor.
func (t *Tensor) Window(i int) []float64 {
	size := t.Shape[1] * t.Shape[2]
	return t.Data[i*size : (i+1)*size : (i+1)*size]
}

// Matrix returns window i as a steps × features matrix sharing storage with
// the tensor, or nil when the tensor has no features.
func (t *Tensor) Matrix(i int) *mat.Dense {
	if t.Shape[1] == 0 || t.Shape[2] == 0 {
		return nil
	}
	return mat.NewDense(t.Shape[1], t.Shape[2], t.Window(i))
}

// Select returns a new tensor holding the given windows in order.
func (t *Tensor) Select(windows []int) *Tensor {
	out := NewTensor(len(windows), t.Shape[1], t.Shape[2])
	for dst, src := range windows {
		copy(out.Window(dst), t.Window(src))
	}
	return out
}

func (t *Tensor) offset(i, j, k int) int {
	return (i*t.Shape[1]+j)*t.Shape[2] + k
}
