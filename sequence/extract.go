package sequence

import (
	"errors"
	"fmt"

	"github.com/sartorproj/goseq/frame"
)

// InsufficientDataError is returned when a table is too short to hold a
// single encoder + decoder window.
type InsufficientDataError struct {
	Rows      int
	InputLen  int
	OutputLen int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %d rows cannot hold a window of %d input and %d output steps",
		e.Rows, e.InputLen, e.OutputLen)
}

// WindowSpec describes the encoder and decoder window widths in rows.
// A stride above 1 samples every stride-th row of the window; the last
// encoder row and the first decoder row are always kept, so the two
// windows stay adjacent.
type WindowSpec struct {
	InputLen      int `json:"input_seq_len"`
	OutputLen     int `json:"output_seq_len"`
	EncoderStride int `json:"encoder_stride,omitempty"` // default 1
	DecoderStride int `json:"decoder_stride,omitempty"` // default 1
}

// Validate checks that lengths and strides are positive.
func (s WindowSpec) Validate() error {
	if s.InputLen <= 0 || s.OutputLen <= 0 {
		return fmt.Errorf("window lengths must be positive, got input=%d output=%d", s.InputLen, s.OutputLen)
	}
	if s.EncoderStride < 0 || s.DecoderStride < 0 {
		return errors.New("window strides must not be negative")
	}
	return nil
}

// Windows returns the number of windows a table of n rows yields.
func (s WindowSpec) Windows(n int) int {
	w := n - s.InputLen - s.OutputLen + 1
	if w < 0 {
		return 0
	}
	return w
}

// EncoderOffsets returns the encoder rows relative to the window start,
// in chronological order.
func (s WindowSpec) EncoderOffsets() []int {
	stride := strideOrOne(s.EncoderStride)
	var rev []int
	for k := s.InputLen - 1; k >= 0; k -= stride {
		rev = append(rev, k)
	}
	out := make([]int, len(rev))
	for i, k := range rev {
		out[len(rev)-1-i] = k
	}
	return out
}

// DecoderOffsets returns the decoder and target rows relative to the
// window start.
func (s WindowSpec) DecoderOffsets() []int {
	stride := strideOrOne(s.DecoderStride)
	var out []int
	for k := 0; k < s.OutputLen; k += stride {
		out = append(out, s.InputLen+k)
	}
	return out
}

func strideOrOne(stride int) int {
	if stride <= 0 {
		return 1
	}
	return stride
}

// Bundle holds the windows extracted from one table. Window i of every
// tensor starts at row Starts[i].
type Bundle struct {
	XEncoder *Tensor // windows × encoder steps × encoder features
	XDecoder *Tensor // windows × decoder steps × decoder features
	Y        *Tensor // windows × decoder steps × 1; nil for inference bundles
	YShifted *Tensor // Y shifted one decoder step back (teacher forcing)
	YLast    *Tensor // windows × 1 × 1, target at the last encoder row

	Starts []int
	Rows   int // rows in the source table
	Spec   WindowSpec
}

// Len returns the number of windows.
func (b *Bundle) Len() int {
	return len(b.Starts)
}

// EncoderRows returns the absolute table rows used by the encoder window i.
func (b *Bundle) EncoderRows(i int) []int {
	return absolute(b.Starts[i], b.Spec.EncoderOffsets())
}

// DecoderRows returns the absolute table rows used by the decoder and
// target windows i.
func (b *Bundle) DecoderRows(i int) []int {
	return absolute(b.Starts[i], b.Spec.DecoderOffsets())
}

// LastRow returns the last table row touched by window i.
func (b *Bundle) LastRow(i int) int {
	rows := b.DecoderRows(i)
	return rows[len(rows)-1]
}

// Select returns a bundle holding the given windows in order.
func (b *Bundle) Select(windows []int) *Bundle {
	out := &Bundle{
		XEncoder: b.XEncoder.Select(windows),
		XDecoder: b.XDecoder.Select(windows),
		YShifted: b.YShifted.Select(windows),
		YLast:    b.YLast.Select(windows),
		Starts:   make([]int, len(windows)),
		Rows:     b.Rows,
		Spec:     b.Spec,
	}
	if b.Y != nil {
		out.Y = b.Y.Select(windows)
	}
	for i, w := range windows {
		out.Starts[i] = b.Starts[w]
	}
	return out
}

func absolute(start int, offsets []int) []int {
	rows := make([]int, len(offsets))
	for i, k := range offsets {
		rows[i] = start + k
	}
	return rows
}

// Extract slides the window over f and returns encoder inputs, decoder
// inputs, and targets for supervised training.
func Extract(f *frame.Frame, encoderCols, decoderCols []string, target string, spec WindowSpec) (*Bundle, error) {
	return extract(f, encoderCols, decoderCols, target, spec, true)
}

// ExtractInference is Extract without the Y tensor, for tables whose target
// is unknown inside the decoder horizon.
func ExtractInference(f *frame.Frame, encoderCols, decoderCols []string, target string, spec WindowSpec) (*Bundle, error) {
	return extract(f, encoderCols, decoderCols, target, spec, false)
}

func extract(f *frame.Frame, encoderCols, decoderCols []string, target string, spec WindowSpec, withTarget bool) (*Bundle, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if len(encoderCols) == 0 {
		return nil, errors.New("at least one encoder feature is required")
	}

	n := f.Len()
	windows := spec.Windows(n)
	if windows <= 0 {
		return nil, &InsufficientDataError{Rows: n, InputLen: spec.InputLen, OutputLen: spec.OutputLen}
	}

	encoder, err := columns(f, encoderCols)
	if err != nil {
		return nil, fmt.Errorf("encoder features: %w", err)
	}
	decoder, err := columns(f, decoderCols)
	if err != nil {
		return nil, fmt.Errorf("decoder features: %w", err)
	}
	y, err := f.Float(target)
	if err != nil {
		return nil, fmt.Errorf("target: %w", err)
	}

	encOffsets := spec.EncoderOffsets()
	decOffsets := spec.DecoderOffsets()
	decStride := strideOrOne(spec.DecoderStride)

	b := &Bundle{
		XEncoder: NewTensor(windows, len(encOffsets), len(encoder)),
		XDecoder: NewTensor(windows, len(decOffsets), len(decoder)),
		YShifted: NewTensor(windows, len(decOffsets), 1),
		YLast:    NewTensor(windows, 1, 1),
		Starts:   make([]int, windows),
		Rows:     n,
		Spec:     spec,
	}
	if withTarget {
		b.Y = NewTensor(windows, len(decOffsets), 1)
	}

	for t := 0; t < windows; t++ {
		b.Starts[t] = t

		// Matrix views share storage with the tensors; nil views only occur
		// when there are no feature columns to loop over.
		enc, dec := b.XEncoder.Matrix(t), b.XDecoder.Matrix(t)
		for j, k := range encOffsets {
			for c, col := range encoder {
				enc.Set(j, c, col[t+k])
			}
		}

		last := t + spec.InputLen - 1
		b.YLast.Set(t, 0, 0, y[last])

		for j, k := range decOffsets {
			row := t + k
			for c, col := range decoder {
				dec.Set(j, c, col[row])
			}
			if b.Y != nil {
				b.Y.Set(t, j, 0, y[row])
			}
			if j == 0 {
				b.YShifted.Set(t, j, 0, y[last])
			} else {
				b.YShifted.Set(t, j, 0, y[row-decStride])
			}
		}
	}

	return b, nil
}

func columns(f *frame.Frame, names []string) ([][]float64, error) {
	out := make([][]float64, len(names))
	for i, name := range names {
		values, err := f.Float(name)
		if err != nil {
			return nil, err
		}
		out[i] = values
	}
	return out, nil
}
