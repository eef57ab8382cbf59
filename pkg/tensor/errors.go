package tensor

import "errors"

// Sentinel errors for the two failure kinds the forward pass can detect.
// Operations wrap these with fmt.Errorf("%w: ...") so callers can classify
// failures with errors.Is while still seeing the offending shapes/indices.
var (
	// ErrShapeMismatch reports tensors whose dimensions violate an
	// operation's invariants (incompatible matmul shapes, a sublayer
	// output that differs from its input, a non-broadcastable mask).
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrIndexOutOfRange reports a token id outside [0, vocab) or a
	// sequence longer than the positional-encoding horizon.
	ErrIndexOutOfRange = errors.New("index out of range")
)
