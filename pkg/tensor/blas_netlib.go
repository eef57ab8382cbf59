//go:build netlib

package tensor

import (
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/netlib/blas/netlib"
)

// Building with `-tags netlib` routes every matmul kernel through the
// system BLAS instead of gonum's native Go implementation.
func init() {
	blas64.Use(netlib.Implementation{})
}
