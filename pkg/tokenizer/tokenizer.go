// Package tokenizer supplies the token collaborator the model depends
// on: a deterministic mapping between text and bounded integer token-id
// sequences, plus the reserved special ids used to build attention masks.
//
// Two implementations are provided: ByteTokenizer, a self-contained
// byte-level vocabulary useful for tests and demos, and BPETokenizer,
// backed by a pretrained tokenizer.json file.
package tokenizer

import "fmt"

// Special token names shared by both implementations.
const (
	SpecialPad  = "<pad>"
	SpecialBOS  = "<bos>"
	SpecialEOS  = "<eos>"
	SpecialUnk  = "<unk>"
	SpecialMask = "<mask>"
)

// Tokenizer is the surface the model requires from a token collaborator.
type Tokenizer interface {
	// VocabSize returns the fixed vocabulary size; every id produced by
	// Encode lies in [0, VocabSize).
	VocabSize() int

	// Encode maps text to a sequence of token ids.
	Encode(text string) ([]int, error)

	// Decode maps token ids back to text, skipping special tokens.
	Decode(ids []int) (string, error)

	// Special returns the reserved ids for padding, begin/end markers,
	// the unknown token and the mask token.
	Special() SpecialIDs
}

// SpecialIDs holds the reserved marker ids of a vocabulary.
type SpecialIDs struct {
	Pad  int
	BOS  int
	EOS  int
	Unk  int
	Mask int
}

// ByteTokenizer is a minimal byte-level vocabulary: ids 0..255 are the
// raw bytes, followed by the five special tokens. It needs no model file
// and round-trips arbitrary text exactly.
type ByteTokenizer struct {
	special SpecialIDs
}

// numBytes is the size of the byte-level base vocabulary.
const numBytes = 256

// NewByteTokenizer creates a byte-level tokenizer.
func NewByteTokenizer() *ByteTokenizer {
	return &ByteTokenizer{
		special: SpecialIDs{
			Pad:  numBytes,
			BOS:  numBytes + 1,
			EOS:  numBytes + 2,
			Unk:  numBytes + 3,
			Mask: numBytes + 4,
		},
	}
}

// VocabSize returns 256 byte tokens plus the special tokens.
func (t *ByteTokenizer) VocabSize() int {
	return numBytes + 5
}

// Encode maps each byte of text to its id.
func (t *ByteTokenizer) Encode(text string) ([]int, error) {
	ids := make([]int, 0, len(text))
	for _, b := range []byte(text) {
		ids = append(ids, int(b))
	}
	return ids, nil
}

// Decode concatenates byte tokens back into text, skipping special ids.
func (t *ByteTokenizer) Decode(ids []int) (string, error) {
	out := make([]byte, 0, len(ids))
	for _, id := range ids {
		if id < 0 || id >= t.VocabSize() {
			return "", fmt.Errorf("token id %d out of range [0, %d)", id, t.VocabSize())
		}
		if id >= numBytes {
			continue
		}
		out = append(out, byte(id))
	}
	return string(out), nil
}

// Special returns the reserved marker ids.
func (t *ByteTokenizer) Special() SpecialIDs {
	return t.special
}
