package tokenizer

import (
	"fmt"

	tk "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

// BPETokenizer wraps a pretrained subword tokenizer loaded from a
// tokenizer.json file (HuggingFace format).
type BPETokenizer struct {
	inner   *tk.Tokenizer
	vocab   map[string]int
	special SpecialIDs
}

// FromFile loads a pretrained tokenizer and resolves the reserved
// special-token ids from its vocabulary. A special token missing from
// the vocabulary falls back to the unknown id; a missing unknown token
// is an error.
func FromFile(path string) (*BPETokenizer, error) {
	inner, err := pretrained.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer from %s: %w", path, err)
	}

	vocab := inner.GetVocab(true)
	unk, ok := vocab[SpecialUnk]
	if !ok {
		return nil, fmt.Errorf("tokenizer %s has no %s token", path, SpecialUnk)
	}

	lookup := func(name string) int {
		if id, ok := vocab[name]; ok {
			return id
		}
		return unk
	}

	return &BPETokenizer{
		inner: inner,
		vocab: vocab,
		special: SpecialIDs{
			Pad:  lookup(SpecialPad),
			BOS:  lookup(SpecialBOS),
			EOS:  lookup(SpecialEOS),
			Unk:  unk,
			Mask: lookup(SpecialMask),
		},
	}, nil
}

// VocabSize returns the size of the loaded vocabulary.
func (t *BPETokenizer) VocabSize() int {
	return len(t.vocab)
}

// Encode maps text to subword token ids.
func (t *BPETokenizer) Encode(text string) ([]int, error) {
	enc, err := t.inner.EncodeSingle(text)
	if err != nil {
		return nil, fmt.Errorf("failed to encode text: %w", err)
	}
	ids := make([]int, len(enc.Ids))
	for i, v := range enc.Ids {
		ids[i] = int(v)
	}
	return ids, nil
}

// Decode maps token ids back to text, skipping special tokens.
func (t *BPETokenizer) Decode(ids []int) (string, error) {
	return t.inner.Decode(ids, true), nil
}

// Special returns the reserved marker ids.
func (t *BPETokenizer) Special() SpecialIDs {
	return t.special
}
