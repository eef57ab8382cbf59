package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"strings"

	"seq2seq/pkg/model"
	"seq2seq/pkg/tokenizer"
)

func main() {
	input := flag.String("input", "hello world", "Source text to transduce")
	maxTokens := flag.Int("max-tokens", 16, "Maximum number of tokens to emit")
	layers := flag.Int("layers", 2, "Encoder/decoder stack depth")
	dModel := flag.Int("d-model", 128, "Model width")
	heads := flag.Int("heads", 4, "Attention heads")

	flag.Parse()

	fmt.Println(strings.Repeat("=", 50))
	fmt.Println("      Encoder-Decoder Transformer Demo")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println()

	tok := tokenizer.NewByteTokenizer()
	special := tok.Special()

	cfg := model.DefaultConfig(tok.VocabSize(), tok.VocabSize())
	cfg.NumLayers = *layers
	cfg.DModel = *dModel
	cfg.NumHeads = *heads
	cfg.FFHidden = 4 * cfg.DModel

	fmt.Printf("Model Configuration:\n")
	fmt.Printf("  Vocab Size: %d\n", cfg.SrcVocabSize)
	fmt.Printf("  d_model: %d\n", cfg.DModel)
	fmt.Printf("  Heads: %d\n", cfg.NumHeads)
	fmt.Printf("  Layers: %d\n", cfg.NumLayers)
	fmt.Println()

	m, err := model.NewEncoderDecoder(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build model: %v\n", err)
		os.Exit(1)
	}
	m.SetTraining(false)

	srcIDs, err := tok.Encode(*input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode input: %v\n", err)
		os.Exit(1)
	}
	src := [][]int{append(append([]int{special.BOS}, srcIDs...), special.EOS)}
	srcMask := model.PaddingMask(src, special.Pad)

	// Encode once; reuse the memory across every decode step.
	memory, err := m.Encode(src, srcMask)
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Encoded %d source tokens into memory of shape %v\n", len(src[0]), memory.Shape)

	tgt := [][]int{{special.BOS}}
	for step := 0; step < *maxTokens; step++ {
		tgtMask := model.TargetMask(tgt, special.Pad)
		out, err := m.Decode(memory, srcMask, tgt, tgtMask)
		if err != nil {
			fmt.Fprintf(os.Stderr, "decode failed at step %d: %v\n", step, err)
			os.Exit(1)
		}
		logProbs, err := m.Generator.Forward(out)
		if err != nil {
			fmt.Fprintf(os.Stderr, "projection failed at step %d: %v\n", step, err)
			os.Exit(1)
		}

		// Pick the most likely next token from the last position.
		last := len(tgt[0]) - 1
		next, best := 0, math.Inf(-1)
		for v := 0; v < cfg.TgtVocabSize; v++ {
			lp := logProbs.Get([]int{0, last, v})
			if lp > best {
				next, best = v, lp
			}
		}
		if next == special.EOS {
			break
		}
		tgt[0] = append(tgt[0], next)
	}

	text, err := tok.Decode(tgt[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to decode output: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Emitted %d tokens\n", len(tgt[0])-1)
	fmt.Printf("Output (untrained weights, not meaningful text): %q\n", text)
}
