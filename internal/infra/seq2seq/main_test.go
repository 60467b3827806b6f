package seq2seq

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"testing"
)

var testTok *Tokenizer

// memoryLoader serves a small byte-level vocabulary so tests never download
// the real BPE ranks.
type memoryLoader struct{}

func (memoryLoader) LoadTiktokenBpe(string) (map[string]int, error) {
	return testRanks(), nil
}

func testRanks() map[string]int {
	ranks := make(map[string]int, 300)
	for b := 0; b < 256; b++ {
		ranks[string([]byte{byte(b)})] = b
	}
	words := []string{
		"summarize", "The", " The", " the", " quick", " brown", " fox", " jumps", " over",
		" lazy", " dog", "This", " This", " sentence", " is", " repeated", " for", " length",
		"Hello", " world", " ran", " sat",
	}
	for i, w := range words {
		ranks[w] = 256 + i
	}
	return ranks
}

func TestMain(m *testing.M) {
	tok, err := NewTokenizer("cl100k_base", memoryLoader{})
	if err != nil {
		fmt.Fprintln(os.Stderr, "load test tokenizer:", err)
		os.Exit(1)
	}
	testTok = tok
	os.Exit(m.Run())
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func wordID(t *testing.T, word string) int {
	t.Helper()
	ids := testTok.Encode(word)
	if len(ids) != 1 {
		t.Fatalf("word %q encodes to %v, want a single token", word, ids)
	}
	return ids[0]
}
