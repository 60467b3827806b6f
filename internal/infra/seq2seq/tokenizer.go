package seq2seq

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

const (
	eosMarker = "<|endoftext|>"
	padMarker = "<|endofprompt|>"
)

// Tokenizer converts text to BPE token ids and back. The end-of-sequence
// marker terminates encoder input and generated output; the padding marker
// doubles as the decoder start token. Both are stripped on decode.
type Tokenizer struct {
	enc *tiktoken.Tiktoken
	eos int
	pad int
}

// NewTokenizer loads a tiktoken encoding by name. A non-nil loader replaces
// the default vocabulary download for the whole process.
func NewTokenizer(encoding string, loader tiktoken.BpeLoader) (*Tokenizer, error) {
	if loader != nil {
		tiktoken.SetBpeLoader(loader)
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load encoding %s: %w", encoding, err)
	}
	eos, ok := specialID(enc, eosMarker)
	if !ok {
		return nil, fmt.Errorf("encoding %s has no %s marker", encoding, eosMarker)
	}
	pad, ok := specialID(enc, padMarker)
	if !ok {
		pad = eos
	}
	return &Tokenizer{enc: enc, eos: eos, pad: pad}, nil
}

func specialID(enc *tiktoken.Tiktoken, marker string) (int, bool) {
	ids := enc.Encode(marker, []string{"all"}, nil)
	if len(ids) != 1 {
		return 0, false
	}
	return ids[0], true
}

// Encode tokenizes text. Marker strings inside text are encoded as plain text.
func (t *Tokenizer) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

// Decode turns ids back into text, dropping control markers.
func (t *Tokenizer) Decode(ids []int) string {
	kept := make([]int, 0, len(ids))
	for _, id := range ids {
		if t.IsSpecial(id) {
			continue
		}
		kept = append(kept, id)
	}
	return t.enc.Decode(kept)
}

// Piece returns the surface text of a single token.
func (t *Tokenizer) Piece(id int) string {
	if t.IsSpecial(id) {
		return ""
	}
	return t.enc.Decode([]int{id})
}

// IsSpecial reports whether id is a control marker.
func (t *Tokenizer) IsSpecial(id int) bool {
	return id == t.eos || id == t.pad
}

// EOS returns the end-of-sequence marker id.
func (t *Tokenizer) EOS() int { return t.eos }

// Start returns the decoder start marker id.
func (t *Tokenizer) Start() int { return t.pad }

// CountContent returns the number of non-marker tokens in ids.
func (t *Tokenizer) CountContent(ids []int) int {
	n := 0
	for _, id := range ids {
		if !t.IsSpecial(id) {
			n++
		}
	}
	return n
}

func endsSentence(piece string) bool {
	trimmed := strings.TrimSpace(piece)
	return strings.HasSuffix(trimmed, ".") || strings.HasSuffix(trimmed, "!") || strings.HasSuffix(trimmed, "?")
}
