package seq2seq

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func lexicalSource(text string) []int {
	return append(testTok.Encode(text), testTok.EOS())
}

func TestLexicalScorerStripsInstruction(t *testing.T) {
	scorer := NewLexicalScorer(testTok)
	body := scorer.body(lexicalSource("summarize: The fox ran. The dog sat."))
	require.Equal(t, " The fox ran. The dog sat.", testTok.Decode(body))
}

func TestLexicalScorerKeepsTextWithoutInstruction(t *testing.T) {
	scorer := NewLexicalScorer(testTok)
	body := scorer.body(lexicalSource("The fox ran."))
	require.Equal(t, "The fox ran.", testTok.Decode(body))
}

func TestLexicalScorerStartsAtSentenceStart(t *testing.T) {
	scorer := NewLexicalScorer(testTok)
	source := lexicalSource("summarize: The fox ran. The dog sat.")

	out, err := scorer.Next(context.Background(), source, [][]int{{testTok.Start()}}, 8)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, wordID(t, " The"), out[0][0].Token)
}

func TestLexicalScorerFavoursEndAfterSentence(t *testing.T) {
	scorer := NewLexicalScorer(testTok)
	source := lexicalSource("summarize: The fox ran. The dog sat.")
	prefix := append([]int{testTok.Start()}, testTok.Encode(" The fox ran.")...)

	out, err := scorer.Next(context.Background(), source, [][]int{prefix}, 8)
	require.NoError(t, err)
	var eos *Candidate
	for i := range out[0] {
		if out[0][i].Token == testTok.EOS() {
			eos = &out[0][i]
		}
	}
	require.NotNil(t, eos)
	require.InDelta(t, math.Log(eosAfterSentence), eos.LogProb, 1e-9)
}

func TestLexicalScorerDiscountsRepeatedBigrams(t *testing.T) {
	scorer := NewLexicalScorer(testTok)
	source := lexicalSource("summarize: The fox ran. The dog sat.")
	prefix := append([]int{testTok.Start()}, testTok.Encode(" The fox ran. The")...)

	out, err := scorer.Next(context.Background(), source, [][]int{prefix}, 8)
	require.NoError(t, err)
	require.Equal(t, wordID(t, " dog"), out[0][0].Token)
}

func TestLexicalScorerTopKKeepsEndMarker(t *testing.T) {
	scorer := NewLexicalScorer(testTok)
	source := lexicalSource("summarize: The fox ran. The dog sat.")
	prefix := append([]int{testTok.Start()}, testTok.Encode(" The")...)

	out, err := scorer.Next(context.Background(), source, [][]int{prefix}, 2)
	require.NoError(t, err)
	require.Len(t, out[0], 2)
	require.True(t, containsToken(out[0], testTok.EOS()))
}

func TestLexicalScorerScoresEveryPrefix(t *testing.T) {
	scorer := NewLexicalScorer(testTok)
	source := lexicalSource("summarize: The fox ran.")
	prefixes := [][]int{{testTok.Start()}, {testTok.Start(), wordID(t, " The")}, {testTok.Start(), wordID(t, " fox")}}

	out, err := scorer.Next(context.Background(), source, prefixes, 4)
	require.NoError(t, err)
	require.Len(t, out, 3)
	for _, cands := range out {
		require.NotEmpty(t, cands)
		for _, c := range cands {
			require.LessOrEqual(t, c.LogProb, 0.0)
		}
	}
}
