package artifacts

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryFetcher struct {
	objects map[string][]byte
	calls   int
}

func (m *memoryFetcher) Fetch(_ context.Context, key string) (io.ReadCloser, error) {
	m.calls++
	data, ok := m.objects[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func vocabulary(tokens ...string) []byte {
	var buf bytes.Buffer
	for i, tok := range tokens {
		fmt.Fprintf(&buf, "%s %d\n", base64.StdEncoding.EncodeToString([]byte(tok)), i)
	}
	return buf.Bytes()
}

func TestBpeLoaderFetchesThenCaches(t *testing.T) {
	dir := t.TempDir()
	fetcher := &memoryFetcher{objects: map[string][]byte{
		"tokenizers/cl100k_base.tiktoken": vocabulary("a", "b", " the"),
	}}
	loader := NewBpeLoader(fetcher, "/tokenizers/", dir, nil)

	ranks, err := loader.LoadTiktokenBpe("https://openaipublic.blob.core.windows.net/encodings/cl100k_base.tiktoken")
	require.NoError(t, err)
	require.Equal(t, map[string]int{"a": 0, "b": 1, " the": 2}, ranks)
	require.FileExists(t, filepath.Join(dir, "cl100k_base.tiktoken"))

	again, err := loader.LoadTiktokenBpe("cl100k_base.tiktoken")
	require.NoError(t, err)
	require.Equal(t, ranks, again)
	require.Equal(t, 1, fetcher.calls)
}

func TestBpeLoaderPrefersLocalCache(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "r50k_base.tiktoken"), vocabulary("x"), 0o644))
	fetcher := &memoryFetcher{}
	loader := NewBpeLoader(fetcher, "", dir, nil)

	ranks, err := loader.LoadTiktokenBpe("r50k_base.tiktoken")
	require.NoError(t, err)
	require.Equal(t, map[string]int{"x": 0}, ranks)
	require.Zero(t, fetcher.calls)
}

func TestBpeLoaderMissingObject(t *testing.T) {
	loader := NewBpeLoader(&memoryFetcher{}, "tokenizers", t.TempDir(), nil)
	_, err := loader.LoadTiktokenBpe("p50k_base.tiktoken")
	require.Error(t, err)
	require.Contains(t, err.Error(), "fetch vocabulary tokenizers/p50k_base.tiktoken")
}

func TestParseRanks(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{name: "empty", data: "\n\n", wantErr: "vocabulary is empty"},
		{name: "missing rank", data: "YQ==\n", wantErr: "vocabulary line 1: want 2 fields, got 1"},
		{name: "bad rank", data: "YQ== one\n", wantErr: `vocabulary line 1: strconv.Atoi: parsing "one": invalid syntax`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseRanks([]byte(tt.data))
			require.EqualError(t, err, tt.wantErr)
		})
	}

	ranks, err := ParseRanks([]byte("YQ== 0\nYg== 1\n"))
	require.NoError(t, err)
	require.Equal(t, map[string]int{"a": 0, "b": 1}, ranks)
}

func TestSanitizeEndpoint(t *testing.T) {
	require.Equal(t, "acc.r2.cloudflarestorage.com", sanitizeEndpoint("https://acc.r2.cloudflarestorage.com/bucket"))
	require.Equal(t, "localhost:9000", sanitizeEndpoint("http://localhost:9000"))
	require.Equal(t, "", sanitizeEndpoint("  "))
}
