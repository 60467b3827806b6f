package artifacts

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const fetchTimeout = 2 * time.Minute

// BpeLoader resolves tiktoken vocabulary files from the artifact store and
// keeps a copy on local disk. It satisfies tiktoken.BpeLoader.
type BpeLoader struct {
	fetcher  Fetcher
	prefix   string
	cacheDir string
	logger   *slog.Logger
}

// NewBpeLoader builds a loader reading objects under prefix.
func NewBpeLoader(fetcher Fetcher, prefix, cacheDir string, logger *slog.Logger) *BpeLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &BpeLoader{
		fetcher:  fetcher,
		prefix:   strings.Trim(prefix, "/"),
		cacheDir: cacheDir,
		logger:   logger.With("component", "artifacts.bpe"),
	}
}

// LoadTiktokenBpe returns the merge ranks of the vocabulary named by the
// final path element of file.
func (l *BpeLoader) LoadTiktokenBpe(file string) (map[string]int, error) {
	name := path.Base(file)
	if name == "." || name == "/" {
		return nil, fmt.Errorf("invalid vocabulary location %q", file)
	}
	data, err := l.cached(name)
	if err != nil {
		return nil, err
	}
	if data == nil {
		if data, err = l.fetch(name); err != nil {
			return nil, err
		}
	}
	return ParseRanks(data)
}

func (l *BpeLoader) cached(name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(l.cacheDir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cached vocabulary: %w", err)
	}
	l.logger.Debug("vocabulary cache hit", "name", name)
	return data, nil
}

func (l *BpeLoader) fetch(name string) ([]byte, error) {
	key := name
	if l.prefix != "" {
		key = l.prefix + "/" + name
	}
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	rc, err := l.fetcher.Fetch(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("fetch vocabulary %s: %w", key, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary %s: %w", key, err)
	}
	if err := l.store(name, data); err != nil {
		// the fetched copy is still usable for this process
		l.logger.Warn("vocabulary cache write failed", "name", name, "error", err)
	}
	return data, nil
}

func (l *BpeLoader) store(name string, data []byte) error {
	if err := os.MkdirAll(l.cacheDir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(l.cacheDir, name+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(l.cacheDir, name))
}

// ParseRanks decodes the tiktoken vocabulary format: one
// "<base64 token> <rank>" pair per line.
func ParseRanks(data []byte) (map[string]int, error) {
	ranks := make(map[string]int)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 2 {
			return nil, fmt.Errorf("vocabulary line %d: want 2 fields, got %d", line, len(fields))
		}
		token, err := base64.StdEncoding.DecodeString(fields[0])
		if err != nil {
			return nil, fmt.Errorf("vocabulary line %d: %w", line, err)
		}
		rank, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("vocabulary line %d: %w", line, err)
		}
		ranks[string(token)] = rank
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan vocabulary: %w", err)
	}
	if len(ranks) == 0 {
		return nil, errors.New("vocabulary is empty")
	}
	return ranks, nil
}
