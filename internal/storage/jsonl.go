package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"spoolamm/internal/model"
)

// JsonlStorage appends journal entries to JSONL files, one file per entry
// type. An empty path disables that stream.
type JsonlStorage struct {
	resultsPath  string
	failuresPath string
	poolsPath    string
	mu           sync.Mutex
}

func NewJsonlStorage(resultsPath, failuresPath, poolsPath string) *JsonlStorage {
	return &JsonlStorage{resultsPath: resultsPath, failuresPath: failuresPath, poolsPath: poolsPath}
}

// PutResults appends applied operations as JSON lines.
func (s *JsonlStorage) PutResults(_ context.Context, results []model.OperationResult) error {
	return appendLines(&s.mu, s.resultsPath, results)
}

// PutFailures appends rejected operations as JSON lines.
func (s *JsonlStorage) PutFailures(_ context.Context, failures []model.OperationError) error {
	return appendLines(&s.mu, s.failuresPath, failures)
}

// PutPools appends created pools as JSON lines.
func (s *JsonlStorage) PutPools(_ context.Context, pools []model.Pool) error {
	return appendLines(&s.mu, s.poolsPath, pools)
}

func appendLines[T any](mu *sync.Mutex, path string, records []T) error {
	if path == "" || len(records) == 0 {
		return nil
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	mu.Lock()
	defer mu.Unlock()

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, record := range records {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}
