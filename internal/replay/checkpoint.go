package replay

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"spoolamm/internal/ledger"
	"spoolamm/internal/model"
)

// Checkpoint is everything needed to resume a replay after LastSeq.
type Checkpoint struct {
	LastSeq   uint64          `json:"last_seq"`
	Ledger    ledger.Snapshot `json:"ledger"`
	Pools     []model.Pool    `json:"pools"`
	UpdatedAt string          `json:"updated_at"`
}

// CheckpointStore persists replay progress.
type CheckpointStore interface {
	Load(ctx context.Context) (Checkpoint, bool, error)
	Save(ctx context.Context, cp Checkpoint) error
}

// FileCheckpointStore stores the checkpoint in a local JSON file.
type FileCheckpointStore struct {
	Path string
}

func (s *FileCheckpointStore) Load(_ context.Context) (Checkpoint, bool, error) {
	if s == nil || s.Path == "" {
		return Checkpoint{}, false, nil
	}

	stat, err := os.Stat(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return Checkpoint{}, false, nil
		}
		return Checkpoint{}, false, fmt.Errorf("stat checkpoint: %w", err)
	}
	if stat.IsDir() {
		return Checkpoint{}, false, fmt.Errorf("checkpoint path is a directory")
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return Checkpoint{}, false, fmt.Errorf("read checkpoint: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, false, fmt.Errorf("parse checkpoint: %w", err)
	}
	return cp, true, nil
}

func (s *FileCheckpointStore) Save(_ context.Context, cp Checkpoint) error {
	if s == nil || s.Path == "" {
		return nil
	}

	dir := filepath.Dir(s.Path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create checkpoint dir: %w", err)
		}
	}

	data, err := marshalCheckpoint(cp)
	if err != nil {
		return err
	}

	tmpPath := s.Path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write checkpoint tmp: %w", err)
	}
	if err := os.Rename(tmpPath, s.Path); err != nil {
		return fmt.Errorf("rename checkpoint: %w", err)
	}
	return nil
}

// StateBackend stores named opaque payloads, e.g. the replay_state table.
type StateBackend interface {
	LoadState(ctx context.Context, name string) ([]byte, bool, error)
	SaveState(ctx context.Context, name string, payload []byte) error
}

// DBCheckpointStore stores the checkpoint under Name in a StateBackend.
type DBCheckpointStore struct {
	Store StateBackend
	Name  string
}

func (s *DBCheckpointStore) Load(ctx context.Context) (Checkpoint, bool, error) {
	if s == nil || s.Store == nil {
		return Checkpoint{}, false, nil
	}
	payload, ok, err := s.Store.LoadState(ctx, s.Name)
	if err != nil || !ok {
		return Checkpoint{}, false, err
	}

	var cp Checkpoint
	if err := json.Unmarshal(payload, &cp); err != nil {
		return Checkpoint{}, false, fmt.Errorf("parse checkpoint %s: %w", s.Name, err)
	}
	return cp, true, nil
}

func (s *DBCheckpointStore) Save(ctx context.Context, cp Checkpoint) error {
	if s == nil || s.Store == nil {
		return nil
	}
	data, err := marshalCheckpoint(cp)
	if err != nil {
		return err
	}
	return s.Store.SaveState(ctx, s.Name, data)
}

func marshalCheckpoint(cp Checkpoint) ([]byte, error) {
	if cp.UpdatedAt == "" {
		cp.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	}
	data, err := json.Marshal(cp)
	if err != nil {
		return nil, fmt.Errorf("marshal checkpoint: %w", err)
	}
	return data, nil
}
