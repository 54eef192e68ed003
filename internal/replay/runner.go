package replay

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"spoolamm/internal/amm"
	"spoolamm/internal/dex"
	"spoolamm/internal/engine"
	"spoolamm/internal/ledger"
	"spoolamm/internal/model"
	"spoolamm/internal/storage"
)

// RunConfig holds runtime settings for a replay.
type RunConfig struct {
	ProgramID solana.PublicKey
	BatchSize int
}

// Summary counts what a replay did.
type Summary struct {
	Total    int    `json:"total"`
	Applied  int    `json:"applied"`
	Rejected int    `json:"rejected"`
	Skipped  int    `json:"skipped"`
	LastSeq  uint64 `json:"last_seq"`
}

// Runner streams scenario records through the engine against an in-memory
// ledger and journals every outcome.
type Runner struct {
	cfg        RunConfig
	processor  *engine.Processor
	journal    storage.Journal
	checkpoint CheckpointStore
	logger     *zap.Logger
	now        func() time.Time

	ledger   *ledger.Ledger
	registry *dex.Registry

	results  []model.OperationResult
	failures []model.OperationError
	pools    []model.Pool
}

// NewRunner builds a Runner with its dependencies. checkpoint may be nil.
func NewRunner(cfg RunConfig, processor *engine.Processor, journal storage.Journal, checkpoint CheckpointStore, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ProgramID.IsZero() {
		cfg.ProgramID = dex.DefaultProgramID
	}
	return &Runner{
		cfg:        cfg,
		processor:  processor,
		journal:    journal,
		checkpoint: checkpoint,
		logger:     logger,
		now:        time.Now,
		ledger:     ledger.New(),
		registry:   dex.NewRegistry(),
	}
}

// Ledger exposes the replay ledger.
func (r *Runner) Ledger() *ledger.Ledger {
	return r.ledger
}

// Registry exposes the pools created so far.
func (r *Runner) Registry() *dex.Registry {
	return r.registry
}

// Run replays every record of in whose seq is past the checkpoint.
func (r *Runner) Run(ctx context.Context, in io.Reader) (Summary, error) {
	if r.processor == nil {
		return Summary{}, fmt.Errorf("processor is nil")
	}
	if r.journal == nil {
		return Summary{}, fmt.Errorf("journal is nil")
	}
	if r.cfg.BatchSize <= 0 {
		return Summary{}, fmt.Errorf("batch size must be greater than zero")
	}

	var summary Summary
	if r.checkpoint != nil {
		cp, ok, err := r.checkpoint.Load(ctx)
		if err != nil {
			return Summary{}, err
		}
		if ok {
			if err := r.ledger.Restore(cp.Ledger); err != nil {
				return Summary{}, fmt.Errorf("restore ledger: %w", err)
			}
			for _, pool := range cp.Pools {
				r.registry.Set(pool)
			}
			summary.LastSeq = cp.LastSeq
			r.logger.Info("resume from checkpoint", zap.Uint64("last_seq", cp.LastSeq), zap.Int("pools", len(cp.Pools)))
		}
	}

	scanner := bufio.NewScanner(in)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	pending := 0
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		summary.Total++

		var rec model.OperationRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			summary.Rejected++
			r.reject(rec, fmt.Errorf("%w: %v", ErrInvalidRecord, err))
		} else if rec.Seq == 0 {
			summary.Rejected++
			r.reject(rec, fmt.Errorf("%w: seq must be positive", ErrInvalidRecord))
		} else if rec.Seq <= summary.LastSeq {
			summary.Skipped++
			continue
		} else {
			out, err := r.applyRecord(ctx, rec)
			if err != nil {
				summary.Rejected++
				r.reject(rec, err)
			} else {
				summary.Applied++
				r.accept(rec, out)
			}
			summary.LastSeq = rec.Seq
		}

		pending++
		if pending >= r.cfg.BatchSize {
			if err := r.flush(ctx, summary.LastSeq); err != nil {
				return summary, err
			}
			pending = 0
		}
	}
	if err := scanner.Err(); err != nil {
		return summary, fmt.Errorf("scan input: %w", err)
	}

	if err := r.flush(ctx, summary.LastSeq); err != nil {
		return summary, err
	}

	r.logger.Info("replay complete",
		zap.Int("total", summary.Total),
		zap.Int("applied", summary.Applied),
		zap.Int("rejected", summary.Rejected),
		zap.Int("skipped", summary.Skipped),
		zap.Uint64("last_seq", summary.LastSeq),
	)
	return summary, nil
}

func (r *Runner) accept(rec model.OperationRecord, out applied) {
	now := r.now().UTC()
	result := model.OperationResult{
		Seq:       rec.Seq,
		Kind:      rec.Kind,
		Owner:     rec.Owner,
		Deposit:   out.result.Deposit,
		Swap:      out.result.Swap,
		Withdraw:  out.result.Withdraw,
		AppliedAt: now.Format(time.RFC3339Nano),
	}
	if out.pool != nil {
		result.PoolAddress = out.pool.Address.String()
		result.Snapshot = &model.PoolSnapshot{
			Seq:         rec.Seq,
			PoolAddress: result.PoolAddress,
			ReserveA:    out.result.ReserveA,
			ReserveB:    out.result.ReserveB,
			ShareSupply: out.result.ShareSupply,
			K:           amm.Product(out.result.ReserveA, out.result.ReserveB),
			TakenAt:     now,
		}
	}
	if out.created {
		r.pools = append(r.pools, *out.pool)
	}
	r.results = append(r.results, result)

	r.logger.Debug("record applied", zap.Uint64("seq", rec.Seq), zap.String("kind", rec.Kind))
}

func (r *Runner) reject(rec model.OperationRecord, err error) {
	kind := ErrorKind(err)
	r.failures = append(r.failures, model.OperationError{
		Seq:       rec.Seq,
		Kind:      rec.Kind,
		Owner:     rec.Owner,
		ErrorKind: kind,
		Error:     err.Error(),
	})
	r.logger.Warn("record rejected",
		zap.Uint64("seq", rec.Seq),
		zap.String("kind", rec.Kind),
		zap.String("error_kind", kind),
		zap.Error(err),
	)
}

// flush writes buffered journal entries and then the checkpoint, so a
// checkpoint never runs ahead of the journal.
func (r *Runner) flush(ctx context.Context, lastSeq uint64) error {
	if err := r.journal.PutPools(ctx, r.pools); err != nil {
		return fmt.Errorf("store pools: %w", err)
	}
	if err := r.journal.PutResults(ctx, r.results); err != nil {
		return fmt.Errorf("store results: %w", err)
	}
	if err := r.journal.PutFailures(ctx, r.failures); err != nil {
		return fmt.Errorf("store failures: %w", err)
	}
	written := len(r.results) + len(r.failures)
	r.pools, r.results, r.failures = nil, nil, nil

	if r.checkpoint != nil {
		cp := Checkpoint{
			LastSeq:   lastSeq,
			Ledger:    r.ledger.Snapshot(),
			Pools:     r.registry.All(),
			UpdatedAt: r.now().UTC().Format(time.RFC3339Nano),
		}
		if err := r.checkpoint.Save(ctx, cp); err != nil {
			return err
		}
	}

	r.logger.Info("batch complete", zap.Int("records", written), zap.Uint64("last_seq", lastSeq))
	return nil
}
