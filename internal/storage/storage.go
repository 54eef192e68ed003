package storage

import (
	"context"

	"spoolamm/internal/model"
)

// Journal records the outcome of replayed operations.
type Journal interface {
	PutResults(ctx context.Context, results []model.OperationResult) error
	PutFailures(ctx context.Context, failures []model.OperationError) error
	PutPools(ctx context.Context, pools []model.Pool) error
}

// Fanout writes every batch to each journal in order and stops at the first
// error.
type Fanout []Journal

func (f Fanout) PutResults(ctx context.Context, results []model.OperationResult) error {
	for _, j := range f {
		if err := j.PutResults(ctx, results); err != nil {
			return err
		}
	}
	return nil
}

func (f Fanout) PutFailures(ctx context.Context, failures []model.OperationError) error {
	for _, j := range f {
		if err := j.PutFailures(ctx, failures); err != nil {
			return err
		}
	}
	return nil
}

func (f Fanout) PutPools(ctx context.Context, pools []model.Pool) error {
	for _, j := range f {
		if err := j.PutPools(ctx, pools); err != nil {
			return err
		}
	}
	return nil
}
