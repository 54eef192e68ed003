package chain

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"spoolamm/internal/dex"
	"spoolamm/internal/model"
)

// ErrAccountNotFound is returned when the cluster has no account at an address.
var ErrAccountNotFound = errors.New("account not found")

// Options tune the RPC client.
type Options struct {
	Commitment   rpc.CommitmentType
	MaxRetries   int
	RetryBackoff time.Duration
}

// Client reads token balances and pool records from a Solana cluster. It
// implements the engine balance reader and never writes.
type Client struct {
	rpc    *rpc.Client
	opts   Options
	logger *zap.Logger

	mu       sync.RWMutex
	decimals map[solana.PublicKey]uint8
}

// NewClient creates a client for the RPC endpoint.
func NewClient(endpoint string, opts Options, logger *zap.Logger) (*Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("rpc endpoint is required")
	}
	if opts.Commitment == "" {
		opts.Commitment = rpc.CommitmentConfirmed
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		rpc:      rpc.New(endpoint),
		opts:     opts,
		logger:   logger,
		decimals: make(map[solana.PublicKey]uint8),
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpc != nil {
		_ = c.rpc.Close()
	}
}

// Balance returns the raw amount held in a token account.
func (c *Client) Balance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	var out *rpc.GetTokenAccountBalanceResult
	err := c.retry(ctx, "getTokenAccountBalance", account, func(ctx context.Context) error {
		var err error
		out, err = c.rpc.GetTokenAccountBalance(ctx, account, c.opts.Commitment)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("token account balance %s: %w", account, err)
	}
	if out == nil || out.Value == nil {
		return 0, fmt.Errorf("%w: %s", ErrAccountNotFound, account)
	}
	return parseAmount(out.Value.Amount)
}

// Supply returns the raw outstanding supply of a mint and caches its decimals.
func (c *Client) Supply(ctx context.Context, mint solana.PublicKey) (uint64, error) {
	var out *rpc.GetTokenSupplyResult
	err := c.retry(ctx, "getTokenSupply", mint, func(ctx context.Context) error {
		var err error
		out, err = c.rpc.GetTokenSupply(ctx, mint, c.opts.Commitment)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("token supply %s: %w", mint, err)
	}
	if out == nil || out.Value == nil {
		return 0, fmt.Errorf("%w: %s", ErrAccountNotFound, mint)
	}

	c.mu.Lock()
	c.decimals[mint] = out.Value.Decimals
	c.mu.Unlock()

	return parseAmount(out.Value.Amount)
}

// Decimals returns the precision of mint, using an in-memory cache.
func (c *Client) Decimals(ctx context.Context, mint solana.PublicKey) (uint8, error) {
	c.mu.RLock()
	d, ok := c.decimals[mint]
	c.mu.RUnlock()
	if ok {
		return d, nil
	}

	if _, err := c.Supply(ctx, mint); err != nil {
		return 0, err
	}

	c.mu.RLock()
	d = c.decimals[mint]
	c.mu.RUnlock()
	return d, nil
}

// Pool loads and decodes the pool record stored at address.
func (c *Client) Pool(ctx context.Context, programID, address solana.PublicKey) (model.Pool, error) {
	var out *rpc.GetAccountInfoResult
	err := c.retry(ctx, "getAccountInfo", address, func(ctx context.Context) error {
		var err error
		out, err = c.rpc.GetAccountInfoWithOpts(ctx, address, &rpc.GetAccountInfoOpts{
			Encoding:   solana.EncodingBase64,
			Commitment: c.opts.Commitment,
		})
		if errors.Is(err, rpc.ErrNotFound) {
			return permanent{err}
		}
		return err
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return model.Pool{}, fmt.Errorf("%w: pool %s", ErrAccountNotFound, address)
		}
		return model.Pool{}, fmt.Errorf("pool account %s: %w", address, err)
	}
	if out == nil || out.Value == nil {
		return model.Pool{}, fmt.Errorf("%w: pool %s", ErrAccountNotFound, address)
	}
	if !out.Value.Owner.Equals(programID) {
		return model.Pool{}, fmt.Errorf("pool %s is owned by %s, not %s", address, out.Value.Owner, programID)
	}

	acc, err := dex.DecodePoolAccount(out.Value.Data.GetBinary())
	if err != nil {
		return model.Pool{}, fmt.Errorf("pool %s: %w", address, err)
	}
	return acc.Pool(programID, address)
}

func (c *Client) retry(ctx context.Context, method string, target solana.PublicKey, fn func(context.Context) error) error {
	return withRetry(ctx, c.opts.MaxRetries, c.opts.RetryBackoff, func(ctx context.Context) error {
		err := fn(ctx)
		if err != nil {
			c.logger.Warn("rpc call failed", zap.String("method", method), zap.String("target", target.String()), zap.Error(err))
		}
		return err
	})
}

func parseAmount(raw string) (uint64, error) {
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse token amount %q: %w", raw, err)
	}
	return v, nil
}
