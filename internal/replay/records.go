package replay

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"

	"spoolamm/internal/amm"
	"spoolamm/internal/dex"
	"spoolamm/internal/engine"
	"spoolamm/internal/ledger"
	"spoolamm/internal/model"
)

var (
	ErrInvalidRecord = errors.New("invalid record")
	ErrUnknownPool   = errors.New("unknown pool")
)

// ErrorKind classifies a rejected record for the failure journal.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidRecord):
		return "invalid_record"
	case errors.Is(err, ErrUnknownPool):
		return "unknown_pool"
	case errors.Is(err, ledger.ErrAccountNotFound):
		return "unknown_account"
	case errors.Is(err, ledger.ErrMintNotFound):
		return "unknown_mint"
	case errors.Is(err, ledger.ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ledger.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ledger.ErrMintMismatch):
		return "mint_mismatch"
	case errors.Is(err, ledger.ErrShareMint):
		return "share_mint"
	default:
		return amm.Kind(err)
	}
}

// applied is the outcome of one record before it is journaled.
type applied struct {
	pool    *model.Pool
	result  engine.Result
	created bool
}

func (r *Runner) applyRecord(ctx context.Context, rec model.OperationRecord) (applied, error) {
	switch strings.TrimSpace(rec.Kind) {
	case model.KindCreatePool:
		return r.createPool(rec)
	case model.KindFund:
		return applied{}, r.fund(rec)
	case model.KindDeposit:
		return r.deposit(ctx, rec)
	case model.KindSwap:
		return r.swap(ctx, rec)
	case model.KindWithdraw:
		return r.withdraw(ctx, rec)
	default:
		return applied{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidRecord, rec.Kind)
	}
}

func (r *Runner) createPool(rec model.OperationRecord) (applied, error) {
	mintA, mintB, err := parseMints(rec)
	if err != nil {
		return applied{}, err
	}
	authority, err := optionalKey("owner", rec.Owner)
	if err != nil {
		return applied{}, err
	}

	// One pool per pair: the reversed order derives another address.
	if existing, ok := r.registry.ByMints(mintA, mintB); ok {
		return applied{}, fmt.Errorf("pool %s for %s/%s: %w", existing.Address, mintA, mintB, ledger.ErrAlreadyExists)
	}
	pool, err := dex.DerivePool(r.cfg.ProgramID, mintA, mintB)
	if err != nil {
		return applied{}, err
	}
	if _, ok := r.registry.Get(pool.Address); ok {
		return applied{}, fmt.Errorf("pool %s: %w", pool.Address, ledger.ErrAlreadyExists)
	}

	var newMints []model.TokenMint
	for _, mint := range []solana.PublicKey{mintA, mintB} {
		if _, ok := r.ledger.TokenMint(mint); ok {
			continue
		}
		newMints = append(newMints, model.TokenMint{Address: mint, Authority: authority, Decimals: rec.Decimals})
	}
	if err := r.ledger.CreatePool(pool, newMints...); err != nil {
		return applied{}, err
	}
	r.registry.Set(pool)

	return applied{pool: &pool, created: true}, nil
}

func (r *Runner) fund(rec model.OperationRecord) error {
	owner, err := requiredKey("owner", rec.Owner)
	if err != nil {
		return err
	}
	mint, err := requiredKey("mint", rec.Mint)
	if err != nil {
		return err
	}
	m, ok := r.ledger.TokenMint(mint)
	if !ok {
		return fmt.Errorf("%w: %s", ledger.ErrMintNotFound, mint)
	}
	if m.IsShareMint() {
		return fmt.Errorf("%w: %s", ledger.ErrShareMint, mint)
	}

	account, err := r.userAccount(owner, mint)
	if err != nil {
		return err
	}
	return r.ledger.Fund(account, rec.Amount)
}

func (r *Runner) deposit(ctx context.Context, rec model.OperationRecord) (applied, error) {
	pool, flipped, err := r.poolFor(rec)
	if err != nil {
		return applied{}, err
	}
	owner, err := requiredKey("owner", rec.Owner)
	if err != nil {
		return applied{}, err
	}
	accounts, err := r.userAccounts(owner, pool.MintA, pool.MintB, pool.ShareMint)
	if err != nil {
		return applied{}, err
	}

	amountA, amountB := rec.AmountA, rec.AmountB
	if flipped {
		amountA, amountB = amountB, amountA
	}
	res, err := r.processor.Apply(ctx, r.ledger, &pool, engine.NewDeposit(engine.Deposit{
		Owner:        owner,
		AccountA:     accounts[0],
		AccountB:     accounts[1],
		ShareAccount: accounts[2],
		AmountA:      amountA,
		AmountB:      amountB,
	}))
	if err != nil {
		return applied{}, err
	}
	return applied{pool: &pool, result: res}, nil
}

func (r *Runner) swap(ctx context.Context, rec model.OperationRecord) (applied, error) {
	pool, flipped, err := r.poolFor(rec)
	if err != nil {
		return applied{}, err
	}
	owner, err := requiredKey("owner", rec.Owner)
	if err != nil {
		return applied{}, err
	}

	// Direction names the record's mint order; a_to_b sells mint_a.
	direction := amm.AToB
	if strings.TrimSpace(rec.Direction) != "" {
		if direction, err = amm.ParseDirection(rec.Direction); err != nil {
			return applied{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
		}
	}
	if flipped {
		direction = opposite(direction)
	}

	inputVault, outputVault, err := amm.Vaults(&pool, direction)
	if err != nil {
		return applied{}, err
	}
	if rec.InputVault != "" || rec.OutputVault != "" {
		if inputVault, err = requiredKey("input_vault", rec.InputVault); err != nil {
			return applied{}, err
		}
		if outputVault, err = requiredKey("output_vault", rec.OutputVault); err != nil {
			return applied{}, err
		}
		// A legal pairing decides which user accounts trade; an illegal one
		// is left for the engine to reject.
		if d, err := amm.ResolveDirection(&pool, inputVault, outputVault); err == nil {
			direction = d
		}
	}

	mintIn, mintOut := amm.Mints(&pool, direction)
	accounts, err := r.userAccounts(owner, mintIn, mintOut)
	if err != nil {
		return applied{}, err
	}

	res, err := r.processor.Apply(ctx, r.ledger, &pool, engine.NewSwap(engine.Swap{
		Owner:         owner,
		InputAccount:  accounts[0],
		OutputAccount: accounts[1],
		InputVault:    inputVault,
		OutputVault:   outputVault,
		AmountIn:      rec.AmountIn,
	}))
	if err != nil {
		return applied{}, err
	}
	return applied{pool: &pool, result: res}, nil
}

func (r *Runner) withdraw(ctx context.Context, rec model.OperationRecord) (applied, error) {
	pool, _, err := r.poolFor(rec)
	if err != nil {
		return applied{}, err
	}
	owner, err := requiredKey("owner", rec.Owner)
	if err != nil {
		return applied{}, err
	}
	accounts, err := r.userAccounts(owner, pool.MintA, pool.MintB, pool.ShareMint)
	if err != nil {
		return applied{}, err
	}

	res, err := r.processor.Apply(ctx, r.ledger, &pool, engine.NewWithdraw(engine.Withdraw{
		Owner:        owner,
		AccountA:     accounts[0],
		AccountB:     accounts[1],
		ShareAccount: accounts[2],
		BurnAmount:   rec.BurnAmount,
	}))
	if err != nil {
		return applied{}, err
	}
	return applied{pool: &pool, result: res}, nil
}

// poolFor finds the pool named by the record's mints. flipped reports that
// the record lists them in the opposite order to the pool.
func (r *Runner) poolFor(rec model.OperationRecord) (model.Pool, bool, error) {
	mintA, mintB, err := parseMints(rec)
	if err != nil {
		return model.Pool{}, false, err
	}
	pool, ok := r.registry.ByMints(mintA, mintB)
	if !ok {
		return model.Pool{}, false, fmt.Errorf("%w: %s/%s", ErrUnknownPool, mintA, mintB)
	}
	return pool, !pool.MintA.Equals(mintA), nil
}

// userAccounts returns the associated accounts of owner for each mint,
// opening the missing ones.
func (r *Runner) userAccounts(owner solana.PublicKey, mints ...solana.PublicKey) ([]solana.PublicKey, error) {
	out := make([]solana.PublicKey, 0, len(mints))
	for _, mint := range mints {
		account, err := r.userAccount(owner, mint)
		if err != nil {
			return nil, err
		}
		out = append(out, account)
	}
	return out, nil
}

func (r *Runner) userAccount(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	account, err := dex.UserAccount(owner, mint)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if _, ok := r.ledger.Account(account); ok {
		return account, nil
	}
	if err := r.ledger.CreateAccount(account, mint, owner); err != nil {
		return solana.PublicKey{}, err
	}
	return account, nil
}

func opposite(d amm.Direction) amm.Direction {
	if d == amm.AToB {
		return amm.BToA
	}
	return amm.AToB
}

func parseMints(rec model.OperationRecord) (solana.PublicKey, solana.PublicKey, error) {
	mintA, err := requiredKey("mint_a", rec.MintA)
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, err
	}
	mintB, err := requiredKey("mint_b", rec.MintB)
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, err
	}
	return mintA, mintB, nil
}

func requiredKey(field, input string) (solana.PublicKey, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return solana.PublicKey{}, fmt.Errorf("%w: %s is required", ErrInvalidRecord, field)
	}
	key, err := solana.PublicKeyFromBase58(input)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: %s: %v", ErrInvalidRecord, field, err)
	}
	return key, nil
}

func optionalKey(field, input string) (solana.PublicKey, error) {
	if strings.TrimSpace(input) == "" {
		return solana.PublicKey{}, nil
	}
	return requiredKey(field, input)
}
