package engine

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Kind tags the variant carried by an Operation.
type Kind uint8

const (
	KindDeposit Kind = iota + 1
	KindSwap
	KindWithdraw
)

func (k Kind) String() string {
	switch k {
	case KindDeposit:
		return "deposit"
	case KindSwap:
		return "swap"
	case KindWithdraw:
		return "withdraw"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Operation is one of Deposit, Swap or Withdraw. Exactly the payload matching
// Kind is set; use the constructors.
type Operation struct {
	Kind     Kind
	Deposit  *Deposit
	Swap     *Swap
	Withdraw *Withdraw
}

// Deposit provides AmountA and AmountB from the owner's accounts and credits
// the issued shares to ShareAccount.
type Deposit struct {
	Owner        solana.PublicKey
	AccountA     solana.PublicKey
	AccountB     solana.PublicKey
	ShareAccount solana.PublicKey
	AmountA      uint64
	AmountB      uint64
}

// Swap sells AmountIn (before fee) from InputAccount into InputVault and
// receives the priced output from OutputVault into OutputAccount.
type Swap struct {
	Owner         solana.PublicKey
	InputAccount  solana.PublicKey
	OutputAccount solana.PublicKey
	InputVault    solana.PublicKey
	OutputVault   solana.PublicKey
	AmountIn      uint64
}

// Withdraw burns BurnAmount shares from ShareAccount and releases the
// proportional reserves to AccountA and AccountB.
type Withdraw struct {
	Owner        solana.PublicKey
	AccountA     solana.PublicKey
	AccountB     solana.PublicKey
	ShareAccount solana.PublicKey
	BurnAmount   uint64
}

func NewDeposit(d Deposit) Operation {
	return Operation{Kind: KindDeposit, Deposit: &d}
}

func NewSwap(s Swap) Operation {
	return Operation{Kind: KindSwap, Swap: &s}
}

func NewWithdraw(w Withdraw) Operation {
	return Operation{Kind: KindWithdraw, Withdraw: &w}
}

// Validate checks that the payload matches the tag.
func (o Operation) Validate() error {
	set := 0
	for _, ok := range []bool{o.Deposit != nil, o.Swap != nil, o.Withdraw != nil} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("operation %s must carry exactly one payload, got %d", o.Kind, set)
	}

	switch o.Kind {
	case KindDeposit:
		if o.Deposit == nil {
			return fmt.Errorf("deposit payload is missing")
		}
	case KindSwap:
		if o.Swap == nil {
			return fmt.Errorf("swap payload is missing")
		}
	case KindWithdraw:
		if o.Withdraw == nil {
			return fmt.Errorf("withdraw payload is missing")
		}
	default:
		return fmt.Errorf("unknown operation kind %d", uint8(o.Kind))
	}
	return nil
}

// Owner returns the signer of the operation.
func (o Operation) Owner() solana.PublicKey {
	switch {
	case o.Deposit != nil:
		return o.Deposit.Owner
	case o.Swap != nil:
		return o.Swap.Owner
	case o.Withdraw != nil:
		return o.Withdraw.Owner
	default:
		return solana.PublicKey{}
	}
}
