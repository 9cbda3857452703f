package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/deploykit/pkg/ports"
)

// ErrNoIncrease is returned when the faucet accepted a claim but the balance did not move.
var ErrNoIncrease = errors.New("balance did not increase after the claim")

// Airdrop is the result of a faucet claim.
type Airdrop struct {
	Address string `json:"address" yaml:"address"`
	Before  int64  `json:"before" yaml:"before"`
	After   int64  `json:"after" yaml:"after"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// Claimed is the amount the claim added, in base units.
func (a Airdrop) Claimed() int64 {
	return a.After - a.Before
}

// ClaimTokens requests test tokens for address. It reads the balance before and
// after the claim and only reports success when it increased.
func ClaimTokens(ctx context.Context, chain ports.ChainClient, address string) (Airdrop, error) {
	res := Airdrop{Address: address}
	if address == "" {
		return res, errors.New("wallet address is required")
	}

	before, err := chain.Balance(ctx, address)
	if err != nil {
		return res, fmt.Errorf("read balance: %w", err)
	}
	res.Before = before

	msg, err := chain.RequestFaucet(ctx, address)
	if err != nil {
		return res, fmt.Errorf("faucet claim: %w", err)
	}
	res.Message = msg

	after, err := chain.Balance(ctx, address)
	if err != nil {
		return res, fmt.Errorf("read balance: %w", err)
	}
	res.After = after
	if after <= before {
		return res, ErrNoIncrease
	}
	return res, nil
}
