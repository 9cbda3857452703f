package runtime_test

import (
	"context"
	"testing"

	"github.com/aretw0/deploykit/internal/runtime"
	"github.com/aretw0/deploykit/pkg/adapters/memory"
	"github.com/aretw0/deploykit/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wallet = "2LUmicHyH4RXrMjG4beDwuDsiWJESyLkgkwPdGTR8kahRzq5XS"

func TestClaimTokens(t *testing.T) {
	chain := memory.NewChain(memory.WithBalance(wallet, 5), memory.WithFaucet(100, nil))

	res, err := runtime.ClaimTokens(context.Background(), chain, wallet)
	require.NoError(t, err)
	assert.Equal(t, int64(5), res.Before)
	assert.Equal(t, int64(105), res.After)
	assert.Equal(t, int64(100), res.Claimed())
	assert.Equal(t, 2, chain.Calls().Balance)
	assert.Equal(t, 1, chain.Calls().Faucet)
}

func TestClaimTokens_NoIncrease(t *testing.T) {
	chain := memory.NewChain(memory.WithFaucet(0, nil))

	_, err := runtime.ClaimTokens(context.Background(), chain, wallet)
	assert.ErrorIs(t, err, runtime.ErrNoIncrease)
}

func TestClaimTokens_Rejected(t *testing.T) {
	rejected := &domain.ChainError{Category: domain.CategoryRejected, Message: "Already claimed today"}
	chain := memory.NewChain(memory.WithFaucet(0, rejected))

	_, err := runtime.ClaimTokens(context.Background(), chain, wallet)
	var ce *domain.ChainError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "Already claimed today", ce.Message)
	assert.Equal(t, 1, chain.Calls().Balance)
}

func TestClaimTokens_RequiresAddress(t *testing.T) {
	chain := memory.NewChain()

	_, err := runtime.ClaimTokens(context.Background(), chain, "")
	require.Error(t, err)
	assert.Zero(t, chain.Calls().Faucet)
}
