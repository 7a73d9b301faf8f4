package client

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/impact-lab/backend/internal/entity"
	"github.com/impact-lab/backend/pkg/errorx"
)

// PayoutCaller transfers the tokens of a reward to the wallet of its owner
// and returns the reference of the external transaction.
type PayoutCaller interface {
	Payout(ctx context.Context, reward *entity.Reward, wallet string) (string, error)
}

// offchainPayout settles rewards inside the platform ledger. It derives a
// stable transaction reference instead of broadcasting a transaction, so the
// same reward attempt always yields the same reference.
type offchainPayout struct{}

func NewOffchainPayout() *offchainPayout {
	return &offchainPayout{}
}

func (p *offchainPayout) Payout(ctx context.Context, reward *entity.Reward, wallet string) (string, error) {
	if !common.IsHexAddress(wallet) {
		return "", errorx.New(errorx.PayoutFailed, "Invalid wallet address %q", wallet)
	}

	if reward.TokenAmount <= 0 {
		return "", errorx.New(errorx.PayoutFailed, "Invalid token amount %d", reward.TokenAmount)
	}

	payload := fmt.Sprintf("%s:%s:%d:%s:%d",
		reward.ID,
		common.HexToAddress(wallet).Hex(),
		reward.TokenAmount,
		reward.TokenType,
		reward.RetryCount,
	)

	return crypto.Keccak256Hash([]byte(payload)).Hex(), nil
}
