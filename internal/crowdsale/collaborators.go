package crowdsale

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// EligibilityOracle 投资者准入检查(KYC)
type EligibilityOracle interface {
	Eligible(ctx context.Context, investor common.Address, amount decimal.Decimal, params EligibilityParams, at time.Time) (bool, error)
}

// ExchangeRateOracle 将原生资产按币种折算为记账单位
type ExchangeRateOracle interface {
	Convert(ctx context.Context, native decimal.Decimal, currency string) (decimal.Decimal, error)
}

// ApprovalRegistry 奖励单位白名单, 只有审批过的奖励单位可以创建众筹
type ApprovalRegistry interface {
	Approval(ctx context.Context, rewardUnit common.Address) (EligibilityParams, bool, error)
}

// RewardLedger 奖励单位账本
type RewardLedger interface {
	BalanceOf(ctx context.Context, unit, holder common.Address) (decimal.Decimal, error)
	Transfer(ctx context.Context, unit, from, to common.Address, amount decimal.Decimal) error
}

// Payments 原生资产通道
//
// Collect 从投资者处收款至托管, Pay 从托管付款给目标.
// 目标拒收时返回 ErrTransferFailed.
type Payments interface {
	Collect(ctx context.Context, from common.Address, amount decimal.Decimal) error
	Pay(ctx context.Context, to common.Address, amount decimal.Decimal) error
}
