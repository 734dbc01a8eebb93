package crowdsale

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Registry 众筹注册表, 负责参数校验与建档
type Registry struct {
	store    Store
	approval ApprovalRegistry
	nowFn    func() time.Time
}

// NewRegistry 创建注册表
func NewRegistry(store Store, approval ApprovalRegistry) *Registry {
	return &Registry{store: store, approval: approval, nowFn: time.Now}
}

// Create 校验参数并登记新众筹, 不移动任何资金
func (r *Registry) Create(ctx context.Context, p CreateParams) (*Campaign, error) {
	if err := validateCreateParams(p); err != nil {
		return nil, err
	}

	params, approved, err := r.approval.Approval(ctx, p.RewardUnit)
	if err != nil {
		return nil, fmt.Errorf("query approval: %w", err)
	}
	if !approved {
		return nil, fmt.Errorf("%w: reward unit %s is not approved", ErrInvalidParameter, p.RewardUnit.Hex())
	}

	now := r.nowFn()
	c := &Campaign{
		ID:                uuid.NewString(),
		RewardUnit:        p.RewardUnit,
		Owner:             p.Owner,
		RefundDestination: p.RefundDestination,
		Cap:               p.Cap,
		Goal:              p.Goal,
		ExchangeRate:      p.ExchangeRate,
		MinInvestment:     p.MinInvestment,
		ClosingTime:       p.ClosingTime,
		AllowEarlyClosure: p.AllowEarlyClosure,
		CommissionRate:    p.CommissionRate,
		Currency:          p.Currency,
		Eligibility:       params.clone(),
		State:             StateActive,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := r.store.Insert(ctx, c); err != nil {
		return nil, err
	}
	return c.Clone(), nil
}

// Get 按 ID 查询众筹
func (r *Registry) Get(ctx context.Context, id string) (*Campaign, error) {
	return r.store.Campaign(ctx, id)
}

// List 分页查询众筹
func (r *Registry) List(ctx context.Context, filter CampaignFilter) ([]*Campaign, int64, error) {
	return r.store.Campaigns(ctx, filter)
}

func validateCreateParams(p CreateParams) error {
	invalid := func(msg string) error {
		return fmt.Errorf("%w: %s", ErrInvalidParameter, msg)
	}
	if p.Owner == (common.Address{}) {
		return invalid("owner is required")
	}
	if p.RefundDestination == (common.Address{}) {
		return invalid("refund destination is required")
	}
	if p.RewardUnit == (common.Address{}) {
		return invalid("reward unit is required")
	}
	amounts := []struct {
		name  string
		value decimal.Decimal
	}{
		{"cap", p.Cap},
		{"goal", p.Goal},
		{"exchange rate", p.ExchangeRate},
		{"min investment", p.MinInvestment},
	}
	for _, a := range amounts {
		if err := checkAmount(a.name, a.value); err != nil {
			return err
		}
		if a.value.IsZero() {
			return invalid(a.name + " must be positive")
		}
	}
	if p.Goal.GreaterThan(p.Cap) {
		return invalid("goal exceeds cap")
	}
	if p.CommissionRate > 100 {
		return invalid("commission rate exceeds 100")
	}
	if p.ClosingTime.IsZero() {
		return invalid("closing time is required")
	}
	if _, err := checkedMul(p.Cap, p.ExchangeRate); err != nil {
		return fmt.Errorf("%w: cap * exchange rate: %w", ErrInvalidParameter, err)
	}
	return nil
}
