package compliance

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/blues/crowdsale/internal/crowdsale"
)

// LegalPersonLevel KYC 等级达到该值视为法人
const LegalPersonLevel uint8 = 200

var ErrInvalidRecord = errors.New("invalid kyc record")

// Record 投资者 KYC 记录
type Record struct {
	ExpiresAt     time.Time
	Level         uint8
	Nationalities *big.Int // 国籍位图
}

// LegalPerson 是否为法人
func (r Record) LegalPerson() bool {
	return r.Level >= LegalPersonLevel
}

// KYCRegistry 投资者 KYC 登记处, 实现 crowdsale.EligibilityOracle
type KYCRegistry struct {
	mu      sync.RWMutex
	records map[common.Address]Record
}

// NewKYCRegistry 创建 KYC 登记处
func NewKYCRegistry() *KYCRegistry {
	return &KYCRegistry{records: make(map[common.Address]Record)}
}

// Set 写入或覆盖投资者的 KYC 记录
func (k *KYCRegistry) Set(investor common.Address, r Record) error {
	if investor == (common.Address{}) {
		return ErrInvalidRecord
	}
	if r.ExpiresAt.IsZero() {
		return ErrInvalidRecord
	}
	if r.Nationalities == nil {
		r.Nationalities = new(big.Int)
	} else {
		r.Nationalities = new(big.Int).Set(r.Nationalities)
	}

	k.mu.Lock()
	k.records[investor] = r
	k.mu.Unlock()
	return nil
}

// Remove 删除记录
func (k *KYCRegistry) Remove(investor common.Address) {
	k.mu.Lock()
	delete(k.records, investor)
	k.mu.Unlock()
}

// Get 查询记录
func (k *KYCRegistry) Get(investor common.Address) (Record, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	r, ok := k.records[investor]
	return r, ok
}

// Eligible 判断投资者在 at 时刻是否满足众筹的准入参数
//
// 基础等级为 0 且黑名单为空的众筹不要求 KYC 记录.
func (k *KYCRegistry) Eligible(ctx context.Context, investor common.Address, amount decimal.Decimal, params crowdsale.EligibilityParams, at time.Time) (bool, error) {
	if params.BaseKYCLevel == 0 && isEmpty(params.CountryBlacklist) {
		return true, nil
	}

	r, ok := k.Get(investor)
	if !ok {
		return false, nil
	}
	if !at.Before(r.ExpiresAt) {
		return false, nil
	}
	if r.Level < params.BaseKYCLevel {
		return false, nil
	}
	if r.LegalPerson() && params.LegalPersonSkipsCountryCheck {
		return true, nil
	}
	if isEmpty(params.CountryBlacklist) {
		return true, nil
	}
	return new(big.Int).And(r.Nationalities, params.CountryBlacklist).Sign() == 0, nil
}

func isEmpty(mask *big.Int) bool {
	return mask == nil || mask.Sign() == 0
}
