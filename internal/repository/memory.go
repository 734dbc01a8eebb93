package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/blues/crowdsale/internal/crowdsale"
)

// MemoryStore 进程内存储, 用于开发和测试
type MemoryStore struct {
	mu        sync.RWMutex
	campaigns map[string]*memCampaign
	byUnit    map[common.Address]string
}

type memCampaign struct {
	lock sync.Mutex // 串行化同一众筹上的 Update

	campaign      *crowdsale.Campaign
	deposits      map[common.Address]crowdsale.ContributionRecord
	contributions []crowdsale.ContributeRecord
	refunds       []crowdsale.RefundRecord
	settlement    *crowdsale.SettlementRecord
	events        []crowdsale.Event
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		campaigns: make(map[string]*memCampaign),
		byUnit:    make(map[common.Address]string),
	}
}

func (s *MemoryStore) Insert(ctx context.Context, c *crowdsale.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byUnit[c.RewardUnit]; ok {
		return crowdsale.ErrAlreadyExists
	}
	if _, ok := s.campaigns[c.ID]; ok {
		return crowdsale.ErrAlreadyExists
	}
	s.campaigns[c.ID] = &memCampaign{
		campaign: c.Clone(),
		deposits: make(map[common.Address]crowdsale.ContributionRecord),
	}
	s.byUnit[c.RewardUnit] = c.ID
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, campaignID string, fn func(tx crowdsale.Tx) error) error {
	s.mu.RLock()
	entry, ok := s.campaigns[campaignID]
	s.mu.RUnlock()
	if !ok {
		return crowdsale.ErrUnknownCampaign
	}

	entry.lock.Lock()
	defer entry.lock.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	tx := &memTx{
		entry:    entry,
		campaign: entry.campaign.Clone(),
		deposits: make(map[common.Address]crowdsale.ContributionRecord),
	}
	s.mu.RUnlock()

	if err := fn(tx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	entry.campaign = tx.campaign
	for addr, rec := range tx.deposits {
		entry.deposits[addr] = rec
	}
	entry.contributions = append(entry.contributions, tx.contributions...)
	entry.refunds = append(entry.refunds, tx.refunds...)
	if tx.settlement != nil {
		entry.settlement = tx.settlement
	}
	entry.events = append(entry.events, tx.events...)
	return nil
}

func (s *MemoryStore) Campaign(ctx context.Context, campaignID string) (*crowdsale.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.campaigns[campaignID]
	if !ok {
		return nil, crowdsale.ErrUnknownCampaign
	}
	return entry.campaign.Clone(), nil
}

func (s *MemoryStore) Campaigns(ctx context.Context, filter crowdsale.CampaignFilter) ([]*crowdsale.Campaign, int64, error) {
	s.mu.RLock()
	var all []*crowdsale.Campaign
	for _, entry := range s.campaigns {
		c := entry.campaign
		if filter.Owner != nil && c.Owner != *filter.Owner {
			continue
		}
		if filter.State != "" && c.State != filter.State {
			continue
		}
		all = append(all, c.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return paginate(all, filter.Page), int64(len(all)), nil
}

func (s *MemoryStore) Deposit(ctx context.Context, campaignID string, investor common.Address) (crowdsale.ContributionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.campaigns[campaignID]
	if !ok {
		return crowdsale.ContributionRecord{}, crowdsale.ErrUnknownCampaign
	}
	return entry.deposit(campaignID, investor), nil
}

func (s *MemoryStore) Deposits(ctx context.Context, campaignID string) ([]crowdsale.ContributionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.campaigns[campaignID]
	if !ok {
		return nil, crowdsale.ErrUnknownCampaign
	}
	out := make([]crowdsale.ContributionRecord, 0, len(entry.deposits))
	for _, rec := range entry.deposits {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Investor.Cmp(out[j].Investor) < 0
	})
	return out, nil
}

func (s *MemoryStore) Contributions(ctx context.Context, campaignID string, page crowdsale.Page) ([]crowdsale.ContributeRecord, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.campaigns[campaignID]
	if !ok {
		return nil, 0, crowdsale.ErrUnknownCampaign
	}
	return paginate(newestFirst(entry.contributions), page), int64(len(entry.contributions)), nil
}

func (s *MemoryStore) Refunds(ctx context.Context, campaignID string, page crowdsale.Page) ([]crowdsale.RefundRecord, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.campaigns[campaignID]
	if !ok {
		return nil, 0, crowdsale.ErrUnknownCampaign
	}
	return paginate(newestFirst(entry.refunds), page), int64(len(entry.refunds)), nil
}

func (s *MemoryStore) Settlement(ctx context.Context, campaignID string) (*crowdsale.SettlementRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.campaigns[campaignID]
	if !ok {
		return nil, crowdsale.ErrUnknownCampaign
	}
	if entry.settlement == nil {
		return nil, nil
	}
	out := *entry.settlement
	return &out, nil
}

func (s *MemoryStore) Events(ctx context.Context, campaignID string, page crowdsale.Page) ([]crowdsale.Event, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.campaigns[campaignID]
	if !ok {
		return nil, 0, crowdsale.ErrUnknownCampaign
	}
	return paginate(newestFirst(entry.events), page), int64(len(entry.events)), nil
}

func (m *memCampaign) deposit(campaignID string, investor common.Address) crowdsale.ContributionRecord {
	if rec, ok := m.deposits[investor]; ok {
		return rec
	}
	return crowdsale.ContributionRecord{
		CampaignID:      campaignID,
		Investor:        investor,
		Deposited:       decimal.Zero,
		NativeDeposited: decimal.Zero,
	}
}

// memTx 暂存事务内的修改, 提交前对读者不可见
type memTx struct {
	entry *memCampaign

	campaign      *crowdsale.Campaign
	deposits      map[common.Address]crowdsale.ContributionRecord
	contributions []crowdsale.ContributeRecord
	refunds       []crowdsale.RefundRecord
	settlement    *crowdsale.SettlementRecord
	events        []crowdsale.Event
}

func (t *memTx) Campaign() *crowdsale.Campaign {
	return t.campaign
}

func (t *memTx) Deposit(investor common.Address) (crowdsale.ContributionRecord, error) {
	if rec, ok := t.deposits[investor]; ok {
		return rec, nil
	}
	// entry 的 deposits 只在持有 entry.lock 时被修改
	return t.entry.deposit(t.campaign.ID, investor), nil
}

func (t *memTx) PutDeposit(r crowdsale.ContributionRecord) error {
	t.deposits[r.Investor] = r
	return nil
}

func (t *memTx) AddContribution(r crowdsale.ContributeRecord) error {
	t.contributions = append(t.contributions, r)
	return nil
}

func (t *memTx) AddRefund(r crowdsale.RefundRecord) error {
	t.refunds = append(t.refunds, r)
	return nil
}

func (t *memTx) AddSettlement(r crowdsale.SettlementRecord) error {
	if t.entry.settlement != nil || t.settlement != nil {
		return crowdsale.ErrAlreadyExists
	}
	t.settlement = &r
	return nil
}

func (t *memTx) AddEvent(e crowdsale.Event) error {
	t.events = append(t.events, e)
	return nil
}

func newestFirst[T any](in []T) []T {
	out := make([]T, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}

func paginate[T any](in []T, page crowdsale.Page) []T {
	if page.Size <= 0 {
		return in
	}
	offset := page.Offset()
	if offset >= len(in) {
		return []T{}
	}
	end := offset + page.Size
	if end > len(in) {
		end = len(in)
	}
	return in[offset:end]
}
