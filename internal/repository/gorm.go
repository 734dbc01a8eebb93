package repository

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/blues/crowdsale/internal/crowdsale"
	"github.com/blues/crowdsale/internal/model"
)

// GormStore 基于 gorm 的存储, 通过 SELECT ... FOR UPDATE 串行化同一众筹上的事务
type GormStore struct {
	db *gorm.DB
}

// NewGormStore 创建 gorm 存储
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Insert(ctx context.Context, c *crowdsale.Campaign) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.CampaignModel{}).
			Where("reward_unit = ? OR id = ?", c.RewardUnit.Hex(), c.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return crowdsale.ErrAlreadyExists
		}
		if err := tx.Create(toCampaignModel(c)).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return crowdsale.ErrAlreadyExists
			}
			return err
		}
		return nil
	})
}

func (s *GormStore) Update(ctx context.Context, campaignID string, fn func(tx crowdsale.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		var m model.CampaignModel
		if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", campaignID).
			First(&m).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return crowdsale.ErrUnknownCampaign
			}
			return err
		}

		tx := &gormTx{db: db, campaign: fromCampaignModel(&m)}
		if err := fn(tx); err != nil {
			return err
		}
		return db.Save(toCampaignModel(tx.campaign)).Error
	})
}

func (s *GormStore) Campaign(ctx context.Context, campaignID string) (*crowdsale.Campaign, error) {
	var m model.CampaignModel
	if err := s.db.WithContext(ctx).Where("id = ?", campaignID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, crowdsale.ErrUnknownCampaign
		}
		return nil, err
	}
	return fromCampaignModel(&m), nil
}

func (s *GormStore) Campaigns(ctx context.Context, filter crowdsale.CampaignFilter) ([]*crowdsale.Campaign, int64, error) {
	query := s.db.WithContext(ctx).Model(&model.CampaignModel{})
	if filter.Owner != nil {
		query = query.Where("owner_address = ?", filter.Owner.Hex())
	}
	if filter.State != "" {
		query = query.Where("status = ?", string(filter.State))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []model.CampaignModel
	if err := withPage(query.Order("created_at DESC, id"), filter.Page).Find(&models).Error; err != nil {
		return nil, 0, err
	}
	out := make([]*crowdsale.Campaign, 0, len(models))
	for i := range models {
		out = append(out, fromCampaignModel(&models[i]))
	}
	return out, total, nil
}

func (s *GormStore) Deposit(ctx context.Context, campaignID string, investor common.Address) (crowdsale.ContributionRecord, error) {
	if err := s.exists(ctx, campaignID); err != nil {
		return crowdsale.ContributionRecord{}, err
	}
	return findDeposit(s.db.WithContext(ctx), campaignID, investor)
}

func (s *GormStore) Deposits(ctx context.Context, campaignID string) ([]crowdsale.ContributionRecord, error) {
	if err := s.exists(ctx, campaignID); err != nil {
		return nil, err
	}
	var models []model.DepositModel
	if err := s.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Order("address").
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]crowdsale.ContributionRecord, 0, len(models))
	for i := range models {
		out = append(out, fromDepositModel(&models[i]))
	}
	return out, nil
}

func (s *GormStore) Contributions(ctx context.Context, campaignID string, page crowdsale.Page) ([]crowdsale.ContributeRecord, int64, error) {
	if err := s.exists(ctx, campaignID); err != nil {
		return nil, 0, err
	}
	query := s.db.WithContext(ctx).Model(&model.ContributeRecordModel{}).Where("campaign_id = ?", campaignID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var models []model.ContributeRecordModel
	if err := withPage(query.Order("id DESC"), page).Find(&models).Error; err != nil {
		return nil, 0, err
	}
	out := make([]crowdsale.ContributeRecord, 0, len(models))
	for i := range models {
		out = append(out, fromContributeRecordModel(&models[i]))
	}
	return out, total, nil
}

func (s *GormStore) Refunds(ctx context.Context, campaignID string, page crowdsale.Page) ([]crowdsale.RefundRecord, int64, error) {
	if err := s.exists(ctx, campaignID); err != nil {
		return nil, 0, err
	}
	query := s.db.WithContext(ctx).Model(&model.RefundRecordModel{}).Where("campaign_id = ?", campaignID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var models []model.RefundRecordModel
	if err := withPage(query.Order("id DESC"), page).Find(&models).Error; err != nil {
		return nil, 0, err
	}
	out := make([]crowdsale.RefundRecord, 0, len(models))
	for i := range models {
		out = append(out, fromRefundRecordModel(&models[i]))
	}
	return out, total, nil
}

func (s *GormStore) Settlement(ctx context.Context, campaignID string) (*crowdsale.SettlementRecord, error) {
	if err := s.exists(ctx, campaignID); err != nil {
		return nil, err
	}
	var m model.SettlementRecordModel
	if err := s.db.WithContext(ctx).Where("campaign_id = ?", campaignID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return fromSettlementRecordModel(&m), nil
}

func (s *GormStore) Events(ctx context.Context, campaignID string, page crowdsale.Page) ([]crowdsale.Event, int64, error) {
	if err := s.exists(ctx, campaignID); err != nil {
		return nil, 0, err
	}
	query := s.db.WithContext(ctx).Model(&model.EventModel{}).Where("campaign_id = ?", campaignID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var models []model.EventModel
	if err := withPage(query.Order("id DESC"), page).Find(&models).Error; err != nil {
		return nil, 0, err
	}
	out := make([]crowdsale.Event, 0, len(models))
	for i := range models {
		out = append(out, fromEventModel(&models[i]))
	}
	return out, total, nil
}

func (s *GormStore) exists(ctx context.Context, campaignID string) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.CampaignModel{}).Where("id = ?", campaignID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return crowdsale.ErrUnknownCampaign
	}
	return nil
}

func findDeposit(db *gorm.DB, campaignID string, investor common.Address) (crowdsale.ContributionRecord, error) {
	var m model.DepositModel
	err := db.Where("campaign_id = ? AND address = ?", campaignID, investor.Hex()).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return crowdsale.ContributionRecord{
			CampaignID:      campaignID,
			Investor:        investor,
			Deposited:       decimal.Zero,
			NativeDeposited: decimal.Zero,
		}, nil
	}
	if err != nil {
		return crowdsale.ContributionRecord{}, err
	}
	return fromDepositModel(&m), nil
}

func withPage(db *gorm.DB, page crowdsale.Page) *gorm.DB {
	if page.Size <= 0 {
		return db
	}
	return db.Offset(page.Offset()).Limit(page.Size)
}

// gormTx 事务内视图, 众筹行已被锁定
type gormTx struct {
	db       *gorm.DB
	campaign *crowdsale.Campaign
}

func (t *gormTx) Campaign() *crowdsale.Campaign {
	return t.campaign
}

func (t *gormTx) Deposit(investor common.Address) (crowdsale.ContributionRecord, error) {
	return findDeposit(t.db, t.campaign.ID, investor)
}

func (t *gormTx) PutDeposit(r crowdsale.ContributionRecord) error {
	m := &model.DepositModel{
		CampaignId:      r.CampaignID,
		Address:         r.Investor.Hex(),
		Deposited:       r.Deposited,
		NativeDeposited: r.NativeDeposited,
		UpdatedAt:       r.UpdatedAt,
	}
	return t.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "campaign_id"}, {Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{"deposited", "native_deposited", "updated_at"}),
	}).Create(m).Error
}

func (t *gormTx) AddContribution(r crowdsale.ContributeRecord) error {
	return t.db.Create(&model.ContributeRecordModel{
		CreatedAt:  r.CreatedAt,
		CampaignId: r.CampaignID,
		Address:    r.Investor.Hex(),
		Amount:     r.Native,
		Converted:  r.Converted,
	}).Error
}

func (t *gormTx) AddRefund(r crowdsale.RefundRecord) error {
	return t.db.Create(&model.RefundRecordModel{
		CreatedAt:  r.CreatedAt,
		CampaignId: r.CampaignID,
		Address:    r.Investor.Hex(),
		Amount:     r.Amount,
	}).Error
}

func (t *gormTx) AddSettlement(r crowdsale.SettlementRecord) error {
	err := t.db.Create(&model.SettlementRecordModel{
		CreatedAt:      r.CreatedAt,
		CampaignId:     r.CampaignID,
		TotalAmount:    r.TotalAmount,
		PlatformFee:    r.PlatformFee,
		CreatorAmount:  r.CreatorAmount,
		RewardReturned: r.RewardReturned,
		SettlementType: model.SettlementType(r.Type),
		Reason:         r.Reason,
	}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return crowdsale.ErrAlreadyExists
	}
	return err
}

func (t *gormTx) AddEvent(e crowdsale.Event) error {
	return t.db.Create(&model.EventModel{
		CreatedAt:  e.CreatedAt,
		CampaignId: e.CampaignID,
		EventType:  string(e.Type),
		Actor:      e.Actor.Hex(),
		Amount:     e.Amount,
		Status:     model.CampaignStatus(e.State),
	}).Error
}
