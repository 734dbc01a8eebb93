package repository

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/blues/crowdsale/internal/crowdsale"
	"github.com/blues/crowdsale/internal/model"
)

func toCampaignModel(c *crowdsale.Campaign) *model.CampaignModel {
	m := &model.CampaignModel{
		Id:                           c.ID,
		CreatedAt:                    c.CreatedAt,
		UpdatedAt:                    c.UpdatedAt,
		RewardUnit:                   c.RewardUnit.Hex(),
		OwnerAddress:                 c.Owner.Hex(),
		RefundDestination:            c.RefundDestination.Hex(),
		Cap:                          c.Cap,
		Goal:                         c.Goal,
		ExchangeRate:                 c.ExchangeRate,
		MinInvestment:                c.MinInvestment,
		ClosingTime:                  c.ClosingTime,
		AllowEarlyClosure:            c.AllowEarlyClosure,
		CommissionRate:               c.CommissionRate,
		Currency:                     c.Currency,
		BaseKYCLevel:                 c.Eligibility.BaseKYCLevel,
		LegalPersonSkipsCountryCheck: c.Eligibility.LegalPersonSkipsCountryCheck,
		Raised:                       c.Raised,
		Escrowed:                     c.Escrowed,
		Status:                       model.CampaignStatus(c.State),
		FinalizedAt:                  c.FinalizedAt,
	}
	if c.Eligibility.CountryBlacklist != nil {
		m.CountryBlacklist = c.Eligibility.CountryBlacklist.String()
	}
	return m
}

func fromCampaignModel(m *model.CampaignModel) *crowdsale.Campaign {
	c := &crowdsale.Campaign{
		ID:                m.Id,
		RewardUnit:        common.HexToAddress(m.RewardUnit),
		Owner:             common.HexToAddress(m.OwnerAddress),
		RefundDestination: common.HexToAddress(m.RefundDestination),
		Cap:               m.Cap,
		Goal:              m.Goal,
		ExchangeRate:      m.ExchangeRate,
		MinInvestment:     m.MinInvestment,
		ClosingTime:       m.ClosingTime,
		AllowEarlyClosure: m.AllowEarlyClosure,
		CommissionRate:    m.CommissionRate,
		Currency:          m.Currency,
		Eligibility: crowdsale.EligibilityParams{
			BaseKYCLevel:                 m.BaseKYCLevel,
			LegalPersonSkipsCountryCheck: m.LegalPersonSkipsCountryCheck,
		},
		Raised:      m.Raised,
		Escrowed:    m.Escrowed,
		State:       crowdsale.State(m.Status),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
		FinalizedAt: m.FinalizedAt,
	}
	if m.CountryBlacklist != "" {
		if v, ok := new(big.Int).SetString(m.CountryBlacklist, 10); ok {
			c.Eligibility.CountryBlacklist = v
		}
	}
	return c
}

func fromDepositModel(m *model.DepositModel) crowdsale.ContributionRecord {
	return crowdsale.ContributionRecord{
		CampaignID:      m.CampaignId,
		Investor:        common.HexToAddress(m.Address),
		Deposited:       m.Deposited,
		NativeDeposited: m.NativeDeposited,
		UpdatedAt:       m.UpdatedAt,
	}
}

func fromContributeRecordModel(m *model.ContributeRecordModel) crowdsale.ContributeRecord {
	return crowdsale.ContributeRecord{
		CampaignID: m.CampaignId,
		Investor:   common.HexToAddress(m.Address),
		Native:     m.Amount,
		Converted:  m.Converted,
		CreatedAt:  m.CreatedAt,
	}
}

func fromRefundRecordModel(m *model.RefundRecordModel) crowdsale.RefundRecord {
	return crowdsale.RefundRecord{
		CampaignID: m.CampaignId,
		Investor:   common.HexToAddress(m.Address),
		Amount:     m.Amount,
		CreatedAt:  m.CreatedAt,
	}
}

func fromSettlementRecordModel(m *model.SettlementRecordModel) *crowdsale.SettlementRecord {
	return &crowdsale.SettlementRecord{
		CampaignID:     m.CampaignId,
		Type:           crowdsale.SettlementType(m.SettlementType),
		TotalAmount:    m.TotalAmount,
		PlatformFee:    m.PlatformFee,
		CreatorAmount:  m.CreatorAmount,
		RewardReturned: m.RewardReturned,
		Reason:         m.Reason,
		CreatedAt:      m.CreatedAt,
	}
}

func fromEventModel(m *model.EventModel) crowdsale.Event {
	return crowdsale.Event{
		CampaignID: m.CampaignId,
		Type:       crowdsale.EventType(m.EventType),
		Actor:      common.HexToAddress(m.Actor),
		Amount:     m.Amount,
		State:      crowdsale.State(m.Status),
		CreatedAt:  m.CreatedAt,
	}
}
