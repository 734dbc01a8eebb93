package crowdsale_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blues/crowdsale/internal/crowdsale"
)

func TestLedgerRecordAndClear(t *testing.T) {
	f := newFixture(t)
	c := f.create(t)
	ledger := f.engine.Ledger()

	err := f.store.Update(f.ctx, c.ID, func(tx crowdsale.Tx) error {
		if _, err := ledger.Record(tx, investorX, d(4), d(4), t0); err != nil {
			return err
		}
		rec, err := ledger.Record(tx, investorX, d(6), d(6), t0)
		require.NoError(t, err)
		assertEqualAmount(t, 10, rec.Deposited)
		return nil
	})
	require.NoError(t, err)

	var cleared crowdsale.ContributionRecord
	err = f.store.Update(f.ctx, c.ID, func(tx crowdsale.Tx) error {
		var err error
		cleared, err = ledger.Clear(tx, investorX, t0)
		return err
	})
	require.NoError(t, err)
	assertEqualAmount(t, 10, cleared.Deposited)

	err = f.store.Update(f.ctx, c.ID, func(tx crowdsale.Tx) error {
		_, err := ledger.Clear(tx, investorX, t0)
		return err
	})
	assert.ErrorIs(t, err, crowdsale.ErrNothingToClaim)

	rec, err := ledger.Deposit(f.ctx, c.ID, investorX)
	require.NoError(t, err)
	assert.True(t, rec.Empty())
}

func TestLedgerChangesDiscardedOnError(t *testing.T) {
	f := newFixture(t)
	c := f.create(t)
	ledger := f.engine.Ledger()

	err := f.store.Update(f.ctx, c.ID, func(tx crowdsale.Tx) error {
		if _, err := ledger.Record(tx, investorX, d(4), d(4), t0); err != nil {
			return err
		}
		tx.Campaign().Raised = d(4)
		return crowdsale.ErrCapExceeded
	})
	assert.ErrorIs(t, err, crowdsale.ErrCapExceeded)

	rec, err := ledger.Deposit(f.ctx, c.ID, investorX)
	require.NoError(t, err)
	assert.True(t, rec.Empty())
	assert.True(t, f.campaign(t, c.ID).Raised.IsZero())
}

func TestLedgerRecordOverflow(t *testing.T) {
	f := newFixture(t)
	c := f.create(t)
	ledger := f.engine.Ledger()

	err := f.store.Update(f.ctx, c.ID, func(tx crowdsale.Tx) error {
		if _, err := ledger.Record(tx, investorX, crowdsale.MaxAmount, d(1), t0); err != nil {
			return err
		}
		_, err := ledger.Record(tx, investorX, d(1), d(1), t0)
		return err
	})
	assert.ErrorIs(t, err, crowdsale.ErrArithmeticOverflow)
}
