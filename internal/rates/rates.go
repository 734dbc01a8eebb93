package rates

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

var (
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	ErrInvalidRate         = errors.New("invalid exchange rate")
)

// Table 静态汇率表: 每单位原生资产可折算的记账单位数量
type Table struct {
	mu    sync.RWMutex
	rates map[string]decimal.Decimal
}

// NewTable 创建汇率表, 币种不区分大小写
func NewTable(rates map[string]decimal.Decimal) (*Table, error) {
	t := &Table{rates: make(map[string]decimal.Decimal, len(rates))}
	for currency, rate := range rates {
		if err := t.Set(currency, rate); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Set 设置币种汇率
func (t *Table) Set(currency string, rate decimal.Decimal) error {
	if currency == "" {
		return fmt.Errorf("%w: empty currency", ErrUnsupportedCurrency)
	}
	if !rate.IsPositive() {
		return fmt.Errorf("%w: %s for %s", ErrInvalidRate, rate, currency)
	}
	t.mu.Lock()
	t.rates[strings.ToUpper(currency)] = rate
	t.mu.Unlock()
	return nil
}

// Rate 查询币种汇率
func (t *Table) Rate(currency string) (decimal.Decimal, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rate, ok := t.rates[strings.ToUpper(currency)]
	return rate, ok
}

// Convert 将原生资产折算为记账单位, 结果向零截断为整数
func (t *Table) Convert(ctx context.Context, native decimal.Decimal, currency string) (decimal.Decimal, error) {
	rate, ok := t.Rate(currency)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnsupportedCurrency, currency)
	}
	return native.Mul(rate).Truncate(0), nil
}
