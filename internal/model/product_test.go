package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pct(v float64) *float64 { return &v }

func TestProduct_Validate(t *testing.T) {
	valid := func() Product {
		return Product{ID: "P1", AccountID: "acct-1", SellingPrice: 50000}
	}

	tests := []struct {
		name    string
		mutate  func(p *Product)
		wantErr string
	}{
		{name: "valid", mutate: func(*Product) {}},
		{name: "equal min and max", mutate: func(p *Product) { p.PriceFilterMinPct, p.PriceFilterMaxPct = pct(80), pct(80) }},
		{name: "missing id", mutate: func(p *Product) { p.ID = " " }, wantErr: "product id"},
		{name: "missing account", mutate: func(p *Product) { p.AccountID = "" }, wantErr: "account id"},
		{name: "negative price", mutate: func(p *Product) { p.SellingPrice = -1 }, wantErr: "selling price"},
		{name: "negative min", mutate: func(p *Product) { p.PriceFilterMinPct = pct(-5) }, wantErr: "min cannot be negative"},
		{name: "negative max", mutate: func(p *Product) { p.PriceFilterMaxPct = pct(-5) }, wantErr: "max cannot be negative"},
		{name: "min above max", mutate: func(p *Product) { p.PriceFilterMinPct, p.PriceFilterMaxPct = pct(120), pct(80) }, wantErr: "less than or equal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid()
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNormalizeSpecKeywords(t *testing.T) {
	assert.Equal(t, []string{"4-port", "USB-C"}, NormalizeSpecKeywords([]string{" 4-port", "USB-C", "", "usb-c", "4-PORT "}))
	assert.Empty(t, NormalizeSpecKeywords(nil))
	assert.Empty(t, NormalizeSpecKeywords([]string{" ", ""}))
}

func TestProduct_LastRefreshedAt(t *testing.T) {
	early := time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)
	late := early.Add(3 * time.Hour)

	p := Product{Keywords: []Keyword{{LastCrawledAt: &early}, {}, {LastCrawledAt: &late}}}
	got := p.LastRefreshedAt()
	require.NotNil(t, got)
	assert.True(t, got.Equal(late))

	assert.Nil(t, (&Product{Keywords: []Keyword{{}}}).LastRefreshedAt())
}
