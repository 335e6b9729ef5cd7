package dataflows

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/piquette/finance-go/quote"
	"github.com/shopspring/decimal"

	"github.com/concalliq/concalliq/internal/config"
)

// QuoteClient pulls delayed NSE quotes via Yahoo Finance (".NS" suffix).
// Quotes only decorate digests, so everything here is best effort.
type QuoteClient struct {
	cache *CacheManager
}

func NewQuoteClient(cfg *config.Config) *QuoteClient {
	cacheDir := filepath.Join(cfg.DataCacheDir, "quotes")
	cache := NewCacheManager(cacheDir, 15*time.Minute, cfg.CacheEnabled)

	return &QuoteClient{cache: cache}
}

// GetQuote returns the current quote for an NSE symbol.
func (qc *QuoteClient) GetQuote(symbol string) (*Quote, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	var cached Quote
	if qc.cache.Get("yahoo", "quote", symbol, &cached) {
		return &cached, nil
	}

	q, err := quote.Get(symbol + ".NS")
	if err != nil {
		return nil, fmt.Errorf("quote for %s: %w", symbol, err)
	}
	if q == nil {
		return nil, fmt.Errorf("quote for %s: empty response", symbol)
	}

	result := &Quote{
		Symbol:    symbol,
		Price:     decimal.NewFromFloat(q.RegularMarketPrice),
		Change:    decimal.NewFromFloat(q.RegularMarketChange),
		ChangePct: decimal.NewFromFloat(q.RegularMarketChangePercent),
	}

	qc.cache.Set("yahoo", "quote", symbol, result)
	return result, nil
}

// GetQuotes fetches quotes for a list of symbols, skipping failures.
func (qc *QuoteClient) GetQuotes(symbols []string) []Quote {
	var out []Quote
	for _, sym := range symbols {
		q, err := qc.GetQuote(sym)
		if err != nil {
			continue
		}
		out = append(out, *q)
	}
	return out
}
