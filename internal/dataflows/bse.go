package dataflows

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/concalliq/concalliq/internal/config"
)

const bulkDealLimit = 15

// BSEClient fetches the day's bulk-deal records from the BSE public API.
type BSEClient struct {
	client  *resty.Client
	cache   *CacheManager
	baseURL string
}

func NewBSEClient(cfg *config.Config) *BSEClient {
	cacheDir := filepath.Join(cfg.DataCacheDir, "bse")
	cache := NewCacheManager(cacheDir, 1*time.Hour, cfg.CacheEnabled)

	client := resty.New()
	client.SetTimeout(10 * time.Second)
	client.SetHeader("User-Agent", "Mozilla/5.0")

	return &BSEClient{
		client:  client,
		cache:   cache,
		baseURL: "https://api.bseindia.com",
	}
}

type bulkDealResponse struct {
	Table []BulkDeal `json:"Table"`
}

// BulkDeals returns up to 15 of the day's bulk deals in feed order.
func (bc *BSEClient) BulkDeals() ([]BulkDeal, error) {
	var cached []BulkDeal
	if bc.cache.Get("bse", "bulk_deals", "today", &cached) {
		return cached, nil
	}

	var result []BulkDeal
	err := WithRetry(DefaultRetryConfig(), func() error {
		var body bulkDealResponse
		resp, err := bc.client.R().
			SetResult(&body).
			Get(bc.baseURL + "/BseIndiaAPI/api/BulkDealData/w")
		if err != nil {
			return fmt.Errorf("fetch bulk deals: %w", err)
		}
		if resp.IsError() {
			return fmt.Errorf("fetch bulk deals: status %d", resp.StatusCode())
		}

		result = body.Table
		if len(result) > bulkDealLimit {
			result = result[:bulkDealLimit]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	bc.cache.Set("bse", "bulk_deals", "today", result)
	return result, nil
}

// FilterDeals keeps deals whose scrip or client name contains symbol,
// case-insensitive substring match like the exchange's own search.
func FilterDeals(deals []BulkDeal, symbol string) []BulkDeal {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return deals
	}

	var out []BulkDeal
	for _, d := range deals {
		haystack := strings.ToUpper(d.Scrip + " " + d.Client)
		if strings.Contains(haystack, symbol) {
			out = append(out, d)
		}
	}
	return out
}
