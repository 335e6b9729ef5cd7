package dataflows

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/concalliq/concalliq/internal/config"
)

const (
	snapshotTableLimit = 2000
	shareholdingLimit  = 1500
)

// ScreenerClient scrapes company fundamentals from Screener.in pages.
type ScreenerClient struct {
	client  *resty.Client
	cache   *CacheManager
	baseURL string
}

func NewScreenerClient(cfg *config.Config) *ScreenerClient {
	cacheDir := filepath.Join(cfg.DataCacheDir, "screener")
	cache := NewCacheManager(cacheDir, 6*time.Hour, cfg.CacheEnabled)

	client := resty.New()
	client.SetTimeout(15 * time.Second)
	client.SetHeader("User-Agent", "Mozilla/5.0")

	return &ScreenerClient{
		client:  client,
		cache:   cache,
		baseURL: "https://www.screener.in",
	}
}

// Snapshot scrapes the consolidated company page: display name, the headline
// ratio list and the first two financial tables flattened to pipe-separated
// text for prompting.
func (sc *ScreenerClient) Snapshot(symbol string) (*CompanySnapshot, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	var cached CompanySnapshot
	if sc.cache.Get("screener", "snapshot", symbol, &cached) {
		return &cached, nil
	}

	doc, err := sc.fetchDocument(fmt.Sprintf("%s/company/%s/consolidated/", sc.baseURL, symbol))
	if err != nil {
		return nil, err
	}

	snapshot := &CompanySnapshot{
		Name:   symbol,
		Ratios: map[string]string{},
	}
	if h1 := doc.Find("h1").First(); h1.Length() > 0 {
		snapshot.Name = strings.TrimSpace(h1.Text())
	}

	doc.Find("li.flex.flex-space-between").EachWithBreak(func(i int, li *goquery.Selection) bool {
		if i >= 12 {
			return false
		}
		spans := li.Find("span")
		if spans.Length() >= 2 {
			key := strings.TrimSpace(spans.First().Text())
			val := strings.TrimSpace(spans.Last().Text())
			snapshot.Ratios[key] = val
		}
		return true
	})

	snapshot.Table = flattenTables(doc, 2, snapshotTableLimit)

	sc.cache.Set("screener", "snapshot", symbol, snapshot)
	return snapshot, nil
}

// Shareholding scrapes the shareholding-pattern section as plain text.
func (sc *ScreenerClient) Shareholding(symbol string) (string, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return "", err
	}
	symbol = NormalizeSymbol(symbol)

	var cached string
	if sc.cache.Get("screener", "shareholding", symbol, &cached) {
		return cached, nil
	}

	doc, err := sc.fetchDocument(fmt.Sprintf("%s/company/%s/", sc.baseURL, symbol))
	if err != nil {
		return "", err
	}

	section := doc.Find("section#shareholding")
	if section.Length() == 0 {
		return "", nil
	}

	text := normalizeWhitespace(section.Text())
	if len(text) > shareholdingLimit {
		text = text[:shareholdingLimit]
	}

	sc.cache.Set("screener", "shareholding", symbol, text)
	return text, nil
}

func (sc *ScreenerClient) fetchDocument(url string) (*goquery.Document, error) {
	var doc *goquery.Document
	err := WithRetry(DefaultRetryConfig(), func() error {
		resp, err := sc.client.R().Get(url)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", url, err)
		}
		if resp.IsError() {
			return fmt.Errorf("fetch %s: status %d", url, resp.StatusCode())
		}

		doc, err = goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
		if err != nil {
			return fmt.Errorf("parse %s: %w", url, err)
		}
		return nil
	})
	return doc, err
}

// flattenTables turns the first maxTables tables into pipe-separated rows.
func flattenTables(doc *goquery.Document, maxTables, limit int) string {
	var sb strings.Builder
	doc.Find("table").EachWithBreak(func(i int, table *goquery.Selection) bool {
		if i >= maxTables {
			return false
		}
		table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			cells := tr.Find("th, td").Map(func(_ int, cell *goquery.Selection) string {
				return strings.TrimSpace(cell.Text())
			})
			sb.WriteString(strings.Join(cells, "|"))
			sb.WriteString("\n")
		})
		return true
	})

	out := sb.String()
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func normalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	var out []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
