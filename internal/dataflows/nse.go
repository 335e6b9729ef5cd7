package dataflows

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/concalliq/concalliq/internal/config"
)

// concallKeywords mark an announcement as a conference-call style event.
var concallKeywords = []string{
	"concall", "conference call", "earnings call", "transcript", "investor meet",
}

// NSEClient fetches corporate announcements from the NSE feed. The site
// requires a browser-like session: a plain GET on the homepage first, so the
// cookie jar carries the session cookies into the API call.
type NSEClient struct {
	client  *resty.Client
	cache   *CacheManager
	baseURL string
}

func NewNSEClient(cfg *config.Config) *NSEClient {
	cacheDir := filepath.Join(cfg.DataCacheDir, "nse")
	cache := NewCacheManager(cacheDir, 2*time.Hour, cfg.CacheEnabled)

	client := resty.New()
	client.SetTimeout(15 * time.Second)
	client.SetHeader("User-Agent", "Mozilla/5.0")

	return &NSEClient{
		client:  client,
		cache:   cache,
		baseURL: "https://www.nseindia.com",
	}
}

type announcementsResponse struct {
	Data []Announcement `json:"data"`
}

// ConcallAnnouncements returns announcements for symbol whose subject matches
// a concall keyword, in feed order (the feed's own newest-first ordering is
// trusted). Failures surface as an error; callers treat them as "no data".
func (nc *NSEClient) ConcallAnnouncements(symbol string) ([]Announcement, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	var cached []Announcement
	if nc.cache.Get("nse", "concall_announcements", symbol, &cached) {
		return cached, nil
	}

	var result []Announcement
	err := WithRetry(DefaultRetryConfig(), func() error {
		// Prime session cookies.
		if _, err := nc.client.R().Get(nc.baseURL); err != nil {
			return fmt.Errorf("prime NSE session: %w", err)
		}
		time.Sleep(1 * time.Second)

		var body announcementsResponse
		resp, err := nc.client.R().
			SetHeader("Referer", nc.baseURL).
			SetQueryParams(map[string]string{
				"symbol":   symbol,
				"corpType": "announcements",
				"market":   "equities",
			}).
			SetResult(&body).
			Get(nc.baseURL + "/api/corp-info")
		if err != nil {
			return fmt.Errorf("fetch announcements for %s: %w", symbol, err)
		}
		if resp.IsError() {
			return fmt.Errorf("fetch announcements for %s: status %d", symbol, resp.StatusCode())
		}

		result = filterConcalls(body.Data)
		return nil
	})
	if err != nil {
		return nil, err
	}

	nc.cache.Set("nse", "concall_announcements", symbol, result)
	return result, nil
}

func filterConcalls(anns []Announcement) []Announcement {
	var out []Announcement
	for _, a := range anns {
		subject := strings.ToLower(a.Subject)
		for _, kw := range concallKeywords {
			if strings.Contains(subject, kw) {
				out = append(out, a)
				break
			}
		}
	}
	return out
}
