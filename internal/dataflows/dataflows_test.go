package dataflows

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

func TestFilterConcalls(t *testing.T) {
	anns := []Announcement{
		{Subject: "Transcript of Earnings Conference Call Q2FY24"},
		{Subject: "Board meeting outcome"},
		{Subject: "Schedule of Investor Meet"},
		{Subject: "Dividend declaration"},
	}

	got := filterConcalls(anns)
	if len(got) != 2 {
		t.Fatalf("expected 2 concall announcements, got %d", len(got))
	}
	if got[0].Subject != anns[0].Subject || got[1].Subject != anns[2].Subject {
		t.Fatalf("wrong announcements kept: %+v", got)
	}
}

func TestConcallAnnouncementsFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/corp-info" {
			// Session priming hit.
			w.Write([]byte("ok"))
			return
		}
		if got := r.URL.Query().Get("symbol"); got != "RELIANCE" {
			t.Errorf("symbol = %s, want RELIANCE", got)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]string{
				{"subject": "Earnings Call Transcript", "an_dt": "2024-01-20"},
				{"subject": "Change in directors", "an_dt": "2024-01-18"},
			},
		})
	}))
	defer srv.Close()

	nc := &NSEClient{
		client:  resty.New().SetTimeout(5 * time.Second),
		cache:   NewCacheManager(t.TempDir(), time.Minute, false),
		baseURL: srv.URL,
	}

	anns, err := nc.ConcallAnnouncements("reliance")
	if err != nil {
		t.Fatalf("ConcallAnnouncements: %v", err)
	}
	if len(anns) != 1 {
		t.Fatalf("expected 1 filtered announcement, got %d", len(anns))
	}
	if anns[0].Date != "2024-01-20" {
		t.Fatalf("wrong announcement: %+v", anns[0])
	}
}

func TestSnapshotParsesPage(t *testing.T) {
	page := `<html><body>
		<h1>Reliance Industries Ltd</h1>
		<ul>
			<li class="flex flex-space-between"><span>Market Cap</span><span>₹ 19,00,000 Cr.</span></li>
			<li class="flex flex-space-between"><span>P/E</span><span>27.5</span></li>
		</ul>
		<table><tr><th>Quarter</th><th>Sales</th></tr><tr><td>Q1</td><td>100</td></tr></table>
	</body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer srv.Close()

	sc := &ScreenerClient{
		client:  resty.New().SetTimeout(5 * time.Second),
		cache:   NewCacheManager(t.TempDir(), time.Minute, false),
		baseURL: srv.URL,
	}

	snap, err := sc.Snapshot("RELIANCE")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Name != "Reliance Industries Ltd" {
		t.Fatalf("name = %q", snap.Name)
	}
	if snap.Ratios["P/E"] != "27.5" {
		t.Fatalf("ratios = %v", snap.Ratios)
	}
	if snap.Table == "" {
		t.Fatal("expected flattened table text")
	}
}

func TestFilterDeals(t *testing.T) {
	deals := []BulkDeal{
		{Scrip: "RELIANCE IND", Client: "Big Fund LLP", Quantity: decimal.NewFromInt(100000)},
		{Scrip: "TATASTEEL", Client: "Other Fund"},
	}

	got := FilterDeals(deals, "reliance")
	if len(got) != 1 || got[0].Scrip != "RELIANCE IND" {
		t.Fatalf("FilterDeals mismatch: %+v", got)
	}
	if got := FilterDeals(deals, ""); len(got) != 2 {
		t.Fatalf("empty symbol should keep all deals, got %d", len(got))
	}
}

func TestCacheManagerRoundTrip(t *testing.T) {
	cm := NewCacheManager(t.TempDir(), time.Minute, true)

	in := []Announcement{{Subject: "Concall"}}
	if err := cm.Set("nse", "test", "SYM", in); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var out []Announcement
	if !cm.Get("nse", "test", "SYM", &out) {
		t.Fatal("expected cache hit")
	}
	if len(out) != 1 || out[0].Subject != "Concall" {
		t.Fatalf("cache round trip mismatch: %+v", out)
	}

	var miss []Announcement
	if cm.Get("nse", "test", "OTHER", &miss) {
		t.Fatal("expected cache miss for different params")
	}
}

func TestCacheManagerDisabled(t *testing.T) {
	cm := NewCacheManager(t.TempDir(), time.Minute, false)
	if err := cm.Set("nse", "test", "SYM", "data"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	var out string
	if cm.Get("nse", "test", "SYM", &out) {
		t.Fatal("disabled cache must never hit")
	}
}
