package dataflows

import "github.com/shopspring/decimal"

// Announcement is one corporate filing row from the NSE announcements feed.
type Announcement struct {
	Symbol     string `json:"symbol"`
	Subject    string `json:"subject"`
	Details    string `json:"desc"`
	Date       string `json:"an_dt"`
	Attachment string `json:"attchmntFile"`
}

// CompanySnapshot is the scraped Screener.in overview used when no concall
// announcement exists.
type CompanySnapshot struct {
	Name   string            `json:"name"`
	Ratios map[string]string `json:"ratios"`
	Table  string            `json:"table"`
}

// BulkDeal is one row of the BSE bulk-deal feed.
type BulkDeal struct {
	Date     string          `json:"DT"`
	Scrip    string          `json:"Scripname"`
	Client   string          `json:"Clientname"`
	DealType string          `json:"Dealtype"`
	Quantity decimal.Decimal `json:"QTY"`
	Price    decimal.Decimal `json:"Rate"`
}

// Quote is a delayed NSE market quote used to enrich digests.
type Quote struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Change    decimal.Decimal `json:"change"`
	ChangePct decimal.Decimal `json:"change_pct"`
}
