package models

// ConcallRecord is one cached concall analysis, keyed by (symbol, quarter).
// A re-fetch for the same key replaces the row; every write is also kept as a
// revision for audit.
type ConcallRecord struct {
	ID        int64  `json:"id"`
	Symbol    string `json:"symbol"`
	Quarter   string `json:"quarter"`
	Date      string `json:"date"`
	Subject   string `json:"subject"`
	Analysis  string `json:"analysis"`
	Sentiment string `json:"sentiment"`
	FetchedAt string `json:"fetched_at"`
}

type WatchlistEntry struct {
	ChatID int64  `json:"chat_id"`
	Symbol string `json:"symbol"`
}

// AlertRecord is an append-only audit row for an outbound alert.
type AlertRecord struct {
	ID      int64  `json:"id"`
	ChatID  int64  `json:"chat_id"`
	Symbol  string `json:"symbol"`
	Message string `json:"message"`
	SentAt  string `json:"sent_at"`
}

// DefaultWatchlist is used for chats that never added a symbol. It is never
// persisted.
var DefaultWatchlist = []string{
	"RELIANCE", "TCS", "INFY", "HDFCBANK", "ICICIBANK",
	"SBIN", "WIPRO", "TATASTEEL", "SUNPHARMA", "MARUTI",
}
