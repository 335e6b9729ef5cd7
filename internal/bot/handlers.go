package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/concalliq/concalliq/internal/dataflows"
	"github.com/concalliq/concalliq/internal/models"
	"github.com/concalliq/concalliq/internal/quarter"
)

func (r *Router) handleStart(chatID int64, name string) {
	r.send(chatID, fmt.Sprintf(`🚀 *Welcome to ConcallIQ!*
_AI Stock Intelligence for Indian Investors_

Namaste %s! Main aapka personal equity analyst hoon.

*📞 Concall:* `+"`/concall RELIANCE`"+`
*📊 Results:* `+"`/results TCS`"+`
*👥 Shareholding:* `+"`/holding HDFCBANK`"+`
*💰 Bulk Deals:* `+"`/deals`"+`
*🔍 Full Analysis:* `+"`/analyse SUNPHARMA`"+`
*🤖 Kuch bhi poocho:* `+"`/ask INFY guidance positive hai?`"+`
*🌅 Morning Digest:* `+"`/morning`"+`
*📋 Watchlist:* `+"`/watchlist`"+`
*➕ Add Stock:* `+"`/add BAJFINANCE`", name))
}

func (r *Router) handleHelp(chatID int64) {
	r.send(chatID, `📱 *ConcallIQ — Sabhi Commands*
`+"`/concall SYMBOL`"+` — Concall analysis
`+"`/results SYMBOL`"+` — Quarterly results
`+"`/holding SYMBOL`"+` — Shareholding
`+"`/deals`"+` — Bulk/block deals
`+"`/analyse SYMBOL`"+` — Full analysis
`+"`/ask SYMBOL sawaal`"+` — AI se poocho
`+"`/morning`"+` — Daily digest
`+"`/watchlist`"+` — Watchlist dekhna
`+"`/add SYMBOL`"+` — Stock add karo
`+"`/remove SYMBOL`"+` — Stock hatao`)
}

// handleConcall is the fetch-or-reuse path: a cached analysis short-circuits
// every network call; otherwise the newest matching announcement is analysed
// once and stored, and the Screener fallback covers symbols with no concall
// on record (that path is never cached).
func (r *Router) handleConcall(ctx context.Context, chatID int64, symbol string) {
	if symbol == "" {
		r.send(chatID, "Example: `/concall RELIANCE`")
		return
	}
	r.typing(chatID)
	r.send(chatID, fmt.Sprintf("🔍 *%s* ka concall fetch ho raha hai...", symbol))

	if rec := r.cachedConcall(symbol); rec != nil && rec.Analysis != "" {
		r.send(chatID, rec.Analysis)
		return
	}

	anns, err := r.nse.ConcallAnnouncements(symbol)
	if err != nil {
		log.Printf("nse announcements for %s: %v", symbol, err)
	}

	if len(anns) > 0 {
		// The feed's own ordering is trusted; first entry is the newest.
		latest := anns[0]
		qtr := quarter.Infer(latest.Subject, latest.Date)
		r.typing(chatID)

		prompt := fmt.Sprintf(
			"Analyse concall for %s %s: %s. Give bullish/neutral/bearish verdict with key points in Hindi-English mix.",
			symbol, qtr, latest.Subject)
		analysis := r.analyst.Generate(ctx, prompt, r.cfg.MaxTokens)

		r.storeConcall(&models.ConcallRecord{
			Symbol:    symbol,
			Quarter:   qtr,
			Date:      latest.Date,
			Subject:   latest.Subject,
			Analysis:  analysis,
			Sentiment: "AI",
		})

		r.send(chatID, analysis)
		return
	}

	snap := r.snapshot(symbol)
	prompt := fmt.Sprintf("Company: %s (%s)\nRatios: %s\nData: %s\nGive investment analysis.",
		snap.Name, symbol, formatRatios(snap.Ratios), truncate(snap.Table, 1000))
	r.send(chatID, r.analyst.Generate(ctx, prompt, r.cfg.MaxTokens))
}

func (r *Router) handleResults(ctx context.Context, chatID int64, symbol string) {
	if symbol == "" {
		r.send(chatID, "Example: `/results HDFCBANK`")
		return
	}
	r.typing(chatID)

	snap := r.snapshot(symbol)
	prompt := fmt.Sprintf("Quarterly results analysis for %s:\n%s\nRatios: %s\nGive verdict.",
		symbol, snap.Table, formatRatios(snap.Ratios))
	r.send(chatID, r.analyst.Generate(ctx, prompt, r.cfg.MaxTokens))
}

func (r *Router) handleHolding(ctx context.Context, chatID int64, symbol string) {
	if symbol == "" {
		r.send(chatID, "Example: `/holding SBIN`")
		return
	}
	r.typing(chatID)

	holding, err := r.screener.Shareholding(symbol)
	if err != nil {
		log.Printf("shareholding for %s: %v", symbol, err)
		holding = ""
	}
	if holding == "" {
		holding = "No data"
	}
	prompt := fmt.Sprintf("Shareholding analysis for %s:\n%s\nWhat does it mean for retail investor?",
		symbol, holding)
	r.send(chatID, r.analyst.Generate(ctx, prompt, r.cfg.MaxTokens))
}

func (r *Router) handleDeals(ctx context.Context, chatID int64, symbol string) {
	r.typing(chatID)

	deals, err := r.bse.BulkDeals()
	if err != nil {
		log.Printf("bulk deals: %v", err)
		deals = nil
	}
	if symbol != "" {
		deals = dataflows.FilterDeals(deals, symbol)
	}
	if len(deals) == 0 {
		r.send(chatID, "Aaj koi bulk deals nahi hain.")
		return
	}
	if len(deals) > 8 {
		deals = deals[:8]
	}

	encoded, _ := json.Marshal(deals)
	prompt := fmt.Sprintf("Bulk deals analysis:\n%s\nKey highlights for retail investor?", encoded)
	r.send(chatID, r.analyst.Generate(ctx, prompt, r.cfg.MaxTokens))
}

func (r *Router) handleAsk(ctx context.Context, chatID int64, symbol, question string) {
	if symbol == "" || question == "" {
		r.send(chatID, "Format: `/ask SYMBOL question`")
		return
	}
	r.typing(chatID)

	var background string
	if rec := r.cachedConcall(symbol); rec != nil {
		background = truncate(rec.Analysis, 1000)
	}
	prompt := fmt.Sprintf("Stock: %s\nContext: %s\nQuestion: %s\nSimple answer max 200 words.",
		symbol, background, question)
	r.send(chatID, fmt.Sprintf("🤖 *%s*\n\n%s", symbol, r.analyst.Generate(ctx, prompt, r.cfg.MaxTokens)))
}

func (r *Router) handleAnalyse(ctx context.Context, chatID int64, symbol string) {
	if symbol == "" {
		r.send(chatID, "Example: `/analyse TATASTEEL`")
		return
	}
	r.typing(chatID)
	r.send(chatID, fmt.Sprintf("🔄 *%s* full analysis ho raha hai...", symbol))

	snap := r.snapshot(symbol)
	holding, err := r.screener.Shareholding(symbol)
	if err != nil {
		log.Printf("shareholding for %s: %v", symbol, err)
		holding = ""
	}

	prompt := fmt.Sprintf(
		"Complete investment analysis for %s:\nRatios: %s\nFinancials: %s\nHolding: %s\nGive POSITIVE/NEUTRAL/CAUTIOUS verdict with reasons.",
		symbol, formatRatios(snap.Ratios), truncate(snap.Table, 1000), truncate(holding, 300))
	r.send(chatID, r.analyst.Generate(ctx, prompt, 1000))
}

func (r *Router) handleMorning(ctx context.Context, chatID int64) {
	r.typing(chatID)
	r.send(chatID, r.morningDigest(ctx, chatID))
}

func (r *Router) handleWatchlist(chatID int64) {
	wl := r.watchlistFor(chatID)

	var sb strings.Builder
	sb.WriteString("📋 *Aapki Watchlist:*\n\n")

	quotes := map[string]dataflows.Quote{}
	for _, q := range r.quotes.GetQuotes(wl) {
		quotes[q.Symbol] = q
	}
	for _, sym := range wl {
		if q, ok := quotes[sym]; ok {
			sb.WriteString(fmt.Sprintf("⚪ *%s* — ₹%s (%s%%)\n",
				sym, q.Price.StringFixed(2), q.ChangePct.StringFixed(2)))
		} else {
			sb.WriteString(fmt.Sprintf("⚪ *%s*\n", sym))
		}
	}
	sb.WriteString(fmt.Sprintf("\n_Total: %d stocks_\n\n➕ /add SYMBOL | ➖ /remove SYMBOL", len(wl)))
	r.send(chatID, sb.String())
}

func (r *Router) handleAdd(chatID int64, symbol string) {
	if symbol == "" {
		r.send(chatID, "Example: `/add BAJFINANCE`")
		return
	}

	store, err := r.openStore()
	if err != nil {
		log.Printf("open store: %v", err)
		r.send(chatID, "Storage error, thodi der baad try karein.")
		return
	}
	defer store.Close()

	if err := store.AddToWatchlist(chatID, symbol); err != nil {
		log.Printf("add to watchlist: %v", err)
		r.send(chatID, "Storage error, thodi der baad try karein.")
		return
	}
	r.send(chatID, fmt.Sprintf("✅ *%s* added!", symbol))
}

func (r *Router) handleRemove(chatID int64, symbol string) {
	if symbol == "" {
		r.send(chatID, "Example: `/remove WIPRO`")
		return
	}

	store, err := r.openStore()
	if err != nil {
		log.Printf("open store: %v", err)
		r.send(chatID, "Storage error, thodi der baad try karein.")
		return
	}
	defer store.Close()

	if err := store.RemoveFromWatchlist(chatID, symbol); err != nil {
		log.Printf("remove from watchlist: %v", err)
		r.send(chatID, "Storage error, thodi der baad try karein.")
		return
	}
	r.send(chatID, fmt.Sprintf("✅ *%s* removed.", symbol))
}

func (r *Router) handleFreeText(ctx context.Context, chatID int64, text string) {
	r.typing(chatID)
	prompt := fmt.Sprintf("Indian stock market question: %s. Simple answer.", text)
	r.send(chatID, "🤖 "+r.analyst.Generate(ctx, prompt, r.cfg.MaxTokens))
}

// morningDigest builds the watchlist summary shared by /morning and the
// scheduled digest.
func (r *Router) morningDigest(ctx context.Context, chatID int64) string {
	wl := r.watchlistFor(chatID)
	if len(wl) > 8 {
		wl = wl[:8]
	}

	var quoteLines []string
	for _, q := range r.quotes.GetQuotes(wl) {
		quoteLines = append(quoteLines, fmt.Sprintf("%s ₹%s (%s%%)",
			q.Symbol, q.Price.StringFixed(2), q.ChangePct.StringFixed(2)))
	}

	prompt := fmt.Sprintf("Morning digest for Indian stocks: %s\nDate: %s\nLatest quotes: %s\nGive brief bullish/bearish/neutral summary for each.",
		strings.Join(wl, ", "),
		time.Now().Format("02 Jan 2006"),
		strings.Join(quoteLines, "; "))
	return r.analyst.Generate(ctx, prompt, r.cfg.MaxTokens)
}

// SendScheduledDigest pushes the morning digest to every chat holding a
// watchlist and records each send in the alert log.
func (r *Router) SendScheduledDigest(ctx context.Context) {
	store, err := r.openStore()
	if err != nil {
		log.Printf("digest: open store: %v", err)
		return
	}
	chats, err := store.WatchlistChats()
	store.Close()
	if err != nil {
		log.Printf("digest: list chats: %v", err)
		return
	}

	for _, chatID := range chats {
		digest := r.morningDigest(ctx, chatID)
		r.send(chatID, digest)

		store, err := r.openStore()
		if err != nil {
			log.Printf("digest: open store: %v", err)
			continue
		}
		if err := store.LogAlert(chatID, "morning_digest", digest); err != nil {
			log.Printf("digest: log alert: %v", err)
		}
		store.Close()
	}
}

// cachedConcall returns the latest stored record for symbol, or nil. Storage
// problems degrade to a cache miss.
func (r *Router) cachedConcall(symbol string) *models.ConcallRecord {
	store, err := r.openStore()
	if err != nil {
		log.Printf("open store: %v", err)
		return nil
	}
	defer store.Close()

	rec, err := store.LatestConcall(symbol)
	if err != nil {
		log.Printf("latest concall for %s: %v", symbol, err)
		return nil
	}
	return rec
}

func (r *Router) storeConcall(rec *models.ConcallRecord) {
	store, err := r.openStore()
	if err != nil {
		log.Printf("open store: %v", err)
		return
	}
	defer store.Close()

	if err := store.SaveConcall(rec); err != nil {
		log.Printf("save concall %s %s: %v", rec.Symbol, rec.Quarter, err)
	}
}

// snapshot degrades provider failures to an empty snapshot so a reply can
// always be produced.
func (r *Router) snapshot(symbol string) *dataflows.CompanySnapshot {
	snap, err := r.screener.Snapshot(symbol)
	if err != nil || snap == nil {
		if err != nil {
			log.Printf("snapshot for %s: %v", symbol, err)
		}
		return &dataflows.CompanySnapshot{Name: symbol, Ratios: map[string]string{}}
	}
	return snap
}

// watchlistFor applies the default-list fallback; the default is never
// persisted.
func (r *Router) watchlistFor(chatID int64) []string {
	store, err := r.openStore()
	if err != nil {
		log.Printf("open store: %v", err)
		return models.DefaultWatchlist
	}
	defer store.Close()

	wl, err := store.Watchlist(chatID)
	if err != nil {
		log.Printf("watchlist for %d: %v", chatID, err)
		return models.DefaultWatchlist
	}
	if len(wl) == 0 {
		return models.DefaultWatchlist
	}
	return wl
}

func formatRatios(ratios map[string]string) string {
	if len(ratios) == 0 {
		return "{}"
	}
	data, _ := json.Marshal(ratios)
	return string(data)
}

func truncate(s string, limit int) string {
	if len(s) > limit {
		return s[:limit]
	}
	return s
}
