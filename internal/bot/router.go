// Package bot holds the update loop, command routing and the handlers that
// tie storage, providers and the analyst together.
package bot

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/concalliq/concalliq/internal/config"
	"github.com/concalliq/concalliq/internal/dataflows"
	"github.com/concalliq/concalliq/internal/storage"
	"github.com/concalliq/concalliq/internal/telegram"
)

// Transport is the outbound side of the chat platform. Failures on these
// calls never block a reply; callers log and move on.
type Transport interface {
	SendMessage(chatID int64, text string) error
	SendChatAction(chatID int64, action string) error
}

// AnalysisEngine is a single-call text generator. It never fails: degraded
// output is returned as a sendable string.
type AnalysisEngine interface {
	Generate(ctx context.Context, prompt string, maxTokens int) string
}

type AnnouncementProvider interface {
	ConcallAnnouncements(symbol string) ([]dataflows.Announcement, error)
}

type FundamentalsProvider interface {
	Snapshot(symbol string) (*dataflows.CompanySnapshot, error)
	Shareholding(symbol string) (string, error)
}

type DealsProvider interface {
	BulkDeals() ([]dataflows.BulkDeal, error)
}

type QuoteProvider interface {
	GetQuotes(symbols []string) []dataflows.Quote
}

type Router struct {
	cfg      *config.Config
	tg       Transport
	analyst  AnalysisEngine
	nse      AnnouncementProvider
	screener FundamentalsProvider
	bse      DealsProvider
	quotes   QuoteProvider
}

func NewRouter(cfg *config.Config, tg Transport, analyst AnalysisEngine,
	nse AnnouncementProvider, screener FundamentalsProvider,
	bse DealsProvider, quotes QuoteProvider) *Router {
	return &Router{
		cfg:      cfg,
		tg:       tg,
		analyst:  analyst,
		nse:      nse,
		screener: screener,
		bse:      bse,
		quotes:   quotes,
	}
}

// HandleUpdate routes one inbound update. Updates are handled independently;
// the caller runs one worker per update.
func (r *Router) HandleUpdate(ctx context.Context, u telegram.Update) {
	if u.Message == nil {
		return
	}
	msg := u.Message
	chatID := msg.Chat.ID
	if chatID == 0 || strings.TrimSpace(msg.Text) == "" {
		return
	}

	cmd, err := Parse(msg.Text)
	if err != nil {
		if errors.Is(err, ErrEmptyMessage) {
			return
		}
		// Short non-command text.
		r.send(chatID, "❓ Type /help to see what I can do.")
		return
	}

	switch cmd.Kind {
	case KindStart:
		r.handleStart(chatID, msg.From.FirstName)
	case KindHelp:
		r.handleHelp(chatID)
	case KindConcall:
		r.handleConcall(ctx, chatID, cmd.Symbol)
	case KindResults:
		r.handleResults(ctx, chatID, cmd.Symbol)
	case KindHolding:
		r.handleHolding(ctx, chatID, cmd.Symbol)
	case KindDeals:
		r.handleDeals(ctx, chatID, cmd.Symbol)
	case KindAsk:
		r.handleAsk(ctx, chatID, cmd.Symbol, cmd.Text)
	case KindAnalyse:
		r.handleAnalyse(ctx, chatID, cmd.Symbol)
	case KindMorning:
		r.handleMorning(ctx, chatID)
	case KindWatchlist:
		r.handleWatchlist(chatID)
	case KindAdd:
		r.handleAdd(chatID, cmd.Symbol)
	case KindRemove:
		r.handleRemove(chatID, cmd.Symbol)
	case KindFreeText:
		r.handleFreeText(ctx, chatID, cmd.Text)
	default:
		r.send(chatID, "❓ Unknown command. Type /help.")
	}
}

// openStore acquires a store handle scoped to one operation. Every caller
// closes it on all exit paths.
func (r *Router) openStore() (*storage.Store, error) {
	return storage.Open(r.cfg.DBPath)
}

func (r *Router) send(chatID int64, text string) {
	if err := r.tg.SendMessage(chatID, text); err != nil {
		log.Printf("sendMessage: %v", err)
	}
}

// typing fires the "typing…" indicator before network-bound work.
func (r *Router) typing(chatID int64) {
	if err := r.tg.SendChatAction(chatID, "typing"); err != nil {
		log.Printf("sendChatAction: %v", err)
	}
}
