package bot

import (
	"errors"
	"strings"
	"unicode"
)

// Kind enumerates the closed set of commands the bot understands.
type Kind int

const (
	KindUnknown Kind = iota
	KindStart
	KindHelp
	KindConcall
	KindResults
	KindHolding
	KindDeals
	KindAsk
	KindAnalyse
	KindMorning
	KindWatchlist
	KindAdd
	KindRemove
	KindFreeText
)

// Command is a parsed inbound message. Symbol is the first positional
// argument upper-cased (tickers are conventionally upper-case); Text is the
// rest of the message verbatim, or the whole message for free-form questions.
type Command struct {
	Kind   Kind
	Symbol string
	Text   string
}

var (
	// ErrEmptyMessage means there is nothing to handle; the update is ignored.
	ErrEmptyMessage = errors.New("empty message")
	// ErrBareText means short non-command text; the router nudges toward /help.
	ErrBareText = errors.New("non-command text too short")
)

// freeTextMinLen is the threshold above which plain text is forwarded to the
// analyst as a free-form question.
const freeTextMinLen = 6

// Parse extracts a command token (case-insensitive, "@botname" suffix
// stripped) and up to two positional arguments.
func Parse(text string) (Command, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Command{}, ErrEmptyMessage
	}

	if !strings.HasPrefix(text, "/") {
		if len(text) >= freeTextMinLen {
			return Command{Kind: KindFreeText, Text: text}, nil
		}
		return Command{}, ErrBareText
	}

	token, arg1, arg2 := splitCommand(text)

	name := strings.ToLower(token)
	if i := strings.Index(name, "@"); i >= 0 {
		name = name[:i]
	}

	cmd := Command{
		Symbol: strings.ToUpper(strings.TrimSpace(arg1)),
		Text:   arg2,
	}

	switch name {
	case "/start":
		cmd.Kind = KindStart
	case "/help":
		cmd.Kind = KindHelp
	case "/concall", "/cc":
		cmd.Kind = KindConcall
	case "/results":
		cmd.Kind = KindResults
	case "/holding":
		cmd.Kind = KindHolding
	case "/deals":
		cmd.Kind = KindDeals
	case "/ask":
		cmd.Kind = KindAsk
	case "/analyse":
		cmd.Kind = KindAnalyse
	case "/morning":
		cmd.Kind = KindMorning
	case "/watchlist":
		cmd.Kind = KindWatchlist
	case "/add":
		cmd.Kind = KindAdd
	case "/remove":
		cmd.Kind = KindRemove
	default:
		cmd.Kind = KindUnknown
	}

	return cmd, nil
}

// splitCommand yields the command token, the first argument, and the
// untouched remainder (second argument as free text).
func splitCommand(text string) (string, string, string) {
	rest := text
	next := func() string {
		i := strings.IndexFunc(rest, unicode.IsSpace)
		if i < 0 {
			tok := rest
			rest = ""
			return tok
		}
		tok := rest[:i]
		rest = strings.TrimLeftFunc(rest[i:], unicode.IsSpace)
		return tok
	}

	token := next()
	arg1 := next()
	return token, arg1, rest
}
