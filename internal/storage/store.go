// Package storage persists cached concall analyses, per-chat watchlists and
// the outbound alert log in a local sqlite database. Callers open a Store per
// operation and close it on every exit path; WAL mode keeps concurrent
// workers from contending on a shared handle.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/concalliq/concalliq/internal/models"
)

type Store struct {
	db *sql.DB
}

func Open(dbPath string) (*Store, error) {
	db, err := openDB(dbPath)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// LatestConcall returns the most recently written record for symbol across
// all quarters, or nil when none exists.
func (s *Store) LatestConcall(symbol string) (*models.ConcallRecord, error) {
	row := s.db.QueryRow(`
		SELECT id, symbol, quarter, date, subject, analysis, sentiment, fetched_at
		FROM concalls WHERE symbol = ? ORDER BY rowid DESC LIMIT 1`, symbol)

	var rec models.ConcallRecord
	err := row.Scan(&rec.ID, &rec.Symbol, &rec.Quarter, &rec.Date,
		&rec.Subject, &rec.Analysis, &rec.Sentiment, &rec.FetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query concall for %s: %w", symbol, err)
	}
	return &rec, nil
}

// SaveConcall replaces any record for (symbol, quarter) and appends the write
// to the revision history. INSERT OR REPLACE re-inserts with a fresh rowid, so
// the refreshed record becomes the latest one for its symbol.
func (s *Store) SaveConcall(rec *models.ConcallRecord) error {
	if rec.FetchedAt == "" {
		rec.FetchedAt = time.Now().Format(time.RFC3339)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT OR REPLACE INTO concalls
		(symbol, quarter, date, subject, analysis, sentiment, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Symbol, rec.Quarter, rec.Date, rec.Subject,
		rec.Analysis, rec.Sentiment, rec.FetchedAt)
	if err != nil {
		return fmt.Errorf("save concall %s %s: %w", rec.Symbol, rec.Quarter, err)
	}

	_, err = tx.Exec(`
		INSERT INTO concall_revisions
		(symbol, quarter, date, subject, analysis, sentiment, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Symbol, rec.Quarter, rec.Date, rec.Subject,
		rec.Analysis, rec.Sentiment, rec.FetchedAt)
	if err != nil {
		return fmt.Errorf("save concall revision %s %s: %w", rec.Symbol, rec.Quarter, err)
	}

	return tx.Commit()
}

// ConcallRevisions returns the full write history for (symbol, quarter),
// oldest first.
func (s *Store) ConcallRevisions(symbol, quarter string) ([]models.ConcallRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, symbol, quarter, date, subject, analysis, sentiment, fetched_at
		FROM concall_revisions WHERE symbol = ? AND quarter = ? ORDER BY id`,
		symbol, quarter)
	if err != nil {
		return nil, fmt.Errorf("query revisions for %s %s: %w", symbol, quarter, err)
	}
	defer rows.Close()

	var out []models.ConcallRecord
	for rows.Next() {
		var rec models.ConcallRecord
		if err := rows.Scan(&rec.ID, &rec.Symbol, &rec.Quarter, &rec.Date,
			&rec.Subject, &rec.Analysis, &rec.Sentiment, &rec.FetchedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Watchlist returns the symbols a chat follows, in store order. An empty
// result means the caller should fall back to models.DefaultWatchlist.
func (s *Store) Watchlist(chatID int64) ([]string, error) {
	rows, err := s.db.Query(`SELECT symbol FROM user_watchlist WHERE chat_id = ?`, chatID)
	if err != nil {
		return nil, fmt.Errorf("query watchlist for %d: %w", chatID, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, err
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

// AddToWatchlist is an idempotent insert-if-absent.
func (s *Store) AddToWatchlist(chatID int64, symbol string) error {
	_, err := s.db.Exec(`INSERT OR IGNORE INTO user_watchlist (chat_id, symbol) VALUES (?, ?)`,
		chatID, symbol)
	if err != nil {
		return fmt.Errorf("add %s to watchlist: %w", symbol, err)
	}
	return nil
}

// RemoveFromWatchlist deletes the pair if present; absence is not an error.
func (s *Store) RemoveFromWatchlist(chatID int64, symbol string) error {
	_, err := s.db.Exec(`DELETE FROM user_watchlist WHERE chat_id = ? AND symbol = ?`,
		chatID, symbol)
	if err != nil {
		return fmt.Errorf("remove %s from watchlist: %w", symbol, err)
	}
	return nil
}

// WatchlistChats returns every chat that has at least one watchlist entry.
func (s *Store) WatchlistChats() ([]int64, error) {
	rows, err := s.db.Query(`SELECT DISTINCT chat_id FROM user_watchlist`)
	if err != nil {
		return nil, fmt.Errorf("query watchlist chats: %w", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// LogAlert appends to the outbound alert audit trail.
func (s *Store) LogAlert(chatID int64, symbol, message string) error {
	_, err := s.db.Exec(`INSERT INTO alerts_sent (chat_id, symbol, message, sent_at) VALUES (?, ?, ?, ?)`,
		chatID, symbol, message, time.Now().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("log alert for %d/%s: %w", chatID, symbol, err)
	}
	return nil
}
