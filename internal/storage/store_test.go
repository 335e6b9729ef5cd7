package storage

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/concalliq/concalliq/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLatestConcallEmpty(t *testing.T) {
	s := openTestStore(t)

	rec, err := s.LatestConcall("RELIANCE")
	if err != nil {
		t.Fatalf("LatestConcall: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected nil record, got %+v", rec)
	}
}

func TestSaveConcallReplaceOnSameQuarter(t *testing.T) {
	s := openTestStore(t)

	first := &models.ConcallRecord{Symbol: "TCS", Quarter: "Q1FY24", Analysis: "first pass"}
	if err := s.SaveConcall(first); err != nil {
		t.Fatalf("SaveConcall: %v", err)
	}
	second := &models.ConcallRecord{Symbol: "TCS", Quarter: "Q1FY24", Analysis: "refined"}
	if err := s.SaveConcall(second); err != nil {
		t.Fatalf("SaveConcall: %v", err)
	}

	rec, err := s.LatestConcall("TCS")
	if err != nil {
		t.Fatalf("LatestConcall: %v", err)
	}
	if rec == nil || rec.Analysis != "refined" {
		t.Fatalf("expected refined analysis, got %+v", rec)
	}

	revs, err := s.ConcallRevisions("TCS", "Q1FY24")
	if err != nil {
		t.Fatalf("ConcallRevisions: %v", err)
	}
	if len(revs) != 2 {
		t.Fatalf("expected 2 revisions, got %d", len(revs))
	}
	if revs[0].Analysis != "first pass" || revs[1].Analysis != "refined" {
		t.Fatalf("revision history out of order: %+v", revs)
	}
}

func TestLatestConcallPicksNewestWrite(t *testing.T) {
	s := openTestStore(t)

	if err := s.SaveConcall(&models.ConcallRecord{Symbol: "INFY", Quarter: "Q4FY23", Analysis: "old"}); err != nil {
		t.Fatalf("SaveConcall: %v", err)
	}
	if err := s.SaveConcall(&models.ConcallRecord{Symbol: "INFY", Quarter: "Q1FY24", Analysis: "new"}); err != nil {
		t.Fatalf("SaveConcall: %v", err)
	}

	rec, err := s.LatestConcall("INFY")
	if err != nil {
		t.Fatalf("LatestConcall: %v", err)
	}
	if rec.Quarter != "Q1FY24" {
		t.Fatalf("expected Q1FY24, got %s", rec.Quarter)
	}

	// Refreshing the older quarter makes it the latest write again.
	if err := s.SaveConcall(&models.ConcallRecord{Symbol: "INFY", Quarter: "Q4FY23", Analysis: "refreshed"}); err != nil {
		t.Fatalf("SaveConcall: %v", err)
	}
	rec, err = s.LatestConcall("INFY")
	if err != nil {
		t.Fatalf("LatestConcall: %v", err)
	}
	if rec.Quarter != "Q4FY23" || rec.Analysis != "refreshed" {
		t.Fatalf("expected refreshed Q4FY23, got %+v", rec)
	}
}

func TestConcurrentSaveSameKey(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	// Two workers racing on the same (symbol, quarter). Last write wins; both
	// must complete without error.
	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, analysis := range []string{"worker a", "worker b"} {
		wg.Add(1)
		go func(analysis string) {
			defer wg.Done()
			s, err := Open(dbPath)
			if err != nil {
				errs <- err
				return
			}
			defer s.Close()
			errs <- s.SaveConcall(&models.ConcallRecord{
				Symbol: "SBIN", Quarter: "Q2FY24", Analysis: analysis,
			})
		}(analysis)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent save: %v", err)
		}
	}

	s, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	rec, err := s.LatestConcall("SBIN")
	if err != nil {
		t.Fatalf("LatestConcall: %v", err)
	}
	if rec == nil || rec.Analysis == "" {
		t.Fatalf("expected one of the racing writes to be readable, got %+v", rec)
	}
}

func TestWatchlistIdempotentAdd(t *testing.T) {
	s := openTestStore(t)

	for i := 0; i < 2; i++ {
		if err := s.AddToWatchlist(42, "BAJFINANCE"); err != nil {
			t.Fatalf("AddToWatchlist: %v", err)
		}
	}

	wl, err := s.Watchlist(42)
	if err != nil {
		t.Fatalf("Watchlist: %v", err)
	}
	if len(wl) != 1 || wl[0] != "BAJFINANCE" {
		t.Fatalf("expected single BAJFINANCE entry, got %v", wl)
	}
}

func TestWatchlistRemoveAbsent(t *testing.T) {
	s := openTestStore(t)

	if err := s.AddToWatchlist(42, "TCS"); err != nil {
		t.Fatalf("AddToWatchlist: %v", err)
	}
	if err := s.RemoveFromWatchlist(42, "NOTHELD"); err != nil {
		t.Fatalf("RemoveFromWatchlist should tolerate absent rows: %v", err)
	}

	wl, err := s.Watchlist(42)
	if err != nil {
		t.Fatalf("Watchlist: %v", err)
	}
	if len(wl) != 1 || wl[0] != "TCS" {
		t.Fatalf("watchlist changed by no-op remove: %v", wl)
	}
}

func TestWatchlistChatsAndAlerts(t *testing.T) {
	s := openTestStore(t)

	if err := s.AddToWatchlist(1, "TCS"); err != nil {
		t.Fatalf("AddToWatchlist: %v", err)
	}
	if err := s.AddToWatchlist(1, "INFY"); err != nil {
		t.Fatalf("AddToWatchlist: %v", err)
	}
	if err := s.AddToWatchlist(2, "SBIN"); err != nil {
		t.Fatalf("AddToWatchlist: %v", err)
	}

	chats, err := s.WatchlistChats()
	if err != nil {
		t.Fatalf("WatchlistChats: %v", err)
	}
	if len(chats) != 2 {
		t.Fatalf("expected 2 chats, got %v", chats)
	}

	if err := s.LogAlert(1, "TCS", "digest sent"); err != nil {
		t.Fatalf("LogAlert: %v", err)
	}
}
