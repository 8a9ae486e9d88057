package repository

import (
	"testing"
	"time"
)

func TestRecordDiscoverer_FirstGetsFlagAndRankOne(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStatsRepository(db)
	at := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	isFirst, rank, err := repo.RecordDiscoverer(1, 10, at)
	if err != nil {
		t.Fatalf("RecordDiscoverer() failed: %v", err)
	}
	if !isFirst {
		t.Error("Expected first discoverer to get the first-global flag")
	}
	if rank != 1 {
		t.Errorf("Rank = %d, want 1", rank)
	}

	stats, err := repo.GetByLandmark(1)
	if err != nil {
		t.Fatalf("GetByLandmark() failed: %v", err)
	}
	if stats.FirstDiscovererID == nil || *stats.FirstDiscovererID != 10 {
		t.Errorf("FirstDiscovererID = %v, want 10", stats.FirstDiscovererID)
	}
	if stats.DiscoveryCount != 1 {
		t.Errorf("DiscoveryCount = %d, want 1", stats.DiscoveryCount)
	}
}

func TestRecordDiscoverer_LaterDiscoverersIncrementRank(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStatsRepository(db)
	at := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	if _, _, err := repo.RecordDiscoverer(1, 10, at); err != nil {
		t.Fatalf("First RecordDiscoverer() failed: %v", err)
	}

	isFirst, rank, err := repo.RecordDiscoverer(1, 20, at.Add(time.Hour))
	if err != nil {
		t.Fatalf("Second RecordDiscoverer() failed: %v", err)
	}
	if isFirst {
		t.Error("Expected second discoverer not to get the first-global flag")
	}
	if rank != 2 {
		t.Errorf("Second rank = %d, want 2", rank)
	}

	isFirst, rank, err = repo.RecordDiscoverer(1, 30, at.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("Third RecordDiscoverer() failed: %v", err)
	}
	if isFirst || rank != 3 {
		t.Errorf("Third discoverer: isFirst=%v rank=%d, want false/3", isFirst, rank)
	}

	// The first-discoverer flag never moves.
	stats, err := repo.GetByLandmark(1)
	if err != nil {
		t.Fatalf("GetByLandmark() failed: %v", err)
	}
	if stats.FirstDiscovererID == nil || *stats.FirstDiscovererID != 10 {
		t.Errorf("FirstDiscovererID = %v, want 10 after later discoverers", stats.FirstDiscovererID)
	}
}

func TestRecordDiscoverer_IndependentPerLandmark(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStatsRepository(db)
	at := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	if _, _, err := repo.RecordDiscoverer(1, 10, at); err != nil {
		t.Fatalf("RecordDiscoverer() failed: %v", err)
	}

	isFirst, rank, err := repo.RecordDiscoverer(2, 10, at.Add(time.Hour))
	if err != nil {
		t.Fatalf("RecordDiscoverer() failed: %v", err)
	}
	if !isFirst || rank != 1 {
		t.Errorf("Expected first-global rank 1 on a fresh landmark, got isFirst=%v rank=%d", isFirst, rank)
	}
}

func TestDiscoverersByLandmark_InDiscoveryOrder(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStatsRepository(db)
	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	for i, userID := range []uint{10, 20, 30} {
		if _, _, err := repo.RecordDiscoverer(1, userID, base.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatalf("RecordDiscoverer() failed: %v", err)
		}
	}

	discoverers, err := repo.DiscoverersByLandmark(1)
	if err != nil {
		t.Fatalf("DiscoverersByLandmark() failed: %v", err)
	}
	if len(discoverers) != 3 {
		t.Fatalf("Expected 3 discoverers, got %d", len(discoverers))
	}
	for i, want := range []uint{10, 20, 30} {
		if discoverers[i].UserID != want {
			t.Errorf("Position %d: user %d, want %d", i, discoverers[i].UserID, want)
		}
	}
}
