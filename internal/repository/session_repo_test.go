package repository

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"turing-backend/internal/models"
)

func newTestSessionRepo(t *testing.T) (*SessionRepo, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewSessionRepo(client), mr
}

func TestSessionRepo_SaveAndLoad(t *testing.T) {
	repo, mr := newTestSessionRepo(t)
	ctx := context.Background()

	stats := models.SessionStats{
		SessionID:      "abc",
		RoundsPlayed:   2,
		TotalQuestions: 6,
		TotalCorrect:   4,
		StartTime:      time.Now().Truncate(time.Second),
		Rounds: []models.SessionRound{
			{RoundID: "r1", Score: 2, NumQuestions: 3},
			{RoundID: "r2", Score: 2, NumQuestions: 3},
		},
	}

	if err := repo.Save(ctx, stats); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !mr.Exists("session:abc") {
		t.Fatal("Expected redis key session:abc to be set")
	}

	loaded, ok, err := repo.Load(ctx, "abc")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !ok {
		t.Fatal("Expected session to exist")
	}
	if loaded.RoundsPlayed != 2 || loaded.TotalCorrect != 4 {
		t.Errorf("Unexpected loaded stats: %+v", loaded)
	}
	if len(loaded.Rounds) != 2 || loaded.Rounds[0].RoundID != "r1" {
		t.Errorf("Expected round order preserved, got %+v", loaded.Rounds)
	}
}

func TestSessionRepo_LoadMissing(t *testing.T) {
	repo, _ := newTestSessionRepo(t)

	_, ok, err := repo.Load(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if ok {
		t.Error("Expected missing session to report ok=false")
	}
}

func TestSessionRepo_Delete(t *testing.T) {
	repo, mr := newTestSessionRepo(t)
	ctx := context.Background()

	if err := repo.Save(ctx, models.SessionStats{SessionID: "gone"}); err != nil {
		t.Fatal(err)
	}
	if err := repo.Delete(ctx, "gone"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if mr.Exists("session:gone") {
		t.Error("Expected key to be removed")
	}
}

func TestSessionRepo_Expiry(t *testing.T) {
	repo, mr := newTestSessionRepo(t)
	ctx := context.Background()

	if err := repo.Save(ctx, models.SessionStats{SessionID: "ttl"}); err != nil {
		t.Fatal(err)
	}

	mr.FastForward(sessionTTL + time.Minute)

	_, ok, err := repo.Load(ctx, "ttl")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if ok {
		t.Error("Expected session to expire")
	}
}
