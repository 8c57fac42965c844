package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/ottersden/otterball/internal/domain/game"
	"github.com/ottersden/otterball/internal/domain/poll"
	"github.com/ottersden/otterball/internal/domain/wager"
	"github.com/ottersden/otterball/internal/infrastructure/repository/memory"
	"github.com/ottersden/otterball/internal/platform/logging"
)

type wagerFixture struct {
	pollRepo  *memory.PollRepository
	gameRepo  *memory.GameRepository
	wagerRepo *memory.WagerRepository
	userRepo  *memory.UserRepository
	platform  *stubPlatform
	svc       *WagerService
}

func newWagerFixture(t *testing.T, gameTypeID string) *wagerFixture {
	t.Helper()

	f := &wagerFixture{
		pollRepo: memory.NewPollRepository(),
		gameRepo: memory.NewGameRepository(game.Game{
			ID:         "g1",
			HomeTeamID: "KC",
			AwayTeamID: "SF",
			GameTypeID: gameTypeID,
			Kickoff:    time.Date(2025, 9, 7, 17, 0, 0, 0, time.UTC),
		}),
		wagerRepo: memory.NewWagerRepository(),
		userRepo:  memory.NewUserRepository(),
		platform:  newStubPlatform(),
	}
	f.svc = NewWagerService(f.pollRepo, f.gameRepo, f.wagerRepo, f.userRepo, f.platform, 2, logging.NewNop())

	ctx := context.Background()
	if _, err := f.pollRepo.Create(ctx, poll.Poll{ChannelID: 1, GameID: "g1"}); err != nil {
		t.Fatalf("create poll: %v", err)
	}
	p, _ := f.pollRepo.GetByPair(1, "g1")
	if err := f.pollRepo.SetMessageID(ctx, p.ID, 555); err != nil {
		t.Fatalf("set message id: %v", err)
	}
	return f
}

func (f *wagerFixture) storedWagers(t *testing.T) map[int64]game.Outcome {
	t.Helper()

	stored, err := f.wagerRepo.ListByPoll(context.Background(), 1, "g1")
	if err != nil {
		t.Fatalf("list wagers: %v", err)
	}
	out := make(map[int64]game.Outcome, len(stored))
	for _, w := range stored {
		out[w.UserID] = w.Choice
	}
	return out
}

func TestWagerSyncMirrorsObservedVoters(t *testing.T) {
	t.Parallel()

	f := newWagerFixture(t, "REG")
	f.platform.voters[1] = []Voter{{UserID: 10, Username: "alice"}, {UserID: 11, Username: "bob"}}
	f.platform.voters[3] = []Voter{{UserID: 12, Username: "carol"}}

	report, err := f.svc.SyncOpenPolls(context.Background())
	if err != nil {
		t.Fatalf("sync open polls: %v", err)
	}
	if report.OK() != 1 {
		t.Fatalf("unexpected report: ok=%d failed=%d", report.OK(), report.Failed())
	}

	got := f.storedWagers(t)
	want := map[int64]game.Outcome{
		10: game.OutcomeHome,
		11: game.OutcomeHome,
		12: game.OutcomeTie,
	}
	if len(got) != len(want) {
		t.Fatalf("stored wager set mismatch: %v", got)
	}
	for id, choice := range want {
		if got[id] != choice {
			t.Fatalf("user %d: got %s want %s", id, got[id], choice)
		}
	}

	users, err := f.userRepo.ListByIDs(context.Background(), []int64{10, 11, 12})
	if err != nil || len(users) != 3 {
		t.Fatalf("expected voters upserted as users, got %d err=%v", len(users), err)
	}
}

func TestWagerSyncAppliesSwitchesAndRetractions(t *testing.T) {
	t.Parallel()

	f := newWagerFixture(t, "REG")
	ctx := context.Background()
	f.platform.voters[1] = []Voter{{UserID: 10, Username: "alice"}, {UserID: 11, Username: "bob"}}

	if _, err := f.svc.SyncOpenPolls(ctx); err != nil {
		t.Fatalf("first sync: %v", err)
	}

	// alice retracts, bob switches to the away pick.
	f.platform.voters[1] = nil
	f.platform.voters[2] = []Voter{{UserID: 11, Username: "bob"}}

	if _, err := f.svc.SyncOpenPolls(ctx); err != nil {
		t.Fatalf("second sync: %v", err)
	}

	got := f.storedWagers(t)
	if len(got) != 1 || got[11] != game.OutcomeAway {
		t.Fatalf("expected only bob on away, got %v", got)
	}
}

func TestWagerSyncSkipsTieAnswerOutsideRegularSeason(t *testing.T) {
	t.Parallel()

	f := newWagerFixture(t, "SB")
	f.platform.voters[2] = []Voter{{UserID: 10, Username: "alice"}}
	// A stale third answer must never be consulted for a two-option poll.
	f.platform.voters[3] = []Voter{{UserID: 99, Username: "ghost"}}

	if _, err := f.svc.SyncOpenPolls(context.Background()); err != nil {
		t.Fatalf("sync: %v", err)
	}

	got := f.storedWagers(t)
	if len(got) != 1 || got[10] != game.OutcomeAway {
		t.Fatalf("expected only the away voter, got %v", got)
	}
}

func TestWagerSyncRequiresMessageID(t *testing.T) {
	t.Parallel()

	f := newWagerFixture(t, "REG")
	err := f.svc.SyncPoll(context.Background(), poll.Poll{ID: 7, ChannelID: 1, GameID: "g1"})
	if err == nil {
		t.Fatal("expected error for poll without a platform message")
	}
}

func TestWagerKeyRoundTrip(t *testing.T) {
	t.Parallel()

	w := wager.Wager{UserID: 10, GameID: "g1", ChannelID: 1, Choice: game.OutcomeHome}
	k := w.Key()
	if k.UserID != 10 || k.GameID != "g1" || k.ChannelID != 1 {
		t.Fatalf("unexpected key: %+v", k)
	}
}
