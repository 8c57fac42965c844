package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/ottersden/otterball/internal/domain/game"
	"github.com/ottersden/otterball/internal/domain/gametype"
	"github.com/ottersden/otterball/internal/domain/user"
	"github.com/ottersden/otterball/internal/domain/wager"
	"github.com/ottersden/otterball/internal/infrastructure/repository/memory"
	"github.com/ottersden/otterball/internal/platform/logging"
)

func intPtr(v int) *int { return &v }

type scoringFixture struct {
	wagerRepo    *memory.WagerRepository
	gameRepo     *memory.GameRepository
	gameTypeRepo *memory.GameTypeRepository
	userRepo     *memory.UserRepository
	svc          *ScoringService
}

// newScoringFixture seeds two finished games (one regular season, one
// super bowl) and one still running.
func newScoringFixture(t *testing.T) *scoringFixture {
	t.Helper()

	kickoff := time.Date(2025, 9, 7, 17, 0, 0, 0, time.UTC)
	f := &scoringFixture{
		wagerRepo: memory.NewWagerRepository(),
		gameRepo: memory.NewGameRepository(
			game.Game{
				ID: "reg", HomeTeamID: "KC", AwayTeamID: "SF", GameTypeID: "REG",
				Kickoff: kickoff, HomeScore: intPtr(27), AwayScore: intPtr(20), Result: intPtr(7),
			},
			game.Game{
				ID: "sb", HomeTeamID: "SF", AwayTeamID: "KC", GameTypeID: "SB",
				Kickoff: kickoff.Add(24 * time.Hour), HomeScore: intPtr(17), AwayScore: intPtr(31), Result: intPtr(-14),
			},
			game.Game{
				ID: "live", HomeTeamID: "KC", AwayTeamID: "SF", GameTypeID: "REG",
				Kickoff: kickoff.Add(48 * time.Hour),
			},
		),
		gameTypeRepo: memory.NewGameTypeRepository(gametype.Catalogue()...),
		userRepo:     memory.NewUserRepository(),
	}
	f.svc = NewScoringService(f.wagerRepo, f.gameRepo, f.gameTypeRepo, f.userRepo, logging.NewNop())

	ctx := context.Background()
	if err := f.userRepo.UpsertMany(ctx, []user.User{
		{ID: 10, Username: "alice"},
		{ID: 11, Username: "bob"},
		{ID: 12, Username: "carol"},
	}); err != nil {
		t.Fatalf("seed users: %v", err)
	}
	return f
}

func (f *scoringFixture) placeWager(t *testing.T, userID int64, gameID string, choice game.Outcome) {
	t.Helper()

	w := wager.Wager{UserID: userID, GameID: gameID, ChannelID: 1, Choice: choice}
	if err := f.wagerRepo.Upsert(context.Background(), w); err != nil {
		t.Fatalf("place wager: %v", err)
	}
}

func TestEarnedPointsCountsOnlyCorrectFinishedPicks(t *testing.T) {
	t.Parallel()

	f := newScoringFixture(t)
	f.placeWager(t, 10, "reg", game.OutcomeHome)  // correct
	f.placeWager(t, 10, "sb", game.OutcomeHome)   // wrong, away won
	f.placeWager(t, 10, "live", game.OutcomeHome) // not finished

	points, err := f.svc.EarnedPoints(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("earned points: %v", err)
	}
	if points != 1 {
		t.Fatalf("expected 1 point, got %v", points)
	}
}

func TestEarnedPointsAppliesChannelScaling(t *testing.T) {
	t.Parallel()

	f := newScoringFixture(t)
	f.gameTypeRepo.SetScaling(gametype.Scaling{ChannelID: 1, GameTypeID: "SB", Factor: 2.5})
	f.placeWager(t, 10, "reg", game.OutcomeHome)
	f.placeWager(t, 10, "sb", game.OutcomeAway)

	points, err := f.svc.EarnedPoints(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("earned points: %v", err)
	}
	if points != 3.5 {
		t.Fatalf("expected 3.5 points with scaled super bowl, got %v", points)
	}
}

func TestLeaderboardTiesShareAPlace(t *testing.T) {
	t.Parallel()

	f := newScoringFixture(t)
	// alice and bob both call the regular season game, carol misses both.
	f.placeWager(t, 10, "reg", game.OutcomeHome)
	f.placeWager(t, 11, "reg", game.OutcomeHome)
	f.placeWager(t, 12, "reg", game.OutcomeAway)
	f.placeWager(t, 12, "sb", game.OutcomeHome)

	entries, err := f.svc.Leaderboard(context.Background(), 1)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected two score groups, got %d", len(entries))
	}

	first := entries[0]
	if first.Place != 1 || first.Score != 1 || len(first.UserIDs) != 2 {
		t.Fatalf("unexpected first entry: %+v", first)
	}
	if first.Usernames[0] != "alice" || first.Usernames[1] != "bob" {
		t.Fatalf("tied names should sort alphabetically, got %v", first.Usernames)
	}

	// The place after a two-way tie is third, not second.
	second := entries[1]
	if second.Place != 3 || second.Score != 0 {
		t.Fatalf("unexpected second entry: %+v", second)
	}
	if len(second.UserIDs) != 1 || second.UserIDs[0] != 12 {
		t.Fatalf("expected carol alone at zero, got %+v", second)
	}
}

func TestLeaderboardIncludesZeroScoreVoters(t *testing.T) {
	t.Parallel()

	f := newScoringFixture(t)
	f.placeWager(t, 12, "live", game.OutcomeHome)

	entries, err := f.svc.Leaderboard(context.Background(), 1)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(entries) != 1 || entries[0].Score != 0 || entries[0].UserIDs[0] != 12 {
		t.Fatalf("expected carol at zero, got %+v", entries)
	}
}

func TestLeaderboardEmptyChannel(t *testing.T) {
	t.Parallel()

	f := newScoringFixture(t)
	entries, err := f.svc.Leaderboard(context.Background(), 42)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty leaderboard, got %+v", entries)
	}
}
