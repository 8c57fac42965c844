package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/ottersden/otterball/internal/domain/game"
	"github.com/ottersden/otterball/internal/domain/identity"
	"github.com/ottersden/otterball/internal/domain/team"
	"github.com/ottersden/otterball/internal/infrastructure/repository/memory"
	"github.com/ottersden/otterball/internal/platform/logging"
)

type stubEventProvider struct {
	teams  []SecondaryTeam
	events []SecondaryEvent
}

func (s *stubEventProvider) Teams(context.Context) ([]SecondaryTeam, error) {
	return s.teams, nil
}

func (s *stubEventProvider) Scoreboard(context.Context) ([]SecondaryEvent, error) {
	return s.events, nil
}

func reconcileFixture(kickoff time.Time) (*memory.TeamRepository, *memory.GameRepository, *memory.IdentityRepository) {
	teamRepo := memory.NewTeamRepository(
		team.Team{ID: "KC", Name: "Kansas City Chiefs"},
		team.Team{ID: "SF", Name: "San Francisco 49ers"},
	)
	gameRepo := memory.NewGameRepository(game.Game{
		ID:         "2025_01_SF_KC",
		HomeTeamID: "KC",
		AwayTeamID: "SF",
		GameTypeID: "REG",
		Kickoff:    kickoff,
	})
	return teamRepo, gameRepo, memory.NewIdentityRepository()
}

func espnTeams() []SecondaryTeam {
	return []SecondaryTeam{
		{ExternalID: "12", Code: "kc", Name: "Chiefs"},
		{ExternalID: "25", Code: "sf", Name: "49ers"},
	}
}

func TestReconcileMatchesWithinWindowAndSwappedOrder(t *testing.T) {
	t.Parallel()

	kickoff := time.Date(2025, 9, 7, 17, 0, 0, 0, time.UTC)
	teamRepo, gameRepo, identityRepo := reconcileFixture(kickoff)

	// Secondary source lists the pairing the other way round and three
	// hours off.
	provider := &stubEventProvider{
		teams: espnTeams(),
		events: []SecondaryEvent{{
			ExternalID:         "401001",
			HomeTeamExternalID: "25",
			AwayTeamExternalID: "12",
			Kickoff:            kickoff.Add(3 * time.Hour),
		}},
	}

	svc := NewReconcileService(provider, identity.SourceESPN, teamRepo, gameRepo, identityRepo, logging.NewNop())
	report, err := svc.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if report.OK() != 1 || report.Skipped() != 0 {
		t.Fatalf("unexpected report: ok=%d skipped=%d", report.OK(), report.Skipped())
	}

	ids, _ := identityRepo.ListGameIdentifiers(context.Background(), identity.SourceESPN)
	if len(ids) != 1 || ids[0].GameID != "2025_01_SF_KC" {
		t.Fatalf("unexpected identifiers: %+v", ids)
	}
}

func TestReconcileAttachesAtMostOneIdentifierPerGame(t *testing.T) {
	t.Parallel()

	kickoff := time.Date(2025, 9, 7, 17, 0, 0, 0, time.UTC)
	teamRepo, gameRepo, identityRepo := reconcileFixture(kickoff)

	// Two events for the same pairing, both inside the match window of the
	// one stored game. Only the first may claim it.
	provider := &stubEventProvider{
		teams: espnTeams(),
		events: []SecondaryEvent{
			{
				ExternalID:         "401001",
				HomeTeamExternalID: "12",
				AwayTeamExternalID: "25",
				Kickoff:            kickoff,
			},
			{
				ExternalID:         "401002",
				HomeTeamExternalID: "12",
				AwayTeamExternalID: "25",
				Kickoff:            kickoff.Add(10 * time.Hour),
			},
		},
	}

	svc := NewReconcileService(provider, identity.SourceESPN, teamRepo, gameRepo, identityRepo, logging.NewNop())
	report, err := svc.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if report.OK() != 1 || report.Skipped() != 1 {
		t.Fatalf("expected one match and one skip, report: ok=%d skipped=%d", report.OK(), report.Skipped())
	}

	ids, _ := identityRepo.ListGameIdentifiers(context.Background(), identity.SourceESPN)
	if len(ids) != 1 || ids[0].ExternalID != "401001" {
		t.Fatalf("game must carry one identifier for the source, got %+v", ids)
	}

	// A later pass with yet another external id must not claim it either.
	provider.events = []SecondaryEvent{{
		ExternalID:         "401003",
		HomeTeamExternalID: "12",
		AwayTeamExternalID: "25",
		Kickoff:            kickoff.Add(-10 * time.Hour),
	}}
	report, err = svc.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("second reconcile: %v", err)
	}
	if report.Skipped() != 1 {
		t.Fatalf("identified game must be off the candidate pool, report: ok=%d skipped=%d", report.OK(), report.Skipped())
	}
	ids, _ = identityRepo.ListGameIdentifiers(context.Background(), identity.SourceESPN)
	if len(ids) != 1 {
		t.Fatalf("expected identifier count to stay at one, got %+v", ids)
	}
}

func TestReconcileSkipsOutsideWindow(t *testing.T) {
	t.Parallel()

	kickoff := time.Date(2025, 9, 7, 17, 0, 0, 0, time.UTC)
	teamRepo, gameRepo, identityRepo := reconcileFixture(kickoff)

	provider := &stubEventProvider{
		teams: espnTeams(),
		events: []SecondaryEvent{{
			ExternalID:         "401002",
			HomeTeamExternalID: "12",
			AwayTeamExternalID: "25",
			Kickoff:            kickoff.Add(13 * time.Hour),
		}},
	}

	svc := NewReconcileService(provider, identity.SourceESPN, teamRepo, gameRepo, identityRepo, logging.NewNop())
	report, err := svc.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if report.Skipped() != 1 {
		t.Fatalf("expected skip outside window, report: ok=%d skipped=%d", report.OK(), report.Skipped())
	}

	// An unmatched event must never create a game.
	games, _ := gameRepo.ListByKickoffWindow(context.Background(), kickoff.Add(-24*time.Hour), kickoff.Add(48*time.Hour))
	if len(games) != 1 {
		t.Fatalf("expected the one seeded game, got %d", len(games))
	}
}

func TestReconcileSkipsAmbiguousCandidates(t *testing.T) {
	t.Parallel()

	kickoff := time.Date(2025, 9, 7, 17, 0, 0, 0, time.UTC)
	teamRepo, gameRepo, identityRepo := reconcileFixture(kickoff)
	_ = gameRepo.UpsertMany(context.Background(), []game.Game{{
		ID:         "2025_01_SF_KC_b",
		HomeTeamID: "SF",
		AwayTeamID: "KC",
		GameTypeID: "REG",
		Kickoff:    kickoff.Add(6 * time.Hour),
	}})

	provider := &stubEventProvider{
		teams: espnTeams(),
		events: []SecondaryEvent{{
			ExternalID:         "401003",
			HomeTeamExternalID: "12",
			AwayTeamExternalID: "25",
			Kickoff:            kickoff.Add(2 * time.Hour),
		}},
	}

	svc := NewReconcileService(provider, identity.SourceESPN, teamRepo, gameRepo, identityRepo, logging.NewNop())
	report, err := svc.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if report.Skipped() != 1 {
		t.Fatalf("expected ambiguity skip, report: ok=%d skipped=%d", report.OK(), report.Skipped())
	}
	ids, _ := identityRepo.ListGameIdentifiers(context.Background(), identity.SourceESPN)
	if len(ids) != 0 {
		t.Fatalf("ambiguous event must not map, got %+v", ids)
	}
}

func TestReconcileAppliesScoresFromCompletedEvent(t *testing.T) {
	t.Parallel()

	kickoff := time.Date(2025, 9, 7, 17, 0, 0, 0, time.UTC)
	teamRepo, gameRepo, identityRepo := reconcileFixture(kickoff)

	homeScore, awayScore := 27, 20
	provider := &stubEventProvider{
		teams: espnTeams(),
		events: []SecondaryEvent{{
			ExternalID:         "401004",
			HomeTeamExternalID: "12",
			AwayTeamExternalID: "25",
			HomeScore:          &homeScore,
			AwayScore:          &awayScore,
			Completed:          true,
			Kickoff:            kickoff,
		}},
	}

	svc := NewReconcileService(provider, identity.SourceESPN, teamRepo, gameRepo, identityRepo, logging.NewNop())
	if _, err := svc.Reconcile(context.Background()); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	g, ok, _ := gameRepo.GetByID(context.Background(), "2025_01_SF_KC")
	if !ok || g.Result == nil || *g.Result != 7 {
		t.Fatalf("expected result 7 from completed event, got %+v ok=%v", g.Result, ok)
	}
	if g.Outcome() != game.OutcomeHome {
		t.Fatalf("expected home outcome, got %s", g.Outcome())
	}

	// Second run resolves through the stored identifier and stays stable.
	report, err := svc.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("second reconcile: %v", err)
	}
	if report.OK() != 1 {
		t.Fatalf("expected identifier hit on second run, report: ok=%d skipped=%d", report.OK(), report.Skipped())
	}
}
