package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/ottersden/otterball/internal/domain/game"
	"github.com/ottersden/otterball/internal/domain/identity"
	"github.com/ottersden/otterball/internal/domain/team"
	"github.com/ottersden/otterball/internal/platform/logging"
)

// matchWindow is how far a secondary source's kickoff may drift from the
// stored schedule and still refer to the same game.
const matchWindow = 12 * time.Hour

// SecondaryTeam is a franchise as listed by a secondary source.
type SecondaryTeam struct {
	ExternalID string
	Code       string
	Name       string
}

// SecondaryEvent is one scoreboard entry from a secondary source.
type SecondaryEvent struct {
	ExternalID         string
	HomeTeamExternalID string
	AwayTeamExternalID string
	HomeScore          *int
	AwayScore          *int
	Completed          bool
	Kickoff            time.Time
}

// EventProvider is a secondary schedule source reconciled against the
// stored season.
type EventProvider interface {
	Teams(ctx context.Context) ([]SecondaryTeam, error)
	Scoreboard(ctx context.Context) ([]SecondaryEvent, error)
}

type ReconcileService struct {
	provider     EventProvider
	source       identity.Source
	teamRepo     team.Repository
	gameRepo     game.Repository
	identityRepo identity.Repository
	logger       *logging.Logger
}

func NewReconcileService(
	provider EventProvider,
	source identity.Source,
	teamRepo team.Repository,
	gameRepo game.Repository,
	identityRepo identity.Repository,
	logger *logging.Logger,
) *ReconcileService {
	if logger == nil {
		logger = logging.Default()
	}
	return &ReconcileService{
		provider:     provider,
		source:       source,
		teamRepo:     teamRepo,
		gameRepo:     gameRepo,
		identityRepo: identityRepo,
		logger:       logger,
	}
}

// Reconcile matches the secondary source's scoreboard against stored games.
// It attaches identifiers and catches up scores, but never creates games:
// an event that cannot be matched unambiguously is reported and skipped.
func (s *ReconcileService) Reconcile(ctx context.Context) (*BatchReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReconcileService.Reconcile")
	defer span.End()

	if !s.source.Valid() {
		return nil, fmt.Errorf("%w: unknown source %q", ErrInvalidInput, s.source)
	}

	var (
		secondaryTeams []SecondaryTeam
		events         []SecondaryEvent
		teamsErr       error
		eventsErr      error
	)

	var wg conc.WaitGroup
	wg.Go(func() { secondaryTeams, teamsErr = s.provider.Teams(ctx) })
	wg.Go(func() { events, eventsErr = s.provider.Scoreboard(ctx) })
	wg.Wait()

	if teamsErr != nil {
		return nil, fmt.Errorf("%w: fetch secondary teams: %v", ErrDependencyUnavailable, teamsErr)
	}
	if eventsErr != nil {
		return nil, fmt.Errorf("%w: fetch secondary scoreboard: %v", ErrDependencyUnavailable, eventsErr)
	}

	teamByExternal, err := s.reconcileTeams(ctx, secondaryTeams)
	if err != nil {
		return nil, err
	}

	report := newBatchReport("reconcile." + string(s.source))
	if len(events) == 0 {
		return report, nil
	}

	gameByExternal, err := s.loadGameIdentifiers(ctx)
	if err != nil {
		return nil, err
	}
	candidates, err := s.loadCandidates(ctx, events)
	if err != nil {
		return nil, err
	}

	// A game carries at most one identifier per source, so games already
	// identified are out of the candidate pool for the window match.
	identifiedGames := make(map[string]struct{}, len(gameByExternal))
	for _, gameID := range gameByExternal {
		identifiedGames[gameID] = struct{}{}
	}

	var (
		updates        []game.Game
		newIdentifiers []identity.GameIdentifier
	)

	for _, ev := range events {
		result := s.reconcileEvent(ev, teamByExternal, gameByExternal, identifiedGames, candidates, &updates, &newIdentifiers)
		report.add(result)
		if result.Status == ItemStatusSkipped {
			s.logger.WarnContext(ctx, "skipping secondary event",
				"source", s.source, "external_id", ev.ExternalID, "reason", result.Reason)
		}
	}

	if err := s.gameRepo.UpsertMany(ctx, updates); err != nil {
		return report, fmt.Errorf("upsert reconciled games: %w", err)
	}
	if err := s.identityRepo.UpsertGameIdentifiers(ctx, newIdentifiers); err != nil {
		return report, fmt.Errorf("upsert game identifiers: %w", err)
	}

	s.logger.InfoContext(ctx, "secondary source reconciled", report.LogFields()...)
	return report, nil
}

func (s *ReconcileService) reconcileEvent(
	ev SecondaryEvent,
	teamByExternal map[string]string,
	gameByExternal map[string]string,
	identifiedGames map[string]struct{},
	candidates []game.Game,
	updates *[]game.Game,
	newIdentifiers *[]identity.GameIdentifier,
) ItemResult {
	homeTeamID, homeOK := teamByExternal[ev.HomeTeamExternalID]
	awayTeamID, awayOK := teamByExternal[ev.AwayTeamExternalID]
	if !homeOK || !awayOK {
		return itemSkipped(ev.ExternalID, "unresolved team reference")
	}

	if gameID, ok := gameByExternal[ev.ExternalID]; ok {
		if updated, ok := applyEventScores(gameID, ev, candidates); ok {
			*updates = append(*updates, updated)
		}
		return itemOK(ev.ExternalID)
	}

	var matched []game.Game
	for _, g := range candidates {
		if _, taken := identifiedGames[g.ID]; taken {
			continue
		}
		if !g.HasTeams(homeTeamID, awayTeamID) {
			continue
		}
		diff := g.Kickoff.Sub(ev.Kickoff)
		if diff < 0 {
			diff = -diff
		}
		if diff <= matchWindow {
			matched = append(matched, g)
		}
	}

	switch len(matched) {
	case 0:
		return itemSkipped(ev.ExternalID, "no stored game within match window")
	case 1:
		identifiedGames[matched[0].ID] = struct{}{}
		*newIdentifiers = append(*newIdentifiers, identity.GameIdentifier{
			Source:     s.source,
			ExternalID: ev.ExternalID,
			GameID:     matched[0].ID,
		})
		if updated, ok := applyEventScores(matched[0].ID, ev, candidates); ok {
			*updates = append(*updates, updated)
		}
		return itemOK(ev.ExternalID)
	default:
		return itemSkipped(ev.ExternalID, fmt.Sprintf("%d ambiguous candidates", len(matched)))
	}
}

// applyEventScores catches the stored game up to a completed event. The
// primary source stays authoritative once it has a result of its own.
func applyEventScores(gameID string, ev SecondaryEvent, candidates []game.Game) (game.Game, bool) {
	if !ev.Completed || ev.HomeScore == nil || ev.AwayScore == nil {
		return game.Game{}, false
	}
	for _, g := range candidates {
		if g.ID != gameID {
			continue
		}
		if g.Finished() {
			return game.Game{}, false
		}
		g.HomeScore = cloneIntPtr(ev.HomeScore)
		g.AwayScore = cloneIntPtr(ev.AwayScore)
		result := *g.HomeScore - *g.AwayScore
		g.Result = &result
		return g, true
	}
	return game.Game{}, false
}

func (s *ReconcileService) reconcileTeams(ctx context.Context, secondaryTeams []SecondaryTeam) (map[string]string, error) {
	existing, err := s.identityRepo.ListTeamIdentifiers(ctx, s.source)
	if err != nil {
		return nil, fmt.Errorf("list team identifiers: %w", err)
	}
	byExternal := make(map[string]string, len(existing))
	for _, id := range existing {
		byExternal[id.ExternalID] = id.TeamID
	}

	stored, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	byCode := make(map[string]string, len(stored))
	for _, t := range stored {
		byCode[team.NormalizeCode(t.ID)] = t.ID
	}

	var fresh []identity.TeamIdentifier
	for _, st := range secondaryTeams {
		if _, ok := byExternal[st.ExternalID]; ok {
			continue
		}
		teamID, ok := byCode[team.NormalizeCode(st.Code)]
		if !ok {
			s.logger.WarnContext(ctx, "secondary team has no stored counterpart",
				"source", s.source, "external_id", st.ExternalID, "code", st.Code)
			continue
		}
		byExternal[st.ExternalID] = teamID
		fresh = append(fresh, identity.TeamIdentifier{
			Source:     s.source,
			ExternalID: st.ExternalID,
			TeamID:     teamID,
		})
	}

	if err := s.identityRepo.UpsertTeamIdentifiers(ctx, fresh); err != nil {
		return nil, fmt.Errorf("upsert team identifiers: %w", err)
	}
	return byExternal, nil
}

func (s *ReconcileService) loadGameIdentifiers(ctx context.Context) (map[string]string, error) {
	existing, err := s.identityRepo.ListGameIdentifiers(ctx, s.source)
	if err != nil {
		return nil, fmt.Errorf("list game identifiers: %w", err)
	}
	out := make(map[string]string, len(existing))
	for _, id := range existing {
		out[id.ExternalID] = id.GameID
	}
	return out, nil
}

func (s *ReconcileService) loadCandidates(ctx context.Context, events []SecondaryEvent) ([]game.Game, error) {
	min, max := events[0].Kickoff, events[0].Kickoff
	for _, ev := range events[1:] {
		if ev.Kickoff.Before(min) {
			min = ev.Kickoff
		}
		if ev.Kickoff.After(max) {
			max = ev.Kickoff
		}
	}

	candidates, err := s.gameRepo.ListByKickoffWindow(ctx, min.Add(-matchWindow), max.Add(matchWindow+time.Second))
	if err != nil {
		return nil, fmt.Errorf("list candidate games: %w", err)
	}
	return candidates, nil
}
