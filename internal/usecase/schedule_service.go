package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ottersden/otterball/internal/domain/game"
	"github.com/ottersden/otterball/internal/domain/gametype"
	"github.com/ottersden/otterball/internal/domain/identity"
	"github.com/ottersden/otterball/internal/domain/team"
	"github.com/ottersden/otterball/internal/platform/logging"
)

// ExternalTeam is one franchise as described by the primary schedule source.
type ExternalTeam struct {
	ExternalID string
	Code       string
	Name       string
	LogoURL    string
	Color      string
}

// ExternalGame is one schedule row from the primary source. Scores are nil
// until the game finishes.
type ExternalGame struct {
	ExternalID   string
	HomeTeamCode string
	AwayTeamCode string
	HomeScore    *int
	AwayScore    *int
	GameTypeID   string
	Kickoff      time.Time
}

// ScheduleProvider is the primary source of truth for the season schedule.
type ScheduleProvider interface {
	TeamCatalogue(ctx context.Context) ([]ExternalTeam, error)
	SeasonSchedule(ctx context.Context, season int) ([]ExternalGame, error)
}

type ScheduleService struct {
	provider     ScheduleProvider
	teamRepo     team.Repository
	gameRepo     game.Repository
	gameTypeRepo gametype.Repository
	identityRepo identity.Repository
	logger       *logging.Logger
}

func NewScheduleService(
	provider ScheduleProvider,
	teamRepo team.Repository,
	gameRepo game.Repository,
	gameTypeRepo gametype.Repository,
	identityRepo identity.Repository,
	logger *logging.Logger,
) *ScheduleService {
	if logger == nil {
		logger = logging.Default()
	}
	return &ScheduleService{
		provider:     provider,
		teamRepo:     teamRepo,
		gameRepo:     gameRepo,
		gameTypeRepo: gameTypeRepo,
		identityRepo: identityRepo,
		logger:       logger,
	}
}

// SyncSeason pulls the primary schedule and upserts teams and games.
// Outcomes are recomputed from results on every pass, so score corrections
// from the source flow through on the next run.
func (s *ScheduleService) SyncSeason(ctx context.Context, season int) (*BatchReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScheduleService.SyncSeason")
	defer span.End()

	if season < 1999 {
		return nil, fmt.Errorf("%w: season %d is out of range", ErrInvalidInput, season)
	}

	if err := s.gameTypeRepo.UpsertTypes(ctx, gametype.Catalogue()); err != nil {
		return nil, fmt.Errorf("upsert game type catalogue: %w", err)
	}

	knownTypes := make(map[string]struct{})
	for _, gt := range gametype.Catalogue() {
		knownTypes[gt.ID] = struct{}{}
	}

	knownTeams, err := s.syncTeams(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.provider.SeasonSchedule(ctx, season)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch season schedule: %v", ErrDependencyUnavailable, err)
	}

	report := newBatchReport("schedule.sync_season")
	games := make([]game.Game, 0, len(rows))
	identifiers := make([]identity.GameIdentifier, 0, len(rows))

	for _, row := range rows {
		g, err := s.mapGame(row, knownTeams, knownTypes)
		if err != nil {
			report.add(itemSkipped(row.ExternalID, err.Error()))
			s.logger.WarnContext(ctx, "skipping schedule row",
				"external_id", row.ExternalID, "reason", err)
			continue
		}
		games = append(games, g)
		identifiers = append(identifiers, identity.GameIdentifier{
			Source:     identity.SourceNFLVerse,
			ExternalID: row.ExternalID,
			GameID:     g.ID,
		})
		report.add(itemOK(row.ExternalID))
	}

	if err := s.gameRepo.UpsertMany(ctx, games); err != nil {
		return report, fmt.Errorf("upsert games: %w", err)
	}
	if err := s.identityRepo.UpsertGameIdentifiers(ctx, identifiers); err != nil {
		return report, fmt.Errorf("upsert game identifiers: %w", err)
	}

	s.logger.InfoContext(ctx, "season schedule synced", report.LogFields()...)
	return report, nil
}

func (s *ScheduleService) syncTeams(ctx context.Context) (map[string]struct{}, error) {
	externals, err := s.provider.TeamCatalogue(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch team catalogue: %v", ErrDependencyUnavailable, err)
	}

	known := make(map[string]struct{}, len(externals))
	teams := make([]team.Team, 0, len(externals))
	identifiers := make([]identity.TeamIdentifier, 0, len(externals))

	for _, ext := range externals {
		t := team.Team{
			ID:      team.NormalizeCode(ext.Code),
			Name:    strings.TrimSpace(ext.Name),
			LogoURL: strings.TrimSpace(ext.LogoURL),
			Color:   strings.TrimSpace(ext.Color),
		}
		if err := t.Validate(); err != nil {
			s.logger.WarnContext(ctx, "skipping team catalogue row",
				"external_id", ext.ExternalID, "reason", err)
			continue
		}
		teams = append(teams, t)
		known[t.ID] = struct{}{}

		externalID := strings.TrimSpace(ext.ExternalID)
		if externalID == "" {
			externalID = t.ID
		}
		identifiers = append(identifiers, identity.TeamIdentifier{
			Source:     identity.SourceNFLVerse,
			ExternalID: externalID,
			TeamID:     t.ID,
		})
	}

	if err := s.teamRepo.UpsertMany(ctx, teams); err != nil {
		return nil, fmt.Errorf("upsert teams: %w", err)
	}
	if err := s.identityRepo.UpsertTeamIdentifiers(ctx, identifiers); err != nil {
		return nil, fmt.Errorf("upsert team identifiers: %w", err)
	}
	return known, nil
}

func (s *ScheduleService) mapGame(row ExternalGame, knownTeams, knownTypes map[string]struct{}) (game.Game, error) {
	home := team.NormalizeCode(row.HomeTeamCode)
	away := team.NormalizeCode(row.AwayTeamCode)
	if _, ok := knownTeams[home]; !ok {
		return game.Game{}, fmt.Errorf("unknown home team %q", row.HomeTeamCode)
	}
	if _, ok := knownTeams[away]; !ok {
		return game.Game{}, fmt.Errorf("unknown away team %q", row.AwayTeamCode)
	}
	gameTypeID := strings.ToUpper(strings.TrimSpace(row.GameTypeID))
	if _, ok := knownTypes[gameTypeID]; !ok {
		return game.Game{}, fmt.Errorf("unknown game type %q", row.GameTypeID)
	}

	g := game.Game{
		ID:         strings.TrimSpace(row.ExternalID),
		HomeTeamID: home,
		AwayTeamID: away,
		HomeScore:  cloneIntPtr(row.HomeScore),
		AwayScore:  cloneIntPtr(row.AwayScore),
		GameTypeID: gameTypeID,
		Kickoff:    row.Kickoff.UTC(),
	}
	if g.HomeScore != nil && g.AwayScore != nil {
		result := *g.HomeScore - *g.AwayScore
		g.Result = &result
	}
	if err := g.Validate(); err != nil {
		return game.Game{}, err
	}
	return g, nil
}

func cloneIntPtr(v *int) *int {
	if v == nil {
		return nil
	}
	value := *v
	return &value
}
