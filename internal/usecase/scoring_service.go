package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/ottersden/otterball/internal/domain/game"
	"github.com/ottersden/otterball/internal/domain/gametype"
	"github.com/ottersden/otterball/internal/domain/user"
	"github.com/ottersden/otterball/internal/domain/wager"
	"github.com/ottersden/otterball/internal/platform/logging"
	"github.com/ottersden/otterball/internal/platform/resilience"
)

// LeaderboardEntry is one place on a channel leaderboard. Users with equal
// scores share the entry; the next place advances by the size of the group.
type LeaderboardEntry struct {
	Place     int
	Score     float64
	UserIDs   []int64
	Usernames []string
}

type ScoringService struct {
	wagerRepo    wager.Repository
	gameRepo     game.Repository
	gameTypeRepo gametype.Repository
	userRepo     user.Repository
	logger       *logging.Logger
	ensureGroup  resilience.SingleFlight
}

func NewScoringService(
	wagerRepo wager.Repository,
	gameRepo game.Repository,
	gameTypeRepo gametype.Repository,
	userRepo user.Repository,
	logger *logging.Logger,
) *ScoringService {
	if logger == nil {
		logger = logging.Default()
	}
	return &ScoringService{
		wagerRepo:    wagerRepo,
		gameRepo:     gameRepo,
		gameTypeRepo: gameTypeRepo,
		userRepo:     userRepo,
		logger:       logger,
	}
}

// EarnedPoints sums the scaling factors over finished games in the channel
// where the user called the outcome.
func (s *ScoringService) EarnedPoints(ctx context.Context, channelID, userID int64) (float64, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringService.EarnedPoints")
	defer span.End()

	scores, err := s.channelScores(ctx, channelID)
	if err != nil {
		return 0, err
	}
	return scores[userID], nil
}

// Leaderboard ranks every wager-holding user of the channel. Ties share a
// place and the following place skips past the tied group.
func (s *ScoringService) Leaderboard(ctx context.Context, channelID int64) ([]LeaderboardEntry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringService.Leaderboard")
	defer span.End()

	scores, err := s.channelScores(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if len(scores) == 0 {
		return nil, nil
	}

	userIDs := make([]int64, 0, len(scores))
	for id := range scores {
		userIDs = append(userIDs, id)
	}
	users, err := s.userRepo.ListByIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("list leaderboard users: %w", err)
	}
	nameByID := make(map[int64]string, len(users))
	for _, u := range users {
		nameByID[u.ID] = u.Username
	}

	byScore := make(map[float64][]int64)
	for id, score := range scores {
		byScore[score] = append(byScore[score], id)
	}
	distinct := make([]float64, 0, len(byScore))
	for score := range byScore {
		distinct = append(distinct, score)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(distinct)))

	entries := make([]LeaderboardEntry, 0, len(distinct))
	place := 1
	for _, score := range distinct {
		ids := byScore[score]
		sort.Slice(ids, func(i, j int) bool {
			if nameByID[ids[i]] != nameByID[ids[j]] {
				return nameByID[ids[i]] < nameByID[ids[j]]
			}
			return ids[i] < ids[j]
		})

		names := make([]string, 0, len(ids))
		for _, id := range ids {
			name := nameByID[id]
			if name == "" {
				name = fmt.Sprintf("user %d", id)
			}
			names = append(names, name)
		}

		entries = append(entries, LeaderboardEntry{
			Place:     place,
			Score:     score,
			UserIDs:   ids,
			Usernames: names,
		})
		place += len(ids)
	}
	return entries, nil
}

// channelScores computes every user's total for the channel in one pass.
func (s *ScoringService) channelScores(ctx context.Context, channelID int64) (map[int64]float64, error) {
	wagers, err := s.wagerRepo.ListByChannel(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("list channel wagers: %w", err)
	}
	if len(wagers) == 0 {
		return map[int64]float64{}, nil
	}

	gameIDs := make([]string, 0, len(wagers))
	seen := make(map[string]struct{}, len(wagers))
	for _, w := range wagers {
		if _, ok := seen[w.GameID]; ok {
			continue
		}
		seen[w.GameID] = struct{}{}
		gameIDs = append(gameIDs, w.GameID)
	}

	games, err := s.gameRepo.ListByIDs(ctx, gameIDs)
	if err != nil {
		return nil, fmt.Errorf("list wagered games: %w", err)
	}
	gameByID := make(map[string]game.Game, len(games))
	for _, g := range games {
		gameByID[g.ID] = g
	}

	factors, err := s.scalingFactors(ctx, channelID)
	if err != nil {
		return nil, err
	}

	scores := make(map[int64]float64)
	for _, w := range wagers {
		if _, ok := scores[w.UserID]; !ok {
			scores[w.UserID] = 0
		}
		g, ok := gameByID[w.GameID]
		if !ok || !g.Finished() {
			continue
		}
		if w.Choice != g.Outcome() {
			continue
		}
		factor, ok := factors[g.GameTypeID]
		if !ok {
			factor = gametype.DefaultFactor
		}
		scores[w.UserID] += factor
	}
	return scores, nil
}

// scalingFactors seeds missing rows with the default factor, collapsing
// concurrent seeding for the same channel into one write.
func (s *ScoringService) scalingFactors(ctx context.Context, channelID int64) (map[string]float64, error) {
	typeIDs := make([]string, 0, len(gametype.Catalogue()))
	for _, gt := range gametype.Catalogue() {
		typeIDs = append(typeIDs, gt.ID)
	}

	key := fmt.Sprintf("scalings:%d", channelID)
	_, err, _ := s.ensureGroup.Do(key, func() (any, error) {
		return nil, s.gameTypeRepo.EnsureScalings(ctx, channelID, typeIDs)
	})
	if err != nil {
		return nil, fmt.Errorf("ensure channel scalings: %w", err)
	}

	scalings, err := s.gameTypeRepo.ListScalings(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("list channel scalings: %w", err)
	}

	out := make(map[string]float64, len(scalings))
	for _, sc := range scalings {
		out[sc.GameTypeID] = sc.Factor
	}
	return out, nil
}
