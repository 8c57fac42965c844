package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/ottersden/otterball/internal/domain/game"
	"github.com/ottersden/otterball/internal/domain/gametype"
	"github.com/ottersden/otterball/internal/domain/poll"
	"github.com/ottersden/otterball/internal/domain/user"
	"github.com/ottersden/otterball/internal/domain/wager"
	"github.com/ottersden/otterball/internal/platform/logging"
)

const defaultWagerSyncWorkers = 8

type WagerService struct {
	pollRepo  poll.Repository
	gameRepo  game.Repository
	wagerRepo wager.Repository
	userRepo  user.Repository
	platform  ChatPlatform
	workers   int
	logger    *logging.Logger
}

func NewWagerService(
	pollRepo poll.Repository,
	gameRepo game.Repository,
	wagerRepo wager.Repository,
	userRepo user.Repository,
	platform ChatPlatform,
	workers int,
	logger *logging.Logger,
) *WagerService {
	if workers < 1 {
		workers = defaultWagerSyncWorkers
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &WagerService{
		pollRepo:  pollRepo,
		gameRepo:  gameRepo,
		wagerRepo: wagerRepo,
		userRepo:  userRepo,
		platform:  platform,
		workers:   workers,
		logger:    logger,
	}
}

// SyncOpenPolls mirrors the stored wager set of every open poll onto the
// voters currently visible on the platform. Polls fan out onto a worker
// pool; one failing poll never stops the others.
func (s *WagerService) SyncOpenPolls(ctx context.Context) (*BatchReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WagerService.SyncOpenPolls")
	defer span.End()

	polls, err := s.pollRepo.ListOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("list open polls: %w", err)
	}

	report := newBatchReport("wager.sync_open_polls")
	if len(polls) == 0 {
		return report, nil
	}

	workers := s.workers
	if workers > len(polls) {
		workers = len(polls)
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("create wager sync pool: %w", err)
	}
	defer pool.Release()

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, p := range polls {
		p := p
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()

			key := pollKey(p.ChannelID, p.GameID)
			result := itemOK(key)
			if err := s.SyncPoll(ctx, p); err != nil {
				result = itemFailed(key, err)
				s.logger.ErrorContext(ctx, "wager sync failed",
					"channel_id", p.ChannelID, "game_id", p.GameID, "error", err)
			}

			mu.Lock()
			report.add(result)
			mu.Unlock()
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			report.add(itemFailed(pollKey(p.ChannelID, p.GameID), submitErr))
			mu.Unlock()
		}
	}
	wg.Wait()

	s.logger.InfoContext(ctx, "wager sync pass done", report.LogFields()...)
	return report, nil
}

// SyncPoll performs the full-set reconciliation for one poll: after it
// returns, the stored wagers are exactly the observed voters.
func (s *WagerService) SyncPoll(ctx context.Context, p poll.Poll) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.WagerService.SyncPoll")
	defer span.End()

	if p.MessageID == nil {
		return fmt.Errorf("%w: poll %d has no platform message", ErrInvalidInput, p.ID)
	}

	g, ok, err := s.gameRepo.GetByID(ctx, p.GameID)
	if err != nil {
		return fmt.Errorf("load game: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: game %s", ErrNotFound, p.GameID)
	}

	observed, voters, err := s.fetchVoters(ctx, p, g)
	if err != nil {
		return err
	}

	if len(voters) > 0 {
		if err := s.userRepo.UpsertMany(ctx, voters); err != nil {
			return fmt.Errorf("upsert voters: %w", err)
		}
	}

	stored, err := s.wagerRepo.ListByPoll(ctx, p.ChannelID, p.GameID)
	if err != nil {
		return fmt.Errorf("list stored wagers: %w", err)
	}
	storedByUser := make(map[int64]wager.Wager, len(stored))
	for _, w := range stored {
		storedByUser[w.UserID] = w
	}

	for userID, choice := range observed {
		if existing, ok := storedByUser[userID]; ok && existing.Choice == choice {
			continue
		}
		w := wager.Wager{UserID: userID, GameID: p.GameID, ChannelID: p.ChannelID, Choice: choice}
		if err := w.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if err := s.wagerRepo.Upsert(ctx, w); err != nil {
			return fmt.Errorf("upsert wager: %w", err)
		}
	}

	for userID, w := range storedByUser {
		if _, ok := observed[userID]; ok {
			continue
		}
		if err := s.wagerRepo.Delete(ctx, w.Key()); err != nil {
			return fmt.Errorf("delete retracted wager: %w", err)
		}
	}
	return nil
}

func (s *WagerService) fetchVoters(ctx context.Context, p poll.Poll, g game.Game) (map[int64]game.Outcome, []user.User, error) {
	answerCount := 2
	if g.GameTypeID == gametype.TypeRegular {
		answerCount = 3
	}

	observed := make(map[int64]game.Outcome)
	var voters []user.User
	for answerID := 1; answerID <= answerCount; answerID++ {
		list, err := s.platform.PollVoters(ctx, p.ChannelID, *p.MessageID, answerID)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: fetch answer %d voters: %v", ErrDependencyUnavailable, answerID, err)
		}
		choice := answerChoice(answerID)
		for _, v := range list {
			observed[v.UserID] = choice
			voters = append(voters, user.User{ID: v.UserID, Username: strings.TrimSpace(v.Username)})
		}
	}
	return observed, voters, nil
}

// answerChoice maps the 1-based platform answer id onto a pick. The order
// matches the published option order: home, away, tie.
func answerChoice(answerID int) game.Outcome {
	switch answerID {
	case 1:
		return game.OutcomeHome
	case 2:
		return game.OutcomeAway
	default:
		return game.OutcomeTie
	}
}
