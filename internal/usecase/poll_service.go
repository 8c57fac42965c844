package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/ottersden/otterball/internal/domain/channel"
	"github.com/ottersden/otterball/internal/domain/game"
	"github.com/ottersden/otterball/internal/domain/gametype"
	"github.com/ottersden/otterball/internal/domain/poll"
	"github.com/ottersden/otterball/internal/domain/team"
	"github.com/ottersden/otterball/internal/domain/wager"
	"github.com/ottersden/otterball/internal/platform/logging"
)

// Voter is one platform user who picked a poll answer.
type Voter struct {
	UserID   int64
	Username string
}

// PollOption is one selectable answer. Platform answer ids are 1-based and
// follow option order.
type PollOption struct {
	Label  string
	Emoji  string
	Choice game.Outcome
}

// PollMessage is the platform payload for one prediction poll.
type PollMessage struct {
	Content  string
	Question string
	Options  []PollOption
	Duration time.Duration
}

// ChatPlatform is the messaging side of the workflow.
type ChatPlatform interface {
	PublishPoll(ctx context.Context, channelID int64, msg PollMessage) (int64, error)
	ClosePoll(ctx context.Context, channelID, messageID int64) error
	PollVoters(ctx context.Context, channelID, messageID int64, answerID int) ([]Voter, error)
	SendMessage(ctx context.Context, channelID int64, content string) (int64, error)
	EditMessage(ctx context.Context, channelID, messageID int64, content string) error
	DeleteMessage(ctx context.Context, channelID, messageID int64) error
	PinMessage(ctx context.Context, channelID, messageID int64) error
	UnpinMessage(ctx context.Context, channelID, messageID int64) error
}

// pollWagerSyncer reconciles one poll's wagers right before it closes.
type pollWagerSyncer interface {
	SyncPoll(ctx context.Context, p poll.Poll) error
}

type PollServiceConfig struct {
	CreationWindow    time.Duration
	PollDuration      time.Duration
	ResultDeleteDelay time.Duration
	DeleteMessagePath string
}

func (c PollServiceConfig) normalized() PollServiceConfig {
	if c.CreationWindow <= 0 {
		c.CreationWindow = 7 * 24 * time.Hour
	}
	if c.PollDuration <= 0 {
		c.PollDuration = 7 * 24 * time.Hour
	}
	if c.ResultDeleteDelay <= 0 {
		c.ResultDeleteDelay = time.Hour
	}
	if c.DeleteMessagePath == "" {
		c.DeleteMessagePath = "/v1/internal/jobs/delete-message"
	}
	return c
}

type PollService struct {
	cfg          PollServiceConfig
	channelRepo  channel.Repository
	teamRepo     team.Repository
	gameRepo     game.Repository
	gameTypeRepo gametype.Repository
	pollRepo     poll.Repository
	wagerRepo    wager.Repository
	platform     ChatPlatform
	scoring      *ScoringService
	wagerSyncer  pollWagerSyncer
	jobQueue     JobQueue
	logger       *logging.Logger
	now          func() time.Time
}

func NewPollService(
	cfg PollServiceConfig,
	channelRepo channel.Repository,
	teamRepo team.Repository,
	gameRepo game.Repository,
	gameTypeRepo gametype.Repository,
	pollRepo poll.Repository,
	wagerRepo wager.Repository,
	platform ChatPlatform,
	scoring *ScoringService,
	wagerSyncer pollWagerSyncer,
	jobQueue JobQueue,
	logger *logging.Logger,
) *PollService {
	if jobQueue == nil {
		jobQueue = noopJobQueue{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &PollService{
		cfg:          cfg.normalized(),
		channelRepo:  channelRepo,
		teamRepo:     teamRepo,
		gameRepo:     gameRepo,
		gameTypeRepo: gameTypeRepo,
		pollRepo:     pollRepo,
		wagerRepo:    wagerRepo,
		platform:     platform,
		scoring:      scoring,
		wagerSyncer:  wagerSyncer,
		jobQueue:     jobQueue,
		logger:       logger,
		now:          time.Now,
	}
}

// CreatePolls inserts poll rows for every active channel and every game
// kicking off inside the creation window. Pairs that already have a poll are
// left alone.
func (s *PollService) CreatePolls(ctx context.Context) (*BatchReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PollService.CreatePolls")
	defer span.End()

	report := newBatchReport("poll.create")

	channels, err := s.channelRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active channels: %w", err)
	}
	if len(channels) == 0 {
		return report, nil
	}

	now := s.now()
	games, err := s.gameRepo.ListByKickoffWindow(ctx, now, now.Add(s.cfg.CreationWindow))
	if err != nil {
		return nil, fmt.Errorf("list upcoming games: %w", err)
	}

	typeIDs := make([]string, 0, len(gametype.Catalogue()))
	for _, gt := range gametype.Catalogue() {
		typeIDs = append(typeIDs, gt.ID)
	}

	for _, ch := range channels {
		if err := s.gameTypeRepo.EnsureScalings(ctx, ch.ID, typeIDs); err != nil {
			report.add(itemFailed(fmt.Sprintf("%d", ch.ID), err))
			s.logger.ErrorContext(ctx, "ensure channel scalings failed", "channel_id", ch.ID, "error", err)
			continue
		}
		for _, g := range games {
			key := pollKey(ch.ID, g.ID)
			created, err := s.pollRepo.Create(ctx, poll.Poll{ChannelID: ch.ID, GameID: g.ID})
			switch {
			case err != nil:
				report.add(itemFailed(key, err))
				s.logger.ErrorContext(ctx, "create poll failed", "channel_id", ch.ID, "game_id", g.ID, "error", err)
			case !created:
				report.add(itemSkipped(key, "poll already exists"))
			default:
				report.add(itemOK(key))
			}
		}
	}

	s.logger.InfoContext(ctx, "poll creation pass done", report.LogFields()...)
	return report, nil
}

// OpenPolls publishes every created poll. A failed publish leaves the poll
// in its created state for the next pass.
func (s *PollService) OpenPolls(ctx context.Context) (*BatchReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PollService.OpenPolls")
	defer span.End()

	report := newBatchReport("poll.open")

	polls, err := s.pollRepo.ListCreated(ctx)
	if err != nil {
		return nil, fmt.Errorf("list created polls: %w", err)
	}

	for _, p := range polls {
		report.add(s.openOne(ctx, p))
	}

	s.logger.InfoContext(ctx, "poll open pass done", report.LogFields()...)
	return report, nil
}

func (s *PollService) openOne(ctx context.Context, p poll.Poll) ItemResult {
	key := pollKey(p.ChannelID, p.GameID)

	ch, ok, err := s.channelRepo.GetByID(ctx, p.ChannelID)
	if err != nil {
		return itemFailed(key, fmt.Errorf("load channel: %w", err))
	}
	if !ok || !ch.Active {
		return itemSkipped(key, "channel missing or inactive")
	}

	g, ok, err := s.gameRepo.GetByID(ctx, p.GameID)
	if err != nil {
		return itemFailed(key, fmt.Errorf("load game: %w", err))
	}
	if !ok {
		return itemFailed(key, fmt.Errorf("%w: game %s", ErrNotFound, p.GameID))
	}
	if !g.Kickoff.After(s.now()) {
		// Too late to publish. Retire the row fully: nobody saw this poll,
		// so no result may be announced for it later.
		if err := s.pollRepo.MarkClosed(ctx, p.ID); err != nil {
			return itemFailed(key, fmt.Errorf("close stale poll: %w", err))
		}
		if err := s.pollRepo.MarkResultPosted(ctx, p.ID); err != nil {
			return itemFailed(key, fmt.Errorf("retire stale poll: %w", err))
		}
		return itemSkipped(key, "kickoff already passed")
	}

	msg, err := s.buildPollMessage(ctx, ch, g)
	if err != nil {
		return itemFailed(key, err)
	}

	messageID, err := s.platform.PublishPoll(ctx, ch.ID, msg)
	if err != nil {
		return itemFailed(key, fmt.Errorf("publish poll: %w", err))
	}
	if err := s.pollRepo.SetMessageID(ctx, p.ID, messageID); err != nil {
		return itemFailed(key, fmt.Errorf("store message id: %w", err))
	}

	if err := s.platform.PinMessage(ctx, ch.ID, messageID); err != nil {
		s.logger.WarnContext(ctx, "pin poll message failed",
			"channel_id", ch.ID, "message_id", messageID, "error", err)
	}
	return itemOK(key)
}

// ClosePolls closes every open poll whose game has kicked off. The local
// close happens regardless of the platform: kickoff time is authoritative,
// platform expiry is best effort.
func (s *PollService) ClosePolls(ctx context.Context) (*BatchReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PollService.ClosePolls")
	defer span.End()

	report := newBatchReport("poll.close")

	polls, err := s.pollRepo.ListOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("list open polls: %w", err)
	}
	games, err := s.gamesByID(ctx, polls)
	if err != nil {
		return nil, err
	}

	now := s.now()
	for _, p := range polls {
		key := pollKey(p.ChannelID, p.GameID)

		g, ok := games[p.GameID]
		if !ok {
			report.add(itemFailed(key, fmt.Errorf("%w: game %s", ErrNotFound, p.GameID)))
			continue
		}
		if g.Kickoff.After(now) {
			continue
		}

		if s.wagerSyncer != nil {
			if err := s.wagerSyncer.SyncPoll(ctx, p); err != nil {
				s.logger.WarnContext(ctx, "final wager sync failed",
					"channel_id", p.ChannelID, "game_id", p.GameID, "error", err)
			}
		}

		if p.MessageID != nil {
			if err := s.platform.ClosePoll(ctx, p.ChannelID, *p.MessageID); err != nil {
				s.logger.WarnContext(ctx, "platform poll close failed",
					"channel_id", p.ChannelID, "message_id", *p.MessageID, "error", err)
			}
			if err := s.platform.UnpinMessage(ctx, p.ChannelID, *p.MessageID); err != nil {
				s.logger.WarnContext(ctx, "unpin poll message failed",
					"channel_id", p.ChannelID, "message_id", *p.MessageID, "error", err)
			}
		}

		if err := s.pollRepo.MarkClosed(ctx, p.ID); err != nil {
			report.add(itemFailed(key, fmt.Errorf("mark poll closed: %w", err)))
			continue
		}
		report.add(itemOK(key))
	}

	s.logger.InfoContext(ctx, "poll close pass done", report.LogFields()...)
	return report, nil
}

// PostResults announces outcomes for closed polls whose game has finished,
// then refreshes the channel leaderboard message.
func (s *PollService) PostResults(ctx context.Context) (*BatchReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PollService.PostResults")
	defer span.End()

	report := newBatchReport("poll.post_results")

	polls, err := s.pollRepo.ListAwaitingResults(ctx)
	if err != nil {
		return nil, fmt.Errorf("list polls awaiting results: %w", err)
	}
	games, err := s.gamesByID(ctx, polls)
	if err != nil {
		return nil, err
	}

	touchedChannels := make(map[int64]channel.Channel)
	for _, p := range polls {
		key := pollKey(p.ChannelID, p.GameID)

		g, ok := games[p.GameID]
		if !ok {
			report.add(itemFailed(key, fmt.Errorf("%w: game %s", ErrNotFound, p.GameID)))
			continue
		}
		if !g.Finished() {
			report.add(itemSkipped(key, "game not finished"))
			continue
		}

		ch, ok, err := s.channelRepo.GetByID(ctx, p.ChannelID)
		if err != nil {
			report.add(itemFailed(key, fmt.Errorf("load channel: %w", err)))
			continue
		}
		if !ok || !ch.Active {
			report.add(itemSkipped(key, "channel missing or inactive"))
			continue
		}

		if err := s.postOneResult(ctx, ch, p, g); err != nil {
			report.add(itemFailed(key, err))
			s.logger.ErrorContext(ctx, "post result failed",
				"channel_id", ch.ID, "game_id", g.ID, "error", err)
			continue
		}
		touchedChannels[ch.ID] = ch
		report.add(itemOK(key))
	}

	for _, ch := range touchedChannels {
		if err := s.refreshLeaderboard(ctx, ch); err != nil {
			s.logger.WarnContext(ctx, "leaderboard refresh failed", "channel_id", ch.ID, "error", err)
		}
	}

	s.logger.InfoContext(ctx, "result posting pass done", report.LogFields()...)
	return report, nil
}

func (s *PollService) postOneResult(ctx context.Context, ch channel.Channel, p poll.Poll, g game.Game) error {
	content, err := s.buildResultMessage(ctx, ch, g)
	if err != nil {
		return err
	}

	messageID, err := s.platform.SendMessage(ctx, ch.ID, content)
	if err != nil {
		return fmt.Errorf("send result message: %w", err)
	}

	if ch.DeleteResultMessage {
		payload := map[string]int64{"channel_id": ch.ID, "message_id": messageID}
		dedupID := fmt.Sprintf("delete-message:%d:%d", ch.ID, messageID)
		if err := s.jobQueue.Enqueue(ctx, s.cfg.DeleteMessagePath, payload, s.cfg.ResultDeleteDelay, dedupID); err != nil {
			s.logger.WarnContext(ctx, "schedule result deletion failed",
				"channel_id", ch.ID, "message_id", messageID, "error", err)
		}
	}

	if err := s.pollRepo.MarkResultPosted(ctx, p.ID); err != nil {
		return fmt.Errorf("mark result posted: %w", err)
	}
	return nil
}

func (s *PollService) refreshLeaderboard(ctx context.Context, ch channel.Channel) error {
	if s.scoring == nil {
		return nil
	}

	entries, err := s.scoring.Leaderboard(ctx, ch.ID)
	if err != nil {
		return fmt.Errorf("compute leaderboard: %w", err)
	}
	content := renderLeaderboard(ch.Name, entries)

	if ch.LeaderboardMessageID != nil {
		err := s.platform.EditMessage(ctx, ch.ID, *ch.LeaderboardMessageID, content)
		if err == nil {
			return nil
		}
		s.logger.WarnContext(ctx, "edit leaderboard message failed, sending a new one",
			"channel_id", ch.ID, "message_id", *ch.LeaderboardMessageID, "error", err)
	}

	messageID, err := s.platform.SendMessage(ctx, ch.ID, content)
	if err != nil {
		return fmt.Errorf("send leaderboard message: %w", err)
	}
	if err := s.channelRepo.SetLeaderboardMessageID(ctx, ch.ID, messageID); err != nil {
		return fmt.Errorf("store leaderboard message id: %w", err)
	}
	return nil
}

func (s *PollService) gamesByID(ctx context.Context, polls []poll.Poll) (map[string]game.Game, error) {
	ids := make([]string, 0, len(polls))
	seen := make(map[string]struct{}, len(polls))
	for _, p := range polls {
		if _, ok := seen[p.GameID]; ok {
			continue
		}
		seen[p.GameID] = struct{}{}
		ids = append(ids, p.GameID)
	}

	games, err := s.gameRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list poll games: %w", err)
	}

	out := make(map[string]game.Game, len(games))
	for _, g := range games {
		out[g.ID] = g
	}
	return out, nil
}

func pollKey(channelID int64, gameID string) string {
	return fmt.Sprintf("%d/%s", channelID, gameID)
}
