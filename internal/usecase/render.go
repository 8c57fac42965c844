package usecase

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/valyala/bytebufferpool"

	"github.com/ottersden/otterball/internal/domain/channel"
	"github.com/ottersden/otterball/internal/domain/game"
	"github.com/ottersden/otterball/internal/domain/gametype"
)

func (s *PollService) buildPollMessage(ctx context.Context, ch channel.Channel, g game.Game) (PollMessage, error) {
	home, ok, err := s.teamRepo.GetByID(ctx, g.HomeTeamID)
	if err != nil || !ok {
		return PollMessage{}, fmt.Errorf("load home team %s: %w", g.HomeTeamID, orNotFound(err))
	}
	away, ok, err := s.teamRepo.GetByID(ctx, g.AwayTeamID)
	if err != nil || !ok {
		return PollMessage{}, fmt.Errorf("load away team %s: %w", g.AwayTeamID, orNotFound(err))
	}

	factor, err := s.scalingFactor(ctx, ch.ID, g.GameTypeID)
	if err != nil {
		return PollMessage{}, err
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if ch.RoleID != nil {
		buf.WriteString(fmt.Sprintf("<@&%d> ", *ch.RoleID))
	}
	buf.WriteString(fmt.Sprintf("New poll: %s @ %s kicks off <t:%d:F> (%s, worth %s pts)",
		away.Name, home.Name, g.Kickoff.Unix(), gameTypeName(g.GameTypeID), formatPoints(factor)))

	options := []PollOption{
		{Label: home.Name, Emoji: home.EmojiID, Choice: game.OutcomeHome},
		{Label: away.Name, Emoji: away.EmojiID, Choice: game.OutcomeAway},
	}
	// A tie is only a realistic result in the regular season.
	if g.GameTypeID == gametype.TypeRegular {
		options = append(options, PollOption{Label: "Tie", Choice: game.OutcomeTie})
	}

	duration := g.Kickoff.Sub(s.now())
	if duration > s.cfg.PollDuration {
		duration = s.cfg.PollDuration
	}
	if duration < time.Hour {
		duration = time.Hour
	}

	return PollMessage{
		Content:  buf.String(),
		Question: fmt.Sprintf("%s @ %s", away.Name, home.Name),
		Options:  options,
		Duration: duration,
	}, nil
}

func (s *PollService) buildResultMessage(ctx context.Context, ch channel.Channel, g game.Game) (string, error) {
	home, ok, err := s.teamRepo.GetByID(ctx, g.HomeTeamID)
	if err != nil || !ok {
		return "", fmt.Errorf("load home team %s: %w", g.HomeTeamID, orNotFound(err))
	}
	away, ok, err := s.teamRepo.GetByID(ctx, g.AwayTeamID)
	if err != nil || !ok {
		return "", fmt.Errorf("load away team %s: %w", g.AwayTeamID, orNotFound(err))
	}

	factor, err := s.scalingFactor(ctx, ch.ID, g.GameTypeID)
	if err != nil {
		return "", err
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	homeScore, awayScore := 0, 0
	if g.HomeScore != nil {
		homeScore = *g.HomeScore
	}
	if g.AwayScore != nil {
		awayScore = *g.AwayScore
	}

	switch g.Outcome() {
	case game.OutcomeTie:
		buf.WriteString(fmt.Sprintf("%s @ %s ended in a %d-%d tie.",
			away.Name, home.Name, awayScore, homeScore))
	case game.OutcomeHome:
		buf.WriteString(fmt.Sprintf("%s beat %s %d-%d.",
			home.Name, away.Name, homeScore, awayScore))
	case game.OutcomeAway:
		buf.WriteString(fmt.Sprintf("%s beat %s %d-%d.",
			away.Name, home.Name, awayScore, homeScore))
	}

	wagers, err := s.wagerRepo.ListByPoll(ctx, ch.ID, g.ID)
	if err != nil {
		return "", fmt.Errorf("list poll wagers: %w", err)
	}

	var winnerIDs []int64
	for _, w := range wagers {
		if w.Choice == g.Outcome() {
			winnerIDs = append(winnerIDs, w.UserID)
		}
	}

	if len(winnerIDs) == 0 {
		buf.WriteString(" Nobody called it.")
		return buf.String(), nil
	}

	buf.WriteString(fmt.Sprintf(" %s pts to:", formatPoints(factor)))
	for i, id := range winnerIDs {
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString(fmt.Sprintf(" <@%d>", id))
	}
	return buf.String(), nil
}

func (s *PollService) scalingFactor(ctx context.Context, channelID int64, gameTypeID string) (float64, error) {
	scalings, err := s.gameTypeRepo.ListScalings(ctx, channelID)
	if err != nil {
		return 0, fmt.Errorf("list channel scalings: %w", err)
	}
	for _, sc := range scalings {
		if sc.GameTypeID == gameTypeID {
			return sc.Factor, nil
		}
	}
	return gametype.DefaultFactor, nil
}

func renderLeaderboard(channelName string, entries []LeaderboardEntry) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	buf.WriteString("🏆 Leaderboard")
	if channelName != "" {
		buf.WriteString(" - ")
		buf.WriteString(channelName)
	}
	if len(entries) == 0 {
		buf.WriteString("\nNo points scored yet.")
		return buf.String()
	}

	for _, entry := range entries {
		buf.WriteString(fmt.Sprintf("\n%d. ", entry.Place))
		for i, name := range entry.Usernames {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(name)
		}
		buf.WriteString(fmt.Sprintf(" - %s pts", formatPoints(entry.Score)))
	}
	return buf.String()
}

func formatPoints(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func gameTypeName(id string) string {
	for _, gt := range gametype.Catalogue() {
		if gt.ID == id {
			return gt.Name
		}
	}
	return id
}

func orNotFound(err error) error {
	if err != nil {
		return err
	}
	return ErrNotFound
}
