package espn

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/ottersden/otterball/internal/platform/logging"
	"github.com/ottersden/otterball/internal/platform/resilience"
	"github.com/ottersden/otterball/internal/usecase"
)

const (
	defaultBaseURL = "https://site.api.espn.com/apis/site/v2/sports/football/nfl"

	teamsPath      = "/teams?limit=100"
	scoreboardPath = "/scoreboard"
)

var errESPNTransient = crerr.New("espn transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client implements usecase.EventProvider against the public ESPN site API.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		maxRetries:     maxRetries,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(cfg.CircuitBreaker),
		circuitEnabled: cfg.CircuitBreaker.Enabled,
	}
}

type teamsEnvelope struct {
	Sports []struct {
		Leagues []struct {
			Teams []struct {
				Team struct {
					ID           string `json:"id"`
					Abbreviation string `json:"abbreviation"`
					DisplayName  string `json:"displayName"`
				} `json:"team"`
			} `json:"teams"`
		} `json:"leagues"`
	} `json:"sports"`
}

type scoreboardEnvelope struct {
	Events []scoreboardEvent `json:"events"`
}

type scoreboardEvent struct {
	ID           string            `json:"id"`
	Date         string            `json:"date"`
	Competitions []competitionItem `json:"competitions"`
}

type competitionItem struct {
	Competitors []competitorItem `json:"competitors"`
	Status      struct {
		Type struct {
			Completed bool `json:"completed"`
		} `json:"type"`
	} `json:"status"`
}

type competitorItem struct {
	HomeAway string `json:"homeAway"`
	Score    string `json:"score"`
	Team     struct {
		ID string `json:"id"`
	} `json:"team"`
}

func (c *Client) Teams(ctx context.Context) ([]usecase.SecondaryTeam, error) {
	var envelope teamsEnvelope
	if err := c.doJSON(ctx, teamsPath, &envelope); err != nil {
		return nil, fmt.Errorf("fetch teams: %w", err)
	}

	var out []usecase.SecondaryTeam
	for _, sport := range envelope.Sports {
		for _, league := range sport.Leagues {
			for _, entry := range league.Teams {
				if entry.Team.ID == "" {
					continue
				}
				out = append(out, usecase.SecondaryTeam{
					ExternalID: entry.Team.ID,
					Code:       entry.Team.Abbreviation,
					Name:       entry.Team.DisplayName,
				})
			}
		}
	}
	return out, nil
}

func (c *Client) Scoreboard(ctx context.Context) ([]usecase.SecondaryEvent, error) {
	var envelope scoreboardEnvelope
	if err := c.doJSON(ctx, scoreboardPath, &envelope); err != nil {
		return nil, fmt.Errorf("fetch scoreboard: %w", err)
	}

	out := make([]usecase.SecondaryEvent, 0, len(envelope.Events))
	for _, raw := range envelope.Events {
		ev, err := mapEvent(raw)
		if err != nil {
			c.logger.WarnContext(ctx, "skip malformed scoreboard event", "event_id", raw.ID, "error", err)
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

func mapEvent(raw scoreboardEvent) (usecase.SecondaryEvent, error) {
	if raw.ID == "" {
		return usecase.SecondaryEvent{}, fmt.Errorf("missing event id")
	}
	if len(raw.Competitions) == 0 {
		return usecase.SecondaryEvent{}, fmt.Errorf("event has no competition")
	}

	kickoff, err := parseEventDate(raw.Date)
	if err != nil {
		return usecase.SecondaryEvent{}, err
	}

	comp := raw.Competitions[0]
	ev := usecase.SecondaryEvent{
		ExternalID: raw.ID,
		Completed:  comp.Status.Type.Completed,
		Kickoff:    kickoff,
	}
	for _, competitor := range comp.Competitors {
		score := parseScore(competitor.Score)
		switch strings.ToLower(competitor.HomeAway) {
		case "home":
			ev.HomeTeamExternalID = competitor.Team.ID
			ev.HomeScore = score
		case "away":
			ev.AwayTeamExternalID = competitor.Team.ID
			ev.AwayScore = score
		}
	}
	if ev.HomeTeamExternalID == "" || ev.AwayTeamExternalID == "" {
		return usecase.SecondaryEvent{}, fmt.Errorf("event is missing a competitor side")
	}
	return ev, nil
}

// parseEventDate handles the API's "Z"-less RFC3339 variant.
func parseEventDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04Z07:00"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("parse event date %q", raw)
}

func parseScore(raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var v int
	if _, err := fmt.Sscanf(raw, "%d", &v); err != nil {
		return nil
	}
	return &v
}

func (c *Client) doJSON(ctx context.Context, path string, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "espn circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: scoreboard source is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	raw, err := c.executeRequest(ctx, c.baseURL+path)
	if c.circuitEnabled {
		if err != nil && stderrors.Is(err, errESPNTransient) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}
	if err != nil {
		return err
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode espn payload: %w", err)
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %v", errESPNTransient, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errESPNTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: espn status=%d body=%s",
					errESPNTransient, resp.StatusCode, strings.TrimSpace(string(raw)))
			default:
				return nil, fmt.Errorf("espn status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(raw)))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("espn request failed")
	}
	c.logger.WarnContext(ctx, "espn request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func isRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}
