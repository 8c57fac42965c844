package discord

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/ottersden/otterball/internal/platform/logging"
	"github.com/ottersden/otterball/internal/platform/resilience"
	"github.com/ottersden/otterball/internal/usecase"
)

const defaultBaseURL = "https://discord.com/api/v10"

var errDiscordTransient = crerr.New("discord transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	BotToken       string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client implements usecase.ChatPlatform against the Discord REST API.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	token          string
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
		httpClient.Timeout = 15 * time.Second
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
		token:          strings.TrimSpace(cfg.BotToken),
		maxRetries:     maxRetries,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(cfg.CircuitBreaker),
		circuitEnabled: cfg.CircuitBreaker.Enabled,
	}
}

type pollMediaPayload struct {
	Text  string            `json:"text,omitempty"`
	Emoji *pollEmojiPayload `json:"emoji,omitempty"`
}

type pollEmojiPayload struct {
	ID string `json:"id"`
}

type pollAnswerPayload struct {
	PollMedia pollMediaPayload `json:"poll_media"`
}

type pollPayload struct {
	Question         pollMediaPayload    `json:"question"`
	Answers          []pollAnswerPayload `json:"answers"`
	Duration         int                 `json:"duration"`
	AllowMultiselect bool                `json:"allow_multiselect"`
}

type createMessagePayload struct {
	Content string       `json:"content,omitempty"`
	Poll    *pollPayload `json:"poll,omitempty"`
}

type editMessagePayload struct {
	Content string `json:"content"`
}

type messageEnvelope struct {
	ID string `json:"id"`
}

type pollVotersEnvelope struct {
	Users []struct {
		ID         string `json:"id"`
		Username   string `json:"username"`
		GlobalName string `json:"global_name"`
	} `json:"users"`
}

// PublishPoll creates a message carrying a native Discord poll. Poll duration
// is sent in whole hours, which is the API granularity.
func (c *Client) PublishPoll(ctx context.Context, channelID int64, msg usecase.PollMessage) (int64, error) {
	answers := make([]pollAnswerPayload, 0, len(msg.Options))
	for _, opt := range msg.Options {
		answer := pollAnswerPayload{PollMedia: pollMediaPayload{Text: opt.Label}}
		if opt.Emoji != "" {
			answer.PollMedia.Emoji = &pollEmojiPayload{ID: opt.Emoji}
		}
		answers = append(answers, answer)
	}

	hours := int(msg.Duration.Round(time.Hour).Hours())
	if hours < 1 {
		hours = 1
	}

	payload := createMessagePayload{
		Content: msg.Content,
		Poll: &pollPayload{
			Question: pollMediaPayload{Text: msg.Question},
			Answers:  answers,
			Duration: hours,
		},
	}

	var envelope messageEnvelope
	path := fmt.Sprintf("/channels/%d/messages", channelID)
	if err := c.doJSON(ctx, http.MethodPost, path, payload, &envelope); err != nil {
		return 0, err
	}
	return parseSnowflake(envelope.ID)
}

func (c *Client) ClosePoll(ctx context.Context, channelID, messageID int64) error {
	path := fmt.Sprintf("/channels/%d/polls/%d/expire", channelID, messageID)
	return c.doJSON(ctx, http.MethodPost, path, nil, nil)
}

// PollVoters pages through the answer's voter list. Discord caps each page at
// 100 users.
func (c *Client) PollVoters(ctx context.Context, channelID, messageID int64, answerID int) ([]usecase.Voter, error) {
	var out []usecase.Voter
	after := ""
	for {
		path := fmt.Sprintf("/channels/%d/polls/%d/answers/%d?limit=100", channelID, messageID, answerID)
		if after != "" {
			path += "&after=" + after
		}

		var envelope pollVotersEnvelope
		if err := c.doJSON(ctx, http.MethodGet, path, nil, &envelope); err != nil {
			return nil, err
		}
		for _, u := range envelope.Users {
			id, err := parseSnowflake(u.ID)
			if err != nil {
				c.logger.WarnContext(ctx, "skip voter with malformed id", "user_id", u.ID, "error", err)
				continue
			}
			name := u.GlobalName
			if name == "" {
				name = u.Username
			}
			out = append(out, usecase.Voter{UserID: id, Username: name})
		}

		if len(envelope.Users) < 100 {
			return out, nil
		}
		after = envelope.Users[len(envelope.Users)-1].ID
	}
}

func (c *Client) SendMessage(ctx context.Context, channelID int64, content string) (int64, error) {
	var envelope messageEnvelope
	path := fmt.Sprintf("/channels/%d/messages", channelID)
	if err := c.doJSON(ctx, http.MethodPost, path, createMessagePayload{Content: content}, &envelope); err != nil {
		return 0, err
	}
	return parseSnowflake(envelope.ID)
}

func (c *Client) EditMessage(ctx context.Context, channelID, messageID int64, content string) error {
	path := fmt.Sprintf("/channels/%d/messages/%d", channelID, messageID)
	return c.doJSON(ctx, http.MethodPatch, path, editMessagePayload{Content: content}, nil)
}

func (c *Client) DeleteMessage(ctx context.Context, channelID, messageID int64) error {
	path := fmt.Sprintf("/channels/%d/messages/%d", channelID, messageID)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) PinMessage(ctx context.Context, channelID, messageID int64) error {
	path := fmt.Sprintf("/channels/%d/pins/%d", channelID, messageID)
	return c.doJSON(ctx, http.MethodPut, path, nil, nil)
}

func (c *Client) UnpinMessage(ctx context.Context, channelID, messageID int64) error {
	path := fmt.Sprintf("/channels/%d/pins/%d", channelID, messageID)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "discord circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: chat platform is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	var body string
	if payload != nil {
		raw, err := sonic.Marshal(payload)
		if err != nil {
			return crerr.Wrap(err, "marshal discord payload")
		}
		body = string(raw)
	}

	raw, err := c.executeRequest(ctx, method, c.baseURL+path, body)
	if c.circuitEnabled {
		if err != nil && stderrors.Is(err, errDiscordTransient) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}
	if err != nil {
		return err
	}

	if target == nil || len(raw) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode discord payload: %w", err)
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, method, fullURL, body string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Authorization", "Bot "+c.token)
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %v", errDiscordTransient, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
			retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
			_ = resp.Body.Close()

			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errDiscordTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: discord status=%d body=%s",
					errDiscordTransient, resp.StatusCode, strings.TrimSpace(string(raw)))
				if retryAfter > 0 {
					if err := sleepCtx(ctx, retryAfter); err != nil {
						return nil, err
					}
					continue
				}
			default:
				return nil, fmt.Errorf("discord status=%d body=%s",
					resp.StatusCode, strings.TrimSpace(string(raw)))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		if err := sleepCtx(ctx, time.Duration(attempt+1)*time.Second); err != nil {
			return nil, err
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("discord request failed")
	}
	c.logger.WarnContext(ctx, "discord request failed", "method", method, "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseRetryAfter(raw string) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}

func parseSnowflake(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse snowflake %q: %w", raw, err)
	}
	return id, nil
}

func isRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}
