package nflverse

import (
	"context"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/ottersden/otterball/internal/platform/cache"
	"github.com/ottersden/otterball/internal/platform/logging"
	"github.com/ottersden/otterball/internal/platform/resilience"
	"github.com/ottersden/otterball/internal/usecase"
)

const (
	defaultGamesURL = "https://github.com/nflverse/nflverse-data/releases/download/games/games.csv"
	defaultTeamsURL = "https://github.com/nflverse/nflverse-data/releases/download/teams/teams.csv"

	// Kickoff times in the dataset are US Eastern wall clock.
	kickoffTimeZone = "America/New_York"
	defaultKickoff  = "13:00"

	// The release files refresh nightly; parsed downloads are reused across
	// the job passes inside this window.
	csvCacheTTL = 15 * time.Minute
)

var errNFLVerseTransient = crerr.New("nflverse transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	GamesURL       string
	TeamsURL       string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client implements usecase.ScheduleProvider on top of the nflverse data
// releases. The releases are plain CSV files, refreshed nightly.
type Client struct {
	httpClient     *http.Client
	gamesURL       string
	teamsURL       string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	csvCache       *cache.Store
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
		httpClient.Timeout = 60 * time.Second
	}

	gamesURL := strings.TrimSpace(cfg.GamesURL)
	if gamesURL == "" {
		gamesURL = defaultGamesURL
	}
	teamsURL := strings.TrimSpace(cfg.TeamsURL)
	if teamsURL == "" {
		teamsURL = defaultTeamsURL
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &Client{
		httpClient:     httpClient,
		gamesURL:       gamesURL,
		teamsURL:       teamsURL,
		maxRetries:     maxRetries,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(cfg.CircuitBreaker),
		circuitEnabled: cfg.CircuitBreaker.Enabled,
		csvCache:       cache.NewStore(csvCacheTTL),
	}
}

func (c *Client) TeamCatalogue(ctx context.Context) ([]usecase.ExternalTeam, error) {
	rows, err := c.fetchCSV(ctx, c.teamsURL)
	if err != nil {
		return nil, fmt.Errorf("fetch team catalogue: %w", err)
	}

	out := make([]usecase.ExternalTeam, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		code := strings.ToUpper(row.get("team_abbr"))
		if code == "" {
			continue
		}
		// The dataset repeats franchises across seasons and relocations.
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}

		out = append(out, usecase.ExternalTeam{
			ExternalID: code,
			Code:       code,
			Name:       row.get("team_name"),
			LogoURL:    row.getFirst("team_logo_espn", "team_logo_wikipedia"),
			Color:      row.get("team_color"),
		})
	}
	return out, nil
}

func (c *Client) SeasonSchedule(ctx context.Context, season int) ([]usecase.ExternalGame, error) {
	rows, err := c.fetchCSV(ctx, c.gamesURL)
	if err != nil {
		return nil, fmt.Errorf("fetch season schedule: %w", err)
	}

	loc, err := time.LoadLocation(kickoffTimeZone)
	if err != nil {
		return nil, fmt.Errorf("load kickoff time zone: %w", err)
	}

	wantSeason := strconv.Itoa(season)
	out := make([]usecase.ExternalGame, 0, 300)
	for _, row := range rows {
		if row.get("season") != wantSeason {
			continue
		}
		g, err := mapScheduleRow(row, loc)
		if err != nil {
			c.logger.WarnContext(ctx, "skip malformed schedule row",
				"game_id", row.get("game_id"), "error", err)
			continue
		}
		out = append(out, g)
	}
	return out, nil
}

func mapScheduleRow(row csvRow, loc *time.Location) (usecase.ExternalGame, error) {
	id := row.get("game_id")
	if id == "" {
		return usecase.ExternalGame{}, fmt.Errorf("missing game_id")
	}

	gameday := row.get("gameday")
	gametime := row.get("gametime")
	if gametime == "" {
		gametime = defaultKickoff
	}
	kickoff, err := time.ParseInLocation("2006-01-02 15:04", gameday+" "+gametime, loc)
	if err != nil {
		return usecase.ExternalGame{}, fmt.Errorf("parse kickoff %q %q: %w", gameday, gametime, err)
	}

	homeScore, err := parseOptionalInt(row.get("home_score"))
	if err != nil {
		return usecase.ExternalGame{}, fmt.Errorf("parse home_score: %w", err)
	}
	awayScore, err := parseOptionalInt(row.get("away_score"))
	if err != nil {
		return usecase.ExternalGame{}, fmt.Errorf("parse away_score: %w", err)
	}

	return usecase.ExternalGame{
		ExternalID:   id,
		HomeTeamCode: strings.ToUpper(row.get("home_team")),
		AwayTeamCode: strings.ToUpper(row.get("away_team")),
		HomeScore:    homeScore,
		AwayScore:    awayScore,
		GameTypeID:   strings.ToUpper(row.get("game_type")),
		Kickoff:      kickoff.UTC(),
	}, nil
}

// parseOptionalInt treats the dataset's "NA" marker and empty cells as
// absent.
func parseOptionalInt(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "NA") {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

type csvRow struct {
	index  map[string]int
	values []string
}

func (r csvRow) get(column string) string {
	i, ok := r.index[column]
	if !ok || i >= len(r.values) {
		return ""
	}
	return strings.TrimSpace(r.values[i])
}

func (r csvRow) getFirst(columns ...string) string {
	for _, column := range columns {
		if v := r.get(column); v != "" {
			return v
		}
	}
	return ""
}

// fetchCSV downloads and parses one release file. Concurrent callers for the
// same URL share one download and parsed files are reused until the cache
// entry expires.
func (c *Client) fetchCSV(ctx context.Context, fullURL string) ([]csvRow, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "nflverse circuit breaker rejected request", "state", c.breaker.State())
			return nil, fmt.Errorf("%w: schedule source is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	out, err := c.csvCache.GetOrLoad(ctx, fullURL, func(ctx context.Context) (any, error) {
		rows, fetchErr := c.downloadCSV(ctx, fullURL)
		if c.circuitEnabled {
			if fetchErr != nil && stderrors.Is(fetchErr, errNFLVerseTransient) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		if fetchErr != nil {
			return nil, fetchErr
		}
		return rows, nil
	})
	if err != nil {
		return nil, err
	}

	rows, ok := out.([]csvRow)
	if !ok {
		return nil, fmt.Errorf("unexpected payload type %T", out)
	}
	return rows, nil
}

func (c *Client) downloadCSV(ctx context.Context, fullURL string) ([]csvRow, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		rows, err := c.downloadOnce(ctx, fullURL)
		if err == nil {
			return rows, nil
		}
		lastErr = err
		if !stderrors.Is(err, errNFLVerseTransient) || attempt == c.maxRetries {
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

	c.logger.WarnContext(ctx, "nflverse download failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func (c *Client) downloadOnce(ctx context.Context, fullURL string) ([]csvRow, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("accept", "text/csv")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: send request: %v", errNFLVerseTransient, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if isRetryableStatus(resp.StatusCode) {
			return nil, fmt.Errorf("%w: source status=%d body=%s",
				errNFLVerseTransient, resp.StatusCode, strings.TrimSpace(string(raw)))
		}
		return nil, fmt.Errorf("source status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	return parseCSV(resp.Body)
}

func parseCSV(r io.Reader) ([]csvRow, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = false
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	var rows []csvRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read csv record: %w", err)
		}
		rows = append(rows, csvRow{index: index, values: record})
	}
}

func isRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}
