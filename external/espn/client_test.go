package espn

import (
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
)

const scoreboardJSON = `{
  "events": [
    {
      "id": "401547403",
      "date": "2025-09-07T17:00Z",
      "competitions": [
        {
          "competitors": [
            {"homeAway": "home", "score": "27", "team": {"id": "12"}},
            {"homeAway": "away", "score": "20", "team": {"id": "25"}}
          ],
          "status": {"type": {"completed": true}}
        }
      ]
    },
    {
      "id": "401547404",
      "date": "2025-09-08T00:20Z",
      "competitions": [
        {
          "competitors": [
            {"homeAway": "home", "score": "", "team": {"id": "3"}},
            {"homeAway": "away", "score": "", "team": {"id": "8"}}
          ],
          "status": {"type": {"completed": false}}
        }
      ]
    }
  ]
}`

func TestMapEventCompletedGame(t *testing.T) {
	t.Parallel()

	var envelope scoreboardEnvelope
	if err := sonic.Unmarshal([]byte(scoreboardJSON), &envelope); err != nil {
		t.Fatalf("unmarshal scoreboard: %v", err)
	}
	if len(envelope.Events) != 2 {
		t.Fatalf("expected two events, got %d", len(envelope.Events))
	}

	ev, err := mapEvent(envelope.Events[0])
	if err != nil {
		t.Fatalf("map event: %v", err)
	}
	if ev.ExternalID != "401547403" || !ev.Completed {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.HomeTeamExternalID != "12" || ev.AwayTeamExternalID != "25" {
		t.Fatalf("unexpected sides: %+v", ev)
	}
	if ev.HomeScore == nil || *ev.HomeScore != 27 || ev.AwayScore == nil || *ev.AwayScore != 20 {
		t.Fatalf("unexpected scores: %+v", ev)
	}
	want := time.Date(2025, 9, 7, 17, 0, 0, 0, time.UTC)
	if !ev.Kickoff.Equal(want) {
		t.Fatalf("kickoff: got %s want %s", ev.Kickoff, want)
	}
}

func TestMapEventScheduledGameHasNoScores(t *testing.T) {
	t.Parallel()

	var envelope scoreboardEnvelope
	if err := sonic.Unmarshal([]byte(scoreboardJSON), &envelope); err != nil {
		t.Fatalf("unmarshal scoreboard: %v", err)
	}

	ev, err := mapEvent(envelope.Events[1])
	if err != nil {
		t.Fatalf("map event: %v", err)
	}
	if ev.Completed {
		t.Fatal("scheduled event must not be completed")
	}
	if ev.HomeScore != nil || ev.AwayScore != nil {
		t.Fatalf("empty scores must map to nil, got %+v", ev)
	}
}

func TestMapEventRejectsMissingCompetitor(t *testing.T) {
	t.Parallel()

	event := scoreboardEvent{
		ID:   "x",
		Date: "2025-09-07T17:00Z",
		Competitions: []competitionItem{
			{Competitors: []competitorItem{{HomeAway: "home"}}},
		},
	}
	if _, err := mapEvent(event); err == nil {
		t.Fatal("expected error for event missing the away side")
	}
}

func TestParseEventDateVariants(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"2025-09-07T17:00Z", "2025-09-07T17:00:00Z"} {
		parsed, err := parseEventDate(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if parsed.Hour() != 17 {
			t.Fatalf("unexpected hour for %q: %d", raw, parsed.Hour())
		}
	}
	if _, err := parseEventDate("not-a-date"); err == nil {
		t.Fatal("expected parse error")
	}
}
