package nflverse

import (
	"strings"
	"testing"
	"time"
)

const scheduleCSV = `game_id,season,game_type,week,gameday,weekday,gametime,away_team,home_team,away_score,home_score
2025_01_SF_KC,2025,REG,1,2025-09-07,Sunday,13:00,SF,KC,NA,NA
2025_22_KC_PHI,2024,SB,22,2025-02-09,Sunday,18:30,KC,PHI,22,40
`

func TestParseCSVMapsColumnsByHeader(t *testing.T) {
	t.Parallel()

	rows, err := parseCSV(strings.NewReader(scheduleCSV))
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected two rows, got %d", len(rows))
	}
	if rows[0].get("game_id") != "2025_01_SF_KC" {
		t.Fatalf("unexpected game_id: %q", rows[0].get("game_id"))
	}
	if rows[0].get("no_such_column") != "" {
		t.Fatal("unknown column should read as empty")
	}
}

func TestMapScheduleRowConvertsEasternKickoffToUTC(t *testing.T) {
	t.Parallel()

	rows, err := parseCSV(strings.NewReader(scheduleCSV))
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	loc, err := time.LoadLocation(kickoffTimeZone)
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	g, err := mapScheduleRow(rows[0], loc)
	if err != nil {
		t.Fatalf("map row: %v", err)
	}
	// 13:00 Eastern on an EDT date is 17:00 UTC.
	want := time.Date(2025, 9, 7, 17, 0, 0, 0, time.UTC)
	if !g.Kickoff.Equal(want) {
		t.Fatalf("kickoff: got %s want %s", g.Kickoff, want)
	}
	if g.HomeScore != nil || g.AwayScore != nil {
		t.Fatal("NA scores must map to nil")
	}
	if g.HomeTeamCode != "KC" || g.AwayTeamCode != "SF" || g.GameTypeID != "REG" {
		t.Fatalf("unexpected row mapping: %+v", g)
	}
}

func TestMapScheduleRowParsesFinalScores(t *testing.T) {
	t.Parallel()

	rows, err := parseCSV(strings.NewReader(scheduleCSV))
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	loc, _ := time.LoadLocation(kickoffTimeZone)

	g, err := mapScheduleRow(rows[1], loc)
	if err != nil {
		t.Fatalf("map row: %v", err)
	}
	if g.HomeScore == nil || *g.HomeScore != 40 {
		t.Fatalf("unexpected home score: %v", g.HomeScore)
	}
	if g.AwayScore == nil || *g.AwayScore != 22 {
		t.Fatalf("unexpected away score: %v", g.AwayScore)
	}
	if g.GameTypeID != "SB" {
		t.Fatalf("unexpected game type: %q", g.GameTypeID)
	}
}

func TestParseOptionalInt(t *testing.T) {
	t.Parallel()

	if v, err := parseOptionalInt("NA"); err != nil || v != nil {
		t.Fatalf("NA should be nil, got %v err=%v", v, err)
	}
	if v, err := parseOptionalInt(""); err != nil || v != nil {
		t.Fatalf("empty should be nil, got %v err=%v", v, err)
	}
	if v, err := parseOptionalInt("21"); err != nil || v == nil || *v != 21 {
		t.Fatalf("expected 21, got %v err=%v", v, err)
	}
	if _, err := parseOptionalInt("abc"); err == nil {
		t.Fatal("expected error for non-numeric score")
	}
}
