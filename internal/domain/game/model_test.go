package game

import (
	"testing"
	"time"
)

func intPtr(v int) *int { return &v }

func TestOutcomeFromResult(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		result *int
		want   Outcome
	}{
		{"unfinished", nil, OutcomeNotFinished},
		{"tie", intPtr(0), OutcomeTie},
		{"away win", intPtr(-7), OutcomeAway},
		{"home win", intPtr(3), OutcomeHome},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := OutcomeFromResult(tc.result); got != tc.want {
				t.Fatalf("OutcomeFromResult(%v) = %s, want %s", tc.result, got, tc.want)
			}
		})
	}
}

func TestGameWinnerLoser(t *testing.T) {
	t.Parallel()

	g := Game{ID: "g1", HomeTeamID: "KC", AwayTeamID: "SF", Kickoff: time.Now(), GameTypeID: "SB"}

	if _, ok := g.WinnerTeamID(); ok {
		t.Fatal("unfinished game must not have a winner")
	}

	g.Result = intPtr(-3)
	winner, ok := g.WinnerTeamID()
	if !ok || winner != "SF" {
		t.Fatalf("expected away winner SF, got %q ok=%v", winner, ok)
	}
	loser, ok := g.LoserTeamID()
	if !ok || loser != "KC" {
		t.Fatalf("expected loser KC, got %q ok=%v", loser, ok)
	}

	g.Result = intPtr(0)
	if _, ok := g.WinnerTeamID(); ok {
		t.Fatal("tie must not have a winner")
	}
}

func TestGameValidateRejectsSameTeams(t *testing.T) {
	t.Parallel()

	g := Game{ID: "g1", HomeTeamID: "KC", AwayTeamID: "KC", GameTypeID: "REG", Kickoff: time.Now()}
	if err := g.Validate(); err == nil {
		t.Fatal("expected validation error for identical home and away teams")
	}
}

func TestGameHasTeamsOrderTolerant(t *testing.T) {
	t.Parallel()

	g := Game{HomeTeamID: "KC", AwayTeamID: "SF"}
	if !g.HasTeams("SF", "KC") {
		t.Fatal("expected swapped team order to match")
	}
	if g.HasTeams("KC", "DAL") {
		t.Fatal("unexpected match for wrong team pair")
	}
}
