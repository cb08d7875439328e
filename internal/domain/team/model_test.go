package team

import (
	"testing"

	"github.com/riskibarqy/dota-team-tracker/internal/domain/match"
)

func TestParseKey(t *testing.T) {
	t.Parallel()

	teamID, leagueID, err := ParseKey("9517508-16435")
	if err != nil {
		t.Fatalf("ParseKey: %v", err)
	}
	if teamID != "9517508" || leagueID != "16435" {
		t.Fatalf("unexpected parts: %s %s", teamID, leagueID)
	}

	for _, bad := range []string{"", "9517508", "abc-16435", "9517508-", "0-1"} {
		if _, _, err := ParseKey(bad); err == nil {
			t.Fatalf("ParseKey(%q) expected error", bad)
		}
	}
}

func TestPlaceholder(t *testing.T) {
	t.Parallel()

	p := Placeholder("9517508", "16435")
	if p.ID != "9517508-16435" || p.Name != "9517508" || p.LeagueName != "16435" || !p.Loading {
		t.Fatalf("unexpected placeholder: %+v", p)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("placeholder should validate: %v", err)
	}
}

func TestValidate_RejectsDuplicateMatchIDsIncludingPending(t *testing.T) {
	t.Parallel()

	tm := Placeholder("1", "2")
	tm.Matches = []match.Match{{ID: "100", PendingID: "200"}, {ID: "200"}}
	if err := tm.Validate(); err == nil {
		t.Fatalf("expected duplicate pending id to fail validation")
	}
	if !tm.HasMatchID("200") {
		t.Fatalf("expected pending id to count as present")
	}
}

func TestClone_IsDeep(t *testing.T) {
	t.Parallel()

	tm := Placeholder("1", "2")
	tm.Roster = []RosterEntry{{AccountID: "5"}}
	tm.Matches = []match.Match{{ID: "100", Detail: &match.Detail{Won: true}}}

	cp := tm.Clone()
	cp.Roster[0].AccountID = "6"
	cp.Matches[0].Detail.Won = false

	if tm.Roster[0].AccountID != "5" || !tm.Matches[0].Detail.Won {
		t.Fatalf("clone mutated original: %+v", tm)
	}
}
