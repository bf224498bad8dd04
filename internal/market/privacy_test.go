package market

import (
	"encoding/json"
	"testing"
)

func stance(voterID, phase string, value int) Stance {
	return Stance{VoterID: voterID, Phase: phase, SupportValue: value}
}

// TestFilterForPublicResponse_Example checks the aggregate math on the
// canonical two-voter case: A moves 40→70, B moves 60→55.
func TestFilterForPublicResponse_Example(t *testing.T) {
	stances := []Stance{
		stance("voter-a", PhasePre, 40),
		stance("voter-a", PhasePost, 70),
		stance("voter-b", PhasePre, 60),
		stance("voter-b", PhasePost, 55),
	}

	got := FilterForPublicResponse(stances)

	if got.TotalVoters != 2 {
		t.Errorf("TotalVoters = %d, want 2", got.TotalVoters)
	}
	if got.AveragePreStance != 50 {
		t.Errorf("AveragePreStance = %v, want 50", got.AveragePreStance)
	}
	if got.AveragePostStance != 62.5 {
		t.Errorf("AveragePostStance = %v, want 62.5", got.AveragePostStance)
	}
	if got.AverageDelta != 12.5 {
		t.Errorf("AverageDelta = %v, want 12.5", got.AverageDelta)
	}
	if got.MindChangedCount != 1 {
		t.Errorf("MindChangedCount = %d, want 1 (only A moved >= %d)", got.MindChangedCount, MindChangeThreshold)
	}
}

// TestFilterForPublicResponse_Empty verifies the safe default on no input.
func TestFilterForPublicResponse_Empty(t *testing.T) {
	got := FilterForPublicResponse(nil)

	want := AggregateStanceData{TotalVoters: 0, AveragePreStance: 50, AveragePostStance: 50, AverageDelta: 0, MindChangedCount: 0}
	if got != want {
		t.Errorf("FilterForPublicResponse(nil) = %+v, want %+v", got, want)
	}
}

// TestFilterForPublicResponse_ExcludesIncompleteVoters: voters with only one
// phase recorded must not contribute to any aggregate.
func TestFilterForPublicResponse_ExcludesIncompleteVoters(t *testing.T) {
	stances := []Stance{
		stance("voter-a", PhasePre, 40),
		stance("voter-a", PhasePost, 70),
		stance("voter-b", PhasePre, 0), // no post; would drag the mean if counted
		stance("voter-c", PhasePost, 100),
	}

	got := FilterForPublicResponse(stances)

	if got.TotalVoters != 1 {
		t.Errorf("TotalVoters = %d, want 1", got.TotalVoters)
	}
	if got.AveragePreStance != 40 || got.AveragePostStance != 70 {
		t.Errorf("averages = %v/%v, want 40/70", got.AveragePreStance, got.AveragePostStance)
	}
}

// TestFilterForPublicResponse_NoVoterLeakage: the output's JSON key set is
// exactly the five aggregate fields and no value echoes a voter id.
func TestFilterForPublicResponse_NoVoterLeakage(t *testing.T) {
	voterIDs := []string{"secret-voter-1", "secret-voter-2"}
	stances := []Stance{
		stance(voterIDs[0], PhasePre, 10),
		stance(voterIDs[0], PhasePost, 90),
		stance(voterIDs[1], PhasePre, 50),
		stance(voterIDs[1], PhasePost, 50),
	}

	raw, err := json.Marshal(FilterForPublicResponse(stances))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var asMap map[string]any
	if err := json.Unmarshal(raw, &asMap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	wantKeys := map[string]bool{
		"total_voters":        true,
		"average_pre_stance":  true,
		"average_post_stance": true,
		"average_delta":       true,
		"mind_changed_count":  true,
	}
	if len(asMap) != len(wantKeys) {
		t.Errorf("output has %d keys, want %d: %v", len(asMap), len(wantKeys), asMap)
	}
	for k := range asMap {
		if !wantKeys[k] {
			t.Errorf("unexpected key %q in aggregate output", k)
		}
	}
	for _, id := range voterIDs {
		for _, v := range asMap {
			if s, ok := v.(string); ok && s == id {
				t.Errorf("voter id %q leaked into aggregate output", id)
			}
		}
	}
}

// TestCanAccessOwnStance: reflexive for every id, false for every distinct pair.
func TestCanAccessOwnStance(t *testing.T) {
	ids := []string{"a", "b", "some-uuid", ""}
	for _, id := range ids {
		if !CanAccessOwnStance(id, id) {
			t.Errorf("CanAccessOwnStance(%q, %q) = false, want true", id, id)
		}
	}
	if CanAccessOwnStance("a", "b") || CanAccessOwnStance("b", "a") {
		t.Error("distinct users must never access each other's stances")
	}
}

func TestValidatePrivacyCompliance(t *testing.T) {
	cases := []struct {
		name  string
		query PrivacyQuery
		valid bool
	}{
		{"aggregate only", PrivacyQuery{AggregateOnly: true}, true},
		{"aggregate wins even with a voter id", PrivacyQuery{AggregateOnly: true, TargetVoterID: "v"}, true},
		{"voter id without self access", PrivacyQuery{TargetVoterID: "v", RequesterID: "v"}, false},
		{"self access mismatch", PrivacyQuery{TargetVoterID: "v", RequesterID: "other", SelfAccess: true}, false},
		{"self access match", PrivacyQuery{TargetVoterID: "v", RequesterID: "v", SelfAccess: true}, true},
		{"no voter id at all", PrivacyQuery{}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ValidatePrivacyCompliance(tc.query)
			if got.Valid != tc.valid {
				t.Errorf("ValidatePrivacyCompliance(%+v).Valid = %v, want %v (reason %q)", tc.query, got.Valid, tc.valid, got.Reason)
			}
			if !got.Valid && got.Reason == "" {
				t.Error("invalid result must carry a reason")
			}
		})
	}
}
