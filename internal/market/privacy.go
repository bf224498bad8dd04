package market

import (
	"math"
	"sort"

	"github.com/OpenFloor/OF-Backend/internal/debate"
	"gorm.io/gorm"
)

// Guard is the only read surface external callers may use for multi-voter
// data. Everything it returns is either aggregate-only or strictly
// self-access; raw ledger rows never leave this package for anyone else.
type Guard struct {
	db *gorm.DB
	// allowDebaterBypass lets the two debaters read the market price without
	// a pre-stance. They can't be blinded to sentiment on their own debate
	// anyway; policy is configurable for deployments that disagree.
	allowDebaterBypass bool
}

func NewGuard(db *gorm.DB, allowDebaterBypass bool) *Guard {
	return &Guard{db: db, allowDebaterBypass: allowDebaterBypass}
}

// PrivacyQuery describes an internal query shape for the compliance check.
type PrivacyQuery struct {
	AggregateOnly bool
	TargetVoterID string
	RequesterID   string
	SelfAccess    bool
}

// ComplianceResult reports whether a query shape may touch raw voter rows.
type ComplianceResult struct {
	Valid  bool
	Reason string
}

// ValidatePrivacyCompliance is the guard-the-guard check, applied before any
// code path reads per-voter rows. Rules in priority order: aggregate-only is
// always fine; naming a voter outside self-access is never fine; self-access
// must actually be self.
func ValidatePrivacyCompliance(q PrivacyQuery) ComplianceResult {
	if q.AggregateOnly {
		return ComplianceResult{Valid: true}
	}
	if q.TargetVoterID != "" && !q.SelfAccess {
		return ComplianceResult{Valid: false, Reason: "individual voter data requires self-access"}
	}
	if q.SelfAccess && q.RequesterID != q.TargetVoterID {
		return ComplianceResult{Valid: false, Reason: "self-access requester does not match target"}
	}
	return ComplianceResult{Valid: true}
}

// FilterForPublicResponse collapses raw rows into aggregate statistics.
// Only voters with both a pre and a post stance qualify; means are rounded
// to one decimal. The output shape carries no voter identifier.
func FilterForPublicResponse(stances []Stance) AggregateStanceData {
	type pair struct {
		pre, post *int
	}
	voters := make(map[string]*pair)
	for i := range stances {
		s := &stances[i]
		p := voters[s.VoterID]
		if p == nil {
			p = &pair{}
			voters[s.VoterID] = p
		}
		v := s.SupportValue
		switch s.Phase {
		case PhasePre:
			p.pre = &v
		case PhasePost:
			p.post = &v
		}
	}

	var preSum, postSum float64
	qualified := 0
	mindChanged := 0
	for _, p := range voters {
		if p.pre == nil || p.post == nil {
			continue
		}
		qualified++
		preSum += float64(*p.pre)
		postSum += float64(*p.post)
		if abs(*p.post-*p.pre) >= MindChangeThreshold {
			mindChanged++
		}
	}

	if qualified == 0 {
		// Safe default: neutral averages, nothing to learn from.
		return AggregateStanceData{
			TotalVoters:       0,
			AveragePreStance:  50,
			AveragePostStance: 50,
			AverageDelta:      0,
			MindChangedCount:  0,
		}
	}

	avgPre := round1(preSum / float64(qualified))
	avgPost := round1(postSum / float64(qualified))
	return AggregateStanceData{
		TotalVoters:       qualified,
		AveragePreStance:  avgPre,
		AveragePostStance: avgPost,
		AverageDelta:      round1(avgPost - avgPre),
		MindChangedCount:  mindChanged,
	}
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// GetAggregateStats loads a debate's stances and returns aggregate-only data.
func (g *Guard) GetAggregateStats(debateID string) (AggregateStanceData, error) {
	if check := ValidatePrivacyCompliance(PrivacyQuery{AggregateOnly: true}); !check.Valid {
		// Unreachable for an aggregate-only query; degrade to the safe default.
		return FilterForPublicResponse(nil), nil
	}

	var stances []Stance
	if err := g.db.Where("debate_id = ?", debateID).Find(&stances).Error; err != nil {
		return AggregateStanceData{}, err
	}
	return FilterForPublicResponse(stances), nil
}

// CanAccessOwnStance is a pure equality check: reflexive, false otherwise.
func CanAccessOwnStance(ownerID, requesterID string) bool {
	return ownerID == requesterID
}

// GetOwnStances returns the owner's rows only when the requester is the
// owner; otherwise nil, not an error, so callers can branch.
func (g *Guard) GetOwnStances(debateID, ownerID, requesterID string) (*UserStances, error) {
	if !CanAccessOwnStance(ownerID, requesterID) {
		return nil, nil
	}
	check := ValidatePrivacyCompliance(PrivacyQuery{
		TargetVoterID: ownerID,
		RequesterID:   requesterID,
		SelfAccess:    true,
	})
	if !check.Valid {
		return nil, nil
	}

	var rows []Stance
	err := g.db.Where("debate_id = ? AND voter_id = ?", debateID, ownerID).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := UserStances{}
	for i := range rows {
		switch rows[i].Phase {
		case PhasePre:
			out.Pre = &rows[i]
		case PhasePost:
			out.Post = &rows[i]
		}
	}
	return &out, nil
}

// HasPreStance reports whether the user has a recorded pre-stance for the
// debate.
func (g *Guard) HasPreStance(debateID, userID string) (bool, error) {
	var count int64
	err := g.db.Model(&Stance{}).
		Where("debate_id = ? AND voter_id = ? AND phase = ?", debateID, userID, PhasePre).
		Count(&count).Error
	return count > 0, err
}

// CanAccessMarketPrice is the blind-voting gate: no aggregate price until
// the user has committed a pre-stance for this specific debate. Debaters
// bypass the read gate when the policy allows it.
func (g *Guard) CanAccessMarketPrice(debateID, userID string) (AccessCheck, error) {
	if g.allowDebaterBypass {
		var d debate.Debate
		if err := g.db.First(&d, "id = ?", debateID).Error; err == nil {
			if d.ProUserID == userID || d.ConUserID == userID {
				return AccessCheck{CanAccess: true}, nil
			}
		}
	}

	has, err := g.HasPreStance(debateID, userID)
	if err != nil {
		return AccessCheck{}, err
	}
	if !has {
		return AccessCheck{
			CanAccess: false,
			Reason:    "record your pre-stance before viewing the market price",
		}, nil
	}
	return AccessCheck{CanAccess: true}, nil
}

// GetVotingHistory returns the requester's own cross-debate record, one
// entry per debate, most recent vote first. Nil for anyone else.
func (g *Guard) GetVotingHistory(ownerID, requesterID string) ([]VotingHistoryEntry, error) {
	if !CanAccessOwnStance(ownerID, requesterID) {
		return nil, nil
	}
	check := ValidatePrivacyCompliance(PrivacyQuery{
		TargetVoterID: ownerID,
		RequesterID:   requesterID,
		SelfAccess:    true,
	})
	if !check.Valid {
		return nil, nil
	}

	var rows []Stance
	err := g.db.Where("voter_id = ?", ownerID).Order("created_at ASC").Find(&rows).Error
	if err != nil {
		return nil, err
	}

	byDebate := make(map[string]*VotingHistoryEntry)
	var order []string
	for i := range rows {
		s := &rows[i]
		e := byDebate[s.DebateID]
		if e == nil {
			e = &VotingHistoryEntry{DebateID: s.DebateID}
			byDebate[s.DebateID] = e
			order = append(order, s.DebateID)
		}
		v := s.SupportValue
		switch s.Phase {
		case PhasePre:
			e.PreValue = &v
		case PhasePost:
			e.PostValue = &v
		}
		if s.CreatedAt.After(e.LastVotedAt) {
			e.LastVotedAt = s.CreatedAt
		}
	}

	entries := make([]VotingHistoryEntry, 0, len(order))
	for _, id := range order {
		e := byDebate[id]
		if e.PreValue != nil && e.PostValue != nil {
			d := *e.PostValue - *e.PreValue
			e.Delta = &d
		}
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].LastVotedAt.After(entries[j].LastVotedAt)
	})
	return entries, nil
}
