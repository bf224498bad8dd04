package market

import (
	"time"
)

// Stance is one voter's recorded opinion for one debate in one phase.
// The composite unique index enforces at most one pre and one post row per
// (debate, voter); a second write to an occupied phase is rejected.
type Stance struct {
	ID                   string    `gorm:"primaryKey" json:"id"`
	DebateID             string    `gorm:"not null;index:idx_stance_debate_voter_phase,unique;priority:1" json:"debate_id"`
	VoterID              string    `gorm:"not null;index:idx_stance_debate_voter_phase,unique;priority:2;index" json:"voter_id"`
	Phase                string    `gorm:"not null;index:idx_stance_debate_voter_phase,unique;priority:3" json:"phase"` // pre, post
	SupportValue         int       `gorm:"not null" json:"support_value"`                                               // 0..100
	Confidence           int       `gorm:"default:3" json:"confidence"`                                                 // 1..5
	AttributedArgumentID *string   `gorm:"index" json:"attributed_argument_id,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
}

func (Stance) TableName() string { return "market.stances" }

// MarketDataPoint is one immutable point of the price time series. Pure
// append: history is exactly the sequence of recorded points.
type MarketDataPoint struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	DebateID     string    `gorm:"not null;index" json:"debate_id"`
	SupportPrice int       `gorm:"not null" json:"support_price"`
	VoteCount    int       `gorm:"not null" json:"vote_count"`
	CreatedAt    time.Time `json:"created_at"`
}

func (MarketDataPoint) TableName() string { return "market.data_points" }

// StanceSpike records a large argument-attributed opinion swing. Append-only.
type StanceSpike struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	DebateID   string    `gorm:"not null;index" json:"debate_id"`
	ArgumentID string    `gorm:"not null;index" json:"argument_id"`
	Delta      int       `gorm:"not null" json:"delta"`     // signed
	Direction  string    `gorm:"not null" json:"direction"` // support, oppose
	Label      string    `json:"label"`
	CreatedAt  time.Time `json:"created_at"`
}

func (StanceSpike) TableName() string { return "market.stance_spikes" }

// ReputationFactor is the per-user accumulator the reputation engine folds
// events into. Version guards concurrent read-modify-write cycles.
type ReputationFactor struct {
	UserID             string    `gorm:"primaryKey" json:"user_id"`
	ImpactScoreTotal   float64   `gorm:"default:0" json:"impact_score_total"`
	PredictionAccuracy float64   `gorm:"default:0" json:"prediction_accuracy"` // 0..100
	ParticipationCount int       `gorm:"default:0" json:"participation_count"`
	QualityScore       float64   `gorm:"default:0" json:"quality_score"`   // 0..100
	CommunityTrust     float64   `gorm:"default:50" json:"community_trust"` // 0..100, neutral start
	Version            int64     `gorm:"default:0" json:"-"`
	LastActiveAt       time.Time `json:"last_active_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (ReputationFactor) TableName() string { return "market.reputation_factors" }

// ReputationHistory is the append-only audit log of score changes. Rows are
// only written when |change| exceeds LowImpactThreshold.
type ReputationHistory struct {
	ID            string    `gorm:"primaryKey" json:"id"`
	UserID        string    `gorm:"not null;index" json:"user_id"`
	PreviousScore float64   `json:"previous_score"`
	NewScore      float64   `json:"new_score"`
	ChangeAmount  float64   `json:"change_amount"`
	Reason        string    `json:"reason"`
	DebateID      *string   `json:"debate_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func (ReputationHistory) TableName() string { return "market.reputation_history" }

// MarketPriceSnapshot is the derived point-in-time price. Never stored as
// authoritative state; recomputed from the ledger on each read.
type MarketPriceSnapshot struct {
	SupportPrice    int `json:"support_price"`
	OpposePrice     int `json:"oppose_price"`
	TotalVotes      int `json:"total_votes"`
	MindChangeCount int `json:"mind_change_count"`
}

// AggregateStanceData is the only multi-voter shape external callers ever
// see. It structurally has no voter-identifying field; keep it that way.
type AggregateStanceData struct {
	TotalVoters       int     `json:"total_voters"`
	AveragePreStance  float64 `json:"average_pre_stance"`
	AveragePostStance float64 `json:"average_post_stance"`
	AverageDelta      float64 `json:"average_delta"`
	MindChangedCount  int     `json:"mind_changed_count"`
}

// PersuasionDelta is the computed pre→post movement for one voter.
type PersuasionDelta struct {
	PreValue  int `json:"pre_value"`
	PostValue int `json:"post_value"`
	Delta     int `json:"delta"`
}

// UserStances bundles a voter's own rows; self-access only.
type UserStances struct {
	Pre  *Stance `json:"pre,omitempty"`
	Post *Stance `json:"post,omitempty"`
}

// VotingHistoryEntry is one debate's worth of a user's own voting record.
type VotingHistoryEntry struct {
	DebateID    string    `json:"debate_id"`
	PreValue    *int      `json:"pre_value,omitempty"`
	PostValue   *int      `json:"post_value,omitempty"`
	Delta       *int      `json:"delta,omitempty"`
	LastVotedAt time.Time `json:"last_voted_at"`
}

// ReputationScore is the externally visible projection of a user's factors.
type ReputationScore struct {
	Overall            float64 `json:"overall"`
	PersuasionSkill    float64 `json:"persuasion_skill"`
	PredictionAccuracy float64 `json:"prediction_accuracy"`
	Consistency        float64 `json:"consistency"`
	TrustLevel         string  `json:"trust_level"`
}

// AccessCheck is the blind-voting gate result. Not an error: callers branch
// on CanAccess.
type AccessCheck struct {
	CanAccess bool   `json:"can_access"`
	Reason    string `json:"reason,omitempty"`
}
