package market

// Thresholds are in support-scale points (0–100). The automatic and
// attributed spike thresholds are deliberately distinct values: automatic
// detection fires on the pre/post delta at post-stance time, attribution is
// an explicit voter action and uses the looser bound.
const (
	// MindChangeThreshold is the minimum |post - pre| delta for a voter to
	// count as having changed their mind, in both pricing and aggregates.
	MindChangeThreshold = 10

	// AutoSpikeThreshold gates spike detection triggered by recordPostStance.
	AutoSpikeThreshold = 15

	// AttributedSpikeThreshold gates spike detection triggered by an explicit
	// mind-change attribution.
	AttributedSpikeThreshold = 10

	// NeutralPrice is the support price reported when a debate has no votes.
	NeutralPrice = 50

	// DefaultConfidence is used when a submission omits confidence.
	DefaultConfidence = 3
)

// Reputation scoring constants.
const (
	// LowImpactThreshold: changes at or below this magnitude skip the
	// history log to avoid noise rows.
	LowImpactThreshold = 5.0

	// Weighted-score components (sum to 1.0).
	WeightPersuasion     = 0.35
	WeightPrediction     = 0.25
	WeightParticipation  = 0.20
	WeightConsistency    = 0.10
	WeightCommunityTrust = 0.10

	// DecayGraceDays is how long a user can be inactive before decay starts.
	DecayGraceDays = 30

	// DecayPerWeek is the fraction of overall score lost per full week of
	// inactivity beyond the grace period.
	DecayPerWeek = 0.01
)

const (
	PhasePre  = "pre"
	PhasePost = "post"

	DirectionSupport = "support"
	DirectionOppose  = "oppose"
)
