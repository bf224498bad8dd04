package market

import (
	"errors"
	"math"
	"time"

	"github.com/OpenFloor/OF-Backend/internal/auth"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reputation folds persuasion impact and prediction outcomes into a bounded
// per-user score with diminishing returns and lazy inactivity decay.
type Reputation struct {
	db *gorm.DB
}

func NewReputation(db *gorm.DB) *Reputation {
	return &Reputation{db: db}
}

// casRetries bounds the optimistic-retry loop on concurrent factor updates.
const casRetries = 3

// predictionAlpha is the EMA smoothing factor for prediction outcomes.
const predictionAlpha = 0.2

// AdjustedImpactGain applies diminishing returns to a raw impact score given
// the participation count prior to this event. At count 0 the factor is 1;
// it strictly decreases as the count grows and never amplifies.
func AdjustedImpactGain(rawImpactScore float64, priorParticipationCount int) float64 {
	return rawImpactScore / (1 + math.Log10(float64(priorParticipationCount)+1))
}

// fullIdleWeeks counts full weeks of inactivity beyond the grace period.
func fullIdleWeeks(lastActiveAt, now time.Time) int {
	idle := now.Sub(lastActiveAt)
	grace := time.Duration(DecayGraceDays) * 24 * time.Hour
	if idle <= grace {
		return 0
	}
	return int((idle - grace) / (7 * 24 * time.Hour))
}

// decayMultiplier is 1 while active, then shrinks 1% per full idle week.
func decayMultiplier(lastActiveAt, now time.Time) float64 {
	m := 1 - DecayPerWeek*float64(fullIdleWeeks(lastActiveAt, now))
	if m < 0 {
		return 0
	}
	return m
}

func clamp100(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 100 {
		return 100
	}
	return x
}

// scoreFromFactor projects a factor row into the visible score, including
// lazy decay. Pure; callable on any loaded row.
func scoreFromFactor(f *ReputationFactor, now time.Time) ReputationScore {
	persuasion := clamp100(f.ImpactScoreTotal)
	prediction := clamp100(f.PredictionAccuracy)
	quality := clamp100(f.QualityScore)
	consistency := clamp100(float64(f.ParticipationCount) * 2)
	trust := clamp100(f.CommunityTrust)

	overall := WeightPersuasion*persuasion +
		WeightPrediction*prediction +
		WeightParticipation*quality +
		WeightConsistency*consistency +
		WeightCommunityTrust*trust
	overall = round1(clamp100(overall * decayMultiplier(f.LastActiveAt, now)))

	return ReputationScore{
		Overall:            overall,
		PersuasionSkill:    round1(persuasion),
		PredictionAccuracy: round1(prediction),
		Consistency:        round1(consistency),
		TrustLevel:         trustLevel(overall),
	}
}

func trustLevel(overall float64) string {
	switch {
	case overall >= 80:
		return "trusted"
	case overall >= 60:
		return "established"
	case overall >= 35:
		return "contributor"
	default:
		return "newcomer"
	}
}

// getOrCreateFactor loads the user's factor row, creating a zeroed one on
// first access. A create race loses to the existing row and reloads.
func (r *Reputation) getOrCreateFactor(userID string) (*ReputationFactor, error) {
	var factor ReputationFactor
	err := r.db.First(&factor, "user_id = ?", userID).Error
	if err == nil {
		return &factor, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	factor = ReputationFactor{
		UserID:         userID,
		CommunityTrust: 50,
		LastActiveAt:   time.Now(),
	}
	if err := r.db.Create(&factor).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if err := r.db.First(&factor, "user_id = ?", userID).Error; err != nil {
				return nil, err
			}
			return &factor, nil
		}
		return nil, err
	}
	return &factor, nil
}

// CalculateReputation returns the user's current score, creating a zeroed
// factor row on first access rather than failing.
func (r *Reputation) CalculateReputation(userID string) (*ReputationScore, error) {
	factor, err := r.getOrCreateFactor(userID)
	if err != nil {
		return nil, err
	}
	score := scoreFromFactor(factor, time.Now())
	return &score, nil
}

// UpdateReputationOnImpact folds one argument-impact event into the user's
// factors and returns the resulting overall-score change. The factor update
// is an optimistic compare-and-swap on the version column; losing all
// retries returns ErrConflict, which callers may retry. History is appended
// only when the change clears LowImpactThreshold.
func (r *Reputation) UpdateReputationOnImpact(userID string, rawImpactScore float64, debateID string) (float64, error) {
	now := time.Now()

	for attempt := 0; attempt < casRetries; attempt++ {
		factor, err := r.getOrCreateFactor(userID)
		if err != nil {
			return 0, err
		}

		prev := scoreFromFactor(factor, now)
		gain := AdjustedImpactGain(rawImpactScore, factor.ParticipationCount)

		updated := *factor
		updated.ImpactScoreTotal += gain
		updated.ParticipationCount++
		updated.LastActiveAt = now
		next := scoreFromFactor(&updated, now)
		change := round1(next.Overall - prev.Overall)

		var applied bool
		err = r.db.Transaction(func(tx *gorm.DB) error {
			res := tx.Model(&ReputationFactor{}).
				Where("user_id = ? AND version = ?", userID, factor.Version).
				Updates(map[string]any{
					"impact_score_total":  updated.ImpactScoreTotal,
					"participation_count": updated.ParticipationCount,
					"last_active_at":      now,
					"updated_at":          now,
					"version":             factor.Version + 1,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return nil // lost the race; retry outside the tx
			}
			applied = true

			if math.Abs(change) > LowImpactThreshold {
				history := ReputationHistory{
					ID:            uuid.NewString(),
					UserID:        userID,
					PreviousScore: prev.Overall,
					NewScore:      next.Overall,
					ChangeAmount:  change,
					Reason:        "argument impact",
					DebateID:      &debateID,
				}
				if err := tx.Create(&history).Error; err != nil {
					return err
				}
			}

			return tx.Model(&auth.User{}).Where("user_id = ?", userID).
				Update("reputation_score", next.Overall).Error
		})
		if err != nil {
			return 0, err
		}
		if applied {
			return change, nil
		}
	}

	return 0, ErrConflict
}

// RecordPredictionOutcome folds one prediction result (did the voter's
// pre-stance side end up winning) into the accuracy EMA.
func (r *Reputation) RecordPredictionOutcome(userID string, correct bool) (float64, error) {
	now := time.Now()
	outcome := 0.0
	if correct {
		outcome = 100
	}

	for attempt := 0; attempt < casRetries; attempt++ {
		factor, err := r.getOrCreateFactor(userID)
		if err != nil {
			return 0, err
		}

		newAccuracy := round1(factor.PredictionAccuracy*(1-predictionAlpha) + outcome*predictionAlpha)

		res := r.db.Model(&ReputationFactor{}).
			Where("user_id = ? AND version = ?", userID, factor.Version).
			Updates(map[string]any{
				"prediction_accuracy": newAccuracy,
				"last_active_at":      now,
				"updated_at":          now,
				"version":             factor.Version + 1,
			})
		if res.Error != nil {
			return 0, res.Error
		}
		if res.RowsAffected > 0 {
			return newAccuracy, nil
		}
	}

	return 0, ErrConflict
}

// ApplyDecay recomputes the user's decayed score and syncs the projection on
// the user row. Normally decay is applied lazily on read; an external
// scheduler may also call this directly.
func (r *Reputation) ApplyDecay(userID string) (*ReputationScore, error) {
	factor, err := r.getOrCreateFactor(userID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	score := scoreFromFactor(factor, now)

	var user auth.User
	if err := r.db.First(&user, "user_id = ?", userID).Error; err == nil {
		change := round1(score.Overall - user.ReputationScore)
		err = r.db.Transaction(func(tx *gorm.DB) error {
			if math.Abs(change) > LowImpactThreshold {
				history := ReputationHistory{
					ID:            uuid.NewString(),
					UserID:        userID,
					PreviousScore: user.ReputationScore,
					NewScore:      score.Overall,
					ChangeAmount:  change,
					Reason:        "inactivity decay",
				}
				if err := tx.Create(&history).Error; err != nil {
					return err
				}
			}
			return tx.Model(&auth.User{}).Where("user_id = ?", userID).
				Update("reputation_score", score.Overall).Error
		})
		if err != nil {
			return nil, err
		}
	}

	return &score, nil
}

// GetHistory returns the user's reputation audit log, newest first.
func (r *Reputation) GetHistory(userID string) ([]ReputationHistory, error) {
	var rows []ReputationHistory
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&rows).Error
	return rows, err
}
