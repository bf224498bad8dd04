package market

import (
	"errors"
	"fmt"

	"github.com/OpenFloor/OF-Backend/internal/debate"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ledger records pre/post stance votes and enforces the phase protocol:
// one pre and one post per (debate, voter), post only after pre.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

func validateStanceInput(supportValue, confidence int) error {
	if supportValue < 0 || supportValue > 100 {
		return fmt.Errorf("%w: support value %d not in [0,100]", ErrInvalidRange, supportValue)
	}
	if confidence < 1 || confidence > 5 {
		return fmt.Errorf("%w: confidence %d not in [1,5]", ErrInvalidRange, confidence)
	}
	return nil
}

// RecordPreStance writes the voter's blind pre-stance. A confidence of 0
// means "not supplied" and takes the default. A second pre-stance for the
// same (debate, voter) fails with ErrAlreadyRecorded; the unique index makes
// that hold under concurrent writers.
func (l *Ledger) RecordPreStance(debateID, voterID string, supportValue, confidence int) (*Stance, error) {
	if confidence == 0 {
		confidence = DefaultConfidence
	}
	if err := validateStanceInput(supportValue, confidence); err != nil {
		return nil, err
	}

	stance := Stance{
		ID:           uuid.NewString(),
		DebateID:     debateID,
		VoterID:      voterID,
		Phase:        PhasePre,
		SupportValue: supportValue,
		Confidence:   confidence,
	}
	if err := l.db.Create(&stance).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyRecorded
		}
		return nil, err
	}
	return &stance, nil
}

// RecordPostStance writes the voter's post-stance and computes the
// persuasion delta against their pre-stance. When an attributed argument is
// supplied and the delta clears AutoSpikeThreshold, the spike row is written
// in the same transaction as the stance: both persist or neither does.
func (l *Ledger) RecordPostStance(debateID, voterID string, supportValue, confidence int, attributedArgumentID *string) (*Stance, *PersuasionDelta, error) {
	if confidence == 0 {
		confidence = DefaultConfidence
	}
	if err := validateStanceInput(supportValue, confidence); err != nil {
		return nil, nil, err
	}

	var pre Stance
	err := l.db.Where("debate_id = ? AND voter_id = ? AND phase = ?", debateID, voterID, PhasePre).
		First(&pre).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrPreStanceRequired
		}
		return nil, nil, err
	}

	stance := Stance{
		ID:                   uuid.NewString(),
		DebateID:             debateID,
		VoterID:              voterID,
		Phase:                PhasePost,
		SupportValue:         supportValue,
		Confidence:           confidence,
		AttributedArgumentID: attributedArgumentID,
	}
	delta := supportValue - pre.SupportValue

	err = l.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&stance).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyRecorded
			}
			return err
		}
		if attributedArgumentID != nil {
			if err := detectAndRecordSpike(tx, debateID, *attributedArgumentID, delta, AutoSpikeThreshold); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return &stance, &PersuasionDelta{
		PreValue:  pre.SupportValue,
		PostValue: supportValue,
		Delta:     delta,
	}, nil
}

// GetUserStances returns whatever the voter has recorded for the debate.
func (l *Ledger) GetUserStances(debateID, voterID string) (*UserStances, error) {
	var rows []Stance
	err := l.db.Where("debate_id = ? AND voter_id = ?", debateID, voterID).Find(&rows).Error
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

// GetPersuasionDelta returns the voter's pre→post movement, or nil when the
// voter hasn't completed both phases.
func (l *Ledger) GetPersuasionDelta(debateID, voterID string) (*PersuasionDelta, error) {
	stances, err := l.GetUserStances(debateID, voterID)
	if err != nil {
		return nil, err
	}
	if stances.Pre == nil || stances.Post == nil {
		return nil, nil
	}
	return &PersuasionDelta{
		PreValue:  stances.Pre.SupportValue,
		PostValue: stances.Post.SupportValue,
		Delta:     stances.Post.SupportValue - stances.Pre.SupportValue,
	}, nil
}

// AttributionResult carries everything the transport layer needs to push
// after a mind-change attribution, so it never re-queries.
type AttributionResult struct {
	ArgumentID      string  `json:"argument_id"`
	DebateID        string  `json:"debate_id"`
	AuthorID        string  `json:"author_id"`
	ImpactScore     float64 `json:"impact_score"`
	MindChangeCount int     `json:"mind_change_count"`
	VoterDelta      int     `json:"voter_delta"`
	Repeated        bool    `json:"repeated,omitempty"`
}

// AttributeMindChange credits the voter's recorded mind change to an
// argument, recomputes the argument's impact score (signed deltas averaged
// over attributing voters), and records a spike when the voter's own delta
// clears AttributedSpikeThreshold.
func (l *Ledger) AttributeMindChange(argumentID, voterID string) (*AttributionResult, error) {
	var arg debate.Argument
	if err := l.db.First(&arg, "id = ?", argumentID).Error; err != nil {
		return nil, err
	}

	stances, err := l.GetUserStances(arg.DebateID, voterID)
	if err != nil {
		return nil, err
	}
	if stances.Post == nil || stances.Pre == nil {
		return nil, ErrPostStanceRequired
	}
	delta := stances.Post.SupportValue - stances.Pre.SupportValue
	if stances.Post.AttributedArgumentID != nil {
		if *stances.Post.AttributedArgumentID != argumentID {
			// Attribution is a one-shot action; credit doesn't move between arguments.
			return nil, ErrAlreadyRecorded
		}
		// Replay of a committed attribution: report current state, write
		// nothing. No new spike row, no new impact recompute.
		return &AttributionResult{
			ArgumentID:      argumentID,
			DebateID:        arg.DebateID,
			AuthorID:        arg.AuthorID,
			ImpactScore:     arg.ImpactScore,
			MindChangeCount: arg.MindChangeCount,
			VoterDelta:      delta,
			Repeated:        true,
		}, nil
	}

	var impact float64
	var attributions int
	err = l.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Stance{}).Where("id = ?", stances.Post.ID).
			Update("attributed_argument_id", argumentID).Error; err != nil {
			return err
		}

		var agg struct {
			Avg   float64
			Count int
		}
		err := tx.Raw(`
			SELECT COALESCE(AVG(post.support_value - pre.support_value), 0) AS avg, COUNT(*) AS count
			FROM market.stances post
			JOIN market.stances pre
			  ON pre.debate_id = post.debate_id
			 AND pre.voter_id = post.voter_id
			 AND pre.phase = 'pre'
			WHERE post.phase = 'post' AND post.attributed_argument_id = ?`, argumentID).
			Scan(&agg).Error
		if err != nil {
			return err
		}
		impact = agg.Avg
		attributions = agg.Count

		if err := tx.Model(&debate.Argument{}).Where("id = ?", argumentID).
			Updates(map[string]any{
				"impact_score":      impact,
				"mind_change_count": agg.Count,
			}).Error; err != nil {
			return err
		}

		return detectAndRecordSpike(tx, arg.DebateID, argumentID, delta, AttributedSpikeThreshold)
	})
	if err != nil {
		return nil, err
	}
	return &AttributionResult{
		ArgumentID:      argumentID,
		DebateID:        arg.DebateID,
		AuthorID:        arg.AuthorID,
		ImpactScore:     impact,
		MindChangeCount: attributions,
		VoterDelta:      delta,
	}, nil
}
