package market

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Pricing derives the live support/oppose price from ledger state and keeps
// the append-only price history and spike log.
type Pricing struct {
	db *gorm.DB
}

func NewPricing(db *gorm.DB) *Pricing {
	return &Pricing{db: db}
}

// CalculateMarketPrice recomputes the snapshot from raw votes on every call.
// Derived, never authoritative; a debate with no votes prices at 50/50.
func (p *Pricing) CalculateMarketPrice(debateID string) (*MarketPriceSnapshot, error) {
	var stances []Stance
	err := p.db.Where("debate_id = ?", debateID).Order("created_at ASC").Find(&stances).Error
	if err != nil {
		return nil, err
	}
	snap := snapshotFromStances(stances)
	return &snap, nil
}

// snapshotFromStances does the price math over loaded rows. Each voter
// counts once at their most recent value (post if present, else pre); the
// price is the whole-number rounded mean.
func snapshotFromStances(stances []Stance) MarketPriceSnapshot {
	type voterPair struct {
		pre, post *int
	}
	voters := make(map[string]*voterPair)
	for i := range stances {
		s := &stances[i]
		vp := voters[s.VoterID]
		if vp == nil {
			vp = &voterPair{}
			voters[s.VoterID] = vp
		}
		v := s.SupportValue
		switch s.Phase {
		case PhasePre:
			vp.pre = &v
		case PhasePost:
			vp.post = &v
		}
	}

	if len(voters) == 0 {
		return MarketPriceSnapshot{
			SupportPrice: NeutralPrice,
			OpposePrice:  100 - NeutralPrice,
		}
	}

	sum := 0
	mindChanges := 0
	for _, vp := range voters {
		switch {
		case vp.post != nil:
			sum += *vp.post
		case vp.pre != nil:
			sum += *vp.pre
		}
		if vp.pre != nil && vp.post != nil {
			if abs(*vp.post-*vp.pre) >= MindChangeThreshold {
				mindChanges++
			}
		}
	}

	price := int(math.Round(float64(sum) / float64(len(voters))))
	if price < 0 {
		price = 0
	} else if price > 100 {
		price = 100
	}

	return MarketPriceSnapshot{
		SupportPrice:    price,
		OpposePrice:     100 - price,
		TotalVotes:      len(voters),
		MindChangeCount: mindChanges,
	}
}

// RecordMarketDataPoint appends one immutable time-series row. No upsert:
// history is exactly the sequence of calls.
func (p *Pricing) RecordMarketDataPoint(debateID string, supportPrice, voteCount int) (*MarketDataPoint, error) {
	point := MarketDataPoint{
		ID:           uuid.NewString(),
		DebateID:     debateID,
		SupportPrice: supportPrice,
		VoteCount:    voteCount,
	}
	if err := p.db.Create(&point).Error; err != nil {
		return nil, err
	}
	return &point, nil
}

// DetectAndRecordSpike records a spike when |delta| clears the threshold.
// Below-threshold deltas are a silent no-op, not an error.
func (p *Pricing) DetectAndRecordSpike(debateID, argumentID string, delta, threshold int) error {
	return detectAndRecordSpike(p.db, debateID, argumentID, delta, threshold)
}

// detectAndRecordSpike is shared with the ledger so spike writes can join a
// stance transaction.
func detectAndRecordSpike(tx *gorm.DB, debateID, argumentID string, delta, threshold int) error {
	if abs(delta) < threshold {
		return nil
	}
	spike := StanceSpike{
		ID:         uuid.NewString(),
		DebateID:   debateID,
		ArgumentID: argumentID,
		Delta:      delta,
		Direction:  spikeDirection(delta),
		Label:      spikeLabel(delta),
	}
	return tx.Create(&spike).Error
}

func spikeDirection(delta int) string {
	if delta > 0 {
		return DirectionSupport
	}
	return DirectionOppose
}

func spikeLabel(delta int) string {
	if delta > 0 {
		return fmt.Sprintf("%+d toward Support", delta)
	}
	return fmt.Sprintf("%d toward Oppose", delta)
}

// GetMarketHistory returns the price series in append order.
func (p *Pricing) GetMarketHistory(debateID string) ([]MarketDataPoint, error) {
	var points []MarketDataPoint
	err := p.db.Where("debate_id = ?", debateID).Order("created_at ASC").Find(&points).Error
	return points, err
}

// GetSpikes returns a debate's spikes in chronological order.
func (p *Pricing) GetSpikes(debateID string) ([]StanceSpike, error) {
	var spikes []StanceSpike
	err := p.db.Where("debate_id = ?", debateID).Order("created_at ASC").Find(&spikes).Error
	return spikes, err
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
