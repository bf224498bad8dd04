package market

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/OpenFloor/OF-Backend/internal/auth"
	"github.com/OpenFloor/OF-Backend/internal/debate"
	"github.com/OpenFloor/OF-Backend/internal/sse"
	"github.com/OpenFloor/OF-Backend/internal/utils"
	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

// Handler is the market's HTTP surface. The four engine components are
// explicit instances sharing one gorm handle; nothing here reaches global
// state beyond that.
type Handler struct {
	ledger     *Ledger
	pricing    *Pricing
	guard      *Guard
	reputation *Reputation
	hub        *sse.Hub
}

func NewHandler(db *gorm.DB, hub *sse.Hub) *Handler {
	return &Handler{
		ledger:     NewLedger(db),
		pricing:    NewPricing(db),
		guard:      NewGuard(db, true),
		reputation: NewReputation(db),
		hub:        hub,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeEngineError(w http.ResponseWriter, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	if IsRetryable(err) {
		w.Header().Set("Retry-After", "1")
	}
	http.Error(w, err.Error(), HTTPStatus(err))
}

// publishSnapshot appends a history point and pushes the fresh snapshot to
// the debate's subscribers. Both are built from the returned snapshot; no
// second price query.
func (h *Handler) publishSnapshot(debateID string) (*MarketPriceSnapshot, error) {
	snap, err := h.pricing.CalculateMarketPrice(debateID)
	if err != nil {
		return nil, err
	}
	if _, err := h.pricing.RecordMarketDataPoint(debateID, snap.SupportPrice, snap.TotalVotes); err != nil {
		return nil, err
	}
	h.hub.Broadcast(sse.Event{
		Channel: sse.DebateChannel(debateID),
		Type:    sse.EventMarketPrice,
		Data:    snap,
	})
	return snap, nil
}

type stanceInput struct {
	SupportValue         int     `json:"support_value"`
	Confidence           int     `json:"confidence"`
	AttributedArgumentID *string `json:"attributed_argument_id"`
}

// RecordPreStance handles the blind pre-vote.
func (h *Handler) RecordPreStance(w http.ResponseWriter, r *http.Request) {
	debateID := chi.URLParam(r, "debate_id")

	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var input stanceInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	stance, err := h.ledger.RecordPreStance(debateID, userID, input.SupportValue, input.Confidence)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	// The stance is committed; a failed history append or push must not turn
	// the write into an error response.
	if _, err := h.publishSnapshot(debateID); err != nil {
		log.Printf("market: failed to publish snapshot for debate %s: %v", debateID, err)
	}

	writeJSON(w, http.StatusCreated, stance)
}

// RecordPostStance handles the post-vote and returns the persuasion delta so
// the client doesn't have to re-derive it.
func (h *Handler) RecordPostStance(w http.ResponseWriter, r *http.Request) {
	debateID := chi.URLParam(r, "debate_id")

	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var input stanceInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	stance, delta, err := h.ledger.RecordPostStance(debateID, userID, input.SupportValue, input.Confidence, input.AttributedArgumentID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	if input.AttributedArgumentID != nil && abs(delta.Delta) >= AutoSpikeThreshold {
		h.hub.Broadcast(sse.Event{
			Channel: sse.DebateChannel(debateID),
			Type:    sse.EventStanceSpike,
			Data: map[string]any{
				"argument_id": *input.AttributedArgumentID,
				"delta":       delta.Delta,
				"direction":   spikeDirection(delta.Delta),
				"label":       spikeLabel(delta.Delta),
			},
		})
	}

	if _, err := h.publishSnapshot(debateID); err != nil {
		log.Printf("market: failed to publish snapshot for debate %s: %v", debateID, err)
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"stance": stance,
		"delta":  delta,
	})
}

// GetOwnStances is strictly self-access: requesting anyone else's rows
// returns JSON null, not an error.
func (h *Handler) GetOwnStances(w http.ResponseWriter, r *http.Request) {
	debateID := chi.URLParam(r, "debate_id")
	ownerID := chi.URLParam(r, "owner_id")

	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	stances, err := h.guard.GetOwnStances(debateID, ownerID, userID)
	if err != nil {
		http.Error(w, "Failed to fetch stances: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stances)
}

// GetPersuasionDelta returns the caller's own pre→post movement, or null.
func (h *Handler) GetPersuasionDelta(w http.ResponseWriter, r *http.Request) {
	debateID := chi.URLParam(r, "debate_id")

	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	delta, err := h.ledger.GetPersuasionDelta(debateID, userID)
	if err != nil {
		http.Error(w, "Failed to fetch delta: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, delta)
}

// GetMarketPrice serves the live snapshot behind the blind-voting gate.
func (h *Handler) GetMarketPrice(w http.ResponseWriter, r *http.Request) {
	debateID := chi.URLParam(r, "debate_id")

	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	access, err := h.guard.CanAccessMarketPrice(debateID, userID)
	if err != nil {
		http.Error(w, "Failed to check access: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if !access.CanAccess {
		writeJSON(w, http.StatusForbidden, access)
		return
	}

	snap, err := h.pricing.CalculateMarketPrice(debateID)
	if err != nil {
		http.Error(w, "Failed to compute price: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// GetAggregateStats serves the aggregate-only statistics.
func (h *Handler) GetAggregateStats(w http.ResponseWriter, r *http.Request) {
	debateID := chi.URLParam(r, "debate_id")

	stats, err := h.guard.GetAggregateStats(debateID)
	if err != nil {
		http.Error(w, "Failed to compute stats: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GetMarketHistory serves the price time series. Each point carries a
// support price, so the series sits behind the same blind-voting gate as the
// live price.
func (h *Handler) GetMarketHistory(w http.ResponseWriter, r *http.Request) {
	debateID := chi.URLParam(r, "debate_id")

	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	access, err := h.guard.CanAccessMarketPrice(debateID, userID)
	if err != nil {
		http.Error(w, "Failed to check access: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if !access.CanAccess {
		writeJSON(w, http.StatusForbidden, access)
		return
	}

	points, err := h.pricing.GetMarketHistory(debateID)
	if err != nil {
		http.Error(w, "Failed to fetch history: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (h *Handler) GetSpikes(w http.ResponseWriter, r *http.Request) {
	debateID := chi.URLParam(r, "debate_id")

	spikes, err := h.pricing.GetSpikes(debateID)
	if err != nil {
		http.Error(w, "Failed to fetch spikes: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, spikes)
}

// GetVotingHistory serves the caller's own cross-debate record.
func (h *Handler) GetVotingHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	entries, err := h.guard.GetVotingHistory(userID, userID)
	if err != nil {
		http.Error(w, "Failed to fetch voting history: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// AttributeMindChange credits an argument with the caller's mind change,
// then folds the persuasion outcome into the author's reputation.
func (h *Handler) AttributeMindChange(w http.ResponseWriter, r *http.Request) {
	argumentID := chi.URLParam(r, "argument_id")

	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	result, err := h.ledger.AttributeMindChange(argumentID, userID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	// A replayed attribution is a read: the spike, reputation credit, and
	// broadcasts already happened on the first call.
	if result.Repeated {
		writeJSON(w, http.StatusOK, result)
		return
	}

	change, err := h.reputation.UpdateReputationOnImpact(result.AuthorID, float64(abs(result.VoterDelta)), result.DebateID)
	if err != nil {
		// The attribution row is committed at this point; only the credit failed.
		writeEngineError(w, err)
		return
	}

	if abs(result.VoterDelta) >= AttributedSpikeThreshold {
		h.hub.Broadcast(sse.Event{
			Channel: sse.DebateChannel(result.DebateID),
			Type:    sse.EventStanceSpike,
			Data: map[string]any{
				"argument_id": result.ArgumentID,
				"delta":       result.VoterDelta,
				"direction":   spikeDirection(result.VoterDelta),
				"label":       spikeLabel(result.VoterDelta),
			},
		})
	}
	if change != 0 {
		h.hub.Broadcast(sse.Event{
			Channel: sse.UserChannel(result.AuthorID),
			Type:    sse.EventReputationChange,
			Data:    map[string]any{"change": change},
		})
	}

	writeJSON(w, http.StatusOK, result)
}

// GetReputation serves a user's reputation score; the overall number is the
// one externally visible reputation value.
func (h *Handler) GetReputation(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")

	score, err := h.reputation.CalculateReputation(userID)
	if err != nil {
		http.Error(w, "Failed to compute reputation: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, score)
}

// GetReputationHistory is self-access only, like stance rows.
func (h *Handler) GetReputationHistory(w http.ResponseWriter, r *http.Request) {
	targetID := chi.URLParam(r, "user_id")

	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if !CanAccessOwnStance(targetID, userID) {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	rows, err := h.reputation.GetHistory(userID)
	if err != nil {
		http.Error(w, "Failed to fetch reputation history: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// ApplyDecay is the scheduler hook. Admins may decay anyone; users only
// themselves.
func (h *Handler) ApplyDecay(w http.ResponseWriter, r *http.Request) {
	targetID := chi.URLParam(r, "user_id")

	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if targetID != userID {
		var user auth.User
		if err := h.reputation.db.First(&user, "user_id = ?", userID).Error; err != nil || user.Role != "admin" {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
	}

	score, err := h.reputation.ApplyDecay(targetID)
	if err != nil {
		http.Error(w, "Failed to apply decay: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, score)
}

// SettleDebate awards prediction credit once a debate is closed: a voter's
// pre-stance counts as a correct prediction when it sits on the same side of
// 50 as the final price. Neutral pre-stances and tied finals award nothing.
func (h *Handler) SettleDebate(w http.ResponseWriter, r *http.Request) {
	debateID := chi.URLParam(r, "debate_id")

	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var d debate.Debate
	if err := h.reputation.db.First(&d, "id = ?", debateID).Error; err != nil {
		http.Error(w, "Debate not found", http.StatusNotFound)
		return
	}
	if d.ProUserID != userID && d.ConUserID != userID {
		http.Error(w, "Only a debater can settle the debate", http.StatusForbidden)
		return
	}
	if d.Status != "closed" {
		http.Error(w, "Debate must be closed before settlement", http.StatusConflict)
		return
	}
	if d.SettledAt != nil {
		http.Error(w, "Debate already settled", http.StatusConflict)
		return
	}

	snap, err := h.pricing.CalculateMarketPrice(debateID)
	if err != nil {
		http.Error(w, "Failed to compute final price: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if snap.SupportPrice == 50 {
		writeJSON(w, http.StatusOK, map[string]any{"settled": 0, "reason": "tied final price"})
		return
	}
	supportWon := snap.SupportPrice > 50

	// Claim the marker before paying out so settlement runs at most once,
	// even under concurrent requests.
	claim := h.reputation.db.Model(&debate.Debate{}).
		Where("id = ? AND settled_at IS NULL", debateID).
		Update("settled_at", time.Now())
	if claim.Error != nil {
		http.Error(w, "Failed to mark settlement: "+claim.Error.Error(), http.StatusInternalServerError)
		return
	}
	if claim.RowsAffected == 0 {
		http.Error(w, "Debate already settled", http.StatusConflict)
		return
	}

	var preStances []Stance
	if err := h.reputation.db.
		Where("debate_id = ? AND phase = ?", debateID, PhasePre).
		Find(&preStances).Error; err != nil {
		http.Error(w, "Failed to load pre-stances: "+err.Error(), http.StatusInternalServerError)
		return
	}

	settled := 0
	for i := range preStances {
		s := &preStances[i]
		if s.SupportValue == 50 {
			continue
		}
		correct := (s.SupportValue > 50) == supportWon
		if _, err := h.reputation.RecordPredictionOutcome(s.VoterID, correct); err != nil {
			http.Error(w, "Settlement incomplete: "+err.Error(), http.StatusInternalServerError)
			return
		}
		settled++
	}

	writeJSON(w, http.StatusOK, map[string]any{"settled": settled, "final_price": snap.SupportPrice})
}
