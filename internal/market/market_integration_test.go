package market_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/OpenFloor/OF-Backend/internal/auth"
	"github.com/OpenFloor/OF-Backend/internal/db"
	"github.com/OpenFloor/OF-Backend/internal/debate"
	"github.com/OpenFloor/OF-Backend/internal/market"
	"github.com/OpenFloor/OF-Backend/internal/sse"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// dbAvailable tracks whether the database connection was established.
var dbAvailable bool

var (
	ledger     *market.Ledger
	pricing    *market.Pricing
	guard      *market.Guard
	reputation *market.Reputation
)

func TestMain(m *testing.M) {
	// Load .env.local relative to the repo root (two directories up).
	_ = godotenv.Load("../../.env.local")

	if os.Getenv("DATABASE_URL") == "" {
		// No database available; every test skips via requireDB.
		os.Exit(m.Run())
	}

	db.Connect()
	dbAvailable = true

	// Idempotent schema setup.
	auth.Init()
	debate.Init()
	market.Init()

	ledger = market.NewLedger(db.DB)
	pricing = market.NewPricing(db.DB)
	guard = market.NewGuard(db.DB, true)
	reputation = market.NewReputation(db.DB)

	os.Exit(m.Run())
}

func requireDB(t *testing.T) {
	t.Helper()
	if !dbAvailable {
		t.Skip("skipping integration test (requires DATABASE_URL)")
	}
}

// createTestDebate inserts a debate with two fresh debaters and registers
// cleanup for every row the test may produce under it.
func createTestDebate(t *testing.T) debate.Debate {
	t.Helper()
	requireDB(t)

	d := debate.Debate{
		ID:         uuid.NewString(),
		Resolution: "test resolution " + uuid.NewString()[:8],
		ProUserID:  uuid.NewString(),
		ConUserID:  uuid.NewString(),
		Status:     "open",
		Round:      1,
	}
	if err := db.DB.Create(&d).Error; err != nil {
		t.Fatalf("failed to create test debate: %v", err)
	}

	t.Cleanup(func() {
		db.DB.Where("debate_id = ?", d.ID).Delete(&market.Stance{})
		db.DB.Where("debate_id = ?", d.ID).Delete(&market.MarketDataPoint{})
		db.DB.Where("debate_id = ?", d.ID).Delete(&market.StanceSpike{})
		db.DB.Where("debate_id = ?", d.ID).Delete(&debate.Argument{})
		db.DB.Where("id = ?", d.ID).Delete(&debate.Debate{})
	})
	return d
}

func createTestArgument(t *testing.T, d debate.Debate) debate.Argument {
	t.Helper()

	arg := debate.Argument{
		ID:       uuid.NewString(),
		DebateID: d.ID,
		AuthorID: d.ProUserID,
		Side:     "pro",
		Round:    1,
		Content:  "test argument",
		Status:   "published",
	}
	if err := db.DB.Create(&arg).Error; err != nil {
		t.Fatalf("failed to create test argument: %v", err)
	}
	return arg
}

// createTestSession inserts a session row and returns its cookie, so route
// tests can pass the session middleware.
func createTestSession(t *testing.T, userID string) *http.Cookie {
	t.Helper()

	sess := auth.Session{
		SessionID: uuid.NewString(),
		UserID:    userID,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	if err := db.DB.Create(&sess).Error; err != nil {
		t.Fatalf("failed to create test session: %v", err)
	}
	t.Cleanup(func() { db.DB.Delete(&sess) })
	return &http.Cookie{Name: "session_id", Value: sess.SessionID}
}

func cleanupReputation(t *testing.T, userID string) {
	t.Helper()
	t.Cleanup(func() {
		db.DB.Where("user_id = ?", userID).Delete(&market.ReputationFactor{})
		db.DB.Where("user_id = ?", userID).Delete(&market.ReputationHistory{})
	})
}

func TestLedger_PhaseProtocol(t *testing.T) {
	d := createTestDebate(t)
	voter := uuid.NewString()

	// Post before pre is a protocol violation.
	if _, _, err := ledger.RecordPostStance(d.ID, voter, 70, 0, nil); !errors.Is(err, market.ErrPreStanceRequired) {
		t.Fatalf("post without pre: err = %v, want ErrPreStanceRequired", err)
	}

	pre, err := ledger.RecordPreStance(d.ID, voter, 40, 0)
	if err != nil {
		t.Fatalf("RecordPreStance: %v", err)
	}
	if pre.Confidence != market.DefaultConfidence {
		t.Errorf("omitted confidence stored as %d, want default %d", pre.Confidence, market.DefaultConfidence)
	}

	// The pre phase is now occupied; a second write is rejected, not upserted.
	if _, err := ledger.RecordPreStance(d.ID, voter, 55, 0); !errors.Is(err, market.ErrAlreadyRecorded) {
		t.Fatalf("second pre: err = %v, want ErrAlreadyRecorded", err)
	}

	_, delta, err := ledger.RecordPostStance(d.ID, voter, 70, 4, nil)
	if err != nil {
		t.Fatalf("RecordPostStance: %v", err)
	}
	if delta.Delta != 30 || delta.PreValue != 40 || delta.PostValue != 70 {
		t.Errorf("delta = %+v, want pre 40, post 70, delta 30", delta)
	}

	if _, _, err := ledger.RecordPostStance(d.ID, voter, 80, 0, nil); !errors.Is(err, market.ErrAlreadyRecorded) {
		t.Fatalf("second post: err = %v, want ErrAlreadyRecorded", err)
	}

	got, err := ledger.GetPersuasionDelta(d.ID, voter)
	if err != nil || got == nil || got.Delta != 30 {
		t.Errorf("GetPersuasionDelta = %+v, %v; want delta 30", got, err)
	}
}

func TestLedger_Validation(t *testing.T) {
	d := createTestDebate(t)
	voter := uuid.NewString()

	if _, err := ledger.RecordPreStance(d.ID, voter, 101, 0); !errors.Is(err, market.ErrInvalidRange) {
		t.Errorf("support 101: err = %v, want ErrInvalidRange", err)
	}
	if _, err := ledger.RecordPreStance(d.ID, voter, 50, 6); !errors.Is(err, market.ErrInvalidRange) {
		t.Errorf("confidence 6: err = %v, want ErrInvalidRange", err)
	}
}

func TestBlindVotingGate(t *testing.T) {
	d1 := createTestDebate(t)
	d2 := createTestDebate(t)
	voter := uuid.NewString()

	access, err := guard.CanAccessMarketPrice(d1.ID, voter)
	if err != nil {
		t.Fatalf("CanAccessMarketPrice: %v", err)
	}
	if access.CanAccess || access.Reason == "" {
		t.Fatalf("gate before pre-stance = %+v, want denied with reason", access)
	}

	if _, err := ledger.RecordPreStance(d1.ID, voter, 50, 0); err != nil {
		t.Fatalf("RecordPreStance: %v", err)
	}

	access, _ = guard.CanAccessMarketPrice(d1.ID, voter)
	if !access.CanAccess {
		t.Errorf("gate after pre-stance = %+v, want allowed", access)
	}

	// Voting on one debate grants nothing on another.
	access, _ = guard.CanAccessMarketPrice(d2.ID, voter)
	if access.CanAccess {
		t.Error("pre-stance on d1 must not open the gate on d2")
	}

	// Debaters bypass the read gate without voting.
	access, _ = guard.CanAccessMarketPrice(d1.ID, d1.ProUserID)
	if !access.CanAccess {
		t.Error("debater should bypass the blind-voting gate")
	}
}

func TestRecordPostStance_WritesSpikeAtomically(t *testing.T) {
	d := createTestDebate(t)
	arg := createTestArgument(t, d)
	voter := uuid.NewString()

	if _, err := ledger.RecordPreStance(d.ID, voter, 30, 0); err != nil {
		t.Fatalf("RecordPreStance: %v", err)
	}
	if _, _, err := ledger.RecordPostStance(d.ID, voter, 50, 0, &arg.ID); err != nil {
		t.Fatalf("RecordPostStance: %v", err)
	}

	spikes, err := pricing.GetSpikes(d.ID)
	if err != nil {
		t.Fatalf("GetSpikes: %v", err)
	}
	if len(spikes) != 1 {
		t.Fatalf("got %d spikes, want 1 (delta 20 >= auto threshold %d)", len(spikes), market.AutoSpikeThreshold)
	}
	if spikes[0].Direction != market.DirectionSupport || spikes[0].Delta != 20 {
		t.Errorf("spike = %+v, want +20 toward support", spikes[0])
	}

	// A second voter under the auto threshold adds no spike.
	voter2 := uuid.NewString()
	if _, err := ledger.RecordPreStance(d.ID, voter2, 50, 0); err != nil {
		t.Fatalf("RecordPreStance: %v", err)
	}
	if _, _, err := ledger.RecordPostStance(d.ID, voter2, 60, 0, &arg.ID); err != nil {
		t.Fatalf("RecordPostStance: %v", err)
	}
	spikes, _ = pricing.GetSpikes(d.ID)
	if len(spikes) != 1 {
		t.Errorf("delta 10 under auto threshold recorded a spike; got %d spikes", len(spikes))
	}
}

func TestAttributeMindChange(t *testing.T) {
	d := createTestDebate(t)
	arg := createTestArgument(t, d)
	cleanupReputation(t, d.ProUserID)

	// No stances at all → protocol error.
	if _, err := ledger.AttributeMindChange(arg.ID, uuid.NewString()); !errors.Is(err, market.ErrPostStanceRequired) {
		t.Fatalf("attribution without post: err = %v, want ErrPostStanceRequired", err)
	}

	voterA := uuid.NewString()
	if _, err := ledger.RecordPreStance(d.ID, voterA, 40, 0); err != nil {
		t.Fatal(err)
	}
	if _, _, err := ledger.RecordPostStance(d.ID, voterA, 70, 0, nil); err != nil {
		t.Fatal(err)
	}

	res, err := ledger.AttributeMindChange(arg.ID, voterA)
	if err != nil {
		t.Fatalf("AttributeMindChange: %v", err)
	}
	if res.ImpactScore != 30 || res.MindChangeCount != 1 || res.VoterDelta != 30 {
		t.Errorf("result = %+v, want impact 30, count 1, delta 30", res)
	}

	// Replaying the same attribution is a read: state is reported unchanged
	// and no second spike row appears.
	replay, err := ledger.AttributeMindChange(arg.ID, voterA)
	if err != nil {
		t.Fatalf("replayed attribution: %v", err)
	}
	if !replay.Repeated {
		t.Error("replayed attribution should report Repeated")
	}
	if replay.ImpactScore != 30 || replay.MindChangeCount != 1 {
		t.Errorf("replay result = %+v, want unchanged impact 30, count 1", replay)
	}
	if spikes, _ := pricing.GetSpikes(d.ID); len(spikes) != 1 {
		t.Errorf("replay added a spike; got %d rows, want 1", len(spikes))
	}

	// Second attributing voter moves the average: (30 + -5) / 2.
	voterB := uuid.NewString()
	if _, err := ledger.RecordPreStance(d.ID, voterB, 60, 0); err != nil {
		t.Fatal(err)
	}
	if _, _, err := ledger.RecordPostStance(d.ID, voterB, 55, 0, nil); err != nil {
		t.Fatal(err)
	}
	res, err = ledger.AttributeMindChange(arg.ID, voterB)
	if err != nil {
		t.Fatalf("AttributeMindChange (second voter): %v", err)
	}
	if res.ImpactScore != 12.5 || res.MindChangeCount != 2 {
		t.Errorf("result = %+v, want impact 12.5, count 2", res)
	}

	// voterB's |delta| of 5 is under the attributed threshold: one spike only,
	// from voterA's attribution.
	spikes, _ := pricing.GetSpikes(d.ID)
	if len(spikes) != 1 {
		t.Errorf("got %d spikes, want 1", len(spikes))
	}

	// Attribution can't move to a different argument.
	arg2 := createTestArgument(t, d)
	if _, err := ledger.AttributeMindChange(arg2.ID, voterA); !errors.Is(err, market.ErrAlreadyRecorded) {
		t.Errorf("re-attribution to another argument: err = %v, want ErrAlreadyRecorded", err)
	}
}

func TestDetectAndRecordSpike_AtThreshold(t *testing.T) {
	d := createTestDebate(t)
	arg := createTestArgument(t, d)

	// abs(delta) equal to the threshold records exactly one spike.
	if err := pricing.DetectAndRecordSpike(d.ID, arg.ID, 10, 10); err != nil {
		t.Fatalf("DetectAndRecordSpike: %v", err)
	}
	spikes, err := pricing.GetSpikes(d.ID)
	if err != nil {
		t.Fatalf("GetSpikes: %v", err)
	}
	if len(spikes) != 1 {
		t.Fatalf("got %d spikes, want 1", len(spikes))
	}
	if spikes[0].Direction != market.DirectionSupport {
		t.Errorf("direction = %q, want %q for a positive delta", spikes[0].Direction, market.DirectionSupport)
	}

	// One below the threshold is a no-op.
	if err := pricing.DetectAndRecordSpike(d.ID, arg.ID, -9, 10); err != nil {
		t.Fatalf("DetectAndRecordSpike: %v", err)
	}
	spikes, _ = pricing.GetSpikes(d.ID)
	if len(spikes) != 1 {
		t.Errorf("below-threshold delta recorded a spike; got %d", len(spikes))
	}
}

func TestAggregateStats(t *testing.T) {
	d := createTestDebate(t)

	voterA, voterB := uuid.NewString(), uuid.NewString()
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	_, err := ledger.RecordPreStance(d.ID, voterA, 40, 0)
	must(err)
	_, _, err = ledger.RecordPostStance(d.ID, voterA, 70, 0, nil)
	must(err)
	_, err = ledger.RecordPreStance(d.ID, voterB, 60, 0)
	must(err)
	_, _, err = ledger.RecordPostStance(d.ID, voterB, 55, 0, nil)
	must(err)

	stats, err := guard.GetAggregateStats(d.ID)
	if err != nil {
		t.Fatalf("GetAggregateStats: %v", err)
	}
	want := market.AggregateStanceData{
		TotalVoters:       2,
		AveragePreStance:  50,
		AveragePostStance: 62.5,
		AverageDelta:      12.5,
		MindChangedCount:  1,
	}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
}

func TestGetOwnStances_SelfAccessOnly(t *testing.T) {
	d := createTestDebate(t)
	voter := uuid.NewString()

	if _, err := ledger.RecordPreStance(d.ID, voter, 25, 0); err != nil {
		t.Fatal(err)
	}

	own, err := guard.GetOwnStances(d.ID, voter, voter)
	if err != nil {
		t.Fatalf("GetOwnStances (self): %v", err)
	}
	if own == nil || own.Pre == nil || own.Pre.SupportValue != 25 {
		t.Errorf("self access = %+v, want pre stance 25", own)
	}

	other, err := guard.GetOwnStances(d.ID, voter, uuid.NewString())
	if err != nil {
		t.Fatalf("GetOwnStances (other): %v", err)
	}
	if other != nil {
		t.Error("non-owner request must return nil, not data")
	}
}

func TestMarketHistory_AppendOnly(t *testing.T) {
	d := createTestDebate(t)

	if _, err := pricing.RecordMarketDataPoint(d.ID, 50, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := pricing.RecordMarketDataPoint(d.ID, 62, 4); err != nil {
		t.Fatal(err)
	}

	points, err := pricing.GetMarketHistory(d.ID)
	if err != nil {
		t.Fatalf("GetMarketHistory: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("got %d points, want 2", len(points))
	}
	if points[0].SupportPrice != 50 || points[1].SupportPrice != 62 {
		t.Errorf("history order = [%d, %d], want [50, 62]", points[0].SupportPrice, points[1].SupportPrice)
	}
}

// TestMarketHistoryRoute_GatedLikePrice: the price series carries support
// prices, so the route demands a session and a pre-stance, exactly like the
// live price.
func TestMarketHistoryRoute_GatedLikePrice(t *testing.T) {
	d := createTestDebate(t)
	voter := uuid.NewString()
	cookie := createTestSession(t, voter)

	router := market.SetupRoutes(db.DB, sse.NewHub())
	get := func(withCookie bool) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/debates/"+d.ID+"/history", nil)
		if withCookie {
			req.AddCookie(cookie)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	if rec := get(false); rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous history read: status = %d, want 401", rec.Code)
	}
	if rec := get(true); rec.Code != http.StatusForbidden {
		t.Errorf("history read before pre-stance: status = %d, want 403", rec.Code)
	}

	if _, err := ledger.RecordPreStance(d.ID, voter, 60, 0); err != nil {
		t.Fatalf("RecordPreStance: %v", err)
	}
	if rec := get(true); rec.Code != http.StatusOK {
		t.Errorf("history read after pre-stance: status = %d, want 200", rec.Code)
	}
}

// TestSettleDebateRoute_OnceOnly: settlement pays out exactly once; a repeat
// is rejected and the accuracy EMA is untouched.
func TestSettleDebateRoute_OnceOnly(t *testing.T) {
	d := createTestDebate(t)
	voter := uuid.NewString()
	cleanupReputation(t, voter)

	if _, err := ledger.RecordPreStance(d.ID, voter, 80, 0); err != nil {
		t.Fatalf("RecordPreStance: %v", err)
	}
	if err := db.DB.Model(&debate.Debate{}).Where("id = ?", d.ID).
		Update("status", "closed").Error; err != nil {
		t.Fatalf("failed to close debate: %v", err)
	}

	cookie := createTestSession(t, d.ProUserID)
	router := market.SetupRoutes(db.DB, sse.NewHub())
	settle := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/debates/"+d.ID+"/settle", nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	if rec := settle(); rec.Code != http.StatusOK {
		t.Fatalf("first settlement: status = %d, body %s", rec.Code, rec.Body.String())
	}

	var factor market.ReputationFactor
	if err := db.DB.First(&factor, "user_id = ?", voter).Error; err != nil {
		t.Fatalf("factor not created by settlement: %v", err)
	}
	if factor.PredictionAccuracy != 20 { // one correct outcome: 0*0.8 + 100*0.2
		t.Errorf("accuracy after settlement = %v, want 20", factor.PredictionAccuracy)
	}

	if rec := settle(); rec.Code != http.StatusConflict {
		t.Fatalf("repeat settlement: status = %d, want 409", rec.Code)
	}
	db.DB.First(&factor, "user_id = ?", voter)
	if factor.PredictionAccuracy != 20 {
		t.Errorf("repeat settlement moved accuracy to %v, want 20 unchanged", factor.PredictionAccuracy)
	}
}

// TestRecordPreStanceRoute_Created: the stance write responds 201 with the
// stance body and appends a history point.
func TestRecordPreStanceRoute_Created(t *testing.T) {
	d := createTestDebate(t)
	voter := uuid.NewString()
	cookie := createTestSession(t, voter)

	router := market.SetupRoutes(db.DB, sse.NewHub())
	req := httptest.NewRequest(http.MethodPost, "/debates/"+d.ID+"/stance/pre",
		strings.NewReader(`{"support_value": 40}`))
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", rec.Code, rec.Body.String())
	}
	var stance market.Stance
	if err := json.Unmarshal(rec.Body.Bytes(), &stance); err != nil {
		t.Fatalf("response is not a stance: %v", err)
	}
	if stance.SupportValue != 40 || stance.Phase != market.PhasePre {
		t.Errorf("stance = %+v, want pre at 40", stance)
	}

	points, err := pricing.GetMarketHistory(d.ID)
	if err != nil {
		t.Fatalf("GetMarketHistory: %v", err)
	}
	if len(points) != 1 || points[0].SupportPrice != 40 {
		t.Errorf("history = %+v, want one point at 40", points)
	}
}

func TestCalculateMarketPrice_EmptyDebate(t *testing.T) {
	d := createTestDebate(t)

	snap, err := pricing.CalculateMarketPrice(d.ID)
	if err != nil {
		t.Fatalf("CalculateMarketPrice: %v", err)
	}
	if snap.SupportPrice != 50 || snap.OpposePrice != 50 || snap.TotalVotes != 0 {
		t.Errorf("empty debate snapshot = %+v, want 50/50 with 0 votes", snap)
	}
}

func TestReputation_ImpactFlow(t *testing.T) {
	requireDB(t)
	userID := uuid.NewString()
	debateID := uuid.NewString()
	cleanupReputation(t, userID)

	// First access creates a zeroed factor instead of failing.
	score, err := reputation.CalculateReputation(userID)
	if err != nil {
		t.Fatalf("CalculateReputation: %v", err)
	}
	if score.PersuasionSkill != 0 {
		t.Errorf("fresh user PersuasionSkill = %v, want 0", score.PersuasionSkill)
	}

	change1, err := reputation.UpdateReputationOnImpact(userID, 30, debateID)
	if err != nil {
		t.Fatalf("UpdateReputationOnImpact: %v", err)
	}
	if change1 <= 0 {
		t.Fatalf("first impact change = %v, want positive", change1)
	}

	// History must exist: the first change comfortably clears the threshold.
	history, err := reputation.GetHistory(userID)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(history) != 1 || history[0].Reason != "argument impact" {
		t.Errorf("history = %+v, want one 'argument impact' row", history)
	}

	// Repeated equal contributions are worth less each time.
	change2, err := reputation.UpdateReputationOnImpact(userID, 30, debateID)
	if err != nil {
		t.Fatalf("second UpdateReputationOnImpact: %v", err)
	}
	if change2 >= change1 {
		t.Errorf("second change %v not below first %v (diminishing returns)", change2, change1)
	}
}

func TestReputation_PredictionOutcome(t *testing.T) {
	requireDB(t)
	userID := uuid.NewString()
	cleanupReputation(t, userID)

	acc, err := reputation.RecordPredictionOutcome(userID, true)
	if err != nil {
		t.Fatalf("RecordPredictionOutcome: %v", err)
	}
	if acc != 20 { // 0*(0.8) + 100*0.2
		t.Errorf("accuracy after one correct outcome = %v, want 20", acc)
	}

	acc, err = reputation.RecordPredictionOutcome(userID, false)
	if err != nil {
		t.Fatalf("RecordPredictionOutcome: %v", err)
	}
	if acc != 16 { // 20*0.8
		t.Errorf("accuracy after a miss = %v, want 16", acc)
	}
}

func TestVotingHistory_SelfAccessAndOrder(t *testing.T) {
	d1 := createTestDebate(t)
	d2 := createTestDebate(t)
	voter := uuid.NewString()

	if _, err := ledger.RecordPreStance(d1.ID, voter, 20, 0); err != nil {
		t.Fatal(err)
	}
	if _, _, err := ledger.RecordPostStance(d1.ID, voter, 45, 0, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := ledger.RecordPreStance(d2.ID, voter, 80, 0); err != nil {
		t.Fatal(err)
	}

	entries, err := guard.GetVotingHistory(voter, voter)
	if err != nil {
		t.Fatalf("GetVotingHistory: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	// Most recent vote first: d2's pre-stance was recorded last.
	if entries[0].DebateID != d2.ID {
		t.Errorf("entries[0].DebateID = %s, want %s (most recent first)", entries[0].DebateID, d2.ID)
	}
	if entries[1].Delta == nil || *entries[1].Delta != 25 {
		t.Errorf("d1 entry delta = %v, want 25", entries[1].Delta)
	}
	if entries[0].Delta != nil {
		t.Error("incomplete d2 entry must have nil delta")
	}

	if peek, _ := guard.GetVotingHistory(voter, uuid.NewString()); peek != nil {
		t.Error("non-owner voting history request must return nil")
	}
}
