package debate

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/OpenFloor/OF-Backend/internal/db"
	"github.com/OpenFloor/OF-Backend/internal/utils"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ListDebates returns debates, optionally filtered by status or tag.
func ListDebates(w http.ResponseWriter, r *http.Request) {
	query := db.DB.Model(&Debate{}).Order("created_at DESC")

	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if tag := r.URL.Query().Get("tag"); tag != "" {
		query = query.Where("? = ANY(tags)", tag)
	}

	var debates []Debate
	if err := query.Find(&debates).Error; err != nil {
		http.Error(w, "Failed to fetch debates: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(debates)
}

// GetDebate returns one debate with its published arguments.
func GetDebate(w http.ResponseWriter, r *http.Request) {
	debateID := chi.URLParam(r, "debate_id")

	var debate Debate
	if err := db.DB.Preload("Arguments", "status = ?", "published").
		First(&debate, "id = ?", debateID).Error; err != nil {
		http.Error(w, "Debate not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(debate)
}

func CreateDebate(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Resolution string   `json:"resolution"`
		ConUserID  string   `json:"con_user_id"`
		Tags       []string `json:"tags"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if input.Resolution == "" || input.ConUserID == "" {
		http.Error(w, "Resolution and con_user_id are required", http.StatusBadRequest)
		return
	}

	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if input.ConUserID == userID {
		http.Error(w, "Cannot debate yourself", http.StatusBadRequest)
		return
	}

	debate := Debate{
		ID:         uuid.NewString(),
		Resolution: input.Resolution,
		ProUserID:  userID,
		ConUserID:  input.ConUserID,
		Status:     "open",
		Round:      1,
		Tags:       input.Tags,
	}
	if err := db.DB.Create(&debate).Error; err != nil {
		http.Error(w, "Failed to create debate", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(debate)
}

// CloseDebate marks a debate closed. Only a participant may close it.
func CloseDebate(w http.ResponseWriter, r *http.Request) {
	debateID := chi.URLParam(r, "debate_id")

	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var debate Debate
	if err := db.DB.First(&debate, "id = ?", debateID).Error; err != nil {
		http.Error(w, "Debate not found", http.StatusNotFound)
		return
	}
	if debate.ProUserID != userID && debate.ConUserID != userID {
		http.Error(w, "Only a debater can close the debate", http.StatusForbidden)
		return
	}

	if err := db.DB.Model(&debate).Updates(map[string]any{
		"status":     "closed",
		"updated_at": time.Now(),
	}).Error; err != nil {
		http.Error(w, "Failed to close debate", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(debate)
}

// SubmitArgument adds an argument for the caller's side of the debate.
func SubmitArgument(w http.ResponseWriter, r *http.Request) {
	debateID := chi.URLParam(r, "debate_id")

	var input struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if input.Content == "" {
		http.Error(w, "Content is required", http.StatusBadRequest)
		return
	}

	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var debate Debate
	if err := db.DB.First(&debate, "id = ?", debateID).Error; err != nil {
		http.Error(w, "Debate not found", http.StatusNotFound)
		return
	}
	if debate.Status != "open" {
		http.Error(w, "Debate is closed", http.StatusConflict)
		return
	}

	var side string
	switch userID {
	case debate.ProUserID:
		side = "pro"
	case debate.ConUserID:
		side = "con"
	default:
		http.Error(w, "Only debaters may submit arguments", http.StatusForbidden)
		return
	}

	argument := Argument{
		ID:       uuid.NewString(),
		DebateID: debate.ID,
		AuthorID: userID,
		Side:     side,
		Round:    debate.Round,
		Content:  input.Content,
		Status:   "published",
	}
	if err := db.DB.Create(&argument).Error; err != nil {
		http.Error(w, "Failed to submit argument", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(argument)
}

// ListArguments returns a debate's published arguments in posting order.
func ListArguments(w http.ResponseWriter, r *http.Request) {
	debateID := chi.URLParam(r, "debate_id")

	var arguments []Argument
	if err := db.DB.Where("debate_id = ? AND status = ?", debateID, "published").
		Order("created_at ASC").
		Find(&arguments).Error; err != nil {
		http.Error(w, "Failed to fetch arguments: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(arguments)
}
