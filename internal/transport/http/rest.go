package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"prep-quiz-service/internal/app"
	"prep-quiz-service/internal/domain"
)

const defaultLeaderboardSize = 20

// RestHandler serves the read-side JSON endpoints: ranked leaderboard and
// result review.
type RestHandler struct {
	service *app.AttemptService
	log     *zap.Logger
}

func NewRestHandler(service *app.AttemptService, log *zap.Logger) *RestHandler {
	return &RestHandler{service: service, log: log}
}

// Leaderboard handles GET /leaderboard?quizId=...&limit=N.
func (h *RestHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}
	limit := defaultLeaderboardSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	entries, err := h.service.Leaderboard(r.Context(), quizID, limit)
	if err != nil {
		h.log.Warn("leaderboard read failed", zap.String("quizId", quizID), zap.Error(err))
		http.Error(w, "leaderboard unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, struct {
		QuizID  string                    `json:"quizId"`
		Entries []domain.LeaderboardEntry `json:"entries"`
	}{QuizID: quizID, Entries: entries})
}

// Result handles GET /results?id=... for attempt review.
func (h *RestHandler) Result(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}
	result, err := h.service.Review(r.Context(), id)
	if errors.Is(err, domain.ErrResultNotFound) {
		http.Error(w, "result not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Warn("result read failed", zap.String("resultId", id), zap.Error(err))
		http.Error(w, "result unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, result)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// NewMux wires all HTTP routes.
func NewMux(quiz *QuizHandler, rest *RestHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", quiz.ServeWS)
	mux.HandleFunc("/leaderboard", rest.Leaderboard)
	mux.HandleFunc("/results", rest.Result)
	return mux
}
