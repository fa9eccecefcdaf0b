package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/prepflow/prepflow/internal/model"
	"github.com/prepflow/prepflow/internal/pipeline"
	"github.com/prepflow/prepflow/internal/store"
)

// Config holds runtime handler parameters set via CLI flags.
type Config struct {
	JWTSecret string
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store  *store.Store
	orch   *pipeline.Orchestrator
	config Config
}

// New creates a new Handler.
func New(s *store.Store, orch *pipeline.Orchestrator, cfg Config) (*Handler, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT secret is required")
	}
	return &Handler{store: s, orch: orch, config: cfg}, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.handleRegister)
		r.Post("/auth/login", h.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)
			r.Post("/exam", h.handleCreateExam)
			r.Get("/exam", h.handleListExams)
			r.Get("/exam/{examID}", h.handleGetExam)
			r.Post("/plan/generate", h.handleGeneratePlan)
			r.Get("/plan/{examID}", h.handleGetPlan)
			r.Post("/plan/day/{dayID}/complete", h.handleCompleteDay)
			r.Get("/quiz/day/{dayID}", h.handleDayQuestions)
			r.Post("/quiz/day/{dayID}/generate", h.handleGenerateDayQuiz)
		})
	})
}

type createExamRequest struct {
	Title         string   `json:"title"`
	Country       string   `json:"country"`
	ExamDate      string   `json:"exam_date"`
	GoalScore     string   `json:"goal_score"`
	Topics        []string `json:"topics"`
	Proficiency   string   `json:"proficiency"`
	StudySchedule []string `json:"study_schedule"`
	HoursPerDay   int      `json:"hours_per_day"`
	Materials     []string `json:"materials"`
}

func (h *Handler) handleCreateExam(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	var req createExamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Title == "" {
		respondError(w, http.StatusBadRequest, "title is required")
		return
	}

	exam := model.Exam{
		ID:            uuid.NewString(),
		UserID:        user.ID,
		Title:         req.Title,
		Country:       req.Country,
		ExamDate:      req.ExamDate,
		GoalScore:     req.GoalScore,
		Topics:        req.Topics,
		Proficiency:   req.Proficiency,
		StudySchedule: req.StudySchedule,
		HoursPerDay:   req.HoursPerDay,
		Materials:     req.Materials,
	}
	if err := h.store.CreateExam(exam); err != nil {
		slog.Error("failed to create exam", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to create exam")
		return
	}
	respondJSON(w, http.StatusCreated, exam)
}

func (h *Handler) handleListExams(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	exams, err := h.store.ListExamsByUser(user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list exams")
		return
	}
	if exams == nil {
		exams = []model.Exam{}
	}
	respondJSON(w, http.StatusOK, exams)
}

func (h *Handler) handleGetExam(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	exam, err := h.store.GetExam(chi.URLParam(r, "examID"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch exam")
		return
	}
	if exam == nil || exam.UserID != user.ID {
		respondError(w, http.StatusNotFound, "exam not found")
		return
	}
	respondJSON(w, http.StatusOK, exam)
}

type generatePlanRequest struct {
	ExamID        string `json:"exam_id"`
	AmountOfDays  int    `json:"amount_of_days"`
	IncludeSearch *bool  `json:"include_internet_search"`
}

func (h *Handler) handleGeneratePlan(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	var req generatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ExamID == "" {
		respondError(w, http.StatusBadRequest, "missing exam_id parameter")
		return
	}
	if req.AmountOfDays <= 0 {
		respondError(w, http.StatusBadRequest, "amount_of_days must be positive")
		return
	}
	useSearch := true
	if req.IncludeSearch != nil {
		useSearch = *req.IncludeSearch
	}

	exam, err := h.store.GetExam(req.ExamID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch exam")
		return
	}
	if exam == nil || exam.UserID != user.ID {
		respondError(w, http.StatusNotFound, "exam not found")
		return
	}

	resp, err := h.orch.Generate(r.Context(), req.ExamID, pipeline.GenerateOptions{
		DayCount:  req.AmountOfDays,
		UseSearch: useSearch,
	})
	if err != nil {
		slog.Error("plan generation failed", "exam_id", req.ExamID, "error", err)
		respondError(w, statusForError(err), err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, resp)
}

func (h *Handler) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	examID := chi.URLParam(r, "examID")

	exam, err := h.store.GetExam(examID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch exam")
		return
	}
	if exam == nil || exam.UserID != user.ID {
		respondError(w, http.StatusNotFound, "exam not found")
		return
	}

	plan, err := h.store.GetLatestPlanByExam(examID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch plan")
		return
	}
	if plan == nil {
		respondError(w, http.StatusNotFound, "study plan not found")
		return
	}

	days, err := h.store.GetDaysForPlan(plan.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch plan days")
		return
	}

	respondJSON(w, http.StatusOK, model.PlanResponse{
		ID:       plan.ID,
		ExamID:   examID,
		Overview: plan.Overview,
		Days:     days,
	})
}

func (h *Handler) handleCompleteDay(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	dayID := chi.URLParam(r, "dayID")

	// Days are reachable only through an exam the caller owns.
	day, _, err := h.store.GetDayForOwner(dayID, user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch day")
		return
	}
	if day == nil {
		respondError(w, http.StatusNotFound, "day not found")
		return
	}

	if err := h.store.MarkDayComplete(dayID); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update day")
		return
	}
	day.Completed = true
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "day": day})
}

func (h *Handler) handleDayQuestions(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	dayID := chi.URLParam(r, "dayID")

	day, _, err := h.store.GetDayForOwner(dayID, user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch day")
		return
	}
	if day == nil {
		respondError(w, http.StatusNotFound, "day not found")
		return
	}

	questions, err := h.store.GetQuestionsForDay(dayID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch questions")
		return
	}
	if questions == nil {
		questions = []model.Question{}
	}
	respondJSON(w, http.StatusOK, questions)
}

func (h *Handler) handleGenerateDayQuiz(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	dayID := chi.URLParam(r, "dayID")

	day, exam, err := h.store.GetDayForOwner(dayID, user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch day")
		return
	}
	if day == nil {
		respondError(w, http.StatusNotFound, "day not found")
		return
	}

	questions, err := h.orch.GenerateQuiz(r.Context(), *day, exam.Country, exam.Proficiency)
	if err != nil {
		slog.Error("quiz generation failed", "day_id", dayID, "error", err)
		respondError(w, statusForError(err), err.Error())
		return
	}
	if questions == nil {
		questions = []model.Question{}
	}
	respondJSON(w, http.StatusCreated, questions)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrExamNotFound):
		return http.StatusNotFound
	case errors.Is(err, pipeline.ErrGenerationFailed), errors.Is(err, pipeline.ErrInvalidGeneratedFormat):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
