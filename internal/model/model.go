package model

import (
	"context"
	"time"
)

// User represents a registered account. Exams are owned by users.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

// Difficulty represents question difficulty level.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Exam holds a user-declared exam: what is being studied for, when,
// and on what schedule. Created through the exam endpoints and read-only
// for the duration of a plan generation run.
type Exam struct {
	ID            string    `json:"id"`
	UserID        int64     `json:"user_id"`
	Title         string    `json:"title"`
	Country       string    `json:"country"`
	ExamDate      string    `json:"exam_date"`
	GoalScore     string    `json:"goal_score"`
	Topics        []string  `json:"topics"`
	Proficiency   string    `json:"proficiency"`
	StudySchedule []string  `json:"study_schedule"`
	HoursPerDay   int       `json:"hours_per_day"`
	Materials     []string  `json:"materials"`
	CreatedAt     time.Time `json:"created_at"`
}

// StudyPlan is one generated multi-day schedule for an exam. RawPlan keeps
// the generated JSON verbatim for audit and replay. Every generation request
// creates a new plan; plans are never updated after creation.
type StudyPlan struct {
	ID        string    `json:"id"`
	ExamID    string    `json:"exam_id"`
	Overview  string    `json:"overview"`
	RawPlan   string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// StudyDay is one numbered unit of a plan. Day numbers come from generated
// content and are not guaranteed contiguous or unique.
type StudyDay struct {
	ID             string  `json:"id"`
	PlanID         string  `json:"plan_id"`
	DayNum         int     `json:"day_num"`
	Topics         string  `json:"topics"`
	Subtopics      string  `json:"subtopics"`
	Resources      string  `json:"resources"`
	EstimatedHours float64 `json:"estimated_hours"`
	Completed      bool    `json:"completed"`
	Description    string  `json:"description,omitempty"`
}

// Option is one answer choice of a multiple-choice question.
type Option struct {
	Option string `json:"option"`
	Text   string `json:"text"`
}

// Question is a generated multiple-choice question attached to a study day.
// CorrectAnswer is the letter of one of the four options.
type Question struct {
	ID            string   `json:"id"`
	DayID         string   `json:"day_id"`
	Passage       string   `json:"passage,omitempty"`
	QuestionText  string   `json:"question_text"`
	Options       []Option `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
	Topic         string   `json:"topic"`
	Difficulty    string   `json:"difficulty"`
}

// PlanResponse is the payload returned to the caller once the plan and its
// days are durably persisted. Questions are generated afterwards in the
// background and are not part of this response.
type PlanResponse struct {
	ID         string     `json:"id"`
	ExamID     string     `json:"exam_id"`
	Overview   string     `json:"overview"`
	Days       []StudyDay `json:"days"`
	FirstDayID string     `json:"first_day_id,omitempty"`
}

// PlanExport bundles a plan with its days and questions for the export command.
type PlanExport struct {
	Plan      StudyPlan             `json:"plan"`
	Days      []StudyDay            `json:"days"`
	Questions map[string][]Question `json:"questions"`
}
