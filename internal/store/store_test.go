package store

import (
	"database/sql"
	"testing"

	"github.com/prepflow/prepflow/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func insertTestExam(t *testing.T, s *Store, id string) model.Exam {
	t.Helper()
	exam := model.Exam{
		ID:            id,
		UserID:        1,
		Title:         "SAT",
		Country:       "US",
		ExamDate:      "2026-12-01",
		GoalScore:     "1500",
		Topics:        []string{"Algebra", "Geometry"},
		Proficiency:   "intermediate",
		StudySchedule: []string{"Mon", "Wed", "Fri"},
		HoursPerDay:   2,
		Materials:     []string{"https://example.com/guide.pdf"},
	}
	if err := s.CreateExam(exam); err != nil {
		t.Fatalf("insertTestExam: %v", err)
	}
	return exam
}

func TestExamRoundTrip(t *testing.T) {
	s := newTestStore(t)

	// Missing exam returns nil without error.
	got, err := s.GetExam("missing")
	if err != nil {
		t.Fatalf("GetExam missing: %v", err)
	}
	if got != nil {
		t.Fatal("expected nil for missing exam")
	}

	want := insertTestExam(t, s, "exam-1")
	got, err = s.GetExam("exam-1")
	if err != nil {
		t.Fatalf("GetExam: %v", err)
	}
	if got == nil {
		t.Fatal("expected exam")
	}
	if got.Title != want.Title || got.Country != want.Country {
		t.Errorf("got %q in %q, want %q in %q", got.Title, got.Country, want.Title, want.Country)
	}
	if len(got.Topics) != 2 || got.Topics[0] != "Algebra" {
		t.Errorf("topics not round-tripped: %v", got.Topics)
	}
	if len(got.StudySchedule) != 3 {
		t.Errorf("schedule not round-tripped: %v", got.StudySchedule)
	}
	if len(got.Materials) != 1 {
		t.Errorf("materials not round-tripped: %v", got.Materials)
	}
}

func TestListExamsByUser(t *testing.T) {
	s := newTestStore(t)
	insertTestExam(t, s, "exam-1")
	insertTestExam(t, s, "exam-2")

	exams, err := s.ListExamsByUser(1)
	if err != nil {
		t.Fatalf("ListExamsByUser: %v", err)
	}
	if len(exams) != 2 {
		t.Fatalf("expected 2 exams, got %d", len(exams))
	}

	exams, err = s.ListExamsByUser(42)
	if err != nil {
		t.Fatalf("ListExamsByUser: %v", err)
	}
	if len(exams) != 0 {
		t.Fatalf("expected no exams for other user, got %d", len(exams))
	}
}

func testDays(planID string) []model.StudyDay {
	return []model.StudyDay{
		{ID: "day-2", PlanID: planID, DayNum: 2, Topics: "Geometry", EstimatedHours: 2.5},
		{ID: "day-1", PlanID: planID, DayNum: 1, Topics: "Algebra", EstimatedHours: 2},
	}
}

func TestCreatePlanWithDays(t *testing.T) {
	s := newTestStore(t)
	insertTestExam(t, s, "exam-1")

	plan := model.StudyPlan{ID: "plan-1", ExamID: "exam-1", Overview: "two days", RawPlan: `{"overview":"two days"}`}
	if err := s.CreatePlanWithDays(plan, testDays("plan-1")); err != nil {
		t.Fatalf("CreatePlanWithDays: %v", err)
	}

	got, err := s.GetLatestPlanByExam("exam-1")
	if err != nil {
		t.Fatalf("GetLatestPlanByExam: %v", err)
	}
	if got == nil || got.ID != "plan-1" {
		t.Fatalf("expected plan-1, got %+v", got)
	}
	if got.RawPlan == "" {
		t.Error("raw plan should be stored verbatim")
	}

	days, err := s.GetDaysForPlan("plan-1")
	if err != nil {
		t.Fatalf("GetDaysForPlan: %v", err)
	}
	if len(days) != 2 {
		t.Fatalf("expected 2 days, got %d", len(days))
	}
	// Days come back ordered by day number regardless of insert order.
	if days[0].DayNum != 1 || days[1].DayNum != 2 {
		t.Errorf("days not ordered by day_num: %d, %d", days[0].DayNum, days[1].DayNum)
	}
}

func TestCreatePlanWithDaysAllOrNothing(t *testing.T) {
	s := newTestStore(t)
	insertTestExam(t, s, "exam-1")

	// Duplicate day identity forces the second insert to fail mid-transaction.
	days := []model.StudyDay{
		{ID: "day-1", PlanID: "plan-1", DayNum: 1},
		{ID: "day-1", PlanID: "plan-1", DayNum: 2},
	}
	plan := model.StudyPlan{ID: "plan-1", ExamID: "exam-1"}
	if err := s.CreatePlanWithDays(plan, days); err == nil {
		t.Fatal("expected transaction failure")
	}

	got, err := s.GetLatestPlanByExam("exam-1")
	if err != nil {
		t.Fatalf("GetLatestPlanByExam: %v", err)
	}
	if got != nil {
		t.Error("failed plan write must not leave a plan behind")
	}
	if ds, _ := s.GetDaysForPlan("plan-1"); len(ds) != 0 {
		t.Errorf("failed plan write must not leave days behind, got %d", len(ds))
	}
}

func TestGetLatestPlanByExam(t *testing.T) {
	s := newTestStore(t)
	insertTestExam(t, s, "exam-1")

	got, err := s.GetLatestPlanByExam("exam-1")
	if err != nil {
		t.Fatalf("GetLatestPlanByExam: %v", err)
	}
	if got != nil {
		t.Fatal("expected nil when no plan exists")
	}
}

func TestMarkDayComplete(t *testing.T) {
	s := newTestStore(t)
	insertTestExam(t, s, "exam-1")
	plan := model.StudyPlan{ID: "plan-1", ExamID: "exam-1"}
	if err := s.CreatePlanWithDays(plan, testDays("plan-1")); err != nil {
		t.Fatalf("CreatePlanWithDays: %v", err)
	}

	if err := s.MarkDayComplete("day-1"); err != nil {
		t.Fatalf("MarkDayComplete: %v", err)
	}
	day, err := s.GetDay("day-1")
	if err != nil {
		t.Fatalf("GetDay: %v", err)
	}
	if !day.Completed {
		t.Error("expected day marked complete")
	}

	if err := s.MarkDayComplete("missing"); err != sql.ErrNoRows {
		t.Errorf("expected ErrNoRows for missing day, got %v", err)
	}
}

func TestGetDayForOwner(t *testing.T) {
	s := newTestStore(t)
	insertTestExam(t, s, "exam-1")
	plan := model.StudyPlan{ID: "plan-1", ExamID: "exam-1"}
	if err := s.CreatePlanWithDays(plan, testDays("plan-1")); err != nil {
		t.Fatalf("CreatePlanWithDays: %v", err)
	}

	day, exam, err := s.GetDayForOwner("day-1", 1)
	if err != nil {
		t.Fatalf("GetDayForOwner: %v", err)
	}
	if day == nil || day.ID != "day-1" {
		t.Fatalf("expected day-1, got %+v", day)
	}
	if exam == nil || exam.ID != "exam-1" {
		t.Fatalf("expected owning exam exam-1, got %+v", exam)
	}

	day, exam, err = s.GetDayForOwner("day-1", 42)
	if err != nil {
		t.Fatalf("GetDayForOwner other user: %v", err)
	}
	if day != nil || exam != nil {
		t.Error("day must be invisible to a user who does not own the exam")
	}

	day, _, err = s.GetDayForOwner("missing", 1)
	if err != nil {
		t.Fatalf("GetDayForOwner missing: %v", err)
	}
	if day != nil {
		t.Error("expected nil for missing day")
	}
}

func testQuestion(id, dayID string) model.Question {
	return model.Question{
		ID:           id,
		DayID:        dayID,
		QuestionText: "What is x?",
		Options: []model.Option{
			{Option: "A", Text: "1"},
			{Option: "B", Text: "2"},
			{Option: "C", Text: "3"},
			{Option: "D", Text: "4"},
		},
		CorrectAnswer: "B",
		Explanation:   "solve for x",
		Topic:         "Algebra",
		Difficulty:    "easy",
	}
}

func TestQuestionRoundTrip(t *testing.T) {
	s := newTestStore(t)
	insertTestExam(t, s, "exam-1")
	plan := model.StudyPlan{ID: "plan-1", ExamID: "exam-1"}
	if err := s.CreatePlanWithDays(plan, testDays("plan-1")); err != nil {
		t.Fatalf("CreatePlanWithDays: %v", err)
	}

	if err := s.CreateQuestion(testQuestion("q-1", "day-1")); err != nil {
		t.Fatalf("CreateQuestion: %v", err)
	}
	// Re-inserting the same identity is a no-op, not an error.
	if err := s.CreateQuestion(testQuestion("q-1", "day-1")); err != nil {
		t.Fatalf("CreateQuestion repeat: %v", err)
	}
	if err := s.CreateQuestion(testQuestion("q-2", "day-1")); err != nil {
		t.Fatalf("CreateQuestion: %v", err)
	}

	questions, err := s.GetQuestionsForDay("day-1")
	if err != nil {
		t.Fatalf("GetQuestionsForDay: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
	q := questions[0]
	if len(q.Options) != 4 {
		t.Fatalf("options not round-tripped: %v", q.Options)
	}
	if q.CorrectAnswer != "B" {
		t.Errorf("expected correct answer B, got %q", q.CorrectAnswer)
	}

	other, err := s.GetQuestionsForDay("day-2")
	if err != nil {
		t.Fatalf("GetQuestionsForDay: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("day-2 should have no questions, got %d", len(other))
	}
}

func TestUserRoundTrip(t *testing.T) {
	s := newTestStore(t)

	count, err := s.UserCount()
	if err != nil {
		t.Fatalf("UserCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 users, got %d", count)
	}

	id, err := s.CreateUser(model.User{Username: "alice", PasswordHash: "hash"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	byName, err := s.GetUserByUsername("alice")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if byName == nil || byName.ID != id {
		t.Fatalf("expected user %d, got %+v", id, byName)
	}

	byID, err := s.GetUserByID(id)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if byID == nil || byID.Username != "alice" {
		t.Fatalf("expected alice, got %+v", byID)
	}

	missing, err := s.GetUserByUsername("bob")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for unknown username")
	}

	// Duplicate usernames are rejected by the unique constraint.
	if _, err := s.CreateUser(model.User{Username: "alice", PasswordHash: "other"}); err == nil {
		t.Error("expected error for duplicate username")
	}
}

func TestExportPlan(t *testing.T) {
	s := newTestStore(t)
	insertTestExam(t, s, "exam-1")
	plan := model.StudyPlan{ID: "plan-1", ExamID: "exam-1", Overview: "two days"}
	if err := s.CreatePlanWithDays(plan, testDays("plan-1")); err != nil {
		t.Fatalf("CreatePlanWithDays: %v", err)
	}
	if err := s.CreateQuestion(testQuestion("q-1", "day-1")); err != nil {
		t.Fatalf("CreateQuestion: %v", err)
	}

	export, err := s.ExportPlan("exam-1")
	if err != nil {
		t.Fatalf("ExportPlan: %v", err)
	}
	if export.Plan.ID != "plan-1" {
		t.Errorf("expected plan-1, got %q", export.Plan.ID)
	}
	if len(export.Days) != 2 {
		t.Errorf("expected 2 days, got %d", len(export.Days))
	}
	if len(export.Questions["day-1"]) != 1 {
		t.Errorf("expected 1 question for day-1, got %d", len(export.Questions["day-1"]))
	}

	if _, err := s.ExportPlan("missing"); err == nil {
		t.Error("expected error for exam without plan")
	}
}
