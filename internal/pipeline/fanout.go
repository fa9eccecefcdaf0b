package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/prepflow/prepflow/internal/llm/prompts"
	"github.com/prepflow/prepflow/internal/model"
)

// Fanout generates and persists quiz questions for each day of a freshly
// persisted plan. It runs detached from the request that created the plan:
// the caller is never notified of completion or failure, and each day's work
// is isolated so one day failing cannot affect any other day.
type Fanout struct {
	store        Store
	llm          Completer
	repair       *Repair
	numQuestions int
	difficulty   string
	concurrency  int

	wg sync.WaitGroup
}

// NewFanout creates a quiz fan-out scheduler. concurrency bounds how many
// days are generated at once.
func NewFanout(store Store, llm Completer, numQuestions int, difficulty string, concurrency int) *Fanout {
	if numQuestions <= 0 {
		numQuestions = 10
	}
	if difficulty == "" {
		difficulty = string(model.DifficultyMedium)
	}
	if concurrency <= 0 {
		concurrency = 3
	}
	return &Fanout{
		store:        store,
		llm:          llm,
		repair:       NewRepair(llm),
		numQuestions: numQuestions,
		difficulty:   difficulty,
		concurrency:  concurrency,
	}
}

// Schedule launches quiz generation for every day of the plan and returns
// immediately. Days carry their pre-minted identities, so questions can be
// attached before any exist.
func (f *Fanout) Schedule(planID string, days []model.StudyDay, searchContext, materialText, country, proficiency string) {
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()

		g := &errgroup.Group{}
		g.SetLimit(f.concurrency)
		for _, day := range days {
			g.Go(func() error {
				f.generateDay(context.Background(), day, country, proficiency, searchContext, materialText)
				return nil
			})
		}
		_ = g.Wait()
		slog.Info("quiz fan-out finished", "plan_id", planID, "days", len(days))
	}()
}

// Wait blocks until all scheduled fan-out work has finished.
func (f *Fanout) Wait() {
	f.wg.Wait()
}

// generateDay produces one day's questions. Every failure is logged and
// absorbed here: a failed day simply ends up with fewer questions, possibly
// zero.
func (f *Fanout) generateDay(ctx context.Context, day model.StudyDay, country, proficiency, searchContext, materialText string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("quiz generation panicked", "day_id", day.ID, "day_num", day.DayNum, "panic", r)
		}
	}()

	questions, err := f.GenerateNow(ctx, day, country, proficiency, searchContext, materialText)
	if err != nil {
		slog.Error("quiz generation failed", "day_id", day.ID, "day_num", day.DayNum, "error", err)
		return
	}
	slog.Info("generated quiz for day", "day_id", day.ID, "day_num", day.DayNum, "questions", len(questions))
}

// GenerateNow produces and persists one batch of questions for a day
// synchronously and returns the persisted questions. Malformed questions and
// failed inserts are skipped individually, so a batch can come back smaller
// than requested.
func (f *Fanout) GenerateNow(ctx context.Context, day model.StudyDay, country, proficiency, searchContext, materialText string) ([]model.Question, error) {
	p := prompts.Quiz(country, proficiency, day, f.numQuestions, f.difficulty, searchContext, materialText)
	raw, err := f.llm.Complete(ctx, p.System, p.User)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	var payload quizPayload
	if _, err := f.repair.Parse(ctx, raw, &payload); err != nil {
		return nil, err
	}

	var questions []model.Question
	for _, qp := range payload.items() {
		q, err := toQuestion(qp, uuid.NewString(), day.ID, day.Topics, f.difficulty)
		if err != nil {
			slog.Warn("skipping malformed question", "day_id", day.ID, "error", err)
			continue
		}
		if err := f.store.CreateQuestion(q); err != nil {
			slog.Error("failed to persist question", "day_id", day.ID, "question_id", q.ID, "error", err)
			continue
		}
		questions = append(questions, q)
	}
	return questions, nil
}
