// Package pipeline implements the plan generation pipeline: exam lookup,
// material and search enrichment, model invocation, repair of malformed
// output, persistence, and the background quiz fan-out.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/prepflow/prepflow/internal/llm/prompts"
	"github.com/prepflow/prepflow/internal/model"
)

// Store is the narrow persistence surface the pipeline needs. Identities are
// minted by the pipeline, never by the store.
type Store interface {
	GetExam(id string) (*model.Exam, error)
	CreatePlanWithDays(p model.StudyPlan, days []model.StudyDay) error
	CreateQuestion(q model.Question) error
}

// Searcher gathers contextual text about an exam from an external API.
type Searcher interface {
	Search(ctx context.Context, exam model.Exam, topics []string, materialText string) (string, error)
}

// Enricher resolves material locators into plain text, best-effort.
type Enricher interface {
	Enrich(ctx context.Context, locators []string) string
}

// GenerateOptions controls one plan generation run.
type GenerateOptions struct {
	DayCount  int
	UseSearch bool
}

// Orchestrator drives the end-to-end plan generation flow.
type Orchestrator struct {
	store    Store
	llm      Completer
	search   Searcher
	material Enricher
	repair   *Repair
	fanout   *Fanout
}

// NewOrchestrator wires the pipeline. search and material may be nil, in
// which case the corresponding enrichment steps are skipped.
func NewOrchestrator(store Store, llm Completer, search Searcher, material Enricher, fanout *Fanout) *Orchestrator {
	return &Orchestrator{
		store:    store,
		llm:      llm,
		search:   search,
		material: material,
		repair:   NewRepair(llm),
		fanout:   fanout,
	}
}

// Generate produces and persists a study plan for the exam, returns it, and
// schedules background quiz generation for each day. The returned response
// is final the moment plan and days are durably stored; quiz availability is
// eventually consistent.
func (o *Orchestrator) Generate(ctx context.Context, examID string, opts GenerateOptions) (*model.PlanResponse, error) {
	exam, err := o.store.GetExam(examID)
	if err != nil {
		return nil, fmt.Errorf("fetch exam: %w", err)
	}
	if exam == nil {
		return nil, ErrExamNotFound
	}

	materialText := ""
	if o.material != nil {
		materialText = o.material.Enrich(ctx, exam.Materials)
	}

	searchContext := ""
	if opts.UseSearch && o.search != nil {
		sc, err := o.search.Search(ctx, *exam, exam.Topics, materialText)
		if err != nil {
			slog.Warn("search enrichment degraded, proceeding without context",
				"exam_id", exam.ID, "error", err)
		} else {
			searchContext = sc
		}
	}

	p := prompts.Plan(*exam, opts.DayCount, searchContext, materialText)
	raw, err := o.llm.Complete(ctx, p.System, p.User)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	var payload planPayload
	parsed, err := o.repair.Parse(ctx, raw, &payload)
	if err != nil {
		return nil, err
	}
	if len(payload.DayTopics) == 0 {
		return nil, fmt.Errorf("%w: plan contains no days", ErrInvalidGeneratedFormat)
	}

	plan := model.StudyPlan{
		ID:       uuid.NewString(),
		ExamID:   exam.ID,
		Overview: payload.Overview,
		RawPlan:  parsed,
	}
	days := make([]model.StudyDay, 0, len(payload.DayTopics))
	for _, dt := range payload.DayTopics {
		days = append(days, model.StudyDay{
			ID:             uuid.NewString(),
			PlanID:         plan.ID,
			DayNum:         dt.DayNum,
			Topics:         dt.TopicsForDay,
			Subtopics:      dt.Subtopics,
			Resources:      dt.Resources,
			EstimatedHours: float64(dt.EstimatedHours),
			Description:    dt.Description,
		})
	}

	if err := o.store.CreatePlanWithDays(plan, days); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	slog.Info("persisted study plan", "plan_id", plan.ID, "exam_id", exam.ID, "days", len(days))

	o.fanout.Schedule(plan.ID, days, searchContext, materialText, exam.Country, exam.Proficiency)

	return &model.PlanResponse{
		ID:         plan.ID,
		ExamID:     exam.ID,
		Overview:   plan.Overview,
		Days:       days,
		FirstDayID: firstDayID(days),
	}, nil
}

// GenerateQuiz generates and persists a fresh batch of questions for one day
// on demand, bypassing the background fan-out. Each call appends a new batch;
// earlier questions for the day are kept.
func (o *Orchestrator) GenerateQuiz(ctx context.Context, day model.StudyDay, country, proficiency string) ([]model.Question, error) {
	return o.fanout.GenerateNow(ctx, day, country, proficiency, "", "")
}

// firstDayID picks the day with the minimum day number as "day one".
// Generated day numbers are not guaranteed contiguous or unique.
func firstDayID(days []model.StudyDay) string {
	if len(days) == 0 {
		return ""
	}
	first := days[0]
	for _, d := range days[1:] {
		if d.DayNum < first.DayNum {
			first = d
		}
	}
	return first.ID
}
