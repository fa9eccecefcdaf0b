package store

import (
	"fmt"

	"github.com/prepflow/prepflow/internal/model"
)

// ExportPlan builds a full snapshot of an exam's latest plan with all days
// and their persisted questions.
func (s *Store) ExportPlan(examID string) (*model.PlanExport, error) {
	plan, err := s.GetLatestPlanByExam(examID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, fmt.Errorf("no plan found for exam %s", examID)
	}

	days, err := s.GetDaysForPlan(plan.ID)
	if err != nil {
		return nil, err
	}

	questions := make(map[string][]model.Question)
	for _, d := range days {
		qs, err := s.GetQuestionsForDay(d.ID)
		if err != nil {
			return nil, err
		}
		questions[d.ID] = qs
	}

	return &model.PlanExport{
		Plan:      *plan,
		Days:      days,
		Questions: questions,
	}, nil
}
