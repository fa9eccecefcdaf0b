package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/prepflow/prepflow/internal/model"
)

// CreatePlan inserts a study plan under its caller-supplied identity.
// Re-inserting the same identity is a no-op.
func (s *Store) CreatePlan(p model.StudyPlan) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO study_plans (id, exam_id, overview, raw_plan, created_at) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.ExamID, p.Overview, p.RawPlan, time.Now(),
	)
	return err
}

// CreateDay inserts a study day under its caller-supplied identity.
func (s *Store) CreateDay(d model.StudyDay) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO study_days (id, plan_id, day_num, topics, subtopics, resources, estimated_hours, completed, description)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.PlanID, d.DayNum, d.Topics, d.Subtopics, d.Resources, d.EstimatedHours, d.Completed, d.Description,
	)
	return err
}

// CreatePlanWithDays inserts a plan and all of its days in one transaction,
// so a failed day write never leaves a dayless plan behind.
func (s *Store) CreatePlanWithDays(p model.StudyPlan, days []model.StudyDay) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO study_plans (id, exam_id, overview, raw_plan, created_at) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.ExamID, p.Overview, p.RawPlan, time.Now(),
	)
	if err != nil {
		return err
	}

	for _, d := range days {
		_, err := tx.Exec(
			`INSERT INTO study_days (id, plan_id, day_num, topics, subtopics, resources, estimated_hours, completed, description)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			d.ID, d.PlanID, d.DayNum, d.Topics, d.Subtopics, d.Resources, d.EstimatedHours, d.Completed, d.Description,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetLatestPlanByExam returns the most recently created plan for an exam,
// or nil when the exam has no plan yet.
func (s *Store) GetLatestPlanByExam(examID string) (*model.StudyPlan, error) {
	var p model.StudyPlan
	err := s.db.QueryRow(
		`SELECT id, exam_id, overview, raw_plan, created_at FROM study_plans
		 WHERE exam_id = ? ORDER BY created_at DESC, id LIMIT 1`, examID,
	).Scan(&p.ID, &p.ExamID, &p.Overview, &p.RawPlan, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetDaysForPlan returns all days of a plan ordered by day number.
func (s *Store) GetDaysForPlan(planID string) ([]model.StudyDay, error) {
	rows, err := s.db.Query(
		`SELECT id, plan_id, day_num, topics, subtopics, resources, estimated_hours, completed, description
		 FROM study_days WHERE plan_id = ? ORDER BY day_num`, planID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var days []model.StudyDay
	for rows.Next() {
		var d model.StudyDay
		if err := rows.Scan(&d.ID, &d.PlanID, &d.DayNum, &d.Topics, &d.Subtopics, &d.Resources,
			&d.EstimatedHours, &d.Completed, &d.Description); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

// GetDay returns a study day by ID, or nil when it does not exist.
func (s *Store) GetDay(id string) (*model.StudyDay, error) {
	var d model.StudyDay
	err := s.db.QueryRow(
		`SELECT id, plan_id, day_num, topics, subtopics, resources, estimated_hours, completed, description
		 FROM study_days WHERE id = ?`, id,
	).Scan(&d.ID, &d.PlanID, &d.DayNum, &d.Topics, &d.Subtopics, &d.Resources,
		&d.EstimatedHours, &d.Completed, &d.Description)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GetDayForOwner returns a study day together with its owning exam, but only
// when that exam belongs to userID. Both are nil when the day does not exist
// or belongs to another user's exam.
func (s *Store) GetDayForOwner(dayID string, userID int64) (*model.StudyDay, *model.Exam, error) {
	var d model.StudyDay
	var examID string
	err := s.db.QueryRow(
		`SELECT d.id, d.plan_id, d.day_num, d.topics, d.subtopics, d.resources, d.estimated_hours, d.completed, d.description, e.id
		 FROM study_days d
		 JOIN study_plans p ON p.id = d.plan_id
		 JOIN exams e ON e.id = p.exam_id
		 WHERE d.id = ? AND e.user_id = ?`, dayID, userID,
	).Scan(&d.ID, &d.PlanID, &d.DayNum, &d.Topics, &d.Subtopics, &d.Resources,
		&d.EstimatedHours, &d.Completed, &d.Description, &examID)
	if err == sql.ErrNoRows {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	exam, err := s.GetExam(examID)
	if err != nil {
		return nil, nil, err
	}
	return &d, exam, nil
}

// MarkDayComplete sets the completed flag on a study day.
// Returns sql.ErrNoRows when the day does not exist.
func (s *Store) MarkDayComplete(id string) error {
	res, err := s.db.Exec(`UPDATE study_days SET completed = 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CreateQuestion inserts a question under its caller-supplied identity.
func (s *Store) CreateQuestion(q model.Question) error {
	options, err := json.Marshal(q.Options)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT OR IGNORE INTO questions (id, day_id, passage, question_text, options, correct_answer, explanation, topic, difficulty)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.DayID, q.Passage, q.QuestionText, string(options), q.CorrectAnswer, q.Explanation, q.Topic, q.Difficulty,
	)
	return err
}

// GetQuestionsForDay returns all persisted questions for a study day.
func (s *Store) GetQuestionsForDay(dayID string) ([]model.Question, error) {
	rows, err := s.db.Query(
		`SELECT id, day_id, passage, question_text, options, correct_answer, explanation, topic, difficulty
		 FROM questions WHERE day_id = ? ORDER BY id`, dayID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var questions []model.Question
	for rows.Next() {
		var q model.Question
		var options string
		if err := rows.Scan(&q.ID, &q.DayID, &q.Passage, &q.QuestionText, &options,
			&q.CorrectAnswer, &q.Explanation, &q.Topic, &q.Difficulty); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(options), &q.Options); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}
