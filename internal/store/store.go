package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prepflow/prepflow/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS exams (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL DEFAULT 1,
		title TEXT NOT NULL,
		country TEXT NOT NULL DEFAULT '',
		exam_date TEXT NOT NULL DEFAULT '',
		goal_score TEXT NOT NULL DEFAULT '',
		topics TEXT NOT NULL DEFAULT '[]',
		proficiency TEXT NOT NULL DEFAULT '',
		study_schedule TEXT NOT NULL DEFAULT '[]',
		hours_per_day INTEGER NOT NULL DEFAULT 0,
		materials TEXT NOT NULL DEFAULT '[]',
		created_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS study_plans (
		id TEXT PRIMARY KEY,
		exam_id TEXT NOT NULL,
		overview TEXT NOT NULL DEFAULT '',
		raw_plan TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		FOREIGN KEY (exam_id) REFERENCES exams(id)
	);

	CREATE TABLE IF NOT EXISTS study_days (
		id TEXT PRIMARY KEY,
		plan_id TEXT NOT NULL,
		day_num INTEGER NOT NULL,
		topics TEXT NOT NULL DEFAULT '',
		subtopics TEXT NOT NULL DEFAULT '',
		resources TEXT NOT NULL DEFAULT '',
		estimated_hours REAL NOT NULL DEFAULT 0,
		completed INTEGER NOT NULL DEFAULT 0,
		description TEXT NOT NULL DEFAULT '',
		FOREIGN KEY (plan_id) REFERENCES study_plans(id)
	);

	CREATE TABLE IF NOT EXISTS questions (
		id TEXT PRIMARY KEY,
		day_id TEXT NOT NULL,
		passage TEXT NOT NULL DEFAULT '',
		question_text TEXT NOT NULL,
		options TEXT NOT NULL,
		correct_answer TEXT NOT NULL,
		explanation TEXT NOT NULL DEFAULT '',
		topic TEXT NOT NULL DEFAULT '',
		difficulty TEXT NOT NULL DEFAULT '',
		FOREIGN KEY (day_id) REFERENCES study_days(id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreateExam inserts an exam under its caller-supplied identity.
func (s *Store) CreateExam(e model.Exam) error {
	topics, err := json.Marshal(e.Topics)
	if err != nil {
		return err
	}
	schedule, err := json.Marshal(e.StudySchedule)
	if err != nil {
		return err
	}
	materials, err := json.Marshal(e.Materials)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT INTO exams (id, user_id, title, country, exam_date, goal_score, topics, proficiency, study_schedule, hours_per_day, materials, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Title, e.Country, e.ExamDate, e.GoalScore, string(topics),
		e.Proficiency, string(schedule), e.HoursPerDay, string(materials), time.Now(),
	)
	return err
}

// GetExam returns an exam by ID, or nil when it does not exist.
func (s *Store) GetExam(id string) (*model.Exam, error) {
	var e model.Exam
	var topics, schedule, materials string
	err := s.db.QueryRow(
		`SELECT id, user_id, title, country, exam_date, goal_score, topics, proficiency, study_schedule, hours_per_day, materials, created_at
		 FROM exams WHERE id = ?`, id,
	).Scan(&e.ID, &e.UserID, &e.Title, &e.Country, &e.ExamDate, &e.GoalScore, &topics,
		&e.Proficiency, &schedule, &e.HoursPerDay, &materials, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := unmarshalStrings(topics, &e.Topics); err != nil {
		return nil, err
	}
	if err := unmarshalStrings(schedule, &e.StudySchedule); err != nil {
		return nil, err
	}
	if err := unmarshalStrings(materials, &e.Materials); err != nil {
		return nil, err
	}
	return &e, nil
}

// ListExamsByUser returns all exams owned by a user, newest first.
func (s *Store) ListExamsByUser(userID int64) ([]model.Exam, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, title, country, exam_date, goal_score, topics, proficiency, study_schedule, hours_per_day, materials, created_at
		 FROM exams WHERE user_id = ? ORDER BY created_at DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var exams []model.Exam
	for rows.Next() {
		var e model.Exam
		var topics, schedule, materials string
		if err := rows.Scan(&e.ID, &e.UserID, &e.Title, &e.Country, &e.ExamDate, &e.GoalScore, &topics,
			&e.Proficiency, &schedule, &e.HoursPerDay, &materials, &e.CreatedAt); err != nil {
			return nil, err
		}
		if err := unmarshalStrings(topics, &e.Topics); err != nil {
			return nil, err
		}
		if err := unmarshalStrings(schedule, &e.StudySchedule); err != nil {
			return nil, err
		}
		if err := unmarshalStrings(materials, &e.Materials); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

func unmarshalStrings(raw string, dst *[]string) error {
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), dst)
}
