package pipeline

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/prepflow/prepflow/internal/model"
)

// planPayload is the wire shape of a generated study plan.
type planPayload struct {
	Overview  string       `json:"overview"`
	DayTopics []dayPayload `json:"day_topics"`
}

type dayPayload struct {
	DayNum         int        `json:"day_num"`
	TopicsForDay   string     `json:"topics_for_the_day"`
	Subtopics      string     `json:"subtopics"`
	Resources      string     `json:"resources"`
	EstimatedHours hoursField `json:"estimated_hours_needed"`
	Description    string     `json:"description"`
}

// quizPayload accepts the two key spellings the model produces for
// generated question batches.
type quizPayload struct {
	Questions []questionPayload `json:"questions"`
	Output    []questionPayload `json:"output"`
}

// items returns whichever batch key the payload carried.
func (p quizPayload) items() []questionPayload {
	if len(p.Questions) > 0 {
		return p.Questions
	}
	return p.Output
}

type questionPayload struct {
	Passage       string         `json:"passage"`
	QuestionText  string         `json:"question_text"`
	Options       []model.Option `json:"options"`
	CorrectAnswer string         `json:"correct_answer"`
	Explanation   string         `json:"explanation"`
	Topic         topicField     `json:"topic"`
	Difficulty    string         `json:"difficulty"`
}

// hoursField decodes an hour estimate that may arrive as a JSON number,
// a numeric string, or a range like "2-3" (first number wins).
type hoursField float64

var firstNumberRe = regexp.MustCompile(`\d+(\.\d+)?`)

func (h *hoursField) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*h = hoursField(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("estimated hours: %s", data)
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		*h = hoursField(f)
		return nil
	}
	if m := firstNumberRe.FindString(s); m != "" {
		f, err := strconv.ParseFloat(m, 64)
		if err == nil {
			*h = hoursField(f)
			return nil
		}
	}
	*h = 0
	return nil
}

// topicField decodes a topic that may arrive as a plain string, a list of
// strings, or a bracket/quote-decorated string like "['Algebra']". It always
// normalizes to the bare topic text.
type topicField string

func (t *topicField) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = topicField(cleanTopic(s))
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		if len(list) > 0 {
			*t = topicField(cleanTopic(list[0]))
		}
		return nil
	}
	return fmt.Errorf("topic: %s", data)
}

func cleanTopic(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "[]")
	s = strings.Trim(s, `'"`)
	return strings.TrimSpace(s)
}

// toQuestion validates a parsed question and converts it to the canonical
// model shape. fallbackTopic and fallbackDifficulty fill fields the model
// left empty.
func toQuestion(p questionPayload, id, dayID, fallbackTopic, fallbackDifficulty string) (model.Question, error) {
	if strings.TrimSpace(p.QuestionText) == "" {
		return model.Question{}, fmt.Errorf("empty question text")
	}
	if len(p.Options) != 4 {
		return model.Question{}, fmt.Errorf("expected 4 options, got %d", len(p.Options))
	}

	answer := strings.ToUpper(strings.TrimSpace(p.CorrectAnswer))
	found := false
	for _, o := range p.Options {
		if strings.ToUpper(strings.TrimSpace(o.Option)) == answer {
			found = true
			break
		}
	}
	if !found {
		return model.Question{}, fmt.Errorf("correct answer %q not among options", p.CorrectAnswer)
	}

	topic := string(p.Topic)
	if topic == "" {
		topic = fallbackTopic
	}
	difficulty := strings.ToLower(strings.TrimSpace(p.Difficulty))
	if difficulty == "" {
		difficulty = fallbackDifficulty
	}

	return model.Question{
		ID:            id,
		DayID:         dayID,
		Passage:       p.Passage,
		QuestionText:  p.QuestionText,
		Options:       p.Options,
		CorrectAnswer: answer,
		Explanation:   p.Explanation,
		Topic:         topic,
		Difficulty:    difficulty,
	}, nil
}
