// Package prompts builds the instruction pairs sent to the generative model.
// Optional sections are omitted entirely when their inputs are empty, so the
// model never sees placeholder text for context it does not have.
package prompts

import (
	"fmt"
	"strings"
	"time"

	"github.com/prepflow/prepflow/internal/model"
)

// Prompt is a (system, user) instruction pair for one completion call.
type Prompt struct {
	System string
	User   string
}

const planSystem = `You are a study planning assistant. The user will describe an exam and their schedule.

Respond ONLY with valid JSON, no additional text or markdown formatting before or after it.

Your response must follow this structure exactly:

{
  "overview": "<brief overview of the study plan>",
  "day_topics": [
    {
      "day_num": 1,
      "topics_for_the_day": "<topics for the day>",
      "subtopics": "<details on subtopics>",
      "resources": "<recommended resources>",
      "estimated_hours_needed": <number of hours>,
      "description": "<optional longer description of the day>"
    }
  ]
}

Repeat the day_topics entry for as many days as requested, numbering day_num from 1.`

// Plan builds the study-plan generation prompt.
func Plan(exam model.Exam, dayCount int, searchContext, materialText string) Prompt {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Create a daily study plan for %s in %s.\n", exam.Title, exam.Country)
	fmt.Fprintf(&sb, "The exam is on %s. Today is %s. User's goal score: %s.\n",
		exam.ExamDate, time.Now().Format("2006-01-02"), exam.GoalScore)
	fmt.Fprintf(&sb, "Proficiency level: %s.\n", exam.Proficiency)
	fmt.Fprintf(&sb, "Topics to study: %s.\n", strings.Join(exam.Topics, ", "))
	fmt.Fprintf(&sb, "The user can study %d hours per day on the following days: %s.\n",
		exam.HoursPerDay, strings.Join(exam.StudySchedule, ", "))
	fmt.Fprintf(&sb, "\nProvide a structured plan with exactly %d days.\n", dayCount)
	sb.WriteString("Each day should include specific topics, subtopics, recommended resources, and an estimated number of hours.\n")

	if searchContext != "" {
		sb.WriteString("\nUse the following research about this exam:\n")
		sb.WriteString(searchContext)
		sb.WriteString("\n")
	}
	if materialText != "" {
		sb.WriteString("\nAlso consider the following content from the user's exam materials:\n")
		sb.WriteString(materialText)
		sb.WriteString("\n")
	}

	return Prompt{System: planSystem, User: sb.String()}
}

const quizSystem = `You are an exam question writer. Generate multiple-choice questions for the requested topics.

Respond ONLY with valid JSON, no additional text or markdown formatting.

Your response must be an object with a "questions" array. Each question has:
- "passage": optional short passage or scenario the question is based on (omit when not needed)
- "question_text": the question itself
- "options": exactly four objects, each {"option": "A".."D", "text": "<answer text>"}
- "correct_answer": the letter of the correct option
- "explanation": why that answer is correct
- "topic": the specific topic the question belongs to
- "difficulty": one of easy, medium, hard`

// Quiz builds the quiz generation prompt for one study day.
func Quiz(country, proficiency string, day model.StudyDay, numQuestions int, difficulty, searchContext, materialText string) Prompt {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Generate %d multiple-choice questions at a %s difficulty level on the following topics: %s.\n",
		numQuestions, difficulty, day.Topics)
	if day.Subtopics != "" {
		fmt.Fprintf(&sb, "Focus on these subtopics: %s.\n", day.Subtopics)
	}
	if country != "" {
		fmt.Fprintf(&sb, "The questions are for an exam in %s.\n", country)
	}
	if proficiency != "" {
		fmt.Fprintf(&sb, "The user's proficiency level is %s.\n", proficiency)
	}

	if searchContext != "" {
		sb.WriteString("\nIncorporate information from these example questions or typical exam content:\n")
		sb.WriteString(searchContext)
		sb.WriteString("\n")
	}
	if materialText != "" {
		sb.WriteString("\nBase some questions on the following content from the user's study materials:\n")
		sb.WriteString(materialText)
		sb.WriteString("\n")
	}

	return Prompt{System: quizSystem, User: sb.String()}
}

const repairSystem = `You are a JSON validator and repairer. The user will give you text that was supposed to be valid JSON but failed to parse.

If you can recover the intended structure, respond with ONLY the corrected, minified JSON and nothing else.
If the text is not recoverable as JSON, respond with a short plain-text description of the defect.`

// Repair builds the prompt that asks the model to fix malformed JSON output.
func Repair(raw string) Prompt {
	var sb strings.Builder
	sb.WriteString("The following text failed to parse as JSON. Return the corrected JSON:\n\n")
	sb.WriteString(raw)
	return Prompt{System: repairSystem, User: sb.String()}
}

const searchSystem = `You are a knowledgeable assistant specializing in standardized exams. Provide accurate and up-to-date information about the specified exam: its purpose, structure and sections, preparation guidelines with recommended resources, official rules and scoring, and a set of sample multiple-choice questions illustrative of the exam's real style and difficulty. Include short passages or scenarios where the exam's question types require them. Write concisely and verify against reputable sources.`

// SearchSystem is the system prompt for the context search client.
func SearchSystem() string {
	return searchSystem
}

// SearchQuery builds the user query for the context search client.
func SearchQuery(title, country string, topics []string, proficiency, materialText string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Find official or widely recognized information about the %s in %s", title, country)
	if proficiency != "" {
		fmt.Fprintf(&sb, " for %s students", proficiency)
	}
	sb.WriteString(".\nInclude important details such as exam format, recommended topics, common resources, sample questions, and any official guidelines.\n")
	fmt.Fprintf(&sb, "The exam covers the following topics: %s.\n", strings.Join(topics, ", "))
	sb.WriteString("Return the most relevant, accurate, and up-to-date sources.\n")
	sb.WriteString("Make sure to include a sample of at least 10 real questions from the exam.")

	if materialText != "" {
		sb.WriteString("\n\nAlso consider the following content from the user's exam materials:\n")
		sb.WriteString(materialText)
	}
	return sb.String()
}
