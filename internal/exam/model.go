package exam

import "time"

// Subject is an examinable topic with its session parameters.
type Subject struct {
	ID                  string
	Name                string
	Description         string
	DurationMinutes     int
	QuestionsPerSession int
	CreatedAt           time.Time
}

// Question is a multiple-choice question. Correct holds the letter A-D.
type Question struct {
	ID        string
	SubjectID string
	Text      string
	OptionA   string
	OptionB   string
	OptionC   string
	OptionD   string
	Correct   string
	CreatedAt time.Time
}

// QuestionView is the student-facing projection with the answer stripped.
type QuestionView struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	OptionA string `json:"option_a"`
	OptionB string `json:"option_b"`
	OptionC string `json:"option_c"`
	OptionD string `json:"option_d"`
}

// Session is one timed sitting of a subject by one credential.
type Session struct {
	ID              string
	CredentialID    string
	SubjectID       string
	QuestionIDs     []string
	StartedAt       time.Time
	DurationMinutes int
	SubmittedAt     *time.Time
	Score           int
	Total           int
}

// Deadline is the instant after which submissions are refused.
func (s Session) Deadline() time.Time {
	return s.StartedAt.Add(time.Duration(s.DurationMinutes) * time.Minute)
}

// Answer is one selected option for one question.
type Answer struct {
	QuestionID string `json:"question_id"`
	Selected   string `json:"selected"`
}

// Result is the scored outcome of a submitted session.
type Result struct {
	SessionID   string    `json:"session_id"`
	Score       int       `json:"score"`
	Total       int       `json:"total"`
	Percent     float64   `json:"percent"`
	SubmittedAt time.Time `json:"submitted_at"`
}
