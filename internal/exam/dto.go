package exam

import "time"

// SubjectRequest carries subject fields on create/update.
type SubjectRequest struct {
	Name                string `json:"name"`
	Description         string `json:"description"`
	DurationMinutes     int    `json:"duration_minutes"`
	QuestionsPerSession int    `json:"questions_per_session"`
}

// SubjectResponse is the API projection of a subject.
type SubjectResponse struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Description         string    `json:"description"`
	DurationMinutes     int       `json:"duration_minutes"`
	QuestionsPerSession int       `json:"questions_per_session"`
	CreatedAt           time.Time `json:"created_at"`
}

// QuestionRequest carries question fields on create/update.
type QuestionRequest struct {
	SubjectID string `json:"subject_id"`
	Text      string `json:"text"`
	OptionA   string `json:"option_a"`
	OptionB   string `json:"option_b"`
	OptionC   string `json:"option_c"`
	OptionD   string `json:"option_d"`
	Correct   string `json:"correct"`
}

// StartRequest opens a session for a subject.
type StartRequest struct {
	SubjectID string `json:"subject_id"`
}

// StartResponse returns the session envelope with stripped questions.
type StartResponse struct {
	SessionID       string         `json:"session_id"`
	SubjectID       string         `json:"subject_id"`
	StartedAt       time.Time      `json:"started_at"`
	DurationMinutes int            `json:"duration_minutes"`
	Questions       []QuestionView `json:"questions"`
}

// SubmitRequest carries the selected answers.
type SubmitRequest struct {
	Answers []Answer `json:"answers"`
}

func toSubjectResponse(subject Subject) SubjectResponse {
	return SubjectResponse{
		ID:                  subject.ID,
		Name:                subject.Name,
		Description:         subject.Description,
		DurationMinutes:     subject.DurationMinutes,
		QuestionsPerSession: subject.QuestionsPerSession,
		CreatedAt:           subject.CreatedAt,
	}
}
