package exam

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNoQuestions indicates the subject has no question bank yet.
	ErrNoQuestions = errors.New("subject has no questions")
	// ErrAlreadySubmitted indicates the session was already scored.
	ErrAlreadySubmitted = errors.New("session already submitted")
	// ErrTimeExpired indicates the submission arrived after the deadline.
	ErrTimeExpired = errors.New("session time has expired")
)

// submissionGrace absorbs network latency on last-second submissions.
const submissionGrace = 30 * time.Second

// Service manages the exam catalogue and timed sessions.
type Service struct {
	repo Repository
}

// NewService builds an exam service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// SubjectInput captures data to create or update a subject.
type SubjectInput struct {
	Name                string
	Description         string
	DurationMinutes     int
	QuestionsPerSession int
}

// CreateSubject registers a new subject.
func (s *Service) CreateSubject(ctx context.Context, input SubjectInput) (Subject, error) {
	if strings.TrimSpace(input.Name) == "" {
		return Subject{}, fmt.Errorf("subject name is required")
	}
	if input.DurationMinutes <= 0 {
		return Subject{}, fmt.Errorf("duration must be positive")
	}
	if input.QuestionsPerSession <= 0 {
		return Subject{}, fmt.Errorf("questions per session must be positive")
	}
	subject := Subject{
		ID:                  uuid.New().String(),
		Name:                strings.TrimSpace(input.Name),
		Description:         input.Description,
		DurationMinutes:     input.DurationMinutes,
		QuestionsPerSession: input.QuestionsPerSession,
		CreatedAt:           time.Now().UTC(),
	}
	if err := s.repo.CreateSubject(ctx, subject); err != nil {
		return Subject{}, err
	}
	return subject, nil
}

// UpdateSubject replaces the mutable fields of a subject.
func (s *Service) UpdateSubject(ctx context.Context, id string, input SubjectInput) (Subject, error) {
	subject, err := s.repo.GetSubject(ctx, id)
	if err != nil {
		return Subject{}, err
	}
	if strings.TrimSpace(input.Name) != "" {
		subject.Name = strings.TrimSpace(input.Name)
	}
	if input.Description != "" {
		subject.Description = input.Description
	}
	if input.DurationMinutes > 0 {
		subject.DurationMinutes = input.DurationMinutes
	}
	if input.QuestionsPerSession > 0 {
		subject.QuestionsPerSession = input.QuestionsPerSession
	}
	if err := s.repo.UpdateSubject(ctx, subject); err != nil {
		return Subject{}, err
	}
	return subject, nil
}

// DeleteSubject removes a subject.
func (s *Service) DeleteSubject(ctx context.Context, id string) error {
	return s.repo.DeleteSubject(ctx, id)
}

// ListSubjects returns the catalogue.
func (s *Service) ListSubjects(ctx context.Context) ([]Subject, error) {
	return s.repo.ListSubjects(ctx)
}

// QuestionInput captures data to create or update a question.
type QuestionInput struct {
	SubjectID string
	Text      string
	OptionA   string
	OptionB   string
	OptionC   string
	OptionD   string
	Correct   string
}

func (in QuestionInput) validate() error {
	if strings.TrimSpace(in.Text) == "" {
		return fmt.Errorf("question text is required")
	}
	for letter, option := range map[string]string{"A": in.OptionA, "B": in.OptionB, "C": in.OptionC, "D": in.OptionD} {
		if strings.TrimSpace(option) == "" {
			return fmt.Errorf("option %s is required", letter)
		}
	}
	switch strings.ToUpper(strings.TrimSpace(in.Correct)) {
	case "A", "B", "C", "D":
		return nil
	default:
		return fmt.Errorf("correct answer must be one of A-D, got %q", in.Correct)
	}
}

// CreateQuestion adds a question to a subject's bank.
func (s *Service) CreateQuestion(ctx context.Context, input QuestionInput) (Question, error) {
	if err := input.validate(); err != nil {
		return Question{}, err
	}
	if _, err := s.repo.GetSubject(ctx, input.SubjectID); err != nil {
		return Question{}, err
	}
	question := Question{
		ID:        uuid.New().String(),
		SubjectID: input.SubjectID,
		Text:      strings.TrimSpace(input.Text),
		OptionA:   input.OptionA,
		OptionB:   input.OptionB,
		OptionC:   input.OptionC,
		OptionD:   input.OptionD,
		Correct:   strings.ToUpper(strings.TrimSpace(input.Correct)),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateQuestion(ctx, question); err != nil {
		return Question{}, err
	}
	return question, nil
}

// UpdateQuestion replaces a question's content.
func (s *Service) UpdateQuestion(ctx context.Context, id string, input QuestionInput) (Question, error) {
	if err := input.validate(); err != nil {
		return Question{}, err
	}
	questions, err := s.repo.GetQuestions(ctx, []string{id})
	if err != nil {
		return Question{}, err
	}
	if len(questions) == 0 {
		return Question{}, ErrNotFound
	}
	question := questions[0]
	question.Text = strings.TrimSpace(input.Text)
	question.OptionA = input.OptionA
	question.OptionB = input.OptionB
	question.OptionC = input.OptionC
	question.OptionD = input.OptionD
	question.Correct = strings.ToUpper(strings.TrimSpace(input.Correct))
	if err := s.repo.UpdateQuestion(ctx, question); err != nil {
		return Question{}, err
	}
	return question, nil
}

// DeleteQuestion removes a question.
func (s *Service) DeleteQuestion(ctx context.Context, id string) error {
	return s.repo.DeleteQuestion(ctx, id)
}

// CountQuestions reports the bank size for a subject.
func (s *Service) CountQuestions(ctx context.Context, subjectID string) (int, error) {
	if _, err := s.repo.GetSubject(ctx, subjectID); err != nil {
		return 0, err
	}
	questions, err := s.repo.ListQuestionsBySubject(ctx, subjectID)
	if err != nil {
		return 0, err
	}
	return len(questions), nil
}

// ImportQuestionsCSV bulk-loads questions from CSV rows of the form
// text,option_a,option_b,option_c,option_d,correct. A header row containing
// "text" in the first column is skipped. The import is all-or-nothing for
// validation: any malformed row aborts before writes.
func (s *Service) ImportQuestionsCSV(ctx context.Context, subjectID string, r io.Reader) (int, error) {
	if _, err := s.repo.GetSubject(ctx, subjectID); err != nil {
		return 0, err
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 6
	rows, err := reader.ReadAll()
	if err != nil {
		return 0, fmt.Errorf("parse csv: %w", err)
	}

	inputs := make([]QuestionInput, 0, len(rows))
	for i, row := range rows {
		if i == 0 && strings.EqualFold(strings.TrimSpace(row[0]), "text") {
			continue
		}
		input := QuestionInput{
			SubjectID: subjectID,
			Text:      row[0],
			OptionA:   row[1],
			OptionB:   row[2],
			OptionC:   row[3],
			OptionD:   row[4],
			Correct:   row[5],
		}
		if err := input.validate(); err != nil {
			return 0, fmt.Errorf("row %d: %w", i+1, err)
		}
		inputs = append(inputs, input)
	}

	for _, input := range inputs {
		if _, err := s.CreateQuestion(ctx, input); err != nil {
			return 0, err
		}
	}
	return len(inputs), nil
}

// StartSession opens a timed sitting for the credential, drawing a shuffled
// subset of the subject's question bank.
func (s *Service) StartSession(ctx context.Context, credentialID, subjectID string) (Session, []QuestionView, error) {
	subject, err := s.repo.GetSubject(ctx, subjectID)
	if err != nil {
		return Session{}, nil, err
	}
	questions, err := s.repo.ListQuestionsBySubject(ctx, subjectID)
	if err != nil {
		return Session{}, nil, err
	}
	if len(questions) == 0 {
		return Session{}, nil, ErrNoQuestions
	}

	rand.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})
	if len(questions) > subject.QuestionsPerSession {
		questions = questions[:subject.QuestionsPerSession]
	}

	session := Session{
		ID:              uuid.New().String(),
		CredentialID:    credentialID,
		SubjectID:       subjectID,
		StartedAt:       time.Now().UTC(),
		DurationMinutes: subject.DurationMinutes,
	}
	views := make([]QuestionView, 0, len(questions))
	for _, question := range questions {
		session.QuestionIDs = append(session.QuestionIDs, question.ID)
		views = append(views, QuestionView{
			ID:      question.ID,
			Text:    question.Text,
			OptionA: question.OptionA,
			OptionB: question.OptionB,
			OptionC: question.OptionC,
			OptionD: question.OptionD,
		})
	}

	if err := s.repo.CreateSession(ctx, session); err != nil {
		return Session{}, nil, err
	}
	return session, views, nil
}

// Submit scores the answers against the session's question set. Sessions
// belong to the credential that started them; anyone else sees not-found.
func (s *Service) Submit(ctx context.Context, sessionID, credentialID string, answers []Answer) (Result, error) {
	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return Result{}, err
	}
	if session.CredentialID != credentialID {
		return Result{}, ErrNotFound
	}
	if session.SubmittedAt != nil {
		return Result{}, ErrAlreadySubmitted
	}
	now := time.Now().UTC()
	if now.After(session.Deadline().Add(submissionGrace)) {
		return Result{}, ErrTimeExpired
	}

	questions, err := s.repo.GetQuestions(ctx, session.QuestionIDs)
	if err != nil {
		return Result{}, err
	}

	// Key answers by question id so a repeated id counts once, not once per
	// occurrence; the later entry wins.
	selected := make(map[string]string, len(answers))
	for _, answer := range answers {
		selected[answer.QuestionID] = answer.Selected
	}

	score := 0
	for _, question := range questions {
		if strings.EqualFold(strings.TrimSpace(selected[question.ID]), question.Correct) {
			score++
		}
	}
	total := len(session.QuestionIDs)

	if err := s.repo.RecordSubmission(ctx, session.ID, now, score, total); err != nil {
		return Result{}, err
	}
	return Result{
		SessionID:   session.ID,
		Score:       score,
		Total:       total,
		Percent:     float64(score) / float64(total) * 100,
		SubmittedAt: now,
	}, nil
}

// Result returns the scored outcome of a submitted session.
func (s *Service) Result(ctx context.Context, sessionID, credentialID string) (Result, error) {
	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return Result{}, err
	}
	if session.CredentialID != credentialID {
		return Result{}, ErrNotFound
	}
	if session.SubmittedAt == nil {
		return Result{}, fmt.Errorf("session not yet submitted")
	}
	return Result{
		SessionID:   session.ID,
		Score:       session.Score,
		Total:       session.Total,
		Percent:     float64(session.Score) / float64(session.Total) * 100,
		SubmittedAt: *session.SubmittedAt,
	}, nil
}
