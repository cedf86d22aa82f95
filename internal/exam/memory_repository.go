package exam

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryRepository struct {
	mu        sync.RWMutex
	subjects  map[string]Subject
	questions map[string]Question
	sessions  map[string]Session
}

// NewMemoryRepository builds an in-memory exam store for testing and
// database-less development.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		subjects:  make(map[string]Subject),
		questions: make(map[string]Question),
		sessions:  make(map[string]Session),
	}
}

func (r *memoryRepository) CreateSubject(_ context.Context, subject Subject) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subjects[subject.ID] = subject
	return nil
}

func (r *memoryRepository) GetSubject(_ context.Context, id string) (Subject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	subject, ok := r.subjects[id]
	if !ok {
		return Subject{}, ErrNotFound
	}
	return subject, nil
}

func (r *memoryRepository) UpdateSubject(_ context.Context, subject Subject) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subjects[subject.ID]; !ok {
		return ErrNotFound
	}
	r.subjects[subject.ID] = subject
	return nil
}

func (r *memoryRepository) DeleteSubject(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subjects[id]; !ok {
		return ErrNotFound
	}
	delete(r.subjects, id)
	return nil
}

func (r *memoryRepository) ListSubjects(_ context.Context) ([]Subject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	subjects := make([]Subject, 0, len(r.subjects))
	for _, subject := range r.subjects {
		subjects = append(subjects, subject)
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].Name < subjects[j].Name })
	return subjects, nil
}

func (r *memoryRepository) CreateQuestion(_ context.Context, question Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.questions[question.ID] = question
	return nil
}

func (r *memoryRepository) UpdateQuestion(_ context.Context, question Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.questions[question.ID]; !ok {
		return ErrNotFound
	}
	r.questions[question.ID] = question
	return nil
}

func (r *memoryRepository) DeleteQuestion(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.questions[id]; !ok {
		return ErrNotFound
	}
	delete(r.questions, id)
	return nil
}

func (r *memoryRepository) ListQuestionsBySubject(_ context.Context, subjectID string) ([]Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var questions []Question
	for _, question := range r.questions {
		if question.SubjectID == subjectID {
			questions = append(questions, question)
		}
	}
	return questions, nil
}

func (r *memoryRepository) GetQuestions(_ context.Context, ids []string) ([]Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	questions := make([]Question, 0, len(ids))
	for _, id := range ids {
		if question, ok := r.questions[id]; ok {
			questions = append(questions, question)
		}
	}
	return questions, nil
}

func (r *memoryRepository) CreateSession(_ context.Context, session Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = session
	return nil
}

func (r *memoryRepository) GetSession(_ context.Context, id string) (Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return session, nil
}

func (r *memoryRepository) RecordSubmission(_ context.Context, id string, submittedAt time.Time, score, total int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok || session.SubmittedAt != nil {
		return ErrNotFound
	}
	submittedAt = submittedAt.UTC()
	session.SubmittedAt = &submittedAt
	session.Score = score
	session.Total = total
	r.sessions[id] = session
	return nil
}
