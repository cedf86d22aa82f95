package exam

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func seedSubject(t *testing.T, svc *Service, perSession int) Subject {
	t.Helper()
	subject, err := svc.CreateSubject(context.Background(), SubjectInput{
		Name:                "Mathematics",
		DurationMinutes:     30,
		QuestionsPerSession: perSession,
	})
	if err != nil {
		t.Fatalf("create subject: %v", err)
	}
	return subject
}

func seedQuestions(t *testing.T, svc *Service, subjectID string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := svc.CreateQuestion(context.Background(), QuestionInput{
			SubjectID: subjectID,
			Text:      "What is 2+2?",
			OptionA:   "3",
			OptionB:   "4",
			OptionC:   "5",
			OptionD:   "6",
			Correct:   "b",
		})
		if err != nil {
			t.Fatalf("create question %d: %v", i, err)
		}
	}
}

func TestStartSessionDrawsSubset(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	subject := seedSubject(t, svc, 5)
	seedQuestions(t, svc, subject.ID, 12)

	session, views, err := svc.StartSession(context.Background(), "cred-1", subject.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(session.QuestionIDs) != 5 || len(views) != 5 {
		t.Fatalf("expected 5 questions, got %d/%d", len(session.QuestionIDs), len(views))
	}
	if session.DurationMinutes != 30 {
		t.Fatalf("session must inherit subject duration")
	}
}

func TestStartSessionWithoutQuestions(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	subject := seedSubject(t, svc, 5)

	if _, _, err := svc.StartSession(context.Background(), "cred-1", subject.ID); !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}
}

func TestSubmitScoresAnswers(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	subject := seedSubject(t, svc, 4)
	seedQuestions(t, svc, subject.ID, 4)
	ctx := context.Background()

	session, views, err := svc.StartSession(ctx, "cred-1", subject.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	answers := []Answer{
		{QuestionID: views[0].ID, Selected: "B"},
		{QuestionID: views[1].ID, Selected: "b"},
		{QuestionID: views[2].ID, Selected: "A"},
		// views[3] left unanswered
	}
	result, err := svc.Submit(ctx, session.ID, "cred-1", answers)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Score != 2 || result.Total != 4 {
		t.Fatalf("expected 2/4, got %d/%d", result.Score, result.Total)
	}
	if result.Percent != 50 {
		t.Fatalf("expected 50%%, got %v", result.Percent)
	}

	if _, err := svc.Submit(ctx, session.ID, "cred-1", answers); !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("expected ErrAlreadySubmitted, got %v", err)
	}

	stored, err := svc.Result(ctx, session.ID, "cred-1")
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if stored.Score != 2 {
		t.Fatalf("stored score %d", stored.Score)
	}
}

func TestSubmitCountsRepeatedQuestionOnce(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	subject := seedSubject(t, svc, 1)
	seedQuestions(t, svc, subject.ID, 1)
	ctx := context.Background()

	session, views, err := svc.StartSession(ctx, "cred-1", subject.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	// The same correct answer repeated must not inflate the score.
	answers := []Answer{
		{QuestionID: views[0].ID, Selected: "B"},
		{QuestionID: views[0].ID, Selected: "B"},
		{QuestionID: views[0].ID, Selected: "B"},
	}
	result, err := svc.Submit(ctx, session.ID, "cred-1", answers)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Score != 1 || result.Total != 1 {
		t.Fatalf("expected 1/1, got %d/%d", result.Score, result.Total)
	}
	if result.Percent != 100 {
		t.Fatalf("expected 100%%, got %v", result.Percent)
	}
}

func TestSubmitEnforcesOwnershipAndDeadline(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	subject := seedSubject(t, svc, 2)
	seedQuestions(t, svc, subject.ID, 2)
	ctx := context.Background()

	session, _, err := svc.StartSession(ctx, "cred-1", subject.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, err := svc.Submit(ctx, session.ID, "cred-other", nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign credential, got %v", err)
	}

	// Rewind the start so the deadline has passed.
	late := session
	late.StartedAt = time.Now().UTC().Add(-time.Duration(session.DurationMinutes)*time.Minute - 2*submissionGrace)
	OverwriteSession(repo, late)
	if _, err := svc.Submit(ctx, session.ID, "cred-1", nil); !errors.Is(err, ErrTimeExpired) {
		t.Fatalf("expected ErrTimeExpired, got %v", err)
	}
}

func TestImportQuestionsCSV(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	subject := seedSubject(t, svc, 5)
	ctx := context.Background()

	data := strings.Join([]string{
		"text,option_a,option_b,option_c,option_d,correct",
		"What is 2+2?,3,4,5,6,B",
		"What is 3*3?,6,7,8,9,D",
	}, "\n")

	n, err := svc.ImportQuestionsCSV(ctx, subject.ID, strings.NewReader(data))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 imported, got %d", n)
	}

	count, err := svc.CountQuestions(ctx, subject.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected bank of 2, got %d", count)
	}
}

func TestImportQuestionsCSVRejectsBadRows(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	subject := seedSubject(t, svc, 5)
	ctx := context.Background()

	data := "What is 2+2?,3,4,5,6,X\n"
	if _, err := svc.ImportQuestionsCSV(ctx, subject.ID, strings.NewReader(data)); err == nil {
		t.Fatalf("expected validation error for bad correct letter")
	}

	count, _ := svc.CountQuestions(ctx, subject.ID)
	if count != 0 {
		t.Fatalf("failed import must not write questions, bank has %d", count)
	}
}
