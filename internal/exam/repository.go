package exam

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the requested subject, question or session is absent.
var ErrNotFound = errors.New("record not found")

// Repository persists exam catalogue data and sessions.
type Repository interface {
	CreateSubject(ctx context.Context, subject Subject) error
	GetSubject(ctx context.Context, id string) (Subject, error)
	UpdateSubject(ctx context.Context, subject Subject) error
	DeleteSubject(ctx context.Context, id string) error
	ListSubjects(ctx context.Context) ([]Subject, error)

	CreateQuestion(ctx context.Context, question Question) error
	UpdateQuestion(ctx context.Context, question Question) error
	DeleteQuestion(ctx context.Context, id string) error
	ListQuestionsBySubject(ctx context.Context, subjectID string) ([]Question, error)
	GetQuestions(ctx context.Context, ids []string) ([]Question, error)

	CreateSession(ctx context.Context, session Session) error
	GetSession(ctx context.Context, id string) (Session, error)
	RecordSubmission(ctx context.Context, id string, submittedAt time.Time, score, total int) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed exam repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) CreateSubject(ctx context.Context, subject Subject) error {
	id, err := uuid.Parse(subject.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO subjects
        (id, name, description, duration_minutes, questions_per_session, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		id, subject.Name, subject.Description, subject.DurationMinutes,
		subject.QuestionsPerSession, subject.CreatedAt.UTC())
	return err
}

func (r *PostgresRepository) GetSubject(ctx context.Context, id string) (Subject, error) {
	subjectID, err := uuid.Parse(id)
	if err != nil {
		return Subject{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT id, name, description, duration_minutes, questions_per_session, created_at
        FROM subjects WHERE id = $1`, subjectID)
	return scanSubject(row)
}

func (r *PostgresRepository) UpdateSubject(ctx context.Context, subject Subject) error {
	subjectID, err := uuid.Parse(subject.ID)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE subjects
        SET name = $1, description = $2, duration_minutes = $3, questions_per_session = $4
        WHERE id = $5`,
		subject.Name, subject.Description, subject.DurationMinutes,
		subject.QuestionsPerSession, subjectID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteSubject(ctx context.Context, id string) error {
	subjectID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `DELETE FROM subjects WHERE id = $1`, subjectID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) ListSubjects(ctx context.Context) ([]Subject, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, description, duration_minutes, questions_per_session, created_at
        FROM subjects ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subjects []Subject
	for rows.Next() {
		subject, err := scanSubject(rows)
		if err != nil {
			return nil, err
		}
		subjects = append(subjects, subject)
	}
	return subjects, rows.Err()
}

func (r *PostgresRepository) CreateQuestion(ctx context.Context, question Question) error {
	id, err := uuid.Parse(question.ID)
	if err != nil {
		return err
	}
	subjectID, err := uuid.Parse(question.SubjectID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO questions
        (id, subject_id, text, option_a, option_b, option_c, option_d, correct, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		id, subjectID, question.Text, question.OptionA, question.OptionB,
		question.OptionC, question.OptionD, question.Correct, question.CreatedAt.UTC())
	return err
}

func (r *PostgresRepository) UpdateQuestion(ctx context.Context, question Question) error {
	questionID, err := uuid.Parse(question.ID)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE questions
        SET text = $1, option_a = $2, option_b = $3, option_c = $4, option_d = $5, correct = $6
        WHERE id = $7`,
		question.Text, question.OptionA, question.OptionB, question.OptionC,
		question.OptionD, question.Correct, questionID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteQuestion(ctx context.Context, id string) error {
	questionID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `DELETE FROM questions WHERE id = $1`, questionID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) ListQuestionsBySubject(ctx context.Context, subjectID string) ([]Question, error) {
	sid, err := uuid.Parse(subjectID)
	if err != nil {
		return nil, ErrNotFound
	}
	rows, err := r.db.Query(ctx, `SELECT id, subject_id, text, option_a, option_b, option_c, option_d, correct, created_at
        FROM questions WHERE subject_id = $1`, sid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectQuestions(rows)
}

func (r *PostgresRepository) GetQuestions(ctx context.Context, ids []string) ([]Question, error) {
	rows, err := r.db.Query(ctx, `SELECT id, subject_id, text, option_a, option_b, option_c, option_d, correct, created_at
        FROM questions WHERE id = ANY($1::uuid[])`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectQuestions(rows)
}

func (r *PostgresRepository) CreateSession(ctx context.Context, session Session) error {
	id, err := uuid.Parse(session.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO exam_sessions
        (id, credential_id, subject_id, question_ids, started_at, duration_minutes)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		id, session.CredentialID, session.SubjectID, session.QuestionIDs,
		session.StartedAt.UTC(), session.DurationMinutes)
	return err
}

func (r *PostgresRepository) GetSession(ctx context.Context, id string) (Session, error) {
	sessionID, err := uuid.Parse(id)
	if err != nil {
		return Session{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT id, credential_id, subject_id, question_ids, started_at,
        duration_minutes, submitted_at, score, total
        FROM exam_sessions WHERE id = $1`, sessionID)

	var (
		sid     uuid.UUID
		session Session
	)
	err = row.Scan(&sid, &session.CredentialID, &session.SubjectID, &session.QuestionIDs,
		&session.StartedAt, &session.DurationMinutes, &session.SubmittedAt,
		&session.Score, &session.Total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}
	session.ID = sid.String()
	session.StartedAt = session.StartedAt.UTC()
	return session, nil
}

func (r *PostgresRepository) RecordSubmission(ctx context.Context, id string, submittedAt time.Time, score, total int) error {
	sessionID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE exam_sessions
        SET submitted_at = $1, score = $2, total = $3
        WHERE id = $4 AND submitted_at IS NULL`,
		submittedAt.UTC(), score, total, sessionID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanSubject(row pgx.Row) (Subject, error) {
	var (
		id      uuid.UUID
		subject Subject
	)
	err := row.Scan(&id, &subject.Name, &subject.Description, &subject.DurationMinutes,
		&subject.QuestionsPerSession, &subject.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Subject{}, ErrNotFound
		}
		return Subject{}, err
	}
	subject.ID = id.String()
	subject.CreatedAt = subject.CreatedAt.UTC()
	return subject, nil
}

func collectQuestions(rows pgx.Rows) ([]Question, error) {
	var questions []Question
	for rows.Next() {
		var (
			id       uuid.UUID
			sid      uuid.UUID
			question Question
		)
		err := rows.Scan(&id, &sid, &question.Text, &question.OptionA, &question.OptionB,
			&question.OptionC, &question.OptionD, &question.Correct, &question.CreatedAt)
		if err != nil {
			return nil, err
		}
		question.ID = id.String()
		question.SubjectID = sid.String()
		question.CreatedAt = question.CreatedAt.UTC()
		questions = append(questions, question)
	}
	return questions, rows.Err()
}
