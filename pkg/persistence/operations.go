package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNoUnusedQuestion is returned by PickUnused when the bank has no
// remaining verified, unused question for the requested part and level.
var ErrNoUnusedQuestion = errors.New("no unused question available")

// QuestionFilter narrows the set of questions returned by queries.
// Zero values mean "no constraint".
type QuestionFilter struct {
	Part    int   // 1-4
	Level   int   // 1-5
	StartID int64 // resume from this row id (inclusive)
	Limit   int   // max rows returned
}

// DatabaseOperations provides methods for database operations.
type DatabaseOperations struct {
	db      *sql.DB
	batchID string
}

// NewDatabaseOperations creates a new DatabaseOperations instance.
func NewDatabaseOperations(db *sql.DB, batchID string) *DatabaseOperations {
	return &DatabaseOperations{db: db, batchID: batchID}
}

const questionColumns = `id, batch_id, part, level, accent, sex, used, valid,
	valid_status, question, prompt, answer, a, b, c, d, img_prompt, img,
	created_at`

// InsertQuestions stores a batch of generated questions in a single
// transaction. Either all rows are inserted or none are. Row IDs are
// written back into the passed questions.
func (ops *DatabaseOperations) InsertQuestions(part, level int, questions []*Question) error {
	if len(questions) == 0 {
		return nil
	}

	tx, err := ops.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO questions (
			batch_id, part, level, accent, sex, question, prompt, answer,
			a, b, c, d, img_prompt, img
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, q := range questions {
		res, err := stmt.Exec(
			ops.batchID, part, level, q.Accent, q.Sex, q.Question, q.Prompt, q.Answer,
			q.A, q.B, q.C, q.D, q.ImgPrompt, q.Img,
		)
		if err != nil {
			return fmt.Errorf("failed to insert question: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read inserted id: %w", err)
		}
		q.ID = id
		q.BatchID = ops.batchID
		q.Part = part
		q.Level = level
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit insert: %w", err)
	}
	return nil
}

// UnverifiedQuestions returns questions awaiting verification, oldest first.
// Part 1 questions without a rendered image are skipped: the solver needs
// the photograph to judge them.
func (ops *DatabaseOperations) UnverifiedQuestions(filter *QuestionFilter) ([]*Question, error) {
	where := []string{"valid = ?"}
	args := []interface{}{int(StatusUnverified)}

	if filter != nil {
		if filter.StartID != 0 {
			where = append(where, "id >= ?")
			args = append(args, filter.StartID)
		}
		if filter.Part != 0 {
			where = append(where, "part = ?")
			args = append(args, filter.Part)
		}
		if filter.Level != 0 {
			where = append(where, "level = ?")
			args = append(args, filter.Level)
		}
	}

	where = append(where, "(part != 1 OR img != '')")

	query := fmt.Sprintf(
		"SELECT %s FROM questions WHERE %s ORDER BY id",
		questionColumns, strings.Join(where, " AND "),
	)
	if filter != nil && filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := ops.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query unverified questions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var questions []*Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return questions, nil
}

// GetQuestionByID returns a single question by row id.
func (ops *DatabaseOperations) GetQuestionByID(id int64) (*Question, error) {
	row := ops.db.QueryRow(
		fmt.Sprintf("SELECT %s FROM questions WHERE id = ?", questionColumns), id,
	)
	q, err := scanQuestion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("question %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return q, nil
}

// UpdateVerification records the verification outcome for a question along
// with a human-readable detail string.
func (ops *DatabaseOperations) UpdateVerification(id int64, status VerifyStatus, detail string) error {
	res, err := ops.db.Exec(
		"UPDATE questions SET valid = ?, valid_status = ? WHERE id = ?",
		int(status), detail, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update verification for question %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("question %d not found", id)
	}
	return nil
}

// PickUnused returns a random verified, unused question for the given part
// and level. The row is not marked used; call MarkUsed once the caller has
// committed to the question.
func (ops *DatabaseOperations) PickUnused(part, level int) (*Question, error) {
	row := ops.db.QueryRow(fmt.Sprintf(`
		SELECT %s FROM questions
		WHERE part = ? AND level = ? AND used = 0 AND valid = ?
		ORDER BY RANDOM() LIMIT 1
	`, questionColumns), part, level, int(StatusValid))

	q, err := scanQuestion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoUnusedQuestion
	}
	if err != nil {
		return nil, err
	}
	return q, nil
}

// MarkUsed marks a question as consumed and records the accent and sex
// assigned for audio rendering.
func (ops *DatabaseOperations) MarkUsed(id int64, accent, sex string) error {
	res, err := ops.db.Exec(
		"UPDATE questions SET used = 1, accent = ?, sex = ? WHERE id = ?",
		accent, sex, id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark question %d used: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("question %d not found", id)
	}
	return nil
}

// UpdateImage records the rendered image path for a question.
func (ops *DatabaseOperations) UpdateImage(id int64, imgPath string) error {
	res, err := ops.db.Exec("UPDATE questions SET img = ? WHERE id = ?", imgPath, id)
	if err != nil {
		return fmt.Errorf("failed to update image for question %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("question %d not found", id)
	}
	return nil
}

// CountByPartLevel aggregates bank contents per (part, level) pair.
func (ops *DatabaseOperations) CountByPartLevel() ([]*PartLevelCount, error) {
	rows, err := ops.db.Query(`
		SELECT part, level,
			COUNT(*),
			SUM(CASE WHEN valid = ? THEN 1 ELSE 0 END),
			SUM(CASE WHEN used = 1 THEN 1 ELSE 0 END)
		FROM questions
		GROUP BY part, level
		ORDER BY part, level
	`, int(StatusValid))
	if err != nil {
		return nil, fmt.Errorf("failed to query counts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var counts []*PartLevelCount
	for rows.Next() {
		c := &PartLevelCount{}
		if err := rows.Scan(&c.Part, &c.Level, &c.Total, &c.Verified, &c.Used); err != nil {
			return nil, fmt.Errorf("failed to scan count row: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return counts, nil
}

// scanner abstracts *sql.Row and *sql.Rows for scanQuestion.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanQuestion reads one question row in questionColumns order.
func scanQuestion(s scanner) (*Question, error) {
	q := &Question{}
	var used, valid int
	var createdAt string

	err := s.Scan(
		&q.ID, &q.BatchID, &q.Part, &q.Level, &q.Accent, &q.Sex, &used, &valid,
		&q.ValidStatus, &q.Question, &q.Prompt, &q.Answer, &q.A, &q.B, &q.C, &q.D,
		&q.ImgPrompt, &q.Img, &createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers translate ErrNoRows
		}
		return nil, fmt.Errorf("failed to scan question row: %w", err)
	}

	q.Used = used != 0
	q.Valid = VerifyStatus(valid)
	if ts, err := time.Parse(time.RFC3339, createdAt); err == nil {
		q.CreatedAt = ts
	}
	return q, nil
}
