package pg

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"cgms.org/internal/grievance"
)

const grievanceColumns = `id, description, category, status, created_at, updated_at, is_anonymous, submitter_id, tracking_code, department, resolution_note, feedback_rating, feedback_comment`

func scanGrievance(row interface{ Scan(...any) error }) (grievance.Grievance, error) {
	var g grievance.Grievance
	var status string
	var submitter, code, dept, note, comment sql.NullString
	var rating sql.NullInt64
	err := row.Scan(&g.ID, &g.Description, &g.Category, &status, &g.CreatedAt, &g.UpdatedAt,
		&g.IsAnonymous, &submitter, &code, &dept, &note, &rating, &comment)
	if errors.Is(err, sql.ErrNoRows) {
		return grievance.Grievance{}, grievance.ErrNotFound
	}
	if err != nil {
		return grievance.Grievance{}, err
	}
	g.Status = grievance.Status(status)
	g.SubmitterID = submitter.String
	g.TrackingCode = code.String
	g.Department = dept.String
	g.ResolutionNote = note.String
	if rating.Valid {
		g.Feedback = &grievance.Feedback{Rating: int(rating.Int64), Comment: comment.String}
	}
	g.CreatedAt = g.CreatedAt.UTC()
	g.UpdatedAt = g.UpdatedAt.UTC()
	return g, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (s *Store) Create(ctx context.Context, g grievance.Grievance) (grievance.Grievance, error) {
	_, err := s.db.ExecContext(ctx, `
		insert into grievances(id, description, category, status, created_at, updated_at, is_anonymous, submitter_id, tracking_code, department, resolution_note)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, g.ID, g.Description, g.Category, string(g.Status), g.CreatedAt, g.UpdatedAt,
		g.IsAnonymous, nullable(g.SubmitterID), nullable(g.TrackingCode), nullable(g.Department), g.ResolutionNote)
	if err != nil {
		return grievance.Grievance{}, err
	}
	return g, nil
}

func (s *Store) Get(ctx context.Context, id string) (grievance.Grievance, error) {
	row := s.db.QueryRowContext(ctx, `select `+grievanceColumns+` from grievances where id=$1`, id)
	return scanGrievance(row)
}

func (s *Store) GetByTrackingCode(ctx context.Context, code string) (grievance.Grievance, error) {
	row := s.db.QueryRowContext(ctx, `select `+grievanceColumns+` from grievances where tracking_code=$1`, code)
	return scanGrievance(row)
}

// Update locks the row, applies the mutation, and writes the result back in
// one transaction. Concurrent updates to the same grievance serialize on the
// row lock.
func (s *Store) Update(ctx context.Context, id string, apply func(*grievance.Grievance) error) (grievance.Grievance, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return grievance.Grievance{}, err
	}
	defer func() { _ = tx.Rollback() }()

	g, err := scanGrievance(tx.QueryRowContext(ctx, `select `+grievanceColumns+` from grievances where id=$1 for update`, id))
	if err != nil {
		return grievance.Grievance{}, err
	}
	if err := apply(&g); err != nil {
		return grievance.Grievance{}, err
	}

	var rating any
	var comment any
	if g.Feedback != nil {
		rating = g.Feedback.Rating
		comment = g.Feedback.Comment
	}
	if _, err := tx.ExecContext(ctx, `
		update grievances
		set status=$2, updated_at=$3, department=$4, resolution_note=$5, feedback_rating=$6, feedback_comment=$7
		where id=$1
	`, g.ID, string(g.Status), g.UpdatedAt, nullable(g.Department), g.ResolutionNote, rating, comment); err != nil {
		return grievance.Grievance{}, err
	}
	if err := tx.Commit(); err != nil {
		return grievance.Grievance{}, err
	}
	return g, nil
}

func (s *Store) queryGrievances(ctx context.Context, query string, args ...any) ([]grievance.Grievance, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]grievance.Grievance, 0)
	for rows.Next() {
		g, err := scanGrievance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *Store) ListBySubmitter(ctx context.Context, accountID string) ([]grievance.Grievance, error) {
	return s.queryGrievances(ctx,
		`select `+grievanceColumns+` from grievances where submitter_id=$1 order by created_at desc`, accountID)
}

func (s *Store) ListByDepartment(ctx context.Context, dept string) ([]grievance.Grievance, error) {
	return s.queryGrievances(ctx,
		`select `+grievanceColumns+` from grievances where department=$1 order by created_at desc`, dept)
}

func (s *Store) List(ctx context.Context, filter grievance.Filter) ([]grievance.Grievance, error) {
	query := `select ` + grievanceColumns + ` from grievances`
	var conds []string
	var args []any
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, `status=$1`)
	}
	if filter.Category != "" {
		args = append(args, strings.ToLower(filter.Category))
		if len(args) == 1 {
			conds = append(conds, `lower(category)=$1`)
		} else {
			conds = append(conds, `lower(category)=$2`)
		}
	}
	if len(conds) > 0 {
		query += ` where ` + strings.Join(conds, ` and `)
	}
	query += ` order by created_at desc`
	return s.queryGrievances(ctx, query, args...)
}

func (s *Store) Stats(ctx context.Context, recentLimit int) (grievance.Stats, error) {
	var st grievance.Stats
	rows, err := s.db.QueryContext(ctx, `select status, count(*) from grievances group by status`)
	if err != nil {
		return grievance.Stats{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return grievance.Stats{}, err
		}
		switch grievance.Status(status) {
		case grievance.StatusPending:
			st.Pending = n
		case grievance.StatusInProgress:
			st.InProgress = n
		case grievance.StatusResolved:
			st.Resolved = n
		}
	}
	if err := rows.Err(); err != nil {
		return grievance.Stats{}, err
	}

	recent, err := s.queryGrievances(ctx,
		`select `+grievanceColumns+` from grievances order by created_at desc limit $1`, recentLimit)
	if err != nil {
		return grievance.Stats{}, err
	}
	st.Recent = recent
	return st, nil
}

func (s *Store) FeedbackStats(ctx context.Context) ([]grievance.DepartmentFeedback, error) {
	rows, err := s.db.QueryContext(ctx, `
		select department, avg(feedback_rating)::float8, count(*)
		from grievances
		where status=$1 and feedback_rating is not null and department is not null
		group by department
		order by avg(feedback_rating) desc, department asc
	`, string(grievance.StatusResolved))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]grievance.DepartmentFeedback, 0)
	for rows.Next() {
		var df grievance.DepartmentFeedback
		if err := rows.Scan(&df.Department, &df.AverageRating, &df.Count); err != nil {
			return nil, err
		}
		out = append(out, df)
	}
	return out, rows.Err()
}
