package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fitlog/apiserver/types"
)

// ExerciseRepository handles persistence for exercise entries.
type ExerciseRepository struct {
	db *sql.DB
}

func NewExerciseRepository(db *sql.DB) *ExerciseRepository {
	return &ExerciseRepository{db: db}
}

func (r *ExerciseRepository) Create(ctx context.Context, exercise types.Exercise) (types.Exercise, error) {
	exercise.ID = uuid.NewString()
	exercise.CreatedAt = time.Now().UTC()

	const query = `
		INSERT INTO exercises (id, user_id, username, description, duration, date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(
		ctx,
		query,
		exercise.ID,
		exercise.UserID,
		exercise.Username,
		exercise.Description,
		exercise.Duration,
		exercise.Date,
		exercise.CreatedAt,
	)
	if err != nil {
		return types.Exercise{}, err
	}
	return exercise, nil
}

// Query loads the first filter.Limit matching entries by ascending date.
// The total is a window count over the same statement, so it is taken
// from the same snapshot as the rows and ignores the LIMIT.
func (r *ExerciseRepository) Query(ctx context.Context, filter types.ExerciseFilter) ([]types.Exercise, int, error) {
	if _, err := uuid.Parse(filter.UserID); err != nil {
		return []types.Exercise{}, 0, nil
	}

	query, args := logQuery(filter)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var total int
	exercises := make([]types.Exercise, 0)
	for rows.Next() {
		var exercise types.Exercise
		if err := rows.Scan(
			&exercise.ID,
			&exercise.UserID,
			&exercise.Username,
			&exercise.Description,
			&exercise.Duration,
			&exercise.Date,
			&exercise.CreatedAt,
			&total,
		); err != nil {
			return nil, 0, err
		}
		exercises = append(exercises, exercise)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return exercises, total, nil
}

func logQuery(filter types.ExerciseFilter) (string, []any) {
	where, args := filterClause(filter)
	query := `
		SELECT id, user_id, username, description, duration, date, created_at, COUNT(*) OVER ()
		FROM exercises
		WHERE ` + where + `
		ORDER BY date, created_at, id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(`
		LIMIT $%d`, len(args))
	}
	return query, args
}

func filterClause(filter types.ExerciseFilter) (string, []any) {
	conditions := []string{"user_id = $1"}
	args := []any{filter.UserID}

	if filter.From != nil {
		args = append(args, *filter.From)
		conditions = append(conditions, fmt.Sprintf("date >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conditions = append(conditions, fmt.Sprintf("date <= $%d", len(args)))
	}

	return strings.Join(conditions, " AND "), args
}
