// Package memory keeps users and exercises in process memory for local
// development and tests. It mirrors the Postgres store's semantics.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fitlog/apiserver/internal/store"
	"github.com/fitlog/apiserver/types"
)

// Store holds both collections behind one lock.
type Store struct {
	mu        sync.RWMutex
	users     []types.User
	byID      map[string]int
	byName    map[string]int
	exercises []types.Exercise
	now       func() time.Time
}

func New() *Store {
	return &Store{
		byID:   make(map[string]int),
		byName: make(map[string]int),
		now:    time.Now,
	}
}

// Users returns a view implementing the user repository.
func (s *Store) Users() *UserRepository {
	return &UserRepository{s: s}
}

// Exercises returns a view implementing the exercise repository.
func (s *Store) Exercises() *ExerciseRepository {
	return &ExerciseRepository{s: s}
}

type UserRepository struct {
	s *Store
}

func (r *UserRepository) List(ctx context.Context) ([]types.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]types.User, len(r.s.users))
	copy(out, r.s.users)
	return out, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (types.User, error) {
	if err := ctx.Err(); err != nil {
		return types.User{}, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	idx, ok := r.s.byID[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return r.s.users[idx], nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (types.User, error) {
	if err := ctx.Err(); err != nil {
		return types.User{}, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	idx, ok := r.s.byName[username]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return r.s.users[idx], nil
}

// Create enforces username uniqueness under the write lock, like the
// unique index does in Postgres.
func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	if err := ctx.Err(); err != nil {
		return types.User{}, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.byName[user.Username]; exists {
		return types.User{}, store.ErrConflict
	}

	user.ID = uuid.NewString()
	user.CreatedAt = r.s.now().UTC()
	r.s.users = append(r.s.users, user)
	r.s.byID[user.ID] = len(r.s.users) - 1
	r.s.byName[user.Username] = len(r.s.users) - 1
	return user, nil
}

type ExerciseRepository struct {
	s *Store
}

func (r *ExerciseRepository) Create(ctx context.Context, exercise types.Exercise) (types.Exercise, error) {
	if err := ctx.Err(); err != nil {
		return types.Exercise{}, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	exercise.ID = uuid.NewString()
	exercise.CreatedAt = r.s.now().UTC()
	r.s.exercises = append(r.s.exercises, exercise)
	return exercise, nil
}

func (r *ExerciseRepository) Query(ctx context.Context, filter types.ExerciseFilter) ([]types.Exercise, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.s.mu.RLock()
	matched := make([]types.Exercise, 0)
	for _, exercise := range r.s.exercises {
		if filter.Matches(exercise) {
			matched = append(matched, exercise)
		}
	}
	r.s.mu.RUnlock()

	// Insertion order already follows created_at, so a stable sort on
	// date reproduces ORDER BY date, created_at.
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Date.Before(matched[j].Date)
	})

	total := len(matched)
	if filter.Limit > 0 && filter.Limit < total {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}
