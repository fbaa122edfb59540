package services

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fitlog/apiserver/internal/logger"
	"github.com/fitlog/apiserver/internal/observability"
	"github.com/fitlog/apiserver/types"
)

// DefaultLogLimit caps a history query when no limit is supplied.
const DefaultLogLimit = 100

const (
	msgInvalidDescription = "Please enter a valid description"
	msgInvalidDuration    = "Please enter a valid duration"
	msgDurationTooShort   = "Duration must be at least 1 minute"
	msgDurationFraction   = "Duration must be a whole number of minutes"
	msgInvalidDate        = "Please enter a valid date"
	msgInvalidFrom        = "Please enter a valid from date"
	msgInvalidTo          = "Please enter a valid to date"
	msgInvalidLimit       = "Limit must be a positive whole number"
	msgCreateExerciseFail = "There was an error creating the exercise"
	msgQueryFail          = "There was an error fetching exercises"
	msgNoMatch            = "No exercises fall under those criteria"
)

// ExerciseRepository defines persistence operations for exercise entries.
type ExerciseRepository interface {
	Create(ctx context.Context, exercise types.Exercise) (types.Exercise, error)
	// Query returns at most filter.Limit matching entries ordered by date
	// ascending, together with the total number of matches.
	Query(ctx context.Context, filter types.ExerciseFilter) ([]types.Exercise, int, error)
}

// UserFinder resolves the owner of an exercise entry.
type UserFinder interface {
	GetByID(ctx context.Context, id string) (types.User, error)
}

// EventPublisher delivers serialized events to a named channel.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// ExerciseOption customises an ExerciseService.
type ExerciseOption func(*ExerciseService)

// WithEventPublisher publishes an ExerciseLoggedEvent on channel after each append.
func WithEventPublisher(publisher EventPublisher, channel string) ExerciseOption {
	return func(s *ExerciseService) {
		s.publisher = publisher
		s.channel = channel
	}
}

// WithClock overrides the source of the creation instant.
func WithClock(now func() time.Time) ExerciseOption {
	return func(s *ExerciseService) {
		s.now = now
	}
}

// ExerciseService appends exercise entries and answers history queries.
type ExerciseService struct {
	users     UserFinder
	repo      ExerciseRepository
	publisher EventPublisher
	channel   string
	now       func() time.Time
}

func NewExerciseService(users UserFinder, repo ExerciseRepository, opts ...ExerciseOption) *ExerciseService {
	s := &ExerciseService{
		users: users,
		repo:  repo,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AppendExerciseInput holds the raw form values of an append request.
type AppendExerciseInput struct {
	UserID      string
	Description string
	Duration    string
	Date        string
}

// LogQuery holds the raw parameters of a history query.
type LogQuery struct {
	UserID string
	From   string
	To     string
	Limit  string
}

// Append validates input and persists a new exercise entry for the user.
func (s *ExerciseService) Append(ctx context.Context, input AppendExerciseInput) (types.Exercise, error) {
	log := logger.Log(ctx).With(zap.String("method", "ExerciseService.Append"), zap.String("user_id", input.UserID))

	user, err := s.users.GetByID(ctx, input.UserID)
	if err != nil {
		return types.Exercise{}, wrapError(ErrUserNotFound, msgUserNotFound, err)
	}

	description := strings.TrimSpace(input.Description)
	if description == "" {
		return types.Exercise{}, newError(ErrInvalidInput, msgInvalidDescription)
	}

	duration, err := parseDuration(input.Duration)
	if err != nil {
		return types.Exercise{}, err
	}

	date := types.NewDate(s.now())
	if raw := strings.TrimSpace(input.Date); raw != "" {
		parsed, err := types.ParseDate(raw)
		if err != nil {
			return types.Exercise{}, wrapError(ErrInvalidInput, msgInvalidDate, err)
		}
		date = parsed
	}

	exercise, err := s.repo.Create(ctx, types.Exercise{
		UserID:      user.ID,
		Username:    user.Username,
		Description: description,
		Duration:    duration,
		Date:        date,
	})
	if err != nil {
		log.Error(ctx, "create exercise failed", zap.Error(err))
		return types.Exercise{}, wrapError(ErrPersistence, msgCreateExerciseFail, err)
	}

	observability.RecordExerciseLogged(exercise.Duration)
	log.Info(ctx, "exercise logged", zap.String("exercise_id", exercise.ID), zap.String("date", exercise.Date.ISO()))
	s.publish(ctx, exercise)
	return exercise, nil
}

// Log returns the user's entries matching the optional date bounds.
// Count reflects every match; Entries is capped to the limit.
func (s *ExerciseService) Log(ctx context.Context, query LogQuery) (types.ExerciseLog, error) {
	user, err := s.users.GetByID(ctx, query.UserID)
	if err != nil {
		observability.RecordLogQuery(observability.OutcomeUserNotFound)
		return types.ExerciseLog{}, wrapError(ErrUserNotFound, msgUserNotFound, err)
	}

	filter, err := buildFilter(user.ID, query)
	if err != nil {
		observability.RecordLogQuery(observability.OutcomeInvalid)
		return types.ExerciseLog{}, err
	}

	entries, count, err := s.repo.Query(ctx, filter)
	if err != nil {
		logger.Log(ctx).Error(ctx, "query exercises failed", zap.String("user_id", user.ID), zap.Error(err))
		observability.RecordLogQuery(observability.OutcomeError)
		return types.ExerciseLog{}, wrapError(ErrPersistence, msgQueryFail, err)
	}
	if count == 0 {
		observability.RecordLogQuery(observability.OutcomeNoMatch)
		return types.ExerciseLog{}, newError(ErrNoMatch, msgNoMatch)
	}

	observability.RecordLogQuery(observability.OutcomeOK)
	return types.ExerciseLog{
		User:    user,
		Count:   count,
		Entries: entries,
	}, nil
}

func (s *ExerciseService) publish(ctx context.Context, exercise types.Exercise) {
	if s.publisher == nil {
		return
	}

	payload, err := json.Marshal(types.ExerciseLoggedEvent{
		ExerciseID:  exercise.ID,
		UserID:      exercise.UserID,
		Username:    exercise.Username,
		Description: exercise.Description,
		Duration:    exercise.Duration,
		Date:        exercise.Date.ISO(),
		OccurredAt:  s.now().UTC(),
	})
	if err != nil {
		observability.RecordPublishFailure()
		logger.Log(ctx).Error(ctx, "encode exercise event failed", zap.Error(err))
		return
	}

	attrs := map[string]string{
		"event_type": "exercise.logged",
		"user_id":    exercise.UserID,
	}
	if _, err := s.publisher.Publish(ctx, s.channel, payload, attrs); err != nil {
		observability.RecordPublishFailure()
		logger.Log(ctx).Warn(ctx, "publish exercise event failed",
			zap.String("exercise_id", exercise.ID), zap.String("channel", s.channel), zap.Error(err))
	}
}

func parseDuration(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, newError(ErrInvalidInput, msgInvalidDuration)
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, newError(ErrInvalidInput, msgInvalidDuration)
	}
	if value < 1 {
		return 0, newError(ErrInvalidInput, msgDurationTooShort)
	}
	if value != math.Trunc(value) || value > math.MaxInt32 {
		return 0, newError(ErrInvalidInput, msgDurationFraction)
	}
	return int(value), nil
}

func buildFilter(userID string, query LogQuery) (types.ExerciseFilter, error) {
	filter := types.ExerciseFilter{UserID: userID, Limit: DefaultLogLimit}

	if raw := strings.TrimSpace(query.From); raw != "" {
		from, err := types.ParseDate(raw)
		if err != nil {
			return types.ExerciseFilter{}, wrapError(ErrInvalidInput, msgInvalidFrom, err)
		}
		filter.From = &from
	}

	if raw := strings.TrimSpace(query.To); raw != "" {
		to, err := types.ParseDate(raw)
		if err != nil {
			return types.ExerciseFilter{}, wrapError(ErrInvalidInput, msgInvalidTo, err)
		}
		filter.To = &to
	}

	if raw := strings.TrimSpace(query.Limit); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return types.ExerciseFilter{}, newError(ErrInvalidInput, msgInvalidLimit)
		}
		filter.Limit = limit
	}

	return filter, nil
}
