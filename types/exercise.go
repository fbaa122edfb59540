package types

import "time"

// Exercise is a single logged exercise entry.
// Entries are immutable once created.
type Exercise struct {
	// ID is the opaque identifier assigned by the store on creation.
	ID string `json:"id" db:"id"`

	// UserID references the owning user. It is a weak reference: the
	// user is validated at creation time only.
	UserID string `json:"userId" db:"user_id"`

	// Username is a snapshot of the owner's username at creation time.
	Username string `json:"username" db:"username"`

	// Description is a free-form, non-empty summary of the exercise.
	Description string `json:"description" db:"description"`

	// Duration is the length of the exercise in whole minutes (>= 1).
	Duration int `json:"duration" db:"duration"`

	// Date is the calendar day the exercise took place.
	Date Date `json:"date" db:"date"`

	// CreatedAt breaks ordering ties between entries on the same day.
	CreatedAt time.Time `json:"-" db:"created_at"`
}

// ExerciseFilter selects a user's entries by optional date bounds.
// A nil bound is not applied.
type ExerciseFilter struct {
	UserID string
	From   *Date
	To     *Date
	Limit  int
}

// Matches reports whether e satisfies the filter, ignoring Limit.
func (f ExerciseFilter) Matches(e Exercise) bool {
	if e.UserID != f.UserID {
		return false
	}
	if f.From != nil && e.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && e.Date.After(*f.To) {
		return false
	}
	return true
}

// ExerciseLog is the result of a history query.
type ExerciseLog struct {
	// User is the owner of the queried entries.
	User User

	// Count is the number of entries matching the filter, independent of the limit.
	Count int

	// Entries holds at most Limit matching entries in ascending date order.
	Entries []Exercise
}

// ExerciseLoggedEvent is published after an exercise entry is persisted.
type ExerciseLoggedEvent struct {
	ExerciseID  string    `json:"exercise_id"`
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	Description string    `json:"description"`
	Duration    int       `json:"duration"`
	Date        string    `json:"date"`
	OccurredAt  time.Time `json:"occurred_at"`
}
