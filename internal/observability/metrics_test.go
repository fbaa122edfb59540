package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordExerciseLogged(t *testing.T) {
	beforeCount := testutil.ToFloat64(exercisesLogged)
	beforeMinutes := testutil.ToFloat64(exerciseMinutes)

	RecordExerciseLogged(30)
	RecordExerciseLogged(0)

	assert.Equal(t, beforeCount+2, testutil.ToFloat64(exercisesLogged))
	assert.Equal(t, beforeMinutes+30, testutil.ToFloat64(exerciseMinutes))
}

func TestRecordLogQueryByOutcome(t *testing.T) {
	before := testutil.ToFloat64(logQueries.WithLabelValues(OutcomeNoMatch))
	RecordLogQuery(OutcomeNoMatch)
	assert.Equal(t, before+1, testutil.ToFloat64(logQueries.WithLabelValues(OutcomeNoMatch)))
}

func TestObserveHTTPRequestLabelsUnmatchedRoutes(t *testing.T) {
	ObserveHTTPRequest("GET", "", 404, 5*time.Millisecond)
	assert.GreaterOrEqual(t, testutil.CollectAndCount(httpDuration), 1)
}
