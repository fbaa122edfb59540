package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fitlog/apiserver/internal/logger"
	"github.com/fitlog/apiserver/internal/mq"
)

func TestLogEvent(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := logger.NewContext(context.Background(), logger.FromZap(zap.New(core)))

	err := logEvent(ctx, mq.Message{
		ID:   "m1",
		Data: []byte(`{"exercise_id":"e1","username":"alice","description":"run","duration":30,"date":"2024-01-05"}`),
	})
	assert.NoError(t, err)

	entries := logs.FilterMessage("exercise logged").All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "alice", entries[0].ContextMap()["username"])
		assert.EqualValues(t, 30, entries[0].ContextMap()["duration"])
	}

	assert.Error(t, logEvent(ctx, mq.Message{ID: "m2", Data: []byte("not json")}))
}
