package server

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitlog/apiserver/config"
	"github.com/fitlog/apiserver/internal/logger"
)

func TestWriteTimeoutOutlastsRequestTimeout(t *testing.T) {
	srv, err := New(context.Background(), config.Config{StoreDriver: config.StoreDriverMemory}, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown() })

	assert.Greater(t, srv.httpServer.WriteTimeout, requestTimeout)
	assert.GreaterOrEqual(t, srv.httpServer.IdleTimeout, requestTimeout)
}
