package notification

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	n := NewLogNotifier(zap.New(core))

	require.NoError(t, n.Notify(context.Background(), "Order o-1 deleted", "{}", map[string]string{"orderId": "o-1"}))

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "Order o-1 deleted", logs.All()[0].ContextMap()["subject"])
}
