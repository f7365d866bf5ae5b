package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	for _, env := range []string{"production", "development"} {
		t.Run(env, func(t *testing.T) {
			logger, err := New(env)
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestNew_ProductionDisablesDebug(t *testing.T) {
	logger, err := New("production")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))

	dev, err := New("development")
	require.NoError(t, err)
	assert.True(t, dev.Core().Enabled(zap.DebugLevel))
}
