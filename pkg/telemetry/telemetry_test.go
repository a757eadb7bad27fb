package telemetry

import (
	"context"
	"testing"

	"github.com/angelmondragon/tms-backend/pkg/config"
	"github.com/angelmondragon/tms-backend/pkg/logger"
	"github.com/stretchr/testify/require"
)

func TestSetupDisabledIsNoop(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.TelemetryConfig{Enabled: false}, "api", "test", logger.Nop())
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	shutdown(context.Background())
}
