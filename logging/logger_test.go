package logging_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/t3rntools/bridge-cycler/logging"
)

func TestMaskAddress(t *testing.T) {
	t.Parallel()

	require.Equal(t, "0x7301...0AA6", logging.MaskAddress("0x7301CFA0e1756B71869E93d4e4Dca5c7d0eb0AA6"))
	require.Equal(t, "0x1234", logging.MaskAddress("0x1234"))
	require.Equal(t, "", logging.MaskAddress(""))
}

func TestLoggerFromContext(t *testing.T) {
	t.Parallel()

	logger := logging.New()
	ctx := logging.WithLogger(context.Background(), logger)
	require.Equal(t, logger, logging.LoggerFromContext(ctx))
	require.NotNil(t, logging.LoggerFromContext(context.Background()))
}
