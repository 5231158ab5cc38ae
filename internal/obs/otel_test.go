package obs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitTracer_DisabledWithoutEndpoint(t *testing.T) {
	t.Parallel()

	shutdown, err := InitTracer(context.Background(), "auction-marketplace", "", "test")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
