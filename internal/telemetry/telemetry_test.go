package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDisabledIsInert(t *testing.T) {
	p, err := Init(false, "test")
	require.NoError(t, err)

	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestTracerStartsSpans(t *testing.T) {
	tracer := Tracer()
	require.NotNil(t, tracer)

	ctx, span := tracer.Start(context.Background(), "test.operation")
	assert.NotNil(t, ctx)
	span.End()
}
