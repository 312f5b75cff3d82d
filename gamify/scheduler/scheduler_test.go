package scheduler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartAcceptsLongSweepIntervals(t *testing.T) {
	// Sweep intervals come from config as durations, including ones of
	// an hour or more, and are passed through @every verbatim.
	for _, interval := range []time.Duration{30 * time.Minute, 60 * time.Minute, 90 * time.Minute, 6 * time.Hour} {
		s := New(nil, nil, nil)
		spec := fmt.Sprintf("@every %s", interval)
		require.NoError(t, s.Start(context.Background(), spec), spec)
		s.Stop()
	}
}

func TestStartRejectsMalformedSpec(t *testing.T) {
	s := New(nil, nil, nil)
	assert.Error(t, s.Start(context.Background(), "*/90 * * * *"))
}
