package cmdlog

import (
	"bytes"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"botcheck/internal/metrics"
)

func TestRunCountsAndLogs(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)
	runs := testutil.ToFloat64(metrics.CommandRuns.WithLabelValues("schema"))
	fails := testutil.ToFloat64(metrics.CommandErrors.WithLabelValues("schema"))

	assert.NoError(t, Run(log, "schema", func() error { return nil }))
	err := Run(log, "schema", func() error { return errors.New("boom") })
	assert.EqualError(t, err, "boom")

	assert.Equal(t, runs+2, testutil.ToFloat64(metrics.CommandRuns.WithLabelValues("schema")))
	assert.Equal(t, fails+1, testutil.ToFloat64(metrics.CommandErrors.WithLabelValues("schema")))
	assert.Contains(t, buf.String(), "schema_ok")
	assert.Contains(t, buf.String(), "schema_error")
}
