package batch

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeProber struct {
	up     bool
	probes int
}

func (f *fakeProber) Probe(ctx context.Context) bool {
	f.probes++
	return f.up
}

func TestStoreProbeJobRun(t *testing.T) {
	t.Run("StoreUp", func(t *testing.T) {
		prober := &fakeProber{up: true}
		job := NewStoreProbeJob(prober, testLogger)

		err := job.Run(context.Background())

		assert.NoError(t, err)
		assert.Equal(t, 1, prober.probes)
	})

	t.Run("StoreDown", func(t *testing.T) {
		prober := &fakeProber{up: false}
		job := NewStoreProbeJob(prober, testLogger)

		err := job.Run(context.Background())

		assert.Error(t, err)
		assert.Equal(t, 1, prober.probes)
	})
}

func TestNewStoreProbeJob_NilDependencies(t *testing.T) {
	assert.Panics(t, func() { NewStoreProbeJob(nil, testLogger) })
	assert.Panics(t, func() { NewStoreProbeJob(&fakeProber{}, nil) })
}
