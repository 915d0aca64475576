package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isojs/isojs"
)

func TestObserveHeap(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWith(reg)

	iso := isojs.NewIsolate()
	defer iso.Dispose()
	ctx := isojs.NewContext(iso)
	defer ctx.Close()

	m.ObserveHeap(iso.GetHeapStatistics())

	assert.Greater(t, testutil.ToFloat64(m.HeapUsed), 0.0)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ContextsNative))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ContextsDetached))

	ctx.Close()
	m.ObserveHeap(iso.GetHeapStatistics())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ContextsNative))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ContextsDetached))
}

func TestRecordRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWith(reg)

	m.RecordRun(5*time.Millisecond, nil)
	m.RecordRun(5*time.Millisecond, errors.New("plain failure"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScriptsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScriptsTotal.WithLabelValues("error")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Terminations))
}

func TestRecordRunTermination(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWith(reg)

	iso := isojs.NewIsolate()
	defer iso.Dispose()
	ctx := isojs.NewContext(iso)
	defer ctx.Close()

	errCh := make(chan error, 1)
	go func() {
		_, err := ctx.RunScript("for(;;){}", "spin.js")
		errCh <- err
	}()
	time.Sleep(50 * time.Millisecond)
	iso.TerminateExecution()
	err := <-errCh
	require.Error(t, err)
	require.True(t, isojs.IsTerminationError(err))

	m.RecordRun(time.Second, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Terminations))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScriptsTotal.WithLabelValues("terminated")))
}
