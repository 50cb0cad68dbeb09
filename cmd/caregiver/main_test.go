package main

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// syncBuffer is a WriteSyncer that counts Sync calls.
type syncBuffer struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	synced int
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.synced++
	return nil
}

func (s *syncBuffer) syncs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.synced
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

// useBufferedLogger routes the command logger through a buffer that only
// reaches out when the logger is synced.
func useBufferedLogger(t *testing.T) *syncBuffer {
	t.Helper()
	t.Setenv("CAREGIVER_CONFIG", "")
	t.Setenv("NIGHTSCOUT_URL", "https://ns.example.org")
	t.Setenv("LOG_LEVEL", "")

	out := &syncBuffer{}
	buffered := &zapcore.BufferedWriteSyncer{WS: out, Size: 64 * 1024}
	t.Cleanup(func() { _ = buffered.Stop() })

	orig := newLogger
	newLogger = func(level string) (*zap.Logger, error) {
		core := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), buffered, zapcore.DebugLevel)
		return zap.New(core), nil
	}
	t.Cleanup(func() { newLogger = orig })
	return out
}

func TestRunFlushesLogOnCommandError(t *testing.T) {
	out := useBufferedLogger(t)

	code := run([]string{"caregiver", "bolus", "0", "012345"})

	assert.Equal(t, 1, code)
	require.Positive(t, out.syncs())
	assert.Contains(t, out.String(), "Command failed")
	assert.Contains(t, out.String(), "bolus units must be positive")
}

func TestRunFlushesLogOnUsageError(t *testing.T) {
	out := useBufferedLogger(t)

	code := run([]string{"caregiver", "carbs", "20"})

	assert.Equal(t, 1, code)
	assert.Positive(t, out.syncs())
}

func TestRunWithoutSubcommand(t *testing.T) {
	assert.Equal(t, 0, run([]string{"caregiver"}))
}

func TestRunUnknownSubcommand(t *testing.T) {
	useBufferedLogger(t)
	assert.Equal(t, 0, run([]string{"caregiver", "help"}))
}
