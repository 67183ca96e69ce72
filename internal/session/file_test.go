package session

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/Proton-105/himera-continuity/internal/continuity"
)

func newTestSource(t *testing.T) *FileSource {
	t.Helper()
	return NewFileSource(filepath.Join(t.TempDir(), "data", "bot.session"), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestFileSource_ReadMissing(t *testing.T) {
	src := newTestSource(t)

	_, err := src.ReadSession(context.Background())
	assert.ErrorIs(t, err, continuity.ErrNoSession)
}

func TestFileSource_WriteIfAbsent(t *testing.T) {
	ctx := context.Background()
	src := newTestSource(t)

	written, err := src.WriteIfAbsent(ctx, []byte{0x00, 0x01})
	require.NoError(t, err)
	assert.True(t, written)

	written, err = src.WriteIfAbsent(ctx, []byte("newer"))
	require.NoError(t, err)
	assert.False(t, written)

	data, err := src.ReadSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x01}, data)

	info, err := os.Stat(src.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(src.Path()), "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestFileSource_LockIsExclusive(t *testing.T) {
	src := newTestSource(t)

	unlock, err := src.Lock(context.Background())
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		second, err := src.Lock(context.Background())
		if err == nil {
			second()
		}
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while the first was held")
	case <-time.After(100 * time.Millisecond):
	}

	unlock()
	unlock()

	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("second lock was never acquired")
	}
}

func TestFileSource_LockHonorsContextAcrossProcesses(t *testing.T) {
	src := newTestSource(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(src.Path()), 0o700))

	// Simulate another process holding the flock on a separate descriptor.
	fd, err := unix.Open(src.Path()+".lock", unix.O_RDWR|unix.O_CREAT, 0o600)
	require.NoError(t, err)
	defer unix.Close(fd)
	require.NoError(t, unix.Flock(fd, unix.LOCK_EX))

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()

	_, err = src.Lock(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, unix.Flock(fd, unix.LOCK_UN))

	unlock, err := src.Lock(context.Background())
	require.NoError(t, err)
	unlock()
}
