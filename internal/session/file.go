// Package session manages the local transport session file.
package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/Proton-105/himera-continuity/internal/continuity"
)

const lockPollInterval = 25 * time.Millisecond

// FileSource reads and writes the session file. Exclusive access is taken with
// an in-process mutex plus flock(2) on a sibling ".lock" file, so other
// processes sharing the file are excluded too.
type FileSource struct {
	path string
	mu   sync.Mutex
	log  *slog.Logger
}

var _ continuity.SessionSource = (*FileSource)(nil)

// NewFileSource creates a FileSource for path.
func NewFileSource(path string, log *slog.Logger) *FileSource {
	if log == nil {
		log = slog.Default()
	}

	return &FileSource{path: path, log: log}
}

// Path returns the session file location.
func (s *FileSource) Path() string {
	return s.path
}

// Lock blocks until exclusive access is held or ctx is done. The returned
// function releases it and is safe to call more than once.
func (s *FileSource) Lock(ctx context.Context) (func(), error) {
	s.mu.Lock()

	fd, err := s.acquire(ctx)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			if err := unix.Flock(fd, unix.LOCK_UN); err != nil {
				s.log.Warn("failed to release session lock", slog.String("path", s.path), slog.Any("error", err))
			}
			_ = unix.Close(fd)
			s.mu.Unlock()
		})
	}, nil
}

func (s *FileSource) acquire(ctx context.Context) (int, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return -1, fmt.Errorf("create session dir: %w", err)
	}

	fd, err := unix.Open(s.path+".lock", unix.O_RDWR|unix.O_CREAT|unix.O_CLOEXEC, 0o600)
	if err != nil {
		return -1, fmt.Errorf("open session lock: %w", err)
	}

	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()

	for {
		err := unix.Flock(fd, unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			return fd, nil
		}
		if !errors.Is(err, unix.EWOULDBLOCK) && !errors.Is(err, unix.EINTR) {
			_ = unix.Close(fd)
			return -1, fmt.Errorf("flock session: %w", err)
		}

		select {
		case <-ctx.Done():
			_ = unix.Close(fd)
			return -1, fmt.Errorf("wait for session lock: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// ReadSession returns the session file contents or continuity.ErrNoSession.
// Callers are expected to hold the lock.
func (s *FileSource) ReadSession(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, continuity.ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}

	return data, nil
}

// WriteIfAbsent stores data as the session file unless one already exists.
// It reports whether the file was written.
func (s *FileSource) WriteIfAbsent(ctx context.Context, data []byte) (bool, error) {
	unlock, err := s.Lock(ctx)
	if err != nil {
		return false, err
	}
	defer unlock()

	if _, err := os.Stat(s.path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("stat session file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return false, fmt.Errorf("create session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return false, fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return false, fmt.Errorf("chmod session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return false, fmt.Errorf("close session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return false, fmt.Errorf("install session file: %w", err)
	}

	s.log.Info("session file restored", slog.String("path", s.path), slog.Int("bytes", len(data)))
	return true, nil
}
