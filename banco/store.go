package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

var (
	// ErrLockUnavailable means the exclusive store lock could not be acquired
	// within the configured timeout. The previously persisted log is intact.
	ErrLockUnavailable = errors.New("store lock unavailable")
	// ErrPersistFailed means the durable write did not complete. The
	// previously persisted log is intact.
	ErrPersistFailed = errors.New("store persist failed")
)

// OrderStore is the append-only order log. Load never fails: a missing or
// unreadable log reads as empty. Append is atomic; concurrent appends
// serialize through an exclusive lock for the whole read-modify-write cycle.
type OrderStore interface {
	Load(ctx context.Context) []Order
	Append(ctx context.Context, order Order) error
}

// FileStore persists the log as a single pretty-printed JSON array, guarded
// by an advisory file lock plus an in-process semaphore.
type FileStore struct {
	path        string
	lockTimeout time.Duration
	sem         chan struct{}
}

var _ OrderStore = (*FileStore)(nil)

func NewFileStore(path string, lockTimeout time.Duration) *FileStore {
	return &FileStore{
		path:        path,
		lockTimeout: lockTimeout,
		sem:         make(chan struct{}, 1),
	}
}

// Load returns the current log. A missing file is created empty first; a
// corrupt one reads as empty rather than failing the caller.
func (s *FileStore) Load(ctx context.Context) []Order {
	ctx, span := tracer.Start(ctx, "FileStore.Load")
	defer span.End()

	if err := s.ensure(); err != nil {
		slog.ErrorContext(ctx, "failed to initialize order log", slog.Any("err", err), slog.String("path", s.path))
		return nil
	}
	return s.read(ctx)
}

// Append serializes through the lock, re-reads the log, appends the order and
// replaces the file atomically. No partial content ever hits the log path.
func (s *FileStore) Append(ctx context.Context, order Order) error {
	ctx, span := tracer.Start(ctx, "FileStore.Append")
	defer span.End()

	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	select {
	case s.sem <- struct{}{}:
	case <-lockCtx.Done():
		return fmt.Errorf("%w: in-process writer busy", ErrLockUnavailable)
	}
	defer func() { <-s.sem }()

	if err := s.ensure(); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}

	fileLock := flock.New(s.path + ".lock")
	locked, err := fileLock.TryLockContext(lockCtx, 50*time.Millisecond)
	if err != nil || !locked {
		return fmt.Errorf("%w: file lock not acquired", ErrLockUnavailable)
	}
	defer func() {
		if err := fileLock.Unlock(); err != nil {
			slog.ErrorContext(ctx, "failed to release file lock", slog.Any("err", err))
		}
	}()

	orders := s.read(ctx)
	orders = append(orders, order)
	return s.replace(orders)
}

// Check reports whether the log file is usable; wired into the health check.
func (s *FileStore) Check(ctx context.Context) error {
	return s.ensure()
}

func (s *FileStore) ensure() error {
	if _, err := os.Stat(s.path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()
	_, err = f.WriteString("[]\n")
	return err
}

func (s *FileStore) read(ctx context.Context) []Order {
	data, err := os.ReadFile(s.path)
	if err != nil {
		slog.ErrorContext(ctx, "failed to read order log", slog.Any("err", err), slog.String("path", s.path))
		return nil
	}

	var orders []Order
	if err := json.Unmarshal(data, &orders); err != nil {
		// A corrupt log reads as empty on purpose; the next successful
		// append rewrites it whole.
		slog.WarnContext(ctx, "order log is not a valid JSON array, treating as empty", slog.String("path", s.path))
		return nil
	}
	return orders
}

// replace writes the full log to a temp file in the same directory and
// renames it over the old one, so readers never observe a torn file.
func (s *FileStore) replace(orders []Order) error {
	data, err := json.MarshalIndent(orders, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "orders-*.json")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}

	_, werr := tmp.Write(data)
	serr := tmp.Sync()
	cerr := tmp.Close()
	if err := errors.Join(werr, serr, cerr); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}
	return nil
}
