package continuity

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/Proton-105/himera-continuity/internal/docstore"
)

var errCollaborator = errors.New("collaborator unreachable")

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockSink struct {
	mock.Mock
}

func (m *mockSink) Post(ctx context.Context, text string) (*MessageRef, error) {
	args := m.Called(ctx, text)
	ref, _ := args.Get(0).(*MessageRef)
	return ref, args.Error(1)
}

func (m *mockSink) Reply(ctx context.Context, text string, to MessageRef) (*MessageRef, error) {
	args := m.Called(ctx, text, to)
	ref, _ := args.Get(0).(*MessageRef)
	return ref, args.Error(1)
}

func (m *mockSink) Delete(ctx context.Context, ref MessageRef) (Outcome, error) {
	args := m.Called(ctx, ref)
	outcome, _ := args.Get(0).(Outcome)
	return outcome, args.Error(1)
}

type mockMetrics struct {
	mock.Mock
}

func (m *mockMetrics) Record(name string, value int64) {
	m.Called(name, value)
}

type fakeSession struct {
	data    []byte
	readErr error
	lockErr error

	locks   int
	unlocks int
}

func (f *fakeSession) Lock(context.Context) (func(), error) {
	if f.lockErr != nil {
		return nil, f.lockErr
	}
	f.locks++
	return func() { f.unlocks++ }, nil
}

func (f *fakeSession) ReadSession(context.Context) ([]byte, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	if f.data == nil {
		return nil, ErrNoSession
	}
	return f.data, nil
}

type fakePosition struct {
	pos   Position
	err   error
	calls int
}

func (f *fakePosition) Position(context.Context) (Position, error) {
	f.calls++
	return f.pos, f.err
}

// recordingStore wraps a MemoryStore, logs every write and can fail selected operations.
type recordingStore struct {
	*docstore.MemoryStore

	mu        sync.Mutex
	events    *[]string
	failFind  error
	failWrite map[string]error
	failDel   error
}

func newRecordingStore(events *[]string) *recordingStore {
	return &recordingStore{MemoryStore: docstore.NewMemoryStore(), events: events, failWrite: map[string]error{}}
}

func (s *recordingStore) record(event string) {
	if s.events == nil {
		return
	}
	s.mu.Lock()
	*s.events = append(*s.events, event)
	s.mu.Unlock()
}

func (s *recordingStore) FindOne(ctx context.Context, id string) (docstore.Document, error) {
	if s.failFind != nil {
		return nil, s.failFind
	}
	return s.MemoryStore.FindOne(ctx, id)
}

func (s *recordingStore) UpsertOne(ctx context.Context, id string, doc docstore.Document) error {
	s.record("upsert:" + id)
	if err := s.failWrite[id]; err != nil {
		return err
	}
	return s.MemoryStore.UpsertOne(ctx, id, doc)
}

func (s *recordingStore) DeleteOne(ctx context.Context, id string) error {
	s.record("delete:" + id)
	if s.failDel != nil {
		return s.failDel
	}
	return s.MemoryStore.DeleteOne(ctx, id)
}

type capturingReporter struct {
	errs []error
}

func (r *capturingReporter) Handle(_ context.Context, err error) (string, bool) {
	r.errs = append(r.errs, err)
	return "", false
}
