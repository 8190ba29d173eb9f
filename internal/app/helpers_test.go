package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/alexdossss/study-hub/internal/activity"
	"github.com/alexdossss/study-hub/internal/aigen"
	"github.com/alexdossss/study-hub/internal/config"
	"github.com/alexdossss/study-hub/internal/search"
)

type emitted struct {
	Room  string
	Event string
	Data  any
}

type recordingEmitter struct {
	mu     sync.Mutex
	frames []emitted
}

func (r *recordingEmitter) Emit(_ context.Context, room, event string, data any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, emitted{Room: room, Event: event, Data: data})
}

func (r *recordingEmitter) find(event string) (emitted, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, frame := range r.frames {
		if frame.Event == event {
			return frame, true
		}
	}
	return emitted{}, false
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []activity.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event activity.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, event := range p.events {
		out = append(out, event.EventType)
	}
	return out
}

type fakeGenerator struct {
	flashcardsFn func(context.Context, string) (aigen.FlashcardResult, error)
	quizFn       func(context.Context, string, int) (aigen.QuizResult, error)
}

func (f *fakeGenerator) Flashcards(ctx context.Context, source string) (aigen.FlashcardResult, error) {
	if f.flashcardsFn == nil {
		return aigen.FlashcardResult{}, errors.New("flashcards not stubbed")
	}
	return f.flashcardsFn(ctx, source)
}

func (f *fakeGenerator) Quiz(ctx context.Context, contextText string, n int) (aigen.QuizResult, error) {
	if f.quizFn == nil {
		return aigen.QuizResult{}, errors.New("quiz not stubbed")
	}
	return f.quizFn(ctx, contextText, n)
}

// fakeIndex records indexing calls and answers searches from hits.
type fakeIndex struct {
	mu            sync.Mutex
	hits          []search.Result
	lastQuery     search.Query
	indexedShared []string
	deletedShared []string
	indexedNotes  []string
	deletedNotes  []string
}

func (f *fakeIndex) Search(_ context.Context, q search.Query) search.Response {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = q
	return search.Response{Results: f.hits, Total: len(f.hits), Query: q.Text}
}

func (f *fakeIndex) IndexNote(n search.NoteRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexedNotes = append(f.indexedNotes, n.ID)
}

func (f *fakeIndex) DeleteNote(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedNotes = append(f.deletedNotes, id)
}

func (f *fakeIndex) IndexSharedNote(n search.SharedNoteRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexedShared = append(f.indexedShared, n.ID)
}

func (f *fakeIndex) DeleteSharedNote(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedShared = append(f.deletedShared, id)
}

type testEnv struct {
	svc       *Service
	store     *memStore
	emitter   *recordingEmitter
	publisher *recordingPublisher
	index     *fakeIndex
	generator *fakeGenerator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		store:     newMemStore(),
		emitter:   &recordingEmitter{},
		publisher: &recordingPublisher{},
		index:     &fakeIndex{},
		generator: &fakeGenerator{},
	}
	env.svc = New(config.Config{JWTSecret: "test-secret", AccessTTL: time.Hour}, Dependencies{
		Store:        env.store,
		Realtime:     env.emitter,
		Search:       env.index,
		Generator:    env.generator,
		Activity:     env.publisher,
		Logger:       zerolog.Nop(),
		PasswordCost: bcrypt.MinCost,
	})
	env.svc.async = func(fn func()) { fn() }
	return env
}

// register creates an account and returns its session.
func (e *testEnv) register(t *testing.T, username string) Session {
	t.Helper()
	payload, err := e.svc.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
		Birthday: "2000-01-02",
	})
	require.NoError(t, err)
	token, _ := payload["token"].(string)
	require.NotEmpty(t, token)

	session, err := e.svc.SessionFromToken(context.Background(), token)
	require.NoError(t, err)
	return session
}

func (e *testEnv) createSpace(t *testing.T, admin Session, public bool) string {
	t.Helper()
	payload, err := e.svc.CreateSpace(context.Background(), admin, CreateSpaceInput{Title: "Biology", IsPublic: &public})
	require.NoError(t, err)
	return payload["space"].(map[string]any)["id"].(string)
}

// join takes user through request and approval.
func (e *testEnv) join(t *testing.T, admin, user Session, spaceID string) {
	t.Helper()
	ctx := context.Background()
	_, err := e.svc.RequestJoin(ctx, user, spaceID)
	require.NoError(t, err)
	_, err = e.svc.HandleJoinRequest(ctx, admin, spaceID, user.UserID, "approve")
	require.NoError(t, err)
}

func requireDomainError(t *testing.T, err error, status int, message string) {
	t.Helper()
	require.Error(t, err)
	var domainErr *DomainError
	require.True(t, errors.As(err, &domainErr), "expected DomainError, got %T: %v", err, err)
	require.Equal(t, status, domainErr.Status)
	if message != "" {
		require.Equal(t, message, domainErr.Message)
	}
}
