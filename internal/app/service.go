package app

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/alexdossss/study-hub/internal/activity"
	"github.com/alexdossss/study-hub/internal/aigen"
	"github.com/alexdossss/study-hub/internal/auth"
	"github.com/alexdossss/study-hub/internal/authpw"
	"github.com/alexdossss/study-hub/internal/config"
	"github.com/alexdossss/study-hub/internal/export"
	"github.com/alexdossss/study-hub/internal/filestore"
	"github.com/alexdossss/study-hub/internal/rbac"
	"github.com/alexdossss/study-hub/internal/search"
	"github.com/alexdossss/study-hub/internal/store"
	"github.com/alexdossss/study-hub/internal/util"
)

type Session struct {
	Token     string
	UserID    string
	Username  string
	Email     string
	JTI       string
	ExpiresAt time.Time
}

// DataStore is everything the service reads and writes in Postgres.
type DataStore interface {
	Ping(ctx context.Context) error

	CreateUser(context.Context, store.User) (store.User, error)
	GetUserByID(context.Context, string) (store.User, error)
	GetUserByEmail(context.Context, string) (store.User, error)
	ListBookmarks(context.Context, string) ([]store.Note, error)
	AddBookmark(context.Context, string, string) error
	RemoveBookmark(context.Context, string, string) (bool, error)

	CreateSpace(context.Context, store.Space, string) (store.Space, error)
	GetSpace(context.Context, string) (store.Space, error)
	GetSpaceSummary(context.Context, string) (store.SpaceSummary, error)
	ListSpaces(context.Context, string) ([]store.SpaceSummary, error)
	GetMembership(context.Context, string, string) (store.Member, error)
	ListMembers(context.Context, string, string) ([]store.MemberWithUser, error)
	RequestJoin(context.Context, string, string, string) (bool, error)
	DecideJoinRequest(context.Context, string, string, bool) (store.Member, error)
	LeaveSpace(context.Context, string, string) (bool, error)
	RemoveMember(context.Context, string, string) (bool, error)

	ShareNote(context.Context, store.SharedNote, store.SharedItem) (store.SharedNote, store.SharedItem, error)
	InsertSharedItem(context.Context, store.SharedItem) (store.SharedItem, error)
	ListSharedItems(context.Context, string) ([]store.SharedItem, error)
	FindSharedItems(context.Context, string, string, string) ([]store.SharedItem, error)
	DeleteSharedItems(context.Context, string, string, string) (int, error)
	GetSharedNote(context.Context, string) (store.SharedNote, error)
	ListSharedNotes(context.Context, string) ([]store.SharedNote, error)

	InsertMessage(context.Context, store.Message) error
	GetMessage(context.Context, string) (store.Message, error)
	ListRecentMessages(context.Context, string, int) ([]store.Message, error)

	CreateNote(context.Context, store.Note) (store.Note, error)
	GetNote(context.Context, string) (store.Note, error)
	ListNotesByUser(context.Context, string) ([]store.Note, error)
	ListPublicNotes(context.Context) ([]store.Note, error)
	UpdateNote(context.Context, store.Note) (store.Note, error)
	DeleteNote(context.Context, string) error

	CreateDeck(context.Context, store.Deck) (store.Deck, error)
	GetDeck(context.Context, string) (store.Deck, error)
	ListDecks(context.Context, string, string) ([]store.Deck, error)
	UpdateDeck(context.Context, store.Deck) (store.Deck, error)
	DeleteDeck(context.Context, string) error
	InsertFlashcards(context.Context, []store.Flashcard) ([]store.Flashcard, error)
	ListFlashcards(context.Context, string) ([]store.Flashcard, error)
	GetFlashcard(context.Context, string) (store.Flashcard, error)
	UpdateFlashcard(context.Context, store.Flashcard) (store.Flashcard, error)
	DeleteFlashcard(context.Context, string) error

	CreateQuiz(context.Context, store.Quiz) (store.Quiz, error)
	GetQuiz(context.Context, string) (store.Quiz, error)
	ListQuizzes(context.Context, string) ([]store.Quiz, error)
	UpdateQuiz(context.Context, store.Quiz) (store.Quiz, error)
	DeleteQuiz(context.Context, string) error
	InsertQuizResult(context.Context, store.QuizResult) (store.QuizResult, error)
	ListQuizResults(context.Context, string) ([]store.QuizResult, error)

	CreatePomodoroSession(context.Context, store.PomodoroSession) (store.PomodoroSession, error)
	GetPomodoroSession(context.Context, string) (store.PomodoroSession, error)
	UpdatePomodoroSession(context.Context, store.PomodoroSession) (store.PomodoroSession, error)
	ListPomodoroSessions(context.Context, string) ([]store.PomodoroSession, error)

	CreateStudyEvent(context.Context, store.StudyEvent) (store.StudyEvent, error)
	GetStudyEvent(context.Context, string) (store.StudyEvent, error)
	ListStudyEvents(context.Context, string, *time.Time, *time.Time) ([]store.StudyEvent, error)
	UpdateStudyEvent(context.Context, store.StudyEvent) (store.StudyEvent, error)
	DeleteStudyEvent(context.Context, string) error
	CreateStudyTask(context.Context, store.StudyTask) (store.StudyTask, error)
	GetStudyTask(context.Context, string) (store.StudyTask, error)
	ListStudyTasks(context.Context, string, *time.Time, *time.Time) ([]store.StudyTask, error)
	UpdateStudyTask(context.Context, store.StudyTask) (store.StudyTask, error)
	DeleteStudyTask(context.Context, string) error
}

// TokenRevoker records logged-out access tokens until they expire.
type TokenRevoker interface {
	RevokeAccessToken(ctx context.Context, jti string, exp time.Time) error
	IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error)
}

type Emitter interface {
	Emit(ctx context.Context, room, event string, data any)
}

type NoteIndex interface {
	Search(ctx context.Context, q search.Query) search.Response
	IndexNote(n search.NoteRecord)
	DeleteNote(id string)
	IndexSharedNote(n search.SharedNoteRecord)
	DeleteSharedNote(id string)
}

type FileStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, filestore.ObjectInfo, error)
	Delete(ctx context.Context, key string) error
}

type Mailer interface {
	IsConfigured() bool
	SendJoinRequest(to, adminName, requesterName, spaceID, spaceTitle string) error
	SendJoinDecision(to, userName, spaceID, spaceTitle string, approved bool) error
}

type Exporter interface {
	Export(ctx context.Context, sheet export.Sheet, format export.Format) (*export.Result, error)
}

type Generator interface {
	Flashcards(ctx context.Context, source string) (aigen.FlashcardResult, error)
	Quiz(ctx context.Context, contextText string, n int) (aigen.QuizResult, error)
}

// Dependencies are the collaborators handed to New. Only Store is
// required; every other field degrades to a disabled feature when nil.
type Dependencies struct {
	Store     DataStore
	Revoker   TokenRevoker
	Realtime  Emitter
	Search    NoteIndex
	Files     FileStore
	Mail      Mailer
	Exporter  Exporter
	Generator Generator
	Activity  activity.Publisher
	Logger    zerolog.Logger

	// PasswordCost overrides the bcrypt cost when positive.
	PasswordCost int
}

type Service struct {
	cfg       config.Config
	store     DataStore
	revoker   TokenRevoker
	realtime  Emitter
	search    NoteIndex
	files     FileStore
	mail      Mailer
	exporter  Exporter
	generator Generator
	activity  activity.Publisher
	passwords *authpw.Service
	log       zerolog.Logger

	now   func() time.Time
	async func(fn func())
}

func New(cfg config.Config, deps Dependencies) *Service {
	passwords := authpw.NewService(deps.Store)
	if deps.PasswordCost > 0 {
		passwords.WithCost(deps.PasswordCost)
	}
	publisher := deps.Activity
	if publisher == nil {
		publisher = activity.Nop{}
	}
	return &Service{
		cfg:       cfg,
		store:     deps.Store,
		revoker:   deps.Revoker,
		realtime:  deps.Realtime,
		search:    deps.Search,
		files:     deps.Files,
		mail:      deps.Mail,
		exporter:  deps.Exporter,
		generator: deps.Generator,
		activity:  publisher,
		passwords: passwords,
		log:       deps.Logger.With().Str("component", "service").Logger(),
		now:       time.Now,
		async:     func(fn func()) { go fn() },
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) issueSession(user store.User) (Session, error) {
	expiresAt := s.now().Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		Sub:      user.ID,
		Username: user.Username,
		JTI:      jti,
		Exp:      expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:     token,
		UserID:    user.ID,
		Username:  user.Username,
		Email:     user.Email,
		JTI:       jti,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	if s.revoker != nil {
		revoked, err := s.revoker.IsAccessTokenRevoked(ctx, claims.JTI)
		if err != nil {
			return Session{}, err
		}
		if revoked {
			return Session{}, auth.ErrInvalidToken
		}
	}

	user, err := s.store.GetUserByID(ctx, claims.Sub)
	if err != nil {
		if store.IsNotFound(err) {
			return Session{}, auth.ErrInvalidToken
		}
		return Session{}, err
	}

	return Session{
		Token:     token,
		UserID:    user.ID,
		Username:  user.Username,
		Email:     user.Email,
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

// AuthenticateSocket runs the socket handshake through the same checks as
// HTTP bearer auth.
func (s *Service) AuthenticateSocket(ctx context.Context, token string) (string, error) {
	session, err := s.SessionFromToken(ctx, token)
	if err != nil {
		return "", err
	}
	return session.UserID, nil
}

func (s *Service) CanJoinSpaceRoom(ctx context.Context, userID, spaceID string) (bool, error) {
	space, role, err := s.spaceAccess(ctx, spaceID, userID)
	if err != nil {
		var domainErr *DomainError
		if errors.As(err, &domainErr) {
			return false, nil
		}
		return false, err
	}
	return rbac.CanRead(role, space.IsPublic), nil
}

// spaceAccess loads the space and the caller's effective role in it.
// The space admin is always RoleAdmin, even without a membership row.
func (s *Service) spaceAccess(ctx context.Context, spaceID, userID string) (store.Space, rbac.Role, error) {
	space, err := s.store.GetSpace(ctx, spaceID)
	if err != nil {
		if store.IsNotFound(err) {
			return store.Space{}, rbac.RoleOutsider, notFound("Space not found")
		}
		return store.Space{}, rbac.RoleOutsider, err
	}
	if userID == "" {
		return space, rbac.RoleOutsider, nil
	}
	if space.AdminUserID == userID {
		return space, rbac.RoleAdmin, nil
	}

	member, err := s.store.GetMembership(ctx, spaceID, userID)
	if err != nil {
		if store.IsNotFound(err) {
			return space, rbac.RoleOutsider, nil
		}
		return store.Space{}, rbac.RoleOutsider, err
	}
	if member.Status != store.MemberStatusApproved {
		return space, rbac.RoleOutsider, nil
	}
	return space, rbac.Normalize(member.Role), nil
}

// readableSpace returns the space when the caller may read its contents.
func (s *Service) readableSpace(ctx context.Context, spaceID, userID string) (store.Space, rbac.Role, error) {
	space, role, err := s.spaceAccess(ctx, spaceID, userID)
	if err != nil {
		return store.Space{}, role, err
	}
	if !rbac.CanRead(role, space.IsPublic) {
		return store.Space{}, role, forbidden("Only members can view this space")
	}
	return space, role, nil
}

func (s *Service) emit(ctx context.Context, room, event string, data any) {
	if s.realtime == nil {
		return
	}
	s.realtime.Emit(ctx, room, event, data)
}

// publish sends an activity event in the background.
func (s *Service) publish(event activity.Event) {
	s.async(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.activity.Publish(ctx, event); err != nil {
			s.log.Warn().Err(err).Str("event_type", event.EventType).Str("space_id", event.SpaceID).Msg("publish activity failed")
		}
	})
}

// notify sends mail in the background when SMTP is configured.
func (s *Service) notify(op string, send func(Mailer) error) {
	if s.mail == nil || !s.mail.IsConfigured() {
		return
	}
	mailer := s.mail
	s.async(func() {
		if err := send(mailer); err != nil {
			s.log.Warn().Err(err).Str("op", op).Msg("send email failed")
		}
	})
}
