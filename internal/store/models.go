package store

import "time"

type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Birthday     *time.Time
	Bio          string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Space struct {
	ID          string
	Title       string
	Description string
	IsPublic    bool
	AdminUserID string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SpaceSummary is a space row joined with its admin and approved member count.
type SpaceSummary struct {
	Space
	AdminUsername string
	MemberCount   int
}

const (
	MemberRoleAdmin  = "admin"
	MemberRoleMember = "member"

	MemberStatusRequested = "requested"
	MemberStatusApproved  = "approved"
	MemberStatusRejected  = "rejected"
	MemberStatusLeft      = "left"
)

// Member is the single membership row for a (space, user) pair.
type Member struct {
	ID          string
	SpaceID     string
	UserID      string
	Role        string
	Status      string
	RequestedAt time.Time
	ApprovedAt  *time.Time
	RejectedAt  *time.Time
	LeftAt      *time.Time
	UpdatedAt   time.Time
}

type MemberWithUser struct {
	Member
	Username string
	Email    string
}

const (
	SharedKindNote      = "note"
	SharedKindFlashcard = "flashcard"
	SharedKindQuiz      = "quiz"
)

// SharedItem points at content shared into a space. RefID is not
// guaranteed to resolve: the target may have been deleted since.
type SharedItem struct {
	ID       string
	SpaceID  string
	Kind     string
	RefID    string
	SharedBy string
	SharedAt time.Time
	Meta     map[string]any
}

// SharedNote is a snapshot copied into a space at share time.
type SharedNote struct {
	ID        string
	SpaceID   string
	NoteRef   *string
	SharedBy  string
	Title     string
	Content   string
	Meta      map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Message struct {
	ID        string
	SpaceID   string
	UserID    string
	Username  string
	Text      string
	Meta      map[string]any
	Edited    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

const (
	NoteTypeFile       = "file"
	NoteTypeGoogleDocs = "google_docs"
)

type Note struct {
	ID            string
	UserID        string
	OwnerUsername string
	Title         string
	Description   string
	Type          string
	FileKey       string
	FileName      string
	DocsURL       string
	IsPublic      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Deck struct {
	ID         string
	UserID     string
	Title      string
	Subject    string
	IsPublic   bool
	CardsCount int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Flashcard struct {
	ID              string
	DeckID          string
	Question        string
	Answer          string
	RememberedCount int
	ForgottenCount  int
	LastReviewed    *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type QuizQuestion struct {
	QuestionText  string   `json:"questionText"`
	Choices       []string `json:"choices"`
	CorrectAnswer string   `json:"correctAnswer"`
}

type Quiz struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Questions   []QuizQuestion
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type QuizAnswer struct {
	QuestionText   string `json:"questionText"`
	SelectedAnswer string `json:"selectedAnswer"`
	CorrectAnswer  string `json:"correctAnswer"`
}

type QuizResult struct {
	ID      string
	UserID  string
	QuizID  string
	Title   string
	Score   int
	Total   int
	Answers []QuizAnswer
	TakenAt time.Time
}

const (
	PomodoroRunning   = "running"
	PomodoroPaused    = "paused"
	PomodoroOnBreak   = "onBreak"
	PomodoroCompleted = "completed"
)

type PomodoroSession struct {
	ID           string
	UserID       string
	Duration     int
	BreakLength  int
	Status       string
	StartTime    time.Time
	EndTime      *time.Time
	FocusSeconds int
	BreakSeconds int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type StudyEvent struct {
	ID          string
	UserID      string
	Title       string
	Description string
	StartDate   time.Time
	EndDate     time.Time
	IsCompleted bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type StudyTask struct {
	ID          string
	UserID      string
	Title       string
	Description string
	DueDate     time.Time
	IsCompleted bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
