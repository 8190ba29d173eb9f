package app

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/alexdossss/study-hub/internal/store"
)

// memStore is an in-memory DataStore with the same row semantics as the
// Postgres store. Timestamps advance one second per write so ordering is
// stable.
type memStore struct {
	mu    sync.Mutex
	clock time.Time

	pingErr error

	users       map[string]store.User
	bookmarks   map[string][]string
	spaces      map[string]store.Space
	members     map[string]store.Member
	sharedItems []store.SharedItem
	sharedNotes map[string]store.SharedNote
	messages    []store.Message
	notes       map[string]store.Note
	decks       map[string]store.Deck
	cards       map[string]store.Flashcard
	quizzes     map[string]store.Quiz
	results     []store.QuizResult
	pomodoros   map[string]store.PomodoroSession
	events      map[string]store.StudyEvent
	tasks       map[string]store.StudyTask
}

func newMemStore() *memStore {
	return &memStore{
		clock:       time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC),
		users:       map[string]store.User{},
		bookmarks:   map[string][]string{},
		spaces:      map[string]store.Space{},
		members:     map[string]store.Member{},
		sharedNotes: map[string]store.SharedNote{},
		notes:       map[string]store.Note{},
		decks:       map[string]store.Deck{},
		cards:       map[string]store.Flashcard{},
		quizzes:     map[string]store.Quiz{},
		pomodoros:   map[string]store.PomodoroSession{},
		events:      map[string]store.StudyEvent{},
		tasks:       map[string]store.StudyTask{},
	}
}

func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func notFoundErr(op string) error {
	return fmt.Errorf("%s: %w", op, sql.ErrNoRows)
}

func memberKey(spaceID, userID string) string {
	return spaceID + "/" + userID
}

func (m *memStore) Ping(context.Context) error { return m.pingErr }

func (m *memStore) CreateUser(_ context.Context, user store.User) (store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user.Email = strings.ToLower(user.Email)
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return store.User{}, store.ErrDuplicateEmail
		}
		if existing.Username == user.Username {
			return store.User{}, store.ErrDuplicateUsername
		}
	}
	now := m.tick()
	user.CreatedAt, user.UpdatedAt = now, now
	m.users[user.ID] = user
	return user, nil
}

func (m *memStore) GetUserByID(_ context.Context, id string) (store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return store.User{}, notFoundErr("get user")
	}
	return user, nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return store.User{}, notFoundErr("get user by email")
}

func (m *memStore) withOwner(note store.Note) store.Note {
	note.OwnerUsername = m.users[note.UserID].Username
	return note
}

func (m *memStore) ListBookmarks(_ context.Context, userID string) ([]store.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]store.Note, 0)
	ids := m.bookmarks[userID]
	for i := len(ids) - 1; i >= 0; i-- {
		if note, ok := m.notes[ids[i]]; ok {
			items = append(items, m.withOwner(note))
		}
	}
	return items, nil
}

func (m *memStore) AddBookmark(_ context.Context, userID, noteID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.bookmarks[userID] {
		if id == noteID {
			return nil
		}
	}
	m.bookmarks[userID] = append(m.bookmarks[userID], noteID)
	return nil
}

func (m *memStore) RemoveBookmark(_ context.Context, userID, noteID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := m.bookmarks[userID]
	for i, id := range ids {
		if id == noteID {
			m.bookmarks[userID] = append(ids[:i:i], ids[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) CreateSpace(_ context.Context, space store.Space, adminMemberID string) (store.Space, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.tick()
	space.CreatedAt, space.UpdatedAt = now, now
	m.spaces[space.ID] = space
	m.members[memberKey(space.ID, space.AdminUserID)] = store.Member{
		ID:          adminMemberID,
		SpaceID:     space.ID,
		UserID:      space.AdminUserID,
		Role:        store.MemberRoleAdmin,
		Status:      store.MemberStatusApproved,
		RequestedAt: now,
		ApprovedAt:  &now,
		UpdatedAt:   now,
	}
	return space, nil
}

func (m *memStore) GetSpace(_ context.Context, id string) (store.Space, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	space, ok := m.spaces[id]
	if !ok {
		return store.Space{}, notFoundErr("get space")
	}
	return space, nil
}

func (m *memStore) summary(space store.Space) store.SpaceSummary {
	count := 0
	for _, member := range m.members {
		if member.SpaceID == space.ID && member.Status == store.MemberStatusApproved {
			count++
		}
	}
	return store.SpaceSummary{Space: space, AdminUsername: m.users[space.AdminUserID].Username, MemberCount: count}
}

func (m *memStore) GetSpaceSummary(_ context.Context, id string) (store.SpaceSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	space, ok := m.spaces[id]
	if !ok {
		return store.SpaceSummary{}, notFoundErr("get space summary")
	}
	return m.summary(space), nil
}

func (m *memStore) ListSpaces(_ context.Context, memberUserID string) ([]store.SpaceSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]store.SpaceSummary, 0)
	for _, space := range m.spaces {
		if memberUserID != "" {
			member, ok := m.members[memberKey(space.ID, memberUserID)]
			if !ok || member.Status != store.MemberStatusApproved {
				continue
			}
		}
		items = append(items, m.summary(space))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return items, nil
}

func (m *memStore) GetMembership(_ context.Context, spaceID, userID string) (store.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	member, ok := m.members[memberKey(spaceID, userID)]
	if !ok {
		return store.Member{}, notFoundErr("get membership")
	}
	return member, nil
}

func (m *memStore) ListMembers(_ context.Context, spaceID, status string) ([]store.MemberWithUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]store.MemberWithUser, 0)
	for _, member := range m.members {
		if member.SpaceID != spaceID || member.Status != status {
			continue
		}
		user, ok := m.users[member.UserID]
		if !ok {
			continue
		}
		items = append(items, store.MemberWithUser{Member: member, Username: user.Username, Email: user.Email})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].RequestedAt.Before(items[j].RequestedAt) })
	return items, nil
}

func (m *memStore) RequestJoin(_ context.Context, memberID, spaceID, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := memberKey(spaceID, userID)
	now := m.tick()
	existing, ok := m.members[key]
	if ok && existing.Status != store.MemberStatusRejected && existing.Status != store.MemberStatusLeft {
		return false, nil
	}
	if ok {
		memberID = existing.ID
	}
	m.members[key] = store.Member{
		ID:          memberID,
		SpaceID:     spaceID,
		UserID:      userID,
		Role:        store.MemberRoleMember,
		Status:      store.MemberStatusRequested,
		RequestedAt: now,
		UpdatedAt:   now,
	}
	return true, nil
}

func (m *memStore) DecideJoinRequest(_ context.Context, spaceID, memberKeyOrUser string, approve bool) (store.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, member := range m.members {
		if member.SpaceID != spaceID || member.Status != store.MemberStatusRequested {
			continue
		}
		if member.ID != memberKeyOrUser && member.UserID != memberKeyOrUser {
			continue
		}
		now := m.tick()
		if approve {
			member.Status = store.MemberStatusApproved
			member.ApprovedAt = &now
		} else {
			member.Status = store.MemberStatusRejected
			member.RejectedAt = &now
		}
		member.UpdatedAt = now
		m.members[key] = member
		return member, nil
	}
	return store.Member{}, notFoundErr("decide join request")
}

func (m *memStore) moveApproved(spaceID, userID, status string) bool {
	key := memberKey(spaceID, userID)
	member, ok := m.members[key]
	if !ok || member.Status != store.MemberStatusApproved || member.Role == store.MemberRoleAdmin {
		return false
	}
	now := m.tick()
	member.Status = status
	if status == store.MemberStatusLeft {
		member.LeftAt = &now
	} else {
		member.RejectedAt = &now
	}
	member.UpdatedAt = now
	m.members[key] = member
	return true
}

func (m *memStore) LeaveSpace(_ context.Context, spaceID, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.moveApproved(spaceID, userID, store.MemberStatusLeft), nil
}

func (m *memStore) RemoveMember(_ context.Context, spaceID, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.moveApproved(spaceID, userID, store.MemberStatusRejected), nil
}

func (m *memStore) ShareNote(_ context.Context, note store.SharedNote, item store.SharedItem) (store.SharedNote, store.SharedItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.tick()
	note.CreatedAt, note.UpdatedAt = now, now
	item.SharedAt = now
	m.sharedNotes[note.ID] = note
	m.sharedItems = append(m.sharedItems, item)
	return note, item, nil
}

func (m *memStore) InsertSharedItem(_ context.Context, item store.SharedItem) (store.SharedItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item.SharedAt = m.tick()
	m.sharedItems = append(m.sharedItems, item)
	return item, nil
}

func (m *memStore) ListSharedItems(_ context.Context, spaceID string) ([]store.SharedItem, error) {
	return m.FindSharedItems(context.Background(), spaceID, "", "")
}

func (m *memStore) FindSharedItems(_ context.Context, spaceID, kind, refID string) ([]store.SharedItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]store.SharedItem, 0)
	for _, item := range m.sharedItems {
		if item.SpaceID != spaceID {
			continue
		}
		if kind != "" && (item.Kind != kind || item.RefID != refID) {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func (m *memStore) DeleteSharedItems(_ context.Context, spaceID, kind, refID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.sharedItems[:0]
	removed := 0
	for _, item := range m.sharedItems {
		if item.SpaceID == spaceID && item.Kind == kind && item.RefID == refID {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	m.sharedItems = kept
	if kind == store.SharedKindNote {
		if note, ok := m.sharedNotes[refID]; ok && note.SpaceID == spaceID {
			delete(m.sharedNotes, refID)
		}
	}
	return removed, nil
}

func (m *memStore) GetSharedNote(_ context.Context, id string) (store.SharedNote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	note, ok := m.sharedNotes[id]
	if !ok {
		return store.SharedNote{}, notFoundErr("get shared note")
	}
	return note, nil
}

func (m *memStore) ListSharedNotes(_ context.Context, spaceID string) ([]store.SharedNote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]store.SharedNote, 0)
	for _, note := range m.sharedNotes {
		if note.SpaceID == spaceID {
			items = append(items, note)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return items, nil
}

func (m *memStore) InsertMessage(_ context.Context, message store.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.tick()
	message.CreatedAt, message.UpdatedAt = now, now
	m.messages = append(m.messages, message)
	return nil
}

func (m *memStore) GetMessage(_ context.Context, id string) (store.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, message := range m.messages {
		if message.ID == id {
			message.Username = m.users[message.UserID].Username
			return message, nil
		}
	}
	return store.Message{}, notFoundErr("get message")
}

func (m *memStore) ListRecentMessages(_ context.Context, spaceID string, limit int) ([]store.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]store.Message, 0, limit)
	for i := len(m.messages) - 1; i >= 0 && len(items) < limit; i-- {
		message := m.messages[i]
		if message.SpaceID != spaceID {
			continue
		}
		message.Username = m.users[message.UserID].Username
		items = append(items, message)
	}
	return items, nil
}

func (m *memStore) CreateNote(_ context.Context, note store.Note) (store.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.tick()
	note.CreatedAt, note.UpdatedAt = now, now
	m.notes[note.ID] = note
	return note, nil
}

func (m *memStore) GetNote(_ context.Context, id string) (store.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	note, ok := m.notes[id]
	if !ok {
		return store.Note{}, notFoundErr("get note")
	}
	return m.withOwner(note), nil
}

func (m *memStore) listNotes(keep func(store.Note) bool) []store.Note {
	items := make([]store.Note, 0)
	for _, note := range m.notes {
		if keep(note) {
			items = append(items, m.withOwner(note))
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return items
}

func (m *memStore) ListNotesByUser(_ context.Context, userID string) ([]store.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listNotes(func(n store.Note) bool { return n.UserID == userID }), nil
}

func (m *memStore) ListPublicNotes(context.Context) ([]store.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listNotes(func(n store.Note) bool { return n.IsPublic }), nil
}

func (m *memStore) UpdateNote(_ context.Context, note store.Note) (store.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.notes[note.ID]; !ok {
		return store.Note{}, notFoundErr("update note")
	}
	note.UpdatedAt = m.tick()
	m.notes[note.ID] = note
	return note, nil
}

func (m *memStore) DeleteNote(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.notes, id)
	return nil
}

func (m *memStore) withCount(deck store.Deck) store.Deck {
	deck.CardsCount = 0
	for _, card := range m.cards {
		if card.DeckID == deck.ID {
			deck.CardsCount++
		}
	}
	return deck
}

func (m *memStore) CreateDeck(_ context.Context, deck store.Deck) (store.Deck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.tick()
	deck.CreatedAt, deck.UpdatedAt = now, now
	m.decks[deck.ID] = deck
	return deck, nil
}

func (m *memStore) GetDeck(_ context.Context, id string) (store.Deck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	deck, ok := m.decks[id]
	if !ok {
		return store.Deck{}, notFoundErr("get deck")
	}
	return m.withCount(deck), nil
}

func (m *memStore) ListDecks(_ context.Context, userID, subject string) ([]store.Deck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]store.Deck, 0)
	for _, deck := range m.decks {
		switch {
		case userID != "" && deck.UserID == userID:
		case userID == "" && deck.IsPublic && (subject == "" || deck.Subject == subject):
		default:
			continue
		}
		items = append(items, m.withCount(deck))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return items, nil
}

func (m *memStore) UpdateDeck(_ context.Context, deck store.Deck) (store.Deck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	deck.UpdatedAt = m.tick()
	m.decks[deck.ID] = deck
	return m.withCount(deck), nil
}

func (m *memStore) DeleteDeck(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.decks, id)
	for cardID, card := range m.cards {
		if card.DeckID == id {
			delete(m.cards, cardID)
		}
	}
	return nil
}

func (m *memStore) InsertFlashcards(_ context.Context, cards []store.Flashcard) ([]store.Flashcard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]store.Flashcard, 0, len(cards))
	for _, card := range cards {
		now := m.tick()
		card.CreatedAt, card.UpdatedAt = now, now
		m.cards[card.ID] = card
		out = append(out, card)
	}
	return out, nil
}

func (m *memStore) ListFlashcards(_ context.Context, deckID string) ([]store.Flashcard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]store.Flashcard, 0)
	for _, card := range m.cards {
		if card.DeckID == deckID {
			items = append(items, card)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	return items, nil
}

func (m *memStore) GetFlashcard(_ context.Context, id string) (store.Flashcard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	card, ok := m.cards[id]
	if !ok {
		return store.Flashcard{}, notFoundErr("get flashcard")
	}
	return card, nil
}

func (m *memStore) UpdateFlashcard(_ context.Context, card store.Flashcard) (store.Flashcard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	card.UpdatedAt = m.tick()
	m.cards[card.ID] = card
	return card, nil
}

func (m *memStore) DeleteFlashcard(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cards, id)
	return nil
}

func (m *memStore) CreateQuiz(_ context.Context, quiz store.Quiz) (store.Quiz, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.tick()
	quiz.CreatedAt, quiz.UpdatedAt = now, now
	m.quizzes[quiz.ID] = quiz
	return quiz, nil
}

func (m *memStore) GetQuiz(_ context.Context, id string) (store.Quiz, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	quiz, ok := m.quizzes[id]
	if !ok {
		return store.Quiz{}, notFoundErr("get quiz")
	}
	return quiz, nil
}

func (m *memStore) ListQuizzes(_ context.Context, userID string) ([]store.Quiz, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]store.Quiz, 0)
	for _, quiz := range m.quizzes {
		if quiz.UserID == userID {
			items = append(items, quiz)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return items, nil
}

func (m *memStore) UpdateQuiz(_ context.Context, quiz store.Quiz) (store.Quiz, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	quiz.UpdatedAt = m.tick()
	m.quizzes[quiz.ID] = quiz
	return quiz, nil
}

func (m *memStore) DeleteQuiz(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.quizzes, id)
	return nil
}

func (m *memStore) InsertQuizResult(_ context.Context, result store.QuizResult) (store.QuizResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result.TakenAt = m.tick()
	m.results = append(m.results, result)
	return result, nil
}

func (m *memStore) ListQuizResults(_ context.Context, userID string) ([]store.QuizResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]store.QuizResult, 0)
	for i := len(m.results) - 1; i >= 0; i-- {
		if m.results[i].UserID == userID {
			items = append(items, m.results[i])
		}
	}
	return items, nil
}

func (m *memStore) CreatePomodoroSession(_ context.Context, session store.PomodoroSession) (store.PomodoroSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.tick()
	session.CreatedAt, session.UpdatedAt = now, now
	m.pomodoros[session.ID] = session
	return session, nil
}

func (m *memStore) GetPomodoroSession(_ context.Context, id string) (store.PomodoroSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.pomodoros[id]
	if !ok {
		return store.PomodoroSession{}, notFoundErr("get pomodoro session")
	}
	return session, nil
}

func (m *memStore) UpdatePomodoroSession(_ context.Context, session store.PomodoroSession) (store.PomodoroSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session.UpdatedAt = m.tick()
	m.pomodoros[session.ID] = session
	return session, nil
}

func (m *memStore) ListPomodoroSessions(_ context.Context, userID string) ([]store.PomodoroSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]store.PomodoroSession, 0)
	for _, session := range m.pomodoros {
		if session.UserID == userID {
			items = append(items, session)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].StartTime.After(items[j].StartTime) })
	return items, nil
}

func (m *memStore) CreateStudyEvent(_ context.Context, event store.StudyEvent) (store.StudyEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.tick()
	event.CreatedAt, event.UpdatedAt = now, now
	m.events[event.ID] = event
	return event, nil
}

func (m *memStore) GetStudyEvent(_ context.Context, id string) (store.StudyEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	event, ok := m.events[id]
	if !ok {
		return store.StudyEvent{}, notFoundErr("get study event")
	}
	return event, nil
}

func (m *memStore) ListStudyEvents(_ context.Context, userID string, from, to *time.Time) ([]store.StudyEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]store.StudyEvent, 0)
	for _, event := range m.events {
		if event.UserID != userID {
			continue
		}
		if from != nil && to != nil && !(event.StartDate.Before(*to) && !event.EndDate.Before(*from)) {
			continue
		}
		items = append(items, event)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].StartDate.Before(items[j].StartDate) })
	return items, nil
}

func (m *memStore) UpdateStudyEvent(_ context.Context, event store.StudyEvent) (store.StudyEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	event.UpdatedAt = m.tick()
	m.events[event.ID] = event
	return event, nil
}

func (m *memStore) DeleteStudyEvent(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.events, id)
	return nil
}

func (m *memStore) CreateStudyTask(_ context.Context, task store.StudyTask) (store.StudyTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.tick()
	task.CreatedAt, task.UpdatedAt = now, now
	m.tasks[task.ID] = task
	return task, nil
}

func (m *memStore) GetStudyTask(_ context.Context, id string) (store.StudyTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[id]
	if !ok {
		return store.StudyTask{}, notFoundErr("get study task")
	}
	return task, nil
}

func (m *memStore) ListStudyTasks(_ context.Context, userID string, from, to *time.Time) ([]store.StudyTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]store.StudyTask, 0)
	for _, task := range m.tasks {
		if task.UserID != userID {
			continue
		}
		if from != nil && to != nil && (task.DueDate.Before(*from) || !task.DueDate.Before(*to)) {
			continue
		}
		items = append(items, task)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].DueDate.Before(items[j].DueDate) })
	return items, nil
}

func (m *memStore) UpdateStudyTask(_ context.Context, task store.StudyTask) (store.StudyTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	task.UpdatedAt = m.tick()
	m.tasks[task.ID] = task
	return task, nil
}

func (m *memStore) DeleteStudyTask(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tasks, id)
	return nil
}
