package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/alexdossss/study-hub/internal/authpw"
	"github.com/alexdossss/study-hub/internal/store"
)

type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password"`
	Birthday string `json:"birthday"`
	Bio      string `json:"bio" validate:"max=500"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Service) authPayload(message string, user store.User) (map[string]any, error) {
	session, err := s.issueSession(user)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"message": message,
		"user":    userPayload(user),
		"token":   session.Token,
	}, nil
}

func (s *Service) Register(ctx context.Context, input RegisterInput) (map[string]any, error) {
	var birthday *time.Time
	if raw := strings.TrimSpace(input.Birthday); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			return nil, badRequest("Invalid birthday")
		}
		birthday = &parsed
	}
	if err := validate.Struct(input); err != nil {
		return nil, err
	}

	user, err := s.passwords.Register(ctx, authpw.RegisterRequest{
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
		Birthday: birthday,
		Bio:      input.Bio,
	})
	switch {
	case errors.Is(err, authpw.ErrMissingFields):
		return nil, badRequest("Required fields are missing")
	case errors.Is(err, authpw.ErrPasswordTooShort):
		return nil, badRequest(err.Error())
	case errors.Is(err, store.ErrDuplicateEmail):
		return nil, badRequest("Email already registered")
	case errors.Is(err, store.ErrDuplicateUsername):
		return nil, badRequest("Username already taken")
	case err != nil:
		return nil, err
	}
	s.log.Info().Str("user_id", user.ID).Msg("user registered")
	return s.authPayload("Registration successful", user)
}

func (s *Service) Login(ctx context.Context, input LoginInput) (map[string]any, error) {
	user, err := s.passwords.SignIn(ctx, input.Email, input.Password)
	switch {
	case errors.Is(err, authpw.ErrMissingCredentials):
		return nil, badRequest("Email and password required")
	case errors.Is(err, authpw.ErrInvalidCredentials):
		return nil, unauthorized("Invalid email or password")
	case err != nil:
		return nil, err
	}
	return s.authPayload("Login successful", user)
}

func (s *Service) Profile(ctx context.Context, session Session) (map[string]any, error) {
	user, err := s.store.GetUserByID(ctx, session.UserID)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, notFound("User not found")
		}
		return nil, err
	}
	return map[string]any{
		"message": "Profile fetched successfully",
		"user":    userPayload(user),
	}, nil
}

// Logout revokes the access token for the rest of its lifetime. Without a
// revocation store the token stays valid until it expires.
func (s *Service) Logout(ctx context.Context, session Session) error {
	if s.revoker == nil || session.JTI == "" {
		return nil
	}
	return s.revoker.RevokeAccessToken(ctx, session.JTI, session.ExpiresAt)
}

func (s *Service) ListBookmarks(ctx context.Context, session Session) (map[string]any, error) {
	notes, err := s.store.ListBookmarks(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"bookmarks": notePayloads(notes, session.UserID)}, nil
}

func (s *Service) AddBookmark(ctx context.Context, session Session, noteID string) (map[string]any, error) {
	noteID = strings.TrimSpace(noteID)
	if noteID == "" {
		return nil, badRequest("noteId required")
	}
	if _, err := s.visibleNote(ctx, noteID, session.UserID); err != nil {
		return nil, err
	}
	if err := s.store.AddBookmark(ctx, session.UserID, noteID); err != nil {
		return nil, err
	}
	return map[string]any{"message": "Bookmarked"}, nil
}

func (s *Service) RemoveBookmark(ctx context.Context, session Session, noteID string) (map[string]any, error) {
	removed, err := s.store.RemoveBookmark(ctx, session.UserID, noteID)
	if err != nil {
		return nil, err
	}
	if !removed {
		return nil, notFound("Bookmark not found")
	}
	return map[string]any{"message": "Bookmark removed"}, nil
}
