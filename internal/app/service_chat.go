package app

import (
	"context"
	"strconv"
	"strings"

	"github.com/alexdossss/study-hub/internal/activity"
	"github.com/alexdossss/study-hub/internal/rbac"
	"github.com/alexdossss/study-hub/internal/realtime"
	"github.com/alexdossss/study-hub/internal/store"
	"github.com/alexdossss/study-hub/internal/util"
)

const (
	defaultMessageLimit = 50
	maxMessageLimit     = 200
)

// ParseMessageLimit reads the limit query value. Empty means the default;
// anything else must be an integer and is clamped to [1, 200].
func ParseMessageLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultMessageLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest("limit must be an integer")
	}
	switch {
	case limit < 1:
		return 1, nil
	case limit > maxMessageLimit:
		return maxMessageLimit, nil
	}
	return limit, nil
}

func (s *Service) PostMessage(ctx context.Context, session Session, spaceID, text string) (map[string]any, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, badRequest("Message text required")
	}
	space, role, err := s.spaceAccess(ctx, spaceID, session.UserID)
	if err != nil {
		return nil, err
	}
	if !rbac.Can(role, rbac.ActionPost) {
		return nil, forbidden("Only members can post messages")
	}

	id := util.NewID("msg")
	if err := s.store.InsertMessage(ctx, store.Message{
		ID:      id,
		SpaceID: space.ID,
		UserID:  session.UserID,
		Text:    text,
		Meta:    map[string]any{},
	}); err != nil {
		return nil, err
	}
	message, err := s.store.GetMessage(ctx, id)
	if err != nil {
		return nil, err
	}

	payload := messagePayload(message)
	s.emit(ctx, realtime.SpaceRoom(space.ID), "space:message", payload)
	s.publish(activity.NewEvent(activity.MessagePosted, space.ID, session.UserID).WithItem("message", id))
	return map[string]any{"message": payload}, nil
}

// GetMessages returns the newest limit messages in ascending order. limit
// is clamped to [1, 200].
func (s *Service) GetMessages(ctx context.Context, session Session, spaceID string, limit int) (map[string]any, error) {
	limit = min(max(limit, 1), maxMessageLimit)
	if _, _, err := s.readableSpace(ctx, spaceID, session.UserID); err != nil {
		return nil, err
	}
	recent, err := s.store.ListRecentMessages(ctx, spaceID, limit)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		items = append(items, messagePayload(recent[i]))
	}
	return map[string]any{"messages": items}, nil
}
