package app

import (
	"context"
	"net/http"
	"strings"

	"github.com/alexdossss/study-hub/internal/activity"
	"github.com/alexdossss/study-hub/internal/rbac"
	"github.com/alexdossss/study-hub/internal/realtime"
	"github.com/alexdossss/study-hub/internal/store"
	"github.com/alexdossss/study-hub/internal/util"
)

type CreateSpaceInput struct {
	Title       string `json:"title"`
	Description string `json:"description" validate:"max=2000"`
	IsPublic    *bool  `json:"isPublic"`
}

const (
	joinActionApprove = "approve"
	joinActionReject  = "reject"
)

func (s *Service) CreateSpace(ctx context.Context, session Session, input CreateSpaceInput) (map[string]any, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, badRequest("Title required")
	}
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	isPublic := true
	if input.IsPublic != nil {
		isPublic = *input.IsPublic
	}

	space, err := s.store.CreateSpace(ctx, store.Space{
		ID:          util.NewID("spc"),
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		IsPublic:    isPublic,
		AdminUserID: session.UserID,
	}, util.NewID("mem"))
	if err != nil {
		return nil, err
	}
	summary, err := s.store.GetSpaceSummary(ctx, space.ID)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("space_id", space.ID).Str("user_id", session.UserID).Msg("space created")
	s.publish(activity.NewEvent(activity.SpaceCreated, space.ID, session.UserID))
	return map[string]any{"space": spaceSummaryPayload(summary)}, nil
}

// ListSpaces lists every space, or with mine only those the caller has
// been approved into.
func (s *Service) ListSpaces(ctx context.Context, userID string, mine bool) (map[string]any, error) {
	filter := ""
	if mine {
		filter = userID
	}
	spaces, err := s.store.ListSpaces(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(spaces))
	for _, space := range spaces {
		items = append(items, spaceSummaryPayload(space))
	}
	return map[string]any{"spaces": items}, nil
}

func (s *Service) GetSpace(ctx context.Context, spaceID string) (map[string]any, error) {
	summary, err := s.store.GetSpaceSummary(ctx, spaceID)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, notFound("Space not found")
		}
		return nil, err
	}
	approved, err := s.store.ListMembers(ctx, spaceID, store.MemberStatusApproved)
	if err != nil {
		return nil, err
	}
	requested, err := s.store.ListMembers(ctx, spaceID, store.MemberStatusRequested)
	if err != nil {
		return nil, err
	}

	members := make([]map[string]any, 0, len(approved))
	for _, member := range approved {
		members = append(members, memberPayload(member))
	}
	joinRequests := make([]map[string]any, 0, len(requested))
	for _, member := range requested {
		joinRequests = append(joinRequests, joinRequestPayload(member))
	}

	payload := spaceSummaryPayload(summary)
	payload["members"] = members
	payload["joinRequests"] = joinRequests
	payload["updatedAt"] = summary.UpdatedAt
	return map[string]any{"space": payload}, nil
}

func (s *Service) ListMembers(ctx context.Context, session Session, spaceID string) (map[string]any, error) {
	if _, _, err := s.readableSpace(ctx, spaceID, session.UserID); err != nil {
		return nil, err
	}
	approved, err := s.store.ListMembers(ctx, spaceID, store.MemberStatusApproved)
	if err != nil {
		return nil, err
	}
	members := make([]map[string]any, 0, len(approved))
	for _, member := range approved {
		members = append(members, memberPayload(member))
	}
	return map[string]any{"members": members}, nil
}

func (s *Service) RequestJoin(ctx context.Context, session Session, spaceID string) (map[string]any, error) {
	space, role, err := s.spaceAccess(ctx, spaceID, session.UserID)
	if err != nil {
		return nil, err
	}
	if role != rbac.RoleOutsider {
		return nil, badRequest("Already a member")
	}

	created, err := s.store.RequestJoin(ctx, util.NewID("mem"), spaceID, session.UserID)
	if err != nil {
		return nil, err
	}
	if !created {
		// already requested
		return map[string]any{"message": "Join requested"}, nil
	}

	s.emit(ctx, realtime.UserRoom(space.AdminUserID), "space:joinRequest", map[string]any{
		"spaceId": space.ID,
		"userId":  session.UserID,
	})
	s.publish(activity.NewEvent(activity.JoinRequested, space.ID, session.UserID))

	admin, err := s.store.GetUserByID(ctx, space.AdminUserID)
	if err != nil {
		s.log.Warn().Err(err).Str("space_id", space.ID).Msg("load space admin for join mail")
	} else {
		s.notify("join_request", func(m Mailer) error {
			return m.SendJoinRequest(admin.Email, admin.Username, session.Username, space.ID, space.Title)
		})
	}
	return map[string]any{"message": "Join requested"}, nil
}

// HandleJoinRequest approves or rejects a pending request. memberID may be
// the membership row id or the requesting user's id.
func (s *Service) HandleJoinRequest(ctx context.Context, session Session, spaceID, memberID, action string) (map[string]any, error) {
	action = strings.ToLower(strings.TrimSpace(action))
	if action != joinActionApprove && action != joinActionReject {
		return nil, badRequest("Invalid action")
	}
	space, role, err := s.spaceAccess(ctx, spaceID, session.UserID)
	if err != nil {
		return nil, err
	}
	if role != rbac.RoleAdmin {
		return nil, forbidden("Only admin can approve/reject")
	}

	approve := action == joinActionApprove
	member, err := s.store.DecideJoinRequest(ctx, spaceID, memberID, approve)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, notFound("Join request not found")
		}
		return nil, err
	}

	event, eventType, message := "space:joinRejected", activity.JoinRejected, "Rejected"
	if approve {
		event, eventType, message = "space:joinApproved", activity.JoinApproved, "Approved"
	}
	s.emit(ctx, realtime.UserRoom(member.UserID), event, map[string]any{"spaceId": space.ID})
	s.publish(activity.NewEvent(eventType, space.ID, session.UserID).WithTarget(member.UserID))

	requester, err := s.store.GetUserByID(ctx, member.UserID)
	if err != nil {
		s.log.Warn().Err(err).Str("space_id", space.ID).Msg("load requester for decision mail")
	} else {
		s.notify("join_decision", func(m Mailer) error {
			return m.SendJoinDecision(requester.Email, requester.Username, space.ID, space.Title, approve)
		})
	}
	return map[string]any{"message": message}, nil
}

func (s *Service) LeaveSpace(ctx context.Context, session Session, spaceID string) (map[string]any, error) {
	space, role, err := s.spaceAccess(ctx, spaceID, session.UserID)
	if err != nil {
		return nil, err
	}
	if role == rbac.RoleAdmin {
		return nil, badRequest("Admin cannot leave space. Transfer admin before leaving.")
	}
	if !rbac.Can(role, rbac.ActionLeave) {
		return nil, badRequest("Not a member of this space")
	}

	left, err := s.store.LeaveSpace(ctx, spaceID, session.UserID)
	if err != nil {
		return nil, err
	}
	if !left {
		return nil, badRequest("Not a member of this space")
	}

	s.emit(ctx, realtime.SpaceRoom(space.ID), "space:memberLeft", map[string]any{
		"spaceId": space.ID,
		"userId":  session.UserID,
	})
	s.publish(activity.NewEvent(activity.MemberLeft, space.ID, session.UserID))
	return map[string]any{"message": "Left space"}, nil
}

func (s *Service) RemoveMember(ctx context.Context, session Session, spaceID, userID string) (map[string]any, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, badRequest("userId required")
	}
	space, role, err := s.spaceAccess(ctx, spaceID, session.UserID)
	if err != nil {
		return nil, err
	}
	if !rbac.Can(role, rbac.ActionModerate) {
		return nil, forbidden("Only admin can remove members")
	}
	if userID == space.AdminUserID {
		return nil, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "Admin cannot remove themselves", nil)
	}

	removed, err := s.store.RemoveMember(ctx, spaceID, userID)
	if err != nil {
		return nil, err
	}
	if !removed {
		return nil, notFound("Member not found")
	}

	s.emit(ctx, realtime.SpaceRoom(space.ID), "space:memberRemoved", map[string]any{
		"spaceId": space.ID,
		"userId":  userID,
		"actorId": session.UserID,
	})
	s.publish(activity.NewEvent(activity.MemberRemoved, space.ID, session.UserID).WithTarget(userID))
	return map[string]any{"message": "Member removed"}, nil
}
