package app

import (
	"github.com/alexdossss/study-hub/internal/store"
)

func userPayload(user store.User) map[string]any {
	return map[string]any{
		"id":        user.ID,
		"username":  user.Username,
		"email":     user.Email,
		"birthday":  user.Birthday,
		"bio":       user.Bio,
		"createdAt": user.CreatedAt,
	}
}

func spaceSummaryPayload(space store.SpaceSummary) map[string]any {
	return map[string]any{
		"id":          space.ID,
		"title":       space.Title,
		"description": space.Description,
		"isPublic":    space.IsPublic,
		"admin": map[string]any{
			"id":       space.AdminUserID,
			"username": space.AdminUsername,
		},
		"memberCount": space.MemberCount,
		"createdAt":   space.CreatedAt,
	}
}

func memberPayload(member store.MemberWithUser) map[string]any {
	return map[string]any{
		"id":       member.ID,
		"userId":   member.UserID,
		"username": member.Username,
		"email":    member.Email,
		"role":     member.Role,
		"status":   member.Status,
		"joinedAt": member.ApprovedAt,
	}
}

func joinRequestPayload(member store.MemberWithUser) map[string]any {
	return map[string]any{
		"id":          member.ID,
		"userId":      member.UserID,
		"username":    member.Username,
		"email":       member.Email,
		"requestedAt": member.RequestedAt,
	}
}

func sharedItemPayload(item store.SharedItem) map[string]any {
	meta := item.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	return map[string]any{
		"id":       item.ID,
		"spaceId":  item.SpaceID,
		"kind":     item.Kind,
		"refId":    item.RefID,
		"sharedBy": item.SharedBy,
		"sharedAt": item.SharedAt,
		"meta":     meta,
	}
}

func sharedNotePayload(note store.SharedNote) map[string]any {
	meta := note.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	return map[string]any{
		"id":        note.ID,
		"spaceId":   note.SpaceID,
		"noteRef":   note.NoteRef,
		"sharedBy":  note.SharedBy,
		"title":     note.Title,
		"content":   note.Content,
		"meta":      meta,
		"createdAt": note.CreatedAt,
	}
}

func messagePayload(message store.Message) map[string]any {
	meta := message.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	return map[string]any{
		"id":      message.ID,
		"spaceId": message.SpaceID,
		"user": map[string]any{
			"id":       message.UserID,
			"username": message.Username,
		},
		"text":      message.Text,
		"meta":      meta,
		"edited":    message.Edited,
		"createdAt": message.CreatedAt,
		"updatedAt": message.UpdatedAt,
	}
}

// notePayload renders a note for viewerID. Non-owners of google docs notes
// get the embeddable preview link.
func notePayload(note store.Note, viewerID string) map[string]any {
	docsURL := note.DocsURL
	if note.Type == store.NoteTypeGoogleDocs && note.UserID != viewerID {
		docsURL = googlePreviewURL(docsURL)
	}
	payload := map[string]any{
		"id":          note.ID,
		"title":       note.Title,
		"description": note.Description,
		"type":        note.Type,
		"isPublic":    note.IsPublic,
		"owner": map[string]any{
			"id":       note.UserID,
			"username": note.OwnerUsername,
		},
		"createdAt": note.CreatedAt,
		"updatedAt": note.UpdatedAt,
	}
	switch note.Type {
	case store.NoteTypeFile:
		payload["fileName"] = note.FileName
		payload["fileUrl"] = "/api/notes/" + note.ID + "/file"
	case store.NoteTypeGoogleDocs:
		payload["docsUrl"] = docsURL
	}
	return payload
}

func notePayloads(notes []store.Note, viewerID string) []map[string]any {
	items := make([]map[string]any, 0, len(notes))
	for _, note := range notes {
		items = append(items, notePayload(note, viewerID))
	}
	return items
}

func deckPayload(deck store.Deck) map[string]any {
	return map[string]any{
		"id":         deck.ID,
		"userId":     deck.UserID,
		"title":      deck.Title,
		"subject":    deck.Subject,
		"isPublic":   deck.IsPublic,
		"cardsCount": deck.CardsCount,
		"createdAt":  deck.CreatedAt,
		"updatedAt":  deck.UpdatedAt,
	}
}

func flashcardPayload(card store.Flashcard) map[string]any {
	return map[string]any{
		"id":              card.ID,
		"deckId":          card.DeckID,
		"question":        card.Question,
		"answer":          card.Answer,
		"rememberedCount": card.RememberedCount,
		"forgottenCount":  card.ForgottenCount,
		"lastReviewed":    card.LastReviewed,
		"createdAt":       card.CreatedAt,
	}
}

func flashcardPayloads(cards []store.Flashcard) []map[string]any {
	items := make([]map[string]any, 0, len(cards))
	for _, card := range cards {
		items = append(items, flashcardPayload(card))
	}
	return items
}

func quizPayload(quiz store.Quiz) map[string]any {
	questions := quiz.Questions
	if questions == nil {
		questions = []store.QuizQuestion{}
	}
	return map[string]any{
		"id":          quiz.ID,
		"userId":      quiz.UserID,
		"title":       quiz.Title,
		"description": quiz.Description,
		"questions":   questions,
		"createdAt":   quiz.CreatedAt,
		"updatedAt":   quiz.UpdatedAt,
	}
}

func quizResultPayload(result store.QuizResult) map[string]any {
	answers := result.Answers
	if answers == nil {
		answers = []store.QuizAnswer{}
	}
	return map[string]any{
		"id":      result.ID,
		"userId":  result.UserID,
		"quizId":  result.QuizID,
		"title":   result.Title,
		"score":   result.Score,
		"total":   result.Total,
		"answers": answers,
		"takenAt": result.TakenAt,
	}
}

func pomodoroPayload(session store.PomodoroSession) map[string]any {
	return map[string]any{
		"id":           session.ID,
		"userId":       session.UserID,
		"duration":     session.Duration,
		"breakLength":  session.BreakLength,
		"status":       session.Status,
		"startTime":    session.StartTime,
		"endTime":      session.EndTime,
		"focusSeconds": session.FocusSeconds,
		"breakSeconds": session.BreakSeconds,
		"createdAt":    session.CreatedAt,
	}
}

func studyEventPayload(event store.StudyEvent) map[string]any {
	return map[string]any{
		"id":          event.ID,
		"userId":      event.UserID,
		"title":       event.Title,
		"description": event.Description,
		"startDate":   event.StartDate,
		"endDate":     event.EndDate,
		"isCompleted": event.IsCompleted,
		"createdAt":   event.CreatedAt,
	}
}

func studyTaskPayload(task store.StudyTask) map[string]any {
	return map[string]any{
		"id":          task.ID,
		"userId":      task.UserID,
		"title":       task.Title,
		"description": task.Description,
		"dueDate":     task.DueDate,
		"isCompleted": task.IsCompleted,
		"createdAt":   task.CreatedAt,
	}
}
