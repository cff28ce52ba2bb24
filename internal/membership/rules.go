package membership

import (
	"fmt"
	"sort"
	"strings"

	"chat-realtime/internal/apperr"
	"chat-realtime/internal/events"
	"chat-realtime/internal/models"
)

// Each rule takes the current chat and returns the next one, or an error
// and no change.

func requireGroupCreator(chat models.Chat, actor int) error {
	if !chat.IsGroup {
		return apperr.ErrNotGroupChat
	}
	if !chat.IsCreator(actor) {
		return fmt.Errorf("%w: only the group creator can do this", apperr.ErrForbidden)
	}
	return nil
}

// applyAdd merges ids into the member set. Existing members are skipped, so
// re-adding them is a no-op.
func applyAdd(chat models.Chat, actor int, ids []int) (models.Chat, []int, error) {
	if err := requireGroupCreator(chat, actor); err != nil {
		return chat, nil, err
	}

	var added []int
	seen := make(map[int]bool, len(chat.Members)+len(ids))
	for _, id := range chat.Members {
		seen[id] = true
	}
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		added = append(added, id)
	}

	if len(chat.Members)+len(added) > models.MaxGroupMembers {
		return chat, nil, fmt.Errorf("%w: group members limit of %d reached", apperr.ErrLimitExceeded, models.MaxGroupMembers)
	}

	next := chat.Clone()
	next.Members = append(next.Members, added...)
	sort.Ints(next.Members)
	return next, added, nil
}

func applyRemove(chat models.Chat, actor, target int) (models.Chat, error) {
	if err := requireGroupCreator(chat, actor); err != nil {
		return chat, err
	}
	if len(chat.Members) <= models.MinGroupMembers {
		return chat, apperr.ErrTooFewMembers
	}
	if !chat.HasMember(target) {
		return chat, fmt.Errorf("%w: user is not a member of this group", apperr.ErrInvalidOperation)
	}
	if target == chat.CreatorID {
		return chat, fmt.Errorf("%w: the creator must leave the group instead", apperr.ErrInvalidOperation)
	}

	next := chat.Clone()
	next.Members = events.Without(next.Members, target)
	return next, nil
}

// applyLeave removes actor. A leaving creator hands the group to a member
// chosen by pick, which returns an index in [0, n).
func applyLeave(chat models.Chat, actor int, pick func(n int) int) (models.Chat, error) {
	if !chat.IsGroup {
		return chat, apperr.ErrNotGroupChat
	}
	if !chat.HasMember(actor) {
		return chat, fmt.Errorf("%w: you are not a member of this group", apperr.ErrForbidden)
	}

	remaining := events.Without(chat.Members, actor)
	if len(remaining) < models.MinGroupMembers {
		return chat, apperr.ErrTooFewMembers
	}

	next := chat.Clone()
	next.Members = remaining
	if chat.CreatorID == actor {
		next.CreatorID = remaining[pick(len(remaining))]
	}
	return next, nil
}

func applyRename(chat models.Chat, actor int, name string) (models.Chat, error) {
	if err := requireGroupCreator(chat, actor); err != nil {
		return chat, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return chat, fmt.Errorf("%w: name is required", apperr.ErrInvalidOperation)
	}

	next := chat.Clone()
	next.Name = name
	return next, nil
}

func checkDelete(chat models.Chat, actor int) error {
	if chat.IsGroup && !chat.IsCreator(actor) {
		return fmt.Errorf("%w: you are not allowed to delete the group", apperr.ErrForbidden)
	}
	if !chat.IsGroup && !chat.HasMember(actor) {
		return fmt.Errorf("%w: you are not allowed to delete the chat", apperr.ErrForbidden)
	}
	return nil
}
