package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/boxforum/boxforum/shared/domain"
	internal_errors "github.com/boxforum/boxforum/shared/errors"
)

// now is truncated to the store's timestamp precision.
var now = func() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func checkLength(field, value string, minLen, maxLen int) error {
	n := utf8.RuneCountInString(value)
	if n < minLen || n > maxLen {
		return internal_errors.Validation(fmt.Sprintf("%s must be between %d and %d characters", field, minLen, maxLen))
	}
	return nil
}

func requireUser(actor *domain.User) error {
	if actor == nil {
		return internal_errors.Forbidden("Please sign-in")
	}
	return nil
}

// deleteThreadTx removes a thread with its comments and every back-reference
// to either of them. The caller holds the box and thread row locks.
func deleteThreadTx(ctx context.Context, tx ContentTx, thread domain.Thread) error {
	comments, err := tx.DeleteThreadComments(ctx, thread.Id)
	if err != nil {
		return err
	}

	byAuthor := make(map[domain.UserId][]string)
	for _, c := range comments {
		byAuthor[c.Author] = append(byAuthor[c.Author], c.Id)
	}
	authors := make([]domain.UserId, 0, len(byAuthor))
	for a := range byAuthor {
		authors = append(authors, a)
	}
	// fixed order keeps concurrent cascades from deadlocking on user rows
	sort.Strings(authors)
	for _, a := range authors {
		if err := tx.RemoveRefs(ctx, domain.UserComments, a, byAuthor[a]); err != nil {
			return err
		}
	}

	if err := tx.DeleteThread(ctx, thread.Id); err != nil {
		return err
	}
	if err := tx.RemoveRefs(ctx, domain.BoxThreads, thread.Box, []string{thread.Id}); err != nil {
		return err
	}
	return tx.RemoveRefs(ctx, domain.UserThreads, thread.Author, []string{thread.Id})
}

func uniqueIds(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || strings.TrimSpace(id) == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
