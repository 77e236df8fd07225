package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/boxforum/boxforum/shared/domain"
)

// UserActivityService provides methods for fetching user activity data
type UserActivityService interface {
	GetUserPosts(ctx context.Context, userId domain.UserId) (domain.PostHistory, error)
}

// UserActivity implements UserActivityService
type UserActivity struct {
	storage ContentReader
}

func NewUserActivity(storage ContentReader) UserActivityService {
	return &UserActivity{storage: storage}
}

// GetUserPosts reads the user's post index and resolves it, newest first.
func (s *UserActivity) GetUserPosts(ctx context.Context, userId domain.UserId) (domain.PostHistory, error) {
	user, err := s.storage.GetUser(ctx, userId)
	if err != nil {
		return domain.PostHistory{}, err
	}

	threads, err := s.storage.GetThreads(ctx, user.Threads)
	if err != nil {
		return domain.PostHistory{}, fmt.Errorf("failed to get user threads: %w", err)
	}
	comments, err := s.storage.GetComments(ctx, user.Comments)
	if err != nil {
		return domain.PostHistory{}, fmt.Errorf("failed to get user comments: %w", err)
	}

	sort.SliceStable(threads, func(i, j int) bool { return threads[i].CreatedAt.After(threads[j].CreatedAt) })
	sort.SliceStable(comments, func(i, j int) bool { return comments[i].CreatedAt.After(comments[j].CreatedAt) })

	history := domain.PostHistory{
		Threads:  make([]domain.PostHistoryThread, 0, len(threads)),
		Comments: make([]domain.PostHistoryComment, 0, len(comments)),
	}
	for _, t := range threads {
		history.Threads = append(history.Threads, domain.PostHistoryThread{
			Id:        t.Id,
			Title:     t.Title,
			Box:       t.Box,
			Score:     domain.Score(t.Upvoted, t.Downvoted),
			CreatedAt: t.CreatedAt,
		})
	}
	for _, c := range comments {
		history.Comments = append(history.Comments, domain.PostHistoryComment{
			Id:        c.Id,
			Body:      c.Body,
			Thread:    c.Thread,
			Score:     domain.Score(c.Upvoted, c.Downvoted),
			CreatedAt: c.CreatedAt,
		})
	}
	return history, nil
}
