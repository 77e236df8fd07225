package service

import (
	"sort"

	"github.com/boxforum/boxforum/shared/domain"
	internal_errors "github.com/boxforum/boxforum/shared/errors"
)

// Read projections. Everything here is pure: the callers fetch, these
// functions sort, slice and decorate for one viewer.

const deletedAuthorName = "[deleted]"

// paginate slices a 1-indexed page out of items. An empty list has one
// empty page; a page past the end is PageNotFound.
func paginate[T any](items []T, page, perPage int) ([]T, int, error) {
	pageCount := domain.PageCount(len(items), perPage)
	start, end, ok := domain.PageBounds(len(items), perPage, page)
	if !ok {
		return nil, pageCount, internal_errors.PageNotFound()
	}
	return items[start:end], pageCount, nil
}

// sortByActivity orders threads by updatedAt descending.
func sortByActivity(threads []domain.Thread) {
	sort.SliceStable(threads, func(i, j int) bool {
		if threads[i].UpdatedAt.Equal(threads[j].UpdatedAt) {
			return threads[i].Id < threads[j].Id
		}
		return threads[i].UpdatedAt.After(threads[j].UpdatedAt)
	})
}

// sortByCreation orders comments by createdAt ascending.
func sortByCreation(comments []domain.Comment) {
	sort.SliceStable(comments, func(i, j int) bool {
		if comments[i].CreatedAt.Equal(comments[j].CreatedAt) {
			return comments[i].Id < comments[j].Id
		}
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
}

func authorView(id domain.UserId, users map[domain.UserId]domain.User) domain.AuthorView {
	u, ok := users[id]
	if !ok {
		return domain.AuthorView{Id: id, Fullname: deletedAuthorName}
	}
	return domain.AuthorView{Id: u.Id, Fullname: u.Fullname, AvatarUrl: u.AvatarUrl}
}

func projectBox(box domain.Box, page []domain.Thread, pageCount int, authors map[domain.UserId]domain.User, viewer *domain.User) domain.BoxView {
	vid := viewerId(viewer)
	items := make([]domain.ThreadListItem, 0, len(page))
	for _, t := range page {
		items = append(items, domain.ThreadListItem{
			Id:           t.Id,
			Title:        t.Title,
			Author:       authorView(t.Author, authors),
			Score:        domain.Score(t.Upvoted, t.Downvoted),
			CommentCount: len(t.Comments),
			VoteStatus:   domain.VoteStatusOf(vid, t.Upvoted, t.Downvoted),
			CreatedAt:    t.CreatedAt,
			UpdatedAt:    t.UpdatedAt,
		})
	}
	moderators := box.Moderators
	if moderators == nil {
		moderators = []domain.UserId{}
	}
	return domain.BoxView{
		Id:          box.Id,
		Name:        box.Name,
		Description: box.Description,
		Moderators:  moderators,
		PageCount:   pageCount,
		Threads:     items,
	}
}

// threadPage is everything projectThread needs besides the viewer.
type threadPage struct {
	thread    domain.Thread
	box       domain.Box
	comments  []domain.Comment                    // the requested page, in display order
	parents   map[domain.CommentId]domain.Comment // reply targets that still exist
	users     map[domain.UserId]domain.User       // authors of thread, comments and parents
	pageCount int
}

func projectThread(p threadPage, viewer *domain.User) domain.ThreadView {
	vid := viewerId(viewer)
	isUpdater, isDeleter := permissionFlags(viewer, p.thread.Author, p.box)

	comments := make([]domain.CommentView, 0, len(p.comments))
	for _, c := range p.comments {
		cu, cd := permissionFlags(viewer, c.Author, p.box)
		view := domain.CommentView{
			Id:         c.Id,
			Body:       c.Body,
			Author:     authorView(c.Author, p.users),
			Score:      domain.Score(c.Upvoted, c.Downvoted),
			VoteStatus: domain.VoteStatusOf(vid, c.Upvoted, c.Downvoted),
			IsUpdater:  cu,
			IsDeleter:  cd,
			CreatedAt:  c.CreatedAt,
			UpdatedAt:  c.UpdatedAt,
		}
		// one level only: the parent's own replyTo is never followed
		if c.ReplyTo != nil {
			if parent, ok := p.parents[*c.ReplyTo]; ok {
				view.Reply = &domain.ReplyView{
					Id:     parent.Id,
					Author: authorView(parent.Author, p.users),
					Body:   parent.Body,
				}
			}
		}
		comments = append(comments, view)
	}

	return domain.ThreadView{
		Id:         p.thread.Id,
		Title:      p.thread.Title,
		Body:       p.thread.Body,
		ImageUrl:   p.thread.ImageUrl,
		Author:     authorView(p.thread.Author, p.users),
		Box:        domain.BoxRef{Id: p.box.Id, Name: p.box.Name},
		Score:      domain.Score(p.thread.Upvoted, p.thread.Downvoted),
		VoteStatus: domain.VoteStatusOf(vid, p.thread.Upvoted, p.thread.Downvoted),
		IsUpdater:  isUpdater,
		IsDeleter:  isDeleter,
		PageCount:  p.pageCount,
		Comments:   comments,
		CreatedAt:  p.thread.CreatedAt,
		UpdatedAt:  p.thread.UpdatedAt,
	}
}

func threadAuthors(threads []domain.Thread) []domain.UserId {
	ids := make([]domain.UserId, 0, len(threads))
	for _, t := range threads {
		ids = append(ids, t.Author)
	}
	return ids
}
