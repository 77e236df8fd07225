package api

import "github.com/boxforum/boxforum/shared/domain"

// Request DTOs

type CreateBoxRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

type RenameBoxRequest struct {
	Name string `json:"name" validate:"required"`
}

type UpdateBoxDescriptionRequest struct {
	Description string `json:"description"`
}

// BoxMemberRequest names a user to add to or remove from a box set
// (moderators or banned).
type BoxMemberRequest struct {
	UserId domain.UserId `json:"userId" validate:"required,uuid"`
}

type CreateThreadRequest struct {
	Title string `json:"title" validate:"required"`
	Body  string `json:"body" validate:"required"`
}

type UpdateThreadRequest struct {
	Body string `json:"body" validate:"required"`
}

type CreateCommentRequest struct {
	Body    string            `json:"body" validate:"required"`
	ReplyTo *domain.CommentId `json:"replyTo,omitempty" validate:"omitempty,uuid"`
}

type UpdateCommentRequest struct {
	Body string `json:"body" validate:"required"`
}

// Response DTOs

type CreatedResponse struct {
	Id string `json:"id"`
}

type BoxListResponse struct {
	Boxes []domain.BoxSummary `json:"boxes"`
}

type VoteResponse struct {
	VoteStatus domain.VoteStatus `json:"voteStatus"`
}
