package domain

import "time"

type (
	UserId    = string
	BoxId     = string
	ThreadId  = string
	CommentId = string
)

type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// User is owned by the session layer. Threads and Comments are the
// profile-history index maintained alongside every post write.
type User struct {
	Id        UserId      `json:"id"`
	Fullname  string      `json:"fullname"`
	AvatarUrl string      `json:"avatarUrl,omitempty"`
	Role      Role        `json:"role"`
	Threads   []ThreadId  `json:"-"`
	Comments  []CommentId `json:"-"`
	CreatedAt time.Time   `json:"createdAt"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

type Box struct {
	Id          BoxId
	Name        string
	Description string
	Moderators  []UserId
	Banned      []UserId
	Threads     []ThreadId
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (b *Box) IsModerator(id UserId) bool {
	return contains(b.Moderators, id)
}

func (b *Box) IsBanned(id UserId) bool {
	return contains(b.Banned, id)
}

type Thread struct {
	Id        ThreadId
	Title     string
	Body      string
	ImageUrl  string // image id when self-hosted, absolute URL when external
	Author    UserId
	Box       BoxId
	Upvoted   []UserId
	Downvoted []UserId
	Comments  []CommentId
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Comment struct {
	Id        CommentId
	Body      string
	Author    UserId
	Thread    ThreadId
	ReplyTo   *CommentId
	Upvoted   []UserId
	Downvoted []UserId
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BoxSummary is a list-view row for the box index.
type BoxSummary struct {
	Id          BoxId  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ThreadCount int    `json:"threadCount"`
}

// Ref names one of the denormalized back-reference lists.
type Ref int

const (
	BoxThreads Ref = iota
	ThreadComments
	UserThreads
	UserComments
)

func (r Ref) String() string {
	switch r {
	case BoxThreads:
		return "box.threads"
	case ThreadComments:
		return "thread.comments"
	case UserThreads:
		return "user.threads"
	case UserComments:
		return "user.comments"
	}
	return "unknown"
}

// BoxList names a user set on a box.
type BoxList int

const (
	BoxModerators BoxList = iota
	BoxBanned
)

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
