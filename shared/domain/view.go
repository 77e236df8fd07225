package domain

import "time"

// Read projections. They are computed per viewer and never stored.

type AuthorView struct {
	Id        UserId `json:"id"`
	Fullname  string `json:"fullname"`
	AvatarUrl string `json:"avatarUrl,omitempty"`
}

type BoxRef struct {
	Id   BoxId  `json:"id"`
	Name string `json:"name"`
}

type BoxView struct {
	Id          BoxId            `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Moderators  []UserId         `json:"moderators"`
	PageCount   int              `json:"pageCount"`
	Threads     []ThreadListItem `json:"threads"`
}

type ThreadListItem struct {
	Id           ThreadId   `json:"id"`
	Title        string     `json:"title"`
	Author       AuthorView `json:"author"`
	Score        int        `json:"score"`
	CommentCount int        `json:"commentCount"`
	VoteStatus   VoteStatus `json:"voteStatus"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

type ThreadView struct {
	Id         ThreadId      `json:"id"`
	Title      string        `json:"title"`
	Body       string        `json:"body"`
	ImageUrl   string        `json:"imageUrl,omitempty"`
	Author     AuthorView    `json:"author"`
	Box        BoxRef        `json:"box"`
	Score      int           `json:"score"`
	VoteStatus VoteStatus    `json:"voteStatus"`
	IsUpdater  int           `json:"isUpdater"`
	IsDeleter  int           `json:"isDeleter"`
	PageCount  int           `json:"pageCount"`
	Comments   []CommentView `json:"comments"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

type CommentView struct {
	Id         CommentId  `json:"id"`
	Body       string     `json:"body"`
	Author     AuthorView `json:"author"`
	Score      int        `json:"score"`
	VoteStatus VoteStatus `json:"voteStatus"`
	IsUpdater  int        `json:"isUpdater"`
	IsDeleter  int        `json:"isDeleter"`
	Reply      *ReplyView `json:"reply,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// ReplyView is the parent of a reply, resolved one level only.
type ReplyView struct {
	Id     CommentId  `json:"id"`
	Author AuthorView `json:"author"`
	Body   string     `json:"body"`
}

type DeleterStatus string

const (
	DeleterAdmin     DeleterStatus = "admin"
	DeleterModerator DeleterStatus = "moderator"
	DeleterAuthor    DeleterStatus = "author"
	DeleterUser      DeleterStatus = "user"
)

type UpdaterStatus string

const (
	UpdaterAuthor UpdaterStatus = "author"
	UpdaterUser   UpdaterStatus = "user"
)

type Permissions struct {
	DeleterStatus DeleterStatus `json:"deleterStatus"`
	UpdaterStatus UpdaterStatus `json:"updaterStatus"`
}

// PostHistory is a user's own posts, newest first.
type PostHistory struct {
	Threads  []PostHistoryThread  `json:"threads"`
	Comments []PostHistoryComment `json:"comments"`
}

type PostHistoryThread struct {
	Id        ThreadId  `json:"id"`
	Title     string    `json:"title"`
	Box       BoxId     `json:"box"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"createdAt"`
}

type PostHistoryComment struct {
	Id        CommentId `json:"id"`
	Body      string    `json:"body"`
	Thread    ThreadId  `json:"thread"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"createdAt"`
}
