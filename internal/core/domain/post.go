package domain

import "time"

// PostDateLayout renders post dates as e.g. "April 02, 2024".
const PostDateLayout = "January 02, 2006"

// FormatPostDate returns the display date stamped on a new post.
func FormatPostDate(t time.Time) string {
	return t.Format(PostDateLayout)
}

// Post is a blog article. Date is stored as its display string.
type Post struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Subtitle   string `json:"subtitle"`
	Date       string `json:"date"`
	Body       string `json:"body"`
	ImgURL     string `json:"img_url"`
	AuthorID   int64  `json:"author_id"`
	AuthorName string `json:"author"`
}

// Comment is a reader's reply on a post.
type Comment struct {
	ID          int64  `json:"id"`
	Body        string `json:"body"`
	AuthorID    int64  `json:"author_id"`
	PostID      int64  `json:"post_id"`
	AuthorName  string `json:"author"`
	AuthorEmail string `json:"-"`
}
