package models

import "time"

// Post is one normalized social-media post as it is persisted.
type Post struct {
	URL             string    `json:"url"`
	Platform        string    `json:"platform"`
	UserName        string    `json:"user_name"`
	PublicationDate string    `json:"publication_date"`
	Content         string    `json:"content"`
	Metrics         Metrics   `json:"metrics"`
	Comments        *string   `json:"comments,omitempty"`
	ProcessedAt     time.Time `json:"processed_at"`
}

// Metrics holds the engagement counts of a post after unit expansion.
type Metrics struct {
	Shares   float64 `json:"shared_count"`
	Comments float64 `json:"comment_count"`
	Likes    float64 `json:"like_count"`
}

// Comment is one user comment extracted from raw page text.
type Comment struct {
	Username string `json:"username"`
	Content  string `json:"content"`
	Time     string `json:"time"`
	Likes    string `json:"likes"`
}

// RawPost is what a producer (scraper, OCR, clipboard capture) hands over
// before normalization. Count fields are still localized text like "1.2万".
type RawPost struct {
	URL         string `json:"url"`
	Platform    string `json:"platform"`
	Author      string `json:"author"`
	PublishTime string `json:"publish_time"`
	Content     string `json:"content"`

	ShareText   string `json:"share_text"`
	CommentText string `json:"comment_text"`
	LikeText    string `json:"like_text"`
	// Toolbar is the raw action bar text when counts were not captured separately.
	Toolbar string `json:"toolbar"`

	CommentBlob      string   `json:"comment_blob"`
	CommentFragments []string `json:"comment_fragments"`
}
