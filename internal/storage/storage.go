package storage

import (
	"errors"

	"github.com/pwklam/scrape-chinese-social-media/internal/models"
)

// ErrNotFound is returned when no post is stored under a URL.
var ErrNotFound = errors.New("post not found")

// Storage defines the interface for post storage
type Storage interface {
	// IsProcessed checks if a post URL has already been stored
	IsProcessed(url string) (bool, error)

	// SavePost inserts a post, or refreshes the counts and comments of an
	// existing post with the same URL
	SavePost(post *models.Post) error

	// GetPost retrieves one post by URL
	GetPost(url string) (*models.Post, error)

	// GetAllPosts retrieves all stored posts
	GetAllPosts() ([]*models.Post, error)

	// Close closes the storage connection
	Close() error
}
