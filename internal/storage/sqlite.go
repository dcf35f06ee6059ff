package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pwklam/scrape-chinese-social-media/internal/models"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS posts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	platform TEXT NOT NULL,
	user_name TEXT,
	publication_date TEXT,
	content TEXT,
	shared_count REAL NOT NULL DEFAULT 0,
	comment_count REAL NOT NULL DEFAULT 0,
	like_count REAL NOT NULL DEFAULT 0,
	link1 TEXT NOT NULL UNIQUE,
	comments TEXT,
	processed_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_posts_platform ON posts(platform);
CREATE INDEX IF NOT EXISTS idx_posts_processed_at ON posts(processed_at);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS posts (
	id BIGSERIAL PRIMARY KEY,
	platform TEXT NOT NULL,
	user_name TEXT,
	publication_date TEXT,
	content TEXT,
	shared_count DOUBLE PRECISION NOT NULL DEFAULT 0,
	comment_count DOUBLE PRECISION NOT NULL DEFAULT 0,
	like_count DOUBLE PRECISION NOT NULL DEFAULT 0,
	link1 TEXT NOT NULL UNIQUE,
	comments TEXT,
	processed_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_posts_platform ON posts(platform);
CREATE INDEX IF NOT EXISTS idx_posts_processed_at ON posts(processed_at);
`

// postRow mirrors one row of the posts table.
type postRow struct {
	URL             string         `db:"link1"`
	Platform        string         `db:"platform"`
	UserName        string         `db:"user_name"`
	PublicationDate string         `db:"publication_date"`
	Content         string         `db:"content"`
	SharedCount     float64        `db:"shared_count"`
	CommentCount    float64        `db:"comment_count"`
	LikeCount       float64        `db:"like_count"`
	Comments        sql.NullString `db:"comments"`
	ProcessedAt     time.Time      `db:"processed_at"`
}

func toRow(post *models.Post) postRow {
	row := postRow{
		URL:             post.URL,
		Platform:        post.Platform,
		UserName:        post.UserName,
		PublicationDate: post.PublicationDate,
		Content:         post.Content,
		SharedCount:     post.Metrics.Shares,
		CommentCount:    post.Metrics.Comments,
		LikeCount:       post.Metrics.Likes,
		ProcessedAt:     post.ProcessedAt,
	}
	if post.Comments != nil {
		row.Comments = sql.NullString{String: *post.Comments, Valid: true}
	}
	if row.ProcessedAt.IsZero() {
		row.ProcessedAt = time.Now()
	}
	return row
}

func (r postRow) toPost() *models.Post {
	post := &models.Post{
		URL:             r.URL,
		Platform:        r.Platform,
		UserName:        r.UserName,
		PublicationDate: r.PublicationDate,
		Content:         r.Content,
		Metrics: models.Metrics{
			Shares:   r.SharedCount,
			Comments: r.CommentCount,
			Likes:    r.LikeCount,
		},
		ProcessedAt: r.ProcessedAt,
	}
	if r.Comments.Valid {
		comments := r.Comments.String
		post.Comments = &comments
	}
	return post
}

// SQLStorage implements Storage on SQLite or PostgreSQL
type SQLStorage struct {
	db *sqlx.DB
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLStorage, error) {
	return Open(DriverSQLite, dbPath)
}

// NewPostgresStorage creates a new PostgreSQL storage instance
func NewPostgresStorage(dsn string) (*SQLStorage, error) {
	return Open(DriverPostgres, dsn)
}

// Open connects to the database and makes sure the schema exists.
func Open(driver, dsn string) (*SQLStorage, error) {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = sqliteSchema
	case DriverPostgres:
		schema = postgresSchema
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", driver)
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &SQLStorage{db: db}, nil
}

// IsProcessed checks if a post has already been stored
func (s *SQLStorage) IsProcessed(url string) (bool, error) {
	var count int
	err := s.db.Get(&count, s.db.Rebind("SELECT COUNT(*) FROM posts WHERE link1 = ?"), url)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// SavePost saves a post to storage. On a URL that is already stored only the
// counts, comments and processing time are refreshed; a post without
// comments keeps the ones already stored.
func (s *SQLStorage) SavePost(post *models.Post) error {
	query := `
	INSERT INTO posts (platform, user_name, publication_date, content,
		shared_count, comment_count, like_count, link1, comments, processed_at)
	VALUES (:platform, :user_name, :publication_date, :content,
		:shared_count, :comment_count, :like_count, :link1, :comments, :processed_at)
	ON CONFLICT(link1) DO UPDATE SET
		shared_count = excluded.shared_count,
		comment_count = excluded.comment_count,
		like_count = excluded.like_count,
		comments = COALESCE(excluded.comments, posts.comments),
		processed_at = excluded.processed_at
	`

	_, err := s.db.NamedExec(query, toRow(post))
	return err
}

const selectPosts = `SELECT link1, platform, user_name, publication_date, content,
	shared_count, comment_count, like_count, comments, processed_at FROM posts`

// GetPost retrieves one post by URL
func (s *SQLStorage) GetPost(url string) (*models.Post, error) {
	var row postRow
	err := s.db.Get(&row, s.db.Rebind(selectPosts+" WHERE link1 = ?"), url)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toPost(), nil
}

// GetAllPosts retrieves all stored posts, most recently processed first
func (s *SQLStorage) GetAllPosts() ([]*models.Post, error) {
	var rows []postRow
	if err := s.db.Select(&rows, selectPosts+" ORDER BY processed_at DESC, id DESC"); err != nil {
		return nil, err
	}

	posts := make([]*models.Post, 0, len(rows))
	for _, row := range rows {
		posts = append(posts, row.toPost())
	}
	return posts, nil
}

// Close closes the database connection
func (s *SQLStorage) Close() error {
	return s.db.Close()
}
