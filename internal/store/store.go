// Package store is the curated-content store: best-practice links, generated
// images, and blog posts, plus the pre-stored per-user following lists the
// official following strategy reads when no target handle is given.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database behind the content endpoints.
type DB struct{ sql *sql.DB }

func Open(path string) (*DB, error) {
	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := d.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;`); err != nil {
		return nil, err
	}
	db := &DB{sql: d}
	if err := db.migrate(); err != nil {
		_ = d.Close()
		return nil, err
	}
	return db, nil
}

func (d *DB) Close() error { return d.sql.Close() }

func (d *DB) migrate() error {
	_, err := d.sql.Exec(`
	CREATE TABLE IF NOT EXISTS practices (
	  id INTEGER PRIMARY KEY AUTOINCREMENT,
	  title TEXT NOT NULL,
	  subtitle TEXT,
	  url TEXT,
	  description TEXT,
	  tags TEXT,
	  logo_url TEXT,
	  created_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS images (
	  id INTEGER PRIMARY KEY AUTOINCREMENT,
	  title TEXT NOT NULL,
	  prompt TEXT,
	  image_url TEXT,
	  description TEXT,
	  created_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS posts (
	  id INTEGER PRIMARY KEY AUTOINCREMENT,
	  title TEXT NOT NULL,
	  content TEXT,
	  tags TEXT,
	  created_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS user_following (
	  user_id TEXT NOT NULL,
	  twitter_username TEXT NOT NULL,
	  PRIMARY KEY (user_id, twitter_username)
	);
	`)
	return err
}

// Practice is a curated best-practice link.
type Practice struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Subtitle    string    `json:"subtitle,omitempty"`
	URL         string    `json:"url,omitempty"`
	Description string    `json:"description,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	LogoURL     string    `json:"logo_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Image is a curated AI-generated image.
type Image struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Prompt      string    `json:"prompt,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Post is a blog post; archived tweets land here too.
type Post struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func encodeTags(tags []string) string {
	if len(tags) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(tags)
	return string(b)
}

func decodeTags(s string) []string {
	var tags []string
	_ = json.Unmarshal([]byte(s), &tags)
	return tags
}

// CreatePractice inserts a practice and returns it with id and timestamp set.
func (d *DB) CreatePractice(ctx context.Context, p Practice) (Practice, error) {
	p.CreatedAt = time.Now().UTC()
	res, err := d.sql.ExecContext(ctx,
		`INSERT INTO practices(title, subtitle, url, description, tags, logo_url, created_at) VALUES(?,?,?,?,?,?,?)`,
		p.Title, p.Subtitle, p.URL, p.Description, encodeTags(p.Tags), p.LogoURL, p.CreatedAt.Unix())
	if err != nil {
		return p, err
	}
	p.ID, err = res.LastInsertId()
	return p, err
}

// ListPractices returns practices newest first.
func (d *DB) ListPractices(ctx context.Context) ([]Practice, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT id, title, COALESCE(subtitle,''), COALESCE(url,''), COALESCE(description,''), COALESCE(tags,'[]'), COALESCE(logo_url,''), created_at FROM practices ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Practice{}
	for rows.Next() {
		var p Practice
		var tags string
		var ts int64
		if err := rows.Scan(&p.ID, &p.Title, &p.Subtitle, &p.URL, &p.Description, &tags, &p.LogoURL, &ts); err != nil {
			return nil, err
		}
		p.Tags = decodeTags(tags)
		p.CreatedAt = time.Unix(ts, 0).UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdatePractice updates the editable fields of a practice.
func (d *DB) UpdatePractice(ctx context.Context, id int64, title, subtitle, description string) error {
	_, err := d.sql.ExecContext(ctx,
		`UPDATE practices SET title=?, subtitle=?, description=? WHERE id=?`, title, subtitle, description, id)
	return err
}

// DeletePractice removes a practice by id.
func (d *DB) DeletePractice(ctx context.Context, id int64) error {
	_, err := d.sql.ExecContext(ctx, `DELETE FROM practices WHERE id=?`, id)
	return err
}

// CreateImage inserts an image row.
func (d *DB) CreateImage(ctx context.Context, img Image) (Image, error) {
	img.CreatedAt = time.Now().UTC()
	res, err := d.sql.ExecContext(ctx,
		`INSERT INTO images(title, prompt, image_url, description, created_at) VALUES(?,?,?,?,?)`,
		img.Title, img.Prompt, img.ImageURL, img.Description, img.CreatedAt.Unix())
	if err != nil {
		return img, err
	}
	img.ID, err = res.LastInsertId()
	return img, err
}

// ListImages returns images newest first.
func (d *DB) ListImages(ctx context.Context) ([]Image, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT id, title, COALESCE(prompt,''), COALESCE(image_url,''), COALESCE(description,''), created_at FROM images ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Image{}
	for rows.Next() {
		var img Image
		var ts int64
		if err := rows.Scan(&img.ID, &img.Title, &img.Prompt, &img.ImageURL, &img.Description, &ts); err != nil {
			return nil, err
		}
		img.CreatedAt = time.Unix(ts, 0).UTC()
		out = append(out, img)
	}
	return out, rows.Err()
}

// UpdateImage updates the editable fields of an image.
func (d *DB) UpdateImage(ctx context.Context, id int64, title, prompt, imageURL, description string) error {
	_, err := d.sql.ExecContext(ctx,
		`UPDATE images SET title=?, prompt=?, image_url=?, description=? WHERE id=?`, title, prompt, imageURL, description, id)
	return err
}

// DeleteImage removes an image by id.
func (d *DB) DeleteImage(ctx context.Context, id int64) error {
	_, err := d.sql.ExecContext(ctx, `DELETE FROM images WHERE id=?`, id)
	return err
}

// CreatePost inserts a post row.
func (d *DB) CreatePost(ctx context.Context, p Post) (Post, error) {
	p.CreatedAt = time.Now().UTC()
	res, err := d.sql.ExecContext(ctx,
		`INSERT INTO posts(title, content, tags, created_at) VALUES(?,?,?,?)`,
		p.Title, p.Content, encodeTags(p.Tags), p.CreatedAt.Unix())
	if err != nil {
		return p, err
	}
	p.ID, err = res.LastInsertId()
	return p, err
}

// ListPosts returns posts newest first.
func (d *DB) ListPosts(ctx context.Context) ([]Post, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT id, title, COALESCE(content,''), COALESCE(tags,'[]'), created_at FROM posts ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Post{}
	for rows.Next() {
		var p Post
		var tags string
		var ts int64
		if err := rows.Scan(&p.ID, &p.Title, &p.Content, &tags, &ts); err != nil {
			return nil, err
		}
		p.Tags = decodeTags(tags)
		p.CreatedAt = time.Unix(ts, 0).UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}

// SaveFollowing upserts one followed username for a session user.
func (d *DB) SaveFollowing(ctx context.Context, userID, twitterUsername string) error {
	_, err := d.sql.ExecContext(ctx,
		`INSERT OR IGNORE INTO user_following(user_id, twitter_username) VALUES(?,?)`, userID, twitterUsername)
	return err
}

// FollowingUsernames returns the stored following list for a session user.
func (d *DB) FollowingUsernames(ctx context.Context, userID string) ([]string, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT twitter_username FROM user_following WHERE user_id=? ORDER BY twitter_username`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
