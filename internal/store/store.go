package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Cybeaster/BlogWebsite/internal/models"
)

const fileExt = ".md"

var (
	ErrNotFound    = errors.New("post not found")
	ErrConflict    = errors.New("post already exists")
	ErrInvalidSlug = errors.New("invalid slug")
)

// Store keeps posts as Markdown files in a single directory, one file per
// slug. It holds no locks across operations: concurrent updates of the same
// slug are last-writer-wins.
type Store struct {
	dir   string
	now   func() time.Time
	log   *zap.Logger
	cache *listingCache
}

type Option func(*Store)

// WithListingCache keeps parsed listings in memory between calls.
func WithListingCache() Option {
	return func(s *Store) {
		s.cache = &listingCache{}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock overrides the clock used for date defaults.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func NewStore(dir string, opts ...Option) *Store {
	s := &Store{
		dir: dir,
		now: time.Now,
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the content directory.
func (s *Store) Dir() string {
	return s.dir
}

// ListPosts returns every post, drafts included, newest first.
func (s *Store) ListPosts(ctx context.Context) ([]models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.cache == nil {
		return s.readAll()
	}
	if posts, ok := s.cache.get(); ok {
		return posts, nil
	}
	generation := s.cache.begin()
	posts, err := s.readAll()
	if err != nil {
		return nil, err
	}
	s.cache.store(generation, posts)
	return posts, nil
}

// ListPublished returns non-draft posts, newest first.
func (s *Store) ListPublished(ctx context.Context) ([]models.Post, error) {
	all, err := s.ListPosts(ctx)
	if err != nil {
		return nil, err
	}
	published := make([]models.Post, 0, len(all))
	for _, post := range all {
		if !post.Draft {
			published = append(published, post)
		}
	}
	return published, nil
}

// PublishedSlugs lists the slugs that have a public detail page.
func (s *Store) PublishedSlugs(ctx context.Context) ([]string, error) {
	posts, err := s.ListPublished(ctx)
	if err != nil {
		return nil, err
	}
	slugs := make([]string, len(posts))
	for i, post := range posts {
		slugs[i] = post.Slug
	}
	return slugs, nil
}

func (s *Store) GetPost(ctx context.Context, slug string) (*models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !models.ValidSlug(slug) {
		return nil, ErrNotFound
	}
	post, err := s.readPost(slug)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// GetPublishedPost is GetPost for the public reader: drafts are not found.
func (s *Store) GetPublishedPost(ctx context.Context, slug string) (*models.Post, error) {
	post, err := s.GetPost(ctx, slug)
	if err != nil {
		return nil, err
	}
	if post.Draft {
		return nil, ErrNotFound
	}
	return post, nil
}

// CreatePost writes a new post file. Missing date, description and tags are
// filled in before writing.
func (s *Store) CreatePost(ctx context.Context, post models.Post) (*models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !models.ValidSlug(post.Slug) {
		return nil, ErrInvalidSlug
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create content dir: %w", err)
	}

	created := s.withWriteDefaults(post)
	data, err := marshalPost(created)
	if err != nil {
		return nil, err
	}
	if err := writeExclusive(s.path(created.Slug), data); err != nil {
		return nil, fmt.Errorf("create post %s: %w", created.Slug, err)
	}
	s.invalidate()
	return &created, nil
}

// UpdatePost rewrites the post stored under slug. When post.Slug names a
// different slug the file is moved: the new file is written first, then the
// old one removed. If the removal fails the new file is removed again so the
// store is left as it was.
func (s *Store) UpdatePost(ctx context.Context, slug string, post models.Post) (*models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !models.ValidSlug(slug) {
		return nil, ErrNotFound
	}
	oldPath := s.path(slug)
	if _, err := os.Stat(oldPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("stat post %s: %w", slug, err)
	}

	if post.Slug == "" {
		post.Slug = slug
	}
	if !models.ValidSlug(post.Slug) {
		return nil, ErrInvalidSlug
	}
	updated := s.withWriteDefaults(post)
	data, err := marshalPost(updated)
	if err != nil {
		return nil, err
	}

	if updated.Slug == slug {
		if err := writeReplace(oldPath, data); err != nil {
			return nil, fmt.Errorf("update post %s: %w", slug, err)
		}
		s.invalidate()
		return &updated, nil
	}

	newPath := s.path(updated.Slug)
	if err := writeExclusive(newPath, data); err != nil {
		return nil, fmt.Errorf("rename post %s to %s: %w", slug, updated.Slug, err)
	}
	if err := os.Remove(oldPath); err != nil {
		if rbErr := os.Remove(newPath); rbErr != nil {
			s.log.Error("rename rollback failed, both files remain",
				zap.String("slug", slug),
				zap.String("new_slug", updated.Slug),
				zap.Error(rbErr),
			)
		}
		s.invalidate()
		return nil, fmt.Errorf("remove old post %s: %w", slug, err)
	}
	s.invalidate()
	return &updated, nil
}

func (s *Store) DeletePost(ctx context.Context, slug string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !models.ValidSlug(slug) {
		return ErrNotFound
	}
	if err := os.Remove(s.path(slug)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("delete post %s: %w", slug, err)
	}
	s.invalidate()
	return nil
}

func (s *Store) path(slug string) string {
	return filepath.Join(s.dir, slug+fileExt)
}

func (s *Store) invalidate() {
	if s.cache != nil {
		s.cache.invalidate()
	}
}

func (s *Store) withWriteDefaults(post models.Post) models.Post {
	out := post.Clone()
	if out.Date == "" {
		out.Date = s.now().Format(models.DateLayout)
	}
	return out
}

func (s *Store) readPost(slug string) (models.Post, error) {
	data, err := os.ReadFile(s.path(slug))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.Post{}, ErrNotFound
		}
		return models.Post{}, fmt.Errorf("read post %s: %w", slug, err)
	}
	return parsePost(slug, data, s.now())
}

func (s *Store) readAll() ([]models.Post, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []models.Post{}, nil
		}
		return nil, fmt.Errorf("list posts: %w", err)
	}

	posts := make([]models.Post, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		slug := strings.TrimSuffix(name, fileExt)
		if !models.ValidSlug(slug) {
			s.log.Warn("skipping post file with invalid slug", zap.String("file", name))
			continue
		}
		post, err := s.readPost(slug)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}

	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Date > posts[j].Date
	})
	return posts, nil
}

// writeExclusive creates path and fails with ErrConflict if it already exists.
func writeExclusive(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return ErrConflict
		}
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}

// writeReplace swaps the file contents through a temp file in the same
// directory so readers see either the old or the new post.
func writeReplace(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*"+fileExt+"~")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
