package store

import (
	"bytes"
	"fmt"
	"time"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"

	"github.com/Cybeaster/BlogWebsite/internal/models"
)

// postMeta is the front-matter block as read from disk. Loosely typed fields
// accept whatever a hand-written file puts there.
type postMeta struct {
	Title       string `yaml:"title"`
	Date        any    `yaml:"date"`
	Description string `yaml:"description"`
	Tags        any    `yaml:"tags"`
	Draft       bool   `yaml:"draft"`
}

// fileMeta is the front-matter block as written; field order is the key order.
type fileMeta struct {
	Title       string   `yaml:"title"`
	Date        string   `yaml:"date"`
	Description string   `yaml:"description"`
	Tags        []string `yaml:"tags"`
	Draft       bool     `yaml:"draft"`
}

const delimiter = "---\n"

func parsePost(slug string, source []byte, now time.Time) (models.Post, error) {
	var meta postMeta
	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return models.Post{}, fmt.Errorf("parse front-matter for %s: %w", slug, err)
	}

	post := models.Post{
		Slug:        slug,
		Title:       meta.Title,
		Date:        normalizeDate(meta.Date),
		Description: meta.Description,
		Tags:        normalizeTags(meta.Tags),
		Draft:       meta.Draft,
		Content:     string(body),
	}
	applyDefaults(&post, now)
	return post, nil
}

// applyDefaults fills the fields a post file may omit. Every read path goes
// through here so admin and public views agree.
func applyDefaults(post *models.Post, now time.Time) {
	if post.Title == "" {
		post.Title = post.Slug
	}
	if post.Date == "" {
		post.Date = now.Format(models.DateLayout)
	}
	if post.Tags == nil {
		post.Tags = []string{}
	}
}

func marshalPost(post models.Post) ([]byte, error) {
	tags := post.Tags
	if tags == nil {
		tags = []string{}
	}
	meta, err := yaml.Marshal(fileMeta{
		Title:       post.Title,
		Date:        post.Date,
		Description: post.Description,
		Tags:        tags,
		Draft:       post.Draft,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal front-matter: %w", err)
	}

	var buf bytes.Buffer
	buf.Grow(len(meta) + len(post.Content) + 2*len(delimiter))
	buf.WriteString(delimiter)
	buf.Write(meta)
	buf.WriteString(delimiter)
	buf.WriteString(post.Content)
	return buf.Bytes(), nil
}

func normalizeDate(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case time.Time:
		if v.Hour() == 0 && v.Minute() == 0 && v.Second() == 0 && v.Nanosecond() == 0 {
			return v.Format(models.DateLayout)
		}
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}

func normalizeTags(value any) []string {
	items, ok := value.([]any)
	if !ok {
		return []string{}
	}
	tags := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			tags = append(tags, s)
			continue
		}
		tags = append(tags, fmt.Sprint(item))
	}
	return tags
}
