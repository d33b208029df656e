package models

import "regexp"

// DateLayout is the calendar-date form written to front-matter.
const DateLayout = "2006-01-02"

// SlugPattern matches slugs that are safe to use as a filename stem.
var SlugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// ValidSlug reports whether slug can name a post file.
func ValidSlug(slug string) bool {
	return SlugPattern.MatchString(slug)
}

type Post struct {
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Date        string   `json:"date"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Draft       bool     `json:"draft"`
	Content     string   `json:"content"`
}

// Clone returns a copy that shares no slices with p.
func (p Post) Clone() Post {
	out := p
	out.Tags = append([]string{}, p.Tags...)
	return out
}

type PostListItem struct {
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Date        string   `json:"date"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

func (p Post) ListItem() PostListItem {
	return PostListItem{
		Slug:        p.Slug,
		Title:       p.Title,
		Date:        p.Date,
		Description: p.Description,
		Tags:        append([]string{}, p.Tags...),
	}
}
