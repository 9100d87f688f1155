// Package models defines the data structures shared by the optimizer components.
package models

import "encoding/json"

// StatusPublish is the only post status the optimizer touches.
const StatusPublish = "publish"

// Rendered is a WP REST field exposing rendered HTML and, in edit context, the raw value.
type Rendered struct {
	Raw      string `json:"raw,omitempty"`
	Rendered string `json:"rendered"`
}

// Value prefers the raw value, which is what an update must round-trip.
func (r Rendered) Value() string {
	if r.Raw != "" {
		return r.Raw
	}

	return r.Rendered
}

// YoastHead is the subset of yoast_head_json the optimizer inspects.
type YoastHead struct {
	Description string `json:"description,omitempty"`
}

// Post is a WordPress post as returned by /wp/v2/posts.
type Post struct {
	Meta      json.RawMessage `json:"meta,omitempty"`
	YoastHead *YoastHead      `json:"yoast_head_json,omitempty"`
	Title     Rendered        `json:"title"`
	Content   Rendered        `json:"content"`
	Slug      string          `json:"slug"`
	Status    string          `json:"status"`
	Link      string          `json:"link,omitempty"`
	ID        int             `json:"id"`
}

// IsPublished reports whether the post is in scope.
func (p *Post) IsPublished() bool {
	return p.Status == StatusPublish
}

// RawSeoPayload is the plugin-specific metadata of a single post, unparsed.
type RawSeoPayload struct {
	Meta      json.RawMessage
	YoastHead *YoastHead
}

// SeoPayload extracts the plugin metadata carried by the post.
func (p *Post) SeoPayload() *RawSeoPayload {
	return &RawSeoPayload{
		Meta:      p.Meta,
		YoastHead: p.YoastHead,
	}
}

// PostUpdate is a partial update; nil fields are left out of the request.
type PostUpdate struct {
	Title   *string        `json:"title,omitempty"`
	Content *string        `json:"content,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// IsEmpty reports whether the update carries no field at all.
func (u PostUpdate) IsEmpty() bool {
	return u.Title == nil && u.Content == nil && len(u.Meta) == 0
}
