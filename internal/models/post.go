package models

import "time"

// Platform identifies the system a post originates from.
type Platform string

const (
	PlatformNotion  Platform = "notion"
	PlatformX       Platform = "x"
	PlatformBluesky Platform = "bluesky"
)

// PostType is the coarse content kind shown to readers.
type PostType string

const (
	PostTypeArticle PostType = "Article"
	PostTypeTweet   PostType = "Tweet"
)

// TOCEntry is one table-of-contents row extracted from a page's header
// blocks. IndentLevel is 0 for top-level headers, up to 2 for sub-sub
// headers.
type TOCEntry struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	IndentLevel int    `json:"indent_level"`
}

// Author is a resolved author record from the static author directory.
type Author struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
	URL    string `json:"url,omitempty"`
}

// CoverImage carries a post's cover plus the crop position the CMS stores
// alongside it. Position is a 0..1 vertical offset, passed through
// unchanged.
type CoverImage struct {
	URL        string  `json:"url"`
	PreviewURL string  `json:"preview_url,omitempty"`
	Position   float64 `json:"position"`
}

// SocialStats are engagement counters copied verbatim from the source feed.
type SocialStats struct {
	Replies int `json:"replies"`
	Reposts int `json:"reposts"`
	Likes   int `json:"likes"`
}

// ArticleInfo is the payload present only on CMS-sourced posts
// (Platform == notion). NotionID is the hyphenated page UUID; it is never
// placed in URLs directly, links use the compact hex form or the slug.
type ArticleInfo struct {
	NotionID string     `json:"notion_id"`
	Slug     string     `json:"slug,omitempty"`
	Category []string   `json:"category,omitempty"`
	TOC      []TOCEntry `json:"toc,omitempty"`
	Authors  []Author   `json:"authors,omitempty"`
	Draft    bool       `json:"draft"`
}

// SocialInfo is the payload present only on social-sourced posts
// (Platform == x or bluesky).
type SocialInfo struct {
	PostID   string       `json:"post_id"`
	Username string       `json:"username"`
	Stats    *SocialStats `json:"stats,omitempty"`
}

// PostMetadata is the normalized record every content source projects
// into. Platform is the discriminant: exactly one of Article or Social is
// set, matching it.
type PostMetadata struct {
	ID             string       `json:"id"`
	Title          string       `json:"title"`
	Type           PostType     `json:"type"`
	Platform       Platform     `json:"platform"`
	Description    string       `json:"description,omitempty"`
	Icon           string       `json:"icon,omitempty"`
	Cover          *CoverImage  `json:"cover,omitempty"`
	Photos         []string     `json:"photos,omitempty"`
	CreatedTime    time.Time    `json:"created_time"`
	LastEditedTime time.Time    `json:"last_edited_time"`
	Article        *ArticleInfo `json:"article,omitempty"`
	Social         *SocialInfo  `json:"social,omitempty"`
}

// PropertySchema maps one opaque collection column key (an unstable short
// code assigned by the CMS) to its stable semantic name and type. The
// schema list is the only place opaque keys appear; all projection logic
// goes through it.
type PropertySchema struct {
	Key     string   `json:"key"`
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Options []string `json:"options,omitempty"`
}
