package social

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/choneas/atelier/internal/models"
)

type blueskyFeedResponse struct {
	Feed []blueskyFeedEntry `json:"feed"`
}

type blueskyFeedEntry struct {
	Post blueskyPost `json:"post"`
	// Reason is present on reposted/boosted entries, which are skipped.
	Reason json.RawMessage `json:"reason,omitempty"`
}

type blueskyPost struct {
	URI    string `json:"uri"`
	Author struct {
		Handle      string `json:"handle"`
		DisplayName string `json:"displayName"`
		Avatar      string `json:"avatar"`
	} `json:"author"`
	Record struct {
		Text      string    `json:"text"`
		CreatedAt time.Time `json:"createdAt"`
	} `json:"record"`
	Embed *struct {
		Images []struct {
			Thumb    string `json:"thumb"`
			Fullsize string `json:"fullsize"`
		} `json:"images"`
	} `json:"embed"`
	ReplyCount  int `json:"replyCount"`
	RepostCount int `json:"repostCount"`
	LikeCount   int `json:"likeCount"`
}

// BlueskyPosts returns the handle's recent original posts, cached for a few
// minutes. Any fetch or parse error degrades to an empty list.
func (s *Service) BlueskyPosts(ctx context.Context, handle string, limit int) []models.PostMetadata {
	if handle == "" {
		return []models.PostMetadata{}
	}

	key := fmt.Sprintf("bluesky:%s:%d", handle, limit)
	posts, err := s.feedCache.Get(key, func() ([]models.PostMetadata, error) {
		return s.fetchBlueskyFeed(ctx, handle, limit)
	})
	if err != nil {
		s.logger.Warn("Failed to fetch Bluesky feed",
			zap.String("handle", handle),
			zap.Error(err))
		return []models.PostMetadata{}
	}
	return posts
}

func (s *Service) fetchBlueskyFeed(ctx context.Context, handle string, limit int) ([]models.PostMetadata, error) {
	endpoint := fmt.Sprintf("%s/xrpc/app.bsky.feed.getAuthorFeed?actor=%s&limit=%d",
		s.config.BlueskyAPIBase, url.QueryEscape(handle), limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("bluesky API returned status %d: %s", resp.StatusCode, string(body))
	}

	var response blueskyFeedResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	posts := make([]models.PostMetadata, 0, len(response.Feed))
	for _, entry := range response.Feed {
		if len(entry.Reason) > 0 {
			continue
		}
		posts = append(posts, mapBlueskyPost(entry.Post, handle))
		if len(posts) >= limit {
			break
		}
	}

	// Feed entries usually embed the author avatar; backfill from the
	// profile when one omits it.
	for i := range posts {
		if posts[i].Icon != "" {
			continue
		}
		avatar := s.BlueskyAvatar(ctx, handle)
		if avatar == "" {
			break
		}
		for j := i; j < len(posts); j++ {
			if posts[j].Icon == "" {
				posts[j].Icon = avatar
			}
		}
		break
	}
	return posts, nil
}

func mapBlueskyPost(post blueskyPost, handle string) models.PostMetadata {
	// The post ID is the record key, the tail segment of the AT-URI.
	postID := post.URI
	if i := strings.LastIndex(post.URI, "/"); i >= 0 {
		postID = post.URI[i+1:]
	}

	metadata := models.PostMetadata{
		ID:             postID,
		Title:          post.Record.Text,
		Type:           models.PostTypeTweet,
		Platform:       models.PlatformBluesky,
		Icon:           post.Author.Avatar,
		CreatedTime:    post.Record.CreatedAt,
		LastEditedTime: post.Record.CreatedAt,
		Social: &models.SocialInfo{
			PostID:   postID,
			Username: handle,
			Stats: &models.SocialStats{
				Replies: post.ReplyCount,
				Reposts: post.RepostCount,
				Likes:   post.LikeCount,
			},
		},
	}

	if post.Embed != nil {
		for _, image := range post.Embed.Images {
			metadata.Photos = append(metadata.Photos, image.Fullsize)
		}
	}

	return metadata
}

// BlueskyAvatar returns the handle's profile avatar URL, cached for an
// hour. Errors degrade to an empty string.
func (s *Service) BlueskyAvatar(ctx context.Context, handle string) string {
	if handle == "" {
		return ""
	}

	avatar, err := s.avatarCache.Get("bluesky:"+handle, func() (string, error) {
		endpoint := fmt.Sprintf("%s/xrpc/app.bsky.actor.getProfile?actor=%s",
			s.config.BlueskyAPIBase, url.QueryEscape(handle))

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return "", fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := s.client.Do(req)
		if err != nil {
			return "", fmt.Errorf("failed to make request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("bluesky API returned status %d", resp.StatusCode)
		}

		var profile struct {
			Avatar string `json:"avatar"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
			return "", fmt.Errorf("failed to decode response: %w", err)
		}
		return profile.Avatar, nil
	})
	if err != nil {
		s.logger.Warn("Failed to fetch Bluesky avatar",
			zap.String("handle", handle),
			zap.Error(err))
		return ""
	}
	return avatar
}
