package social

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/choneas/atelier/internal/models"
)

// Canonical avatar host scraped avatars are rewritten onto.
const twitterImageHost = "pbs.twimg.com"

type relayResponse struct {
	Status string      `json:"status"`
	Items  []relayItem `json:"items"`
}

type relayItem struct {
	GUID        string `json:"guid"`
	Title       string `json:"title"`
	Description string `json:"description"`
	PubDate     string `json:"pubDate"`
	Link        string `json:"link"`
	Enclosure   struct {
		Link string `json:"link"`
	} `json:"enclosure"`
}

// TwitterPosts returns the username's recent posts via the mirror-instance
// relay chain, cached for a few minutes. An exhausted chain or any other
// failure degrades to an empty list.
func (s *Service) TwitterPosts(ctx context.Context, username string, limit int) []models.PostMetadata {
	if username == "" {
		return []models.PostMetadata{}
	}

	key := fmt.Sprintf("twitter:%s:%d", username, limit)
	posts, err := s.feedCache.Get(key, func() ([]models.PostMetadata, error) {
		return s.fetchTwitterFeed(ctx, username, limit)
	})
	if err != nil {
		s.logger.Warn("Failed to fetch Twitter feed",
			zap.String("username", username),
			zap.Error(err))
		return []models.PostMetadata{}
	}
	return posts
}

// fetchTwitterFeed walks the instance list in order, one attempt each, and
// returns the first structurally valid response. Every instance failing is
// not an error, just an empty feed.
func (s *Service) fetchTwitterFeed(ctx context.Context, username string, limit int) ([]models.PostMetadata, error) {
	for _, instance := range s.config.NitterInstances {
		posts, err := s.fetchRelayFeed(ctx, instance, username, limit)
		if err != nil {
			s.logger.Debug("Mirror instance failed, trying next",
				zap.String("instance", instance),
				zap.String("username", username),
				zap.Error(err))
			continue
		}
		// The relay items carry no author imagery; the scraped profile
		// avatar is the icon for every mapped post.
		if len(posts) > 0 {
			if avatar := s.TwitterAvatar(ctx, username); avatar != "" {
				for i := range posts {
					posts[i].Icon = avatar
				}
			}
		}
		return posts, nil
	}

	s.logger.Warn("All mirror instances exhausted",
		zap.String("username", username),
		zap.Int("instances", len(s.config.NitterInstances)))
	return []models.PostMetadata{}, nil
}

func (s *Service) fetchRelayFeed(ctx context.Context, instance, username string, limit int) ([]models.PostMetadata, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, s.relayTimeout)
	defer cancel()

	feedURL := fmt.Sprintf("%s/%s/rss", instanceURL(instance), username)
	endpoint := fmt.Sprintf("%s?rss_url=%s", s.config.RSS2JSONBase, url.QueryEscape(feedURL))

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("relay returned status %d", resp.StatusCode)
	}

	var response relayResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if response.Status != "ok" {
		return nil, fmt.Errorf("relay returned status %q", response.Status)
	}

	posts := make([]models.PostMetadata, 0, limit)
	for _, item := range response.Items {
		if len(posts) >= limit {
			break
		}
		posts = append(posts, mapRelayItem(item, username))
	}
	return posts, nil
}

func mapRelayItem(item relayItem, username string) models.PostMetadata {
	postID := item.GUID
	if i := strings.LastIndex(postID, "/status/"); i >= 0 {
		postID = postID[i+len("/status/"):]
	}
	postID = strings.TrimSuffix(postID, "#m")

	created := parseRelayDate(item.PubDate)

	metadata := models.PostMetadata{
		ID:             postID,
		Title:          html.UnescapeString(item.Title),
		Type:           models.PostTypeTweet,
		Platform:       models.PlatformX,
		CreatedTime:    created,
		LastEditedTime: created,
		Social: &models.SocialInfo{
			PostID:   postID,
			Username: username,
		},
	}

	if item.Enclosure.Link != "" {
		metadata.Photos = append(metadata.Photos, item.Enclosure.Link)
	}

	return metadata
}

// instanceURL allows instances configured either as bare hostnames or as
// full URLs.
func instanceURL(instance string) string {
	if strings.Contains(instance, "://") {
		return instance
	}
	return "https://" + instance
}

func parseRelayDate(raw string) time.Time {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC1123Z, time.RFC1123} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// TwitterAvatar scrapes the username's avatar from the first responsive
// mirror instance's profile page and rewrites it onto the canonical image
// host. Best effort: failures degrade to an empty string.
func (s *Service) TwitterAvatar(ctx context.Context, username string) string {
	if username == "" {
		return ""
	}

	avatar, err := s.avatarCache.Get("twitter:"+username, func() (string, error) {
		for _, instance := range s.config.NitterInstances {
			avatar, err := s.scrapeAvatar(ctx, instance, username)
			if err != nil {
				s.logger.Debug("Avatar scrape failed, trying next",
					zap.String("instance", instance),
					zap.Error(err))
				continue
			}
			return avatar, nil
		}
		return "", nil
	})
	if err != nil {
		return ""
	}
	return avatar
}

// Mirror instances serve avatars as URL-escaped upstream paths under /pic/.
const avatarMarker = "/pic/" + twitterImageHost + "%2Fprofile_images%2F"

func (s *Service) scrapeAvatar(ctx context.Context, instance, username string) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, s.relayTimeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/%s", instanceURL(instance), username)
	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("instance returned status %d", resp.StatusCode)
	}

	// Profile pages are small; cap the read anyway.
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	page := string(body)
	start := strings.Index(page, avatarMarker)
	if start < 0 {
		return "", fmt.Errorf("no avatar found on profile page")
	}

	escaped := page[start+len("/pic/"):]
	if end := strings.IndexAny(escaped, `"'`); end >= 0 {
		escaped = escaped[:end]
	}

	path, err := url.PathUnescape(escaped)
	if err != nil {
		return "", fmt.Errorf("failed to unescape avatar path: %w", err)
	}

	return "https://" + path, nil
}
