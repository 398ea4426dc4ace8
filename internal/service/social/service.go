// Package social aggregates posts from external social feeds into the
// normalized metadata model. Social content is optional enhancement:
// every source error degrades to an empty result, never a failure of the
// calling page.
package social

import (
	"context"
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/choneas/atelier/internal/cache"
	"github.com/choneas/atelier/internal/config"
	"github.com/choneas/atelier/internal/models"
)

const (
	// Feed content is volatile; avatars barely change.
	feedTTL   = 5 * time.Minute
	avatarTTL = time.Hour

	// Default per-attempt bound on relay-chain requests.
	relayAttemptTimeout = 5 * time.Second
)

type Service struct {
	config *config.SocialConfig
	logger *zap.Logger
	client *http.Client

	// relayTimeout bounds each relay-chain attempt, including avatar
	// scrapes. There is no chain-level deadline.
	relayTimeout time.Duration

	feedCache   *cache.Map[[]models.PostMetadata]
	avatarCache *cache.Map[string]
}

func NewService(cfg *config.SocialConfig, rt http.RoundTripper, logger *zap.Logger) *Service {
	if rt == nil {
		rt = &http.Transport{
			IdleConnTimeout:     120 * time.Second,
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
			TLSHandshakeTimeout: 20 * time.Second,
		}
	}
	return &Service{
		config:       cfg,
		logger:       logger,
		client:       &http.Client{Transport: rt},
		relayTimeout: relayAttemptTimeout,
		feedCache:    cache.NewMap[[]models.PostMetadata](feedTTL),
		avatarCache:  cache.NewMap[string](avatarTTL),
	}
}

// Posts fetches both configured sources concurrently and merges the
// results newest first. It never fails: sources that error contribute
// nothing.
func (s *Service) Posts(ctx context.Context, limit int) []models.PostMetadata {
	var bluesky, twitter []models.PostMetadata

	var group errgroup.Group
	group.Go(func() error {
		bluesky = s.BlueskyPosts(ctx, s.config.BlueskyHandle, limit)
		return nil
	})
	group.Go(func() error {
		twitter = s.TwitterPosts(ctx, s.config.TwitterUsername, limit)
		return nil
	})
	group.Wait()

	posts := make([]models.PostMetadata, 0, len(bluesky)+len(twitter))
	posts = append(posts, bluesky...)
	posts = append(posts, twitter...)

	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedTime.After(posts[j].CreatedTime)
	})

	return posts
}
