package notion

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/choneas/atelier/internal/cache"
	"github.com/choneas/atelier/internal/config"
	"github.com/choneas/atelier/internal/models"
)

// Semantic property names the projection logic understands. The collection
// may carry more columns; unknown ones are ignored.
const (
	PropSlug     = "Slug"
	PropCategory = "Category"
	PropAuthor   = "Author"
	PropDraft    = "Draft"
	PropID       = "ID"
)

// Root page trees go stale quickly as articles are edited; schemas change
// only on manual CMS reconfiguration, so they live until restart.
const rootTreeTTL = time.Hour

type Service struct {
	client *Client
	logger *zap.Logger

	rootPageID   string
	collectionID string
	authors      map[string]models.Author

	rootCache   *cache.Value[*PageTree]
	schemaCache *cache.Value[[]models.PropertySchema]
}

func NewService(cfg *config.NotionConfig, authors []config.AuthorEntry, client *Client, logger *zap.Logger) *Service {
	directory := make(map[string]models.Author, len(authors))
	for _, entry := range authors {
		directory[entry.UUID] = models.Author{
			ID:     entry.UUID,
			Name:   entry.Name,
			Avatar: entry.Avatar,
			URL:    entry.URL,
		}
	}

	return &Service{
		client:       client,
		logger:       logger,
		rootPageID:   cfg.RootPageID,
		collectionID: cfg.CollectionID,
		authors:      directory,
		rootCache:    cache.NewValue[*PageTree](rootTreeTTL),
		schemaCache:  cache.NewValue[[]models.PropertySchema](0),
	}
}

// rootTree returns the cached root page tree, refreshing it after expiry.
// The root tree is an index over all article blocks, not a content source.
func (s *Service) rootTree(ctx context.Context) (*PageTree, error) {
	return s.rootCache.Get(func() (*PageTree, error) {
		s.logger.Info("Fetching root page tree", zap.String("page_id", s.rootPageID))
		return s.client.FetchPageTree(ctx, s.rootPageID)
	})
}

// PropertySchemas resolves the designated collection's column schema into
// an ordered list, cached for the process lifetime. Restarting the service
// is the invalidation path after a CMS schema change.
func (s *Service) PropertySchemas(ctx context.Context) ([]models.PropertySchema, error) {
	return s.schemaCache.Get(func() ([]models.PropertySchema, error) {
		tree, err := s.rootTree(ctx)
		if err != nil {
			return nil, err
		}

		collectionID, err := CompactIDToUUID(s.collectionID)
		if err != nil {
			return nil, fmt.Errorf("invalid collection id %q: %w", s.collectionID, err)
		}

		schema, ok := tree.Collections[collectionID]
		if !ok {
			return nil, fmt.Errorf("collection %s not present in root page tree", collectionID)
		}

		schemas := make([]models.PropertySchema, 0, len(schema))
		for key, column := range schema {
			entry := models.PropertySchema{
				Key:  key,
				Name: column.Name,
				Type: column.Type,
			}
			for _, option := range column.Options {
				entry.Options = append(entry.Options, option.Value)
			}
			schemas = append(schemas, entry)
		}
		sort.Slice(schemas, func(i, j int) bool { return schemas[i].Key < schemas[j].Key })

		s.logger.Info("Resolved collection schema",
			zap.String("collection_id", collectionID),
			zap.Int("properties", len(schemas)))
		return schemas, nil
	})
}

// findProperty locates the schema entry with the given semantic name and
// type. Missing entries are tolerated by callers, not an error.
func findProperty(schemas []models.PropertySchema, name, typ string) (models.PropertySchema, bool) {
	for _, schema := range schemas {
		if schema.Name == name && schema.Type == typ {
			return schema, true
		}
	}
	return models.PropertySchema{}, false
}

func findPropertyByType(schemas []models.PropertySchema, typ string) (models.PropertySchema, bool) {
	for _, schema := range schemas {
		if schema.Type == typ {
			return schema, true
		}
	}
	return models.PropertySchema{}, false
}
