package notion

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/choneas/atelier/internal/models"
	"github.com/choneas/atelier/pkg/util"
)

// ArticleNotFoundError reports an identifier that matched no article.
// Callers translate it into a user-facing not-found response; it is never
// retried.
type ArticleNotFoundError struct {
	Identifier string
}

func (e *ArticleNotFoundError) Error() string {
	return fmt.Sprintf("article not found: %s", e.Identifier)
}

// Localizer maps a raw CMS category value to its display label for the
// request's locale.
type Localizer func(category string) string

// ResolvePage locates the article identified by a slug, numeric display ID
// or page UUID, fetches its full page tree and projects it into normalized
// metadata.
//
// A 32-hex identifier is used directly as the page UUID. A purely numeric
// identifier is matched against the schema-resolved "ID" property of the
// indexed article blocks; anything else is matched against "Slug". The
// index scan follows the root tree's native block order, so duplicate
// slugs or IDs resolve arbitrarily; uniqueness is an editorial invariant
// of the CMS, not enforced here.
func (s *Service) ResolvePage(ctx context.Context, identifier string, localize Localizer) (*PageTree, *models.PostMetadata, error) {
	schemas, err := s.PropertySchemas(ctx)
	if err != nil {
		return nil, nil, err
	}

	var targetID string
	if IsCompactID(identifier) {
		targetID, err = CompactIDToUUID(identifier)
		if err != nil {
			return nil, nil, &ArticleNotFoundError{Identifier: identifier}
		}
	} else {
		targetID, err = s.scanIndex(ctx, identifier, schemas)
		if err != nil {
			return nil, nil, err
		}
	}

	// The root tree is only an index; article content always comes from a
	// fresh fetch of the page's own tree.
	tree, err := s.client.FetchPageTree(ctx, targetID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch page tree: %w", err)
	}

	page, ok := tree.Root()
	if !ok {
		return nil, nil, &ArticleNotFoundError{Identifier: identifier}
	}

	metadata := s.project(page, schemas, localize)
	s.extendFromTree(tree, page, metadata)

	return tree, metadata, nil
}

// scanIndex finds the page UUID for a numeric ID or slug by scanning the
// cached root tree's article blocks.
func (s *Service) scanIndex(ctx context.Context, identifier string, schemas []models.PropertySchema) (string, error) {
	tree, err := s.rootTree(ctx)
	if err != nil {
		return "", err
	}

	collectionID, err := CompactIDToUUID(s.collectionID)
	if err != nil {
		return "", fmt.Errorf("invalid collection id %q: %w", s.collectionID, err)
	}

	name, typ := PropSlug, "text"
	if IsNumeric(identifier) {
		name, typ = PropID, "auto_increment_id"
	}
	property, ok := findProperty(schemas, name, typ)
	if !ok {
		return "", &ArticleNotFoundError{Identifier: identifier}
	}

	for id, block := range tree.Blocks {
		if !isArticleBlock(block, collectionID) {
			continue
		}
		if PlainText(block.Properties[property.Key]) == identifier {
			return id, nil
		}
	}

	return "", &ArticleNotFoundError{Identifier: identifier}
}

func isArticleBlock(block Block, collectionID string) bool {
	return block.Type == "page" && block.ParentTable == "collection" && block.ParentID == collectionID
}

// ListArticles projects every indexed article block into metadata without
// fetching individual page trees. Drafts are skipped unless requested.
// Results are ordered newest first.
func (s *Service) ListArticles(ctx context.Context, localize Localizer, includeDrafts bool) ([]models.PostMetadata, error) {
	schemas, err := s.PropertySchemas(ctx)
	if err != nil {
		return nil, err
	}

	tree, err := s.rootTree(ctx)
	if err != nil {
		return nil, err
	}

	collectionID, err := CompactIDToUUID(s.collectionID)
	if err != nil {
		return nil, fmt.Errorf("invalid collection id %q: %w", s.collectionID, err)
	}

	var posts []models.PostMetadata
	for _, block := range tree.Blocks {
		if !isArticleBlock(block, collectionID) {
			continue
		}
		metadata := s.project(block, schemas, localize)
		if metadata.Article.Draft && !includeDrafts {
			continue
		}
		posts = append(posts, *metadata)
	}

	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedTime.After(posts[j].CreatedTime)
	})

	return posts, nil
}

// project builds the normalized metadata record for one article block from
// its schema-keyed raw properties. Missing schema entries leave the
// corresponding field unset.
func (s *Service) project(page Block, schemas []models.PropertySchema, localize Localizer) *models.PostMetadata {
	article := &models.ArticleInfo{NotionID: page.ID}

	metadata := &models.PostMetadata{
		Type:           models.PostTypeArticle,
		Platform:       models.PlatformNotion,
		CreatedTime:    millisToTime(page.CreatedTime),
		LastEditedTime: millisToTime(page.LastEditedTime),
		Article:        article,
	}

	if property, ok := findPropertyByType(schemas, "title"); ok {
		metadata.Title = PlainText(page.Properties[property.Key])
	}
	if metadata.Title == "" {
		// The page's own title property is stored under the literal key
		// "title" regardless of schema.
		metadata.Title = PlainText(page.Properties["title"])
	}

	// Numeric display ID wins over the UUID-based fallback for links.
	if compact, err := UUIDToCompactID(page.ID); err == nil {
		metadata.ID = compact
	}
	if property, ok := findProperty(schemas, PropID, "auto_increment_id"); ok {
		if id := PlainText(page.Properties[property.Key]); id != "" {
			metadata.ID = id
		}
	}

	if property, ok := findProperty(schemas, PropSlug, "text"); ok {
		article.Slug = PlainText(page.Properties[property.Key])
	}

	for _, property := range schemas {
		if property.Type != "multi_select" || property.Name != PropCategory {
			continue
		}
		for _, value := range util.SplitCSV(PlainText(page.Properties[property.Key])) {
			if localize != nil {
				value = localize(value)
			}
			article.Category = append(article.Category, value)
		}
	}

	if property, ok := findProperty(schemas, PropAuthor, "person"); ok {
		for _, userID := range PersonIDs(page.Properties[property.Key]) {
			author, ok := s.authors[userID]
			if !ok {
				s.logger.Debug("Unknown author in page properties",
					zap.String("page_id", page.ID),
					zap.String("user_id", userID))
				continue
			}
			article.Authors = append(article.Authors, author)
		}
	}

	if property, ok := findProperty(schemas, PropDraft, "checkbox"); ok {
		article.Draft = PlainText(page.Properties[property.Key]) == "Yes"
	}

	if page.Format != nil {
		if icon := page.Format.PageIcon; icon != "" {
			if strings.HasPrefix(icon, "http") || strings.HasPrefix(icon, "/") {
				metadata.Icon = s.client.MapImageURL(icon, page.ID)
			} else {
				metadata.Icon = icon
			}
		}
		if cover := page.Format.PageCover; cover != "" {
			metadata.Cover = &models.CoverImage{
				URL:      s.client.MapImageURL(cover, page.ID),
				Position: page.Format.PageCoverPosition,
			}
		}
	}

	return metadata
}

// extendFromTree fills the metadata fields that need the full page tree:
// table of contents, description and the ordered photo list.
func (s *Service) extendFromTree(tree *PageTree, page Block, metadata *models.PostMetadata) {
	visited := make(map[string]bool)
	s.walkContent(tree, page, visited, metadata)
}

var headerIndent = map[string]int{
	"header":         0,
	"sub_header":     1,
	"sub_sub_header": 2,
}

func (s *Service) walkContent(tree *PageTree, block Block, visited map[string]bool, metadata *models.PostMetadata) {
	for _, childID := range block.Content {
		if visited[childID] {
			continue
		}
		visited[childID] = true

		child, ok := tree.Blocks[childID]
		if !ok {
			continue
		}

		switch {
		case headerIndent[child.Type] > 0 || child.Type == "header":
			text := PlainText(child.Properties["title"])
			if text == "" {
				break
			}
			id := childID
			if compact, err := UUIDToCompactID(childID); err == nil {
				id = compact
			}
			metadata.Article.TOC = append(metadata.Article.TOC, models.TOCEntry{
				ID:          id,
				Text:        text,
				IndentLevel: headerIndent[child.Type],
			})
		case child.Type == "text":
			if metadata.Description == "" {
				metadata.Description = util.Truncate(PlainText(child.Properties["title"]), 200)
			}
		case child.Type == "image":
			source := ""
			if child.Format != nil {
				source = child.Format.DisplaySource
			}
			if source == "" {
				source = PlainText(child.Properties["source"])
			}
			if source != "" {
				metadata.Photos = append(metadata.Photos, s.client.MapImageURL(source, childID))
			}
		}

		if len(child.Content) > 0 && child.Type != "page" {
			s.walkContent(tree, child, visited, metadata)
		}
	}
}
