package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/choneas/atelier/internal/config"
	"github.com/choneas/atelier/internal/transport"
)

type (
	// Block is one node of a page tree. Properties hold raw rich-text
	// value arrays keyed by the collection's opaque column keys.
	Block struct {
		ID             string         `json:"id"`
		Type           string         `json:"type"`
		ParentID       string         `json:"parent_id"`
		ParentTable    string         `json:"parent_table"`
		CreatedTime    int64          `json:"created_time"`
		LastEditedTime int64          `json:"last_edited_time"`
		Content        []string       `json:"content,omitempty"`
		Properties     map[string]any `json:"properties,omitempty"`
		Format         *BlockFormat   `json:"format,omitempty"`
	}

	BlockFormat struct {
		PageIcon          string  `json:"page_icon,omitempty"`
		PageCover         string  `json:"page_cover,omitempty"`
		PageCoverPosition float64 `json:"page_cover_position,omitempty"`
		DisplaySource     string  `json:"display_source,omitempty"`
	}

	SchemaOption struct {
		ID    string `json:"id,omitempty"`
		Value string `json:"value"`
		Color string `json:"color,omitempty"`
	}

	SchemaColumn struct {
		Name    string         `json:"name"`
		Type    string         `json:"type"`
		Options []SchemaOption `json:"options,omitempty"`
	}

	// CollectionSchema maps opaque column keys to column definitions.
	CollectionSchema map[string]SchemaColumn

	// PageTree is the block graph returned for one root page, plus any
	// collection schemas that came along in the same record map.
	PageTree struct {
		RootID      string
		Blocks      map[string]Block
		Collections map[string]CollectionSchema
	}
)

// Root returns the tree's root block, or false when the record map does not
// contain it (a truncated or inconsistent provider response).
func (t *PageTree) Root() (Block, bool) {
	block, ok := t.Blocks[t.RootID]
	return block, ok
}

type Client struct {
	config    *config.NotionConfig
	logger    *zap.Logger
	client    *http.Client
	imageHost string
}

func NewClient(cfg *config.NotionConfig, proxyCfg *config.ProxyConfig, logger *zap.Logger) *Client {
	imageHost := transport.NotionAPIHost
	if proxyCfg.Enabled && proxyCfg.AssetHost != "" {
		imageHost = proxyCfg.AssetHost
	}
	return &Client{
		config: cfg,
		logger: logger,
		client: &http.Client{
			Transport: transport.NewProxy(proxyCfg, nil, logger),
			Timeout:   30 * time.Second,
		},
		imageHost: imageHost,
	}
}

type recordMap struct {
	Block map[string]struct {
		Value Block `json:"value"`
	} `json:"block"`
	Collection map[string]struct {
		Value struct {
			Schema CollectionSchema `json:"schema"`
		} `json:"value"`
	} `json:"collection"`
}

type loadPageChunkResponse struct {
	RecordMap recordMap `json:"recordMap"`
	Cursor    struct {
		Stack []json.RawMessage `json:"stack"`
	} `json:"cursor"`
}

// FetchPageTree loads the full block graph for pageID, following chunk
// cursors until the provider reports no more content. pageID may be the
// compact 32-hex form or a hyphenated UUID.
func (c *Client) FetchPageTree(ctx context.Context, pageID string) (*PageTree, error) {
	rootID, err := CompactIDToUUID(pageID)
	if err != nil {
		return nil, fmt.Errorf("invalid page id %q: %w", pageID, err)
	}

	tree := &PageTree{
		RootID:      rootID,
		Blocks:      make(map[string]Block),
		Collections: make(map[string]CollectionSchema),
	}

	stack := []json.RawMessage{}
	for chunk := 0; ; chunk++ {
		body := map[string]any{
			"pageId":          rootID,
			"limit":           100,
			"chunkNumber":     chunk,
			"cursor":          map[string]any{"stack": stack},
			"verticalColumns": false,
		}

		var response loadPageChunkResponse
		if err := c.post(ctx, "loadPageChunk", body, &response); err != nil {
			return nil, fmt.Errorf("failed to load page chunk %d: %w", chunk, err)
		}

		for id, record := range response.RecordMap.Block {
			block := record.Value
			if block.ID == "" {
				block.ID = id
			}
			tree.Blocks[id] = block
		}
		for id, record := range response.RecordMap.Collection {
			tree.Collections[id] = record.Value.Schema
		}

		if len(response.Cursor.Stack) == 0 {
			break
		}
		stack = response.Cursor.Stack
	}

	return tree, nil
}

func (c *Client) post(ctx context.Context, endpoint string, body any, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	url := fmt.Sprintf("%s/%s", c.config.APIBaseURL, endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.config.Token != "" {
		req.Header.Set("Cookie", "token_v2="+c.config.Token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("notion API returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// MapImageURL turns a raw cover/image reference from the record map into a
// publicly servable URL on the content store's image endpoint.
func (c *Client) MapImageURL(raw, blockID string) string {
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "/") {
		return "https://" + c.imageHost + raw
	}
	return fmt.Sprintf("https://%s/image/%s?table=block&id=%s&cache=v2",
		c.imageHost, url.QueryEscape(raw), blockID)
}

// PlainText flattens a raw rich-text property value into its concatenated
// plain text. Mention glyphs are carried through as-is.
func PlainText(v any) string {
	spans, ok := v.([]any)
	if !ok {
		return ""
	}

	var text strings.Builder
	for _, span := range spans {
		parts, ok := span.([]any)
		if !ok || len(parts) == 0 {
			continue
		}
		if s, ok := parts[0].(string); ok {
			text.WriteString(s)
		}
	}
	return text.String()
}

// PersonIDs extracts the user UUIDs from a person-typed property value,
// which the provider encodes as mention decorations on placeholder glyphs.
func PersonIDs(v any) []string {
	spans, ok := v.([]any)
	if !ok {
		return nil
	}

	var ids []string
	for _, span := range spans {
		parts, ok := span.([]any)
		if !ok || len(parts) < 2 {
			continue
		}
		decorations, ok := parts[1].([]any)
		if !ok {
			continue
		}
		for _, decoration := range decorations {
			pair, ok := decoration.([]any)
			if !ok || len(pair) < 2 {
				continue
			}
			if kind, ok := pair[0].(string); !ok || kind != "u" {
				continue
			}
			if id, ok := pair[1].(string); ok {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func millisToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
