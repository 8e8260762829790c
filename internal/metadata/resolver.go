package metadata

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/gowebpki/jcs"

	"github.com/openprint/marketplace-indexer/internal/adapter"
	"github.com/openprint/marketplace-indexer/internal/domain"
)

// TokenMetadata represents the descriptive fields resolved from a token URI
type TokenMetadata struct {
	Raw         map[string]interface{} `json:"raw"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Image       string                 `json:"image"`
	Tags        []string               `json:"tags"`
}

// RawHash returns the sha256 of the canonicalized raw metadata
func (m *TokenMetadata) RawHash(j adapter.JSON) (string, error) {
	metadataJSON, err := j.Marshal(m.Raw)
	if err != nil {
		return "", fmt.Errorf("failed to marshal metadata: %w", err)
	}

	canonicalized, err := jcs.Transform(metadataJSON)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize metadata: %w", err)
	}
	hash := sha256.Sum256(canonicalized)
	return hex.EncodeToString(hash[:]), nil
}

// Resolver resolves descriptive metadata from a token URI
type Resolver interface {
	Resolve(ctx context.Context, tokenURI string, tokenNumber string) (*TokenMetadata, error)
}

type resolver struct {
	httpClient  adapter.HTTPClient
	json        adapter.JSON
	ipfsGateway string
}

// NewResolver creates a metadata resolver. An empty ipfsGateway falls back to
// the default public gateway.
func NewResolver(httpClient adapter.HTTPClient, json adapter.JSON, ipfsGateway string) Resolver {
	if ipfsGateway == "" {
		ipfsGateway = domain.DEFAULT_IPFS_GATEWAY
	}
	return &resolver{httpClient: httpClient, json: json, ipfsGateway: ipfsGateway}
}

// Resolve fetches and normalizes the metadata behind a token URI
func (r *resolver) Resolve(ctx context.Context, tokenURI string, tokenNumber string) (*TokenMetadata, error) {
	if tokenURI == "" {
		return nil, fmt.Errorf("%w: empty token URI", domain.ErrMetadataUnavailable)
	}

	raw, err := r.fetchFromURI(ctx, processMetadataURI(tokenURI, tokenNumber))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrMetadataUnavailable, err)
	}

	return normalize(raw), nil
}

// normalize maps the fetched document onto TokenMetadata, tolerating missing
// or mistyped fields
func normalize(raw map[string]interface{}) *TokenMetadata {
	meta := &TokenMetadata{Raw: raw}

	if name, ok := raw["name"].(string); ok {
		meta.Name = name
	}
	if description, ok := raw["description"].(string); ok {
		meta.Description = description
	}
	if image, ok := raw["image"].(string); ok {
		meta.Image = image
	}

	// Tags may appear as "tags" or as a comma separated "attributes" string
	// depending on the metadata generation
	if tags, ok := raw["tags"].([]interface{}); ok {
		for _, t := range tags {
			if s, ok := t.(string); ok && s != "" {
				meta.Tags = append(meta.Tags, s)
			}
		}
	} else if tags, ok := raw["tags"].(string); ok && tags != "" {
		for _, t := range strings.Split(tags, ",") {
			if trimmed := strings.TrimSpace(t); trimmed != "" {
				meta.Tags = append(meta.Tags, trimmed)
			}
		}
	}

	return meta
}

// processMetadataURI normalizes a metadata URI before fetching:
// - {id} placeholders are replaced with the token number
// - HTTP URLs containing /ipfs/ fall back to ipfs:// to avoid private gateways
func processMetadataURI(uri, tokenNumber string) string {
	uri = strings.ReplaceAll(uri, "{id}", tokenNumber)

	if strings.HasPrefix(uri, "http") && strings.Contains(uri, "/ipfs/") {
		parts := strings.Split(uri, "/ipfs/")
		if len(parts) > 1 {
			uri = "ipfs://" + parts[1]
		}
	}

	return uri
}

// fetchFromURI fetches metadata from a given URI, handling different protocols
func (r *resolver) fetchFromURI(ctx context.Context, uri string) (map[string]interface{}, error) {
	switch {
	case strings.HasPrefix(uri, "data:"):
		return r.parseDataURI(uri)
	case strings.HasPrefix(uri, "ipfs://"):
		return r.fetchFromHTTP(ctx, r.ipfsGateway+strings.TrimPrefix(uri, "ipfs://"))
	case strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://"):
		return r.fetchFromHTTP(ctx, uri)
	default:
		return nil, fmt.Errorf("unsupported URI scheme: %s", uri)
	}
}

// parseDataURI parses an inline data URI and returns the metadata
func (r *resolver) parseDataURI(uri string) (map[string]interface{}, error) {
	// data:application/json;base64,<encoded data>
	// or data:application/json,<json data>
	parts := strings.SplitN(uri[5:], ",", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid data URI format")
	}

	dataType := parts[0]
	data := parts[1]

	if strings.Contains(dataType, "base64") {
		decoded, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64: %w", err)
		}
		data = string(decoded)
	}

	var metadata map[string]interface{}
	if err := r.json.Unmarshal([]byte(data), &metadata); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	return metadata, nil
}

// fetchFromHTTP fetches metadata from an HTTP(S) URL
func (r *resolver) fetchFromHTTP(ctx context.Context, url string) (map[string]interface{}, error) {
	body, err := r.httpClient.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}

	var metadata map[string]interface{}
	if err := r.json.Unmarshal(body, &metadata); err != nil {
		return nil, fmt.Errorf("failed to parse metadata JSON: %w", err)
	}

	return metadata, nil
}
