package metadata

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openprint/marketplace-indexer/internal/adapter"
	"github.com/openprint/marketplace-indexer/internal/domain"
	"github.com/openprint/marketplace-indexer/internal/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: true}); err != nil {
		panic(err)
	}
	m.Run()
}

// fakeHTTPClient records the requested URL and returns a canned body
type fakeHTTPClient struct {
	body       []byte
	err        error
	lastURL    string
	fetchCount int
}

func (f *fakeHTTPClient) Get(_ context.Context, url string) ([]byte, error) {
	f.lastURL = url
	f.fetchCount++
	return f.body, f.err
}

func TestResolve(t *testing.T) {
	doc := `{"name":"Genesis Print","description":"First of its kind","image":"ipfs://QmImage","tags":["generative","print"]}`

	t.Run("ipfs uri via gateway", func(t *testing.T) {
		httpClient := &fakeHTTPClient{body: []byte(doc)}
		r := NewResolver(httpClient, adapter.NewJSON(), "https://gateway.example.com/ipfs/")

		meta, err := r.Resolve(context.Background(), "ipfs://QmMeta", "12001")
		require.NoError(t, err)
		assert.Equal(t, "https://gateway.example.com/ipfs/QmMeta", httpClient.lastURL)
		assert.Equal(t, "Genesis Print", meta.Name)
		assert.Equal(t, "First of its kind", meta.Description)
		assert.Equal(t, "ipfs://QmImage", meta.Image)
		assert.Equal(t, []string{"generative", "print"}, meta.Tags)
	})

	t.Run("http ipfs url rewritten to gateway", func(t *testing.T) {
		httpClient := &fakeHTTPClient{body: []byte(doc)}
		r := NewResolver(httpClient, adapter.NewJSON(), "https://gateway.example.com/ipfs/")

		_, err := r.Resolve(context.Background(), "https://private.pinata.cloud/ipfs/QmMeta", "12001")
		require.NoError(t, err)
		assert.Equal(t, "https://gateway.example.com/ipfs/QmMeta", httpClient.lastURL)
	})

	t.Run("id placeholder substituted", func(t *testing.T) {
		httpClient := &fakeHTTPClient{body: []byte(doc)}
		r := NewResolver(httpClient, adapter.NewJSON(), "")

		_, err := r.Resolve(context.Background(), "https://api.example.com/token/{id}", "42")
		require.NoError(t, err)
		assert.Equal(t, "https://api.example.com/token/42", httpClient.lastURL)
	})

	t.Run("base64 data uri", func(t *testing.T) {
		encoded := base64.StdEncoding.EncodeToString([]byte(doc))
		r := NewResolver(&fakeHTTPClient{}, adapter.NewJSON(), "")

		meta, err := r.Resolve(context.Background(), "data:application/json;base64,"+encoded, "1")
		require.NoError(t, err)
		assert.Equal(t, "Genesis Print", meta.Name)
	})

	t.Run("comma separated tags string", func(t *testing.T) {
		httpClient := &fakeHTTPClient{body: []byte(`{"name":"x","tags":"one, two,three"}`)}
		r := NewResolver(httpClient, adapter.NewJSON(), "")

		meta, err := r.Resolve(context.Background(), "https://api.example.com/meta", "1")
		require.NoError(t, err)
		assert.Equal(t, []string{"one", "two", "three"}, meta.Tags)
	})

	t.Run("fetch failure maps to metadata unavailable", func(t *testing.T) {
		httpClient := &fakeHTTPClient{err: errors.New("gateway timeout")}
		r := NewResolver(httpClient, adapter.NewJSON(), "")

		meta, err := r.Resolve(context.Background(), "ipfs://QmMeta", "1")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrMetadataUnavailable))
		assert.Nil(t, meta)
	})

	t.Run("empty uri is unavailable", func(t *testing.T) {
		r := NewResolver(&fakeHTTPClient{}, adapter.NewJSON(), "")

		_, err := r.Resolve(context.Background(), "", "1")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrMetadataUnavailable))
	})

	t.Run("unsupported scheme", func(t *testing.T) {
		r := NewResolver(&fakeHTTPClient{}, adapter.NewJSON(), "")

		_, err := r.Resolve(context.Background(), "ftp://example.com/meta", "1")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrMetadataUnavailable))
	})
}

func TestRawHash(t *testing.T) {
	j := adapter.NewJSON()

	a := &TokenMetadata{Raw: map[string]interface{}{"b": 2.0, "a": "x"}}
	b := &TokenMetadata{Raw: map[string]interface{}{"a": "x", "b": 2.0}}

	hashA, err := a.RawHash(j)
	require.NoError(t, err)
	hashB, err := b.RawHash(j)
	require.NoError(t, err)

	// Canonicalization makes the hash independent of key order
	assert.Equal(t, hashA, hashB)
	assert.Len(t, hashA, 64)

	c := &TokenMetadata{Raw: map[string]interface{}{"a": "y"}}
	hashC, err := c.RawHash(j)
	require.NoError(t, err)
	assert.NotEqual(t, hashA, hashC)
}
