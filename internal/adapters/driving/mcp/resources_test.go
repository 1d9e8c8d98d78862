package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/promethean-light/internal/core/domain"
)

func TestExtractDocumentID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{
			name:     "valid document URI",
			uri:      "promethean://documents/doc-123",
			expected: "doc-123",
		},
		{
			name:     "invalid prefix",
			uri:      "file://documents/doc-123",
			expected: "",
		},
		{
			name:     "listing URI has no id",
			uri:      "promethean://documents",
			expected: "",
		},
		{
			name:     "empty URI",
			uri:      "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractDocumentID(tt.uri))
		})
	}
}

func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleStatsResource(t *testing.T) {
	server := newTestServer(t, &Ports{Search: &mockSearchService{stats: &domain.Stats{Documents: 12, Model: "hashing-384"}}})

	result, err := server.handleStatsResource(context.Background(), makeReadResourceRequest("promethean://stats"))

	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Equal(t, "application/json", result.Contents[0].MIMEType)
	assert.Contains(t, result.Contents[0].Text, `"documents": 12`)
	assert.Contains(t, result.Contents[0].Text, `"model": "hashing-384"`)
}

func TestServer_handleRecentResource(t *testing.T) {
	created := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	mockSearch := &mockSearchService{recent: []domain.Document{
		{ID: "doc-1", Source: "stdin", SourceType: domain.SourceTypeText, Content: "a quick note", CreatedAt: created},
	}}
	server := newTestServer(t, &Ports{Search: mockSearch})

	result, err := server.handleRecentResource(context.Background(), makeReadResourceRequest("promethean://documents"))

	require.NoError(t, err)
	text := result.Contents[0].Text
	assert.Contains(t, text, `"id": "doc-1"`)
	assert.Contains(t, text, `"preview": "a quick note"`)
	assert.Contains(t, text, "2024-05-06T07:08:09Z")
	assert.Equal(t, recentLimit, mockSearch.lastLimit)

	server = newTestServer(t, &Ports{Search: &mockSearchService{err: errors.New("db closed")}})
	_, err = server.handleRecentResource(context.Background(), makeReadResourceRequest("promethean://documents"))
	assert.ErrorContains(t, err, "listing documents")
}

func TestServer_handleDocumentContentResource(t *testing.T) {
	ctx := context.Background()
	mockSearch := &mockSearchService{document: &domain.Document{ID: "doc-1", Content: "Full document text"}}
	server := newTestServer(t, &Ports{Search: mockSearch})

	t.Run("returns content", func(t *testing.T) {
		result, err := server.handleDocumentContentResource(ctx, makeReadResourceRequest("promethean://documents/doc-1"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "text/plain", result.Contents[0].MIMEType)
		assert.Equal(t, "Full document text", result.Contents[0].Text)
	})

	t.Run("unknown document", func(t *testing.T) {
		_, err := server.handleDocumentContentResource(ctx, makeReadResourceRequest("promethean://documents/missing"))
		assert.Error(t, err)
	})

	t.Run("malformed URI", func(t *testing.T) {
		_, err := server.handleDocumentContentResource(ctx, makeReadResourceRequest("promethean://other"))
		assert.Error(t, err)
	})

	t.Run("store failure", func(t *testing.T) {
		failing := newTestServer(t, &Ports{Search: &mockSearchService{err: errors.New("db closed")}})
		_, err := failing.handleDocumentContentResource(ctx, makeReadResourceRequest("promethean://documents/doc-1"))
		assert.ErrorContains(t, err, "getting document")
	})
}
