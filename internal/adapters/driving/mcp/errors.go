// Package mcp provides an MCP (Model Context Protocol) server adapter.
// It lets AI assistants search the local knowledge base, read documents
// and add notes.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")

// ErrIngestionDisabled is returned by add_text when no ingestion port is set.
var ErrIngestionDisabled = errors.New("mcp: ingestion is not available")
