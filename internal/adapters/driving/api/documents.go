package api

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/promethean-light/internal/core/domain"
)

const (
	defaultTagLimit    = 50
	defaultRecentLimit = 20

	// apiSource is recorded for notes posted without a source.
	apiSource = "api"
)

// addText handles POST /add.
func (s *Server) addText(c *gin.Context) {
	var req AddTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	source := strings.TrimSpace(req.Source)
	if source == "" {
		source = apiSource
	}

	res, err := s.ports.Ingestion.IngestText(c.Request.Context(), req.Text, source)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(ingestStatus(res), toIngestResponse(res))
}

// addFile handles POST /add/file with a multipart "file" field.
func (s *Server) addFile(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		badRequest(c, err)
		return
	}
	if header.Size > maxUploadBytes {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}

	f, err := header.Open()
	if err != nil {
		abortWithError(c, fmt.Errorf("open upload: %w", err))
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		abortWithError(c, fmt.Errorf("read upload: %w", err))
		return
	}

	res, err := s.ports.Ingestion.IngestUpload(c.Request.Context(), filepath.Base(header.Filename), data)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(ingestStatus(res), toIngestResponse(res))
}

// ingestStatus answers 201 only when a document was stored.
func ingestStatus(res *domain.IngestResult) int {
	if res.Status == domain.IngestCreated {
		return http.StatusCreated
	}
	return http.StatusOK
}

// search handles POST /search.
func (s *Server) search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	opts := domain.SearchOptions{
		Limit:      req.Limit,
		Tag:        req.Tag,
		SourceType: domain.SourceType(req.SourceType),
	}

	results, err := s.ports.Search.Search(c.Request.Context(), req.Query, opts)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, SearchResponse{
		Query:   req.Query,
		Count:   len(results),
		Results: toSearchHits(results),
	})
}

func (s *Server) stats(c *gin.Context) {
	st, err := s.ports.Search.Stats(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, StatsResponse{
		Documents:  st.Documents,
		Chunks:     st.Chunks,
		Tags:       st.Tags,
		Clusters:   st.Clusters,
		Vectors:    st.Vectors,
		Dimensions: st.Dimensions,
		Model:      st.Model,
	})
}

func (s *Server) tags(c *gin.Context) {
	limit, err := queryLimit(c, defaultTagLimit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	tags, err := s.ports.Search.Tags(c.Request.Context(), limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": toTagResponses(tags)})
}

func (s *Server) recent(c *gin.Context) {
	limit, err := queryLimit(c, defaultRecentLimit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	docs, err := s.ports.Search.Recent(c.Request.Context(), limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	out := make([]DocumentResponse, len(docs))
	for i := range docs {
		out[i] = toDocumentResponse(docs[i])
	}
	c.JSON(http.StatusOK, gin.H{"documents": out})
}

// summary handles GET /summary/:name for a cluster label or tag.
func (s *Server) summary(c *gin.Context) {
	sum, err := s.ports.Search.Summary(c.Request.Context(), c.Param("name"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	recent := make([]DocumentResponse, len(sum.Recent))
	for i := range sum.Recent {
		recent[i] = toDocumentResponse(sum.Recent[i])
	}
	c.JSON(http.StatusOK, SummaryResponse{
		Name:          sum.Name,
		Kind:          sum.Kind,
		DocumentCount: sum.DocumentCount,
		TopKeywords:   toTagResponses(sum.TopKeywords),
		Recent:        recent,
		Summary:       sum.Text,
		GeneratedAt:   sum.GeneratedAt,
	})
}

func (s *Server) document(c *gin.Context) {
	doc, err := s.ports.Search.GetDocument(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"document": toDocumentResponse(*doc),
		"content":  doc.Content,
	})
}

func (s *Server) reconcile(c *gin.Context) {
	report, err := s.ports.Ingestion.Reconcile(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"chunks_checked":  report.ChunksChecked,
		"vectors_added":   report.VectorsAdded,
		"orphans_removed": report.OrphansRemoved,
	})
}

// queryLimit parses ?limit=, falling back to def when absent.
func queryLimit(c *gin.Context, def int) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: limit must be a positive integer", domain.ErrInvalidInput)
	}
	return n, nil
}
