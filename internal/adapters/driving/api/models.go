package api

import (
	"time"

	"github.com/custodia-labs/promethean-light/internal/core/domain"
)

// AddTextRequest is the body of POST /add.
type AddTextRequest struct {
	Text   string `json:"text" binding:"required"`
	Source string `json:"source"`
}

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	Query      string `json:"query" binding:"required"`
	Limit      int    `json:"limit"`
	Tag        string `json:"tag"`
	SourceType string `json:"source_type"`
}

// EmailAddRequest is the body of POST /email/add.
type EmailAddRequest struct {
	Address  string `json:"address" binding:"required"`
	Server   string `json:"server" binding:"required"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password" binding:"required"`
	Mailbox  string `json:"mailbox"`
	UseTLS   *bool  `json:"use_tls"`
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message" binding:"required"`
}

// ProjectRequest is the body of POST /projects.
type ProjectRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// ItemRequest is the body of POST /projects/:id/items.
type ItemRequest struct {
	Text string `json:"text" binding:"required"`
}

// ItemUpdateRequest is the body of PATCH /projects/:id/items/:item.
type ItemUpdateRequest struct {
	Done bool `json:"done"`
}

// IngestResponse reports the outcome of an ingestion.
type IngestResponse struct {
	Status            string  `json:"status"`
	DocumentID        string  `json:"document_id,omitempty"`
	MatchedDocumentID string  `json:"matched_document_id,omitempty"`
	Similarity        float64 `json:"similarity,omitempty"`
	Reason            string  `json:"reason,omitempty"`
	Chunks            int     `json:"chunks"`
	VectorsPending    bool    `json:"vectors_pending,omitempty"`
}

// DocumentResponse is the public view of a document.
type DocumentResponse struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	SourceType string    `json:"source_type"`
	MIMEType   string    `json:"mime_type,omitempty"`
	ClusterID  *int      `json:"cluster_id,omitempty"`
	Preview    string    `json:"preview"`
	CreatedAt  time.Time `json:"created_at"`
}

// SearchHit is one ranked search result.
type SearchHit struct {
	DocumentID string  `json:"document_id"`
	ChunkID    string  `json:"chunk_id"`
	Source     string  `json:"source"`
	SourceType string  `json:"source_type"`
	Score      float64 `json:"score"`
	Preview    string  `json:"preview"`
	Content    string  `json:"content"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Query   string      `json:"query"`
	Count   int         `json:"count"`
	Results []SearchHit `json:"results"`
}

// StatsResponse is the body of GET /stats.
type StatsResponse struct {
	Documents  int    `json:"documents"`
	Chunks     int    `json:"chunks"`
	Tags       int    `json:"tags"`
	Clusters   int    `json:"clusters"`
	Vectors    int    `json:"vectors"`
	Dimensions int    `json:"dimensions"`
	Model      string `json:"model"`
}

// TagResponse is one keyword with its document count.
type TagResponse struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

// SummaryResponse is the body of GET /summary/:name.
type SummaryResponse struct {
	Name          string             `json:"name"`
	Kind          string             `json:"kind"`
	DocumentCount int                `json:"document_count"`
	TopKeywords   []TagResponse      `json:"top_keywords"`
	Recent        []DocumentResponse `json:"recent"`
	Summary       string             `json:"summary"`
	GeneratedAt   time.Time          `json:"generated_at"`
}

// EmailAccountResponse never includes the password.
type EmailAccountResponse struct {
	ID       string `json:"id"`
	Address  string `json:"address"`
	Server   string `json:"server"`
	Port     int    `json:"port"`
	Username string `json:"username,omitempty"`
	Mailbox  string `json:"mailbox"`
	UseTLS   bool   `json:"use_tls"`
	LastUID  uint32 `json:"last_uid"`
}

// ChatResponse is the body of POST /chat.
type ChatResponse struct {
	SessionID string      `json:"session_id"`
	Answer    string      `json:"answer"`
	Sources   []SearchHit `json:"sources"`
}

// ChatMessageResponse is one turn of chat history.
type ChatMessageResponse struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ProjectResponse is the public view of a project.
type ProjectResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ItemResponse is the public view of a checklist item.
type ItemResponse struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Text      string `json:"text"`
	Done      bool   `json:"done"`
	Position  int    `json:"position"`
}

func toIngestResponse(res *domain.IngestResult) IngestResponse {
	return IngestResponse{
		Status:            string(res.Status),
		DocumentID:        res.DocumentID,
		MatchedDocumentID: res.MatchedDocumentID,
		Similarity:        res.Similarity,
		Reason:            res.Reason,
		Chunks:            res.ChunkCount,
		VectorsPending:    res.VectorsPending,
	}
}

func toDocumentResponse(doc domain.Document) DocumentResponse {
	return DocumentResponse{
		ID:         doc.ID,
		Source:     doc.Source,
		SourceType: string(doc.SourceType),
		MIMEType:   doc.MIMEType,
		ClusterID:  doc.ClusterID,
		Preview:    domain.Preview(doc.Content),
		CreatedAt:  doc.CreatedAt,
	}
}

func toSearchHits(results []domain.SearchResult) []SearchHit {
	hits := make([]SearchHit, len(results))
	for i := range results {
		r := &results[i]
		hits[i] = SearchHit{
			DocumentID: r.Document.ID,
			ChunkID:    r.Chunk.ID,
			Source:     r.Document.Source,
			SourceType: string(r.Document.SourceType),
			Score:      r.Score,
			Preview:    r.Preview,
			Content:    r.Chunk.Content,
		}
	}
	return hits
}

func toTagResponses(tags []domain.TagCount) []TagResponse {
	out := make([]TagResponse, len(tags))
	for i, t := range tags {
		out[i] = TagResponse{Keyword: t.Keyword, Count: t.Count}
	}
	return out
}

func toEmailAccountResponse(c *domain.EmailCredential) EmailAccountResponse {
	return EmailAccountResponse{
		ID:       c.ID,
		Address:  c.Address,
		Server:   c.Server,
		Port:     c.Port,
		Username: c.Username,
		Mailbox:  c.Mailbox,
		UseTLS:   c.UseTLS,
		LastUID:  c.LastUID,
	}
}

func toProjectResponse(p *domain.Project) ProjectResponse {
	return ProjectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toItemResponse(it *domain.ChecklistItem) ItemResponse {
	return ItemResponse{
		ID:        it.ID,
		ProjectID: it.ProjectID,
		Text:      it.Text,
		Done:      it.Done,
		Position:  it.Position,
	}
}
