package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime/debug"
	"strings"
	"time"

	"github.com/custodia-labs/promethean-light/internal/clustering/hdbscan"
	"github.com/custodia-labs/promethean-light/internal/core/domain"
	"github.com/custodia-labs/promethean-light/internal/core/ports/driven"
	"github.com/custodia-labs/promethean-light/internal/core/ports/driving"
	"github.com/custodia-labs/promethean-light/internal/logger"
)

// Ensure Organizer implements the interface.
var _ driving.Organizer = (*Organizer)(nil)

// categoryConfidence is the confidence attached to fixed category tags.
const categoryConfidence = 0.9

// Organizer tags documents by keyword frequency and periodically regroups
// the corpus with density clustering.
type Organizer struct {
	docs     driven.DocumentStore
	tags     driven.TagStore
	clusters driven.ClusterStore
	embedder driven.EmbeddingService
	reducer  driven.Reducer
	blobs    driven.BlobStore
	settings domain.OrganizerSettings
}

// NewOrganizer creates an organizer. reducer may be nil, in which case
// clustering is skipped and organization is tag-only.
func NewOrganizer(
	docs driven.DocumentStore,
	tags driven.TagStore,
	clusters driven.ClusterStore,
	embedder driven.EmbeddingService,
	reducer driven.Reducer,
	settings domain.OrganizerSettings,
) *Organizer {
	if settings.TopTags <= 0 {
		settings.TopTags = domain.DefaultAppSettings().Organizer.TopTags
	}
	if settings.Clustering.MinClusterSize == 0 {
		settings.Clustering = domain.DefaultClusteringParams()
	}
	return &Organizer{
		docs:     docs,
		tags:     tags,
		clusters: clusters,
		embedder: embedder,
		reducer:  reducer,
		settings: settings,
	}
}

// SetBlobStore enables the encrypted embedding cache.
func (o *Organizer) SetBlobStore(blobs driven.BlobStore) {
	o.blobs = blobs
}

// AutoTag proposes up to TopTags frequency keywords plus any triggered
// category tags. Confidence is the keyword count relative to the top count.
func (o *Organizer) AutoTag(text string) []domain.TagSuggestion {
	words := tokenize(text)
	ranked := topWords(words, o.settings.TopTags)

	suggestions := make([]domain.TagSuggestion, 0, len(ranked)+len(categoryRules))
	seen := make(map[string]bool, len(ranked))
	for _, w := range ranked {
		suggestions = append(suggestions, domain.TagSuggestion{
			Keyword:    w.word,
			Confidence: float64(w.count) / float64(ranked[0].count),
		})
		seen[w.word] = true
	}

	for _, cat := range categories(words) {
		if seen[cat] {
			continue
		}
		suggestions = append(suggestions, domain.TagSuggestion{Keyword: cat, Confidence: categoryConfidence})
	}

	return suggestions
}

// TagDocument computes and persists tags for a document.
func (o *Organizer) TagDocument(ctx context.Context, doc *domain.Document) ([]domain.Tag, error) {
	if doc == nil || doc.ID == "" {
		return nil, domain.ErrInvalidInput
	}

	suggestions := o.AutoTag(doc.Content)
	if len(suggestions) == 0 {
		return nil, nil
	}

	now := time.Now()
	tags := make([]domain.Tag, len(suggestions))
	for i, sg := range suggestions {
		tags[i] = domain.Tag{
			DocumentID: doc.ID,
			Keyword:    sg.Keyword,
			Confidence: sg.Confidence,
			CreatedAt:  now,
		}
	}

	if err := o.tags.AddTags(ctx, tags); err != nil {
		return nil, fmt.Errorf("save tags: %w", err)
	}
	return tags, nil
}

// RunClustering runs one clustering cycle. On error or panic the cycle is
// abandoned and prev is returned so the next cycle retries.
func (o *Organizer) RunClustering(
	ctx context.Context, prev domain.CorpusSnapshot, params domain.ClusteringParams,
) (out domain.ClusteringOutcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("organizer: clustering panic: %v\n%s", r, debug.Stack())
			out = domain.ClusteringOutcome{Snapshot: prev, SkipReason: domain.SkipCycleAbandoned}
			err = fmt.Errorf("clustering panic: %v", r)
		}
	}()

	params = o.clusteringParams(params)
	if params.MinClusterSize < 2 || params.MinSamples < 0 {
		return domain.ClusteringOutcome{Snapshot: prev, SkipReason: domain.SkipCycleAbandoned},
			fmt.Errorf("%w: min_cluster_size must be at least 2 and min_samples non-negative", domain.ErrInvalidInput)
	}

	out, err = o.runClustering(ctx, prev, params)
	if err != nil {
		log.Printf("organizer: clustering cycle abandoned: %v\n%s", err, debug.Stack())
		return domain.ClusteringOutcome{Snapshot: prev, SkipReason: domain.SkipCycleAbandoned}, err
	}
	return out, nil
}

// clusteringParams fills zero fields of p from the configured parameters.
// MinSamples is only inherited together with MinClusterSize, since zero
// already means "same as MinClusterSize".
func (o *Organizer) clusteringParams(p domain.ClusteringParams) domain.ClusteringParams {
	base := o.settings.Clustering
	if p.MinClusterSize == 0 {
		p.MinClusterSize = base.MinClusterSize
		if p.MinSamples == 0 {
			p.MinSamples = base.MinSamples
		}
	}
	if p.SampleSize <= 0 {
		p.SampleSize = base.SampleSize
	}
	if p.TextChars <= 0 {
		p.TextChars = base.TextChars
	}
	if p.Components <= 0 {
		p.Components = base.Components
	}
	if p.LabelWords <= 0 {
		p.LabelWords = base.LabelWords
	}
	return p
}

func (o *Organizer) runClustering(
	ctx context.Context, prev domain.CorpusSnapshot, params domain.ClusteringParams,
) (domain.ClusteringOutcome, error) {
	counts, err := o.docs.Counts(ctx)
	if err != nil {
		return domain.ClusteringOutcome{}, fmt.Errorf("count corpus: %w", err)
	}

	skip := func(reason domain.SkipReason) (domain.ClusteringOutcome, error) {
		logger.Debug("Clustering skipped: %s", reason)
		return domain.ClusteringOutcome{Snapshot: counts, SkipReason: reason}, nil
	}

	switch {
	case !prev.IsZero() && counts.Equal(prev):
		return skip(domain.SkipUnchanged)
	case counts.Documents < params.MinClusterSize:
		return skip(domain.SkipTooFewDocs)
	case o.reducer == nil:
		return skip(domain.SkipNoReducer)
	case o.embedder == nil:
		return skip(domain.SkipNoEmbeddings)
	}

	logger.Section("Clustering")
	start := time.Now()

	docs, err := o.docs.SampleDocuments(ctx, params.SampleSize)
	if err != nil {
		return domain.ClusteringOutcome{}, fmt.Errorf("sample documents: %w", err)
	}
	if len(docs) < params.MinClusterSize {
		return skip(domain.SkipTooFewDocs)
	}

	vectors, err := o.sampleEmbeddings(ctx, docs, params.TextChars)
	if err != nil {
		return domain.ClusteringOutcome{}, err
	}
	if len(vectors) == 0 {
		return skip(domain.SkipNoEmbeddings)
	}

	data := make([][]float64, len(vectors))
	for i, v := range vectors {
		row := make([]float64, len(v))
		for j, x := range v {
			row[j] = float64(x)
		}
		data[i] = row
	}

	components := min(params.Components, len(data[0]), len(data)-1)
	reduced, err := o.reducer.Reduce(data, components)
	if err != nil {
		return domain.ClusteringOutcome{}, fmt.Errorf("reduce with %s: %w", o.reducer.Name(), err)
	}
	logger.Debug("Reduced %d points to %d components with %s", len(reduced), components, o.reducer.Name())

	result, err := hdbscan.Cluster(ctx, reduced, hdbscan.Params{
		MinClusterSize: params.MinClusterSize,
		MinSamples:     params.MinSamples,
		Selection:      hdbscan.ExcessOfMass,
	})
	if err != nil {
		return domain.ClusteringOutcome{}, fmt.Errorf("hdbscan: %w", err)
	}

	clusters, assignments, noise := o.buildClusters(docs, result.Labels, params)

	if err := o.clusters.ReplaceClusters(ctx, clusters, assignments); err != nil {
		return domain.ClusteringOutcome{}, fmt.Errorf("replace clusters: %w", err)
	}

	// The snapshot is the corpus as sampled. Anything ingested since then
	// changes the counts and triggers the next cycle.
	after := counts
	after.Clusters = len(clusters)

	logger.Info("Clustered %d documents into %d clusters (%d noise) in %s",
		len(docs), len(clusters), noise, time.Since(start).Round(time.Millisecond))

	return domain.ClusteringOutcome{
		Snapshot: after,
		Ran:      true,
		Clusters: clusters,
		Assigned: len(assignments),
		Noise:    noise,
	}, nil
}

// sampleEmbeddings embeds the leading text of each document, reading and
// filling the encrypted cache when enabled. Documents are immutable so a
// cached vector stays valid for the model that produced it.
func (o *Organizer) sampleEmbeddings(ctx context.Context, docs []domain.Document, textChars int) ([][]float32, error) {
	vectors := make([][]float32, len(docs))
	cache := o.settings.ReuseEmbeddings && o.blobs != nil
	model := o.embedder.ModelName()

	var missIdx []int
	var missText []string
	for i := range docs {
		if cache {
			vec, err := o.blobs.GetEmbedding(embeddingCacheKey(model, docs[i].ID))
			if err == nil && len(vec) == o.embedder.Dimensions() {
				vectors[i] = vec
				continue
			}
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				logger.Warn("Embedding cache read for %s: %v", docs[i].ID, err)
			}
		}
		missIdx = append(missIdx, i)
		missText = append(missText, leadingText(docs[i].Content, textChars))
	}

	logger.Debug("Embedding %d of %d sampled documents (%d cached)", len(missIdx), len(docs), len(docs)-len(missIdx))

	if len(missText) > 0 {
		embedded, err := o.embedder.EmbedBatch(ctx, missText)
		if err != nil {
			return nil, fmt.Errorf("embed sample: %w", err)
		}
		if len(embedded) != len(missText) {
			return nil, fmt.Errorf("embed sample: got %d vectors for %d texts", len(embedded), len(missText))
		}
		for j, i := range missIdx {
			vectors[i] = embedded[j]
			if cache {
				if err := o.blobs.PutEmbedding(embeddingCacheKey(model, docs[i].ID), embedded[j]); err != nil {
					logger.Warn("Embedding cache write for %s: %v", docs[i].ID, err)
				}
			}
		}
	}

	return vectors, nil
}

// buildClusters turns HDBSCAN labels into labelled clusters and the
// document assignment map. Noise documents are left out of the map.
func (o *Organizer) buildClusters(
	docs []domain.Document, labels []int, params domain.ClusteringParams,
) ([]domain.Cluster, map[string]int, int) {
	members := make(map[int][]int)
	maxLabel := -1
	noise := 0
	for i, l := range labels {
		if l == domain.NoiseLabel {
			noise++
			continue
		}
		members[l] = append(members[l], i)
		maxLabel = max(maxLabel, l)
	}

	now := time.Now()
	clusters := make([]domain.Cluster, 0, len(members))
	assignments := make(map[string]int, len(docs)-noise)
	used := make(map[string]int)

	for l := 0; l <= maxLabel; l++ {
		idx, ok := members[l]
		if !ok {
			continue
		}
		id := l + 1

		var words []string
		for _, i := range idx {
			words = append(words, tokenize(leadingText(docs[i].Content, params.TextChars))...)
			assignments[docs[i].ID] = id
		}

		label := clusterLabel(words, params.LabelWords, id)
		if n := used[label]; n > 0 {
			used[label] = n + 1
			label = fmt.Sprintf("%s-%d", label, n+1)
		} else {
			used[label] = 1
		}

		clusters = append(clusters, domain.Cluster{
			ID:            id,
			Label:         label,
			DocumentCount: len(idx),
			CreatedAt:     now,
		})
	}

	return clusters, assignments, noise
}

// clusterLabel joins the top words of a cluster's text.
func clusterLabel(words []string, k, id int) string {
	if k <= 0 {
		k = domain.DefaultClusteringParams().LabelWords
	}
	ranked := topWords(words, k)
	if len(ranked) == 0 {
		return fmt.Sprintf("cluster-%d", id)
	}
	parts := make([]string, len(ranked))
	for i, w := range ranked {
		parts[i] = w.word
	}
	return strings.Join(parts, "-")
}

// embeddingCacheKey names a cached vector by model and document.
func embeddingCacheKey(model, docID string) string {
	return sanitizeKey(model) + "." + docID
}

// sanitizeKey maps a model name onto the blob key charset.
func sanitizeKey(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == ':':
			return r
		default:
			return '_'
		}
	}, s)
}

// leadingText returns at most n runes of s. n <= 0 returns s unchanged.
func leadingText(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
