// Package vectordb stores chunk vectors with their payloads in an embedded
// badger directory and answers cosine-similarity queries.
package vectordb

import (
	"container/heap"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/viterin/vek/vek32"

	"github.com/custodia-labs/promethean-light/internal/core/domain"
	"github.com/custodia-labs/promethean-light/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

var (
	keyDimensions = []byte("meta:dim")
	keyModel      = []byte("meta:model")
	vectorPrefix  = []byte("vec:")
)

// ctxCheckEvery is how many entries a scan visits between context checks.
const ctxCheckEvery = 1024

// Options configures a vector store.
type Options struct {
	// Dimensions is the vector size reported by the embedding model.
	Dimensions int

	// Model is recorded for diagnostics.
	Model string

	// EncryptionKey enables badger encryption at rest (16, 24 or 32 bytes).
	EncryptionKey []byte

	// InMemory keeps everything in RAM. Used by tests.
	InMemory bool

	// Replaceable reports whether a populated collection built by the
	// stored model may be emptied when the dimension changes. The caller
	// re-embeds from its chunk rows afterwards. Nil never replaces.
	Replaceable func(storedModel string) bool
}

// Store is a badger-backed vector collection.
type Store struct {
	db         *badger.DB
	dimensions int
	model      string
	replaced   bool
}

// Open opens or creates the collection in dir and negotiates its dimension.
// A populated collection with a different dimension fails with
// domain.ErrDimensionMismatch; an empty one is re-dimensioned.
func Open(dir string, opts Options) (*Store, error) {
	if opts.Dimensions <= 0 {
		return nil, fmt.Errorf("%w: vector dimensions must be positive", domain.ErrInvalidInput)
	}

	bopts := badger.DefaultOptions(dir).WithLogger(nil)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}
	if len(opts.EncryptionKey) > 0 {
		bopts = bopts.WithEncryptionKey(opts.EncryptionKey).WithIndexCacheSize(32 << 20)
	}

	db, err := badger.Open(bopts)
	if err != nil {
		if strings.Contains(err.Error(), "Cannot acquire directory lock") {
			return nil, fmt.Errorf("open vector store: %w", domain.ErrStoreLocked)
		}
		return nil, fmt.Errorf("open vector store: %w", err)
	}

	s := &Store{db: db, dimensions: opts.Dimensions, model: opts.Model}
	if err := s.negotiate(opts.Dimensions, opts.Model, opts.Replaceable); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) negotiate(dims int, model string, replaceable func(string) bool) error {
	stored, err := s.storedDimensions()
	if err != nil {
		return err
	}
	if stored != 0 && stored != dims {
		count, err := s.Count(context.Background())
		if err != nil {
			return err
		}
		if count > 0 {
			prevModel, err := s.storedModel()
			if err != nil {
				return err
			}
			if replaceable == nil || !replaceable(prevModel) {
				return fmt.Errorf("%w: collection has %d dimensions (%s), model produces %d",
					domain.ErrDimensionMismatch, stored, prevModel, dims)
			}
			if err := s.db.DropAll(); err != nil {
				return fmt.Errorf("drop %s vectors: %w", prevModel, err)
			}
			s.replaced = true
		}
	}

	return s.db.Update(func(txn *badger.Txn) error {
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, uint32(dims)) //nolint:gosec // dims validated positive
		if err := txn.Set(keyDimensions, buf); err != nil {
			return err
		}
		return txn.Set(keyModel, []byte(model))
	})
}

func (s *Store) storedModel() (string, error) {
	var model string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyModel)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			model = string(val)
			return nil
		})
	})
	if err != nil {
		return "", fmt.Errorf("read vector model: %w", err)
	}
	return model, nil
}

func (s *Store) storedDimensions() (int, error) {
	var dims int
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyDimensions)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) == 4 {
				dims = int(binary.LittleEndian.Uint32(val))
			}
			return nil
		})
	})
	if err != nil {
		return 0, fmt.Errorf("read vector dimensions: %w", err)
	}
	return dims, nil
}

// Dimensions returns the collection dimension.
func (s *Store) Dimensions() int {
	return s.dimensions
}

// Replaced reports whether Open emptied a collection built by another model.
func (s *Store) Replaced() bool {
	return s.replaced
}

// Model returns the model name recorded at open.
func (s *Store) Model() string {
	return s.model
}

// Upsert inserts or replaces one vector.
func (s *Store) Upsert(ctx context.Context, rec domain.VectorRecord) error {
	return s.UpsertBatch(ctx, []domain.VectorRecord{rec})
}

// UpsertBatch inserts or replaces vectors.
func (s *Store) UpsertBatch(ctx context.Context, recs []domain.VectorRecord) error {
	if len(recs) == 0 {
		return nil
	}
	for _, rec := range recs {
		if rec.ID == "" {
			return fmt.Errorf("%w: vector id is empty", domain.ErrInvalidInput)
		}
		if len(rec.Vector) != s.dimensions {
			return fmt.Errorf("%w: vector %s has %d dimensions, want %d",
				domain.ErrDimensionMismatch, rec.ID, len(rec.Vector), s.dimensions)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, rec := range recs {
		val, err := encodeEntry(rec)
		if err != nil {
			return err
		}
		if err := wb.Set(vectorKey(rec.ID), val); err != nil {
			return fmt.Errorf("write vector: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flush vectors: %w", err)
	}
	return nil
}

// Delete removes vectors by ID.
func (s *Store) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, id := range ids {
		if err := wb.Delete(vectorKey(id)); err != nil {
			return fmt.Errorf("delete vector: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flush deletes: %w", err)
	}
	return nil
}

// Has reports whether a vector exists for the ID.
func (s *Store) Has(_ context.Context, id string) (bool, error) {
	var found bool
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(vectorKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("lookup vector: %w", err)
	}
	return found, nil
}

// IDs returns every stored vector ID.
func (s *Store) IDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.scanKeys(ctx, func(id string) {
		ids = append(ids, id)
	})
	return ids, err
}

// Count returns the number of stored vectors.
func (s *Store) Count(ctx context.Context) (int, error) {
	n := 0
	err := s.scanKeys(ctx, func(string) { n++ })
	return n, err
}

func (s *Store) scanKeys(ctx context.Context, fn func(id string)) error {
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = vectorPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		visited := 0
		for it.Seek(vectorPrefix); it.ValidForPrefix(vectorPrefix); it.Next() {
			visited++
			if visited%ctxCheckEvery == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			fn(string(it.Item().Key()[len(vectorPrefix):]))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan vectors: %w", err)
	}
	return nil
}

// Search returns the k most similar vectors to query.
func (s *Store) Search(ctx context.Context, query []float32, k int, filter *domain.VectorFilter) ([]domain.VectorHit, error) {
	if k <= 0 {
		return nil, nil
	}
	if len(query) != s.dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, want %d",
			domain.ErrDimensionMismatch, len(query), s.dimensions)
	}

	match := compileFilter(filter)
	top := &hitHeap{}

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		opts.Prefix = vectorPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		visited := 0
		for it.Seek(vectorPrefix); it.ValidForPrefix(vectorPrefix); it.Next() {
			visited++
			if visited%ctxCheckEvery == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}

			item := it.Item()
			id := string(item.Key()[len(vectorPrefix):])
			var hit domain.VectorHit
			var keep bool
			err := item.Value(func(val []byte) error {
				payload, vec, err := decodeEntry(val)
				if err != nil {
					return err
				}
				if !match(payload) {
					return nil
				}
				hit = domain.VectorHit{ID: id, Score: cosine(query, vec), Payload: payload}
				keep = true
				return nil
			})
			if err != nil {
				return err
			}
			if !keep {
				continue
			}
			if top.Len() < k {
				heap.Push(top, hit)
			} else if hit.Score > (*top)[0].Score {
				(*top)[0] = hit
				heap.Fix(top, 0)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("search vectors: %w", err)
	}

	hits := make([]domain.VectorHit, top.Len())
	for i := len(hits) - 1; i >= 0; i-- {
		hits[i] = heap.Pop(top).(domain.VectorHit) //nolint:forcetypeassert // heap holds only hits
	}
	return hits, nil
}

// Close releases the store directory.
func (s *Store) Close() error {
	return s.db.Close()
}

func cosine(a, b []float32) float64 {
	sim := float64(vek32.CosineSimilarity(a, b))
	if math.IsNaN(sim) {
		return 0
	}
	return sim
}

func compileFilter(f *domain.VectorFilter) func(domain.VectorPayload) bool {
	if f.IsEmpty() {
		return func(domain.VectorPayload) bool { return true }
	}
	var docs map[string]struct{}
	if len(f.DocumentIDs) > 0 {
		docs = make(map[string]struct{}, len(f.DocumentIDs))
		for _, id := range f.DocumentIDs {
			docs[id] = struct{}{}
		}
	}
	return func(p domain.VectorPayload) bool {
		if docs != nil {
			if _, ok := docs[p.DocumentID]; !ok {
				return false
			}
		}
		if f.Source != "" && p.Source != f.Source {
			return false
		}
		if f.SourceType != "" && p.SourceType != f.SourceType {
			return false
		}
		return true
	}
}

func vectorKey(id string) []byte {
	return append(append([]byte{}, vectorPrefix...), id...)
}

// encodeEntry lays out payloadLen(uint32) || payload JSON || float32 LE values.
func encodeEntry(rec domain.VectorRecord) ([]byte, error) {
	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal vector payload: %w", err)
	}
	buf := make([]byte, 4+len(payload)+4*len(rec.Vector))
	binary.LittleEndian.PutUint32(buf, uint32(len(payload))) //nolint:gosec // payload is small
	copy(buf[4:], payload)
	off := 4 + len(payload)
	for i, f := range rec.Vector {
		binary.LittleEndian.PutUint32(buf[off+i*4:], math.Float32bits(f))
	}
	return buf, nil
}

func decodeEntry(val []byte) (domain.VectorPayload, []float32, error) {
	var payload domain.VectorPayload
	if len(val) < 4 {
		return payload, nil, errors.New("vector entry too short")
	}
	n := int(binary.LittleEndian.Uint32(val))
	if 4+n > len(val) || (len(val)-4-n)%4 != 0 {
		return payload, nil, errors.New("vector entry corrupt")
	}
	if err := json.Unmarshal(val[4:4+n], &payload); err != nil {
		return payload, nil, fmt.Errorf("unmarshal vector payload: %w", err)
	}
	raw := val[4+n:]
	vec := make([]float32, len(raw)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return payload, vec, nil
}

// hitHeap is a min-heap on score holding the current top k.
type hitHeap []domain.VectorHit

func (h hitHeap) Len() int { return len(h) }
func (h hitHeap) Less(i, j int) bool {
	if h[i].Score == h[j].Score {
		return h[i].ID > h[j].ID
	}
	return h[i].Score < h[j].Score
}
func (h hitHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *hitHeap) Push(x any)   { *h = append(*h, x.(domain.VectorHit)) } //nolint:forcetypeassert // heap holds only hits
func (h *hitHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
