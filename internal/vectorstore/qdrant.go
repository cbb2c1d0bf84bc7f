package vectorstore

import (
	"context"
	"encoding/hex"
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// QdrantStore implements Store using Qdrant.
//
// Capacity policy: the preferred layout is one shared physical collection
// per logical kind, with tenant isolation by a repo_id payload filter on
// every query. A repo that already has its own per-repo collections (the
// legacy layout) keeps using them. When creating a shared collection
// would exceed the configured collection limit the store reports
// ErrInsufficientCapacity instead of silently degrading, and keeps
// routing that repo at the shared collections for later retries.
type QdrantStore struct {
	client *qdrant.Client

	sharedPrefix   string
	maxCollections int

	mu     sync.Mutex
	legacy map[string]bool // repoID -> uses per-repo collections
}

// QdrantConfig configures a QdrantStore.
type QdrantConfig struct {
	// URL is "host:port" of the Qdrant gRPC endpoint.
	URL string

	// SharedPrefix names the shared collections ("<prefix>-files",
	// "<prefix>-chunks").
	SharedPrefix string

	// MaxCollections caps the number of physical collections; 0 means
	// unlimited.
	MaxCollections int
}

// NewQdrantStore creates a Qdrant-backed store.
func NewQdrantStore(ctx context.Context, cfg QdrantConfig) (*QdrantStore, error) {
	host, portStr, err := net.SplitHostPort(cfg.URL)
	if err != nil {
		// If no port specified, assume default
		host = cfg.URL
		portStr = "6334"
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid port in qdrant url: %w", err)
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	prefix := cfg.SharedPrefix
	if prefix == "" {
		prefix = "repoqa"
	}

	return &QdrantStore{
		client:         client,
		sharedPrefix:   prefix,
		maxCollections: cfg.MaxCollections,
		legacy:         make(map[string]bool),
	}, nil
}

// Close closes the Qdrant client connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

func (s *QdrantStore) sharedName(kind Kind) string {
	return SanitizeCollectionName(s.sharedPrefix + "-" + string(kind))
}

func (s *QdrantStore) legacyName(repoID string, kind Kind) string {
	return SanitizeCollectionName(repoID + "-" + string(kind))
}

// collectionFor resolves the physical collection for a repo and kind.
func (s *QdrantStore) collectionFor(repoID string, kind Kind) string {
	s.mu.Lock()
	isLegacy := s.legacy[repoID]
	s.mu.Unlock()

	if isLegacy {
		return s.legacyName(repoID, kind)
	}
	return s.sharedName(kind)
}

// EnsureRepo picks the layout for a repo and creates shared collections
// as needed.
func (s *QdrantStore) EnsureRepo(ctx context.Context, repoID string, dimension int) error {
	legacyExists, err := s.client.CollectionExists(ctx, s.legacyName(repoID, KindFiles))
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}
	if legacyExists {
		s.mu.Lock()
		s.legacy[repoID] = true
		s.mu.Unlock()
		return nil
	}

	s.mu.Lock()
	delete(s.legacy, repoID)
	s.mu.Unlock()

	for _, kind := range []Kind{KindFiles, KindChunks} {
		if err := s.ensureCollection(ctx, s.sharedName(kind), dimension); err != nil {
			return err
		}
	}
	return nil
}

// ensureCollection creates a collection if missing, honoring the
// collection cap.
func (s *QdrantStore) ensureCollection(ctx context.Context, name string, dimension int) error {
	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}
	if exists {
		return nil
	}

	if s.maxCollections > 0 {
		existing, err := s.client.ListCollections(ctx)
		if err != nil {
			return fmt.Errorf("failed to list collections: %w", err)
		}
		if len(existing) >= s.maxCollections {
			return fmt.Errorf("%w: cannot create %q, %d of %d collections in use (raise VECTOR_MAX_COLLECTIONS or delete unused collections)",
				ErrInsufficientCapacity, name, len(existing), s.maxCollections)
		}
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %q: %w", name, err)
	}
	return nil
}

// upsertBatchSize caps a single upsert call.
const upsertBatchSize = 100

// Upsert writes records in batches. Qdrant point IDs must be UUIDs, so
// the SHA-1 record identity is mapped to a deterministic UUID and kept
// verbatim in the payload under record_id.
func (s *QdrantStore) Upsert(ctx context.Context, repoID string, kind Kind, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	name := s.collectionFor(repoID, kind)

	for offset := 0; offset < len(records); offset += upsertBatchSize {
		end := offset + upsertBatchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[offset:end]

		points := make([]*qdrant.PointStruct, len(batch))
		for i, rec := range batch {
			payload := map[string]*qdrant.Value{
				"record_id": qdrant.NewValueString(rec.ID),
			}
			for k, v := range rec.Metadata {
				payload[k] = qdrant.NewValueString(v)
			}

			points[i] = &qdrant.PointStruct{
				Id:      qdrant.NewIDUUID(pointUUID(rec.ID)),
				Vectors: qdrant.NewVectors(rec.Vector...),
				Payload: payload,
			}
		}

		if _, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: name,
			Points:         points,
		}); err != nil {
			return fmt.Errorf("failed to upsert points: %w", err)
		}
	}

	return nil
}

// Query runs a cosine top-k search constrained to repoID plus any extra
// exact-match predicates.
func (s *QdrantStore) Query(ctx context.Context, repoID string, kind Kind, vector []float32, topK int, filter map[string]string) ([]Hit, error) {
	name := s.collectionFor(repoID, kind)

	// A collection that was never provisioned holds nothing. Existence
	// probes run before the first build, so report no hits rather than
	// a lookup error.
	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to check collection existence: %w", err)
	}
	if !exists {
		return nil, nil
	}

	// The repo_id condition is non-negotiable; extra predicates narrow
	// further.
	conditions := []*qdrant.Condition{
		qdrant.NewMatch("repo_id", repoID),
	}
	for k, v := range filter {
		conditions = append(conditions, qdrant.NewMatch(k, v))
	}

	response, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: name,
		Query:          qdrant.NewQuery(vector...),
		Filter:         &qdrant.Filter{Must: conditions},
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query %q: %w", name, err)
	}

	hits := make([]Hit, 0, len(response))
	for _, point := range response {
		hit := Hit{
			Score:    point.Score,
			Distance: 1 - point.Score,
			Metadata: make(map[string]string),
		}

		if payload := point.Payload; payload != nil {
			if id, ok := payload["record_id"]; ok {
				hit.ID = id.GetStringValue()
			}
			for k, v := range payload {
				if k != "record_id" {
					hit.Metadata[k] = v.GetStringValue()
				}
			}
		}

		hits = append(hits, hit)
	}

	return hits, nil
}

// pointUUID derives a stable UUID from a SHA-1 hex record ID. Same record
// ID, same point: upserts overwrite instead of duplicating.
func pointUUID(recordID string) string {
	raw, err := hex.DecodeString(recordID)
	if err == nil && len(raw) >= 16 {
		id, err := uuid.FromBytes(raw[:16])
		if err == nil {
			return id.String()
		}
	}
	// Non-hex IDs still get a deterministic mapping.
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(recordID)).String()
}

// Ensure QdrantStore implements Store.
var _ Store = (*QdrantStore)(nil)
