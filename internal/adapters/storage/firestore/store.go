package firestore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PabloGalante/counsel-agent/internal/domain"
)

const defaultCollection = "counsel_kv"

// Store is a domain.KeyValueStore where every key is one document.
type Store struct {
	client     *firestore.Client
	collection string
}

var _ domain.KeyValueStore = (*Store)(nil)

// NewStore creates a Firestore store.
// Uses the project passed (COUNSEL_GCP_PROJECT).
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client, collection: defaultCollection}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

// Document ids cannot contain '/', the canonical key scheme only uses ':'
// but keys are still escaped to stay safe.
func docID(key string) string {
	return strings.ReplaceAll(key, "/", "%2F")
}

func (s *Store) doc(key string) *firestore.DocumentRef {
	return s.client.Collection(s.collection).Doc(docID(key))
}

type kvDoc struct {
	Key       string    `firestore:"key"`
	Value     []byte    `firestore:"value"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

// ─────────────────────────────────────────
// KeyValueStore implementation
// ─────────────────────────────────────────

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	snap, err := s.doc(key).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("firestore get %q: %w", key, domain.ErrKeyNotFound)
		}
		return nil, fmt.Errorf("firestore get %q: %w", key, err)
	}

	var doc kvDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore get %q decode: %w", key, err)
	}
	return doc.Value, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	doc := kvDoc{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}
	if _, err := s.doc(key).Set(ctx, doc); err != nil {
		return fmt.Errorf("firestore set %q: %w", key, err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	if _, err := s.doc(key).Delete(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return nil
		}
		return fmt.Errorf("firestore remove %q: %w", key, err)
	}
	return nil
}
