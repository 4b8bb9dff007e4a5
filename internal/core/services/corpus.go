package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// Ensure CorpusService implements the interface.
var _ driving.CorpusService = (*CorpusService)(nil)

const (
	// DefaultInfoTTL is how long corpus info is served from cache.
	DefaultInfoTTL = 30 * time.Second

	infoCacheKey = "corpus_info"
)

// CorpusService is the local mirror of the gateway's document listing.
type CorpusService struct {
	gateway driven.Gateway
	info    *cache.Cache

	mu   sync.RWMutex
	docs []domain.Document
}

// NewCorpusService creates a corpus mirror backed by gateway.
func NewCorpusService(gateway driven.Gateway) *CorpusService {
	return NewCorpusServiceWithTTL(gateway, DefaultInfoTTL)
}

// NewCorpusServiceWithTTL creates a corpus mirror with a custom info cache TTL.
func NewCorpusServiceWithTTL(gateway driven.Gateway, ttl time.Duration) *CorpusService {
	return &CorpusService{
		gateway: gateway,
		info:    cache.New(ttl, 2*ttl),
		docs:    []domain.Document{},
	}
}

// Load performs the initial listing and degrades to an empty corpus on failure.
func (s *CorpusService) Load(ctx context.Context) {
	if err := s.Refresh(ctx); err != nil {
		logger.Warn("Initial document listing failed, starting with empty corpus: %v", err)
		s.replace([]domain.Document{})
	}
}

// Refresh replaces the local corpus with one listing response.
// Whichever refresh completes last determines the final state.
func (s *CorpusService) Refresh(ctx context.Context) error {
	logger.Debug("Refreshing document list")

	docs, err := s.gateway.ListDocuments(ctx)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}
	if docs == nil {
		docs = []domain.Document{}
	}

	s.replace(docs)
	s.info.Delete(infoCacheKey)
	logger.Debug("Corpus now has %d documents", len(docs))
	return nil
}

func (s *CorpusService) replace(docs []domain.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = docs
}

// Documents returns a snapshot of the local corpus.
func (s *CorpusService) Documents() []domain.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Document, len(s.docs))
	copy(out, s.docs)
	return out
}

// IsEmpty reports whether no documents are indexed.
func (s *CorpusService) IsEmpty() bool {
	return s.Len() == 0
}

// Len returns the number of documents.
func (s *CorpusService) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Has reports whether filename is in the local corpus.
func (s *CorpusService) Has(filename string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.docs {
		if s.docs[i].Filename == filename {
			return true
		}
	}
	return false
}

// Info returns corpus info, served from cache while fresh.
func (s *CorpusService) Info(ctx context.Context) (*domain.CorpusInfo, error) {
	if cached, ok := s.info.Get(infoCacheKey); ok {
		if info, ok := cached.(*domain.CorpusInfo); ok {
			return info, nil
		}
	}

	info, err := s.gateway.GetCorpusInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("get corpus info: %w", err)
	}

	s.info.Set(infoCacheKey, info, cache.DefaultExpiration)
	return info, nil
}

// Health reports gateway liveness.
func (s *CorpusService) Health(ctx context.Context) (*domain.Health, error) {
	health, err := s.gateway.CheckHealth(ctx)
	if err != nil {
		return nil, fmt.Errorf("check health: %w", err)
	}
	return health, nil
}
