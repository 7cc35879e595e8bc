package service

import (
	"context"
	"fmt"

	"leadchat/internal/model"

	"github.com/sirupsen/logrus"
)

// PropertyService exposes catalog lookups and embedding maintenance
type PropertyService struct {
	catalog  Catalog
	embedder Embedder
	writer   EmbeddingWriter
	logger   logrus.FieldLogger
}

// NewPropertyService creates a property service. embedder and writer may be
// nil, in which case embedding refresh is unavailable.
func NewPropertyService(catalog Catalog, embedder Embedder, writer EmbeddingWriter, logger logrus.FieldLogger) *PropertyService {
	return &PropertyService{
		catalog:  catalog,
		embedder: embedder,
		writer:   writer,
		logger:   logger,
	}
}

// GetProperty returns a single catalog entry
func (s *PropertyService) GetProperty(ctx context.Context, id int64) (*model.Property, error) {
	p, err := s.catalog.GetProperty(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPropertyNotFound
	}
	return p, nil
}

// CanRefreshEmbeddings reports whether an embedder and a writer are wired
func (s *PropertyService) CanRefreshEmbeddings() bool {
	return s.embedder != nil && s.writer != nil
}

// RefreshEmbeddings embeds every catalog entry that has no embedding yet
func (s *PropertyService) RefreshEmbeddings(ctx context.Context) (*model.EmbeddingRefreshResponse, error) {
	if !s.CanRefreshEmbeddings() {
		return nil, ErrAssistantDisabled
	}

	props, err := s.catalog.ListProperties(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}

	var pending []model.Property
	for _, p := range props {
		if p.Embedding == nil {
			pending = append(pending, p)
		}
	}
	if len(pending) == 0 {
		return &model.EmbeddingRefreshResponse{}, nil
	}

	texts := make([]string, len(pending))
	for i, p := range pending {
		texts[i] = p.EmbeddingText()
	}

	vectors, err := s.embedder.CreateEmbeddings(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}
	if len(vectors) != len(pending) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, want %d", len(vectors), len(pending))
	}

	byID := make(map[int64][]float32, len(pending))
	for i, p := range pending {
		byID[p.ID] = vectors[i]
	}

	success, errs := s.writer.UpdateEmbeddings(ctx, byID)
	s.logger.WithFields(logrus.Fields{
		"success": success,
		"failed":  len(pending) - success,
	}).Info("Catalog embeddings refreshed")

	return &model.EmbeddingRefreshResponse{
		Success: success,
		Failed:  len(pending) - success,
		Errors:  errs,
	}, nil
}
