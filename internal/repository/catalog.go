package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"leadchat/internal/model"

	"github.com/sirupsen/logrus"
)

// DefaultProperties is the catalog used when no catalog file is available
var DefaultProperties = []model.Property{
	{
		ID:              1,
		Title:           "Modern Downtown Apartment",
		Type:            "apartment",
		TransactionType: model.TransactionRent,
		Price:           2500,
		Location:        "Downtown",
		Bedrooms:        2,
		Bathrooms:       2,
		Area:            1000,
		Description:     "Luxury apartment with city views",
		ImageURL:        "https://placehold.co/600x400",
		Features:        model.FeatureFlags{"parking": true, "gym": true},
	},
	{
		ID:              2,
		Title:           "Suburban Family Home",
		Type:            "house",
		TransactionType: model.TransactionBuy,
		Price:           450000,
		Location:        "Suburbs",
		Bedrooms:        4,
		Bathrooms:       3,
		Area:            2500,
		Description:     "Spacious family home with large backyard",
		ImageURL:        "https://placehold.co/600x400",
		Features:        model.FeatureFlags{"garage": true, "garden": true},
	},
}

// StaticCatalog is a read-only catalog held in memory
type StaticCatalog struct {
	properties []model.Property
	byID       map[int64]int
}

// NewStaticCatalog creates a catalog over props, keeping their order
func NewStaticCatalog(props []model.Property) *StaticCatalog {
	c := &StaticCatalog{
		properties: make([]model.Property, len(props)),
		byID:       make(map[int64]int, len(props)),
	}
	copy(c.properties, props)
	for i, p := range c.properties {
		c.byID[p.ID] = i
	}
	return c
}

// LoadStaticCatalog reads a JSON array of properties from path. A missing file
// falls back to DefaultProperties.
func LoadStaticCatalog(path string, logger logrus.FieldLogger) (*StaticCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.WithField("path", path).Warn("Catalog file not found, using built-in sample properties")
			return NewStaticCatalog(DefaultProperties), nil
		}
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var props []model.Property
	if err := json.Unmarshal(data, &props); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}
	for i, p := range props {
		if p.ID == 0 {
			return nil, fmt.Errorf("catalog entry %d has no id", i)
		}
	}

	logger.WithFields(logrus.Fields{"path": path, "count": len(props)}).Info("Catalog loaded")
	return NewStaticCatalog(props), nil
}

// ListProperties returns a copy of the catalog
func (c *StaticCatalog) ListProperties(ctx context.Context) ([]model.Property, error) {
	out := make([]model.Property, len(c.properties))
	copy(out, c.properties)
	return out, nil
}

// GetProperty returns the property with id, nil if it does not exist
func (c *StaticCatalog) GetProperty(ctx context.Context, id int64) (*model.Property, error) {
	i, ok := c.byID[id]
	if !ok {
		return nil, nil
	}
	p := c.properties[i]
	return &p, nil
}

// PropertyTypes returns the distinct lower-cased property types
func (c *StaticCatalog) PropertyTypes(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var types []string
	for _, p := range c.properties {
		t := strings.ToLower(p.Type)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		types = append(types, t)
	}
	sort.Strings(types)
	return types, nil
}
