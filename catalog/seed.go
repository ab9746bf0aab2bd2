package catalog

import (
	"context"
	_ "embed"
	"fmt"

	"restoflow-api/models"

	"gopkg.in/yaml.v3"
)

//go:embed starter_menu.yaml
var starterMenu []byte

type seedItem struct {
	Name     string `yaml:"name"`
	Price    int64  `yaml:"price"`
	Category string `yaml:"category"`
	ImageURL string `yaml:"image_url"`
}

// StarterMenu decodes the built-in catalog
func StarterMenu() ([]models.MenuItem, error) {
	var raw []seedItem
	if err := yaml.Unmarshal(starterMenu, &raw); err != nil {
		return nil, fmt.Errorf("decode starter menu: %w", err)
	}
	items := make([]models.MenuItem, 0, len(raw))
	for _, r := range raw {
		items = append(items, models.MenuItem{
			Name:        r.Name,
			Price:       r.Price,
			Category:    r.Category,
			ImageURL:    r.ImageURL,
			IsAvailable: true,
		})
	}
	return items, nil
}

// Seed fills an empty menu with the starter catalog. A menu that already
// has items is left alone and ErrAlreadySeeded is returned.
func (c *Catalog) Seed(ctx context.Context) (int, error) {
	n, err := c.remote.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, ErrAlreadySeeded
	}
	items, err := StarterMenu()
	if err != nil {
		return 0, err
	}
	if err := c.remote.CreateBatch(ctx, items); err != nil {
		return 0, err
	}
	c.afterWrite(ctx)
	c.log.WithField("items", len(items)).Info("menu seeded")
	return len(items), nil
}
