// Package importer bulk-loads listings from a YAML manifest into the item
// store.
//
//	items:
//	  - name: RTX 3080
//	    category: GPUs
//	    condition: Like New
//	    price: 500
//	    discount_percentage: 10
//	    images: [photos/front.png, photos/back.jpg]
//
// Image paths are relative to the manifest's directory.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"

	"github.com/erazemk/vitrina/internal/imaging"
	"github.com/erazemk/vitrina/internal/model"
)

// Creator is the part of the item store the importer writes to.
type Creator interface {
	Create(ctx context.Context, fields model.ItemFields, images [][]byte) (*model.Item, error)
}

// Manifest is the top-level import document.
type Manifest struct {
	Items []Entry `yaml:"items"`
}

// Entry describes one listing to import.
type Entry struct {
	Name               string   `yaml:"name"`
	Category           string   `yaml:"category"`
	Condition          string   `yaml:"condition"`
	Description        string   `yaml:"description"`
	Price              float64  `yaml:"price"`
	DiscountPercentage float64  `yaml:"discount_percentage"`
	Images             []string `yaml:"images"`
}

// Fields returns the entry's editable item fields.
func (e Entry) Fields() model.ItemFields {
	return model.ItemFields{
		Name:               e.Name,
		Category:           e.Category,
		Condition:          e.Condition,
		Description:        e.Description,
		Price:              e.Price,
		DiscountPercentage: e.DiscountPercentage,
	}
}

// Result summarizes an import run.
type Result struct {
	Created []int64
	Failed  int
}

// LoadManifest reads and parses a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var m Manifest
	if err := yaml.UnmarshalStrict(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	return &m, nil
}

// Import creates one item per manifest entry, in order. An entry that fails
// validation or whose images cannot be read is logged and skipped; any other
// store error aborts the run.
func Import(ctx context.Context, dst Creator, manifestPath string) (*Result, error) {
	m, err := LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}

	baseDir := filepath.Dir(manifestPath)
	res := &Result{}
	for i, entry := range m.Items {
		log := slog.With("entry", i+1, "name", entry.Name)

		images, err := loadImages(baseDir, entry.Images)
		if err != nil {
			log.Warn("skipping entry", "error", err)
			res.Failed++
			continue
		}

		item, err := dst.Create(ctx, entry.Fields(), images)
		if model.IsValidationError(err) {
			log.Warn("skipping entry", "error", err)
			res.Failed++
			continue
		}
		if err != nil {
			return res, fmt.Errorf("importing entry %d: %w", i+1, err)
		}

		log.Info("item imported", "id", item.ID)
		res.Created = append(res.Created, item.ID)
	}
	return res, nil
}

func loadImages(baseDir string, paths []string) ([][]byte, error) {
	if len(paths) > imaging.MaxImages {
		return nil, fmt.Errorf("at most %d images allowed", imaging.MaxImages)
	}

	images := make([][]byte, 0, len(paths))
	for _, p := range paths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(baseDir, p)
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading image: %w", err)
		}
		normalized, err := imaging.Normalize(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		images = append(images, normalized)
	}
	return images, nil
}
