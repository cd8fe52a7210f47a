// Package catalog is the read side of the item store: it loads items with
// their image files resolved and narrows them down for browsing.
package catalog

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/erazemk/vitrina/internal/model"
)

// Source is the part of the item store the catalog reads from.
type Source interface {
	List(ctx context.Context) ([]model.Item, error)
	ImagesDir(folder string) string
}

// LoadAll lists every item and replaces its stored image names with the
// paths of the .jpg and .png files found in its images directory. An item
// whose images cannot be read is kept with no images. The final price is
// passed through exactly as stored.
func LoadAll(ctx context.Context, src Source) ([]model.Item, error) {
	items, err := src.List(ctx)
	if err != nil {
		return nil, err
	}

	for i := range items {
		paths, err := imagePaths(src.ImagesDir(items[i].Folder))
		if err != nil {
			slog.Warn("skipping unreadable item images", "folder", items[i].Folder, "error", err)
			paths = []string{}
		}
		items[i].Images = paths
	}
	return items, nil
}

// FilterByCategory keeps items whose category equals category exactly.
// model.CategoryAll keeps everything.
func FilterByCategory(items []model.Item, category string) []model.Item {
	if category == model.CategoryAll {
		return items
	}

	out := make([]model.Item, 0, len(items))
	for _, item := range items {
		if item.Category == category {
			out = append(out, item)
		}
	}
	return out
}

// FilterBySearch keeps items whose name or description contains query,
// ignoring case. An empty query keeps everything.
func FilterBySearch(items []model.Item, query string) []model.Item {
	if query == "" {
		return items
	}

	q := strings.ToLower(query)
	out := make([]model.Item, 0, len(items))
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Name), q) ||
			strings.Contains(strings.ToLower(item.Description), q) {
			out = append(out, item)
		}
	}
	return out
}

// Filter applies the category filter and then the search filter. An empty
// category is treated as model.CategoryAll.
func Filter(items []model.Item, category, query string) []model.Item {
	if category == "" {
		category = model.CategoryAll
	}
	return FilterBySearch(FilterByCategory(items, category), query)
}

// Find returns the item with the given ID, or nil.
func Find(items []model.Item, id int64) *model.Item {
	for i := range items {
		if items[i].ID == id {
			return &items[i]
		}
	}
	return nil
}

func imagePaths(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !isImageName(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sortImageNames(names)

	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, name)
	}
	return paths, nil
}

// isImageName matches .jpg and .png in any letter case.
func isImageName(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".jpg" || ext == ".png"
}

// sortImageNames puts img2.jpg before img10.jpg. Names outside the imgN
// pattern follow, alphabetically.
func sortImageNames(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		a, aOK := uploadIndex(names[i])
		b, bOK := uploadIndex(names[j])
		switch {
		case aOK && bOK && a != b:
			return a < b
		case aOK != bOK:
			return aOK
		default:
			return names[i] < names[j]
		}
	})
}

func uploadIndex(name string) (int, bool) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	digits, ok := strings.CutPrefix(base, "img")
	if !ok || digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
