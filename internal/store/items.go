package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/erazemk/vitrina/internal/model"
)

// Layout of an item directory under the store root.
const (
	DocumentName = "data.json"
	ImagesDir    = "images"
)

// Items is the directory-backed item store:
//
//	<root>/<id>/data.json
//	<root>/<id>/images/img1.jpg ...
//
// Mutations are serialized within the process. Nothing protects against a
// second process writing the same root.
type Items struct {
	root string
	mu   sync.Mutex
}

// NewItems returns a store rooted at dir, creating the directory if needed.
func NewItems(dir string) (*Items, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("items directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating items directory: %w", err)
	}
	return &Items{root: dir}, nil
}

// Root returns the store's root directory.
func (s *Items) Root() string {
	return s.root
}

// ImagesDir returns the images directory of the item stored in folder.
func (s *Items) ImagesDir(folder string) string {
	return filepath.Join(s.root, folder, ImagesDir)
}

// ImagePath returns the path of a single image file in the item stored in
// folder. Folder names need not be numeric, but both folder and name must be
// single visible path elements so the result stays inside the root.
func (s *Items) ImagePath(folder, name string) (string, error) {
	if !plainName(folder) {
		return "", fmt.Errorf("invalid item folder %q", folder)
	}
	if !plainName(name) {
		return "", fmt.Errorf("invalid image name %q", name)
	}
	return filepath.Join(s.ImagesDir(folder), name), nil
}

func plainName(name string) bool {
	return name != "" && name == filepath.Base(name) && !strings.HasPrefix(name, ".")
}

func (s *Items) itemDir(id int64) string {
	return filepath.Join(s.root, strconv.FormatInt(id, 10))
}

func (s *Items) documentPath(folder string) string {
	return filepath.Join(s.root, folder, DocumentName)
}

// NextID returns one more than the largest numeric entry in the root, or 1
// when there is none. Entries with non-numeric names are ignored.
func (s *Items) NextID(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return 0, fmt.Errorf("reading items directory: %w", err)
	}

	var highest int64
	for _, e := range entries {
		if id, ok := parseFolderID(e.Name()); ok && id > highest {
			highest = id
		}
	}
	return highest + 1, nil
}

// Create validates the fields, allocates the next ID, writes the images as
// img1.jpg, img2.jpg, ... in the given order and writes the item document.
// Nothing is written when validation fails.
func (s *Items) Create(ctx context.Context, fields model.ItemFields, images [][]byte) (*model.Item, error) {
	if err := fields.ValidateForCreate(len(images)); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.NextID(ctx)
	if err != nil {
		return nil, err
	}

	dir := s.itemDir(id)
	imagesDir := filepath.Join(dir, ImagesDir)
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating item directory: %w", err)
	}

	item := &model.Item{ID: id, Images: make([]string, 0, len(images))}
	item.ApplyFields(fields)

	for i, data := range images {
		name := fmt.Sprintf("img%d.jpg", i+1)
		if err := os.WriteFile(filepath.Join(imagesDir, name), data, 0o644); err != nil {
			os.RemoveAll(dir)
			return nil, fmt.Errorf("writing image %s: %w", name, err)
		}
		item.Images = append(item.Images, name)
	}

	folder := strconv.FormatInt(id, 10)
	if err := writeDocument(s.documentPath(folder), item); err != nil {
		os.RemoveAll(dir)
		return nil, err
	}

	item.Folder = folder
	return item, nil
}

// Get loads the item with the given ID. It returns model.ErrItemNotFound if
// the item has no document.
func (s *Items) Get(ctx context.Context, id int64) (*model.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, model.ErrItemNotFound
	}

	item, err := readDocument(s.documentPath(strconv.FormatInt(id, 10)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, model.ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	item.Folder = strconv.FormatInt(id, 10)
	return item, nil
}

// Update overwrites the editable fields of an existing item and recomputes
// its final price. Images are left as they are.
func (s *Items) Update(ctx context.Context, id int64, fields model.ItemFields) (*model.Item, error) {
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	item.ApplyFields(fields)
	if err := writeDocument(s.documentPath(item.Folder), item); err != nil {
		return nil, err
	}
	return item, nil
}

// Delete removes the item's directory tree. Deleting a missing item is not
// an error.
func (s *Items) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if id <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.RemoveAll(s.itemDir(id)); err != nil {
		return fmt.Errorf("deleting item %d: %w", id, err)
	}
	return nil
}

// List loads every item document, ordered by numeric folder name with
// non-numeric folders last. Folders without a document are skipped, as are
// documents that fail to decode.
func (s *Items) List(ctx context.Context) ([]model.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("reading items directory: %w", err)
	}

	folders := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			folders = append(folders, e.Name())
		}
	}
	sortFolders(folders)

	items := make([]model.Item, 0, len(folders))
	for _, folder := range folders {
		item, err := readDocument(s.documentPath(folder))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			slog.Warn("skipping unreadable item", "folder", folder, "error", err)
			continue
		}
		item.Folder = folder
		items = append(items, *item)
	}
	return items, nil
}

// RewriteImages passes every stored image through fn and writes the result
// back in place. It returns the number of files rewritten.
func (s *Items) RewriteImages(ctx context.Context, fn func(path string, data []byte) ([]byte, error)) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.List(ctx)
	if err != nil {
		return 0, err
	}

	rewritten := 0
	for _, item := range items {
		for _, name := range item.Images {
			if err := ctx.Err(); err != nil {
				return rewritten, err
			}

			path, err := s.ImagePath(item.Folder, name)
			if err != nil {
				slog.Warn("skipping image", "folder", item.Folder, "image", name, "error", err)
				continue
			}
			data, err := os.ReadFile(path)
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if err != nil {
				return rewritten, fmt.Errorf("reading image: %w", err)
			}

			out, err := fn(path, data)
			if err != nil {
				return rewritten, fmt.Errorf("rewriting %s: %w", path, err)
			}
			if bytes.Equal(out, data) {
				continue
			}
			if err := os.WriteFile(path, out, 0o644); err != nil {
				return rewritten, fmt.Errorf("writing image: %w", err)
			}
			rewritten++
		}
	}
	return rewritten, nil
}

func readDocument(path string) (*model.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	item := &model.Item{}
	if err := json.Unmarshal(data, item); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	// Older documents predate the condition field.
	if item.Condition == "" {
		item.Condition = model.ConditionBrandNew
	}
	if item.Images == nil {
		item.Images = []string{}
	}
	return item, nil
}

func writeDocument(path string, item *model.Item) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(item); err != nil {
		return fmt.Errorf("encoding item %d: %w", item.ID, err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing item %d: %w", item.ID, err)
	}
	return nil
}

// parseFolderID accepts only plain ASCII digit strings.
func parseFolderID(name string) (int64, bool) {
	if name == "" {
		return 0, false
	}
	for _, r := range name {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	id, err := strconv.ParseInt(name, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func sortFolders(folders []string) {
	sort.SliceStable(folders, func(i, j int) bool {
		a, aNum := parseFolderID(folders[i])
		b, bNum := parseFolderID(folders[j])
		switch {
		case aNum && bNum:
			return a < b
		case aNum != bNum:
			return aNum
		default:
			return folders[i] < folders[j]
		}
	})
}
