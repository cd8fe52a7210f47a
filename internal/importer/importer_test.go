package importer

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/vitrina/internal/imaging"
	"github.com/erazemk/vitrina/internal/model"
	"github.com/erazemk/vitrina/internal/store"
)

func writePNG(t *testing.T, path string) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestImport(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "photos", "front.png"))
	writePNG(t, filepath.Join(dir, "photos", "back.png"))

	manifest := filepath.Join(dir, "manifest.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte(`items:
  - name: RTX 3080
    category: GPUs
    condition: Like New
    price: 500
    discount_percentage: 10
    images: [photos/front.png, photos/back.png]
  - name: Nameless toaster
    category: Toasters
    price: 20
    images: [photos/front.png]
  - name: Missing photo
    category: Games
    price: 15
    images: [photos/nope.png]
  - name: Ryzen 5
    category: CPUs
    price: 150
    images: [photos/front.png]
`), 0o644))

	items, err := store.NewItems(filepath.Join(dir, "items"))
	require.NoError(t, err)

	res, err := Import(context.Background(), items, manifest)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, res.Created)
	assert.Equal(t, 2, res.Failed)

	gpu, err := items.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 450.0, gpu.FinalPrice)
	assert.Equal(t, model.ConditionLikeNew, gpu.Condition)
	assert.Equal(t, []string{"img1.jpg", "img2.jpg"}, gpu.Images)

	data, err := os.ReadFile(filepath.Join(items.ImagesDir("1"), "img1.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", imaging.ContentType(data))
}

func TestLoadManifestRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("items:\n  - name: X\n    colour: red\n"), 0o644))

	_, err := LoadManifest(path)
	assert.Error(t, err)
}
