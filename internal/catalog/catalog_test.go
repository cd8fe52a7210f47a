package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/vitrina/internal/model"
	"github.com/erazemk/vitrina/internal/store"
)

func sampleItems() []model.Item {
	return []model.Item{
		{ID: 1, Name: "RTX 3080", Category: "GPUs", Description: "Ten gigabytes of VRAM"},
		{ID: 2, Name: "Ryzen 7 5800X", Category: "CPUs", Description: "Eight cores"},
		{ID: 3, Name: "Budget gaming PC", Category: "Full PCs", Description: "Ships with an RTX card"},
		{ID: 4, Name: "gtx 1060", Category: "GPUs", Description: ""},
	}
}

func ids(items []model.Item) []int64 {
	out := []int64{}
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}

func TestFilterByCategory(t *testing.T) {
	items := sampleItems()

	assert.Equal(t, items, FilterByCategory(items, model.CategoryAll))
	assert.Equal(t, []int64{1, 4}, ids(FilterByCategory(items, "GPUs")))
	assert.Empty(t, FilterByCategory(items, "gpus"), "category match is case-sensitive")
	assert.Empty(t, FilterByCategory(items, "GPU"), "no partial matches")
}

func TestFilterBySearch(t *testing.T) {
	items := sampleItems()

	assert.Equal(t, items, FilterBySearch(items, ""))
	assert.Empty(t, FilterBySearch(items, "Z9x"))
	assert.Equal(t, []int64{1, 3}, ids(FilterBySearch(items, "rtx")), "matches name or description")
	assert.Equal(t, []int64{4}, ids(FilterBySearch(items, "GTX")))
	assert.Equal(t, []int64{2}, ids(FilterBySearch(items, "EIGHT")))
}

func TestFilterComposesCategoryThenSearch(t *testing.T) {
	items := sampleItems()

	assert.Equal(t, []int64{1}, ids(Filter(items, "GPUs", "rtx")))
	assert.Equal(t, []int64{1, 3}, ids(Filter(items, "", "rtx")))
	assert.Equal(t, items, Filter(items, model.CategoryAll, ""))
}

func TestFind(t *testing.T) {
	items := sampleItems()

	found := Find(items, 3)
	require.NotNil(t, found)
	assert.Equal(t, "Budget gaming PC", found.Name)
	assert.Nil(t, Find(items, 42))
}

func TestLoadAllResolvesImages(t *testing.T) {
	items, err := store.NewItems(filepath.Join(t.TempDir(), "items"))
	require.NoError(t, err)
	ctx := context.Background()

	images := make([][]byte, 11)
	for i := range images {
		images[i] = []byte{byte(i)}
	}
	_, err = items.Create(ctx, model.ItemFields{Name: "Bundle", Category: "Combo Deals & Offers", Price: 900, DiscountPercentage: 5}, images)
	require.NoError(t, err)

	dir := items.ImagesDir("1")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extra.PNG"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	_, err = items.Create(ctx, model.ItemFields{Name: "Lonely", Category: "Games", Price: 10}, [][]byte{[]byte("x")})
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(items.ImagesDir("2")))

	loaded, err := LoadAll(ctx, items)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	got := loaded[0].Images
	require.Len(t, got, 12)
	assert.Equal(t, filepath.Join(dir, "img1.jpg"), got[0])
	assert.Equal(t, filepath.Join(dir, "img2.jpg"), got[1])
	assert.Equal(t, filepath.Join(dir, "img10.jpg"), got[9])
	assert.Equal(t, filepath.Join(dir, "img11.jpg"), got[10])
	assert.Equal(t, filepath.Join(dir, "extra.PNG"), got[11])
	assert.Equal(t, 855.0, loaded[0].FinalPrice)

	assert.NotNil(t, loaded[1].Images)
	assert.Empty(t, loaded[1].Images, "missing images folder yields no images")
}

func TestLoadAllKeepsItemsWithUnreadableImages(t *testing.T) {
	items, err := store.NewItems(filepath.Join(t.TempDir(), "items"))
	require.NoError(t, err)
	ctx := context.Background()

	for _, name := range []string{"Keyboard", "Mouse"} {
		_, err = items.Create(ctx, model.ItemFields{Name: name, Category: "Keyboards & Mice", Price: 40}, [][]byte{[]byte("x")})
		require.NoError(t, err)
	}

	dir := items.ImagesDir("2")
	require.NoError(t, os.RemoveAll(dir))
	require.NoError(t, os.WriteFile(dir, []byte("not a directory"), 0o644))

	loaded, err := LoadAll(ctx, items)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	assert.Equal(t, []string{filepath.Join(items.ImagesDir("1"), "img1.jpg")}, loaded[0].Images)
	assert.Equal(t, "Mouse", loaded[1].Name)
	assert.NotNil(t, loaded[1].Images)
	assert.Empty(t, loaded[1].Images)
}

type staticSource struct {
	items []model.Item
	dir   string
	err   error
}

func (s staticSource) List(context.Context) ([]model.Item, error) { return s.items, s.err }
func (s staticSource) ImagesDir(folder string) string            { return filepath.Join(s.dir, folder) }

func TestLoadAllKeepsStoredFinalPrice(t *testing.T) {
	src := staticSource{
		dir: t.TempDir(),
		items: []model.Item{
			{ID: 1, Folder: "1", Price: 100, DiscountPercentage: 50, FinalPrice: 75},
		},
	}

	loaded, err := LoadAll(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 75.0, loaded[0].FinalPrice)
}

func TestLoadAllPropagatesListErrors(t *testing.T) {
	boom := errors.New("disk on fire")
	_, err := LoadAll(context.Background(), staticSource{err: boom})
	assert.ErrorIs(t, err, boom)
}
