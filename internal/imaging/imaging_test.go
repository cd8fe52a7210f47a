package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"github.com/erazemk/vitrina/internal/model"
)

func createTestJPEG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{255, 0, 0, 255})
		}
	}
	var buf bytes.Buffer
	jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

func createTestPNG(w, h int) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{0, 0, 255, 128})
		}
	}
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

func decodeSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("expected jpeg output, got %s", format)
	}
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func TestNormalizeJPEG(t *testing.T) {
	out, err := Normalize(createTestJPEG(100, 100))
	if err != nil {
		t.Fatalf("Normalize JPEG: %v", err)
	}
	if ContentType(out) != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", ContentType(out))
	}
}

func TestNormalizePNGBecomesJPEG(t *testing.T) {
	out, err := Normalize(createTestPNG(64, 32))
	if err != nil {
		t.Fatalf("Normalize PNG: %v", err)
	}
	w, h := decodeSize(t, out)
	if w != 64 || h != 32 {
		t.Errorf("expected 64x32, got %dx%d", w, h)
	}
}

func TestNormalizeDownscale(t *testing.T) {
	out, err := Normalize(createTestJPEG(3200, 1600))
	if err != nil {
		t.Fatalf("Normalize large image: %v", err)
	}
	w, h := decodeSize(t, out)
	if w != MaxDimension || h != MaxDimension/2 {
		t.Errorf("expected %dx%d, got %dx%d", MaxDimension, MaxDimension/2, w, h)
	}
}

func TestNormalizeSmallImageNotUpscaled(t *testing.T) {
	out, err := Normalize(createTestJPEG(50, 50))
	if err != nil {
		t.Fatalf("Normalize small image: %v", err)
	}
	w, h := decodeSize(t, out)
	if w != 50 || h != 50 {
		t.Errorf("small image should not be resized: got %dx%d", w, h)
	}
}

func TestNormalizeRejectsOtherFormats(t *testing.T) {
	for name, data := range map[string][]byte{
		"text": []byte("not an image"),
		"gif":  []byte("GIF89a..."),
	} {
		_, err := Normalize(data)
		if err == nil {
			t.Errorf("%s: expected error", name)
			continue
		}
		if !model.IsValidationError(err) {
			t.Errorf("%s: expected validation error, got %v", name, err)
		}
	}
}

func TestNormalizeStoredKeepsJPEG(t *testing.T) {
	data := createTestJPEG(20, 20)
	out, err := NormalizeStored(data)
	if err != nil {
		t.Fatalf("NormalizeStored: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Error("JPEG data should be returned unchanged")
	}

	out, err = NormalizeStored(createTestPNG(20, 20))
	if err != nil {
		t.Fatalf("NormalizeStored PNG: %v", err)
	}
	if ContentType(out) != "image/jpeg" {
		t.Errorf("expected PNG to be converted, got %s", ContentType(out))
	}
}

func multipartFiles(t *testing.T, files map[string][]byte, order []string) []*multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, name := range order {
		fw, err := mw.CreateFormFile("images", name)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(files[name])
	}
	mw.Close()

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		t.Fatal(err)
	}
	return req.MultipartForm.File["images"]
}

func TestReadUploadsKeepsOrder(t *testing.T) {
	files := map[string][]byte{
		"front.png": createTestPNG(10, 20),
		"back.jpg":  createTestJPEG(30, 10),
	}
	headers := multipartFiles(t, files, []string{"front.png", "back.jpg"})

	out, err := ReadUploads(headers)
	if err != nil {
		t.Fatalf("ReadUploads: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 images, got %d", len(out))
	}
	if w, h := decodeSize(t, out[0]); w != 10 || h != 20 {
		t.Errorf("first upload should stay first, got %dx%d", w, h)
	}
}

func TestReadUploadsRejectsTooMany(t *testing.T) {
	files := map[string][]byte{}
	var order []string
	for i := 0; i <= MaxImages; i++ {
		name := string(rune('a'+i)) + ".jpg"
		files[name] = createTestJPEG(2, 2)
		order = append(order, name)
	}

	_, err := ReadUploads(multipartFiles(t, files, order))
	if !model.IsValidationError(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}
