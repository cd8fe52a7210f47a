package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"

	"golang.org/x/image/draw"

	"github.com/erazemk/vitrina/internal/model"
)

// MaxDimension is the maximum width or height for stored images.
const MaxDimension = 1600

// JPEGQuality is the compression quality for JPEG output.
const JPEGQuality = 85

// MaxUploadSize is the largest accepted single image upload.
const MaxUploadSize = 8 << 20

// MaxImages is the most images one listing may carry.
const MaxImages = 12

// AllowedMIME lists the accepted input MIME types.
var AllowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// ContentType sniffs the MIME type of stored image bytes. Older listings may
// hold PNG data under a .jpg name, so the extension is never trusted.
func ContentType(data []byte) string {
	return http.DetectContentType(data)
}

// Normalize validates the format by sniffing bytes, downscales if larger
// than MaxDimension and re-encodes as JPEG, so stored img{n}.jpg files really
// are JPEG.
func Normalize(data []byte) ([]byte, error) {
	detected := ContentType(data)
	if !AllowedMIME[detected] {
		return nil, &model.ValidationError{
			Field:   "images",
			Message: fmt.Sprintf("unsupported image format %s (only JPEG and PNG accepted)", detected),
		}
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &model.ValidationError{Field: "images", Message: "image could not be decoded"}
	}

	img = flatten(downscale(img, MaxDimension))

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// NormalizeStored converts a stored image that is not JPEG. JPEG data is
// returned unchanged.
func NormalizeStored(data []byte) ([]byte, error) {
	if ContentType(data) == "image/jpeg" {
		return data, nil
	}
	return Normalize(data)
}

// ReadUploads opens, size-checks and normalizes uploaded files in order.
func ReadUploads(files []*multipart.FileHeader) ([][]byte, error) {
	if len(files) > MaxImages {
		return nil, &model.ValidationError{
			Field:   "images",
			Message: fmt.Sprintf("at most %d images allowed", MaxImages),
		}
	}

	out := make([][]byte, 0, len(files))
	for _, fh := range files {
		if fh.Size > MaxUploadSize {
			return nil, &model.ValidationError{
				Field:   "images",
				Message: fmt.Sprintf("%s is larger than %d MB", fh.Filename, MaxUploadSize>>20),
			}
		}

		data, err := readUpload(fh)
		if err != nil {
			return nil, err
		}

		normalized, err := Normalize(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fh.Filename, err)
		}
		out = append(out, normalized)
	}
	return out, nil
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("opening upload %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload %s: %w", fh.Filename, err)
	}
	if len(data) > MaxUploadSize {
		return nil, &model.ValidationError{
			Field:   "images",
			Message: fmt.Sprintf("%s is larger than %d MB", fh.Filename, MaxUploadSize>>20),
		}
	}
	return data, nil
}

// downscale resizes the image so neither dimension exceeds maxDim, keeping
// the aspect ratio. Smaller images are returned as they are.
func downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	if w <= maxDim && h <= maxDim {
		return img
	}

	newW, newH := w, h
	if w > h {
		newW = maxDim
		newH = int(float64(h) * float64(maxDim) / float64(w))
	} else {
		newH = maxDim
		newW = int(float64(w) * float64(maxDim) / float64(h))
	}
	newW = max(newW, 1)
	newH = max(newH, 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

// flatten composites the image onto white, since JPEG has no alpha channel.
func flatten(img image.Image) image.Image {
	bounds := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Over)
	return dst
}

func init() {
	image.RegisterFormat("jpeg", "\xff\xd8", jpeg.Decode, jpeg.DecodeConfig)
	image.RegisterFormat("png", "\x89PNG", png.Decode, png.DecodeConfig)
}
