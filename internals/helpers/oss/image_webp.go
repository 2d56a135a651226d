package helper

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

var ErrUnsupportedImage = errors.New("unsupported image format, use jpg, png or webp")

type WebPOptions struct {
	MaxW    int     // resize keeps aspect ratio
	MaxH    int
	Quality float32 // lossy quality, 0 means 80
}

// AvatarWebPOptions are the defaults for client avatars.
func AvatarWebPOptions() WebPOptions {
	return WebPOptions{
		MaxW:    envInt("IMAGE_WEBP_MAX_W", 512),
		MaxH:    envInt("IMAGE_WEBP_MAX_H", 512),
		Quality: envFloat("IMAGE_WEBP_QUALITY", 80),
	}
}

// decodeImage sniffs the content, falling back to the file extension.
func decodeImage(all []byte, filename string) (image.Image, error) {
	if len(all) == 0 {
		return nil, errors.New("empty file")
	}
	head := all
	if len(head) > 512 {
		head = head[:512]
	}
	ct := http.DetectContentType(head)
	ext := strings.ToLower(filepath.Ext(filename))

	switch {
	case strings.Contains(ct, "webp") || ext == ".webp":
		return webp.Decode(bytes.NewReader(all))
	case strings.Contains(ct, "jpeg"), strings.Contains(ct, "png"),
		ext == ".jpg", ext == ".jpeg", ext == ".png":
		return imaging.Decode(bytes.NewReader(all), imaging.AutoOrientation(true))
	}
	return nil, ErrUnsupportedImage
}

// Downscale fits src inside maxW x maxH; smaller images are returned as is.
func Downscale(src image.Image, maxW, maxH int) image.Image {
	b := src.Bounds()
	if (maxW <= 0 || b.Dx() <= maxW) && (maxH <= 0 || b.Dy() <= maxH) {
		return src
	}
	if maxW <= 0 {
		maxW = b.Dx()
	}
	if maxH <= 0 {
		maxH = b.Dy()
	}
	return imaging.Fit(src, maxW, maxH, imaging.Lanczos)
}

// ConvertToWebP reads, decodes, downscales and re-encodes as lossy webp.
func ConvertToWebP(r io.Reader, filename string, opt WebPOptions) ([]byte, error) {
	all, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	img, err := decodeImage(all, filename)
	if err != nil {
		if errors.Is(err, ErrUnsupportedImage) {
			return nil, err
		}
		return nil, fmt.Errorf("decode image: %w", err)
	}
	img = Downscale(img, opt.MaxW, opt.MaxH)

	q := opt.Quality
	if q <= 0 {
		q = 80
	}
	buf := new(bytes.Buffer)
	if err := webp.Encode(buf, img, &webp.Options{Quality: q}); err != nil {
		return nil, fmt.Errorf("encode webp: %w", err)
	}
	return buf.Bytes(), nil
}
