package storage

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
)

// ImageProcessor resizes images for upload (client) and thumbnails (server).
// Output is always JPEG. EXIF orientation is applied on decode so phone
// photos keep their visible rotation after re-encoding.
type ImageProcessor struct {
	quality int
}

func NewImageProcessor() *ImageProcessor {
	return &ImageProcessor{quality: 80}
}

// GenerateThumbnail fits the image into maxWidth x maxHeight.
func (p *ImageProcessor) GenerateThumbnail(content io.Reader, maxWidth, maxHeight int) (io.Reader, error) {
	img, err := imaging.Decode(content, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	buf, err := p.encode(imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos))
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// FitForUpload shrinks an image so neither side exceeds maxDim.
// Images already within bounds, and anything that does not decode as an
// image, are returned unchanged with changed=false.
func (p *ImageProcessor) FitForUpload(content []byte, maxDim int) (out []byte, changed bool, err error) {
	if maxDim <= 0 {
		return content, false, nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(content))
	if err != nil || (cfg.Width <= maxDim && cfg.Height <= maxDim) {
		return content, false, nil
	}

	img, err := imaging.Decode(bytes.NewReader(content), imaging.AutoOrientation(true))
	if err != nil {
		return nil, false, fmt.Errorf("failed to decode image: %w", err)
	}
	buf, err := p.encode(imaging.Fit(img, maxDim, maxDim, imaging.Lanczos))
	if err != nil {
		return nil, false, err
	}
	return buf.Bytes(), true, nil
}

func (p *ImageProcessor) encode(img image.Image) (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(p.quality)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf, nil
}
