package thumbnail

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
	"github.com/tekig/thumbnail-sync/internal/entity"

	_ "golang.org/x/image/webp"
)

const contentTypeJPEG = "image/jpeg"

// makePreview renders a Width x Height JPEG, cropping whatever does not fit
// the target aspect ratio.
func makePreview(r io.Reader, quality int) (*bytes.Buffer, entity.Stage, error) {
	if r == nil {
		return nil, entity.StageDecode, errors.New("empty content")
	}

	img, err := imaging.Decode(r)
	if err != nil {
		return nil, entity.StageDecode, fmt.Errorf("decode image: %w", err)
	}

	preview := imaging.Fill(img, Width, Height, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, preview, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, entity.StageEncode, fmt.Errorf("encode jpeg: %w", err)
	}

	return &buf, "", nil
}
