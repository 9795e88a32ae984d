package variant

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// aspectTolerance guards against micro-padding caused by floating
// point noise when a source is already at the target aspect ratio.
const aspectTolerance = 1e-6

var ErrEmptyImage = errors.New("variant: source image has zero dimension")

// Uncrop pads img with a centered white canvas until it reaches
// targetAspect. It never crops: every source pixel survives at 1:1
// scale, letterboxed inside the new canvas.
func Uncrop(img image.Image, targetAspect float64) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	aspect := float64(w) / float64(h)

	if math.Abs(aspect-targetAspect) < aspectTolerance {
		return img
	}

	var canvas *image.NRGBA
	if aspect > targetAspect {
		// Too wide: pad top and bottom.
		canvas = imaging.New(w, int(float64(w)/targetAspect), color.White)
	} else {
		// Too tall: pad left and right.
		canvas = imaging.New(int(float64(h)*targetAspect), h, color.White)
	}
	return imaging.PasteCenter(canvas, img)
}

// RenderAll produces one derivative per catalog entry. The empty-suffix
// entry is rendered first by uncropping the master to the base aspect
// and resizing; every other suffix rescales that base variant, except
// the square avatar suffix which uncrops the master to 1:1 so it does
// not inherit the base letterboxing.
func RenderAll(master image.Image, sizes SizeCatalog) (map[string]image.Image, error) {
	const op = "variant.RenderAll"

	b := master.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyImage)
	}

	base, ok := sizes[""]
	if !ok {
		return nil, fmt.Errorf("%s: size catalog has no base entry", op)
	}

	baseVariant := Uncrop(master, base.Aspect())
	baseVariant = imaging.Resize(baseVariant, base.Width, base.Height, imaging.Lanczos)

	out := make(map[string]image.Image, len(sizes))
	out[""] = baseVariant

	for suffix, size := range sizes {
		if suffix == "" {
			continue
		}
		src := image.Image(baseVariant)
		if suffix == SuffixUser {
			src = Uncrop(master, 1.0)
		}
		out[suffix] = imaging.Resize(src, size.Width, size.Height, imaging.Lanczos)
	}
	return out, nil
}

// EncodeJPEG encodes a rendered derivative for upload.
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG); err != nil {
		return nil, fmt.Errorf("variant.EncodeJPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// FileName is the deterministic derivative file name for an image id.
func FileName(imageID int64, suffix string) string {
	return fmt.Sprintf("%d%s.jpg", imageID, suffix)
}
