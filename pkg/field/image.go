package field

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// FromImage converts an image to a scalar field of luminance values in the
// [0, 1] range. Color images are converted to grayscale first; the field has
// one cell per pixel.
func FromImage(img image.Image) *Field {
	gray := imaging.Grayscale(img)
	bounds := gray.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	f := New(height, width)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			// After Grayscale all three channels are equal; the red
			// channel carries the luminance.
			r, _, _, _ := gray.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			f.Set(y, x, float64(r)/65535.0)
		}
	}
	return f
}

// ToGray renders the field as an 8-bit grayscale image, linearly rescaling
// the value range to [0, 255]. A constant field renders as black. Intended
// for saving intermediate results, not for further numeric processing.
func ToGray(f *Field) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, f.Cols(), f.Rows()))
	min, max := f.MinMax()
	span := max - min
	for y := 0; y < f.Rows(); y++ {
		for x := 0; x < f.Cols(); x++ {
			v := 0.0
			if span > 0 {
				v = (f.At(y, x) - min) / span
			}
			img.SetGray(x, y, color.Gray{Y: uint8(v*255 + 0.5)})
		}
	}
	return img
}
