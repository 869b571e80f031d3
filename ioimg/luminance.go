package ioimg

import (
	"image"
	"image/color"

	"github.com/revwat/revwat/imgbuf"
)

// toImgbuf converts any standard-library image.Image into an 8-bit
// imgbuf.Image using the Rec. 601 luma transform, per spec.md §3's "Only
// the luminance/pixel array is manipulated." Color containers round-trip
// through grayscale; this is the same simplification zanicar-stegano
// avoids only because it conceals in RGB channels directly rather than
// reversibly embedding into predicted luminance.
func toImgbuf(src image.Image) (*imgbuf.Image, error) {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	img, err := imgbuf.New(w, h, 8)
	if err != nil {
		return nil, err
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gray := color.GrayModel.Convert(src.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray)
			img.Set(x, y, uint32(gray.Y))
		}
	}
	return img, nil
}

// toGray renders an 8-bit imgbuf.Image back into a standard library
// *image.Gray for encoding by a container-specific writer.
func toGray(img *imgbuf.Image) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			out.SetGray(x, y, color.Gray{Y: uint8(img.At(x, y))})
		}
	}
	return out
}
