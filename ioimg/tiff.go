package ioimg

import (
	"fmt"
	"os"

	"golang.org/x/image/tiff"

	"github.com/revwat/revwat/imgbuf"
)

// TIFFCodec adapts golang.org/x/image/tiff to imgbuf.Image, per spec.md
// §6's "TIFF (8-bit)".
type TIFFCodec struct{}

func (TIFFCodec) Decode(path string) (*imgbuf.Image, interface{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("ioimg: tiff: open %s: %w", path, err)
	}
	defer f.Close()

	src, err := tiff.Decode(f)
	if err != nil {
		return nil, nil, fmt.Errorf("ioimg: tiff: decode %s: %w", path, err)
	}
	img, err := toImgbuf(src)
	return img, nil, err
}

func (TIFFCodec) Encode(path string, img *imgbuf.Image, _ interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ioimg: tiff: create %s: %w", path, err)
	}
	defer f.Close()

	opts := &tiff.Options{Compression: tiff.Deflate, Predictor: false}
	if err := tiff.Encode(f, toGray(img), opts); err != nil {
		return fmt.Errorf("ioimg: tiff: encode %s: %w", path, err)
	}
	return nil
}
