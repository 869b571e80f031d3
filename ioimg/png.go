package ioimg

import (
	"fmt"
	"image/png"
	"os"

	"github.com/revwat/revwat/imgbuf"
)

// PNGCodec adapts image/png to imgbuf.Image. It carries no container
// state to preserve: a PNG has no metadata beyond the pixel array that
// this engine cares about.
type PNGCodec struct{}

func (PNGCodec) Decode(path string) (*imgbuf.Image, interface{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("ioimg: png: open %s: %w", path, err)
	}
	defer f.Close()

	src, err := png.Decode(f)
	if err != nil {
		return nil, nil, fmt.Errorf("ioimg: png: decode %s: %w", path, err)
	}
	img, err := toImgbuf(src)
	return img, nil, err
}

func (PNGCodec) Encode(path string, img *imgbuf.Image, _ interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ioimg: png: create %s: %w", path, err)
	}
	defer f.Close()

	if err := png.Encode(f, toGray(img)); err != nil {
		return fmt.Errorf("ioimg: png: encode %s: %w", path, err)
	}
	return nil
}
