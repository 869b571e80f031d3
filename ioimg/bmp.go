package ioimg

import (
	"fmt"
	"os"

	"golang.org/x/image/bmp"

	"github.com/revwat/revwat/imgbuf"
)

// BMPCodec adapts golang.org/x/image/bmp to imgbuf.Image, per spec.md
// §6's supported-container list.
type BMPCodec struct{}

func (BMPCodec) Decode(path string) (*imgbuf.Image, interface{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("ioimg: bmp: open %s: %w", path, err)
	}
	defer f.Close()

	src, err := bmp.Decode(f)
	if err != nil {
		return nil, nil, fmt.Errorf("ioimg: bmp: decode %s: %w", path, err)
	}
	img, err := toImgbuf(src)
	return img, nil, err
}

func (BMPCodec) Encode(path string, img *imgbuf.Image, _ interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ioimg: bmp: create %s: %w", path, err)
	}
	defer f.Close()

	if err := bmp.Encode(f, toGray(img)); err != nil {
		return fmt.Errorf("ioimg: bmp: encode %s: %w", path, err)
	}
	return nil
}
