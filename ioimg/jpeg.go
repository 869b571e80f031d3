package ioimg

import (
	"fmt"
	"image/jpeg"
	"os"

	"github.com/revwat/revwat/imgbuf"
)

// JPEGCodec adapts image/jpeg to imgbuf.Image. JPEG is lossy on its own
// terms, independent of this engine's reversible embedding; spec.md's
// non-goal of "robustness against geometric attack" does not exempt this
// codec from round-tripping correctly on images already saved as JPEG,
// it just means a JPEG re-encode after embedding is the caller's problem,
// not this package's.
type JPEGCodec struct{}

func (JPEGCodec) Decode(path string) (*imgbuf.Image, interface{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("ioimg: jpeg: open %s: %w", path, err)
	}
	defer f.Close()

	src, err := jpeg.Decode(f)
	if err != nil {
		return nil, nil, fmt.Errorf("ioimg: jpeg: decode %s: %w", path, err)
	}
	img, err := toImgbuf(src)
	return img, nil, err
}

func (JPEGCodec) Encode(path string, img *imgbuf.Image, _ interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ioimg: jpeg: create %s: %w", path, err)
	}
	defer f.Close()

	if err := jpeg.Encode(f, toGray(img), &jpeg.Options{Quality: 95}); err != nil {
		return fmt.Errorf("ioimg: jpeg: encode %s: %w", path, err)
	}
	return nil
}
