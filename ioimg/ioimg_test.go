package ioimg

import (
	"path/filepath"
	"testing"

	"github.com/revwat/revwat/imgbuf"
)

func TestPNGRoundTrip(t *testing.T) {
	img, err := imgbuf.New(16, 12, 8)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			img.Set(x, y, uint32((x*7+y*13)%256))
		}
	}

	path := filepath.Join(t.TempDir(), "test.png")
	var codec PNGCodec
	if err := codec.Encode(path, img, nil); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, _, err := codec.Decode(path)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !decoded.Equal(img) {
		t.Fatal("PNG round-trip did not reproduce the original grayscale pixel array")
	}
}

func TestForExtensionDispatch(t *testing.T) {
	cases := map[string]interface{}{
		"a.png":  PNGCodec{},
		"a.jpg":  JPEGCodec{},
		"a.jpeg": JPEGCodec{},
		"a.bmp":  BMPCodec{},
		"a.tif":  TIFFCodec{},
		"a.tiff": TIFFCodec{},
		"a.dcm":  DICOMCodec{},
	}
	for path, want := range cases {
		got, err := ForExtension(path)
		if err != nil {
			t.Fatalf("ForExtension(%q): %v", path, err)
		}
		if got != want {
			t.Errorf("ForExtension(%q) = %T, want %T", path, got, want)
		}
	}
}

func TestForExtensionRejectsUnknown(t *testing.T) {
	if _, err := ForExtension("a.gif"); err == nil {
		t.Fatal("want error for an unrecognized extension")
	}
}

func TestForDataTypeDispatch(t *testing.T) {
	if _, err := ForDataType("png"); err != nil {
		t.Fatal(err)
	}
	if _, err := ForDataType("nonsense"); err == nil {
		t.Fatal("want error for an unsupported data_type")
	}
}
