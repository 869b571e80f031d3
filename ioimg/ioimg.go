// Package ioimg is the external I/O collaborator of spec.md §6: it
// normalizes PNG, JPEG, BMP, TIFF, and DICOM containers into and out of
// imgbuf.Image, so the core codec never touches a container format
// directly. Only the pixel array is manipulated; container metadata (a
// DICOM dataset's other elements, in particular) is preserved verbatim.
package ioimg

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/revwat/revwat/imgbuf"
)

// Codec reads and writes one container format, round-tripping an
// imgbuf.Image and whatever container-specific state (e.g. a DICOM
// dataset's non-pixel elements) is needed to preserve the rest of the
// file verbatim on Encode.
type Codec interface {
	Decode(path string) (*imgbuf.Image, interface{}, error)
	Encode(path string, img *imgbuf.Image, container interface{}) error
}

// DataType names the supported container kinds, matching spec.md §6's
// "data_type" configuration field.
const (
	DataTypePNG  = "png"
	DataTypeJPEG = "jpeg"
	DataTypeBMP  = "bmp"
	DataTypeTIFF = "tiff"
	DataTypeDICOM = "dcm"
)

// ForDataType resolves a configured data_type string to its Codec.
func ForDataType(dataType string) (Codec, error) {
	switch dataType {
	case DataTypePNG:
		return PNGCodec{}, nil
	case DataTypeJPEG:
		return JPEGCodec{}, nil
	case DataTypeBMP:
		return BMPCodec{}, nil
	case DataTypeTIFF:
		return TIFFCodec{}, nil
	case DataTypeDICOM:
		return DICOMCodec{}, nil
	default:
		return nil, fmt.Errorf("ioimg: unsupported data_type %q", dataType)
	}
}

// ForExtension infers a data_type from a file extension, used by batch
// drivers scanning a directory of mixed containers.
func ForExtension(path string) (Codec, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return PNGCodec{}, nil
	case ".jpg", ".jpeg":
		return JPEGCodec{}, nil
	case ".bmp":
		return BMPCodec{}, nil
	case ".tif", ".tiff":
		return TIFFCodec{}, nil
	case ".dcm":
		return DICOMCodec{}, nil
	default:
		return nil, fmt.Errorf("ioimg: unrecognized extension for %q", path)
	}
}
