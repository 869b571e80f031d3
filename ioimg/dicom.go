package ioimg

import (
	"fmt"
	"os"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/revwat/revwat/imgbuf"
)

// DICOMCodec adapts suyashkumar/dicom to imgbuf.Image, reading and
// writing the pixel array in place while leaving every other data element
// untouched, per spec.md §6: "For DICOM the pixel array is read/written
// in place; all other tags are preserved." The container value returned
// from Decode and expected by Encode is the parsed *dicom.Dataset itself,
// so Encode only ever replaces the PixelData element before serializing.
type DICOMCodec struct{}

// dicomPixelBitDepth caps the bit depth this engine watermarks at, per
// spec.md §3: "For DICOM, D=16."
const dicomPixelBitDepth = 16

func (DICOMCodec) Decode(path string) (*imgbuf.Image, interface{}, error) {
	dataset, err := dicom.ParseFile(path, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("ioimg: dicom: parse %s: %w", path, err)
	}

	elem, err := dataset.FindElementByTag(tag.PixelData)
	if err != nil {
		return nil, nil, fmt.Errorf("ioimg: dicom: %s has no pixel data: %w", path, err)
	}
	pixelInfo, ok := elem.Value.GetValue().(dicom.PixelDataInfo)
	if !ok || len(pixelInfo.Frames) == 0 {
		return nil, nil, fmt.Errorf("ioimg: dicom: %s: unreadable pixel data", path)
	}
	nativeFrame, err := pixelInfo.Frames[0].GetNativeFrame()
	if err != nil {
		return nil, nil, fmt.Errorf("ioimg: dicom: %s: %w", path, err)
	}

	img, err := imgbuf.New(nativeFrame.Cols, nativeFrame.Rows, dicomPixelBitDepth)
	if err != nil {
		return nil, nil, err
	}
	for y := 0; y < nativeFrame.Rows; y++ {
		for x := 0; x < nativeFrame.Cols; x++ {
			sample := nativeFrame.Data[y*nativeFrame.Cols+x][0]
			img.Set(x, y, uint32(sample))
		}
	}
	return img, &dataset, nil
}

func (DICOMCodec) Encode(path string, img *imgbuf.Image, container interface{}) error {
	dataset, ok := container.(*dicom.Dataset)
	if !ok || dataset == nil {
		return fmt.Errorf("ioimg: dicom: encode %s: missing parsed dataset from Decode", path)
	}

	data := make([][]int, img.Width*img.Height)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			data[y*img.Width+x] = []int{int(img.At(x, y))}
		}
	}
	nativeFrame := frame.NativeFrame{
		Rows:          img.Height,
		Cols:          img.Width,
		BitsPerSample: dicomPixelBitDepth,
		Data:          data,
	}
	pixelInfo := dicom.PixelDataInfo{
		IsEncapsulated: false,
		Frames:         []*frame.Frame{{NativeData: nativeFrame, IsEncapsulated: false}},
	}

	newElem, err := dicom.NewElement(tag.PixelData, pixelInfo)
	if err != nil {
		return fmt.Errorf("ioimg: dicom: build pixel data element: %w", err)
	}
	replaced := false
	for i, e := range dataset.Elements {
		if e.Tag == tag.PixelData {
			dataset.Elements[i] = newElem
			replaced = true
			break
		}
	}
	if !replaced {
		dataset.Elements = append(dataset.Elements, newElem)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ioimg: dicom: create %s: %w", path, err)
	}
	defer out.Close()
	if err := dicom.Write(out, *dataset); err != nil {
		return fmt.Errorf("ioimg: dicom: write %s: %w", path, err)
	}
	return nil
}
