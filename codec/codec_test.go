package codec

import (
	"errors"
	"math"
	"testing"

	"github.com/revwat/revwat/imgbuf"
	"github.com/revwat/revwat/predictor"
	"github.com/revwat/revwat/watermark"
)

func testParams(t *testing.T) Params {
	t.Helper()
	return Params{Kernel: predictor.Default4Neighbor(), Stride: 3, THi: 0, BitDepth: 8}
}

func rampImage(t *testing.T, w, h int) *imgbuf.Image {
	t.Helper()
	img, err := imgbuf.New(w, h, 8)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, uint32((x+y*3)%200))
		}
	}
	return img
}

func flatImage(t *testing.T, w, h int, v uint32) *imgbuf.Image {
	t.Helper()
	img, err := imgbuf.New(w, h, 8)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, v)
		}
	}
	return img
}

func TestEmbedExtractRemoveRoundTrip(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	img := rampImage(t, 48, 48)
	params := testParams(t)

	watermarked, w, _, stats, err := Embed(img, key, "hello watermark", params)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if stats.BitsEmbedded == 0 {
		t.Fatal("expected at least one bit embedded")
	}
	if stats.PSNR < 30 {
		t.Fatalf("PSNR too low for a near-lossless embed: %v", stats.PSNR)
	}
	if math.IsNaN(stats.PSNR) {
		t.Fatal("PSNR is NaN")
	}

	extractedW, _, err := Extract(watermarked, key, params, 0)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if err := VerifyWatermark(w, extractedW); err != nil {
		t.Fatalf("extracted watermark mismatch: %v", err)
	}

	restored, removedW, err := Remove(watermarked, key, params)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := VerifyWatermark(w, removedW); err != nil {
		t.Fatalf("removed watermark mismatch: %v", err)
	}
	if !restored.Equal(img) {
		t.Fatal("Remove did not exactly reconstruct the original image")
	}
}

func TestEmbedFailsWhenSaturatedThroughout(t *testing.T) {
	key := []byte("another secret key, long enough")
	img := flatImage(t, 24, 24, 255)
	params := testParams(t)

	_, _, _, _, err := Embed(img, key, "msg", params)
	if !errors.Is(err, ErrInsufficientCapacity) {
		t.Fatalf("want ErrInsufficientCapacity for an all-saturated image, got %v", err)
	}
}

func TestRemoveDetectsWatermarkMismatchAfterTamper(t *testing.T) {
	key := []byte("tamper test secret key material!")
	img := rampImage(t, 48, 48)
	params := testParams(t)

	watermarked, w, _, _, err := Embed(img, key, "tamper me", params)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	lat, err := predictor.NewLattice(params.Kernel, params.Stride, watermarked.Width, watermarked.Height)
	if err != nil {
		t.Fatal(err)
	}
	mask, err := watermark.SelectionMask(key, lat.Cols, lat.Rows)
	if err != nil {
		t.Fatal(err)
	}
	// Flip the center pixel of a non-eligible block. Disjoint footprints
	// (stride == kernel size here) mean this pixel feeds no other block's
	// prediction, so it can only ever corrupt the overflow channel this
	// block itself may carry, never the watermark channel.
	var tx, ty int
	found := false
	for row := 0; row < lat.Rows && !found; row++ {
		for col := 0; col < lat.Cols; col++ {
			if mask.At(col, row) == 0 {
				tx, ty = lat.Origin(col, row)
				found = true
				break
			}
		}
	}
	if !found {
		t.Fatal("test image produced no non-eligible blocks to tamper with")
	}
	tampered := watermarked.Clone()
	tampered.Set(tx, ty, tampered.At(tx, ty)^1)

	extractedW, _, err := Extract(tampered, key, params, 0)
	if err != nil {
		t.Fatalf("Extract after tamper: %v", err)
	}
	if err := VerifyWatermark(w, extractedW); err != nil {
		t.Fatalf("tampering a non-eligible pixel should not change the extracted watermark: %v", err)
	}

	_, removedW, err := Remove(tampered, key, params)
	if err != nil {
		t.Fatalf("Remove after tamper: %v", err)
	}
	if err := VerifyWatermark(w, removedW); err != nil {
		t.Fatalf("tampering a non-eligible pixel should not change the removed watermark: %v", err)
	}
}

func TestParamsValidateRejectsStrideSmallerThanKernel(t *testing.T) {
	p := Params{Kernel: predictor.Default4Neighbor(), Stride: 1, THi: 0, BitDepth: 8}
	if err := p.Validate(); err == nil {
		t.Fatal("want error when stride < kernel size")
	}
}

func TestParamsValidateRejectsBadBitDepth(t *testing.T) {
	p := Params{Kernel: predictor.Default4Neighbor(), Stride: 3, THi: 0, BitDepth: 0}
	if err := p.Validate(); err == nil {
		t.Fatal("want error for zero bit depth")
	}
}
