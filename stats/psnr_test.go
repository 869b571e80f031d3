package stats

import (
	"math"
	"testing"

	"github.com/revwat/revwat/imgbuf"
)

func TestPSNRIdenticalImagesIsInfinite(t *testing.T) {
	img, _ := imgbuf.New(8, 8, 8)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, uint32(x+y))
		}
	}
	if got := PSNR(img, img.Clone()); !math.IsInf(got, 1) {
		t.Fatalf("PSNR(identical) = %v, want +Inf", got)
	}
}

func TestPSNRDecreasesWithError(t *testing.T) {
	a, _ := imgbuf.New(8, 8, 8)
	small, _ := imgbuf.New(8, 8, 8)
	big, _ := imgbuf.New(8, 8, 8)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			a.Set(x, y, 100)
			small.Set(x, y, 100)
			big.Set(x, y, 100)
		}
	}
	small.Set(0, 0, 101) // off by 1
	big.Set(0, 0, 150)   // off by 50

	psnrSmall := PSNR(a, small)
	psnrBig := PSNR(a, big)
	if psnrSmall <= psnrBig {
		t.Fatalf("expected larger error to produce lower PSNR: small=%v big=%v", psnrSmall, psnrBig)
	}
}

func TestPSNRMismatchedShapeIsNaN(t *testing.T) {
	a, _ := imgbuf.New(8, 8, 8)
	b, _ := imgbuf.New(4, 4, 8)
	if got := PSNR(a, b); !math.IsNaN(got) {
		t.Fatalf("PSNR(mismatched shapes) = %v, want NaN", got)
	}
}
