package imgbuf

import "testing"

func TestNewRejectsBadDimensions(t *testing.T) {
	if _, err := New(0, 4, 8); err == nil {
		t.Fatal("want error for zero width")
	}
	if _, err := New(4, 4, 0); err == nil {
		t.Fatal("want error for zero bit depth")
	}
	if _, err := New(4, 4, 33); err == nil {
		t.Fatal("want error for bit depth > 32")
	}
}

func TestSetClampsToMaxSample(t *testing.T) {
	img, err := New(2, 2, 8)
	if err != nil {
		t.Fatal(err)
	}
	img.Set(0, 0, 1000)
	if got := img.At(0, 0); got != 255 {
		t.Fatalf("Set(1000) = %d, want clamped to 255", got)
	}
}

func TestAtPanicsOutOfBounds(t *testing.T) {
	img, _ := New(2, 2, 8)
	defer func() {
		if recover() == nil {
			t.Fatal("want panic on out-of-bounds At")
		}
	}()
	img.At(5, 5)
}

func TestCloneIsIndependent(t *testing.T) {
	img, _ := New(2, 2, 8)
	img.Set(0, 0, 10)
	clone := img.Clone()
	clone.Set(0, 0, 20)
	if img.At(0, 0) != 10 {
		t.Fatalf("mutating clone affected original: %d", img.At(0, 0))
	}
	if !img.Equal(img.Clone()) {
		t.Fatal("image should equal its own clone")
	}
}

func TestHashDiffersOnPixelChange(t *testing.T) {
	a, _ := New(4, 4, 8)
	b := a.Clone()
	b.Set(1, 1, 7)
	if a.Hash() == b.Hash() {
		t.Fatal("differing pixel data produced identical hashes")
	}
}

func TestHashStableAt16BitDepth(t *testing.T) {
	a, _ := New(4, 4, 16)
	b, _ := New(4, 4, 16)
	a.Set(0, 0, 300)
	b.Set(0, 0, 300)
	if a.Hash() != b.Hash() {
		t.Fatal("identical 16-bit images hashed differently")
	}
}

func TestSameShape(t *testing.T) {
	a, _ := New(4, 4, 8)
	b, _ := New(4, 5, 8)
	if a.SameShape(b) {
		t.Fatal("images of different height reported as same shape")
	}
	c, _ := New(4, 4, 16)
	if a.SameShape(c) {
		t.Fatal("images of different bit depth reported as same shape")
	}
}
