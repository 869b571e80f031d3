package predictor

import (
	"testing"

	"github.com/revwat/revwat/imgbuf"
)

func TestNewKernelValidation(t *testing.T) {
	cases := []struct {
		name string
		w    [][]float64
		ok   bool
	}{
		{"4-neighbor", [][]float64{{0, 0.25, 0}, {0.25, 0, 0.25}, {0, 0.25, 0}}, true},
		{"even size", [][]float64{{0, 1}, {1, 0}}, false},
		{"nonzero center", [][]float64{{0, 0.5, 0}, {0.5, 0.5, 0.5}, {0, 0.5, 0}}, false},
		{"negative weight", [][]float64{{0, -0.25, 0}, {0.25, 0.5, 0.5}, {0, 0.25, 0}}, false},
		{"bad sum", [][]float64{{0, 0.1, 0}, {0.1, 0, 0.1}, {0, 0.1, 0}}, false},
		{"ragged row", [][]float64{{0, 1, 0}, {0, 0}, {0, 1, 0}}, false},
	}
	for _, c := range cases {
		_, err := NewKernel(c.w)
		if (err == nil) != c.ok {
			t.Errorf("%s: err=%v, want ok=%v", c.name, err, c.ok)
		}
	}
}

func TestPredictFlatImage(t *testing.T) {
	img, _ := imgbuf.New(5, 5, 8)
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			img.Set(x, y, 100)
		}
	}
	k := Default4Neighbor()
	p, err := Predict(k, img, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if p != 100 {
		t.Fatalf("flat-image prediction = %d, want 100", p)
	}
}

func TestPredictFloorsFraction(t *testing.T) {
	img, _ := imgbuf.New(3, 3, 8)
	// neighbors of (1,1): up=1, down=2, left=1, right=2 -> mean=1.5 -> floor 1
	img.Set(1, 0, 1)
	img.Set(1, 2, 2)
	img.Set(0, 1, 1)
	img.Set(2, 1, 2)
	k := Default4Neighbor()
	p, err := Predict(k, img, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if p != 1 {
		t.Fatalf("prediction = %d, want floor(1.5)=1", p)
	}
}

func TestPredictRejectsBorder(t *testing.T) {
	img, _ := imgbuf.New(3, 3, 8)
	k := Default4Neighbor()
	if _, err := Predict(k, img, 0, 1); err == nil {
		t.Fatal("want error predicting at the border")
	}
}

func TestLatticeNonOverlappingFootprints(t *testing.T) {
	k := Default4Neighbor() // size 3, half 1
	lat, err := NewLattice(k, 3, 10, 10)
	if err != nil {
		t.Fatal(err)
	}
	if lat.Cols == 0 || lat.Rows == 0 {
		t.Fatal("expected a non-empty lattice")
	}
	seen := make(map[[2]int]bool)
	for row := 0; row < lat.Rows; row++ {
		for col := 0; col < lat.Cols; col++ {
			x, y := lat.Origin(col, row)
			for i := -k.Half; i <= k.Half; i++ {
				for j := -k.Half; j <= k.Half; j++ {
					c := [2]int{x + i, y + j}
					if seen[c] {
						t.Fatalf("footprint overlap at (%d,%d)", c[0], c[1])
					}
					seen[c] = true
				}
			}
		}
	}
}

func TestLatticeTooSmallIsEmpty(t *testing.T) {
	k := Default4Neighbor()
	lat, err := NewLattice(k, 3, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if lat.Cells() != 0 {
		t.Fatalf("expected empty lattice for a too-small image, got %d cells", lat.Cells())
	}
}

func TestLatticeIndexIsRowMajor(t *testing.T) {
	k := Default4Neighbor()
	lat, err := NewLattice(k, 3, 20, 20)
	if err != nil {
		t.Fatal(err)
	}
	if lat.Index(0, 0) != 0 {
		t.Fatalf("Index(0,0) = %d, want 0", lat.Index(0, 0))
	}
	if lat.Index(lat.Cols-1, 0)+1 != lat.Index(0, 1) {
		t.Fatal("row-major index does not advance by Cols at row boundary")
	}
}
