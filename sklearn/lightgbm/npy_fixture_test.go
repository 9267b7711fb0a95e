package lightgbm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"
)

// TestLoadNPYFixture_RoundTrip exercises the .npy fixture loaders against a
// file this test writes itself, standing in for the larger pre-generated
// fixtures a real S6-style scenario would ship under testdata/.
func TestLoadNPYFixture_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	vecPath := filepath.Join(dir, "gradients.npy")
	vec := mat.NewDense(4, 1, []float64{1, -1, 0.5, -0.5})
	vecFile, err := os.Create(vecPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := npyio.Write(vecFile, vec); err != nil {
		t.Fatal(err)
	}
	vecFile.Close()

	got := loadNPYVector(t, vecPath)
	want := []float64{1, -1, 0.5, -0.5}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("loadNPYVector[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	binPath := filepath.Join(dir, "bins.npy")
	binMat := mat.NewDense(4, 2, []float64{0, 1, 0, 1, 1, 0, 1, 0})
	binFile, err := os.Create(binPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := npyio.Write(binFile, binMat); err != nil {
		t.Fatal(err)
	}
	binFile.Close()

	bins := loadNPYBinMatrix(t, binPath)
	if len(bins) != 2 || len(bins[0]) != 4 {
		t.Fatalf("loadNPYBinMatrix shape = %d x %d, want 2 x 4", len(bins), len(bins[0]))
	}
	if bins[0][0] != 0 || bins[1][0] != 1 {
		t.Fatalf("loadNPYBinMatrix values = %v, want first column [0 0 1 1]", bins)
	}
}

// loadNPYVector reads a 1-D (or single-column) .npy file into a []float64.
// The round-trip test above is its only caller.
func loadNPYVector(t *testing.T, path string) []float64 {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	r, err := npyio.NewReader(f)
	if err != nil {
		t.Fatalf("npyio.NewReader %s: %v", path, err)
	}

	var dense mat.Dense
	if err := r.Read(&dense); err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	rows, cols := dense.Dims()
	out := make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out = append(out, dense.At(i, j))
		}
	}
	return out
}

// loadNPYBinMatrix reads a 2-D .npy file of pre-binned feature ids
// (row-major, one column per feature) into bins[inner][row], the layout
// NewBinnedDataset expects.
func loadNPYBinMatrix(t *testing.T, path string) [][]uint32 {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	r, err := npyio.NewReader(f)
	if err != nil {
		t.Fatalf("npyio.NewReader %s: %v", path, err)
	}

	var dense mat.Dense
	if err := r.Read(&dense); err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	rows, cols := dense.Dims()
	bins := make([][]uint32, cols)
	for c := 0; c < cols; c++ {
		col := make([]uint32, rows)
		for r := 0; r < rows; r++ {
			col[r] = uint32(dense.At(r, c))
		}
		bins[c] = col
	}
	return bins
}
