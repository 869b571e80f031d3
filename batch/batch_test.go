package batch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/revwat/revwat/imgbuf"
	"github.com/revwat/revwat/ioimg"
	"github.com/revwat/revwat/ledger"
	"github.com/revwat/revwat/predictor"
	"github.com/revwat/revwat/rwconfig"
)

func writeTestPNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	img, err := imgbuf.New(w, h, 8)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, uint32((x*5+y*11)%200))
		}
	}
	path := filepath.Join(dir, name)
	var codec ioimg.PNGCodec
	if err := codec.Encode(path, img, nil); err != nil {
		t.Fatal(err)
	}
	return path
}

func testConfig(dataPath, savePath, chainPath string) rwconfig.Config {
	return rwconfig.Config{
		DataPath:       dataPath,
		SavePath:       savePath,
		BlockchainPath: chainPath,
		Message:        "batch test watermark",
		Kernel:         predictor.Default4Neighbor().Weights,
		Stride:         3,
		THi:            0,
		BitDepth:       8,
		DataType:       ioimg.DataTypePNG,
	}
}

func TestEmbedBatchThenRemoveBatchRoundTrip(t *testing.T) {
	root := t.TempDir()
	dataDir := filepath.Join(root, "data")
	embedOutDir := filepath.Join(root, "embedded")
	removeOutDir := filepath.Join(root, "restored")
	chainPath := filepath.Join(root, "chain.json")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		t.Fatal(err)
	}

	writeTestPNG(t, dataDir, "a.png", 40, 40)
	writeTestPNG(t, dataDir, "b.png", 48, 32)

	embedCfg := testConfig(dataDir, embedOutDir, chainPath)
	embedRes, err := EmbedBatch(embedCfg)
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if embedRes.ProcessedImages != 2 || len(embedRes.FailedImages) != 0 {
		t.Fatalf("EmbedBatch result = %+v, want 2 processed, 0 failed", embedRes)
	}

	l, err := ledger.Open(chainPath)
	if err != nil {
		t.Fatal(err)
	}
	if !l.Verify() {
		t.Fatal("ledger should verify after an embed batch")
	}

	removeCfg := testConfig(embedOutDir, removeOutDir, chainPath)
	removeRes, err := RemoveBatch(removeCfg)
	if err != nil {
		t.Fatalf("RemoveBatch: %v", err)
	}
	if removeRes.SuccessfulExtractions != 2 || removeRes.FailedExtractions != 0 {
		t.Fatalf("RemoveBatch result = %+v, want 2 successful, 0 failed", removeRes)
	}
	if removeRes.AverageBER != 0 {
		t.Fatalf("AverageBER = %v, want 0 for an untampered round trip", removeRes.AverageBER)
	}

	l2, err := ledger.Open(chainPath)
	if err != nil {
		t.Fatal(err)
	}
	if !l2.Verify() {
		t.Fatal("ledger should still verify after a remove batch")
	}

	restoredA, _, err := (ioimg.PNGCodec{}).Decode(filepath.Join(removeOutDir, "a.png"))
	if err != nil {
		t.Fatal(err)
	}
	originalA, _, err := (ioimg.PNGCodec{}).Decode(filepath.Join(dataDir, "a.png"))
	if err != nil {
		t.Fatal(err)
	}
	if !restoredA.Equal(originalA) {
		t.Fatal("restored image a.png does not exactly match the pre-embed original")
	}
}

func TestExtractWithoutLedgerEntryFails(t *testing.T) {
	root := t.TempDir()
	dataDir := filepath.Join(root, "data")
	chainPath := filepath.Join(root, "chain.json")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeTestPNG(t, dataDir, "orphan.png", 32, 32)

	cfg := testConfig(dataDir, filepath.Join(root, "out"), chainPath)
	if _, err := ledger.Open(chainPath); err != nil {
		t.Fatal(err)
	}

	results, err := Extract(cfg)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(results) != 1 || results[0].Err == nil {
		t.Fatalf("expected a single failed extraction for an un-embedded image, got %+v", results)
	}
}
