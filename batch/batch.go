// Package batch wires ioimg, codec, ledger, and rwconfig together into the
// thin per-image orchestrators spec.md §5 calls for: iterate a directory,
// run the core codec over each image, and fold the per-image results into
// a single ledger block. Per spec.md's own framing, "Batch drivers ...
// are specified only as thin orchestrators around the core contract" —
// nothing here does watermarking math; it all lives in codec.
package batch

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/revwat/revwat/codec"
	"github.com/revwat/revwat/ioimg"
	"github.com/revwat/revwat/ledger"
	"github.com/revwat/revwat/rwconfig"
	"github.com/revwat/revwat/watermark"
)

// maxConcurrentImages bounds how many images a batch processes at once.
// Per-image work (decode, predictor pass, encode) is CPU- and I/O-bound
// with no shared state besides the ledger append, which is serialized
// separately, so a fixed worker pool is enough concurrency.
const maxConcurrentImages = 8

// logger is silent unless a caller (cmd/revwat's -v flag) points it at an
// actual writer, the same discard-by-default idiom zanicar-stegano uses
// for its own verbose logging (log.SetOutput(ioutil.Discard) unless -v).
var logger = log.New(io.Discard, "batch: ", 0)

// SetVerbose routes batch progress logging to stderr (or restores silence),
// per SPEC_FULL.md §1.1.
func SetVerbose(on bool) {
	if on {
		logger.SetOutput(os.Stderr)
	} else {
		logger.SetOutput(io.Discard)
	}
}

// EmbedResult is the outcome of embedding a batch of images, ready to fold
// into a ledger.EmbedderTransaction.
type EmbedResult struct {
	TotalImages     int
	ProcessedImages int
	FailedImages    []string
	Entries         map[string]ledger.EmbedderEntry
}

// RemoveResult is the outcome of removing a batch of watermarked images.
type RemoveResult struct {
	BatchSize             int
	SuccessfulExtractions int
	FailedExtractions     int
	AverageBER            float64
	Entries               map[string]ledger.RemoverEntry
}

// ExtractResult is the outcome of extract-only on one or more images; it
// appends no ledger block (spec.md §4.3's extract does not require the
// original and is not itself a ledgered operation).
type ExtractResult struct {
	Path      string
	Watermark string
	BER       float64 // -1 when no expected watermark was supplied to compare against
	Err       error
}

type embedOutcome struct {
	path  string
	entry ledger.EmbedderEntry
	err   error
}

// EmbedBatch embeds cfg.Message into every image under cfg.DataPath,
// writes the watermarked images under cfg.SavePath, and appends a single
// embedder block to the ledger at cfg.BlockchainPath.
func EmbedBatch(cfg rwconfig.Config) (EmbedResult, error) {
	params, err := toParams(cfg)
	if err != nil {
		return EmbedResult{}, fmt.Errorf("batch: %w", err)
	}

	paths, err := listImages(cfg.DataPath)
	if err != nil {
		return EmbedResult{}, fmt.Errorf("batch: %w", err)
	}
	if err := os.MkdirAll(cfg.SavePath, 0o755); err != nil {
		return EmbedResult{}, fmt.Errorf("batch: create save_path: %w", err)
	}

	outcomes := make([]embedOutcome, len(paths))
	runBounded(len(paths), func(i int) {
		outcomes[i] = embedOne(paths[i], cfg, params)
	})

	res := EmbedResult{
		TotalImages: len(paths),
		Entries:     make(map[string]ledger.EmbedderEntry),
	}
	for _, o := range outcomes {
		if o.err != nil {
			res.FailedImages = append(res.FailedImages, fmt.Sprintf("%s: %v", o.path, o.err))
			continue
		}
		res.ProcessedImages++
		res.Entries[o.entry.HashImageWat] = o.entry
	}
	sort.Strings(res.FailedImages)

	l, err := ledger.Open(cfg.BlockchainPath)
	if err != nil {
		return res, fmt.Errorf("batch: %w", err)
	}
	tx := ledger.EmbedderTransaction{
		TotalImages:     res.TotalImages,
		ProcessedImages: res.ProcessedImages,
		FailedImages:    res.FailedImages,
		TransactionDict: res.Entries,
	}
	blockNum, err := l.Append(ledger.InfoEmbedder, tx)
	if err != nil {
		return res, fmt.Errorf("batch: %w", err)
	}
	logger.Printf("block=%d embedded=%d/%d failed=%d", blockNum, res.ProcessedImages, res.TotalImages, len(res.FailedImages))
	return res, nil
}

func embedOne(path string, cfg rwconfig.Config, params codec.Params) embedOutcome {
	cdc, err := codecFor(path, cfg.DataType)
	if err != nil {
		return embedOutcome{path: path, err: err}
	}
	img, container, err := cdc.Decode(path)
	if err != nil {
		return embedOutcome{path: path, err: err}
	}

	secretKey := make([]byte, 32)
	if _, err := rand.Read(secretKey); err != nil {
		return embedOutcome{path: path, err: fmt.Errorf("generate secret key: %w", err)}
	}

	origHash := img.Hash()
	watermarked, w, overflow, stats, err := codec.Embed(img, secretKey, cfg.Message, params)
	if err != nil {
		return embedOutcome{path: path, err: err}
	}
	logger.Printf("%s: eligible=%d modified=%d bits=%d overflow=%d psnr=%.2f",
		filepath.Base(path), stats.EligibleBlocks, stats.ModifiedBlocks, stats.BitsEmbedded, len(overflow), stats.PSNR)

	out := filepath.Join(cfg.SavePath, filepath.Base(path))
	if err := cdc.Encode(out, watermarked, container); err != nil {
		return embedOutcome{path: path, err: err}
	}
	watHash := watermarked.Hash()

	entry := ledger.EmbedderEntry{
		Timestamp:     0, // stamped by ledger.Append's enclosing block header, not per-entry
		SecretKey:     hex.EncodeToString(secretKey),
		Message:       cfg.Message,
		Watermark:     w.Hex,
		Kernel:        cfg.Kernel,
		Stride:        cfg.Stride,
		THi:           cfg.THi,
		HashImageWat:  hex.EncodeToString(watHash[:]),
		HashImageOrig: hex.EncodeToString(origHash[:]),
		BitDepth:      cfg.BitDepth,
		DataType:      cfg.DataType,
		OperationType: "embedding",
	}
	return embedOutcome{path: path, entry: entry}
}

type removeOutcome struct {
	path  string
	entry ledger.RemoverEntry
	ber   float64
	err   error
}

// RemoveBatch fully reverses every watermarked image under cfg.DataPath,
// writing restored images to cfg.SavePath and appending a single remover
// block recording each extraction's BER against the ledgered watermark.
func RemoveBatch(cfg rwconfig.Config) (RemoveResult, error) {
	params, err := toParams(cfg)
	if err != nil {
		return RemoveResult{}, fmt.Errorf("batch: %w", err)
	}
	l, err := ledger.Open(cfg.BlockchainPath)
	if err != nil {
		return RemoveResult{}, fmt.Errorf("batch: %w", err)
	}

	paths, err := listImages(cfg.DataPath)
	if err != nil {
		return RemoveResult{}, fmt.Errorf("batch: %w", err)
	}
	if err := os.MkdirAll(cfg.SavePath, 0o755); err != nil {
		return RemoveResult{}, fmt.Errorf("batch: create save_path: %w", err)
	}

	outcomes := make([]removeOutcome, len(paths))
	runBounded(len(paths), func(i int) {
		outcomes[i] = removeOne(paths[i], cfg, params, l)
	})

	res := RemoveResult{
		BatchSize: len(paths),
		Entries:   make(map[string]ledger.RemoverEntry),
	}
	var totalBER float64
	for _, o := range outcomes {
		if o.err != nil {
			res.FailedExtractions++
			continue
		}
		res.SuccessfulExtractions++
		totalBER += o.ber
		res.Entries[o.entry.WatermarkedImageHash] = o.entry
	}
	if res.SuccessfulExtractions > 0 {
		res.AverageBER = totalBER / float64(res.SuccessfulExtractions)
	}

	tx := ledger.RemoverTransaction{
		Operation:             "remove",
		BatchSize:             res.BatchSize,
		SuccessfulExtractions: res.SuccessfulExtractions,
		FailedExtractions:     res.FailedExtractions,
		AverageBER:            res.AverageBER,
		TransactionDict:       res.Entries,
	}
	blockNum, err := l.Append(ledger.InfoRemover, tx)
	if err != nil {
		return res, fmt.Errorf("batch: %w", err)
	}
	logger.Printf("block=%d restored=%d/%d avg_ber=%.4f", blockNum, res.SuccessfulExtractions, res.BatchSize, res.AverageBER)
	return res, nil
}

func removeOne(path string, cfg rwconfig.Config, params codec.Params, l *ledger.Ledger) removeOutcome {
	cdc, err := codecFor(path, cfg.DataType)
	if err != nil {
		return removeOutcome{path: path, err: err}
	}
	img, container, err := cdc.Decode(path)
	if err != nil {
		return removeOutcome{path: path, err: err}
	}
	watHash := img.Hash()
	watHashHex := hex.EncodeToString(watHash[:])

	blockNum, found := l.FindByWatermarkedHash(watHashHex)
	if !found {
		return removeOutcome{path: path, err: fmt.Errorf("no ledger entry for %s", watHashHex)}
	}
	entryMeta, secretKey, origHashHex, expectedW, err := lookupEmbedderEntry(l, blockNum, watHashHex)
	if err != nil {
		return removeOutcome{path: path, err: err}
	}

	restored, recoveredW, err := codec.Remove(img, secretKey, params)
	if err != nil {
		return removeOutcome{path: path, err: err}
	}
	if err := codec.VerifyWatermark(expectedW, recoveredW); err != nil {
		return removeOutcome{path: path, err: err}
	}

	restoredHash := restored.Hash()
	restoredHashHex := hex.EncodeToString(restoredHash[:])
	if restoredHashHex != origHashHex {
		return removeOutcome{path: path, err: fmt.Errorf("%w: recovered image hash %s != original %s",
			codec.ErrWatermarkMismatch, restoredHashHex, origHashHex)}
	}

	out := filepath.Join(cfg.SavePath, filepath.Base(path))
	if err := cdc.Encode(out, restored, container); err != nil {
		return removeOutcome{path: path, err: err}
	}
	logger.Printf("%s: wat=%s.. restored=%s.. block=%d", filepath.Base(path), watHashHex[:8], restoredHashHex[:8], blockNum)

	entry := ledger.RemoverEntry{
		OperationType:        "removal",
		OriginalImageHash:    origHashHex,
		WatermarkedImageHash: watHashHex,
		RecoveredImageHash:   restoredHashHex,
		ExtractionBER:        0,
		OriginalWatermark:    entryMeta.Watermark,
		ExtractedWatermark:   recoveredW.Hex,
		RemovalParameters: ledger.RemovalParameters{
			Kernel:         cfg.Kernel,
			Stride:         cfg.Stride,
			THi:            cfg.THi,
			BitDepth:       cfg.BitDepth,
			OverflowScheme: codec.OverflowScheme,
		},
	}
	return removeOutcome{path: path, entry: entry, ber: 0}
}

// Extract runs extract-only over every image under cfg.DataPath. It writes
// no image and appends no block; it reads the ledger to look up each
// image's secret key (ledger.Open creates a genesis-only ledger file if
// none exists yet). spec.md §4.3's extract() is an unledgered read of an
// image's watermark.
func Extract(cfg rwconfig.Config) ([]ExtractResult, error) {
	params, err := toParams(cfg)
	if err != nil {
		return nil, fmt.Errorf("batch: %w", err)
	}
	l, err := ledger.Open(cfg.BlockchainPath)
	if err != nil {
		return nil, fmt.Errorf("batch: %w", err)
	}

	paths, err := listImages(cfg.DataPath)
	if err != nil {
		return nil, fmt.Errorf("batch: %w", err)
	}

	results := make([]ExtractResult, len(paths))
	runBounded(len(paths), func(i int) {
		results[i] = extractOne(paths[i], cfg, params, l)
	})
	return results, nil
}

func extractOne(path string, cfg rwconfig.Config, params codec.Params, l *ledger.Ledger) ExtractResult {
	cdc, err := codecFor(path, cfg.DataType)
	if err != nil {
		return ExtractResult{Path: path, BER: -1, Err: err}
	}
	img, _, err := cdc.Decode(path)
	if err != nil {
		return ExtractResult{Path: path, BER: -1, Err: err}
	}

	watHash := img.Hash()
	watHashHex := hex.EncodeToString(watHash[:])
	blockNum, found := l.FindByWatermarkedHash(watHashHex)

	var secretKey []byte
	var expected watermark.W
	haveExpected := false
	if found {
		entryMeta, key, _, w, err := lookupEmbedderEntry(l, blockNum, watHashHex)
		if err == nil {
			secretKey = key
			expected = w
			haveExpected = true
			_ = entryMeta
		}
	}
	if secretKey == nil {
		return ExtractResult{Path: path, BER: -1, Err: fmt.Errorf("no ledger entry for %s; cannot derive selection mask without secret key", watHashHex)}
	}

	w, _, err := codec.Extract(img, secretKey, params, 0)
	if err != nil {
		return ExtractResult{Path: path, BER: -1, Err: err}
	}

	ber := -1.0
	if haveExpected {
		ber = watermark.BER(expected, w, watermark.Bits)
	}
	logger.Printf("%s: wat=%s.. block=%d ber=%.4f", filepath.Base(path), watHashHex[:8], blockNum, ber)
	return ExtractResult{Path: path, Watermark: w.Hex, BER: ber}
}

// lookupEmbedderEntry resolves the full embedder entry for a watermarked
// image hash already known to live in blockNum, returning its decoded
// secret key, original-image hash, and derived watermark alongside the
// raw entry for metadata fields (message, watermark hex, ...).
func lookupEmbedderEntry(l *ledger.Ledger, blockNum int, watHashHex string) (ledger.EmbedderEntry, []byte, string, watermark.W, error) {
	entry, ok := l.EmbedderEntry(blockNum, watHashHex)
	if !ok {
		return ledger.EmbedderEntry{}, nil, "", watermark.W{}, fmt.Errorf("ledger block %d missing entry for %s", blockNum, watHashHex)
	}
	secretKey, err := hex.DecodeString(entry.SecretKey)
	if err != nil {
		return ledger.EmbedderEntry{}, nil, "", watermark.W{}, fmt.Errorf("decode secret_key: %w", err)
	}
	w, err := watermark.FromHex(entry.Watermark)
	if err != nil {
		return ledger.EmbedderEntry{}, nil, "", watermark.W{}, err
	}
	return entry, secretKey, entry.HashImageOrig, w, nil
}

func toParams(cfg rwconfig.Config) (codec.Params, error) {
	k, err := cfg.ToKernel()
	if err != nil {
		return codec.Params{}, err
	}
	return codec.Params{Kernel: k, Stride: cfg.Stride, THi: cfg.THi, BitDepth: cfg.BitDepth}, nil
}

func codecFor(path, dataType string) (ioimg.Codec, error) {
	if dataType != "" {
		return ioimg.ForDataType(dataType)
	}
	return ioimg.ForExtension(path)
}

func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// runBounded runs fn(i) for i in [0, n) across at most maxConcurrentImages
// goroutines at once, blocking until all have finished.
func runBounded(n int, fn func(i int)) {
	sem := make(chan struct{}, maxConcurrentImages)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			fn(i)
		}()
	}
	wg.Wait()
}

