package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// ErrCorrupt is returned when a ledger file fails chain verification on
// open, per spec.md §7: "Ledger chain corruption ... is fatal: the ledger
// is opened read-only and no appends are permitted until resolved."
var ErrCorrupt = errors.New("ledger corrupt")

// ErrBlockNotFound names the "no matching block" failure kind. The lookups
// in this package do not return it: they report a miss with a false ok
// value (or an empty slice) instead.
var ErrBlockNotFound = errors.New("ledger block not found")

// document is the on-disk shape: a single structured document containing
// an ordered array of blocks (spec.md §6).
type document struct {
	Blocks []Block `json:"blocks"`
}

// Ledger is an open handle on a hash-chained block store. It is safe for
// concurrent Append calls from goroutines within this process; cross-process
// mutual exclusion during a batch append is provided by an advisory file
// lock (spec.md §5), acquired fresh for each Append.
type Ledger struct {
	path     string
	mu       sync.Mutex
	blocks   []Block
	readOnly bool
}

// Open loads a ledger from path, synthesizing the genesis block on first
// use. If the existing chain fails verification, the ledger is returned
// read-only alongside ErrCorrupt so callers can still inspect it.
func Open(path string) (*Ledger, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		l := &Ledger{path: path, blocks: []Block{genesisBlock()}}
		if err := l.writeAtomic(); err != nil {
			return nil, err
		}
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: open %s: %w", path, err)
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("ledger: open %s: %w", path, err)
	}
	l := &Ledger{path: path, blocks: doc.Blocks}
	if !l.verifyLocked() {
		l.readOnly = true
		return l, fmt.Errorf("ledger: %s: %w", path, ErrCorrupt)
	}
	return l, nil
}

// Append computes previous_hash from the current last block, assigns the
// next block_number, stamps the wall-clock timestamp, and appends
// atomically: write to a temp file, fsync, rename (spec.md §4.4).
func (l *Ledger) Append(info string, transaction interface{}) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.readOnly {
		return 0, fmt.Errorf("ledger: %w: refusing to append", ErrCorrupt)
	}

	lock := flock.New(l.lockPath())
	if err := lock.Lock(); err != nil {
		return 0, fmt.Errorf("ledger: acquire lock: %w", err)
	}
	defer lock.Unlock()

	last := l.blocks[len(l.blocks)-1]
	prevHash, err := canonicalHash(last)
	if err != nil {
		return 0, err
	}

	block := Block{
		Header: Header{
			Timestamp:    fixedTimestamp(nowSeconds()),
			PreviousHash: prevHash,
			BlockNumber:  last.Header.BlockNumber + 1,
		},
		Info:        info,
		Transaction: transaction,
	}
	l.blocks = append(l.blocks, block)
	if err := l.writeAtomic(); err != nil {
		l.blocks = l.blocks[:len(l.blocks)-1]
		return 0, err
	}
	return block.Header.BlockNumber, nil
}

// Verify recomputes the chain and cross-checks every remover transaction's
// watermarked-image hash against an earlier embedder transaction, per
// spec.md §4.4.
func (l *Ledger) Verify() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.verifyLocked()
}

func (l *Ledger) verifyLocked() bool {
	seenWatermarked := make(map[string]bool)
	for i, b := range l.blocks {
		if i == 0 {
			if b.Header.PreviousHash != genesisPreviousHash[:64] || b.Header.BlockNumber != 0 {
				return false
			}
			continue
		}
		prevHash, err := canonicalHash(l.blocks[i-1])
		if err != nil || b.Header.PreviousHash != prevHash {
			return false
		}
		if b.Header.BlockNumber != l.blocks[i-1].Header.BlockNumber+1 {
			return false
		}

		switch b.Info {
		case InfoEmbedder:
			for h := range decodeEmbedderDict(b.Transaction) {
				seenWatermarked[h] = true
			}
		case InfoRemover:
			for h := range decodeRemoverDict(b.Transaction) {
				if !seenWatermarked[h] {
					return false
				}
			}
		}
	}
	return true
}

// FindByWatermarkedHash returns the most recent embedder block whose
// transaction_dict contains h, per spec.md §4.4.
func (l *Ledger) FindByWatermarkedHash(h string) (int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(l.blocks) - 1; i >= 0; i-- {
		b := l.blocks[i]
		if b.Info != InfoEmbedder {
			continue
		}
		if _, ok := decodeEmbedderDict(b.Transaction)[h]; ok {
			return b.Header.BlockNumber, true
		}
	}
	return 0, false
}

// FindByExtractedWatermark returns every embedder block number whose
// recorded watermark equals w, per spec.md §4.4's "used by the
// extract-only path when image hashes no longer match."
func (l *Ledger) FindByExtractedWatermark(w string) []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []int
	for _, b := range l.blocks {
		if b.Info != InfoEmbedder {
			continue
		}
		for _, entry := range decodeEmbedderDict(b.Transaction) {
			if entry.Watermark == w {
				out = append(out, b.Header.BlockNumber)
				break
			}
		}
	}
	return out
}

// EmbedderEntry returns the embedder entry keyed by hashImageWat within
// block blockNumber, for callers (batch.RemoveBatch, batch.Extract) that
// already know which block FindByWatermarkedHash pointed at and need the
// rest of that entry's fields (secret key, original hash, watermark).
func (l *Ledger) EmbedderEntry(blockNumber int, hashImageWat string) (EmbedderEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, b := range l.blocks {
		if b.Header.BlockNumber != blockNumber || b.Info != InfoEmbedder {
			continue
		}
		entry, ok := decodeEmbedderDict(b.Transaction)[hashImageWat]
		return entry, ok
	}
	return EmbedderEntry{}, false
}

func (l *Ledger) lockPath() string {
	return l.path + ".lock"
}

// writeAtomic serializes the current block list to a temp file in the
// same directory, fsyncs it, and renames it over the ledger path, per
// spec.md §4.4/§5's "Appends atomically ... release on all exit paths."
func (l *Ledger) writeAtomic() error {
	raw, err := json.MarshalIndent(document{Blocks: l.blocks}, "", "  ")
	if err != nil {
		return fmt.Errorf("ledger: marshal: %w", err)
	}

	dir := filepath.Dir(l.path)
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(l.path), uuid.NewString()))

	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("ledger: create temp file: %w", err)
	}
	defer os.Remove(tmp) // no-op once the rename below succeeds

	if _, err := f.Write(raw); err != nil {
		f.Close()
		return fmt.Errorf("ledger: write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("ledger: fsync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("ledger: close temp file: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("ledger: rename into place: %w", err)
	}
	return nil
}

func nowSeconds() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

// decodeEmbedderDict recovers the transaction_dict from a Block's loosely
// typed Transaction field, which after a JSON round-trip through
// interface{} is a map[string]any rather than an EmbedderTransaction.
func decodeEmbedderDict(tx interface{}) map[string]EmbedderEntry {
	raw, err := json.Marshal(tx)
	if err != nil {
		return nil
	}
	var t EmbedderTransaction
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil
	}
	return t.TransactionDict
}

func decodeRemoverDict(tx interface{}) map[string]RemoverEntry {
	raw, err := json.Marshal(tx)
	if err != nil {
		return nil
	}
	var t RemoverTransaction
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil
	}
	return t.TransactionDict
}
