// Package ledger implements the hash-chained append-only transaction log
// of spec.md §4.4/§6: an ordered sequence of blocks, each binding a batch
// operation's per-image fingerprints and parameters to the block before it.
package ledger

// Header is the per-block envelope, per spec.md §6.
type Header struct {
	Timestamp     float64 `json:"timestamp"`
	PreviousHash  string  `json:"previous_hash"`
	BlockNumber   int     `json:"block_number"`
}

// Block kinds, per spec.md §3's "info ∈ {embedder, remover}" (genesis is
// the synthesized zeroth block).
const (
	InfoGenesis  = "genesis"
	InfoEmbedder = "embedder"
	InfoRemover  = "remover"
)

// Block is one ledger entry. Transaction is left as interface{} rather
// than a tagged union because its shape depends entirely on Info, and the
// genesis block carries an empty transaction — encoding/json round-trips
// any of EmbedderTransaction, RemoverTransaction, or map[string]any
// equally well.
type Block struct {
	Header      Header      `json:"header"`
	Info        string      `json:"info"`
	Transaction interface{} `json:"transaction"`
}

// genesisPreviousHash is a run of zeros longer than a hash; its first 64
// characters ("0" x 64, per spec.md §3) are the genesis previous_hash, so
// every use slices it with [:64].
const genesisPreviousHash = "0000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000"

func genesisBlock() Block {
	return Block{
		Header: Header{
			Timestamp:    0,
			PreviousHash: genesisPreviousHash[:64],
			BlockNumber:  0,
		},
		Info:        InfoGenesis,
		Transaction: map[string]interface{}{},
	}
}

// EmbedderTransaction is the per-batch embed record, per spec.md §6.
type EmbedderTransaction struct {
	TotalImages     int                        `json:"total_images"`
	ProcessedImages int                        `json:"processed_images"`
	FailedImages    []string                   `json:"failed_images"`
	TransactionDict map[string]EmbedderEntry   `json:"transaction_dict"`
}

// EmbedderEntry describes one successfully embedded image, keyed by
// hash_image_wat in the enclosing TransactionDict.
type EmbedderEntry struct {
	Timestamp     float64     `json:"timestamp"`
	SecretKey     string      `json:"secret_key"`
	Message       string      `json:"message"`
	Watermark     string      `json:"watermark"`
	Kernel        [][]float64 `json:"kernel"`
	Stride        int         `json:"stride"`
	THi           int64       `json:"t_hi"`
	HashImageWat  string      `json:"hash_image_wat"`
	HashImageOrig string      `json:"hash_image_orig"`
	BitDepth      int         `json:"bit_depth"`
	DataType      string      `json:"data_type"`
	OperationType string      `json:"operation_type"`
}

// RemoverTransaction is the per-batch removal record, per spec.md §6.
type RemoverTransaction struct {
	Timestamp             float64                  `json:"timestamp"`
	Operation             string                   `json:"operation"`
	BatchSize             int                      `json:"batch_size"`
	SuccessfulExtractions int                      `json:"successful_extractions"`
	FailedExtractions     int                      `json:"failed_extractions"`
	AverageBER            float64                  `json:"average_ber"`
	TransactionDict       map[string]RemoverEntry  `json:"transaction_dict"`
}

// RemoverEntry describes one removal, keyed by watermarked_image_hash in
// the enclosing TransactionDict.
type RemoverEntry struct {
	OperationType       string            `json:"operation_type"`
	OriginalImageHash   string            `json:"original_image_hash"`
	WatermarkedImageHash string           `json:"watermarked_image_hash"`
	RecoveredImageHash  string            `json:"recovered_image_hash"`
	ExtractionBER       float64           `json:"extraction_ber"`
	OriginalWatermark   string            `json:"original_watermark"`
	ExtractedWatermark  string            `json:"extracted_watermark"`
	RemovalParameters   RemovalParameters `json:"removal_parameters"`
}

// RemovalParameters names the codec configuration a removal used,
// including OverflowScheme so a future reader can reinterpret the image
// independent of this binary's source (spec.md §4.3).
type RemovalParameters struct {
	Kernel         [][]float64 `json:"kernel"`
	Stride         int         `json:"stride"`
	THi            int64       `json:"t_hi"`
	BitDepth       int         `json:"bit_depth"`
	OverflowScheme string      `json:"overflow_scheme"`
}
