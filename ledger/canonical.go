package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
)

// canonicalEncode produces the deterministic byte representation spec.md
// §9 requires for hash-chain equality: sorted object keys and stable
// numeric representation. encoding/json already sorts map[string]any keys
// alphabetically; round-tripping a struct through interface{} turns every
// nested object into such a map, so one pass of marshal-unmarshal-marshal
// canonicalizes struct field order too without a bespoke encoder.
func canonicalEncode(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("ledger: canonical encode: %w", err)
	}
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("ledger: canonical encode: %w", err)
	}
	return json.Marshal(generic)
}

// canonicalHash returns the hex-encoded SHA-256 of a block's canonical
// encoding, the H() function spec.md §4.4/§8 refers to.
func canonicalHash(b Block) (string, error) {
	enc, err := canonicalEncode(b)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(enc)
	return hex.EncodeToString(sum[:]), nil
}

// fixedTimestamp rounds a wall-clock timestamp to microsecond precision so
// repeated encodes of the same logical instant always serialize to the
// same JSON float literal, per spec.md §9's "fixed-precision timestamps."
func fixedTimestamp(seconds float64) float64 {
	return math.Round(seconds*1e6) / 1e6
}
