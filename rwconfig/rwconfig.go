// Package rwconfig loads the batch-driver configuration document spec.md
// §6 defines: {data_path, save_path, ext_wat_path, blockchain_path,
// message, kernel, stride, t_hi, bit_depth, data_type}.
package rwconfig

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/revwat/revwat/predictor"
)

// Config is one fully-resolved configuration, defaults applied.
type Config struct {
	DataPath       string      `json:"data_path"`
	SavePath       string      `json:"save_path"`
	ExtWatPath     string      `json:"ext_wat_path"`
	BlockchainPath string      `json:"blockchain_path"`
	Message        string      `json:"message"`
	Kernel         [][]float64 `json:"kernel"`
	Stride         int         `json:"stride"`
	THi            int64       `json:"t_hi"`
	BitDepth       int         `json:"bit_depth"`
	DataType       string      `json:"data_type"`
}

// raw mirrors Config but with pointer/omitted fields so Load can tell a
// field apart from its zero value before applying defaults.
type raw struct {
	DataPath       string       `json:"data_path"`
	SavePath       string       `json:"save_path"`
	ExtWatPath     string       `json:"ext_wat_path"`
	BlockchainPath string       `json:"blockchain_path"`
	Message        string       `json:"message"`
	Kernel         *[][]float64 `json:"kernel"`
	Stride         *int         `json:"stride"`
	THi            *int64       `json:"t_hi"`
	BitDepth       *int         `json:"bit_depth"`
	DataType       string       `json:"data_type"`
}

const (
	defaultStride = 3
	defaultTHi    = 0
	bitDepth8     = 8
	bitDepth16    = 16
)

// Load reads and validates a configuration file, applying spec.md §6's
// defaults: kernel = 4-neighbor average, stride = 3, t_hi = 0,
// bit_depth = 16 if data_type == "dcm" else 8.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("rwconfig: read %s: %w", path, err)
	}

	var r raw
	if err := json.Unmarshal(data, &r); err != nil {
		return Config{}, fmt.Errorf("rwconfig: parse %s: %w", path, err)
	}

	cfg := Config{
		DataPath:       r.DataPath,
		SavePath:       r.SavePath,
		ExtWatPath:     r.ExtWatPath,
		BlockchainPath: r.BlockchainPath,
		Message:        r.Message,
		DataType:       r.DataType,
	}

	if r.Kernel != nil {
		cfg.Kernel = *r.Kernel
	} else {
		cfg.Kernel = defaultKernelMatrix()
	}
	if r.Stride != nil {
		cfg.Stride = *r.Stride
	} else {
		cfg.Stride = defaultStride
	}
	if r.THi != nil {
		cfg.THi = *r.THi
	} else {
		cfg.THi = defaultTHi
	}
	if r.BitDepth != nil {
		cfg.BitDepth = *r.BitDepth
	} else if cfg.DataType == "dcm" {
		cfg.BitDepth = bitDepth16
	} else {
		cfg.BitDepth = bitDepth8
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the fields batch drivers cannot proceed without.
func (c Config) Validate() error {
	if c.DataPath == "" {
		return fmt.Errorf("rwconfig: data_path is required")
	}
	if c.SavePath == "" {
		return fmt.Errorf("rwconfig: save_path is required")
	}
	if c.BlockchainPath == "" {
		return fmt.Errorf("rwconfig: blockchain_path is required")
	}
	if c.Stride <= 0 {
		return fmt.Errorf("rwconfig: stride must be positive, got %d", c.Stride)
	}
	if len(c.Kernel) == 0 {
		return fmt.Errorf("rwconfig: kernel must not be empty")
	}
	return nil
}

// ToKernel converts the configured raw weight matrix into a
// predictor.Kernel, validating its shape in the process.
func (c Config) ToKernel() (predictor.Kernel, error) {
	return predictor.NewKernel(c.Kernel)
}

func defaultKernelMatrix() [][]float64 {
	k := predictor.Default4Neighbor()
	return k.Weights
}
