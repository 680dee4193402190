package build

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Install prefix layout:
//
//	prefix/
//	  .rdbuild-receipt.json   # what was built and how
//	  include/rdkit/
//	  lib/
//	  share/RDKit/
const receiptFile = ".rdbuild-receipt.json"

// Receipt records a successful install.
type Receipt struct {
	Formula   string    `json:"formula"`
	Version   string    `json:"version"`
	Features  []string  `json:"features"`
	Args      []string  `json:"args"`
	Runtime   string    `json:"runtime"`
	Revision  string    `json:"revision,omitempty"`
	RunID     string    `json:"run_id"`
	BuildTime time.Time `json:"build_time"`
}

// WriteReceipt stores r in prefix.
func WriteReceipt(prefix string, r *Receipt) error {
	if err := os.MkdirAll(prefix, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(prefix, receiptFile), data, 0o644)
}

// ReadReceipt loads the receipt of the install at prefix.
func ReadReceipt(prefix string) (*Receipt, error) {
	data, err := os.ReadFile(filepath.Join(prefix, receiptFile))
	if err != nil {
		return nil, err
	}
	var r Receipt
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
