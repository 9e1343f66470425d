package contracts

import (
	"errors"
	"fmt"
)

// Error kinds shared by every job
// ⭐ SSOT: match with errors.Is, never by message
var (
	ErrFetch            = errors.New("fetch error")
	ErrDownload         = errors.New("download error")
	ErrSymbolProcessing = errors.New("symbol processing error")
	ErrStorage          = errors.New("storage error")

	ErrNoSymbols   = errors.New("no symbols retrieved")
	ErrNoPriceData = errors.New("no price data obtained")
)

// SymbolError is a recoverable failure of one symbol within one bucket
type SymbolError struct {
	Symbol string
	Bucket string // empty when not bucket specific
	Err    error
}

// NewSymbolError creates a SymbolError
func NewSymbolError(symbol, bucket string, err error) *SymbolError {
	return &SymbolError{Symbol: symbol, Bucket: bucket, Err: err}
}

func (e *SymbolError) Error() string {
	if e.Bucket == "" {
		return fmt.Sprintf("%s: %v", e.Symbol, e.Err)
	}
	return fmt.Sprintf("%s in %s: %v", e.Symbol, e.Bucket, e.Err)
}

func (e *SymbolError) Unwrap() error {
	return e.Err
}

// Is makes every SymbolError match ErrSymbolProcessing
func (e *SymbolError) Is(target error) bool {
	return target == ErrSymbolProcessing
}
