package contracts

// SymbolResult is Ok(value) or Skipped(reason) for one symbol
type SymbolResult[T any] struct {
	Symbol string
	Value  T
	Reason error // non-nil means skipped
}

// Ok wraps a successful per-symbol value
func Ok[T any](symbol string, v T) SymbolResult[T] {
	return SymbolResult[T]{Symbol: symbol, Value: v}
}

// Skipped wraps a per-symbol skip reason
func Skipped[T any](symbol string, reason error) SymbolResult[T] {
	return SymbolResult[T]{Symbol: symbol, Reason: reason}
}

// IsSkipped reports whether the symbol was excluded
func (r SymbolResult[T]) IsSkipped() bool {
	return r.Reason != nil
}

// Partition splits results into ok values and skipped results, keeping order
func Partition[T any](results []SymbolResult[T]) (ok []T, skipped []SymbolResult[T]) {
	for _, r := range results {
		if r.IsSkipped() {
			skipped = append(skipped, r)
			continue
		}
		ok = append(ok, r.Value)
	}
	return ok, skipped
}
