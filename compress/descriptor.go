package compress

import (
	"strconv"
	"strings"

	"github.com/hyphanet/corelib/herrors"
)

var descriptorNames = map[string]Algorithm{
	"GZIP":     GZIP,
	"BZIP2":    BZIP2,
	"LZMA_NEW": LZMA,
}

// ParseDescriptor parses a compressor descriptor: a comma-separated
// list of codec names (case-insensitive) or decimal codec ids, in the
// caller's preferred order. Empty/whitespace tokens are ignored;
// duplicates fail with InvalidDescriptor.
func ParseDescriptor(descriptor string) ([]Algorithm, error) {
	if strings.TrimSpace(descriptor) == "" {
		return nil, nil
	}

	var order []Algorithm
	seen := make(map[Algorithm]bool)

	for _, tok := range strings.Split(descriptor, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}

		algo, ok := resolveToken(tok)
		if !ok {
			return nil, herrors.InvalidDescriptor(descriptor, "unknown codec "+tok)
		}
		if seen[algo] {
			return nil, herrors.InvalidDescriptor(descriptor, "duplicate codec "+tok)
		}
		seen[algo] = true
		order = append(order, algo)
	}

	return order, nil
}

func resolveToken(tok string) (Algorithm, bool) {
	if algo, ok := descriptorNames[strings.ToUpper(tok)]; ok {
		return algo, true
	}
	if n, err := strconv.Atoi(tok); err == nil {
		algo := Algorithm(n)
		if _, ok := lookup(algo); ok {
			return algo, true
		}
	}
	return 0, false
}
