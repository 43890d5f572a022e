package config

import (
	"fmt"

	"github.com/jchantrell/kotka/internal/restype"
)

// validateTypeFilter ensures the type filter, if set, names a known resource extension
func validateTypeFilter(ext string) error {
	if ext == "" {
		return nil
	}

	if !restype.Default().Has(ext) {
		return fmt.Errorf("unknown resource type '%s'", ext)
	}
	return nil
}
