package config

import (
	"fmt"
	"strings"

	"github.com/jchantrell/kotka/internal/erf"
)

// validateLanguages ensures all provided languages are supported
// If languages slice is empty, returns nil (will default to English)
func validateLanguages(languages []string) error {
	for _, lang := range languages {
		if lang == "" {
			return fmt.Errorf("language name cannot be empty")
		}

		if _, err := erf.ParseLanguage(lang); err != nil {
			return fmt.Errorf("unsupported language '%s': supported languages are %s", lang, strings.Join(erf.LanguageNames(), ", "))
		}
	}

	return nil
}

// ParsedLanguages resolves the configured language names
func (c *Config) ParsedLanguages() ([]erf.Language, error) {
	langs := make([]erf.Language, 0, len(c.Languages))
	for _, name := range c.Languages {
		lang, err := erf.ParseLanguage(name)
		if err != nil {
			return nil, err
		}
		langs = append(langs, lang)
	}
	return langs, nil
}
