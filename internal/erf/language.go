package erf

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
)

// Language is the language id carried by a localized string
type Language uint32

const (
	English            Language = 0
	French             Language = 1
	German             Language = 2
	Italian            Language = 3
	Spanish            Language = 4
	Polish             Language = 5
	Korean             Language = 128
	ChineseTraditional Language = 129
	ChineseSimplified  Language = 130
	Japanese           Language = 131
)

var languageNames = map[Language]string{
	English:            "english",
	French:             "french",
	German:             "german",
	Italian:            "italian",
	Spanish:            "spanish",
	Polish:             "polish",
	Korean:             "korean",
	ChineseTraditional: "chinese_traditional",
	ChineseSimplified:  "chinese_simplified",
	Japanese:           "japanese",
}

func (l Language) String() string {
	if name, ok := languageNames[l]; ok {
		return name
	}
	return fmt.Sprintf("language(%d)", uint32(l))
}

// ParseLanguage resolves a language name as returned by Language.String
func ParseLanguage(name string) (Language, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for lang, n := range languageNames {
		if n == name {
			return lang, nil
		}
	}
	return 0, fmt.Errorf("unknown language %q", name)
}

// LanguageNames returns every known language name
func LanguageNames() []string {
	names := make([]string, 0, len(languageNames))
	for _, lang := range []Language{English, French, German, Italian, Spanish, Polish, Korean, ChineseTraditional, ChineseSimplified, Japanese} {
		names = append(names, languageNames[lang])
	}
	return names
}

// Encoding returns the code page the game stores text of this language in.
// Unknown languages fall back to Windows-1252.
func (l Language) Encoding() encoding.Encoding {
	switch l {
	case Polish:
		return charmap.Windows1250
	case Korean:
		return korean.EUCKR
	case ChineseTraditional:
		return traditionalchinese.Big5
	case ChineseSimplified:
		return simplifiedchinese.GBK
	case Japanese:
		return japanese.ShiftJIS
	default:
		return charmap.Windows1252
	}
}

// LocalizedString is one entry of the pack's localized string block. On
// disk it is a language id, a byte count and the text in the language's
// code page.
type LocalizedString struct {
	LanguageID uint32
	Text       []byte
}

// NewLocalizedString encodes text for lang
func NewLocalizedString(lang Language, text string) (LocalizedString, error) {
	encoded, err := lang.Encoding().NewEncoder().Bytes([]byte(text))
	if err != nil {
		return LocalizedString{}, fmt.Errorf("encoding %s text: %w", lang, err)
	}
	return LocalizedString{LanguageID: uint32(lang), Text: encoded}, nil
}

// Language returns the string's language
func (s LocalizedString) Language() Language {
	return Language(s.LanguageID)
}

// Decode converts the text to UTF-8, dropping trailing NUL bytes
func (s LocalizedString) Decode() (string, error) {
	raw := []byte(strings.TrimRight(string(s.Text), "\x00"))
	decoded, err := s.Language().Encoding().NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decoding %s text: %w", s.Language(), err)
	}
	return string(decoded), nil
}

// diskSize returns the bytes the string occupies in the localized string block
func (s LocalizedString) diskSize() uint32 {
	return localizedStringFraming + uint32(len(s.Text))
}
