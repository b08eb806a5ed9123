package narration

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"walkthrough/internal/services"
)

// Translator replaces narration text with a preloaded translation. A nil
// Translator passes every text through.
type Translator struct {
	entries map[string]string
}

// LoadTranslator reads a JSON object (or, for .yaml/.yml files, a YAML
// mapping) of source text to translated text. An empty path yields a nil
// Translator.
func LoadTranslator(path string) (*Translator, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrConfiguration, "narration", "load translations",
				fmt.Sprintf("translation file %s does not exist", path), nil)
		}
		return nil, services.Wrap(services.ErrConfiguration, "narration", "load translations", path, err)
	}

	raw := map[string]string{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "narration", "parse translations", path, err)
	}
	return NewTranslator(raw), nil
}

// NewTranslator builds a translator from an in-memory table.
func NewTranslator(entries map[string]string) *Translator {
	t := &Translator{entries: make(map[string]string, len(entries))}
	for key, value := range entries {
		t.entries[norm.NFC.String(key)] = value
	}
	return t
}

// Lookup returns the translation for text, or text itself when none exists.
func (t *Translator) Lookup(text string) string {
	if t == nil || len(t.entries) == 0 {
		return text
	}
	if translated, ok := t.entries[norm.NFC.String(text)]; ok {
		return translated
	}
	return text
}

// Len reports the number of entries.
func (t *Translator) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}
