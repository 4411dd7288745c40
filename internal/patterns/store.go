// Package patterns loads the external correction-pattern artifact: known
// mis-transcriptions, filler words, and the canonical dental vocabulary used
// as prompt context.
//
// The artifact is a JSON file of the form
//
//	{
//	  "simple_patterns": {"誤": "正", ...},
//	  "filler_words": ["えー、", ...],
//	  "dental_terms": {"terms": ["補綴", ...]}
//	}
//
// Substitutions are applied in the order the artifact declares them, so the
// simple_patterns object is decoded through the token stream rather than
// into a Go map, which would lose declaration order.
package patterns

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
)

// Pattern is one wrong → correct substitution.
type Pattern struct {
	Wrong   string
	Correct string
}

// Store holds the correction patterns for one run. It is read-only after
// loading. The zero value is valid and behaves as an empty rule set.
type Store struct {
	// SimplePatterns are exact-substring substitutions in declaration order.
	SimplePatterns []Pattern

	// FillerWords are substrings deleted outright from every segment.
	FillerWords []string

	// DentalTerms is the canonical vocabulary, used only as prompt and
	// audit material — never for direct substitution.
	DentalTerms []string
}

// artifact mirrors the JSON file layout.
type artifact struct {
	SimplePatterns orderedPatterns `json:"simple_patterns"`
	FillerWords    []string        `json:"filler_words"`
	DentalTerms    struct {
		Terms []string `json:"terms"`
	} `json:"dental_terms"`
}

// orderedPatterns decodes a JSON object into a slice of key/value pairs,
// preserving the order in which the keys appear in the document.
type orderedPatterns []Pattern

func (p *orderedPatterns) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("simple_patterns: expected object, got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("simple_patterns: non-string key %v", keyTok)
		}
		var val string
		if err := dec.Decode(&val); err != nil {
			return fmt.Errorf("simple_patterns: value for %q: %w", key, err)
		}
		*p = append(*p, Pattern{Wrong: key, Correct: val})
	}

	// Closing '}'.
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// Load reads the pattern artifact at path.
//
// A missing artifact is not an error: Load logs a warning and returns an
// empty Store so the pipeline degrades to its built-in rules. Any other
// read or parse failure is returned.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Warn("correction pattern artifact not found, using empty pattern store", "path", path)
			return &Store{}, nil
		}
		return nil, fmt.Errorf("patterns: read %q: %w", path, err)
	}

	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("patterns: parse %q: %w", path, err)
	}

	return &Store{
		SimplePatterns: a.SimplePatterns,
		FillerWords:    a.FillerWords,
		DentalTerms:    a.DentalTerms.Terms,
	}, nil
}
