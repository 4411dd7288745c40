package patterns_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/takao11sep/vtt-improve-srt/internal/patterns"
)

const sampleArtifact = `{
  "simple_patterns": {
    "司会者": "歯科医師",
    "強制治療": "矯正治療",
    "開墾": "開咬"
  },
  "filler_words": ["えー、", "あのー、"],
  "dental_terms": {"terms": ["補綴", "咬合", "アライナー"]}
}`

func writeArtifact(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "correction_patterns.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Parallel()

	store, err := patterns.Load(writeArtifact(t, sampleArtifact))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(store.SimplePatterns) != 3 {
		t.Fatalf("got %d simple patterns, want 3", len(store.SimplePatterns))
	}
	// Declaration order must survive decoding.
	wantOrder := []string{"司会者", "強制治療", "開墾"}
	for i, w := range wantOrder {
		if store.SimplePatterns[i].Wrong != w {
			t.Errorf("SimplePatterns[%d].Wrong = %q, want %q", i, store.SimplePatterns[i].Wrong, w)
		}
	}
	if store.SimplePatterns[0].Correct != "歯科医師" {
		t.Errorf("SimplePatterns[0].Correct = %q", store.SimplePatterns[0].Correct)
	}

	if len(store.FillerWords) != 2 || store.FillerWords[0] != "えー、" {
		t.Errorf("FillerWords = %v", store.FillerWords)
	}
	if len(store.DentalTerms) != 3 || store.DentalTerms[2] != "アライナー" {
		t.Errorf("DentalTerms = %v", store.DentalTerms)
	}
}

func TestLoad_MissingArtifact(t *testing.T) {
	t.Parallel()

	store, err := patterns.Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("missing artifact must not be an error, got: %v", err)
	}
	if store == nil {
		t.Fatal("store is nil, want empty store")
	}
	if len(store.SimplePatterns) != 0 || len(store.FillerWords) != 0 || len(store.DentalTerms) != 0 {
		t.Errorf("store not empty: %+v", store)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	t.Parallel()

	if _, err := patterns.Load(writeArtifact(t, "{not json")); err == nil {
		t.Fatal("want error for invalid JSON")
	}
}

func TestLoadShippedArtifact(t *testing.T) {
	t.Parallel()

	store, err := patterns.Load(filepath.Join("..", "..", "configs", "correction_patterns.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(store.SimplePatterns) == 0 || len(store.FillerWords) == 0 || len(store.DentalTerms) == 0 {
		t.Errorf("shipped artifact incomplete: %+v", store)
	}
	// 司会者→歯科医師 is the first pattern in the artifact.
	if store.SimplePatterns[0].Wrong != "司会者" {
		t.Errorf("first pattern = %+v, want 司会者", store.SimplePatterns[0])
	}
}
