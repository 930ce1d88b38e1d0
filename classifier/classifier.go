// Package classifier defines the intent-classifier contract the dispatch
// router falls back to for free text no state handler claimed, plus the
// provider adapters that implement it. The classifier is treated as
// untrusted and fallible: any transport failure or timeout is reported so
// the router can degrade to a clarification request.
package classifier

import (
	"context"

	"github.com/AdonayRH/wahisper-sub000/core"
)

// Context is the conversational context shipped with each classification
// request so the provider can disambiguate short inputs like "the second
// one" or "yes".
type Context struct {
	LastQuery         string            `json:"last_query,omitempty"`
	LastShownProducts []core.ProductRef `json:"last_shown_products,omitempty"`
	State             core.State        `json:"state,omitempty"`
}

// Classification is the provider's answer: a coarse intent label, a
// confidence in [0,1] and optional extracted slots (quantity, product).
type Classification struct {
	Intent     core.Intent       `json:"intent"`
	Confidence float64           `json:"confidence"`
	Slots      map[string]string `json:"slots,omitempty"`
}

// Info contains metadata about a classifier implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "keyword", ...
}

// Classifier is the minimal interface the dispatch router drives.
type Classifier interface {
	Classify(ctx context.Context, text string, convCtx Context) (Classification, error)

	// Info returns information about the classifier implementation.
	Info() Info
}

// MockClassifier is a lightweight in-memory Classifier useful for tests.
type MockClassifier struct {
	info    Info
	results map[string]Classification
	// Default is returned for inputs without a canned result.
	Default Classification
	// Err, when set, is returned by every call.
	Err error
}

// NewMockClassifier constructs a MockClassifier defaulting to a confident
// new-search label.
func NewMockClassifier() *MockClassifier {
	return &MockClassifier{
		info:    Info{Name: "mock", Provider: "mock"},
		results: make(map[string]Classification),
		Default: Classification{Intent: core.IntentNewSearch, Confidence: 0.9},
	}
}

// AddResult registers a deterministic canned classification for an input.
func (m *MockClassifier) AddResult(text string, c Classification) { m.results[text] = c }

// Classify implements Classifier.
func (m *MockClassifier) Classify(ctx context.Context, text string, convCtx Context) (Classification, error) {
	if m.Err != nil {
		return Classification{}, m.Err
	}
	if c, ok := m.results[text]; ok {
		return c, nil
	}
	return m.Default, nil
}

// Info implements Classifier.
func (m *MockClassifier) Info() Info { return m.info }
