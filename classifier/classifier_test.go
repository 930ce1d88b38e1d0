package classifier

import (
	"context"
	"testing"

	"github.com/AdonayRH/wahisper-sub000/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Interface compliance (compile-time assertions)
var (
	_ Classifier = (*MockClassifier)(nil)
	_ Classifier = (*KeywordClassifier)(nil)
)

func TestKeywordClassifier(t *testing.T) {
	k := NewKeywordClassifier()
	ctx := context.Background()

	cases := []struct {
		text string
		want core.Intent
	}{
		{"show me my cart", core.IntentViewCart},
		{"I want to checkout now", core.IntentCheckout},
		{"remove the shoes please", core.IntentRemoveFromCart},
		{"hello", core.IntentGreeting},
		{"bye", core.IntentFarewell},
		{"yes", core.IntentConfirmation},
		{"no", core.IntentRejection},
		{"3", core.IntentQuantity},
		{"2 units", core.IntentQuantity},
		{"red running shoes", core.IntentNewSearch},
		// "no" inside a word must not fire the rejection rule.
		{"notebook", core.IntentNewSearch},
	}
	for _, c := range cases {
		got, err := k.Classify(ctx, c.text, Context{})
		require.NoError(t, err, c.text)
		assert.Equal(t, c.want, got.Intent, "input %q", c.text)
		assert.GreaterOrEqual(t, got.Confidence, 0.6, "input %q should clear the threshold", c.text)
	}
}

func TestKeywordQuantitySlot(t *testing.T) {
	k := NewKeywordClassifier()
	got, err := k.Classify(context.Background(), " 4 units ", Context{})
	require.NoError(t, err)
	assert.Equal(t, "4", got.Slots["quantity"])
}

func TestKeywordQuerySlotDropsFiller(t *testing.T) {
	k := NewKeywordClassifier()

	for input, want := range map[string]string{
		"I want a pen":         "pen",
		"quiero un boli azul":  "boli azul",
		"red running shoes":    "red running shoes",
		"do you have staplers": "staplers",
	} {
		got, err := k.Classify(context.Background(), input, Context{})
		require.NoError(t, err, input)
		require.Equal(t, core.IntentNewSearch, got.Intent, input)
		assert.Equal(t, want, got.Slots["query"], "input %q", input)
	}
}

func TestParseClassification(t *testing.T) {
	c, err := ParseClassification(`{"intent":"checkout","confidence":0.83,"slots":{"quantity":"2"}}`)
	require.NoError(t, err)
	assert.Equal(t, core.IntentCheckout, c.Intent)
	assert.Equal(t, 0.83, c.Confidence)
	assert.Equal(t, "2", c.Slots["quantity"])
}

func TestParseClassificationFenced(t *testing.T) {
	c, err := ParseClassification("```json\n{\"intent\":\"greeting\",\"confidence\":0.9}\n```")
	require.NoError(t, err)
	assert.Equal(t, core.IntentGreeting, c.Intent)
}

func TestParseClassificationUnknownLabel(t *testing.T) {
	c, err := ParseClassification(`{"intent":"interpretive-dance","confidence":0.7}`)
	require.NoError(t, err)
	assert.Equal(t, core.IntentNewSearch, c.Intent)
}

func TestParseClassificationClampsConfidence(t *testing.T) {
	c, err := ParseClassification(`{"intent":"checkout","confidence":7}`)
	require.NoError(t, err)
	assert.Equal(t, 1.0, c.Confidence)
}

func TestParseClassificationMalformed(t *testing.T) {
	_, err := ParseClassification("definitely not json")
	assert.Error(t, err)
}

func TestBuildUserPromptIncludesContext(t *testing.T) {
	p := BuildUserPrompt("the second one", Context{
		LastQuery: "shoes",
		State:     core.StateShowingProducts,
		LastShownProducts: []core.ProductRef{
			{Code: "S1", Description: "trail shoes"},
			{Code: "S2", Description: "road shoes"},
		},
	})
	assert.Contains(t, p, "the second one")
	assert.Contains(t, p, "shoes")
	assert.Contains(t, p, "2. road shoes (S2)")
	assert.Contains(t, p, string(core.StateShowingProducts))
}
