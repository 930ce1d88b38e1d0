package classifier

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/AdonayRH/wahisper-sub000/core"
)

// systemPrompt instructs the provider to answer with a single JSON object.
// The label vocabulary matches core's intent set; anything else is mapped
// to new-search by ParseClassification.
const systemPrompt = `You classify one message from a shopping conversation.
Answer with a single JSON object and nothing else:
{"intent": "<label>", "confidence": <0..1>, "slots": {"quantity": "...", "product": "..."}}
Valid labels: view-cart, add-units, remove-from-cart, checkout, clear-cart,
greeting, farewell, rejection, confirmation, quantity, new-search.
Use new-search when the message looks like a product query.
Slots are optional; include quantity only when the message names a number
of units, product only when it names a product.`

// SystemPrompt returns the shared provider instructions.
func SystemPrompt() string { return systemPrompt }

// BuildUserPrompt renders the message plus conversational context for the
// provider.
func BuildUserPrompt(text string, convCtx Context) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Message: %q\n", text)
	if convCtx.State != "" {
		fmt.Fprintf(&b, "Conversation state: %s\n", convCtx.State)
	}
	if convCtx.LastQuery != "" {
		fmt.Fprintf(&b, "Previous search: %q\n", convCtx.LastQuery)
	}
	if len(convCtx.LastShownProducts) > 0 {
		b.WriteString("Products on screen:\n")
		for i, p := range convCtx.LastShownProducts {
			fmt.Fprintf(&b, "  %d. %s (%s)\n", i+1, p.Description, p.Code)
		}
	}
	return b.String()
}

// ParseClassification decodes a provider answer. Confidence is clamped to
// [0,1]; unknown labels degrade to new-search with the reported
// confidence so the router still has something to act on.
func ParseClassification(raw string) (Classification, error) {
	raw = strings.TrimSpace(raw)
	// Some providers wrap JSON in a code fence despite instructions.
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var parsed struct {
		Intent     string            `json:"intent"`
		Confidence float64           `json:"confidence"`
		Slots      map[string]string `json:"slots"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &parsed); err != nil {
		return Classification{}, fmt.Errorf("malformed classifier answer: %w", err)
	}
	c := Classification{
		Intent:     core.Intent(parsed.Intent),
		Confidence: parsed.Confidence,
		Slots:      parsed.Slots,
	}
	if c.Confidence < 0 {
		c.Confidence = 0
	}
	if c.Confidence > 1 {
		c.Confidence = 1
	}
	if !core.KnownIntent(c.Intent) {
		c.Intent = core.IntentNewSearch
	}
	return c, nil
}
