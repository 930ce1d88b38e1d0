package classifier

import (
	"context"
	"regexp"
	"strings"

	"github.com/AdonayRH/wahisper-sub000/core"
)

// KeywordClassifier is a deterministic, dependency-free Classifier built
// on keyword lists. It is the offline default and the baseline the LLM
// adapters are measured against; confidence is fixed per rule class.
type KeywordClassifier struct{}

// NewKeywordClassifier constructs the rule-based classifier.
func NewKeywordClassifier() *KeywordClassifier { return &KeywordClassifier{} }

var quantityRe = regexp.MustCompile(`^\s*\d+\s*(units?|x)?\s*$`)

var keywordRules = []struct {
	intent   core.Intent
	keywords []string
}{
	{core.IntentViewCart, []string{"cart", "basket", "my order so far", "carrito"}},
	{core.IntentClearCart, []string{"empty the cart", "clear the cart", "clear my cart", "vaciar"}},
	{core.IntentRemoveFromCart, []string{"remove", "delete", "take out", "quitar", "eliminar"}},
	{core.IntentAddUnits, []string{"more units", "add more", "another unit", "más unidades"}},
	{core.IntentCheckout, []string{"checkout", "buy", "purchase", "place the order", "pagar", "comprar"}},
	{core.IntentGreeting, []string{"hello", "hi", "good morning", "good afternoon", "hola", "buenas"}},
	{core.IntentFarewell, []string{"bye", "goodbye", "see you", "adiós", "hasta luego"}},
	{core.IntentConfirmation, []string{"yes", "yeah", "ok", "sure", "confirm", "sí", "vale"}},
	{core.IntentRejection, []string{"no", "nope", "cancel", "nah", "nada"}},
}

// Classify implements Classifier. Quantity inputs win over keyword rules
// so "2 units" is not swallowed by a substring match.
func (k *KeywordClassifier) Classify(ctx context.Context, text string, convCtx Context) (Classification, error) {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return Classification{Intent: core.IntentNewSearch, Confidence: 0}, nil
	}
	if quantityRe.MatchString(lower) {
		return Classification{
			Intent:     core.IntentQuantity,
			Confidence: 0.95,
			Slots:      map[string]string{"quantity": strings.Fields(lower)[0]},
		}, nil
	}
	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if matchKeyword(lower, kw) {
				return Classification{Intent: rule.intent, Confidence: 0.75}, nil
			}
		}
	}
	// Default: treat the text as a product search query, with filler
	// words stripped so "I want a pen" searches for "pen".
	return Classification{
		Intent:     core.IntentNewSearch,
		Confidence: 0.65,
		Slots:      map[string]string{"query": distillQuery(lower)},
	}, nil
}

var fillerWords = map[string]struct{}{
	"i": {}, "want": {}, "need": {}, "a": {}, "an": {}, "the": {}, "some": {},
	"to": {}, "me": {}, "please": {}, "show": {}, "looking": {}, "for": {},
	"do": {}, "you": {}, "have": {}, "any": {},
	"quiero": {}, "busco": {}, "necesito": {}, "dame": {}, "un": {}, "una": {},
	"el": {}, "la": {}, "los": {}, "las": {}, "por": {}, "favor": {},
}

// distillQuery drops filler words, falling back to the original text when
// nothing is left.
func distillQuery(text string) string {
	var kept []string
	for _, w := range strings.FieldsFunc(text, func(r rune) bool {
		return r == ' ' || r == ',' || r == '.' || r == '!' || r == '?'
	}) {
		if _, filler := fillerWords[w]; !filler {
			kept = append(kept, w)
		}
	}
	if len(kept) == 0 {
		return strings.TrimSpace(text)
	}
	return strings.Join(kept, " ")
}

// matchKeyword requires whole-word matches for single words so that "no"
// does not fire inside "notebook".
func matchKeyword(text, kw string) bool {
	if strings.ContainsRune(kw, ' ') {
		return strings.Contains(text, kw)
	}
	for _, w := range strings.FieldsFunc(text, func(r rune) bool {
		return r == ' ' || r == ',' || r == '.' || r == '!' || r == '?'
	}) {
		if w == kw {
			return true
		}
	}
	return false
}

// Info implements Classifier.
func (k *KeywordClassifier) Info() Info { return Info{Name: "keyword", Provider: "keyword"} }
