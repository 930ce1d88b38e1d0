package flow

import (
	"strconv"
	"strings"

	"github.com/AdonayRH/wahisper-sub000/core"
)

var affirmatives = map[string]struct{}{
	"yes": {}, "y": {}, "yeah": {}, "yep": {}, "ok": {}, "okay": {},
	"sure": {}, "confirm": {}, "si": {}, "sí": {}, "vale": {}, "claro": {},
}

var negatives = map[string]struct{}{
	"no": {}, "n": {}, "nope": {}, "nah": {}, "cancel": {}, "nada": {},
}

var farewells = map[string]struct{}{
	"bye": {}, "goodbye": {}, "adios": {}, "adiós": {}, "chao": {},
	"nothing else": {}, "that's all": {}, "hasta luego": {},
}

func isAffirmative(text string) bool {
	_, ok := affirmatives[normalize(text)]
	return ok
}

func isNegative(text string) bool {
	_, ok := negatives[normalize(text)]
	return ok
}

func isFarewell(text string) bool {
	t := normalize(text)
	if _, ok := farewells[t]; ok {
		return true
	}
	return isNegative(t)
}

func normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimRight(strings.TrimSpace(text), "!.")))
}

// parseQuantity accepts a bare integer, optionally suffixed with "units"
// or "x". The boolean is false for anything else.
func parseQuantity(text string) (int, bool) {
	t := normalize(text)
	for _, suffix := range []string{"units", "unit", "x"} {
		t = strings.TrimSpace(strings.TrimSuffix(t, suffix))
	}
	n, err := strconv.Atoi(t)
	if err != nil {
		return 0, false
	}
	return n, true
}

// resolveLine finds one cart line by 1-based numeric index or by
// case-insensitive substring match against descriptions.
//
// Results:
//   - index >= 0: unambiguous match
//   - index == -1, ambiguous == true: several descriptions matched
//   - index == -1, ambiguous == false: nothing matched
func resolveLine(lines []core.CartLine, text string) (index int, ambiguous bool) {
	t := normalize(text)
	if n, err := strconv.Atoi(t); err == nil {
		if n >= 1 && n <= len(lines) {
			return n - 1, false
		}
		return -1, false
	}
	matches := make([]int, 0, 2)
	for i, l := range lines {
		if strings.Contains(strings.ToLower(l.Description), t) || strings.EqualFold(l.Code, t) {
			matches = append(matches, i)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], false
	case 0:
		return -1, false
	default:
		return -1, true
	}
}

// resolveShown finds one product among the last shown list, by 1-based
// index or substring, with the same ambiguity contract as resolveLine.
func resolveShown(shown []core.ProductRef, text string) (index int, ambiguous bool) {
	t := normalize(text)
	if n, err := strconv.Atoi(t); err == nil {
		if n >= 1 && n <= len(shown) {
			return n - 1, false
		}
		return -1, false
	}
	matches := make([]int, 0, 2)
	for i, p := range shown {
		if strings.Contains(strings.ToLower(p.Description), t) || strings.EqualFold(p.Code, t) {
			matches = append(matches, i)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], false
	case 0:
		return -1, false
	default:
		return -1, true
	}
}
