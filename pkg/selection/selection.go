// Package selection interprets free-text replies from users.
package selection

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/menta2k/noface/pkg/types"
)

// AllKeyword selects every face in the current reference
const AllKeyword = "all"

var digitRun = regexp.MustCompile(`[0-9]+`)

// Parse extracts the ordinals named in text that exist in ordinals.
// Unknown, duplicate and out-of-range numbers are dropped silently; an empty
// result means the user should be asked again. The literal "all" (any case)
// selects every ordinal regardless of digits.
func Parse(text string, ordinals types.OrdinalMap) types.Selection {
	if strings.EqualFold(strings.TrimSpace(text), AllKeyword) {
		return types.Selection(ordinals.Keys())
	}

	seen := make(map[int]struct{})
	sel := types.Selection{}
	for _, run := range digitRun.FindAllString(text, -1) {
		n, err := strconv.Atoi(run)
		if err != nil {
			continue
		}
		if !ordinals.Has(n) {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		sel = append(sel, n)
	}

	sort.Ints(sel)
	return sel
}

// Consent is the interpretation of a reply to the consent prompt
type Consent int

const (
	ConsentUnknown Consent = iota
	ConsentYes
	ConsentNo
)

// ParseConsent accepts Yes/Y and No/N in any case
func ParseConsent(text string) Consent {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "yes", "y":
		return ConsentYes
	case "no", "n":
		return ConsentNo
	default:
		return ConsentUnknown
	}
}
