// Package validator classifies parsed rules against the pattern database.
package validator

import (
	"fmt"
	"strings"

	"github.com/itsrody/Brave/parser"
	"github.com/itsrody/Brave/patterns"
)

// Validate records a support verdict on the rule and returns it. Non-filter
// kinds pass through with their own kind as the status. For filter rules the
// checks run in strict order: known-unsupported, translatable, then a shallow
// shape heuristic. The heuristic stays deliberately shallow; rules it cannot
// place default to unsupported rather than being guessed valid.
func Validate(rule *parser.Rule, db *patterns.Database) *parser.Rule {
	switch rule.Kind {
	case parser.KindEmpty:
		rule.ValidationStatus = parser.ValidationEmpty
	case parser.KindComment:
		rule.ValidationStatus = parser.ValidationComment
	case parser.KindMetadata:
		rule.ValidationStatus = parser.ValidationMetadata
	case parser.KindError:
		rule.ValidationStatus = parser.ValidationError
	default:
		return validateFilter(rule, db)
	}
	rule.ValidationNotes = "passthrough"
	return rule
}

func validateFilter(rule *parser.Rule, db *patterns.Database) *parser.Rule {
	text := rule.Text
	if strings.TrimSpace(text) == "" {
		// The classifier catches blank lines; this guards hand-built rules.
		rule.ValidationStatus = parser.ValidationEmpty
		rule.ValidationNotes = "empty rule text"
		return rule
	}

	if entry := db.FindUnsupported(text); entry != nil {
		notes := entry.Notes
		if notes == "" {
			notes = "no reason given"
		}
		rule.ValidationStatus = parser.ValidationUnsupported
		rule.ValidationNotes = fmt.Sprintf("matches unsupported pattern %q: %s", entry.Name, notes)
		return rule
	}

	if match := db.FindTranslationCandidate(text); match != nil {
		rule.ValidationStatus = parser.ValidationNeedsTranslation
		rule.ValidationNotes = fmt.Sprintf("matches translatable pattern %q", match.Entry.Name)
		return rule
	}

	if networkLike(rule) || rule.IsCosmetic || rule.IsHTMLFilter || rule.IsScriptlet {
		rule.ValidationStatus = parser.ValidationValid
		rule.ValidationNotes = "tentatively valid; shallow syntax check only"
		return rule
	}

	rule.ValidationStatus = parser.ValidationUnsupported
	rule.ValidationNotes = "does not match any known rule shape; requires review"
	return rule
}

// networkLike is a surface check for network rule shapes. No per-modifier
// validation happens here.
func networkLike(rule *parser.Rule) bool {
	text := rule.Text
	if strings.HasPrefix(text, "||") || strings.HasPrefix(text, "|http") {
		return true
	}
	if !strings.Contains(text, "##") && !strings.Contains(text, "#@#") &&
		strings.Contains(text, "/") && !strings.HasPrefix(text, "!") {
		return true
	}
	return rule.IsException && !rule.IsCosmetic
}
