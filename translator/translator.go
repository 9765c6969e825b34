// Package translator rewrites or suppresses rules the target engine does
// not accept as-is.
package translator

import (
	"fmt"

	"github.com/itsrody/Brave/parser"
	"github.com/itsrody/Brave/patterns"
)

// Strategy selects what happens to rules that cannot be translated.
type Strategy string

const (
	CommentOutUntranslatable Strategy = "comment_out_untranslatable"
	DropUntranslatable       Strategy = "drop_untranslatable"
)

// Translate resolves a validated rule into its final emitted form and
// returns it. Rules that are neither translatable nor unsupported keep their
// raw text. A successful translation upgrades the validation status to
// valid; a render failure or a missing candidate routes the rule through the
// untranslatable strategy instead of surfacing an error. Unrecognized
// strategy values behave like CommentOutUntranslatable.
func Translate(rule *parser.Rule, db *patterns.Database, strategy Strategy) *parser.Rule {
	status := rule.ValidationStatus
	if status != parser.ValidationNeedsTranslation && status != parser.ValidationUnsupported {
		rule.TranslationStatus = parser.TranslationNotNeeded
		return rule
	}

	if status == parser.ValidationNeedsTranslation {
		rule.TranslationStatus = parser.TranslationFailed
		if match := db.FindTranslationCandidate(rule.Text); match != nil {
			if out, err := Render(match.Entry.Template, match.Named, match.Groups); err == nil {
				rule.TranslatedText = out
				rule.TranslationStatus = parser.TranslationTranslated
				rule.ValidationStatus = parser.ValidationValid
				rule.ValidationNotes = fmt.Sprintf("translated via pattern %q; originally %q", match.Entry.Name, rule.Text)
				return rule
			}
		}
	}

	// Unsupported, or the translation attempt above failed.
	switch strategy {
	case DropUntranslatable:
		rule.TranslationStatus = parser.TranslationDropped
	default:
		notes := rule.ValidationNotes
		if notes == "" {
			notes = "no specific reason"
		}
		rule.TranslatedText = fmt.Sprintf("! UNTRANSLATED (%s): %s # Reason: %s", status, rule.Text, notes)
		rule.TranslationStatus = parser.TranslationCommentedOut
	}
	return rule
}
