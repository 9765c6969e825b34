package translator

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/itsrody/Brave/parser"
	"github.com/itsrody/Brave/patterns"
	"github.com/itsrody/Brave/validator"
)

func loadDB(t *testing.T, entriesJSON string) *patterns.Database {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "p.json"), []byte(entriesJSON), 0644); err != nil {
		t.Fatal(err)
	}
	db, err := patterns.Load(dir)
	if err != nil {
		t.Fatalf("loading pattern db: %v", err)
	}
	return db
}

const containsEntry = `[
	{"name": "AdGuard_contains", "supported_in_brave": "needs_translation",
	 "pattern_regex": "^(?P<domains>.*)#\\?#(?P<selector>.*):contains\\((?P<argument>.*)\\)$",
	 "brave_equivalent_template": "{domains}##{selector}:has-text({argument})",
	 "notes": "rewrite to uBO has-text"}
]`

func TestTranslateNotNeeded(t *testing.T) {
	db := loadDB(t, `[]`)
	rule := validator.Validate(parser.Classify(1, "||example.com^$script", "l"), db)
	Translate(rule, db, CommentOutUntranslatable)
	if rule.TranslationStatus != parser.TranslationNotNeeded {
		t.Fatalf("status = %v, want not_needed", rule.TranslationStatus)
	}
	if rule.TranslatedText != "" {
		t.Errorf("translated text = %q, want none", rule.TranslatedText)
	}
}

func TestTranslateContains(t *testing.T) {
	db := loadDB(t, containsEntry)
	rule := validator.Validate(parser.Classify(1, "example.com#?#div:contains(ad)", "l"), db)
	if rule.ValidationStatus != parser.ValidationNeedsTranslation {
		t.Fatalf("precondition: status = %v", rule.ValidationStatus)
	}

	Translate(rule, db, CommentOutUntranslatable)
	if rule.TranslatedText != "example.com##div:has-text(ad)" {
		t.Errorf("translated = %q, want example.com##div:has-text(ad)", rule.TranslatedText)
	}
	if rule.TranslationStatus != parser.TranslationTranslated {
		t.Errorf("translation status = %v, want translated", rule.TranslationStatus)
	}
	if rule.ValidationStatus != parser.ValidationValid {
		t.Errorf("validation status = %v, want upgraded to valid", rule.ValidationStatus)
	}
}

func TestTranslateUnsupportedPolicies(t *testing.T) {
	db := loadDB(t, `[]`)
	build := func() *parser.Rule {
		return &parser.Rule{
			Kind:             parser.KindFilter,
			Text:             "!#if env_firefox",
			ValidationStatus: parser.ValidationUnsupported,
			ValidationNotes:  "preprocessor directive",
		}
	}

	t.Run("comment out", func(t *testing.T) {
		rule := Translate(build(), db, CommentOutUntranslatable)
		if rule.TranslationStatus != parser.TranslationCommentedOut {
			t.Fatalf("status = %v, want commented_out", rule.TranslationStatus)
		}
		if !strings.HasPrefix(rule.TranslatedText, "! UNTRANSLATED (unsupported): ") {
			t.Errorf("text = %q, want UNTRANSLATED prefix", rule.TranslatedText)
		}
		if !strings.Contains(rule.TranslatedText, "!#if env_firefox") ||
			!strings.Contains(rule.TranslatedText, "preprocessor directive") {
			t.Errorf("text = %q, want original text and notes embedded", rule.TranslatedText)
		}
	})

	t.Run("drop", func(t *testing.T) {
		rule := Translate(build(), db, DropUntranslatable)
		if rule.TranslationStatus != parser.TranslationDropped {
			t.Fatalf("status = %v, want dropped", rule.TranslationStatus)
		}
		if rule.TranslatedText != "" {
			t.Errorf("text = %q, want none", rule.TranslatedText)
		}
	})

	t.Run("unknown strategy behaves like comment out", func(t *testing.T) {
		rule := Translate(build(), db, Strategy("whatever"))
		if rule.TranslationStatus != parser.TranslationCommentedOut {
			t.Fatalf("status = %v, want commented_out", rule.TranslationStatus)
		}
	})
}

func TestTranslateRenderFailureFallsThrough(t *testing.T) {
	// The template names a group the regex does not capture, so rendering
	// fails and the policy takes over; the comment cites the original
	// needs_translation status.
	db := loadDB(t, `[
		{"name": "broken", "supported_in_brave": "needs_translation",
		 "pattern_regex": "^(?P<domains>.*)#\\?#.*$",
		 "brave_equivalent_template": "{nope}##x"}
	]`)
	rule := validator.Validate(parser.Classify(1, "a.com#?#div", "l"), db)
	Translate(rule, db, CommentOutUntranslatable)
	if rule.TranslationStatus != parser.TranslationCommentedOut {
		t.Fatalf("status = %v, want commented_out", rule.TranslationStatus)
	}
	if !strings.HasPrefix(rule.TranslatedText, "! UNTRANSLATED (needs_translation): ") {
		t.Errorf("text = %q, want needs_translation cited", rule.TranslatedText)
	}

	rule2 := validator.Validate(parser.Classify(1, "a.com#?#div", "l"), db)
	Translate(rule2, db, DropUntranslatable)
	if rule2.TranslationStatus != parser.TranslationDropped {
		t.Errorf("drop policy status = %v, want dropped", rule2.TranslationStatus)
	}
}

func TestTranslateMissingCandidateFallsThrough(t *testing.T) {
	db := loadDB(t, `[]`)
	rule := &parser.Rule{
		Kind:             parser.KindFilter,
		Text:             "a.com#?#div",
		ValidationStatus: parser.ValidationNeedsTranslation,
		ValidationNotes:  "stale classification",
	}
	Translate(rule, db, CommentOutUntranslatable)
	if rule.TranslationStatus != parser.TranslationCommentedOut {
		t.Fatalf("status = %v, want commented_out", rule.TranslationStatus)
	}
}

// Running the full pipeline twice over the same line and database must
// produce identical rules.
func TestPipelineIdempotence(t *testing.T) {
	db := loadDB(t, containsEntry)
	lines := []string{
		"||example.com^$script",
		"example.com#?#div:contains(ad)",
		"unclassifiable text",
		"! Title: X",
		"",
	}
	for _, line := range lines {
		a := Translate(validator.Validate(parser.Classify(1, line, "l"), db), db, CommentOutUntranslatable)
		b := Translate(validator.Validate(parser.Classify(1, line, "l"), db), db, CommentOutUntranslatable)
		if !reflect.DeepEqual(a, b) {
			t.Errorf("pipeline not idempotent for %q:\n%+v\n%+v", line, a, b)
		}
	}
}

func TestRender(t *testing.T) {
	named := map[string]string{"domains": "a.com", "selector": "div"}
	groups := []string{"g0", "g1"}

	tests := []struct {
		name     string
		template string
		want     string
		wantErr  bool
	}{
		{"named", "{domains}##{selector}", "a.com##div", false},
		{"positional", "{0}|{1}", "g0|g1", false},
		{"auto numbered", "{}-{}", "g0-g1", false},
		{"named precedence over positional", "{domains}:{0}", "a.com:g0", false},
		{"escaped braces", "{{literal}} {domains}", "{literal} a.com", false},
		{"no placeholders", "plain text", "plain text", false},
		{"unknown field", "{missing}", "", true},
		{"positional out of range", "{5}", "", true},
		{"auto out of range", "{}{}{}", "", true},
		{"unterminated", "{domains", "", true},
		{"stray close", "oops}", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.template, named, groups)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Render(%q) error = %v, wantErr %v", tt.template, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Render(%q) = %q, want %q", tt.template, got, tt.want)
			}
		})
	}
}
