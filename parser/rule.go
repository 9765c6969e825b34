package parser

// Kind identifies what a source line classified as.
type Kind int

const (
	KindEmpty Kind = iota
	KindComment
	KindMetadata
	KindError
	KindFilter
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindComment:
		return "comment"
	case KindMetadata:
		return "metadata"
	case KindError:
		return "error"
	case KindFilter:
		return "filter"
	}
	return "unknown"
}

// ValidationStatus is the Validator's verdict on a rule.
type ValidationStatus int

const (
	ValidationUnset ValidationStatus = iota
	ValidationValid
	ValidationNeedsTranslation
	ValidationUnsupported
	ValidationEmpty
	ValidationComment
	ValidationMetadata
	ValidationError
)

func (s ValidationStatus) String() string {
	switch s {
	case ValidationValid:
		return "valid"
	case ValidationNeedsTranslation:
		return "needs_translation"
	case ValidationUnsupported:
		return "unsupported"
	case ValidationEmpty:
		return "empty"
	case ValidationComment:
		return "comment"
	case ValidationMetadata:
		return "metadata"
	case ValidationError:
		return "error"
	}
	return "unset"
}

// TranslationStatus is the Translator's verdict on a rule.
type TranslationStatus int

const (
	TranslationUnset TranslationStatus = iota
	TranslationNotNeeded
	TranslationTranslated
	TranslationCommentedOut
	TranslationDropped
	TranslationFailed
)

func (s TranslationStatus) String() string {
	switch s {
	case TranslationNotNeeded:
		return "not_needed"
	case TranslationTranslated:
		return "translated"
	case TranslationCommentedOut:
		return "commented_out"
	case TranslationDropped:
		return "dropped"
	case TranslationFailed:
		return "failed"
	}
	return "unset"
}

// Option is one parsed network-rule modifier: either a bare flag or a
// key=value pair. Flag and Value are mutually exclusive.
type Option struct {
	Flag  bool
	Value string
}

// Rule is the unit flowing through the pipeline. The Classifier creates it,
// the Validator and then the Translator fill in their fields in place, and
// the assembler reads the finished value. Fields beyond the Kind tag, the
// raw text and provenance stay zero until their owning stage sets them.
type Rule struct {
	Kind       Kind
	Raw        string // original line, unmodified
	ListName   string
	LineNumber int

	// Metadata lines.
	Key   string
	Value string

	// Error lines.
	Message string

	// Filter rules.
	Text         string // trimmed rule text
	Pattern      string
	OptionsRaw   string
	Options      map[string]Option
	Domains      string
	Selector     string
	IsException  bool
	IsCosmetic   bool
	IsHTMLFilter bool
	IsScriptlet  bool

	ValidationStatus  ValidationStatus
	ValidationNotes   string
	TranslationStatus TranslationStatus
	TranslatedText    string
}
