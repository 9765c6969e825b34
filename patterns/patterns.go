// Package patterns loads and queries the externally maintained table that
// classifies filter syntax support in Brave's blocking engine.
package patterns

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/muhammadmuzzammil1998/jsonc"
)

// Support classifies how the target engine handles a syntax feature.
type Support int

const (
	SupportYes Support = iota
	SupportNeedsTranslation
	SupportPartial
	SupportNo
)

var supportNames = map[string]Support{
	"yes":                           SupportYes,
	"needs_translation":             SupportNeedsTranslation,
	"partial_translation_available": SupportPartial,
	"no":                            SupportNo,
}

func (s Support) String() string {
	for name, v := range supportNames {
		if v == s {
			return name
		}
	}
	return "unknown"
}

// Load failures. All of them are configuration errors and abort the run
// before any list is processed.
var (
	ErrBadPatternFile     = errors.New("malformed pattern file")
	ErrMissingFields      = errors.New("pattern entry missing name or supported_in_brave")
	ErrUnknownSupport     = errors.New("unknown supported_in_brave value")
	ErrMissingTranslation = errors.New("translation pattern missing pattern_regex or brave_equivalent_template")
	ErrInvalidRegex       = errors.New("invalid pattern_regex")
)

// Entry is one row of the pattern table.
type Entry struct {
	Name     string
	Category string
	Support  Support
	Regex    string
	Template string
	Token    string
	Notes    string

	search *regexp.Regexp // matches anywhere in the text
	full   *regexp.Regexp // whole-string match
}

// fileEntry mirrors the on-disk JSON shape of a pattern entry.
type fileEntry struct {
	Name                    string `json:"name"`
	Category                string `json:"category"`
	SupportedInBrave        string `json:"supported_in_brave"`
	PatternRegex            string `json:"pattern_regex"`
	BraveEquivalentTemplate string `json:"brave_equivalent_template"`
	Token                   string `json:"token"`
	Notes                   string `json:"notes"`
}

const memoSize = 4096

// Database is the immutable pattern table. It is built once by Load and
// safe for unrestricted concurrent reads afterwards; query results depend
// only on the loaded entries and the query text.
type Database struct {
	supported    map[string][]*Entry
	translations []*Entry
	unsupported  []*Entry

	// Memoize the two global list scans. Caching a pure lookup keeps the
	// determinism contract intact.
	unsupportedMemo *lru.Cache[string, int]
	translationMemo *lru.Cache[string, int]
}

// Match carries a translation entry plus the captures of its regex against
// the queried text.
type Match struct {
	Entry  *Entry
	Groups []string          // positional captures, group 1 first
	Named  map[string]string // named captures
}

// Load reads every *.json file in dir and builds the database. Files are
// loaded in ascending filename order and entries in array order, which is
// the order queries scan in. Any malformed entry or regex is fatal.
func Load(dir string) (*Database, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("patterns: reading directory: %w", err)
	}

	var files []string
	for _, de := range dirEntries {
		if !de.IsDir() && strings.HasSuffix(de.Name(), ".json") {
			files = append(files, de.Name())
		}
	}
	sort.Strings(files)

	db := &Database{supported: make(map[string][]*Entry)}
	for _, name := range files {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("patterns: reading %s: %w", name, err)
		}
		var raw []fileEntry
		if err := json.Unmarshal(jsonc.ToJSON(data), &raw); err != nil {
			return nil, fmt.Errorf("patterns: %s: %w: %v", name, ErrBadPatternFile, err)
		}
		for i, fe := range raw {
			entry, err := buildEntry(fe)
			if err != nil {
				return nil, fmt.Errorf("patterns: %s entry %d: %w", name, i, err)
			}
			switch entry.Support {
			case SupportYes:
				category := entry.Category
				if category == "" {
					category = "general"
				}
				db.supported[category] = append(db.supported[category], entry)
			case SupportNeedsTranslation, SupportPartial:
				db.translations = append(db.translations, entry)
			case SupportNo:
				db.unsupported = append(db.unsupported, entry)
			}
		}
	}

	db.unsupportedMemo, _ = lru.New[string, int](memoSize)
	db.translationMemo, _ = lru.New[string, int](memoSize)
	return db, nil
}

func buildEntry(fe fileEntry) (*Entry, error) {
	if fe.Name == "" || fe.SupportedInBrave == "" {
		return nil, ErrMissingFields
	}
	support, ok := supportNames[fe.SupportedInBrave]
	if !ok {
		return nil, fmt.Errorf("%w: %q in entry %q", ErrUnknownSupport, fe.SupportedInBrave, fe.Name)
	}

	entry := &Entry{
		Name:     fe.Name,
		Category: fe.Category,
		Support:  support,
		Regex:    fe.PatternRegex,
		Template: fe.BraveEquivalentTemplate,
		Token:    fe.Token,
		Notes:    fe.Notes,
	}
	if support == SupportNeedsTranslation || support == SupportPartial {
		if entry.Regex == "" || entry.Template == "" {
			return nil, fmt.Errorf("%w: entry %q", ErrMissingTranslation, entry.Name)
		}
	}
	if entry.Regex != "" {
		search, err := regexp.Compile(entry.Regex)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %q: %v", ErrInvalidRegex, entry.Name, err)
		}
		full, err := regexp.Compile("^(?:" + entry.Regex + ")$")
		if err != nil {
			return nil, fmt.Errorf("%w: entry %q: %v", ErrInvalidRegex, entry.Name, err)
		}
		entry.search = search
		entry.full = full
	}
	return entry, nil
}

// Counts reports how many entries each bucket holds.
func (db *Database) Counts() (supported, translations, unsupported int) {
	for _, bucket := range db.supported {
		supported += len(bucket)
	}
	return supported, len(db.translations), len(db.unsupported)
}

// FindUnsupported returns the first unsupported-table entry whose regex
// matches anywhere in the trimmed text, or whose literal token is a
// substring of the text. Entries with a regex never fall back to the token.
func (db *Database) FindUnsupported(text string) *Entry {
	if idx, ok := db.unsupportedMemo.Get(text); ok {
		return db.unsupportedAt(idx)
	}
	trimmed := strings.TrimSpace(text)
	found := -1
	for i, entry := range db.unsupported {
		if entry.search != nil {
			if entry.search.MatchString(trimmed) {
				found = i
				break
			}
		} else if entry.Token != "" && strings.Contains(text, entry.Token) {
			found = i
			break
		}
	}
	db.unsupportedMemo.Add(text, found)
	return db.unsupportedAt(found)
}

func (db *Database) unsupportedAt(idx int) *Entry {
	if idx < 0 {
		return nil
	}
	return db.unsupported[idx]
}

// FindTranslationCandidate returns the first translation entry whose regex
// matches the whole trimmed text, along with its captures, or nil.
func (db *Database) FindTranslationCandidate(text string) *Match {
	trimmed := strings.TrimSpace(text)
	idx, ok := db.translationMemo.Get(trimmed)
	if !ok {
		idx = -1
		for i, entry := range db.translations {
			if entry.full.MatchString(trimmed) {
				idx = i
				break
			}
		}
		db.translationMemo.Add(trimmed, idx)
	}
	if idx < 0 {
		return nil
	}

	entry := db.translations[idx]
	m := entry.full.FindStringSubmatch(trimmed)
	if m == nil {
		return nil
	}
	match := &Match{Entry: entry, Groups: m[1:], Named: make(map[string]string)}
	for i, name := range entry.full.SubexpNames() {
		if name != "" && i < len(m) {
			match.Named[name] = m[i]
		}
	}
	return match
}

// HasSupportedPattern returns the first entry in the category bucket whose
// regex matches the whole trimmed text or whose token is contained in it.
func (db *Database) HasSupportedPattern(text, category string) *Entry {
	trimmed := strings.TrimSpace(text)
	for _, entry := range db.supported[category] {
		if entry.full != nil {
			if entry.full.MatchString(trimmed) {
				return entry
			}
		} else if entry.Token != "" && strings.Contains(text, entry.Token) {
			return entry
		}
	}
	return nil
}
