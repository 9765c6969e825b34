package parser

import (
	"bufio"
	"fmt"
	"regexp"
	"strings"
)

// ABP-style list metadata, e.g. "! Title: EasyList".
var metadataRegex = regexp.MustCompile(`^!\s*([A-Za-z\s]+):\s*(.+)`)

const maxLineSize = 4 * 1024 * 1024

// Classify turns one source line into a Rule. It is total: any internal
// failure is recovered into an error rule carrying the original text, so a
// malformed line never aborts the surrounding list.
func Classify(lineNumber int, raw string, listName string) (rule *Rule) {
	defer func() {
		if r := recover(); r != nil {
			rule = &Rule{
				Kind:       KindError,
				Raw:        raw,
				ListName:   listName,
				LineNumber: lineNumber,
				Message:    fmt.Sprint(r),
			}
		}
	}()
	return classify(lineNumber, raw, listName)
}

func classify(lineNumber int, raw string, listName string) *Rule {
	rule := &Rule{Raw: raw, ListName: listName, LineNumber: lineNumber}

	text := strings.TrimSpace(raw)
	if text == "" {
		rule.Kind = KindEmpty
		return rule
	}

	// Comments and section headers. A leading # counts as a comment, so a
	// domains-less cosmetic rule like "##.ad" lands here as well.
	if strings.HasPrefix(text, "!") || strings.HasPrefix(text, "#") || strings.HasPrefix(text, "[Adblock") {
		if m := metadataRegex.FindStringSubmatch(text); m != nil {
			rule.Kind = KindMetadata
			rule.Key = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(m[1])), " ", "_")
			rule.Value = strings.TrimSpace(m[2])
			return rule
		}
		rule.Kind = KindComment
		return rule
	}

	rule.Kind = KindFilter
	rule.Text = text
	rule.Pattern = text
	rule.Options = make(map[string]Option)

	// Exception markers. ##@@ is non-standard uBO syntax: only the flag is
	// set and the marker split below decides the rest.
	switch {
	case strings.HasPrefix(text, "@@"):
		rule.IsException = true
		rule.Pattern = text[2:]
	case strings.Contains(text, "##@@"):
		rule.IsException = true
	case strings.Contains(text, "#@#"):
		rule.IsException = true
		rule.IsCosmetic = true
		domains, selector, _ := strings.Cut(text, "#@#")
		rule.Domains = domains
		rule.Selector = selector
	}

	// Cosmetic and procedural markers. Fixed priority, not leftmost match:
	// the markers nest as substrings, so ##^ must win over ## and so on.
	switch {
	case strings.Contains(text, "##^"):
		rule.IsHTMLFilter = true
		rule.Domains, rule.Selector, _ = strings.Cut(text, "##^")
	case strings.Contains(text, "##+"):
		rule.IsScriptlet = true
		domains, selector, _ := strings.Cut(text, "##+")
		rule.Domains = domains
		rule.Selector = "+" + selector // selector reads like +js(name, args)
	case strings.Contains(text, "##"):
		rule.IsCosmetic = true
		rule.Domains, rule.Selector, _ = strings.Cut(text, "##")
	case strings.Contains(text, "#?#"):
		rule.IsCosmetic = true
		rule.Domains, rule.Selector, _ = strings.Cut(text, "#?#")
	case strings.Contains(text, "#$#"):
		rule.IsCosmetic = true // selector carries the CSS style block
		rule.Domains, rule.Selector, _ = strings.Cut(text, "#$#")
	case strings.Contains(text, "#%#"):
		rule.IsScriptlet = true
		rule.Domains, rule.Selector, _ = strings.Cut(text, "#%#")
	}

	// Network rule options after the first $. Comma splitting is best-effort
	// and does not protect values that themselves contain commas.
	if !rule.IsCosmetic && !rule.IsHTMLFilter && !rule.IsScriptlet && strings.Contains(rule.Pattern, "$") {
		pattern, options, _ := strings.Cut(rule.Pattern, "$")
		rule.Pattern = pattern
		rule.OptionsRaw = options
		for _, entry := range strings.Split(options, ",") {
			if key, value, ok := strings.Cut(entry, "="); ok {
				rule.Options[strings.ToLower(strings.TrimSpace(key))] = Option{Value: value}
			} else {
				rule.Options[strings.ToLower(strings.TrimSpace(entry))] = Option{Flag: true}
			}
		}
	}

	// Non-cosmetic exceptions keep the text minus the @@ marker as their
	// pattern, including any $options suffix split off above.
	if rule.IsException && !rule.IsCosmetic {
		rule.Pattern = text[2:]
	}

	return rule
}

// ParseList classifies every line of a list's raw content, preserving
// 1-based line numbers.
func ParseList(listName, content string) []*Rule {
	var rules []*Rule
	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		rules = append(rules, Classify(lineNumber, scanner.Text(), listName))
	}
	if err := scanner.Err(); err != nil {
		lineNumber++
		rules = append(rules, &Rule{
			Kind:       KindError,
			ListName:   listName,
			LineNumber: lineNumber,
			Message:    fmt.Sprintf("scanning list content: %v", err),
		})
	}
	return rules
}
