// Package generator assembles finalized rules into the flat output list.
package generator

import (
	"crypto/rand"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/itsrody/Brave/parser"
)

// Logger is the minimal logging surface the generator needs.
type Logger interface {
	Printf(format string, v ...any)
}

// Header describes the identity block written at the top of the list.
type Header struct {
	Title    string
	Version  string
	Homepage string
	BuildID  string // generated when empty
}

// Generator collects finalized rules, deduplicates them by emitted text and
// writes the output file. Not safe for concurrent use; feed it from one
// goroutine in source order so output stays deterministic.
type Generator struct {
	outputFile     string
	logger         Logger
	seen           map[string]struct{}
	headerComments []string
	metadata       map[string][]string
	ruleCount      int
	entropy        *ulid.MonotonicEntropy
}

// New creates a Generator writing to outputFile. A nil logger falls back to
// the standard logger.
func New(outputFile string, logger Logger) *Generator {
	if logger == nil {
		logger = log.Default()
	}
	return &Generator{
		outputFile: outputFile,
		logger:     logger,
		seen:       make(map[string]struct{}),
		metadata:   make(map[string][]string),
		entropy:    ulid.Monotonic(rand.Reader, 0),
	}
}

// Add accepts one finalized rule. Metadata titles and homepage comments feed
// the header; filter rules contribute their final emitted text; everything
// else (empty, error, dropped, plain comments) is skipped.
func (g *Generator) Add(rule *parser.Rule) {
	switch rule.Kind {
	case parser.KindMetadata:
		if rule.Key != "" && rule.Value != "" {
			g.metadata[rule.Key] = append(g.metadata[rule.Key], fmt.Sprintf("%s (from %s)", rule.Value, rule.ListName))
		}
		return
	case parser.KindComment:
		if strings.Contains(rule.Raw, "! Homepage:") {
			g.addHeaderComment(strings.TrimSpace(rule.Raw))
		}
		return
	case parser.KindFilter:
	default:
		return
	}

	var final string
	switch {
	case rule.ValidationStatus == parser.ValidationValid && rule.TranslationStatus == parser.TranslationNotNeeded:
		final = rule.Text
	case rule.TranslationStatus == parser.TranslationTranslated,
		rule.TranslationStatus == parser.TranslationCommentedOut:
		final = rule.TranslatedText
	default:
		return
	}
	if final == "" {
		return
	}
	if _, dup := g.seen[final]; dup {
		return
	}
	g.seen[final] = struct{}{}
	g.ruleCount++
}

// RuleCount reports how many unique rule lines have been collected.
func (g *Generator) RuleCount() int {
	return g.ruleCount
}

func (g *Generator) addHeaderComment(comment string) {
	for _, existing := range g.headerComments {
		if existing == comment {
			return
		}
	}
	g.headerComments = append(g.headerComments, comment)
}

// Write renders the header, both lexicographically sorted rule sections and
// the footer to the output file. A write failure is the only error the
// assembly stage surfaces.
func (g *Generator) Write(h Header) error {
	if dir := filepath.Dir(g.outputFile); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("generator: creating output directory: %w", err)
		}
	}

	var rules, commented []string
	for text := range g.seen {
		if strings.HasPrefix(text, "!") {
			commented = append(commented, text)
		} else {
			rules = append(rules, text)
		}
	}
	sort.Strings(rules)
	sort.Strings(commented)

	buildID := h.BuildID
	if buildID == "" {
		buildID = ulid.MustNew(ulid.Now(), g.entropy).String()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "! Title: %s\n", h.Title)
	fmt.Fprintf(&b, "! Version: %s\n", h.Version)
	fmt.Fprintf(&b, "! Last Updated: %s\n", time.Now().UTC().Format("2006-01-02 15:04:05 UTC"))
	b.WriteString("! Expires: 7 days (update frequency recommended)\n")
	fmt.Fprintf(&b, "! Homepage: %s\n", h.Homepage)
	fmt.Fprintf(&b, "! Rule Count: %d unique rules\n", g.ruleCount)
	fmt.Fprintf(&b, "! Build ID: %s\n", buildID)
	b.WriteString("!\n")

	if titles := g.metadata["title"]; len(titles) > 0 {
		b.WriteString("! Original List Titles:\n")
		for _, title := range titles {
			fmt.Fprintf(&b, "!  - %s\n", title)
		}
		b.WriteString("!\n")
	}
	for _, comment := range g.headerComments {
		b.WriteString(comment)
		b.WriteByte('\n')
	}

	b.WriteString("!\n! --- BEGIN RULES ---\n!\n")
	for _, rule := range rules {
		b.WriteString(rule)
		b.WriteByte('\n')
	}
	if len(commented) > 0 {
		b.WriteString("\n!\n! --- UNTRANSLATED/COMMENTED RULES ---\n!\n")
		for _, rule := range commented {
			b.WriteString(rule)
			b.WriteByte('\n')
		}
	}
	b.WriteString("\n!\n! --- END RULES ---\n")

	if err := os.WriteFile(g.outputFile, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("generator: writing %s: %w", g.outputFile, err)
	}
	g.logger.Printf("generator: wrote %d unique rules to %s (build %s)", g.ruleCount, g.outputFile, buildID)
	return nil
}
