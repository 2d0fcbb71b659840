// Package clean normalizes raw extracted notice text into the corpus
// form stored in per-record artifacts: boilerplate lines removed, the
// trailing regulatory-designation tail cut off, typographic punctuation
// folded to ASCII, and whitespace collapsed.
package clean

import (
	"regexp"
	"strings"

	"notice-watcher/pkg/config"
)

// Cleaner applies the corpus cleaning rules. The zero value is not
// usable; construct with NewCleaner.
type Cleaner struct {
	lookahead int
}

// NewCleaner builds a Cleaner from cfg. LookaheadLines bounds how far
// past a cutoff line the cleaner searches for dosage content before
// committing to the cut.
func NewCleaner(cfg config.CleanerConfig) *Cleaner {
	return &Cleaner{lookahead: cfg.LookaheadLines}
}

// Clean transforms raw text into the cleaned corpus. Empty input yields
// empty output. The operation is deterministic and idempotent: cleaning
// already-clean text returns it unchanged.
func (c *Cleaner) Clean(raw string) string {
	if raw == "" {
		return ""
	}

	lines := strings.Split(raw, "\n")
	var kept []string

	for idx, line := range lines {
		stripped := strings.TrimSpace(line)

		if stripped == "" {
			// Blank lines survive only as list formatting after a colon
			if len(kept) > 0 && strings.HasSuffix(kept[len(kept)-1], ":") {
				kept = append(kept, "")
			}
			continue
		}

		if matched, cut := c.cutoffDecision(lines, kept, idx, stripped); matched {
			if cut {
				break
			}
			continue
		}

		if matchesAny(boilerplatePatterns, stripped) {
			continue
		}

		if repeatedHeaders[stripped] {
			continue
		}

		kept = append(kept, stripped)
	}

	text := strings.Join(kept, "\n")
	for _, r := range unicodeReplacements {
		text = strings.ReplaceAll(text, r[0], r[1])
	}
	text = multiSpace.ReplaceAllString(text, " ")
	text = multiNewline.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// cutoffDecision reports whether the line is a cutoff marker and, if so,
// whether processing should stop. A marker with dosage content inside the
// lookahead window, or directly after a colon-terminated line, is dropped
// without cutting so the dosing text that follows survives.
func (c *Cleaner) cutoffDecision(lines, kept []string, idx int, stripped string) (matched, cut bool) {
	if !matchesAny(cutoffPatterns, stripped) {
		return false, false
	}

	previousSuggestsList := len(kept) > 0 && strings.HasSuffix(kept[len(kept)-1], ":")
	if previousSuggestsList || c.dosageAhead(lines, idx+1) {
		return true, false
	}
	return true, true
}

// dosageAhead scans up to the lookahead window of non-trivial lines
// starting at from. A colon-terminated line inside the window opens a
// second window of its own, since it may introduce a dosing list.
func (c *Cleaner) dosageAhead(lines []string, from int) bool {
	end := from + c.lookahead
	if end > len(lines) {
		end = len(lines)
	}
	for i := from; i < end; i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		if matchesAny(dosagePatterns, line) {
			return true
		}
		if strings.HasSuffix(line, ":") {
			inner := i + 1 + c.lookahead
			if inner > len(lines) {
				inner = len(lines)
			}
			for j := i + 1; j < inner; j++ {
				further := strings.TrimSpace(lines[j])
				if further == "" {
					continue
				}
				if matchesAny(dosagePatterns, further) {
					return true
				}
			}
		}
	}
	return false
}

func matchesAny(patterns []*regexp.Regexp, s string) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}
