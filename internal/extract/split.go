package extract

import "strings"

// DefaultSectionSize is the target section length, in characters, handed to
// the extractor per request. Large enough that a heading plus its body stays
// together, small enough to keep each request focused.
const DefaultSectionSize = 2400

// SplitSections splits study notes into extraction-sized sections, breaking
// on markdown headings first and paragraph gaps second. Short text comes
// back as a single section.
func SplitSections(text string, targetSize int) []string {
	if targetSize <= 0 {
		targetSize = DefaultSectionSize
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= targetSize {
		return []string{text}
	}

	var sections []string
	var current []string
	currentLen := 0

	flush := func() {
		s := strings.TrimSpace(strings.Join(current, "\n"))
		if s != "" {
			sections = append(sections, s)
		}
		current = nil
		currentLen = 0
	}

	for _, para := range splitParagraphs(text) {
		startsSection := strings.HasPrefix(para, "#")
		if currentLen > 0 && (startsSection || currentLen+len(para) > targetSize) {
			flush()
		}
		current = append(current, para, "")
		currentLen += len(para) + 1
	}
	flush()

	return sections
}

// splitParagraphs splits on blank lines, keeping heading lines as their own
// paragraphs so section boundaries stay clean.
func splitParagraphs(text string) []string {
	var paras []string
	var current []string

	flush := func() {
		p := strings.TrimSpace(strings.Join(current, "\n"))
		if p != "" {
			paras = append(paras, p)
		}
		current = nil
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			flush()
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			flush()
			paras = append(paras, trimmed)
			continue
		}
		current = append(current, line)
	}
	flush()

	return paras
}
