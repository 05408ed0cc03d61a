package extract

import (
	"strings"
	"testing"
)

func TestParseDrafts(t *testing.T) {
	raw := `[
		{"topic": "Raft", "question": "What is a term?", "answer": "A logical clock epoch.", "difficulty": 3, "tags": ["consensus"]},
		{"topic": "", "question": "Orphan question?", "difficulty": 2},
		{"topic": "Noise", "question": "   ", "difficulty": 1},
		{"topic": "Hard", "question": "Why?", "difficulty": 11}
	]`

	drafts, err := ParseDrafts(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(drafts) != 3 {
		t.Fatalf("expected 3 drafts, got %d", len(drafts))
	}

	if drafts[0].Topic != "Raft" || drafts[0].Prompt != "What is a term?" {
		t.Errorf("unexpected first draft: %+v", drafts[0])
	}
	if len(drafts[0].Tags) != 1 || drafts[0].Tags[0] != "consensus" {
		t.Errorf("tags lost: %v", drafts[0].Tags)
	}
	if drafts[1].Topic != "general" {
		t.Errorf("expected empty topic to default, got %q", drafts[1].Topic)
	}
	if drafts[2].Difficulty != 5 {
		t.Errorf("expected difficulty clamped to 5, got %d", drafts[2].Difficulty)
	}
}

func TestParseDraftsFenced(t *testing.T) {
	fenced := "```json\n[{\"topic\": \"T\", \"question\": \"Q?\", \"difficulty\": 3}]\n```"
	drafts, err := ParseDrafts(fenced)
	if err != nil {
		t.Fatalf("parse fenced: %v", err)
	}
	if len(drafts) != 1 || drafts[0].Prompt != "Q?" {
		t.Errorf("unexpected drafts: %+v", drafts)
	}

	bare := "```\n[{\"topic\": \"T\", \"question\": \"Q?\", \"difficulty\": 3}]\n```"
	if drafts, err = ParseDrafts(bare); err != nil || len(drafts) != 1 {
		t.Errorf("bare fence: drafts=%v err=%v", drafts, err)
	}
}

func TestParseDraftsInvalid(t *testing.T) {
	if _, err := ParseDrafts("not json"); err == nil {
		t.Error("expected error for invalid JSON")
	}
	if _, err := ParseDrafts(`{"topic": "not an array"}`); err == nil {
		t.Error("expected error for non-array payload")
	}
}

func TestSplitSectionsShortText(t *testing.T) {
	got := SplitSections("just a note", 100)
	if len(got) != 1 || got[0] != "just a note" {
		t.Errorf("expected single section, got %v", got)
	}
	if got := SplitSections("   \n  ", 100); got != nil {
		t.Errorf("expected nil for blank text, got %v", got)
	}
}

func TestSplitSectionsOnHeadings(t *testing.T) {
	text := "# Raft\n" + strings.Repeat("leader election notes. ", 10) +
		"\n\n# Paxos\n" + strings.Repeat("quorum notes. ", 10)

	sections := SplitSections(text, 120)
	if len(sections) < 2 {
		t.Fatalf("expected a break at the second heading, got %d sections", len(sections))
	}
	if !strings.HasPrefix(sections[0], "# Raft") {
		t.Errorf("first section should start at the first heading: %q", sections[0])
	}
	for i, s := range sections {
		if strings.Contains(s, "# Paxos") && strings.Contains(s, "# Raft") {
			t.Errorf("section %d spans two headings", i)
		}
	}
}

func TestSplitSectionsBySize(t *testing.T) {
	para := strings.Repeat("word ", 30)
	text := strings.TrimSpace(strings.Repeat(para+"\n\n", 6))

	sections := SplitSections(text, 300)
	if len(sections) < 2 {
		t.Fatalf("expected multiple sections, got %d", len(sections))
	}
	for i, s := range sections {
		// A single paragraph may exceed the target; joined ones must not by much.
		if len(s) > 300+len(para) {
			t.Errorf("section %d too large: %d chars", i, len(s))
		}
	}
}
