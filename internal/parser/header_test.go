package parser

import (
	"reflect"
	"testing"
)

func TestParseHeader(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		text     string
		keywords []string
		depth    int
	}{
		{
			name:  "no markers",
			line:  "# Plain Header",
			text:  "Plain Header",
			depth: 1,
		},
		{
			name:     "bang",
			line:     "# The Tavern !Inn",
			text:     "The Tavern",
			keywords: []string{"Inn", "The Tavern"},
			depth:    1,
		},
		{
			name:     "asterisk keeps phrase visible",
			line:     "## The *Red Dragon* Inn",
			text:     "The Red Dragon Inn",
			keywords: []string{"Red Dragon", "The Red Dragon Inn"},
			depth:    2,
		},
		{
			name:     "plural",
			line:     "# Goblin/s",
			text:     "Goblin",
			keywords: []string{"Goblin", "Goblins"},
			depth:    1,
		},
		{
			name:     "plural upper case s",
			line:     "# Orc/S",
			text:     "Orc",
			keywords: []string{"Orc", "Orcs"},
			depth:    1,
		},
		{
			name:     "plural inside longer text",
			line:     "# Goblin/s of the Hills",
			text:     "Goblin of the Hills",
			keywords: []string{"Goblin", "Goblins", "Goblin of the Hills"},
			depth:    1,
		},
		{
			name:     "plural with accented first letter",
			line:     "# Élan/s",
			text:     "Élan",
			keywords: []string{"Élan", "Élans"},
			depth:    1,
		},
		{
			name:     "plural base starting with umlaut",
			line:     "# Über Goblin/s",
			text:     "Über Goblin",
			keywords: []string{"Über Goblin", "Über Goblins"},
			depth:    1,
		},
		{
			name:     "plural base starts at a word",
			line:     "# (Goblin/s)",
			text:     "(Goblin)",
			keywords: []string{"Goblin", "Goblins", "(Goblin)"},
			depth:    1,
		},
		{
			name:     "bang spans unicode spaces",
			line:     "# The Hall !Inn\u00a0Hall",
			text:     "The Hall",
			keywords: []string{"Inn\u00a0Hall", "The Hall"},
			depth:    1,
		},
		{
			name:     "slash synonyms",
			line:     "# Sword/Blade/Saber",
			text:     "Sword",
			keywords: []string{"Sword", "Blade", "Saber"},
			depth:    1,
		},
		{
			name:     "slash parts are trimmed",
			line:     "### Elf / Elves",
			text:     "Elf",
			keywords: []string{"Elf", "Elves"},
			depth:    3,
		},
		{
			name:     "trailing slash",
			line:     "# Trailing/",
			text:     "Trailing",
			keywords: []string{"Trailing"},
			depth:    1,
		},
		{
			name:     "bang before slash",
			line:     "# Elf/Elves !Sylvan",
			text:     "Elf",
			keywords: []string{"Sylvan", "Elf", "Elves"},
			depth:    1,
		},
		{
			name:  "unbalanced asterisk is literal",
			line:  "# Unbalanced *star",
			text:  "Unbalanced *star",
			depth: 1,
		},
		{
			name:  "bare bang is literal",
			line:  "# Wow!",
			text:  "Wow!",
			depth: 1,
		},
		{
			name:     "indented header",
			line:     "   ## *Elf*  ",
			text:     "Elf",
			keywords: []string{"Elf"},
			depth:    2,
		},
		{
			name:  "only hashes",
			line:  "###",
			text:  "",
			depth: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := ParseHeader(tt.line)
			if h.Text != tt.text {
				t.Errorf("ParseHeader(%q).Text = %q, want %q", tt.line, h.Text, tt.text)
			}
			if !reflect.DeepEqual(h.Keywords, tt.keywords) {
				t.Errorf("ParseHeader(%q).Keywords = %q, want %q", tt.line, h.Keywords, tt.keywords)
			}
			if h.Depth != tt.depth {
				t.Errorf("ParseHeader(%q).Depth = %d, want %d", tt.line, h.Depth, tt.depth)
			}
		})
	}
}

func TestParseHeaderDeterministic(t *testing.T) {
	lines := []string{
		"# The *Red Dragon* Inn !Tavern",
		"# Goblin/s",
		"# Sword/Blade/Saber",
	}
	for _, line := range lines {
		first := ParseHeader(line)
		for i := 0; i < 5; i++ {
			if got := ParseHeader(line); !reflect.DeepEqual(got, first) {
				t.Errorf("ParseHeader(%q) changed between calls: %+v vs %+v", line, got, first)
			}
		}
	}
}

func TestParseHeaderNoEmptyOrDuplicateKeywords(t *testing.T) {
	lines := []string{
		"# *Elf* !Elf",
		"# a//b",
		"# /",
		"# ** !",
		"# Orc/s/Orcs",
	}
	for _, line := range lines {
		h := ParseHeader(line)
		seen := map[string]bool{}
		for _, kw := range h.Keywords {
			if kw == "" {
				t.Errorf("ParseHeader(%q) produced an empty keyword", line)
			}
			if seen[kw] {
				t.Errorf("ParseHeader(%q) produced %q twice", line, kw)
			}
			seen[kw] = true
		}
	}
}

func TestStages(t *testing.T) {
	t.Run("bang removes run", func(t *testing.T) {
		s := bangStage(headerState{text: "Market !Bazaar"})
		if s.text != "Market" || !s.symbol || !reflect.DeepEqual(s.keywords, []string{"Bazaar"}) {
			t.Errorf("bangStage = %+v", s)
		}
	})
	t.Run("asterisk keeps text", func(t *testing.T) {
		s := asteriskStage(headerState{text: "The *Old* Road"})
		if s.text != "The Old Road" || !s.symbol || !reflect.DeepEqual(s.keywords, []string{"Old"}) {
			t.Errorf("asteriskStage = %+v", s)
		}
	})
	t.Run("plural collapses text", func(t *testing.T) {
		s := pluralStage(headerState{text: "Wolf/s"})
		if s.text != "Wolf" || !s.symbol || !reflect.DeepEqual(s.keywords, []string{"Wolf", "Wolfs"}) {
			t.Errorf("pluralStage = %+v", s)
		}
	})
	t.Run("plural keeps non-ascii base whole", func(t *testing.T) {
		s := pluralStage(headerState{text: "Éclair/S"})
		if s.text != "Éclair" || !reflect.DeepEqual(s.keywords, []string{"Éclair", "Éclairs"}) {
			t.Errorf("pluralStage = %+v", s)
		}
	})
	t.Run("plural ignores words starting with s", func(t *testing.T) {
		s := pluralStage(headerState{text: "Blade/Saber"})
		if s.text != "Blade/Saber" || s.symbol || len(s.keywords) != 0 {
			t.Errorf("pluralStage = %+v", s)
		}
	})
	t.Run("slash without symbol adds nothing", func(t *testing.T) {
		s := slashStage(headerState{text: "Plain"})
		if len(s.keywords) != 0 {
			t.Errorf("slashStage = %+v", s)
		}
	})
	t.Run("slash with symbol adds display text", func(t *testing.T) {
		s := slashStage(headerState{text: "Inn", symbol: true})
		if !reflect.DeepEqual(s.keywords, []string{"Inn"}) {
			t.Errorf("slashStage = %+v", s)
		}
	})
}

func TestIsWordChar(t *testing.T) {
	for _, r := range "aZ9_éÜ" {
		if !IsWordChar(r) {
			t.Errorf("IsWordChar(%q) = false", r)
		}
	}
	for _, r := range " .,-'!/(\u00a0" {
		if IsWordChar(r) {
			t.Errorf("IsWordChar(%q) = true", r)
		}
	}
}

func TestIsHeader(t *testing.T) {
	tests := []struct {
		line  string
		want  bool
		depth int
	}{
		{"# One", true, 1},
		{"  ## Two", true, 2},
		{"#NoSpace", true, 1},
		{"text # not header", false, 0},
		{"", false, 0},
	}
	for _, tt := range tests {
		if got := IsHeader(tt.line); got != tt.want {
			t.Errorf("IsHeader(%q) = %v, want %v", tt.line, got, tt.want)
		}
		if got := HeaderDepth(tt.line); got != tt.depth {
			t.Errorf("HeaderDepth(%q) = %d, want %d", tt.line, got, tt.depth)
		}
	}
}
