package highlight

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/alecthomas/chroma/v2"

	"github.com/dshills/mdlive/internal/logging"
)

type failingTokenizer struct {
	panics bool
}

func (f failingTokenizer) Tokenise(*chroma.TokeniseOptions, string) (chroma.Iterator, error) {
	if f.panics {
		return func() chroma.Token { panic("grammar exploded") }, nil
	}
	return nil, errors.New("bad state")
}

func TestCountLines(t *testing.T) {
	tests := []struct {
		name string
		code string
		want int
	}{
		{"empty", "", 0},
		{"single line", "x", 1},
		{"single line with break", "x\n", 1},
		{"three lines", "a\nb\nc", 3},
		{"three lines trailing break", "a\nb\nc\n", 3},
		{"blank line", "\n", 1},
		{"two blank lines", "\n\n", 2},
		{"crlf", "a\r\nb\r\n", 2},
		{"bare cr", "a\rb", 2},
		{"mixed", "a\r\nb\nc\rd", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CountLines(tt.code); got != tt.want {
				t.Errorf("CountLines(%q) = %d, want %d", tt.code, got, tt.want)
			}
		})
	}
}

func TestLineMarkers(t *testing.T) {
	if m := LineMarkers(0); m != nil {
		t.Errorf("LineMarkers(0) = %v, want nil", m)
	}

	markers := LineMarkers(3)
	if len(markers) != 3 {
		t.Fatalf("len = %d, want 3", len(markers))
	}
	if markers[0] != "<span>1</span>" || markers[2] != "<span>3</span>" {
		t.Errorf("markers = %v", markers)
	}
	want := "<span>1</span><br /><span>2</span><br /><span>3</span>"
	if got := JoinMarkers(markers); got != want {
		t.Errorf("JoinMarkers = %q, want %q", got, want)
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		n    uint32
		want string
	}{
		{0, "0"},
		{7, "7"},
		{42, "42"},
		{4294967295, "4294967295"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.n); got != tt.want {
			t.Errorf("FormatNumber(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestClassFor(t *testing.T) {
	tests := []struct {
		tok  chroma.TokenType
		want string
	}{
		{chroma.Keyword, "keyword"},
		{chroma.KeywordReserved, "keyword"},
		{chroma.LiteralStringDouble, "string"},
		{chroma.LiteralNumberInteger, "number"},
		{chroma.CommentSingle, "comment"},
		{chroma.NameFunction, "title"},
		{chroma.Name, ""},
		{chroma.NameOther, ""},
		{chroma.Punctuation, ""},
		{chroma.Text, ""},
	}
	for _, tt := range tests {
		t.Run(tt.tok.String(), func(t *testing.T) {
			if got := ClassFor(tt.tok); got != tt.want {
				t.Errorf("ClassFor(%v) = %q, want %q", tt.tok, got, tt.want)
			}
		})
	}
}

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry(map[string]string{"jsx": "javascript"}, []string{"python"})

	for _, tag := range []string{"js", "JS", "jsx"} {
		lang, ok := reg.Lookup(tag)
		if !ok {
			t.Errorf("Lookup(%q) failed", tag)
			continue
		}
		if lang.Name != "JavaScript" {
			t.Errorf("Lookup(%q).Name = %q, want JavaScript", tag, lang.Name)
		}
	}

	if _, ok := reg.Lookup("go {linenos=true}"); !ok {
		t.Error("only the first word of the info string should count")
	}

	for _, tag := range []string{"python", "", "definitely-not-a-language"} {
		if reg.Has(tag) {
			t.Errorf("Has(%q) = true, want false", tag)
		}
	}
}

func TestRegistryFingerprint(t *testing.T) {
	a := NewRegistry(map[string]string{"a": "go", "b": "c"}, []string{"x"})
	b := NewRegistry(map[string]string{"b": "c", "a": "go"}, []string{"X"})
	c := NewRegistry(nil, []string{"x"})

	if a.Fingerprint() != b.Fingerprint() {
		t.Error("equivalent registries should share a fingerprint")
	}
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("different aliases should change the fingerprint")
	}
}

func TestHighlightKnownLanguage(t *testing.T) {
	h := New(nil, Options{})

	res := h.Highlight("const x = 1;\n", "js")

	if res.UsedFallback {
		t.Fatal("unexpected fallback")
	}
	if res.Language != "JavaScript" || res.Tag != "js" {
		t.Errorf("Language, Tag = %q, %q", res.Language, res.Tag)
	}
	if res.Lines() != 1 {
		t.Errorf("Lines() = %d, want 1", res.Lines())
	}
	for _, s := range []string{`<span class="hljs-keyword">const</span>`, `1</span>`} {
		if !strings.Contains(res.Body, s) {
			t.Errorf("body lacks %q:\n%s", s, res.Body)
		}
	}
}

func TestHighlightClassPrefix(t *testing.T) {
	h := New(nil, Options{ClassPrefix: "tok-"})

	res := h.Highlight("const x = 1;", "js")

	if !strings.Contains(res.Body, `class="tok-keyword"`) || strings.Contains(res.Body, "hljs-") {
		t.Errorf("body does not use the prefix:\n%s", res.Body)
	}
}

func TestHighlightMultiLine(t *testing.T) {
	h := New(nil, Options{})

	res := h.Highlight("a = 1\nb = 2\nc = 3\n", "python")

	if res.UsedFallback {
		t.Fatal("unexpected fallback")
	}
	if res.Lines() != 3 {
		t.Errorf("Lines() = %d, want 3", res.Lines())
	}
	if n := strings.Count(res.Body, "<br />"); n != 3 {
		t.Errorf("body has %d breaks, want 3", n)
	}
}

func TestHighlightNoTrailingBreakAdded(t *testing.T) {
	h := New(nil, Options{})

	res := h.Highlight("x := 1", "go")

	if res.UsedFallback {
		t.Fatal("unexpected fallback")
	}
	if strings.Contains(res.Body, "<br />") {
		t.Errorf("body = %q, want no break", res.Body)
	}
}

func TestHighlightUnknownLanguageFallsBack(t *testing.T) {
	h := New(nil, Options{})

	res := h.Highlight(`<b>&"x"</b>`+"\n", "no-such-lang")

	if !res.UsedFallback || res.Language != "" {
		t.Errorf("UsedFallback, Language = %v, %q", res.UsedFallback, res.Language)
	}
	if want := "&lt;b&gt;&amp;&#34;x&#34;&lt;/b&gt;\n"; res.Body != want {
		t.Errorf("Body = %q, want %q", res.Body, want)
	}
	if res.Lines() != 1 {
		t.Errorf("Lines() = %d, want 1", res.Lines())
	}
}

func TestHighlightEmptyTagFallsBack(t *testing.T) {
	h := New(nil, Options{})

	res := h.Highlight("plain\ntext", "")

	if !res.UsedFallback {
		t.Error("expected fallback")
	}
	if res.Body != "plain\ntext" {
		t.Errorf("Body = %q", res.Body)
	}
	if res.Lines() != 2 {
		t.Errorf("Lines() = %d, want 2", res.Lines())
	}
}

func TestHighlightEmptyCode(t *testing.T) {
	h := New(nil, Options{})

	res := h.Highlight("", "js")

	if res.Lines() != 0 || res.Body != "" {
		t.Errorf("Lines, Body = %d, %q", res.Lines(), res.Body)
	}
}

func TestHighlightTokenizerFailure(t *testing.T) {
	tests := []struct {
		name   string
		panics bool
	}{
		{"error", false},
		{"panic", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := logging.New(logging.Config{Level: logging.LevelDebug, Output: &buf})

			reg := DefaultRegistry()
			reg.register("boom", "Boom", failingTokenizer{panics: tt.panics})
			h := New(reg, Options{Logger: log})

			res := h.Highlight("a < b\nc", "boom")

			if !res.UsedFallback {
				t.Error("expected fallback")
			}
			if res.Body != "a &lt; b\nc" {
				t.Errorf("Body = %q", res.Body)
			}
			if res.Lines() != 2 {
				t.Errorf("Lines() = %d, want 2", res.Lines())
			}

			out := buf.String()
			for _, s := range []string{"level=warning", "component=highlight", "lang=Boom"} {
				if !strings.Contains(out, s) {
					t.Errorf("log lacks %q:\n%s", s, out)
				}
			}
		})
	}
}

func TestHighlighterFingerprint(t *testing.T) {
	a := New(nil, Options{})
	b := New(nil, Options{ClassPrefix: "x-"})
	c := New(NewRegistry(nil, []string{"go"}), Options{})

	if a.Fingerprint() == b.Fingerprint() {
		t.Error("class prefix should change the fingerprint")
	}
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("registry should change the fingerprint")
	}
	if a.Fingerprint() != New(DefaultRegistry(), Options{}).Fingerprint() {
		t.Error("nil registry should match the default registry")
	}
}

func TestMemoHitsAndMisses(t *testing.T) {
	m := NewMemo(New(nil, Options{}), 16)

	first := m.Highlight("x := 1\n", "go")
	second := m.Highlight("x := 1\n", "go")
	m.Highlight("x := 1\n", "python")

	if !reflect.DeepEqual(first, second) {
		t.Errorf("cached result differs:\n%+v\n%+v", first, second)
	}
	stats := m.Stats()
	if stats.Hits != 1 || stats.Misses != 2 || stats.Size != 2 {
		t.Errorf("stats = %+v, want 1 hit, 2 misses, size 2", stats)
	}
}

func TestMemoInvalidate(t *testing.T) {
	m := NewMemo(New(nil, Options{}), 16)

	m.Highlight("x", "go")
	m.Invalidate()
	if size := m.Stats().Size; size != 0 {
		t.Errorf("Size after Invalidate = %d, want 0", size)
	}

	m.Highlight("x", "go")
	if misses := m.Stats().Misses; misses != 2 {
		t.Errorf("Misses = %d, want 2", misses)
	}
}

func TestMemoSetSource(t *testing.T) {
	m := NewMemo(New(nil, Options{}), 16)

	before := m.Highlight("const x = 1;", "js")
	m.SetSource(New(NewRegistry(nil, []string{"js"}), Options{}))
	after := m.Highlight("const x = 1;", "js")

	if before.UsedFallback {
		t.Error("first result should be highlighted")
	}
	if !after.UsedFallback {
		t.Error("result after SetSource should come from the new source")
	}
}

func TestMemoEviction(t *testing.T) {
	m := NewMemo(New(nil, Options{}), 4)

	for i := 0; i < 10; i++ {
		m.Highlight(fmt.Sprintf("x%d", i), "")
	}

	stats := m.Stats()
	if stats.Size > 4 {
		t.Errorf("Size = %d, want at most 4", stats.Size)
	}
	if stats.Evictions == 0 {
		t.Error("expected evictions")
	}
}

func TestMemoImplementsSource(t *testing.T) {
	var _ Source = (*Highlighter)(nil)
	var _ Source = (*Memo)(nil)
}
