package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeHTMLEntities(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Tom &amp; Jerry", "Tom & Jerry"},
		{"&quot;quoted&quot; &apos;single&apos;", `"quoted" 'single'`},
		{"a &lt;b&gt; c", "a <b> c"},
		{"caf&#233;", "café"},
		{"&#x1F600; smile", "😀 smile"},
		{"&#X41;", "A"},
		{"&nbsp;stays&copy;", "&nbsp;stays&copy;"},
		{"&amp;lt;", "&lt;"},
		{"&#0; &#xFFFFFFF;", "&#0; &#xFFFFFFF;"},
		{"no entities", "no entities"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeHTMLEntities(tt.in))
		})
	}
}

func TestSelectDominantLanguageSegment(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"latin first", "Hello World\nשלום עולם", "Hello World"},
		{"latin second", "Привет мир\nHello World", "Hello World"},
		{"long latin despite mixed", "日本語 This line has plenty of latin letters", "日本語 This line has plenty of latin letters"},
		{"no preferred falls back to first", "שלום עולם\nПривет", "שלום עולם"},
		{"single line", "  Just one line  ", "Just one line"},
		{"bullets stripped", "Title • Subtitle", "Title Subtitle"},
		{"middle dot stripped", "News · Today", "News Today"},
		{"blank lines skipped", "\n\n  \nHello\n", "Hello"},
		{"digits only", "12345", "12345"},
		{"empty", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectDominantLanguageSegment(tt.in))
		})
	}
}

func TestSanitizePreviewText(t *testing.T) {
	assert.Equal(t, "", SanitizePreviewText(""))
	assert.Equal(t, "Hello", SanitizePreviewText("Hello\nПривет"))
}

func TestResolvePreviewTitle(t *testing.T) {
	tests := []struct {
		name, raw, fallback, want string
	}{
		{"plain", "Real Title", "Untitled", "Real Title"},
		{"mixed appends snippet", "Hello World\nשלום עולם", "Untitled", "Hello World · שלום עולם"},
		{
			"snippet truncated",
			"Hello World\nПривет мир это очень длинная строка которая не помещается",
			"Untitled",
			"Hello World · Привет мир это очень длинная строка кот…",
		},
		{"snippet already present", "Привет Hello World and more latin text\nПривет", "Untitled", "Привет Hello World and more latin text"},
		{"single mixed line unchanged", "Tokyo 東京", "Untitled", "Tokyo 東京"},
		{"too short uses raw", "  ab ", "Untitled", "ab"},
		{"empty uses fallback", "   ", "YouTube Link", "YouTube Link"},
		{"non latin only", "שלום עולם", "Untitled", "שלום עולם"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolvePreviewTitle(tt.raw, tt.fallback))
		})
	}
}

func TestResolvePreviewDescription(t *testing.T) {
	assert.Equal(t, "English text", ResolvePreviewDescription("English text\nטקסט בעברית"))
	assert.Equal(t, "ok", ResolvePreviewDescription(" ok "))
	assert.Equal(t, "", ResolvePreviewDescription(""))
}

func TestNormalizeSearchText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Café   Ünïcode TEST ", "cafe unicode test"},
		{"ﬁle", "file"},
		{"Ｆｕｌｌｗｉｄｔｈ", "fullwidth"},
		{"été", "ete"},
		{"Straße", "straße"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeSearchText(tt.in))
		})
	}
}

func TestNormalizeSearchText_Idempotent(t *testing.T) {
	inputs := []string{
		"Café Ünïcode", "İstanbul", "ǅemal", "  mixed\tWHITE space ", "日本語テキスト", "Ωmega ΣΑΣ", "ﬃ ligature",
	}
	for _, in := range inputs {
		once := NormalizeSearchText(in)
		assert.Equal(t, once, NormalizeSearchText(once), "input %q", in)
	}
}

func TestCleanPlatformTitleNoise(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"caption after colon", `Jane Doe on Instagram: "Sunset at the beach"`, "Sunset at the beach"},
		{"curly quotes", "Jane on Instagram: “Morning run”", "Morning run"},
		{"guillemets", "«Bonjour» on Instagram", "Bonjour"},
		{"cjk quotes", "「東京の夜」", "東京の夜"},
		{"trailing marker", "Great recipe on Instagram:", "Great recipe"},
		{"handle suffix", "Great recipe - jane.doe • photos on Instagram", "Great recipe"},
		{"inline handles", "Dinner with @bob and @alice tonight", "Dinner with and tonight"},
		{"leading handle", "@jane Sunset", "Sunset"},
		{"trailing handle", "Sunset @jane", "Sunset"},
		{"email kept", "write to me@example.com", "write to me@example.com"},
		{"prefix before colon", "Recipe: chocolate cake", "chocolate cake"},
		{"quoted caption after name", `Jane Doe: "Sunset"`, "Sunset"},
		{"repeated colons", "Recipe: step one: chop", "chop"},
		{"bare trailing colon kept", "Note:", "Note:"},
		{"whitespace collapsed", "  lots    of\tspace ", "lots of space"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanPlatformTitleNoise(tt.in))
		})
	}
}

func TestCleanPlatformTitleNoise_Idempotent(t *testing.T) {
	inputs := []string{
		`Jane Doe on Instagram: "Sunset at the beach @friend"`,
		`"'"nested quotes"'"`,
		"@a @b @c",
		"Caption on Instagram: on Instagram:",
		"x - y on Instagram on Instagram",
		"",
		"   ",
		"A: B: C",
		"« @handle »",
	}
	for _, in := range inputs {
		once := CleanPlatformTitleNoise(in)
		assert.Equal(t, once, CleanPlatformTitleNoise(once), "input %q", in)
	}
}
