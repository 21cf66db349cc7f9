package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeURLForComparison(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		same bool
	}{
		{"scheme www and trailing slash ignored", "https://Example.com/Path/", "http://www.example.com/Path", true},
		{"query preserved", "https://example.com/a?x=1", "https://example.com/a?x=2", false},
		{"query with trailing slash path", "https://example.com/a/?x=1", "example.com/a?x=1", true},
		{"path case kept", "https://example.com/Path", "https://example.com/path", false},
		{"different hosts", "https://example.com", "https://example.org", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeURLForComparison(tt.a) == NormalizeURLForComparison(tt.b)
			assert.Equal(t, tt.same, got, "%q vs %q", NormalizeURLForComparison(tt.a), NormalizeURLForComparison(tt.b))
		})
	}
}

func TestNormalizeURLForComparison_Unparseable(t *testing.T) {
	assert.Equal(t, "ftp://weird", NormalizeURLForComparison("  FTP://Weird "))
	assert.Equal(t, "", NormalizeURLForComparison("   "))
}

func TestNormalizeURL(t *testing.T) {
	got, err := NormalizeURL("  example.com/page ")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/page", got)

	got, err = NormalizeURL("http://example.com")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com", got)

	for _, bad := range []string{"", "   ", "not a url", "ftp://example.com", "https://"} {
		_, err := NormalizeURL(bad)
		assert.ErrorIs(t, err, ErrInvalidURL, "input %q", bad)
	}
}

func TestLinkEntry_UserTitle(t *testing.T) {
	title := "My Title"
	link := LinkEntry{URL: "https://example.com", CustomTitle: &title, IsCustomTitle: true}
	got, ok := link.UserTitle()
	assert.True(t, ok)
	assert.Equal(t, "My Title", got)

	link.IsCustomTitle = false
	_, ok = link.UserTitle()
	assert.False(t, ok, "custom title without the flag is not a user title")

	blank := "   "
	link = LinkEntry{CustomTitle: &blank, IsCustomTitle: true}
	_, ok = link.UserTitle()
	assert.False(t, ok)
}

func TestLegacyTimestamp(t *testing.T) {
	assert.Equal(t, "legacy_https://example.com/abc", LegacyTimestamp("https://Example.com/ABC"))
}

func TestPreviewRecord_IsBroken(t *testing.T) {
	assert.True(t, PreviewRecord{Title: LoadingTitle}.IsBroken())
	assert.True(t, PreviewRecord{Title: UnavailableTitle}.IsBroken())
	assert.True(t, PreviewRecord{Title: "  "}.IsBroken())
	assert.False(t, PreviewRecord{Title: "My Great Post"}.IsBroken())
}

func TestNewPlaceholder(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	p := NewPlaceholder("https://example.com", now)
	assert.Equal(t, LoadingTitle, p.Title)
	assert.Equal(t, LoadingDescription, p.Description)
	assert.Equal(t, UnknownSite, p.SiteName)
	assert.Nil(t, p.Image)
	assert.True(t, p.IsPlaceholder())
	assert.True(t, p.IsBroken())
}

func TestDocumentID(t *testing.T) {
	assert.Equal(t, "https_3A_2F_2Fexample_com_2Fa_3Fb_3D1", DocumentID(" https://example.com/a?b=1 "))
	assert.Regexp(t, `^[A-Za-z0-9_]+$`, DocumentID("https://www.tiktok.com/@demo/video/123"))
}

func TestDocumentID_URIComponentSet(t *testing.T) {
	// ! ' ( ) * ~ stay unescaped, so each maps to a single "_".
	assert.Equal(t, "https_3A_2F_2Fen_wikipedia_org_2Fwiki_2FGo__language_", DocumentID("https://en.wikipedia.org/wiki/Go_(language)"))
	assert.Equal(t, "a_b_c_d_e", DocumentID("a!b'c*d~e"))
	assert.Equal(t, "a_20b", DocumentID("a b"))
	assert.Equal(t, "caf_C3_A9", DocumentID("café"))
}

func TestPreviewRecord_WithUserTitle(t *testing.T) {
	title := "Mine"
	rec := PreviewRecord{Title: "Fetched"}.WithUserTitle(LinkEntry{CustomTitle: &title, IsCustomTitle: true})
	assert.Equal(t, "Mine", rec.Title)
	assert.True(t, rec.IsCustomTitle)

	rec = PreviewRecord{Title: "Fetched"}.WithUserTitle(LinkEntry{})
	assert.Equal(t, "Fetched", rec.Title)
	assert.False(t, rec.IsCustomTitle)
}
