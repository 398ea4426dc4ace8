package locale

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestParseAcceptLanguage(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		header string
		want   []string
	}{
		{
			name:   "weights stripped, order preserved",
			header: "en-US,en;q=0.9,zh-CN;q=0.8",
			want:   []string{"en-US", "en", "zh-CN"},
		},
		{
			name:   "single locale",
			header: "zh-CN",
			want:   []string{"zh-CN"},
		},
		{
			name:   "spaces tolerated",
			header: "fr-FR, fr;q=0.9, en;q=0.5",
			want:   []string{"fr-FR", "fr", "en"},
		},
		{
			name:   "empty header",
			header: "",
			want:   nil,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			got := ParseAcceptLanguage(test.header)
			if !reflect.DeepEqual(got, test.want) {
				t.Errorf("ParseAcceptLanguage(%q) = %v, want %v", test.header, got, test.want)
			}
		})
	}
}

func TestFindBestMatch(t *testing.T) {
	t.Parallel()
	supported := []string{"en", "zh-CN"}
	tests := []struct {
		name      string
		preferred []string
		want      string
	}{
		{
			name:      "exact match",
			preferred: []string{"zh-CN"},
			want:      "zh-CN",
		},
		{
			name:      "language subtag fallback",
			preferred: []string{"zh-TW"},
			want:      "zh-CN",
		},
		{
			name:      "default fallback",
			preferred: []string{"fr"},
			want:      "en",
		},
		{
			name:      "first preference wins",
			preferred: []string{"zh-CN", "en"},
			want:      "zh-CN",
		},
		{
			name:      "later preference matches when first cannot",
			preferred: []string{"ja", "zh-HK"},
			want:      "zh-CN",
		},
		{
			name:      "no preferences",
			preferred: nil,
			want:      "en",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			got := FindBestMatch(test.preferred, supported, "en")
			if got != test.want {
				t.Errorf("FindBestMatch(%v) = %q, want %q", test.preferred, got, test.want)
			}
		})
	}
}

func writeMessages(t *testing.T, dir, code, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, code+".json"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestNewMatcherDiscoversLocales(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeMessages(t, dir, "en", `{"category.Tech":"Tech"}`)
	writeMessages(t, dir, "zh-CN", `{"category.Tech":"技术"}`)

	m, err := NewMatcher(dir, "en")
	if err != nil {
		t.Fatalf("NewMatcher: %v", err)
	}

	want := []string{"en", "zh-CN"}
	if !reflect.DeepEqual(m.Supported, want) {
		t.Errorf("Supported = %v, want %v", m.Supported, want)
	}
}

func TestNewMatcherMissingDefaultIsFatal(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeMessages(t, dir, "zh-CN", `{}`)

	if _, err := NewMatcher(dir, "en"); err == nil {
		t.Fatal("expected error for missing default locale file")
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeMessages(t, dir, "en", `{}`)
	writeMessages(t, dir, "zh-CN", `{}`)

	m, err := NewMatcher(dir, "en")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name           string
		cookie         string
		acceptLanguage string
		want           string
	}{
		{
			name:   "confirmed cookie wins",
			cookie: "zh-CN", acceptLanguage: "en-US,en;q=0.9",
			want: "zh-CN",
		},
		{
			name:   "unset sentinel falls through to header",
			cookie: CookieUnset, acceptLanguage: "zh-TW,zh;q=0.9",
			want: "zh-CN",
		},
		{
			name:   "unsupported cookie falls through",
			cookie: "fr", acceptLanguage: "zh-CN",
			want: "zh-CN",
		},
		{
			name: "nothing matches",
			want: "en",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			got := m.Resolve(test.cookie, test.acceptLanguage)
			if got != test.want {
				t.Errorf("Resolve(%q, %q) = %q, want %q", test.cookie, test.acceptLanguage, got, test.want)
			}
		})
	}
}

func TestMessageFallback(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeMessages(t, dir, "en", `{"category.Tech":"Tech","reading_time.one":"%d min read"}`)
	writeMessages(t, dir, "zh-CN", `{"category.Tech":"技术"}`)

	m, err := NewMatcher(dir, "en")
	if err != nil {
		t.Fatal(err)
	}

	if got := m.Message("zh-CN", "category.Tech"); got != "技术" {
		t.Errorf("Message(zh-CN) = %q", got)
	}
	if got := m.Message("zh-CN", "reading_time.one"); got != "%d min read" {
		t.Errorf("Message fallback to default = %q", got)
	}
	if got := m.Message("en", "missing.key"); got != "missing.key" {
		t.Errorf("Message unknown key = %q", got)
	}
	if got := m.LocalizeCategory("en", "Obscure"); got != "Obscure" {
		t.Errorf("LocalizeCategory passthrough = %q", got)
	}
}
