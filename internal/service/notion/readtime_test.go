package notion

import (
	"strings"
	"testing"
)

func textTree(words, images int) *PageTree {
	blocks := map[string]Block{
		"root": {
			ID:      "root",
			Type:    "page",
			Content: []string{"p1"},
		},
		"p1": {
			ID:         "p1",
			Type:       "text",
			Properties: map[string]any{"title": rich(strings.Repeat("word ", words))},
		},
	}
	for i := 0; i < images; i++ {
		id := "img" + strings.Repeat("i", i+1)
		blocks[id] = Block{ID: id, Type: "image"}
		root := blocks["root"]
		root.Content = append(root.Content, id)
		blocks["root"] = root
	}
	return &PageTree{RootID: "root", Blocks: blocks}
}

func TestReadingTimeMinutes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		tree *PageTree
		want int
	}{
		{
			name: "missing root defaults to one minute",
			tree: &PageTree{RootID: "gone", Blocks: map[string]Block{}},
			want: 1,
		},
		{
			name: "empty page never reports zero",
			tree: textTree(0, 0),
			want: 1,
		},
		{
			name: "short text rounds up",
			tree: textTree(50, 0),
			want: 1,
		},
		{
			name: "two minutes of text",
			tree: textTree(400, 0),
			want: 2,
		},
		{
			name: "images add viewing time",
			tree: textTree(50, 4),
			want: 2,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			if got := ReadingTimeMinutes(test.tree); got != test.want {
				t.Errorf("ReadingTimeMinutes = %d, want %d", got, test.want)
			}
		})
	}
}

type staticMessages map[string]string

func (m staticMessages) Message(locale, key string) string {
	if msg, ok := m[locale+"/"+key]; ok {
		return msg
	}
	return key
}

func TestFormatReadingTime(t *testing.T) {
	t.Parallel()
	messages := staticMessages{
		"en/reading_time.one":      "%d min read",
		"en/reading_time.other":    "%d mins read",
		"zh-CN/reading_time.one":   "阅读时长 %d 分钟",
		"zh-CN/reading_time.other": "阅读时长 %d 分钟",
	}

	tests := []struct {
		minutes int
		locale  string
		want    string
	}{
		{1, "en", "1 min read"},
		{3, "en", "3 mins read"},
		{1, "zh-CN", "阅读时长 1 分钟"},
		{5, "zh-CN", "阅读时长 5 分钟"},
	}

	for _, test := range tests {
		if got := FormatReadingTime(test.minutes, test.locale, messages); got != test.want {
			t.Errorf("FormatReadingTime(%d, %s) = %q, want %q", test.minutes, test.locale, got, test.want)
		}
	}
}
