package notion

import (
	"fmt"
	"strings"
)

const (
	wordsPerMinute  = 200
	secondsPerImage = 12
)

var textBlockTypes = map[string]bool{
	"text":           true,
	"header":         true,
	"sub_header":     true,
	"sub_sub_header": true,
	"bulleted_list":  true,
	"numbered_list":  true,
	"to_do":          true,
	"toggle":         true,
	"quote":          true,
	"callout":        true,
	"code":           true,
}

// ReadingTimeMinutes estimates reading time for a fetched page tree from
// its word and image counts, rounded up to whole minutes and never zero.
// A tree whose root block is missing yields the 1-minute default instead
// of an error.
func ReadingTimeMinutes(tree *PageTree) int {
	root, ok := tree.Root()
	if !ok {
		return 1
	}

	words, images := countContent(tree, root, make(map[string]bool))

	seconds := words*60/wordsPerMinute + images*secondsPerImage
	minutes := (seconds + 59) / 60
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

func countContent(tree *PageTree, block Block, visited map[string]bool) (words, images int) {
	for _, childID := range block.Content {
		if visited[childID] {
			continue
		}
		visited[childID] = true

		child, ok := tree.Blocks[childID]
		if !ok {
			continue
		}

		if textBlockTypes[child.Type] {
			words += len(strings.Fields(PlainText(child.Properties["title"])))
		}
		if child.Type == "image" {
			images++
		}

		if len(child.Content) > 0 && child.Type != "page" {
			childWords, childImages := countContent(tree, child, visited)
			words += childWords
			images += childImages
		}
	}
	return words, images
}

// MessageSource supplies localized message templates; the locale matcher
// satisfies it.
type MessageSource interface {
	Message(locale, key string) string
}

// FormatReadingTime renders a minute count with the locale's pluralization.
func FormatReadingTime(minutes int, locale string, messages MessageSource) string {
	key := "reading_time.other"
	if minutes == 1 {
		key = "reading_time.one"
	}
	return fmt.Sprintf(messages.Message(locale, key), minutes)
}
