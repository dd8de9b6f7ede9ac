package titling

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxTitleLength is the platform's title limit in characters.
	MaxTitleLength = 100
	// MaxTagsLength is the platform's budget for all tags combined.
	MaxTagsLength = 500
	// baseTag leads every tag list.
	baseTag = "trending"
)

// SanitizeTitle strips characters the platform rejects, collapses
// whitespace and quotes, and truncates to MaxTitleLength characters.
func SanitizeTitle(title string) string {
	title = strings.Map(func(r rune) rune {
		if r == '<' || r == '>' {
			return -1
		}
		return r
	}, title)
	title = strings.Join(strings.Fields(title), " ")
	title = strings.Trim(title, `"'`)
	title = strings.TrimSpace(title)

	if utf8.RuneCountInString(title) > MaxTitleLength {
		runes := []rune(title)
		title = strings.TrimSpace(string(runes[:MaxTitleLength]))
	}
	return title
}

// SplitPlain parses the legacy "title\ndescription" convention. ok is false
// when the text has no line break, in which case the whole text is the title.
func SplitPlain(text string) (title, description string, ok bool) {
	text = strings.TrimSpace(text)
	idx := strings.Index(text, "\n")
	if idx < 0 {
		return text, "", false
	}
	return strings.TrimSpace(text[:idx]), strings.TrimSpace(text[idx+1:]), true
}

// DeriveTags builds the upload tags: "trending", then extra, then the
// lowercased words of title and description. Duplicates keep their first
// position and the list stops before exceeding MaxTagsLength.
func DeriveTags(title, description string, extra []string) []string {
	words := []string{baseTag}
	words = append(words, extra...)
	words = append(words, strings.Fields(title)...)
	words = append(words, strings.Fields(description)...)

	seen := make(map[string]bool)
	tags := make([]string, 0, len(words))
	used := 0
	for _, w := range words {
		tag := normalizeTag(w)
		if len(tag) < 2 || seen[tag] {
			continue
		}
		cost := utf8.RuneCountInString(tag)
		if len(tags) > 0 {
			cost++ // separator
		}
		if used+cost > MaxTagsLength {
			break
		}
		seen[tag] = true
		tags = append(tags, tag)
		used += cost
	}
	return tags
}

func normalizeTag(word string) string {
	word = strings.TrimFunc(word, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	word = strings.Map(func(r rune) rune {
		if r == '<' || r == '>' || r == ',' {
			return -1
		}
		return r
	}, word)
	return strings.ToLower(word)
}
