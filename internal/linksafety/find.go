package linksafety

import (
	"regexp"
	"sort"
	"unicode"
	"unicode/utf8"
)

var (
	schemeURLPattern = regexp.MustCompile(`https?://(?:[-\w.]|(?:%[\da-fA-F]{2}))+`)
	bareURLPattern   = regexp.MustCompile(`(?:www\.)?[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z]{2,})+(?:/\S*)?`)
)

// FindURLs returns every URL-like token in text: addresses with an http or
// https scheme and bare domains such as "bit.ly/x" that do not start in the
// middle of a word. The result is deduplicated and sorted.
func FindURLs(text string) []string {
	seen := make(map[string]bool)
	for _, u := range schemeURLPattern.FindAllString(text, -1) {
		seen[u] = true
	}
	for _, u := range findBareDomains(text) {
		seen[u] = true
	}

	urls := make([]string, 0, len(seen))
	for u := range seen {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}

// findBareDomains scans for domain tokens whose first character is not
// preceded by a letter, digit or underscore. A rejected start is retried one
// character later, exactly as a lookbehind assertion would.
func findBareDomains(text string) []string {
	var found []string
	offset := 0
	for offset < len(text) {
		loc := bareURLPattern.FindStringIndex(text[offset:])
		if loc == nil {
			break
		}
		start, end := offset+loc[0], offset+loc[1]
		if precededByWordChar(text, start) {
			_, size := utf8.DecodeRuneInString(text[start:])
			offset = start + size
			continue
		}
		found = append(found, text[start:end])
		offset = end
	}
	return found
}

func precededByWordChar(text string, i int) bool {
	if i == 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
