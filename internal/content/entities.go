package content

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"nostr-render/internal/nips"
	"nostr-render/internal/util"
)

const entityLinkTextRunes = 24

var (
	// Bare NIP-19 entity (no scheme).
	bareEntityRegex = regexp.MustCompile(`(?:npub1|nprofile1|note1|nevent1|naddr1)[a-z0-9]+`)

	// Entity carrying the nostr: scheme.
	prefixedEntityRegex = regexp.MustCompile(`nostr:(?:npub1|nprofile1|note1|nevent1|naddr1)[a-z0-9]+`)

	// Markdown link target pointing at a nostr: URI.
	nostrLinkTargetRegex = regexp.MustCompile(`\]\(nostr:([a-zA-Z0-9]+)\)`)
)

// tokenStart controls which characters may precede a match.
type tokenStart int

const (
	// start of string or whitespace only
	startSpace tokenStart = iota
	// also an opening parenthesis
	startParen
	// also an opening parenthesis, unless it opens a markdown link target
	startParenNotLink
)

func atTokenStart(s string, i int, mode tokenStart) bool {
	if i == 0 {
		return true
	}
	prev, _ := utf8.DecodeLastRuneInString(s[:i])
	if unicode.IsSpace(prev) {
		return true
	}
	if prev != '(' || mode == startSpace {
		return false
	}
	if mode == startParenNotLink && i >= 2 && s[i-2] == ']' {
		return false
	}
	return true
}

// atWordEnd reports whether j ends an alphanumeric run.
func atWordEnd(s string, j int) bool {
	if j >= len(s) {
		return true
	}
	next, _ := utf8.DecodeRuneInString(s[j:])
	return !unicode.IsLetter(next) && !unicode.IsDigit(next)
}

// replaceTokens rewrites every match of re that sits on a token boundary,
// as decided by the start and end predicates. Matches failing either check
// are copied through untouched. Output is never rescanned.
func replaceTokens(re *regexp.Regexp, s string, start tokenStart, end func(string, int) bool, fn func(string) string) string {
	matches := re.FindAllStringIndex(s, -1)
	if len(matches) == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + len(matches)*16)
	last := 0
	for _, m := range matches {
		if !atTokenStart(s, m[0], start) || !end(s, m[1]) {
			continue
		}
		b.WriteString(s[last:m[0]])
		b.WriteString(fn(s[m[0]:m[1]]))
		last = m[1]
	}
	b.WriteString(s[last:])
	return b.String()
}

// NormalizeEntities rewrites NIP-19 entities found in content into markdown
// links to an external viewer. Three passes, each over the previous output:
//
//  1. bare entities get the nostr: scheme
//  2. prefixed entities become [nostr:npub1abc...](nostr:npub1abc...)
//  3. nostr: link targets point at viewerURL instead
//
// Running it on its own output changes nothing.
func NormalizeEntities(content, viewerURL string) string {
	if content == "" {
		return content
	}
	if viewerURL == "" {
		viewerURL = DefaultViewerURL
	}

	content = replaceTokens(bareEntityRegex, content, startParen, atWordEnd, func(entity string) string {
		return nips.URIScheme + entity
	})

	content = replaceTokens(prefixedEntityRegex, content, startParenNotLink, atWordEnd, func(uri string) string {
		return "[" + util.FirstRunes(uri, entityLinkTextRunes) + "...](" + uri + ")"
	})

	return nostrLinkTargetRegex.ReplaceAllString(content, "]("+viewerURL+"$1)")
}
