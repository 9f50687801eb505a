package content

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Media URL patterns. Extension sets are disjoint so the scans commute.
var (
	imageURLRegex = regexp.MustCompile(`(?i)https?://[^\s<>"]*\.(?:png|jpe?g|gif|bmp)(?:\?[^\s<>"]*)?`)
	videoURLRegex = regexp.MustCompile(`(?i)https?://[^\s<>"]*\.(?:mp4|webm|ogg|mov)(?:\?[^\s<>"]*)?`)
	audioURLRegex = regexp.MustCompile(`(?i)https?://[^\s<>"]*\.mp3(?:\?[^\s<>"]*)?`)
)

const (
	legacyVideoType = "video/mp4"
	audioType       = "audio/mpeg"
)

var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".ogg":  "video/ogg",
	".mov":  "video/quicktime",
}

// atURLEnd accepts trailing sentence punctuation after a URL, as long as
// whitespace or the end of the string follows it.
func atURLEnd(s string, j int) bool {
	for j < len(s) && strings.IndexByte(".,;:!?)", s[j]) >= 0 {
		j++
	}
	if j >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[j:])
	return unicode.IsSpace(r)
}

// EmbedImages wraps image URLs in markdown image syntax, padded with a
// single space on each side.
func EmbedImages(content string) string {
	return replaceTokens(imageURLRegex, content, startSpace, atURLEnd, func(url string) string {
		return " ![Image](" + url + ") "
	})
}

// EmbedVideos wraps video URLs in a <video> element. The declared type
// follows the extension unless legacyType is set, which always declares
// video/mp4.
func EmbedVideos(content string, legacyType bool) string {
	return replaceTokens(videoURLRegex, content, startSpace, atURLEnd, func(url string) string {
		mime := legacyVideoType
		if !legacyType {
			if t, ok := videoTypes[mediaExt(url)]; ok {
				mime = t
			}
		}
		return fmt.Sprintf(` <video controls><source src="%s" type="%s"></video> `, url, mime)
	})
}

// EmbedAudio wraps mp3 URLs in an <audio> element.
func EmbedAudio(content string) string {
	return replaceTokens(audioURLRegex, content, startSpace, atURLEnd, func(url string) string {
		return fmt.Sprintf(` <audio controls><source src="%s" type="%s"></audio> `, url, audioType)
	})
}

// mediaExt returns the lowercased extension of url, ignoring the query.
func mediaExt(url string) string {
	if i := strings.IndexByte(url, '?'); i >= 0 {
		url = url[:i]
	}
	return strings.ToLower(path.Ext(url))
}
