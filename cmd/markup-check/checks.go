package main

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Severity levels
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// CheckResult is one failed rule for one rendered event.
type CheckResult struct {
	Rule     string
	Message  string
	Element  string
	Severity string
}

// Elements that never need a closing tag
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true,
	"embed": true, "hr": true, "img": true, "input": true,
	"link": true, "meta": true, "param": true, "source": true,
	"track": true, "wbr": true,
}

// Elements rendered content must never carry, sanitized or not
var forbiddenElements = map[string]bool{
	"script": true, "iframe": true, "object": true, "embed": true,
	"form": true, "style": true, "base": true, "meta": true,
}

var (
	openTagRegex  = regexp.MustCompile(`<([a-zA-Z][a-zA-Z0-9]*)[^>]*>`)
	closeTagRegex = regexp.MustCompile(`</([a-zA-Z][a-zA-Z0-9]*)>`)
)

// CheckMarkup runs every rule over a rendered fragment.
func CheckMarkup(fragment string) []CheckResult {
	var results []CheckResult

	nodes, err := html.ParseFragment(strings.NewReader(fragment), &html.Node{
		Type: html.ElementNode, Data: "div",
	})
	if err != nil {
		return []CheckResult{{
			Rule:     "Valid HTML structure",
			Message:  fmt.Sprintf("HTML parsing error: %v", err),
			Severity: SeverityError,
		}}
	}

	for _, n := range nodes {
		results = append(results, checkElements(n)...)
	}
	results = append(results, checkUnclosedTags(fragment)...)
	return results
}

func checkElements(root *html.Node) []CheckResult {
	var results []CheckResult

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if forbiddenElements[n.Data] {
				results = append(results, CheckResult{
					Rule:     "No active content",
					Message:  fmt.Sprintf("<%s> in rendered content", n.Data),
					Element:  n.Data,
					Severity: SeverityError,
				})
			}
			for _, attr := range n.Attr {
				switch {
				case (attr.Key == "href" || attr.Key == "src") && attr.Val == "":
					results = append(results, CheckResult{
						Rule:     "Non-empty URL attributes",
						Message:  fmt.Sprintf("Empty %s attribute on <%s>", attr.Key, n.Data),
						Element:  n.Data,
						Severity: SeverityWarning,
					})
				case strings.HasPrefix(attr.Key, "on"):
					results = append(results, CheckResult{
						Rule:     "No event handlers",
						Message:  fmt.Sprintf("%s attribute on <%s>", attr.Key, n.Data),
						Element:  n.Data,
						Severity: SeverityError,
					})
				case (attr.Key == "href" || attr.Key == "src") &&
					strings.HasPrefix(strings.ToLower(strings.TrimSpace(attr.Val)), "javascript:"):
					results = append(results, CheckResult{
						Rule:     "Safe URL schemes",
						Message:  fmt.Sprintf("javascript: URL on <%s>", n.Data),
						Element:  n.Data,
						Severity: SeverityError,
					})
				}
			}
			if (n.Data == "video" || n.Data == "audio") && !hasChild(n, "source") {
				results = append(results, CheckResult{
					Rule:     "Media has a source",
					Message:  fmt.Sprintf("<%s> without <source>", n.Data),
					Element:  n.Data,
					Severity: SeverityWarning,
				})
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return results
}

func hasChild(n *html.Node, tag string) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			return true
		}
	}
	return false
}

// checkUnclosedTags compares raw open and close tag counts. The parser
// repairs structure silently, so this looks at the source text.
func checkUnclosedTags(content string) []CheckResult {
	openCount := make(map[string]int)
	closeCount := make(map[string]int)

	for _, match := range openTagRegex.FindAllStringSubmatch(content, -1) {
		if tag := strings.ToLower(match[1]); !voidElements[tag] {
			openCount[tag]++
		}
	}
	for _, match := range closeTagRegex.FindAllStringSubmatch(content, -1) {
		closeCount[strings.ToLower(match[1])]++
	}

	var results []CheckResult
	for tag, count := range openCount {
		if closed := closeCount[tag]; count != closed {
			results = append(results, CheckResult{
				Rule:     "Properly closed tags",
				Message:  fmt.Sprintf("Tag <%s> opened %d times but closed %d times", tag, count, closed),
				Element:  tag,
				Severity: SeverityWarning,
			})
		}
	}
	return results
}

func countSeverity(results []CheckResult, severity string) int {
	n := 0
	for _, r := range results {
		if r.Severity == severity {
			n++
		}
	}
	return n
}
