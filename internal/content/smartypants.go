package content

import "strings"

// typographic replacements, applied in order; "---" has to run before "--"
var smartyPantsRules = []struct {
	old, new string
}{
	{"<<", "&laquo;"},
	{"»", "&laquo;"},
	{">>", "&raquo;"},
	{"«", "&raquo;"},
	{"...", "&hellip;"},
	{"---", "&mdash;"},
	{"--", "&mdash;"},
}

// SmartyPants replaces quote, ellipsis and dash sequences with HTML entities.
func SmartyPants(content string) string {
	for _, rule := range smartyPantsRules {
		content = strings.ReplaceAll(content, rule.old, rule.new)
	}
	return content
}
