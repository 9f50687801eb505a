package main

import (
	"html/template"

	"nostr-render/templates"
)

var pageTemplates = template.Must(template.New("page").Parse(
	templates.GetBaseTemplates() + templates.GetFragmentTemplate() + templates.GetEventTemplate(),
))
