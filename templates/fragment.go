package templates

// GetFragmentTemplate returns the fragment entry point, which renders the
// "content" block without the document shell. Used for partial page updates.
func GetFragmentTemplate() string {
	return fragmentTemplate
}

var fragmentTemplate = `{{define "fragment"}}<title>{{.Title}}</title>
{{template "content" .}}{{end}}`
