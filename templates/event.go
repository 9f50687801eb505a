package templates

// GetEventTemplate returns the "content" block for a single rendered event.
// Body is already sanitized HTML.
func GetEventTemplate() string {
	return eventTemplate
}

var eventTemplate = `{{define "content"}}<article class="event event-kind-{{.Kind}}">
  <header>
    <h1>{{.Title}}</h1>
    <time class="event-date" datetime="{{.ISODate}}">{{.Date}}</time>
    {{if .Image}}<img class="event-image" src="{{.Image}}" alt="">{{end}}
    {{if .ShowSummary}}<p class="event-summary">{{.Summary}}</p>{{end}}
  </header>
  <div class="event-content">
{{.Body}}
  </div>
  <footer><a href="{{.ViewerURL}}" rel="noopener">{{.Ref}}</a></footer>
</article>{{end}}`
