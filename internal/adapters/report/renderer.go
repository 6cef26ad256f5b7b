// Package report renders the theme analysis into the two delivered
// documents: a markdown executive pulse note and a branded HTML email.
package report

import (
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/ItRachii/weekly-app-review-pulse/internal/core/theme"
	"github.com/ItRachii/weekly-app-review-pulse/internal/ports/secondary"
)

// topThemes is how many themes the delivered documents surface; the full
// analysis stays in the artifact store.
const topThemes = 3

// Renderer implements secondary.ReportRenderer with static templates.
type Renderer struct {
	appName string
	note    *texttemplate.Template
	email   *htmltemplate.Template
}

var _ secondary.ReportRenderer = (*Renderer)(nil)

// NewRenderer builds a renderer branded with the given app name.
func NewRenderer(appName string) (*Renderer, error) {
	if appName == "" {
		appName = "App"
	}
	funcs := texttemplate.FuncMap{
		"inc": func(i int) int { return i + 1 },
	}
	note, err := texttemplate.New("note").Funcs(funcs).Parse(noteTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse note template: %w", err)
	}
	email, err := htmltemplate.New("email").Parse(emailTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse email template: %w", err)
	}
	return &Renderer{appName: appName, note: note, email: email}, nil
}

type reportData struct {
	AppName     string
	WeekOf      string
	StartDay    string
	EndDay      string
	ReviewCount int
	Year        int
	Themes      []theme.Theme
	Quotes      []string
	Actions     []string
}

func (r *Renderer) buildData(themes []theme.Theme, meta secondary.ReportMeta) reportData {
	top := themes
	if len(top) > topThemes {
		top = top[:topThemes]
	}

	// One quote and one action per top theme keeps the note scannable.
	var quotes, actions []string
	for _, t := range top {
		if len(t.Quotes) > 0 {
			quotes = append(quotes, t.Quotes[0])
		}
		if len(t.ActionIdeas) > 0 {
			actions = append(actions, t.ActionIdeas[0])
		}
	}

	generated, err := time.Parse(time.RFC3339, meta.GeneratedAt)
	if err != nil {
		generated = time.Now().UTC()
	}

	return reportData{
		AppName:     r.appName,
		WeekOf:      generated.Format("January 2, 2006"),
		StartDay:    meta.StartDay,
		EndDay:      meta.EndDay,
		ReviewCount: meta.ReviewCount,
		Year:        generated.Year(),
		Themes:      top,
		Quotes:      quotes,
		Actions:     actions,
	}
}

// RenderNote produces the markdown pulse note.
func (r *Renderer) RenderNote(themes []theme.Theme, meta secondary.ReportMeta) (string, error) {
	var sb strings.Builder
	if err := r.note.Execute(&sb, r.buildData(themes, meta)); err != nil {
		return "", fmt.Errorf("render note: %w", err)
	}
	return sb.String(), nil
}

// RenderEmail produces the HTML email body.
func (r *Renderer) RenderEmail(themes []theme.Theme, meta secondary.ReportMeta) (string, error) {
	var sb strings.Builder
	if err := r.email.Execute(&sb, r.buildData(themes, meta)); err != nil {
		return "", fmt.Errorf("render email: %w", err)
	}
	return sb.String(), nil
}

const noteTemplate = `# {{.AppName}} Weekly Review Pulse – Week of {{.WeekOf}}

{{.ReviewCount}} reviews analyzed from {{.StartDay}} to {{.EndDay}}.

## Top Themes
{{- if .Themes}}
{{- range $i, $t := .Themes}}
{{inc $i}}. **{{$t.Label}}** ({{$t.ReviewCount}} reviews): {{$t.Summary}}
{{- end}}
{{- else}}
No dominant themes were identified this week.
{{- end}}

## What Users Are Saying
{{- if .Quotes}}
{{- range .Quotes}}
- "{{.}}"
{{- end}}
{{- else}}
- No high-signal quotes captured.
{{- end}}

## Recommended Actions
{{- if .Actions}}
{{- range $i, $a := .Actions}}
{{inc $i}}. {{$a}}
{{- end}}
{{- else}}
1. Review the raw feedback directly; automated analysis was unavailable.
{{- end}}
`

const emailTemplate = `<!DOCTYPE html>
<html>
<head>
<style>
  body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 0; background: #f4f4f4; }
  .wrapper { background: #ffffff; border-radius: 12px; overflow: hidden; box-shadow: 0 2px 12px rgba(83,103,245,0.08); }
  .header { background: linear-gradient(135deg, #5367F5, #00D09C); color: #ffffff; padding: 30px 25px; text-align: center; }
  .header h2 { margin: 0 0 4px 0; font-size: 22px; font-weight: 700; letter-spacing: 0.5px; }
  .header p { margin: 0; font-size: 14px; opacity: 0.9; }
  .content { padding: 30px; }
  .section-title { color: #5367F5; font-size: 13px; font-weight: 700; text-transform: uppercase; letter-spacing: 1px; border-bottom: 2px solid #00D09C; padding-bottom: 8px; margin: 28px 0 16px 0; }
  .theme-item { margin: 12px 0; padding: 16px; background: #E5F4FD; border-left: 4px solid #5367F5; border-radius: 6px; }
  .theme-label { font-weight: 700; color: #5367F5; font-size: 15px; }
  .theme-count { color: #00D09C; font-weight: 600; font-size: 13px; }
  .theme-summary { color: #333; font-size: 14px; margin-top: 6px; }
  .quote { font-style: italic; color: #5367F5; background: #E5F4FD; padding: 12px 16px; border-left: 3px solid #08F6B6; border-radius: 4px; margin: 10px 0; display: block; font-size: 14px; }
  .action-list { padding-left: 20px; margin: 0; }
  .action-item { margin: 10px 0; color: #333; font-size: 14px; }
  .footer { padding: 20px 30px; font-size: 11px; color: #B1D0FB; text-align: center; border-top: 1px solid #E5F4FD; }
</style>
</head>
<body>
  <div class="wrapper">
    <div class="header">
      <h2>{{.AppName}} Pulse Report</h2>
      <p>Week of {{.WeekOf}} &middot; {{.ReviewCount}} reviews</p>
    </div>
    <div class="content">
      <div class="section-title">Top Sentiment Themes</div>
      {{- range .Themes}}
      <div class="theme-item">
        <span class="theme-label">{{.Label}}</span> <span class="theme-count">({{.ReviewCount}} reviews)</span>
        <div class="theme-summary">{{.Summary}}</div>
      </div>
      {{- else}}
      <p>No dominant themes were identified this week.</p>
      {{- end}}

      <div class="section-title">Critical User Voices</div>
      {{- range .Quotes}}
      <span class="quote">&ldquo;{{.}}&rdquo;</span>
      {{- end}}

      <div class="section-title">Recommended Actions</div>
      <ul class="action-list">
        {{- range .Actions}}
        <li class="action-item">{{.}}</li>
        {{- end}}
      </ul>
    </div>
    <div class="footer">
      This is an automated weekly pulse summary covering {{.StartDay}} to {{.EndDay}}.<br>
      &copy; {{.Year}} {{.AppName}} Product Operations
    </div>
  </div>
</body>
</html>
`
