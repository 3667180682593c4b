package render

import (
	"bytes"
	"html/template"
	"strings"

	letterdomain "github.com/smallbiznis/peoplehub/internal/letter/domain"
)

const letterHTMLTemplate = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>{{.Title}}</title>
  <style>
    body { margin: 0; padding: 48px; font-family: "Helvetica", Arial, sans-serif; color: #1a1f36; font-size: 14px; line-height: 1.5; }
    .letterhead { border-bottom: 2px solid #1a1f36; margin-bottom: 32px; padding-bottom: 12px; }
    .letterhead h1 { margin: 0; font-size: 22px; }
    .letterhead p { margin: 2px 0; color: #697386; font-size: 12px; }
    .letter-footer { margin-top: 48px; border-top: 1px solid #e3e8ee; color: #8792a2; font-size: 11px; text-align: center; }
    table { width: 100%; border-collapse: collapse; }
    th, td { padding: 6px 0; border-bottom: 1px solid #e3e8ee; text-align: left; }
  </style>
</head>
<body>
{{- if .LetterPad}}
  <header class="letterhead">
    <h1>{{.CompanyName}}</h1>
    {{- if .CompanyAddress}}<p>{{.CompanyAddress}}</p>{{end}}
    {{- if .CompanyContact}}<p>{{.CompanyContact}}</p>{{end}}
  </header>
  <hr>
{{- end}}
  <main>{{.Body}}</main>
{{- if and .LetterPad .FooterNote}}
  <hr>
  <footer class="letter-footer"><p style="text-align: center">{{.FooterNote}}</p></footer>
{{- end}}
</body>
</html>
`

var letterTpl = template.Must(template.New("letter").Parse(letterHTMLTemplate))

// Letterhead is the org branding printed on LETTER_PAD templates.
type Letterhead struct {
	CompanyName    string
	CompanyAddress string
	CompanyContact string
	FooterNote     string
}

// LetterheadFromDefaults reads branding from the configured placeholder defaults.
func LetterheadFromDefaults(defaults map[string]string) Letterhead {
	return Letterhead{
		CompanyName:    strings.TrimSpace(defaults["company_name"]),
		CompanyAddress: strings.TrimSpace(defaults["company_address"]),
		CompanyContact: strings.TrimSpace(defaults["company_contact"]),
		FooterNote:     strings.TrimSpace(defaults["letter_footer"]),
	}
}

type documentInput struct {
	Letterhead
	Title     string
	LetterPad bool
	Body      template.HTML
}

// HTMLDocument wraps an already substituted body. The body comes from an
// org's own template and is trusted markup.
func HTMLDocument(title string, templateType letterdomain.TemplateType, body string, head Letterhead) (string, error) {
	var buf bytes.Buffer
	err := letterTpl.Execute(&buf, documentInput{
		Letterhead: head,
		Title:      title,
		LetterPad:  templateType == letterdomain.TemplateTypeLetterPad,
		Body:       template.HTML(body),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
