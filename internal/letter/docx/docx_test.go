package docx

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>
<w:p w:rsidR="00A1"><w:r><w:t>Dear {{</w:t></w:r><w:r><w:rPr><w:b/></w:rPr><w:t>employee_name</w:t></w:r><w:r><w:t>}},</w:t></w:r></w:p>
<w:p><w:pPr><w:jc w:val="left"/></w:pPr><w:r><w:t xml:space="preserve">Welcome {{ employee_name }} as {{designation}} &amp; team.</w:t></w:r><w:r><w:tab/></w:r></w:p>
<w:p/>
<w:p><w:r><w:t>No tokens here.</w:t></w:r></w:p>
</w:body></w:document>`

const headerXML = `<w:hdr xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:p><w:r><w:t>{{company_name}}</w:t></w:r></w:p></w:hdr>`

func buildDocx(t *testing.T, parts map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, body := range parts {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestExtractPlaceholdersJoinsRunsAndDedupes(t *testing.T) {
	data := buildDocx(t, map[string]string{"word/document.xml": documentXML})

	assert.Equal(t, []string{"employee_name", "designation"}, ExtractPlaceholders(data))
}

func TestExtractPlaceholdersDuplicateTokenCountsOnce(t *testing.T) {
	body := `<w:document xmlns:w="w"><w:body><w:p><w:r><w:t>{{employee_name}} and {{employee_name}}</w:t></w:r></w:p></w:body></w:document>`
	data := buildDocx(t, map[string]string{"word/document.xml": body})

	got := ExtractPlaceholders(data)
	require.Len(t, got, 1)
	assert.Equal(t, "employee_name", got[0])
}

func TestExtractPlaceholdersToleratesGarbage(t *testing.T) {
	assert.Empty(t, ExtractPlaceholders([]byte("not a zip")))
	assert.Empty(t, ExtractPlaceholders(nil))
	assert.Empty(t, ExtractPlaceholders(buildDocx(t, map[string]string{"other.xml": "<x/>"})))
}

func TestSubstituteFillsDocumentAndHeader(t *testing.T) {
	data := buildDocx(t, map[string]string{
		"word/document.xml":   documentXML,
		"word/header1.xml":    headerXML,
		"[Content_Types].xml": `<Types/>`,
	})

	out, err := Substitute(data, map[string]string{
		"employee_name": "Asha <Rao>",
		"company_name":  "Acme",
	})
	require.NoError(t, err)

	doc, err := readPart(out, "word/document.xml")
	require.NoError(t, err)
	text := string(doc)
	assert.Contains(t, text, `Dear Asha &lt;Rao&gt;,`)
	assert.Contains(t, text, `Welcome Asha &lt;Rao&gt; as  &amp; team.`)
	assert.Contains(t, text, `No tokens here.`)
	assert.Contains(t, text, `<w:tab/>`)
	assert.NotContains(t, text, "{{")

	header, err := readPart(out, "word/header1.xml")
	require.NoError(t, err)
	assert.Contains(t, string(header), ">Acme<")

	types, err := readPart(out, "[Content_Types].xml")
	require.NoError(t, err)
	assert.Equal(t, `<Types/>`, string(types))

	assert.Empty(t, ExtractPlaceholders(out))
}

func TestSubstituteRejectsNonDocx(t *testing.T) {
	_, err := Substitute([]byte("plain"), nil)
	assert.ErrorIs(t, err, ErrNotDocx)

	_, err = Substitute(buildDocx(t, map[string]string{"a.txt": "x"}), nil)
	assert.ErrorIs(t, err, ErrNotDocx)
}

func TestHTMLPlaceholders(t *testing.T) {
	body := `<p>Dear {{<strong>candidate_name</strong>}},</p><p>{{ joining_date }} {{candidate_name}}</p>`

	assert.Equal(t, []string{"candidate_name", "joining_date"}, ExtractHTMLPlaceholders(body))

	out := SubstituteHTML(body, map[string]string{"candidate_name": "A & B"})
	assert.Equal(t, `<p>Dear A &amp; B,</p><p> A &amp; B</p>`, out)
}
