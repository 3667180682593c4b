// Package docx finds and fills {{token}} placeholders in Word documents and
// HTML letter bodies.
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"html"
	"io"
	"regexp"
	"strings"
)

const documentPart = "word/document.xml"

var (
	ErrNotDocx = errors.New("not_a_docx_package")

	tokenPattern     = regexp.MustCompile(`\{\{\s*([^{}]+?)\s*\}\}`)
	paragraphPattern = regexp.MustCompile(`(?s)<w:p(?:\s[^>]*[^/])?>.*?</w:p>`)
	runTextPattern   = regexp.MustCompile(`(?s)(<w:t(?:\s[^>]*)?>)(.*?)(</w:t>)`)
	headerFooterPart = regexp.MustCompile(`^word/(header|footer)\d*\.xml$`)
)

// ExtractPlaceholders returns the distinct token names in the main document
// part in first-seen order. Any read or parse failure yields an empty slice;
// detection never blocks an upload.
func ExtractPlaceholders(data []byte) []string {
	part, err := readPart(data, documentPart)
	if err != nil {
		return []string{}
	}
	var text strings.Builder
	for _, p := range paragraphPattern.FindAllString(string(part), -1) {
		text.WriteString(paragraphText(p))
		text.WriteByte('\n')
	}
	return collectTokens(text.String())
}

// Substitute fills tokens in the document, header and footer parts.
// Unknown tokens render as empty text. A token split across runs is
// collapsed into the first run of its paragraph.
func Substitute(data []byte, values map[string]string) ([]byte, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, ErrNotDocx
	}

	var out bytes.Buffer
	writer := zip.NewWriter(&out)
	found := false
	for _, file := range reader.File {
		name := normalizeZipName(file.Name)
		content, err := readZipFile(file)
		if err != nil {
			return nil, err
		}
		if name == documentPart || headerFooterPart.MatchString(name) {
			found = found || name == documentPart
			content = []byte(substitutePart(string(content), values))
		}
		if err := writeZipFile(writer, file, content); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotDocx
	}
	return out.Bytes(), nil
}

func substitutePart(xmlText string, values map[string]string) string {
	return paragraphPattern.ReplaceAllStringFunc(xmlText, func(p string) string {
		joined := paragraphText(p)
		if !strings.Contains(joined, "{{") {
			return p
		}
		replaced := replaceTokens(joined, values)

		first := true
		return runTextPattern.ReplaceAllStringFunc(p, func(run string) string {
			m := runTextPattern.FindStringSubmatch(run)
			if !first {
				return m[1] + m[3]
			}
			first = false
			return preserveSpace(m[1]) + escapeText(replaced) + m[3]
		})
	})
}

func paragraphText(p string) string {
	var b strings.Builder
	for _, m := range runTextPattern.FindAllStringSubmatch(p, -1) {
		b.WriteString(html.UnescapeString(m[2]))
	}
	return b.String()
}

func replaceTokens(text string, values map[string]string) string {
	return tokenPattern.ReplaceAllStringFunc(text, func(token string) string {
		name := strings.TrimSpace(tokenPattern.FindStringSubmatch(token)[1])
		return values[name]
	})
}

func collectTokens(text string) []string {
	seen := make(map[string]struct{})
	names := []string{}
	for _, m := range tokenPattern.FindAllStringSubmatch(text, -1) {
		name := strings.TrimSpace(m[1])
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

func preserveSpace(open string) string {
	if strings.Contains(open, "xml:space") {
		return open
	}
	return strings.TrimSuffix(open, ">") + ` xml:space="preserve">`
}

func escapeText(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

func readPart(data []byte, part string) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrNotDocx
	}
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	for _, file := range reader.File {
		if normalizeZipName(file.Name) == part {
			return readZipFile(file)
		}
	}
	return nil, ErrNotDocx
}

func readZipFile(file *zip.File) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func writeZipFile(writer *zip.Writer, source *zip.File, content []byte) error {
	header := source.FileHeader
	header.Name = normalizeZipName(source.Name)
	header.CRC32 = 0
	header.CompressedSize64 = 0
	header.UncompressedSize64 = 0
	header.Method = zip.Deflate

	dst, err := writer.CreateHeader(&header)
	if err != nil {
		return err
	}
	_, err = dst.Write(content)
	return err
}

func normalizeZipName(name string) string {
	return strings.ReplaceAll(name, "\\", "/")
}
