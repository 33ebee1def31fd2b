// Package document reads questionnaire files into paragraph sequences and
// writes draft response documents.
package document

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// docxDocumentXMLPath is the default path to the main document body inside
// a .docx zip. Some producers relocate it and declare the real path in
// [Content_Types].xml, so the override is checked first.
const docxDocumentXMLPath = "word/document.xml"

const contentTypesPath = "[Content_Types].xml"

const docxMainContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"

// wpTag captures one <w:p>...</w:p> paragraph element, attributes included.
// Self-closing empty paragraphs never match and are dropped, which is what
// the extractor wants anyway.
var wpTag = regexp.MustCompile(`(?s)<w:p(?:>|\s[^>]*>)(.*?)</w:p>`)

// wtTag matches <w:t>text</w:t> with any attributes (xml:space etc).
var wtTag = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)

var partNameRe = regexp.MustCompile(`<Override[^>]+PartName="([^"]+)"[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"`)

var partNameRe2 = regexp.MustCompile(`<Override[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"[^>]+PartName="([^"]+)"`)

// ReadParagraphs loads a questionnaire file and returns its non-empty
// trimmed paragraphs in document order. The format is chosen by extension:
// .docx, .txt and .html/.htm are supported.
func ReadParagraphs(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return ParagraphsFromBytes(filepath.Base(path), data)
}

// ParagraphsFromBytes is ReadParagraphs for in-memory content (uploads).
func ParagraphsFromBytes(name string, data []byte) ([]string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".docx":
		return docxParagraphs(data)
	case ".txt":
		return textParagraphs(data), nil
	case ".html", ".htm":
		return htmlParagraphs(data)
	default:
		return nil, fmt.Errorf("unsupported document format: %s", filepath.Ext(name))
	}
}

func textParagraphs(data []byte) []string {
	var paragraphs []string
	for _, line := range strings.Split(string(data), "\n") {
		if text := strings.TrimSpace(line); text != "" {
			paragraphs = append(paragraphs, text)
		}
	}
	return paragraphs
}

// docxParagraphs extracts per-paragraph text from a .docx (OOXML zip).
// Each <w:p> element becomes one paragraph; the text runs inside it are
// concatenated so formatting splits within a sentence do not break it apart.
func docxParagraphs(content []byte) ([]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("read docx: not a zip: %w", err)
	}

	docPath := findDocxMainDocumentPath(zr)
	if docPath == "" {
		docPath = docxDocumentXMLPath
	}

	docXML, err := readZipFile(zr, docPath)
	if err != nil {
		return nil, err
	}
	if docXML == nil {
		return nil, fmt.Errorf("read docx: %s not found", docPath)
	}

	var paragraphs []string
	for _, p := range wpTag.FindAllStringSubmatch(string(docXML), -1) {
		var b strings.Builder
		for _, t := range wtTag.FindAllStringSubmatch(p[1], -1) {
			b.WriteString(t[1])
		}
		if text := strings.TrimSpace(unescapeXML(b.String())); text != "" {
			paragraphs = append(paragraphs, text)
		}
	}
	return paragraphs, nil
}

func htmlParagraphs(content []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("read html: %w", err)
	}

	var paragraphs []string
	doc.Find("h1, h2, h3, h4, h5, h6, p, li").Each(func(i int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	return paragraphs, nil
}

// findDocxMainDocumentPath resolves the main document part from
// [Content_Types].xml, trying both attribute orders. Empty means not found.
func findDocxMainDocumentPath(zr *zip.Reader) string {
	data, err := readZipFile(zr, contentTypesPath)
	if err != nil || data == nil {
		return ""
	}

	content := string(data)
	if matches := partNameRe.FindStringSubmatch(content); len(matches) > 1 {
		return strings.TrimPrefix(matches[1], "/")
	}
	if matches := partNameRe2.FindStringSubmatch(content); len(matches) > 1 {
		return strings.TrimPrefix(matches[1], "/")
	}
	return ""
}

func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("read docx: open %s: %w", name, err)
		}
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(rc); err != nil {
			_ = rc.Close()
			return nil, fmt.Errorf("read docx: read %s: %w", name, err)
		}
		_ = rc.Close()
		return buf.Bytes(), nil
	}
	return nil, nil
}

var xmlReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&apos;", "'",
)

func unescapeXML(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	return xmlReplacer.Replace(s)
}
