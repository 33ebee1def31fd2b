package document

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildDocx(t *testing.T, mainPart string, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	if mainPart != "" {
		w, err := zw.Create(mainPart)
		require.NoError(t, err)
		_, err = w.Write([]byte(sampleDocumentXML))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

const sampleDocumentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>What security certifications does your firm hold?</w:t></w:r></w:p>
    <w:p w14:paraId="1"><w:r><w:t xml:space="preserve">We hold SOC 2 </w:t></w:r><w:r><w:t>Type II certification.</w:t></w:r></w:p>
    <w:p><w:r><w:t>   </w:t></w:r></w:p>
    <w:p><w:r><w:t>Fees &amp; terms are negotiable.</w:t></w:r></w:p>
  </w:body>
</w:document>`

func TestDocxParagraphs(t *testing.T) {
	data := buildDocx(t, "word/document.xml", nil)

	paragraphs, err := ParagraphsFromBytes("sample.docx", data)
	require.NoError(t, err)

	require.Len(t, paragraphs, 3)
	assert.Equal(t, "What security certifications does your firm hold?", paragraphs[0])
	// Split runs inside one paragraph stay one paragraph.
	assert.Equal(t, "We hold SOC 2 Type II certification.", paragraphs[1])
	assert.Equal(t, "Fees & terms are negotiable.", paragraphs[2])
}

func TestDocxContentTypesOverride(t *testing.T) {
	contentTypes := `<?xml version="1.0"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Override PartName="/word/document2.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`
	data := buildDocx(t, "word/document2.xml", map[string]string{
		"[Content_Types].xml": contentTypes,
	})

	paragraphs, err := ParagraphsFromBytes("sample.docx", data)
	require.NoError(t, err)
	require.Len(t, paragraphs, 3)
}

func TestDocxMissingDocumentPart(t *testing.T) {
	data := buildDocx(t, "", map[string]string{"word/styles.xml": "<w:styles/>"})

	_, err := ParagraphsFromBytes("sample.docx", data)
	assert.Error(t, err)
}

func TestDocxNotAZip(t *testing.T) {
	_, err := ParagraphsFromBytes("sample.docx", []byte("plain text, not a zip"))
	assert.Error(t, err)
}

func TestTextParagraphs(t *testing.T) {
	data := []byte("First line.\n\n   \nSecond line.  \nThird?\n")

	paragraphs, err := ParagraphsFromBytes("sample.txt", data)
	require.NoError(t, err)
	assert.Equal(t, []string{"First line.", "Second line.", "Third?"}, paragraphs)
}

func TestHTMLParagraphs(t *testing.T) {
	html := `<html><body>
		<h1>Vendor Questionnaire</h1>
		<p>How do you manage third-party vendor risk today?</p>
		<ul><li>First item</li><li>  </li></ul>
	</body></html>`

	paragraphs, err := ParagraphsFromBytes("sample.html", []byte(html))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Vendor Questionnaire",
		"How do you manage third-party vendor risk today?",
		"First item",
	}, paragraphs)
}

func TestUnsupportedFormat(t *testing.T) {
	_, err := ParagraphsFromBytes("sample.pdf", []byte("%PDF-1.4"))
	assert.Error(t, err)
}
