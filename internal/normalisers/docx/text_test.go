package docx

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/promethean-light/internal/core/domain"
)

// createTestDOCX creates a minimal valid DOCX file in memory.
func createTestDOCX(t *testing.T, documentXML, coreXML string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	contentTypes, err := w.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = contentTypes.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="xml" ContentType="application/xml"/>
</Types>`))
	require.NoError(t, err)

	if documentXML != "" {
		doc, err := w.Create(documentPart)
		require.NoError(t, err)
		_, err = doc.Write([]byte(documentXML))
		require.NoError(t, err)
	}
	if coreXML != "" {
		core, err := w.Create(corePart)
		require.NoError(t, err)
		_, err = core.Write([]byte(coreXML))
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())
	return buf.Bytes()
}

func wordDocument(body string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>` + body + `</w:body>
</w:document>`
}

const titledCore = `<?xml version="1.0" encoding="UTF-8"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
xmlns:dc="http://purl.org/dc/elements/1.1/">
<dc:title>Test Document</dc:title>
</cp:coreProperties>`

func TestExtract_WithTitle(t *testing.T) {
	data := createTestDOCX(t, wordDocument(`<w:p><w:r><w:t>Hello World</w:t></w:r></w:p>`), titledCore)

	text, err := Extract(data)

	require.NoError(t, err)
	assert.Equal(t, "Test Document\n\nHello World", text)
}

func TestExtract_NoCoreProperties(t *testing.T) {
	data := createTestDOCX(t, wordDocument(`<w:p><w:r><w:t>Content</w:t></w:r></w:p>`), "")

	text, err := Extract(data)

	require.NoError(t, err)
	assert.Equal(t, "Content", text)
}

func TestExtract_MultipleParagraphs(t *testing.T) {
	data := createTestDOCX(t, wordDocument(`
<w:p><w:r><w:t>First paragraph</w:t></w:r></w:p>
<w:p><w:r><w:t>Second paragraph</w:t></w:r></w:p>
<w:p><w:r><w:t>Third paragraph</w:t></w:r></w:p>
`), "")

	text, err := Extract(data)

	require.NoError(t, err)
	assert.Equal(t, "First paragraph\nSecond paragraph\nThird paragraph", text)
}

func TestExtract_MultipleRuns(t *testing.T) {
	data := createTestDOCX(t, wordDocument(`<w:p>
<w:r><w:t>Hello </w:t></w:r>
<w:r><w:t>World</w:t></w:r>
</w:p>`), "")

	text, err := Extract(data)

	require.NoError(t, err)
	assert.Equal(t, "Hello World", text)
}

func TestExtract_EmptyDocument(t *testing.T) {
	data := createTestDOCX(t, wordDocument(""), "")

	text, err := Extract(data)

	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestExtract_InvalidZip(t *testing.T) {
	_, err := Extract([]byte("not a zip file"))

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestExtract_MissingDocumentPart(t *testing.T) {
	data := createTestDOCX(t, "", titledCore)

	_, err := Extract(data)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
