package docx

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackProducesValidContainer(t *testing.T) {
	doc := NewDocument("Arial")
	p := doc.AddParagraph()
	p.Bidi = true
	p.Align = AlignRight
	p.AddRun(Run{Text: "שלום", Bold: true, Size: 22, RTL: true})

	var buf bytes.Buffer
	require.NoError(t, doc.Pack(&buf))

	reader, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	names := make(map[string]string, len(reader.File))
	for _, file := range reader.File {
		rc, err := file.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		names[file.Name] = string(data)
	}

	require.Contains(t, names, "[Content_Types].xml")
	require.Contains(t, names, "_rels/.rels")
	require.Contains(t, names, "word/document.xml")

	assert.Contains(t, names["[Content_Types].xml"], "wordprocessingml.document.main+xml")
	assert.Contains(t, names["_rels/.rels"], "word/document.xml")

	body := names["word/document.xml"]
	assert.Contains(t, body, "שלום")
	assert.Contains(t, body, "<w:bidi></w:bidi>")
	assert.Contains(t, body, `<w:jc w:val="right"></w:jc>`)
	assert.Contains(t, body, "<w:rtl></w:rtl>")
	assert.Contains(t, body, `<w:rFonts w:ascii="Arial" w:hAnsi="Arial" w:cs="Arial"></w:rFonts>`)
	assert.Contains(t, body, "<w:sectPr>")
}

func TestPackEscapesMarkup(t *testing.T) {
	doc := NewDocument("Arial")
	doc.AddParagraph().AddRun(Run{Text: `a < b & "c"`, Size: 22})

	var buf bytes.Buffer
	require.NoError(t, doc.Pack(&buf))

	reader, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()

		assert.NotContains(t, string(data), `a < b`)
		assert.Contains(t, string(data), "a &lt; b")
	}
}
