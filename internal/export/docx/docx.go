// Package docx writes minimal WordprocessingML documents. It covers exactly
// what document export needs: flat paragraphs of styled runs with explicit
// bidi/right-to-left flags, packed into the OPC zip container.
package docx

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
)

// Alignment values for paragraph justification.
const (
	AlignLeft   = "left"
	AlignCenter = "center"
	AlignRight  = "right"
)

// Run is a contiguous span of identically-styled text.
type Run struct {
	Text  string
	Bold  bool
	Size  int    // half-points; 0 keeps the document default
	Color string // RRGGBB, empty for automatic
	RTL   bool
}

// Paragraph is an ordered run list plus paragraph-level properties. Bidi
// marks the paragraph for right-to-left layout, which the target format
// requires for Hebrew text.
type Paragraph struct {
	Runs          []Run
	Align         string
	Bidi          bool
	SpacingBefore int // twentieths of a point
	SpacingAfter  int
}

// AddRun appends a run and returns the paragraph for chaining.
func (p *Paragraph) AddRun(r Run) *Paragraph {
	p.Runs = append(p.Runs, r)
	return p
}

// Document is a flat paragraph sequence.
type Document struct {
	Font       string // font family applied to every run
	paragraphs []*Paragraph
}

func NewDocument(font string) *Document {
	return &Document{Font: font}
}

// AddParagraph appends an empty paragraph and returns it for population.
func (d *Document) AddParagraph() *Paragraph {
	p := &Paragraph{}
	d.paragraphs = append(d.paragraphs, p)
	return p
}

// fixed container parts

const contentTypesXML = xml.Header + `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`</Types>`

const relsXML = xml.Header + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`</Relationships>`

// document.xml marshalling types

type xmlVal struct {
	Val string `xml:"w:val,attr"`
}

type xmlFonts struct {
	ASCII string `xml:"w:ascii,attr"`
	HAnsi string `xml:"w:hAnsi,attr"`
	CS    string `xml:"w:cs,attr"`
}

type xmlSpacing struct {
	Before int `xml:"w:before,attr,omitempty"`
	After  int `xml:"w:after,attr,omitempty"`
}

type xmlRunProps struct {
	Fonts  *xmlFonts     `xml:"w:rFonts,omitempty"`
	Bold   *struct{}     `xml:"w:b,omitempty"`
	BoldCS *struct{}     `xml:"w:bCs,omitempty"`
	Color  *xmlVal       `xml:"w:color,omitempty"`
	Size   *xmlVal       `xml:"w:sz,omitempty"`
	SizeCS *xmlVal       `xml:"w:szCs,omitempty"`
	RTL    *struct{}     `xml:"w:rtl,omitempty"`
}

type xmlText struct {
	Space string `xml:"xml:space,attr"`
	Text  string `xml:",chardata"`
}

type xmlRun struct {
	Props *xmlRunProps `xml:"w:rPr,omitempty"`
	Text  xmlText      `xml:"w:t"`
}

type xmlParaProps struct {
	Bidi    *struct{}   `xml:"w:bidi,omitempty"`
	Spacing *xmlSpacing `xml:"w:spacing,omitempty"`
	Justify *xmlVal     `xml:"w:jc,omitempty"`
}

type xmlPara struct {
	Props *xmlParaProps `xml:"w:pPr,omitempty"`
	Runs  []xmlRun      `xml:"w:r"`
}

type xmlPageSize struct {
	W int `xml:"w:w,attr"`
	H int `xml:"w:h,attr"`
}

type xmlPageMargin struct {
	Top    int `xml:"w:top,attr"`
	Right  int `xml:"w:right,attr"`
	Bottom int `xml:"w:bottom,attr"`
	Left   int `xml:"w:left,attr"`
	Header int `xml:"w:header,attr"`
	Footer int `xml:"w:footer,attr"`
}

type xmlSectProps struct {
	PageSize   xmlPageSize   `xml:"w:pgSz"`
	PageMargin xmlPageMargin `xml:"w:pgMar"`
	Bidi       struct{}      `xml:"w:bidi"`
}

type xmlBody struct {
	Paragraphs []xmlPara    `xml:"w:p"`
	SectProps  xmlSectProps `xml:"w:sectPr"`
}

type xmlDocument struct {
	XMLName xml.Name `xml:"w:document"`
	NS      string   `xml:"xmlns:w,attr"`
	Body    xmlBody  `xml:"w:body"`
}

func (d *Document) runProps(r Run) *xmlRunProps {
	props := &xmlRunProps{}
	if d.Font != "" {
		props.Fonts = &xmlFonts{ASCII: d.Font, HAnsi: d.Font, CS: d.Font}
	}
	if r.Bold {
		props.Bold = &struct{}{}
		props.BoldCS = &struct{}{}
	}
	if r.Color != "" {
		props.Color = &xmlVal{Val: r.Color}
	}
	if r.Size > 0 {
		val := fmt.Sprintf("%d", r.Size)
		props.Size = &xmlVal{Val: val}
		props.SizeCS = &xmlVal{Val: val}
	}
	if r.RTL {
		props.RTL = &struct{}{}
	}
	return props
}

func (d *Document) marshalBody() ([]byte, error) {
	doc := xmlDocument{
		NS: "http://schemas.openxmlformats.org/wordprocessingml/2006/main",
	}

	for _, p := range d.paragraphs {
		para := xmlPara{}
		if p.Bidi || p.Align != "" || p.SpacingBefore > 0 || p.SpacingAfter > 0 {
			props := &xmlParaProps{}
			if p.Bidi {
				props.Bidi = &struct{}{}
			}
			if p.SpacingBefore > 0 || p.SpacingAfter > 0 {
				props.Spacing = &xmlSpacing{Before: p.SpacingBefore, After: p.SpacingAfter}
			}
			if p.Align != "" {
				props.Justify = &xmlVal{Val: p.Align}
			}
			para.Props = props
		}
		for _, r := range p.Runs {
			para.Runs = append(para.Runs, xmlRun{
				Props: d.runProps(r),
				Text:  xmlText{Space: "preserve", Text: r.Text},
			})
		}
		doc.Body.Paragraphs = append(doc.Body.Paragraphs, para)
	}

	// A4 portrait, 1 inch margins.
	doc.Body.SectProps = xmlSectProps{
		PageSize:   xmlPageSize{W: 11906, H: 16838},
		PageMargin: xmlPageMargin{Top: 1440, Right: 1440, Bottom: 1440, Left: 1440, Header: 720, Footer: 720},
	}

	data, err := xml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document body: %w", err)
	}
	return append([]byte(xml.Header), data...), nil
}

// Pack finalizes the document into the OPC zip container. This is the binary
// packing boundary: any error out of here means no usable artifact was
// produced.
func (d *Document) Pack(w io.Writer) error {
	body, err := d.marshalBody()
	if err != nil {
		return err
	}

	zw := zip.NewWriter(w)
	parts := []struct {
		name string
		data []byte
	}{
		{"[Content_Types].xml", []byte(contentTypesXML)},
		{"_rels/.rels", []byte(relsXML)},
		{"word/document.xml", body},
	}
	for _, part := range parts {
		f, err := zw.Create(part.name)
		if err != nil {
			return fmt.Errorf("failed to create part %s: %w", part.name, err)
		}
		if _, err := f.Write(part.data); err != nil {
			return fmt.Errorf("failed to write part %s: %w", part.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize container: %w", err)
	}
	return nil
}
