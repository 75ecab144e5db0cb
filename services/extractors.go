package services

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"

	"drive-rag-chatbot/internal/logger"
	"drive-rag-chatbot/models"
)

// Extractor converts one raw document payload into flat text. Implementations
// return an error for malformed input; the batch layer records it as a
// per-document skip instead of aborting the selection event.
type Extractor interface {
	Extract(doc models.RawDocument) (models.ExtractedText, error)
}

// extractorFor maps a format tag to its extractor. Supporting a new format
// means adding a case here and one Extractor type; callers never branch on
// formats themselves.
func extractorFor(format models.DocumentFormat) (Extractor, bool) {
	switch format {
	case models.FormatGoogleDoc:
		return GoogleDocExtractor{}, true
	case models.FormatPDF:
		return PDFExtractor{}, true
	case models.FormatSlideDeck:
		return SlideDeckExtractor{}, true
	case models.FormatSpreadsheet:
		return SpreadsheetExtractor{}, true
	case models.FormatPlainText:
		return PlainTextExtractor{}, true
	default:
		return nil, false
	}
}

// ExtractDocument runs the extractor matching the document's format tag.
// It never panics out to the caller: the pdf parser in particular panics on
// some malformed files, and a bad document must not take the batch down.
func ExtractDocument(doc models.RawDocument) (ext models.ExtractedText, err error) {
	defer func() {
		if r := recover(); r != nil {
			ext = models.ExtractedText{SourceID: doc.SourceID, DisplayName: doc.Name}
			err = fmt.Errorf("extraction panicked: %v", r)
		}
	}()

	extractor, ok := extractorFor(doc.Format)
	if !ok {
		return models.ExtractedText{SourceID: doc.SourceID, DisplayName: doc.Name},
			fmt.Errorf("unsupported document format %q", doc.Format)
	}
	return extractor.Extract(doc)
}

// GoogleDocExtractor walks the structured body of a Google Doc (the Docs API
// JSON) and concatenates the literal text of every paragraph text run.
// Non-text nodes (inline images, tables-as-objects) are skipped silently.
type GoogleDocExtractor struct{}

type googleDocBody struct {
	Body struct {
		Content []struct {
			Paragraph *struct {
				Elements []struct {
					TextRun *struct {
						Content string `json:"content"`
					} `json:"textRun"`
				} `json:"elements"`
			} `json:"paragraph"`
		} `json:"content"`
	} `json:"body"`
}

func (GoogleDocExtractor) Extract(doc models.RawDocument) (models.ExtractedText, error) {
	result := models.ExtractedText{SourceID: doc.SourceID, DisplayName: doc.Name}

	var body googleDocBody
	if err := json.Unmarshal(doc.Data, &body); err != nil {
		return result, fmt.Errorf("failed to parse document body: %w", err)
	}

	var b strings.Builder
	for _, element := range body.Body.Content {
		if element.Paragraph == nil {
			continue
		}
		for _, pe := range element.Paragraph.Elements {
			if pe.TextRun != nil {
				b.WriteString(pe.TextRun.Content)
			}
		}
	}

	result.Text = strings.TrimSpace(b.String())
	return result, nil
}

// PDFExtractor extracts text page by page. Pages that fail to parse are
// skipped individually rather than failing the whole document.
type PDFExtractor struct{}

func (PDFExtractor) Extract(doc models.RawDocument) (models.ExtractedText, error) {
	result := models.ExtractedText{SourceID: doc.SourceID, DisplayName: doc.Name}

	reader, err := pdf.NewReader(bytes.NewReader(doc.Data), int64(len(doc.Data)))
	if err != nil {
		return result, fmt.Errorf("failed to open PDF: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		fonts := make(map[string]*pdf.Font)
		text, err := page.GetPlainText(fonts)
		if err != nil {
			logger.Warn("failed to extract PDF page", "document", doc.Name, "page", i, "error", err)
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}

	result.Text = strings.TrimSpace(b.String())
	return result, nil
}

// SlideDeckExtractor extracts text from a pptx payload (a zip of slide XML).
// Each slide contributes a "--- Slide N ---" marker, then the text of every
// shape in encounter order; table shapes emit one line per row with cell
// texts joined by " | ". There is no slide-deck parser in the Go ecosystem
// comparable to the xlsx/pdf ones, so the zip is walked directly.
type SlideDeckExtractor struct{}

var slidePathRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

func (SlideDeckExtractor) Extract(doc models.RawDocument) (models.ExtractedText, error) {
	result := models.ExtractedText{SourceID: doc.SourceID, DisplayName: doc.Name}

	archive, err := zip.NewReader(bytes.NewReader(doc.Data), int64(len(doc.Data)))
	if err != nil {
		return result, fmt.Errorf("failed to open slide deck: %w", err)
	}

	type slideFile struct {
		number int
		file   *zip.File
	}
	var slides []slideFile
	for _, f := range archive.File {
		m := slidePathRe.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		slides = append(slides, slideFile{number: n, file: f})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].number < slides[j].number })

	var b strings.Builder
	for _, s := range slides {
		fmt.Fprintf(&b, "\n--- Slide %d ---\n", s.number)

		rc, err := s.file.Open()
		if err != nil {
			logger.Warn("failed to open slide", "document", doc.Name, "slide", s.number, "error", err)
			continue
		}
		if err := writeSlideText(rc, &b); err != nil {
			logger.Warn("failed to parse slide", "document", doc.Name, "slide", s.number, "error", err)
		}
		rc.Close()

		b.WriteString("\n")
	}

	result.Text = strings.TrimSpace(b.String())
	return result, nil
}

// writeSlideText streams one slide's XML, appending shape text and table
// rows to out in document order. DrawingML puts all literal text in <a:t>
// elements; which structure a run belongs to is tracked by the enclosing
// shape (<p:sp>) and table (<a:tbl>/<a:tr>/<a:tc>) elements.
func writeSlideText(r io.Reader, out *strings.Builder) error {
	decoder := xml.NewDecoder(r)

	var (
		shape      strings.Builder
		cell       strings.Builder
		row        []string
		tableDepth int
	)

	flushShape := func() {
		if text := strings.TrimSpace(shape.String()); text != "" {
			out.WriteString(text)
			out.WriteString("\n")
		}
		shape.Reset()
	}

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tableDepth++
			case "tr":
				if tableDepth > 0 {
					row = row[:0]
				}
			case "tc":
				if tableDepth > 0 {
					cell.Reset()
				}
			case "t":
				var text string
				if err := decoder.DecodeElement(&text, &t); err != nil {
					return err
				}
				if tableDepth > 0 {
					cell.WriteString(text)
				} else {
					shape.WriteString(text)
				}
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "tbl":
				if tableDepth > 0 {
					tableDepth--
				}
			case "tr":
				if tableDepth > 0 && len(row) > 0 {
					out.WriteString(strings.Join(row, " | "))
					out.WriteString("\n")
				}
			case "tc":
				if tableDepth > 0 {
					if text := strings.TrimSpace(cell.String()); text != "" {
						row = append(row, text)
					}
				}
			case "p":
				// paragraph break inside a shape or cell
				if tableDepth > 0 {
					cell.WriteString("\n")
				} else {
					shape.WriteString("\n")
				}
			case "sp":
				flushShape()
			}
		}
	}

	// text that was not enclosed in a p:sp shape
	flushShape()
	return nil
}

// SpreadsheetExtractor extracts cell text from an xlsx payload, one line per
// row with cells joined by " | ", under a per-sheet marker.
type SpreadsheetExtractor struct{}

func (SpreadsheetExtractor) Extract(doc models.RawDocument) (models.ExtractedText, error) {
	result := models.ExtractedText{SourceID: doc.SourceID, DisplayName: doc.Name}

	f, err := excelize.OpenReader(bytes.NewReader(doc.Data))
	if err != nil {
		return result, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			logger.Warn("failed to read sheet", "document", doc.Name, "sheet", sheet, "error", err)
			continue
		}

		fmt.Fprintf(&b, "\n--- Sheet: %s ---\n", sheet)
		for _, cells := range rows {
			var rowText []string
			for _, c := range cells {
				if trimmed := strings.TrimSpace(c); trimmed != "" {
					rowText = append(rowText, trimmed)
				}
			}
			if len(rowText) > 0 {
				b.WriteString(strings.Join(rowText, " | "))
				b.WriteString("\n")
			}
		}
	}

	result.Text = strings.TrimSpace(b.String())
	return result, nil
}

// PlainTextExtractor is a passthrough.
type PlainTextExtractor struct{}

func (PlainTextExtractor) Extract(doc models.RawDocument) (models.ExtractedText, error) {
	return models.ExtractedText{
		SourceID:    doc.SourceID,
		DisplayName: doc.Name,
		Text:        strings.TrimSpace(string(doc.Data)),
	}, nil
}
