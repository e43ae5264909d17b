package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-pdf/fpdf"
)

const (
	coreFontFamily     = "Helvetica"
	embeddedFontFamily = "AuditBody"
)

// PDFOptions configures the fpdf-backed sink.
type PDFOptions struct {
	Title   string
	Creator string
	// FontFile is an optional TrueType font embedded for text outside cp1252.
	FontFile    string
	GeneratedAt time.Time
}

// PDFSink is a DocumentSink that produces a PDF document.
type PDFSink struct {
	pdf       *fpdf.Fpdf
	opts      PDFOptions
	family    string
	translate func(string) string
	heightMM  float64
}

// NewPDFSink prepares an empty document. A configured font that cannot be
// read or parsed is reported here.
func NewPDFSink(opts PDFOptions) (*PDFSink, error) {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		UnitStr: "mm",
		Size:    fpdf.SizeType{Wd: PageWidthMM, Ht: PageHeightMM},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCatalogSort(true)
	if opts.Title != "" {
		pdf.SetTitle(opts.Title, true)
	}
	if opts.Creator != "" {
		pdf.SetCreator(opts.Creator, true)
		pdf.SetProducer(opts.Creator, true)
	}
	if !opts.GeneratedAt.IsZero() {
		pdf.SetCreationDate(opts.GeneratedAt)
		pdf.SetModificationDate(opts.GeneratedAt)
	}

	sink := &PDFSink{pdf: pdf, opts: opts, family: coreFontFamily}
	if opts.FontFile != "" {
		data, err := os.ReadFile(opts.FontFile)
		if err != nil {
			return nil, fmt.Errorf("read font %s: %w", opts.FontFile, err)
		}
		pdf.AddUTF8FontFromBytes(embeddedFontFamily, "", data)
		// fpdf does not flag a font it failed to parse until first use.
		pdf.SetFont(embeddedFontFamily, "", 10)
		if err := pdf.Error(); err != nil {
			return nil, fmt.Errorf("register font %s: %w", opts.FontFile, err)
		}
		sink.family = embeddedFontFamily
		sink.translate = func(s string) string { return s }
	} else {
		sink.translate = pdf.UnicodeTranslatorFromDescriptor("")
		if err := pdf.Error(); err != nil {
			return nil, fmt.Errorf("load cp1252 map: %w", err)
		}
	}
	return sink, nil
}

func (s *PDFSink) AddPage(widthMM, heightMM float64) error {
	s.heightMM = heightMM
	s.pdf.AddPageFormat("P", fpdf.SizeType{Wd: widthMM, Ht: heightMM})
	return s.pdf.Error()
}

func (s *PDFSink) DrawText(block TextBlock) error {
	if s.heightMM == 0 {
		return errors.New("draw text before AddPage")
	}
	s.pdf.SetFont(s.family, "", block.Size)
	s.pdf.Text(block.X, s.heightMM-block.Y, s.translate(block.Text))
	return s.pdf.Error()
}

func (s *PDFSink) Encode(w io.Writer) error {
	return s.pdf.Output(w)
}
