package pdf

import (
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/solicita/internal/models"
)

// Renderer produces the application cv.pdf from an adapted CV document.
// Layout is a single-column A4 page: header with contact line, summary,
// experience with bullets, education, skills and languages.
type Renderer struct {
	logger arbor.ILogger
}

// NewRenderer creates a CV renderer.
func NewRenderer(logger arbor.ILogger) *Renderer {
	return &Renderer{logger: logger}
}

// RenderCV writes the document as a PDF to outPath.
func (r *Renderer) RenderCV(doc *models.CVDocument, outPath string) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	// Header
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 9, tr(doc.Name), "", 1, "L", false, 0, "")

	contact := contactLine(doc)
	if contact != "" {
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(90, 90, 90)
		pdf.CellFormat(0, 5, tr(contact), "", 1, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}
	pdf.Ln(3)

	if doc.Summary != "" {
		r.sectionHeader(pdf, tr, "Perfil")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, tr(doc.Summary), "", "L", false)
		pdf.Ln(2)
	}

	if len(doc.Experience) > 0 {
		r.sectionHeader(pdf, tr, "Experiencia")
		for _, exp := range doc.Experience {
			pdf.SetFont("Helvetica", "B", 10.5)
			pdf.CellFormat(0, 5.5, tr(exp.Title), "", 1, "L", false, 0, "")

			meta := exp.Company
			if dates := dateRange(exp.StartDate, exp.EndDate); dates != "" {
				meta = fmt.Sprintf("%s  |  %s", meta, dates)
			}
			pdf.SetFont("Helvetica", "I", 9.5)
			pdf.SetTextColor(90, 90, 90)
			pdf.CellFormat(0, 5, tr(meta), "", 1, "L", false, 0, "")
			pdf.SetTextColor(0, 0, 0)

			pdf.SetFont("Helvetica", "", 9.5)
			for _, bullet := range exp.Bullets {
				pdf.SetX(19)
				pdf.MultiCell(0, 4.8, tr("- "+bullet), "", "L", false)
			}
			pdf.Ln(2)
		}
	}

	if len(doc.Education) > 0 {
		r.sectionHeader(pdf, tr, "Formación")
		for _, edu := range doc.Education {
			pdf.SetFont("Helvetica", "B", 10)
			pdf.CellFormat(0, 5.5, tr(edu.Degree), "", 1, "L", false, 0, "")
			meta := edu.Institution
			if dates := dateRange(edu.StartDate, edu.EndDate); dates != "" {
				meta = fmt.Sprintf("%s  |  %s", meta, dates)
			}
			pdf.SetFont("Helvetica", "", 9.5)
			pdf.CellFormat(0, 5, tr(meta), "", 1, "L", false, 0, "")
		}
		pdf.Ln(2)
	}

	if len(doc.Skills) > 0 || doc.SkillsSectionText != "" {
		r.sectionHeader(pdf, tr, "Habilidades")
		pdf.SetFont("Helvetica", "", 9.5)
		skills := doc.SkillsSectionText
		if skills == "" {
			skills = strings.Join(doc.Skills, " · ")
		}
		pdf.MultiCell(0, 5, tr(skills), "", "L", false)
		pdf.Ln(2)
	}

	if len(doc.Languages) > 0 {
		r.sectionHeader(pdf, tr, "Idiomas")
		pdf.SetFont("Helvetica", "", 9.5)
		pdf.MultiCell(0, 5, tr(strings.Join(doc.Languages, " · ")), "", "L", false)
	}

	if err := pdf.OutputFileAndClose(outPath); err != nil {
		r.logger.Error().Err(err).Str("path", outPath).Msg("Failed to write CV PDF")
		return fmt.Errorf("failed to write CV PDF: %w", err)
	}
	r.logger.Info().Str("path", outPath).Msg("CV PDF rendered")
	return nil
}

func (r *Renderer) sectionHeader(pdf *fpdf.Fpdf, tr func(string) string, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 7, tr(title), "", 1, "L", false, 0, "")
	pdf.SetDrawColor(160, 160, 160)
	pdf.Line(15, pdf.GetY(), 195, pdf.GetY())
	pdf.Ln(2)
}

func contactLine(doc *models.CVDocument) string {
	parts := make([]string, 0, 5)
	for _, p := range []string{doc.Email, doc.Phone, doc.Location, doc.LinkedIn, doc.GitHub} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "  |  ")
}

func dateRange(start, end string) string {
	switch {
	case start == "" && end == "":
		return ""
	case end == "":
		return start + " - actualidad"
	case start == "":
		return end
	default:
		return start + " - " + end
	}
}
