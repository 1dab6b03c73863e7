package export

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"github.com/redwing-381/ethglb-p1-sub001/internal/core"
)

// PDFExporter exports debate runs to PDF format.
type PDFExporter struct{}

// Export writes the run as PDF.
func (e *PDFExporter) Export(result *core.RunResult, w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)

	pdf.AddPage()

	// Title
	pdf.SetFont("Arial", "B", 18)
	pdf.MultiCell(0, 10, result.Topic, "", "C", false)
	pdf.Ln(5)

	// Metadata section
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Debate Information")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	e.addMetadataRow(pdf, "ID:", result.ID)
	e.addMetadataRow(pdf, "Rounds:", fmt.Sprintf("%d", result.Transcript.TotalRounds))
	e.addMetadataRow(pdf, "Winner:", string(result.Transcript.Winner))
	e.addMetadataRow(pdf, "Started:", result.CreatedAt.Format("January 2, 2006 at 3:04 PM"))
	e.addMetadataRow(pdf, "Duration:", formatDuration(result.CreatedAt, result.CompletedAt))
	pdf.Ln(5)

	// Rounds
	for _, round := range result.Transcript.Rounds {
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(0, 8, fmt.Sprintf("Round %d", round.Number))
		pdf.Ln(8)

		e.addSpeech(pdf, "Pro Debater", round.ProArgument)
		e.addSpeech(pdf, "Con Debater", round.ConArgument)

		if round.FactCheck != nil {
			var text string
			for _, claim := range round.FactCheck.Claims {
				text += fmt.Sprintf("[%s] %s (%s): %s\n", claim.Verdict, claim.Claim, claim.Source, claim.Explanation)
			}
			text += round.FactCheck.OverallAssessment
			e.addSpeech(pdf, "Fact Checker", text)
		}

		if round.Score != nil {
			e.addSpeech(pdf, "Judge", fmt.Sprintf("Pro %d - Con %d. %s",
				round.Score.ProScore, round.Score.ConScore, round.Score.Reasoning))
		}
	}

	// Verdict and summary
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Verdict")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 10)
	pdf.MultiCell(0, 5, result.Transcript.Verdict, "", "L", false)
	pdf.Ln(5)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Summary")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 10)
	pdf.MultiCell(0, 5, result.Transcript.Summary, "", "L", false)
	pdf.Ln(5)

	// Payment ledger
	if len(result.Payments) > 0 {
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(0, 8, "Payments")
		pdf.Ln(8)

		pdf.SetFont("Arial", "", 10)
		var total float64
		for _, p := range result.Payments {
			pdf.Cell(60, 6, p.To)
			pdf.Cell(40, 6, fmt.Sprintf("round %d", p.Round))
			pdf.Cell(0, 6, fmt.Sprintf("$%.4f", p.Amount))
			pdf.Ln(6)
			total += p.Amount
		}
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(100, 6, "Total paid to agents")
		pdf.Cell(0, 6, fmt.Sprintf("$%.4f", total))
		pdf.Ln(6)

		if result.Cost != nil {
			pdf.SetFont("Arial", "", 10)
			pdf.Cell(100, 6, "Platform fee")
			pdf.Cell(0, 6, fmt.Sprintf("$%.4f", result.Cost.PlatformFee))
			pdf.Ln(6)
			pdf.Cell(100, 6, "Total cost")
			pdf.Cell(0, 6, fmt.Sprintf("$%.4f", result.Cost.Total))
			pdf.Ln(6)
		}
	}

	return pdf.Output(w)
}

// addMetadataRow adds a label/value row to the metadata section.
func (e *PDFExporter) addMetadataRow(pdf *gofpdf.Fpdf, label, value string) {
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(30, 6, label)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, value)
	pdf.Ln(6)
}

// addSpeech adds a titled block of agent output.
func (e *PDFExporter) addSpeech(pdf *gofpdf.Fpdf, speaker, content string) {
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(0, 6, speaker)
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 10)
	pdf.MultiCell(0, 5, content, "", "L", false)
	pdf.Ln(3)
}

// FileExtension returns the file extension for PDF.
func (e *PDFExporter) FileExtension() string {
	return "pdf"
}
