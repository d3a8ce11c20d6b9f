package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/nurpe/cleaning-contracts/internal/model"
)

// Generator renders contract documents with the built-in Helvetica face.
// Text is translated from UTF-8 to cp1252 before it is written.
type Generator struct {
	fontName string
}

func NewGenerator() *Generator {
	return &Generator{fontName: "Helvetica"}
}

func (g *Generator) RenderContract(contract model.Contract, client model.Client) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetTitle(contract.Number(), true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont(g.fontName, "B", 16)
	pdf.CellFormat(0, 10, "Cleaning Service Agreement", "", 1, "C", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Contract %s dated %s", contract.Number(), formatDate(contract.CreatedAt))), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Status: %s", contract.Status)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	addClientBlock(pdf, g.fontName, tr, client)
	pdf.Ln(4)

	section(pdf, g.fontName, "Service")
	lines := []string{
		contract.Title,
		fmt.Sprintf("Frequency: %s", safeValue(string(contract.Frequency))),
		fmt.Sprintf("Service period: %s to %s", formatDatePtr(contract.StartDate), formatDatePtr(contract.EndDate)),
		fmt.Sprintf("Payment terms: %s", safeValue(contract.PaymentTerms)),
	}
	if contract.Description != "" {
		lines = append(lines, contract.Description)
	}
	for _, line := range lines {
		pdf.MultiCell(0, 5, tr(line), "", "L", false)
	}
	pdf.Ln(2)

	section(pdf, g.fontName, "Pricing")
	colWidths := []float64{110, 25, 45}
	drawTableRow(pdf, g.fontName, tr, []string{"Item", "Qty", fmt.Sprintf("Amount, %s", contract.Currency)}, colWidths, true)
	quote := contract.Quote.Data()
	if quote.PricingModel != "" {
		drawTableRow(pdf, g.fontName, tr, []string{fmt.Sprintf("Base service (%s)", quote.PricingModel), "1", formatAmount(quote.BasePrice)}, colWidths, false)
		if discount := quote.DiscountTotal(); discount > 0 {
			drawTableRow(pdf, g.fontName, tr, []string{"Discounts", "", "-" + formatAmount(discount)}, colWidths, false)
		}
		for _, a := range quote.Addons {
			drawTableRow(pdf, g.fontName, tr, []string{a.Name, fmt.Sprintf("%d", a.Quantity), formatAmount(a.TotalPrice)}, colWidths, false)
		}
		drawTableRow(pdf, g.fontName, tr, []string{"Price per visit", "", formatAmount(quote.FinalPrice)}, colWidths, false)
	}
	drawTableRow(pdf, g.fontName, tr, []string{"Contract value", "", formatAmount(contract.TotalValue)}, colWidths, true)
	if quote.Pending {
		pdf.SetTextColor(200, 0, 0)
		pdf.MultiCell(0, 6, "The quote is pending a provider review; amounts may change.", "", "L", false)
		pdf.SetTextColor(0, 0, 0)
	}
	pdf.Ln(4)

	if strings.TrimSpace(contract.Terms) != "" {
		section(pdf, g.fontName, "Terms and conditions")
		pdf.SetFont(g.fontName, "", 10)
		pdf.MultiCell(0, 5, tr(contract.Terms), "", "L", false)
		pdf.Ln(4)
	}

	section(pdf, g.fontName, "Signatures")
	signatureBlock(pdf, g.fontName, tr, "Service provider", contract.ProviderSignature)
	signatureBlock(pdf, g.fontName, tr, "Client", contract.ClientSignature)
	if contract.FullySigned() && contract.FullySignedAt != nil {
		pdf.CellFormat(0, 6, fmt.Sprintf("Fully executed on %s", formatDate(*contract.FullySignedAt)), "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func section(pdf *gofpdf.Fpdf, fontName, title string) {
	pdf.SetFont(fontName, "B", 12)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
	pdf.SetFont(fontName, "", 11)
}

func addClientBlock(pdf *gofpdf.Fpdf, fontName string, tr func(string) string, client model.Client) {
	pdf.SetFont(fontName, "B", 11)
	pdf.CellFormat(0, 6, "Client", "", 1, "L", false, 0, "")
	pdf.SetFont(fontName, "", 10)
	lines := []string{
		client.BusinessName,
		fmt.Sprintf("Contact: %s", safeValue(client.ContactName)),
		fmt.Sprintf("Email: %s", safeValue(client.Email)),
		fmt.Sprintf("Phone: %s", safeValue(client.Phone)),
		fmt.Sprintf("Address: %s", safeValue(client.Address)),
	}
	for _, line := range lines {
		pdf.MultiCell(0, 5, tr(line), "", "L", false)
	}
}

func drawTableRow(pdf *gofpdf.Fpdf, fontName string, tr func(string) string, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 10)
	for i, col := range cols {
		align := "L"
		if i > 0 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 8, tr(col), "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

func signatureBlock(pdf *gofpdf.Fpdf, fontName string, tr func(string) string, label string, sig model.Signature) {
	pdf.SetFont(fontName, "", 11)
	if !sig.Present() {
		pdf.CellFormat(0, 6, fmt.Sprintf("%s: ______________________ (not signed)", label), "", 1, "L", false, 0, "")
		return
	}
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("%s: signed electronically on %s", label, formatDate(*sig.SignedAt))), "", 1, "L", false, 0, "")
}

func safeValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func formatAmount(value float64) string {
	return fmt.Sprintf("%.2f", value)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("Jan 2, 2006")
}

func formatDatePtr(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return formatDate(*t)
}
