package excel

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nurpe/cleaning-contracts/internal/model"
	"github.com/nurpe/cleaning-contracts/internal/service"
)

// Generator writes the visit ledger: a summary sheet followed by one
// sheet per contract.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

type contractGroup struct {
	number string
	title  string
	client string
	rows   []service.LedgerRow
}

func (g *Generator) ExportVisits(rows []service.LedgerRow) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	summarySheet := "Summary"
	if err := file.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}

	groups := groupByContract(rows)
	if err := g.writeSummary(file, summarySheet, rows, groups); err != nil {
		return nil, err
	}

	usedNames := map[string]struct{}{summarySheet: {}}
	for _, group := range groups {
		sheetName := buildSheetName(group.number, group.title, usedNames)
		usedNames[sheetName] = struct{}{}

		if _, err := file.NewSheet(sheetName); err != nil {
			return nil, err
		}
		if err := g.writeDetail(file, sheetName, group); err != nil {
			return nil, err
		}
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, sheet string, rows []service.LedgerRow, groups []*contractGroup) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	total, paid := sumAmounts(rows)
	set("A1", "Visits")
	set("B1", len(rows))
	set("A2", "Completed")
	set("B2", countDone(rows))
	set("A3", "Billed amount")
	set("B3", total)
	set("A4", "Paid amount")
	set("B4", paid)
	set("A5", "Generated at")
	set("B5", time.Now().UTC().Format("2006-01-02 15:04"))

	tableRow := 7
	headers := []string{"Contract", "Title", "Client", "Visits", "Completed", "Amount"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, tableRow)
		set(cell, header)
	}
	for i, group := range groups {
		row := tableRow + 1 + i
		amount, _ := sumAmounts(group.rows)
		set(fmt.Sprintf("A%d", row), group.number)
		set(fmt.Sprintf("B%d", row), group.title)
		set(fmt.Sprintf("C%d", row), group.client)
		set(fmt.Sprintf("D%d", row), len(group.rows))
		set(fmt.Sprintf("E%d", row), countDone(group.rows))
		set(fmt.Sprintf("F%d", row), amount)
	}

	_ = file.SetColWidth(sheet, "A", "A", 18)
	_ = file.SetColWidth(sheet, "B", "C", 32)
	_ = file.SetColWidth(sheet, "D", "F", 14)
	return nil
}

func (g *Generator) writeDetail(file *excelize.File, sheet string, group *contractGroup) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Contract")
	set("B1", group.number)
	set("A2", "Title")
	set("B2", group.title)
	set("A3", "Client")
	set("B3", group.client)

	tableRow := 5
	headers := []string{
		"Visit",
		"Scheduled",
		"Status",
		"Amount",
		"Payment",
		"Invoice",
		"Completed at",
		"Photos",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, tableRow)
		set(cell, header)
	}

	for i, visit := range group.rows {
		row := tableRow + 1 + i
		set(fmt.Sprintf("A%d", row), visit.VisitNumber)
		set(fmt.Sprintf("B%d", row), formatDate(visit.ScheduledDate))
		set(fmt.Sprintf("C%d", row), string(visit.Status))
		set(fmt.Sprintf("D%d", row), visit.Amount)
		set(fmt.Sprintf("E%d", row), visit.PaymentStatus)
		set(fmt.Sprintf("F%d", row), visit.InvoiceNumber)
		set(fmt.Sprintf("G%d", row), formatDateTime(visit.CompletedAt))
		set(fmt.Sprintf("H%d", row), visit.PhotoCount)
	}

	_ = file.SetColWidth(sheet, "A", "A", 8)
	_ = file.SetColWidth(sheet, "B", "C", 20)
	_ = file.SetColWidth(sheet, "D", "F", 14)
	_ = file.SetColWidth(sheet, "G", "G", 20)
	return nil
}

// groupByContract keeps contracts in first-seen order and visits in visit
// number order.
func groupByContract(rows []service.LedgerRow) []*contractGroup {
	index := map[string]*contractGroup{}
	var groups []*contractGroup
	for _, row := range rows {
		group, ok := index[row.ContractNumber]
		if !ok {
			group = &contractGroup{number: row.ContractNumber, title: row.ContractTitle, client: row.ClientName}
			index[row.ContractNumber] = group
			groups = append(groups, group)
		}
		group.rows = append(group.rows, row)
	}
	for _, group := range groups {
		sort.SliceStable(group.rows, func(i, j int) bool {
			return group.rows[i].VisitNumber < group.rows[j].VisitNumber
		})
	}
	return groups
}

func buildSheetName(number, title string, used map[string]struct{}) string {
	base := number
	if t := strings.TrimSpace(title); t != "" {
		base = fmt.Sprintf("%s - %s", number, t)
	}
	base = sanitizeSheetName(base)

	if len([]rune(base)) > 31 {
		base = string([]rune(base)[:31])
	}

	nameCandidate := base
	counter := 2
	for {
		if _, exists := used[nameCandidate]; !exists {
			return nameCandidate
		}
		suffix := fmt.Sprintf("-%d", counter)
		trimmed := []rune(base)
		if len(trimmed)+len(suffix) > 31 {
			trimmed = trimmed[:31-len(suffix)]
		}
		nameCandidate = string(trimmed) + suffix
		counter++
	}
}

func sanitizeSheetName(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "Contract"
	}

	replacer := strings.NewReplacer(
		"[", "-",
		"]", "-",
		":", "-",
		"*", "-",
		"?", "-",
		"/", "-",
		"\\", "-",
	)
	value = strings.TrimSpace(replacer.Replace(value))
	if value == "" {
		return "Contract"
	}
	return value
}

func sumAmounts(rows []service.LedgerRow) (total, paid float64) {
	for _, row := range rows {
		total += row.Amount
		if row.PaymentStatus == "paid" {
			paid += row.Amount
		}
	}
	return model.RoundMoney(total), model.RoundMoney(paid)
}

func countDone(rows []service.LedgerRow) int {
	n := 0
	for _, row := range rows {
		if row.Status.Done() {
			n++
		}
	}
	return n
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatDateTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}
