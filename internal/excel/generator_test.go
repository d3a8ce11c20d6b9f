package excel

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/nurpe/cleaning-contracts/internal/model"
	"github.com/nurpe/cleaning-contracts/internal/service"
)

func TestExportVisits(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	done := day.Add(14 * time.Hour)
	rows := []service.LedgerRow{
		{ContractNumber: "CLN-AAAA0001", ContractTitle: "Office cleaning", ClientName: "Acme", VisitNumber: 2, ScheduledDate: day.AddDate(0, 0, 7), Status: model.VisitScheduled, Amount: 100},
		{ContractNumber: "CLN-AAAA0001", ContractTitle: "Office cleaning", ClientName: "Acme", VisitNumber: 1, ScheduledDate: day, Status: model.VisitClosed, Amount: 100, PaymentStatus: "paid", InvoiceNumber: "INV-00001", CompletedAt: &done, PhotoCount: 3},
		{ContractNumber: "CLN-BBBB0002", ContractTitle: "Clinic: nights/weekends", ClientName: "Dental", VisitNumber: 1, ScheduledDate: day, Status: model.VisitPaymentProcessing, Amount: 55.5},
	}

	out, err := NewGenerator().ExportVisits(rows)
	require.NoError(t, err)

	file, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer file.Close()

	assert.Equal(t, []string{"Summary", "CLN-AAAA0001 - Office cleaning", "CLN-BBBB0002 - Clinic- nights-w"}, file.GetSheetList())

	get := func(sheet, cell string) string {
		v, err := file.GetCellValue(sheet, cell)
		require.NoError(t, err)
		return v
	}
	assert.Equal(t, "3", get("Summary", "B1"))
	assert.Equal(t, "2", get("Summary", "B2"))
	assert.Equal(t, "255.5", get("Summary", "B3"))
	assert.Equal(t, "100", get("Summary", "B4"))
	assert.Equal(t, "CLN-AAAA0001", get("Summary", "A8"))
	assert.Equal(t, "2", get("Summary", "D8"))

	detail := "CLN-AAAA0001 - Office cleaning"
	assert.Equal(t, "1", get(detail, "A6"))
	assert.Equal(t, "closed", get(detail, "C6"))
	assert.Equal(t, "INV-00001", get(detail, "F6"))
	assert.Equal(t, "2026-03-10 14:00:00", get(detail, "G6"))
	assert.Equal(t, "2", get(detail, "A7"))
	assert.Equal(t, "2026-03-17", get(detail, "B7"))
}

func TestExportVisitsEmpty(t *testing.T) {
	out, err := NewGenerator().ExportVisits(nil)
	require.NoError(t, err)

	file, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer file.Close()
	assert.Equal(t, []string{"Summary"}, file.GetSheetList())
}

func TestBuildSheetNameDedupes(t *testing.T) {
	used := map[string]struct{}{}
	first := buildSheetName("CLN-1", "A very long contract title that overflows", used)
	used[first] = struct{}{}
	second := buildSheetName("CLN-1", "A very long contract title that overflows", used)

	assert.Len(t, []rune(first), 31)
	assert.NotEqual(t, first, second)
	assert.Equal(t, "-2", second[len(second)-2:])
	assert.Equal(t, "Contract", sanitizeSheetName("  "))
}
