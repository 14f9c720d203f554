package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"jidokhae/internal/domain/entities"
	"jidokhae/internal/ports/output"
	"jidokhae/pkg/phone"
	"jidokhae/pkg/tz"
)

var _ output.RosterExporter = Roster{}

const sheetName = "참가자"

var rosterHeader = []string{"이름", "이메일", "연락처", "상태", "결제수단", "금액", "입금자명", "출석", "신청일시"}

var columnWidths = []float64{12, 28, 16, 16, 10, 10, 12, 8, 20}

var statusLabel = map[entities.RegistrationStatus]string{
	entities.RegistrationPending:         "결제 대기",
	entities.RegistrationPendingTransfer: "입금 대기",
	entities.RegistrationConfirmed:       "확정",
	entities.RegistrationCancelled:       "취소",
}

var methodLabel = map[entities.PaymentMethod]string{
	entities.PaymentCard:     "카드",
	entities.PaymentTransfer: "계좌이체",
	entities.PaymentFree:     "무료",
}

// Roster renders meeting rosters as xlsx with phone numbers masked.
type Roster struct{}

func (Roster) Export(meeting *entities.Meeting, entries []entities.RosterEntry) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#FFF2CC"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	if err := f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s (%s)", meeting.Title, meeting.StartsAt.In(tz.Seoul).Format("2006-01-02 15:04"))); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(sheetName, "A2", &rosterHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(rosterHeader), 2)
	if err := f.SetCellStyle(sheetName, "A2", last, headerStyle); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}
	for i, w := range columnWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheetName, col, col, w); err != nil {
			return nil, err
		}
	}

	for i, e := range entries {
		attended, created := "", ""
		if e.Attended {
			attended = "O"
		}
		if !e.CreatedAt.IsZero() {
			created = e.CreatedAt.In(tz.Seoul).Format("2006-01-02 15:04")
		}
		row := []any{
			e.UserName,
			e.UserEmail,
			phone.Mask(e.UserPhone),
			statusLabel[e.Status],
			methodLabel[e.PaymentMethod],
			e.Amount,
			e.DepositorName,
			attended,
			created,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+3)
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
