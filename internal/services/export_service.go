package services

import (
	"fmt"

	"github.com/estudio-tools/workflow-api/internal/models"
	"github.com/xuri/excelize/v2"
)

var taskExportHeaders = []string{
	"ID", "Título", "Área", "Prioridad", "Estado", "Vencimiento",
	"Creador", "Asignados", "Completada", "Completada por",
}

// ExportTasks renders a task list into an xlsx workbook. The caller is
// responsible for having narrowed the list to the actor's visibility.
func ExportTasks(tasks []models.Task) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := "Tareas"
	f.SetSheetName("Sheet1", sheet)

	boldStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, h := range taskExportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	const dateFormat = "02/01/2006 15:04"
	for rowIdx, task := range tasks {
		row := rowIdx + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), task.ID)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), task.Title)
		if task.Area != nil {
			f.SetCellValue(sheet, fmt.Sprintf("C%d", row), task.Area.Name)
		}
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), string(task.Priority))
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), string(task.Status))
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), task.DueDate.Format(dateFormat))
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), task.Creator.FullName)

		assignees := ""
		for i, u := range task.Assignees {
			if i > 0 {
				assignees += ", "
			}
			assignees += u.FullName
		}
		f.SetCellValue(sheet, fmt.Sprintf("H%d", row), assignees)

		if task.CompletedAt != nil {
			f.SetCellValue(sheet, fmt.Sprintf("I%d", row), task.CompletedAt.Format(dateFormat))
		}
		if task.CompletedByID != nil {
			f.SetCellValue(sheet, fmt.Sprintf("J%d", row), *task.CompletedByID)
		}
	}

	colWidths := []float64{6, 35, 16, 10, 12, 18, 20, 30, 18, 14}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}

	return f, nil
}
