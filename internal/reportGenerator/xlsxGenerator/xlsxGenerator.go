package xlsxGenerator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/stockleague/stockleague_api/internal/model"
	"github.com/stockleague/stockleague_api/utils"
)

type XLSXGenerator struct{}

func New() *XLSXGenerator {
	return &XLSXGenerator{}
}

func (g *XLSXGenerator) Generate(ctx context.Context, report model.PortfolioReport) (fileBytes []byte, fileExtension string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "XLSXGenerator.Generate"

	slog.Debug(op+" start", slog.String("rqID", rqID), slog.Int64("portfolioID", report.Portfolio.PortfolioID))

	f := excelize.NewFile()
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Error("got error while closing file", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", closeErr.Error()))
		}
	}()

	if err = g.fillHoldingsSheet(f, report); err != nil {
		return nil, "", err
	}

	if err = g.fillTransactionsSheet(f, report.Transactions); err != nil {
		return nil, "", err
	}

	if err = f.DeleteSheet("Sheet1"); err != nil {
		slog.Error("got error while deleting Sheet1", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		slog.Error("got error while saving file to bytes buffer", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	slog.Debug(op+" completed", slog.String("rqID", rqID))

	return buf.Bytes(), ".xlsx", nil
}

func (g *XLSXGenerator) headerStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Font: &excelize.Font{
			Bold: true,
			Size: 11,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{"#cfe2f3"},
		},
	})
}

func (g *XLSXGenerator) fillHoldingsSheet(f *excelize.File, report model.PortfolioReport) error {
	sheetName := "Holdings"
	if _, err := f.NewSheet(sheetName); err != nil {
		return err
	}

	styleID, err := g.headerStyle(f)
	if err != nil {
		return err
	}

	if err := f.MergeCell(sheetName, "A1", "F1"); err != nil {
		return err
	}
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("Portfolio %d, reserve %s", report.Portfolio.PortfolioID, report.Portfolio.ReserveValue.StringFixed(2)))
	if err := f.SetCellStyle(sheetName, "A1", "F1", styleID); err != nil {
		return err
	}

	_ = f.SetCellStr(sheetName, "A2", "symbol")
	_ = f.SetCellStr(sheetName, "B2", "name")
	_ = f.SetCellStr(sheetName, "C2", "quantity")
	_ = f.SetCellStr(sheetName, "D2", "avg buy price")
	_ = f.SetCellStr(sheetName, "E2", "current price")
	_ = f.SetCellStr(sheetName, "F2", "market value")

	for i, h := range report.Holdings {
		row := i + 3
		marketValue := h.CurrentPrice.Mul(decimal.NewFromInt(int64(h.Quantity)))
		_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", row), h.Symbol)
		_ = f.SetCellStr(sheetName, fmt.Sprintf("B%d", row), h.StockName)
		_ = f.SetCellInt(sheetName, fmt.Sprintf("C%d", row), int64(h.Quantity))
		_ = f.SetCellStr(sheetName, fmt.Sprintf("D%d", row), h.AverageBuyPrice.StringFixed(2))
		_ = f.SetCellStr(sheetName, fmt.Sprintf("E%d", row), h.CurrentPrice.StringFixed(2))
		_ = f.SetCellStr(sheetName, fmt.Sprintf("F%d", row), marketValue.StringFixed(2))
	}

	return nil
}

func (g *XLSXGenerator) fillTransactionsSheet(f *excelize.File, transactions []model.Transaction) error {
	sheetName := "Transactions"
	if _, err := f.NewSheet(sheetName); err != nil {
		return err
	}

	styleID, err := g.headerStyle(f)
	if err != nil {
		return err
	}

	if err := f.MergeCell(sheetName, "A1", "E1"); err != nil {
		return err
	}
	f.SetCellValue(sheetName, "A1", "Trade history")
	if err := f.SetCellStyle(sheetName, "A1", "E1", styleID); err != nil {
		return err
	}

	_ = f.SetCellStr(sheetName, "A2", "date")
	_ = f.SetCellStr(sheetName, "B2", "stock id")
	_ = f.SetCellStr(sheetName, "C2", "type")
	_ = f.SetCellStr(sheetName, "D2", "quantity")
	_ = f.SetCellStr(sheetName, "E2", "price")

	for i, t := range transactions {
		row := i + 3
		_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", row), t.CreatedAt.Format("2006-01-02 15:04:05"))
		_ = f.SetCellInt(sheetName, fmt.Sprintf("B%d", row), t.StockID)
		_ = f.SetCellStr(sheetName, fmt.Sprintf("C%d", row), t.Type)
		_ = f.SetCellInt(sheetName, fmt.Sprintf("D%d", row), int64(t.Quantity))
		_ = f.SetCellStr(sheetName, fmt.Sprintf("E%d", row), t.Price.StringFixed(2))
	}

	return nil
}
