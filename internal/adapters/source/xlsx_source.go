package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pickup-trip-service/internal/domain"
	"pickup-trip-service/internal/platform/logger"
	"pickup-trip-service/internal/platform/obs"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// XLSXSource loads the feed from a sheet of a local workbook. The workbook is
// reopened on every Load so edits are picked up between runs.
type XLSXSource struct {
	path  string
	sheet string
	cols  Columns
}

func NewXLSXSource(path, sheet string, cols Columns) (*XLSXSource, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("xlsx source path is empty")
	}
	if err := cols.validate(); err != nil {
		return nil, err
	}
	return &XLSXSource{path: path, sheet: sheet, cols: cols}, nil
}

func (s *XLSXSource) Load(ctx context.Context) (_ []string, _ *domain.CoordinateStore, err error) {
	defer obs.Time(ctx, "source.xlsx.Load")(&err)

	if err := ctx.Err(); err != nil {
		return nil, nil, unavailable(err)
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, nil, unavailable(fmt.Errorf("open workbook %q: %w", s.path, err))
	}
	defer f.Close()

	sheet := s.sheet
	if sheet == "" {
		sheet = f.GetSheetName(f.GetActiveSheetIndex())
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, unavailable(fmt.Errorf("read sheet %q: %w", sheet, err))
	}

	if len(rows) > 0 {
		rows = rows[1:]
	}

	addresses, store, err := decodeRows(&sliceReader{rows: rows}, s.cols)
	if err != nil {
		return nil, nil, unavailable(err)
	}

	logger.Get().Info("Loaded coordinate feed",
		zap.String("source", "xlsx"),
		zap.String("sheet", sheet),
		zap.Int("rows", len(addresses)),
		zap.Int("addresses", store.Len()),
	)

	return addresses, store, nil
}
