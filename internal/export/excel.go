package export

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/LeNguyen02/AuctionProduct/internal/models"
)

const sheetName = "Products"

var columns = []struct {
	header string
	width  float64
}{
	{"Product ID", 12},
	{"Name", 30},
	{"Starting Price", 15},
	{"Current Price", 15},
	{"Leader", 25},
	{"Images", 40},
	{"Description", 40},
}

// WriteProducts renders the catalog as an xlsx workbook. Products without
// bids show their starting price as the current price, matching the board.
func WriteProducts(w io.Writer, products []models.Product) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", sheetName)

	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return errors.Wrap(err, "header cell name")
		}
		if err := f.SetCellValue(sheetName, cell, col.header); err != nil {
			return errors.Wrap(err, "write header")
		}
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return errors.Wrap(err, "column name")
		}
		if err := f.SetColWidth(sheetName, name, name, col.width); err != nil {
			return errors.Wrap(err, "set column width")
		}
	}

	for r, p := range products {
		currentPrice := p.StartingPrice
		if p.CurrentPrice != nil {
			currentPrice = *p.CurrentPrice
		}
		leader := "no bids"
		if p.CurrentLeader != nil {
			leader = *p.CurrentLeader
		}

		values := []interface{}{
			p.ID,
			p.Name,
			p.StartingPrice.InexactFloat64(),
			currentPrice.InexactFloat64(),
			leader,
			strings.Join(p.Images, ", "),
			p.Description,
		}
		for c, v := range values {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return errors.Wrap(err, "cell name")
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return errors.Wrap(err, "write row")
			}
		}
	}

	return errors.Wrap(f.Write(w), "write workbook")
}
