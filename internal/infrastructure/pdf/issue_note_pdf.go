// Package pdf renders the printable goods issue note that travels with the
// physical shipment between stores.
//
// A4 layout:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Source store  │  Issue N° + Date                   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  ORDER: Sales order N° + Destination store                  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLE: Qty | Product | Unit price | Value                  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALS: Total quantity / Total value                       │
//	│  FOOTER: receiving signature line                           │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/storelink/transfer-api/internal/domain/entity"
)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// amountPrinter renders amounts with thousands separators.
var amountPrinter = message.NewPrinter(language.English)

// IssueNotePDF renders goods issue notes with Maroto v2.
type IssueNotePDF struct{}

// NewIssueNotePDF builds the generator.
func NewIssueNotePDF() *IssueNotePDF { return &IssueNotePDF{} }

// GenerateIssueNotePDF renders the note and returns the PDF bytes.
func (g *IssueNotePDF) GenerateIssueNotePDF(
	_ context.Context,
	note *entity.GoodsIssueNote,
	order *entity.SalesOrder,
	source, destination *entity.Store,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(fmt.Sprintf("Goods Issue Note %d", note.IssueNumber), true).
		WithAuthor(source.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(note, source))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(orderRow(order, destination))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	for _, r := range tableDetailRows(note.LineItems) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(note))

	m.AddRows(line.NewRow(3))
	m.AddRows(signatureRow())

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generate document: %w", err)
	}
	return doc.GetBytes(), nil
}

// headerRow: source store (left) and issue number + date (right).
func headerRow(note *entity.GoodsIssueNote, source *entity.Store) core.Row {
	date := note.CreatedAt.Format("02/01/2006")

	return row.New(18).Add(
		col.New(7).Add(
			text.New(source.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Cost center: "+source.BYDCostCenter, props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("GOODS ISSUE NOTE", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("N° %d", note.IssueNumber), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Date: "+date, props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

// orderRow: parent sales order and destination store.
func orderRow(order *entity.SalesOrder, destination *entity.Store) core.Row {
	return row.New(14).Add(
		col.New(12).Add(
			text.New("TRANSFER DETAILS", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("Sales order N° %d", order.OrderNumber), props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New(fmt.Sprintf("Deliver to: %s   |   Warehouse: %s",
				destination.Name, destination.ICGWarehouse,
			), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

// tableHeaderRow: line items table header.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Qty", 2, align.Center),
		h("Product", 5, align.Left),
		h("Unit price", 2, align.Right),
		h("Value", 3, align.Right),
	)
}

// tableDetailRows: one row per issued line.
func tableDetailRows(lines []entity.GoodsIssueLineItem) []core.Row {
	result := make([]core.Row, 0, len(lines))
	for _, li := range lines {
		result = append(result, row.New(7).Add(
			col.New(2).Add(text.New(
				li.QuantityIssued.String(),
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(5).Add(text.New(
				li.ProductName,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(2).Add(text.New(
				formatAmount(li.UnitPrice),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(3).Add(text.New(
				formatAmount(li.ValueIssued),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
		))
	}
	return result
}

// totalsRow: total quantity and value, right-aligned.
func totalsRow(note *entity.GoodsIssueNote) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2,
		})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}

	return row.New(18).Add(
		col.New(4),
		col.New(4).Add(
			label("Total quantity:"),
			label("Total value:"),
		),
		col.New(4).Add(
			value(note.TotalQuantityIssued().String()),
			value(formatAmount(note.TotalValueIssued())),
		),
	)
}

// signatureRow: space for the receiving store to sign on delivery.
func signatureRow() core.Row {
	return row.New(20).Add(
		col.New(6).Add(
			text.New("Issued by: ____________________________", props.Text{
				Size: 9, Top: 6, Color: colorGray,
			}),
		),
		col.New(6).Add(
			text.New("Received by: ____________________________", props.Text{
				Size: 9, Top: 6, Color: colorGray,
			}),
		),
	)
}

// formatAmount renders a monetary amount with thousands separators and two
// decimal places.
func formatAmount(d decimal.Decimal) string {
	f, _ := d.Float64()
	return amountPrinter.Sprintf("%.2f", f)
}
