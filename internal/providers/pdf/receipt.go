package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	orderdomain "github.com/smallbiznis/narzo/internal/order/domain"
)

var ErrNotPaid = errors.New("order_not_paid")

type ReceiptData struct {
	StoreName     string
	StoreURL      string
	MerchantRef   string
	Reference     string
	PaymentMethod string
	DatePaid      string

	CustomerName  string
	CustomerEmail string

	Items []ReceiptItem
	Total string
}

type ReceiptItem struct {
	Description string
	Qty         int
	UnitPrice   string
	Amount      string
}

// ReceiptFromOrder builds receipt data for a paid order.
func ReceiptFromOrder(order *orderdomain.Order, storeName, storeURL string) (ReceiptData, error) {
	if order == nil || order.PaymentStatus != orderdomain.StatusPaid {
		return ReceiptData{}, ErrNotPaid
	}
	lines, err := order.LineItems()
	if err != nil {
		return ReceiptData{}, err
	}

	data := ReceiptData{
		StoreName:     storeName,
		StoreURL:      storeURL,
		MerchantRef:   order.MerchantRef,
		PaymentMethod: order.PaymentMethod,
		CustomerName:  order.CustomerName,
		CustomerEmail: order.CustomerEmail,
		Total:         orderdomain.FormatRupiah(order.Amount),
	}
	if order.GatewayReference != nil {
		data.Reference = *order.GatewayReference
	}
	if order.PaidAt != nil {
		data.DatePaid = order.PaidAt.UTC().Format(time.RFC1123)
	}
	for _, l := range lines {
		data.Items = append(data.Items, ReceiptItem{
			Description: l.Name,
			Qty:         l.Quantity,
			UnitPrice:   orderdomain.FormatRupiah(l.UnitPrice),
			Amount:      orderdomain.FormatRupiah(l.Subtotal()),
		})
	}
	return data, nil
}

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateReceipt(ctx context.Context, receipt ReceiptData) (io.Reader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(20,
		text.NewCol(6, "Receipt", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		col.New(6).Add(
			text.New(receipt.StoreName, props.Text{Style: fontstyle.Bold, Align: align.Right}),
			text.New(receipt.StoreURL, props.Text{Top: 5, Size: 8, Align: align.Right}),
		),
	)

	m.AddRow(22,
		col.New(6).Add(
			text.New("Order: "+receipt.MerchantRef, props.Text{Top: 0}),
			text.New("Payment reference: "+receipt.Reference, props.Text{Top: 5}),
			text.New("Payment method: "+receipt.PaymentMethod, props.Text{Top: 10}),
			text.New("Date paid: "+receipt.DatePaid, props.Text{Top: 15}),
		),
		col.New(6).Add(
			text.New("Billed to", props.Text{Style: fontstyle.Bold}),
			text.New(receipt.CustomerName, props.Text{Top: 5}),
			text.New(receipt.CustomerEmail, props.Text{Top: 10}),
		),
	)

	m.AddRow(15,
		text.NewCol(12, receipt.Total+" paid on "+receipt.DatePaid, props.Text{
			Size:  14,
			Style: fontstyle.Bold,
			Top:   5,
		}),
	)

	m.AddRow(10,
		text.NewCol(6, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Unit price", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	m.AddRow(2, line.NewCol(12))

	for _, item := range receipt.Items {
		m.AddRow(10,
			text.NewCol(6, item.Description, props.Text{Size: 9}),
			text.NewCol(2, fmt.Sprintf("%d", item.Qty), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.UnitPrice, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.Amount, props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Total", props.Text{Size: 9, Style: fontstyle.Bold}),
		text.NewCol(2, receipt.Total, props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}
