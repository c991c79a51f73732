package email

import "context"

const TemplateOrderConfirmation = "order_confirmation"

type OrderConfirmation struct {
	MerchantRef  string
	CustomerName string
	Email        string
	Amount       int64
	Items        []OrderLine
	Downloads    []DownloadLink
	ValidDays    int
	MaxDownloads int
	OrderURL     string
}

type OrderLine struct {
	Name     string
	Quantity int
}

type DownloadLink struct {
	Name string
	URL  string
}

func (c OrderConfirmation) Subject() string {
	return "Order Confirmed - " + c.MerchantRef
}

// SendOrderConfirmation renders and sends the post-payment confirmation.
func SendOrderConfirmation(ctx context.Context, p Provider, c OrderConfirmation) error {
	return p.SendTemplate(ctx, []string{c.Email}, c.Subject(), TemplateOrderConfirmation, c)
}
