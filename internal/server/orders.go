package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	entitlementdomain "github.com/smallbiznis/narzo/internal/entitlement/domain"
	orderdomain "github.com/smallbiznis/narzo/internal/order/domain"
	"github.com/smallbiznis/narzo/internal/providers/pdf"
)

type orderView struct {
	MerchantRef   string                    `json:"merchant_ref"`
	PaymentStatus orderdomain.PaymentStatus `json:"payment_status"`
	Amount        int64                     `json:"amount"`
	PaymentMethod string                    `json:"payment_method"`
	CustomerName  string                    `json:"customer_name"`
	Items         []orderdomain.LineItem    `json:"items"`
	CheckoutURL   *string                   `json:"checkout_url,omitempty"`
	PaidAt        *time.Time                `json:"paid_at,omitempty"`
	CreatedAt     time.Time                 `json:"created_at"`
	Downloads     []downloadView            `json:"downloads"`
}

type downloadView struct {
	DeliveryToken   string    `json:"delivery_token"`
	ProductID       string    `json:"product_id"`
	DownloadsUsed   int       `json:"downloads_used"`
	MaxDownloads    int       `json:"max_downloads"`
	Remaining       int       `json:"remaining"`
	DownloadExpires time.Time `json:"download_expires"`
	DownloadURL     string    `json:"download_url,omitempty"`
}

// GetOrder reports an order's payment status and, once paid, its download
// links.
func (s *Server) GetOrder(c *gin.Context) {
	ref := strings.TrimSpace(c.Param("merchant_ref"))
	ctx := c.Request.Context()

	order, err := s.orders.GetByMerchantRef(ctx, ref)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Set("merchant_ref", order.MerchantRef)

	items, err := order.LineItems()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	view := orderView{
		MerchantRef:   order.MerchantRef,
		PaymentStatus: order.PaymentStatus,
		Amount:        order.Amount,
		PaymentMethod: order.PaymentMethod,
		CustomerName:  order.CustomerName,
		Items:         items,
		PaidAt:        order.PaidAt,
		CreatedAt:     order.CreatedAt,
		Downloads:     []downloadView{},
	}
	if order.PaymentStatus == orderdomain.StatusUnpaid {
		view.CheckoutURL = order.CheckoutURL
	}

	if order.PaymentStatus == orderdomain.StatusPaid {
		ents, err := s.entitlements.ListByOrder(ctx, order.ID)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		now := s.clock.Now()
		for _, e := range ents {
			view.Downloads = append(view.Downloads, s.downloadView(e, now, orderdomain.Downloadable(items, e.LineIndex)))
		}
	}

	c.JSON(http.StatusOK, gin.H{"data": view})
}

func (s *Server) downloadView(e entitlementdomain.Entitlement, now time.Time, digital bool) downloadView {
	v := downloadView{
		DeliveryToken:   e.DeliveryToken,
		ProductID:       fmt.Sprint(e.ProductID),
		DownloadsUsed:   e.DownloadsUsed,
		MaxDownloads:    e.MaxDownloads,
		Remaining:       e.Remaining(),
		DownloadExpires: e.DownloadExpires,
	}
	if digital && e.Usable(now) {
		v.DownloadURL = s.siteURL() + "/api/download/" + e.DownloadToken
	}
	return v
}

// GetReceipt renders the PDF receipt of a paid order.
func (s *Server) GetReceipt(c *gin.Context) {
	ref := strings.TrimSpace(c.Param("merchant_ref"))
	ctx := c.Request.Context()

	order, err := s.orders.GetByMerchantRef(ctx, ref)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Set("merchant_ref", order.MerchantRef)

	data, err := pdf.ReceiptFromOrder(order, s.cfg.AppName, s.siteURL())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	doc, err := s.receipts.GenerateReceipt(ctx, data)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if doc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	c.DataFromReader(http.StatusOK, -1, "application/pdf", doc, map[string]string{
		"Content-Disposition": fmt.Sprintf(`inline; filename="receipt-%s.pdf"`, order.MerchantRef),
	})
}
