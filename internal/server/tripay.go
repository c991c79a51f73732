package server

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/narzo/internal/observability/logger"
	orderdomain "github.com/smallbiznis/narzo/internal/order/domain"
	"github.com/smallbiznis/narzo/internal/payment/adapters/tripay"
	"go.uber.org/zap"
)

const (
	maxCallbackBytes = 64 << 10
	channelsCacheKey = "tripay"
)

// TripayCallback hands the raw callback body to the reconciler. The
// provider only reads the success flag, so errors use its envelope instead
// of the API error payload.
func (s *Server) TripayCallback(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCallbackBytes))
	if err != nil {
		s.callbackFailed(c, invalidRequestError())
		return
	}

	res, err := s.webhooks.IngestWebhook(c.Request.Context(), tripay.ProviderName, payload, c.Request.Header)
	if err != nil {
		s.callbackFailed(c, err)
		return
	}

	c.Set("merchant_ref", res.MerchantRef)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) callbackFailed(c *gin.Context, err error) {
	_ = c.Error(err)
	status, payload := mapError(err)
	message := payload.Message
	if len(payload.Errors) > 0 {
		message = payload.Errors[0].Code
	}
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}

// ListPaymentChannels returns the merchant's payment channels, cached for a
// short while since they rarely change.
func (s *Server) ListPaymentChannels(c *gin.Context) {
	if channels, ok := s.channels.Get(channelsCacheKey); ok {
		c.Header("X-Cache", "HIT")
		c.JSON(http.StatusOK, gin.H{"data": channels})
		return
	}

	channels, err := s.directory.ListChannels(c.Request.Context())
	if err != nil {
		AbortWithError(c, upstreamError(err))
		return
	}
	s.channels.Set(channelsCacheKey, channels)
	c.Header("X-Cache", "MISS")
	c.JSON(http.StatusOK, gin.H{"data": channels})
}

type paymentStatusView struct {
	MerchantRef   string                    `json:"merchant_ref"`
	PaymentStatus orderdomain.PaymentStatus `json:"payment_status"`
	Amount        int64                     `json:"amount"`
	Reference     *string                   `json:"reference,omitempty"`
	PaidAt        *time.Time                `json:"paid_at,omitempty"`
	Gateway       *tripay.Transaction       `json:"gateway,omitempty"`
}

// PaymentStatus combines the stored order status with the provider's view
// of the transaction. The provider lookup is best effort.
func (s *Server) PaymentStatus(c *gin.Context) {
	ref := strings.TrimSpace(c.Query("ref"))
	if ref == "" {
		AbortWithError(c, newValidationError("ref", "invalid_ref", "ref is required"))
		return
	}
	ctx := c.Request.Context()

	order, err := s.orders.GetByMerchantRef(ctx, ref)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Set("merchant_ref", order.MerchantRef)

	view := paymentStatusView{
		MerchantRef:   order.MerchantRef,
		PaymentStatus: order.PaymentStatus,
		Amount:        order.Amount,
		Reference:     order.GatewayReference,
		PaidAt:        order.PaidAt,
	}
	if order.GatewayReference != nil && *order.GatewayReference != "" {
		detail, err := s.directory.TransactionDetail(ctx, *order.GatewayReference)
		if err != nil {
			logger.WithOrder(logger.FromContext(ctx), order.MerchantRef).
				Warn("transaction detail lookup failed", zap.Error(err))
		} else {
			view.Gateway = detail
		}
	}

	c.JSON(http.StatusOK, gin.H{"data": view})
}

func upstreamError(err error) error {
	return fmt.Errorf("%w: %v", orderdomain.ErrUpstream, err)
}
