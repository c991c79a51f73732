package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	orderdomain "github.com/smallbiznis/narzo/internal/order/domain"
)

type checkoutBody struct {
	orderdomain.CheckoutRequest

	// single-product shorthand used by the storefront buy button
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Checkout accepts the storefront form (redirects to the payment page) or a
// JSON body (returns the created order).
func (s *Server) Checkout(c *gin.Context) {
	if isJSONRequest(c) {
		s.checkoutJSON(c)
		return
	}

	quantity := 1
	if raw := strings.TrimSpace(c.PostForm("quantity")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			AbortWithError(c, newValidationError("quantity", "invalid_quantity", "invalid quantity"))
			return
		}
		quantity = parsed
	}

	req := orderdomain.CheckoutRequest{
		CustomerName:  c.PostForm("name"),
		CustomerEmail: c.PostForm("email"),
		CustomerPhone: c.PostForm("phone"),
		Method:        c.PostForm("method"),
	}
	if productID := strings.TrimSpace(c.PostForm("product_id")); productID != "" {
		req.Items = []orderdomain.CheckoutItem{{ProductID: productID, Quantity: quantity}}
	}

	resp, err := s.orders.Checkout(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Set("merchant_ref", resp.MerchantRef)
	c.Redirect(http.StatusFound, resp.CheckoutURL)
}

func (s *Server) checkoutJSON(c *gin.Context) {
	var body checkoutBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := body.CheckoutRequest
	if len(req.Items) == 0 && strings.TrimSpace(body.ProductID) != "" {
		quantity := body.Quantity
		if quantity == 0 {
			quantity = 1
		}
		req.Items = []orderdomain.CheckoutItem{{ProductID: body.ProductID, Quantity: quantity}}
	}

	resp, err := s.orders.Checkout(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Set("merchant_ref", resp.MerchantRef)
	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func isJSONRequest(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), gin.MIMEJSON)
}
