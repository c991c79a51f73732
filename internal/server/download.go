package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	entitlementdomain "github.com/smallbiznis/narzo/internal/entitlement/domain"
)

// Download redeems one use of a download token and redirects to the file.
func (s *Server) Download(c *gin.Context) {
	redemption, err := s.entitlements.Redeem(c.Request.Context(), entitlementdomain.RedeemRequest{
		Token:     strings.TrimSpace(c.Param("token")),
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Set("merchant_ref", redemption.Entitlement.MerchantRef)
	c.Header("Cache-Control", "no-store")
	c.Redirect(http.StatusFound, redemption.DownloadURL)
}
