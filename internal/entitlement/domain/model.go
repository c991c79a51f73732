package domain

import "time"

// Entitlement grants bounded downloads of one purchased line item. Only
// digital lines ever expose a download link.
type Entitlement struct {
	ID              int64      `json:"id" gorm:"primaryKey"`
	OrderID         int64      `json:"order_id" gorm:"column:order_id;not null;uniqueIndex:ux_entitlements_order_line"`
	MerchantRef     string     `json:"merchant_ref" gorm:"column:merchant_ref;type:text;not null;index"`
	ProductID       int64      `json:"product_id" gorm:"column:product_id;not null"`
	LineIndex       int        `json:"line_index" gorm:"column:line_index;not null;uniqueIndex:ux_entitlements_order_line"`
	DeliveryToken   string     `json:"delivery_token" gorm:"column:delivery_token;type:text;not null;uniqueIndex"`
	DownloadToken   string     `json:"-" gorm:"column:download_token;type:text;not null;uniqueIndex"`
	DownloadsUsed   int        `json:"downloads_used" gorm:"column:downloads_used;not null;default:0"`
	MaxDownloads    int        `json:"max_downloads" gorm:"column:max_downloads;not null"`
	DownloadExpires time.Time  `json:"download_expires" gorm:"column:download_expires;not null"`
	PaidAt          *time.Time `json:"paid_at,omitempty" gorm:"column:paid_at"`
	CreatedAt       time.Time  `json:"created_at" gorm:"not null"`
}

func (Entitlement) TableName() string { return "entitlements" }

func (e Entitlement) Remaining() int {
	if e.DownloadsUsed >= e.MaxDownloads {
		return 0
	}
	return e.MaxDownloads - e.DownloadsUsed
}

// Usable reports whether a redemption at now would pass the expiry and quota
// checks. The expiry instant itself is still usable.
func (e Entitlement) Usable(now time.Time) bool {
	return !now.After(e.DownloadExpires) && e.DownloadsUsed < e.MaxDownloads
}

type DownloadLog struct {
	ID            int64     `json:"id" gorm:"primaryKey"`
	EntitlementID int64     `json:"entitlement_id" gorm:"column:entitlement_id;not null;index"`
	ProductID     int64     `json:"product_id" gorm:"column:product_id;not null"`
	IPAddress     *string   `json:"ip_address,omitempty" gorm:"column:ip_address;type:text"`
	UserAgent     *string   `json:"user_agent,omitempty" gorm:"column:user_agent;type:text"`
	CreatedAt     time.Time `json:"created_at" gorm:"not null"`
}

func (DownloadLog) TableName() string { return "download_logs" }
