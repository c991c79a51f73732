package domain

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type PaymentStatus string

const (
	StatusUnpaid  PaymentStatus = "UNPAID"
	StatusPaid    PaymentStatus = "PAID"
	StatusExpired PaymentStatus = "EXPIRED"
	StatusFailed  PaymentStatus = "FAILED"
)

// IsTerminal reports whether no further transition may leave s.
func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case StatusPaid, StatusExpired, StatusFailed:
		return true
	default:
		return false
	}
}

func ParseStatus(raw string) (PaymentStatus, bool) {
	switch PaymentStatus(raw) {
	case StatusUnpaid, StatusPaid, StatusExpired, StatusFailed:
		return PaymentStatus(raw), true
	default:
		return "", false
	}
}

type Order struct {
	ID               int64          `json:"id" gorm:"primaryKey"`
	MerchantRef      string         `json:"merchant_ref" gorm:"column:merchant_ref;type:text;not null;uniqueIndex"`
	CustomerName     string         `json:"customer_name" gorm:"column:customer_name;type:text;not null"`
	CustomerEmail    string         `json:"customer_email" gorm:"column:customer_email;type:text;not null"`
	CustomerPhone    *string        `json:"customer_phone,omitempty" gorm:"column:customer_phone;type:text"`
	Amount           int64          `json:"amount" gorm:"not null"`
	PaymentMethod    string         `json:"payment_method" gorm:"column:payment_method;type:text;not null"`
	Items            datatypes.JSON `json:"items" gorm:"type:json;not null"`
	PaymentStatus    PaymentStatus  `json:"payment_status" gorm:"column:payment_status;type:text;not null;default:UNPAID"`
	GatewayReference *string        `json:"gateway_reference,omitempty" gorm:"column:gateway_reference;type:text"`
	CheckoutURL      *string        `json:"checkout_url,omitempty" gorm:"column:checkout_url;type:text"`
	PaidAt           *time.Time     `json:"paid_at,omitempty" gorm:"column:paid_at"`
	CreatedAt        time.Time      `json:"created_at" gorm:"not null"`
	UpdatedAt        time.Time      `json:"updated_at" gorm:"not null"`
}

func (Order) TableName() string { return "orders" }

// LineItem is the product snapshot taken at checkout. Later catalog edits
// never change it.
type LineItem struct {
	ProductID int64  `json:"product_id,string"`
	Slug      string `json:"slug"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	IsDigital bool   `json:"is_digital"`
}

func (l LineItem) Subtotal() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

// Downloadable reports whether the line at index delivers a file. Physical
// lines still carry an entitlement but never expose a download link.
func Downloadable(items []LineItem, index int) bool {
	return index >= 0 && index < len(items) && items[index].IsDigital
}

func (o *Order) LineItems() ([]LineItem, error) {
	if len(o.Items) == 0 {
		return nil, nil
	}
	var items []LineItem
	if err := json.Unmarshal(o.Items, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func EncodeLineItems(items []LineItem) (datatypes.JSON, error) {
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
