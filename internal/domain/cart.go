package domain

// ItemType tags how a cart line was sold. Event tickets are excluded from
// shipping and taxed differently from physical products.
type ItemType string

const (
	ItemTypeSimple      ItemType = "SIMPLE"
	ItemTypeVariable    ItemType = "VARIABLE"
	ItemTypeBundle      ItemType = "BUNDLE"
	ItemTypeEventTicket ItemType = "EVENTTICKET"
)

// TaxClassZeroRate marks items that contribute nothing to taxable value.
const TaxClassZeroRate = "ZERO_RATE"

// Variation identifies the concrete variant chosen for a VARIABLE product.
type Variation struct {
	DatabaseID int64             `json:"databaseId"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// BundledItem is one sub-product inside a BUNDLE line.
type BundledItem struct {
	Price    float64 `json:"price"`
	TaxClass string  `json:"taxClass"`
}

// CartLineItem is one item-in-cart instance. CartID is assigned by the
// upstream backend on add and is the removal key; ProductID is not.
type CartLineItem struct {
	ProductID         int64         `json:"id"`
	CartID            string        `json:"cartId"`
	Quantity          int           `json:"quantity"`
	Price             float64       `json:"price"`
	Name              string        `json:"name"`
	Slug              string        `json:"slug"`
	Type              ItemType      `json:"type"`
	TaxClass          string        `json:"taxClass"`
	BackordersAllowed bool          `json:"backordersAllowed"`
	Width             float64       `json:"width"`
	Height            float64       `json:"height"`
	Length            float64       `json:"length"`
	Weight            float64       `json:"weight"`
	Variation         *Variation    `json:"variation,omitempty"`
	BundledItems      []BundledItem `json:"bundledItems,omitempty"`
}

// Coupon is the client-facing shape of an applied coupon.
type Coupon struct {
	Code   string  `json:"code"`
	Amount float64 `json:"amount"`
}

// CartSummary is the cart:<id> session key. TaxValue and the three flags are
// always recomputed from the line-item list, never set independently.
type CartSummary struct {
	WooSessionID    string   `json:"wooSessionId"`
	PaymentIntentID string   `json:"paymentIntentId,omitempty"`
	Coupons         []Coupon `json:"coupons"`
	TotalDiscount   float64  `json:"totalDiscount"`
	Subtotal        float64  `json:"subtotal"`
	TaxValue        float64  `json:"taxValue"`
	HasProducts     bool     `json:"hasProducts"`
	HasPricedClass  bool     `json:"hasPricedClass"`
	HasFreeClass    bool     `json:"hasFreeClass"`
}

// ShippingCharge is one cached shipping quote.
type ShippingCharge struct {
	Method string  `json:"method"`
	Amount float64 `json:"amount"`
}

// CheckoutSession is the checkout:<id> session key. Any mutation of the
// line-item list resets the shipping cache in the same write.
type CheckoutSession struct {
	ShippingCharges            []ShippingCharge `json:"shippingCharges"`
	ShippingChargeFetchSuccess bool             `json:"shippingChargeFetchSuccess"`
	HasProducts                bool             `json:"hasProducts"`
	HasPricedClass             bool             `json:"hasPricedClass"`
}

// DerivedFields holds the four values computed from a line-item list.
type DerivedFields struct {
	TaxValue       float64
	HasProducts    bool
	HasPricedClass bool
	HasFreeClass   bool
}
