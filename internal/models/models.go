package models

import "time"

// Product represents a product in the catalog. Monetary amounts are cents.
type Product struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Slug         string    `db:"slug" json:"slug"`
	Description  string    `db:"description" json:"description,omitempty"`
	Image        string    `db:"image" json:"image,omitempty"`
	Category     string    `db:"category" json:"category"`
	Price        int64     `db:"price" json:"price"`
	SalePrice    int64     `db:"sale_price" json:"sale_price,omitempty"`
	IsOnSale     bool      `db:"is_on_sale" json:"is_on_sale"`
	CountInStock int       `db:"count_in_stock" json:"count_in_stock"`
	Featured     bool      `db:"featured" json:"featured"`
	Popular      bool      `db:"popular" json:"popular"`
	HotDeal      bool      `db:"hot_deal" json:"hot_deal"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// EffectivePrice returns the sale price while the product is on sale,
// otherwise the regular price.
func (p *Product) EffectivePrice() int64 {
	if p.IsOnSale && p.SalePrice > 0 {
		return p.SalePrice
	}
	return p.Price
}

// Review represents a customer review on a product
type Review struct {
	ID        int64     `db:"id" json:"id"`
	ProductID int64     `db:"product_id" json:"product_id"`
	Rating    int       `db:"rating" json:"rating"`
	Comment   string    `db:"comment" json:"comment"`
	Author    string    `db:"author" json:"author"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CartItem is one product-and-quantity line within a cart. The display
// fields are a snapshot taken when the item was added (guest carts) or
// joined from the catalog on read (server carts).
type CartItem struct {
	ProductID    int64     `db:"product_id" json:"product_id"`
	Quantity     int       `db:"quantity" json:"quantity"`
	Name         string    `db:"name" json:"name"`
	Image        string    `db:"image" json:"image,omitempty"`
	Category     string    `db:"category" json:"category,omitempty"`
	Price        int64     `db:"price" json:"price"`
	SalePrice    int64     `db:"sale_price" json:"sale_price,omitempty"`
	IsOnSale     bool      `db:"is_on_sale" json:"is_on_sale"`
	CountInStock int       `db:"count_in_stock" json:"count_in_stock"`
	AddedAt      time.Time `db:"added_at" json:"added_at"`
}

// EffectivePrice returns the unit price the item is charged at.
func (i *CartItem) EffectivePrice() int64 {
	if i.IsOnSale && i.SalePrice > 0 {
		return i.SalePrice
	}
	return i.Price
}

// Cart is the aggregate of a user's (or guest session's) line items.
// Totals are derived from the items on every read, never stored.
type Cart struct {
	Items []CartItem `json:"items"`
}

// TotalQuantity is the sum of all line item quantities.
func (c *Cart) TotalQuantity() int {
	total := 0
	for i := range c.Items {
		total += c.Items[i].Quantity
	}
	return total
}

// TotalAmount is the sum of quantity times effective unit price, in cents.
func (c *Cart) TotalAmount() int64 {
	var total int64
	for i := range c.Items {
		total += int64(c.Items[i].Quantity) * c.Items[i].EffectivePrice()
	}
	return total
}

// Item returns the line item for a product, or nil if absent.
func (c *Cart) Item(productID int64) *CartItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}

// Contains reports whether the cart holds a line item for the product.
func (c *Cart) Contains(productID int64) bool {
	return c.Item(productID) != nil
}

// RemainingAddable returns how many more units of the product can be
// added before the cart quantity reaches the known stock count, floor 0.
func (c *Cart) RemainingAddable(p *Product) int {
	remaining := p.CountInStock
	if item := c.Item(p.ID); item != nil {
		remaining -= item.Quantity
	}
	if remaining < 0 {
		return 0
	}
	return remaining
}

// WishlistItem is boolean membership with a display snapshot, no quantity.
type WishlistItem struct {
	ProductID int64     `db:"product_id" json:"product_id"`
	Name      string    `db:"name" json:"name"`
	Image     string    `db:"image" json:"image,omitempty"`
	Category  string    `db:"category" json:"category,omitempty"`
	Price     int64     `db:"price" json:"price"`
	SalePrice int64     `db:"sale_price" json:"sale_price,omitempty"`
	IsOnSale  bool      `db:"is_on_sale" json:"is_on_sale"`
	AddedAt   time.Time `db:"added_at" json:"added_at"`
}

// Wishlist is the aggregate of a user's (or guest session's) saved products.
type Wishlist struct {
	Items []WishlistItem `json:"items"`
}

// Contains reports whether the product is on the wishlist.
func (w *Wishlist) Contains(productID int64) bool {
	for i := range w.Items {
		if w.Items[i].ProductID == productID {
			return true
		}
	}
	return false
}

// BillingInfo is the customer-supplied billing block on an order.
type BillingInfo struct {
	Name    string `db:"billing_name" json:"name"`
	Email   string `db:"billing_email" json:"email"`
	Phone   string `db:"billing_phone" json:"phone"`
	Address string `db:"billing_address" json:"address"`
	Country string `db:"billing_country" json:"country"`
	State   string `db:"billing_state" json:"state"`
	Zip     string `db:"billing_zip" json:"zip"`
	Company string `db:"billing_company" json:"company,omitempty"`
	Notes   string `db:"billing_notes" json:"notes,omitempty"`
}

// Order is an immutable historical record of a checkout. Item snapshots
// never change after creation, even when the source products do.
type Order struct {
	ID             int64  `db:"id" json:"id"`
	OrderNumber    string `db:"order_number" json:"order_number"`
	UserID         int64  `db:"user_id" json:"user_id"`
	BillingInfo    `json:"billing_info"`
	Items          []OrderItem `db:"-" json:"items,omitempty"`
	PaymentMethod  string      `db:"payment_method" json:"payment_method"`
	PaymentStatus  string      `db:"payment_status" json:"payment_status"`
	Status         string      `db:"status" json:"status"`
	Subtotal       int64       `db:"subtotal" json:"subtotal"`
	ShippingFee    int64       `db:"shipping_fee" json:"shipping_fee"`
	TaxAmount      int64       `db:"tax_amount" json:"tax_amount"`
	TotalAmount    int64       `db:"total_amount" json:"total_amount"`
	TrackingNumber string      `db:"tracking_number" json:"tracking_number,omitempty"`
	IdempotencyKey string      `db:"idempotency_key" json:"idempotency_key,omitempty"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updated_at"`
}

// OrderItem is an immutable snapshot of one purchased line item.
// UnitPrice is the effective price at purchase time; Subtotal is
// UnitPrice times Quantity.
type OrderItem struct {
	ID        int64  `db:"id" json:"id"`
	OrderID   int64  `db:"order_id" json:"order_id"`
	ProductID int64  `db:"product_id" json:"product_id"`
	Name      string `db:"name" json:"name"`
	Image     string `db:"image" json:"image,omitempty"`
	Price     int64  `db:"price" json:"price"`
	SalePrice int64  `db:"sale_price" json:"sale_price,omitempty"`
	UnitPrice int64  `db:"unit_price" json:"unit_price"`
	Quantity  int    `db:"quantity" json:"quantity"`
	Subtotal  int64  `db:"subtotal" json:"subtotal"`
}

// Order statuses
const (
	OrderStatusPending    = "PENDING"
	OrderStatusConfirmed  = "CONFIRMED"
	OrderStatusProcessing = "PROCESSING"
	OrderStatusShipped    = "SHIPPED"
	OrderStatusDelivered  = "DELIVERED"
	OrderStatusCancelled  = "CANCELLED"
)

// Payment statuses
const (
	PaymentStatusPending = "PENDING"
	PaymentStatusPaid    = "PAID"
	PaymentStatusFailed  = "FAILED"
)

// Payment methods
const (
	PaymentMethodCOD          = "COD"
	PaymentMethodBankTransfer = "BANK_TRANSFER"
	PaymentMethodCard         = "CARD"
)

// ValidPaymentMethod reports whether m is one of the accepted methods.
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentMethodCOD, PaymentMethodBankTransfer, PaymentMethodCard:
		return true
	}
	return false
}

var statusRank = map[string]int{
	OrderStatusPending:    0,
	OrderStatusConfirmed:  1,
	OrderStatusProcessing: 2,
	OrderStatusShipped:    3,
	OrderStatusDelivered:  4,
}

// ValidStatusTransition reports whether an order may move from one status
// to another. The progression is strictly forward; CANCELLED is reachable
// from any non-terminal status and, like DELIVERED, is terminal.
func ValidStatusTransition(from, to string) bool {
	if from == OrderStatusDelivered || from == OrderStatusCancelled {
		return false
	}
	if to == OrderStatusCancelled {
		return true
	}
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	return toRank == fromRank+1
}
