package testutil

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinicstock/backend/internal/inventory/domain"
)

// DefaultPassword is the clear text password of every UserFixture.
const DefaultPassword = "password123"

// UserFixture represents test user data
type UserFixture struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	Role         string
	IsActive     bool
}

// FixtureFactory creates test fixtures with sensible defaults
type FixtureFactory struct {
	mu       sync.Mutex
	sequence int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{}
}

// nextSeq returns the next sequence number for unique values
func (f *FixtureFactory) nextSeq() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sequence++
	return f.sequence
}

// User creates a user fixture with defaults
func (f *FixtureFactory) User(opts ...func(*UserFixture)) UserFixture {
	seq := f.nextSeq()
	hash, _ := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)

	user := UserFixture{
		ID:           uuid.New(),
		Username:     fmt.Sprintf("nurse%d", seq),
		PasswordHash: string(hash),
		Role:         "staff",
		IsActive:     true,
	}

	for _, opt := range opts {
		opt(&user)
	}

	return user
}

// WithUsername sets the user name
func WithUsername(username string) func(*UserFixture) {
	return func(u *UserFixture) {
		u.Username = username
	}
}

// WithRole sets the user role
func WithRole(role string) func(*UserFixture) {
	return func(u *UserFixture) {
		u.Role = role
	}
}

// Inactive disables the user
func Inactive() func(*UserFixture) {
	return func(u *UserFixture) {
		u.IsActive = false
	}
}

// Supplier creates a supplier with defaults
func (f *FixtureFactory) Supplier(opts ...func(*domain.Supplier)) *domain.Supplier {
	seq := f.nextSeq()
	s := &domain.Supplier{
		ID:            uuid.New(),
		Name:          fmt.Sprintf("Medical Supply Co %d", seq),
		ContactPerson: "Jordan Lee",
		Email:         fmt.Sprintf("orders%d@supply.test", seq),
		PaymentTerms:  "net 30",
		LeadTimeDays:  5,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewProduct returns a valid product input with defaults
func (f *FixtureFactory) NewProduct(opts ...func(*domain.NewProduct)) domain.NewProduct {
	seq := f.nextSeq()
	p := domain.NewProduct{
		SKU:             fmt.Sprintf("SKU-%04d", seq),
		Name:            fmt.Sprintf("Nitrile Gloves M %d", seq),
		Category:        "consumables",
		UnitPrice:       decimal.RequireFromString("12.50"),
		CostPrice:       decimal.RequireFromString("8.00"),
		ReorderLevel:    10,
		ReorderQuantity: 50,
		MaxStockLevel:   200,
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// WithReorderLevel sets the low stock threshold
func WithReorderLevel(level int) func(*domain.NewProduct) {
	return func(p *domain.NewProduct) {
		p.ReorderLevel = level
	}
}

// WithSKU sets the product SKU
func WithSKU(sku string) func(*domain.NewProduct) {
	return func(p *domain.NewProduct) {
		p.SKU = sku
	}
}

// Receipt returns a receipt of qty units of product expiring at expiry
func (f *FixtureFactory) Receipt(productID uuid.UUID, qty int, expiry *time.Time, opts ...func(*domain.Receipt)) domain.Receipt {
	seq := f.nextSeq()
	r := domain.Receipt{
		ProductID:   productID,
		BatchNumber: fmt.Sprintf("LOT-%05d", seq),
		Quantity:    qty,
		ExpiryDate:  expiry,
		CostPerUnit: decimal.RequireFromString("2.50"),
		Location:    "Store room A",
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// WithCost sets the cost per unit of a receipt
func WithCost(cost string) func(*domain.Receipt) {
	return func(r *domain.Receipt) {
		r.CostPerUnit = decimal.RequireFromString(cost)
	}
}

// WithBatchNumber sets the batch number of a receipt
func WithBatchNumber(number string) func(*domain.Receipt) {
	return func(r *domain.Receipt) {
		r.BatchNumber = number
	}
}

// Date returns midnight UTC of the given day
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
