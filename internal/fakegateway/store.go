package fakegateway

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrOrderSettled  = errors.New("order already settled")
)

type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "NOT CAPTURED"
	OrderStatusCaptured OrderStatus = "CAPTURED"
	OrderStatusVoided   OrderStatus = "VOIDED"
)

type OrderProduct struct {
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// Order is one payment created through the PaymentRequest operation.
type Order struct {
	Reference           string
	OrderID             string
	PayTxnID            string
	MerchantReferenceID string

	CustomerName   string
	CustomerEmail  string
	CustomerMobile string

	Products    []OrderProduct
	Subtotal    decimal.Decimal
	Currency    string
	PaymentMode string
	ReturnURL   string
	ErrorURL    string

	Status    OrderStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store keeps orders in memory, keyed by gateway reference.
type Store struct {
	mu     sync.RWMutex
	orders map[string]*Order
	seq    int64
	now    func() time.Time
}

func NewStore() *Store {
	return &Store{
		orders: make(map[string]*Order),
		seq:    100000,
		now:    time.Now,
	}
}

// Create assigns a gateway reference and order id to o and stores a copy.
func (s *Store) Create(o Order) Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	now := s.now()
	o.Reference = uuid.NewString()
	o.OrderID = strconv.FormatInt(s.seq, 10)
	o.Status = OrderStatusPending
	o.CreatedAt = now
	o.UpdatedAt = now
	o.Products = append([]OrderProduct(nil), o.Products...)

	s.orders[o.Reference] = &o
	return o
}

func (s *Store) Get(reference string) (Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[reference]
	if !ok {
		return Order{}, false
	}
	return *o, true
}

// Settle moves a pending order to captured or voided. A settled order is
// returned unchanged together with ErrOrderSettled.
func (s *Store) Settle(reference string, status OrderStatus) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[reference]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	if o.Status != OrderStatusPending {
		return *o, ErrOrderSettled
	}

	o.Status = status
	o.UpdatedAt = s.now()
	if status == OrderStatusCaptured {
		o.PayTxnID = uuid.NewString()
	}
	return *o, nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}
