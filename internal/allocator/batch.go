// Package allocator assigns payment methods to a batch of orders at minimum
// total spend.
//
// Several independent strategies each allocate every order against their own
// ledger; the Solver keeps the cheapest result. This is a heuristic search over
// a small fixed set of strategies, not an exact optimizer.
package allocator

import (
	"sort"

	"github.com/iwvelando/payment-allocator/internal/domain"
	"github.com/iwvelando/payment-allocator/pkg/constants"
)

// Batch is the frozen input of a solve: the orders, the payment methods and
// the points wallet rules. It is read-only once built and may be shared by
// concurrently running strategies.
type Batch struct {
	orders         []domain.Order
	methods        []domain.PaymentMethod
	byID           map[string]domain.PaymentMethod
	pointsID       string
	partialPercent int
}

// NewBatch validates and copies the inputs.
func NewBatch(orders []domain.Order, methods []domain.PaymentMethod, pointsID string, partialPercent int) (*Batch, error) {
	if err := domain.ValidateOrders(orders); err != nil {
		return nil, err
	}
	if err := domain.ValidateMethods(methods); err != nil {
		return nil, err
	}
	if pointsID == "" {
		pointsID = constants.DefaultPointsMethodID
	}
	if partialPercent <= 0 || partialPercent >= constants.MaxDiscountPercent {
		return nil, domain.InvalidArgument("partial points percent %d outside (0,%d)", partialPercent, constants.MaxDiscountPercent)
	}

	b := &Batch{
		orders:         make([]domain.Order, len(orders)),
		methods:        append([]domain.PaymentMethod(nil), methods...),
		byID:           make(map[string]domain.PaymentMethod, len(methods)),
		pointsID:       pointsID,
		partialPercent: partialPercent,
	}
	for i, o := range orders {
		o.Promotions = append([]string(nil), o.Promotions...)
		b.orders[i] = o
	}
	for _, m := range b.methods {
		b.byID[m.ID] = m
	}
	return b, nil
}

// Orders returns the orders in source order.
func (b *Batch) Orders() []domain.Order {
	return append([]domain.Order(nil), b.orders...)
}

// Methods returns the payment methods in configured order.
func (b *Batch) Methods() []domain.PaymentMethod {
	return append([]domain.PaymentMethod(nil), b.methods...)
}

// MethodIDs returns the payment method ids in configured order.
func (b *Batch) MethodIDs() []string {
	ids := make([]string, 0, len(b.methods))
	for _, m := range b.methods {
		ids = append(ids, m.ID)
	}
	return ids
}

// PointsID returns the id of the points wallet.
func (b *Batch) PointsID() string {
	return b.pointsID
}

func (b *Batch) points() (domain.PaymentMethod, bool) {
	m, ok := b.byID[b.pointsID]
	return m, ok
}

// cards returns every non-points method in configured order.
func (b *Batch) cards() []domain.PaymentMethod {
	out := make([]domain.PaymentMethod, 0, len(b.methods))
	for _, m := range b.methods {
		if m.ID != b.pointsID {
			out = append(out, m)
		}
	}
	return out
}

// cardsByDiscount returns the non-points methods, highest discount first.
// Equal discounts keep their configured order.
func (b *Batch) cardsByDiscount() []domain.PaymentMethod {
	out := b.cards()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Discount > out[j].Discount
	})
	return out
}

// methodsByDiscount returns all methods, points included, highest discount first.
func (b *Batch) methodsByDiscount() []domain.PaymentMethod {
	out := b.Methods()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Discount > out[j].Discount
	})
	return out
}

// ordersByValue returns the orders, highest value first. Equal values keep
// their source order.
func (b *Batch) ordersByValue() []domain.Order {
	out := b.Orders()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Value.GreaterThan(out[j].Value)
	})
	return out
}
