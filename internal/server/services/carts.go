package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/dmitrijs2005/storefront/internal/server/auth"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// PurchaseLine is a cart line that can be fulfilled.
type PurchaseLine struct {
	Product  models.Product `json:"product"`
	Quantity int            `json:"quantity"`
}

// PurchaseSummary splits a cart into what can be bought now and what
// cannot, with the price of the former.
type PurchaseSummary struct {
	Total       float64           `json:"total"`
	Available   []PurchaseLine    `json:"available"`
	Unavailable []models.CartItem `json:"unavailable"`
}

// CartService manages cart contents and turns carts into purchases.
type CartService struct {
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	now         func() time.Time

	// purchaseMu serializes stock checks and decrements.
	purchaseMu sync.Mutex
}

func NewCartService(m repomanager.RepositoryManager, logger logging.Logger) *CartService {
	return &CartService{repomanager: m, logger: logger, now: time.Now}
}

// Create stores an empty cart and returns its id.
func (s *CartService) Create(ctx context.Context) (string, error) {
	return s.repomanager.Carts().Add(ctx, []models.CartItem{})
}

func (s *CartService) Get(ctx context.Context, cid string) (*models.Cart, error) {
	return s.repomanager.Carts().GetByID(ctx, cid)
}

// AddProduct adds qty units of product pid, merging with an existing line.
// Premium users cannot buy their own products.
func (s *CartService) AddProduct(ctx context.Context, actor auth.Session, cid, pid string, qty int) (*models.Cart, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("%w: quantity must be greater than zero", common.ErrorValidation)
	}

	p, err := s.repomanager.Products().GetByID(ctx, pid)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RolePremium && p.Owner == actor.Email {
		return nil, fmt.Errorf("%w: premium users cannot add their own products", common.ErrorForbidden)
	}

	return s.repomanager.Carts().Modify(ctx, cid, func(lines []models.CartItem) ([]models.CartItem, error) {
		if i := lineIndex(lines, pid); i >= 0 {
			lines[i].Quantity += qty
			return lines, nil
		}
		return append(lines, models.CartItem{Product: pid, Quantity: qty}), nil
	})
}

// SetQuantity overwrites the quantity of an existing line.
func (s *CartService) SetQuantity(ctx context.Context, cid, pid string, qty int) (*models.Cart, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("%w: quantity must be greater than zero", common.ErrorValidation)
	}

	return s.repomanager.Carts().Modify(ctx, cid, func(lines []models.CartItem) ([]models.CartItem, error) {
		i := lineIndex(lines, pid)
		if i < 0 {
			return nil, fmt.Errorf("%w: product %s is not in cart %s", common.ErrorNotFound, pid, cid)
		}
		lines[i].Quantity = qty
		return lines, nil
	})
}

// RemoveProduct drops a line from the cart.
func (s *CartService) RemoveProduct(ctx context.Context, cid, pid string) (*models.Cart, error) {
	return s.repomanager.Carts().Modify(ctx, cid, func(lines []models.CartItem) ([]models.CartItem, error) {
		i := lineIndex(lines, pid)
		if i < 0 {
			return nil, fmt.Errorf("%w: product %s is not in cart %s", common.ErrorNotFound, pid, cid)
		}
		return slices.Delete(lines, i, i+1), nil
	})
}

// Empty removes every line from the cart.
func (s *CartService) Empty(ctx context.Context, cid string) (*models.Cart, error) {
	return s.repomanager.Carts().Update(ctx, cid, []models.CartItem{})
}

// CalculatePurchase prices the lines whose product has enough stock. Lines
// for unknown products or short stock are reported as unavailable.
func (s *CartService) CalculatePurchase(ctx context.Context, cid string) (*PurchaseSummary, error) {
	cart, err := s.repomanager.Carts().GetByID(ctx, cid)
	if err != nil {
		return nil, err
	}

	summary := &PurchaseSummary{Available: []PurchaseLine{}, Unavailable: []models.CartItem{}}
	for _, line := range cart.Products {
		p, err := s.repomanager.Products().GetByID(ctx, line.Product)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				summary.Unavailable = append(summary.Unavailable, line)
				continue
			}
			return nil, err
		}
		if !p.Status || p.Stock < line.Quantity {
			summary.Unavailable = append(summary.Unavailable, line)
			continue
		}
		summary.Available = append(summary.Available, PurchaseLine{Product: *p, Quantity: line.Quantity})
		summary.Total += p.Price * float64(line.Quantity)
	}
	return summary, nil
}

// Purchase buys every available line of the cart: stock is decremented,
// the bought quantities leave the cart and a ticket for purchaser is
// issued. Lines added while the purchase runs stay in the cart. A cart with nothing available fails with common.ErrorOutOfStock.
func (s *CartService) Purchase(ctx context.Context, cid, purchaser string) (*models.Ticket, *PurchaseSummary, error) {
	s.purchaseMu.Lock()
	defer s.purchaseMu.Unlock()

	summary, err := s.CalculatePurchase(ctx, cid)
	if err != nil {
		return nil, nil, err
	}
	if summary.Total == 0 {
		return nil, summary, fmt.Errorf("%w: no product in cart %s can be purchased", common.ErrorOutOfStock, cid)
	}

	for _, line := range summary.Available {
		stock := line.Product.Stock - line.Quantity
		if _, err := s.repomanager.Products().Update(ctx, line.Product.ID, models.ProductPatch{Stock: &stock}); err != nil {
			return nil, nil, fmt.Errorf("update stock of %s: %w", line.Product.ID, err)
		}
	}

	_, err = s.repomanager.Carts().Modify(ctx, cid, func(lines []models.CartItem) ([]models.CartItem, error) {
		return withoutPurchased(lines, summary.Available), nil
	})
	if err != nil {
		return nil, nil, err
	}

	ticket, err := s.repomanager.Tickets().Add(ctx, models.Ticket{
		Code:             uuid.NewString(),
		PurchaseDateTime: s.now().UTC(),
		Amount:           summary.Total,
		Purchaser:        purchaser,
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info(ctx, "purchase completed", "cart_id", cid, "ticket_id", ticket.ID, "amount", ticket.Amount)
	return ticket, summary, nil
}

// withoutPurchased takes the bought quantities off lines, dropping lines
// that reach zero.
func withoutPurchased(lines []models.CartItem, bought []PurchaseLine) []models.CartItem {
	for _, b := range bought {
		i := lineIndex(lines, b.Product.ID)
		if i < 0 {
			continue
		}
		lines[i].Quantity -= b.Quantity
		if lines[i].Quantity <= 0 {
			lines = slices.Delete(lines, i, i+1)
		}
	}
	return lines
}

func lineIndex(lines []models.CartItem, pid string) int {
	return slices.IndexFunc(lines, func(l models.CartItem) bool { return l.Product == pid })
}
