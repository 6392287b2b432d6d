package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/dmitrijs2005/storefront/internal/server/config"
	"github.com/dmitrijs2005/storefront/internal/server/payments"
)

const (
	checkoutTitle    = "Compra en Cba E-commerce"
	checkoutCurrency = "ARS"
)

// PreferenceCreator creates checkout preferences with a payment provider.
type PreferenceCreator interface {
	CreatePreference(ctx context.Context, p payments.Preference) (*payments.PreferenceResult, error)
}

// CheckoutService starts MercadoPago checkouts for carts.
type CheckoutService struct {
	carts     *CartService
	payments  PreferenceCreator
	publicKey string
	serverURL string
	logger    logging.Logger
}

func NewCheckoutService(carts *CartService, pc PreferenceCreator, cfg *config.Config, logger logging.Logger) *CheckoutService {
	return &CheckoutService{
		carts:     carts,
		payments:  pc,
		publicKey: cfg.MPPublicKey,
		serverURL: strings.TrimRight(cfg.ServerURL, "/"),
		logger:    logger,
	}
}

// PublicKey is the key the browser checkout is initialized with.
func (s *CheckoutService) PublicKey() string {
	return s.publicKey
}

// CreateOrder prices the cart and creates a single-item preference for the
// total. Carts with nothing purchasable fail with common.ErrorOutOfStock.
func (s *CheckoutService) CreateOrder(ctx context.Context, cid string) (string, error) {
	summary, err := s.carts.CalculatePurchase(ctx, cid)
	if err != nil {
		return "", err
	}
	if summary.Total == 0 {
		return "", fmt.Errorf("%w: the selected products are out of stock", common.ErrorOutOfStock)
	}

	res, err := s.payments.CreatePreference(ctx, payments.Preference{
		Items: []payments.Item{{
			Title:      checkoutTitle,
			Quantity:   1,
			UnitPrice:  summary.Total,
			CurrencyID: checkoutCurrency,
		}},
		BackURLs: payments.BackURLs{
			Success: fmt.Sprintf("%s/api/carts/%s/purchase", s.serverURL, cid),
			Failure: s.serverURL + "/paymentfailure",
			Pending: s.serverURL + "/paymentpending",
		},
		AutoReturn: "approved",
	})
	if err != nil {
		s.logger.Fatal(ctx, "it is not possible to create the order", "cart_id", cid, "error", err)
		return "", err
	}

	s.logger.Info(ctx, "payment preference created", "cart_id", cid, "preference_id", res.ID)
	return res.ID, nil
}
