package services

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/dmitrijs2005/storefront/internal/server/payments"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePreferences struct {
	got []payments.Preference
	id  string
	err error
}

func (f *fakePreferences) CreatePreference(_ context.Context, p payments.Preference) (*payments.PreferenceResult, error) {
	f.got = append(f.got, p)
	if f.err != nil {
		return nil, f.err
	}
	return &payments.PreferenceResult{ID: f.id}, nil
}

func TestCheckout_CreateOrder(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	a := f.product(t, "A", 12.5, 5)
	_, err := f.carts.AddProduct(ctx, sessionOf(f.buyer), f.buyer.Cart, a.ID, 2)
	require.NoError(t, err)

	pc := &fakePreferences{id: "pref-1"}
	s := NewCheckoutService(f.carts, pc, testConfig(), logging.Nop())

	id, err := s.CreateOrder(ctx, f.buyer.Cart)
	require.NoError(t, err)
	assert.Equal(t, "pref-1", id)

	require.Len(t, pc.got, 1)
	assert.Equal(t, payments.Preference{
		Items: []payments.Item{{Title: "Compra en Cba E-commerce", Quantity: 1, UnitPrice: 25, CurrencyID: "ARS"}},
		BackURLs: payments.BackURLs{
			Success: "http://shop.test/api/carts/" + f.buyer.Cart + "/purchase",
			Failure: "http://shop.test/paymentfailure",
			Pending: "http://shop.test/paymentpending",
		},
		AutoReturn: "approved",
	}, pc.got[0])

	// Stock is only reserved by the purchase itself.
	left, err := f.products.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, left.Stock)
}

func TestCheckout_OutOfStock(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	a := f.product(t, "A", 10, 1)
	_, err := f.carts.AddProduct(ctx, sessionOf(f.buyer), f.buyer.Cart, a.ID, 2)
	require.NoError(t, err)

	pc := &fakePreferences{id: "pref-1"}
	s := NewCheckoutService(f.carts, pc, testConfig(), logging.Nop())

	_, err = s.CreateOrder(ctx, f.buyer.Cart)
	require.ErrorIs(t, err, common.ErrorOutOfStock)
	assert.Empty(t, pc.got)

	_, err = s.CreateOrder(ctx, "ghost")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestCheckout_ProviderError(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	a := f.product(t, "A", 10, 5)
	_, err := f.carts.AddProduct(ctx, sessionOf(f.buyer), f.buyer.Cart, a.ID, 1)
	require.NoError(t, err)

	boom := errors.New("boom")
	s := NewCheckoutService(f.carts, &fakePreferences{err: boom}, testConfig(), logging.Nop())

	_, err = s.CreateOrder(ctx, f.buyer.Cart)
	require.ErrorIs(t, err, boom)
}

func TestCheckout_PublicKey(t *testing.T) {
	s := NewCheckoutService(nil, nil, testConfig(), logging.Nop())
	assert.Equal(t, "APP_USR-public", s.PublicKey())
}
