package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/cardmarket-api/internal/model"
)

func TestCartService_GetOrCreateCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.carts.GetOrCreateCart(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, first.NumberOfItems)
	assert.Empty(t, first.Items)

	second, err := f.carts.GetOrCreateCart(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, f.store.CountCarts(f.customer.Role.Customer.ID))
}

func TestCartService_GetOrCreateCart_NotACustomer(t *testing.T) {
	f := newFixture(t)

	_, err := f.carts.GetOrCreateCart(context.Background(), f.seller.ID)
	assert.ErrorIs(t, err, ErrCustomerNotFound)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCartService_AddItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cart, err := f.carts.GetOrCreateCart(ctx, f.customer.ID)
	require.NoError(t, err)

	cart, err = f.carts.AddItem(ctx, cart.ID, AddItemInput{ProductID: f.box.ID, Quantity: 5, ListingID: &f.boxLst.ID})
	require.NoError(t, err)
	assert.Equal(t, 5, cart.NumberOfItems)
	require.Len(t, cart.Items, 1)
	require.NotNil(t, cart.Items[0].Product)
	assert.Equal(t, f.box.Name, cart.Items[0].Product.Name)

	cart, err = f.carts.AddItem(ctx, cart.ID, AddItemInput{ProductID: f.card.ID, Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, 6, cart.NumberOfItems)
	requireConsistent(t, f, cart.ID)
}

func TestCartService_AddItem_SameProductTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cart, err := f.carts.GetOrCreateCart(ctx, f.customer.ID)
	require.NoError(t, err)

	_, err = f.carts.AddItem(ctx, cart.ID, AddItemInput{ProductID: f.box.ID, Quantity: 2})
	require.NoError(t, err)
	cart, err = f.carts.AddItem(ctx, cart.ID, AddItemInput{ProductID: f.box.ID, Quantity: 3})
	require.NoError(t, err)

	assert.Len(t, cart.Items, 2)
	assert.Equal(t, 5, cart.NumberOfItems)
}

func TestCartService_AddItem_ListingOfOtherProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cart, err := f.carts.GetOrCreateCart(ctx, f.customer.ID)
	require.NoError(t, err)
	_, err = f.carts.AddItem(ctx, cart.ID, AddItemInput{ProductID: f.box.ID, Quantity: 4})
	require.NoError(t, err)

	_, err = f.carts.AddItem(ctx, cart.ID, AddItemInput{ProductID: f.box.ID, Quantity: 1, ListingID: &f.cardLst.ID})
	assert.ErrorIs(t, err, ErrInvalidReference)

	after := requireConsistent(t, f, cart.ID)
	assert.Equal(t, 4, after.NumberOfItems)
	assert.Equal(t, 1, f.store.CountCartItems(cart.ID))
}

func TestCartService_AddItem_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cart, err := f.carts.GetOrCreateCart(ctx, f.customer.ID)
	require.NoError(t, err)

	tests := []struct {
		name   string
		cartID int64
		in     AddItemInput
		want   error
	}{
		{"zero quantity", cart.ID, AddItemInput{ProductID: f.box.ID, Quantity: 0}, ErrInvalidQuantity},
		{"negative quantity", cart.ID, AddItemInput{ProductID: f.box.ID, Quantity: -2}, ErrInvalidQuantity},
		{"unknown product", cart.ID, AddItemInput{ProductID: 9999, Quantity: 1}, ErrProductNotFound},
		{"unknown listing", cart.ID, AddItemInput{ProductID: f.box.ID, Quantity: 1, ListingID: ptr(int64(9999))}, ErrListingNotFound},
		{"unknown cart", 9999, AddItemInput{ProductID: f.box.ID, Quantity: 1}, ErrCartNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.carts.AddItem(ctx, tt.cartID, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Equal(t, 0, f.store.CountCartItems(cart.ID))
	requireConsistent(t, f, cart.ID)
}

func TestCartService_AddItemForUser_CreatesCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cart, err := f.carts.AddItemForUser(ctx, f.customer.ID, AddItemInput{ProductID: f.card.ID, Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, cart.NumberOfItems)

	again, err := f.carts.GetOrCreateCart(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, again.ID)
}

func TestCartService_AddItem_RollsBackWhenRecountFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cart, err := f.carts.GetOrCreateCart(ctx, f.customer.ID)
	require.NoError(t, err)

	f.store.FailOn("Carts.SetNumberOfItems", errors.New("connection reset"))
	_, err = f.carts.AddItem(ctx, cart.ID, AddItemInput{ProductID: f.box.ID, Quantity: 3})
	require.Error(t, err)
	f.store.ClearFailures()

	assert.Equal(t, 0, f.store.CountCartItems(cart.ID))
	after := requireConsistent(t, f, cart.ID)
	assert.Equal(t, 0, after.NumberOfItems)
}

func TestCartService_UpdateItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cart, err := f.carts.AddItemForUser(ctx, f.customer.ID, AddItemInput{ProductID: f.box.ID, Quantity: 5})
	require.NoError(t, err)
	cart, err = f.carts.AddItem(ctx, cart.ID, AddItemInput{ProductID: f.card.ID, Quantity: 1})
	require.NoError(t, err)

	item, err := f.carts.UpdateItem(ctx, cart.ID, cart.Items[0].ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, item.Quantity)

	after := requireConsistent(t, f, cart.ID)
	assert.Equal(t, 3, after.NumberOfItems)
}

func TestCartService_UpdateItem_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cart, err := f.carts.AddItemForUser(ctx, f.customer.ID, AddItemInput{ProductID: f.box.ID, Quantity: 5})
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	_, err = f.carts.UpdateItem(ctx, cart.ID, itemID, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = f.carts.UpdateItem(ctx, cart.ID, 9999, 3)
	assert.ErrorIs(t, err, ErrCartItemNotFound)

	_, err = f.carts.UpdateItem(ctx, 9999, itemID, 3)
	assert.ErrorIs(t, err, ErrNotFound)

	after := requireConsistent(t, f, cart.ID)
	assert.Equal(t, 5, after.NumberOfItems)
}

func TestCartService_RemoveItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cart, err := f.carts.AddItemForUser(ctx, f.customer.ID, AddItemInput{ProductID: f.box.ID, Quantity: 5})
	require.NoError(t, err)
	cart, err = f.carts.AddItem(ctx, cart.ID, AddItemInput{ProductID: f.card.ID, Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, f.carts.RemoveItem(ctx, cart.ID, cart.Items[0].ID))
	after := requireConsistent(t, f, cart.ID)
	assert.Equal(t, 1, after.NumberOfItems)

	err = f.carts.RemoveItem(ctx, cart.ID, cart.Items[0].ID)
	assert.ErrorIs(t, err, ErrCartItemNotFound)
	after = requireConsistent(t, f, cart.ID)
	assert.Equal(t, 1, after.NumberOfItems)
}

func TestCartService_Clear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cart, err := f.carts.AddItemForUser(ctx, f.customer.ID, AddItemInput{ProductID: f.box.ID, Quantity: 5})
	require.NoError(t, err)

	require.NoError(t, f.carts.Clear(ctx, cart.ID))
	after := requireConsistent(t, f, cart.ID)
	assert.Equal(t, 0, after.NumberOfItems)
	assert.Empty(t, after.Items)

	// clearing an empty cart is fine
	require.NoError(t, f.carts.Clear(ctx, cart.ID))
	assert.ErrorIs(t, f.carts.Clear(ctx, 9999), ErrCartNotFound)
}

func TestCartService_RecountRepairsDrift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cart, err := f.carts.AddItemForUser(ctx, f.customer.ID, AddItemInput{ProductID: f.box.ID, Quantity: 5})
	require.NoError(t, err)

	f.store.SetNumberOfItemsRaw(cart.ID, 42)
	cart, err = f.carts.AddItem(ctx, cart.ID, AddItemInput{ProductID: f.card.ID, Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, 6, cart.NumberOfItems)
}

func TestCartService_MutationSequence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cart, err := f.carts.GetOrCreateCart(ctx, f.customer.ID)
	require.NoError(t, err)

	steps := []func() error{
		func() error {
			_, err := f.carts.AddItem(ctx, cart.ID, AddItemInput{ProductID: f.box.ID, Quantity: 3})
			return err
		},
		func() error {
			_, err := f.carts.AddItem(ctx, cart.ID, AddItemInput{ProductID: f.card.ID, Quantity: 2, ListingID: &f.cardLst.ID})
			return err
		},
		func() error {
			c, err := f.carts.GetCart(ctx, cart.ID)
			if err != nil {
				return err
			}
			_, err = f.carts.UpdateItem(ctx, cart.ID, c.Items[1].ID, 7)
			return err
		},
		func() error {
			_, err := f.carts.AddItem(ctx, cart.ID, AddItemInput{ProductID: f.box.ID, Quantity: 1, ListingID: &f.cardLst.ID})
			return err
		},
		func() error {
			c, err := f.carts.GetCart(ctx, cart.ID)
			if err != nil {
				return err
			}
			return f.carts.RemoveItem(ctx, cart.ID, c.Items[0].ID)
		},
		func() error { return f.carts.Clear(ctx, cart.ID) },
		func() error {
			_, err := f.carts.AddItem(ctx, cart.ID, AddItemInput{ProductID: f.orphan.ID, Quantity: 4})
			return err
		},
	}
	for i, step := range steps {
		_ = step()
		c := requireConsistent(t, f, cart.ID)
		t.Logf("step %d: %d items", i, c.NumberOfItems)
	}
	final := requireConsistent(t, f, cart.ID)
	assert.Equal(t, 4, final.NumberOfItems)
}

func TestCartService_Authorize(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cart, err := f.carts.GetOrCreateCart(ctx, f.customer.ID)
	require.NoError(t, err)

	assert.NoError(t, f.carts.Authorize(ctx, cart.ID, f.customer.ID))
	assert.ErrorIs(t, f.carts.Authorize(ctx, cart.ID, f.seller.ID), ErrUnauthorized)
	assert.ErrorIs(t, f.carts.Authorize(ctx, 9999, f.customer.ID), ErrCartNotFound)
}

func TestCartService_CustomerRoleRemovalDropsCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cart, err := f.carts.AddItemForUser(ctx, f.customer.ID, AddItemInput{ProductID: f.box.ID, Quantity: 2})
	require.NoError(t, err)

	_, err = f.users.SetRole(ctx, f.customer.ID, model.RoleSeller)
	require.NoError(t, err)

	_, err = f.carts.GetCart(ctx, cart.ID)
	assert.ErrorIs(t, err, ErrCartNotFound)
	assert.Equal(t, 0, f.store.CountCartItems(cart.ID))
}
