package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/cardmarket-api/internal/model"
)

func TestOptionalRole(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantSet bool
		want    model.RoleKind
		wantErr bool
	}{
		{"absent", `{}`, false, model.RoleNone, false},
		{"null", `{"role": null}`, true, model.RoleNone, false},
		{"seller", `{"role": "seller"}`, true, model.RoleSeller, false},
		{"admin", `{"role":"admin"}`, true, model.RoleAdmin, false},
		{"unknown", `{"role": "wizard"}`, true, model.RoleNone, true},
		{"not a string", `{"role": 3}`, true, model.RoleNone, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req SetRoleRequest
			err := json.Unmarshal([]byte(tt.body), &req)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSet, req.Role.Set)
			assert.Equal(t, tt.want, req.Role.Kind)
		})
	}
}

func TestNewUserResponse_Role(t *testing.T) {
	none := NewUserResponse(&model.User{ID: 1, Role: model.NoRole()})
	assert.Nil(t, none.Role)
	assert.Nil(t, none.Seller)

	seller := NewUserResponse(&model.User{ID: 2, Role: model.SellerRole(model.Seller{ID: 7, UserID: 2, Rating: 5})})
	require.NotNil(t, seller.Role)
	assert.Equal(t, "seller", *seller.Role)
	require.NotNil(t, seller.Seller)
	assert.Equal(t, 5, seller.Seller.Rating)
	assert.Nil(t, seller.Customer)

	data, err := json.Marshal(none)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"role":null`)
}

func TestNewCartResponse_EmptyItemsEncodeAsArray(t *testing.T) {
	data, err := json.Marshal(NewCartResponse(&model.Cart{ID: 3}))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"items":[]`)
	assert.Contains(t, string(data), `"number_of_items":0`)
}
