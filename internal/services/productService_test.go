package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/arzan03/storefront/internal/apperror"
	"github.com/arzan03/storefront/internal/models"
	"github.com/arzan03/storefront/internal/services/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestProductCatalogue(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	older := models.Product{ID: primitive.NewObjectID(), Name: "Old mate", IsActive: true, CreatedAt: base}
	newer := models.Product{ID: primitive.NewObjectID(), Name: "New mate", IsActive: true, CreatedAt: base.Add(time.Hour)}
	hidden := models.Product{ID: primitive.NewObjectID(), Name: "Retired", IsActive: false, CreatedAt: base.Add(2 * time.Hour)}
	svc := NewProductService(memstore.NewProducts(older, newer, hidden))

	active, err := svc.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, newer.ID, active[0].ID)

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	single, err := svc.Single(ctx)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, single.ID)

	got, err := svc.Get(ctx, older.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "Old mate", got.Name)

	_, err = svc.Get(ctx, hidden.ID.Hex())
	assert.Equal(t, http.StatusNotFound, apperror.StatusOf(err))

	_, err = svc.Get(ctx, "123")
	assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err))

	_, err = NewProductService(memstore.NewProducts()).Single(ctx)
	assert.Equal(t, http.StatusNotFound, apperror.StatusOf(err))
}

func TestProductCreateAndPatch(t *testing.T) {
	ctx := context.Background()
	svc := NewProductService(memstore.NewProducts())

	p, err := svc.Create(ctx, CreateProductInput{Name: " Bombilla ", Price: 25.5, Variants: []models.Variant{{Name: "Silver", Stock: 3}}})
	require.NoError(t, err)
	assert.Equal(t, "Bombilla", p.Name)
	assert.True(t, p.IsActive)
	assert.NotNil(t, p.Images)

	_, err = svc.Create(ctx, CreateProductInput{Name: "Bad", Price: -1})
	assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err))

	_, err = svc.Create(ctx, CreateProductInput{Name: "Bad", Variants: []models.Variant{{Name: "x", Stock: -2}}})
	assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err))

	price := 30.0
	patched, err := svc.Patch(ctx, p.ID.Hex(), models.ProductPatch{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, 30.0, patched.Price)
	assert.Equal(t, "Bombilla", patched.Name)

	off := false
	patched, err = svc.Patch(ctx, p.ID.Hex(), models.ProductPatch{IsActive: &off})
	require.NoError(t, err)
	assert.False(t, patched.IsActive)

	active, err := svc.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	_, err = svc.Patch(ctx, p.ID.Hex(), models.ProductPatch{})
	assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err))

	blank := "   "
	_, err = svc.Patch(ctx, p.ID.Hex(), models.ProductPatch{Name: &blank})
	assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err))

	_, err = svc.Patch(ctx, primitive.NewObjectID().Hex(), models.ProductPatch{Price: &price})
	assert.Equal(t, http.StatusNotFound, apperror.StatusOf(err))
}
