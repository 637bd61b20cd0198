package repository

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"

	"github.com/dkoval/storefront/internal/domain"
)

func setupMongo(t *testing.T) *MongoRepository {
	if testing.Short() {
		t.Skip("skipping MongoDB integration test in short mode")
	}

	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := ConnectMongoDB(ctx, uri, "testdb")
	require.NoError(t, err)

	repo := NewMongoRepository(db)
	require.NoError(t, repo.CreateIndexes(ctx))
	return repo
}

func TestMongo_RoundTrip(t *testing.T) {
	repo := setupMongo(t)
	ctx := context.Background()

	cart := &domain.Cart{
		UserID: "u1",
		Items: []domain.CartItem{
			{ProductID: "p1", PriceUnit: decimal.NewFromInt(1000), Quantity: 2},
		},
	}
	require.NoError(t, repo.UpsertCart(ctx, cart))

	loaded, err := repo.GetCart(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, "p1", loaded.Items[0].ProductID)
	assert.Equal(t, 2, loaded.Items[0].Quantity)
	assert.True(t, decimal.NewFromInt(1000).Equal(loaded.Items[0].PriceUnit))
}

func TestMongo_MissingAndDelete(t *testing.T) {
	repo := setupMongo(t)
	ctx := context.Background()

	_, err := repo.GetCart(ctx, "nobody")
	assert.ErrorIs(t, err, ErrCartNotFound)

	cart := &domain.Cart{UserID: "u2", Items: []domain.CartItem{{ProductID: "p1", Quantity: 1}}}
	require.NoError(t, repo.UpsertCart(ctx, cart))
	require.NoError(t, repo.DeleteCart(ctx, "u2"))

	_, err = repo.GetCart(ctx, "u2")
	assert.ErrorIs(t, err, ErrCartNotFound)

	// Deleting again is a no-op, not an error.
	assert.NoError(t, repo.DeleteCart(ctx, "u2"))
}
