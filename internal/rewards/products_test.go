package rewards_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/task-rewards/internal/model"
	"github.com/nhle/task-rewards/internal/rewards"
)

func TestCreateProductAnnouncesToCommonUsers(t *testing.T) {
	env := newAdminEnv(t)
	ana := addUser(t, env, "ana", model.RoleCommon)
	addUser(t, env, "bia", model.RoleAdmin)
	caio := addUser(t, env, "caio", model.RoleCommon)

	p := addProduct(t, env, " Sticker ", 5)
	assert.Equal(t, "Sticker", p.Name)

	var recipients []int
	for _, n := range env.Document(t).Notifications {
		if n.Message == `New product available: "Sticker" for 5 points.` {
			require.NotNil(t, n.UserID)
			recipients = append(recipients, *n.UserID)
			assert.Equal(t, model.LinkProducts, n.Link)
		}
	}
	assert.Equal(t, []int{ana.ID, caio.ID}, recipients)
}

func TestProductValidation(t *testing.T) {
	ctx := context.Background()
	env := newAdminEnv(t)
	sticker := addProduct(t, env, "Sticker", 5)

	_, err := env.Service.CreateProduct(ctx, rewards.ProductInput{Name: "", Points: 5})
	require.True(t, rewards.IsValidation(err), "got %v", err)
	assert.EqualError(t, err, "A product needs a name.")

	_, err = env.Service.CreateProduct(ctx, rewards.ProductInput{Name: "Free", Points: 0})
	require.True(t, rewards.IsValidation(err), "got %v", err)
	assert.EqualError(t, err, `Product "Free" must cost at least 1 point.`)

	_, err = env.Service.UpdateProduct(ctx, sticker.ID, rewards.ProductInput{Name: "Sticker", Points: -1})
	assert.True(t, rewards.IsValidation(err), "got %v", err)

	_, err = env.Service.UpdateProduct(ctx, 99, rewards.ProductInput{Name: "x", Points: 1})
	assert.ErrorIs(t, err, rewards.ErrNotFound)

	assert.Len(t, env.Document(t).Products, 1)
}

func TestUpdateProductKeepsModeratedRequests(t *testing.T) {
	ctx := context.Background()
	env := newAdminEnv(t)
	ana := addUser(t, env, "ana", model.RoleCommon)
	sticker := addProduct(t, env, "Sticker", 5)
	earn(t, env, "ana", 10)

	switchTo(t, env, "ana")
	req, err := env.Service.RequestProduct(ctx, sticker.ID)
	require.NoError(t, err)
	switchTo(t, env, "admin")
	require.NoError(t, env.Service.ApproveRequest(ctx, req.ID))

	updated, err := env.Service.UpdateProduct(ctx, sticker.ID, rewards.ProductInput{Name: "Big sticker", Points: 8})
	require.NoError(t, err)
	assert.Equal(t, "Big sticker", updated.Name)
	assert.Equal(t, 8, updated.Points)

	stored, ok := env.Document(t).Request(req.ID)
	require.True(t, ok)
	assert.Equal(t, model.StatusApproved, stored.Status())
	assert.Equal(t, 5, userByID(t, env, ana.ID).CurrentPoints)
}

func TestDeleteProductWithdrawsRequests(t *testing.T) {
	ctx := context.Background()
	env := newAdminEnv(t)
	ana := addUser(t, env, "ana", model.RoleCommon)
	bia := addUser(t, env, "bia", model.RoleCommon)
	sticker := addProduct(t, env, "Sticker", 5)
	movie := addProduct(t, env, "Movie", 8)
	earn(t, env, "ana", 20)
	earn(t, env, "bia", 20)

	switchTo(t, env, "bia")
	_, err := env.Service.RequestProduct(ctx, sticker.ID)
	require.NoError(t, err)
	switchTo(t, env, "ana")
	for range 2 {
		_, err = env.Service.RequestProduct(ctx, sticker.ID)
		require.NoError(t, err)
	}
	kept, err := env.Service.RequestProduct(ctx, movie.ID)
	require.NoError(t, err)
	switchTo(t, env, "admin")

	require.NoError(t, env.Service.DeleteProduct(ctx, sticker.ID))

	doc := env.Remote.Document(t)
	require.Len(t, doc.Requests, 1)
	assert.Equal(t, kept.ID, doc.Requests[0].ID)
	_, ok := doc.Product(sticker.ID)
	assert.False(t, ok)

	const withdrawn = `"Sticker" was removed from the catalog; your pending request was withdrawn.`
	var recipients []int
	for _, n := range doc.Notifications {
		if n.Message == withdrawn {
			recipients = append(recipients, *n.UserID)
		}
	}
	assert.Equal(t, []int{ana.ID, bia.ID}, recipients)

	assert.ErrorIs(t, env.Service.DeleteProduct(ctx, sticker.ID), rewards.ErrNotFound)
}

func TestProductsCheapestFirst(t *testing.T) {
	ctx := context.Background()
	env := newAdminEnv(t)
	addProduct(t, env, "Movie", 30)
	addProduct(t, env, "Sticker", 5)
	addProduct(t, env, "Candy", 5)
	addUser(t, env, "ana", model.RoleCommon)
	switchTo(t, env, "ana")

	products, err := env.Service.Products(ctx)
	require.NoError(t, err)
	var names []string
	for _, p := range products {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Sticker", "Candy", "Movie"}, names)

	_, err = env.Service.CreateProduct(ctx, rewards.ProductInput{Name: "x", Points: 1})
	assert.ErrorIs(t, err, rewards.ErrForbidden)
	assert.ErrorIs(t, env.Service.DeleteProduct(ctx, 1), rewards.ErrForbidden)
}
