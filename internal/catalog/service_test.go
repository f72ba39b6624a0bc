package catalog

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeNguyen02/AuctionProduct/internal/models"
	"github.com/LeNguyen02/AuctionProduct/internal/store"
)

type fakeImageStore struct {
	mu      sync.Mutex
	removed []string
}

func (f *fakeImageStore) Remove(paths []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, paths...)
}

func (f *fakeImageStore) all() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.removed...)
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []models.Event
}

func (p *capturingPublisher) Publish(ev models.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *capturingPublisher) kinds() []models.EventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	kinds := make([]models.EventKind, 0, len(p.events))
	for _, ev := range p.events {
		kinds = append(kinds, ev.Kind)
	}
	return kinds
}

func setup() (*Service, *store.MemoryStore, *fakeImageStore, *capturingPublisher) {
	st := store.NewMemoryStore()
	images := &fakeImageStore{}
	pub := &capturingPublisher{}
	return NewService(st, images, pub), st, images, pub
}

func strPtr(s string) *string { return &s }

func decPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func TestCreateProduct(t *testing.T) {
	svc, _, _, pub := setup()

	product, err := svc.Create(context.Background(), CreateParams{
		Name:          "  porcelain vase  ",
		StartingPrice: decimal.NewFromInt(500),
		Images:        []string{"/uploads/vase.jpg"},
		Description:   "antique",
	})
	require.NoError(t, err)
	assert.NotZero(t, product.ID)
	assert.Equal(t, "porcelain vase", product.Name)
	assert.Nil(t, product.CurrentPrice)
	assert.Nil(t, product.CurrentLeader)
	assert.Equal(t, []models.EventKind{models.EventProductsChanged}, pub.kinds())
}

func TestCreateValidation(t *testing.T) {
	svc, _, _, pub := setup()
	ctx := context.Background()

	cases := []struct {
		name   string
		params CreateParams
	}{
		{"empty name", CreateParams{Name: "  ", StartingPrice: decimal.NewFromInt(10)}},
		{"zero price", CreateParams{Name: "vase", StartingPrice: decimal.Zero}},
		{"negative price", CreateParams{Name: "vase", StartingPrice: decimal.NewFromInt(-1)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.params)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
	assert.Empty(t, pub.kinds())
}

func TestUpdatePartial(t *testing.T) {
	svc, _, images, _ := setup()
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateParams{
		Name:          "vase",
		StartingPrice: decimal.NewFromInt(100),
		Images:        []string{"/uploads/old.jpg"},
		Description:   "before",
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, UpdateParams{Name: strPtr("urn")})
	require.NoError(t, err)
	assert.Equal(t, "urn", updated.Name)
	assert.Equal(t, "before", updated.Description)
	assert.Equal(t, []string{"/uploads/old.jpg"}, updated.Images)
	assert.Empty(t, images.all(), "untouched images must stay on disk")

	updated, err = svc.Update(ctx, created.ID, UpdateParams{
		Images: []string{"/uploads/new.jpg"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"/uploads/new.jpg"}, updated.Images)
	assert.Equal(t, []string{"/uploads/old.jpg"}, images.all())
}

func TestUpdatePriceOverride(t *testing.T) {
	svc, _, _, _ := setup()
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateParams{Name: "vase", StartingPrice: decimal.NewFromInt(100)})
	require.NoError(t, err)

	// price below the starting price is refused
	_, err = svc.Update(ctx, created.ID, UpdateParams{
		CurrentPrice:  decPtr(50),
		CurrentLeader: strPtr("alice"),
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	// price without a leader breaks the pair
	_, err = svc.Update(ctx, created.ID, UpdateParams{CurrentPrice: decPtr(150)})
	assert.ErrorIs(t, err, ErrInvalidInput)

	updated, err := svc.Update(ctx, created.ID, UpdateParams{
		CurrentPrice:  decPtr(150),
		CurrentLeader: strPtr("alice"),
	})
	require.NoError(t, err)
	require.NotNil(t, updated.CurrentPrice)
	require.NotNil(t, updated.CurrentLeader)
	assert.True(t, updated.CurrentPrice.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, "alice", *updated.CurrentLeader)
}

func TestUpdateStartingPriceCannotPassLeadingBid(t *testing.T) {
	svc, st, _, _ := setup()
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateParams{Name: "vase", StartingPrice: decimal.NewFromInt(100)})
	require.NoError(t, err)
	_, err = st.ApplyWinningBid(ctx, created.ID, "alice", decimal.NewFromInt(150), time.Now())
	require.NoError(t, err)

	// raising the starting price above the current price would leave the
	// board showing a lot priced below its own minimum
	_, err = svc.Update(ctx, created.ID, UpdateParams{StartingPrice: decPtr(500)})
	assert.ErrorIs(t, err, ErrInvalidInput)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, got.StartingPrice.Equal(decimal.NewFromInt(100)))

	// raising it up to the leading bid is fine
	updated, err := svc.Update(ctx, created.ID, UpdateParams{StartingPrice: decPtr(150)})
	require.NoError(t, err)
	assert.True(t, updated.StartingPrice.Equal(decimal.NewFromInt(150)))
	require.NotNil(t, updated.CurrentPrice)
	assert.True(t, updated.CurrentPrice.Equal(decimal.NewFromInt(150)))
}

func TestUpdateClearLeaderClearsPrice(t *testing.T) {
	svc, _, _, _ := setup()
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateParams{Name: "vase", StartingPrice: decimal.NewFromInt(100)})
	require.NoError(t, err)
	_, err = svc.Update(ctx, created.ID, UpdateParams{
		CurrentPrice:  decPtr(150),
		CurrentLeader: strPtr("alice"),
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, UpdateParams{CurrentLeader: strPtr("")})
	require.NoError(t, err)
	assert.Nil(t, updated.CurrentPrice)
	assert.Nil(t, updated.CurrentLeader)
}

func TestUpdateUnknownProduct(t *testing.T) {
	svc, _, _, _ := setup()
	_, err := svc.Update(context.Background(), 404, UpdateParams{Name: strPtr("x")})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteRemovesEverything(t *testing.T) {
	svc, st, images, pub := setup()
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateParams{
		Name:          "vase",
		StartingPrice: decimal.NewFromInt(100),
		Images:        []string{"/uploads/a.jpg", "/uploads/b.jpg"},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))

	_, err = st.GetProduct(ctx, created.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, []string{"/uploads/a.jpg", "/uploads/b.jpg"}, images.all())
	assert.Equal(t, []models.EventKind{
		models.EventProductsChanged,
		models.EventProductsChanged,
	}, pub.kinds())

	assert.ErrorIs(t, svc.Delete(ctx, created.ID), store.ErrNotFound)
}
