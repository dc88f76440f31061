package trade

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajivgeraev/cardswap-api/internal/apperrors"
	"github.com/rajivgeraev/cardswap-api/internal/logger"
	"github.com/rajivgeraev/cardswap-api/internal/models"
	"github.com/rajivgeraev/cardswap-api/internal/services/catalog"
	"github.com/rajivgeraev/cardswap-api/internal/store"
	"github.com/rajivgeraev/cardswap-api/internal/store/memory"
)

type recordingPublisher struct {
	mu      sync.Mutex
	created []int64
	deleted []int64
}

func (p *recordingPublisher) TradeCreated(l models.TradeListing) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, l.ID)
}

func (p *recordingPublisher) TradeDeleted(tradeID, _ int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deleted = append(p.deleted, tradeID)
}

type fixture struct {
	st     store.Store
	svc    *TradeService
	events *recordingPublisher
}

// newFixture создаёт пользователей A (id=1) и B (id=2) и cards карт с id 1..cards
func newFixture(t *testing.T, cards int) *fixture {
	t.Helper()
	st := memory.New()
	ctx := context.Background()
	require.NoError(t, st.Update(ctx, func(tx store.Tx) error {
		for _, name := range []string{"alice", "bob"} {
			u := &models.User{Username: name, Email: name + "@example.com", Password: "hash", Name: name}
			if err := tx.CreateUser(ctx, u); err != nil {
				return err
			}
		}
		for i := 1; i <= cards; i++ {
			c := &models.Card{Name: fmt.Sprintf("Card %d", i), Rarity: models.RarityCommon, Set: "Base"}
			if err := tx.CreateCard(ctx, c); err != nil {
				return err
			}
		}
		return nil
	}))

	svc := NewTradeService(st, catalog.NewCatalogService(st, logger.Discard()), logger.Discard())
	events := &recordingPublisher{}
	svc.WithEvents(events)
	return &fixture{st: st, svc: svc, events: events}
}

func entries(pairs ...int64) []models.TradeCardEntry {
	var out []models.TradeCardEntry
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, models.TradeCardEntry{CardID: pairs[i], Quantity: int(pairs[i+1])})
	}
	return out
}

func TestCreateTradeRoundTrip(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()
	msg := "  меняю дракона  "

	in := CreateTradeInput{
		Message:      &msg,
		OfferedCards: entries(1, 2, 3, 1),
		WantedCards:  entries(2, 1),
	}
	created, err := f.svc.CreateTrade(ctx, 1, in)
	require.NoError(t, err)
	assert.Equal(t, models.TradeOpen, created.Status)
	assert.Equal(t, "меняю дракона", *created.Message)
	require.NotNil(t, created.Creator)
	assert.Equal(t, "alice", created.Creator.Username)

	listings, err := f.svc.ListOpenTrades(ctx)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	got := listings[0]
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, in.OfferedCards, got.OfferedCards)
	assert.Equal(t, in.WantedCards, got.WantedCards)
	require.Len(t, got.OfferedCardDetails, 2)
	assert.Equal(t, int64(1), got.OfferedCardDetails[0].ID)
	assert.Equal(t, int64(3), got.OfferedCardDetails[1].ID)
	require.Len(t, got.WantedCardDetails, 1)

	assert.Equal(t, []int64{created.ID}, f.events.created)
}

func TestCreateTradeRejectsEmptyLists(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	long := "что угодно"
	empty := ""
	for _, msg := range []*string{nil, &empty, &long} {
		_, err := f.svc.CreateTrade(ctx, 1, CreateTradeInput{Message: msg, WantedCards: entries(1, 1)})
		assert.ErrorIs(t, err, apperrors.ErrInvalidTrade)

		_, err = f.svc.CreateTrade(ctx, 1, CreateTradeInput{Message: msg, OfferedCards: entries(1, 1)})
		assert.ErrorIs(t, err, apperrors.ErrInvalidTrade)

		_, err = f.svc.CreateTrade(ctx, 1, CreateTradeInput{Message: msg})
		assert.ErrorIs(t, err, apperrors.ErrInvalidTrade)
	}

	listings, err := f.svc.ListOpenTrades(ctx)
	require.NoError(t, err)
	assert.Empty(t, listings)
}

func TestCreateTradeRejectsNonPositiveQuantity(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	_, err := f.svc.CreateTrade(ctx, 1, CreateTradeInput{OfferedCards: entries(1, 0), WantedCards: entries(2, 1)})
	assert.ErrorIs(t, err, apperrors.ErrInvalidTrade)

	_, err = f.svc.CreateTrade(ctx, 1, CreateTradeInput{OfferedCards: entries(1, 1), WantedCards: entries(2, -1)})
	assert.ErrorIs(t, err, apperrors.ErrInvalidTrade)
}

func TestCreateTradeUnknownCard(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	_, err := f.svc.CreateTrade(ctx, 1, CreateTradeInput{
		OfferedCards: entries(1, 1),
		WantedCards:  entries(2, 1),
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	listings, err := f.svc.ListOpenTrades(ctx)
	require.NoError(t, err)
	assert.Empty(t, listings)
	assert.Empty(t, f.events.created)
}

func TestCreateTradeUnknownCreator(t *testing.T) {
	f := newFixture(t, 2)

	_, err := f.svc.CreateTrade(context.Background(), 99, CreateTradeInput{
		OfferedCards: entries(1, 1),
		WantedCards:  entries(2, 1),
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDeleteTradeAuthorization(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	created, err := f.svc.CreateTrade(ctx, 1, CreateTradeInput{OfferedCards: entries(1, 1), WantedCards: entries(2, 1)})
	require.NoError(t, err)

	err = f.svc.DeleteTrade(ctx, created.ID, 2)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	listings, err := f.svc.ListOpenTrades(ctx)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, created.ID, listings[0].ID)

	require.NoError(t, f.svc.DeleteTrade(ctx, created.ID, 1))

	listings, err = f.svc.ListOpenTrades(ctx)
	require.NoError(t, err)
	assert.Empty(t, listings)

	err = f.svc.DeleteTrade(ctx, created.ID, 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = f.svc.GetTrade(ctx, created.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.Equal(t, []int64{created.ID}, f.events.deleted)
}

func TestDeleteTradeOnlyCreatorForEveryPair(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	var ids []int64
	for _, creator := range []int64{1, 2} {
		tr, err := f.svc.CreateTrade(ctx, creator, CreateTradeInput{OfferedCards: entries(1, 1), WantedCards: entries(2, 1)})
		require.NoError(t, err)
		ids = append(ids, tr.ID)
	}

	for i, id := range ids {
		creator := int64(i + 1)
		for _, requester := range []int64{1, 2, 3} {
			if requester == creator {
				continue
			}
			assert.ErrorIs(t, f.svc.DeleteTrade(ctx, id, requester), apperrors.ErrForbidden)
		}
		assert.NoError(t, f.svc.DeleteTrade(ctx, id, creator))
	}
}

func TestDeleteTradeConcurrentOnlyOneSucceeds(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	created, err := f.svc.CreateTrade(ctx, 1, CreateTradeInput{OfferedCards: entries(1, 1), WantedCards: entries(2, 1)})
	require.NoError(t, err)

	var ok, notFound atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := f.svc.DeleteTrade(ctx, created.ID, 1)
			switch {
			case err == nil:
				ok.Add(1)
			case apperrors.KindOf(err) == apperrors.KindNotFound:
				notFound.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok.Load())
	assert.Equal(t, int32(19), notFound.Load())
}

func TestListOpenTradesToleratesDeletedCards(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	created, err := f.svc.CreateTrade(ctx, 1, CreateTradeInput{OfferedCards: entries(1, 1, 2, 1), WantedCards: entries(3, 2)})
	require.NoError(t, err)

	require.NoError(t, f.st.Update(ctx, func(tx store.Tx) error { return tx.DeleteCard(ctx, 2) }))
	require.NoError(t, f.st.Update(ctx, func(tx store.Tx) error { return tx.DeleteCard(ctx, 3) }))

	listing, err := f.svc.GetTrade(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, entries(1, 1, 2, 1), listing.OfferedCards)
	assert.Equal(t, entries(3, 2), listing.WantedCards)
	require.Len(t, listing.OfferedCardDetails, 1)
	assert.Equal(t, int64(1), listing.OfferedCardDetails[0].ID)
	assert.NotNil(t, listing.WantedCardDetails)
	assert.Empty(t, listing.WantedCardDetails)
}

func TestListOpenTradesInsertionOrderAndStatus(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	var want []int64
	for i := 0; i < 5; i++ {
		tr, err := f.svc.CreateTrade(ctx, int64(i%2+1), CreateTradeInput{OfferedCards: entries(1, 1), WantedCards: entries(2, 1)})
		require.NoError(t, err)
		want = append(want, tr.ID)
	}

	// обмены в других статусах в список открытых не попадают
	require.NoError(t, f.st.Update(ctx, func(tx store.Tx) error {
		return tx.CreateTrade(ctx, &models.Trade{
			CreatorID: 1, OfferedCards: entries(1, 1), WantedCards: entries(2, 1), Status: models.TradeCancelled,
		})
	}))

	listings, err := f.svc.ListOpenTrades(ctx)
	require.NoError(t, err)
	var got []int64
	for _, l := range listings {
		got = append(got, l.ID)
		assert.Equal(t, models.TradeOpen, l.Status)
	}
	assert.Equal(t, want, got)

	n, err := f.svc.CountOpen(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestListingHidesCreatorPassword(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	_, err := f.svc.CreateTrade(ctx, 1, CreateTradeInput{OfferedCards: entries(1, 1), WantedCards: entries(2, 1)})
	require.NoError(t, err)

	listings, err := f.svc.ListOpenTrades(ctx)
	require.NoError(t, err)
	data, err := json.Marshal(listings[0])
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	creator := raw["creator"].(map[string]any)
	assert.ElementsMatch(t, []string{"id", "username", "email", "name"}, keys(creator))
	for _, k := range []string{"id", "creatorId", "message", "offeredCards", "wantedCards", "status", "createdAt", "offeredCardDetails", "wantedCardDetails"} {
		assert.Contains(t, raw, k)
	}
}

func TestListingWithMissingCreator(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	require.NoError(t, f.st.Update(ctx, func(tx store.Tx) error {
		return tx.CreateTrade(ctx, &models.Trade{
			CreatorID: 42, OfferedCards: entries(1, 1), WantedCards: entries(2, 1), Status: models.TradeOpen,
		})
	}))

	listings, err := f.svc.ListOpenTrades(ctx)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Nil(t, listings[0].Creator)
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
