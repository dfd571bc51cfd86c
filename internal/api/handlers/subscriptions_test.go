package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"subtrack/internal/types"
)

type mockSubscriptionStore struct {
	mock.Mock
}

func (m *mockSubscriptionStore) Create(ctx context.Context, sub *types.Subscription) error {
	return m.Called(ctx, sub).Error(0)
}

func (m *mockSubscriptionStore) GetByID(ctx context.Context, id, userID string) (*types.Subscription, error) {
	args := m.Called(ctx, id, userID)
	if s := args.Get(0); s != nil {
		return s.(*types.Subscription), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSubscriptionStore) ListByUser(ctx context.Context, userID string) ([]types.Subscription, error) {
	args := m.Called(ctx, userID)
	if s := args.Get(0); s != nil {
		return s.([]types.Subscription), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSubscriptionStore) Update(ctx context.Context, sub *types.Subscription) error {
	return m.Called(ctx, sub).Error(0)
}

func (m *mockSubscriptionStore) Delete(ctx context.Context, id, userID string) error {
	return m.Called(ctx, id, userID).Error(0)
}

// mountSubscriptions wires the handler into a chi router so URL params
// resolve the same way they do in production.
func mountSubscriptions(h *SubscriptionsHandler) http.Handler {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

const validSubscriptionBody = `{
	"name": "Netflix",
	"price_cents": 1299,
	"billing_cycle": "monthly",
	"start_date": "2026-01-01T00:00:00Z",
	"next_billing_date": "2026-04-01T00:00:00Z",
	"category": "Entertainment"
}`

func TestSubscriptionsHandler_Create(t *testing.T) {
	store := new(mockSubscriptionStore)
	h := NewSubscriptionsHandler(store, testValidator(t), slog.New(slog.DiscardHandler))
	router := mountSubscriptions(h)

	store.On("Create", mock.Anything, mock.MatchedBy(func(s *types.Subscription) bool {
		return s.UserID == "u123" && s.Name == "Netflix" && s.ID != ""
	})).Return(nil)

	r := withActor(httptest.NewRequest(http.MethodPost, "/subscriptions",
		strings.NewReader(validSubscriptionBody)), "u123", "u@example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusCreated, w.Code)
	store.AssertExpectations(t)
}

func TestSubscriptionsHandler_Create_InvalidCycle(t *testing.T) {
	store := new(mockSubscriptionStore)
	h := NewSubscriptionsHandler(store, testValidator(t), slog.New(slog.DiscardHandler))
	router := mountSubscriptions(h)

	body := strings.Replace(validSubscriptionBody, `"monthly"`, `"weekly"`, 1)
	r := withActor(httptest.NewRequest(http.MethodPost, "/subscriptions",
		strings.NewReader(body)), "u123", "u@example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSubscriptionsHandler_Create_ZeroPrice(t *testing.T) {
	store := new(mockSubscriptionStore)
	h := NewSubscriptionsHandler(store, testValidator(t), slog.New(slog.DiscardHandler))
	router := mountSubscriptions(h)

	body := strings.Replace(validSubscriptionBody, "1299", "0", 1)
	r := withActor(httptest.NewRequest(http.MethodPost, "/subscriptions",
		strings.NewReader(body)), "u123", "u@example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubscriptionsHandler_List(t *testing.T) {
	store := new(mockSubscriptionStore)
	h := NewSubscriptionsHandler(store, testValidator(t), slog.New(slog.DiscardHandler))
	router := mountSubscriptions(h)

	store.On("ListByUser", mock.Anything, "u123").Return([]types.Subscription{
		{ID: "sub-1", Name: "Netflix"},
		{ID: "sub-2", Name: "Spotify"},
	}, nil)

	r := withActor(httptest.NewRequest(http.MethodGet, "/subscriptions", nil), "u123", "u@example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []types.Subscription `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
}

func TestSubscriptionsHandler_Get_ForeignSubscriptionIs404(t *testing.T) {
	store := new(mockSubscriptionStore)
	h := NewSubscriptionsHandler(store, testValidator(t), slog.New(slog.DiscardHandler))
	router := mountSubscriptions(h)

	store.On("GetByID", mock.Anything, "sub-1", "intruder").
		Return(nil, types.NewAppError(types.ErrCodeNotFoundSubscription, "subscription not found", nil))

	r := withActor(httptest.NewRequest(http.MethodGet, "/subscriptions/sub-1", nil), "intruder", "i@example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubscriptionsHandler_Update(t *testing.T) {
	store := new(mockSubscriptionStore)
	h := NewSubscriptionsHandler(store, testValidator(t), slog.New(slog.DiscardHandler))
	router := mountSubscriptions(h)

	store.On("Update", mock.Anything, mock.MatchedBy(func(s *types.Subscription) bool {
		return s.ID == "sub-1" && s.UserID == "u123" && s.Name == "Netflix"
	})).Return(nil)

	r := withActor(httptest.NewRequest(http.MethodPut, "/subscriptions/sub-1",
		strings.NewReader(validSubscriptionBody)), "u123", "u@example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	store.AssertExpectations(t)
}

func TestSubscriptionsHandler_Delete(t *testing.T) {
	store := new(mockSubscriptionStore)
	h := NewSubscriptionsHandler(store, testValidator(t), slog.New(slog.DiscardHandler))
	router := mountSubscriptions(h)

	store.On("Delete", mock.Anything, "sub-1", "u123").Return(nil)

	r := withActor(httptest.NewRequest(http.MethodDelete, "/subscriptions/sub-1", nil), "u123", "u@example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestSubscriptionsHandler_Stats(t *testing.T) {
	store := new(mockSubscriptionStore)
	h := NewSubscriptionsHandler(store, testValidator(t), slog.New(slog.DiscardHandler))
	router := mountSubscriptions(h)

	store.On("ListByUser", mock.Anything, "u123").Return([]types.Subscription{
		{ID: "sub-1", Name: "Netflix", PriceCents: 1299, BillingCycle: types.CycleMonthly, Category: "Entertainment"},
		{ID: "sub-2", Name: "iCloud", PriceCents: 11988, BillingCycle: types.CycleYearly, Category: "Storage"},
	}, nil)

	r := withActor(httptest.NewRequest(http.MethodGet, "/subscriptions/stats", nil), "u123", "u@example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data types.SpendingStats `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1299+999), resp.Data.MonthlyTotalCents)
	assert.Equal(t, "Entertainment", resp.Data.TopCategory)
	assert.Equal(t, 2, resp.Data.Count)
}
