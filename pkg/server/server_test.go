package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jellehierck/Streeplijst3/pkg/alert"
	"github.com/jellehierck/Streeplijst3/pkg/api"
	"github.com/jellehierck/Streeplijst3/pkg/api/apitest"
	"github.com/jellehierck/Streeplijst3/pkg/database"
	"github.com/jellehierck/Streeplijst3/pkg/model"
	"github.com/jellehierck/Streeplijst3/pkg/nfc"
	"github.com/jellehierck/Streeplijst3/pkg/server/handler"
	"github.com/jellehierck/Streeplijst3/pkg/server/middleware"
	"github.com/jellehierck/Streeplijst3/pkg/service"
	"github.com/jellehierck/Streeplijst3/pkg/session"
)

const folderID = 1991

var (
	jan  = model.Member{ID: 1, Username: "s1234567", FirstName: "Jan", LastName: "Jansen"}
	cola = model.Product{ID: 1, ProductOfferID: 101, Name: "Cola", Published: true, Price: 70}
)

type memCards struct {
	mu    sync.Mutex
	cards map[string]model.NfcCard
}

func (m *memCards) Get(_ context.Context, username string) (model.NfcCard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.cards[username]
	if !ok {
		return model.NfcCard{}, fmt.Errorf("can't get card of %s: %w", username, database.ErrNotFound)
	}
	return c, nil
}

func (m *memCards) GetByCard(_ context.Context, uid string) (model.NfcCard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.cards {
		if c.CardUID == uid {
			return c, nil
		}
	}
	return model.NfcCard{}, fmt.Errorf("can't get card %s: %w", uid, database.ErrNotFound)
}

func (m *memCards) Upsert(_ context.Context, card model.NfcCard) (model.NfcCard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.cards {
		if c.CardUID == card.CardUID && c.Username != card.Username {
			return model.NfcCard{}, fmt.Errorf("can't upsert card: %w", database.ErrConflict)
		}
	}
	card.Added = time.Now()
	m.cards[card.Username] = card
	return card, nil
}

func (m *memCards) Delete(_ context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.cards[username]; !ok {
		return fmt.Errorf("can't delete card of %s: %w", username, database.ErrNotFound)
	}
	delete(m.cards, username)
	return nil
}

func (m *memCards) List(context.Context) ([]model.NfcCard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.NfcCard, 0, len(m.cards))
	for _, c := range m.cards {
		out = append(out, c)
	}
	return out, nil
}

type testEnv struct {
	*httptest.Server
	api *apitest.Server
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()

	apiSrv := apitest.NewServer(t)
	apiSrv.AddMember(jan)
	apiSrv.AddFolder(model.Folder{ID: folderID, Name: "Fris", Published: true}, cola)

	client, err := api.New(apiSrv.BaseURL(), time.Second)
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cards := &memCards{cards: make(map[string]model.NfcCard)}
	catalogCache := &service.CatalogCaching{Catalog: &service.CatalogGeneric{API: client}, Redis: rdb, TTL: time.Hour}
	catalog := catalogCache

	sessions := session.NewManager(session.Deps{
		Members:         client,
		Catalog:         catalog,
		Sales:           &service.SaleGeneric{API: client},
		Cards:           cards,
		AutoLogoutAfter: time.Minute,
	}, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	go sessions.Run(ctx)
	t.Cleanup(cancel)

	srv := httptest.NewServer(Handler(Deps{
		Sessions:         sessions,
		Catalog:          catalog,
		CatalogCache:     catalogCache,
		Cards:            cards,
		Reader:           &nfc.Reader{Redis: rdb},
		RecentCardWithin: 10 * time.Second,
		Pinger:           client,
	}))
	t.Cleanup(srv.Close)

	return &testEnv{Server: srv, api: apiSrv}
}

func (e *testEnv) do(t *testing.T, method, path, sessionID string, body any) *http.Response {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, e.URL+path, r)
	require.NoError(t, err)
	if sessionID != "" {
		req.Header.Set(middleware.SessionHeader, sessionID)
	}

	resp, err := e.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (e *testEnv) newSession(t *testing.T) string {
	t.Helper()

	resp := e.do(t, http.MethodPost, "/api/sessions", "", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == middleware.SessionCookie {
			cookie = c
		}
	}
	got := decode[handler.SessionResp](t, resp)
	require.NotNil(t, cookie)
	assert.Equal(t, got.Session.ID, cookie.Value)
	assert.Equal(t, session.ScreenLogin, got.Session.Screen)

	return got.Session.ID
}

func TestPing(t *testing.T) {
	env := newEnv(t)

	resp := env.do(t, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decode[map[string]string](t, resp)["status"])
}

func TestCatalogRefresh(t *testing.T) {
	env := newEnv(t)

	resp := env.do(t, http.MethodGet, "/api/folders", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]model.Folder](t, resp), 1)

	env.api.AddFolder(model.Folder{ID: 2000, Name: "Snoep", Published: true})

	resp = env.do(t, http.MethodGet, "/api/folders", "", nil)
	assert.Len(t, decode[[]model.Folder](t, resp), 1, "served from the cache")

	resp = env.do(t, http.MethodDelete, "/api/catalog/cache", "", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/folders", "", nil)
	assert.Len(t, decode[[]model.Folder](t, resp), 2)
}

func TestSession_Unknown(t *testing.T) {
	env := newEnv(t)

	resp := env.do(t, http.MethodGet, "/api/session", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/session", "not-a-session", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSession_CheckoutFlow(t *testing.T) {
	env := newEnv(t)
	id := env.newSession(t)

	resp := env.do(t, http.MethodPost, "/api/session/login", id, map[string]string{"username": jan.Username})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[handler.SessionResp](t, resp)
	require.True(t, got.Session.Auth.IsLoggedIn)
	assert.Equal(t, jan.Username, got.Session.Auth.Member.Username)
	assert.Equal(t, session.ScreenFolders, got.Session.Screen)

	resp = env.do(t, http.MethodGet, "/api/folders", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	folders := decode[[]model.Folder](t, resp)
	require.Len(t, folders, 1)
	assert.Equal(t, folderID, folders[0].ID)

	resp = env.do(t, http.MethodGet, fmt.Sprintf("/api/folders/%d/products", folderID), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]model.Product](t, resp), 1)

	resp = env.do(t, http.MethodPost, "/api/session/cart/add", id, map[string]int{"folder_id": folderID, "product_id": cola.ID, "quantity": 2})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got = decode[handler.SessionResp](t, resp)
	require.Len(t, got.Session.Cart, 1)
	assert.Equal(t, 2, got.Session.Cart[0].Quantity)
	assert.Equal(t, model.Cents(140), got.Session.CartTotal)

	resp = env.do(t, http.MethodPost, "/api/session/cart/remove", id, map[string]int{"product_id": cola.ID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got = decode[handler.SessionResp](t, resp)
	assert.Equal(t, 1, got.Session.Cart[0].Quantity)

	resp = env.do(t, http.MethodPost, "/api/session/checkout", id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got = decode[handler.SessionResp](t, resp)
	assert.Empty(t, got.Session.Cart)
	assert.Equal(t, session.ScreenCheckout, got.Session.Screen)
	require.NotNil(t, got.Session.Alert)
	assert.Equal(t, alert.VariantSuccess, got.Session.Alert.Variant)
	assert.NotNil(t, got.Session.AutoLogoutAt)
	assert.NotNil(t, got.Data)

	posts := env.api.Posts()
	require.Len(t, posts, 1)
	assert.Equal(t, jan.ID, posts[0].MemberID)

	resp = env.do(t, http.MethodPost, "/api/session/auto-logout/stop", id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, decode[handler.SessionResp](t, resp).Session.AutoLogoutAt)

	resp = env.do(t, http.MethodPost, "/api/session/logout", id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got = decode[handler.SessionResp](t, resp)
	assert.False(t, got.Session.Auth.IsLoggedIn)
	assert.Equal(t, session.ScreenLogin, got.Session.Screen)

	resp = env.do(t, http.MethodDelete, "/api/session", id, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = env.do(t, http.MethodGet, "/api/session", id, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSession_CheckoutRefused(t *testing.T) {
	env := newEnv(t)
	id := env.newSession(t)

	resp := env.do(t, http.MethodPost, "/api/session/checkout", id, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	got := decode[handler.SessionResp](t, resp)
	require.NotNil(t, got.Session.Alert)
	assert.Equal(t, alert.VariantDanger, got.Session.Alert.Variant)

	resp = env.do(t, http.MethodPost, "/api/session/login", id, map[string]string{"username": jan.Username})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/session/checkout", id, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Empty(t, env.api.Posts())
}

func TestSession_LoginUnknownMember(t *testing.T) {
	env := newEnv(t)
	id := env.newSession(t)

	resp := env.do(t, http.MethodPost, "/api/session/login", id, map[string]string{"username": "s7654321"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[handler.SessionResp](t, resp)
	assert.False(t, got.Session.Auth.IsLoggedIn)
	assert.NotEmpty(t, got.Error)
	require.NotNil(t, got.Session.Alert)
	assert.Equal(t, alert.VariantWarning, got.Session.Alert.Variant)

	resp = env.do(t, http.MethodDelete, "/api/session/alert", id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, decode[handler.SessionResp](t, resp).Session.Alert)
}

func TestSession_Pad(t *testing.T) {
	env := newEnv(t)
	id := env.newSession(t)

	for _, k := range []string{"1", "2", "3", "4", "5", "6", "7"} {
		resp := env.do(t, http.MethodPost, "/api/session/pad/key", id, map[string]string{"key": k})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp := env.do(t, http.MethodPost, "/api/session/pad/key", id, map[string]string{"key": "Enter"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[handler.SessionResp](t, resp)
	assert.True(t, got.Session.Auth.IsLoggedIn)
	assert.Empty(t, got.Session.Pad.Number)
}

func TestSession_ProtectedScreen(t *testing.T) {
	env := newEnv(t)
	id := env.newSession(t)

	resp := env.do(t, http.MethodPost, "/api/session/screen", id, map[string]any{"screen": session.ScreenUser})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, session.ScreenLogin, decode[handler.SessionResp](t, resp).Session.Screen)

	resp = env.do(t, http.MethodPost, "/api/session/screen", id, map[string]any{"screen": "nowhere"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestNfc(t *testing.T) {
	env := newEnv(t)

	resp := env.do(t, http.MethodGet, "/api/nfc/last-connected", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodPut, "/api/nfc/cards/"+jan.Username, "", map[string]string{"card_uid": "04:a2:1b:3c"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "04 A2 1B 3C", decode[model.NfcCard](t, resp).CardUID)

	resp = env.do(t, http.MethodPut, "/api/nfc/cards/s7654321", "", map[string]string{"card_uid": "04 A2 1B 3C"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = env.do(t, http.MethodPut, "/api/nfc/cards/nobody", "", map[string]string{"card_uid": "04 A2"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/nfc/cards", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]model.NfcCard](t, resp), 1)

	resp = env.do(t, http.MethodPost, "/api/nfc/connected", "", map[string]string{"card_uid": "04a21b3c"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[model.ConnectedCard](t, resp).CurrentlyConnected)

	id := env.newSession(t)
	resp = env.do(t, http.MethodPost, "/api/session/login/card", id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[handler.SessionResp](t, resp).Session.Auth.IsLoggedIn)

	resp = env.do(t, http.MethodDelete, "/api/nfc/connected", "", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/nfc/last-connected", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	last := decode[model.ConnectedCard](t, resp)
	assert.Equal(t, "04 A2 1B 3C", last.CardUID)
	assert.False(t, last.CurrentlyConnected)

	resp = env.do(t, http.MethodDelete, "/api/nfc/cards/"+jan.Username, "", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = env.do(t, http.MethodGet, "/api/nfc/cards/"+jan.Username, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNfc_UnregisteredCard(t *testing.T) {
	env := newEnv(t)
	id := env.newSession(t)

	resp := env.do(t, http.MethodPost, "/api/session/login/card", id, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/session/login/card", id, map[string]string{"card_uid": "de ad be ef"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[handler.SessionResp](t, resp)
	assert.False(t, got.Session.Auth.IsLoggedIn)
	require.NotNil(t, got.Session.Alert)
	assert.Equal(t, alert.VariantWarning, got.Session.Alert.Variant)
}
