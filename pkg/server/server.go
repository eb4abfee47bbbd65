package server

import (
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jellehierck/Streeplijst3/pkg/database"
	"github.com/jellehierck/Streeplijst3/pkg/nfc"
	"github.com/jellehierck/Streeplijst3/pkg/server/handler"
	"github.com/jellehierck/Streeplijst3/pkg/server/middleware"
	"github.com/jellehierck/Streeplijst3/pkg/service"
	"github.com/jellehierck/Streeplijst3/pkg/session"
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 10 * time.Second
	// a checkout waits for the membership API, keep this above its timeout
	writeTimeout = 30 * time.Second
	idleTimeout  = 2 * time.Minute
)

type Deps struct {
	Sessions         *session.Manager
	Catalog          service.Catalog
	CatalogCache     handler.Invalidator // nil when the catalog is not cached
	Cards            database.NfcCardRepository
	Reader           *nfc.Reader
	RecentCardWithin time.Duration
	Pinger           handler.Pinger
}

func New(addr string, deps Deps) (*http.Server, error) {
	return &http.Server{
		Addr:              addr,
		Handler:           Handler(deps),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}, nil
}

// Handler returns the routes of the kiosk back-end with the middleware applied.
func Handler(deps Deps) http.Handler {
	mux := http.NewServeMux()
	sess := middleware.Session(deps.Sessions)

	mux.Handle("GET /ping", handler.Ping(deps.Pinger))

	mux.Handle("POST /api/sessions", handler.SessionCreate(deps.Sessions))
	mux.Handle("GET /api/session", sess(handler.SessionGet()))
	mux.Handle("DELETE /api/session", sess(handler.SessionClose(deps.Sessions)))
	mux.Handle("POST /api/session/login", sess(handler.SessionLogin()))
	mux.Handle("POST /api/session/login/card", sess(handler.SessionLoginCard(recentCard(deps.Reader, deps.RecentCardWithin))))
	mux.Handle("POST /api/session/logout", sess(handler.SessionLogout()))
	mux.Handle("POST /api/session/pad", sess(handler.SessionPad()))
	mux.Handle("POST /api/session/pad/key", sess(handler.SessionPadKey()))
	mux.Handle("POST /api/session/cart/add", sess(handler.CartAdd()))
	mux.Handle("POST /api/session/cart/remove", sess(handler.CartRemove()))
	mux.Handle("DELETE /api/session/cart", sess(handler.CartEmpty()))
	mux.Handle("POST /api/session/checkout", sess(handler.Checkout()))
	mux.Handle("DELETE /api/session/alert", sess(handler.AlertHide()))
	mux.Handle("POST /api/session/auto-logout/stop", sess(handler.AutoLogoutStop()))
	mux.Handle("POST /api/session/screen", sess(handler.SessionScreen()))
	mux.Handle("GET /api/session/sales", sess(handler.SessionSales()))
	mux.Handle("GET /api/session/statistics", sess(handler.SessionStatistics()))

	mux.Handle("GET /api/folders", handler.FolderList(deps.Catalog))
	mux.Handle("GET /api/folders/{folderID}/products", handler.FolderProducts(deps.Catalog))
	if deps.CatalogCache != nil {
		mux.Handle("DELETE /api/catalog/cache", handler.CatalogRefresh(deps.CatalogCache))
	}

	if deps.Cards != nil {
		mux.Handle("GET /api/nfc/cards", handler.NfcCardList(deps.Cards))
		mux.Handle("GET /api/nfc/cards/{username}", handler.NfcCardGet(deps.Cards))
		mux.Handle("PUT /api/nfc/cards/{username}", handler.NfcCardPut(deps.Cards))
		mux.Handle("DELETE /api/nfc/cards/{username}", handler.NfcCardDelete(deps.Cards))
	}
	if deps.Reader != nil {
		mux.Handle("GET /api/nfc/last-connected", handler.NfcLastConnected(deps.Reader))
		mux.Handle("POST /api/nfc/connected", handler.NfcConnect(deps.Reader))
		mux.Handle("DELETE /api/nfc/connected", handler.NfcDisconnect(deps.Reader))
	}

	chain := middleware.Chain{
		middleware.Log,
		middleware.Recovery,
	}

	return otelhttp.NewHandler(chain.Then(mux), "streeplijst")
}

func recentCard(reader *nfc.Reader, within time.Duration) handler.CardReader {
	if reader == nil {
		return nil
	}

	return func(r *http.Request) (string, bool, error) {
		card, ok, err := reader.ConnectedRecently(r.Context(), within)
		if err != nil || !ok {
			return "", false, err
		}
		return card.CardUID, true, nil
	}
}
