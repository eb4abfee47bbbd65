// Package session composes the state of a single kiosk terminal: the logged in
// member, shopping cart, alert, number pad and the screen that is shown.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/jellehierck/Streeplijst3/pkg/alert"
	"github.com/jellehierck/Streeplijst3/pkg/api"
	"github.com/jellehierck/Streeplijst3/pkg/auth"
	"github.com/jellehierck/Streeplijst3/pkg/cart"
	"github.com/jellehierck/Streeplijst3/pkg/database"
	"github.com/jellehierck/Streeplijst3/pkg/model"
	"github.com/jellehierck/Streeplijst3/pkg/service"
	"github.com/jellehierck/Streeplijst3/pkg/snumber"
	"github.com/jellehierck/Streeplijst3/pkg/stats"
)

var (
	ErrCheckoutInProgress = errors.New("a checkout is already in progress")
	ErrUnknownScreen      = errors.New("unknown screen")
	ErrNoCardLookup       = errors.New("card login is not configured")
)

type Screen string

const (
	ScreenLogin          Screen = "login"
	ScreenFolders        Screen = "folders"
	ScreenFolderProducts Screen = "folder_products"
	ScreenCheckout       Screen = "checkout"
	ScreenUser           Screen = "user"
)

func (s Screen) Valid() bool {
	switch s {
	case ScreenLogin, ScreenFolders, ScreenFolderProducts, ScreenCheckout, ScreenUser:
		return true
	}
	return false
}

type CardLookup interface {
	GetByCard(ctx context.Context, cardUID string) (model.NfcCard, error)
}

// Deps are shared by all sessions.
type Deps struct {
	Members         auth.MemberFinder
	Catalog         service.Catalog
	Sales           service.Sale
	Cards           CardLookup // nil disables card login
	AutoLogoutAfter time.Duration
}

type Session struct {
	ID string

	Auth  *auth.Store
	Cart  *cart.Store
	Alert *alert.Store
	Pad   *snumber.Store

	deps Deps

	mu           sync.Mutex
	screen       Screen
	folderID     int
	checkingOut  bool
	logoutTimer  *time.Timer
	logoutGen    uint64
	logoutAt     time.Time
	lastActivity time.Time
}

func New(id string, deps Deps) *Session {
	if deps.AutoLogoutAfter <= 0 {
		deps.AutoLogoutAfter = 15 * time.Second
	}

	alerts := alert.NewStore()

	return &Session{
		ID:           id,
		Auth:         auth.NewStore(deps.Members, alerts),
		Cart:         cart.NewStore(),
		Alert:        alerts,
		Pad:          snumber.NewStore(),
		deps:         deps,
		screen:       ScreenLogin,
		lastActivity: time.Now(),
	}
}

// Login looks up the member and shows the folders on success. The cart is
// emptied when another member than the one logged in logs in. A failed login
// keeps the logged in member and a pending auto-logout.
func (s *Session) Login(ctx context.Context, username string) (*model.Member, error) {
	s.touch()

	s.mu.Lock()
	armed := s.logoutTimer != nil
	s.stopAutoLogout()
	s.mu.Unlock()

	prev := s.Auth.Member()

	m, err := s.Auth.Login(ctx, username)
	if err != nil {
		if armed {
			s.mu.Lock()
			if s.logoutTimer == nil && s.Auth.IsLoggedIn() {
				s.armAutoLogout()
			}
			s.mu.Unlock()
		}
		return nil, err
	}

	s.mu.Lock()
	if prev == nil || prev.ID != m.ID {
		s.Cart.Empty()
	}
	s.screen = ScreenFolders
	s.folderID = 0
	s.mu.Unlock()

	return m, nil
}

// SubmitPad logs in with the username typed on the pad. The pad is cleared
// whatever the outcome.
func (s *Session) SubmitPad(ctx context.Context) (*model.Member, error) {
	username := s.Pad.String()
	s.Pad.Clear()
	return s.Login(ctx, username)
}

// PressKey handles a key press on the pad. Enter submits the pad.
func (s *Session) PressKey(ctx context.Context, key string) error {
	s.touch()

	a, submit, ok := snumber.KeyAction(key)
	if !ok {
		return nil
	}
	if submit {
		_, err := s.SubmitPad(ctx)
		return err
	}

	s.Pad.Dispatch(a)
	return nil
}

func (s *Session) PadAction(a snumber.Action) snumber.Input {
	s.touch()
	return s.Pad.Dispatch(a)
}

// LoginWithCard logs in the member the card is registered to.
func (s *Session) LoginWithCard(ctx context.Context, cardUID string) (*model.Member, error) {
	s.touch()

	if s.deps.Cards == nil {
		return nil, ErrNoCardLookup
	}

	uid, err := model.NormalizeCardUID(cardUID)
	if err != nil {
		s.Alert.Set(alert.CardNotRegistered(cardUID))
		return nil, err
	}

	card, err := s.deps.Cards.GetByCard(ctx, uid)
	switch {
	case errors.Is(err, database.ErrNotFound):
		s.Alert.Set(alert.CardNotRegistered(uid))
		return nil, fmt.Errorf("%w: %s", model.ErrCardNotRegistered, uid)
	case err != nil:
		s.Alert.Set(alert.UnknownError(err.Error()))
		return nil, fmt.Errorf("can't look up card %s: %w", uid, err)
	}

	return s.Login(ctx, card.Username)
}

// Logout forgets the member, empties the cart and shows the login screen.
func (s *Session) Logout() {
	s.touch()
	s.logout()
}

func (s *Session) logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logoutLocked()
}

// logoutLocked must be called with mu held.
func (s *Session) logoutLocked() {
	s.Auth.Logout()
	s.Cart.Empty()
	s.Pad.Clear()

	s.stopAutoLogout()
	s.screen = ScreenLogin
	s.folderID = 0
}

// AddToCart adds quantity of a product from the catalog to the cart.
func (s *Session) AddToCart(ctx context.Context, folderID, productID, quantity int) error {
	s.touch()

	if !s.Auth.IsLoggedIn() {
		return model.ErrNotLoggedIn
	}

	p, err := s.deps.Catalog.Product(ctx, folderID, productID)
	var apiErr *api.Error
	switch {
	case errors.As(err, &apiErr):
		s.Alert.Set(requestFailedAlert(err))
		return err
	case err != nil:
		return err
	}

	s.Cart.Add(p, quantity)
	return nil
}

// RemoveFromCart takes a single unit of the product out of the cart.
func (s *Session) RemoveFromCart(productID int) {
	s.touch()

	for _, it := range s.Cart.Items() {
		if it.Product.ID == productID {
			s.Cart.Remove(it.Product)
			return
		}
	}
}

func (s *Session) EmptyCart() {
	s.touch()
	s.Cart.Empty()
}

// Checkout submits the cart as a sale of the logged in member. Nothing is sent
// without a member or with an empty cart. The cart is kept if the sale fails,
// on success only the submitted quantities are taken out of it.
func (s *Session) Checkout(ctx context.Context) (*model.SaleInvoice, error) {
	s.touch()

	member := s.Auth.Member()
	if member == nil {
		slog.Error("checkout without a logged in member", slog.String("session", s.ID))
		s.Alert.Set(alert.PostWithoutMember())
		return nil, model.ErrNotLoggedIn
	}

	cur := cart.State(s.Cart.Items())
	items := cur.SaleItems()
	if len(items) == 0 {
		s.Alert.Set(alert.EmptyCart())
		return nil, model.ErrEmptyCart
	}

	s.mu.Lock()
	if s.checkingOut {
		s.mu.Unlock()
		return nil, ErrCheckoutInProgress
	}
	s.checkingOut = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.checkingOut = false
		s.mu.Unlock()
	}()

	req := model.SaleRequest{MemberID: member.ID, Items: items}
	total := cur.Total()

	inv, err := s.deps.Sales.Submit(ctx, req)
	if err != nil {
		s.Alert.Set(checkoutFailedAlert(err))
		return nil, err
	}

	s.Cart.Sold(req.Items)
	s.Alert.Set(alert.SaleSuccessful(member.DisplayName(), req.Quantity(), total))

	s.mu.Lock()
	s.screen = ScreenCheckout
	s.armAutoLogout()
	s.mu.Unlock()

	return inv, nil
}

// StopAutoLogout keeps the member logged in after a sale.
func (s *Session) StopAutoLogout() {
	s.touch()

	s.mu.Lock()
	s.stopAutoLogout()
	s.mu.Unlock()
}

func (s *Session) armAutoLogout() {
	s.stopAutoLogout()

	gen := s.logoutGen
	s.logoutAt = time.Now().Add(s.deps.AutoLogoutAfter)
	s.logoutTimer = time.AfterFunc(s.deps.AutoLogoutAfter, func() { s.autoLogout(gen) })
}

// stopAutoLogout must be called with mu held.
func (s *Session) stopAutoLogout() {
	s.logoutGen++
	s.logoutAt = time.Time{}
	if s.logoutTimer != nil {
		s.logoutTimer.Stop()
		s.logoutTimer = nil
	}
}

// autoLogout checks the generation and logs out under a single lock.
func (s *Session) autoLogout(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.logoutGen {
		return
	}
	s.logoutTimer = nil

	name := ""
	if m := s.Auth.Member(); m != nil {
		name = m.DisplayName()
	}

	s.logoutLocked()
	s.Alert.Set(alert.AutoLogout(name))
	slog.Debug("session logged out automatically", slog.String("session", s.ID))
}

// SetScreen changes the shown screen. Every screen but login needs a member,
// without one the login screen is shown instead.
func (s *Session) SetScreen(screen Screen, folderID int) error {
	s.touch()

	if !screen.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownScreen, screen)
	}

	loggedIn := s.Auth.IsLoggedIn()

	s.mu.Lock()
	defer s.mu.Unlock()

	if screen != ScreenLogin && !loggedIn {
		s.screen = ScreenLogin
		s.folderID = 0
		return model.ErrNotLoggedIn
	}

	s.screen = screen
	s.folderID = 0
	if screen == ScreenFolderProducts {
		s.folderID = folderID
	}
	return nil
}

func (s *Session) HideAlert() {
	s.touch()
	s.Alert.Hide()
}

// Sales returns the sale invoices of the logged in member.
func (s *Session) Sales(ctx context.Context, filter model.SaleFilter) ([]model.SaleInvoice, error) {
	s.touch()

	member := s.Auth.Member()
	if member == nil {
		return nil, model.ErrNotLoggedIn
	}

	invs, err := s.deps.Sales.History(ctx, member.Username, filter)
	if err != nil {
		s.Alert.Set(requestFailedAlert(err))
		return nil, err
	}
	return invs, nil
}

// Statistics returns what the logged in member bought, sorted as requested.
func (s *Session) Statistics(ctx context.Context, by stats.SortBy, descending bool) ([]stats.ProductStat, error) {
	invs, err := s.Sales(ctx, model.SaleFilter{})
	if err != nil {
		return nil, err
	}

	st := stats.Compute(invs)
	stats.Sort(st, by, descending)
	return st, nil
}

func (s *Session) Screen() (Screen, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.screen, s.folderID
}

func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// Close stops all timers of the session and logs the member out.
func (s *Session) Close() {
	s.logout()
	s.Alert.Close()
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

func checkoutFailedAlert(err error) alert.Alert {
	if errors.Is(err, service.ErrLimitExceeded) {
		return alert.LimitExceeded()
	}
	if api.StatusOf(err) == http.StatusBadRequest {
		return alert.ValidationError(err.Error())
	}
	return requestFailedAlert(err)
}

func requestFailedAlert(err error) alert.Alert {
	if api.StatusOf(err) == http.StatusRequestTimeout {
		return alert.Timeout()
	}
	return alert.UnknownError(err.Error())
}
