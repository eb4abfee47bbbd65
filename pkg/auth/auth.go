// Package auth keeps track of the member logged in on a kiosk terminal.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/jellehierck/Streeplijst3/pkg/alert"
	"github.com/jellehierck/Streeplijst3/pkg/api"
	"github.com/jellehierck/Streeplijst3/pkg/model"
)

// ErrSuperseded is returned by a login whose result arrived after a newer login or a logout.
var ErrSuperseded = errors.New("login superseded")

type MemberFinder interface {
	MemberByUsername(ctx context.Context, username string) (*model.Member, error)
}

type Alerter interface {
	Set(a alert.Alert)
	Hide()
}

type State struct {
	Member     *model.Member `json:"member"`
	IsLoggedIn bool          `json:"is_logged_in"`
	IsFetching bool          `json:"is_fetching"`
}

type Store struct {
	finder MemberFinder
	alerts Alerter

	mu     sync.Mutex
	member *model.Member
	gen    uint64
	cancel context.CancelFunc
	nextID int
	subs   map[int]func(State)
}

func NewStore(finder MemberFinder, alerts Alerter) *Store {
	return &Store{
		finder: finder,
		alerts: alerts,
		subs:   make(map[int]func(State)),
	}
}

// Login looks up username and logs the member in. A lookup still in flight is
// canceled and its result ignored. On failure the logged in member is kept and
// exactly one alert describes the failure.
func (s *Store) Login(ctx context.Context, username string) (*model.Member, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		s.alerts.Set(alert.UsernameNotFound(username, "Geen gebruikersnaam ingevuld."))
		return nil, fmt.Errorf("%w: empty username", model.ErrInvalidUsername)
	}
	if err := model.ValidateUsername(username); err != nil {
		s.alerts.Set(alert.UsernameNotFound(username, "Dit is geen geldig studentnummer."))
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.invalidate()
	s.gen++
	gen := s.gen
	s.cancel = cancel
	s.mu.Unlock()
	s.publish()

	member, err := s.finder.MemberByUsername(ctx, username)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		slog.Debug("dropping stale member lookup", slog.String("username", username))
		return nil, ErrSuperseded
	}
	s.cancel = nil
	if err == nil {
		s.member = member
	}
	s.mu.Unlock()

	if err != nil {
		s.alerts.Set(loginFailedAlert(username, err))
		s.publish()
		return nil, fmt.Errorf("can't find member %s: %w", username, err)
	}

	s.alerts.Hide()
	s.publish()
	return member, nil
}

// Logout forgets the member and any lookup in flight.
func (s *Store) Logout() {
	s.mu.Lock()
	changed := s.member != nil || s.cancel != nil
	s.invalidate()
	s.gen++
	s.member = nil
	s.mu.Unlock()

	if changed {
		s.publish()
	}
}

func (s *Store) Member() *model.Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.member
}

func (s *Store) IsLoggedIn() bool {
	return s.Member() != nil
}

func (s *Store) IsFetching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state()
}

func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) state() State {
	return State{
		Member:     s.member,
		IsLoggedIn: s.member != nil,
		IsFetching: s.cancel != nil,
	}
}

func (s *Store) invalidate() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Store) publish() {
	s.mu.Lock()
	state := s.state()
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(state)
	}
}

func loginFailedAlert(username string, err error) alert.Alert {
	switch api.StatusOf(err) {
	case http.StatusNotFound:
		return alert.UsernameNotFound(username, err.Error())
	case http.StatusRequestTimeout:
		return alert.Timeout()
	}
	return alert.UnknownError(err.Error())
}
