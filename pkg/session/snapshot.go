package session

import (
	"time"

	"github.com/jellehierck/Streeplijst3/pkg/alert"
	"github.com/jellehierck/Streeplijst3/pkg/auth"
	"github.com/jellehierck/Streeplijst3/pkg/cart"
	"github.com/jellehierck/Streeplijst3/pkg/model"
	"github.com/jellehierck/Streeplijst3/pkg/snumber"
)

// Snapshot is everything a kiosk front-end needs to render the current screen.
type Snapshot struct {
	ID           string        `json:"id"`
	Screen       Screen        `json:"screen"`
	FolderID     int           `json:"folder_id,omitempty"`
	Auth         auth.State    `json:"auth"`
	Cart         []cart.Item   `json:"cart"`
	CartTotal    model.Cents   `json:"cart_total"`
	Alert        *alert.Alert  `json:"alert"`
	Pad          snumber.Input `json:"pad"`
	AutoLogoutAt *time.Time    `json:"auto_logout_at,omitempty"`
}

func (s *Session) Snapshot() Snapshot {
	items := s.Cart.Items()

	snap := Snapshot{
		ID:        s.ID,
		Auth:      s.Auth.State(),
		Cart:      items,
		CartTotal: cart.State(items).Total(),
		Alert:     s.Alert.Current(),
		Pad:       s.Pad.Input(),
	}

	s.mu.Lock()
	snap.Screen = s.screen
	snap.FolderID = s.folderID
	if !s.logoutAt.IsZero() {
		at := s.logoutAt
		snap.AutoLogoutAt = &at
	}
	s.mu.Unlock()

	return snap
}
