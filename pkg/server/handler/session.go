package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/jellehierck/Streeplijst3/pkg/model"
	"github.com/jellehierck/Streeplijst3/pkg/server/middleware"
	"github.com/jellehierck/Streeplijst3/pkg/session"
	"github.com/jellehierck/Streeplijst3/pkg/snumber"
	"github.com/jellehierck/Streeplijst3/pkg/stats"
)

func SessionCreate(sessions *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := sessions.Create()

		http.SetCookie(w, &http.Cookie{
			Name:     middleware.SessionCookie,
			Value:    s.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
		})

		writeJSON(w, http.StatusCreated, SessionResp{Session: s.Snapshot()})
	}
}

func SessionGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeSession(w, currentSession(r), nil, nil)
	}
}

func SessionClose(sessions *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := sessions.Close(currentSession(r).ID); err != nil {
			writeError(w, http.StatusNotFound, err)
			return
		}

		http.SetCookie(w, &http.Cookie{Name: middleware.SessionCookie, Path: "/", MaxAge: -1})
		w.WriteHeader(http.StatusNoContent)
	}
}

type loginReq struct {
	Username string `json:"username"`
}

func SessionLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginReq
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		s := currentSession(r)
		_, err := s.Login(r.Context(), req.Username)
		writeSession(w, s, nil, err)
	}
}

type cardLoginReq struct {
	CardUID string `json:"card_uid"`
}

// CardReader returns the card on the reader if it was put there recently.
type CardReader func(r *http.Request) (uid string, ok bool, err error)

// SessionLoginCard logs in with the given card, or with the card that was put on
// the reader recently if none is given.
func SessionLoginCard(reader CardReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req cardLoginReq
		if r.ContentLength != 0 {
			if err := decodeJSON(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
		}

		if req.CardUID == "" {
			if reader == nil {
				writeError(w, http.StatusBadRequest, errors.New("no card_uid given and no reader configured"))
				return
			}

			uid, ok, err := reader(r)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
			if !ok {
				writeError(w, http.StatusConflict, errors.New("no card was put on the reader recently"))
				return
			}
			req.CardUID = uid
		}

		s := currentSession(r)
		_, err := s.LoginWithCard(r.Context(), req.CardUID)
		writeSession(w, s, nil, err)
	}
}

func SessionLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := currentSession(r)
		s.Logout()
		writeSession(w, s, nil, nil)
	}
}

func SessionPad() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var a snumber.Action
		if err := decodeJSON(r, &a); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		s := currentSession(r)
		s.PadAction(a)
		writeSession(w, s, nil, nil)
	}
}

type keyReq struct {
	Key string `json:"key"`
}

func SessionPadKey() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req keyReq
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		s := currentSession(r)
		err := s.PressKey(r.Context(), req.Key)
		writeSession(w, s, nil, err)
	}
}

type cartAddReq struct {
	FolderID  int  `json:"folder_id"`
	ProductID int  `json:"product_id"`
	Quantity  *int `json:"quantity"`
}

func CartAdd() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req cartAddReq
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		quantity := 1
		if req.Quantity != nil {
			quantity = *req.Quantity
		}

		s := currentSession(r)
		err := s.AddToCart(r.Context(), req.FolderID, req.ProductID, quantity)
		writeSession(w, s, nil, err)
	}
}

type cartRemoveReq struct {
	ProductID int `json:"product_id"`
}

func CartRemove() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req cartRemoveReq
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		s := currentSession(r)
		s.RemoveFromCart(req.ProductID)
		writeSession(w, s, nil, nil)
	}
}

func CartEmpty() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := currentSession(r)
		s.EmptyCart()
		writeSession(w, s, nil, nil)
	}
}

func Checkout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := currentSession(r)

		inv, err := s.Checkout(r.Context())
		if err != nil {
			writeSession(w, s, nil, err)
			return
		}
		writeSession(w, s, inv, nil)
	}
}

func AlertHide() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := currentSession(r)
		s.HideAlert()
		writeSession(w, s, nil, nil)
	}
}

func AutoLogoutStop() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := currentSession(r)
		s.StopAutoLogout()
		writeSession(w, s, nil, nil)
	}
}

type screenReq struct {
	Screen   session.Screen `json:"screen"`
	FolderID int            `json:"folder_id"`
}

func SessionScreen() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req screenReq
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		s := currentSession(r)
		err := s.SetScreen(req.Screen, req.FolderID)
		writeSession(w, s, nil, err)
	}
}

func SessionSales() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := saleFilter(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		s := currentSession(r)
		invs, err := s.Sales(r.Context(), filter)
		if err != nil {
			writeSession(w, s, nil, err)
			return
		}
		writeSession(w, s, invs, nil)
	}
}

func SessionStatistics() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		by, err := stats.ParseSortBy(q.Get("sort"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		// name sorts ascending unless asked otherwise, the others descending
		descending := by != stats.SortByName
		switch o := q.Get("order"); o {
		case "":
		case "asc":
			descending = false
		case "desc":
			descending = true
		default:
			writeError(w, http.StatusBadRequest, fmt.Errorf("order must be asc or desc, got %q", o))
			return
		}

		s := currentSession(r)
		st, err := s.Statistics(r.Context(), by, descending)
		if err != nil {
			writeSession(w, s, nil, err)
			return
		}
		writeSession(w, s, st, nil)
	}
}

func saleFilter(r *http.Request) (model.SaleFilter, error) {
	q := r.URL.Query()

	f := model.SaleFilter{
		InvoiceStatus: q.Get("invoice_status"),
		InvoiceType:   q.Get("invoice_type"),
		PeriodFilter:  q.Get("period_filter"),
		Order:         q.Get("order"),
	}

	for _, v := range q["product_offer_id"] {
		id, err := strconv.Atoi(v)
		if err != nil {
			return model.SaleFilter{}, fmt.Errorf("can't parse product_offer_id: %w", err)
		}
		f.ProductOfferIDs = append(f.ProductOfferIDs, id)
	}

	return f, nil
}
