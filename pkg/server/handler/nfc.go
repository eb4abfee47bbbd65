package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/jellehierck/Streeplijst3/pkg/database"
	"github.com/jellehierck/Streeplijst3/pkg/model"
	"github.com/jellehierck/Streeplijst3/pkg/nfc"
)

type NfcReader interface {
	Connect(ctx context.Context, cardUID string) (model.ConnectedCard, error)
	Disconnect(ctx context.Context) error
	Last(ctx context.Context) (model.ConnectedCard, error)
}

func NfcCardList(repo database.NfcCardRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cards, err := repo.List(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}

		writeJSON(w, http.StatusOK, cards)
	}
}

func NfcCardGet(repo database.NfcCardRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		card, err := repo.Get(r.Context(), r.PathValue("username"))
		if err != nil {
			writeError(w, databaseStatus(err), err)
			return
		}

		writeJSON(w, http.StatusOK, card)
	}
}

type nfcCardPutReq struct {
	CardUID string `json:"card_uid"`
}

// NfcCardPut binds a card to a username, replacing the card the username had.
func NfcCardPut(repo database.NfcCardRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := strings.ToLower(r.PathValue("username"))
		if err := model.ValidateUsername(username); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		var req nfcCardPutReq
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		uid, err := model.NormalizeCardUID(req.CardUID)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		card, err := repo.Upsert(r.Context(), model.NfcCard{Username: username, CardUID: uid})
		if err != nil {
			writeError(w, databaseStatus(err), err)
			return
		}

		writeJSON(w, http.StatusOK, card)
	}
}

func NfcCardDelete(repo database.NfcCardRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := repo.Delete(r.Context(), r.PathValue("username")); err != nil {
			writeError(w, databaseStatus(err), err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func NfcLastConnected(reader NfcReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		card, err := reader.Last(r.Context())
		switch {
		case errors.Is(err, nfc.ErrNoCard):
			writeError(w, http.StatusNotFound, err)
			return
		case err != nil:
			writeError(w, http.StatusInternalServerError, err)
			return
		}

		writeJSON(w, http.StatusOK, card)
	}
}

type nfcConnectReq struct {
	CardUID string `json:"card_uid"`
}

// NfcConnect is called by the reader daemon when a card is put on the reader.
func NfcConnect(reader NfcReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req nfcConnectReq
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		card, err := reader.Connect(r.Context(), req.CardUID)
		switch {
		case errors.Is(err, model.ErrInvalidCardUID):
			writeError(w, http.StatusBadRequest, err)
			return
		case err != nil:
			writeError(w, http.StatusInternalServerError, err)
			return
		}

		writeJSON(w, http.StatusOK, card)
	}
}

// NfcDisconnect is called by the reader daemon when the card is taken off the reader.
func NfcDisconnect(reader NfcReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := reader.Disconnect(r.Context()); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func databaseStatus(err error) int {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, database.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
