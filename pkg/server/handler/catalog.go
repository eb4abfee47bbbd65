package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/jellehierck/Streeplijst3/pkg/api"
	"github.com/jellehierck/Streeplijst3/pkg/service"
)

func FolderList(svc service.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fs, err := svc.Folders(r.Context())
		if err != nil {
			writeError(w, apiStatus(err), err)
			return
		}

		writeJSON(w, http.StatusOK, fs)
	}
}

func FolderProducts(svc service.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		folderID, err := strconv.Atoi(r.PathValue("folderID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("can't parse folder id: %w", err))
			return
		}

		ps, err := svc.Products(r.Context(), folderID)
		if err != nil {
			writeError(w, apiStatus(err), err)
			return
		}

		writeJSON(w, http.StatusOK, ps)
	}
}

type Pinger interface {
	Ping(ctx context.Context) (*api.Ping, error)
}

type pingResp struct {
	Status string `json:"status"`
	API    string `json:"api"`
}

// Ping reports whether the kiosk is up and whether it can reach the API.
func Ping(p Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pong, err := p.Ping(r.Context())
		if err != nil {
			writeJSON(w, http.StatusServiceUnavailable, pingResp{Status: "degraded", API: err.Error()})
			return
		}

		writeJSON(w, http.StatusOK, pingResp{Status: "ok", API: pong.Message})
	}
}

type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// CatalogRefresh drops the cached folders and products, the next request reads them from the API.
func CatalogRefresh(cache Invalidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cache.Invalidate(r.Context()); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
