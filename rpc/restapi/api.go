package restapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/anyswap/CrossChain-Settlement/internal/settleapi"
	"github.com/gorilla/mux"
)

// API rest api handlers
type API struct {
	svc *settleapi.Service
}

// NewAPI new rest api handlers
func NewAPI(svc *settleapi.Service) *API {
	return &API{svc: svc}
}

func writeResponse(w http.ResponseWriter, resp interface{}, err error) {
	if err == nil {
		jsonData, _ := json.Marshal(resp)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(jsonData)
	} else {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, err.Error())
	}
}

// ServerInfoHandler handler
func (api *API) ServerInfoHandler(w http.ResponseWriter, r *http.Request) {
	res, err := api.svc.GetServerInfo(r.Context())
	writeResponse(w, res, err)
}

// VersionInfoHandler handler
func (api *API) VersionInfoHandler(w http.ResponseWriter, r *http.Request) {
	writeResponse(w, api.svc.GetVersionInfo(), nil)
}

// StatisticsHandler handler
func (api *API) StatisticsHandler(w http.ResponseWriter, r *http.Request) {
	res, err := api.svc.GetStatusCounts(r.Context())
	writeResponse(w, res, err)
}

// GetTransactionHandler handler
func (api *API) GetTransactionHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	res, err := api.svc.GetTransaction(r.Context(), vars["txid"])
	writeResponse(w, res, err)
}

// GetDepositHandler handler
func (api *API) GetDepositHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	res, err := api.svc.GetTransactionByDepositRef(r.Context(), vars["ref"])
	writeResponse(w, res, err)
}
