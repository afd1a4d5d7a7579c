package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/didip/tollbooth/v6"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/rpc/v2"
	rpcjson "github.com/gorilla/rpc/v2/json2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/anyswap/CrossChain-Settlement/internal/settleapi"
	"github.com/anyswap/CrossChain-Settlement/log"
	"github.com/anyswap/CrossChain-Settlement/params"
	"github.com/anyswap/CrossChain-Settlement/rpc/restapi"
	"github.com/anyswap/CrossChain-Settlement/rpc/rpcapi"
)

// RPCServiceName json rpc methods are named 'settle.<Method>'
const RPCServiceName = "settle"

// StartAPIServer start api server, it is shut down when ctx is done
func StartAPIServer(ctx context.Context, svc *settleapi.Service) *http.Server {
	apiPort := params.GetAPIPort()
	apiServer := params.GetServerConfig().APIServer
	allowedOrigins := apiServer.AllowedOrigins

	log.Info("JSON RPC service listen and serving", "port", apiPort, "allowedOrigins", allowedOrigins, "maxRequestsLimit", apiServer.MaxRequestsLimit)
	svr := &http.Server{
		Addr:         fmt.Sprintf(":%v", apiPort),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		Handler:      NewHandler(svc, allowedOrigins, apiServer.MaxRequestsLimit),
	}
	go func() {
		if err := svr.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("ListenAndServe error", "err", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := svr.Shutdown(shutdownCtx); err != nil {
			log.Warn("api server shutdown error", "err", err)
		}
	}()
	return svr
}

// NewHandler router wrapped with cors and rate limit.
// maxRequestsLimit is requests per second per client, zero disables it.
func NewHandler(svc *settleapi.Service, allowedOrigins []string, maxRequestsLimit float64) http.Handler {
	corsOptions := []handlers.CORSOption{
		handlers.AllowedMethods([]string{"GET", "POST"}),
	}
	if len(allowedOrigins) != 0 {
		corsOptions = append(corsOptions,
			handlers.AllowedHeaders([]string{"X-Requested-With", "Content-Type"}),
			handlers.AllowedOrigins(allowedOrigins),
		)
	}
	var handler http.Handler = initRouter(svc)
	if maxRequestsLimit > 0 {
		lmt := tollbooth.NewLimiter(maxRequestsLimit, nil)
		lmt.SetMessage("too many requests")
		handler = tollbooth.LimitHandler(lmt, handler)
	}
	return handlers.CORS(corsOptions...)(handler)
}

func initRouter(svc *settleapi.Service) *mux.Router {
	r := mux.NewRouter()

	rpcserver := rpc.NewServer()
	rpcserver.RegisterCodec(rpcjson.NewCodec(), "application/json")
	_ = rpcserver.RegisterService(rpcapi.NewRPCAPI(svc), RPCServiceName)

	rest := restapi.NewAPI(svc)

	r.Handle("/rpc", rpcserver)
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/serverinfo", rest.ServerInfoHandler).Methods("GET")
	r.HandleFunc("/versioninfo", rest.VersionInfoHandler).Methods("GET")
	r.HandleFunc("/statistics", rest.StatisticsHandler).Methods("GET")
	r.HandleFunc("/tx/{txid}", rest.GetTransactionHandler).Methods("GET")
	r.HandleFunc("/deposit/{ref}", rest.GetDepositHandler).Methods("GET")

	methodsExcluesGet := []string{"POST", "HEAD", "PUT", "DELETE", "CONNECT", "OPTIONS", "TRACE", "PATCH"}

	r.HandleFunc("/metrics", warnHandler).Methods(methodsExcluesGet...)
	r.HandleFunc("/serverinfo", warnHandler).Methods(methodsExcluesGet...)
	r.HandleFunc("/versioninfo", warnHandler).Methods(methodsExcluesGet...)
	r.HandleFunc("/statistics", warnHandler).Methods(methodsExcluesGet...)
	r.HandleFunc("/tx/{txid}", warnHandler).Methods(methodsExcluesGet...)
	r.HandleFunc("/deposit/{ref}", warnHandler).Methods(methodsExcluesGet...)

	return r
}

func warnHandler(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, "Forbid '%v' on '%v'\n", r.Method, r.RequestURI)
}
