package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/pprof"
	"sync"
	"time"

	"github.com/fosdem/meshview/lib/config"
	_ "github.com/fosdem/meshview/lib/docs"
	"github.com/fosdem/meshview/lib/metrics"
	"github.com/fosdem/meshview/lib/stats"
	"github.com/gorilla/websocket"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Api struct {
	srv http.Server
	mux *http.ServeMux
	cfg *config.ApiCfg
	log *slog.Logger

	Stats *stats.Stats

	// Shutdown is closed when a client asks the viewer to quit
	Shutdown     chan struct{}
	shutdownOnce sync.Once

	wsMu      sync.Mutex
	wsClients map[*websocket.Conn]bool
}

func New(cfg *config.ApiCfg, s *stats.Stats) *Api {
	a := &Api{}
	a.cfg = cfg
	a.mux = http.NewServeMux()
	a.srv.Addr = cfg.Bind
	a.srv.Handler = a.mux
	a.log = slog.With(slog.String("module", "api"))
	a.Stats = s
	a.Shutdown = make(chan struct{})
	a.wsClients = make(map[*websocket.Conn]bool)
	a.routes()
	return a
}

func (a *Api) routes() {
	if a.cfg.EnableProfiler {
		a.mux.HandleFunc("/prof", a.profileCPU)
	}
	a.mux.HandleFunc("/api/kill", a.suicide)
	a.mux.HandleFunc("/api/stats", a.getStats)
	a.mux.HandleFunc("/api/geometries", a.getGeometries)
	a.mux.HandleFunc("/api/ws", a.handleWebsocket)
	a.mux.Handle("/metrics", metrics.Handler())
	a.mux.Handle("/swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}

func (a *Api) Serve() error {
	return a.srv.ListenAndServe()
}

func (a *Api) Handler() http.Handler {
	return a.mux
}

// ShutdownRequested polls without blocking
func (a *Api) ShutdownRequested() bool {
	if a == nil {
		return false
	}
	select {
	case <-a.Shutdown:
		return true
	default:
		return false
	}
}

func (a *Api) profileCPU(w http.ResponseWriter, _ *http.Request) {
	err := pprof.StartCPUProfile(w)
	if err != nil {
		http.Error(w, fmt.Sprintf("Could not start CPU profile: %s", err), http.StatusInternalServerError)
		return
	}
	time.Sleep(10 * time.Second)
	pprof.StopCPUProfile()
}

// @Summary	Ask the viewer to exit
// @Router		/api/kill [post]
// @Tags		base
// @Success	200	{string}	string	"ok"
func (a *Api) suicide(w http.ResponseWriter, _ *http.Request) {
	a.log.Info("shutting down as per api request")
	a.shutdownOnce.Do(func() { close(a.Shutdown) })
	_, err := fmt.Fprintf(w, "\"ok\"\n")
	if err != nil {
		a.log.Error(fmt.Sprintf("could not write response: %s", err))
		return
	}
}

// @Summary	Render and upload statistics
// @Router		/api/stats [get]
// @Tags		base
// @Produce	json
// @Success	200	{object}	stats.Stats
func (a *Api) getStats(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	encoder := json.NewEncoder(w)
	err := encoder.Encode(a.Stats)
	if err != nil {
		http.Error(w, fmt.Sprintf("could not encode stats: %s", err), http.StatusInternalServerError)
		return
	}
}

// @Summary	List the geometries with their attribute slots
// @Router		/api/geometries [get]
// @Tags		geometry
// @Produce	json
// @Success	200	{array}	geometry.GeometryInfo
func (a *Api) getGeometries(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	list := a.Stats.GeometryList()
	if list == nil {
		_, _ = fmt.Fprint(w, "[]\n")
		return
	}
	err := json.NewEncoder(w).Encode(list)
	if err != nil {
		http.Error(w, fmt.Sprintf("couldn't encode geometries: %s", err), http.StatusInternalServerError)
		return
	}
}

func ServeInBackground(cfg *config.ApiCfg, s *stats.Stats) *Api {
	var theApi *Api
	if cfg != nil {
		theApi = New(cfg, s)

		theApi.log.Info(fmt.Sprintf("starting web server on %s", cfg.Bind))
		go func() {
			err := theApi.Serve()
			if err != nil && err != http.ErrServerClosed {
				theApi.log.Error(fmt.Sprintf("could not start web server: %s", err))
			}
		}()
	}
	return theApi
}
