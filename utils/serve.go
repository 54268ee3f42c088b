package utils

import (
	"context"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/encoding/json"
	"github.com/voxelsplace/gridmap3d/metrics"
	"github.com/voxelsplace/gridmap3d/occupancy"
)

// RunServe loads the grid at path and serves /metrics and /ray on addr
// until ctx is done.
func RunServe(ctx context.Context, conf Config, path, addr string) error {
	g, err := loadGrid(conf, path)
	if err != nil {
		return err
	}
	handler, err := NewServeMux(g, filepath.Base(path))
	if err != nil {
		return err
	}

	logs.WithTag("path", path).
		WithTag("voxels", g.Size()).
		WithTag("workers", g.KeyRays().Workers()).
		Info("serving grid")
	listenAndServe(ctx, &http.Server{Addr: addr, Handler: handler})
	return nil
}

// NewServeMux routes /metrics, /ray and /health for g. The grid's bounds are
// brought up to date first, so that requests only read the store.
func NewServeMux(g *occupancy.Grid, name string) (*http.ServeMux, error) {
	g.Bounds()

	collector := metrics.NewCollector("gridtool", name, g)
	reg := prometheus.NewRegistry()
	if err := reg.Register(collector); err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.Handle("/ray", NewRayHandler(g, collector))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux, nil
}

// RayHandler answers GET /ray?origin=x,y,z&end=x,y,z with a RayResult. Each
// request borrows one buffer of the grid's ray pool, so at most
// KeyRays().Workers() rays are traversed at once.
type RayHandler struct {
	grid      *occupancy.Grid
	collector *metrics.Collector
	workers   chan int
}

func NewRayHandler(g *occupancy.Grid, collector *metrics.Collector) *RayHandler {
	workers := make(chan int, g.KeyRays().Workers())
	for i := 0; i < cap(workers); i++ {
		workers <- i
	}
	return &RayHandler{grid: g, collector: collector, workers: workers}
}

func (h *RayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	origin, err := ParseVec(r.URL.Query().Get("origin"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	end, err := ParseVec(r.URL.Query().Get("end"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var worker int
	select {
	case worker = <-h.workers:
	case <-r.Context().Done():
		return
	}
	defer func() { h.workers <- worker }()

	start := time.Now()
	ray := h.grid.KeyRays().Ray(worker)
	key, hit, err := h.grid.CastRay(origin, end, ray)
	if h.collector != nil {
		h.collector.ObserveRay(start, err)
	}
	if err != nil {
		logs.WithTag("origin", origin).
			WithTag("end", end).
			Debug(err)
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	res := RayResult{Origin: vec3(origin), End: vec3(end), Visited: ray.Len(), Hit: hit}
	if hit {
		k := [3]uint16(key)
		c := vec3(h.grid.Codec().KeyToCoord3(key))
		res.Key, res.Center = &k, &c
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		logs.Warn(errors.New("writing ray response failed").Wrap(err))
	}
}

func listenAndServe(ctx context.Context, servers ...*http.Server) {
	go func() {
		<-ctx.Done()

		for _, s := range servers {
			if err := s.Shutdown(context.Background()); err != nil {
				logs.Warn(errors.New("shutting down the server failed").
					WithTag("addr", s.Addr).
					Wrap(err))
			}
		}
	}()

	var wg sync.WaitGroup

	for _, s := range servers {
		wg.Add(1)

		go func(s *http.Server) {
			defer wg.Done()

			logs.WithTag("addr", s.Addr).Info("starting server")

			switch err := s.ListenAndServe(); err {
			case nil, http.ErrServerClosed, context.Canceled:
				logs.WithTag("addr", s.Addr).Info("stopping server")

			default:
				logs.Warn(errors.New("server stopped").
					WithTag("addr", s.Addr).
					Wrap(err))
			}
		}(s)
	}

	wg.Wait()
}
