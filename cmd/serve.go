package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/thinkloop-ai/procure-cli/internal/campaign"
	"github.com/thinkloop-ai/procure-cli/internal/model"
	"github.com/thinkloop-ai/procure-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the campaign HTTP service",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		reg := prometheus.NewRegistry()
		runner, err := buildRunner(cfg, st, reg)
		if err != nil {
			return err
		}

		api := newAPI(ctx, st, runner)
		defer api.Wait()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           buildRouter(api, reg),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

type campaignRunner interface {
	Run(ctx context.Context, in campaign.Input) (*campaign.Report, error)
}

// api serves campaign history and accepts new campaigns. Accepted campaigns
// run in the background under the server context.
type api struct {
	ctx    context.Context
	store  store.Store
	runner campaignRunner
	wg     sync.WaitGroup

	mu      sync.Mutex
	running map[string]struct{}
}

func newAPI(ctx context.Context, st store.Store, runner campaignRunner) *api {
	return &api{ctx: ctx, store: st, runner: runner, running: make(map[string]struct{})}
}

// claim reserves id for a new campaign. It fails while a campaign with the
// same id is running.
func (a *api) claim(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, busy := a.running[id]; busy {
		return false
	}
	a.running[id] = struct{}{}
	return true
}

func (a *api) release(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.running, id)
}

// Wait blocks until every accepted campaign has finished.
func (a *api) Wait() {
	a.wg.Wait()
}

// buildRouter mounts the HTTP routes. A nil gatherer leaves /metrics off.
func buildRouter(a *api, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/campaigns", func(r chi.Router) {
		r.Get("/", a.listCampaigns)
		r.Post("/", a.createCampaign)
		r.Get("/{id}", a.getCampaign)
		r.Get("/{id}/attempts", a.listAttempts)
	})
	return r
}

type createCampaignRequest struct {
	ID        string                   `json:"id"`
	Request   model.ProcurementRequest `json:"request"`
	Suppliers []model.Candidate        `json:"suppliers"`
}

func (a *api) createCampaign(w http.ResponseWriter, r *http.Request) {
	if a.runner == nil {
		writeError(w, http.StatusServiceUnavailable, "outreach not configured")
		return
	}

	var body createCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req := body.Request.Trimmed()
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.Suppliers == nil {
		writeError(w, http.StatusBadRequest, "suppliers is required")
		return
	}

	id := body.ID
	if id == "" {
		id = uuid.NewString()
	}
	if !a.claim(id) {
		writeError(w, http.StatusConflict, "campaign already running")
		return
	}
	if body.ID != "" && a.store != nil {
		if _, err := a.store.GetCampaign(r.Context(), id); err == nil {
			a.release(id)
			writeError(w, http.StatusConflict, "campaign already exists")
			return
		}
	}

	in := campaign.Input{ID: id, Request: req, Candidates: body.Suppliers}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer a.release(id)
		report, err := a.runner.Run(a.ctx, in)
		if err != nil {
			zap.L().Error("api campaign failed", zap.String("campaign_id", id), zap.Error(err))
			return
		}
		zap.L().Info("api campaign complete",
			zap.String("campaign_id", id),
			zap.String("snapshot", report.SnapshotPath),
		)
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status": "accepted",
		"id":     id,
	})
}

func (a *api) listCampaigns(w http.ResponseWriter, r *http.Request) {
	if a.store == nil {
		writeError(w, http.StatusServiceUnavailable, "history store not configured")
		return
	}

	q := r.URL.Query()
	limit, err := queryInt(q.Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	offset, err := queryInt(q.Get("offset"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid offset")
		return
	}
	filter, err := campaignFilter(q.Get("mode"), limit, offset)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := a.store.ListCampaigns(r.Context(), filter)
	if err != nil {
		zap.L().Error("list campaigns", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list campaigns failed")
		return
	}
	if records == nil {
		records = []store.CampaignRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (a *api) getCampaign(w http.ResponseWriter, r *http.Request) {
	if a.store == nil {
		writeError(w, http.StatusServiceUnavailable, "history store not configured")
		return
	}

	rec, err := a.store.GetCampaign(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (a *api) listAttempts(w http.ResponseWriter, r *http.Request) {
	if a.store == nil {
		writeError(w, http.StatusServiceUnavailable, "history store not configured")
		return
	}

	id := chi.URLParam(r, "id")
	if _, err := a.store.GetCampaign(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}
	attempts, err := a.store.ListAttempts(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if attempts == nil {
		attempts = []store.AttemptRecord{}
	}
	writeJSON(w, http.StatusOK, attempts)
}

func queryInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, eris.Errorf("invalid integer %q", s)
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "campaign not found")
		return
	}
	zap.L().Error("store query", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "store query failed")
}
