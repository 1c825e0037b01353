/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package main

import (
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"reflect"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/traas-stack/logmatcher/pkg/catalog"
	"github.com/traas-stack/logmatcher/pkg/config"
	"github.com/traas-stack/logmatcher/pkg/generation"
	"github.com/traas-stack/logmatcher/pkg/histogram"
	"github.com/traas-stack/logmatcher/pkg/ingest"
	"github.com/traas-stack/logmatcher/pkg/logger"
	"github.com/traas-stack/logmatcher/pkg/sink"
	"github.com/traas-stack/logmatcher/pkg/snapshot"
	"github.com/traas-stack/logmatcher/pkg/util"
)

// stopComponent is the teacher's cmd/agent shutdown contract: every started
// component registers itself and is stopped, in reverse start order, once
// waitStop observes a termination signal.
type stopComponent interface {
	Stop()
}

type appStruct struct {
	stopComponents []stopComponent
}

func (app *appStruct) addStopComponent(components ...stopComponent) {
	app.stopComponents = append(app.stopComponents, components...)
}

var app = appStruct{}

func serveCmd() *cobra.Command {
	var configDir string
	var httpAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "run the ingest + matcher + generation pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			return bootstrap(configDir, httpAddr)
		},
	}
	cmd.Flags().StringVar(&configDir, "config-dir", ".", "directory to look for logmatcher.yaml/logmatcher.toml")
	cmd.Flags().StringVar(&httpAddr, "http-addr", ":8080", "address to serve /ingest and /metrics on")
	return cmd
}

func bootstrap(configDir, httpAddr string) error {
	begin := time.Now()

	if configDir != "" && configDir != "." {
		if err := os.Chdir(configDir); err != nil {
			return err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := logger.Setup(cfg.LogDir, cfg.DevMode); err != nil {
		return err
	}
	logger.Infoz("[bootstrap] config", zap.Any("config", cfg))

	cat := catalog.New()
	switch {
	case cfg.CatalogCachePath != "":
		if loaded, err := catalog.Load(cfg.CatalogCachePath); err != nil {
			logger.Warnz("[bootstrap] catalog cache load failed, starting empty", zap.Error(err))
		} else {
			cat = loaded
		}
	case cfg.CatalogSqlitePath != "":
		if store, err := catalog.OpenSqliteStore(cfg.CatalogSqlitePath); err != nil {
			logger.Warnz("[bootstrap] sqlite catalog store open failed, starting empty", zap.Error(err))
		} else if loaded, err := catalog.LoadFromStore(store); err != nil {
			logger.Warnz("[bootstrap] sqlite catalog load failed, starting empty", zap.Error(err))
		} else {
			cat = loaded
		}
	}

	holder := snapshot.NewHolder()
	if cat.Len() > 0 {
		snap, rejected, err := snapshot.Build(cat.Templates(), cfg.MinFragmentLength)
		if err != nil {
			logger.Errorz("[bootstrap] initial snapshot build failed", zap.Error(err))
			return err
		}
		for _, r := range rejected {
			logger.Warnz("[bootstrap] template dropped from initial snapshot", zap.String("pattern", r.Pattern))
		}
		if holder.BeginRebuild() {
			holder.CommitInstall(snap)
		}
	}

	var sk *sink.Sink
	if cfg.StoreURL != "" {
		sk = sink.New(sink.Config{
			URL:           cfg.StoreURL,
			Token:         cfg.StoreToken,
			Org:           cfg.StoreOrg,
			Bucket:        cfg.StoreBucket,
			BufferSize:    cfg.BufferSize,
			FlushInterval: cfg.FlushInterval,
			MaxRetries:    cfg.MaxRetries,
		})
		app.addStopComponent(sinkStopper{sk})
	}

	var genClient generation.Client
	if cfg.GeneratorAPIKey != "" {
		genClient = generation.NewOpenAIClient(cfg.GeneratorAPIKey, cfg.GeneratorBaseURL, cfg.GeneratorModel)
	} else {
		genClient = &generation.MockClient{}
	}

	pipeline := generation.NewPipeline(generation.Config{
		QueueSize:         cfg.UnmatchedQueueSize,
		GenBatchSize:      cfg.GenBatchSize,
		GenBatchTimeout:   cfg.GenBatchTimeout,
		MaxConcurrentGen:  cfg.MaxConcurrentGen,
		MaxRetries:        cfg.MaxRetries,
		InitialBackoffMs:  cfg.InitialBackoffMs,
		MinFragmentLength: cfg.MinFragmentLength,
		CatalogCachePath:  cfg.CatalogCachePath,
	}, cat, holder, genClient)
	util.GoWithRecover(pipeline.Run, func(p interface{}) {
		logger.Errorz("[bootstrap] generation pipeline goroutine panicked", zap.Any("panic", p))
	})
	app.addStopComponent(pipelineStopper{pipeline})

	hist := histogram.NewRotator(cfg.BaselineWindow)
	util.GoWithRecover(hist.Run, func(p interface{}) {
		logger.Errorz("[bootstrap] histogram rotator goroutine panicked", zap.Any("panic", p))
	})
	app.addStopComponent(histogramStopper{hist})
	gateway := ingest.New(holder, cfg.FragmentMatchThreshold, sk, pipeline, hist)

	srv := startHTTPServer(httpAddr, gateway)
	app.addStopComponent(httpStopper{srv})

	logger.Infoz("[bootstrap] start success", zap.Int("pid", os.Getpid()), zap.Duration("cost", time.Since(begin)))

	return waitStop()
}

func startHTTPServer(addr string, gateway *ingest.Gateway) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ingest", func(w http.ResponseWriter, r *http.Request) {
		var records []ingestRecord
		if err := json.NewDecoder(r.Body).Decode(&records); err != nil {
			http.Error(w, "malformed request body", http.StatusBadRequest)
			return
		}
		resp := gateway.IngestBatch(toGatewayRecords(records))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorz("[bootstrap] http server stopped", zap.Error(err))
		}
	}()
	return srv
}

type ingestRecord struct {
	Org       string            `json:"org"`
	Message   string            `json:"message"`
	Timestamp time.Time         `json:"timestamp"`
	Dashboard string            `json:"dashboard"`
	Service   string            `json:"service"`
	Host      string            `json:"host"`
	Level     string            `json:"level"`
	Metadata  map[string]string `json:"metadata"`
}

func toGatewayRecords(records []ingestRecord) []ingest.Record {
	out := make([]ingest.Record, len(records))
	for i, r := range records {
		out[i] = ingest.Record{
			Org:       r.Org,
			Message:   r.Message,
			Timestamp: r.Timestamp,
			Dashboard: r.Dashboard,
			Service:   r.Service,
			Host:      r.Host,
			Level:     r.Level,
			Metadata:  r.Metadata,
		}
	}
	return out
}

type sinkStopper struct{ s *sink.Sink }

func (s sinkStopper) Stop() { s.s.Close() }

type pipelineStopper struct{ p *generation.Pipeline }

func (p pipelineStopper) Stop() { p.p.Close() }

type histogramStopper struct{ r *histogram.Rotator }

func (h histogramStopper) Stop() { h.r.Close() }

type httpStopper struct{ srv *http.Server }

func (h httpStopper) Stop() { _ = h.srv.Close() }

func waitStop() error {
	c := make(chan os.Signal, 16)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	sig := <-c
	signal.Stop(c)
	logger.Infoz("[logmatcherd] receive stop signal", zap.String("signal", sig.String()), zap.Int("components", len(app.stopComponents)))

	begin0 := time.Now()
	for i := len(app.stopComponents) - 1; i >= 0; i-- {
		begin := time.Now()
		component := app.stopComponents[i]
		component.Stop()
		logger.Infoz("[logmatcherd] stopped component", zap.Any("type", reflect.TypeOf(component)), zap.Duration("cost", time.Since(begin)))
	}
	logger.Infoz("[logmatcherd] stop done", zap.Duration("cost", time.Since(begin0)))
	return nil
}
