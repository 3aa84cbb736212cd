package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// inverterStack wires the data service, coordinator and registry of one inverter
type inverterStack struct {
	coordinator *Coordinator
	registry    *Registry
}

func newInverterStack(cfg Config, inverter Inverter, fetcher Fetcher, logger *log.Logger, metrics *refreshMetrics) (*inverterStack, error) {
	service := NewInverterDetailsService(inverter, fetcher, cfg.PollInterval, cfg.Lookback)
	coordinator := NewCoordinator(service, logger, metrics)
	coordinator.SetDebug(cfg.Debug)

	registry := NewRegistry(inverter, map[serviceKind]*Coordinator{
		serviceInverterDetails: coordinator,
	})
	if err := registry.Enable(cfg.EnabledReadings...); err != nil {
		return nil, err
	}
	return &inverterStack{coordinator: coordinator, registry: registry}, nil
}

type inverterStatus struct {
	Name        string     `json:"name"`
	Device      DeviceInfo `json:"device"`
	LastRefresh *time.Time `json:"last_refresh,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
	Readings    []Reading  `json:"readings"`
}

func newServeMux(stacks []*inverterStack, gatherer prometheus.Gatherer) *http.ServeMux {
	mux := http.NewServeMux()

	// Expose metrics endpoint
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Latest readings of every inverter
	mux.HandleFunc("/api/readings", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		statuses := make([]inverterStatus, 0, len(stacks))
		for _, s := range stacks {
			status := inverterStatus{
				Name:     s.registry.Inverter().Name,
				Device:   s.registry.Device(),
				Readings: s.registry.Readings(),
			}
			if last, err := s.coordinator.Status(); !last.IsZero() {
				status.LastRefresh = &last
				if err != nil {
					status.LastError = err.Error()
				}
			}
			statuses = append(statuses, status)
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(statuses); err != nil {
			log.Printf("Error encoding readings: %v", err)
		}
	})

	// Root endpoint with info
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		page := `<!DOCTYPE html>
<html>
<head><title>SolarEdge Exporter</title></head>
<body>
<h1>SolarEdge Prometheus Exporter</h1>
<p>Monitoring %d inverter(s)</p>
<ul>
%s
</ul>
<p><a href="/metrics">Metrics</a> | <a href="/api/readings">Readings</a></p>
</body>
</html>`
		var inverterList strings.Builder
		for _, s := range stacks {
			inv := s.registry.Inverter()
			inverterList.WriteString(fmt.Sprintf("<li>%s: site %s, inverter %s</li>\n",
				html.EscapeString(inv.Name), html.EscapeString(inv.SiteID), html.EscapeString(inv.InverterID)))
		}
		_, _ = fmt.Fprintf(w, page, len(stacks), inverterList.String())
	})

	return mux
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	logger := log.New(os.Stderr, "", log.LstdFlags)

	inverters := cfg.inverters()
	log.Printf("Starting SolarEdge Prometheus Exporter on port %s", cfg.Port)
	log.Printf("Monitoring %d inverter(s), polling every %s:", len(inverters), cfg.PollInterval)
	for _, inv := range inverters {
		log.Printf("  - %s: site %s, inverter %s", inv.Name, inv.SiteID, inv.InverterID)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := newRefreshMetrics(registry)

	client := NewMonitoringClient(cfg.APIURL, cfg.APIKey, cfg.HTTPTimeout)

	stacks := make([]*inverterStack, 0, len(inverters))
	registries := make([]*Registry, 0, len(inverters))
	for _, inv := range inverters {
		stack, err := newInverterStack(cfg, inv, client, logger, metrics)
		if err != nil {
			log.Fatalf("Configuration error: %v", err)
		}
		stacks = append(stacks, stack)
		registries = append(registries, stack.registry)
	}

	// Create and register collector
	registry.MustRegister(NewCollector(registries))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	for _, s := range stacks {
		wg.Add(1)
		go func(c *Coordinator) {
			defer wg.Done()
			// first refresh happens right away; failures are logged and retried on the next tick
			_ = c.Refresh(ctx)
			c.Run(ctx)
		}(s.coordinator)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newServeMux(stacks, registry),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down HTTP server: %v", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("HTTP server error: %v", err)
	}

	wg.Wait()
	log.Printf("Exporter stopped")
}
