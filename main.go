package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/CivicBridge/CB-Districting/internal/accounts"
	"github.com/CivicBridge/CB-Districting/internal/batch"
	"github.com/CivicBridge/CB-Districting/internal/boundary"
	"github.com/CivicBridge/CB-Districting/internal/db"
	"github.com/CivicBridge/CB-Districting/internal/geocoding"
	"github.com/CivicBridge/CB-Districting/internal/metrics"
	"github.com/CivicBridge/CB-Districting/internal/middleware"
	"github.com/CivicBridge/CB-Districting/internal/registry"
	"github.com/CivicBridge/CB-Districting/internal/resolution"
	"github.com/CivicBridge/CB-Districting/internal/webhooks"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "Server is up!")
}

func main() {
	_ = godotenv.Load(".env.local")
	db.Connect()

	if err := accounts.Setup(db.DB); err != nil {
		log.Fatal("Failed to set up accounts store: ", err)
	}

	// Registry misconfiguration is the one startup-fatal condition.
	registryPath := os.Getenv("JURISDICTIONS_FILE")
	if registryPath == "" {
		registryPath = "jurisdictions.yaml"
	}
	reg, err := registry.Load(registryPath)
	if err != nil {
		log.Fatal("Failed to load jurisdiction registry: ", err)
	}
	log.Printf("Loaded %d jurisdictions from %s", len(reg.List()), registryPath)

	source := boundarySource()
	geocoder := buildGeocoder()

	promReg := prometheus.NewRegistry()
	collector := metrics.NewPromCollector(promReg)

	resolver := &resolution.Resolver{
		Geocoder:   geocoder,
		Registry:   reg,
		Boundaries: boundary.NewStore(source),
		Metrics:    collector,
	}

	processor := &batch.Processor{
		Resolver:    resolver,
		Accounts:    &accounts.GormStore{DB: db.DB},
		Metrics:     collector,
		Concurrency: envInt("RESOLVE_CONCURRENCY", 4),
		Limiter:     rate.NewLimiter(rate.Limit(envInt("GEOCODE_RATE_PER_SEC", 10)), 1),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestLogger)
	r.Get("/", RootHandler)
	r.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
	r.Mount("/webhooks", webhooks.SetupRoutes(&webhooks.Handler{Processor: processor}))

	port := os.Getenv("PORT")
	if port == "" {
		port = "5050"
	}
	log.Printf("Server listening on port :%s...", port)
	if err := http.ListenAndServe("0.0.0.0:"+port, r); err != nil {
		log.Fatal(err)
	}
}

// boundarySource picks S3 when a bucket is configured, local files
// otherwise.
func boundarySource() boundary.Source {
	if os.Getenv("BOUNDARY_S3_BUCKET") != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		src, err := boundary.S3SourceFromEnv(ctx)
		if err != nil {
			log.Fatal("Failed to configure S3 boundary source: ", err)
		}
		return src
	}

	dir := os.Getenv("BOUNDARY_DIR")
	if dir == "" {
		dir = "boundaries"
	}
	return boundary.FileSource{Dir: dir}
}

// buildGeocoder wires the Google client, fronted by a Redis cache when
// REDIS_ADDR is set.
func buildGeocoder() geocoding.Geocoder {
	client, err := geocoding.NewGoogleClient()
	if err != nil {
		log.Fatal("Failed to configure geocoder: ", err)
	}

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return client
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	log.Printf("Geocode caching enabled via redis at %s", addr)
	return geocoding.NewCachedGeocoder(client, rdb, 0)
}

func envInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
		log.Printf("Ignoring invalid %s=%q, using %d", key, os.Getenv(key), fallback)
	}
	return fallback
}
