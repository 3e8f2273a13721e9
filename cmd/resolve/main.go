// Manual resolution tool: geocode one address and print the
// jurisdiction→district mapping. Exit codes: 0 success, 2 geocode
// failure, 3 registry misconfiguration.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/CivicBridge/CB-Districting/internal/boundary"
	"github.com/CivicBridge/CB-Districting/internal/geocoding"
	"github.com/CivicBridge/CB-Districting/internal/metrics"
	"github.com/CivicBridge/CB-Districting/internal/registry"
	"github.com/CivicBridge/CB-Districting/internal/resolution"
)

func main() {
	godotenv.Load(".env.local")

	addressFlag := flag.String("address", "", `address as "<line1>,<city>,<region>,<zip>"`)
	registryPath := flag.String("jurisdictions", envOr("JURISDICTIONS_FILE", "jurisdictions.yaml"), "jurisdiction config file")
	boundaryDir := flag.String("boundaries", envOr("BOUNDARY_DIR", "boundaries"), "boundary file directory")
	flag.Parse()

	addr, err := parseAddress(*addressFlag)
	if err != nil {
		log.Println(err)
		flag.Usage()
		os.Exit(2)
	}

	reg, err := registry.Load(*registryPath)
	if err != nil {
		log.Printf("Registry misconfiguration: %v", err)
		os.Exit(3)
	}

	geocoder, err := geocoding.NewGoogleClient()
	if err != nil {
		log.Printf("Geocoder configuration: %v", err)
		os.Exit(2)
	}

	resolver := &resolution.Resolver{
		Geocoder:   geocoder,
		Registry:   reg,
		Boundaries: boundary.NewStore(boundary.FileSource{Dir: *boundaryDir}),
		Metrics:    metrics.Noop{},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	result, err := resolver.Resolve(ctx, addr)
	if err != nil {
		var geoErr *geocoding.Error
		if errors.As(err, &geoErr) {
			log.Printf("Geocoding failed: %v", err)
			os.Exit(2)
		}
		log.Printf("Resolution failed: %v", err)
		os.Exit(2)
	}

	fmt.Printf("Coordinate: %.6f, %.6f\n\n", result.Coordinate.Lat, result.Coordinate.Lng)

	if len(result.Memberships) == 0 {
		fmt.Println("No jurisdiction contains this address.")
	} else {
		ids := make([]string, 0, len(result.Memberships))
		for id := range result.Memberships {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			a := result.Memberships[id]
			if a.DistrictID != "" {
				fmt.Printf("%-30s %s (district %s)\n", id, a.JurisdictionName, a.DistrictID)
			} else {
				fmt.Printf("%-30s %s\n", id, a.JurisdictionName)
			}
		}
	}

	if len(result.Unresolved) > 0 {
		fmt.Println()
		for id, err := range result.Unresolved {
			fmt.Printf("unresolved: %s: %v\n", id, err)
		}
	}
}

func parseAddress(s string) (geocoding.Address, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geocoding.Address{}, fmt.Errorf(`address must be "<line1>,<city>,<region>,<zip>"`)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return geocoding.Address{
		Line1:      parts[0],
		City:       parts[1],
		Region:     parts[2],
		PostalCode: parts[3],
	}, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
