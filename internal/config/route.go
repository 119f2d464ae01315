package config

import (
	"os"
	"strconv"
	"time"
)

const (
	routeSeedEnv       = "ROUTE_SEED"
	routePlannerURLEnv = "ROUTE_PLANNER_URL"
)

type RouteConfig struct {
	// PlannerURL points at a remote transit planner. Empty selects the mock planner.
	PlannerURL string
	// Seed feeds the mock route planner; unset means seeded from the clock.
	Seed uint64
}

func LoadRouteConfig() *RouteConfig {
	seed := uint64(time.Now().UnixNano())
	if v := os.Getenv(routeSeedEnv); v != "" {
		if parsed, err := strconv.ParseUint(v, 10, 64); err == nil {
			seed = parsed
		}
	}

	return &RouteConfig{
		PlannerURL: os.Getenv(routePlannerURLEnv),
		Seed:       seed,
	}
}
