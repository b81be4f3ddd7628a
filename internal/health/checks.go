package health

import (
	"fmt"
	"time"

	"github.com/aaravmahajanofficial/productboard/internal/config"
	"github.com/hellofresh/health-go/v5"
	healthHttp "github.com/hellofresh/health-go/v5/checks/http"
	healthRedis "github.com/hellofresh/health-go/v5/checks/redis"
)

const Version = "1.0.0"

// NewHealthHandler checks the products API and, when caching is on, Redis.
func NewHealthHandler(cfg *config.Config) (*health.Health, error) {

	checks := []health.Config{
		{
			Name:      "products-api",
			Timeout:   cfg.API.Timeout,
			SkipOnErr: false,
			Check: healthHttp.New(healthHttp.Config{
				URL:            cfg.API.ProductsURL(),
				RequestTimeout: cfg.API.Timeout,
			}),
		},
	}

	if cfg.Cache.Enabled {
		checks = append(checks, health.Config{
			Name:    "redis",
			Timeout: 2 * time.Second,
			// the board keeps working without its cache
			SkipOnErr: true,
			Check: healthRedis.New(healthRedis.Config{
				DSN: cfg.RedisConnect.GetDSN(),
			}),
		})
	}

	h, err := health.New(
		health.WithComponent(health.Component{
			Name:    cfg.Otel.ServiceName,
			Version: Version,
		}),
		health.WithSystemInfo(),
		health.WithChecks(checks...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create health instance: %w", err)
	}

	return h, nil
}
