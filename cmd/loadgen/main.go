// Command loadgen drives paced load against a running catalog-api to
// observe cache hit rates and rate limiter behavior under pressure.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"catalog-service/pkg/logging"
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:8080", "base URL of the catalog API")
		rps         = flag.Float64("rps", 50, "target requests per second")
		duration    = flag.Duration("duration", 30*time.Second, "how long to run")
		concurrency = flag.Int("concurrency", 8, "number of workers")
		productID   = flag.Int("product", 1, "product id to read")
	)
	flag.Parse()

	logger := logging.Setup(logging.Config{Level: logging.LevelInfo, Pretty: true, Output: os.Stderr})

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	// One shared pacer keeps the aggregate rate steady regardless of
	// worker count.
	pacer := rate.NewLimiter(rate.Limit(*rps), 1)
	client := &http.Client{Timeout: 5 * time.Second}

	targets := []string{
		fmt.Sprintf("%s/products?limit=10&offset=0", *baseURL),
		fmt.Sprintf("%s/products/%d", *baseURL, *productID),
		fmt.Sprintf("%s/orders?limit=10&offset=0", *baseURL),
	}

	var sent, ok, limited, failed atomic.Int64
	var wg sync.WaitGroup
	start := time.Now()

	for w := 0; w < *concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; ; i++ {
				if err := pacer.Wait(ctx); err != nil {
					return
				}
				url := targets[i%len(targets)]
				resp, err := client.Get(url)
				sent.Add(1)
				if err != nil {
					failed.Add(1)
					continue
				}
				switch {
				case resp.StatusCode == http.StatusTooManyRequests:
					limited.Add(1)
				case resp.StatusCode >= 200 && resp.StatusCode < 300:
					ok.Add(1)
				default:
					failed.Add(1)
				}
				resp.Body.Close()
			}
		}(w)
	}

	wg.Wait()
	elapsed := time.Since(start)

	logger.Info().
		Int64("sent", sent.Load()).
		Int64("ok", ok.Load()).
		Int64("rate_limited", limited.Load()).
		Int64("failed", failed.Load()).
		Float64("actual_rps", float64(sent.Load())/elapsed.Seconds()).
		Dur("elapsed", elapsed).
		Msg("load run complete")
}
