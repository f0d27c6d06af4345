// Command loadgen drives a running ISUUMO API with a Zipf-skewed request mix
// and writes per-request samples and a latency summary.
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mohammed-shakir/isuumo/internal/catalog"
	"github.com/mohammed-shakir/isuumo/internal/core/httpclient"
	"github.com/mohammed-shakir/isuumo/internal/logger"
)

type Config struct {
	BaseURL        string
	Concurrency    int
	Duration       time.Duration
	ZipfS          float64
	ZipfV          float64
	PoolSize       int
	MaxID          int64
	OutputPrefix   string
	RequestTimeout time.Duration
	Initialize     bool
	ConditionDir   string
}

func loadConfig() Config {
	var cfg Config
	flag.StringVar(&cfg.BaseURL, "target", "http://localhost:1323", "API base URL")
	flag.IntVar(&cfg.Concurrency, "concurrency", 32, "Concurrent workers")
	flag.DurationVar(&cfg.Duration, "duration", 60*time.Second, "Test duration")
	flag.Float64Var(&cfg.ZipfS, "zipf-s", 1.3, "Zipf parameter s (>1)")
	flag.Float64Var(&cfg.ZipfV, "zipf-v", 1.0, "Zipf parameter v (>=1)")
	flag.IntVar(&cfg.PoolSize, "pool", 512, "Distinct requests in pool")
	flag.Int64Var(&cfg.MaxID, "max-id", 10000, "Highest chair/estate id to request")
	flag.StringVar(&cfg.OutputPrefix, "out", "results/loadgen", "Output file prefix (JSON/CSV)")
	flag.DurationVar(&cfg.RequestTimeout, "timeout", 10*time.Second, "Per-request timeout")
	flag.BoolVar(&cfg.Initialize, "init", false, "POST /initialize before the run")
	flag.StringVar(&cfg.ConditionDir, "conditions", "", "Directory with search condition JSON (embedded when empty)")
	flag.Parse()
	return cfg
}

type sample struct {
	Timestamp time.Time
	Name      string
	Latency   time.Duration
	Status    int
	ErrorMsg  string
}

func (s sample) ok() bool {
	// 404 on detail/buy is an expected answer for random ids.
	return s.ErrorMsg == "" && (s.Status/100 == 2 || s.Status == http.StatusNotFound)
}

func main() {
	os.Exit(run())
}

func run() int {
	cfg := loadConfig()
	zl := logger.Build(logger.Config{Level: "info", Console: true, Component: "loadgen"}, os.Stderr)
	log := logger.NewSlog(&zl)

	cat, err := catalog.Load(cfg.ConditionDir)
	if err != nil {
		log.Error("load conditions", "err", err)
		return 1
	}
	if cfg.MaxID < 1 {
		cfg.MaxID = 1
	}

	seed := time.Now().UnixNano()
	p := makePool(cat, cfg.PoolSize, cfg.MaxID, defaultMix, rand.New(rand.NewSource(seed)))
	if len(p.reqs) == 0 {
		log.Error("empty request pool")
		return 1
	}

	client := httpclient.NewOutbound(httpclient.Options{
		Timeout:         cfg.RequestTimeout,
		MaxIdleConns:    1024,
		MaxConnsPerHost: 256,
	})
	base := strings.TrimRight(cfg.BaseURL, "/")

	if cfg.Initialize {
		req, _ := http.NewRequest(http.MethodPost, base+"/initialize", nil)
		resp, err := client.Do(req)
		if err != nil {
			log.Error("initialize", "err", err)
			return 1
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			log.Error("initialize", "status", resp.StatusCode)
			return 1
		}
	}

	if err := os.MkdirAll(filepath.Dir(cfg.OutputPrefix), 0o750); err != nil {
		log.Error("mkdir results", "err", err)
		return 1
	}
	prefix := fmt.Sprintf("%s_%s", cfg.OutputPrefix, time.Now().UTC().Format("20060102_150405Z"))
	csvPath, jsonPath := prefix+"_samples.csv", prefix+"_summary.json"
	csvFile, err := os.Create(filepath.Clean(csvPath))
	if err != nil {
		log.Error("open csv", "err", err)
		return 1
	}
	defer func() { _ = csvFile.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	samples := make(chan sample, 4096)
	done := make(chan *collector, 1)
	go func() {
		c := newCollector(csv.NewWriter(csvFile))
		for s := range samples {
			c.add(s)
		}
		if err := c.flush(); err != nil {
			log.Warn("csv flush", "err", err)
		}
		done <- c
	}()

	start := time.Now()
	log.Info("loadgen start", "target", base, "duration", cfg.Duration, "concurrency", cfg.Concurrency,
		"zipf_s", cfg.ZipfS, "zipf_v", cfg.ZipfV, "pool", len(p.reqs))

	var wg sync.WaitGroup
	imax := uint64(len(p.reqs) - 1)
	for w := range cfg.Concurrency {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			zipf := rand.NewZipf(rand.New(rand.NewSource(seed+int64(id)+1)), cfg.ZipfS, cfg.ZipfV, imax)
			for ctx.Err() == nil {
				v := zipf.Uint64()
				if v > uint64(math.MaxInt) {
					continue
				}
				s := send(ctx, client, base, p.reqs[int(v)])
				select {
				case samples <- s:
				case <-ctx.Done():
					return
				}
			}
		}(w)
	}

	go func() {
		<-ctx.Done()
		wg.Wait()
		close(samples)
	}()

	c := <-done
	sum := c.summary(start, time.Now(), cfg)

	if f, err := os.Create(filepath.Clean(jsonPath)); err == nil {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		_ = enc.Encode(sum)
		_ = f.Close()
	}

	log.Info("loadgen done", "total", sum.TotalRequests, "success", sum.SuccessCount, "errors", sum.ErrorCount,
		"rps", sum.ThroughputRPS, "p50_ms", sum.P50Ms, "p95_ms", sum.P95Ms, "p99_ms", sum.P99Ms)
	log.Info("wrote results", "summary", jsonPath, "samples", csvPath)
	return 0
}

func send(ctx context.Context, client *http.Client, base string, r request) sample {
	s := sample{Timestamp: time.Now(), Name: r.Name}
	req, err := r.build(base)
	if err != nil {
		s.ErrorMsg = err.Error()
		return s
	}
	resp, err := client.Do(req.WithContext(ctx))
	s.Latency = time.Since(s.Timestamp)
	if err != nil {
		s.ErrorMsg = err.Error()
		return s
	}
	s.Status = resp.StatusCode
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return s
}
