// Command costgate runs the query-cost rate-limiting gateway in front of a
// GraphQL endpoint, or audits a schema's compiled cost model offline.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/costgate/costgate/internal/cache"
	"github.com/costgate/costgate/internal/config"
	"github.com/costgate/costgate/internal/costmodel"
	"github.com/costgate/costgate/internal/eventbus"
	"github.com/costgate/costgate/internal/gateway"
	"github.com/costgate/costgate/internal/otel"
	"github.com/costgate/costgate/internal/ratelimit"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "costgate:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		cmdHelp()
		return nil
	}
	switch args[0] {
	case "serve":
		return cmdServe(args[1:])
	case "check-schema":
		return cmdCheckSchema(args[1:])
	case "help", "-h", "--help":
		cmdHelp()
		return nil
	default:
		cmdHelp()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func cmdHelp() {
	fmt.Fprintln(os.Stderr, `costgate - GraphQL query-cost rate limiter

Usage:
  costgate serve --schema <file> --config <file> [--addr :8080] [--upstream url]
  costgate check-schema --schema <file> [--config <file>]
  costgate help`)
}

func cmdServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	schemaPath := fs.String("schema", "", "path to the GraphQL SDL file")
	configPath := fs.String("config", "", "path to the YAML configuration file")
	addr := fs.String("addr", ":8080", "address to listen on")
	upstream := fs.String("upstream", "", "URL of the GraphQL endpoint to forward allowed requests to")
	otelEndpoint := fs.String("otel-endpoint", "", "OTLP gRPC collector endpoint; empty disables tracing")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *schemaPath == "" || *configPath == "" {
		return fmt.Errorf("serve: --schema and --config are required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	schema, err := loadSchema(*schemaPath)
	if err != nil {
		return err
	}

	table, err := costmodel.Build(schema, weightConfigFrom(cfg), costmodel.WithStrictMode(cfg.EnforceBoundedLists))
	if err != nil {
		return fmt.Errorf("building type weight table: %w", err)
	}

	eventbus.Use(eventbus.New())
	shutdown, err := otel.Setup(*otelEndpoint, "costgate")
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer shutdown(context.Background())

	window, err := cfg.RateLimiter.WindowDuration()
	if err != nil {
		return err
	}
	algorithm := buildAlgorithm(cfg, cache.NewMemory(), window)

	opts := []gateway.Option{
		gateway.WithDark(cfg.Dark),
		gateway.WithAlgorithmName(cfg.RateLimiter.Algorithm),
		gateway.WithDepthLimit(cfg.DepthLimit),
	}
	if *upstream != "" {
		u, err := url.Parse(*upstream)
		if err != nil {
			return fmt.Errorf("parsing --upstream: %w", err)
		}
		opts = append(opts, gateway.WithUpstream(httputil.NewSingleHostReverseProxy(u)))
	}

	handler := gateway.New(schema, table, algorithm, opts...)

	server := &http.Server{Addr: *addr, Handler: handler}
	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-sig:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(ctx)
	}
	return nil
}

func cmdCheckSchema(args []string) error {
	fs := flag.NewFlagSet("check-schema", flag.ExitOnError)
	schemaPath := fs.String("schema", "", "path to the GraphQL SDL file")
	configPath := fs.String("config", "", "path to the YAML configuration file; optional")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *schemaPath == "" {
		return fmt.Errorf("check-schema: --schema is required")
	}

	var cfg config.Config
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	schema, err := loadSchema(*schemaPath)
	if err != nil {
		return err
	}
	table, err := costmodel.Build(schema, weightConfigFrom(cfg), costmodel.WithStrictMode(cfg.EnforceBoundedLists))
	if err != nil {
		return err
	}

	names := make([]string, 0)
	for name := range schema.Types {
		if tw, ok := table.Lookup(name); ok {
			names = append(names, tw.Name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		tw, _ := table.Lookup(name)
		fmt.Printf("%s (baseWeight=%d)\n", tw.Name, tw.BaseWeight)
		fieldNames := make([]string, 0, len(tw.Fields))
		for f := range tw.Fields {
			fieldNames = append(fieldNames, f)
		}
		sort.Strings(fieldNames)
		for _, f := range fieldNames {
			fmt.Printf("  %s: %s\n", f, describeField(tw.Fields[f]))
		}
	}
	return nil
}

func describeField(fw *costmodel.FieldWeight) string {
	switch fw.Kind {
	case costmodel.FieldScalar:
		return fmt.Sprintf("scalar weight=%d", fw.Weight)
	case costmodel.FieldSingle:
		return fmt.Sprintf("-> %s", fw.ResolvesTo)
	case costmodel.FieldListConstant:
		return fmt.Sprintf("list -> %s weight=%d", fw.ResolvesTo, fw.Weight)
	case costmodel.FieldListMultiplier:
		return fmt.Sprintf("list -> %s multiplier(arg=%s default=%d elementBase=%d)",
			fw.ResolvesTo, fw.Multiplier.ArgName, fw.Multiplier.Default, fw.Multiplier.ElementBaseWeight)
	default:
		return "unknown"
	}
}

func loadSchema(path string) (*ast.Schema, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema: %w", err)
	}
	schema, err := gqlparser.LoadSchema(&ast.Source{Name: path, Input: string(raw)})
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}
	return schema, nil
}

func weightConfigFrom(cfg config.Config) costmodel.Config {
	return costmodel.Config{
		Query:      cfg.TypeWeights.Query,
		Mutation:   cfg.TypeWeights.Mutation,
		Object:     cfg.TypeWeights.Object,
		Scalar:     cfg.TypeWeights.Scalar,
		Connection: cfg.TypeWeights.Connection,
	}
}

func buildAlgorithm(cfg config.Config, backend cache.Backend, window time.Duration) ratelimit.Algorithm {
	switch cfg.RateLimiter.Algorithm {
	case config.AlgorithmFixedWindow:
		return ratelimit.NewFixedWindow(backend, cfg.RateLimiter.Capacity, window)
	case config.AlgorithmSlidingWindowLog:
		return ratelimit.NewSlidingWindowLog(backend, cfg.RateLimiter.Capacity, window)
	case config.AlgorithmSlidingWindowCounter:
		return ratelimit.NewSlidingWindowCounter(backend, cfg.RateLimiter.Capacity, window)
	default:
		ttl := time.Duration(cfg.Cache.KeyExpiryMillis) * time.Millisecond
		return ratelimit.NewTokenBucket(backend, cfg.RateLimiter.Capacity, cfg.RateLimiter.RefillPerSecond, ttl)
	}
}
