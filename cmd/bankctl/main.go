// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// bankctl drives the Account and Customer services from the command line.
//
//	bankctl [flags] login <name> <password>
//	bankctl [flags] open-account <account-id> <name>
//	bankctl [flags] stream [--max N]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/luxfi/bankrpc"
	"github.com/luxfi/bankrpc/config"
	"github.com/luxfi/bankrpc/guard"
	"github.com/luxfi/bankrpc/logging"
	"github.com/luxfi/bankrpc/pb"
	"github.com/luxfi/bankrpc/registry"
	"github.com/luxfi/bankrpc/session"
)

type flags struct {
	configPath string
	endpoint   string
	transport  string
	format     string
	logLevel   string
	metadata   map[string]string
	route      string
	max        int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "bankctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	var f flags
	fs := pflag.NewFlagSet("bankctl", pflag.ContinueOnError)
	fs.StringVarP(&f.configPath, "config", "c", "", "path to bankrpc.yaml")
	fs.StringVar(&f.endpoint, "endpoint", "", "gateway base URL (overrides config)")
	fs.StringVar(&f.transport, "transport", "", "grpcweb, grpc or json (overrides config)")
	fs.StringVar(&f.format, "format", "", "grpc-web body format: binary or text")
	fs.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
	fs.StringToStringVar(&f.metadata, "md", nil, "extra call metadata, key=value")
	fs.StringVar(&f.route, "route", "accounts", "protected route to check after login")
	fs.IntVar(&f.max, "max", 3, "stop the stream after this many messages (0 = until cancelled)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(f.configPath)
	if err != nil {
		return err
	}
	if fs.Changed("endpoint") {
		cfg.Endpoint = f.endpoint
	}
	if fs.Changed("transport") {
		cfg.Transport = f.transport
	}
	if fs.Changed("format") {
		cfg.Format = f.format
	}
	if fs.Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.Setup(cfg.Log)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logger.Sync()

	endpoint, err := resolveEndpoint(ctx, cfg)
	if err != nil {
		return err
	}
	client, err := bankrpc.Dial(endpoint, dialOptions(cfg, logger)...)
	if err != nil {
		return err
	}
	defer client.Close()

	md := bankrpc.MetadataFromMap(cfg.Metadata)
	for k, v := range f.metadata {
		md = md.With(k, v)
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return errors.New("missing command: login, open-account or stream")
	}
	switch cmd, params := rest[0], rest[1:]; cmd {
	case "login":
		if len(params) != 2 {
			return errors.New("usage: login <name> <password>")
		}
		return login(ctx, stdout, client, md, logger, f.route, params[0], params[1])
	case "open-account":
		if len(params) != 2 {
			return errors.New("usage: open-account <account-id> <name>")
		}
		return openAccount(ctx, stdout, client, md, params[0], params[1])
	case "stream":
		return stream(ctx, stdout, client, md, f.max)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func resolveEndpoint(ctx context.Context, cfg *config.Config) (string, error) {
	if len(cfg.Discovery.Etcd) == 0 {
		return cfg.Endpoint, nil
	}
	r, err := registry.NewEtcd(cfg.Discovery.Etcd)
	if err != nil {
		return "", err
	}
	defer r.Close()
	var rr registry.RoundRobin
	return rr.Pick(ctx, r, cfg.Discovery.Service)
}

func dialOptions(cfg *config.Config, logger *zap.Logger) []bankrpc.DialOption {
	interceptors := []bankrpc.Interceptor{
		bankrpc.RequestIDInterceptor(),
		bankrpc.LoggingInterceptor(logger),
	}
	if cfg.RateLimit.RPS > 0 {
		interceptors = append(interceptors, bankrpc.RateLimitInterceptor(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	}
	if cfg.Timeout > 0 {
		interceptors = append(interceptors, bankrpc.TimeoutInterceptor(cfg.Timeout))
	}
	opts := []bankrpc.DialOption{
		bankrpc.WithTransport(cfg.Transport),
		bankrpc.WithLogger(logger),
		bankrpc.WithInterceptors(interceptors...),
	}
	if cfg.Format == "text" {
		opts = append(opts, bankrpc.WithTextFormat())
	}
	return opts
}

func login(ctx context.Context, w io.Writer, client *bankrpc.Client, md bankrpc.Metadata, logger *zap.Logger, routeName, name, password string) error {
	store := session.NewStore(pb.NewCustomerClient(client), session.WithLogger(logger), session.WithMetadata(md))
	nav := guard.NewNavigator(store, func(r guard.Route) {
		fmt.Fprintf(w, "redirected to %s\n", r.Name)
	})
	defer nav.Close()

	route := guard.Route{Name: routeName, RequiresAuth: true}
	d, _ := nav.Navigate(route)
	fmt.Fprintf(w, "%s before login: %s\n", routeName, d)

	select {
	case <-store.Login(ctx, name, password):
	case <-ctx.Done():
		return ctx.Err()
	}

	s := store.Snapshot()
	fmt.Fprintf(w, "session: %s", s.Status)
	if s.CustomerID != "" {
		fmt.Fprintf(w, " customer=%s", s.CustomerID)
	}
	if s.CustomerName != "" {
		fmt.Fprintf(w, " name=%s", s.CustomerName)
	}
	if s.Err != nil {
		fmt.Fprintf(w, " error=%q", s.Err)
	}
	fmt.Fprintln(w)

	d, _ = nav.Navigate(route)
	fmt.Fprintf(w, "%s after login: %s\n", routeName, d)
	if s.Status != session.Authenticated {
		return s.Err
	}
	return nil
}

func openAccount(ctx context.Context, w io.Writer, client *bankrpc.Client, md bankrpc.Metadata, id, name string) error {
	accounts := pb.NewAccountClient(client)
	resp, err := bankrpc.Await[*pb.OpenAccountResponse](ctx,
		accounts.OpenAccountFuture(ctx, &pb.OpenAccountRequest{AccountID: id, Name: name}, md))
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "opened account %s (%s)\n", resp.AccountID, resp.Name)
	return nil
}

func stream(ctx context.Context, w io.Writer, client *bankrpc.Client, md bankrpc.Metadata, limit int) error {
	s := pb.NewAccountClient(client).TestStreaming(ctx, &pb.TestStreamingRequest{}, md)
	defer s.Cancel()

	n := 0
	for msg, err := range s.All() {
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		fmt.Fprintln(w, msg.(*pb.TestStreamingResponse).Message)
		n++
		if limit > 0 && n >= limit {
			break
		}
	}
	return nil
}
