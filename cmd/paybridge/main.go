// paybridge bridges a storefront checkout to Stripe: it creates payment
// intents for validated charge requests and relays verified
// payment-succeeded webhook events to a downstream automation endpoint.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/paybridge-io/paybridge/internal/api"
	"github.com/paybridge-io/paybridge/internal/config"
	"github.com/paybridge-io/paybridge/internal/events"
	"github.com/paybridge-io/paybridge/internal/forward"
	"github.com/paybridge-io/paybridge/internal/payments"
	"github.com/paybridge-io/paybridge/internal/server"
)

func main() {
	var (
		port    = flag.Int("port", 0, "HTTP listen port (overrides PORT and the config file)")
		cfgPath = flag.String("config", "", "Path to an optional YAML config file")
		verbose = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *verbose {
		cfg.Verbose = true
	}

	srv := server.New(cfg)

	if err := cfg.Validate(); err != nil {
		srv.Logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	for _, warning := range cfg.Warnings() {
		srv.Logger.Warn(warning)
	}

	gateway := payments.NewStripeGateway(cfg.StripeSecretKey, srv.Logger)
	verifier := events.NewVerifier(cfg.StripeWebhookSecret)
	forwarder := forward.New(forward.Options{
		URL:    cfg.ForwardURL,
		Signer: forward.NewSigner(cfg.ForwardSigningSecret),
		Logger: srv.Logger,
	})

	handler := api.NewHandler(gateway, verifier, forwarder, srv.Middleware(), srv.Logger)
	handler.Routes(srv.Router)

	srv.Logger.Info("paybridge ready",
		"port", cfg.Port,
		"webhook_verification", cfg.StripeWebhookSecret != "",
		"forwarding", cfg.ForwardURL != "",
		"forward_signing", cfg.ForwardSigningSecret != "",
		"origin_allowlist", len(cfg.AllowedOrigins) > 0,
	)

	if err := srv.Serve(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
