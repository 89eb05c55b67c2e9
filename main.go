package main

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/aouyang1/tvsettings/admin"
	"github.com/aouyang1/tvsettings/api"
	"github.com/aouyang1/tvsettings/gateway"
)

// Config is parsed from TVS_* environment variables.
type Config struct {
	ListenAddr string `envconfig:"LISTEN_ADDR" default:"0.0.0.0:8080"`
	RootPath   string `envconfig:"ROOT_PATH" default:"."`

	S3Bucket   string `envconfig:"S3_BUCKET" required:"true"`
	AWSProfile string `envconfig:"AWS_PROFILE"`
	// PublicURL fronts the bucket, for CDN or S3-compatible providers.
	PublicURL string `envconfig:"PUBLIC_URL"`
}

func main() {
	var cfg Config
	if err := envconfig.Process("tvs", &cfg); err != nil {
		log.Fatalf("Failed to parse environment: %v", err)
	}

	// Initialize settings row store
	dbPath := filepath.Join(cfg.RootPath, "tvsettings.db")
	rows, err := gateway.NewRowStore(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer rows.Close()

	// Initialize object storage
	objects, err := gateway.NewS3Store(gateway.S3Config{
		Profile:   cfg.AWSProfile,
		Bucket:    cfg.S3Bucket,
		PublicURL: cfg.PublicURL,
	})
	if err != nil {
		log.Fatal(err)
	}

	gw := gateway.New(rows, objects)
	ctrl := admin.NewController(gw, nil)

	// Pull the persisted record, initializing defaults on first run
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := ctrl.Load(ctx); err != nil {
		cancel()
		log.Fatalf("Failed to load settings: %v", err)
	}
	cancel()

	webServer := api.NewWebServer(ctrl, gw)
	webServer.Start(cfg.ListenAddr)
}
