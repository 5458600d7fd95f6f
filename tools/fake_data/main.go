package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/patrickwarner/adreward/internal/config"
	"github.com/patrickwarner/adreward/internal/db"
	"github.com/patrickwarner/adreward/internal/models"
	"github.com/patrickwarner/adreward/internal/observability"
)

var (
	internalCount = flag.Int("internal", 20, "number of internal content items")
	externalCount = flag.Int("external", 5, "number of external YouTube items")
	adShare       = flag.Float64("ad-share", 0.7, "share of internal items that are ad supported")
	seed          = flag.Int64("seed", time.Now().UnixNano(), "rng seed")
	skipReload    = flag.Bool("skip-reload", false, "skip automatic reload after data insertion")
	unpublish     = flag.String("unpublish", "", "comma separated content IDs to hide from the catalog")
)

var (
	adjectives = []string{"Hidden", "Electric", "Quiet", "Golden", "Midnight", "Wild", "Urban", "Frozen"}
	nouns      = []string{"Harbor", "Signal", "Garden", "Frontier", "Kitchen", "Orbit", "Canyon", "Studio"}
	formats    = []string{"Documentary", "Live Session", "Tutorial", "Short Film", "Interview"}
)

func main() {
	flag.Parse()

	logger, err := observability.InitLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg := config.Load()
	pg, err := db.InitPostgres(cfg.PostgresDSN, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetime, cfg.DBConnMaxIdleTime)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect postgres: %v\n", err)
		os.Exit(1)
	}
	defer pg.Close()

	r := rand.New(rand.NewSource(*seed))
	ctx := context.Background()

	for i := 0; i < *internalCount; i++ {
		c := randomInternal(r, i+1)
		if err := pg.UpsertContent(ctx, c); err != nil {
			logger.Fatal("insert content", zap.String("id", c.ID), zap.Error(err))
		}
	}
	for i := 0; i < *externalCount; i++ {
		c := randomExternal(r, i+1)
		if err := pg.UpsertContent(ctx, c); err != nil {
			logger.Fatal("insert content", zap.String("id", c.ID), zap.Error(err))
		}
	}
	fmt.Printf("inserted %d internal and %d external items\n", *internalCount, *externalCount)

	for _, id := range strings.Split(*unpublish, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if err := pg.UnpublishContent(ctx, id); err != nil {
			logger.Warn("unpublish content", zap.String("id", id), zap.Error(err))
			continue
		}
		fmt.Printf("unpublished %s\n", id)
	}

	if !*skipReload {
		if err := callReloadEndpoint(&cfg); err != nil {
			logger.Error("reload endpoint failed", zap.Error(err))
			fmt.Fprintf(os.Stderr, "Warning: failed to reload server data: %v\n", err)
		} else {
			fmt.Println("server data reloaded")
		}
	}
}

func fakeTitle(r *rand.Rand) string {
	return fmt.Sprintf("%s %s %s", adjectives[r.Intn(len(adjectives))], nouns[r.Intn(len(nouns))], formats[r.Intn(len(formats))])
}

func randomInternal(r *rand.Rand, n int) models.Content {
	c := models.Content{
		ID:      fmt.Sprintf("video-%03d", n),
		Title:   fakeTitle(r),
		AssetID: fmt.Sprintf("asset-%03d", n),
	}
	switch {
	case r.Float64() < *adShare:
		c.Monetization = models.MonetizationAdSupported
	case r.Intn(2) == 0:
		c.Monetization = models.MonetizationSubscription
		c.Price = 999
	default:
		c.Monetization = models.MonetizationPayPerView
		c.Price = int64(199 + r.Intn(400))
	}
	c.Description = "A " + strings.ToLower(c.Title) + "."
	return c
}

const videoIDAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-_"

func randomExternal(r *rand.Rand, n int) models.Content {
	var b strings.Builder
	for i := 0; i < 11; i++ {
		b.WriteByte(videoIDAlphabet[r.Intn(len(videoIDAlphabet))])
	}
	return models.Content{
		ID:           fmt.Sprintf("external-%03d", n),
		Title:        fakeTitle(r),
		Monetization: models.MonetizationAdSupported,
		ExternalURL:  "https://www.youtube.com/watch?v=" + b.String(),
	}
}

func callReloadEndpoint(cfg *config.Config) error {
	reloadURL := fmt.Sprintf("http://localhost:%s/reload", cfg.Port)
	req, err := http.NewRequest("POST", reloadURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	return nil
}
