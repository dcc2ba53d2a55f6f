package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/viant/closet/config"
	"github.com/viant/closet/extractor"
	"github.com/viant/closet/imagestore"
	"github.com/viant/closet/index"
	"github.com/viant/closet/internal/logging"
	"github.com/viant/closet/matcher"
	"github.com/viant/closet/rules"
	"github.com/viant/closet/state"
	"github.com/viant/closet/wardrobe"
	"github.com/viant/closet/weather"
)

// Open builds a Closet from cfg and restores the persisted wardrobe. A
// missing state file starts an empty wardrobe.
func Open(ctx context.Context, cfg *config.Config) (*Closet, error) {
	rs := rules.Default()
	if cfg.Rules.Path != "" {
		loaded, err := rules.LoadFile(cfg.Rules.Path)
		if err != nil {
			return nil, err
		}
		rs = loaded
	}
	metric, err := index.ParseMetric(cfg.Index.Metric)
	if err != nil {
		return nil, err
	}

	store, closer, err := state.Open(ctx, cfg.State.Backend, cfg.State.Path, cfg.State.DSN)
	if err != nil {
		return nil, err
	}
	ok := false
	defer func() {
		if !ok {
			_ = closer.Close()
		}
	}()

	snap, err := store.Load(ctx)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logging.Info().Str("path", cfg.State.Path).Msg("no saved wardrobe, starting empty")
		snap = wardrobe.Snapshot{Items: []wardrobe.GarmentItem{}}
	case err != nil:
		return nil, err
	}
	snap.Metric = metric
	if want := cfg.Extractor.Dimension; want > 0 {
		switch {
		case len(snap.Items) == 0:
			snap.Dim = want
		case snap.Dim != want:
			return nil, fmt.Errorf("closet: saved wardrobe has dimension %d, extractor is configured for %d", snap.Dim, want)
		}
	}

	images, err := imagestore.NewFS(cfg.Images.Dir)
	if err != nil {
		return nil, err
	}
	opts := []wardrobe.Option{wardrobe.WithPersister(store), wardrobe.WithImages(images)}
	if cfg.Extractor.URL != "" {
		client := &http.Client{Timeout: cfg.Extractor.Timeout}
		x := extractor.Checked(extractor.NewHTTP(cfg.Extractor.URL, client), cfg.Extractor.Dimension)
		opts = append(opts, wardrobe.WithExtractor(x))
	}
	catalog, err := wardrobe.FromSnapshot(snap, opts...)
	if err != nil {
		return nil, err
	}

	var lookup weather.Lookup
	if cfg.Weather.APIKey != "" {
		lookup = weather.NewOpenWeather(cfg.Weather.APIKey,
			weather.WithBaseURL(cfg.Weather.BaseURL),
			weather.WithHTTPClient(&http.Client{Timeout: cfg.Weather.Timeout}),
		)
	}
	resolver := weather.NewResolver(lookup,
		weather.WithTimeout(cfg.Weather.Timeout),
		weather.WithCircuitBreaker(cfg.Weather.BreakerFailures, cfg.Weather.BreakerCooldown),
		weather.WithRateLimit(cfg.Weather.RequestsPerMinute),
	)

	var engineOpts []matcher.Option
	if cfg.Seed != 0 {
		engineOpts = append(engineOpts, matcher.WithRand(matcher.NewSeeded(cfg.Seed)))
	}
	engine := matcher.New(rs, engineOpts...)

	ok = true
	logging.Info().Int("items", catalog.Len()).Str("backend", cfg.State.Backend).
		Str("metric", metric.String()).Msg("wardrobe opened")
	return New(catalog, engine, resolver, WithImageStore(images), WithCloser(closer)), nil
}
