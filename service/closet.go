// Package service combines the catalog, the weather resolver and the
// matching engine into the operations the CLI exposes.
package service

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/viant/closet/internal/logging"
	"github.com/viant/closet/matcher"
	"github.com/viant/closet/wardrobe"
	"github.com/viant/closet/weather"
)

// ImageStore saves uploaded images and can discard them again.
type ImageStore interface {
	Put(ctx context.Context, r io.Reader, ext string) (string, error)
	Delete(ref string) error
}

// Recommendation is an outfit together with the weather it was chosen for.
type Recommendation struct {
	matcher.Result
	Location string           `json:"location,omitempty"`
	Reading  *weather.Reading `json:"reading,omitempty"`
	// Fallback names why the default weather label was used, if it was.
	Fallback string `json:"weather_fallback,omitempty"`
}

// Closet is the wardrobe service.
type Closet struct {
	catalog  *wardrobe.Catalog
	engine   *matcher.Engine
	resolver *weather.Resolver
	images   ImageStore
	closer   io.Closer
	log      zerolog.Logger
}

// Option configures a Closet.
type Option func(*Closet)

// WithImageStore enables AddImage.
func WithImageStore(s ImageStore) Option {
	return func(c *Closet) { c.images = s }
}

// WithCloser registers a resource released by Close.
func WithCloser(cl io.Closer) Option {
	return func(c *Closet) { c.closer = cl }
}

// New creates a Closet. resolver may be nil, in which case every
// recommendation uses the default weather label.
func New(catalog *wardrobe.Catalog, engine *matcher.Engine, resolver *weather.Resolver, opts ...Option) *Closet {
	if resolver == nil {
		resolver = weather.NewResolver(nil)
	}
	c := &Closet{
		catalog:  catalog,
		engine:   engine,
		resolver: resolver,
		log:      logging.With().Str("component", "closet").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Catalog returns the underlying catalog.
func (c *Closet) Catalog() *wardrobe.Catalog { return c.catalog }

// AddImage stores the image read from r and catalogs it. The stored image
// is removed again if cataloging fails.
func (c *Closet) AddImage(ctx context.Context, r io.Reader, ext, category, color string) (wardrobe.GarmentItem, error) {
	if c.images == nil {
		return wardrobe.GarmentItem{}, fmt.Errorf("closet: no image store configured")
	}
	ref, err := c.images.Put(ctx, r, ext)
	if err != nil {
		return wardrobe.GarmentItem{}, err
	}
	item, err := c.AddItem(ctx, ref, category, color)
	if err != nil {
		if derr := c.images.Delete(ref); derr != nil {
			c.log.Warn().Err(derr).Str("ref", ref).Msg("failed to discard image")
		}
		return wardrobe.GarmentItem{}, err
	}
	return item, nil
}

// AddItem catalogs an image that is already stored under ref.
func (c *Closet) AddItem(ctx context.Context, ref, category, color string) (wardrobe.GarmentItem, error) {
	id, err := c.catalog.AddItem(ctx, ref, category, color)
	if err != nil {
		return wardrobe.GarmentItem{}, err
	}
	item, _ := c.catalog.Item(id)
	return item, nil
}

// RemoveItem deletes the garment with id. It reports false when no such
// garment exists. Later garments shift down by one id.
func (c *Closet) RemoveItem(ctx context.Context, id int) (bool, error) {
	return c.catalog.RemoveItem(ctx, id)
}

// ListItems returns the catalog in id order.
func (c *Closet) ListItems() []wardrobe.GarmentItem {
	return c.catalog.ListItems()
}

// Recommend resolves the weather at location and picks an outfit for
// occasion. Weather problems never fail the call.
func (c *Closet) Recommend(ctx context.Context, occasion, location string) (*Recommendation, error) {
	res := c.resolver.Resolve(ctx, location)
	result, err := c.engine.Recommend(occasion, res.Label, c.catalog.ListItems())
	if err != nil {
		return nil, err
	}
	c.log.Debug().Int("top", result.Top.ID).Int("bottom", result.Bottom.ID).
		Str("weather", string(result.Weather)).Str("occasion", result.Occasion).
		Str("tier", string(result.BottomTier)).Msg("outfit recommended")
	return &Recommendation{
		Result:   *result,
		Location: location,
		Reading:  res.Reading,
		Fallback: res.Fallback,
	}, nil
}

// Similar returns up to k garments closest to garment id, excluding it.
func (c *Closet) Similar(ctx context.Context, id, k int) ([]wardrobe.Match, error) {
	return c.catalog.Similar(ctx, id, k)
}

// Close releases the state backend.
func (c *Closet) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}
