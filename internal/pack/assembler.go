// SPDX-License-Identifier: MPL-2.0

package pack

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/dupetable/dupetable/internal/catalog"
	"github.com/dupetable/dupetable/internal/issue"
	"github.com/dupetable/dupetable/internal/recipe"
)

// Builds above progressThreshold items log every progressEvery items.
const (
	progressThreshold = 500
	progressEvery     = 100
)

type (
	// ArtifactRenderer produces the artifact for one item.
	ArtifactRenderer interface {
		Artifact(item string) (recipe.Artifact, error)
	}

	// Assembler builds bundles. It is safe for concurrent use.
	Assembler struct {
		logger *log.Logger
		assets Assets
		now    func() time.Time

		tracerProvider trace.TracerProvider
		meterProvider  metric.MeterProvider
		tel            *telemetry
	}

	// Option configures an Assembler.
	Option func(*Assembler)

	// BuildOptions tune a single build.
	BuildOptions struct {
		// TableRecipe adds the duplicating table recipe to layouts that do
		// not carry it already. Behavior and complete packs always have it.
		TableRecipe bool
	}

	// Stats summarizes a build.
	Stats struct {
		Rendered int
		Failed   int
		// Warnings lists optional assets that were missing or replaced.
		Warnings []string
	}
)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(a *Assembler) {
		a.logger = l
	}
}

// WithAssets sets where pack icon and textures are read from.
func WithAssets(assets Assets) Option {
	return func(a *Assembler) {
		a.assets = assets
	}
}

// WithClock overrides the time source used for README and zip timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) {
		a.now = now
	}
}

// WithTracerProvider sets the tracer provider. Defaults to the global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(a *Assembler) {
		a.tracerProvider = tp
	}
}

// WithMeterProvider sets the meter provider. Defaults to the global one.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(a *Assembler) {
		a.meterProvider = mp
	}
}

// NewAssembler creates an Assembler.
func NewAssembler(opts ...Option) (*Assembler, error) {
	a := &Assembler{
		logger: log.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	tel, err := newTelemetry(a.tracerProvider, a.meterProvider)
	if err != nil {
		return nil, err
	}
	a.tel = tel
	return a, nil
}

// Build renders every item and lays the artifacts out for format, followed
// by the format's fixed metadata. Items that fail to render are counted in
// Stats.Failed and skipped. The returned error is reserved for conditions
// that make the whole archive unusable.
func (a *Assembler) Build(ctx context.Context, items []catalog.ItemID, format Format, r ArtifactRenderer, opts BuildOptions) (*Bundle, Stats, error) {
	var stats Stats
	if !format.Valid() {
		return nil, stats, issue.NewValidationError("Invalid format type")
	}
	if r == nil {
		return nil, stats, &issue.AssemblyError{Err: errors.New("no recipe renderer")}
	}

	ctx, span := a.tel.tracer.Start(ctx, "pack.Build", trace.WithAttributes(
		attribute.String("pack.format", format.String()),
		attribute.Int("pack.items", len(items)),
	))
	defer span.End()

	logger := a.logger.With("format", format)
	b := newBundle()

	for i, id := range items {
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, "canceled")
			return nil, stats, err
		}

		item := id.String()
		if err := a.addArtifact(b, format, item, r); err != nil {
			stats.Failed++
			logger.Error("recipe failed", "item", item, "err", err)
		} else {
			stats.Rendered++
		}

		if len(items) > progressThreshold && (i+1)%progressEvery == 0 {
			logger.Info("progress", "done", i+1, "total", len(items))
		}
	}

	if format.hasBehaviorPack() || opts.TableRecipe {
		if err := b.add(TableRecipePath(format), []byte(tableRecipe)); err != nil {
			return nil, stats, a.fail(span, err)
		}
	}

	if err := a.addMetadata(b, format, catalog.Strings(items), &stats); err != nil {
		return nil, stats, a.fail(span, err)
	}

	attrs := metric.WithAttributes(attribute.String("pack.format", format.String()))
	a.tel.rendered.Add(ctx, int64(stats.Rendered), attrs)
	a.tel.failed.Add(ctx, int64(stats.Failed), attrs)
	span.SetAttributes(
		attribute.Int("pack.rendered", stats.Rendered),
		attribute.Int("pack.failed", stats.Failed),
		attribute.Int("pack.entries", b.Len()),
	)
	span.SetStatus(codes.Ok, "")

	logger.Info("bundle assembled", "rendered", stats.Rendered, "failed", stats.Failed, "entries", b.Len())
	return b, stats, nil
}

// WriteArchive publishes b at path and records the archive.
func (a *Assembler) WriteArchive(ctx context.Context, b *Bundle, path string) error {
	_, span := a.tel.tracer.Start(ctx, "pack.WriteArchive", trace.WithAttributes(attribute.String("pack.path", path)))
	defer span.End()

	if err := WriteArchive(b, path, a.now()); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "write failed")
		return err
	}
	a.tel.archived.Add(ctx, 1)
	return nil
}

func (a *Assembler) addArtifact(b *Bundle, format Format, item string, r ArtifactRenderer) error {
	art, err := r.Artifact(item)
	if err != nil {
		return err
	}
	return b.add(RecipePath(format, item, art.Name), art.Content)
}

func (a *Assembler) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return &issue.AssemblyError{Err: err}
}

func (a *Assembler) addMetadata(b *Bundle, format Format, items []string, stats *Stats) error {
	switch format {
	case FormatDatapack:
		return b.addJSON(PathPackMcmeta, packMcmeta(), true)
	case FormatBehaviorPack:
		return a.addBehaviorPack(b, stats)
	case FormatCompletePack:
		if err := a.addBehaviorPack(b, stats); err != nil {
			return err
		}
		return a.addResourcePack(b, stats)
	case FormatCustom:
		readme, err := renderReadme(items, a.now())
		if err != nil {
			return fmt.Errorf("rendering README: %w", err)
		}
		return b.add(PathReadme, readme)
	default:
		return nil
	}
}

func (a *Assembler) addBehaviorPack(b *Bundle, stats *Stats) error {
	if err := b.addJSON(PathBPManifest, behaviorManifest(), true); err != nil {
		return err
	}
	if err := b.addJSON(PathBPBlock, blockDefinition(), false); err != nil {
		return err
	}
	return a.addPackIcon(b, PathBPIcon, stats)
}

func (a *Assembler) addResourcePack(b *Bundle, stats *Stats) error {
	if err := b.addJSON(PathRPManifest, resourceManifest(), true); err != nil {
		return err
	}
	if err := b.addJSON(PathRPBlocks, resourceBlocks(), false); err != nil {
		return err
	}
	if err := b.add(PathRPLanguages, []byte(languagesJSON)); err != nil {
		return err
	}
	if err := b.add(PathRPLang, []byte(enUSLang)); err != nil {
		return err
	}
	if err := b.addJSON(PathRPTerrain, terrainTexture(), false); err != nil {
		return err
	}
	if err := b.addJSON(PathRPGeometry, blockGeometryModel(), false); err != nil {
		return err
	}
	if err := a.addPackIcon(b, PathRPIcon, stats); err != nil {
		return err
	}

	for _, face := range TextureFaces {
		data, err := a.assets.texture(face)
		if err != nil {
			a.warn(stats, err, "texture replaced by placeholder")
			data = placeholderTexture
		}
		if err := b.add(TexturePath(face), data); err != nil {
			return err
		}
	}
	return nil
}

// addPackIcon copies the icon when available; a missing icon is omitted.
func (a *Assembler) addPackIcon(b *Bundle, path string, stats *Stats) error {
	data, err := a.assets.packIcon()
	if err != nil {
		a.warn(stats, err, "pack icon omitted")
		return nil
	}
	return b.add(path, data)
}

func (a *Assembler) warn(stats *Stats, err error, msg string) {
	stats.Warnings = append(stats.Warnings, err.Error())
	a.logger.Warn(msg, "err", err)
}
