package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image/draw"
	"log/slog"
	"time"

	"geostamp/internal/caption"
	"geostamp/internal/canvas"
	"geostamp/internal/config"
	"geostamp/internal/fsutil"
	"geostamp/internal/logging"
	"geostamp/internal/metadata"
	"geostamp/internal/sequence"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ErrConfiguration wraps settings that reject a whole batch.
var ErrConfiguration = errors.New("configuration error")

var (
	errNegativeFontSize = errors.New("font size must not be negative")
	errDuplicateOutput  = errors.New("output file name already used in this batch")
)

func configError(err error) error {
	return fmt.Errorf("%w: %w", ErrConfiguration, err)
}

// Imprinter draws a caption onto an image.
type Imprinter interface {
	Imprint(img draw.Image, spec caption.Spec) error
}

type fontNamer interface {
	FontName() string
}

type loadFunc func(path string) (*canvas.Canvas, error)

// Pipeline stamps sessions. Capture times are drawn in batch order before
// images fan out to workers, so each canvas has exactly one owner.
type Pipeline struct {
	cfg       config.Processing
	log       *slog.Logger
	imprinter Imprinter
	source    sequence.Source
	load      loadFunc
}

// New creates a Pipeline. A nil source uses crypto/rand.
func New(cfg config.Processing, logger *slog.Logger, imprinter Imprinter, source sequence.Source) *Pipeline {
	if cfg.ParallelJobs < 1 {
		cfg.ParallelJobs = 1
	}
	if cfg.Quality < 1 || cfg.Quality > 100 {
		cfg.Quality = canvas.DefaultQuality
	}
	if logger == nil {
		logger = slog.Default()
	}
	if source == nil {
		source = sequence.NewCryptoSource()
	}
	return &Pipeline{
		cfg:       cfg,
		log:       logger,
		imprinter: imprinter,
		source:    source,
		load:      canvas.Load,
	}
}

// Plan validates the session and takes one draw per image, in order.
func (p *Pipeline) Plan(s *Session) ([]sequence.Draw, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	cur, err := sequence.Begin(s.Window, s.Point, p.source)
	if err != nil {
		return nil, configError(err)
	}
	return cur.Plan(len(s.Images)), nil
}

// Process annotates every image of the session and appends the results
// in batch order. Images that fail to load or fit are reported and
// skipped; configuration errors reject the batch before any image is read.
func (p *Pipeline) Process(ctx context.Context, s *Session) (*Report, error) {
	draws, err := p.Plan(s)
	if err != nil {
		return nil, err
	}

	rep := &Report{ID: uuid.NewString(), Started: time.Now()}
	opts := map[string]any{
		"corner":       s.Corner.String(),
		"font_size":    s.FontSize,
		"from_minutes": s.Window.FromMinutes,
		"to_minutes":   s.Window.ToMinutes,
		"parallel":     p.cfg.ParallelJobs,
	}
	if fn, ok := p.imprinter.(fontNamer); ok {
		opts["font"] = fn.FontName()
	}
	logging.LogBatchStart(p.log, rep.ID, len(s.Images), opts)

	items := make([]ItemResult, len(s.Images))
	finals := make([]*FinalImage, len(s.Images))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.ParallelJobs)
	for i, path := range s.Images {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			fi, err := p.annotate(s, path, draws[i])
			items[i] = ItemResult{Index: i, Source: path, Draw: draws[i], Duration: time.Since(start), Error: err}
			if err != nil {
				logging.LogImageError(p.log, rep.ID, i, path, err)
				return nil
			}
			finals[i] = fi
			logging.LogImageComplete(p.log, rep.ID, i, path, items[i].Duration, 0)
			return nil
		})
	}
	werr := g.Wait()

	for i, fi := range finals {
		if fi != nil {
			s.AppendResult(*fi)
		}
		if items[i].Source != "" {
			rep.Items = append(rep.Items, items[i])
		}
	}
	rep.Duration = time.Since(rep.Started)
	logging.LogBatchComplete(p.log, rep.ID, rep.Duration, rep.Succeeded(), len(rep.Failed()))

	if werr != nil {
		return rep, werr
	}
	if err := ctx.Err(); err != nil {
		return rep, err
	}
	return rep, nil
}

func (p *Pipeline) annotate(s *Session, path string, d sequence.Draw) (*FinalImage, error) {
	c, err := p.load(path)
	if err != nil {
		return nil, err
	}
	lines := caption.Lines(s.fields(d))
	spec := caption.Spec{Lines: lines, Corner: s.Corner, FontSize: s.FontSize}
	if err := p.imprinter.Imprint(c.Image, spec); err != nil {
		return nil, fmt.Errorf("caption %s: %w", path, err)
	}
	blob, err := metadata.BuildDraw(d.Time, d.Point)
	if err != nil {
		return nil, fmt.Errorf("exif %s: %w", path, err)
	}
	return &FinalImage{SourcePath: path, Canvas: c, Exif: blob, Draw: d, Caption: lines}, nil
}

// Export writes every result to outDir under its source base name.
// Write failures are reported per image.
func (p *Pipeline) Export(ctx context.Context, s *Session, outDir string) (*Report, error) {
	rep := &Report{ID: uuid.NewString(), Started: time.Now()}
	items := make([]ItemResult, len(s.Results))

	used := make(map[string]bool, len(s.Results))
	outputs := make([]string, len(s.Results))
	for i, fi := range s.Results {
		out := fsutil.OutputPath(fi.SourcePath, outDir)
		if used[out] {
			items[i] = ItemResult{Index: fi.Draw.Index, Source: fi.SourcePath, Output: out, Draw: fi.Draw,
				Error: fmt.Errorf("%w: %s: %w", canvas.ErrIO, out, errDuplicateOutput)}
			continue
		}
		used[out] = true
		outputs[i] = out
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.ParallelJobs)
	for i, fi := range s.Results {
		if outputs[i] == "" {
			continue
		}
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			n, err := fi.Canvas.Save(outputs[i], p.cfg.Quality, fi.Exif)
			items[i] = ItemResult{Index: fi.Draw.Index, Source: fi.SourcePath, Output: outputs[i], Draw: fi.Draw,
				Bytes: n, Duration: time.Since(start), Error: err}
			if err != nil {
				logging.LogImageError(p.log, rep.ID, fi.Draw.Index, outputs[i], err)
				return nil
			}
			logging.LogImageComplete(p.log, rep.ID, fi.Draw.Index, outputs[i], items[i].Duration, n)
			return nil
		})
	}
	werr := g.Wait()

	for _, it := range items {
		if it.Source != "" {
			rep.Items = append(rep.Items, it)
		}
	}
	rep.Duration = time.Since(rep.Started)
	logging.LogBatchComplete(p.log, rep.ID, rep.Duration, rep.Succeeded(), len(rep.Failed()))

	if werr != nil {
		return rep, werr
	}
	return rep, ctx.Err()
}

// Run is Process followed by Export.
func (p *Pipeline) Run(ctx context.Context, s *Session, outDir string) (*Report, *Report, error) {
	processed, err := p.Process(ctx, s)
	if err != nil {
		return processed, nil, err
	}
	exported, err := p.Export(ctx, s, outDir)
	return processed, exported, err
}
