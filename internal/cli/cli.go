package cli

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"geostamp/internal/caption"
	"geostamp/internal/config"
	"geostamp/internal/fsutil"
	"geostamp/internal/geo"
	"geostamp/internal/order"
	"geostamp/internal/pipeline"
	"geostamp/internal/sequence"

	"github.com/spf13/pflag"
)

// startLayouts are accepted by --start, interpreted in local time.
var startLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

type imprinterFactory func(fontPath string) (pipeline.Imprinter, error)

func defaultImprinter(fontPath string) (pipeline.Imprinter, error) {
	return caption.New(fontPath)
}

// Root wires CLI commands to the pipeline.
type Root struct {
	cfg          *config.Config
	log          *slog.Logger
	source       sequence.Source
	newImprinter imprinterFactory
	now          func() time.Time
	settle       time.Duration
}

// NewRoot constructs the shared state of every command.
func NewRoot(cfg *config.Config, logger *slog.Logger) *Root {
	if logger == nil {
		logger = slog.Default()
	}
	return &Root{
		cfg:          cfg,
		log:          logger,
		newImprinter: defaultImprinter,
		now:          time.Now,
	}
}

func (r *Root) newPipeline(f *stampFlags) (*pipeline.Pipeline, error) {
	imp, err := r.newImprinter(f.font)
	if err != nil {
		return nil, err
	}
	proc := r.cfg.Processing
	if f.quality > 0 {
		proc.Quality = f.quality
	}
	if f.parallel > 0 {
		proc.ParallelJobs = f.parallel
	}
	return pipeline.New(proc, r.log, imp, r.source), nil
}

// stampFlags are shared by stamp and watch.
type stampFlags struct {
	lat, lon       float64
	latRef, lonRef string
	address, label string
	corner         string
	fontSize       int
	font           string
	start          string
	from, to       int
	output         string
	quality        int
	parallel       int

	selection string
	moveTo    int
	reverse   bool
	drop      bool
	dryRun    bool
}

func (f *stampFlags) register(fs *pflag.FlagSet, cfg *config.Config) {
	fs.Float64Var(&f.lat, "lat", 0, "latitude magnitude in degrees (0-90)")
	fs.StringVar(&f.latRef, "lat-ref", "N", "latitude hemisphere (N|S)")
	fs.Float64Var(&f.lon, "lon", 0, "longitude magnitude in degrees (0-90)")
	fs.StringVar(&f.lonRef, "lon-ref", "E", "longitude hemisphere (E|W)")
	fs.StringVar(&f.address, "address", "", "address line of the caption")
	fs.StringVar(&f.label, "label", "", "optional last caption line")
	fs.StringVar(&f.corner, "corner", cfg.Caption.Corner, "caption corner ("+strings.Join(caption.Corners(), "|")+")")
	fs.IntVar(&f.fontSize, "font-size", cfg.Caption.FontSize, "font size in pixels, 0 fits the caption to the image width")
	fs.StringVar(&f.font, "font", cfg.Caption.FontPath, "TrueType/OpenType font file, empty uses the built-in face")
	fs.StringVar(&f.start, "start", "now", "capture time of the first image (YYYY-MM-DD HH:MM)")
	fs.IntVar(&f.from, "from-minutes", cfg.Batch.FromMinutes, "minimum minutes between consecutive images")
	fs.IntVar(&f.to, "to-minutes", cfg.Batch.ToMinutes, "maximum minutes between consecutive images")
	fs.StringVarP(&f.output, "output", "o", cfg.Paths.DefaultOutput, "output directory")
	fs.IntVar(&f.quality, "quality", 0, "JPEG quality (1-100), 0 uses the configured value")
	fs.IntVar(&f.parallel, "parallel", 0, "images annotated concurrently, 0 uses the configured value")
}

func (f *stampFlags) registerOrdering(fs *pflag.FlagSet) {
	fs.StringVar(&f.selection, "select", "", "1-based image positions for reordering, e.g. 2,4-6")
	fs.IntVar(&f.moveTo, "move-to", 0, "move the selected images so they start at this position")
	fs.BoolVar(&f.reverse, "reverse", false, "reverse the batch, or only the selected images when two or more are selected")
	fs.BoolVar(&f.drop, "drop", false, "remove the selected images from the batch")
	fs.BoolVar(&f.dryRun, "dry-run", false, "print the planned captions without writing files")
}

// location merges flags with configured presets; explicit flags win.
func (r *Root) location(fs *pflag.FlagSet, f *stampFlags) (geo.Point, string, string, error) {
	loc := r.cfg.Location
	lat, lon := f.lat, f.lon
	latRef, lonRef := f.latRef, f.lonRef
	address, label := f.address, f.label

	if !fs.Changed("lat") {
		if loc.Latitude == nil {
			return geo.Point{}, "", "", fmt.Errorf("--lat is required")
		}
		lat = *loc.Latitude
	}
	if !fs.Changed("lon") {
		if loc.Longitude == nil {
			return geo.Point{}, "", "", fmt.Errorf("--lon is required")
		}
		lon = *loc.Longitude
	}
	if !fs.Changed("lat-ref") && loc.LatitudeRef != "" {
		latRef = loc.LatitudeRef
	}
	if !fs.Changed("lon-ref") && loc.LongitudeRef != "" {
		lonRef = loc.LongitudeRef
	}
	if !fs.Changed("address") && loc.Address != "" {
		address = loc.Address
	}
	if !fs.Changed("label") && loc.Label != "" {
		label = loc.Label
	}

	latR, err := geo.ParseLatRef(latRef)
	if err != nil {
		return geo.Point{}, "", "", err
	}
	lonR, err := geo.ParseLonRef(lonRef)
	if err != nil {
		return geo.Point{}, "", "", err
	}
	p := geo.Point{
		Lat: geo.Latitude{Degrees: lat, Ref: latR},
		Lon: geo.Longitude{Degrees: lon, Ref: lonR},
	}
	return p, address, label, nil
}

func (r *Root) parseStart(s string) (time.Time, error) {
	if s == "" || strings.EqualFold(s, "now") {
		return r.now(), nil
	}
	for _, layout := range startLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid --start %q, want YYYY-MM-DD HH:MM", s)
}

// newSession builds a session for images from flags and configuration.
func (r *Root) newSession(fs *pflag.FlagSet, f *stampFlags, images []string) (*pipeline.Session, error) {
	point, address, label, err := r.location(fs, f)
	if err != nil {
		return nil, err
	}
	corner, err := caption.ParseCorner(f.corner)
	if err != nil {
		return nil, err
	}
	start, err := r.parseStart(f.start)
	if err != nil {
		return nil, err
	}
	return &pipeline.Session{
		Images:   images,
		Point:    point,
		Address:  address,
		Label:    label,
		Corner:   corner,
		FontSize: f.fontSize,
		Window: sequence.Window{
			Start:       start,
			FromMinutes: f.from,
			ToMinutes:   f.to,
		},
	}, nil
}

// orderImages applies at most one of --move-to, --reverse and --drop.
func orderImages(images []string, f *stampFlags) ([]string, error) {
	ops := 0
	for _, set := range []bool{f.moveTo > 0, f.reverse, f.drop} {
		if set {
			ops++
		}
	}
	if ops > 1 {
		return nil, fmt.Errorf("use only one of --move-to, --reverse and --drop")
	}
	selected, err := order.ParseSelection(f.selection)
	if err != nil {
		return nil, err
	}
	if (f.moveTo > 0 || f.drop) && len(selected) == 0 {
		return nil, fmt.Errorf("--move-to and --drop need --select")
	}
	switch {
	case f.moveTo > 0:
		return order.Move(images, selected, f.moveTo), nil
	case f.reverse:
		return order.Reverse(images, selected), nil
	case f.drop:
		return order.Remove(images, selected), nil
	}
	return images, nil
}

func expandAndOrder(args []string, f *stampFlags) ([]string, error) {
	images, err := fsutil.ExpandInputs(args)
	if err != nil {
		return nil, err
	}
	images, err = orderImages(images, f)
	if err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("no jpeg or png images found")
	}
	return images, nil
}
