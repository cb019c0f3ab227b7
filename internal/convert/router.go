package convert

import (
	"context"
	"errors"
	"fmt"
	"time"

	"metamorphosis/internal/background"
	"metamorphosis/internal/catalog"
	"metamorphosis/internal/ebook"
	"metamorphosis/internal/filesystem"
	"metamorphosis/internal/logging"
	"metamorphosis/internal/media"
	"metamorphosis/internal/transcoder"
)

// ImageConverter performs the still image route.
type ImageConverter interface {
	ConvertImage(ctx context.Context, input, output string) error
}

// MediaTranscoder performs the clip routes.
type MediaTranscoder interface {
	ExtractAudio(ctx context.Context, input, output string) error
	ToAnimation(ctx context.Context, input, output string) error
	ToVideo(ctx context.Context, input, output string) error
}

// BookRenderer performs the e-book route.
type BookRenderer interface {
	RenderPDF(ctx context.Context, input, output string) error
}

// BackgroundRemover performs the background removal route.
type BackgroundRemover interface {
	RemoveBackground(ctx context.Context, input, output string) error
}

// Observer is notified of every finished request.
type Observer interface {
	ObserveConversion(res Result)
}

// Plan is a validated request: everything known before any I/O.
type Plan struct {
	Input     string
	SourceExt string
	Target    catalog.Target
	Output    string
	Route     Route
}

// Router validates requests and dispatches them to collaborators. It holds
// no per-request state and is safe for concurrent use.
type Router struct {
	images     ImageConverter
	media      MediaTranscoder
	books      BookRenderer
	background BackgroundRemover
	observer   Observer
	naming     Naming
	timeout    time.Duration
}

// Option configures a Router.
type Option func(*Router)

// WithNaming selects the output naming convention.
func WithNaming(n Naming) Option {
	return func(r *Router) { r.naming = n }
}

// WithTimeout bounds each request. Zero disables the limit.
func WithTimeout(d time.Duration) Option {
	return func(r *Router) { r.timeout = d }
}

// WithObserver registers an observer for finished requests.
func WithObserver(o Observer) Option {
	return func(r *Router) { r.observer = o }
}

// WithImageConverter sets the still image collaborator.
func WithImageConverter(c ImageConverter) Option {
	return func(r *Router) { r.images = c }
}

// WithTranscoder sets the clip collaborator.
func WithTranscoder(t MediaTranscoder) Option {
	return func(r *Router) { r.media = t }
}

// WithBookRenderer sets the e-book collaborator.
func WithBookRenderer(b BookRenderer) Option {
	return func(r *Router) { r.books = b }
}

// WithBackgroundRemover sets the background removal collaborator.
func WithBackgroundRemover(b BackgroundRemover) Option {
	return func(r *Router) { r.background = b }
}

// New creates a Router. Routes whose collaborator is not set fail with
// FeatureUnavailable.
func New(opts ...Option) *Router {
	r := &Router{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Tools names the external executables used by NewDefault. Empty fields
// fall back to the executables on PATH.
type Tools struct {
	FFmpeg  string
	FFprobe string
	Rembg   string
}

// NewDefault creates a Router wired to the real implementations. Options
// are applied after the defaults and may replace them.
func NewDefault(tools Tools, opts ...Option) *Router {
	defaults := []Option{
		WithImageConverter(media.NewConverter()),
		WithTranscoder(transcoder.New(tools.FFmpeg, tools.FFprobe)),
		WithBookRenderer(ebook.NewRenderer()),
		WithBackgroundRemover(background.New(tools.Rembg)),
	}
	return New(append(defaults, opts...)...)
}

// Naming returns the router's output naming convention.
func (r *Router) Naming() Naming {
	return r.naming
}

// Plan validates a request without touching the filesystem.
func (r *Router) Plan(input, token string) (Plan, error) {
	src := catalog.Ext(input)
	if !catalog.IsValidSource(input) {
		return Plan{}, newError(UnsupportedSource, "unsupported source format: %s", displayExt(src))
	}

	target, err := catalog.ParseTarget(token)
	if err != nil {
		return Plan{}, &Error{Kind: UnsupportedCombination, Msg: "unsupported combination", Err: err}
	}

	if r.naming == InPlace && src == target.Ext {
		return Plan{}, newError(NoOpSameFormat, "ignored: same format")
	}

	route, err := ResolveRoute(src, target)
	if err != nil {
		return Plan{}, err
	}

	return Plan{
		Input:     input,
		SourceExt: src,
		Target:    target,
		Output:    OutputPath(input, target.Ext, r.naming),
		Route:     route,
	}, nil
}

// Convert performs one request. Failures, including panics in a
// collaborator, are reported through Result.Err.
func (r *Router) Convert(ctx context.Context, input, token string) (res Result) {
	start := time.Now()
	res = Result{Input: input, Target: token}

	defer func() {
		res.Duration = time.Since(start)
		if res.Err != nil {
			logging.Debug("Conversion of %s to %s failed (%s): %v", input, token, res.Kind(), res.Err)
		}
		if r.observer != nil {
			r.observer.ObserveConversion(res)
		}
	}()

	plan, err := r.Plan(input, token)
	if err != nil {
		res.Err = err
		return res
	}
	res.Target = plan.Target.Token
	res.Route = plan.Route

	info, err := filesystem.StatWithRetry(input, filesystem.DefaultRetryConfig())
	if err != nil {
		res.Err = &Error{Kind: UnderlyingFailure, Err: err}
		return res
	}
	if info.IsDir() {
		res.Err = newError(UnderlyingFailure, "%s is a directory", input)
		return res
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	logging.Debug("Converting %s -> %s via %s route", input, plan.Output, plan.Route)
	if err := r.dispatch(ctx, plan); err != nil {
		res.Err = classify(err)
		return res
	}

	res.Output = plan.Output
	return res
}

// dispatch runs the collaborator for plan.Route. Panics are recovered
// into errors.
func (r *Router) dispatch(ctx context.Context, plan Plan) (err error) {
	defer func() {
		if p := recover(); p != nil {
			logging.Error("Recovered panic converting %s: %v", plan.Input, p)
			err = fmt.Errorf("panic during %s conversion: %v", plan.Route, p)
		}
	}()

	in, out := plan.Input, plan.Output

	switch plan.Route {
	case RouteBook:
		if r.books == nil {
			return unavailable("e-book rendering")
		}
		return r.books.RenderPDF(ctx, in, out)
	case RouteBackground:
		if r.background == nil {
			return unavailable("background removal")
		}
		return r.background.RemoveBackground(ctx, in, out)
	case RouteAudioExtract, RouteAnimation, RouteVideo:
		if r.media == nil {
			return unavailable("media transcoding")
		}
		switch plan.Route {
		case RouteAudioExtract:
			return r.media.ExtractAudio(ctx, in, out)
		case RouteAnimation:
			return r.media.ToAnimation(ctx, in, out)
		default:
			return r.media.ToVideo(ctx, in, out)
		}
	case RouteImage:
		if r.images == nil {
			return unavailable("image conversion")
		}
		return r.images.ConvertImage(ctx, in, out)
	}
	return unsupportedCombination(plan.SourceExt, plan.Target.Token)
}

func unavailable(feature string) error {
	return fmt.Errorf("%w: %s is not configured", catalog.ErrFeatureUnavailable, feature)
}

// classify maps collaborator errors to a kind.
func classify(err error) error {
	var ce *Error
	if errors.As(err, &ce) {
		return err
	}
	if errors.Is(err, catalog.ErrFeatureUnavailable) {
		return &Error{Kind: FeatureUnavailable, Err: err}
	}
	return &Error{Kind: UnderlyingFailure, Err: err}
}
