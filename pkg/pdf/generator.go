package pdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/goliatone/go-reportgen/pkg/model"
)

// ErrClosed is returned when a Generator is used after Close.
var ErrClosed = errors.New("pdf: generator closed")

// Document is one report ready for printing.
type Document struct {
	Name     string
	HTML     string
	Metadata model.Metadata
	// Layout overrides the category layout when non-nil.
	Layout *Layout
	// Vars are merged into the header/footer/watermark substitutions.
	Vars map[string]string
}

// PrintOptions is the resolved print request handed to a Printer.
type PrintOptions struct {
	Layout Layout
	Header string
	Footer string
}

// Printer prints HTML to PDF. The rod-backed implementation drives a
// headless Chromium; tests substitute their own.
type Printer interface {
	Print(ctx context.Context, html string, options PrintOptions) ([]byte, error)
	Close() error
}

// LaunchFunc starts a Printer. It is called at most once per Generator
// lifetime unless a launch fails.
type LaunchFunc func(ctx context.Context) (Printer, error)

// Option configures a Generator.
type Option func(*Generator)

// WithLauncher replaces the default rod launcher.
func WithLauncher(fn LaunchFunc) Option {
	return func(g *Generator) {
		if fn != nil {
			g.launch = fn
		}
	}
}

// WithBrowser configures the default launcher: the Chromium binary (empty
// lets rod find or download one) and an optional existing control URL.
func WithBrowser(bin, controlURL string) Option {
	return func(g *Generator) {
		g.launch = RodLauncher(bin, controlURL)
	}
}

// WithLaunchRetry sets how many times a failed launch is attempted and the
// delay between attempts.
func WithLaunchRetry(attempts uint, delay time.Duration) Option {
	return func(g *Generator) {
		if attempts > 0 {
			g.attempts = attempts
		}
		if delay > 0 {
			g.delay = delay
		}
	}
}

// WithWatermarker replaces the pdfcpu watermark stage.
func WithWatermarker(fn func([]byte, Watermark) ([]byte, error)) Option {
	return func(g *Generator) {
		if fn != nil {
			g.watermark = fn
		}
	}
}

// WithClock overrides the time source used for the {{date}} variable.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// WithLogger sets the generator logger.
func WithLogger(logger *zap.Logger) Option {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// Generator owns a browser for the duration of its lifetime. The browser is
// started on first use, shared by concurrent calls, and released by Close.
type Generator struct {
	mu       sync.Mutex
	printer  Printer
	closed   bool
	launches int

	launch    LaunchFunc
	attempts  uint
	delay     time.Duration
	watermark func([]byte, Watermark) ([]byte, error)
	now       func() time.Time
	logger    *zap.Logger
}

// NewGenerator configures a generator. No browser is started until the
// first Generate call.
func NewGenerator(options ...Option) *Generator {
	g := &Generator{
		launch:    RodLauncher("", ""),
		attempts:  3,
		delay:     500 * time.Millisecond,
		watermark: ApplyWatermark,
		now:       time.Now,
		logger:    zap.NewNop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Generate prints doc using its category layout and stamps the watermark.
func (g *Generator) Generate(ctx context.Context, doc Document) ([]byte, error) {
	printer, err := g.acquire(ctx)
	if err != nil {
		return nil, err
	}

	layout := LayoutFor(doc.Metadata.Category)
	if doc.Layout != nil {
		layout = *doc.Layout
	}
	vars := Vars(doc.Metadata, g.now(), doc.Vars)

	started := time.Now()
	out, err := printer.Print(ctx, doc.HTML, PrintOptions{
		Layout: layout,
		Header: Substitute(layout.Header, vars),
		Footer: Substitute(layout.Footer, vars),
	})
	if err != nil {
		return nil, fmt.Errorf("pdf: print %s: %w", doc.Name, err)
	}

	if layout.Watermark.Enabled() {
		mark := layout.Watermark
		mark.Text = SubstituteText(mark.Text, vars)
		out, err = g.watermark(out, mark)
		if err != nil {
			return nil, fmt.Errorf("pdf: watermark %s: %w", doc.Name, err)
		}
	}

	fields := []zap.Field{
		zap.String("document", doc.Name),
		zap.String("category", doc.Metadata.Category),
		zap.Int("bytes", len(out)),
		zap.Duration("elapsed", time.Since(started)),
	}
	if pages, err := PageCount(out); err == nil {
		fields = append(fields, zap.Int("pages", pages))
	} else {
		g.logger.Debug("pdf page count unavailable", zap.String("document", doc.Name), zap.Error(err))
	}
	g.logger.Info("pdf generated", fields...)
	return out, nil
}

// Launches reports how many times a browser was started.
func (g *Generator) Launches() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.launches
}

// Close releases the browser. Further Generate calls fail with ErrClosed.
func (g *Generator) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil
	}
	g.closed = true
	if g.printer == nil {
		return nil
	}
	err := g.printer.Close()
	g.printer = nil
	g.logger.Info("pdf browser released")
	return err
}

// acquire returns the shared printer, launching it under the lock so
// concurrent first callers wait for a single launch.
func (g *Generator) acquire(ctx context.Context) (Printer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil, ErrClosed
	}
	if g.printer != nil {
		return g.printer, nil
	}

	var printer Printer
	err := retry.Do(
		func() error {
			p, err := g.launch(ctx)
			if err != nil {
				return err
			}
			printer = p
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(g.attempts),
		retry.Delay(g.delay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			g.logger.Warn("pdf browser launch failed", zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("pdf: launch browser: %w", err)
	}

	g.printer = printer
	g.launches++
	g.logger.Info("pdf browser started")
	return printer, nil
}

// RodLauncher starts (or connects to) Chromium through rod.
func RodLauncher(bin, controlURL string) LaunchFunc {
	return func(ctx context.Context) (Printer, error) {
		// A fresh browser is launched per attempt unless a control URL was
		// configured, so a retry never dials a browser killed by a failed
		// attempt.
		url := controlURL
		var l *launcher.Launcher
		if url == "" {
			var err error
			l, url, err = startBrowser(bin)
			if err != nil {
				return nil, fmt.Errorf("launch chromium: %w", err)
			}
		}

		browser, err := connectBrowser(url)
		if err != nil {
			if l != nil {
				l.Kill()
			}
			return nil, fmt.Errorf("connect chromium: %w", err)
		}
		return &rodPrinter{browser: browser, launcher: l}, nil
	}
}

var startBrowser = func(bin string) (*launcher.Launcher, string, error) {
	l := launcher.New().Headless(true).Leakless(false)
	if bin != "" {
		l = l.Bin(bin)
	}
	url, err := l.Launch()
	if err != nil {
		return nil, "", err
	}
	return l, url, nil
}

var connectBrowser = func(url string) (*rod.Browser, error) {
	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		return nil, err
	}
	return browser, nil
}

type rodPrinter struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
}

func (p *rodPrinter) Print(ctx context.Context, html string, options PrintOptions) ([]byte, error) {
	page, err := p.browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer page.Close()

	if err := page.SetDocumentContent(html); err != nil {
		return nil, fmt.Errorf("set content: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load: %w", err)
	}

	layout := options.Layout
	width, height := layout.PaperSize()
	req := &proto.PagePrintToPDF{
		// PaperSize already swaps the dimensions for landscape layouts.
		Landscape:           false,
		PrintBackground:     layout.PrintBackground,
		PaperWidth:          &width,
		PaperHeight:         &height,
		MarginTop:           floatPtr(layout.Margins.Top),
		MarginRight:         floatPtr(layout.Margins.Right),
		MarginBottom:        floatPtr(layout.Margins.Bottom),
		MarginLeft:          floatPtr(layout.Margins.Left),
		DisplayHeaderFooter: options.Header != "" || options.Footer != "",
		HeaderTemplate:      emptyTemplate(options.Header),
		FooterTemplate:      emptyTemplate(options.Footer),
	}

	stream, err := page.PDF(req)
	if err != nil {
		return nil, fmt.Errorf("print: %w", err)
	}
	return io.ReadAll(stream)
}

func (p *rodPrinter) Close() error {
	err := p.browser.Close()
	if p.launcher != nil {
		p.launcher.Kill()
	}
	return err
}

func floatPtr(v float64) *float64 {
	return &v
}

// emptyTemplate keeps Chrome from printing its default header or footer
// when only one of the two is configured.
func emptyTemplate(tpl string) string {
	if tpl == "" {
		return "<span></span>"
	}
	return tpl
}
