package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/totto/penpot-wizard-sub002/internal/config"
	"github.com/totto/penpot-wizard-sub002/internal/domain/search/mode"
	"github.com/totto/penpot-wizard-sub002/internal/domain/search/request"
	"github.com/totto/penpot-wizard-sub002/internal/domain/testcase"
	chiTransport "github.com/totto/penpot-wizard-sub002/internal/transport/chi"
	"github.com/totto/penpot-wizard-sub002/internal/tui"
	"github.com/totto/penpot-wizard-sub002/internal/usecase/validation"
)

// searchFlags registers the search override flags shared by validate and query.
type searchFlags struct {
	mode       string
	limit      int
	tolerance  *float64
	similarity *float64
	property   string
	fusion     string
}

func (f *searchFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.mode, "mode", "", "search mode: hybrid, vector or fulltext (default: vector for bare queries)")
	fs.IntVar(&f.limit, "limit", 0, "maximum hits per query (default 5)")
	fs.Func("tolerance", "maximum cosine distance in vector mode (default 0.4)", floatFlag(&f.tolerance))
	fs.Func("similarity", "minimum combined score in hybrid mode (default 0.85)", floatFlag(&f.similarity))
	fs.StringVar(&f.property, "property", "", "vector field to score (default embedding)")
	fs.StringVar(&f.fusion, "fusion", "", "hybrid fusion: weighted or rrf (default weighted)")
}

func (f *searchFlags) options() request.Options {
	return request.Options{
		Mode:       mode.Mode(f.mode),
		Limit:      f.limit,
		Tolerance:  f.tolerance,
		Similarity: f.similarity,
		Property:   f.property,
		Fusion:     request.Fusion(f.fusion),
	}
}

// floatFlag sets *dst only when the flag is given, so an explicit 0 is kept.
func floatFlag(dst **float64) func(string) error {
	return func(v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		*dst = request.Float(f)
		return nil
	}
}

func newFlagSet(a *app, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func parse(fs *flag.FlagSet, args []string, want int, names string) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		return nil, usageError{msg: err.Error()}
	}
	if fs.NArg() < want {
		return nil, usageError{msg: "expected " + names}
	}
	return fs.Args(), nil
}

func cmdValidate(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "validate")
	var sf searchFlags
	sf.register(fs)
	strict := fs.Bool("strict", false, "accept only normalized equality on url, page id or document id")
	pos, err := parse(fs, args, 2, "<archive> <cases.json>")
	if err != nil {
		return err
	}

	cases, err := testcase.LoadFile(pos[1])
	if err != nil {
		return err
	}
	return a.validate(ctx, pos[0], cases, sf.options(), testcase.Matcher{Strict: *strict}, validation.WriteReport)
}

func cmdInteractive(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "interactive")
	pos, err := parse(fs, args, 0, "[dir]")
	if err != nil {
		return err
	}
	dir := config.DefaultRunDir
	if len(pos) > 0 {
		dir = pos[0]
	}

	runs, err := config.ListRuns(dir, a.logger)
	if err != nil {
		return err
	}
	rc, ok, err := tui.Pick(runs)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	cases, err := rc.Cases()
	if err != nil {
		return err
	}
	return a.validate(ctx, rc.Archive, cases, rc.Search.Options(), rc.Search.Matcher(), func(w io.Writer, r *testcase.Report) error {
		_, err := io.WriteString(w, tui.RenderReport(rc.Name, r))
		return err
	})
}

// validate restores an archive, runs the cases and prints the report.
// A run with failing cases returns errValidationFailed.
func (a *app) validate(
	ctx context.Context, archivePath string, cases []testcase.Case,
	opts request.Options, matcher testcase.Matcher,
	render func(io.Writer, *testcase.Report) error,
) error {
	if err := testcase.Check(cases); err != nil {
		return err
	}
	idx, err := a.restore(ctx, archivePath)
	if err != nil {
		return err
	}
	report, err := a.validator(validation.WithMatcher(matcher)).Validate(ctx, idx, cases, opts)
	if err != nil {
		return err
	}
	if err := render(a.stdout, report); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if report.Failed() {
		return errValidationFailed
	}
	return nil
}

func cmdBuild(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "build")
	pos, err := parse(fs, args, 2, "<corpus.json> <out.gz>")
	if err != nil {
		return err
	}
	idx, err := a.builder().BuildFile(ctx, pos[0], pos[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "wrote %s (%d documents)\n", pos[1], idx.Len())
	return nil
}

func cmdQuery(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "query")
	var sf searchFlags
	sf.register(fs)
	pos, err := parse(fs, args, 2, "<archive> <text>")
	if err != nil {
		return err
	}

	idx, err := a.restore(ctx, pos[0])
	if err != nil {
		return err
	}
	hits, err := a.searcher().Search(ctx, idx, strings.Join(pos[1:], " "), sf.options())
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		fmt.Fprintln(a.stdout, "no results")
		return nil
	}
	for i, h := range hits {
		doc := h.Document()
		ref := doc.URL()
		if ref == "" {
			ref = doc.PageID()
		}
		fmt.Fprintf(a.stdout, "%d. %s  %.4f  %s\n   %s\n", i+1, h.ID(), h.Score(), ref, doc.Text())
	}
	return nil
}

func cmdServe(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "serve")
	port := fs.Int("port", a.cfg.HTTP.Port, "listen port")
	pos, err := parse(fs, args, 1, "<archive>")
	if err != nil {
		return err
	}

	idx, err := a.restore(ctx, pos[0])
	if err != nil {
		return err
	}

	server := chiTransport.NewServer(idx, a.searcher(), a.health(), a.logger)
	addr := fmt.Sprintf(":%d", *port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(),
		ReadTimeout:  time.Duration(a.cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(a.cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Starting HTTP server", zap.String("addr", addr), zap.Int("documents", idx.Len()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	a.logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(a.cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	a.logger.Info("Server stopped gracefully")
	return nil
}
