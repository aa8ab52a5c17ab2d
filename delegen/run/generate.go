package run

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	syntax "github.com/toejough/mockdelegates/delegen/run/0_syntax"
	cache "github.com/toejough/mockdelegates/delegen/run/1_cache"
	load "github.com/toejough/mockdelegates/delegen/run/2_load"
	detect "github.com/toejough/mockdelegates/delegen/run/3_detect"
	mock "github.com/toejough/mockdelegates/delegen/run/4_mock"
	render "github.com/toejough/mockdelegates/delegen/run/5_render"
	output "github.com/toejough/mockdelegates/delegen/run/6_output"
	"github.com/toejough/mockdelegates/internal/telemetry"
)

// request is one mock generation.
type request struct {
	File string
	Lang load.Language
	// TypeName, Line and Span select the declaration; all empty selects the only candidate.
	TypeName string
	Line     int
	Span     string
}

// result describes what a request produced.
type result struct {
	TypeName string
	MockName string
	Output   string
	Mocked   int
}

// generator carries what every request shares.
type generator struct {
	fs       FileSystem
	units    *cache.Units
	recorder *telemetry.Recorder
	logger   *slog.Logger
	out      io.Writer
	opts     Options
}

// unexported constants.
const (
	generatorName = "delegen"
)

// unexported variables.
var (
	errBadSpan = errors.New("span must be start:end byte offsets")
)

// generate runs one request end to end: load, select, synthesize, render, place and write.
func (g *generator) generate(ctx context.Context, req request) (result, error) {
	start := time.Now()
	logger := g.logger.With("request_id", uuid.NewString(), "file", req.File)

	lang, err := load.Resolve(req.Lang, req.File)
	if err != nil {
		return result{}, err
	}

	res, err := g.generateLang(ctx, logger, lang, req)

	outcome := telemetry.OutcomeWritten

	switch {
	case errors.Is(err, detect.ErrNotFound), errors.Is(err, detect.ErrNotMockable), errors.Is(err, detect.ErrAmbiguous):
		outcome = telemetry.OutcomeNoAction
	case err != nil:
		outcome = telemetry.OutcomeFailed
	case g.opts.Output.DryRun:
		outcome = telemetry.OutcomeDryRun
	}

	g.recorder.Request(ctx, string(lang), outcome, res.Mocked, time.Since(start))

	if err != nil {
		logger.Error("generation failed", "error", err)

		return result{}, err
	}

	logger.Info("mock generated", "type", res.TypeName, "mock", res.MockName, "output", res.Output,
		"members", res.Mocked, "duration", time.Since(start))

	return res, nil
}

//nolint:cyclop,funlen // Linear pipeline; each step can fail
func (g *generator) generateLang(
	ctx context.Context, logger *slog.Logger, lang load.Language, req request,
) (result, error) {
	if err := ctx.Err(); err != nil {
		return result{}, fmt.Errorf("before loading %s: %w", req.File, err)
	}

	unit, err := g.units.Load(ctx, req.File, func(ctx context.Context, path string, src []byte) (*syntax.CompilationUnit, error) {
		logger.Debug("parsing", "language", lang, "bytes", len(src))

		return load.Source(ctx, lang, path, src)
	})
	if err != nil {
		return result{}, err
	}

	sel, err := g.selection(req)
	if err != nil {
		return result{}, err
	}

	decl, err := detect.Find(unit, sel)
	if err != nil {
		return result{}, fmt.Errorf("%s: %w", req.File, err)
	}

	class, err := mock.AssembleClass(decl)
	if err != nil {
		return result{}, fmt.Errorf("%s: %w", decl.Name, err)
	}

	mockUnit, err := mock.AssembleUnit(unit, class)
	if err != nil {
		return result{}, fmt.Errorf("%s: %w", decl.Name, err)
	}

	srcProject, dest, err := g.destination(req.File, lang)
	if err != nil {
		return result{}, err
	}

	if dest.Linked {
		logger.Info("added dependency on source project", "project", dest.Project.File, "source", srcProject.Name)
	}

	docPath, err := output.DocumentPath(dest.Project, srcProject, req.File, class.Name, lang)
	if err != nil {
		return result{}, err
	}

	code, err := g.render(ctx, mockUnit, lang, req.File, srcProject, dest, docPath)
	if err != nil {
		return result{}, fmt.Errorf("rendering %s: %w", class.Name, err)
	}

	if err := ctx.Err(); err != nil {
		return result{}, fmt.Errorf("before writing %s: %w", docPath, err)
	}

	writeOpts := output.WriteOptions{
		DryRun:  g.opts.Output.DryRun,
		Diff:    g.opts.Output.Diff,
		Reorder: g.opts.Output.Reorder,
		Logger:  logger,
	}

	if err := output.Write(g.fs, docPath, code, lang, writeOpts, g.out); err != nil {
		return result{}, err
	}

	res := result{TypeName: decl.Name, MockName: class.Name, Output: docPath, Mocked: mockedMembers(class)}

	if g.opts.Output.DryRun {
		return res, nil
	}

	return res, g.record(req.File, lang, res)
}

// destination finds the source project and where its mocks go. A source outside any project is
// treated as a project of its own directory.
func (g *generator) destination(file string, lang load.Language) (output.Project, output.Destination, error) {
	srcProject, err := output.FindProject(g.fs, file, lang)
	if errors.Is(err, output.ErrNoProject) {
		dir := filepath.Dir(file)
		srcProject = output.Project{Name: filepath.Base(dir), Dir: dir}

		return srcProject, output.Destination{Project: srcProject}, nil
	}

	if err != nil {
		return output.Project{}, output.Destination{}, err
	}

	if !g.opts.Destination.Enabled {
		return srcProject, output.Destination{Project: srcProject}, nil
	}

	resolve := output.ResolveDestination
	if g.opts.Output.DryRun {
		resolve = output.FindDestination
	}

	dest, err := resolve(g.fs, srcProject, g.opts.Destination.SiblingSuffix)
	if err != nil {
		return output.Project{}, output.Destination{}, err
	}

	return srcProject, dest, nil
}

func (g *generator) record(file string, lang load.Language, res result) error {
	manifest, err := output.ReadManifest(g.fs, g.opts.Manifest.Path)
	if err != nil {
		return err
	}

	manifest.Record(output.Entry{Source: filepath.Clean(file), Type: res.TypeName, Output: res.Output, Language: string(lang)})

	return output.WriteManifest(g.fs, g.opts.Manifest.Path, manifest)
}

//nolint:cyclop // option assembly for the Go back-end
func (g *generator) render(
	ctx context.Context,
	unit *syntax.CompilationUnit,
	lang load.Language,
	file string,
	srcProject output.Project,
	dest output.Destination,
	docPath string,
) (string, error) {
	if lang != load.Go {
		return render.CSharp(unit)
	}

	opts := render.GoOptions{Generator: generatorName}

	if !dest.Sibling {
		return render.Go(unit, opts)
	}

	srcDir := filepath.Dir(file)

	pkg, err := load.ResolveGoPackage(ctx, srcDir)
	if err == nil {
		opts.SourcePath = pkg.Path
	} else if opts.SourcePath, err = output.ImportPath(srcProject, srcDir); err != nil {
		return "", err
	}

	if opts.PackagePath, err = output.ImportPath(dest.Project, filepath.Dir(docPath)); err != nil {
		return "", err
	}

	opts.PackageName = output.PackageName(opts.PackagePath)

	return render.Go(unit, opts)
}

func (g *generator) selection(req request) (detect.Selection, error) {
	switch {
	case req.TypeName != "":
		return detect.ByName(req.TypeName), nil
	case req.Span != "":
		startText, endText, ok := strings.Cut(req.Span, ":")
		if !ok {
			return detect.Selection{}, fmt.Errorf("%w: %q", errBadSpan, req.Span)
		}

		start, err1 := strconv.Atoi(strings.TrimSpace(startText))
		end, err2 := strconv.Atoi(strings.TrimSpace(endText))

		if err1 != nil || err2 != nil || start < 0 || end < start {
			return detect.Selection{}, fmt.Errorf("%w: %q", errBadSpan, req.Span)
		}

		return detect.BySpan(syntax.Span{Start: start, End: end}), nil
	case req.Line > 0:
		src, err := g.fs.ReadFile(req.File)
		if err != nil {
			return detect.Selection{}, fmt.Errorf("read %s: %w", req.File, err)
		}

		return detect.ByLine(src, req.Line)
	default:
		return detect.Selection{}, nil
	}
}

// mockedMembers counts the overriding members of a mock class.
func mockedMembers(class *syntax.TypeDecl) int {
	n := 0

	for _, m := range class.Members {
		switch m.(type) {
		case *syntax.Method, *syntax.Property:
			n++
		}
	}

	return n
}
