// Package render produces letter PDFs from a template and resolved
// placeholder values.
package render

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/smallbiznis/peoplehub/internal/clock"
	"github.com/smallbiznis/peoplehub/internal/config"
	"github.com/smallbiznis/peoplehub/internal/letter/convert"
	"github.com/smallbiznis/peoplehub/internal/letter/docx"
	letterdomain "github.com/smallbiznis/peoplehub/internal/letter/domain"
	"github.com/smallbiznis/peoplehub/internal/observability/tracing"
	"github.com/smallbiznis/peoplehub/internal/storage/object"
	"github.com/smallbiznis/peoplehub/pkg/apperr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	tracerName = "peoplehub/letter/render"
	// cacheDir holds converted PDFs keyed by the hash of the substituted document.
	cacheDir = "pdf-cache"
)

type Request struct {
	Template      *letterdomain.LetterTemplate
	LetterType    letterdomain.LetterType
	ApplicationID string
	Values        map[string]string
	Preview       bool
}

// Result names the stored artifacts. Keys are object store keys.
type Result struct {
	DocumentKey string
	PDFKey      string
	PDFSize     int64
}

type Params struct {
	fx.In

	Cfg       config.Config
	LetterCfg *config.LetterConfigHolder
	Store     object.Store
	Office    *convert.Office
	HTML      *convert.HTML
	Clock     clock.Clock
	Log       *zap.Logger
}

type Renderer struct {
	store     object.Store
	office    convert.Converter
	html      convert.Converter
	workDir   string
	letterCfg *config.LetterConfigHolder
	clock     clock.Clock
	log       *zap.Logger
}

func NewRenderer(p Params) *Renderer {
	return New(p.Store, p.Office, p.HTML, p.Cfg.Letters.WorkDir, p.LetterCfg, p.Clock, p.Log)
}

func New(store object.Store, office, html convert.Converter, workDir string, letterCfg *config.LetterConfigHolder, clk clock.Clock, log *zap.Logger) *Renderer {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Renderer{
		store:     store,
		office:    office,
		html:      html,
		workDir:   workDir,
		letterCfg: letterCfg,
		clock:     clk,
		log:       log.Named("letter.render"),
	}
}

// Render substitutes, converts and stores one letter. The PDF is verified
// readable before its key is returned, so callers may persist the key.
func (r *Renderer) Render(ctx context.Context, req Request) (*Result, error) {
	if req.Template == nil {
		return nil, apperr.NotFound("template")
	}
	cfg := r.letterCfg.Get()

	var (
		document []byte
		ext      string
		conv     convert.Converter
		err      error
	)
	if req.Template.TemplateType.IsHTML() {
		body := docx.SubstituteHTML(req.Template.HTMLContent, req.Values)
		page, err := HTMLDocument(req.Template.Name, req.Template.TemplateType, body, LetterheadFromDefaults(cfg.Defaults))
		if err != nil {
			return nil, err
		}
		document, ext, conv = []byte(page), ".html", r.html
	} else {
		key, err := ResolveTemplatePath(ctx, r.store, req.Template.FilePath, cfg.UploadsDir, cfg.TemplatesDir)
		if err != nil {
			return nil, err
		}
		source, err := r.store.Read(ctx, key)
		if err != nil {
			return nil, err
		}
		if document, err = docx.Substitute(source, req.Values); err != nil {
			return nil, apperr.Validation("template", "invalid_docx", "template is not a readable .docx document")
		}
		ext, conv = ".docx", r.office
	}

	dir := cfg.GeneratedDir
	if req.Preview {
		dir = cfg.PreviewDir
	}
	name := ArtifactName(req.LetterType, req.ApplicationID, r.clock.Now(), req.Preview)

	pdfBytes, err := r.pdfFor(ctx, conv, document, filepath.Join(r.workDir, dir), name+ext, req)
	if err != nil {
		return nil, err
	}

	result := &Result{
		DocumentKey: path.Join(dir, name+ext),
		PDFKey:      path.Join(dir, name+".pdf"),
		PDFSize:     int64(len(pdfBytes)),
	}
	if err := r.store.Write(ctx, result.DocumentKey, object.ContentType(result.DocumentKey), document); err != nil {
		return nil, err
	}
	if err := r.store.Write(ctx, result.PDFKey, object.ContentType(result.PDFKey), pdfBytes); err != nil {
		return nil, err
	}
	ok, err := r.store.Exists(ctx, result.PDFKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.FileNotFound([]string{result.PDFKey})
	}
	return result, nil
}

func (r *Renderer) convert(ctx context.Context, conv convert.Converter, input, outDir string, req Request) (string, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "letter.convert")
	defer span.End()
	span.SetAttributes(tracing.SafeAttributes(
		attribute.String("letter.type", string(req.LetterType)),
		attribute.String("template.type", string(req.Template.TemplateType)),
		attribute.String("application.id", req.ApplicationID),
	)...)

	out, err := conv.Convert(ctx, input, outDir)
	if err != nil {
		span.RecordError(tracing.SafeError(err))
		span.SetStatus(codes.Error, "conversion failed")
		return "", err
	}
	return out, nil
}

// pdfFor converts the substituted document unless identical bytes were
// converted before, in which case the kept PDF is reused.
func (r *Renderer) pdfFor(ctx context.Context, conv convert.Converter, document []byte, localDir, fileName string, req Request) ([]byte, error) {
	cached := r.cachePath(document, filepath.Ext(fileName))
	if data, err := os.ReadFile(cached); err == nil && VerifyPDF(data) == nil {
		r.log.Debug("reusing converted pdf", zap.String("file", fileName))
		return data, nil
	}

	if err := os.MkdirAll(localDir, 0o755); err != nil {
		return nil, err
	}
	localDoc := filepath.Join(localDir, fileName)
	if err := os.WriteFile(localDoc, document, 0o644); err != nil {
		return nil, err
	}
	defer r.cleanup(localDoc)

	localPDF, err := r.convert(ctx, conv, localDoc, localDir, req)
	if err != nil {
		return nil, err
	}
	defer r.cleanup(localPDF)

	data, err := os.ReadFile(localPDF)
	if err != nil {
		return nil, apperr.ConversionFailure("converted pdf missing", err)
	}
	if err := VerifyPDF(data); err != nil {
		return nil, err
	}
	r.keep(cached, data)
	return data, nil
}

func (r *Renderer) cachePath(document []byte, ext string) string {
	h := sha256.New()
	h.Write([]byte(ext))
	h.Write(document)
	return filepath.Join(r.workDir, cacheDir, hex.EncodeToString(h.Sum(nil))+".pdf")
}

// keep stores a verified PDF in the cache. Failures only cost a later
// reconversion.
func (r *Renderer) keep(target string, data []byte) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		r.log.Debug("pdf cache unavailable", zap.Error(err))
		return
	}
	tmp, err := os.CreateTemp(filepath.Dir(target), "*.tmp")
	if err != nil {
		r.log.Debug("pdf cache unavailable", zap.Error(err))
		return
	}
	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		r.cleanup(tmp.Name())
		return
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		r.cleanup(tmp.Name())
	}
}

func (r *Renderer) cleanup(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		r.log.Debug("working file not removed", zap.String("path", path), zap.Error(err))
	}
}

// VerifyPDF checks that data parses as a PDF with at least one page.
func VerifyPDF(data []byte) error {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return apperr.ConversionFailure("converter output is not a valid pdf", err)
	}
	if reader.NumPage() < 1 {
		return apperr.ConversionFailure(fmt.Sprintf("converter output has %d pages", reader.NumPage()), nil)
	}
	return nil
}

// Load reads a stored artifact, reporting a missing object as FileNotFound.
func (r *Renderer) Load(ctx context.Context, key string) ([]byte, time.Time, error) {
	info, err := r.store.Stat(ctx, key)
	if err != nil {
		if errors.Is(err, object.ErrNotExist) {
			return nil, time.Time{}, apperr.FileNotFound([]string{key})
		}
		return nil, time.Time{}, err
	}
	data, err := r.store.Read(ctx, key)
	if err != nil {
		return nil, time.Time{}, err
	}
	return data, info.ModTime, nil
}
