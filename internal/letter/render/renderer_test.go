package render

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/smallbiznis/peoplehub/internal/clock"
	"github.com/smallbiznis/peoplehub/internal/config"
	"github.com/smallbiznis/peoplehub/internal/letter/convert"
	"github.com/smallbiznis/peoplehub/internal/letter/convert/mocks"
	letterdomain "github.com/smallbiznis/peoplehub/internal/letter/domain"
	"github.com/smallbiznis/peoplehub/internal/storage/object/local"
	"github.com/smallbiznis/peoplehub/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var renderAt = time.Date(2026, 7, 1, 9, 30, 0, 0, time.UTC)

func samplePDF(t *testing.T) []byte {
	t.Helper()
	dir := t.TempDir()
	in := filepath.Join(dir, "sample.html")
	require.NoError(t, os.WriteFile(in, []byte("<p>sample</p>"), 0o644))
	out, err := convert.NewHTML().Convert(context.Background(), in, dir)
	require.NoError(t, err)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	return data
}

func wordTemplate(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(`<w:document xmlns:w="w"><w:body><w:p><w:r><w:t>` + body + `</w:t></w:r></w:p></w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func newRenderer(t *testing.T, office convert.Converter) (*Renderer, *local.Store) {
	t.Helper()
	store, err := local.New(t.TempDir())
	require.NoError(t, err)
	holder := config.NewStaticLetterConfigHolder(config.LetterConfig{
		Defaults: map[string]string{"company_name": "Acme Pvt Ltd", "company_address": "MG Road, Bengaluru"},
	})
	return New(store, office, convert.NewHTML(), t.TempDir(), holder, clock.NewFakeClock(renderAt), zap.NewNop()), store
}

func TestTemplateCandidatesOrder(t *testing.T) {
	got := TemplateCandidates("2026/offer.docx", "uploads", "templates")
	assert.Equal(t, []string{"2026/offer.docx", "uploads/2026/offer.docx", "templates/offer.docx"}, got)
}

func TestResolveTemplatePathReportsEveryCandidate(t *testing.T) {
	_, store := newRenderer(t, nil)

	_, err := ResolveTemplatePath(context.Background(), store, "offer.docx", "uploads", "templates")
	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindFileNotFound, appErr.Kind)
	assert.Equal(t, []string{"offer.docx", "uploads/offer.docx", "templates/offer.docx"}, appErr.Candidates)
}

func TestResolveTemplatePathFallsBackToBaseName(t *testing.T) {
	_, store := newRenderer(t, nil)
	require.NoError(t, store.Write(context.Background(), "templates/offer.docx", "", []byte("x")))

	got, err := ResolveTemplatePath(context.Background(), store, "/old/server/path/offer.docx", "uploads", "templates")
	require.NoError(t, err)
	assert.Equal(t, "templates/offer.docx", got)
}

func TestArtifactName(t *testing.T) {
	assert.Equal(t, "Offer_Letter_42_1782898200000", ArtifactName(letterdomain.LetterTypeOffer, "42", renderAt, false))
	assert.Equal(t, "Preview_Joining_Letter_42_1782898200000", ArtifactName(letterdomain.LetterTypeJoining, "42", renderAt, true))
}

func TestRenderWordTemplate(t *testing.T) {
	ctrl := gomock.NewController(t)
	office := mocks.NewMockConverter(ctrl)
	pdfBytes := samplePDF(t)
	office.EXPECT().
		Convert(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, in, outDir string) (string, error) {
			assert.True(t, strings.HasSuffix(in, "Offer_Letter_77_1782898200000.docx"))
			out := filepath.Join(outDir, "Offer_Letter_77_1782898200000.pdf")
			return out, os.WriteFile(out, pdfBytes, 0o644)
		})

	r, store := newRenderer(t, office)
	ctx := context.Background()
	require.NoError(t, store.Write(ctx, "uploads/offer.docx", "", wordTemplate(t, "Dear {{candidate_name}}, {{unknown}}")))

	res, err := r.Render(ctx, Request{
		Template:      &letterdomain.LetterTemplate{Name: "Offer", TemplateType: letterdomain.TemplateTypeWord, FilePath: "offer.docx"},
		LetterType:    letterdomain.LetterTypeOffer,
		ApplicationID: "77",
		Values:        map[string]string{"candidate_name": "Asha"},
	})
	require.NoError(t, err)
	assert.Equal(t, "letters/Offer_Letter_77_1782898200000.pdf", res.PDFKey)
	assert.Equal(t, "letters/Offer_Letter_77_1782898200000.docx", res.DocumentKey)
	assert.Equal(t, int64(len(pdfBytes)), res.PDFSize)

	stored, err := store.Read(ctx, res.DocumentKey)
	require.NoError(t, err)
	reader, err := zip.NewReader(bytes.NewReader(stored), int64(len(stored)))
	require.NoError(t, err)
	rc, err := reader.File[0].Open()
	require.NoError(t, err)
	var doc bytes.Buffer
	_, err = doc.ReadFrom(rc)
	require.NoError(t, err)
	assert.Contains(t, doc.String(), "Dear Asha, ")
}

func TestRenderConversionFailureStoresNothing(t *testing.T) {
	ctrl := gomock.NewController(t)
	office := mocks.NewMockConverter(ctrl)
	office.EXPECT().
		Convert(gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", apperr.ConversionFailure("soffice: not found", nil))

	r, store := newRenderer(t, office)
	ctx := context.Background()
	require.NoError(t, store.Write(ctx, "uploads/offer.docx", "", wordTemplate(t, "{{candidate_name}}")))

	_, err := r.Render(ctx, Request{
		Template:      &letterdomain.LetterTemplate{TemplateType: letterdomain.TemplateTypeWord, FilePath: "offer.docx"},
		LetterType:    letterdomain.LetterTypeOffer,
		ApplicationID: "77",
	})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindConversionFailure))

	exists, err := store.Exists(ctx, "letters/Offer_Letter_77_1782898200000.pdf")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRenderInvalidPDFIsRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	office := mocks.NewMockConverter(ctrl)
	office.EXPECT().
		Convert(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, in, outDir string) (string, error) {
			out := filepath.Join(outDir, "broken.pdf")
			return out, os.WriteFile(out, []byte("not a pdf"), 0o644)
		})

	r, store := newRenderer(t, office)
	ctx := context.Background()
	require.NoError(t, store.Write(ctx, "templates/offer.docx", "", wordTemplate(t, "x")))

	_, err := r.Render(ctx, Request{
		Template:      &letterdomain.LetterTemplate{TemplateType: letterdomain.TemplateTypeWord, FilePath: "offer.docx"},
		LetterType:    letterdomain.LetterTypeOffer,
		ApplicationID: "77",
	})
	assert.True(t, apperr.IsKind(err, apperr.KindConversionFailure))
}

func TestRenderLetterPadPreview(t *testing.T) {
	r, store := newRenderer(t, nil)
	ctx := context.Background()

	res, err := r.Render(ctx, Request{
		Template: &letterdomain.LetterTemplate{
			Name:         "Joining",
			TemplateType: letterdomain.TemplateTypeLetterPad,
			HTMLContent:  "<p>Welcome {{employee_name}}, code {{employee_code}}</p>",
		},
		LetterType:    letterdomain.LetterTypeJoining,
		ApplicationID: "9",
		Values:        map[string]string{"employee_name": "Asha", "employee_code": "EMP-1"},
		Preview:       true,
	})
	require.NoError(t, err)
	assert.Equal(t, "previews/Preview_Joining_Letter_9_1782898200000.pdf", res.PDFKey)

	page, err := store.Read(ctx, res.DocumentKey)
	require.NoError(t, err)
	assert.Contains(t, string(page), "Acme Pvt Ltd")
	assert.Contains(t, string(page), "Welcome Asha, code EMP-1")

	data, _, err := r.Load(ctx, res.PDFKey)
	require.NoError(t, err)
	assert.NoError(t, VerifyPDF(data))
}

func TestLoadMissingArtifact(t *testing.T) {
	r, _ := newRenderer(t, nil)

	_, _, err := r.Load(context.Background(), "letters/none.pdf")
	assert.True(t, apperr.IsKind(err, apperr.KindFileNotFound))
}

func TestRenderReusesPDFForIdenticalDocument(t *testing.T) {
	ctrl := gomock.NewController(t)
	office := mocks.NewMockConverter(ctrl)
	pdfBytes := samplePDF(t)
	office.EXPECT().
		Convert(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, in, outDir string) (string, error) {
			out := filepath.Join(outDir, strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))+".pdf")
			return out, os.WriteFile(out, pdfBytes, 0o644)
		}).
		Times(2)

	r, store := newRenderer(t, office)
	ctx := context.Background()
	require.NoError(t, store.Write(ctx, "uploads/offer.docx", "", wordTemplate(t, "Dear {{candidate_name}}")))

	render := func(name string) *Result {
		res, err := r.Render(ctx, Request{
			Template:      &letterdomain.LetterTemplate{Name: "Offer", TemplateType: letterdomain.TemplateTypeWord, FilePath: "offer.docx"},
			LetterType:    letterdomain.LetterTypeOffer,
			ApplicationID: "77",
			Values:        map[string]string{"candidate_name": name},
		})
		require.NoError(t, err)
		return res
	}

	render("Asha")
	again := render("Asha")
	stored, err := store.Read(ctx, again.PDFKey)
	require.NoError(t, err)
	assert.Equal(t, pdfBytes, stored)

	render("Ravi")

	working, err := filepath.Glob(filepath.Join(r.workDir, "letters", "*"))
	require.NoError(t, err)
	assert.Empty(t, working)
	kept, err := filepath.Glob(filepath.Join(r.workDir, cacheDir, "*.pdf"))
	require.NoError(t, err)
	assert.Len(t, kept, 2)
}
