package render

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	letterdomain "github.com/smallbiznis/peoplehub/internal/letter/domain"
	"github.com/smallbiznis/peoplehub/internal/storage/object"
	"github.com/smallbiznis/peoplehub/pkg/apperr"
)

const previewPrefix = "Preview_"

// TemplateCandidates lists where a stored template reference may live, in
// lookup order: as given, under the uploads dir, then by base name under the
// templates dir.
func TemplateCandidates(raw, uploadsDir, templatesDir string) []string {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), "\\", "/")
	if raw == "" {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	add := func(p string) {
		if _, ok := seen[p]; ok || p == "" {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	add(raw)
	add(path.Join(uploadsDir, strings.TrimLeft(raw, "/")))
	add(path.Join(templatesDir, path.Base(raw)))
	return out
}

// ResolveTemplatePath returns the first candidate present in the store.
func ResolveTemplatePath(ctx context.Context, store object.Store, raw, uploadsDir, templatesDir string) (string, error) {
	candidates := TemplateCandidates(raw, uploadsDir, templatesDir)
	for _, candidate := range candidates {
		ok, err := store.Exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if ok {
			return candidate, nil
		}
	}
	if len(candidates) == 0 {
		candidates = []string{raw}
	}
	return "", apperr.FileNotFound(candidates)
}

// ArtifactName is the file stem shared by the working document and its PDF.
func ArtifactName(letterType letterdomain.LetterType, applicationID string, at time.Time, preview bool) string {
	kind := "Offer"
	if letterType == letterdomain.LetterTypeJoining {
		kind = "Joining"
	}
	name := fmt.Sprintf("%s_Letter_%s_%d", kind, applicationID, at.UnixMilli())
	if preview {
		return previewPrefix + name
	}
	return name
}
