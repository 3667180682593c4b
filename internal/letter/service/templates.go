package service

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/gosimple/slug"
	"github.com/smallbiznis/peoplehub/internal/letter/docx"
	letterdomain "github.com/smallbiznis/peoplehub/internal/letter/domain"
	"github.com/smallbiznis/peoplehub/pkg/apperr"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// UploadTemplate stores the template body and its placeholder list. The
// list is extracted here once and never recomputed.
func (s *Service) UploadTemplate(ctx context.Context, req letterdomain.UploadTemplateRequest) (*letterdomain.TemplateResponse, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, letterdomain.ErrInvalidName
	}
	letterType := letterdomain.LetterType(strings.ToLower(strings.TrimSpace(req.Type)))
	if !letterType.Valid() {
		return nil, letterdomain.ErrInvalidLetterType
	}
	templateType := letterdomain.TemplateType(strings.ToUpper(strings.TrimSpace(req.TemplateType)))
	if templateType == "" {
		templateType = letterdomain.TemplateTypeWord
	}
	if !templateType.Valid() {
		return nil, letterdomain.ErrInvalidTemplateType
	}

	now := s.now()
	tmpl := &letterdomain.LetterTemplate{
		ID:           s.genID.Generate(),
		OrgID:        orgID,
		Name:         name,
		Type:         letterType,
		TemplateType: templateType,
		IsDefault:    req.IsDefault,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if templateType.IsHTML() {
		body := strings.TrimSpace(req.HTMLContent)
		if body == "" {
			return nil, letterdomain.ErrEmptyTemplate
		}
		tmpl.HTMLContent = body
		tmpl.Placeholders = datatypes.JSONSlice[string](docx.ExtractHTMLPlaceholders(body))
	} else {
		if len(req.Content) == 0 {
			return nil, letterdomain.ErrEmptyTemplate
		}
		if !strings.EqualFold(path.Ext(req.FileName), ".docx") {
			return nil, letterdomain.ErrInvalidTemplateFile
		}
		if _, err := docx.Substitute(req.Content, nil); err != nil {
			return nil, letterdomain.ErrInvalidTemplateFile
		}
		tmpl.FilePath = templateFileName(orgID.String(), req.FileName, tmpl.ID.String())
		tmpl.Placeholders = datatypes.JSONSlice[string](docx.ExtractPlaceholders(req.Content))

		key := path.Join(s.letterCfg.Get().UploadsDir, tmpl.FilePath)
		if err := s.store.Write(ctx, key, docxContentType, req.Content); err != nil {
			return nil, err
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if !tmpl.IsDefault {
			current, err := s.repo.FindDefaultTemplate(ctx, tx, orgID, letterType)
			if err != nil {
				return err
			}
			// The first template of a type becomes the default.
			tmpl.IsDefault = current == nil
		}
		if err := s.repo.InsertTemplate(ctx, tx, tmpl); err != nil {
			return err
		}
		if tmpl.IsDefault {
			return s.repo.SetDefault(ctx, tx, tmpl, now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("letter template uploaded",
		zap.String("template_id", tmpl.ID.String()),
		zap.String("type", string(letterType)),
		zap.String("template_type", string(templateType)),
		zap.Int("placeholders", len(tmpl.Placeholders)),
	)
	s.emitAudit(ctx, orgID, "letter_template.uploaded", "letter_template", tmpl.ID, map[string]any{
		"type":          string(letterType),
		"template_type": string(templateType),
		"is_default":    tmpl.IsDefault,
	})
	return s.toTemplateResponse(tmpl), nil
}

func (s *Service) ListTemplates(ctx context.Context, req letterdomain.ListTemplatesRequest) ([]letterdomain.TemplateResponse, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}
	letterType := letterdomain.LetterType(strings.ToLower(strings.TrimSpace(req.Type)))
	if letterType != "" && !letterType.Valid() {
		return nil, letterdomain.ErrInvalidLetterType
	}

	items, err := s.repo.ListTemplates(ctx, s.db, orgID, letterType)
	if err != nil {
		return nil, err
	}
	resp := make([]letterdomain.TemplateResponse, 0, len(items))
	for i := range items {
		resp = append(resp, *s.toTemplateResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) GetTemplate(ctx context.Context, id string) (*letterdomain.TemplateResponse, error) {
	tmpl, err := s.loadTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toTemplateResponse(tmpl), nil
}

func (s *Service) SetDefaultTemplate(ctx context.Context, id string) (*letterdomain.TemplateResponse, error) {
	tmpl, err := s.loadTemplate(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.SetDefault(ctx, tx, tmpl, now)
	})
	if err != nil {
		return nil, err
	}
	tmpl.IsDefault = true
	tmpl.UpdatedAt = now

	s.emitAudit(ctx, tmpl.OrgID, "letter_template.default_set", "letter_template", tmpl.ID, map[string]any{
		"type": string(tmpl.Type),
	})
	return s.toTemplateResponse(tmpl), nil
}

func (s *Service) loadTemplate(ctx context.Context, id string) (*letterdomain.LetterTemplate, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}
	templateID, err := letterdomain.ParseID(id)
	if err != nil {
		return nil, err
	}
	tmpl, err := s.repo.FindTemplateByID(ctx, s.db, orgID, templateID)
	if err != nil {
		return nil, err
	}
	if tmpl == nil {
		return nil, apperr.NotFound("letter_template")
	}
	return tmpl, nil
}

// templateFileName keeps uploads of the same name apart by suffixing the id.
func templateFileName(orgID, fileName, id string) string {
	base := strings.TrimSuffix(path.Base(strings.ReplaceAll(fileName, "\\", "/")), path.Ext(fileName))
	name := slug.Make(base)
	if name == "" {
		name = "template"
	}
	return path.Join(orgID, fmt.Sprintf("%s-%s.docx", name, id))
}
