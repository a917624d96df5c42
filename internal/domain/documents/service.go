package documents

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"rfidstock/internal/core/apperror"
	appctx "rfidstock/internal/core/context"
	"rfidstock/internal/core/entity"
	"rfidstock/internal/domain"
	"rfidstock/internal/domain/filter"
	"rfidstock/pkg/logger"
)

const (
	// DefaultRecentLimit is the home feed size per kind.
	DefaultRecentLimit = 5

	// LinkOptionsLimit caps the names fetched for one link dropdown.
	LinkOptionsLimit = 10000
)

// OptionCache stores link dropdown options.
type OptionCache interface {
	Get(key string) ([]string, bool)
	Add(key string, names []string)
}

// Service provides business operations over ERP documents.
type Service struct {
	repo    domain.DocumentRepository
	kinds   *Resolver
	options OptionCache // Optional
	hooks   *domain.HookRegistry[Doc]
	now     func() time.Time
}

// NewService creates a new document service.
func NewService(repo domain.DocumentRepository, kinds *Resolver, options OptionCache) *Service {
	return &Service{
		repo:    repo,
		kinds:   kinds,
		options: options,
		hooks:   domain.NewHookRegistry[Doc](),
		now:     time.Now,
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[Doc] {
	return s.hooks
}

// Kinds returns the kind resolver.
func (s *Service) Kinds() *Resolver {
	return s.kinds
}

// Kind resolves a slug or doctype.
func (s *Service) Kind(name string) (Kind, error) {
	return s.kinds.Kind(name)
}

// List returns one page of documents as raw field maps.
func (s *Service) List(ctx context.Context, kind Kind, f domain.ListFilter) (domain.ListResult[map[string]any], error) {
	if len(f.Fields) == 0 {
		f.Fields = kind.ListFields
	}
	if f.OrderBy.Field == "" {
		f.OrderBy = domain.DefaultListFilter().OrderBy
	}

	rows := make([]map[string]any, 0)
	if err := s.repo.GetDocList(ctx, kind.Doctype, f, &rows); err != nil {
		return domain.ListResult[map[string]any]{}, err
	}

	return domain.ListResult[map[string]any]{
		Items:  rows,
		Limit:  f.Limit,
		Offset: f.Offset,
	}, nil
}

// Load fetches a document with its child tables.
func (s *Service) Load(ctx context.Context, kind Kind, name string) (Doc, error) {
	doc := kind.New()
	if err := s.repo.GetDoc(ctx, kind.Doctype, name, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// New builds an unsaved document with the form defaults.
func (s *Service) New(kind Kind) (Doc, error) {
	doc, err := kind.Default(s.now())
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	return doc, nil
}

// Save validates doc and creates or updates it in the ERP.
// The stored version returned by the server is decoded into a fresh document.
func (s *Service) Save(ctx context.Context, doc Doc) (Doc, error) {
	kind, err := s.kinds.Kind(doc.Doctype())
	if err != nil {
		return nil, err
	}
	header := doc.Header()

	if !header.IsNew() {
		if err := header.CanModify(kind.Doctype); err != nil {
			return nil, err
		}
	}

	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}

	if err := s.hooks.Run(ctx, domain.BeforeSave, doc); err != nil {
		return nil, err
	}

	saved := kind.New()
	if header.IsNew() {
		err = s.repo.CreateDoc(ctx, kind.Doctype, doc.Payload(), saved)
	} else {
		err = s.repo.UpdateDoc(ctx, kind.Doctype, header.Name, doc.Payload(), saved)
	}
	if err != nil {
		return nil, fmt.Errorf("save %s: %w", kind.Doctype, err)
	}

	if err := s.hooks.Run(ctx, domain.AfterSave, saved); err != nil {
		logger.Warn(ctx, "after-save hook failed", "error", err)
	}

	logger.Info(ctx, "document saved",
		"doctype", kind.Doctype,
		"name", saved.Header().Name,
		"created", header.IsNew())

	return saved, nil
}

// Update applies form values to a stored document.
// Identity and docstatus come from the stored version, not from values.
func (s *Service) Update(ctx context.Context, kind Kind, name string, values map[string]any) (Doc, error) {
	current, err := s.Load(ctx, kind, name)
	if err != nil {
		return nil, err
	}
	next, err := kind.Decode(values)
	if err != nil {
		return nil, err
	}
	*next.Header() = *current.Header()
	return s.Save(ctx, next)
}

// Delete removes a draft document.
func (s *Service) Delete(ctx context.Context, kind Kind, name string) error {
	doc, err := s.Load(ctx, kind, name)
	if err != nil {
		return err
	}
	if err := doc.Header().CanModify(kind.Doctype); err != nil {
		return err
	}

	if err := s.hooks.Run(ctx, domain.BeforeDelete, doc); err != nil {
		return err
	}

	if err := s.repo.DeleteDoc(ctx, kind.Doctype, name); err != nil {
		return fmt.Errorf("delete %s: %w", kind.Doctype, err)
	}

	if err := s.hooks.Run(ctx, domain.AfterDelete, doc); err != nil {
		logger.Warn(ctx, "after-delete hook failed", "error", err)
	}

	logger.Info(ctx, "document deleted", "doctype", kind.Doctype, "name", name)
	return nil
}

// Submit moves a draft to submitted.
// The ERP replaces the whole document on submit, so the stored version is sent back unchanged.
func (s *Service) Submit(ctx context.Context, kind Kind, name string) (Doc, error) {
	raw := map[string]any{}
	if err := s.repo.GetDoc(ctx, kind.Doctype, name, &raw); err != nil {
		return nil, err
	}

	if status := docStatus(raw["docstatus"]); status != entity.DocStatusDraft {
		return nil, apperror.NewDocumentSubmitted(kind.Doctype, name).
			WithDetail("docstatus", status.String())
	}
	raw["doctype"] = kind.Doctype

	submitted := kind.New()
	if err := s.repo.Submit(ctx, raw, submitted); err != nil {
		return nil, fmt.Errorf("submit %s: %w", kind.Doctype, err)
	}

	if err := s.hooks.Run(ctx, domain.AfterSubmit, submitted); err != nil {
		logger.Warn(ctx, "after-submit hook failed", "error", err)
	}

	logger.Info(ctx, "document submitted", "doctype", kind.Doctype, "name", name)
	return submitted, nil
}

// Feed is the home screen block of one kind.
type Feed struct {
	Kind    string           `json:"kind"`
	Doctype string           `json:"doctype"`
	Items   []map[string]any `json:"items"`
}

// Recent fetches the latest documents of every home feed kind concurrently.
func (s *Service) Recent(ctx context.Context, limit int) ([]Feed, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	var kinds []Kind
	for _, k := range s.kinds.Kinds() {
		if len(k.RecentFields) > 0 {
			kinds = append(kinds, k)
		}
	}

	feeds := make([]Feed, len(kinds))
	g, gctx := errgroup.WithContext(ctx)
	for i, k := range kinds {
		i, k := i, k
		g.Go(func() error {
			res, err := s.List(gctx, k, domain.ListFilter{
				Fields:  k.RecentFields,
				OrderBy: filter.Order{Field: "creation", Desc: true},
				Limit:   limit,
			})
			if err != nil {
				return fmt.Errorf("recent %s: %w", k.Doctype, err)
			}
			feeds[i] = Feed{Kind: k.Slug, Doctype: k.Doctype, Items: res.Items}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return feeds, nil
}

// LinkOptions returns the document names of a link target doctype.
// Results are cached per user.
func (s *Service) LinkOptions(ctx context.Context, doctype string) ([]string, error) {
	key := appctx.GetUserID(ctx) + "\x00" + doctype
	if s.options != nil {
		if names, ok := s.options.Get(key); ok {
			return names, nil
		}
	}

	var rows []struct {
		Name string `json:"name"`
	}
	err := s.repo.GetDocList(ctx, doctype, domain.ListFilter{
		Fields: []string{"name"},
		Limit:  LinkOptionsLimit,
	}, &rows)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(rows))
	for _, r := range rows {
		names = append(names, r.Name)
	}

	if s.options != nil {
		s.options.Add(key, names)
	}
	return names, nil
}

func docStatus(v any) entity.DocStatus {
	switch n := v.(type) {
	case float64:
		return entity.DocStatus(int(n))
	case int:
		return entity.DocStatus(n)
	case int64:
		return entity.DocStatus(n)
	}
	return entity.DocStatusDraft
}
