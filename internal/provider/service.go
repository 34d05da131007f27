package provider

import (
	"context"
	"mime/multipart"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/nekogravitycat/event-planner/internal/file"
)

type CreateRequest struct {
	Name        string
	Contact     string
	Specialties []string
	Description string
	Price       *float64
}

type Service interface {
	Create(ctx context.Context, kind Kind, req CreateRequest, images []*multipart.FileHeader) (*Provider, error)
	List(ctx context.Context, kind Kind) ([]*Provider, error)
	// Resolve returns the providers for ids in request order, failing with
	// the kind's not-found error if any id is unknown.
	Resolve(ctx context.Context, kind Kind, ids []int64) ([]*Provider, error)
}

type service struct {
	repo  Repository
	files file.Service
	log   *zap.Logger
}

func NewService(repo Repository, files file.Service, log *zap.Logger) Service {
	return &service{repo: repo, files: files, log: log}
}

func (s *service) Create(ctx context.Context, kind Kind, req CreateRequest, images []*multipart.FileHeader) (*Provider, error) {
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrNameRequired
	}
	if req.Price != nil && *req.Price < 0 {
		return nil, ErrInvalidPrice
	}

	p := &Provider{
		Kind:        kind,
		Name:        strings.TrimSpace(req.Name),
		Contact:     strings.TrimSpace(req.Contact),
		Specialties: cleanSpecialties(req.Specialties),
		Description: req.Description,
		Price:       req.Price,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	refs, err := s.files.Save(ctx, kind.owner(), p.ID, images)
	if err != nil {
		if delErr := s.repo.Delete(ctx, p.ID); delErr != nil {
			s.log.Error("failed to roll back provider after image error",
				zap.String("kind", string(kind)), zap.Int64("id", p.ID), zap.Error(delErr))
		}
		return nil, err
	}
	p.Images = refs
	return p, nil
}

func (s *service) List(ctx context.Context, kind Kind) ([]*Provider, error) {
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}
	providers, err := s.repo.List(ctx, kind)
	if err != nil {
		return nil, err
	}
	if err := s.attachImages(ctx, kind, providers); err != nil {
		return nil, err
	}
	return providers, nil
}

func (s *service) Resolve(ctx context.Context, kind Kind, ids []int64) ([]*Provider, error) {
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}
	if len(ids) == 0 {
		return []*Provider{}, nil
	}

	unique := slices.Clone(ids)
	slices.Sort(unique)
	unique = slices.Compact(unique)

	found, err := s.repo.GetByIDs(ctx, kind, unique)
	if err != nil {
		return nil, err
	}
	if len(found) != len(unique) {
		return nil, kind.NotFound()
	}
	if err := s.attachImages(ctx, kind, found); err != nil {
		return nil, err
	}

	byID := make(map[int64]*Provider, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	out := make([]*Provider, 0, len(unique))
	seen := make(map[int64]bool, len(unique))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, byID[id])
	}
	return out, nil
}

func (s *service) attachImages(ctx context.Context, kind Kind, providers []*Provider) error {
	if len(providers) == 0 {
		return nil
	}
	ids := make([]int64, len(providers))
	for i, p := range providers {
		ids[i] = p.ID
	}
	images, err := s.files.ImagesFor(ctx, kind.owner(), ids)
	if err != nil {
		return err
	}
	for _, p := range providers {
		p.Images = images[p.ID]
	}
	return nil
}

func cleanSpecialties(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}
