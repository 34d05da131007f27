package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nekogravitycat/event-planner/internal/model"
	"github.com/nekogravitycat/event-planner/internal/pkg/storage"
)

// MaxImageBytes bounds a single uploaded image.
const MaxImageBytes = 10 << 20

type Service interface {
	// Save stores uploads for one owner in the given order. Either all
	// images are saved or none are.
	Save(ctx context.Context, kind OwnerKind, ownerID int64, uploads []*multipart.FileHeader) ([]model.Image, error)
	// ImagesFor returns the images of each owner, keyed by owner id.
	ImagesFor(ctx context.Context, kind OwnerKind, ownerIDs []int64) (map[int64][]model.Image, error)
	Open(ctx context.Context, name string, thumbnail bool) (io.ReadCloser, *Image, error)
}

type service struct {
	repo    Repository
	storage storage.Storage
	imgProc *storage.ImageProcessor
	log     *zap.Logger
}

func NewService(repo Repository, store storage.Storage, log *zap.Logger) Service {
	return &service{
		repo:    repo,
		storage: store,
		imgProc: storage.NewImageProcessor(),
		log:     log,
	}
}

func (s *service) Save(ctx context.Context, kind OwnerKind, ownerID int64, uploads []*multipart.FileHeader) ([]model.Image, error) {
	if ownerID <= 0 {
		return nil, ErrInvalidOwner
	}

	saved := make([]*Image, 0, len(uploads))
	for i, header := range uploads {
		img, err := s.saveOne(ctx, kind, ownerID, i, header)
		if err != nil {
			s.rollback(ctx, saved)
			return nil, err
		}
		saved = append(saved, img)
	}

	refs := make([]model.Image, len(saved))
	for i, img := range saved {
		refs[i] = img.Ref()
	}
	return refs, nil
}

func (s *service) saveOne(ctx context.Context, kind OwnerKind, ownerID int64, position int, header *multipart.FileHeader) (*Image, error) {
	if header.Size > MaxImageBytes {
		return nil, ErrTooLarge
	}

	src, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	content, err := io.ReadAll(io.LimitReader(src, MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file content: %w", err)
	}
	if len(content) > MaxImageBytes {
		return nil, ErrTooLarge
	}

	// Trust the bytes over the declared type.
	contentType := http.DetectContentType(content)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, ErrNotImage
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext == "" {
		ext = extensionFor(contentType)
	}

	name := uuid.NewString() + ext
	shard := name[:2]
	storagePath := fmt.Sprintf("upload/%s/%s", shard, name)

	if err := s.storage.Save(ctx, storagePath, bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("failed to save file to storage: %w", err)
	}

	var thumbnailPath *string
	thumb, err := s.imgProc.GenerateThumbnail(bytes.NewReader(content), 200, 200)
	if err != nil {
		s.log.Warn("thumbnail generation failed", zap.String("image", name), zap.Error(err))
	} else {
		tPath := fmt.Sprintf("upload/%s/%s_thumb.jpg", shard, strings.TrimSuffix(name, ext))
		if err := s.storage.Save(ctx, tPath, thumb); err != nil {
			s.log.Warn("thumbnail save failed", zap.String("image", name), zap.Error(err))
		} else {
			thumbnailPath = &tPath
		}
	}

	img := &Image{
		Name:          name,
		OwnerKind:     kind,
		OwnerID:       ownerID,
		Position:      position,
		StoragePath:   storagePath,
		ThumbnailPath: thumbnailPath,
		ContentType:   contentType,
		Size:          int64(len(content)),
	}
	if err := s.repo.Create(ctx, img); err != nil {
		s.removeFiles(ctx, img)
		return nil, err
	}
	return img, nil
}

func (s *service) rollback(ctx context.Context, images []*Image) {
	for _, img := range images {
		if err := s.repo.Delete(ctx, img.ID); err != nil {
			s.log.Warn("image rollback failed", zap.Int64("image_id", img.ID), zap.Error(err))
		}
		s.removeFiles(ctx, img)
	}
}

func (s *service) removeFiles(ctx context.Context, img *Image) {
	if err := s.storage.Delete(ctx, img.StoragePath); err != nil {
		s.log.Warn("failed to delete stored image", zap.String("path", img.StoragePath), zap.Error(err))
	}
	if img.ThumbnailPath != nil {
		_ = s.storage.Delete(ctx, *img.ThumbnailPath)
	}
}

func (s *service) ImagesFor(ctx context.Context, kind OwnerKind, ownerIDs []int64) (map[int64][]model.Image, error) {
	images, err := s.repo.ListByOwners(ctx, kind, ownerIDs)
	if err != nil {
		return nil, err
	}

	out := make(map[int64][]model.Image, len(ownerIDs))
	for _, img := range images {
		out[img.OwnerID] = append(out[img.OwnerID], img.Ref())
	}
	return out, nil
}

func (s *service) Open(ctx context.Context, name string, thumbnail bool) (io.ReadCloser, *Image, error) {
	img, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return nil, nil, err
	}

	path := img.StoragePath
	if thumbnail {
		if img.ThumbnailPath == nil {
			return nil, nil, ErrNoThumbnail
		}
		path = *img.ThumbnailPath
	}

	stream, err := s.storage.Open(ctx, path)
	if errors.Is(err, storage.ErrNotFound) {
		s.log.Warn("image row without stored file", zap.String("image", name), zap.String("path", path))
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to retrieve image from storage: %w", err)
	}
	return stream, img, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	}
	return ""
}
