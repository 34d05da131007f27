package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/nekogravitycat/event-planner/internal/pkg/storage"
)

// FilePart is one uploaded file of a multipart request.
type FilePart struct {
	Filename    string
	ContentType string
	Content     []byte
}

// LoadFile reads a file from disk and sniffs its content type.
func LoadFile(path string) (FilePart, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FilePart{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return FilePart{
		Filename:    filepath.Base(path),
		ContentType: http.DetectContentType(data),
		Content:     data,
	}, nil
}

// Multipart is a form with one JSON part and any number of file parts that
// share one field name, the shape every create endpoint expects.
type Multipart struct {
	JSONField string
	JSON      any
	FileField string
	Files     []FilePart
}

func (m *Multipart) encode(images *storage.ImageProcessor, maxDim int, log *zap.Logger) (io.Reader, string, error) {
	buf := new(bytes.Buffer)
	w := multipart.NewWriter(buf)

	payload, err := json.Marshal(m.JSON)
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode %s part: %w", m.JSONField, err)
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q`, m.JSONField))
	h.Set("Content-Type", "application/json")
	pw, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create %s part: %w", m.JSONField, err)
	}
	if _, err := pw.Write(payload); err != nil {
		return nil, "", fmt.Errorf("failed to write %s part: %w", m.JSONField, err)
	}

	for _, f := range m.Files {
		content, name, ctype := f.Content, f.Filename, f.ContentType
		if strings.HasPrefix(ctype, "image/") {
			out, changed, err := images.FitForUpload(content, maxDim)
			if err != nil {
				log.Warn("image resize failed, uploading original", zap.String("file", name), zap.Error(err))
			} else if changed {
				content, ctype = out, "image/jpeg"
				name = strings.TrimSuffix(name, filepath.Ext(name)) + ".jpg"
			}
		}
		if ctype == "" {
			ctype = "application/octet-stream"
		}

		fh := make(textproto.MIMEHeader)
		fh.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, m.FileField, name))
		fh.Set("Content-Type", ctype)
		fw, err := w.CreatePart(fh)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create file part: %w", err)
		}
		if _, err := fw.Write(content); err != nil {
			return nil, "", fmt.Errorf("failed to write file part: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}
	return buf, w.FormDataContentType(), nil
}
