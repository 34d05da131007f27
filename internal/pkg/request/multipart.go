package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/nekogravitycat/event-planner/internal/pkg/apperror"
)

// BindMultipart decodes the JSON part named jsonField into v, validates it
// with its binding tags, and returns the files sent under fileField. The
// JSON part may arrive as a plain form value or as a file part.
func BindMultipart(c *gin.Context, jsonField string, v any, fileField string) ([]*multipart.FileHeader, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, apperror.Wrap(err, http.StatusBadRequest, "invalid multipart form")
	}

	payload, err := jsonPart(form, jsonField)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return nil, apperror.Wrap(err, http.StatusBadRequest, fmt.Sprintf("invalid %s JSON", jsonField))
	}
	if err := binding.Validator.ValidateStruct(v); err != nil {
		return nil, apperror.Wrap(err, http.StatusBadRequest, fmt.Sprintf("invalid %s: %v", jsonField, err))
	}

	return form.File[fileField], nil
}

func jsonPart(form *multipart.Form, field string) ([]byte, error) {
	if vals := form.Value[field]; len(vals) > 0 {
		return []byte(vals[0]), nil
	}
	if files := form.File[field]; len(files) > 0 {
		f, err := files[0].Open()
		if err != nil {
			return nil, apperror.Wrap(err, http.StatusBadRequest, "invalid multipart form")
		}
		defer f.Close()
		return io.ReadAll(f)
	}
	return nil, apperror.Wrap(errors.New("missing part"), http.StatusBadRequest, field+" part is required")
}

// LimitBody caps request bodies for multipart endpoints.
func LimitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
