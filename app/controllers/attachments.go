package controllers

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/gilanghuda/weekly-report-backend/app/models"
	"github.com/gilanghuda/weekly-report-backend/pkg/storage"
	"github.com/gofiber/fiber/v2"
)

const uploadsPath = "/api/reports/uploads/"

type fileTooLargeError struct {
	name string
	max  int64
}

func (e *fileTooLargeError) Error() string {
	return fmt.Sprintf("File %s is too large (max %dMB)", e.name, e.max/(1024*1024))
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm)
}

// formTags reads the "tags" form field, given either once as a
// comma-separated list or repeated.
func formTags(form *multipart.Form) models.TagList {
	values, ok := form.Value["tags"]
	if !ok {
		return nil
	}
	var tags models.TagList
	for _, v := range values {
		tags = append(tags, strings.Split(v, ",")...)
	}
	return tags
}

func uploadedFiles(c *fiber.Ctx) ([]*multipart.FileHeader, *multipart.Form, error) {
	if !isMultipart(c) {
		return nil, nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil, err
	}
	files := make([]*multipart.FileHeader, 0, len(form.File["attachments"]))
	for _, fh := range form.File["attachments"] {
		if fh != nil && fh.Filename != "" {
			files = append(files, fh)
		}
	}
	return files, form, nil
}

// storeFiles uploads every file or none: on failure the ones already
// stored are removed again.
func (r *ReportController) storeFiles(ctx context.Context, files []*multipart.FileHeader) ([]models.Attachment, error) {
	for _, fh := range files {
		if fh.Size > r.MaxUploadBytes {
			return nil, &fileTooLargeError{name: fh.Filename, max: r.MaxUploadBytes}
		}
	}

	stored := make([]models.Attachment, 0, len(files))
	for _, fh := range files {
		att, err := r.storeFile(ctx, fh)
		if err != nil {
			r.removeFiles(ctx, stored)
			return nil, err
		}
		stored = append(stored, att)
	}
	return stored, nil
}

func (r *ReportController) storeFile(ctx context.Context, fh *multipart.FileHeader) (models.Attachment, error) {
	f, err := fh.Open()
	if err != nil {
		return models.Attachment{}, err
	}
	defer f.Close()

	contentType := fh.Header.Get(fiber.HeaderContentType)
	if contentType == "" {
		contentType = fiber.MIMEOctetStream
	}
	key := storage.NewKey(fh.Filename)
	if err := r.Files.Put(ctx, key, f, fh.Size, contentType); err != nil {
		return models.Attachment{}, err
	}
	return models.Attachment{
		Key:      key,
		Name:     fh.Filename,
		URL:      uploadsPath + key,
		MimeType: contentType,
		Size:     fh.Size,
	}, nil
}

func (r *ReportController) removeFiles(ctx context.Context, attachments []models.Attachment) {
	for _, a := range attachments {
		if err := r.Files.Delete(ctx, a.Key); err != nil {
			r.Log.WithError(err).WithField("key", a.Key).Warn("attachment cleanup failed")
		}
	}
}

// ServeUpload streams an attachment by key. Keys are random, so the route
// is public like direct download links.
func (r *ReportController) ServeUpload(c *fiber.Ctx) error {
	key := c.Params("key")
	if !storage.ValidKey(key) {
		return errorJSON(c, fiber.StatusNotFound, "File not found")
	}
	obj, err := r.Files.Get(c.UserContext(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return errorJSON(c, fiber.StatusNotFound, "File not found")
		}
		r.Log.WithError(err).WithField("key", key).Error("read attachment")
		return errorJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}
	c.Set(fiber.HeaderContentType, obj.ContentType)
	return c.SendStream(obj.Body, int(obj.Size))
}
