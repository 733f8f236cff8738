// internal/infra/gcs/uploader.go
package gcs

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/storage"

	"promptmint/internal/platform/apperr"
)

// Uploader is a GCS implementation of the durable uploader port.
//
// Public access:
//   - If the bucket has IAM "allUsers: Storage Object Viewer" (uniform access),
//     uploaded objects become publicly readable without per-object ACL changes.
type Uploader struct {
	Client *storage.Client
	Bucket string
	// Optional: if empty, uses https://storage.googleapis.com
	PublicBaseURL string
}

func NewUploader(client *storage.Client, bucket string) *Uploader {
	return &Uploader{
		Client:        client,
		Bucket:        strings.TrimSpace(bucket),
		PublicBaseURL: "https://storage.googleapis.com",
	}
}

// UploadFile stores the image bytes under artifacts/ and returns its public URL.
func (u *Uploader) UploadFile(ctx context.Context, data []byte, fileName, contentType string) (string, error) {
	objectPath := "artifacts/" + strings.TrimSpace(fileName)
	if err := u.put(ctx, objectPath, contentType, data); err != nil {
		return "", apperr.Wrap(apperr.KindUpstream, "gcs.UploadFile", "upload image object", err)
	}
	return u.publicURL(objectPath), nil
}

// UploadJSON stores a metadata document under metadata/ and returns its public URL.
// Object names reuse the millisecond-timestamp convention of the image files.
func (u *Uploader) UploadJSON(ctx context.Context, data []byte) (string, error) {
	objectPath := fmt.Sprintf("metadata/%d.json", time.Now().UnixMilli())
	if err := u.put(ctx, objectPath, "application/json", data); err != nil {
		return "", apperr.Wrap(apperr.KindUpstream, "gcs.UploadJSON", "upload metadata object", err)
	}
	return u.publicURL(objectPath), nil
}

func (u *Uploader) put(ctx context.Context, objectPath, contentType string, data []byte) error {
	if u == nil || u.Client == nil {
		return errors.New("gcs_uploader: storage client is nil")
	}
	if strings.TrimSpace(u.Bucket) == "" {
		return errors.New("gcs_uploader: bucket is empty")
	}
	obj := strings.TrimSpace(objectPath)
	if obj == "" {
		return errors.New("gcs_uploader: objectPath is empty")
	}

	w := u.Client.Bucket(u.Bucket).Object(obj).NewWriter(ctx)
	if ct := strings.TrimSpace(contentType); ct != "" {
		w.ContentType = ct
	}
	// Safety: avoid writer hanging forever.
	w.ChunkSize = 0
	w.Metadata = map[string]string{
		"uploadedAt": time.Now().UTC().Format(time.RFC3339),
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

// publicURL returns a public URL for the object.
// Works when the bucket is publicly readable (uniform access via IAM).
func (u *Uploader) publicURL(objectPath string) string {
	base := strings.TrimSpace(u.PublicBaseURL)
	if base == "" {
		base = "https://storage.googleapis.com"
	}
	// Encode path but keep "/" separators.
	parts := strings.Split(objectPath, "/")
	for i := range parts {
		parts[i] = url.PathEscape(parts[i])
	}
	encoded := strings.Join(parts, "/")
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(base, "/"), u.Bucket, encoded)
}
