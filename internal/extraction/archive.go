package extraction

import (
	"context"
	"fmt"
	"path"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

// Archive keeps a copy of every uploaded receipt.
type Archive interface {
	Put(ctx context.Context, userID, filename, contentType string, data []byte) (string, error)
}

// GCSArchive stores receipts under receipts/<user>/<uuid>-<file> in a bucket.
type GCSArchive struct {
	bucket *storage.BucketHandle
	name   string
}

// NewGCSArchive wraps an existing client. The caller owns the client.
func NewGCSArchive(client *storage.Client, bucketName string) *GCSArchive {
	return &GCSArchive{bucket: client.Bucket(bucketName), name: bucketName}
}

// ObjectName is the path a receipt is stored under.
func ObjectName(userID, filename string, id uuid.UUID) string {
	return path.Join("receipts", userID, id.String()+"-"+path.Base(filename))
}

// Put uploads data and returns its gs:// URI.
func (a *GCSArchive) Put(ctx context.Context, userID, filename, contentType string, data []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	object := ObjectName(userID, filename, uuid.New())
	w := a.bucket.Object(object).NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = map[string]string{"user_id": userID}

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", &ExtractionError{Code: ErrArchiveFailed, Message: "write receipt", Cause: err}
	}
	if err := w.Close(); err != nil {
		return "", &ExtractionError{Code: ErrArchiveFailed, Message: "finalize upload", Cause: err}
	}
	return fmt.Sprintf("gs://%s/%s", a.name, object), nil
}
