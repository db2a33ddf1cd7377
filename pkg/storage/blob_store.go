// Package storage holds the bulk-content tier of the remote store: one JSON
// object per document, full version bodies included.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"synapsesync/pkg/domain"
)

// ErrBlobNotFound indicates the object does not exist in the bucket.
var ErrBlobNotFound = errors.New("blob not found")

// BlobStore persists full serialized documents.
type BlobStore interface {
	PutDocument(ctx context.Context, doc domain.Document) error
	GetDocument(ctx context.Context, ownerID, documentID string) (domain.Document, error)
	DeleteDocument(ctx context.Context, ownerID, documentID string) error
}

// MinioBlobStore implements BlobStore on MinIO/S3-compatible storage.
type MinioBlobStore struct {
	client *minio.Client
	bucket string
}

// NewMinioBlobStore connects to MinIO and ensures the bucket exists.
func NewMinioBlobStore(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioBlobStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}
	return &MinioBlobStore{client: client, bucket: bucket}, nil
}

func blobKey(ownerID, documentID string) string {
	return fmt.Sprintf("documents/%s/%s.json", ownerID, documentID)
}

// PutDocument uploads the full serialized document.
func (m *MinioBlobStore) PutDocument(ctx context.Context, doc domain.Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	_, err = m.client.PutObject(ctx, m.bucket, blobKey(doc.OwnerID, doc.ID),
		bytes.NewReader(body), int64(len(body)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

// GetDocument downloads and decodes the full document.
func (m *MinioBlobStore) GetDocument(ctx context.Context, ownerID, documentID string) (domain.Document, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, blobKey(ownerID, documentID), minio.GetObjectOptions{})
	if err != nil {
		return domain.Document{}, fmt.Errorf("get object: %w", err)
	}
	defer obj.Close()
	body, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return domain.Document{}, ErrBlobNotFound
		}
		return domain.Document{}, fmt.Errorf("read object: %w", err)
	}
	var doc domain.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return domain.Document{}, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

// DeleteDocument removes the object. Deleting a missing object is not an
// error; S3 removals are idempotent.
func (m *MinioBlobStore) DeleteDocument(ctx context.Context, ownerID, documentID string) error {
	err := m.client.RemoveObject(ctx, m.bucket, blobKey(ownerID, documentID), minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}
