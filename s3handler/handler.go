// Package s3handler streams uploaded file parts directly to Amazon S3 (or
// an S3-compatible service) as they are parsed, without staging them in
// memory or on disk.
package s3handler

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/reqstream/reqstream"
)

// minPartSize is the smallest part S3 accepts in a multipart upload,
// except for the final part.
const minPartSize = 5 << 20

// S3Client defines the S3 operations the handler uses. It is satisfied by
// *s3.Client and by test fakes.
type S3Client interface {
	CreateMultipartUpload(ctx context.Context, params *s3.CreateMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error)
	UploadPart(ctx context.Context, params *s3.UploadPartInput, optFns ...func(*s3.Options)) (*s3.UploadPartOutput, error)
	CompleteMultipartUpload(ctx context.Context, params *s3.CompleteMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error)
	AbortMultipartUpload(ctx context.Context, params *s3.AbortMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error)
}

// KeyFunc derives the object key for a file part.
type KeyFunc func(header reqstream.Header) string

// Handler is an UploadHandler that claims every file part and streams it to
// S3 via a multipart upload. Place it where it should win the chain; it
// never defers.
type Handler struct {
	ctx    context.Context
	client S3Client
	bucket string
	keyFn  KeyFunc

	// per-part state
	key       string
	uploadID  string
	partNum   int32
	buf       *bytes.Buffer
	completed []types.CompletedPart
	header    reqstream.Header
	active    bool
}

type Option func(*Handler)

// WithKeyFunc overrides how object keys are derived from part headers.
// The default is "uploads/<uuid>-<filename>".
func WithKeyFunc(fn KeyFunc) Option {
	return func(h *Handler) {
		h.keyFn = fn
	}
}

func New(ctx context.Context, client S3Client, bucket string, options ...Option) *Handler {
	h := &Handler{
		ctx:    ctx,
		client: client,
		bucket: bucket,
		keyFn: func(header reqstream.Header) string {
			return path.Join("uploads", uuid.New().String()+"-"+header.FileName())
		},
	}
	for _, opt := range options {
		opt(h)
	}

	return h
}

func (h *Handler) NewFile(header reqstream.Header) error {
	h.header = header
	h.key = h.keyFn(header)
	h.partNum = 0
	h.buf = new(bytes.Buffer)
	h.completed = nil

	input := &s3.CreateMultipartUploadInput{
		Bucket: aws.String(h.bucket),
		Key:    aws.String(h.key),
	}
	if ct := header.ContentType(); ct != "" {
		input.ContentType = aws.String(ct)
	}

	out, err := h.client.CreateMultipartUpload(h.ctx, input)
	if err != nil {
		return fmt.Errorf("failed to create multipart upload: %w", err)
	}
	h.uploadID = aws.ToString(out.UploadId)
	h.active = true

	// the part is ours; nothing downstream should see it
	return reqstream.ErrStopPipeline
}

func (h *Handler) ReceiveDataChunk(chunk []byte) ([]byte, error) {
	if !h.active {
		return chunk, nil
	}

	h.buf.Write(chunk)
	if h.buf.Len() >= minPartSize {
		if err := h.flushPart(); err != nil {
			return nil, err
		}
	}

	return nil, nil
}

func (h *Handler) FileComplete(size int64) (*reqstream.UploadedFile, error) {
	if !h.active {
		return nil, nil
	}

	if h.buf.Len() > 0 || h.partNum == 0 {
		if err := h.flushPart(); err != nil {
			return nil, err
		}
	}

	input := &s3.CompleteMultipartUploadInput{
		Bucket:   aws.String(h.bucket),
		Key:      aws.String(h.key),
		UploadId: aws.String(h.uploadID),
		MultipartUpload: &types.CompletedMultipartUpload{
			Parts: h.completed,
		},
	}
	if _, err := h.client.CompleteMultipartUpload(h.ctx, input); err != nil {
		return nil, fmt.Errorf("failed to complete multipart upload: %w", err)
	}

	location := fmt.Sprintf("s3://%s/%s", h.bucket, h.key)
	file := reqstream.NewExternalUploadedFile(h.header, location, size)
	h.active = false

	return file, nil
}

func (h *Handler) UploadComplete() error {
	return h.abortInFlight()
}

func (h *Handler) Abort() error {
	return h.abortInFlight()
}

func (h *Handler) flushPart() error {
	h.partNum++
	out, err := h.client.UploadPart(h.ctx, &s3.UploadPartInput{
		Bucket:     aws.String(h.bucket),
		Key:        aws.String(h.key),
		UploadId:   aws.String(h.uploadID),
		PartNumber: aws.Int32(h.partNum),
		Body:       bytes.NewReader(h.buf.Bytes()),
	})
	if err != nil {
		return fmt.Errorf("failed to upload part %d: %w", h.partNum, err)
	}

	h.completed = append(h.completed, types.CompletedPart{
		ETag:       out.ETag,
		PartNumber: aws.Int32(h.partNum),
	})
	h.buf.Reset()

	return nil
}

// abortInFlight cancels an upload the parser never completed, so no
// orphaned multipart upload accrues storage in the bucket.
func (h *Handler) abortInFlight() error {
	if !h.active {
		return nil
	}
	h.active = false

	_, err := h.client.AbortMultipartUpload(h.ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(h.bucket),
		Key:      aws.String(h.key),
		UploadId: aws.String(h.uploadID),
	})
	if err != nil {
		return fmt.Errorf("failed to abort multipart upload: %w", err)
	}

	return nil
}
