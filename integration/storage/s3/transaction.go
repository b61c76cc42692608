package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	s3aws "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hashicorp/go-multierror"

	"github.com/dmitrymomot/repocore/core/logger"
	"github.com/dmitrymomot/repocore/core/txn"
)

// Kind is the registry name of the S3 backend.
const Kind txn.Kind = "s3"

// CommitPriority runs object storage after the databases and before the search index.
const CommitPriority = 20

type object struct {
	key         string
	body        []byte
	contentType string
}

// Transaction stages object uploads and performs them on commit. S3 has no
// transactions: when an upload fails, objects already uploaded by the same
// commit are deleted on a best-effort basis.
type Transaction struct {
	client        Client
	bucket        string
	uploadTimeout time.Duration
	log           *slog.Logger

	active bool
	staged []object
}

// TransactionOption configures a Transaction.
type TransactionOption func(*Transaction)

// WithLogger sets the logger used to report compensation failures.
func WithLogger(l *slog.Logger) TransactionOption {
	return func(t *Transaction) {
		if l != nil {
			t.log = l
		}
	}
}

// WithUploadTimeout bounds every single upload.
func WithUploadTimeout(d time.Duration) TransactionOption {
	return func(t *Transaction) {
		t.uploadTimeout = d
	}
}

// NewTransaction creates an inactive transaction writing to bucket.
func NewTransaction(client Client, bucket string, opts ...TransactionOption) *Transaction {
	t := &Transaction{client: client, bucket: bucket, log: logger.Discard()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Factory returns a registry factory producing transactions on cfg.Bucket.
func Factory(client Client, cfg Config, opts ...TransactionOption) txn.Factory {
	opts = append([]TransactionOption{WithUploadTimeout(cfg.UploadTimeout)}, opts...)
	return func() txn.Transaction {
		return NewTransaction(client, cfg.Bucket, opts...)
	}
}

func (t *Transaction) IsReady() bool {
	return t.client != nil && t.bucket != ""
}

func (t *Transaction) CommitPriority() int {
	return CommitPriority
}

func (t *Transaction) Begin(context.Context) error {
	if t.active {
		return txn.ErrAlreadyActive
	}
	t.active = true
	t.staged = nil
	return nil
}

// Put stages body for upload under key. A later Put of the same key replaces it.
func (t *Transaction) Put(key string, body []byte, contentType string) error {
	if !t.active {
		return txn.ErrNotActive
	}
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidObject)
	}
	obj := object{key: key, body: bytes.Clone(body), contentType: contentType}
	for i := range t.staged {
		if t.staged[i].key == key {
			t.staged[i] = obj
			return nil
		}
	}
	t.staged = append(t.staged, obj)
	return nil
}

// Staged returns the keys waiting for commit in staging order.
func (t *Transaction) Staged() []string {
	keys := make([]string, len(t.staged))
	for i, o := range t.staged {
		keys[i] = o.key
	}
	return keys
}

func (t *Transaction) Commit(ctx context.Context) error {
	if !t.active {
		return txn.ErrNotActive
	}
	staged := t.staged
	t.active, t.staged = false, nil

	uploaded := make([]string, 0, len(staged))
	for _, o := range staged {
		if err := t.put(ctx, o); err != nil {
			err = fmt.Errorf("%w: %s: %w", ErrUploadFailed, o.key, classifyS3Error(err, "put object"))
			if cerr := t.compensate(ctx, uploaded); cerr != nil {
				return errors.Join(err, cerr)
			}
			return err
		}
		uploaded = append(uploaded, o.key)
	}
	return nil
}

func (t *Transaction) put(ctx context.Context, o object) error {
	if t.uploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.uploadTimeout)
		defer cancel()
	}
	in := &s3aws.PutObjectInput{
		Bucket: aws.String(t.bucket),
		Key:    aws.String(o.key),
		Body:   bytes.NewReader(o.body),
	}
	if o.contentType != "" {
		in.ContentType = aws.String(o.contentType)
	}
	_, err := t.client.PutObject(ctx, in)
	return err
}

// compensate deletes keys uploaded before a failure. It keeps going past
// individual failures and reports all of them.
func (t *Transaction) compensate(ctx context.Context, keys []string) error {
	var merr *multierror.Error
	for _, key := range keys {
		_, err := t.client.DeleteObject(context.WithoutCancel(ctx), &s3aws.DeleteObjectInput{
			Bucket: aws.String(t.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			t.log.WarnContext(ctx, "failed to remove uploaded object after commit failure",
				logger.Component("s3"),
				logger.Key("object_key", key),
				logger.Error(err))
			merr = multierror.Append(merr, fmt.Errorf("%s: %w", key, classifyS3Error(err, "delete object")))
		}
	}
	if err := merr.ErrorOrNil(); err != nil {
		return errors.Join(ErrCompensationFailed, err)
	}
	return nil
}

func (t *Transaction) Rollback(context.Context) error {
	if !t.active {
		return txn.ErrNotActive
	}
	t.active, t.staged = false, nil
	return nil
}

// ActiveBucket returns the S3 transaction of the unit of work in ctx's slot.
func ActiveBucket(ctx context.Context, m *txn.Manager) (*Transaction, bool) {
	return txn.Active[*Transaction](ctx, m, Kind)
}
