// Package s3 provides an S3 client constructor, a bucket health check and a
// unit-of-work participant that stages uploads until commit.
//
// # Configuration
//
//	type Config struct {
//		Bucket         string        `env:"S3_BUCKET,required"`
//		Region         string        `env:"S3_REGION,required"`
//		AccessKeyID    string        `env:"S3_ACCESS_KEY_ID"`
//		SecretKey      string        `env:"S3_SECRET_KEY"`
//		Endpoint       string        `env:"S3_ENDPOINT"`
//		ForcePathStyle bool          `env:"S3_FORCE_PATH_STYLE" envDefault:"false"`
//		UploadTimeout  time.Duration `env:"S3_UPLOAD_TIMEOUT" envDefault:"0s"`
//	}
//
// Set Endpoint and ForcePathStyle for MinIO, Wasabi and other S3-compatible
// services. Without static keys the default AWS credential chain is used.
//
// # Usage Example
//
//	client, err := s3.NewClient(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	reg.MustRegister(s3.Kind, s3.Factory(client, cfg, s3.WithLogger(log)))
//
//	// inside a unit of work
//	b, ok := s3.ActiveBucket(ctx, txm)
//	if !ok {
//		return ErrNoUnitOfWork
//	}
//	if err := b.Put("avatars/"+u.ID+".png", data, "image/png"); err != nil {
//		return err
//	}
//
// # Commit Semantics
//
// Staged objects are uploaded in staging order on commit. If an upload fails,
// objects uploaded earlier in the same commit are deleted and the error wraps
// ErrUploadFailed. Failed deletions are logged and reported with
// ErrCompensationFailed. Rollback only drops the staged objects. Objects that
// existed before the commit and were overwritten are not restored.
//
// # Error Handling
//
// S3 errors are classified so callers can branch with errors.Is:
//
//	ErrOperationTimeout, ErrOperationCanceled, ErrObjectNotFound,
//	ErrBucketNotFound, ErrAccessDenied, ErrServiceUnavailable
package s3
