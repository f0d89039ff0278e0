package assets

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmitrijs2005/medconb/internal/logging"
	"github.com/dmitrijs2005/medconb/internal/server/config"
)

// ObjectGetter is the part of *s3.Client the handler uses.
type ObjectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// seams for testing
var (
	loadDefaultAWSConfig  = awsconfig.LoadDefaultConfig
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// NewS3Client builds a client for the asset bucket. Static credentials and
// a custom endpoint (MinIO and friends) are used when configured; otherwise
// the default AWS credential chain applies.
func NewS3Client(ctx context.Context, c config.S3Assets) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(c.Region)}
	if c.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, ""),
		))
	}

	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if c.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(c.BaseEndpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// S3Handler serves GET and HEAD requests from a bucket. The request path,
// cleaned, is appended to prefix to form the object key; directory paths
// map to their index.html.
type S3Handler struct {
	client ObjectGetter
	bucket string
	prefix string
	logger logging.Logger
}

func NewS3Handler(client ObjectGetter, bucket, prefix string, logger logging.Logger) *S3Handler {
	return &S3Handler{client: client, bucket: bucket, prefix: prefix, logger: logger.With("module", "assets")}
}

func (h *S3Handler) objectKey(p string) string {
	clean := path.Clean("/" + p)
	if strings.HasSuffix(p, "/") || clean == "/" {
		clean = path.Join(clean, "index.html")
	}
	return h.prefix + strings.TrimPrefix(clean, "/")
}

func (h *S3Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	key := h.objectKey(r.URL.Path)

	out, err := h.client.GetObject(r.Context(), &s3.GetObjectInput{
		Bucket: aws.String(h.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error(r.Context(), "s3 get object failed", "key", key, "error", err)
		w.WriteHeader(http.StatusBadGateway)
		return
	}
	defer out.Body.Close()

	contentType := aws.ToString(out.ContentType)
	if contentType == "" {
		contentType = mime.TypeByExtension(path.Ext(key))
	}
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	if out.ContentLength != nil {
		w.Header().Set("Content-Length", strconv.FormatInt(*out.ContentLength, 10))
	}
	if out.ETag != nil {
		w.Header().Set("ETag", *out.ETag)
	}
	if out.LastModified != nil {
		w.Header().Set("Last-Modified", out.LastModified.UTC().Format(http.TimeFormat))
	}
	w.WriteHeader(http.StatusOK)

	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(w, out.Body); err != nil {
		h.logger.Warn(r.Context(), "s3 object copy interrupted", "key", key, "error", err)
	}
}
