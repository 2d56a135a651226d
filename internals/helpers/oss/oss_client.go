// internals/helpers/oss/oss_client.go
package helper

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/rs/zerolog/log"
)

var ErrNotConfigured = errors.New("object storage is not configured")

const maxUploadSize = int64(5 * 1024 * 1024)

func getEnv(k string) string { return strings.TrimSpace(os.Getenv(k)) }

func envInt(key string, def int) int {
	if v := getEnv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}

func envFloat(key string, def float32) float32 {
	if v := getEnv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil && f >= 0 {
			return float32(f)
		}
	}
	return def
}

/* =======================================================================
   OSS Service
======================================================================= */

type OSSService struct {
	Bucket     *oss.Bucket
	Endpoint   string
	BucketName string
	PublicBase string // optional CDN base, overrides bucket.endpoint urls
	Prefix     string // e.g. "studioku"
}

// NewOSSServiceFromEnv reads ALI_OSS_*; ErrNotConfigured when unset.
func NewOSSServiceFromEnv(prefix string) (*OSSService, error) {
	endpoint := getEnv("ALI_OSS_ENDPOINT")
	ak := getEnv("ALI_OSS_ACCESS_KEY")
	sk := getEnv("ALI_OSS_SECRET_KEY")
	bucketName := getEnv("ALI_OSS_BUCKET")
	if endpoint == "" || ak == "" || sk == "" || bucketName == "" {
		return nil, ErrNotConfigured
	}

	var opts []oss.ClientOption
	if sts := getEnv("ALI_OSS_SECURITY_TOKEN"); sts != "" {
		opts = append(opts, oss.SecurityToken(sts))
	}
	client, err := oss.New(endpoint, ak, sk, opts...)
	if err != nil {
		return nil, fmt.Errorf("oss.New: %w", err)
	}
	bkt, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("client.Bucket: %w", err)
	}
	log.Info().Str("bucket", bucketName).Msg("object storage ready")

	return &OSSService{
		Bucket:     bkt,
		Endpoint:   endpoint,
		BucketName: bucketName,
		PublicBase: strings.TrimRight(getEnv("ALI_OSS_PUBLIC_BASE"), "/"),
		Prefix:     strings.Trim(prefix, "/"),
	}, nil
}

// UploadAsWebP recompresses an uploaded image and stores it under dir.
// Returns the public url.
func (s *OSSService) UploadAsWebP(ctx context.Context, fh *multipart.FileHeader, dir string, opt WebPOptions) (string, error) {
	if fh == nil {
		return "", errors.New("nil file header")
	}
	if fh.Size > maxUploadSize {
		return "", fmt.Errorf("file too large (max %d bytes)", maxUploadSize)
	}
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer src.Close()

	data, err := ConvertToWebP(src, fh.Filename, opt)
	if err != nil {
		return "", err
	}

	base := strings.TrimSuffix(fh.Filename, filepath.Ext(fh.Filename))
	key := s.BuildObjectKey(dir, base+".webp")
	if err := s.Bucket.PutObject(key, bytes.NewReader(data),
		oss.WithContext(ctx),
		oss.ContentType("image/webp"),
		oss.ContentDisposition("inline"),
		oss.CacheControl("public, max-age=31536000, immutable"),
	); err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return s.PublicURL(key), nil
}

func (s *OSSService) DeleteByPublicURL(ctx context.Context, publicURL string) error {
	key, err := s.KeyFromPublicURL(publicURL)
	if err != nil {
		return err
	}
	return s.Bucket.DeleteObject(key, oss.WithContext(ctx))
}

/* =======================================================================
   Keys & URLs
======================================================================= */

func (s *OSSService) PublicURL(key string) string {
	if key == "" {
		return ""
	}
	if s.PublicBase != "" {
		return s.PublicBase + "/" + key
	}
	end := strings.TrimPrefix(strings.TrimPrefix(s.Endpoint, "https://"), "http://")
	return fmt.Sprintf("https://%s.%s/%s", s.BucketName, end, key)
}

func (s *OSSService) KeyFromPublicURL(publicURL string) (string, error) {
	publicURL = strings.TrimSpace(publicURL)
	if publicURL == "" {
		return "", errors.New("empty url")
	}
	if s.PublicBase != "" && strings.HasPrefix(publicURL, s.PublicBase+"/") {
		return strings.TrimPrefix(publicURL, s.PublicBase+"/"), nil
	}
	u := publicURL
	if i := strings.Index(u, "://"); i >= 0 {
		u = u[i+3:]
	}
	if i := strings.Index(u, "/"); i >= 0 && i+1 < len(u) {
		return u[i+1:], nil
	}
	return "", fmt.Errorf("cannot extract key from url: %s", publicURL)
}

// BuildObjectKey: <prefix>/<dir>/<slug>_<yyyymmdd_hhmmss>_<rand><ext>
func (s *OSSService) BuildObjectKey(dir, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := slugify(strings.TrimSuffix(filename, filepath.Ext(filename)))
	name := fmt.Sprintf("%s_%s_%s%s", base, time.Now().Format("20060102_150405"), randHex(3), ext)

	parts := make([]string, 0, 3)
	for _, p := range []string{s.Prefix, strings.Trim(dir, "/")} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(append(parts, name), "/")
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "-", "_", "-").Replace(s)
	s = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return -1
	}, s)
	if s == "" {
		return "file"
	}
	return s
}

func randHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
