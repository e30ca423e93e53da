// internal/app/system/archive/archive.go
//
// Package archive copies daily closure exports to blob storage. Two drivers
// exist: a local directory and an S3-compatible bucket.
package archive

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store writes an object and returns where it landed.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
}

// Driver names accepted by Open.
const (
	DriverNone  = "none"
	DriverLocal = "local"
	DriverS3    = "s3"
)

// Config selects and configures a driver.
type Config struct {
	Driver    string
	LocalPath string
	S3        S3Config
}

// Open builds the configured Store. DriverNone (or "") returns nil, nil.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", DriverNone:
		return nil, nil
	case DriverLocal:
		l, err := NewLocal(cfg.LocalPath)
		if err != nil {
			return nil, err
		}
		return l, nil
	case DriverS3:
		s, err := NewS3(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown archive driver %q", cfg.Driver)
	}
}

// ClosureKey is the object key for a closure export:
// closures/YYYY/MM/<date>-<short id>.csv. The id keeps re-closures of the
// same day from overwriting earlier copies.
func ClosureKey(date string, ext string) string {
	yyyy, mm := "0000", "00"
	if t, err := time.Parse("2006-01-02", date); err == nil {
		yyyy, mm = t.Format("2006"), t.Format("01")
	}
	id := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return path.Join("closures", yyyy, mm, date+"-"+id+"."+strings.TrimPrefix(ext, "."))
}
