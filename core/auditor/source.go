package auditor

import (
	"context"
	"crypto/sha1"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"rse-auditor/core/storage"

	"github.com/minio/minio-go/v7"
)

// DumpSource resolves and locally caches the dumps one audit run needs.
// Implementations return paths readable by the dump package; retry policy
// for flaky upstreams lives in the implementation, never in the auditor.
type DumpSource interface {
	// StorageDump returns the newest storage (RSE) dump at or before
	// date, along with the dump's own date.
	StorageDump(ctx context.Context, rse string, date time.Time) (string, time.Time, error)
	// ReplicaDump returns the catalog dump closest to date.
	ReplicaDump(ctx context.Context, rse string, date time.Time) (string, error)
}

// Dump naming conventions published by the dump producers:
//
//	storage dumps  <rse>.dump_<YYYYMMDD>
//	catalog dumps  <rse>_<YYYY-MM-DD>
//
// either optionally carrying a compression suffix.
var (
	storageDumpPattern = regexp.MustCompile(`\.dump_(\d{8})$`)
	replicaDumpPattern = regexp.MustCompile(`_(\d{4}-\d{2}-\d{2})$`)
	nonWordPattern     = regexp.MustCompile(`\W`)
)

// dumpRef is one discovered dump: its source key (path or object key)
// and the date embedded in its name.
type dumpRef struct {
	key  string
	date time.Time
}

// LocalSource resolves dumps from a listable local directory.
type LocalSource struct {
	dumpsDir string
	cacheDir string
}

// NewLocalSource creates a source scanning dumpsDir and caching into
// cacheDir.
func NewLocalSource(dumpsDir, cacheDir string) *LocalSource {
	return &LocalSource{dumpsDir: dumpsDir, cacheDir: cacheDir}
}

// StorageDump picks the newest storage dump at or before date.
func (s *LocalSource) StorageDump(ctx context.Context, rse string, date time.Time) (string, time.Time, error) {
	refs, err := s.scan(rse, parseStorageDumpDate)
	if err != nil {
		return "", time.Time{}, err
	}
	ref, ok := newestAtOrBefore(refs, date)
	if !ok {
		return "", time.Time{}, fmt.Errorf("no storage dump for %s at or before %s in %s",
			rse, date.Format("2006-01-02"), s.dumpsDir)
	}
	cached, err := s.fetch(ref, "ddmendpoint", rse)
	if err != nil {
		return "", time.Time{}, err
	}
	return cached, ref.date, nil
}

// ReplicaDump picks the catalog dump closest to date.
func (s *LocalSource) ReplicaDump(ctx context.Context, rse string, date time.Time) (string, error) {
	refs, err := s.scan(rse, parseReplicaDumpDate)
	if err != nil {
		return "", err
	}
	ref, ok := nearest(refs, date)
	if !ok {
		return "", fmt.Errorf("no catalog dump for %s near %s in %s",
			rse, date.Format("2006-01-02"), s.dumpsDir)
	}
	return s.fetch(ref, "replicas", rse)
}

func (s *LocalSource) scan(rse string, parse func(rse, name string) (time.Time, bool)) ([]dumpRef, error) {
	entries, err := os.ReadDir(s.dumpsDir)
	if err != nil {
		return nil, fmt.Errorf("scan dumps dir %s: %w", s.dumpsDir, err)
	}
	var refs []dumpRef
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if date, ok := parse(rse, entry.Name()); ok {
			refs = append(refs, dumpRef{
				key:  filepath.Join(s.dumpsDir, entry.Name()),
				date: date,
			})
		}
	}
	return refs, nil
}

func (s *LocalSource) fetch(ref dumpRef, kind, rse string) (string, error) {
	dst := cachePath(s.cacheDir, kind, rse, ref.date, ref.key)
	src, err := os.Open(ref.key)
	if err != nil {
		return "", fmt.Errorf("open dump %s: %w", ref.key, err)
	}
	defer src.Close()
	if err := writeCached(dst, src); err != nil {
		return "", err
	}
	return dst, nil
}

// ObjectSource resolves dumps published to an object store bucket under
// <prefix>/<rse>/.
type ObjectSource struct {
	client   storage.Client
	bucket   string
	prefix   string
	cacheDir string
}

// NewObjectSource creates a source listing bucket objects under prefix and
// caching downloads into cacheDir. The bucket is verified up front so a
// misconfigured endpoint fails at startup instead of mid-audit.
func NewObjectSource(ctx context.Context, client storage.Client, bucket, prefix, cacheDir string) (*ObjectSource, error) {
	ok, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check dumps bucket %s: %w", bucket, err)
	}
	if !ok {
		return nil, fmt.Errorf("dumps bucket %s does not exist", bucket)
	}
	return &ObjectSource{client: client, bucket: bucket, prefix: prefix, cacheDir: cacheDir}, nil
}

// StorageDump picks the newest storage dump object at or before date.
func (s *ObjectSource) StorageDump(ctx context.Context, rse string, date time.Time) (string, time.Time, error) {
	refs, err := s.list(ctx, rse, parseStorageDumpDate)
	if err != nil {
		return "", time.Time{}, err
	}
	ref, ok := newestAtOrBefore(refs, date)
	if !ok {
		return "", time.Time{}, fmt.Errorf("no storage dump object for %s at or before %s",
			rse, date.Format("2006-01-02"))
	}
	cached, err := s.fetch(ctx, ref, "ddmendpoint", rse)
	if err != nil {
		return "", time.Time{}, err
	}
	return cached, ref.date, nil
}

// ReplicaDump picks the catalog dump object closest to date.
func (s *ObjectSource) ReplicaDump(ctx context.Context, rse string, date time.Time) (string, error) {
	refs, err := s.list(ctx, rse, parseReplicaDumpDate)
	if err != nil {
		return "", err
	}
	ref, ok := nearest(refs, date)
	if !ok {
		return "", fmt.Errorf("no catalog dump object for %s near %s",
			rse, date.Format("2006-01-02"))
	}
	return s.fetch(ctx, ref, "replicas", rse)
}

func (s *ObjectSource) list(ctx context.Context, rse string, parse func(rse, name string) (time.Time, bool)) ([]dumpRef, error) {
	prefix := path.Join(s.prefix, rse) + "/"
	var refs []dumpRef
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list dump objects under %s: %w", prefix, obj.Err)
		}
		if date, ok := parse(rse, path.Base(obj.Key)); ok {
			refs = append(refs, dumpRef{key: obj.Key, date: date})
		}
	}
	return refs, nil
}

func (s *ObjectSource) fetch(ctx context.Context, ref dumpRef, kind, rse string) (string, error) {
	dst := cachePath(s.cacheDir, kind, rse, ref.date, ref.key)
	obj, err := s.client.GetObject(ctx, s.bucket, ref.key, minio.GetObjectOptions{})
	if err != nil {
		return "", fmt.Errorf("download dump %s: %w", ref.key, err)
	}
	defer obj.Close()
	if err := writeCached(dst, obj); err != nil {
		return "", err
	}
	return dst, nil
}

func parseStorageDumpDate(rse, name string) (time.Time, bool) {
	base := trimCompressExt(name)
	if !strings.HasPrefix(base, rse+".") {
		return time.Time{}, false
	}
	m := storageDumpPattern.FindStringSubmatch(base)
	if m == nil {
		return time.Time{}, false
	}
	date, err := time.Parse("20060102", m[1])
	if err != nil {
		return time.Time{}, false
	}
	return date, true
}

func parseReplicaDumpDate(rse, name string) (time.Time, bool) {
	base := trimCompressExt(name)
	if !strings.HasPrefix(base, rse+"_") {
		return time.Time{}, false
	}
	m := replicaDumpPattern.FindStringSubmatch(base)
	if m == nil {
		return time.Time{}, false
	}
	date, err := time.Parse("2006-01-02", m[1])
	if err != nil {
		return time.Time{}, false
	}
	return date, true
}

func trimCompressExt(name string) string {
	switch filepath.Ext(name) {
	case ".bz2", ".gz":
		return name[:len(name)-len(filepath.Ext(name))]
	}
	return name
}

func compressExt(name string) string {
	switch ext := filepath.Ext(name); ext {
	case ".bz2", ".gz":
		return ext
	}
	return ""
}

// newestAtOrBefore returns the ref with the largest date not after the
// given one; a zero date means "newest overall".
func newestAtOrBefore(refs []dumpRef, date time.Time) (dumpRef, bool) {
	var best dumpRef
	found := false
	for _, ref := range refs {
		if !date.IsZero() && ref.date.After(date) {
			continue
		}
		if !found || ref.date.After(best.date) {
			best = ref
			found = true
		}
	}
	return best, found
}

// nearest returns the ref whose date is closest to the given one.
func nearest(refs []dumpRef, date time.Time) (dumpRef, bool) {
	var best dumpRef
	var bestDelta time.Duration
	found := false
	for _, ref := range refs {
		delta := ref.date.Sub(date)
		if delta < 0 {
			delta = -delta
		}
		if !found || delta < bestDelta {
			best = ref
			bestDelta = delta
			found = true
		}
	}
	return best, found
}

// cachePath builds a distinct cache file name for a fetched dump. The
// source key is hashed in so two dumps with equal dates from different
// locations never collide; the compression suffix survives so the reader
// can pick its filter.
func cachePath(cacheDir, kind, rse string, date time.Time, sourceKey string) string {
	sum := sha1.Sum([]byte(sourceKey))
	name := fmt.Sprintf("%s_%s_%s_%x", kind, rse, date.Format("02-01-2006"), sum[:6])
	name = nonWordPattern.ReplaceAllString(name, "-")
	return filepath.Join(cacheDir, name+compressExt(sourceKey))
}

func writeCached(dst string, src io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create cached dump %s: %w", dst, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("cache dump %s: %w", dst, err)
	}
	return out.Close()
}
