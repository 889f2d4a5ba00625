package snapshot

import (
	"bytes"
	"context"
	"encoding"
	"fmt"
	"io"
	"maps"
	"path"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	growablebitmap "github.com/poliorcetics/growable-bitmap"
	"github.com/poliorcetics/growable-bitmap/blobstore"
	"github.com/poliorcetics/growable-bitmap/codec"
	"github.com/poliorcetics/growable-bitmap/internal/hash"
	"github.com/poliorcetics/growable-bitmap/resource"
	"golang.org/x/sync/errgroup"
)

const (
	pointerName = "CURRENT"
	dataExt     = ".gbm"
	manifestExt = ".manifest"
)

// Bitmap is the value Save persists. *growablebitmap.GrowableBitMap
// satisfies it for every block type.
type Bitmap interface {
	encoding.BinaryMarshaler
	Len() uint64
	BlockWidth() uint
	BlockCount() int
}

// Store saves and restores bitmap snapshots in a blob store.
// It is safe for concurrent use as long as the underlying store is.
//
// Two writers saving the same name at the same time may pick the same
// version number; use s3.DDBCommitStore to serialize CURRENT updates.
type Store struct {
	blobs blobstore.BlobStore
	opts  options
}

// NewStore creates a snapshot store on top of blobs.
func NewStore(blobs blobstore.BlobStore, opts ...Option) *Store {
	return &Store{
		blobs: blobs,
		opts:  applyOptions(opts),
	}
}

// Save writes bm as the next version of name and moves CURRENT to it.
//
// The version is one past the highest stored version, so concurrent saves of
// the same name may pick the same version and overwrite each other's payload
// unless the blob store serializes CURRENT updates, as s3.DDBCommitStore does.
func (s *Store) Save(ctx context.Context, name string, bm Bitmap) (m Manifest, err error) {
	start := time.Now()
	defer func() {
		s.opts.metrics.RecordSnapshot(m.StoredSize, time.Since(start), err)
		s.opts.logger.LogSnapshot(ctx, name, m.Version, m.StoredSize, err)
	}()

	if err := validateName(name); err != nil {
		return Manifest{}, err
	}

	raw, err := bm.MarshalBinary()
	if err != nil {
		return Manifest{}, fmt.Errorf("snapshot: marshal %s: %w", name, err)
	}
	frame, err := codec.Compress(raw, s.opts.compression)
	if err != nil {
		return Manifest{}, err
	}

	versions, err := s.Versions(ctx, name)
	if err != nil {
		return Manifest{}, err
	}
	next := uint64(1)
	if len(versions) > 0 {
		next = versions[len(versions)-1] + 1
	}

	m = Manifest{
		Name:        name,
		Version:     next,
		BlockWidth:  bm.BlockWidth(),
		Len:         bm.Len(),
		BlockCount:  bm.BlockCount(),
		Compression: s.opts.compression.String(),
		Checksum:    hash.CRC32C(raw),
		RawSize:     int64(len(raw)),
		StoredSize:  int64(len(frame)),
		Path:        dataPath(name, next),
		CreatedAt:   s.opts.now().UTC(),
	}

	if err := s.writeBlob(ctx, m.Path, frame); err != nil {
		return Manifest{}, err
	}

	enc, err := encodeManifest(s.opts.codec, m)
	if err != nil {
		return Manifest{}, err
	}
	if err := s.blobs.Put(ctx, manifestPath(name, next), enc); err != nil {
		return Manifest{}, fmt.Errorf("snapshot: write manifest %s: %w", name, err)
	}
	if err := s.blobs.Put(ctx, pointerPath(name), enc); err != nil {
		return Manifest{}, fmt.Errorf("snapshot: update %s: %w", pointerPath(name), err)
	}
	return m, nil
}

// SaveAll saves every bitmap concurrently. With a controller the number of
// concurrent saves is bounded by its background slots, otherwise by
// GOMAXPROCS. The first failure cancels the remaining saves; the manifests of
// saves that completed are returned either way.
func (s *Store) SaveAll(ctx context.Context, bitmaps map[string]Bitmap) (map[string]Manifest, error) {
	g, gctx := errgroup.WithContext(ctx)
	rc := s.opts.controller
	if rc == nil {
		g.SetLimit(runtime.GOMAXPROCS(0))
	}

	var mu sync.Mutex
	out := make(map[string]Manifest, len(bitmaps))

	var acquireErr error
	for _, name := range slices.Sorted(maps.Keys(bitmaps)) {
		if err := rc.AcquireBackground(gctx); err != nil {
			acquireErr = err
			break
		}
		bm := bitmaps[name]
		g.Go(func() error {
			defer rc.ReleaseBackground()
			m, err := s.Save(gctx, name, bm)
			if err != nil {
				return fmt.Errorf("snapshot: save %s: %w", name, err)
			}
			mu.Lock()
			out[name] = m
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return out, err
	}
	return out, acquireErr
}

// Current returns the manifest CURRENT points at.
func (s *Store) Current(ctx context.Context, name string) (Manifest, error) {
	if err := validateName(name); err != nil {
		return Manifest{}, err
	}
	return s.readManifest(ctx, pointerPath(name))
}

// Manifest returns the manifest of a specific version.
func (s *Store) Manifest(ctx context.Context, name string, version uint64) (Manifest, error) {
	if err := validateName(name); err != nil {
		return Manifest{}, err
	}
	return s.readManifest(ctx, manifestPath(name, version))
}

// Restore loads the current version of name into dst.
//
// A payload that fails its checksum returns ErrChecksumMismatch. Decoding
// errors from dst, such as a *growablebitmap.ErrFormat for a block width
// mismatch, are returned unchanged. dst is only modified by a successful
// UnmarshalBinary call.
func (s *Store) Restore(ctx context.Context, name string, dst encoding.BinaryUnmarshaler) (Manifest, error) {
	m, err := s.Current(ctx, name)
	if err != nil {
		s.opts.logger.LogRestore(ctx, name, 0, err)
		return Manifest{}, err
	}
	if err := s.restore(ctx, m, dst); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

// RestoreVersion loads a specific version of name into dst.
func (s *Store) RestoreVersion(ctx context.Context, name string, version uint64, dst encoding.BinaryUnmarshaler) (Manifest, error) {
	m, err := s.Manifest(ctx, name, version)
	if err != nil {
		s.opts.logger.LogRestore(ctx, name, version, err)
		return Manifest{}, err
	}
	if err := s.restore(ctx, m, dst); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

func (s *Store) restore(ctx context.Context, m Manifest, dst encoding.BinaryUnmarshaler) (err error) {
	start := time.Now()
	defer func() {
		s.opts.metrics.RecordRestore(m.StoredSize, time.Since(start), err)
		s.opts.logger.LogRestore(ctx, m.Name, m.Version, err)
	}()

	frame, err := s.readBlob(ctx, m.Path, m.StoredSize)
	if err != nil {
		return err
	}
	raw, err := codec.Decompress(frame)
	if err != nil {
		return fmt.Errorf("snapshot: %s: %w", m.Path, err)
	}
	if int64(len(raw)) != m.RawSize {
		return fmt.Errorf("%w: %s: %d bytes, want %d", ErrChecksumMismatch, m.Path, len(raw), m.RawSize)
	}
	if sum := hash.CRC32C(raw); sum != m.Checksum {
		return fmt.Errorf("%w: %s: crc32c %08x, want %08x", ErrChecksumMismatch, m.Path, sum, m.Checksum)
	}
	return dst.UnmarshalBinary(raw)
}

// Load restores the current version of name into a new bitmap created with
// opts.
func Load[B growablebitmap.Block[B]](ctx context.Context, s *Store, name string, opts ...growablebitmap.Option) (*growablebitmap.GrowableBitMap[B], Manifest, error) {
	bm := growablebitmap.New[B](opts...)
	m, err := s.Restore(ctx, name, bm)
	if err != nil {
		return nil, Manifest{}, err
	}
	return bm, m, nil
}

// LoadVersion is Load for a specific version.
func LoadVersion[B growablebitmap.Block[B]](ctx context.Context, s *Store, name string, version uint64, opts ...growablebitmap.Option) (*growablebitmap.GrowableBitMap[B], Manifest, error) {
	bm := growablebitmap.New[B](opts...)
	m, err := s.RestoreVersion(ctx, name, version, bm)
	if err != nil {
		return nil, Manifest{}, err
	}
	return bm, m, nil
}

// Versions returns the stored versions of name in ascending order.
func (s *Store) Versions(ctx context.Context, name string) ([]uint64, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	blobs, err := s.list(ctx, name)
	if err != nil {
		return nil, err
	}

	var versions []uint64
	for _, b := range blobs {
		digits, ok := strings.CutSuffix(b, dataExt)
		if !ok {
			continue
		}
		v, err := strconv.ParseUint(digits, 10, 64)
		if err != nil {
			continue
		}
		versions = append(versions, v)
	}
	slices.Sort(versions)
	return versions, nil
}

// Names returns every snapshot name that has a CURRENT pointer.
func (s *Store) Names(ctx context.Context) ([]string, error) {
	all, err := s.blobs.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("snapshot: list: %w", err)
	}
	var names []string
	for _, b := range all {
		if name, ok := strings.CutSuffix(b, "/"+pointerName); ok && name != "" {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

// Prune deletes all but the newest keep versions of name. The version
// CURRENT points at is never deleted. It returns the number of versions
// removed.
func (s *Store) Prune(ctx context.Context, name string, keep int) (int, error) {
	keep = max(keep, 1)
	versions, err := s.Versions(ctx, name)
	if err != nil {
		return 0, err
	}
	if len(versions) <= keep {
		return 0, nil
	}

	current, err := s.Current(ctx, name)
	if err != nil && !blobstore.IsNotFound(err) {
		return 0, err
	}

	removed := 0
	for _, v := range versions[:len(versions)-keep] {
		if v == current.Version {
			continue
		}
		if err := s.deleteVersion(ctx, name, v); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// Delete removes CURRENT and every version of name. Deleting a name that
// does not exist is not an error.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := s.blobs.Delete(ctx, pointerPath(name)); err != nil && !blobstore.IsNotFound(err) {
		return fmt.Errorf("snapshot: delete %s: %w", pointerPath(name), err)
	}

	blobs, err := s.list(ctx, name)
	if err != nil {
		return err
	}
	for _, b := range blobs {
		p := name + "/" + b
		if err := s.blobs.Delete(ctx, p); err != nil && !blobstore.IsNotFound(err) {
			return fmt.Errorf("snapshot: delete %s: %w", p, err)
		}
	}
	return nil
}

func (s *Store) deleteVersion(ctx context.Context, name string, version uint64) error {
	for _, p := range []string{dataPath(name, version), manifestPath(name, version)} {
		if err := s.blobs.Delete(ctx, p); err != nil && !blobstore.IsNotFound(err) {
			return fmt.Errorf("snapshot: delete %s: %w", p, err)
		}
	}
	return nil
}

// list returns the base names of the blobs directly under name.
func (s *Store) list(ctx context.Context, name string) ([]string, error) {
	prefix := name + "/"
	all, err := s.blobs.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("snapshot: list %s: %w", name, err)
	}
	var out []string
	for _, b := range all {
		rest, ok := strings.CutPrefix(b, prefix)
		if !ok || rest == "" || strings.Contains(rest, "/") {
			continue
		}
		out = append(out, rest)
	}
	return out, nil
}

func (s *Store) writeBlob(ctx context.Context, name string, data []byte) error {
	w, err := s.blobs.Create(ctx, name)
	if err != nil {
		return fmt.Errorf("snapshot: create %s: %w", name, err)
	}

	rw := resource.NewRateLimitedWriter(ctx, w, s.opts.controller)
	if _, err := io.Copy(rw, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		_ = s.blobs.Delete(ctx, name)
		return fmt.Errorf("snapshot: write %s: %w", name, err)
	}
	if err := w.Sync(); err != nil {
		_ = w.Close()
		_ = s.blobs.Delete(ctx, name)
		return fmt.Errorf("snapshot: sync %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("snapshot: close %s: %w", name, err)
	}
	return nil
}

func (s *Store) readBlob(ctx context.Context, name string, size int64) ([]byte, error) {
	b, err := s.blobs.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open %s: %w", name, err)
	}
	defer b.Close()

	if b.Size() != size {
		return nil, fmt.Errorf("%w: %s holds %d bytes, want %d", ErrChecksumMismatch, name, b.Size(), size)
	}
	if s.opts.controller == nil {
		return blobstore.ReadAll(ctx, b)
	}

	rc, err := b.ReadRange(ctx, 0, size)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read %s: %w", name, err)
	}
	defer rc.Close()

	buf := make([]byte, size)
	if _, err := io.ReadFull(resource.NewRateLimitedReader(ctx, rc, s.opts.controller), buf); err != nil {
		return nil, fmt.Errorf("snapshot: read %s: %w", name, err)
	}
	return buf, nil
}

func (s *Store) readManifest(ctx context.Context, name string) (Manifest, error) {
	b, err := s.blobs.Open(ctx, name)
	if err != nil {
		return Manifest{}, fmt.Errorf("snapshot: open %s: %w", name, err)
	}
	defer b.Close()

	data, err := blobstore.ReadAll(ctx, b)
	if err != nil {
		return Manifest{}, fmt.Errorf("snapshot: read %s: %w", name, err)
	}
	return decodeManifest(data)
}

func validateName(name string) error {
	if name == "" || strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") || path.Clean(name) != name {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if path.Base(name) == pointerName {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

func dataPath(name string, version uint64) string {
	return fmt.Sprintf("%s/%020d%s", name, version, dataExt)
}

func manifestPath(name string, version uint64) string {
	return fmt.Sprintf("%s/%020d%s", name, version, manifestExt)
}

func pointerPath(name string) string {
	return name + "/" + pointerName
}

// IsNotFound reports whether err means the snapshot or version does not
// exist.
func IsNotFound(err error) bool {
	return blobstore.IsNotFound(err)
}
