// Package blobstore provides the storage abstraction behind bitmap
// snapshots.
//
// A BlobStore holds named immutable blobs: the compressed snapshot payloads
// and the small CURRENT pointers that name the latest version.
//
// # Built-in Implementations
//
//   - MemoryStore: in-process, for tests
//   - LocalStore: local filesystem, atomic writes, mmap-backed reads
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//   - minio.Store: MinIO and other S3-compatible servers
//
// # Custom Implementations
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)
//	    Create(ctx, name) (WritableBlob, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// Cloud backends should serve ReadRange with a single ranged request.
package blobstore
