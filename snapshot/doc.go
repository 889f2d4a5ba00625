// Package snapshot stores versioned, compressed, checksummed bitmap
// snapshots in a blobstore.BlobStore.
//
// # Layout
//
// Every snapshot name owns a directory of blobs:
//
//	name/00000000000000000001.gbm        compressed MarshalBinary payload
//	name/00000000000000000001.manifest   manifest of version 1
//	name/CURRENT                         manifest of the latest version
//
// A manifest blob is the codec name, a newline, and the manifest encoded with
// that codec. CURRENT is written last, so a reader never observes a version
// whose payload is incomplete.
//
// # Usage
//
//	store := snapshot.NewStore(blobstore.NewMemoryStore(),
//		snapshot.WithCompression(codec.CompressionZSTD),
//	)
//	m, err := store.Save(ctx, "users", bm)
//	restored, _, err := snapshot.Load[growablebitmap.U64](ctx, store, "users")
//
// Wrapping the blob store in s3.DDBCommitStore makes CURRENT updates atomic
// across concurrent writers.
package snapshot
