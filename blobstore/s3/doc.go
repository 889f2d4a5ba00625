// Package s3 stores bitmap snapshots in Amazon S3.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("bitmaps/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//
//	snaps := snapshot.NewStore(store)
//
// # Features
//
//   - Range reads for partial fetches
//   - Multipart uploads through the S3 transfer manager
//   - CRC32C integrity checks on uploads
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
//
// # Concurrent Writers
//
// S3 has no compare-and-swap, so two writers can overwrite each other's
// CURRENT pointer. Wrap the store in a DDBCommitStore to commit pointers
// through conditional DynamoDB writes instead.
package s3
