// Package minio stores bitmap snapshots in MinIO or any other
// S3-compatible server reachable through minio-go.
//
//	client, err := minio.Connect("localhost:9000", "minioadmin", "minioadmin", false)
//	store := minio.NewStore(client, "bitmaps", "tenant-a/")
//	if err := store.EnsureBucket(ctx); err != nil { ... }
package minio
