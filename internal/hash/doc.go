// Package hash provides the CRC32-Castagnoli checksum used to verify
// snapshot payloads and S3 uploads.
//
// For one-shot checksums:
//
//	checksum := hash.CRC32C(payload)
//
// For streaming checksums:
//
//	h := hash.NewCRC32C()
//	h.Write(chunk1)
//	h.Write(chunk2)
//	checksum := h.Sum32()
//
// Go's hash/crc32 uses SSE4.2 and the ARM CRC extension when available.
package hash
