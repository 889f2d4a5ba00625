// Package mmap maps snapshot files read-only into memory.
//
// The local blob store serves ReadAt and ReadRange straight from the mapping,
// so restoring a large bitmap copies its blocks once, from the page cache into
// the bitmap, with no intermediate read buffer.
//
//	m, err := mmap.Open(path)
//	if err != nil { ... }
//	defer m.Close()
//	_ = m.Advise(mmap.AccessSequential)
//
// Unix uses mmap(2) and madvise(2). Windows uses CreateFileMapping and
// MapViewOfFile; Advise is a no-op there.
//
// Close is idempotent. Slices returned by Bytes must not be used after Close.
package mmap
