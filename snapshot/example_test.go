package snapshot_test

import (
	"context"
	"fmt"
	"log"

	growablebitmap "github.com/poliorcetics/growable-bitmap"
	"github.com/poliorcetics/growable-bitmap/blobstore"
	"github.com/poliorcetics/growable-bitmap/codec"
	"github.com/poliorcetics/growable-bitmap/snapshot"
)

func Example() {
	ctx := context.Background()
	store := snapshot.NewStore(blobstore.NewMemoryStore(),
		snapshot.WithCompression(codec.CompressionZSTD),
	)

	bm := growablebitmap.New[growablebitmap.U64]()
	_, _ = bm.Set(42)
	_, _ = bm.Set(4200)

	m, err := store.Save(ctx, "users", bm)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("version:", m.Version, "path:", m.Path)

	restored, _, err := snapshot.Load[growablebitmap.U64](ctx, store, "users")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("equal:", bm.Equal(restored))
	// Output:
	// version: 1 path: users/00000000000000000001.gbm
	// equal: true
}
