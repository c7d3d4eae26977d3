package exporter

import (
	"bytes"
	"context"
	"testing"

	"blockverity/pkg/core"
	"blockverity/pkg/manifest"
	"blockverity/pkg/merkle"
	"blockverity/pkg/storage"
	"blockverity/pkg/storage/disk"
	"blockverity/pkg/types"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func digestsOf(n int) []types.Hash {
	out := make([]types.Hash, n)
	for i := range out {
		out[i] = core.CalculateBlobHash([]byte{byte(i)})
	}
	return out
}

// sealed 把 digests 作为清单存进 store，返回对应的封印
func sealed(t *testing.T, store storage.Store, digests []types.Hash) *core.Seal {
	t.Helper()
	ctx := context.Background()
	blob := core.NewManifestBlob(manifest.Encode(digests))
	root, err := merkle.BuildRoot(digests)
	require.NoError(t, err)
	seal, err := core.NewSeal(root, blob.ID(), 4096, len(digests), int64(len(digests))*4096)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, blob))
	require.NoError(t, store.Put(ctx, seal))
	return seal
}

func TestRestoreManifest_RoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	store, err := disk.NewAdapter(fs, "/objects")
	require.NoError(t, err)

	digests := digestsOf(5)
	seal := sealed(t, store, digests)

	exp := NewExporter(store)
	n, err := exp.RestoreManifest(context.Background(), seal, fs, "/data/a.bin.hashtree")
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	loaded, err := manifest.Load(fs, "/data/a.bin.hashtree")
	require.NoError(t, err)
	assert.Equal(t, digests, loaded)
}

func TestFetchManifest_RejectsForeignManifest(t *testing.T) {
	fs := afero.NewMemMapFs()
	store, err := disk.NewAdapter(fs, "/objects")
	require.NoError(t, err)
	ctx := context.Background()

	// 封印引用了一个清单，但根是另一组摘要的
	other := digestsOf(4)
	blob := core.NewManifestBlob(manifest.Encode(digestsOf(3)))
	require.NoError(t, store.Put(ctx, blob))
	otherRoot, err := merkle.BuildRoot(other)
	require.NoError(t, err)

	countMismatch, err := core.NewSeal(otherRoot, blob.ID(), 4096, 4, 4*4096)
	require.NoError(t, err)
	_, err = NewExporter(store).FetchManifest(ctx, countMismatch)
	assert.ErrorIs(t, err, core.ErrRootMismatch)

	rootMismatch, err := core.NewSeal(otherRoot, blob.ID(), 4096, 3, 3*4096)
	require.NoError(t, err)
	_, err = NewExporter(store).FetchManifest(ctx, rootMismatch)
	assert.ErrorIs(t, err, core.ErrRootMismatch)
}

func TestFetchManifest_Missing(t *testing.T) {
	store, err := disk.NewAdapter(afero.NewMemMapFs(), "/objects")
	require.NoError(t, err)

	root := core.CalculateBlobHash([]byte("r"))
	seal, err := core.NewSeal(root, core.CalculateBlobHash([]byte("m")), 4096, 1, 1)
	require.NoError(t, err)

	_, err = NewExporter(store).FetchManifest(context.Background(), seal)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPrintObject(t *testing.T) {
	store, err := disk.NewAdapter(afero.NewMemMapFs(), "/objects")
	require.NoError(t, err)
	seal := sealed(t, store, digestsOf(3))
	exp := NewExporter(store)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, exp.PrintObject(ctx, seal.ID(), &out))
	assert.Contains(t, out.String(), "Type:       Seal")
	assert.Contains(t, out.String(), seal.Root.Hash.String())
	assert.Contains(t, out.String(), "Blocks:     3")

	out.Reset()
	require.NoError(t, exp.PrintObject(ctx, seal.Manifest.Hash, &out))
	assert.Contains(t, out.String(), "Type:   Manifest")
	assert.Contains(t, out.String(), "Blocks: 3")
	assert.Contains(t, out.String(), digestsOf(3)[2].String())
}
