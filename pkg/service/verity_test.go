package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	verityrpc "blockverity/pkg/api/verityrpc/v1"
	"blockverity/pkg/core"
	"blockverity/pkg/engine"
	"blockverity/pkg/refs"
	"blockverity/pkg/storage"
	"blockverity/pkg/types"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestToStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code codes.Code
	}{
		{"nil", nil, codes.OK},
		{"out of range", fmt.Errorf("%w: block 9", core.ErrIndexOutOfRange), codes.OutOfRange},
		{"invalid input", fmt.Errorf("%w: no blocks", core.ErrInvalidInput), codes.InvalidArgument},
		{"root mismatch", fmt.Errorf("%w: x", core.ErrRootMismatch), codes.FailedPrecondition},
		{"missing file", fmt.Errorf("%w: open: %w", core.ErrIO, os.ErrNotExist), codes.NotFound},
		{"missing object", fmt.Errorf("get: %w", storage.ErrNotFound), codes.NotFound},
		{"other io", fmt.Errorf("%w: short read", core.ErrIO), codes.Internal},
		{"canceled", context.Canceled, codes.Canceled},
		{"already a status", status.Error(codes.Unavailable, "down"), codes.Unavailable},
		{"unknown", errors.New("boom"), codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, status.Code(toStatus(tt.err)))
		})
	}
}

func TestVerityService_GenerateWithSeal(t *testing.T) {
	a := setupTestApp(t)
	svc := NewVerityService(a)
	ctx := context.Background()
	writeData(t, a, "/data/file.bin", 10*testBlockSize+1)

	resp, err := svc.Generate(ctx, &verityrpc.GenerateRequest{DataPath: "/data/file.bin", Seal: true})
	require.NoError(t, err)
	assert.Equal(t, 11, resp.BlockCount)
	assert.Equal(t, "/data/file.bin"+engine.ManifestSuffix, resp.Manifest)
	require.NotEmpty(t, resp.SealID)

	// 钉住的封印可以从存储中加载，根与响应一致
	pinned, err := a.Refs.GetPin("/data/file.bin")
	require.NoError(t, err)
	seal, err := engine.LoadSeal(ctx, a.Store, types.HashPrefix(pinned))
	require.NoError(t, err)
	assert.Equal(t, resp.Root, seal.Root.Hash.String())
}

func TestVerityService_GenerateWithoutSeal(t *testing.T) {
	a := setupTestApp(t)
	svc := NewVerityService(a)
	writeData(t, a, "/data/file.bin", 3*testBlockSize)

	resp, err := svc.Generate(context.Background(), &verityrpc.GenerateRequest{DataPath: "/data/file.bin"})
	require.NoError(t, err)
	assert.Empty(t, resp.SealID)

	_, err = a.Refs.GetPin("/data/file.bin")
	assert.ErrorIs(t, err, refs.ErrNoPin)
}

func TestVerityService_AuthenticatedAudit(t *testing.T) {
	a := setupTestApp(t)
	svc := NewVerityService(a)
	ctx := context.Background()
	writeData(t, a, "/data/file.bin", 8*testBlockSize)

	gen, err := svc.Generate(ctx, &verityrpc.GenerateRequest{DataPath: "/data/file.bin"})
	require.NoError(t, err)

	report, err := svc.Audit(ctx, &verityrpc.AuditRequest{DataPath: "/data/file.bin", TrustedRoot: gen.Root})
	require.NoError(t, err)
	assert.True(t, report.OK)
	assert.Empty(t, report.FailedBlocks)
	assert.Equal(t, 8, report.Checked)

	// 大写的根也接受
	_, err = svc.VerifyAll(ctx, &verityrpc.VerifyAllRequest{DataPath: "/data/file.bin", TrustedRoot: strings.ToUpper(gen.Root)})
	require.NoError(t, err)
}

func TestVerityService_RejectsRelativePath(t *testing.T) {
	svc := NewVerityService(setupTestApp(t))

	_, err := svc.VerifyBlock(context.Background(), &verityrpc.VerifyBlockRequest{DataPath: "file.bin"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = svc.Prove(context.Background(), &verityrpc.ProveRequest{DataPath: ""})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestVerityService_ManifestPerDataFile(t *testing.T) {
	a := setupTestApp(t)
	// 配置了全局清单路径也不能让两个数据文件共用一份清单
	a.Config.Manifest.Path = "/data/manifest.txt"
	svc := NewVerityService(a)
	ctx := context.Background()
	writeData(t, a, "/data/a.bin", 4*testBlockSize)
	writeData(t, a, "/data/b.bin", 7*testBlockSize)

	genA, err := svc.Generate(ctx, &verityrpc.GenerateRequest{DataPath: "/data/a.bin"})
	require.NoError(t, err)
	genB, err := svc.Generate(ctx, &verityrpc.GenerateRequest{DataPath: "/data/b.bin"})
	require.NoError(t, err)

	assert.Equal(t, "/data/a.bin"+engine.ManifestSuffix, genA.Manifest)
	assert.Equal(t, "/data/b.bin"+engine.ManifestSuffix, genB.Manifest)
	assert.NotEqual(t, genA.Root, genB.Root)

	allA, err := svc.VerifyAll(ctx, &verityrpc.VerifyAllRequest{DataPath: "/data/a.bin", TrustedRoot: genA.Root})
	require.NoError(t, err)
	assert.True(t, allA.OK, "a.bin must still verify after b.bin was generated")

	allB, err := svc.VerifyAll(ctx, &verityrpc.VerifyAllRequest{DataPath: "/data/b.bin", TrustedRoot: genB.Root})
	require.NoError(t, err)
	assert.True(t, allB.OK)

	exists, err := afero.Exists(a.Fs, "/data/manifest.txt")
	require.NoError(t, err)
	assert.False(t, exists)
}
