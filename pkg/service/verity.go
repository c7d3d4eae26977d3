package service

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"time"

	verityrpc "blockverity/pkg/api/verityrpc/v1"
	"blockverity/pkg/app"
	"blockverity/pkg/core"
	"blockverity/pkg/engine"
	"blockverity/pkg/merkle"
	"blockverity/pkg/meta"
	"blockverity/pkg/storage"
	"blockverity/pkg/types"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// VerityService 在服务端本地文件上执行生成和校验
// 请求里的路径都是服务端路径，必须是绝对路径；清单固定在 <data_path>.hashtree。
type VerityService struct {
	verityrpc.UnimplementedVerityServiceServer
	app *app.App
}

func NewVerityService(application *app.App) *VerityService {
	return &VerityService{app: application}
}

func (s *VerityService) engine(dataPath string) (*engine.Engine, error) {
	if dataPath == "" || !filepath.IsAbs(dataPath) {
		return nil, status.Errorf(codes.InvalidArgument, "data_path must be an absolute path, got %q", dataPath)
	}
	// 全局的 manifest.path 只适合单文件的 CLI；服务端每个数据文件一份清单
	dataPath = filepath.Clean(dataPath)
	eng, err := s.app.Engine(dataPath, dataPath+engine.ManifestSuffix)
	if err != nil {
		return nil, toStatus(err)
	}
	return eng, nil
}

// authenticate 请求带了受信任的根时先认证清单
func (s *VerityService) authenticate(ctx context.Context, eng *engine.Engine, raw string) (types.Hash, error) {
	if raw == "" {
		return "", nil
	}
	trusted := types.Hash(types.HashPrefix(raw).Normalize())
	if !trusted.IsValid() {
		return "", status.Error(codes.InvalidArgument, "trusted_root must be a full 64-character hex digest")
	}
	if _, err := eng.AuthenticateManifest(ctx, trusted); err != nil {
		return "", toStatus(err)
	}
	return trusted, nil
}

func (s *VerityService) Generate(ctx context.Context, req *verityrpc.GenerateRequest) (*verityrpc.GenerateResponse, error) {
	eng, err := s.engine(req.DataPath)
	if err != nil {
		return nil, err
	}
	gen, err := eng.GenerateHashes(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	if err := eng.SaveHashes(gen); err != nil {
		return nil, toStatus(err)
	}

	resp := &verityrpc.GenerateResponse{
		Root:       gen.Root.String(),
		BlockCount: gen.BlockCount(),
		BlockSize:  gen.BlockSize,
		DataSize:   gen.DataSize,
		Manifest:   eng.ManifestPath(),
	}
	if req.Seal {
		seal, err := s.app.Commit(ctx, eng, gen)
		if err != nil {
			return nil, toStatus(err)
		}
		resp.SealID = seal.ID().String()
	}
	return resp, nil
}

func (s *VerityService) VerifyBlock(ctx context.Context, req *verityrpc.VerifyBlockRequest) (*verityrpc.VerifyBlockResponse, error) {
	start := time.Now()
	eng, err := s.engine(req.DataPath)
	if err != nil {
		return nil, err
	}
	trusted, err := s.authenticate(ctx, eng, req.TrustedRoot)
	if err != nil {
		return nil, err
	}

	ok, err := eng.VerifyBlock(ctx, req.Index)
	if err != nil {
		return nil, toStatus(err)
	}
	rec := meta.RunRecord{DataPath: eng.DataPath(), Root: trusted, Mode: meta.ModeBlock, OK: ok, Checked: 1}
	if !ok {
		rec.FailedBlocks = []int{req.Index}
	}
	s.app.RecordRun(ctx, rec, start)
	return &verityrpc.VerifyBlockResponse{OK: ok}, nil
}

func (s *VerityService) VerifyAll(ctx context.Context, req *verityrpc.VerifyAllRequest) (*verityrpc.VerifyAllResponse, error) {
	start := time.Now()
	eng, err := s.engine(req.DataPath)
	if err != nil {
		return nil, err
	}
	trusted, err := s.authenticate(ctx, eng, req.TrustedRoot)
	if err != nil {
		return nil, err
	}

	ok, err := eng.VerifyAllBlocks(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	s.app.RecordRun(ctx, meta.RunRecord{DataPath: eng.DataPath(), Root: trusted, Mode: meta.ModeAll, OK: ok}, start)
	return &verityrpc.VerifyAllResponse{OK: ok}, nil
}

func (s *VerityService) Audit(ctx context.Context, req *verityrpc.AuditRequest) (*verityrpc.AuditResponse, error) {
	start := time.Now()
	eng, err := s.engine(req.DataPath)
	if err != nil {
		return nil, err
	}
	trusted, err := s.authenticate(ctx, eng, req.TrustedRoot)
	if err != nil {
		return nil, err
	}

	report, err := eng.Audit(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	failed := report.FailedBlocks()
	s.app.RecordRun(ctx, meta.RunRecord{
		DataPath:     eng.DataPath(),
		Root:         trusted,
		Mode:         meta.ModeAudit,
		OK:           report.OK(),
		FailedBlocks: failed,
		Checked:      report.Checked,
	}, start)
	return &verityrpc.AuditResponse{
		OK:             report.OK(),
		FileBlocks:     report.FileBlocks,
		ManifestBlocks: report.ManifestBlocks,
		Checked:        report.Checked,
		FailedBlocks:   failed,
	}, nil
}

func (s *VerityService) Prove(ctx context.Context, req *verityrpc.ProveRequest) (*verityrpc.ProveResponse, error) {
	eng, err := s.engine(req.DataPath)
	if err != nil {
		return nil, err
	}
	proof, leaf, err := eng.Prove(ctx, req.Index)
	if err != nil {
		return nil, toStatus(err)
	}
	root, err := merkle.RootFromProof(leaf, proof)
	if err != nil {
		return nil, toStatus(err)
	}

	siblings := make([]string, len(proof.Siblings))
	for i, h := range proof.Siblings {
		siblings[i] = h.String()
	}
	return &verityrpc.ProveResponse{
		Leaf:      leaf.String(),
		Root:      root.String(),
		Index:     proof.Index,
		LeafCount: proof.LeafCount,
		Siblings:  siblings,
	}, nil
}

// toStatus 把领域错误映射成 gRPC 状态码
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	case errors.Is(err, core.ErrIndexOutOfRange):
		return status.Error(codes.OutOfRange, err.Error())
	case errors.Is(err, core.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, core.ErrRootMismatch):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, storage.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
