package meta

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"blockverity/pkg/types"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrGenerationNotFound = errors.New("generation not found in registry")
)

// 校验模式
const (
	ModeBlock = "block"
	ModeAll   = "all"
	ModeAudit = "audit"
)

// Repository 封装所有对注册表的 SQL 操作
type Repository struct {
	db *DB
}

func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// -----------------------------------------------------------------------------
// 1. 生成记录
// -----------------------------------------------------------------------------

type GenerationRecord struct {
	DataPath   string
	Root       types.Hash
	BlockSize  int
	BlockCount int
	DataSize   int64
	SealID     types.Hash
	CreatedAt  time.Time
}

// RecordGeneration 幂等写入：根已存在时什么都不做
func (r *Repository) RecordGeneration(ctx context.Context, rec GenerationRecord) error {
	if !rec.Root.IsValid() {
		return fmt.Errorf("invalid root %q", rec.Root)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	model := GenerationModel{
		Root:       rec.Root.String(),
		DataPath:   rec.DataPath,
		BlockSize:  rec.BlockSize,
		BlockCount: rec.BlockCount,
		DataSize:   rec.DataSize,
		SealID:     rec.SealID.String(),
		CreatedAt:  rec.CreatedAt,
	}

	err := r.db.GetConn().WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "root"}},
			DoNothing: true,
		}).
		Create(&model).Error
	if err != nil {
		return fmt.Errorf("failed to record generation: %w", err)
	}
	return nil
}

func (r *Repository) GetGeneration(ctx context.Context, root types.Hash) (*GenerationModel, error) {
	var gen GenerationModel
	err := r.db.GetConn().WithContext(ctx).
		Where("root = ?", root.String()).
		First(&gen).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGenerationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &gen, nil
}

// LatestGeneration 返回某个数据文件最近一次生成的记录
func (r *Repository) LatestGeneration(ctx context.Context, dataPath string) (*GenerationModel, error) {
	var gen GenerationModel
	err := r.db.GetConn().WithContext(ctx).
		Where("data_path = ?", dataPath).
		Order("created_at DESC").
		First(&gen).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGenerationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &gen, nil
}

func (r *Repository) ListGenerations(ctx context.Context, dataPath string, limit int) ([]GenerationModel, error) {
	var gens []GenerationModel
	err := r.db.GetConn().WithContext(ctx).
		Where("data_path = ?", dataPath).
		Order("created_at DESC").
		Limit(normalizeLimit(limit)).
		Find(&gens).Error
	return gens, err
}

// -----------------------------------------------------------------------------
// 2. 校验记录
// -----------------------------------------------------------------------------

type RunRecord struct {
	DataPath     string
	Root         types.Hash
	Mode         string
	OK           bool
	FailedBlocks []int
	Checked      int
	Duration     time.Duration
}

func (r *Repository) RecordRun(ctx context.Context, rec RunRecord) (*RunModel, error) {
	failed := rec.FailedBlocks
	if failed == nil {
		failed = []int{}
	}
	failedJSON, err := json.Marshal(failed)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal failed blocks: %w", err)
	}

	model := &RunModel{
		DataPath:     rec.DataPath,
		Root:         rec.Root.String(),
		Mode:         rec.Mode,
		OK:           rec.OK,
		FailedBlocks: datatypes.JSON(failedJSON),
		Checked:      rec.Checked,
		Duration:     rec.Duration,
	}
	if err := r.db.GetConn().WithContext(ctx).Create(model).Error; err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}
	return model, nil
}

// ListRuns 最近的校验记录在前
func (r *Repository) ListRuns(ctx context.Context, dataPath string, limit int) ([]RunModel, error) {
	var runs []RunModel
	err := r.db.GetConn().WithContext(ctx).
		Where("data_path = ?", dataPath).
		Order("created_at DESC").
		Order("id DESC").
		Limit(normalizeLimit(limit)).
		Find(&runs).Error
	return runs, err
}

// FailedBlocksOf 解析 RunModel.FailedBlocks
func FailedBlocksOf(run *RunModel) ([]int, error) {
	var out []int
	if len(run.FailedBlocks) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(run.FailedBlocks, &out); err != nil {
		return nil, fmt.Errorf("failed to decode failed blocks: %w", err)
	}
	return out, nil
}

// normalizeLimit limit <= 0 表示不限制
func normalizeLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
