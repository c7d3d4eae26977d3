package meta

import (
	"time"

	"gorm.io/datatypes"
)

// GenerationModel 记录一次清单生成：哪个文件、用什么块大小、得到哪个根
// 同一个根只记录一次
type GenerationModel struct {
	Root string `gorm:"primaryKey;type:char(64)"`

	DataPath   string `gorm:"index;type:varchar(1024);not null"`
	BlockSize  int    `gorm:"not null"`
	BlockCount int    `gorm:"not null"`
	DataSize   int64  `gorm:"not null"`

	// SealID 对应对象存储里的封印；没有配置存储时为空
	SealID string `gorm:"type:varchar(64)"`

	CreatedAt time.Time `gorm:"index"`
}

func (GenerationModel) TableName() string {
	return "generations"
}

// RunModel 记录一次校验
type RunModel struct {
	ID uint `gorm:"primaryKey;autoIncrement"`

	DataPath string `gorm:"index;type:varchar(1024);not null"`
	// Root 认证时使用的受信任根；纯叶子校验为空
	Root string `gorm:"type:varchar(64)"`
	// Mode: block / all / audit
	Mode string `gorm:"type:varchar(16);not null"`
	OK   bool

	// FailedBlocks 失败块号的 JSON 数组，例如 [0, 7]
	FailedBlocks datatypes.JSON
	Checked      int
	Duration     time.Duration

	CreatedAt time.Time `gorm:"index"`
}

func (RunModel) TableName() string {
	return "runs"
}
