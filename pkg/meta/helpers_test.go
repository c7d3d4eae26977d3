package meta

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"blockverity/pkg/types"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// mockHash 生成合法的测试用 Hash
func mockHash(input string) types.Hash {
	sum := sha256.Sum256([]byte(input))
	return types.Hash(hex.EncodeToString(sum[:]))
}

// setupTestRepo 每个测试一个独立的内存 SQLite
func setupTestRepo(t *testing.T) *Repository {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	metaDB := NewWithConn(db)
	require.NoError(t, metaDB.AutoMigrate())
	t.Cleanup(func() { metaDB.Close() })

	return NewRepository(metaDB)
}

// mustRecordGeneration 写入一条生成记录，失败直接终止
func mustRecordGeneration(t *testing.T, repo *Repository, path string, root types.Hash, at time.Time, msgAndArgs ...any) {
	t.Helper()
	err := repo.RecordGeneration(context.Background(), GenerationRecord{
		DataPath:   path,
		Root:       root,
		BlockSize:  4096,
		BlockCount: 256,
		DataSize:   1 << 20,
		CreatedAt:  at,
	})
	require.NoError(t, err, msgAndArgs...)
}
