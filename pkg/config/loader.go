package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀：VERITY_BLOCK_SIZE、VERITY_STORAGE_S3_BUCKET ...
const EnvPrefix = "VERITY"

const DefaultServerAddr = "127.0.0.1:8080"

// Load 初始化全局 Viper；cfgFile 可选，用户显式指定的配置文件路径
// 返回实际使用的配置文件，没有找到配置文件时为空。
func Load(cfgFile string) (string, error) {
	return LoadInto(viper.GetViper(), cfgFile)
}

// LoadInto 与 Load 相同，但作用于给定的 Viper 实例
func LoadInto(v *viper.Viper, cfgFile string) (string, error) {
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		// 搜索顺序：当前目录 -> ./.verity -> ~/.verity
		v.AddConfigPath(".")
		v.AddConfigPath(".verity")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".verity"))
		}
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// 没找到配置文件不算错，仍然可以用默认值和环境变量
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("fatal error config file: %w", err)
	}
	return v.ConfigFileUsed(), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("block_size", 4096)
	v.SetDefault("workers", runtime.NumCPU())
	v.SetDefault("manifest.path", "")
	v.SetDefault("home", defaultHome())

	v.SetDefault("log.level", "info")

	v.SetDefault("storage.type", "disk")
	v.SetDefault("storage.path", "")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.access_key_id", "")
	v.SetDefault("storage.s3.secret_access_key", "")
	v.SetDefault("storage.s3.key_prefix", "")

	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", 24*time.Hour)

	v.SetDefault("registry.driver", "none")
	v.SetDefault("registry.dsn", "")
	v.SetDefault("registry.debug", false)
	v.SetDefault("registry.postgres.host", "localhost")
	v.SetDefault("registry.postgres.port", 5432)
	v.SetDefault("registry.postgres.user", "")
	v.SetDefault("registry.postgres.password", "")
	v.SetDefault("registry.postgres.dbname", "verity")
	v.SetDefault("registry.postgres.sslmode", "disable")

	v.SetDefault("metrics.textfile", "")

	v.SetDefault("server.addr", DefaultServerAddr)
}

func defaultHome() string {
	wd, err := os.Getwd()
	if err != nil {
		return ".verity"
	}
	return filepath.Join(wd, ".verity")
}
