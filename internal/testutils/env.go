package testutils

import (
	"os"
	"strings"
	"testing"

	"github.com/jwcloud365/SimpleWebDBApp/internal/config"
)

// 配置项统一使用配置文件中的点分写法，例如 rate_limit.upload_rps

// EnvName 返回配置项对应的环境变量名：server.mode -> PICTURE_DB_SERVER_MODE
func EnvName(key string) string {
	return config.EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// OverrideConfigEnv 供 TestMain 使用（没有 *testing.T），返回的函数把环境变量恢复到调用前的状态
func OverrideConfigEnv(kv map[string]string) (restore func()) {
	type saved struct {
		name  string
		value string
		had   bool
	}
	prev := make([]saved, 0, len(kv))
	for key, value := range kv {
		name := EnvName(key)
		old, had := os.LookupEnv(name)
		prev = append(prev, saved{name: name, value: old, had: had})
		_ = os.Setenv(name, value)
	}
	return func() {
		for _, s := range prev {
			if s.had {
				_ = os.Setenv(s.name, s.value)
			} else {
				_ = os.Unsetenv(s.name)
			}
		}
	}
}

// SetConfigEnv 在单个测试内覆盖配置项，测试结束由 t.Setenv 自动恢复
func SetConfigEnv(t *testing.T, kv map[string]string) {
	t.Helper()
	for key, value := range kv {
		t.Setenv(EnvName(key), value)
	}
}
