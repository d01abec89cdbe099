package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrInvalidName 名称不是目录下的单层文件名
	ErrInvalidName = errors.New("非法文件名")
	// ErrSymlink 存储目录或目标文件是符号链接
	ErrSymlink = errors.New("不允许符号链接")
)

// ResolveFlat 把单层文件名解析为 dir 下的绝对路径。
// 存储目录是扁平的，因此只需要检查目录本身与目标文件两个节点，不存在的节点视为安全。
func ResolveFlat(dir, name string) (string, error) {
	if err := validateFlatName(name); err != nil {
		return "", err
	}

	dirAbs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("解析存储目录 %s 失败: %w", dir, err)
	}
	if err := rejectSymlink(dirAbs); err != nil {
		return "", err
	}

	target := filepath.Join(dirAbs, name)
	if err := rejectSymlink(target); err != nil {
		return "", err
	}
	return target, nil
}

func validateFlatName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
	case strings.ContainsAny(name, "/\\\x00"):
	case filepath.VolumeName(name) != "":
	default:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidName, name)
}

// rejectSymlink 路径存在且为符号链接时返回 ErrSymlink
func rejectSymlink(p string) error {
	info, err := os.Lstat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("检查路径 %s 失败: %w", p, err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return fmt.Errorf("%w: %s", ErrSymlink, p)
	}
	return nil
}
