package storage

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PicturePrefix 原图文件名前缀
const PicturePrefix = "picture-"

// LocalStore 管理扁平的上传目录，原图与缩略图都存放在同一层
type LocalStore struct {
	dir string
}

type FileInfo struct {
	Name    string
	Size    int64
	ModTime time.Time
}

func NewLocalStore(dir string) *LocalStore {
	if strings.TrimSpace(dir) == "" {
		dir = "uploads"
	}
	return &LocalStore{dir: dir}
}

func (s *LocalStore) Dir() string {
	return s.dir
}

// EnsureDir 创建上传目录（如不存在），目录本身不允许是符号链接
func (s *LocalStore) EnsureDir() error {
	if err := rejectSymlink(s.dir); err != nil {
		return fmt.Errorf("上传目录不可用: %w", err)
	}
	return os.MkdirAll(s.dir, 0755)
}

// NewPictureName 生成唯一的原图存储名 picture-<uuid><ext>
func NewPictureName(ext string) string {
	return PicturePrefix + uuid.NewString() + strings.ToLower(ext)
}

// Path 返回上传目录中文件的绝对路径，只接受单层文件名
func (s *LocalStore) Path(name string) (string, error) {
	return ResolveFlat(s.dir, name)
}

// Save 以独占方式创建文件并写入内容，失败时清理残留文件
func (s *LocalStore) Save(name string, r io.Reader) (int64, error) {
	if err := s.EnsureDir(); err != nil {
		return 0, err
	}
	p, err := s.Path(name)
	if err != nil {
		return 0, err
	}

	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(p)
		return 0, err
	}
	return n, nil
}

// Remove 删除文件，文件不存在时返回的错误满足 os.IsNotExist
func (s *LocalStore) Remove(name string) error {
	p, err := s.Path(name)
	if err != nil {
		return err
	}
	return os.Remove(p)
}

// RemoveBestEffort 删除文件，失败只记录日志。返回是否实际删除。
func (s *LocalStore) RemoveBestEffort(name, kind string) bool {
	err := s.Remove(name)
	if err == nil {
		return true
	}
	if os.IsNotExist(err) {
		log.Printf("⚠️ %s文件不存在，跳过删除: %s", kind, name)
	} else {
		log.Printf("⚠️ 删除%s文件失败 %s: %v", kind, name, err)
	}
	return false
}

func (s *LocalStore) Exists(name string) (bool, error) {
	p, err := s.Path(name)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Rename 在上传目录内重命名文件，目标已存在时报错
func (s *LocalStore) Rename(oldName, newName string) error {
	oldPath, err := s.Path(oldName)
	if err != nil {
		return err
	}
	newPath, err := s.Path(newName)
	if err != nil {
		return err
	}
	if _, err := os.Lstat(newPath); err == nil {
		return fmt.Errorf("目标文件已存在: %s", newName)
	}
	return os.Rename(oldPath, newPath)
}

// List 按文件名排序列出上传目录中的普通文件，目录不存在时返回空
func (s *LocalStore) List() ([]FileInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	out := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, FileInfo{Name: e.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
