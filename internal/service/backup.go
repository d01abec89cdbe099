package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/jwcloud365/SimpleWebDBApp/internal/common"
	"github.com/jwcloud365/SimpleWebDBApp/internal/config"
	"github.com/jwcloud365/SimpleWebDBApp/internal/db"
	"github.com/jwcloud365/SimpleWebDBApp/internal/storage"
)

const backupExt = ".sqlite"

var backupNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

type BackupInfo struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// BackupService 为 sqlite 数据库生成一致性快照
type BackupService struct {
	conn *db.Conn
	dir  string
	now  func() time.Time
}

func NewBackupService(conn *db.Conn, cfg config.BackupConfig) *BackupService {
	dir := cfg.Dir
	if strings.TrimSpace(dir) == "" {
		dir = "database/backups"
	}
	return &BackupService{conn: conn, dir: dir, now: time.Now}
}

func (b *BackupService) Dir() string {
	return b.dir
}

// Create 使用 VACUUM INTO 在线生成快照，无需关闭连接。
// 文件名为 <name>-<时间戳>.sqlite，name 为空时使用 backup。
func (b *BackupService) Create(ctx context.Context, name string) (*BackupInfo, error) {
	if !b.conn.IsSQLite() {
		return nil, common.NewValidationError("仅支持备份 sqlite 数据库")
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = "backup"
	}
	if !backupNamePattern.MatchString(name) {
		return nil, common.NewValidationError("备份名称只能包含字母、数字、下划线和短横线")
	}

	if err := os.MkdirAll(b.dir, 0755); err != nil {
		return nil, fmt.Errorf("创建备份目录失败: %w", err)
	}

	filename := fmt.Sprintf("%s-%s%s", name, b.now().UTC().Format("2006-01-02T15-04-05.000Z"), backupExt)
	target, err := filepath.Abs(filepath.Join(b.dir, filename))
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(target); err == nil {
		return nil, common.NewConflictError("备份文件已存在: " + filename)
	}

	if _, err := b.conn.Exec(ctx, "VACUUM INTO ?", target); err != nil {
		return nil, err
	}

	info, err := os.Stat(target)
	if err != nil {
		return nil, err
	}
	log.Printf("✅ 数据库备份已创建: %s", filename)
	return &BackupInfo{Name: filename, Path: target, Size: info.Size(), CreatedAt: info.ModTime()}, nil
}

// List 按时间倒序列出备份目录中的备份文件，目录不存在时返回空
func (b *BackupService) List() ([]BackupInfo, error) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []BackupInfo{}, nil
		}
		return nil, err
	}

	out := make([]BackupInfo, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.HasSuffix(e.Name(), backupExt) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, BackupInfo{
			Name:      e.Name(),
			Path:      filepath.Join(b.dir, e.Name()),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Name > out[j].Name
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

type TableStat struct {
	Table   string `json:"table"`
	Records int64  `json:"records"`
}

type BackupVerifyResult struct {
	BackupInfo
	Tables []TableStat `json:"tables"`
}

// Verify 以只读方式打开备份文件，执行 PRAGMA integrity_check 并统计各表记录数。
// name 必须是备份目录下的单层文件名。
func (b *BackupService) Verify(ctx context.Context, name string) (*BackupVerifyResult, error) {
	name = strings.TrimSpace(name)
	path, err := storage.ResolveFlat(b.dir, name)
	if err != nil {
		return nil, common.NewValidationError(fmt.Sprintf("非法备份名称: %s", name))
	}
	if !strings.HasSuffix(name, backupExt) {
		return nil, common.NewValidationError("备份文件必须以 " + backupExt + " 结尾")
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, common.NewNotFoundError("备份不存在: " + name)
		}
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, common.NewValidationError("备份不是普通文件: " + name)
	}

	gdb, err := db.OpenSQLiteReadOnly(path)
	if err != nil {
		return nil, err
	}
	if sqlDB, err := gdb.DB(); err == nil {
		defer func() { _ = sqlDB.Close() }()
	}
	gdb = gdb.WithContext(ctx)

	var problems []string
	if err := gdb.Raw("PRAGMA integrity_check").Scan(&problems).Error; err != nil {
		return nil, common.NewDatabaseError("integrity_check", err)
	}
	if len(problems) != 1 || problems[0] != "ok" {
		return nil, common.NewDatabaseError("integrity_check", fmt.Errorf("备份已损坏: %s", strings.Join(problems, "; ")))
	}

	var tables []string
	if err := gdb.Raw("SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name").Scan(&tables).Error; err != nil {
		return nil, common.NewDatabaseError("query", err)
	}
	stats := make([]TableStat, 0, len(tables))
	for _, t := range tables {
		var n int64
		if err := gdb.Table(t).Count(&n).Error; err != nil {
			return nil, common.NewDatabaseError("query", err)
		}
		stats = append(stats, TableStat{Table: t, Records: n})
	}

	log.Printf("✅ 备份校验通过: %s", name)
	return &BackupVerifyResult{
		BackupInfo: BackupInfo{Name: name, Path: path, Size: info.Size(), CreatedAt: info.ModTime()},
		Tables:     stats,
	}, nil
}
