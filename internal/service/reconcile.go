package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/jwcloud365/SimpleWebDBApp/internal/model"
	"github.com/jwcloud365/SimpleWebDBApp/internal/repository"
	"github.com/jwcloud365/SimpleWebDBApp/internal/storage"
)

type ReconcileOptions struct {
	// DryRun 只报告，不修改文件和数据库
	DryRun bool
	// Grace 未被引用的文件修改时间早于该时长才会被清理，避免误删正在上传的文件
	Grace time.Duration
}

type ReconcileReport struct {
	Renamed           []string
	MissingPictures   []repository.FileRef
	MissingThumbnails []repository.FileRef
	OrphansRemoved    []string
	OrphansKept       []string
}

// Reconciler 修复数据库记录与上传目录之间的不一致
type Reconciler struct {
	store repository.PictureStore
	files *storage.LocalStore
	now   func() time.Time
}

func NewReconciler(repos *repository.Repositories, files *storage.LocalStore) *Reconciler {
	return &Reconciler{store: repos.Picture, files: files, now: time.Now}
}

func (r *Reconciler) Run(ctx context.Context, opts ReconcileOptions) (*ReconcileReport, error) {
	report := &ReconcileReport{}

	thumbRefs, err := r.store.ListThumbnailFiles(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.renameLegacyThumbnails(ctx, opts, thumbRefs, report); err != nil {
		return nil, err
	}

	// 重命名后重新读取，确保后续比较基于最新文件名
	if !opts.DryRun {
		if thumbRefs, err = r.store.ListThumbnailFiles(ctx); err != nil {
			return nil, err
		}
	}
	pictureRefs, err := r.store.ListPictureFiles(ctx)
	if err != nil {
		return nil, err
	}

	files, err := r.files.List()
	if err != nil {
		return nil, err
	}
	onDisk := make(map[string]storage.FileInfo, len(files))
	for _, f := range files {
		onDisk[f.Name] = f
	}

	referenced := make(map[string]bool, len(pictureRefs)+len(thumbRefs))
	for _, ref := range pictureRefs {
		referenced[ref.Filename] = true
		if _, ok := onDisk[ref.Filename]; !ok {
			log.Printf("⚠️ 图片文件缺失: %s (ID: %d)", ref.Filename, ref.ID)
			report.MissingPictures = append(report.MissingPictures, ref)
		}
	}
	for _, ref := range thumbRefs {
		name := ref.Filename
		if opts.DryRun && strings.HasPrefix(name, model.LegacyThumbnailPrefix) {
			name = legacyToCurrent(name)
			referenced[ref.Filename] = true
		}
		referenced[name] = true
		_, okNew := onDisk[name]
		_, okOld := onDisk[ref.Filename]
		if !okNew && !okOld {
			log.Printf("⚠️ 缩略图文件缺失: %s (ID: %d)", ref.Filename, ref.ID)
			report.MissingThumbnails = append(report.MissingThumbnails, ref)
		}
	}

	cutoff := r.now().Add(-opts.Grace)
	for _, f := range files {
		if referenced[f.Name] {
			continue
		}
		if f.ModTime.After(cutoff) {
			report.OrphansKept = append(report.OrphansKept, f.Name)
			continue
		}
		if !opts.DryRun {
			if err := r.files.Remove(f.Name); err != nil {
				log.Printf("⚠️ 删除孤立文件失败 %s: %v", f.Name, err)
				continue
			}
		}
		report.OrphansRemoved = append(report.OrphansRemoved, f.Name)
	}

	log.Printf("✅ 对账完成: 重命名 %d，缺失图片 %d，缺失缩略图 %d，清理孤立文件 %d，保留 %d (dry-run=%v)",
		len(report.Renamed), len(report.MissingPictures), len(report.MissingThumbnails),
		len(report.OrphansRemoved), len(report.OrphansKept), opts.DryRun)
	return report, nil
}

// renameLegacyThumbnails 将 thumb_ 前缀的缩略图迁移为 thumb-，同时更新引用它的记录
func (r *Reconciler) renameLegacyThumbnails(ctx context.Context, opts ReconcileOptions, refs []repository.FileRef, report *ReconcileReport) error {
	files, err := r.files.List()
	if err != nil {
		return err
	}

	byName := make(map[string][]repository.FileRef)
	for _, ref := range refs {
		byName[ref.Filename] = append(byName[ref.Filename], ref)
	}
	exists := make(map[string]bool, len(files))
	for _, f := range files {
		exists[f.Name] = true
	}

	for _, f := range files {
		if !strings.HasPrefix(f.Name, model.LegacyThumbnailPrefix) {
			continue
		}
		newName := legacyToCurrent(f.Name)
		if exists[newName] {
			log.Printf("⚠️ 文件 %s 已存在，跳过 %s", newName, f.Name)
			continue
		}
		if opts.DryRun {
			report.Renamed = append(report.Renamed, f.Name)
			continue
		}
		if err := r.files.Rename(f.Name, newName); err != nil {
			log.Printf("⚠️ 重命名 %s 失败: %v", f.Name, err)
			continue
		}
		exists[newName] = true
		report.Renamed = append(report.Renamed, f.Name)
		log.Printf("✅ 已重命名 %s -> %s", f.Name, newName)
	}

	// 记录仍引用旧文件名、而新文件已存在时，更新记录
	for oldName, list := range byName {
		if !strings.HasPrefix(oldName, model.LegacyThumbnailPrefix) || opts.DryRun {
			continue
		}
		newName := legacyToCurrent(oldName)
		if !exists[newName] {
			continue
		}
		for _, ref := range list {
			if _, err := r.store.RenameThumbnailFile(ctx, ref.ID, newName); err != nil {
				return err
			}
		}
	}
	return nil
}

func legacyToCurrent(name string) string {
	return model.ThumbnailPrefix + strings.TrimPrefix(name, model.LegacyThumbnailPrefix)
}
