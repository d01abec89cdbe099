package db

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jwcloud365/SimpleWebDBApp/internal/common"
	"github.com/jwcloud365/SimpleWebDBApp/internal/config"
	"github.com/jwcloud365/SimpleWebDBApp/internal/model"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Conn 持有进程内唯一的数据库句柄。首次使用时连接，Close 后再次使用会重新连接。
type Conn struct {
	cfg config.DatabaseConfig

	mu  sync.Mutex
	gdb *gorm.DB
}

// Result 是写语句的执行结果，驱动不支持时 LastInsertID 为 0
type Result struct {
	LastInsertID int64
	RowsAffected int64
}

func New(cfg config.DatabaseConfig) *Conn {
	return &Conn{cfg: cfg}
}

func (c *Conn) IsSQLite() bool {
	return isSQLite(c.cfg.Type)
}

func isSQLite(t string) bool {
	return t == "" || t == "sqlite"
}

// Open 返回已打开的句柄，未连接时建立连接并同步表结构
func (c *Conn) Open() (*gorm.DB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gdb != nil {
		return c.gdb, nil
	}

	dialector, err := c.dialector()
	if err != nil {
		return nil, common.NewDatabaseError("open", err)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, common.NewDatabaseError("open", err)
	}

	// 获取底层 sql.DB 以配置连接池
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, common.NewDatabaseError("open", err)
	}

	if c.IsSQLite() {
		// SQLite 单连接，语句与事务由 database/sql 串行化
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		if err := gdb.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			_ = sqlDB.Close()
			return nil, common.NewDatabaseError("open", err)
		}
	} else {
		// MySQL/PostgreSQL 可以支持更高并发
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetMaxIdleConns(10)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := Migrate(gdb); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	log.Printf("✅ 数据库(%s)连接成功，表结构已同步", c.typeName())
	c.gdb = gdb
	return gdb, nil
}

// Close 关闭连接并重置为未初始化状态，未打开时为空操作
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gdb == nil {
		return nil
	}
	sqlDB, err := c.gdb.DB()
	c.gdb = nil
	if err != nil {
		return common.NewDatabaseError("close", err)
	}
	if err := sqlDB.Close(); err != nil {
		return common.NewDatabaseError("close", err)
	}
	log.Println("🛑 数据库连接已关闭")
	return nil
}

// OpenSQLiteReadOnly 以只读方式打开不再变化的 sqlite 文件（如备份快照），不建表也不迁移，调用方负责关闭
func OpenSQLiteReadOnly(filename string) (*gorm.DB, error) {
	abs, err := filepath.Abs(filename)
	if err != nil {
		return nil, common.NewDatabaseError("open", err)
	}
	// immutable 让 sqlite 跳过加锁与 WAL 检查，快照文件不会再被写入
	dsn := "file:" + filepath.ToSlash(abs) + "?mode=ro&immutable=1"
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, common.NewDatabaseError("open", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, common.NewDatabaseError("open", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return gdb, nil
}

// Migrate 同步 pictures / thumbnails 表结构
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(&model.Picture{}, &model.Thumbnail{}); err != nil {
		return common.NewDatabaseError("migrate", err)
	}
	return nil
}

func (c *Conn) typeName() string {
	if c.IsSQLite() {
		return "sqlite"
	}
	return c.cfg.Type
}

func (c *Conn) dialector() (gorm.Dialector, error) {
	cfg := c.cfg
	switch cfg.Type {
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			cfg.User,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.Name,
		)
		if cfg.SSL {
			dsn += "&tls=true"
		}
		return mysql.Open(dsn), nil
	case "postgres":
		sslMode := "disable"
		if cfg.SSL {
			sslMode = "require"
		}
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
			cfg.Host,
			cfg.User,
			cfg.Password,
			cfg.Name,
			cfg.Port,
			sslMode,
		)
		return postgres.Open(dsn), nil
	case "", "sqlite":
		filename := cfg.Filename
		if filename == "" {
			filename = "database/pictures.db"
		}
		if !strings.HasPrefix(filename, "file:") {
			// 自动创建数据库目录
			dbDir := filepath.Dir(filename)
			if err := os.MkdirAll(dbDir, 0755); err != nil {
				return nil, fmt.Errorf("无法创建数据库目录 '%s': %w", dbDir, err)
			}
		}
		return sqlite.Open(SQLiteDSN(filename)), nil
	default:
		return nil, fmt.Errorf("不支持的数据库类型: %s", cfg.Type)
	}
}

// SQLiteDSN 为文件名追加外键、WAL 与繁忙等待参数
func SQLiteDSN(filename string) string {
	sep := "?"
	if strings.Contains(filename, "?") {
		sep = "&"
	}
	return filename + sep + "_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

// Handle 在普通连接或事务上执行语句
type Handle struct {
	gdb *gorm.DB
}

// Gorm 返回底层 gorm 句柄，用于带类型的插入
func (h *Handle) Gorm() *gorm.DB {
	return h.gdb
}

// Exec 执行写语句。先以 DryRun 方式让 gorm 按方言生成 SQL 与参数，再直接在连接池上执行以拿到 LastInsertId。
// DryRun 阶段不记录日志，真实执行后再交给 gorm 的 Logger，与 QueryOne/QueryAll 的 SQL 日志保持一致。
func (h *Handle) Exec(ctx context.Context, query string, args ...interface{}) (Result, error) {
	stmt := h.gdb.WithContext(ctx).Session(&gorm.Session{DryRun: true, Logger: logger.Discard}).Exec(query, args...).Statement
	if stmt.Error != nil {
		return Result{}, common.NewDatabaseError("exec", stmt.Error)
	}

	begin := time.Now()
	sql, vars := stmt.SQL.String(), stmt.Vars
	res, err := stmt.ConnPool.ExecContext(ctx, sql, vars...)

	var out Result
	if err == nil {
		if id, idErr := res.LastInsertId(); idErr == nil {
			out.LastInsertID = id
		}
		if n, nErr := res.RowsAffected(); nErr == nil {
			out.RowsAffected = n
		}
	}
	h.gdb.Logger.Trace(ctx, begin, func() (string, int64) {
		return h.gdb.Dialector.Explain(sql, vars...), out.RowsAffected
	}, err)

	if err != nil {
		return Result{}, common.NewDatabaseError("exec", err)
	}
	return out, nil
}

// QueryOne 读取至多一行到 dest，无结果时 found 为 false 且不返回错误
func (h *Handle) QueryOne(ctx context.Context, dest interface{}, query string, args ...interface{}) (bool, error) {
	res := h.gdb.WithContext(ctx).Raw(query, args...).Scan(dest)
	if res.Error != nil {
		return false, common.NewDatabaseError("query", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// QueryAll 读取全部结果行到 dest（切片指针），无结果时为空切片
func (h *Handle) QueryAll(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	if err := h.gdb.WithContext(ctx).Raw(query, args...).Scan(dest).Error; err != nil {
		return common.NewDatabaseError("query", err)
	}
	return nil
}

func (c *Conn) handle() (*Handle, error) {
	gdb, err := c.Open()
	if err != nil {
		return nil, err
	}
	return &Handle{gdb: gdb}, nil
}

func (c *Conn) Exec(ctx context.Context, query string, args ...interface{}) (Result, error) {
	h, err := c.handle()
	if err != nil {
		return Result{}, err
	}
	return h.Exec(ctx, query, args...)
}

func (c *Conn) QueryOne(ctx context.Context, dest interface{}, query string, args ...interface{}) (bool, error) {
	h, err := c.handle()
	if err != nil {
		return false, err
	}
	return h.QueryOne(ctx, dest, query, args...)
}

func (c *Conn) QueryAll(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	h, err := c.handle()
	if err != nil {
		return err
	}
	return h.QueryAll(ctx, dest, query, args...)
}

// Gorm 返回已打开的 gorm 句柄
func (c *Conn) Gorm(ctx context.Context) (*gorm.DB, error) {
	gdb, err := c.Open()
	if err != nil {
		return nil, err
	}
	return gdb.WithContext(ctx), nil
}

// WithTransaction 在单个事务中执行 fn：返回 nil 时提交，否则回滚并原样返回 fn 的错误。
// 文件系统等外部副作用不会随事务回滚，调用方应在提交后再处理。不支持嵌套。
func (c *Conn) WithTransaction(ctx context.Context, fn func(h *Handle) error) error {
	gdb, err := c.Open()
	if err != nil {
		return err
	}

	var fnErr error
	err = gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fnErr = fn(&Handle{gdb: tx})
		return fnErr
	})
	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		return common.NewDatabaseError("transaction", err)
	}
	return nil
}
