package repository

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dienstwunsch/backend/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

//go:embed schema/*.sql
var schemaFS embed.FS

type Repository struct {
	cfg    *config.Config
	dbpool *sql.DB
	driver string
}

func NewRepository(cfg *config.Config, dbpool *sql.DB) *Repository {
	driver := cfg.Database.Driver
	if driver == "" {
		driver = DriverPostgres
	}

	return &Repository{
		cfg:    cfg,
		dbpool: dbpool,
		driver: driver,
	}
}

// Open 根据配置创建连接池并检查连通性
func Open(cfg *config.Config) (*sql.DB, error) {
	switch cfg.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	dbpool, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	if cfg.Database.Driver == DriverSQLite {
		// sqlite 同一时间只允许一个写者
		dbpool.SetMaxOpenConns(1)
	} else {
		dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	}
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		_ = dbpool.Close()
		return nil, err
	}

	return dbpool, nil
}

// EnsureSchema 创建缺失的表，可以重复执行
func (r *Repository) EnsureSchema(ctx context.Context) error {
	name := "schema/postgres.sql"
	if r.driver == DriverSQLite {
		name = "schema/sqlite.sql"
	}

	content, err := schemaFS.ReadFile(name)
	if err != nil {
		return err
	}

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	for _, stmt := range strings.Split(string(content), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := r.dbpool.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}

	return nil
}

func (r *Repository) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.cfg.QueryTimeout() <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.cfg.QueryTimeout())
}

func (r *Repository) transactionContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.cfg.TransactionTimeout() <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.cfg.TransactionTimeout())
}

// rebind 把 ? 占位符转换成 postgres 使用的 $n
func (r *Repository) rebind(query string) string {
	if r.driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}
