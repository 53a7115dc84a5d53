package database

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// Migrate applies the goose migrations found in fsys to the pool behind db.
// A non-empty dir overrides the embedded set with migrations read from disk.
func Migrate(ctx context.Context, db *DB, fsys fs.FS, dir string, log *zap.Logger) error {
	if dir != "" {
		fsys = os.DirFS(dir)
	}

	goose.SetBaseFS(fsys)
	goose.SetLogger(gooseLogger{log.Sugar()})
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	conn := stdlib.OpenDBFromPool(db.pool)
	defer conn.Close()

	if err := goose.UpContext(ctx, conn, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// gooseLogger routes goose output through zap.
type gooseLogger struct {
	s *zap.SugaredLogger
}

func (l gooseLogger) Printf(format string, v ...any) { l.s.Infof(format, v...) }
func (l gooseLogger) Fatalf(format string, v ...any) { l.s.Fatalf(format, v...) }
