package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"VoiceShelf/pkg/logger"
	"VoiceShelf/pkg/scheduler"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrUnsupportedDriver = errors.New("backup: only sqlite databases can be backed up in-process")

// Backup writes consistent snapshots of the sqlite record store.
type Backup struct {
	db     *gorm.DB
	driver string
	dir    string
	now    func() time.Time
}

func New(db *gorm.DB, driver, dir string) *Backup {
	return &Backup{db: db, driver: driver, dir: dir, now: time.Now}
}

// Run 执行一次备份，返回快照路径。
func (b *Backup) Run(ctx context.Context) (string, error) {
	switch b.driver {
	case "", "sqlite":
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedDriver, b.driver)
	}

	if err := os.MkdirAll(b.dir, os.ModePerm); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}
	dst := filepath.Join(b.dir, fmt.Sprintf("voiceshelf_%s.db", b.now().Format("20060102_150405")))

	// VACUUM INTO gives a consistent copy even while writers are active
	if err := b.db.WithContext(ctx).Exec("VACUUM INTO ?", dst).Error; err != nil {
		return "", fmt.Errorf("sqlite backup to %s: %w", dst, err)
	}
	return dst, nil
}

// Schedule registers the backup on cr using a cron expression.
func (b *Backup) Schedule(cr *scheduler.Cron, expr string) error {
	_, err := cr.Add(expr, scheduler.FuncJob(func(ctx context.Context) {
		dst, err := b.Run(ctx)
		if err != nil {
			logger.Warn("backup failed", zap.Error(err))
			return
		}
		logger.Info("backup completed", zap.String("path", dst))
	}))
	return err
}
