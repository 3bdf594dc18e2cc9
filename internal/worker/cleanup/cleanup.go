// Package cleanup は永続ストレージの古いセッションを削除するジョブを提供する。
// 複数のクライアントが同じPostgreSQLを共有する場合、使われなくなったnamespaceの
// トークンとセッションが残り続けるため、保持期間を超えた行を日次で削除する。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// CleanupJob は保持期間を超過したclient_storageのnamespaceを削除するジョブ。
// 実行中のクライアント自身のnamespaceは対象外。
type CleanupJob struct {
	db            Executor
	logger        *slog.Logger
	namespace     string
	RetentionDays int // 最終更新からの保持日数（デフォルト: 90）
}

// NewCleanupJob は新しいCleanupJobを生成する。
// namespaceには実行中のクライアントのnamespaceを渡す。
func NewCleanupJob(db Executor, namespace string, logger *slog.Logger) *CleanupJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &CleanupJob{
		db:            db,
		logger:        logger,
		namespace:     namespace,
		RetentionDays: 90,
	}
}

// Run は保持期間を超過したnamespaceの行をすべて削除する。
// namespace内で最も新しいupdated_atが基準になるため、一部のキーだけが古い場合は残る。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	interval := fmt.Sprintf("%d days", j.RetentionDays)

	query := `DELETE FROM client_storage
		WHERE namespace <> $1
		  AND namespace IN (
			SELECT namespace FROM client_storage
			GROUP BY namespace
			HAVING max(updated_at) < now() - $2::interval
		  )`
	result, err := j.db.ExecContext(ctx, query, j.namespace, interval)
	if err != nil {
		j.logger.Error("ストレージクリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.Int("retention_days", j.RetentionDays),
		)
		return fmt.Errorf("ストレージクリーンアップの実行に失敗: %w", err)
	}

	deletedCount, err := result.RowsAffected()
	if err != nil {
		j.logger.Error("削除件数の取得に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("削除件数の取得に失敗: %w", err)
	}

	duration := time.Since(start)
	j.logger.Info("ストレージクリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deletedCount),
		slog.Int("retention_days", j.RetentionDays),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// Start はRunを起動直後に1回実行し、以降はintervalごとに実行する。
// コンテキストがキャンセルされるまでブロックする。
func (j *CleanupJob) Start(ctx context.Context, interval time.Duration) {
	if err := j.Run(ctx); err != nil && ctx.Err() == nil {
		j.logger.Warn("起動時のクリーンアップに失敗しました", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = j.Run(ctx)
		}
	}
}
