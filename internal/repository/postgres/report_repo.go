package postgres

import (
	"context"

	"github.com/ksk584/anonymous-social-media/internal/model"
	"github.com/ksk584/anonymous-social-media/internal/util"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type reportRepository struct {
	db *pgxpool.Pool
}

func NewReportRepository(db *pgxpool.Pool) *reportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(ctx context.Context, report *model.Report) error {
	report.ID = uuid.NewString()

	query := `INSERT INTO reports (id, post_id, user_id, reason)
              VALUES ($1, $2, $3, $4)
              RETURNING created_at`
	err := r.db.QueryRow(ctx, query, report.ID, report.PostID, report.UserID, report.Reason).
		Scan(&report.CreatedAt)
	if err != nil {
		util.Logger.Error("创建举报失败", zap.Error(err))
		return err
	}
	return nil
}

func (r *reportRepository) FindAll(ctx context.Context) ([]*model.Report, error) {
	query := `SELECT id, post_id, user_id, reason, created_at
              FROM reports ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		util.Logger.Error("获取举报列表失败", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var reports []*model.Report
	for rows.Next() {
		var report model.Report
		if err := rows.Scan(
			&report.ID, &report.PostID, &report.UserID, &report.Reason, &report.CreatedAt,
		); err != nil {
			return nil, err
		}
		reports = append(reports, &report)
	}
	return reports, rows.Err()
}

func (r *reportRepository) CountByPostID(ctx context.Context, postID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM reports WHERE post_id = $1`, postID).
		Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *reportRepository) DeleteByPostID(ctx context.Context, postID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM reports WHERE post_id = $1`, postID)
	if err != nil {
		util.Logger.Error("删除帖子举报失败", zap.Error(err), zap.String("post_id", postID))
		return err
	}
	return nil
}
