package postgres

import (
	"context"

	"github.com/ksk584/anonymous-social-media/internal/model"
	"github.com/ksk584/anonymous-social-media/internal/util"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type commentRepository struct {
	db *pgxpool.Pool
}

func NewCommentRepository(db *pgxpool.Pool) *commentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *model.Comment) error {
	comment.ID = uuid.NewString()

	query := `INSERT INTO comments (id, post_id, user_id, content)
              VALUES ($1, $2, $3, $4)
              RETURNING created_at`
	err := r.db.QueryRow(ctx, query, comment.ID, comment.PostID, comment.UserID, comment.Content).
		Scan(&comment.CreatedAt)
	if err != nil {
		util.Logger.Error("创建评论失败", zap.Error(err))
		return err
	}
	return nil
}

func (r *commentRepository) FindByID(ctx context.Context, id string) (*model.Comment, error) {
	query := `SELECT id, post_id, user_id, content, created_at
              FROM comments WHERE id = $1`

	var comment model.Comment
	err := r.db.QueryRow(ctx, query, id).Scan(
		&comment.ID, &comment.PostID, &comment.UserID, &comment.Content, &comment.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) FindByPostID(ctx context.Context, postID string) ([]*model.Comment, error) {
	query := `SELECT id, post_id, user_id, content, created_at
              FROM comments WHERE post_id = $1 ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query, postID)
	if err != nil {
		util.Logger.Error("获取评论列表失败", zap.Error(err), zap.String("post_id", postID))
		return nil, err
	}
	defer rows.Close()

	var comments []*model.Comment
	for rows.Next() {
		var comment model.Comment
		if err := rows.Scan(
			&comment.ID, &comment.PostID, &comment.UserID, &comment.Content, &comment.CreatedAt,
		); err != nil {
			return nil, err
		}
		comments = append(comments, &comment)
	}
	return comments, rows.Err()
}

func (r *commentRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		util.Logger.Error("删除评论失败", zap.Error(err), zap.String("comment_id", id))
		return err
	}
	return nil
}
