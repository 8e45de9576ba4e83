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

type postRepository struct {
	db *pgxpool.Pool
}

func NewPostRepository(db *pgxpool.Pool) *postRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	post.ID = uuid.NewString()

	// created_at 由存储侧生成
	query := `INSERT INTO posts (id, user_id, content, image_url)
              VALUES ($1, $2, $3, $4)
              RETURNING created_at`
	err := r.db.QueryRow(ctx, query, post.ID, post.UserID, post.Content, post.ImageURL).
		Scan(&post.CreatedAt)
	if err != nil {
		util.Logger.Error("创建帖子失败", zap.Error(err))
		return err
	}

	util.Logger.Info("帖子创建成功", zap.String("post_id", post.ID))
	return nil
}

func (r *postRepository) FindByID(ctx context.Context, id string) (*model.Post, error) {
	query := `SELECT id, user_id, content, image_url, created_at
              FROM posts WHERE id = $1`

	var post model.Post
	err := r.db.QueryRow(ctx, query, id).Scan(
		&post.ID, &post.UserID, &post.Content, &post.ImageURL, &post.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) FindAll(ctx context.Context) ([]*model.Post, error) {
	query := `SELECT id, user_id, content, image_url, created_at
              FROM posts ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		util.Logger.Error("获取帖子列表失败", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	return scanPosts(rows)
}

func (r *postRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.Post, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT id, user_id, content, image_url, created_at
              FROM posts WHERE id = ANY($1)`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		util.Logger.Error("按ID集合获取帖子失败", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	return scanPosts(rows)
}

func (r *postRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		util.Logger.Error("删除帖子失败", zap.Error(err), zap.String("post_id", id))
		return err
	}
	return nil
}

func scanPosts(rows pgx.Rows) ([]*model.Post, error) {
	var posts []*model.Post
	for rows.Next() {
		var post model.Post
		if err := rows.Scan(
			&post.ID, &post.UserID, &post.Content, &post.ImageURL, &post.CreatedAt,
		); err != nil {
			return nil, err
		}
		posts = append(posts, &post)
	}
	return posts, rows.Err()
}
