package postgres

import (
	"context"

	"github.com/ksk584/anonymous-social-media/internal/model"
	"github.com/ksk584/anonymous-social-media/internal/util"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type profileRepository struct {
	db *pgxpool.Pool
}

func NewProfileRepository(db *pgxpool.Pool) *profileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) FindByID(ctx context.Context, id string) (*model.Profile, error) {
	query := `SELECT id, username, role, created_at FROM profiles WHERE id = $1`

	var profile model.Profile
	err := r.db.QueryRow(ctx, query, id).Scan(
		&profile.ID, &profile.Username, &profile.Role, &profile.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT id, username, role, created_at FROM profiles WHERE id = ANY($1)`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		util.Logger.Error("按ID集合获取用户资料失败", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var profiles []*model.Profile
	for rows.Next() {
		var profile model.Profile
		if err := rows.Scan(
			&profile.ID, &profile.Username, &profile.Role, &profile.CreatedAt,
		); err != nil {
			return nil, err
		}
		profiles = append(profiles, &profile)
	}
	return profiles, rows.Err()
}
