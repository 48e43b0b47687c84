package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// FriendRepository exposes the one thing the core needs from the friend
// graph: the set of friend ids for a user.
type FriendRepository interface {
	FriendIDs(ctx context.Context, userID string) ([]string, error)
}

type friendRepo struct {
	db *sqlx.DB
}

func NewFriendRepository(db *sqlx.DB) FriendRepository {
	return &friendRepo{db: db}
}

func (r *friendRepo) FriendIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.SelectContext(ctx, &ids, `
		SELECT CASE WHEN user_id = $1 THEN friend_id ELSE user_id END
		FROM friendships
		WHERE (user_id = $1 OR friend_id = $1) AND status = 'accepted'
	`, userID)
	return ids, err
}
