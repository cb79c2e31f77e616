package repository

import (
	"context"
)

// TeamDirectory resolves team membership for team-scoped notifications.
type TeamDirectory interface {
	MemberIDs(ctx context.Context, teamID int64) ([]int64, error)
}

type teamDirectory struct {
	db DB
}

// NewTeamDirectory constructs repository.
func NewTeamDirectory(db DB) TeamDirectory {
	return &teamDirectory{db: db}
}

func (r *teamDirectory) MemberIDs(ctx context.Context, teamID int64) ([]int64, error) {
	const query = `
        SELECT user_id FROM team_members
        WHERE team_id=$1 AND is_active=TRUE ORDER BY user_id`
	rows, err := r.db.Query(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []int64
	for rows.Next() {
		var userID int64
		if err := rows.Scan(&userID); err != nil {
			return nil, err
		}
		result = append(result, userID)
	}
	return result, rows.Err()
}
