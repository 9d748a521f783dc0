package queries

import "context"

const createCourt = `
INSERT INTO courts (owner_user_id, name, status)
VALUES (?, ?, ?)
RETURNING id, owner_user_id, name, status, created_at
`

type CreateCourtParams struct {
	OwnerUserID int64
	Name        string
	Status      string
}

func (q *Queries) CreateCourt(ctx context.Context, arg CreateCourtParams) (Court, error) {
	row := q.db.QueryRowContext(ctx, createCourt, arg.OwnerUserID, arg.Name, arg.Status)
	var i Court
	err := row.Scan(&i.ID, &i.OwnerUserID, &i.Name, &i.Status, &i.CreatedAt)
	return i, err
}

const getCourt = `
SELECT id, owner_user_id, name, status, created_at
FROM courts
WHERE id = ?
`

func (q *Queries) GetCourt(ctx context.Context, id int64) (Court, error) {
	row := q.db.QueryRowContext(ctx, getCourt, id)
	var i Court
	err := row.Scan(&i.ID, &i.OwnerUserID, &i.Name, &i.Status, &i.CreatedAt)
	return i, err
}
