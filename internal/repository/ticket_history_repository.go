package repository

import (
	"context"

	"github.com/spec-kit/ops-desk/internal/domain"
)

type ticketHistoryRepository struct {
	db DBTX
}

func (r *ticketHistoryRepository) Create(ctx context.Context, entry *domain.TicketHistory) error {
	const query = `
        INSERT INTO ticket_history (ticket_id, actor_id, old_status, new_status, assigned_to, created_at)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id`
	err := r.db.QueryRow(ctx, query,
		entry.TicketID,
		entry.ActorID,
		entry.OldStatus,
		entry.NewStatus,
		entry.AssignedTo,
		entry.CreatedAt,
	).Scan(&entry.ID)
	return translate(err)
}

func (r *ticketHistoryRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.TicketHistory, error) {
	const query = `
        SELECT id, ticket_id, actor_id, old_status, new_status, assigned_to, created_at
        FROM ticket_history WHERE ticket_id=$1 ORDER BY id ASC`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	result := []domain.TicketHistory{}
	for rows.Next() {
		var entry domain.TicketHistory
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.ActorID,
			&entry.OldStatus,
			&entry.NewStatus,
			&entry.AssignedTo,
			&entry.CreatedAt,
		); err != nil {
			return nil, translate(err)
		}
		result = append(result, entry)
	}
	return result, translate(rows.Err())
}
