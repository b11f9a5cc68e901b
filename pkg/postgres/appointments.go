package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/adelpech/villa-roster/pkg/core/model"
)

// GetImpactingAppointments retrieves non-cancelled, shift-impacting
// appointments where the user participates, overlapping [from, to) half-open.
// Participant lists are aggregated so conflict messages can name everyone.
func (d *DB) GetImpactingAppointments(ctx context.Context, userID string, from, to time.Time) ([]model.Appointment, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT a.id, a.title, a.start_at, a.end_at, a.impacts_shift, a.cancelled,
		       ARRAY_AGG(all_p.user_id ORDER BY all_p.user_id)
		FROM appointments a
		JOIN appointment_participants p ON p.appointment_id = a.id AND p.user_id = $1
		JOIN appointment_participants all_p ON all_p.appointment_id = a.id
		WHERE a.impacts_shift = TRUE AND a.cancelled = FALSE
		  AND a.start_at < $3 AND a.end_at > $2
		GROUP BY a.id, a.title, a.start_at, a.end_at, a.impacts_shift, a.cancelled
		ORDER BY a.start_at
	`, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer rows.Close()

	var appointments []model.Appointment
	for rows.Next() {
		var a model.Appointment
		if err := rows.Scan(&a.ID, &a.Title, &a.Start, &a.End, &a.ImpactsShift, &a.Cancelled, &a.ParticipantIDs); err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		appointments = append(appointments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating appointments: %w", err)
	}
	return appointments, nil
}
