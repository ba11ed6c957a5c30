package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sqlc-dev/pqtype"
)

const leadColumns = `id, submission_id, first_name, last_name, email, phone, customer_type, boat_type, boat_length_m, boat_weight_kg, current_drive, water_type, trip_duration, recommended_motor, recommended_motor_power_kw, recommended_battery_kwh, recommended_speed_kmh, recommended_hours, battery_options_kwh, recommendation, source, status, crm_person_id, crm_response, sheet_key, submitted_at, forwarded_at, created_at, updated_at`

func scanLead(row interface{ Scan(...interface{}) error }) (Lead, error) {
	var i Lead
	err := row.Scan(
		&i.ID,
		&i.SubmissionID,
		&i.FirstName,
		&i.LastName,
		&i.Email,
		&i.Phone,
		&i.CustomerType,
		&i.BoatType,
		&i.BoatLengthM,
		&i.BoatWeightKg,
		&i.CurrentDrive,
		&i.WaterType,
		&i.TripDuration,
		&i.RecommendedMotor,
		&i.RecommendedMotorPowerKw,
		&i.RecommendedBatteryKwh,
		&i.RecommendedSpeedKmh,
		&i.RecommendedHours,
		pq.Array(&i.BatteryOptionsKwh),
		&i.Recommendation,
		&i.Source,
		&i.Status,
		&i.CrmPersonID,
		&i.CrmResponse,
		&i.SheetKey,
		&i.SubmittedAt,
		&i.ForwardedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createLead = `-- name: CreateLead :one
INSERT INTO leads (
    submission_id, first_name, last_name, email, phone,
    customer_type, boat_type, boat_length_m, boat_weight_kg,
    current_drive, water_type, trip_duration,
    recommended_motor, recommended_motor_power_kw, recommended_battery_kwh,
    recommended_speed_kmh, recommended_hours, battery_options_kwh,
    recommendation, source, submitted_at
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
    $13, $14, $15, $16, $17, $18, $19, $20, $21
)
RETURNING ` + leadColumns

type CreateLeadParams struct {
	SubmissionID            uuid.UUID
	FirstName               string
	LastName                string
	Email                   string
	Phone                   string
	CustomerType            string
	BoatType                string
	BoatLengthM             float64
	BoatWeightKg            float64
	CurrentDrive            string
	WaterType               string
	TripDuration            string
	RecommendedMotor        string
	RecommendedMotorPowerKw float64
	RecommendedBatteryKwh   float64
	RecommendedSpeedKmh     float64
	RecommendedHours        float64
	BatteryOptionsKwh       []float64
	Recommendation          json.RawMessage
	Source                  string
	SubmittedAt             time.Time
}

func (q *Queries) CreateLead(ctx context.Context, arg CreateLeadParams) (Lead, error) {
	row := q.db.QueryRowContext(ctx, createLead,
		arg.SubmissionID,
		arg.FirstName,
		arg.LastName,
		arg.Email,
		arg.Phone,
		arg.CustomerType,
		arg.BoatType,
		arg.BoatLengthM,
		arg.BoatWeightKg,
		arg.CurrentDrive,
		arg.WaterType,
		arg.TripDuration,
		arg.RecommendedMotor,
		arg.RecommendedMotorPowerKw,
		arg.RecommendedBatteryKwh,
		arg.RecommendedSpeedKmh,
		arg.RecommendedHours,
		pq.Array(arg.BatteryOptionsKwh),
		arg.Recommendation,
		arg.Source,
		arg.SubmittedAt,
	)
	return scanLead(row)
}

const getLead = `-- name: GetLead :one
SELECT ` + leadColumns + ` FROM leads WHERE id = $1`

func (q *Queries) GetLead(ctx context.Context, id uuid.UUID) (Lead, error) {
	row := q.db.QueryRowContext(ctx, getLead, id)
	return scanLead(row)
}

const getLeadBySubmissionID = `-- name: GetLeadBySubmissionID :one
SELECT ` + leadColumns + ` FROM leads WHERE submission_id = $1`

func (q *Queries) GetLeadBySubmissionID(ctx context.Context, submissionID uuid.UUID) (Lead, error) {
	row := q.db.QueryRowContext(ctx, getLeadBySubmissionID, submissionID)
	return scanLead(row)
}

const setLeadSheetKey = `-- name: SetLeadSheetKey :exec
UPDATE leads SET sheet_key = $2, updated_at = NOW() WHERE id = $1`

type SetLeadSheetKeyParams struct {
	ID       uuid.UUID
	SheetKey sql.NullString
}

func (q *Queries) SetLeadSheetKey(ctx context.Context, arg SetLeadSheetKeyParams) error {
	_, err := q.db.ExecContext(ctx, setLeadSheetKey, arg.ID, arg.SheetKey)
	return err
}

const setLeadCRMPerson = `-- name: SetLeadCRMPerson :exec
UPDATE leads SET crm_person_id = $2, crm_response = $3, updated_at = NOW() WHERE id = $1`

type SetLeadCRMPersonParams struct {
	ID          uuid.UUID
	CrmPersonID sql.NullInt64
	CrmResponse pqtype.NullRawMessage
}

func (q *Queries) SetLeadCRMPerson(ctx context.Context, arg SetLeadCRMPersonParams) error {
	_, err := q.db.ExecContext(ctx, setLeadCRMPerson, arg.ID, arg.CrmPersonID, arg.CrmResponse)
	return err
}

const markLeadForwarded = `-- name: MarkLeadForwarded :exec
UPDATE leads
SET status = 'forwarded', forwarded_at = NOW(), updated_at = NOW()
WHERE id = $1`

func (q *Queries) MarkLeadForwarded(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, markLeadForwarded, id)
	return err
}

const markLeadFailed = `-- name: MarkLeadFailed :exec
UPDATE leads SET status = 'failed', updated_at = NOW() WHERE id = $1 AND status <> 'forwarded'`

func (q *Queries) MarkLeadFailed(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, markLeadFailed, id)
	return err
}
