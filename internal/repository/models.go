package repository

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

type Job struct {
	ID           uuid.UUID
	JobType      string
	Payload      json.RawMessage
	Status       string
	Priority     int32
	Attempts     int32
	MaxAttempts  int32
	ErrorMessage sql.NullString
	ScheduledAt  time.Time
	StartedAt    sql.NullTime
	CompletedAt  sql.NullTime
	CreatedAt    time.Time
}

type Lead struct {
	ID                      uuid.UUID
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
	Status                  string
	CrmPersonID             sql.NullInt64
	CrmResponse             pqtype.NullRawMessage
	SheetKey                sql.NullString
	SubmittedAt             time.Time
	ForwardedAt             sql.NullTime
	CreatedAt               time.Time
	UpdatedAt               time.Time
}
