package scheduling

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type appointmentRepoPG struct{ pool *pgxpool.Pool }

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

const apptCols = `id, patient_id, doctor_id, hospital_id, date, time_slot, type, status,
	symptoms, notes, diagnosis, follow_up, queue_position, estimated_wait_minutes,
	consultation_fee, payment_status, created_at, updated_at`

func (r *appointmentRepoPG) scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.HospitalID, &a.Date, &a.TimeSlot,
		&a.Type, &a.Status, &a.Symptoms, &a.Notes, &a.Diagnosis, &a.FollowUp,
		&a.QueuePosition, &a.EstimatedWaitMinutes, &a.ConsultationFee,
		&a.PaymentStatus, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, patient_id, doctor_id, hospital_id, date, time_slot,
			type, status, symptoms, notes, diagnosis, follow_up, queue_position,
			estimated_wait_minutes, consultation_fee, payment_status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		RETURNING created_at, updated_at`,
		a.ID, a.PatientID, a.DoctorID, a.HospitalID, a.Date, a.TimeSlot,
		a.Type, a.Status, a.Symptoms, a.Notes, a.Diagnosis, a.FollowUp,
		a.QueuePosition, a.EstimatedWaitMinutes, a.ConsultationFee, a.PaymentStatus,
	).Scan(&a.CreatedAt, &a.UpdatedAt)

	// The partial unique index on (doctor_id, date, time_slot) for active
	// appointments closes the booking race across server instances.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrSlotUnavailable
	}
	return err
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return r.scanAppointment(r.pool.QueryRow(ctx,
		`SELECT `+apptCols+` FROM appointments WHERE id = $1`, id))
}

func (r *appointmentRepoPG) Update(ctx context.Context, a *Appointment) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments SET status=$2, symptoms=$3, notes=$4, diagnosis=$5,
			follow_up=$6, estimated_wait_minutes=$7, payment_status=$8, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.Status, a.Symptoms, a.Notes, a.Diagnosis, a.FollowUp,
		a.EstimatedWaitMinutes, a.PaymentStatus)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *appointmentRepoPG) listBy(ctx context.Context, column string, id uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM appointments WHERE `+column+` = $1`, id).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+apptCols+` FROM appointments WHERE `+column+` = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, id, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Appointment
	for rows.Next() {
		a, err := r.scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

func (r *appointmentRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return r.listBy(ctx, "patient_id", patientID, limit, offset)
}

func (r *appointmentRepoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return r.listBy(ctx, "doctor_id", doctorID, limit, offset)
}

func (r *appointmentRepoPG) ListActiveByDoctorDate(ctx context.Context, doctorID uuid.UUID, date string) ([]*Appointment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+apptCols+` FROM appointments
		 WHERE doctor_id = $1 AND date = $2 AND status IN ('pending','confirmed')
		 ORDER BY queue_position`, doctorID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Appointment
	for rows.Next() {
		a, err := r.scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *appointmentRepoPG) ExistsActive(ctx context.Context, doctorID uuid.UUID, date, timeSlot string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = $1 AND date = $2 AND time_slot = $3
			  AND status IN ('pending','confirmed'))`,
		doctorID, date, timeSlot).Scan(&exists)
	return exists, err
}

type testBookingRepoPG struct{ pool *pgxpool.Pool }

func NewTestBookingRepoPG(pool *pgxpool.Pool) TestBookingRepository {
	return &testBookingRepoPG{pool: pool}
}

const testBookingCols = `id, patient_id, test_id, date, home_collection, address, status, price,
	created_at, updated_at`

func (r *testBookingRepoPG) scanBooking(row pgx.Row) (*TestBooking, error) {
	var b TestBooking
	err := row.Scan(&b.ID, &b.PatientID, &b.TestID, &b.Date, &b.HomeCollection,
		&b.Address, &b.Status, &b.Price, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *testBookingRepoPG) Create(ctx context.Context, b *TestBooking) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO test_bookings (id, patient_id, test_id, date, home_collection, address, status, price)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at`,
		b.ID, b.PatientID, b.TestID, b.Date, b.HomeCollection, b.Address, b.Status, b.Price,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
}

func (r *testBookingRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*TestBooking, error) {
	return r.scanBooking(r.pool.QueryRow(ctx,
		`SELECT `+testBookingCols+` FROM test_bookings WHERE id = $1`, id))
}

func (r *testBookingRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*TestBooking, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM test_bookings WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+testBookingCols+` FROM test_bookings WHERE patient_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*TestBooking
	for rows.Next() {
		b, err := r.scanBooking(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, b)
	}
	return items, total, rows.Err()
}
