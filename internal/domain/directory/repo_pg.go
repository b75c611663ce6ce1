package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// =========== Doctor ===========

type doctorRepoPG struct{ pool *pgxpool.Pool }

func NewDoctorRepoPG(pool *pgxpool.Pool) DoctorRepository { return &doctorRepoPG{pool: pool} }

const doctorCols = `id, user_id, name, specialization, qualifications, experience_years,
	registration_number, consultation_fee, rating, review_count, about,
	online_consultation, affiliations, created_at, updated_at`

func (r *doctorRepoPG) scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	var affJSON []byte
	err := row.Scan(&d.ID, &d.UserID, &d.Name, &d.Specialization, &d.Qualifications,
		&d.ExperienceYears, &d.RegistrationNumber, &d.ConsultationFee, &d.Rating,
		&d.ReviewCount, &d.About, &d.OnlineConsultation, &affJSON, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(affJSON) > 0 {
		if err := json.Unmarshal(affJSON, &d.Affiliations); err != nil {
			return nil, fmt.Errorf("decode affiliations: %w", err)
		}
	}
	return &d, nil
}

func (r *doctorRepoPG) Create(ctx context.Context, d *Doctor) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	affJSON, err := json.Marshal(d.Affiliations)
	if err != nil {
		return fmt.Errorf("encode affiliations: %w", err)
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO doctors (id, user_id, name, specialization, qualifications,
			experience_years, registration_number, consultation_fee, rating,
			review_count, about, online_consultation, affiliations)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING created_at, updated_at`,
		d.ID, d.UserID, d.Name, d.Specialization, d.Qualifications,
		d.ExperienceYears, d.RegistrationNumber, d.ConsultationFee, d.Rating,
		d.ReviewCount, d.About, d.OnlineConsultation, affJSON,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
}

func (r *doctorRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return r.scanDoctor(r.pool.QueryRow(ctx, `SELECT `+doctorCols+` FROM doctors WHERE id = $1`, id))
}

func (r *doctorRepoPG) Update(ctx context.Context, d *Doctor) error {
	affJSON, err := json.Marshal(d.Affiliations)
	if err != nil {
		return fmt.Errorf("encode affiliations: %w", err)
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE doctors SET name=$2, specialization=$3, qualifications=$4,
			experience_years=$5, registration_number=$6, consultation_fee=$7,
			rating=$8, review_count=$9, about=$10, online_consultation=$11,
			affiliations=$12, updated_at=NOW()
		WHERE id = $1`,
		d.ID, d.Name, d.Specialization, d.Qualifications,
		d.ExperienceYears, d.RegistrationNumber, d.ConsultationFee,
		d.Rating, d.ReviewCount, d.About, d.OnlineConsultation, affJSON)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *doctorRepoPG) List(ctx context.Context, filter DoctorFilter, limit, offset int) ([]*Doctor, int, error) {
	query := `SELECT ` + doctorCols + ` FROM doctors WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM doctors WHERE 1=1`
	var args []interface{}
	idx := 1

	if filter.Specialization != "" {
		clause := fmt.Sprintf(` AND specialization ILIKE $%d`, idx)
		query += clause
		countQuery += clause
		args = append(args, filter.Specialization)
		idx++
	}
	if filter.Name != "" {
		clause := fmt.Sprintf(` AND name ILIKE $%d`, idx)
		query += clause
		countQuery += clause
		args = append(args, "%"+filter.Name+"%")
		idx++
	}
	if filter.HospitalID != uuid.Nil {
		clause := fmt.Sprintf(` AND affiliations @> $%d`, idx)
		query += clause
		countQuery += clause
		hospJSON, _ := json.Marshal([]map[string]string{{"hospital_id": filter.HospitalID.String()}})
		args = append(args, hospJSON)
		idx++
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY name LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Doctor
	for rows.Next() {
		d, err := r.scanDoctor(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, rows.Err()
}

func (r *doctorRepoPG) CountByHospital(ctx context.Context, hospitalID uuid.UUID) (int, error) {
	hospJSON, _ := json.Marshal([]map[string]string{{"hospital_id": hospitalID.String()}})
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM doctors WHERE affiliations @> $1`, hospJSON).Scan(&count)
	return count, err
}

// =========== Hospital ===========

type hospitalRepoPG struct{ pool *pgxpool.Pool }

func NewHospitalRepoPG(pool *pgxpool.Pool) HospitalRepository { return &hospitalRepoPG{pool: pool} }

const hospitalCols = `id, name, specialty, rating, address, city, phone, facilities, created_at, updated_at`

func (r *hospitalRepoPG) scanHospital(row pgx.Row) (*Hospital, error) {
	var h Hospital
	err := row.Scan(&h.ID, &h.Name, &h.Specialty, &h.Rating, &h.Address, &h.City, &h.Phone, &h.Facilities, &h.CreatedAt, &h.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *hospitalRepoPG) Create(ctx context.Context, h *Hospital) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO hospitals (id, name, specialty, rating, address, city, phone, facilities)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at`,
		h.ID, h.Name, h.Specialty, h.Rating, h.Address, h.City, h.Phone, h.Facilities,
	).Scan(&h.CreatedAt, &h.UpdatedAt)
}

func (r *hospitalRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	return r.scanHospital(r.pool.QueryRow(ctx, `SELECT `+hospitalCols+` FROM hospitals WHERE id = $1`, id))
}

func (r *hospitalRepoPG) List(ctx context.Context, city string, limit, offset int) ([]*Hospital, int, error) {
	query := `SELECT ` + hospitalCols + ` FROM hospitals WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM hospitals WHERE 1=1`
	var args []interface{}
	idx := 1

	if city != "" {
		clause := fmt.Sprintf(` AND city ILIKE $%d`, idx)
		query += clause
		countQuery += clause
		args = append(args, city)
		idx++
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY name LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Hospital
	for rows.Next() {
		h, err := r.scanHospital(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, h)
	}
	return items, total, rows.Err()
}

// =========== Pharmacy ===========

type pharmacyRepoPG struct{ pool *pgxpool.Pool }

func NewPharmacyRepoPG(pool *pgxpool.Pool) PharmacyRepository { return &pharmacyRepoPG{pool: pool} }

const pharmacyCols = `id, name, rating, address, city, phone, delivery_estimate, open_24x7, created_at, updated_at`

func (r *pharmacyRepoPG) scanPharmacy(row pgx.Row) (*Pharmacy, error) {
	var p Pharmacy
	err := row.Scan(&p.ID, &p.Name, &p.Rating, &p.Address, &p.City, &p.Phone,
		&p.DeliveryEstimate, &p.Open24x7, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *pharmacyRepoPG) Create(ctx context.Context, p *Pharmacy) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO pharmacies (id, name, rating, address, city, phone, delivery_estimate, open_24x7)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at`,
		p.ID, p.Name, p.Rating, p.Address, p.City, p.Phone, p.DeliveryEstimate, p.Open24x7,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *pharmacyRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Pharmacy, error) {
	return r.scanPharmacy(r.pool.QueryRow(ctx, `SELECT `+pharmacyCols+` FROM pharmacies WHERE id = $1`, id))
}

func (r *pharmacyRepoPG) List(ctx context.Context, city string, limit, offset int) ([]*Pharmacy, int, error) {
	query := `SELECT ` + pharmacyCols + ` FROM pharmacies WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM pharmacies WHERE 1=1`
	var args []interface{}
	idx := 1

	if city != "" {
		clause := fmt.Sprintf(` AND city ILIKE $%d`, idx)
		query += clause
		countQuery += clause
		args = append(args, city)
		idx++
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY name LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Pharmacy
	for rows.Next() {
		p, err := r.scanPharmacy(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

// =========== LabTest ===========

type labTestRepoPG struct{ pool *pgxpool.Pool }

func NewLabTestRepoPG(pool *pgxpool.Pool) LabTestRepository { return &labTestRepoPG{pool: pool} }

const labTestCols = `id, name, description, category, price, home_collection, fasting_required, report_time, created_at, updated_at`

func (r *labTestRepoPG) scanLabTest(row pgx.Row) (*LabTest, error) {
	var t LabTest
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.Category, &t.Price, &t.HomeCollection,
		&t.FastingRequired, &t.ReportTime, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *labTestRepoPG) Create(ctx context.Context, t *LabTest) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO lab_tests (id, name, description, category, price, home_collection, fasting_required, report_time)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at`,
		t.ID, t.Name, t.Description, t.Category, t.Price, t.HomeCollection, t.FastingRequired, t.ReportTime,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
}

func (r *labTestRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*LabTest, error) {
	return r.scanLabTest(r.pool.QueryRow(ctx, `SELECT `+labTestCols+` FROM lab_tests WHERE id = $1`, id))
}

func (r *labTestRepoPG) List(ctx context.Context, category string, limit, offset int) ([]*LabTest, int, error) {
	query := `SELECT ` + labTestCols + ` FROM lab_tests WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM lab_tests WHERE 1=1`
	var args []interface{}
	idx := 1

	if category != "" {
		clause := fmt.Sprintf(` AND category ILIKE $%d`, idx)
		query += clause
		countQuery += clause
		args = append(args, category)
		idx++
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY name LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*LabTest
	for rows.Next() {
		t, err := r.scanLabTest(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, t)
	}
	return items, total, rows.Err()
}
