package directory

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func newTestService() *Service {
	return NewService(NewDoctorRepoMem(), NewHospitalRepoMem(), NewPharmacyRepoMem(), NewLabTestRepoMem())
}

func TestCreateDoctor_Validation(t *testing.T) {
	svc := newTestService()
	hospID := uuid.New()

	tests := []struct {
		name    string
		doctor  Doctor
		wantErr bool
	}{
		{
			name: "valid",
			doctor: Doctor{
				Name: "Dr. Rao", Specialization: "cardiology", ConsultationFee: 500,
				Affiliations: []Affiliation{{
					HospitalID: hospID,
					Schedule:   []ScheduleEntry{{Day: "monday", Slots: []string{"09:00", "11:00"}}},
				}},
			},
		},
		{name: "missing name", doctor: Doctor{Specialization: "cardiology"}, wantErr: true},
		{name: "missing specialization", doctor: Doctor{Name: "Dr. Rao"}, wantErr: true},
		{
			name:    "negative fee",
			doctor:  Doctor{Name: "Dr. Rao", Specialization: "cardiology", ConsultationFee: -1},
			wantErr: true,
		},
		{
			name: "bad day name",
			doctor: Doctor{
				Name: "Dr. Rao", Specialization: "cardiology",
				Affiliations: []Affiliation{{
					HospitalID: hospID,
					Schedule:   []ScheduleEntry{{Day: "funday", Slots: []string{"09:00"}}},
				}},
			},
			wantErr: true,
		},
		{
			name: "bad slot time",
			doctor: Doctor{
				Name: "Dr. Rao", Specialization: "cardiology",
				Affiliations: []Affiliation{{
					HospitalID: hospID,
					Schedule:   []ScheduleEntry{{Day: "monday", Slots: []string{"25:00"}}},
				}},
			},
			wantErr: true,
		},
		{
			name: "duplicate slot in one sitting",
			doctor: Doctor{
				Name: "Dr. Rao", Specialization: "cardiology",
				Affiliations: []Affiliation{{
					HospitalID: hospID,
					Schedule:   []ScheduleEntry{{Day: "monday", Slots: []string{"09:00", "09:00"}}},
				}},
			},
			wantErr: true,
		},
		{
			name: "missing hospital id",
			doctor: Doctor{
				Name: "Dr. Rao", Specialization: "cardiology",
				Affiliations: []Affiliation{{Schedule: []ScheduleEntry{{Day: "monday"}}}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := tt.doctor
			err := svc.CreateDoctor(context.Background(), &d)
			if tt.wantErr && err == nil {
				t.Error("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestSlotsByDay_ConcatenatesAcrossAffiliations(t *testing.T) {
	d := Doctor{
		Affiliations: []Affiliation{
			{
				HospitalID: uuid.New(),
				Schedule:   []ScheduleEntry{{Day: "monday", Slots: []string{"09:00", "11:00"}}},
			},
			{
				HospitalID: uuid.New(),
				Schedule:   []ScheduleEntry{{Day: "monday", Slots: []string{"14:00", "09:00"}}},
			},
		},
	}

	slots := d.SlotsByDay()["monday"]
	want := []string{"09:00", "11:00", "14:00", "09:00"}
	if len(slots) != len(want) {
		t.Fatalf("expected %d slots, got %d: %v", len(want), len(slots), slots)
	}
	for i := range want {
		if slots[i] != want[i] {
			t.Errorf("slot %d: expected %q, got %q", i, want[i], slots[i])
		}
	}
}

func TestUpdateSchedule(t *testing.T) {
	svc := newTestService()
	hospID := uuid.New()

	d := Doctor{Name: "Dr. Rao", Specialization: "cardiology"}
	if err := svc.CreateDoctor(context.Background(), &d); err != nil {
		t.Fatalf("create doctor: %v", err)
	}

	updated, err := svc.UpdateSchedule(context.Background(), d.ID, []Affiliation{{
		HospitalID: hospID,
		Schedule:   []ScheduleEntry{{Day: "tuesday", Slots: []string{"10:00"}}},
	}})
	if err != nil {
		t.Fatalf("update schedule: %v", err)
	}
	if len(updated.Affiliations) != 1 || updated.Affiliations[0].Schedule[0].Day != "tuesday" {
		t.Errorf("schedule not updated: %+v", updated.Affiliations)
	}
}

func TestUpdateSchedule_UnknownDoctor(t *testing.T) {
	svc := newTestService()
	_, err := svc.UpdateSchedule(context.Background(), uuid.New(), nil)
	if err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListDoctors_Filters(t *testing.T) {
	svc := newTestService()
	hospA := uuid.New()

	doctors := []Doctor{
		{Name: "Dr. Anand", Specialization: "cardiology",
			Affiliations: []Affiliation{{HospitalID: hospA, Schedule: []ScheduleEntry{{Day: "monday", Slots: []string{"09:00"}}}}}},
		{Name: "Dr. Bhat", Specialization: "dermatology"},
		{Name: "Dr. Chandra", Specialization: "cardiology"},
	}
	for i := range doctors {
		if err := svc.CreateDoctor(context.Background(), &doctors[i]); err != nil {
			t.Fatalf("create doctor %d: %v", i, err)
		}
	}

	items, total, err := svc.ListDoctors(context.Background(), DoctorFilter{Specialization: "cardiology"}, 20, 0)
	if err != nil {
		t.Fatalf("list by specialization: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Errorf("expected 2 cardiologists, got total=%d len=%d", total, len(items))
	}

	items, total, err = svc.ListDoctors(context.Background(), DoctorFilter{HospitalID: hospA}, 20, 0)
	if err != nil {
		t.Fatalf("list by hospital: %v", err)
	}
	if total != 1 || items[0].Name != "Dr. Anand" {
		t.Errorf("expected only Dr. Anand at hospital A, got total=%d", total)
	}

	items, _, err = svc.ListDoctors(context.Background(), DoctorFilter{Name: "bhat"}, 20, 0)
	if err != nil {
		t.Fatalf("list by name: %v", err)
	}
	if len(items) != 1 || items[0].Name != "Dr. Bhat" {
		t.Errorf("expected name search to match Dr. Bhat, got %v", items)
	}
}

func TestValidSlot(t *testing.T) {
	valid := []string{"00:00", "09:30", "23:59", "14:00"}
	invalid := []string{"24:00", "9:00", "09:60", "0900", "", "nine"}

	for _, s := range valid {
		if !ValidSlot(s) {
			t.Errorf("expected %q to be valid", s)
		}
	}
	for _, s := range invalid {
		if ValidSlot(s) {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}

func TestLabTests_CreateAndList(t *testing.T) {
	svc := newTestService()

	tests := []LabTest{
		{Name: "CBC", Category: "blood", Price: 300},
		{Name: "Lipid Profile", Category: "blood", Price: 700, HomeCollection: true},
		{Name: "Chest X-Ray", Category: "imaging", Price: 500},
	}
	for i := range tests {
		if err := svc.CreateLabTest(context.Background(), &tests[i]); err != nil {
			t.Fatalf("create test %d: %v", i, err)
		}
	}

	items, total, err := svc.ListLabTests(context.Background(), "blood", 20, 0)
	if err != nil {
		t.Fatalf("list lab tests: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Errorf("expected 2 blood tests, got total=%d len=%d", total, len(items))
	}
}
