package service

import (
	"context"
	"errors"
	"sync"

	"github.com/noah-isme/sma-enrollment-wizard/internal/models"
	"github.com/noah-isme/sma-enrollment-wizard/internal/validation"
	appErrors "github.com/noah-isme/sma-enrollment-wizard/pkg/errors"
)

type fakeSlotRepo struct {
	mu      sync.Mutex
	slots   map[string][]byte
	gets    int
	sets    int
	setErr  error
	getErr  error
	removed []string
}

func newFakeSlotRepo() *fakeSlotRepo {
	return &fakeSlotRepo{slots: make(map[string][]byte)}
}

func (f *fakeSlotRepo) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	payload, ok := f.slots[key]
	if !ok {
		return nil, appErrors.ErrSlotEmpty
	}
	return payload, nil
}

func (f *fakeSlotRepo) Set(_ context.Context, key string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	if f.setErr != nil {
		return f.setErr
	}
	f.slots[key] = append([]byte(nil), payload...)
	return nil
}

func (f *fakeSlotRepo) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.slots, key)
	f.removed = append(f.removed, key)
	return nil
}

func (f *fakeSlotRepo) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.slots[key]
	return ok
}

var errBoom = errors.New("boom")

func validStudentInput() validation.StudentDetailsInput {
	return validation.StudentDetailsInput{
		FullName:     "Asha Rao",
		Email:        "asha@example.com",
		Mobile:       "9876543210",
		StudentClass: "11",
		Board:        "CBSE",
		Language:     "English",
	}
}

func validAcademicInput() validation.AcademicDetailsInput {
	score := validation.NumericInput("85")
	return validation.AcademicDetailsInput{
		Subjects:       []string{"Physics", "Chemistry", "Math"},
		ExamGoal:       "Competitive Prep",
		StudyHours:     "15",
		HasScholarship: "true",
		LastExamScore:  &score,
	}
}

func validAddressInput() validation.AddressDetailsInput {
	return validation.AddressDetailsInput{
		PinCode:        "560001",
		State:          "Karnataka",
		City:           "Bengaluru",
		Address:        "12 MG Road, Near Metro",
		GuardianName:   "Ravi Rao",
		GuardianMobile: "9123456789",
		PaymentPlan:    "Annual",
		PaymentMode:    "UPI",
	}
}

func completeRecord() models.EnrollmentRecord {
	return validStudentInput().ToRecord().
		Merge(validAcademicInput().ToRecord()).
		Merge(validAddressInput().ToRecord())
}
