package validation

import (
	"fmt"
	"strings"

	"github.com/noah-isme/sma-enrollment-wizard/internal/models"
)

// StudentDetailsInput is the step 1 form.
type StudentDetailsInput struct {
	FullName     string `json:"fullName" form:"fullName" validate:"required,min=2,max=60,letters_spaces"`
	Email        string `json:"email" form:"email" validate:"required,email"`
	Mobile       string `json:"mobile" form:"mobile" validate:"required,in_mobile"`
	StudentClass string `json:"studentClass" form:"studentClass" validate:"required,oneof=9 10 11 12"`
	Board        string `json:"board" form:"board" validate:"required,oneof=CBSE ICSE 'State Board'"`
	Language     string `json:"language" form:"language" validate:"required,oneof=English Hindi Hinglish"`
}

// AcademicDetailsInput is the step 2 form. Subjects and the scholarship score are checked
// by AcademicRules because their constraints depend on other answers.
type AcademicDetailsInput struct {
	Subjects       []string      `json:"subjects" form:"subjects"`
	ExamGoal       string        `json:"examGoal" form:"examGoal" validate:"required,oneof='Board Excellence' 'Concept Mastery' 'Competitive Prep'"`
	StudyHours     NumericInput  `json:"studyHours" form:"studyHours" validate:"min=1,max=40,whole"`
	HasScholarship Checkbox      `json:"hasScholarship" form:"hasScholarship"`
	LastExamScore  *NumericInput `json:"lastExamScore" form:"lastExamScore" validate:"omitempty,min=0,max=100"`
	Achievements   *string       `json:"achievements" form:"achievements"`
}

// AddressDetailsInput is the step 3 form.
type AddressDetailsInput struct {
	PinCode        string `json:"pinCode" form:"pinCode" validate:"required,pincode"`
	State          string `json:"state" form:"state" validate:"required"`
	City           string `json:"city" form:"city" validate:"required"`
	Address        string `json:"address" form:"address" validate:"required,min=10,max=120"`
	GuardianName   string `json:"guardianName" form:"guardianName" validate:"required"`
	GuardianMobile string `json:"guardianMobile" form:"guardianMobile" validate:"required,in_mobile"`
	PaymentPlan    string `json:"paymentPlan" form:"paymentPlan" validate:"required,oneof=Quarterly Half-Yearly Annual"`
	PaymentMode    string `json:"paymentMode" form:"paymentMode" validate:"required,oneof=UPI Card NetBanking"`
}

var studentMessages = messageTable{
	"fullName": {
		"required":       "Name must be at least 2 characters",
		"min":            "Name must be at least 2 characters",
		"max":            "Name must be less than 60 characters",
		"letters_spaces": "Name must contain only letters and spaces",
	},
	"email":        {"*": "Please enter a valid email address"},
	"mobile":       {"*": "Must be a valid 10-digit Indian mobile number"},
	"studentClass": {"required": "Please select a class", "oneof": "Class must be one of 9, 10, 11 or 12"},
	"board":        {"required": "Please select a board", "oneof": "Board must be one of CBSE, ICSE or State Board"},
	"language":     {"required": "Please select a language", "oneof": "Language must be one of English, Hindi or Hinglish"},
}

var academicMessages = messageTable{
	"examGoal":      {"required": "Please select a goal", "oneof": "Goal must be one of Board Excellence, Concept Mastery or Competitive Prep"},
	"studyHours":    {"min": "At least 1 hour", "max": "Max 40 hours", "whole": "Study hours must be a whole number"},
	"lastExamScore": {"min": "Score cannot be below 0", "max": "Score cannot be above 100"},
}

var addressMessages = messageTable{
	"pinCode":        {"*": "Must be a valid 6-digit PIN code"},
	"state":          {"*": "State is required"},
	"city":           {"*": "City is required"},
	"address":        {"required": "Address must be at least 10 characters", "min": "Address must be at least 10 characters", "max": "Address must be at most 120 characters"},
	"guardianName":   {"*": "Guardian name is required"},
	"guardianMobile": {"*": "Must be a valid 10-digit mobile number"},
	"paymentPlan":    {"*": "Select a plan"},
	"paymentMode":    {"*": "Select a mode"},
}

// ValidateStudentDetails applies the step 1 field rules.
func (e *Engine) ValidateStudentDetails(in *StudentDetailsInput) FieldErrors {
	in.normalize()
	errs := FieldErrors{}
	e.structInto(in, studentMessages, errs)
	return errs
}

// ValidateAddressDetails applies the step 3 field rules.
func (e *Engine) ValidateAddressDetails(in *AddressDetailsInput) FieldErrors {
	in.normalize()
	errs := FieldErrors{}
	e.structInto(in, addressMessages, errs)
	return errs
}

// AcademicRules is the step 2 schema derived from the recorded class.
type AcademicRules struct {
	StudentClass string
	MinSubjects  int
	Offered      []string
}

// NewAcademicRules derives the step 2 schema for a class. It is pure: the same class
// always yields the same rules.
func NewAcademicRules(studentClass string) AcademicRules {
	min := 2
	if models.IsSeniorClass(studentClass) {
		min = 3
	}
	return AcademicRules{
		StudentClass: studentClass,
		MinSubjects:  min,
		Offered:      models.SubjectsForClass(studentClass),
	}
}

// ClassKnown reports whether the rules were derived from a recorded class.
func (r AcademicRules) ClassKnown() bool {
	return models.Contains(models.ClassOptions, r.StudentClass)
}

// Validate checks subjects first (presence, then class threshold), then the remaining
// fields, then the scholarship-dependent score.
func (r AcademicRules) Validate(e *Engine, in *AcademicDetailsInput) FieldErrors {
	in.normalize()
	errs := FieldErrors{}

	switch {
	case !r.ClassKnown():
		errs.Add("subjects", "Select your class in Student Details before choosing subjects")
	case len(in.Subjects) == 0:
		errs.Add("subjects", "Select at least one subject")
	case len(in.Subjects) < r.MinSubjects:
		errs.Add("subjects", fmt.Sprintf("Class %s students must select at least %d subjects", r.StudentClass, r.MinSubjects))
	default:
		for _, subject := range in.Subjects {
			if !models.Contains(r.Offered, subject) {
				errs.Add("subjects", fmt.Sprintf("%s is not offered for Class %s", subject, r.StudentClass))
				break
			}
		}
	}

	if _, present, err := in.StudyHours.Float(); !present {
		errs.Add("studyHours", "Study hours are required")
	} else if err != nil {
		errs.Add("studyHours", "Study hours must be a number")
	}
	if in.LastExamScore != nil {
		if _, _, err := in.LastExamScore.Float(); err != nil {
			errs.Add("lastExamScore", "Score must be a number")
		}
	}

	scholarship, err := in.HasScholarship.Checked()
	if err != nil {
		errs.Add("hasScholarship", "Choose yes or no")
	}

	e.structInto(in, academicMessages, errs)

	if scholarship {
		if in.LastExamScore == nil || in.LastExamScore.Blank() {
			errs.Add("lastExamScore", "Score is required for scholarship applicants")
		}
	}
	return errs
}

// ToRecord converts an accepted step 1 form into a partial record.
func (in StudentDetailsInput) ToRecord() models.EnrollmentRecord {
	return models.EnrollmentRecord{
		FullName:     models.StringPtr(in.FullName),
		Email:        models.StringPtr(in.Email),
		Mobile:       models.StringPtr(in.Mobile),
		StudentClass: models.StringPtr(in.StudentClass),
		Board:        models.StringPtr(in.Board),
		Language:     models.StringPtr(in.Language),
	}
}

// ToRecord converts an accepted step 2 form into a partial record.
func (in AcademicDetailsInput) ToRecord() models.EnrollmentRecord {
	hours, _, _ := in.StudyHours.Float()
	scholarship, _ := in.HasScholarship.Checked()
	rec := models.EnrollmentRecord{
		Subjects:       append([]string{}, in.Subjects...),
		ExamGoal:       models.StringPtr(in.ExamGoal),
		StudyHours:     models.FloatPtr(hours),
		HasScholarship: models.BoolPtr(scholarship),
		Achievements:   in.Achievements,
	}
	if in.LastExamScore != nil {
		if score, present, err := in.LastExamScore.Float(); present && err == nil {
			rec.LastExamScore = models.FloatPtr(score)
		}
	}
	return rec
}

// ToRecord converts an accepted step 3 form into a partial record.
func (in AddressDetailsInput) ToRecord() models.EnrollmentRecord {
	return models.EnrollmentRecord{
		PinCode:        models.StringPtr(in.PinCode),
		City:           models.StringPtr(in.City),
		State:          models.StringPtr(in.State),
		Address:        models.StringPtr(in.Address),
		GuardianName:   models.StringPtr(in.GuardianName),
		GuardianMobile: models.StringPtr(in.GuardianMobile),
		PaymentPlan:    models.StringPtr(in.PaymentPlan),
		PaymentMode:    models.StringPtr(in.PaymentMode),
	}
}

// StudentDetailsFromRecord rebuilds the step 1 form from stored answers.
func StudentDetailsFromRecord(r models.EnrollmentRecord) StudentDetailsInput {
	return StudentDetailsInput{
		FullName:     models.Deref(r.FullName),
		Email:        models.Deref(r.Email),
		Mobile:       models.Deref(r.Mobile),
		StudentClass: models.Deref(r.StudentClass),
		Board:        models.Deref(r.Board),
		Language:     models.Deref(r.Language),
	}
}

// AcademicDetailsFromRecord rebuilds the step 2 form from stored answers.
func AcademicDetailsFromRecord(r models.EnrollmentRecord) AcademicDetailsInput {
	in := AcademicDetailsInput{
		Subjects:       append([]string(nil), r.Subjects...),
		ExamGoal:       models.Deref(r.ExamGoal),
		HasScholarship: CheckboxFrom(r.Scholarship()),
		Achievements:   r.Achievements,
	}
	if r.StudyHours != nil {
		in.StudyHours = NumericFrom(*r.StudyHours)
	}
	if r.LastExamScore != nil {
		score := NumericFrom(*r.LastExamScore)
		in.LastExamScore = &score
	}
	return in
}

// AddressDetailsFromRecord rebuilds the step 3 form from stored answers.
func AddressDetailsFromRecord(r models.EnrollmentRecord) AddressDetailsInput {
	return AddressDetailsInput{
		PinCode:        models.Deref(r.PinCode),
		State:          models.Deref(r.State),
		City:           models.Deref(r.City),
		Address:        models.Deref(r.Address),
		GuardianName:   models.Deref(r.GuardianName),
		GuardianMobile: models.Deref(r.GuardianMobile),
		PaymentPlan:    models.Deref(r.PaymentPlan),
		PaymentMode:    models.Deref(r.PaymentMode),
	}
}

// FirstIncompleteStep re-validates a stored record step by step and returns the first
// step whose rules fail, with its errors. ok is true when the whole record is valid.
func (e *Engine) FirstIncompleteStep(r models.EnrollmentRecord) (step models.Step, errs FieldErrors, ok bool) {
	student := StudentDetailsFromRecord(r)
	if errs := e.ValidateStudentDetails(&student); !errs.Empty() {
		return models.StepStudentDetails, errs, false
	}
	academic := AcademicDetailsFromRecord(r)
	if errs := NewAcademicRules(student.StudentClass).Validate(e, &academic); !errs.Empty() {
		return models.StepAcademicDetails, errs, false
	}
	address := AddressDetailsFromRecord(r)
	if errs := e.ValidateAddressDetails(&address); !errs.Empty() {
		return models.StepAddressGuardian, errs, false
	}
	return models.StepReview, nil, true
}

func (in *StudentDetailsInput) normalize() {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.TrimSpace(in.Email)
	in.Mobile = strings.TrimSpace(in.Mobile)
	in.StudentClass = strings.TrimSpace(in.StudentClass)
	in.Board = strings.TrimSpace(in.Board)
	in.Language = strings.TrimSpace(in.Language)
}

func (in *AcademicDetailsInput) normalize() {
	in.ExamGoal = strings.TrimSpace(in.ExamGoal)
	seen := make(map[string]struct{}, len(in.Subjects))
	subjects := make([]string, 0, len(in.Subjects))
	for _, s := range in.Subjects {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		subjects = append(subjects, s)
	}
	in.Subjects = subjects
	if in.Achievements != nil {
		trimmed := strings.TrimSpace(*in.Achievements)
		if trimmed == "" {
			in.Achievements = nil
		} else {
			in.Achievements = &trimmed
		}
	}
}

func (in *AddressDetailsInput) normalize() {
	in.PinCode = strings.TrimSpace(in.PinCode)
	in.State = strings.TrimSpace(in.State)
	in.City = strings.TrimSpace(in.City)
	in.Address = strings.TrimSpace(in.Address)
	in.GuardianName = strings.TrimSpace(in.GuardianName)
	in.GuardianMobile = strings.TrimSpace(in.GuardianMobile)
	in.PaymentPlan = strings.TrimSpace(in.PaymentPlan)
	in.PaymentMode = strings.TrimSpace(in.PaymentMode)
}
