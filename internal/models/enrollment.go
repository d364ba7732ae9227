package models

// EnrollmentRecord is the single aggregate built up across the wizard steps.
// Every field is optional: nil means the owning step has not been submitted yet.
type EnrollmentRecord struct {
	// Student details (step 1).
	FullName     *string `json:"fullName,omitempty" yaml:"fullName,omitempty"`
	Email        *string `json:"email,omitempty" yaml:"email,omitempty"`
	Mobile       *string `json:"mobile,omitempty" yaml:"mobile,omitempty"`
	StudentClass *string `json:"studentClass,omitempty" yaml:"studentClass,omitempty"`
	Board        *string `json:"board,omitempty" yaml:"board,omitempty"`
	Language     *string `json:"language,omitempty" yaml:"language,omitempty"`

	// Academic details (step 2).
	Subjects       []string `json:"subjects,omitempty" yaml:"subjects,omitempty"`
	ExamGoal       *string  `json:"examGoal,omitempty" yaml:"examGoal,omitempty"`
	StudyHours     *float64 `json:"studyHours,omitempty" yaml:"studyHours,omitempty"`
	HasScholarship *bool    `json:"hasScholarship,omitempty" yaml:"hasScholarship,omitempty"`
	LastExamScore  *float64 `json:"lastExamScore,omitempty" yaml:"lastExamScore,omitempty"`
	Achievements   *string  `json:"achievements,omitempty" yaml:"achievements,omitempty"`

	// Address, guardian and payment (step 3).
	PinCode        *string `json:"pinCode,omitempty" yaml:"pinCode,omitempty"`
	City           *string `json:"city,omitempty" yaml:"city,omitempty"`
	State          *string `json:"state,omitempty" yaml:"state,omitempty"`
	Address        *string `json:"address,omitempty" yaml:"address,omitempty"`
	GuardianName   *string `json:"guardianName,omitempty" yaml:"guardianName,omitempty"`
	GuardianMobile *string `json:"guardianMobile,omitempty" yaml:"guardianMobile,omitempty"`
	PaymentPlan    *string `json:"paymentPlan,omitempty" yaml:"paymentPlan,omitempty"`
	PaymentMode    *string `json:"paymentMode,omitempty" yaml:"paymentMode,omitempty"`
}

// Merge returns a copy of r where every field present in update overwrites r.
// Fields absent from update are left untouched; nothing is ever removed.
func (r EnrollmentRecord) Merge(update EnrollmentRecord) EnrollmentRecord {
	out := r.Clone()

	mergeString(&out.FullName, update.FullName)
	mergeString(&out.Email, update.Email)
	mergeString(&out.Mobile, update.Mobile)
	mergeString(&out.StudentClass, update.StudentClass)
	mergeString(&out.Board, update.Board)
	mergeString(&out.Language, update.Language)

	if update.Subjects != nil {
		out.Subjects = append([]string(nil), update.Subjects...)
	}
	mergeString(&out.ExamGoal, update.ExamGoal)
	mergeFloat(&out.StudyHours, update.StudyHours)
	if update.HasScholarship != nil {
		v := *update.HasScholarship
		out.HasScholarship = &v
	}
	mergeFloat(&out.LastExamScore, update.LastExamScore)
	mergeString(&out.Achievements, update.Achievements)

	mergeString(&out.PinCode, update.PinCode)
	mergeString(&out.City, update.City)
	mergeString(&out.State, update.State)
	mergeString(&out.Address, update.Address)
	mergeString(&out.GuardianName, update.GuardianName)
	mergeString(&out.GuardianMobile, update.GuardianMobile)
	mergeString(&out.PaymentPlan, update.PaymentPlan)
	mergeString(&out.PaymentMode, update.PaymentMode)

	return out
}

// Clone deep-copies the record so callers can never alias store state.
func (r EnrollmentRecord) Clone() EnrollmentRecord {
	out := EnrollmentRecord{}
	mergeString(&out.FullName, r.FullName)
	mergeString(&out.Email, r.Email)
	mergeString(&out.Mobile, r.Mobile)
	mergeString(&out.StudentClass, r.StudentClass)
	mergeString(&out.Board, r.Board)
	mergeString(&out.Language, r.Language)
	if r.Subjects != nil {
		out.Subjects = append([]string(nil), r.Subjects...)
	}
	mergeString(&out.ExamGoal, r.ExamGoal)
	mergeFloat(&out.StudyHours, r.StudyHours)
	if r.HasScholarship != nil {
		v := *r.HasScholarship
		out.HasScholarship = &v
	}
	mergeFloat(&out.LastExamScore, r.LastExamScore)
	mergeString(&out.Achievements, r.Achievements)
	mergeString(&out.PinCode, r.PinCode)
	mergeString(&out.City, r.City)
	mergeString(&out.State, r.State)
	mergeString(&out.Address, r.Address)
	mergeString(&out.GuardianName, r.GuardianName)
	mergeString(&out.GuardianMobile, r.GuardianMobile)
	mergeString(&out.PaymentPlan, r.PaymentPlan)
	mergeString(&out.PaymentMode, r.PaymentMode)
	return out
}

// IsEmpty reports whether no field has been recorded.
func (r EnrollmentRecord) IsEmpty() bool {
	return r.FullName == nil && r.Email == nil && r.Mobile == nil && r.StudentClass == nil &&
		r.Board == nil && r.Language == nil && r.Subjects == nil && r.ExamGoal == nil &&
		r.StudyHours == nil && r.HasScholarship == nil && r.LastExamScore == nil &&
		r.Achievements == nil && r.PinCode == nil && r.City == nil && r.State == nil &&
		r.Address == nil && r.GuardianName == nil && r.GuardianMobile == nil &&
		r.PaymentPlan == nil && r.PaymentMode == nil
}

// Scholarship reports the recorded scholarship answer, defaulting to false.
func (r EnrollmentRecord) Scholarship() bool {
	return r.HasScholarship != nil && *r.HasScholarship
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// FloatPtr returns a pointer to f.
func FloatPtr(f float64) *float64 { return &f }

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool { return &b }

// Deref returns the pointed-to string or "".
func Deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func mergeString(dst **string, src *string) {
	if src == nil {
		return
	}
	v := *src
	*dst = &v
}

func mergeFloat(dst **float64, src *float64) {
	if src == nil {
		return
	}
	v := *src
	*dst = &v
}
