package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeOverwritesOnlyPresentFields(t *testing.T) {
	base := EnrollmentRecord{FullName: StringPtr("Asha Rao"), StudentClass: StringPtr("10")}
	update := EnrollmentRecord{Subjects: []string{"Math", "Science"}, HasScholarship: BoolPtr(false)}

	merged := base.Merge(update)
	assert.Equal(t, "Asha Rao", *merged.FullName)
	assert.Equal(t, "10", *merged.StudentClass)
	assert.Equal(t, []string{"Math", "Science"}, merged.Subjects)
	assert.False(t, merged.Scholarship())
	assert.Nil(t, base.Subjects, "merge must not mutate the receiver")
}

func TestMergeFalseOverridesTrue(t *testing.T) {
	base := EnrollmentRecord{HasScholarship: BoolPtr(true), LastExamScore: FloatPtr(85)}
	merged := base.Merge(EnrollmentRecord{HasScholarship: BoolPtr(false)})
	assert.False(t, merged.Scholarship())
	require.NotNil(t, merged.LastExamScore)
	assert.Equal(t, 85.0, *merged.LastExamScore)
}

func TestCloneDoesNotAlias(t *testing.T) {
	base := EnrollmentRecord{FullName: StringPtr("Asha"), Subjects: []string{"Math"}}
	clone := base.Clone()
	*clone.FullName = "Other"
	clone.Subjects[0] = "Hindi"
	assert.Equal(t, "Asha", *base.FullName)
	assert.Equal(t, "Math", base.Subjects[0])
}

func TestRecordJSONShape(t *testing.T) {
	record := EnrollmentRecord{FullName: StringPtr("Asha Rao"), StudyHours: FloatPtr(15), HasScholarship: BoolPtr(false)}
	raw, err := json.Marshal(record)
	require.NoError(t, err)
	assert.JSONEq(t, `{"fullName":"Asha Rao","studyHours":15,"hasScholarship":false}`, string(raw))
	assert.True(t, EnrollmentRecord{}.IsEmpty())
	assert.False(t, record.IsEmpty())
}

func TestStepNavigation(t *testing.T) {
	prev, ok := StepAcademicDetails.Previous()
	require.True(t, ok)
	assert.Equal(t, StepStudentDetails, prev)
	_, ok = StepStudentDetails.Previous()
	assert.False(t, ok)

	next, ok := StepAddressGuardian.Next()
	require.True(t, ok)
	assert.Equal(t, StepReview, next)
	assert.Equal(t, "/enroll/review", next.Path())

	parsed, ok := ParseStep("step-3")
	require.True(t, ok)
	assert.Equal(t, StepAddressGuardian, parsed)
	_, ok = ParseStep("step-9")
	assert.False(t, ok)

	assert.Equal(t, Progress{Step: 2, Total: 4, Percent: 50, Label: "Step 2 of 4"}, ProgressFor(StepAcademicDetails))
}

func TestSubjectsForClass(t *testing.T) {
	assert.Contains(t, SubjectsForClass("9"), "Social Science")
	assert.Contains(t, SubjectsForClass("12"), "Computer Science")
	assert.Empty(t, SubjectsForClass(""))
	assert.NotNil(t, SubjectsForClass(""))
}
