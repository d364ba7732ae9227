package models

// Closed value sets accepted by the wizard.
var (
	ClassOptions       = []string{"9", "10", "11", "12"}
	BoardOptions       = []string{"CBSE", "ICSE", "State Board"}
	LanguageOptions    = []string{"English", "Hindi", "Hinglish"}
	ExamGoalOptions    = []string{"Board Excellence", "Concept Mastery", "Competitive Prep"}
	PaymentPlanOptions = []string{"Quarterly", "Half-Yearly", "Annual"}
	PaymentModeOptions = []string{"UPI", "Card", "NetBanking"}
)

var (
	secondarySubjects       = []string{"Math", "Science", "English", "Social Science", "Hindi"}
	seniorSecondarySubjects = []string{"Physics", "Chemistry", "Math", "Biology", "English", "Computer Science"}
)

// SubjectsForClass returns the subjects offered to a class. Unknown classes get none.
func SubjectsForClass(class string) []string {
	switch class {
	case "9", "10":
		return append([]string(nil), secondarySubjects...)
	case "11", "12":
		return append([]string(nil), seniorSecondarySubjects...)
	default:
		return []string{}
	}
}

// IsSeniorClass reports whether class belongs to the 11-12 tier.
func IsSeniorClass(class string) bool {
	return class == "11" || class == "12"
}

// Contains reports whether value is one of options.
func Contains(options []string, value string) bool {
	for _, option := range options {
		if option == value {
			return true
		}
	}
	return false
}
