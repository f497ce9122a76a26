package model

// Language codes stored as a user's preferred programming language and on
// every submission.
const (
	LanguageC       = 0
	LanguageCPP     = 1
	LanguageJava    = 2
	LanguagePython3 = 3
)

var languageNames = map[int]string{
	LanguageC:       "C",
	LanguageCPP:     "C++",
	LanguageJava:    "Java",
	LanguagePython3: "Python3",
}

func LanguageName(code int) (string, bool) {
	name, ok := languageNames[code]
	return name, ok
}
