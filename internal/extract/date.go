package extract

import "regexp"

var (
	registrationNumberDate = regexp.MustCompile(
		`(?i)(?:номер,?\s*дата\s*реєстрац[іїi]|registration\s*number,?\s*date\s*of\s*registration).{0,80}?(\d{2}\.\d{2}\.\d{4})`)
	registrationDate = regexp.MustCompile(
		`(?i)(?:дата\s*реєстрац[іїi]|date\s*of\s*registration).{0,40}?(\d{2}\.\d{2}\.\d{4})`)
)

// RegistrationDate finds the DD.MM.YYYY registration date in page text. The
// "number, date of registration" label wins; a bare "date of registration" is the fallback.
func RegistrationDate(pageText string) string {
	text := NormalizeSpace(pageText)
	for _, expr := range []*regexp.Regexp{registrationNumberDate, registrationDate} {
		if m := expr.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return ""
}
