package catalog

import "strings"

// tsquery operators and grouping characters are stripped from user tokens.
var tsqueryStripper = strings.NewReplacer(
	"&", "", "|", "", "!", "", "(", "", ")", "",
	":", "", "*", "", "'", "", "<", "", ">", "", "\\", "",
)

// FormatSearchTerm turns free text into a tsquery that requires every word:
// "machine learning" becomes "machine & learning".
func FormatSearchTerm(term string) string {
	fields := strings.Fields(term)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if t := tsqueryStripper.Replace(f); t != "" {
			tokens = append(tokens, t)
		}
	}
	return strings.Join(tokens, " & ")
}
