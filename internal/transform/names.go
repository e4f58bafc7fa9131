package transform

import "strings"

// FullName joins first, middle and last with single spaces and trims the result.
// A nil or blank middle name contributes nothing, so "Ann" + "" + "Lee" is "Ann Lee"
// rather than "Ann  Lee". Text inside each name is kept as stored.
func FullName(first string, middle *string, last string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{first, derefStr(middle), last} {
		if strings.TrimSpace(p) == "" {
			continue
		}
		parts = append(parts, p)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
