package transform

// femaleLiteral is compared byte-for-byte; "female" and "FEMALE" do not match.
const femaleLiteral = "Female"

// SexFlag reports whether the source sex value is exactly "Female".
func SexFlag(sex *string) bool {
	return sex != nil && *sex == femaleLiteral
}

// OutcomeFlag reports whether the source outcome is exactly 1.
// NULL, 0 and any other integer map to false.
func OutcomeFlag(outcome *int64) bool {
	return outcome != nil && *outcome == 1
}
