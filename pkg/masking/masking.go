// Package masking hides contact details from admins without the sensitive-data permission.
package masking

import "strings"

// Email keeps up to the first 4 characters of the local part: "johndoe@example.com" -> "john****@example.com".
// Values without a domain are returned unchanged.
func Email(email string) string {
	if email == "" {
		return ""
	}

	parts := strings.Split(email, "@")
	if len(parts) < 2 || parts[1] == "" {
		return email
	}

	local := []rune(parts[0])
	keep := min(4, len(local))
	return string(local[:keep]) + "****@" + parts[1]
}

// Phone keeps the last 4 characters and replaces the rest with '*' of the same length.
func Phone(phone string) string {
	r := []rune(phone)
	if len(r) <= 4 {
		return phone
	}
	return strings.Repeat("*", len(r)-4) + string(r[len(r)-4:])
}
