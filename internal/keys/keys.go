// Package keys derives partition and sort keys from business identifiers.
//
// Every function is pure: identical inputs always produce identical keys.
package keys

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Key prefixes.
const (
	PrefixCustomer = "CUSTOMER#"
	PrefixParent   = "PARENT#"
	PrefixPet      = "PET#"
	PrefixGroomer  = "GROOMER#"
	PrefixSchedule = "SCHEDULE#"
)

// LatestVersion is the sort key of a groomer's latest-pointer record.
const LatestVersion = "v0"

// ErrInvalidInput is returned when an identifier is empty after normalization.
var ErrInvalidInput = errors.New("suds: invalid input")

// DigitsOnly strips every non-digit character.
func DigitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// NormalizeNameToken strips every non-alphanumeric character and upper-cases the rest.
func NormalizeNameToken(s string) string {
	return strings.ToUpper(strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s))
}

// CustomerPartitionKey computes the partition key shared by a parent and their pets.
func CustomerPartitionKey(phoneNumber string) (string, error) {
	digits := DigitsOnly(phoneNumber)
	if digits == "" {
		return "", fmt.Errorf("%w: phone number %q has no digits", ErrInvalidInput, phoneNumber)
	}
	return PrefixCustomer + digits, nil
}

// ParentSortKey computes the sort key of a parent record.
// Both name parts must contain at least one letter or digit.
func ParentSortKey(firstName, lastName string) (string, error) {
	first := NormalizeNameToken(firstName)
	if first == "" {
		return "", fmt.Errorf("%w: first name %q is empty after normalization", ErrInvalidInput, firstName)
	}
	last := NormalizeNameToken(lastName)
	if last == "" {
		return "", fmt.Errorf("%w: last name %q is empty after normalization", ErrInvalidInput, lastName)
	}
	return PrefixParent + first + last, nil
}

// PetSortKey computes the sort key of a pet record.
func PetSortKey(name string) (string, error) {
	token := NormalizeNameToken(name)
	if token == "" {
		return "", fmt.Errorf("%w: pet name %q is empty after normalization", ErrInvalidInput, name)
	}
	return PrefixPet + token, nil
}

// GroomerPartitionKey computes the partition key of a groomer. The employee
// number is used verbatim and is case-sensitive.
func GroomerPartitionKey(employeeNumber string) (string, error) {
	if strings.TrimSpace(employeeNumber) == "" {
		return "", fmt.Errorf("%w: employee number is empty", ErrInvalidInput)
	}
	return PrefixGroomer + employeeNumber, nil
}

// ScheduleID computes a schedule key from the wall clock of t interpreted in loc.
// The zone attached to t is ignored; only its date and clock fields are used.
func ScheduleID(t time.Time, loc *time.Location) (string, error) {
	if t.IsZero() {
		return "", fmt.Errorf("%w: appointment time is zero", ErrInvalidInput)
	}
	if loc == nil {
		loc = time.Local
	}
	return PrefixSchedule + strconv.FormatInt(WallClock(t, loc).Unix(), 10), nil
}

// WallClock re-anchors the date and clock fields of t in loc.
func WallClock(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc)
}

// VersionTag returns the sort key of snapshot n ("v1", "v2", ...).
func VersionTag(n int) string {
	return "v" + strconv.Itoa(n)
}

// ParseVersionTag returns the number of a version tag. "v0" parses as 0.
func ParseVersionTag(tag string) (int, error) {
	if !strings.HasPrefix(tag, "v") {
		return 0, fmt.Errorf("%w: version tag %q", ErrInvalidInput, tag)
	}
	n, err := strconv.Atoi(tag[1:])
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: version tag %q", ErrInvalidInput, tag)
	}
	return n, nil
}
