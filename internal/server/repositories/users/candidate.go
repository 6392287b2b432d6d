package users

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/dmitrijs2005/storefront/internal/common"
)

// Candidate is an unvalidated request to create a user. Fields are loosely
// typed because payloads come straight from JSON or protobuf structs.
type Candidate struct {
	Name     any `json:"name"`
	Lastname any `json:"lastname"`
	Email    any `json:"email"`
	Age      any `json:"age"`
	Password any `json:"password"`
}

// ValidCandidate is a Candidate whose fields passed type checks.
type ValidCandidate struct {
	Name     string
	Lastname string
	Email    string
	Age      int
	Password string
}

// Validate checks that name, lastname, email and password are strings and
// that age can be read as an integer. Ages given as strings are read the way
// a lenient integer parser would: leading spaces and sign, then digits up to
// the first non-digit ("30", " 42 years" and "7.9" are accepted).
func (c Candidate) Validate() (ValidCandidate, error) {
	var v ValidCandidate
	var err error

	if v.Name, err = requireString("name", c.Name); err != nil {
		return ValidCandidate{}, err
	}
	if v.Lastname, err = requireString("lastname", c.Lastname); err != nil {
		return ValidCandidate{}, err
	}
	if v.Email, err = requireString("email", c.Email); err != nil {
		return ValidCandidate{}, err
	}
	age, ok := parseAge(c.Age)
	if !ok {
		return ValidCandidate{}, fmt.Errorf("%w: age must be an integer, got %T", common.ErrorValidation, c.Age)
	}
	v.Age = age
	if v.Password, err = requireString("password", c.Password); err != nil {
		return ValidCandidate{}, err
	}

	return v, nil
}

func requireString(field string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string, got %T", common.ErrorValidation, field, v)
	}
	return s, nil
}

func parseAge(v any) (int, bool) {
	switch a := v.(type) {
	case int:
		return a, true
	case int32:
		return int(a), true
	case int64:
		return int(a), true
	case float64:
		return truncate(a)
	case json.Number:
		if i, err := a.Int64(); err == nil {
			return int(i), true
		}
		f, err := a.Float64()
		if err != nil {
			return 0, false
		}
		return truncate(f)
	case string:
		return leadingInt(a)
	default:
		return 0, false
	}
}

func truncate(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

func leadingInt(s string) (int, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)

	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}

	n, err := strconv.ParseInt(s[:end], 10, 32)
	if err != nil {
		return 0, false
	}
	return int(n), true
}
