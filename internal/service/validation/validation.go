package validation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mamadbah2/sandwiches/internal/domain/models"
)

// Reason classifies why a candidate row was rejected.
type Reason string

const (
	ReasonNone       Reason = ""
	ReasonNotNumeric Reason = "not_numeric"
	ReasonWrongCount Reason = "wrong_count"
)

// Result is the outcome of validating one line of operator input.
type Result struct {
	OK      bool
	Reason  Reason
	Message string
	Row     models.Row
}

// Validate checks that every token is an integer and that there are exactly
// models.ItemCount of them. Numeric conversion is checked before the count.
func Validate(tokens []string) Result {
	values := make([]int, 0, len(tokens))
	for _, token := range tokens {
		trimmed := strings.TrimSpace(token)
		v, err := strconv.Atoi(trimmed)
		if err != nil {
			return Result{
				Reason:  ReasonNotNumeric,
				Message: fmt.Sprintf("invalid literal for integer: %q", trimmed),
			}
		}
		values = append(values, v)
	}

	if len(values) != models.ItemCount {
		return Result{
			Reason:  ReasonWrongCount,
			Message: fmt.Sprintf("exactly %d values required, you provided %d", models.ItemCount, len(values)),
		}
	}

	row, err := models.RowFromValues(values)
	if err != nil {
		return Result{Reason: ReasonWrongCount, Message: err.Error()}
	}

	return Result{OK: true, Row: row}
}
