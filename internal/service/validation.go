package service

import (
	"slices"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/maxviazov/crm-service/internal/model"
	"github.com/maxviazov/crm-service/internal/search"
)

// MaxPageSize caps page_size coming from clients.
const MaxPageSize = 100

// validate is safe for concurrent use and caches struct metadata.
var validate = validator.New()

func requireOwner(owner model.Identity) error {
	if strings.TrimSpace(owner.UserID) == "" {
		return ErrNoIdentity
	}
	return nil
}

func validID(field string, id int64) error {
	if id <= 0 {
		return NewInvalidInputError([]FieldError{{Field: field, Message: "must be > 0"}})
	}
	return nil
}

// trimOptional trims s and turns blank values into nil.
func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func normalizeEnum(s, fallback string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return fallback
	}
	return s
}

func isValidEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}

func checkLength(ferrs []FieldError, field, value string, minLen, maxLen int) []FieldError {
	ln := len([]rune(value))
	switch {
	case ln == 0 && minLen > 0:
		return append(ferrs, FieldError{Field: field, Message: "must not be empty"})
	case ln < minLen || ln > maxLen:
		return append(ferrs, FieldError{Field: field, Message: lengthMessage(minLen, maxLen)})
	}
	return ferrs
}

func checkOptionalLength(ferrs []FieldError, field string, value *string, maxLen int) []FieldError {
	if value == nil {
		return ferrs
	}
	return checkLength(ferrs, field, *value, 0, maxLen)
}

func lengthMessage(minLen, maxLen int) string {
	if minLen <= 1 {
		return "length must be <= " + strconv.Itoa(maxLen)
	}
	return "length must be between " + strconv.Itoa(minLen) + " and " + strconv.Itoa(maxLen)
}

func checkEnum(ferrs []FieldError, field, value string, allowed []string) []FieldError {
	if !slices.Contains(allowed, value) {
		return append(ferrs, FieldError{Field: field, Message: "must be one of " + strings.Join(allowed, ", ")})
	}
	return ferrs
}

// normalizeSearch prepares a client filter for search.Apply. Pagination is
// clamped, never rejected; an unknown status filter is a client error.
func normalizeSearch(cfg search.Config, statuses []string) (search.Config, error) {
	cfg.Term = strings.TrimSpace(cfg.Term)
	cfg.Status = normalizeEnum(cfg.Status, search.StatusAll)
	if cfg.Status != search.StatusAll && !slices.Contains(statuses, cfg.Status) {
		return cfg, NewInvalidInputError([]FieldError{{
			Field:   "status",
			Message: "must be all or one of " + strings.Join(statuses, ", "),
		}})
	}
	cfg = cfg.Normalize()
	if cfg.PageSize > MaxPageSize {
		cfg.PageSize = MaxPageSize
	}
	return cfg, nil
}
