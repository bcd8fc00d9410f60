package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicely/pkg/civil"
)

func parseID(value string) (snowflake.ID, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || parsed <= 0 {
		return 0, newValidationError("id", "invalid_id", "invalid id")
	}
	return parsed, nil
}

func parseOptionalSnowflakeID(field string, value *string) (*snowflake.ID, error) {
	if value == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := snowflake.ParseString(trimmed)
	if err != nil || parsed <= 0 {
		return nil, newValidationError(field, "invalid_"+field, "invalid id")
	}
	return &parsed, nil
}

// parseOptionalDate accepts YYYY-MM-DD. Empty means absent.
func parseOptionalDate(field string, value *string) (*civil.Date, error) {
	if value == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := civil.Parse(trimmed)
	if err != nil {
		return nil, newValidationError(field, "invalid_"+field, "invalid date")
	}
	return &parsed, nil
}
