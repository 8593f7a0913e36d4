package dataset

import (
	"fmt"
)

// ValidationError describes a record field holding a value outside its domain
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s (value: %v)", e.Field, e.Message, e.Value)
}

// Validate checks the categorical codes and the rental count of a record
func (r DailyRecord) Validate() error {
	switch {
	case !r.Season.IsValid():
		return ValidationError{Field: ColSeason, Message: "season code must be 1-4", Value: int(r.Season)}
	case !r.Weather.IsKnown():
		return ValidationError{Field: ColWeather, Message: "weather code must be 1-4", Value: int(r.Weather)}
	case !r.Weekday.IsValid():
		return ValidationError{Field: ColWeekday, Message: "weekday must be 0-6", Value: int(r.Weekday)}
	case !r.Month.IsValid():
		return ValidationError{Field: ColMonth, Message: "month must be 1-12", Value: int(r.Month)}
	case r.Count < 0:
		return ValidationError{Field: ColCount, Message: "rental count cannot be negative", Value: r.Count}
	}
	return nil
}
