package forms

import (
	"strings"

	"github.com/spec-kit/ticket-activity/internal/diff"
)

// usStates maps the state codes stored on forms to the names shown in the activity log.
var usStates = map[string]string{
	"AL": "Alabama", "AK": "Alaska", "AZ": "Arizona", "AR": "Arkansas", "CA": "California",
	"CO": "Colorado", "CT": "Connecticut", "DE": "Delaware", "DC": "District of Columbia",
	"FL": "Florida", "GA": "Georgia", "HI": "Hawaii", "ID": "Idaho", "IL": "Illinois",
	"IN": "Indiana", "IA": "Iowa", "KS": "Kansas", "KY": "Kentucky", "LA": "Louisiana",
	"ME": "Maine", "MD": "Maryland", "MA": "Massachusetts", "MI": "Michigan", "MN": "Minnesota",
	"MS": "Mississippi", "MO": "Missouri", "MT": "Montana", "NE": "Nebraska", "NV": "Nevada",
	"NH": "New Hampshire", "NJ": "New Jersey", "NM": "New Mexico", "NY": "New York",
	"NC": "North Carolina", "ND": "North Dakota", "OH": "Ohio", "OK": "Oklahoma", "OR": "Oregon",
	"PA": "Pennsylvania", "RI": "Rhode Island", "SC": "South Carolina", "SD": "South Dakota",
	"TN": "Tennessee", "TX": "Texas", "UT": "Utah", "VT": "Vermont", "VA": "Virginia",
	"WA": "Washington", "WV": "West Virginia", "WI": "Wisconsin", "WY": "Wyoming",
}

// odometerCodes are the federal odometer disclosure codes.
var odometerCodes = map[string]string{
	"A": "Actual Mileage",
	"E": "Exceeds Mechanical Limits",
	"N": "Not Actual Mileage",
	"X": "Exempt",
}

var paymentMethods = map[string]string{
	"ACH":   "Bank Transfer",
	"CARD":  "Credit Card",
	"CHECK": "Check",
	"CASH":  "Cash",
}

// Lookups supplies the code tables display transforms read from.
// Callers with database-backed tables resolve them before building the registry.
type Lookups struct {
	States         map[string]string
	OdometerCodes  map[string]string
	PaymentMethods map[string]string
}

// DefaultLookups returns the built-in tables.
func DefaultLookups() Lookups {
	return Lookups{
		States:         usStates,
		OdometerCodes:  odometerCodes,
		PaymentMethods: paymentMethods,
	}
}

// LabelTransform maps string codes through table; unknown codes and non-strings pass through.
func LabelTransform(table map[string]string) diff.Transform {
	return func(v any) any {
		code, ok := v.(string)
		if !ok {
			return v
		}
		if label, found := table[strings.ToUpper(strings.TrimSpace(code))]; found {
			return label
		}
		return v
	}
}

// YesNo renders booleans the way the forms display them.
func YesNo(v any) any {
	b, ok := v.(bool)
	if !ok {
		return v
	}
	if b {
		return "Yes"
	}
	return "No"
}
