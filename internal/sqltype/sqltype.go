// Package sqltype provides the mapping from native SQL column types to GraphQL scalar names.
// The mapping is shared by schema generation and resolver generation so both agree on key types.
package sqltype

import "strings"

// Scalar is the category of GraphQL scalar type for a SQL column.
type Scalar int

const (
	// String is the default scalar for text and unknown SQL types.
	String Scalar = iota
	// Int represents integer numeric types.
	Int
	// Float represents floating-point and fixed-point numeric types.
	Float
	// Boolean represents the BOOL type.
	Boolean
	// JSON represents JSON documents.
	JSON
	// Time represents TIME columns.
	Time
	// Date represents DATE columns.
	Date
	// DateTime represents DATETIME columns.
	DateTime
	// Timestamp represents TIMESTAMP columns.
	Timestamp
)

var intTypes = map[string]struct{}{
	"INTEGER":   {},
	"INT":       {},
	"SMALLINT":  {},
	"TINYINT":   {},
	"MEDIUMINT": {},
	"BIGINT":    {},
	"BIT":       {},
}

var floatTypes = map[string]struct{}{
	"FLOAT":            {},
	"DOUBLE":           {},
	"REAL":             {},
	"REAL_AS_FLOAT":    {},
	"DOUBLE PRECISION": {},
	"DEC":              {},
	"DECIMAL":          {},
	"FIXED":            {},
	"NUMERIC":          {},
}

// MapToGraphQL converts a SQL data type string to its GraphQL scalar.
// The input is case-insensitive and everything from the first "(" onward is discarded,
// so "VARCHAR(100)" and "varchar" map identically. Unknown types map to String.
func MapToGraphQL(sqlType string) Scalar {
	sqlType = strings.ToUpper(sqlType)
	if idx := strings.Index(sqlType, "("); idx != -1 {
		sqlType = sqlType[:idx]
	}
	switch sqlType {
	case "BOOL":
		return Boolean
	case "JSON":
		return JSON
	case "TIME":
		return Time
	case "DATE":
		return Date
	case "DATETIME":
		return DateTime
	case "TIMESTAMP":
		return Timestamp
	}
	if _, ok := intTypes[sqlType]; ok {
		return Int
	}
	if _, ok := floatTypes[sqlType]; ok {
		return Float
	}
	return String
}

// MapType returns the GraphQL scalar name for a raw SQL type.
func MapType(sqlType string) string {
	return MapToGraphQL(sqlType).String()
}

// String returns the GraphQL scalar type name used in the schema document.
func (s Scalar) String() string {
	switch s {
	case Int:
		return "Int"
	case Float:
		return "Float"
	case Boolean:
		return "Boolean"
	case JSON:
		return "AWSJSON"
	case Time:
		return "AWSTime"
	case Date:
		return "AWSDate"
	case DateTime:
		return "AWSDateTime"
	case Timestamp:
		return "AWSTimestamp"
	default:
		return "String"
	}
}

// IsCustom reports whether the scalar is not one of the GraphQL built-ins
// and must be provided by the hosting service.
func (s Scalar) IsCustom() bool {
	switch s {
	case JSON, Time, Date, DateTime, Timestamp:
		return true
	default:
		return false
	}
}

// CustomScalars lists the non built-in scalar names this package can produce, in declaration order.
func CustomScalars() []string {
	return []string{
		JSON.String(),
		Time.String(),
		Date.String(),
		DateTime.String(),
		Timestamp.String(),
	}
}
