package storage

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// QueryExecution is one SQL tool invocation: what the model asked for, the SQL
// it produced and how running it went.
type QueryExecution struct {
	ID         string          `json:"id" db:"id"`
	TableList  JSONStringArray `json:"table_list" db:"table_list"`
	Intent     string          `json:"intent" db:"intent"`
	SQL        string          `json:"sql" db:"generated_sql"`
	RowCount   int             `json:"row_count" db:"row_count"`
	Error      string          `json:"error,omitempty" db:"error"`
	DurationMs int64           `json:"duration_ms" db:"duration_ms"`
	Mode       string          `json:"mode" db:"mode"`
	Deployment string          `json:"deployment" db:"deployment"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

// JSONStringArray is a custom type for handling JSON arrays stored as strings in the database
type JSONStringArray []string

// Scan implements the sql.Scanner interface for JSONStringArray
func (j *JSONStringArray) Scan(value interface{}) error {
	if value == nil {
		*j = []string{}
		return nil
	}

	switch v := value.(type) {
	case string:
		if v == "" || v == "[]" {
			*j = []string{}
			return nil
		}
		return json.Unmarshal([]byte(v), j)
	case []byte:
		if len(v) == 0 || string(v) == "[]" {
			*j = []string{}
			return nil
		}
		return json.Unmarshal(v, j)
	default:
		return fmt.Errorf("cannot scan type %T into JSONStringArray", value)
	}
}

// Value implements the driver.Valuer interface for JSONStringArray
func (j JSONStringArray) Value() (driver.Value, error) {
	if len(j) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
