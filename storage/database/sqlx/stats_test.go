package sqlxrepos

import (
	"reflect"
	"testing"
)

func dbColumns(t *testing.T, row interface{}) map[string]bool {
	t.Helper()

	cols := make(map[string]bool)
	typ := reflect.TypeOf(row)
	for i := 0; i < typ.NumField(); i++ {
		tag := typ.Field(i).Tag.Get("db")
		if tag == "" {
			t.Fatalf("field %s has no db tag", typ.Field(i).Name)
		}
		cols[tag] = true
	}
	return cols
}

// The stats queries filter on columns they do not select, so a rename slips
// past the row structs unnoticed. Pin the filter columns to the row mappings.
func Test_statsRepository_filterColumns(t *testing.T) {
	if cols := dbColumns(t, enrollmentRow{}); !cols[enrollmentStatusColumn] {
		t.Errorf("enrollment has no %q column; got %v", enrollmentStatusColumn, cols)
	}
	if cols := dbColumns(t, paymentRow{}); !cols[paymentStatusColumn] {
		t.Errorf("payment has no %q column; got %v", paymentStatusColumn, cols)
	}
}
