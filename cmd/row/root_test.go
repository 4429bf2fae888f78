package row

import (
	"bytes"
	"testing"

	"github.com/ValentinKolb/isam/lib/jet"
	"github.com/google/uuid"
)

var testColumns = []jet.ColumnInfo{
	{Name: "id", Columnid: jet.Columnid{Value: 1}, Coltyp: jet.ColtypLong},
	{Name: "Name", Columnid: jet.Columnid{Value: 2}, Coltyp: jet.ColtypLongText, CP: jet.CPUnicode},
	{Name: "uid", Columnid: jet.Columnid{Value: 3}, Coltyp: jet.ColtypGUID},
	{Name: "blob", Columnid: jet.Columnid{Value: 4}, Coltyp: jet.ColtypLongBinary},
	{Name: "ok", Columnid: jet.Columnid{Value: 5}, Coltyp: jet.ColtypBit},
}

func TestParseAssignments(t *testing.T) {
	values, err := ParseAssignments(testColumns, []string{
		"id=42",
		"name=a=b",
		"uid=01020304-0506-0708-090a-0b0c0d0e0f10",
		"blob=cafe",
		"ok",
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if values["id"] != int32(42) {
		t.Errorf("Expected int32(42), got %v (%T)", values["id"], values["id"])
	}
	// names resolve case-insensitively to the column name, values may contain '='
	if values["Name"] != "a=b" {
		t.Errorf("Expected a=b, got %v", values["Name"])
	}
	if values["uid"] != uuid.MustParse("01020304-0506-0708-090a-0b0c0d0e0f10") {
		t.Errorf("Unexpected uid %v", values["uid"])
	}
	if b, ok := values["blob"].([]byte); !ok || !bytes.Equal(b, []byte{0xca, 0xfe}) {
		t.Errorf("Expected cafe, got %v", values["blob"])
	}
	if v, ok := values["ok"]; !ok || v != nil {
		t.Errorf("Expected ok to be NULL, got %v (present=%t)", v, ok)
	}

	t.Run("Invalid", func(t *testing.T) {
		for _, assignment := range []string{"missing=1", "id=x", "id=99999999999", "uid=nope", "blob=zz", "ok=maybe"} {
			if _, err := ParseAssignments(testColumns, []string{assignment}); err == nil {
				t.Errorf("Expected an error for %q", assignment)
			}
		}
	})
}
