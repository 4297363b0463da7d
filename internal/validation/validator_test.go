package validation

import (
	"errors"
	"testing"
)

type sample struct {
	Name  string `json:"name" validate:"required"`
	Count int    `json:"count" validate:"min=1,max=50"`
	Kind  string `json:"kind" validate:"omitempty,oneof=a b"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name      string
		in        sample
		wantField string
		wantMsg   string
	}{
		{name: "valid", in: sample{Name: "x", Count: 3}},
		{name: "missing name", in: sample{Count: 1}, wantField: "name", wantMsg: "name is required"},
		{name: "count too big", in: sample{Name: "x", Count: 51}, wantField: "count", wantMsg: "count must be at most 50"},
		{name: "bad kind", in: sample{Name: "x", Count: 1, Kind: "c"}, wantField: "kind", wantMsg: "kind must be one of: a b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.in)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Struct() error = %v, want nil", err)
				}
				return
			}

			var verr *Error
			if !errors.As(err, &verr) {
				t.Fatalf("Struct() error = %v, want *Error", err)
			}
			if len(verr.Fields) != 1 {
				t.Fatalf("got %d field errors, want 1", len(verr.Fields))
			}
			if verr.Fields[0].Field != tt.wantField {
				t.Errorf("Field = %q, want %q", verr.Fields[0].Field, tt.wantField)
			}
			if verr.Error() != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", verr.Error(), tt.wantMsg)
			}
		})
	}
}
