package validator

import (
	"errors"
	"roombook/pkg/logger"
	"roombook/pkg/model"
	"strings"
	"testing"
)

func validRoom() *model.Room {
	return &model.Room{
		Name:      "Hall A",
		Type:      "classroom",
		Capacity:  40,
		Building:  "Main",
		Floor:     "2",
		Equipment: []string{"projector"},
	}
}

func TestValidate(t *testing.T) {
	v := NewRoomValidator(logger.Discard())

	tests := []struct {
		name      string
		mutate    func(r *model.Room)
		wantField string
	}{
		{"valid", func(r *model.Room) {}, ""},
		{"missing name", func(r *model.Room) { r.Name = "" }, "name"},
		{"unknown type", func(r *model.Room) { r.Type = "auditorium" }, "type"},
		{"zero capacity", func(r *model.Room) { r.Capacity = 0 }, "capacity"},
		{"huge capacity", func(r *model.Room) { r.Capacity = 5000 }, "capacity"},
		{"missing building", func(r *model.Room) { r.Building = "" }, "building"},
		{"empty equipment item", func(r *model.Room) { r.Equipment = []string{""} }, "equipment[0]"},
		{"long description", func(r *model.Room) { d := strings.Repeat("x", 2001); r.Description = &d }, "description"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			room := validRoom()
			tt.mutate(room)
			err := v.Validate(room)

			if tt.wantField == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}

			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %v", err)
			}
			if verrs[0].Field != tt.wantField {
				t.Errorf("field = %q, want %q", verrs[0].Field, tt.wantField)
			}
		})
	}
}

func TestValidateUpdate(t *testing.T) {
	v := NewRoomValidator(logger.Discard())

	zero := 0
	if err := v.ValidateUpdate(&model.RoomUpdate{Capacity: &zero}); err == nil {
		t.Error("capacity 0 should be rejected")
	}
	if err := v.ValidateUpdate(&model.RoomUpdate{Type: "lab"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
