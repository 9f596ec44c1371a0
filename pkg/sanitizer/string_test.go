package sanitizer

import "testing"

func TestNormalizeRoomName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "trim spaces",
			input: "  Lecture Hall A  ",
			want:  "Lecture Hall A",
		},
		{
			name:  "multiple spaces between words",
			input: "Lecture    Hall A",
			want:  "Lecture Hall A",
		},
		{
			name:  "tabs and newlines",
			input: "Lab\t\n204",
			want:  "Lab 204",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "only whitespace",
			input: "   \t\n  ",
			want:  "",
		},
		{
			name:  "preserve special characters",
			input: " Room #3 & Annex ",
			want:  "Room #3 & Annex",
		},
		{
			name:  "hebrew characters",
			input: " חדר סמינרים ",
			want:  "חדר סמינרים",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeRoomName(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeRoomName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeTitle_Idempotent(t *testing.T) {
	inputs := []string{"  Weekly   sync ", "Thesis defence", "\tOffice\nhours"}
	for _, in := range inputs {
		once := SanitizeTitle(in)
		if twice := SanitizeTitle(once); twice != once {
			t.Errorf("SanitizeTitle not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestSanitizeEquipment(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "Projector", want: "projector"},
		{input: " Smart Board ", want: "smart_board"},
		{input: "HDMI-cable", want: "hdmi_cable"},
		{input: "3D printer!!", want: "3d_printer"},
		{input: "---", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := SanitizeEquipment(tt.input); got != tt.want {
				t.Errorf("SanitizeEquipment(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeSearchQuery(t *testing.T) {
	if got := SanitizeSearchQuery("  Science   BUILDING "); got != "science building" {
		t.Errorf("SanitizeSearchQuery() = %q", got)
	}
}
