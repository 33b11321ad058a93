package slots

import "testing"

func TestGenerate_CountAndOrder(t *testing.T) {
	got := Generate()
	if len(got) != 17 {
		t.Fatalf("expected 17 slots, got %d", len(got))
	}
	if got[0] != "9:00 AM" {
		t.Fatalf("expected first slot 9:00 AM, got %s", got[0])
	}
	if got[len(got)-1] != "5:00 PM" {
		t.Fatalf("expected last slot 5:00 PM, got %s", got[len(got)-1])
	}
	for _, s := range got {
		if s == "5:30 PM" {
			t.Fatal("catalog must not contain a half-hour slot after the final hour")
		}
	}
	// Noon boundary keeps the 12-hour clock convention.
	if got[6] != "12:00 PM" {
		t.Fatalf("expected slot 6 to be 12:00 PM, got %s", got[6])
	}
	if got[5] != "11:30 AM" {
		t.Fatalf("expected slot 5 to be 11:30 AM, got %s", got[5])
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		label    string
		wantHour int
		wantMin  int
		wantErr  bool
	}{
		{label: "9:00 AM", wantHour: 9},
		{label: "12:00 PM", wantHour: 12},
		{label: "12:30 AM", wantHour: 0, wantMin: 30},
		{label: "2:00 PM", wantHour: 14},
		{label: "4:30 PM", wantHour: 16, wantMin: 30},
		{label: "5:00 pm", wantHour: 17},
		{label: "17:00", wantErr: true},
		{label: "2:00", wantErr: true},
		{label: "nope PM", wantErr: true},
		{label: "", wantErr: true},
	}
	for _, tt := range tests {
		hour, min, err := Parse(tt.label)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("Parse(%q): expected error, got %d:%02d", tt.label, hour, min)
			}
			continue
		}
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.label, err)
		}
		if hour != tt.wantHour || min != tt.wantMin {
			t.Fatalf("Parse(%q) = %d:%02d, want %d:%02d", tt.label, hour, min, tt.wantHour, tt.wantMin)
		}
	}
}

func TestGenerateParse_RoundTrip(t *testing.T) {
	prevHour, prevMin := -1, 0
	for _, label := range Generate() {
		hour, min, err := Parse(label)
		if err != nil {
			t.Fatalf("Parse(%q): %v", label, err)
		}
		if hour < prevHour || (hour == prevHour && min <= prevMin) {
			t.Fatalf("catalog out of order at %q", label)
		}
		prevHour, prevMin = hour, min
	}
}
