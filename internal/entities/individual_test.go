package entities

import "testing"

func TestIndividualHasMarker(t *testing.T) {
	tests := []struct {
		name    string
		markers []string
		marker  string
		want    bool
	}{
		{name: "present", markers: []string{"beta", "verified"}, marker: "verified", want: true},
		{name: "absent", markers: []string{"beta"}, marker: "verified", want: false},
		{name: "no markers", markers: nil, marker: "beta", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i := &Individual{ID: "ind-1", Markers: tt.markers}
			if got := i.HasMarker(tt.marker); got != tt.want {
				t.Errorf("HasMarker(%q) = %v, want %v", tt.marker, got, tt.want)
			}
		})
	}
}

func TestIndividualValidate(t *testing.T) {
	tests := []struct {
		name       string
		individual Individual
		wantErr    bool
	}{
		{name: "valid", individual: Individual{ID: "ind-1", Markers: []string{"beta"}}},
		{name: "valid without markers", individual: Individual{ID: "ind-1"}},
		{name: "missing ID", individual: Individual{Markers: []string{"beta"}}, wantErr: true},
		{name: "empty marker", individual: Individual{ID: "ind-1", Markers: []string{""}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.individual.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
