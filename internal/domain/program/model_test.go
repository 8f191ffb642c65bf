package program_test

import (
	"testing"

	"dq/internal/domain/program"
	"dq/internal/domain/slug"
)

// TestProgram_Validate tests validation of Program.
func TestProgram_Validate(t *testing.T) {
	tests := []struct {
		name    string
		program program.Program
		wantErr error
	}{
		{name: "valid with slug", program: program.Program{Title: "Clean Water", Tag: "health", Slug: "clean-water"}},
		{name: "valid without slug", program: program.Program{Title: "Eid Gifts", Tag: "relief"}},
		{name: "empty title", program: program.Program{Tag: "health"}, wantErr: program.ErrEmptyTitle},
		{name: "blank tag", program: program.Program{Title: "Clean Water", Tag: "  "}, wantErr: program.ErrEmptyTag},
		{name: "bad slug", program: program.Program{Title: "Clean Water", Tag: "health", Slug: "Clean Water"}, wantErr: slug.ErrInvalidSlug},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.program.Validate(); err != tt.wantErr {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
