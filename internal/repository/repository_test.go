package repository

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
)

// errRow satisfies the scan-helper row contract with a fixed error.
type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }

func TestScanHelpersMapNoRowsToNotFound(t *testing.T) {
	tests := []struct {
		name string
		scan func(row interface{ Scan(...any) error }) error
	}{
		{
			name: "project",
			scan: func(row interface{ Scan(...any) error }) error {
				_, err := (&ProjectRepo{}).scanProject(row)
				return err
			},
		},
		{
			name: "experience",
			scan: func(row interface{ Scan(...any) error }) error {
				_, err := (&ExperienceRepo{}).scanExperience(row)
				return err
			},
		},
		{
			name: "post",
			scan: func(row interface{ Scan(...any) error }) error {
				_, err := (&PostRepo{}).scanPost(row)
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// UPDATE ... RETURNING and single-row lookups surface missing
			// rows as pgx.ErrNoRows; handlers only understand ErrNotFound.
			if err := tt.scan(errRow{pgx.ErrNoRows}); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound for pgx.ErrNoRows, got %v", err)
			}

			boom := errors.New("connection refused")
			err := tt.scan(errRow{boom})
			if !errors.Is(err, boom) {
				t.Errorf("expected underlying error to pass through, got %v", err)
			}
			if errors.Is(err, ErrNotFound) {
				t.Error("unrelated errors must not map to ErrNotFound")
			}
		})
	}
}
