package feedback

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	valid := Submission{Name: "Ada", Email: "ada@example.com", Message: "Loving the app so far!"}

	cases := []struct {
		name  string
		mut   func(s *Submission)
		field string
	}{
		{name: "valid", mut: func(*Submission) {}},
		{name: "no email", mut: func(s *Submission) { s.Email = "" }},
		{name: "short name", mut: func(s *Submission) { s.Name = "A" }, field: "name"},
		{name: "email starts with at", mut: func(s *Submission) { s.Email = "@example.com" }, field: "email"},
		{name: "email two ats", mut: func(s *Submission) { s.Email = "a@b@c" }, field: "email"},
		{name: "email without at", mut: func(s *Submission) { s.Email = "example.com" }, field: "email"},
		{name: "short message", mut: func(s *Submission) { s.Message = "too short" }, field: "message"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := valid
			tc.mut(&s)
			err := s.Normalize().Validate()
			if tc.field == "" {
				require.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			require.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestNormalizeTrimsBeforeLengthChecks(t *testing.T) {
	s := Submission{Name: "  B  ", Message: "   0123456789   "}.Normalize()
	err := s.Validate()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, "name", verr.Field)
}
