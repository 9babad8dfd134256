package shared

import (
	"errors"
	"testing"
)

type sample struct {
	Name     string  `json:"name" validate:"required"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=6"`
	Status   *string `json:"status" validate:"omitempty,oneof=todo in-progress done"`
}

func TestValidateMessages(t *testing.T) {
	bad := "later"
	cases := []struct {
		in   sample
		want string
	}{
		{sample{Email: "a@b.co", Password: "secret"}, "Name is required"},
		{sample{Name: "a", Email: "nope", Password: "secret"}, "Email must be a valid email address"},
		{sample{Name: "a", Email: "a@b.co", Password: "123"}, "Password must be at least 6 characters"},
		{sample{Name: "a", Email: "a@b.co", Password: "secret", Status: &bad}, "Status must be one of: todo, in-progress, done"},
	}
	for _, tc := range cases {
		err := Validate(tc.in)
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("expected validation error for %+v, got %v", tc.in, err)
		}
		if err.Error() != tc.want {
			t.Fatalf("expected %q, got %q", tc.want, err.Error())
		}
	}
	if err := Validate(sample{Name: "a", Email: "a@b.co", Password: "secret"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
