package errors

import (
	"errors"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "error without cause",
			err: &AppError{
				Code:    ErrCodeNotFound,
				Message: "job not found",
			},
			want: "job not found",
		},
		{
			name: "error with cause",
			err: &AppError{
				Code:    ErrCodeInternal,
				Message: "failed to process",
				Cause:   errors.New("underlying error"),
			},
			want: "failed to process: underlying error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("AppError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := &AppError{
		Code:    ErrCodeInternal,
		Message: "wrapped error",
		Cause:   cause,
	}

	if unwrapped := err.Unwrap(); !errors.Is(unwrapped, cause) {
		t.Errorf("AppError.Unwrap() = %v, want %v", unwrapped, cause)
	}
}

func TestNotFound(t *testing.T) {
	err := NotFound("job not found")
	if err.Code != ErrCodeNotFound {
		t.Errorf("NotFound().Code = %v, want %v", err.Code, ErrCodeNotFound)
	}
	if err.Message != "job not found" {
		t.Errorf("NotFound().Message = %v, want %v", err.Message, "job not found")
	}
}

func TestNotFoundf(t *testing.T) {
	err := NotFoundf("job %s not found", "abc")
	if err.Code != ErrCodeNotFound {
		t.Errorf("NotFoundf().Code = %v, want %v", err.Code, ErrCodeNotFound)
	}
	if err.Message != "job abc not found" {
		t.Errorf("NotFoundf().Message = %v, want %v", err.Message, "job abc not found")
	}
}

func TestValidation(t *testing.T) {
	err := Validation("invalid input")
	if err.Code != ErrCodeValidation {
		t.Errorf("Validation().Code = %v, want %v", err.Code, ErrCodeValidation)
	}
	if err.Message != "invalid input" {
		t.Errorf("Validation().Message = %v, want %v", err.Message, "invalid input")
	}
}

func TestStateConflict(t *testing.T) {
	err := StateConflict("job is not queued")
	if err.Code != ErrCodeStateConflict {
		t.Errorf("StateConflict().Code = %v, want %v", err.Code, ErrCodeStateConflict)
	}
	if err.Message != "job is not queued" {
		t.Errorf("StateConflict().Message = %v, want %v", err.Message, "job is not queued")
	}
}

func TestServiceUnavailable(t *testing.T) {
	err := ServiceUnavailable("assessment service unreachable")
	if err.Code != ErrCodeServiceUnavailable {
		t.Errorf("ServiceUnavailable().Code = %v, want %v", err.Code, ErrCodeServiceUnavailable)
	}
	if err.Message != "assessment service unreachable" {
		t.Errorf(
			"ServiceUnavailable().Message = %v, want %v",
			err.Message,
			"assessment service unreachable",
		)
	}
}

func TestInternal(t *testing.T) {
	err := Internal("internal error")
	if err.Code != ErrCodeInternal {
		t.Errorf("Internal().Code = %v, want %v", err.Code, ErrCodeInternal)
	}
	if err.Message != "internal error" {
		t.Errorf("Internal().Message = %v, want %v", err.Message, "internal error")
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(cause, ErrCodeInternal, "wrapped error")

	if err.Code != ErrCodeInternal {
		t.Errorf("Wrap().Code = %v, want %v", err.Code, ErrCodeInternal)
	}
	if err.Message != "wrapped error" {
		t.Errorf("Wrap().Message = %v, want %v", err.Message, "wrapped error")
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Wrap().Cause = %v, want %v", err.Cause, cause)
	}
}

func TestWrap_NilError(t *testing.T) {
	err := Wrap(nil, ErrCodeInternal, "wrapped error")
	if err != nil {
		t.Errorf("Wrap(nil) = %v, want nil", err)
	}
}

func TestWrapf(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrapf(cause, ErrCodeServiceUnavailable, "assess chunk %d", 3)

	if err.Code != ErrCodeServiceUnavailable {
		t.Errorf("Wrapf().Code = %v, want %v", err.Code, ErrCodeServiceUnavailable)
	}
	if err.Message != "assess chunk 3" {
		t.Errorf("Wrapf().Message = %v, want %v", err.Message, "assess chunk 3")
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Wrapf().Cause = %v, want %v", err.Cause, cause)
	}
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "not found error",
			err:  NotFound("job not found"),
			want: true,
		},
		{
			name: "wrapped not found error",
			err:  Wrap(NotFound("job not found"), ErrCodeNotFound, "lookup"),
			want: true,
		},
		{
			name: "other error",
			err:  StateConflict("conflict"),
			want: false,
		},
		{
			name: "standard error",
			err:  errors.New("standard error"),
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFound(tt.err); got != tt.want {
				t.Errorf("IsNotFound() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsStateConflict(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "state conflict error",
			err:  StateConflict("job already claimed"),
			want: true,
		},
		{
			name: "other error",
			err:  NotFound("not found"),
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsStateConflict(tt.err); got != tt.want {
				t.Errorf("IsStateConflict() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsValidation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "validation error",
			err:  Validation("invalid"),
			want: true,
		},
		{
			name: "formatted validation error",
			err:  Validationf("invalid window: %v", errors.New("end before start")),
			want: true,
		},
		{
			name: "other error",
			err:  NotFound("not found"),
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidation(tt.err); got != tt.want {
				t.Errorf("IsValidation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsServiceUnavailable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "service unavailable error",
			err:  ServiceUnavailable("unreachable"),
			want: true,
		},
		{
			name: "other error",
			err:  Internal("internal"),
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsServiceUnavailable(tt.err); got != tt.want {
				t.Errorf("IsServiceUnavailable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsTimeout(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "timeout error",
			err:  &AppError{Code: ErrCodeTimeout, Message: "timeout"},
			want: true,
		},
		{
			name: "other error",
			err:  NotFound("not found"),
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTimeout(tt.err); got != tt.want {
				t.Errorf("IsTimeout() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsCanceled(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "canceled error",
			err:  &AppError{Code: ErrCodeCanceled, Message: "canceled"},
			want: true,
		},
		{
			name: "other error",
			err:  NotFound("not found"),
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCanceled(tt.err); got != tt.want {
				t.Errorf("IsCanceled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{
			name: "app error",
			err:  NotFound("not found"),
			want: ErrCodeNotFound,
		},
		{
			name: "standard error",
			err:  errors.New("standard error"),
			want: "",
		},
		{
			name: "nil error",
			err:  nil,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.want {
				t.Errorf("GetCode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetCodeOr(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		fallback ErrorCode
		want     ErrorCode
	}{
		{
			name:     "app error keeps its code",
			err:      ServiceUnavailable("unreachable"),
			fallback: ErrCodeInternal,
			want:     ErrCodeServiceUnavailable,
		},
		{
			name:     "standard error takes the fallback",
			err:      errors.New("standard error"),
			fallback: ErrCodeInternal,
			want:     ErrCodeInternal,
		},
		{
			name:     "nil error takes the fallback",
			err:      nil,
			fallback: ErrCodeInternal,
			want:     ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCodeOr(tt.err, tt.fallback); got != tt.want {
				t.Errorf("GetCodeOr() = %v, want %v", got, tt.want)
			}
		})
	}
}
