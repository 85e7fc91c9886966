package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ymhc/dailyemail/internal/config"
	"github.com/ymhc/dailyemail/internal/selection"
	"github.com/ymhc/dailyemail/internal/service"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{
			name: "success",
			err:  nil,
			code: 0,
		},
		{
			name: "missing variables",
			err:  &config.MissingEnvError{Names: []string{"EMAIL_HOST", "EMAIL_PASSWORD"}},
			code: 1,
			msg: "Error: Missing environment variables: EMAIL_HOST, EMAIL_PASSWORD\n" +
				"Please check your GitHub Secrets (or .env file locally).\n",
		},
		{
			name: "wrapped missing variable",
			err:  fmt.Errorf("send: %w", &config.MissingEnvError{Names: []string{"RECIPIENT_EMAIL"}}),
			code: 1,
			msg: "Error: Missing environment variables: RECIPIENT_EMAIL\n" +
				"Please check your GitHub Secrets (or .env file locally).\n",
		},
		{
			name: "delivery failure",
			err:  fmt.Errorf("%w: %w", service.ErrDeliveryFailed, errors.New("535 invalid credentials")),
			code: 0,
		},
		{
			name: "selection failure",
			err:  selection.ErrNotEnoughActivities,
			code: 1,
			msg:  "Error: " + selection.ErrNotEnoughActivities.Error() + "\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, msg := exitCode(tt.err)
			if code != tt.code {
				t.Errorf("code = %d, want %d", code, tt.code)
			}
			if msg != tt.msg {
				t.Errorf("msg = %q, want %q", msg, tt.msg)
			}
		})
	}
}
