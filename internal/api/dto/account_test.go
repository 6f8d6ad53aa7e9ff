package dto

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcceptInviteRequest_Input(t *testing.T) {
	tests := []struct {
		name    string
		dob     string
		want    *time.Time
		wantErr bool
	}{
		{"no date", "", nil, false},
		{"valid date", "1990-04-12", ptrTime(time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC)), false},
		{"wrong layout", "12/04/1990", nil, true},
		{"impossible day", "1990-02-30", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := AcceptInviteRequest{FirstName: " Ada ", LastName: "Lovelace", DateOfBirth: tt.dob}

			in, err := req.Input()
			if tt.wantErr {
				var dateErr *DateError
				require.True(t, errors.As(err, &dateErr))
				assert.Equal(t, tt.dob, dateErr.Value)
				assert.Equal(t, map[string]string{"date_of_birth": "Must be a valid date"}, dateErr.Details())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Ada", in.FirstName)
			assert.Equal(t, tt.want, in.DateOfBirth)
		})
	}
}

func TestUpdateInfoRequest_Update(t *testing.T) {
	bad := "1990-13-01"
	_, err := UpdateInfoRequest{DateOfBirth: &bad}.Update()
	var dateErr *DateError
	assert.True(t, errors.As(err, &dateErr))

	good := "2001-09-30"
	name := " Grace "
	u, err := UpdateInfoRequest{FirstName: &name, DateOfBirth: &good}.Update()
	require.NoError(t, err)
	require.NotNil(t, u.FirstName)
	assert.Equal(t, "Grace", *u.FirstName)
	assert.Equal(t, ptrTime(time.Date(2001, 9, 30, 0, 0, 0, 0, time.UTC)), u.DateOfBirth)

	u, err = UpdateInfoRequest{}.Update()
	require.NoError(t, err)
	assert.Nil(t, u.DateOfBirth)
}

func ptrTime(t time.Time) *time.Time { return &t }
