package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash(t *testing.T) {
	tests := []struct {
		name  string
		plain string
	}{
		{name: "regular password", plain: "password123"},
		{name: "password with special chars", plain: "p@ssw0rd!@#$%^&*()"},
		{name: "unicode password", plain: "пароль-надёжный"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := Hash(tt.plain)
			require.NoError(t, err)
			assert.NotEmpty(t, hash)
			assert.NotEqual(t, tt.plain, hash)

			assert.NoError(t, Compare(hash, tt.plain))
		})
	}
}

func TestHash_SaltedPerCall(t *testing.T) {
	first, err := Hash("same-password")
	require.NoError(t, err)
	second, err := Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestCompare(t *testing.T) {
	correctHash, err := Hash("correct_password")
	require.NoError(t, err)

	tests := []struct {
		name    string
		hash    string
		plain   string
		wantErr error
		anyErr  bool
	}{
		{name: "matching password", hash: correctHash, plain: "correct_password"},
		{name: "wrong password", hash: correctHash, plain: "wrong_password", wantErr: ErrMismatch},
		{name: "empty password", hash: correctHash, plain: "", wantErr: ErrMismatch},
		{name: "corrupted hash", hash: "not-a-bcrypt-hash", plain: "correct_password", anyErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Compare(tt.hash, tt.plain)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.anyErr:
				assert.Error(t, err)
				assert.NotErrorIs(t, err, ErrMismatch)
			default:
				assert.NoError(t, err)
			}
		})
	}
}
