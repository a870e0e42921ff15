package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCredential(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)

	t.Run("ExpiresAt", func(t *testing.T) {
		c := &Credential{ExpiresIn: 3600, ObtainedAt: 1000}
		assert.Equal(t, int64(3_601_000), c.ExpiresAt())
		assert.Equal(t, time.UnixMilli(3_601_000), c.ExpiresAtTime())
	})

	t.Run("IsValidAt", func(t *testing.T) {
		tc := []struct {
			name       string
			obtainedAt int64
			expiresIn  int64
			want       bool
		}{
			{name: "fresh", obtainedAt: now.UnixMilli(), expiresIn: 3600, want: true},
			{name: "exactly expired", obtainedAt: now.UnixMilli() - 3_600_000, expiresIn: 3600, want: false},
			{name: "inside margin", obtainedAt: now.UnixMilli() - 3_580_000, expiresIn: 3600, want: false},
			{name: "one ms before margin", obtainedAt: now.UnixMilli() - 3_569_999, expiresIn: 3600, want: true},
			{name: "margin boundary", obtainedAt: now.UnixMilli() - 3_570_000, expiresIn: 3600, want: false},
			{name: "zero lifetime", obtainedAt: now.UnixMilli(), expiresIn: 0, want: false},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				c := &Credential{AccessToken: "A", ObtainedAt: tt.obtainedAt, ExpiresIn: tt.expiresIn}
				assert.Equal(t, tt.want, c.IsValidAt(now, SafetyMargin))

				want := now.UnixMilli() < tt.obtainedAt+tt.expiresIn*1000-30_000
				assert.Equal(t, want, c.IsValidAt(now, SafetyMargin))
			})
		}
	})

	t.Run("Validate", func(t *testing.T) {
		assert.NoError(t, (&Credential{AccessToken: "A", ExpiresIn: 10}).Validate())
		assert.Error(t, (&Credential{ExpiresIn: 10}).Validate())
		assert.Error(t, (&Credential{AccessToken: "A", ExpiresIn: -1}).Validate())
	})

	t.Run("Clone", func(t *testing.T) {
		c := &Credential{AccessToken: "A", RefreshToken: "R"}
		cp := c.Clone()
		cp.AccessToken = "B"
		assert.Equal(t, "A", c.AccessToken)
		assert.True(t, cp.CanRefresh())

		var nilCred *Credential
		assert.Nil(t, nilCred.Clone())
	})
}
