package user

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_User_Badge(t *testing.T) {
	tests := []struct {
		name         string
		aura, credit int
		want         string
	}{
		{name: "fresh account", want: BadgeRookie},
		{name: "just below novice", aura: 19, want: BadgeRookie},
		{name: "novice floor", aura: 20, want: BadgeNovice},
		{name: "credit counts too", aura: 10, credit: 10, want: BadgeNovice},
		{name: "intermediate floor", aura: 45, credit: 5, want: BadgeIntermediate},
		{name: "just below advanced", aura: 99, want: BadgeIntermediate},
		{name: "advanced floor", aura: 100, want: BadgeAdvanced},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usr := User{AuraPoints: tt.aura, CreditPoints: tt.credit}
			assert.Equal(t, tt.want, usr.Badge())
		})
	}
}

func Test_User_MarshalJSON(t *testing.T) {
	usr := User{Username: "awesome1", AuraPoints: 30, PasswordHash: []byte("nope")}

	data, err := json.Marshal(usr)
	assert.NoError(t, err)

	var m map[string]interface{}
	assert.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, BadgeNovice, m["badge"])
	assert.NotContains(t, m, "password_hash")
	assert.NotContains(t, string(data), "nope")
}
