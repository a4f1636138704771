package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Money
		wantErr bool
	}{
		{name: "plain decimal", input: "12.34", want: 1234},
		{name: "comma separator", input: "12,34", want: 1234},
		{name: "integer", input: "200", want: 20000},
		{name: "single fraction digit", input: "5.5", want: 550},
		{name: "third decimal rounds down", input: "12.344", want: 1234},
		{name: "third decimal rounds up", input: "12.345", want: 1235},
		{name: "negative", input: "-3.21", want: -321},
		{name: "explicit plus", input: "+7.00", want: 700},
		{name: "leading dot", input: ".50", want: 50},
		{name: "whitespace trimmed", input: " 1.00 ", want: 100},
		{name: "empty", input: "", wantErr: true},
		{name: "letters", input: "12a.00", wantErr: true},
		{name: "two dots", input: "1.2.3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMoney(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMoneyString(t *testing.T) {
	assert.Equal(t, "12.34", Money(1234).String())
	assert.Equal(t, "0.05", Money(5).String())
	assert.Equal(t, "-0.05", Money(-5).String())
	assert.Equal(t, "200.00", Money(20000).String())
}

func TestIsReserved(t *testing.T) {
	assert.True(t, IsReserved("Other"))
	assert.True(t, IsReserved("other"))
	assert.True(t, IsReserved("OTHER"))
	assert.True(t, IsReserved(" Other "))
	assert.False(t, IsReserved("Groceries"))
	assert.False(t, IsReserved(""))
}
