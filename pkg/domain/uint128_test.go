package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "ghostpost/pkg/domain-errors"
)

const maxDecimal = "340282366920938463463374607431768211455"

func TestUint128_MaxValueSurvivesDecimalRoundTrip(t *testing.T) {
	u, err := ParseUint128(maxDecimal)
	require.NoError(t, err)
	assert.Equal(t, MaxUint128, u)
	assert.Equal(t, maxDecimal, u.String())
	assert.Equal(t, ^uint64(0), u.Hi())
	assert.Equal(t, ^uint64(0), u.Lo())
}

func TestUint128_RejectsNonCanonicalInput(t *testing.T) {
	for _, input := range []string{
		"",
		"340282366920938463463374607431768211456", // 2^128
		"1000000000000000000000000000000000000000",
		"-1",
		"+1",
		" 1",
		"1 ",
		"1e3",
		"0x1f",
		"12a",
	} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseUint128(input)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		})
	}
}

func TestUint128_LittleEndianLayout(t *testing.T) {
	u := NewUint128(0x0102030405060708, 0x1112131415161718)
	b := u.LittleEndian()
	assert.Equal(t, byte(0x18), b[0])
	assert.Equal(t, byte(0x11), b[7])
	assert.Equal(t, byte(0x08), b[8])
	assert.Equal(t, byte(0x01), b[15])
	assert.Equal(t, u, Uint128FromLittleEndian(b))

	one := Uint128From64(1).LittleEndian()
	assert.Equal(t, [16]byte{1}, one)
}

func TestTicketJSONUsesDecimalStrings(t *testing.T) {
	type payload struct {
		Ticket Ticket   `json:"ticket"`
		Nonce  Nonce    `json:"nonce"`
		List   []Ticket `json:"list"`
	}
	in := payload{
		Ticket: TicketFrom(MaxUint128),
		Nonce:  NonceFrom64(42),
		List:   []Ticket{TicketFrom64(1001), TicketFrom64(1002)},
	}
	raw, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ticket":"`+maxDecimal+`","nonce":"42","list":["1001","1002"]}`, string(raw))

	var out payload
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, in, out)
}

func TestParseTickets(t *testing.T) {
	tickets, err := ParseTickets([]string{"1001", "1002"})
	require.NoError(t, err)
	assert.Equal(t, []Ticket{TicketFrom64(1001), TicketFrom64(1002)}, tickets)
	assert.Equal(t, []string{"1001", "1002"}, FormatTickets(tickets))

	_, err = ParseTickets([]string{"1001", "oops"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}
