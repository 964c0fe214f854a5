package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBig(t *testing.T) {
	v, ok := ParseBig("123456789012345678901234567890")
	assert.True(t, ok)
	assert.Equal(t, "123456789012345678901234567890", v.String())

	_, ok = ParseBig("not a number")
	assert.False(t, ok)
}

func TestDecimalStringRe(t *testing.T) {
	assert.True(t, decimalStringRe.MatchString("0"))
	assert.True(t, decimalStringRe.MatchString("400000000000000000000"))
	assert.False(t, decimalStringRe.MatchString(""))
	assert.False(t, decimalStringRe.MatchString("-1"))
	assert.False(t, decimalStringRe.MatchString("1.5"))
	assert.False(t, decimalStringRe.MatchString("0x10"))
}

func TestSanitizeStruct(t *testing.T) {
	req := RegisterRequest{Address: "  0xalice<script>  ", Password: "secret"}
	SanitizeStruct(&req)
	assert.Equal(t, "0xalice&lt;script&gt;", req.Address)
	assert.Equal(t, "secret", req.Password)
}
