package cdberr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessageWithoutCause(t *testing.T) {
	e := New(InvalidConfiguration, "bad elevation threshold")
	assert.Equal(t, "InvalidConfiguration: bad elevation threshold", e.Error())
	assert.Nil(t, e.Unwrap())
}

func TestErrorMessageWithCause(t *testing.T) {
	cause := errors.New("disk full")
	e := Wrap(IOError, "write tile content", cause)
	assert.Equal(t, "IOError: write tile content: disk full", e.Error())
	assert.Equal(t, cause, e.Unwrap())
}

func TestNewfFormatsMessage(t *testing.T) {
	e := Newf(OutOfRange, "level %d exceeds max %d", 30, 23)
	assert.Equal(t, "OutOfRange: level 30 exceeds max 23", e.Error())
}

func TestErrorsAsDiscriminatesByKind(t *testing.T) {
	var target *Error
	err := Wrap(MalformedCombineToken, "combine token", errors.New("bad shape"))
	assert.True(t, errors.As(err, &target))
	assert.Equal(t, MalformedCombineToken, target.Kind)
}

func TestKindStringNamesEveryKind(t *testing.T) {
	cases := map[Kind]string{
		UnsupportedDataset:     "UnsupportedDataset",
		InvalidConfiguration:   "InvalidConfiguration",
		OutOfRange:             "OutOfRange",
		MalformedCombineToken:  "MalformedCombineToken",
		IOError:                "IOError",
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.String())
	}
	assert.Equal(t, "Unknown", Kind(999).String())
}
