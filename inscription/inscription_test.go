package inscription

import (
	"testing"

	"github.com/inscription-c/insc-testbed/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindContentType(t *testing.T) {
	ct, err := KindText.ContentType()
	require.NoError(t, err)
	assert.Equal(t, constants.ContentType("text/plain;charset=utf-8"), ct)

	ct, err = Kind(1).ContentType()
	require.NoError(t, err)
	assert.Equal(t, constants.ContentType("application/json;charset=utf-8"), ct)

	_, err = Kind(2).ContentType()
	assert.ErrorIs(t, err, ErrUnknownContentType)
	_, err = Kind(-1).ContentType()
	assert.ErrorIs(t, err, ErrUnknownContentType)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("json")
	require.NoError(t, err)
	assert.Equal(t, KindJson, k)

	k, err = ParseKind(" Text ")
	require.NoError(t, err)
	assert.Equal(t, KindText, k)

	_, err = ParseKind("image")
	assert.ErrorIs(t, err, ErrUnknownContentType)
}

func TestSubmissionJsonContentUnmodified(t *testing.T) {
	req := &Request{ContentType: 1, Content: `{"a":1}`}
	s, err := req.Submission(0)
	require.NoError(t, err)
	assert.Equal(t, constants.ContentTypeJsonUtf8, s.ContentType)
	assert.Equal(t, `{"a":1}`, s.Body)
	assert.NotNil(t, s.Recipient)
	assert.Empty(t, s.Recipient)
	assert.NotNil(t, s.FeeRate)
	assert.Empty(t, s.FeeRate)
}

func TestSubmissionOptionalSlots(t *testing.T) {
	req := &Request{ContentType: KindText, Content: "Hello World", Recipient: "bcrt1qdest"}
	s, err := req.Submission(10)
	require.NoError(t, err)
	assert.Equal(t, []string{"bcrt1qdest"}, s.Recipient)
	assert.Equal(t, []uint64{10}, s.FeeRate)
}

func TestSubmissionUnknownType(t *testing.T) {
	req := &Request{ContentType: 5, Content: "x"}
	_, err := req.Submission(0)
	assert.ErrorIs(t, err, ErrUnknownContentType)
}
