package inscription

import (
	"errors"
	"fmt"
	"strings"

	"github.com/inscription-c/insc-testbed/constants"
)

// ErrUnknownContentType is returned when a request's content type does not
// index the type table.
var ErrUnknownContentType = errors.New("unknown content type")

// Kind indexes Types.
type Kind int

const (
	KindText Kind = iota
	KindJson
)

// Type is one entry of the content type table offered to users.
type Type struct {
	Value       string                `json:"value"`
	Label       string                `json:"label"`
	ContentType constants.ContentType `json:"content_type"`
}

// Types is the fixed content type table. Kind values are indexes into it.
var Types = []Type{
	{Value: "text", Label: "Text", ContentType: constants.ContentTypeTextPlainUtf8},
	{Value: "json", Label: "JSON", ContentType: constants.ContentTypeJsonUtf8},
}

// ContentType returns the MIME string for k.
func (k Kind) ContentType() (constants.ContentType, error) {
	if k < 0 || int(k) >= len(Types) {
		return "", fmt.Errorf("%w: index %d", ErrUnknownContentType, int(k))
	}
	return Types[k].ContentType, nil
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(Types) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return Types[k].Value
}

// ParseKind maps a table value ("text", "json") to its Kind.
func ParseKind(value string) (Kind, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	for i, t := range Types {
		if t.Value == value {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownContentType, value)
}

// Request is the user's input for one inscription. Content is not validated
// locally, the signer is the only judge of it.
type Request struct {
	ContentType Kind
	Content     string
	Recipient   string
}

// Submission is what the signer's inscribe call receives. Recipient and
// FeeRate are optional slots encoded as sequences of zero or one element.
type Submission struct {
	ContentType constants.ContentType `json:"content_type"`
	Body        string                `json:"body"`
	Recipient   []string              `json:"recipient"`
	FeeRate     []uint64              `json:"fee_rate"`
}

// Submission builds the signer payload. A zero feeRate leaves the slot empty.
func (r *Request) Submission(feeRate uint64) (*Submission, error) {
	contentType, err := r.ContentType.ContentType()
	if err != nil {
		return nil, err
	}
	s := &Submission{
		ContentType: contentType,
		Body:        r.Content,
		Recipient:   []string{},
		FeeRate:     []uint64{},
	}
	if r.Recipient != "" {
		s.Recipient = append(s.Recipient, r.Recipient)
	}
	if feeRate > 0 {
		s.FeeRate = append(s.FeeRate, feeRate)
	}
	return s, nil
}

// Receipt is the signer's answer to a successful inscribe call.
type Receipt struct {
	CommitTxID string `json:"commit_txid"`
	RevealTxID string `json:"reveal_txid"`
}
