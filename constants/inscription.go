package constants

// ContentType is the MIME string sent to the signer with an inscription body.
type ContentType string

func (t ContentType) String() string {
	return string(t)
}

const (
	ContentTypeTextPlainUtf8 ContentType = "text/plain;charset=utf-8"
	ContentTypeJsonUtf8      ContentType = "application/json;charset=utf-8"
)
