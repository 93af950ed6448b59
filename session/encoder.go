package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/MrEthical07/goConsole/identity"
)

const (
	formatVersionCurrent = 2
	// v1 records carry no user metadata.
	formatVersionV1 = 1

	maxFieldLen     = math.MaxUint16
	maxMetadataKeys = math.MaxUint8
)

// ErrUnsupportedVersion is returned by Decode for an unknown format byte.
var ErrUnsupportedVersion = errors.New("unsupported session format version")

// Encode serializes s. Field order: id, user id, email, access token, refresh
// token, metadata (count + pairs, sorted by key), created-at and expires-at as
// big-endian unix seconds.
func Encode(s *identity.Session) ([]byte, error) {
	if s == nil {
		return nil, errors.New("nil session")
	}

	var buf bytes.Buffer
	buf.WriteByte(formatVersionCurrent)

	for _, field := range []struct {
		name  string
		value string
	}{
		{"session id", s.ID},
		{"user id", s.User.ID},
		{"email", s.User.Email},
		{"access token", s.AccessToken},
		{"refresh token", s.RefreshToken},
	} {
		if err := writeString(&buf, field.value); err != nil {
			return nil, fmt.Errorf("%s: %w", field.name, err)
		}
	}

	if len(s.User.Metadata) > maxMetadataKeys {
		return nil, errors.New("too many metadata entries")
	}
	keys := make([]string, 0, len(s.User.Metadata))
	for k := range s.User.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	buf.WriteByte(byte(len(keys)))
	for _, k := range keys {
		if err := writeString(&buf, k); err != nil {
			return nil, fmt.Errorf("metadata key: %w", err)
		}
		if err := writeString(&buf, s.User.Metadata[k]); err != nil {
			return nil, fmt.Errorf("metadata %q: %w", k, err)
		}
	}

	if err := binary.Write(&buf, binary.BigEndian, unixOrZero(s.User.CreatedAt)); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, unixOrZero(s.ExpiresAt)); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode parses data produced by Encode (current or v1 format).
func Decode(data []byte) (*identity.Session, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != formatVersionCurrent && version != formatVersionV1 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	s := &identity.Session{}
	for _, dst := range []*string{&s.ID, &s.User.ID, &s.User.Email, &s.AccessToken, &s.RefreshToken} {
		if *dst, err = readString(reader); err != nil {
			return nil, err
		}
	}

	if version == formatVersionCurrent {
		count, err := reader.ReadByte()
		if err != nil {
			return nil, err
		}
		if count > 0 {
			s.User.Metadata = make(map[string]string, count)
		}
		for i := 0; i < int(count); i++ {
			k, err := readString(reader)
			if err != nil {
				return nil, err
			}
			v, err := readString(reader)
			if err != nil {
				return nil, err
			}
			s.User.Metadata[k] = v
		}
	}

	var createdAt, expiresAt int64
	if err := binary.Read(reader, binary.BigEndian, &createdAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &expiresAt); err != nil {
		return nil, err
	}
	s.User.CreatedAt = timeOrZero(createdAt)
	s.ExpiresAt = timeOrZero(expiresAt)

	if reader.Len() != 0 {
		return nil, errors.New("trailing bytes after session record")
	}

	return s, nil
}

func writeString(buf *bytes.Buffer, v string) error {
	if len(v) > maxFieldLen {
		return errors.New("field too long")
	}
	var n [2]byte
	binary.BigEndian.PutUint16(n[:], uint16(len(v)))
	buf.Write(n[:])
	buf.WriteString(v)
	return nil
}

func readString(r *bytes.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return "", err
	}
	if int(n) > r.Len() {
		return "", io.ErrUnexpectedEOF
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func timeOrZero(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
