package seqof

import (
	"encoding/xml"
	"errors"
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"fortio.org/safecast"

	"tycodec/internal/bitbuf"
	"tycodec/internal/descriptor"
	"tycodec/internal/encattr"
	"tycodec/internal/jsontok"
	"tycodec/internal/tags"
)

// ErrInvalidToken is returned by a JSON element decoder that meets a token it cannot start
// with; the token is left unread.
var ErrInvalidToken = errors.New("invalid token")

// Element codecs, one interface per format. Implementations are built from the element
// descriptor.
type (
	RAWCodec[T any] interface {
		EncodeRAW(w *bitbuf.Writer, v T) error
		DecodeRAW(r *bitbuf.Reader) (T, error)
	}
	XERCodec[T any] interface {
		XERName() string
		CanStart(name xml.Name) bool
		XERValue(v T) (string, error)
		ParseXERValue(s string) (T, error)
	}
	JSONCodec[T any] interface {
		EncodeJSON(w *jsontok.Writer, v T) error
		DecodeJSON(tz *jsontok.Tokenizer) (T, error)
	}
	TEXTCodec[T any] interface {
		EncodeTEXT(v T) (string, error)
		// DecodeTEXT decodes a prefix of s and returns the consumed length.
		DecodeTEXT(s string) (T, int, error)
	}
	BERCodec[T any] interface {
		EncodeBER(v T) ([]byte, error)
		DecodeBER(b []byte) (T, int, error)
	}
)

// Starter is anything that can tell whether an XML element name begins one of its values.
type Starter interface {
	CanStart(name xml.Name) bool
}

// StartNames is a Starter over a fixed set of element names.
type StartNames []xml.Name

func (s StartNames) CanStart(name xml.Name) bool {
	return slices.Contains(s, name)
}

func rawOf(d *descriptor.Descriptor) descriptor.RAW {
	if d != nil && d.RAW != nil {
		return *d.RAW
	}
	return descriptor.RAW{PointerTo: -1, PtrBase: -1}
}

func textOf(d *descriptor.Descriptor) descriptor.TEXT {
	if d != nil && d.TEXT != nil {
		return *d.TEXT
	}
	return descriptor.TEXT{Coding: encattr.TextParams{MaxLength: -1}, Decoding: encattr.TextParams{MaxLength: -1}}
}

func xerName(d *descriptor.Descriptor, fallback string) string {
	if d != nil && d.XER != nil && d.XER.Name != "" {
		return d.XER.Name
	}
	return fallback
}

// xerStarts matches an element name against the name and namespace of d.
func xerStarts(d *descriptor.Descriptor, fallback string, name xml.Name) bool {
	space := ""
	if d != nil && d.XER != nil {
		space = d.XER.NamespaceURI
	}
	return name.Local == xerName(d, fallback) && name.Space == space
}

func berTags(d *descriptor.Descriptor, fallback tags.Value) []tags.Value {
	if d != nil && d.BER != nil && len(d.BER.Tags) > 0 {
		return d.BER.Tags
	}
	return []tags.Value{fallback}
}

// Int ------------------------------------------------------------------------

// Int is the element codec of integer types.
type Int struct {
	D *descriptor.Descriptor
}

func (c Int) fieldLength() int {
	if fl := rawOf(c.D).FieldLength; fl > 0 {
		return fl
	}
	return 8
}

func (c Int) EncodeRAW(w *bitbuf.Writer, v int64) error {
	p := rawOf(c.D)
	fl := c.fieldLength()
	u, err := intBits(v, fl, p.Sign)
	if err != nil {
		return err
	}
	if p.ByteOrder == encattr.OrderMSB && fl%8 == 0 {
		u = reverseOctets(u, fl/8)
	}
	w.PutBits(u, fl, p.BitOrderInField == encattr.OrderMSB)
	return nil
}

func (c Int) DecodeRAW(r *bitbuf.Reader) (int64, error) {
	p := rawOf(c.D)
	fl := c.fieldLength()
	u, err := r.Bits(fl, p.BitOrderInField == encattr.OrderMSB)
	if err != nil {
		return 0, err
	}
	if p.ByteOrder == encattr.OrderMSB && fl%8 == 0 {
		u = reverseOctets(u, fl/8)
	}
	return intValue(u, fl, p.Sign)
}

func intBits(v int64, fl int, sign encattr.Sign) (uint64, error) {
	if fl > 64 {
		return 0, fmt.Errorf("FIELDLENGTH %d exceeds 64 bits", fl)
	}
	mask := uint64(math.MaxUint64)
	if fl < 64 {
		mask = 1<<fl - 1
	}
	switch sign {
	case encattr.SignTwosComplement:
		if fl < 64 {
			lim := int64(1) << (fl - 1)
			if v < -lim || v >= lim {
				return 0, fmt.Errorf("%d does not fit %d bits", v, fl)
			}
		}
		return uint64(v) & mask, nil
	case encattr.SignBit:
		mag := v
		var s uint64
		if v < 0 {
			mag, s = -v, 1
		}
		if fl < 64 && mag >= int64(1)<<(fl-1) {
			return 0, fmt.Errorf("%d does not fit %d bits", v, fl)
		}
		return uint64(mag) | s<<(fl-1), nil
	default:
		if v < 0 {
			return 0, fmt.Errorf("negative value %d without a sign encoding", v)
		}
		if fl < 64 && uint64(v) > mask {
			return 0, fmt.Errorf("%d does not fit %d bits", v, fl)
		}
		return uint64(v), nil
	}
}

func intValue(u uint64, fl int, sign encattr.Sign) (int64, error) {
	switch sign {
	case encattr.SignTwosComplement:
		if fl < 64 && u&(1<<(fl-1)) != 0 {
			u |= ^uint64(0) << fl
		}
		return int64(u), nil
	case encattr.SignBit:
		top := uint64(1) << (fl - 1)
		mag, err := safecast.Conv[int64](u &^ top)
		if err != nil {
			return 0, err
		}
		if u&top != 0 {
			return -mag, nil
		}
		return mag, nil
	default:
		return safecast.Conv[int64](u)
	}
}

func reverseOctets(u uint64, n int) uint64 {
	var out uint64
	for range n {
		out = out<<8 | u&0xFF
		u >>= 8
	}
	return out
}

func (c Int) XERName() string                { return xerName(c.D, "INTEGER") }
func (c Int) CanStart(name xml.Name) bool    { return xerStarts(c.D, "INTEGER", name) }
func (Int) XERValue(v int64) (string, error) { return strconv.FormatInt(v, 10), nil }

func (Int) ParseXERValue(s string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
}

func (Int) EncodeJSON(w *jsontok.Writer, v int64) error {
	w.Int(v)
	return nil
}

func (Int) DecodeJSON(tz *jsontok.Tokenizer) (int64, error) {
	tok := tz.Next()
	if tok.Kind != jsontok.KindNumber {
		tz.Unread(tok)
		return 0, ErrInvalidToken
	}
	v, err := strconv.ParseInt(tok.Text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("integer value %s: %w", tok.Text, err)
	}
	return v, nil
}

func (c Int) EncodeTEXT(v int64) (string, error) {
	p := textOf(c.D).Coding
	s := strconv.FormatInt(v, 10)
	if p.MaxLength >= 0 && len(s) > p.MaxLength {
		return "", fmt.Errorf("%s is longer than %d characters", s, p.MaxLength)
	}
	if len(s) >= p.MinLength {
		return s, nil
	}
	if p.LeadingZero {
		digits := strings.TrimPrefix(s, "-")
		return s[:len(s)-len(digits)] + strings.Repeat("0", p.MinLength-len(s)) + digits, nil
	}
	return justify(s, p), nil
}

func (c Int) DecodeTEXT(s string) (int64, int, error) {
	i := 0
	for i < len(s) && s[i] == ' ' {
		i++
	}
	start := i
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		i++
	}
	digits := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == digits {
		return 0, 0, fmt.Errorf("no integer at %q", s)
	}
	v, err := strconv.ParseInt(s[start:i], 10, 64)
	if err != nil {
		return 0, 0, err
	}
	for i < len(s) && s[i] == ' ' {
		i++
	}
	return v, i, nil
}

func (c Int) EncodeBER(v int64) ([]byte, error) {
	return berWrap(berTags(c.D, tags.Value{Class: tags.Universal, Number: 2}), intContent(v), false), nil
}

func (c Int) DecodeBER(b []byte) (int64, int, error) {
	content, n, err := berUnwrap(b, berTags(c.D, tags.Value{Class: tags.Universal, Number: 2}), false)
	if err != nil {
		return 0, 0, err
	}
	if len(content) == 0 || len(content) > 8 {
		return 0, 0, fmt.Errorf("INTEGER content of %d octets", len(content))
	}
	v := int64(int8(content[0]))
	for _, o := range content[1:] {
		v = v<<8 | int64(o)
	}
	return v, n, nil
}

// intContent is the minimal two's complement big-endian form.
func intContent(v int64) []byte {
	out := []byte{byte(v)}
	for v >= 0x80 || v < -0x80 {
		v >>= 8
		out = append([]byte{byte(v)}, out...)
	}
	return out
}

func justify(s string, p encattr.TextParams) string {
	pad := p.MinLength - len(s)
	switch p.Just {
	case encattr.JustifyLeft:
		return s + strings.Repeat(" ", pad)
	case encattr.JustifyCenter:
		return strings.Repeat(" ", pad/2) + s + strings.Repeat(" ", pad-pad/2)
	default:
		return strings.Repeat(" ", pad) + s
	}
}

// String --------------------------------------------------------------------

// String is the element codec of character and octet string types.
type String struct {
	D *descriptor.Descriptor
}

func (c String) EncodeRAW(w *bitbuf.Writer, v string) error {
	fl := rawOf(c.D).FieldLength
	if fl == 0 || fl%8 != 0 {
		return fmt.Errorf("string element needs a whole-octet FIELDLENGTH, have %d", fl)
	}
	if len(v) != fl/8 {
		return fmt.Errorf("string of %d octets in a %d bit field", len(v), fl)
	}
	w.PutBytes([]byte(v))
	return nil
}

func (c String) DecodeRAW(r *bitbuf.Reader) (string, error) {
	fl := rawOf(c.D).FieldLength
	if fl == 0 || fl%8 != 0 {
		return "", fmt.Errorf("string element needs a whole-octet FIELDLENGTH, have %d", fl)
	}
	b, err := r.Bytes(fl / 8)
	return string(b), err
}

func (c String) XERName() string                      { return xerName(c.D, "CHARSTRING") }
func (c String) CanStart(name xml.Name) bool          { return xerStarts(c.D, "CHARSTRING", name) }
func (String) XERValue(v string) (string, error)      { return v, nil }
func (String) ParseXERValue(s string) (string, error) { return s, nil }

func (String) EncodeJSON(w *jsontok.Writer, v string) error {
	w.String(v)
	return nil
}

func (String) DecodeJSON(tz *jsontok.Tokenizer) (string, error) {
	tok := tz.Next()
	if tok.Kind != jsontok.KindString {
		tz.Unread(tok)
		return "", ErrInvalidToken
	}
	return tok.Text, nil
}

func (c String) EncodeTEXT(v string) (string, error) {
	p := textOf(c.D).Coding
	switch p.Convert {
	case encattr.ConvertLower:
		v = strings.ToLower(v)
	case encattr.ConvertUpper:
		v = strings.ToUpper(v)
	}
	if len(v) < p.MinLength {
		v = justify(v, p)
	}
	return v, nil
}

func (c String) DecodeTEXT(s string) (string, int, error) {
	t := textOf(c.D)
	if t.DecodeToken == "" {
		return s, len(s), nil
	}
	re, err := regexp.Compile("^(?:" + t.DecodeToken + ")")
	if err != nil {
		return "", 0, fmt.Errorf("decode token %q: %w", t.DecodeToken, err)
	}
	loc := re.FindStringIndex(s)
	if loc == nil {
		return "", 0, fmt.Errorf("%q does not match %q", s, t.DecodeToken)
	}
	return s[:loc[1]], loc[1], nil
}

func (c String) EncodeBER(v string) ([]byte, error) {
	return berWrap(berTags(c.D, tags.Value{Class: tags.Universal, Number: 4}), []byte(v), false), nil
}

func (c String) DecodeBER(b []byte) (string, int, error) {
	content, n, err := berUnwrap(b, berTags(c.D, tags.Value{Class: tags.Universal, Number: 4}), false)
	return string(content), n, err
}

// AnyElement is the element codec of ANY-ELEMENT string lists: values are whole XML
// elements kept verbatim.
type AnyElement struct {
	String
}

func (AnyElement) CanStart(xml.Name) bool { return true }
