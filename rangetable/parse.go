package rangetable

import (
	"bufio"
	stderrors "errors"
	"io"
	"strconv"
	"strings"

	"github.com/go-errors/errors"
)

// ErrInvalidAddress is returned for strings that do not parse as an IPv4
// dotted quad. A plain error so it survives go-errors wrapping and matches
// under errors.Is.
var ErrInvalidAddress = stderrors.New("invalid address")

// Address is the canonical numeric form of an IPv4 address. Immutable once
// parsed.
type Address uint32

// ParseAddress parses a dotted-quad address into its canonical form.
func ParseAddress(s string) (Address, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return 0, errors.WrapPrefix(ErrInvalidAddress, strconv.Quote(s), 0)
	}
	var v uint32
	for _, p := range parts {
		n, err := strconv.ParseUint(p, 10, 8)
		if err != nil || (len(p) > 1 && p[0] == '0') {
			return 0, errors.WrapPrefix(ErrInvalidAddress, strconv.Quote(s), 0)
		}
		v = v<<8 | uint32(n)
	}
	return Address(v), nil
}

// String renders the address back in dotted-quad form.
func (a Address) String() string {
	v := uint32(a)
	return strconv.Itoa(int(v>>24)) + "." +
		strconv.Itoa(int(v>>16&0xff)) + "." +
		strconv.Itoa(int(v>>8&0xff)) + "." +
		strconv.Itoa(int(v&0xff))
}

// Row is one raw dataset row: an interval with its jurisdiction, not yet
// validated against the rest of the table.
type Row struct {
	Start        Address
	End          Address
	Jurisdiction string
}

// NewRow parses one dataset row from its string fields.
func NewRow(start, end, jurisdiction string) (Row, error) {
	s, err := ParseAddress(strings.TrimSpace(start))
	if err != nil {
		return Row{}, err
	}
	e, err := ParseAddress(strings.TrimSpace(end))
	if err != nil {
		return Row{}, err
	}
	return Row{Start: s, End: e, Jurisdiction: strings.TrimSpace(jurisdiction)}, nil
}

// ParseDataset reads the newline-delimited dataset format produced by the
// external geo-location source: "start_address,end_address,jurisdiction"
// per line. Blank lines and lines starting with '#' are skipped. Rows come
// back in input order; New does the sorting and validation.
func ParseDataset(r io.Reader) ([]Row, error) {
	var rows []Row
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Split(text, ",")
		if len(fields) != 3 {
			return nil, errors.Errorf("dataset line %d: want 3 fields, got %d", line, len(fields))
		}
		row, err := NewRow(fields[0], fields[1], fields[2])
		if err != nil {
			return nil, errors.WrapPrefix(err, "dataset line "+strconv.Itoa(line), 0)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.WrapPrefix(err, "reading dataset", 0)
	}
	return rows, nil
}
