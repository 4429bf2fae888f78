package util

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/ValentinKolb/isam/lib/jet"
	"github.com/google/uuid"
)

// ParseValue converts the command line form of a value into the Go type
// a column of type coltyp stores. Date times are RFC 3339, binary values hex.
func ParseValue(coltyp jet.Coltyp, raw string) (any, error) {
	switch coltyp {
	case jet.ColtypBit:
		return strconv.ParseBool(raw)
	case jet.ColtypUnsignedByte:
		n, err := strconv.ParseUint(raw, 10, 8)
		return uint8(n), err
	case jet.ColtypShort:
		n, err := strconv.ParseInt(raw, 10, 16)
		return int16(n), err
	case jet.ColtypUnsignedShort:
		n, err := strconv.ParseUint(raw, 10, 16)
		return uint16(n), err
	case jet.ColtypLong:
		n, err := strconv.ParseInt(raw, 10, 32)
		return int32(n), err
	case jet.ColtypUnsignedLong:
		n, err := strconv.ParseUint(raw, 10, 32)
		return uint32(n), err
	case jet.ColtypCurrency, jet.ColtypLongLong:
		return strconv.ParseInt(raw, 10, 64)
	case jet.ColtypIEEESingle:
		f, err := strconv.ParseFloat(raw, 32)
		return float32(f), err
	case jet.ColtypIEEEDouble:
		return strconv.ParseFloat(raw, 64)
	case jet.ColtypDateTime:
		return time.Parse(time.RFC3339Nano, raw)
	case jet.ColtypGUID:
		return uuid.Parse(raw)
	case jet.ColtypText, jet.ColtypLongText:
		return raw, nil
	case jet.ColtypBinary, jet.ColtypLongBinary:
		return hex.DecodeString(raw)
	default:
		return nil, fmt.Errorf("unsupported column type %s", coltyp)
	}
}
