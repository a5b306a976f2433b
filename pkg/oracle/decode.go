package oracle

import (
	"encoding/binary"
	"fmt"
	"math"

	bin "github.com/gagliardetto/binary"
)

// AccountLayoutSize is the size of the price record at the start of an oracle account.
//
//	offset 0  float64 price       (little-endian)
//	offset 8  uint64  timestamp   (ms since epoch)
//	offset 16 float64 confidence
//	offset 24 uint8   status      (0=inactive, 1=active, 2=stale)
const AccountLayoutSize = 25

// DecodeQuote decodes the price record held in raw oracle account data.
// Trailing bytes after the record are ignored.
func DecodeQuote(data []byte) (Quote, error) {
	if len(data) < AccountLayoutSize {
		return Quote{}, fmt.Errorf("%w: need %d bytes, got %d", ErrDecode, AccountLayoutSize, len(data))
	}

	dec := bin.NewBinDecoder(data[:AccountLayoutSize])

	price, err := dec.ReadFloat64(binary.LittleEndian)
	if err != nil {
		return Quote{}, fmt.Errorf("%w: price: %v", ErrDecode, err)
	}
	timestamp, err := dec.ReadUint64(binary.LittleEndian)
	if err != nil {
		return Quote{}, fmt.Errorf("%w: timestamp: %v", ErrDecode, err)
	}
	confidence, err := dec.ReadFloat64(binary.LittleEndian)
	if err != nil {
		return Quote{}, fmt.Errorf("%w: confidence: %v", ErrDecode, err)
	}
	status, err := dec.ReadUint8()
	if err != nil {
		return Quote{}, fmt.Errorf("%w: status: %v", ErrDecode, err)
	}

	if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		return Quote{}, fmt.Errorf("%w: invalid price %v", ErrDecode, price)
	}
	if timestamp > math.MaxInt64 {
		return Quote{}, fmt.Errorf("%w: timestamp out of range", ErrDecode)
	}
	if math.IsNaN(confidence) {
		return Quote{}, fmt.Errorf("%w: confidence is NaN", ErrDecode)
	}

	return Quote{
		Price:      price,
		Timestamp:  int64(timestamp),
		Confidence: clamp01(confidence),
		Status:     StatusFromCode(status),
	}, nil
}

// EncodeQuote writes q in the account layout read by DecodeQuote.
func EncodeQuote(q Quote) []byte {
	buf := make([]byte, AccountLayoutSize)
	binary.LittleEndian.PutUint64(buf[0:8], math.Float64bits(q.Price))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(q.Timestamp))
	binary.LittleEndian.PutUint64(buf[16:24], math.Float64bits(q.Confidence))
	buf[24] = q.Status.Code()
	return buf
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
