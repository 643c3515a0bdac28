package storage

import (
	"database/sql/driver"
	"encoding/binary"
	"fmt"
	"math"

	sqlite "modernc.org/sqlite"
)

// distanceFunc is the SQL name of the cosine distance function
const distanceFunc = "vec_distance_cosine"

func init() {
	if err := sqlite.RegisterDeterministicScalarFunction(distanceFunc, 2, sqlCosineDistance); err != nil {
		panic(fmt.Sprintf("register %s: %v", distanceFunc, err))
	}
}

// sqlCosineDistance returns 1 - cos(a, b). Zero or empty vectors are at
// distance 1 from everything.
func sqlCosineDistance(ctx *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("%s expects 2 arguments", distanceFunc)
	}
	a, err := decodeValue(args[0])
	if err != nil {
		return nil, err
	}
	b, err := decodeValue(args[1])
	if err != nil {
		return nil, err
	}
	if len(a) == 0 || len(b) == 0 {
		return float64(1), nil
	}
	if len(a) != len(b) {
		return nil, fmt.Errorf("%s: dimension mismatch %d vs %d", distanceFunc, len(a), len(b))
	}
	return CosineDistance(a, b), nil
}

// CosineDistance is 1 - cosine similarity, in [0, 2]
func CosineDistance(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		af, bf := float64(a[i]), float64(b[i])
		dot += af * bf
		na += af * af
		nb += bf * bf
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

// encodeVector packs a vector as little-endian float32. nil stays nil so
// it binds as SQL NULL.
func encodeVector(v []float32) any {
	if len(v) == 0 {
		return nil
	}
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) ([]float32, error) {
	if len(b) == 0 {
		return nil, nil
	}
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d not a multiple of 4", len(b))
	}
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out, nil
}

func decodeValue(v driver.Value) ([]float32, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		return decodeVector(x)
	case string:
		return decodeVector([]byte(x))
	default:
		return nil, fmt.Errorf("%s: unsupported argument type %T", distanceFunc, v)
	}
}
