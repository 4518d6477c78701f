// Package codec общая сериализация для файлов мира: детерминированный CBOR
// и сжатие zstd.
package codec

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
)

// ErrBadMagic данные не начинаются с ожидаемой сигнатуры
var ErrBadMagic = errors.New("codec: bad magic")

var (
	encMode cbor.EncMode
	decMode cbor.DecMode

	// zstd.Encoder и zstd.Decoder безопасны для параллельного использования
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error

	// одинаковые данные всегда дают одинаковые байты
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}

	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("codec: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("codec: zstd decoder initialization failed: " + err.Error())
	}
}

// Marshal кодирует v в CBOR (Core Deterministic Encoding)
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal декодирует CBOR в v
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// Seal кодирует v в CBOR, сжимает zstd и дописывает сигнатуру magic в начало
func Seal(magic string, v any) ([]byte, error) {
	raw, err := Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("codec: marshal: %w", err)
	}
	out := make([]byte, 0, len(magic)+len(raw)/2)
	out = append(out, magic...)
	return zstdEncoder.EncodeAll(raw, out), nil
}

// Open проверяет сигнатуру, распаковывает и декодирует данные в v
func Open(magic string, data []byte, v any) error {
	if len(data) < len(magic) || string(data[:len(magic)]) != magic {
		return ErrBadMagic
	}
	raw, err := zstdDecoder.DecodeAll(data[len(magic):], nil)
	if err != nil {
		return fmt.Errorf("codec: zstd decompress: %w", err)
	}
	if err := Unmarshal(raw, v); err != nil {
		return fmt.Errorf("codec: unmarshal: %w", err)
	}
	return nil
}
