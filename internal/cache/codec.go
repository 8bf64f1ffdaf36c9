package cache

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Первый байт закодированного значения
const (
	formatJSON byte = 'j'
	formatZstd byte = 'z'
)

// ErrCorruptValue значение в кеше не удалось разобрать
var ErrCorruptValue = errors.New("corrupt cached value")

// Codec сериализует значения кеша в JSON с опциональным zstd сжатием.
// Кодек читает оба формата независимо от настройки сжатия,
// поэтому её можно менять без очистки кеша.
type Codec struct {
	compressor   *zstd.Encoder
	decompressor *zstd.Decoder
}

// NewCodec создаёт кодек; compress включает сжатие при записи
func NewCodec(compress bool) (*Codec, error) {
	c := &Codec{}

	var err error
	if compress {
		c.compressor, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("create compressor: %w", err)
		}
	}

	c.decompressor, err = zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create decompressor: %w", err)
	}
	return c, nil
}

// Marshal кодирует v
func (c *Codec) Marshal(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if c.compressor == nil {
		return append([]byte{formatJSON}, raw...), nil
	}
	return c.compressor.EncodeAll(raw, []byte{formatZstd}), nil
}

// Unmarshal декодирует data в v
func (c *Codec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return ErrCorruptValue
	}

	payload := data[1:]
	switch data[0] {
	case formatJSON:
	case formatZstd:
		var err error
		payload, err = c.decompressor.DecodeAll(payload, nil)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCorruptValue, err)
		}
	default:
		return fmt.Errorf("%w: format byte %q", ErrCorruptValue, data[0])
	}

	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptValue, err)
	}
	return nil
}

// Close освобождает ресурсы декодера
func (c *Codec) Close() {
	if c.compressor != nil {
		_ = c.compressor.Close()
	}
	c.decompressor.Close()
}
