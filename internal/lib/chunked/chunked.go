// Package chunked копирует поток блоками фиксированного размера.
//
// Каждый полный блок уходит в приёмник одной записью, последний блок
// может быть короче. Содержимое и порядок байт не меняются.
package chunked

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// DefaultChunkSize размер блока по умолчанию, 256 KiB.
const DefaultChunkSize = 256 * 1024

// ErrInvalidChunkSize размер блока должен быть положительным.
var ErrInvalidChunkSize = errors.New("chunk size must be positive")

// Flusher приёмник, которому после каждого блока нужно сбросить буфер.
type Flusher interface {
	Flush() error
}

// Copy читает src блоками по chunkSize байт и пишет их в dst.
// Если dst реализует Flusher, после каждой записи вызывается Flush.
// Между блоками проверяется ctx: отменённый контекст останавливает чтение.
// Возвращает число записанных байт.
func Copy(ctx context.Context, dst io.Writer, src io.Reader, chunkSize int) (int64, error) {
	const op = "chunked.Copy"

	if chunkSize <= 0 {
		return 0, fmt.Errorf("%s: %w", op, ErrInvalidChunkSize)
	}

	flusher, _ := dst.(Flusher)
	buf := make([]byte, chunkSize)
	var written int64

	for {
		if err := ctx.Err(); err != nil {
			return written, fmt.Errorf("%s: %w", op, err)
		}

		n, readErr := io.ReadFull(src, buf)
		last := errors.Is(readErr, io.EOF) || errors.Is(readErr, io.ErrUnexpectedEOF)
		if readErr != nil && !last {
			return written, fmt.Errorf("%s: read: %w", op, readErr)
		}

		if n > 0 {
			w, err := dst.Write(buf[:n])
			written += int64(w)
			if err != nil {
				return written, fmt.Errorf("%s: write: %w", op, err)
			}
			if w != n {
				return written, fmt.Errorf("%s: write: %w", op, io.ErrShortWrite)
			}
			if flusher != nil {
				if err := flusher.Flush(); err != nil {
					return written, fmt.Errorf("%s: flush: %w", op, err)
				}
			}
		}

		if last {
			return written, nil
		}
	}
}
