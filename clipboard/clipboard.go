// Package clipboard copies the token contract address for visitors.
package clipboard

import (
	"context"
	"fmt"
	"log"
	"strings"

	"neonx-web/errs"
)

// Writer is whatever can place text on the visitor's clipboard.
type Writer interface {
	WriteText(ctx context.Context, text string) error
}

// WriterFunc adapts a function to Writer.
type WriterFunc func(ctx context.Context, text string) error

func (f WriterFunc) WriteText(ctx context.Context, text string) error { return f(ctx, text) }

// CopiedMessage is shown after a successful copy.
const CopiedMessage = "Token address copied to clipboard!"

// CopyAddress writes address to w. A write failure is logged and returned
// wrapped in errs.ErrClipboardUnavailable; callers treat it as non-fatal.
func CopyAddress(ctx context.Context, w Writer, address string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", fmt.Errorf("token address is empty: %w", errs.ErrInvalidArgument)
	}
	if w == nil {
		log.Printf("[WARN] could not copy text: no clipboard writer")
		return "", fmt.Errorf("no clipboard writer: %w", errs.ErrClipboardUnavailable)
	}
	if err := w.WriteText(ctx, address); err != nil {
		log.Printf("[WARN] could not copy text: %v", err)
		return "", fmt.Errorf("%w: %v", errs.ErrClipboardUnavailable, err)
	}
	return CopiedMessage, nil
}
