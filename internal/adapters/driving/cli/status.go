package cli

import (
	"fmt"
	"io"

	"github.com/custodia-labs/docsrag/internal/core/domain"
	"github.com/custodia-labs/docsrag/internal/core/ports/driving"
)

// statusPrinter writes retrieval progress lines, one per event.
type statusPrinter struct {
	w io.Writer
}

var _ driving.StatusObserver = statusPrinter{}

func (p statusPrinter) OnStatus(event domain.StatusEvent) {
	if event.Message == "" {
		return
	}
	fmt.Fprintln(p.w, event.Message)
}
