package snapshot

import (
	"context"
)

// ReportWriterFunc adapts a function to ReportWriter
type ReportWriterFunc func(ctx context.Context, report Report) error

func (f ReportWriterFunc) WriteReport(ctx context.Context, report Report) error {
	return f(ctx, report)
}

// Writers hands the report to each writer in order and stops at the first failure.
// Writers after a failing one never see the report, so the last writer only runs once all others succeeded.
func Writers(ws ...ReportWriter) ReportWriter {
	return ReportWriterFunc(func(ctx context.Context, report Report) error {
		for _, w := range ws {
			if err := w.WriteReport(ctx, report); err != nil {
				return err
			}
		}
		return nil
	})
}
