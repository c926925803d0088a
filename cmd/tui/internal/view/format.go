package view

import (
	"fmt"

	"github.com/jmorgal/bankfeed/internal/intake"
)

// StatusLabel renders a queue status with its conventional color.
func StatusLabel(s intake.Status) string {
	switch s {
	case intake.StatusSuccess:
		return okStyle.Render("success")
	case intake.StatusError:
		return errorStyle.Render("error")
	case intake.StatusUploading:
		return noticeStyle.Render("uploading")
	case intake.StatusProcessing:
		return noticeStyle.Render("processing")
	default:
		return dimStyle.Render("idle")
	}
}

// FormatSize renders a byte count for the queue listing.
func FormatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
