package middleware

import (
	"fmt"
	"log"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/sleipnir-web/sleipnir/request"
	"github.com/sleipnir-web/sleipnir/response"
	"github.com/sleipnir-web/sleipnir/router"
	"github.com/sleipnir-web/sleipnir/session"
)

// Logging provides basic request logging without colors.
func Logging(next router.Handler) router.Handler {
	return func(r *request.Request, w *response.Response, s *session.Session) {
		now := time.Now()
		next(r, w, s)
		log.Printf("%s %s %d in %s\n", r.Method, r.Path, w.StatusCode, time.Since(now))
	}
}

// LoggingColored provides colored request logging.
func LoggingColored(next router.Handler) router.Handler {
	methodStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true).Background(lipgloss.Color("12")).Width(8).Align(lipgloss.Center)

	return func(r *request.Request, w *response.Response, s *session.Session) {
		now := time.Now()
		next(r, w, s)

		statusCode := int(w.StatusCode)
		styledStatus := getStatusCodeStyle(statusCode).Render(fmt.Sprintf("%d", statusCode))
		styledMethod := methodStyle.Render(string(r.Method))

		log.Printf("%s %s %s in %s\n", styledMethod, r.Path, styledStatus, time.Since(now))
	}
}

// getStatusCodeStyle returns a lipgloss style for HTTP status codes
func getStatusCodeStyle(statusCode int) lipgloss.Style {
	switch {
	case statusCode >= 200 && statusCode < 300:
		// 2xx Success - Green
		return lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Bold(true)
	case statusCode >= 300 && statusCode < 400:
		// 3xx Redirection - Yellow
		return lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true)
	case statusCode >= 400 && statusCode < 500:
		// 4xx Client Error - Orange/Red
		return lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true)
	case statusCode >= 500:
		// 5xx Server Error - Bright Red
		return lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
	}
}
