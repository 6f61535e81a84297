package logger

import (
	"fmt"
	"os"
	"time"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

func timestamp() string {
	return time.Now().Format("2006-01-02 15:04:05")
}

// Success prints a green success message.
func Success(message string) {
	fmt.Fprintf(os.Stdout, "%s[SUCCESS]%s %s | %s\n", colorGreen, colorReset, timestamp(), message)
}

// Debug prints a cyan debug message.
func Debug(message string) {
	fmt.Fprintf(os.Stdout, "%s[DEBUG]%s   %s | %s\n", colorCyan, colorReset, timestamp(), message)
}

// Warning prints a yellow warning message.
func Warning(message string) {
	fmt.Fprintf(os.Stdout, "%s[WARNING]%s %s | %s\n", colorYellow, colorReset, timestamp(), message)
}

// Error prints a red error message with the underlying error, if any.
func Error(message string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s[ERROR]%s   %s | %s: %v\n", colorRed, colorReset, timestamp(), message, err)
		return
	}
	fmt.Fprintf(os.Stderr, "%s[ERROR]%s   %s | %s\n", colorRed, colorReset, timestamp(), message)
}
