package colors

import (
	"fmt"
	"io"
)

// COLOR is an ANSI escape prefix applied around printed text.
type COLOR string

const (
	RESET  COLOR = "\033[0m"
	RED    COLOR = "\033[31m"
	GREEN  COLOR = "\033[32m"
	YELLOW COLOR = "\033[33m"
	BLUE   COLOR = "\033[34m"
	PURPLE COLOR = "\033[35m"
	CYAN   COLOR = "\033[36m"
	GREY   COLOR = "\033[90m"
	BOLD   COLOR = "\033[1m"
)

func (c COLOR) Printf(format string, args ...any) {
	fmt.Printf(string(c)+format+string(RESET), args...)
}

func (c COLOR) Println(args ...any) {
	fmt.Print(string(c))
	fmt.Println(args...)
	fmt.Print(string(RESET))
}

func (c COLOR) Fprintf(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, string(c)+format+string(RESET), args...)
}

func (c COLOR) Fprintln(w io.Writer, args ...any) {
	fmt.Fprint(w, string(c))
	fmt.Fprintln(w, args...)
	fmt.Fprint(w, string(RESET))
}

func (c COLOR) Sprintf(format string, args ...any) string {
	return string(c) + fmt.Sprintf(format, args...) + string(RESET)
}
