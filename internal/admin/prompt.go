package admin

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/gophtodo/internal/common"
	"golang.org/x/term"
)

// Terminal hides how passwords are read so tests can stub the tty.
type Terminal interface {
	IsTerminal(fd int) bool
	ReadPassword(fd int) ([]byte, error)
}

type xterm struct{}

func (xterm) IsTerminal(fd int) bool              { return term.IsTerminal(fd) }
func (xterm) ReadPassword(fd int) ([]byte, error) { return term.ReadPassword(fd) }

// readLine reads one line, trimming the newline. A final line without a
// newline is returned as is.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// promptPassword prints prompt and reads a password without echo when stdin
// is a terminal, or a plain line when it is piped.
func (a *App) promptPassword(prompt string) (string, error) {
	if _, err := fmt.Fprint(a.out, prompt); err != nil {
		return "", err
	}

	if !a.term.IsTerminal(a.fd) {
		return readLine(a.in)
	}

	pw, err := a.term.ReadPassword(a.fd)
	fmt.Fprintln(a.out)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}
