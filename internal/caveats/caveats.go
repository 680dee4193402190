// Package caveats renders the post-install message telling the user how to
// point their shell at the installed toolkit.
package caveats

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/fatih/color"
)

// Data fills in the message.
type Data struct {
	Prefix       string
	SitePackages string // versioned site-packages directory under Prefix
}

// RDBase returns the data directory exported as RDBASE.
func (d Data) RDBase() string {
	return filepath.Join(d.Prefix, "share", "RDKit")
}

// Render writes the caveats to w. Headings are coloured unless
// color.NoColor is set.
func Render(w io.Writer, d Data) error {
	heading := color.New(color.Bold, color.FgYellow)
	if _, err := heading.Fprintln(w, "==> Caveats"); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, `You still have to add RDBASE to your environment variables and update
PYTHONPATH.

For Bash, put something like this in your $HOME/.bashrc

  export RDBASE=%s
  export PYTHONPATH=$PYTHONPATH:%s

`, d.RDBase(), d.SitePackages)
	return err
}
