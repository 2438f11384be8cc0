// stabwatch monitors runtime stability of agent systems: it integrates
// error, exception, and panic signals into a continuous stability value and
// enforces a kill-switch when the system escapes safe bounds.
package main

import "github.com/ppiankov/stabwatch/internal/cli"

func main() {
	cli.Execute()
}
