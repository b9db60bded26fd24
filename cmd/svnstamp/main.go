// Svnstamp prints deterministic build stamps for Subversion working copies.
package main

import "github.com/albertocavalcante/svnstamp/cmd/svnstamp/internal/cli"

func main() {
	cli.Execute()
}
