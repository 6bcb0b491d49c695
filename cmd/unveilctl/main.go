// Command unveilctl prints the URL reports from the command line, and
// manages the content database and admin tokens.
package main

import "github.com/spf13/cobra"

func main() {
	cobra.CheckErr(newRootCmd().Execute())
}
