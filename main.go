package main

import "github.com/firmadyne-tools/fwextract/internal/cmdutil"

func main() {
	cmdutil.Execute()
}
