package main

import "github.com/sheetwise/sheetmigrate/cmd/sheetmigrate/cmd"

func main() {
	cmd.Execute()
}
