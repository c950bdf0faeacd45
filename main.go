package main

import "github.com/gilanghuda/weekly-report-backend/cmd"

func main() {
	cmd.Execute()
}
