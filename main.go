package main

import (
	"os"

	"github.com/mirecad/AspAzureAdGroupsAuthorization/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
