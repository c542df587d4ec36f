package main

import (
	"os"

	"talkdoc/internal/app"
)

func main() {
	os.Exit(app.Run())
}
