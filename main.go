package main

import (
	"log"

	"igensys-backend/app"
)

func main() {
	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}
