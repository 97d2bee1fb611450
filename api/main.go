package main

import (
	"github.com/joho/godotenv"

	"github.com/helixml/cookiegen/api/cmd/cookiegen"
)

func main() {
	_ = godotenv.Load()
	cookiegen.Execute()
}
