package main

import (
	_ "github.com/joho/godotenv/autoload"

	"github.com/bawes/myfatoorah/cmd"
)

func main() {
	cmd.Execute()
}
