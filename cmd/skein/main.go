package main

import "github.com/joho/godotenv"

func main() {
	// Missing .env files are fine, environment variables still apply.
	_ = godotenv.Load()
	Execute()
}
