package main

import "github.com/Gantur-Enbotics/xmas-2025/internal/app"

// @title        Xmas Letters API
// @version      1.0
// @description  Phone-verification-gated letter unlock service
// @BasePath     /
func main() {
	app.Run()
}
