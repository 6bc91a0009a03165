package main

import "metrika/internal/app"

// @title        Metrika API
// @version      1.0
// @description  Проекты, задачи, спринты и геймификация.
// @BasePath     /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	app.Run()
}
