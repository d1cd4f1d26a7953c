package api

// @title Journal API
// @version v0.1.0
// @description JSON API for a personal learning journal: dated entries, free-text tags, accounts.

// @host localhost:3000
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
