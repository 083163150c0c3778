package main

import (
	"os"

	_ "storefront/docs"
)

// @title Storefront API
// @version 1.0
// @description Checkout, order status, reviews and back-office catalog for the storefront.
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
