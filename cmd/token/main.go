// Command token imprime un JWT signé pour tester les routes protégées en local.
package main

import (
	"flag"
	"fmt"
	"os"

	"flipcart_back_end/internal/config"
	"flipcart_back_end/internal/utils"
)

func main() {
	cfg := config.Load()

	userID := flag.String("user", "", "user id placed in the user_id claim")
	role := flag.String("role", "", `role claim ("admin" for product management)`)
	ttl := flag.Duration("ttl", cfg.JWTExpiresIn, "token lifetime")
	flag.Parse()

	token, err := utils.GenerateJWT(*userID, *role, []byte(cfg.JWTSecret), *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "token:", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
