// File: cmd/admintoken/main.go
// Command admintoken mints a bearer token for the admin API.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"telegram-media-relay/internal/infra/web"
)

func main() {
	secret := flag.String("secret", os.Getenv("ADMIN_JWT_SECRET"), "HMAC secret shared with the relay (defaults to ADMIN_JWT_SECRET)")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	subject := flag.String("subject", "admin", "token subject")
	flag.Parse()

	tok, err := web.NewAuthManager(*secret, *ttl).Mint(*subject)
	if err != nil {
		log.Fatalf("mint: %v", err)
	}
	fmt.Println(tok)
}
