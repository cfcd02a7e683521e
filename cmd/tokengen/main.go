// Command tokengen issues an access token for a user id, signed with the
// server's secret. Server config sources (-c, -s, -t) apply; -n names the
// user.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dmitrijs2005/voicesync/internal/auth"
	"github.com/dmitrijs2005/voicesync/internal/flagx"
	"github.com/dmitrijs2005/voicesync/internal/server/config"
)

func main() {
	cfg := config.LoadConfig()

	var userID string
	fs := flag.NewFlagSet("tokengen", flag.ExitOnError)
	fs.StringVar(&userID, "n", "", "user id to issue the token for")
	_ = fs.Parse(flagx.FilterArgs(os.Args[1:], []string{"-n"}))

	if userID == "" {
		fmt.Fprintln(os.Stderr, "usage: tokengen -n <user id> [-s secret] [-t minutes]")
		os.Exit(2)
	}

	token, err := auth.GenerateToken(userID, []byte(cfg.SecretKey), cfg.AccessTokenValidityDuration)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(token)
}
