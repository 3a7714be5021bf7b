package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"rafiq/internal/config"
	"rafiq/internal/middleware"
)

var (
	flagUserID   int
	flagRole     string
	flagLanguage string
	flagTTLMin   int
	flagNoExpiry bool
)

// tokenCmd generates an HS256 JWT for testing/admin usage.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Generate a JWT (HS256) for API authentication",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		secret := cfg.JWT.Secret
		if secret == "" {
			return fmt.Errorf("jwt.secret is empty; set it in config")
		}

		now := time.Now()
		claims := map[string]interface{}{
			"iat": now.Unix(),
		}
		if flagUserID > 0 {
			claims["user_id"] = flagUserID
			claims["sub"] = fmt.Sprintf("%d", flagUserID)
		}
		if flagRole != "" {
			claims["role"] = flagRole
		}
		if flagLanguage != "" {
			claims["language"] = flagLanguage
		}
		if !flagNoExpiry {
			claims["exp"] = now.Add(time.Duration(flagTTLMin) * time.Minute).Unix()
		}

		token, err := middleware.SignHS256JWT(secret, claims)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().IntVar(&flagUserID, "user-id", 0, "user_id claim")
	tokenCmd.Flags().StringVar(&flagRole, "role", "citizen", "role claim (citizen, admin)")
	tokenCmd.Flags().StringVar(&flagLanguage, "language", "fr", "language claim (fr, ar)")
	tokenCmd.Flags().IntVar(&flagTTLMin, "ttl", 60, "token lifetime in minutes")
	tokenCmd.Flags().BoolVar(&flagNoExpiry, "no-expiry", false, "omit the exp claim")
	rootCmd.AddCommand(tokenCmd)
}
