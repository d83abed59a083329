package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Run the Google OAuth flow and cache the token",
	RunE: func(cmd *cobra.Command, args []string) error {
		auth := googleAuth()

		url, err := auth.AuthURL()
		if err != nil {
			return err
		}

		fmt.Printf("Open this link to authorize Gmail and Sheets access:\n\n%s\n\n", url)
		fmt.Print("Paste the authorization code here: ")

		reader := bufio.NewReader(os.Stdin)
		code, err := reader.ReadString('\n')
		if err != nil {
			return eris.Wrap(err, "read authorization code")
		}
		code = strings.TrimSpace(code)
		if code == "" {
			return eris.New("no authorization code entered")
		}

		if err := auth.Exchange(cmd.Context(), code); err != nil {
			return err
		}

		fmt.Printf("Token saved to %s\n", cfg.Gmail.TokenPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
}
