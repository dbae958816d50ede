package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/skoobtools/estante/internal/auth"
	"github.com/skoobtools/estante/internal/browser"
	"github.com/skoobtools/estante/internal/config"
	"github.com/skoobtools/estante/internal/skoob"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Acquire a Skoob session token interactively",
	Long: `Open a browser window, wait for you to log in to Skoob, and capture
the session token the site issues to its own frontend.

The token and account identifier are printed so both can be reused
with 'estante export --token --user-id' without logging in again.`,
	RunE: runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	res, err := acquireSession(ctx, cfg)
	if err != nil {
		return err
	}

	fmt.Printf("Token:      %s\n", res.Credential)
	if res.AccountID != "" {
		fmt.Printf("Account id: %s\n", res.AccountID)
	} else {
		fmt.Println("Account id: not resolved; the first shelf page will supply it")
	}
	fmt.Printf("The token stays valid for roughly %d days.\n", skoob.TokenLifetimeDays)
	return nil
}

// acquireSession launches a browser and runs the interactive login
// flow. The acquirer owns the session and closes it on every path.
func acquireSession(ctx context.Context, cfg config.Config) (auth.Result, error) {
	session, err := browser.NewChromeSession(browser.Config{})
	if err != nil {
		return auth.Result{}, fmt.Errorf("launching browser: %w", err)
	}

	acquirer := auth.NewAcquirer(session, auth.Options{
		Filter:    cfg.Harvest.Filter,
		AccountID: auth.AccountID(cfg.UserID),
	})
	return acquirer.Acquire(ctx)
}
